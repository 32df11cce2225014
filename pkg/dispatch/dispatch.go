// Package dispatch adapts one canonical request (prompt, history, context
// files, at most one primary file) into each provider's payload shape, invokes
// the provider, and normalizes whatever comes back. Dispatch is total: every
// failure, local or remote, surfaces as a text-shaped error response rather
// than an escaping fault.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/promptdesk/promptdesk/pkg/imaging"
	"github.com/promptdesk/promptdesk/pkg/ingest"
	"github.com/promptdesk/promptdesk/pkg/session"
)

// Provider identifies one of the supported LLM vendors.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// ResponseKind discriminates the response union.
type ResponseKind int

const (
	ResponseText ResponseKind = iota
	ResponseImage
	ResponseError
)

// Response is the single normalized result shape for every provider path.
type Response struct {
	Kind  ResponseKind
	Text  string // text result, transcription, or rendered error
	Image []byte // raw encoded image bytes for ResponseImage
}

func textResponse(text string) Response  { return Response{Kind: ResponseText, Text: text} }
func imageResponse(img []byte) Response  { return Response{Kind: ResponseImage, Image: img} }
func errorResponse(text string) Response { return Response{Kind: ResponseError, Text: text} }

// ProviderAuthError reports a missing credential for a provider.
type ProviderAuthError struct {
	Provider Provider
	Var      string
}

func (e *ProviderAuthError) Error() string {
	return fmt.Sprintf("%s: missing API key (set %s)", e.Provider, e.Var)
}

// ProviderCallError wraps any SDK or network failure from a provider call.
type ProviderCallError struct {
	Provider Provider
	Cause    error
}

func (e *ProviderCallError) Error() string {
	return fmt.Sprintf("error processing request via %s: %v", e.Provider, e.Cause)
}

func (e *ProviderCallError) Unwrap() error { return e.Cause }

// Request is the canonical dispatch input. History and context files are
// owned by the caller; dispatch only reads them.
type Request struct {
	Provider     Provider
	Model        string
	Prompt       string
	PrimaryFile  string // optional
	History      []session.Item
	ContextFiles []string
}

// payload is the provider-independent assembly handed to a caller: history
// and context are already folded into the prompt, the primary file is reduced
// to its extracted text and normalized images.
type payload struct {
	prompt     string
	fileText   string
	fileImages []imaging.Image
	audioPath  string // set when the primary file is audio
}

// caller is the provider-specific terminal stage.
type caller interface {
	call(ctx context.Context, model string, p payload) (Response, error)
}

// Dispatcher builds provider payloads from ingested content and routes them.
type Dispatcher struct {
	ingestor *ingest.Ingestor
	callers  map[Provider]caller
}

func New(in *ingest.Ingestor) *Dispatcher {
	return &Dispatcher{
		ingestor: in,
		callers: map[Provider]caller{
			ProviderOpenAI:    &openAICaller{},
			ProviderAnthropic: &anthropicCaller{},
			ProviderGemini:    &geminiCaller{},
			ProviderDummy:     &dummyCaller{},
		},
	}
}

// Dispatch runs the provider-independent stages, then the provider's terminal
// behavior. It always returns a value; no failure propagates as a fault.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	prompt := req.Prompt

	if len(req.History) > 0 {
		prompt = renderHistory(req.History) + "\n\nNew prompt: " + prompt
	}

	if len(req.ContextFiles) > 0 {
		block := d.ingestor.IngestContextSet(ctx, req.ContextFiles)
		prompt = block + "\n\nContext:\n" + prompt
	}

	p := payload{prompt: prompt}
	if req.PrimaryFile != "" {
		content, err := d.ingestor.Ingest(ctx, req.PrimaryFile)
		if err != nil {
			// A broken primary file aborts just this request; the wrapped
			// message is the response.
			return errorResponse(fmt.Sprintf("Error processing file %s: %v", req.PrimaryFile, err))
		}
		p.fileText = content.Text
		p.fileImages = content.Images
		if ingest.KindOf(req.PrimaryFile) == ingest.KindAudio {
			p.audioPath = req.PrimaryFile
		}
	}

	c, ok := d.callers[req.Provider]
	if !ok {
		return errorResponse(fmt.Sprintf("invalid provider selected: %s", req.Provider))
	}

	resp, err := c.call(ctx, req.Model, p)
	if err != nil {
		var authErr *ProviderAuthError
		if !errors.As(err, &authErr) {
			err = &ProviderCallError{Provider: req.Provider, Cause: err}
		}
		zap.L().Warn("provider call failed",
			zap.String("provider", string(req.Provider)),
			zap.String("model", req.Model),
			zap.Error(err))
		return errorResponse(err.Error())
	}
	return resp
}

// renderHistory flattens the conversation log into a text prefix. Image items
// are redacted down to a short prefix of their encoded form; embedding them
// again would blow up every follow-up prompt.
func renderHistory(items []session.Item) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		switch item.Kind {
		case session.ItemImage:
			encoded := string(item.Image)
			if len(encoded) > 20 {
				encoded = encoded[:20]
			}
			lines = append(lines, fmt.Sprintf("[Image: Base64 encoded, starts with %s...]", encoded))
		default:
			lines = append(lines, item.Text)
		}
	}
	return strings.Join(lines, "\n")
}
