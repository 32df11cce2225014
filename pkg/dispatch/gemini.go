package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/promptdesk/promptdesk/pkg/imaging"
)

const (
	geminiTemperature     = 0.7
	geminiTopP            = 0.95
	geminiTopK            = 64
	geminiMaxOutputTokens = 8000
)

type geminiCaller struct{}

func (g *geminiCaller) call(ctx context.Context, model string, p payload) (Response, error) {
	key := os.Getenv("GOOGLE_API_KEY")
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		return Response{}, &ProviderAuthError{Provider: ProviderGemini, Var: "GOOGLE_API_KEY"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return Response{}, fmt.Errorf("gemini init: %w", err)
	}
	defer client.Close()

	gm := client.GenerativeModel(model)
	gm.SetTemperature(geminiTemperature)
	gm.SetTopP(geminiTopP)
	gm.SetTopK(geminiTopK)
	gm.SetMaxOutputTokens(geminiMaxOutputTokens)

	parts := []genai.Part{genai.Text(p.prompt)}
	for _, img := range p.fileImages {
		raw, err := img.Bytes()
		if err != nil {
			zap.L().Warn("skipping undecodable inline image", zap.Error(err))
			continue
		}
		parts = append(parts, genai.Blob{MIMEType: imaging.MediaType, Data: raw})
	}
	if p.fileText != "" {
		parts = append(parts, genai.Text(
			fmt.Sprintf("Here's the content of the attached file:\n\n%s\n\nPlease analyze this content based on the given prompt.", p.fileText)))
	}

	resp, err := gm.GenerateContent(ctx, parts...)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, errors.New("gemini: empty response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return Response{}, errors.New("gemini: no text response generated")
	}
	return textResponse(strings.TrimSpace(b.String())), nil
}
