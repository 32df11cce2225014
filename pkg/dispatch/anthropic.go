package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/promptdesk/promptdesk/pkg/imaging"
)

const anthropicMaxTokens = 4000

type anthropicCaller struct{}

func (a *anthropicCaller) call(ctx context.Context, model string, p payload) (Response, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return Response{}, &ProviderAuthError{Provider: ProviderAnthropic, Var: "ANTHROPIC_API_KEY"}
	}
	client := anthropic.NewClient(anthropicopt.WithAPIKey(key))

	content := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(p.prompt)}
	for _, img := range p.fileImages {
		content = append(content, anthropic.NewImageBlockBase64(imaging.MediaType, string(img)))
	}
	if p.fileText != "" {
		content = append(content, anthropic.NewTextBlock(
			fmt.Sprintf("Here's the content of the attached file:\n\n%s\n\nPlease analyze this content based on the given prompt.", p.fileText)))
	}

	msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(anthropicMaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(content...),
		},
	})
	if err != nil {
		return Response{}, err
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	if b.Len() == 0 {
		return Response{}, errors.New("anthropic: empty response")
	}
	return textResponse(b.String()), nil
}
