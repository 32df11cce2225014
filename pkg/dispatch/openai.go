package dispatch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"

	"github.com/promptdesk/promptdesk/pkg/imaging"
)

const openAIMaxTokens = 12000

// imageGenSizes routes specific model identifiers to the image-generation
// endpoint, each with its fixed output resolution.
var imageGenSizes = map[string]string{
	"dall-e-2": "512x512",
	"dall-e-3": "1024x1024",
}

// transcriptionModel routes to the audio-transcription endpoint.
const transcriptionModel = "whisper-1"

// openAIRoute selects which endpoint a model identifier is sent to.
type openAIRoute int

const (
	routeChat openAIRoute = iota
	routeImageGen
	routeTranscription
)

func routeOpenAIModel(model string) openAIRoute {
	if _, ok := imageGenSizes[model]; ok {
		return routeImageGen
	}
	if model == transcriptionModel {
		return routeTranscription
	}
	return routeChat
}

type openAICaller struct{}

func (o *openAICaller) call(ctx context.Context, model string, p payload) (Response, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		key = os.Getenv("OPENAI_KEY") // fallback
	}
	if key == "" {
		return Response{}, &ProviderAuthError{Provider: ProviderOpenAI, Var: "OPENAI_API_KEY"}
	}
	client := openai.NewClient(key)

	switch routeOpenAIModel(model) {
	case routeImageGen:
		return o.generateImage(ctx, client, model, imageGenSizes[model], p.prompt)
	case routeTranscription:
		return o.transcribe(ctx, client, p.audioPath)
	default:
		return o.chat(ctx, client, model, p)
	}
}

func (o *openAICaller) chat(ctx context.Context, client *openai.Client, model string, p payload) (Response, error) {
	text := p.prompt
	if p.fileText != "" {
		text = fmt.Sprintf("%s\n\nFile content:\n%s", text, p.fileText)
	}

	message := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(p.fileImages) > 0 {
		parts := []openai.ChatMessagePart{{
			Type: openai.ChatMessagePartTypeText,
			Text: text,
		}}
		for _, img := range p.fileImages {
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    fmt.Sprintf("data:%s;base64,%s", imaging.MediaType, img),
					Detail: openai.ImageURLDetailAuto,
				},
			})
		}
		message.MultiContent = parts
	} else {
		message.Content = text
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		Messages:  []openai.ChatCompletionMessage{message},
		MaxTokens: openAIMaxTokens,
	})
	if err != nil {
		return Response{}, err
	}
	if len(resp.Choices) == 0 {
		return Response{}, errors.New("no response from OpenAI")
	}
	return textResponse(resp.Choices[0].Message.Content), nil
}

func (o *openAICaller) generateImage(ctx context.Context, client *openai.Client, model, size, prompt string) (Response, error) {
	resp, err := client.CreateImage(ctx, openai.ImageRequest{
		Model:          model,
		Prompt:         prompt,
		Size:           size,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return Response{}, fmt.Errorf("error generating image: %w", err)
	}
	if len(resp.Data) == 0 {
		return Response{}, errors.New("image generation returned no data")
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return Response{}, fmt.Errorf("error decoding generated image: %w", err)
	}
	return imageResponse(raw), nil
}

func (o *openAICaller) transcribe(ctx context.Context, client *openai.Client, audioPath string) (Response, error) {
	if audioPath == "" {
		return Response{}, errors.New("transcription model requires an audio file")
	}
	resp, err := client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    transcriptionModel,
		FilePath: audioPath,
	})
	if err != nil {
		return Response{}, fmt.Errorf("error transcribing audio file: %w", err)
	}
	return textResponse(fmt.Sprintf("Transcription of %s:\n\n%s", filepath.Base(audioPath), resp.Text)), nil
}
