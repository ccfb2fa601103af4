package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey string, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) Analyze(ctx context.Context, system, prompt string, img Image) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	resp, err := model.GenerateContent(ctx,
		genai.ImageData(imageFormat(img.ContentType), img.Data),
		genai.Text(prompt),
	)
	if err != nil {
		return "", mapGeminiError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

// imageFormat maps a MIME type to the format label genai expects ("jpeg",
// "png", ...).
func imageFormat(contentType string) string {
	format := strings.TrimPrefix(contentType, "image/")
	if format == "" {
		format = "jpeg"
	}
	return format
}

func mapGeminiError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case 401, 403:
		return fmt.Errorf("%w: %v", ErrAuth, err)
	case 429:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case 413:
		return fmt.Errorf("%w: %v", ErrContentTooLarge, err)
	}
	return err
}
