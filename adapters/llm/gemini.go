package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/yanyshev/ml-research-14team/domain"
)

const defaultGeminiModel = "gemini-2.0-flash-001"

// GeminiClient is the alternate provider, using the same genai SDK setup
// (GEMINI_API_KEY is picked up from the environment by the SDK).
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(
		ctx,
		&genai.ClientConfig{
			HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Complete implements domain.Llm.
func (g *GeminiClient) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	var config *genai.GenerateContentConfig
	if prompt.System != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: prompt.System}},
			},
		}
	}

	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt.User),
		config,
	)
	if err != nil {
		return "", &domain.ClientError{Provider: "gemini", Err: err}
	}

	return resp.Text(), nil
}
