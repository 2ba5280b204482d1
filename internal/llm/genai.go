package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"multimind/internal/logging"
	"multimind/internal/types"
)

// =============================================================================
// GOOGLE GENAI COMPLETION CLIENT
// =============================================================================

// GenAIClient implements types.LLMClient against Google's Gemini API.
type GenAIClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGenAIClient creates a completion client.
func NewGenAIClient(apiKey, model string, timeout time.Duration) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, types.NewInputError("api_key", "GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, types.NewDependencyError("genai", fmt.Errorf("create client: %w", err))
	}

	return &GenAIClient{client: client, model: model, timeout: timeout}, nil
}

// Complete generates a completion for a bare prompt.
func (c *GenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, nil)
}

// CompleteWithSystem generates a completion with a system instruction.
func (c *GenAIClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	var cfg *genai.GenerateContentConfig
	if system != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}
	return c.generate(ctx, user, cfg)
}

func (c *GenAIClient) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	timer := logging.StartTimer(logging.CategoryAPI, "genai.generate")
	defer timer.StopWithThreshold(5 * time.Second)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", types.NewDependencyError("genai", fmt.Errorf("generate content: %w", err))
	}

	text := result.Text()
	if text == "" {
		return "", types.NewDependencyError("genai", fmt.Errorf("empty completion from %s", c.model))
	}
	return text, nil
}

// Name identifies the backing model.
func (c *GenAIClient) Name() string {
	return fmt.Sprintf("genai:%s", c.model)
}
