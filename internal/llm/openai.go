package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to the OpenAI chat completions API or any compatible
// endpoint (Azure OpenAI, Ollama).
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func NewOpenAIClient(apiKey, model, baseURL string, maxTokens int) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(config),
		model:     model,
		maxTokens: maxTokens,
	}
}

// NewAzureClient creates a client for an Azure OpenAI deployment. model is
// the deployment name.
func NewAzureClient(apiKey, model, endpoint, apiVersion string, maxTokens int) *OpenAIClient {
	config := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion != "" {
		config.APIVersion = apiVersion
	}
	config.AzureModelMapperFunc = func(string) string { return model }
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(config),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens: c.maxTokens,
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return resp.Choices[0].Message.Content, nil
}
