package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

type ClaudeClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewClaudeClient(apiKey, model, baseURL string, maxTokens int) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeClient{
		client:    anthropic.NewClient(apiKey, opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0)
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create message: %w", err)
	}

	var sb strings.Builder
	for _, content := range resp.Content {
		if content.Text != nil {
			sb.WriteString(*content.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no response content")
	}
	return sb.String(), nil
}
