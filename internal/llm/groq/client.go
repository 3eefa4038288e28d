package groq

import (
	"context"
	"fmt"
	"strings"

	"github.com/conneroisu/groq-go"

	"topicast/internal/llm"
)

type Client struct {
	client *groq.Client
	model  groq.ChatModel
}

type option func(*options)

type options struct {
	baseURL string
}

func withBaseURL(url string) option {
	return func(o *options) {
		o.baseURL = url
	}
}

func NewClient(apiKey, model string) (*Client, error) {
	return newClient(apiKey, model)
}

func newClient(apiKey, model string, opts ...option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var client *groq.Client
	var err error
	if o.baseURL != "" {
		client, err = groq.NewClient(apiKey, groq.WithBaseURL(o.baseURL))
	} else {
		client, err = groq.NewClient(apiKey)
	}
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &Client{
		client: client,
		model:  groq.ChatModel(model),
	}, nil
}

func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	resp, err := c.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toGroqMessages(messages),
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty response")
	}

	return content, nil
}

func toGroqMessages(messages []llm.Message) []groq.ChatCompletionMessage {
	out := make([]groq.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := groq.RoleUser
		if m.Role == llm.RoleSystem {
			role = groq.RoleSystem
		}
		out = append(out, groq.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
