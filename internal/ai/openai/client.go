// Package openai exposes any OpenAI-compatible chat completion endpoint as a
// cascade backend.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spigell/interview-rehearsal/internal/cascade"
	"github.com/spigell/interview-rehearsal/internal/logger"
)

const Provider = "openai"

type Config struct {
	APIKey string
	// BaseURL selects a compatible provider. Empty means api.openai.com.
	BaseURL string
	Model   string
}

// Client is a single model behind a chat completion endpoint.
type Client struct {
	client *goopenai.Client
	model  string
	logger *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("openai model is required")
	}

	clientCfg := goopenai.DefaultConfig(apiKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}

	return &Client{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: logger.WithBackend(log, Provider, model),
	}, nil
}

func (c *Client) Name() string { return Provider + "/" + c.model }

// Invoke runs one chat completion and returns the first choice's content.
func (c *Client) Invoke(ctx context.Context, in cascade.Input) (string, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if system := strings.TrimSpace(in.System); system != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: prompt})

	req := goopenai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}
	if in.JSON {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if isQuota(err) {
			return "", fmt.Errorf("chat completion: %w: %w", cascade.ErrQuota, err)
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned: %w", cascade.ErrEmptyOutput)
	}

	c.logger.Debug("chat completion received", zap.String("finish_reason", string(resp.Choices[0].FinishReason)))

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("first choice has no content: %w", cascade.ErrEmptyOutput)
	}
	return content, nil
}

func isQuota(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
