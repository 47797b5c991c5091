// Package gemini adapts the Google GenAI SDK to the cascade backend contract.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/interview-rehearsal/internal/cascade"
	"github.com/spigell/interview-rehearsal/internal/logger"
)

const (
	Provider = "gemini"

	jsonMIMEType = "application/json"
)

type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client shares one GenAI connection between several model backends.
type Client struct {
	models modelsAPI
	logger *zap.Logger
}

// NewClient creates a Client configured for the Gemini API backend.
func NewClient(ctx context.Context, apiKey string, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{models: client.Models, logger: logger.WithFields(log)}, nil
}

// Model returns a cascade backend bound to the named model.
func (c *Client) Model(name string) *Model {
	name = strings.TrimSpace(name)
	return &Model{
		client: c,
		name:   name,
		logger: logger.WithBackend(c.logger, Provider, name),
	}
}

// Model is one Gemini model exposed as a cascade backend.
type Model struct {
	client *Client
	name   string
	logger *zap.Logger
}

func (m *Model) Name() string { return Provider + "/" + m.name }

// Invoke sends the prompt and returns the concatenated text of all candidates.
// Quota rejections are wrapped with cascade.ErrQuota.
func (m *Model) Invoke(ctx context.Context, in cascade.Input) (string, error) {
	if m == nil || m.client == nil || m.client.models == nil {
		return "", errors.New("gemini backend is not initialized")
	}

	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{}
	if system := strings.TrimSpace(in.System); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if in.JSON {
		config.ResponseMIMEType = jsonMIMEType
	}

	resp, err := m.client.models.GenerateContent(ctx, m.name, genai.Text(prompt), config)
	if err != nil {
		if isQuota(err) {
			return "", fmt.Errorf("generate content: %w: %w", cascade.ErrQuota, err)
		}
		return "", fmt.Errorf("generate content: %w", err)
	}

	output := collectText(resp)
	if output == "" {
		return "", fmt.Errorf("gemini api returned no text: %w", cascade.ErrEmptyOutput)
	}

	m.logger.Debug("gemini response received", zap.Int("candidates", len(resp.Candidates)))
	return output, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
		// Only the first candidate with text is used; the rest are alternatives.
		if builder.Len() > 0 {
			break
		}
	}

	return strings.TrimSpace(builder.String())
}

func isQuota(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Status == "RESOURCE_EXHAUSTED"
	}
	return false
}
