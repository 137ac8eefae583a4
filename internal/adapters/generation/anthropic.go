package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/agent-council/internal/ports"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	anthropicMessagesPath   = "/v1/messages"
)

// Anthropic calls the Messages API.
type Anthropic struct {
	transport
	baseURL string
	apiKey  string
}

var _ ports.Generator = (*Anthropic)(nil)

func NewAnthropic(baseURL, apiKey string, httpClient *http.Client, requestTimeout time.Duration) *Anthropic {
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}

	return &Anthropic{
		transport: transport{httpClient: httpClient, requestTimeout: requestTimeout},
		baseURL:   baseURL,
		apiKey:    apiKey,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Anthropic) Generate(ctx context.Context, req ports.GenerationRequest) (ports.Generation, error) {
	if a.apiKey == "" {
		return ports.Generation{}, errors.New("anthropic api key is required")
	}

	endpoint, err := buildAPIURL(a.baseURL, anthropicMessagesPath)
	if err != nil {
		return ports.Generation{}, err
	}

	body := anthropicRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages:  []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := a.postJSON(ctx, endpoint, headers, body, &resp, decodeAnthropicError); err != nil {
		return ports.Generation{}, fmt.Errorf("anthropic messages: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return ports.Generation{}, errors.New("anthropic messages: response has no text content")
	}

	return ports.Generation{
		Text:         text.String(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

func decodeAnthropicError(raw []byte) string {
	var payload anthropicError
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error.Message == "" {
		return ""
	}
	if payload.Error.Type == "" {
		return payload.Error.Message
	}
	return payload.Error.Type + ": " + payload.Error.Message
}
