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
	DefaultOllamaBaseURL = "http://127.0.0.1:11434"
	ollamaChatPath       = "/api/chat"
)

// Ollama calls a local or remote Ollama server's chat endpoint.
type Ollama struct {
	transport
	baseURL string
	apiKey  string
}

var _ ports.Generator = (*Ollama)(nil)

func NewOllama(baseURL, apiKey string, httpClient *http.Client, requestTimeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}

	return &Ollama{
		transport: transport{httpClient: httpClient, requestTimeout: requestTimeout},
		baseURL:   baseURL,
		apiKey:    apiKey,
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message         ollamaMessage `json:"message"`
	PromptEvalCount int64         `json:"prompt_eval_count"`
	EvalCount       int64         `json:"eval_count"`
}

func (o *Ollama) Generate(ctx context.Context, req ports.GenerationRequest) (ports.Generation, error) {
	endpoint, err := buildAPIURL(o.baseURL, ollamaChatPath)
	if err != nil {
		return ports.Generation{}, err
	}

	messages := make([]ollamaMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: req.Prompt})

	body := ollamaRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   false,
	}
	if req.MaxTokens > 0 {
		body.Options = map[string]any{"num_predict": req.MaxTokens}
	}

	headers := map[string]string{}
	if o.apiKey != "" {
		headers["Authorization"] = "Bearer " + o.apiKey
	}

	var resp ollamaResponse
	if err := o.postJSON(ctx, endpoint, headers, body, &resp, decodeOllamaError); err != nil {
		return ports.Generation{}, fmt.Errorf("ollama chat: %w", err)
	}

	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		return ports.Generation{}, errors.New("ollama chat: response has no content")
	}

	return ports.Generation{
		Text:         text,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
	}, nil
}

func decodeOllamaError(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Error
}
