package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/solacehealth/solace/pkg/httputil"
)

// Provider identifies which OpenAI-compatible backend to talk to. They all
// speak the same /chat/completions dialect; only the base URL and auth
// differ.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderGroq       Provider = "groq"
	ProviderOllama     Provider = "ollama"
	ProviderOpenAI     Provider = "openai"
	ProviderCustom     Provider = "custom"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client   *http.Client
	provider Provider
	baseURL  string
	apiKey   string
	model    string
}

// OpenAIConfig configures the client. APIKey is optional for Ollama.
type OpenAIConfig struct {
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string // optional override
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// maxResponseSize bounds response reads. The provider is untrusted; a
// misbehaving endpoint must not be able to exhaust memory. 2MB is generous
// for any legitimate completion.
const maxResponseSize = 2 * 1024 * 1024

// NewOpenAIClient creates a client for the given provider with pooled
// connections shared across the process.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		switch cfg.Provider {
		case ProviderGroq:
			baseURL = "https://api.groq.com/openai/v1"
		case ProviderOllama:
			baseURL = "http://localhost:11434/v1"
		case ProviderOpenAI:
			baseURL = "https://api.openai.com/v1"
		case ProviderOpenRouter, ProviderCustom:
			fallthrough
		default:
			baseURL = "https://openrouter.ai/api/v1"
		}
	}

	model := cfg.Model
	if model == "" {
		if cfg.Provider == ProviderOllama {
			model = "qwen2.5:7b"
		} else {
			model = "google/gemini-2.0-flash-lite-001"
		}
	}

	return &OpenAIClient{
		client:   httputil.Client(httputil.TierMedium),
		provider: cfg.Provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   cfg.APIKey,
		model:    model,
	}
}

// Complete performs one chat completion call. JSON mode is carried in the
// system instruction itself; the OpenAI dialect's response_format knob is
// not universal across these providers, so it is not relied upon.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if c.provider != ProviderOllama && c.apiKey == "" {
		return "", fmt.Errorf("api key not configured for provider %s", c.provider)
	}

	msgs := make([]Message, 0, len(req.Messages)+1)
	if req.SystemInstruction != "" {
		msgs = append(msgs, Message{Role: "system", Content: req.SystemInstruction})
	}
	msgs = append(msgs, req.Messages...)

	body := chatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: req.Temperature,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer httputil.DrainAndClose(resp.Body)

	respBody, err := httputil.ReadResponseBody(resp.Body, maxResponseSize)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider %s returned %d: %s", c.provider, resp.StatusCode, string(respBody))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices returned by provider %s", c.provider)
	}

	return parsed.Choices[0].Message.Content, nil
}
