package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/solacehealth/solace/pkg/httputil"
)

// GeminiClient talks to the Google generative language API directly. The
// original application ran on Gemini, so this backend stays first-class
// rather than being squeezed through an OpenAI-compatibility shim.
type GeminiClient struct {
	client *http.Client
	apiKey string
	model  string
}

// NewGeminiClient creates a Gemini client. An empty model selects the
// flash tier, which is fast enough to sit on the crisis path.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiClient{
		client: httputil.Client(httputil.TierMedium),
		apiKey: apiKey,
		model:  model,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"system_instruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  map[string]interface{} `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Complete performs one generateContent call.
func (g *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("gemini api key not configured")
	}

	genConfig := map[string]interface{}{
		"temperature": req.Temperature,
	}
	if req.JSONMode {
		genConfig["responseMimeType"] = "application/json"
	}

	body := geminiRequest{
		Contents:         make([]geminiContent, 0, len(req.Messages)),
		GenerationConfig: genConfig,
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemInstruction}}}
	}
	for _, m := range req.Messages {
		role := m.Role
		// Gemini's dialect calls the assistant side "model".
		if role == "assistant" {
			role = "model"
		}
		body.Contents = append(body.Contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer httputil.DrainAndClose(resp.Body)

	respBody, err := httputil.ReadResponseBody(resp.Body, maxResponseSize)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
