package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/solacehealth/solace/pkg/risk"
)

// riskAssessmentResponse is the wire shape the crisis instruction demands.
// Any deviation is a parse failure; there is no lenient path.
type riskAssessmentResponse struct {
	RiskLevel        string   `json:"risk_level"`
	KeywordsDetected []string `json:"keywords_detected"`
	Analysis         string   `json:"analysis"`
}

// LLMAssessor asks a language model for a structured crisis judgment. It
// implements risk.Assessor; the strictness of label handling lives in
// pkg/risk, this type only gets the response into a structured shape.
type LLMAssessor struct {
	client Client
}

// NewLLMAssessor wraps a completion client.
func NewLLMAssessor(client Client) *LLMAssessor {
	return &LLMAssessor{client: client}
}

// AssessRisk sends the text with the fixed crisis instruction and parses
// the single JSON object the instruction requires. Model output often
// arrives wrapped in markdown fences or prose, so the object is extracted
// before unmarshalling.
func (a *LLMAssessor) AssessRisk(ctx context.Context, text string) (*risk.Assessment, error) {
	req := CompletionRequest{
		SystemInstruction: CrisisInstruction,
		Messages: []Message{
			{Role: "user", Content: "Analyze the following user input and determine the risk level and relevant keywords. User input: " + text},
		},
		Temperature: JSONTemperature,
		JSONMode:    true,
	}

	raw, err := a.client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var resp riskAssessmentResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if resp.RiskLevel == "" {
		return nil, fmt.Errorf("%w: missing risk_level field", ErrMalformed)
	}

	return &risk.Assessment{
		RiskLabel: resp.RiskLevel,
		Keywords:  resp.KeywordsDetected,
		Analysis:  resp.Analysis,
	}, nil
}

// extractJSON strips anything around the outermost JSON object. Models
// routinely wrap JSON in ```json fences or add a sentence of prose.
func extractJSON(content string) string {
	clean := strings.TrimSpace(content)
	if start := strings.Index(clean, "{"); start != -1 {
		clean = clean[start:]
	}
	if end := strings.LastIndex(clean, "}"); end != -1 {
		clean = clean[:end+1]
	}
	return clean
}
