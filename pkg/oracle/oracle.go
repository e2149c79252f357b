// Package oracle is the boundary to the external language model service.
// The service is treated as a fallible, untrusted black box: every response
// crosses a strict validation step before anything downstream sees it, and
// callers must be prepared for ErrUnavailable at any time.
package oracle

import (
	"context"
	"errors"
)

// Failure taxonomy. Callers branch on these with errors.Is; everything else
// wraps one of them or the raw transport error.
var (
	// ErrUnavailable: the service is unreachable, errored, or timed out.
	ErrUnavailable = errors.New("oracle unavailable")
	// ErrMalformed: the service answered, but not in the required shape.
	ErrMalformed = errors.New("oracle response malformed")
)

// Message is one turn of a chat-shaped exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one generation call. JSONMode asks the
// backend for a single structured object; backends that cannot enforce it
// natively still get the requirement stated in the instruction text.
type CompletionRequest struct {
	SystemInstruction string
	Messages          []Message
	Temperature       float64
	JSONMode          bool
}

// Client generates text from a chat-shaped request. Implementations:
// OpenAIClient (any OpenAI-compatible endpoint), GeminiClient, and Fake
// for tests.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Chat temperatures follow the original application: deterministic for
// structured judgments, warmer for conversational replies.
const (
	JSONTemperature = 0.0
	ChatTemperature = 0.7
)
