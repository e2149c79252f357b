package risk

import (
	"context"
	"fmt"
	"time"
)

// Assessment is the untrusted, structured judgment returned by an external
// risk assessor before validation. RiskLabel is free text until ParseLevel
// accepts it.
type Assessment struct {
	RiskLabel string
	Keywords  []string
	Analysis  string
}

// Assessor produces a structured risk assessment for one piece of text.
// Implementations live in pkg/oracle: a remote language model or an
// optional on-device classifier.
type Assessor interface {
	AssessRisk(ctx context.Context, text string) (*Assessment, error)
}

// DefaultClassifyTimeout bounds a single assessor call. The classifier is
// the only suspension point in the pipeline; an unresponsive oracle must
// degrade to the fallback signal instead of stalling the conversation.
const DefaultClassifyTimeout = 10 * time.Second

// Classifier adapts an external Assessor into a ModelSignal producer.
// Classify never raises: every failure mode is captured inside the
// returned signal so the pipeline always completes.
type Classifier struct {
	assessor Assessor
	timeout  time.Duration
}

// NewClassifier wraps an assessor. A zero timeout selects
// DefaultClassifyTimeout. A nil assessor is allowed and always degrades —
// the pipeline then runs on keyword detection alone.
func NewClassifier(assessor Assessor, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = DefaultClassifyTimeout
	}
	return &Classifier{assessor: assessor, timeout: timeout}
}

// Classify asks the assessor for a risk judgment and validates it into a
// ModelSignal. On any failure — assessor unreachable, timed out, malformed
// output, unrecognized label — the signal falls back to LevelLow with the
// failure recorded in Analysis and Degraded set. The fallback favors
// pipeline availability: the keyword scorer still runs unconditionally, so
// a degraded model path can only under-report what the lexicon also misses.
//
// No retries here. A failed call degrades immediately rather than keeping
// the user waiting on a safety check.
func (c *Classifier) Classify(ctx context.Context, text string) ModelSignal {
	if c.assessor == nil {
		return degradedSignal("model assessor not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	assessment, err := c.assessor.AssessRisk(ctx, text)
	if err != nil {
		return degradedSignal(fmt.Sprintf("model assessment unavailable: %v", err))
	}
	if assessment == nil {
		return degradedSignal("model assessment unavailable: empty result")
	}

	level, ok := ParseLevel(assessment.RiskLabel)
	if !ok {
		return degradedSignal(fmt.Sprintf("model returned unrecognized risk label %q", assessment.RiskLabel))
	}

	return ModelSignal{
		Level:    level,
		Detected: assessment.Keywords,
		Analysis: assessment.Analysis,
	}
}

func degradedSignal(reason string) ModelSignal {
	return ModelSignal{
		Level:    LevelLow,
		Analysis: reason,
		Degraded: true,
	}
}
