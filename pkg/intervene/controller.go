package intervene

import (
	"context"
	"log"
	"time"

	"github.com/solacehealth/solace/pkg/risk"
	"github.com/solacehealth/solace/pkg/session"
	"github.com/solacehealth/solace/pkg/telemetry"
)

// Outcome is what the conversational layer renders after a verdict has
// been applied: the state, the resource bundle if any, and the
// companion's follow-up line.
type Outcome struct {
	State     State          `json:"state"`
	Directive *Directive     `json:"directive,omitempty"`
	FollowUp  string         `json:"follow_up"`
	Level     risk.RiskLevel `json:"level"`
}

// Controller applies verdicts: it decides the state, records the crisis
// event in the session, and emits the audit entry. Audit and session
// failures are logged, never returned; the user must see the directive
// regardless of what the back half of the pipeline is doing.
type Controller struct {
	emitter *Emitter
	store   session.Store
}

// NewController wires the audit emitter and session store. Either may
// be nil; a nil emitter skips auditing, a nil store skips recording.
func NewController(emitter *Emitter, store session.Store) *Controller {
	return &Controller{emitter: emitter, store: store}
}

// Apply turns a fused verdict into an outcome. Exactly one audit event
// is emitted per intervention; NoAction emits nothing.
func (c *Controller) Apply(ctx context.Context, sessionID string, v *risk.FusedVerdict) *Outcome {
	state := StateFor(v)
	out := &Outcome{
		State:     state,
		Directive: DirectiveFor(state),
	}
	if v != nil {
		out.Level = v.FinalLevel
		out.FollowUp = FollowUpFor(v.FinalLevel)
	} else {
		out.FollowUp = FollowUpFor(risk.LevelLow)
	}

	if state == NoAction || v == nil {
		return out
	}

	kind := "support"
	if state == CrisisOverride {
		kind = "immediate"
	}
	now := time.Now().UTC()

	telemetry.InterventionsTotal.WithLabelValues(kind).Inc()

	if c.store != nil {
		ev := session.CrisisEvent{Level: v.FinalLevel.String(), Kind: kind, Timestamp: now}
		if err := c.store.AppendCrisisEvent(ctx, sessionID, ev); err != nil {
			log.Printf("[WARN] record crisis event: %v", err)
		}
	}

	c.emitter.Emit(&Event{
		Timestamp:    now,
		SessionID:    sessionID,
		Kind:         kind,
		FinalLevel:   v.FinalLevel.String(),
		KeywordLevel: v.Keyword.Level.String(),
		KeywordScore: v.Keyword.Score,
		ModelLevel:   v.Model.Level.String(),
		Degraded:     v.Model.Degraded,
	})

	return out
}
