// Package chat runs the companion conversation loop: every user message
// passes through the risk pipeline before any reply is generated, and an
// intervention replaces the reply entirely.
package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/solacehealth/solace/pkg/httputil"
	"github.com/solacehealth/solace/pkg/intervene"
	"github.com/solacehealth/solace/pkg/oracle"
	"github.com/solacehealth/solace/pkg/risk"
	"github.com/solacehealth/solace/pkg/session"
	"github.com/solacehealth/solace/pkg/telemetry"
)

// degradedReply is sent when the oracle cannot produce a conversational
// reply. Static on purpose: the user still gets acknowledged.
const degradedReply = "I'm having trouble connecting right now, but I'm still here with you. " +
	"If you'd like, take a slow breath and tell me more about what's on your mind, " +
	"and I'll catch up as soon as I can."

// Turn is the result of one handled message: what to show, and what the
// safety pipeline decided along the way.
type Turn struct {
	SessionID string             `json:"session_id"`
	Reply     string             `json:"reply"`
	Outcome   *intervene.Outcome `json:"outcome"`
	RiskLevel risk.RiskLevel     `json:"risk_level"`
	Degraded  bool               `json:"degraded"`
}

// Companion owns the conversation loop. All collaborators except the
// pipeline and controller are optional; a nil client yields degraded
// replies, a nil store keeps no history.
type Companion struct {
	pipeline   *risk.Pipeline
	controller *intervene.Controller
	client     oracle.Client
	store      session.Store

	persona       string
	historyWindow int
	sem           *httputil.Semaphore
}

// Config wires the companion.
type Config struct {
	Pipeline   *risk.Pipeline
	Controller *intervene.Controller
	Client     oracle.Client
	Store      session.Store

	// DefaultPersona is used when a message carries none.
	DefaultPersona string
	// HistoryWindow is how many prior turns each completion sees.
	HistoryWindow int
	// MaxConcurrentCompletions caps in-flight oracle calls.
	MaxConcurrentCompletions int
}

// NewCompanion validates and wires a companion.
func NewCompanion(cfg Config) (*Companion, error) {
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("chat: pipeline is required")
	}
	if cfg.Controller == nil {
		return nil, fmt.Errorf("chat: controller is required")
	}
	persona := cfg.DefaultPersona
	if persona == "" {
		persona = "peer"
	}
	window := cfg.HistoryWindow
	if window <= 0 {
		window = 10
	}
	maxConc := cfg.MaxConcurrentCompletions
	if maxConc <= 0 {
		maxConc = 32
	}
	return &Companion{
		pipeline:      cfg.Pipeline,
		controller:    cfg.Controller,
		client:        cfg.Client,
		store:         cfg.Store,
		persona:       persona,
		historyWindow: window,
		sem:           httputil.NewSemaphore(maxConc),
	}, nil
}

// HandleMessage runs one turn: evaluate risk, apply interventions, and
// only then generate a reply. Returns an error only when the turn was
// abandoned (context cancelled); everything else degrades.
func (c *Companion) HandleMessage(ctx context.Context, sessionID, text, persona string) (*Turn, error) {
	if persona == "" {
		persona = c.persona
	}

	start := time.Now()
	verdict, err := c.pipeline.Evaluate(ctx, text)
	if err != nil {
		return nil, err
	}
	telemetry.EvaluationDuration.Observe(time.Since(start).Seconds())
	telemetry.RiskEvaluationsTotal.WithLabelValues(verdict.FinalLevel.String()).Inc()
	if verdict.Model.Degraded {
		telemetry.OracleFailuresTotal.WithLabelValues("classify").Inc()
	}

	c.persist(ctx, sessionID, session.ChatMessage{
		Role:      "user",
		Content:   text,
		Persona:   persona,
		RiskLevel: verdict.FinalLevel.String(),
		Timestamp: time.Now().UTC(),
	})

	outcome := c.controller.Apply(ctx, sessionID, verdict)

	turn := &Turn{
		SessionID: sessionID,
		Outcome:   outcome,
		RiskLevel: verdict.FinalLevel,
	}

	if outcome.State != intervene.NoAction {
		// An intervened turn never reaches the oracle. The follow-up is
		// the reply; the directive rides alongside it.
		turn.Reply = outcome.FollowUp
		telemetry.ChatTurnsTotal.WithLabelValues("intervened").Inc()
	} else {
		reply, degraded := c.reply(ctx, sessionID, text, persona)
		turn.Reply = reply
		turn.Degraded = degraded
		if degraded {
			telemetry.ChatTurnsTotal.WithLabelValues("degraded").Inc()
		} else {
			telemetry.ChatTurnsTotal.WithLabelValues("replied").Inc()
		}
	}

	c.persist(ctx, sessionID, session.ChatMessage{
		Role:      "assistant",
		Content:   turn.Reply,
		Persona:   persona,
		Timestamp: time.Now().UTC(),
	})

	return turn, nil
}

// reply asks the oracle for a conversational response. Any failure
// degrades to the static acknowledgment.
func (c *Companion) reply(ctx context.Context, sessionID, text, persona string) (string, bool) {
	if c.client == nil {
		return degradedReply, true
	}
	if err := c.sem.Acquire(ctx); err != nil {
		return degradedReply, true
	}
	defer c.sem.Release()

	msgs := c.historyMessages(ctx, sessionID)
	msgs = append(msgs, oracle.Message{Role: "user", Content: text})

	raw, err := c.client.Complete(ctx, oracle.CompletionRequest{
		SystemInstruction: oracle.BaseCompanionInstruction + "\n\n" + oracle.PersonaInstruction(persona),
		Messages:          msgs,
		Temperature:       oracle.ChatTemperature,
	})
	if err != nil {
		log.Printf("[WARN] oracle reply failed: %v", err)
		telemetry.OracleFailuresTotal.WithLabelValues("chat").Inc()
		return degradedReply, true
	}
	if raw == "" {
		return degradedReply, true
	}
	return raw, false
}

// historyMessages loads the recent window, excluding the message being
// handled (it was already persisted before the reply is generated).
func (c *Companion) historyMessages(ctx context.Context, sessionID string) []oracle.Message {
	if c.store == nil {
		return nil
	}
	history, err := c.store.RecentHistory(ctx, sessionID, c.historyWindow+1)
	if err != nil {
		log.Printf("[WARN] load history: %v", err)
		return nil
	}
	if len(history) > 0 {
		history = history[:len(history)-1]
	}
	msgs := make([]oracle.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, oracle.Message{Role: m.Role, Content: m.Content})
	}
	return msgs
}

func (c *Companion) persist(ctx context.Context, sessionID string, msg session.ChatMessage) {
	if c.store == nil {
		return
	}
	if err := c.store.AppendChatMessage(ctx, sessionID, msg); err != nil {
		log.Printf("[WARN] persist chat message: %v", err)
	}
}
