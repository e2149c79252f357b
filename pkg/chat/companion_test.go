package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/solacehealth/solace/pkg/intervene"
	"github.com/solacehealth/solace/pkg/oracle"
	"github.com/solacehealth/solace/pkg/risk"
	"github.com/solacehealth/solace/pkg/session"
)

// calmAssessor always judges LOW so keyword scoring decides the level.
type calmAssessor struct{}

func (calmAssessor) AssessRisk(context.Context, string) (*risk.Assessment, error) {
	return &risk.Assessment{RiskLabel: "LOW", Analysis: "calm"}, nil
}

func newTestCompanion(t *testing.T, client oracle.Client) (*Companion, session.Store) {
	t.Helper()
	store := session.NewMemoryStore()
	pipeline := risk.NewPipeline(
		risk.NewKeywordScorer(risk.DefaultLexicon()),
		risk.NewClassifier(calmAssessor{}, time.Second),
	)
	ctrl := intervene.NewController(nil, store)
	companion, err := NewCompanion(Config{
		Pipeline:   pipeline,
		Controller: ctrl,
		Client:     client,
		Store:      store,
	})
	if err != nil {
		t.Fatalf("NewCompanion: %v", err)
	}
	return companion, store
}

func TestHandleMessageBenign(t *testing.T) {
	fake := oracle.NewFake("That sounds stressful. What part of the exam worries you most?")
	companion, store := newTestCompanion(t, fake)

	sid := session.NewSessionID()
	turn, err := companion.HandleMessage(context.Background(), sid, "I'm a bit stressed about exams", "")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if turn.Outcome.State != intervene.NoAction {
		t.Errorf("State = %v, want NoAction", turn.Outcome.State)
	}
	if turn.RiskLevel != risk.LevelLow {
		t.Errorf("RiskLevel = %v, want Low", turn.RiskLevel)
	}
	if !strings.Contains(turn.Reply, "exam") {
		t.Errorf("Reply = %q, want the oracle reply", turn.Reply)
	}
	if turn.Degraded {
		t.Error("turn should not be degraded")
	}

	history, err := store.RecentHistory(context.Background(), sid, 10)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history len = %d, want user+assistant", len(history))
	}
	if history[0].Role != "user" || history[0].RiskLevel != "low" {
		t.Errorf("user message = %+v", history[0])
	}
	if history[1].Role != "assistant" {
		t.Errorf("assistant message = %+v", history[1])
	}
}

func TestHandleMessageCrisisSuppressesReply(t *testing.T) {
	fake := oracle.NewFake("this reply must never be shown")
	companion, store := newTestCompanion(t, fake)

	sid := session.NewSessionID()
	turn, err := companion.HandleMessage(context.Background(), sid, "I want to kill myself tonight", "")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if turn.Outcome.State != intervene.CrisisOverride {
		t.Fatalf("State = %v, want CrisisOverride", turn.Outcome.State)
	}
	if turn.Outcome.Directive == nil || turn.Outcome.Directive.Kind != "immediate" {
		t.Errorf("Directive = %+v", turn.Outcome.Directive)
	}
	if strings.Contains(turn.Reply, "never be shown") {
		t.Error("oracle reply leaked through a crisis override")
	}
	if !strings.Contains(turn.Reply, "concerned about you") {
		t.Errorf("Reply = %q, want the critical follow-up", turn.Reply)
	}

	// The intervened turn must not have consumed a chat completion.
	if len(fake.Requests) != 0 {
		t.Errorf("oracle saw %d requests during a crisis override, want 0", len(fake.Requests))
	}

	events, _ := store.CrisisEvents(context.Background(), sid)
	if len(events) != 1 || events[0].Kind != "immediate" {
		t.Errorf("crisis trail = %+v", events)
	}
}

func TestHandleMessageOracleDownDegrades(t *testing.T) {
	companion, _ := newTestCompanion(t, &oracle.Fake{Err: errors.New("connection refused")})

	turn, err := companion.HandleMessage(context.Background(), session.NewSessionID(), "had a long day", "")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !turn.Degraded {
		t.Error("turn should be marked degraded")
	}
	if turn.Reply != degradedReply {
		t.Errorf("Reply = %q, want the static fallback", turn.Reply)
	}
}

func TestHandleMessageNilClientDegrades(t *testing.T) {
	companion, _ := newTestCompanion(t, nil)

	turn, err := companion.HandleMessage(context.Background(), session.NewSessionID(), "hello", "")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !turn.Degraded || turn.Reply != degradedReply {
		t.Errorf("turn = %+v, want degraded fallback", turn)
	}
}

func TestHandleMessageCarriesHistory(t *testing.T) {
	fake := &oracle.Fake{Responses: []string{"reply one", "reply two"}}
	companion, _ := newTestCompanion(t, fake)

	sid := session.NewSessionID()
	ctx := context.Background()
	if _, err := companion.HandleMessage(ctx, sid, "first message", ""); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if _, err := companion.HandleMessage(ctx, sid, "second message", ""); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if len(fake.Requests) != 2 {
		t.Fatalf("chat completions = %d, want 2", len(fake.Requests))
	}

	second := fake.Requests[1]
	if len(second.Messages) != 3 {
		t.Fatalf("second turn messages = %d, want prior user+assistant plus current", len(second.Messages))
	}
	if second.Messages[0].Content != "first message" || second.Messages[1].Content != "reply one" {
		t.Errorf("history wrong: %+v", second.Messages)
	}
	if second.Messages[2].Content != "second message" {
		t.Errorf("current message missing: %+v", second.Messages)
	}
}

func TestHandleMessagePersona(t *testing.T) {
	fake := oracle.NewFake("ok")
	companion, _ := newTestCompanion(t, fake)

	if _, err := companion.HandleMessage(context.Background(), session.NewSessionID(), "hi", "mentor"); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if len(fake.Requests) != 1 || !strings.Contains(fake.Requests[0].SystemInstruction, "mentor") {
		t.Error("persona instruction missing from the conversational request")
	}
}

func TestHandleMessageCancelled(t *testing.T) {
	companion, _ := newTestCompanion(t, oracle.NewFake("ok"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	turn, err := companion.HandleMessage(ctx, session.NewSessionID(), "hello", "")
	if err == nil {
		t.Error("cancelled turn must return an error")
	}
	if turn != nil {
		t.Error("cancelled turn must not produce a result")
	}
}
