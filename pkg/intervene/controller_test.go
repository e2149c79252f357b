package intervene

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/solacehealth/solace/pkg/risk"
	"github.com/solacehealth/solace/pkg/session"
)

// recordingSink captures delivered events.
type recordingSink struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Deliver(_ context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) Close(context.Context) error { return nil }

func (s *recordingSink) all() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

func newTestController(t *testing.T) (*Controller, *recordingSink, session.Store) {
	t.Helper()
	sink := &recordingSink{}
	emitter := NewEmitter(EmitterConfig{QueueSize: 10, Workers: 1}, []Sink{sink})
	t.Cleanup(func() { emitter.Close(context.Background()) })
	store := session.NewMemoryStore()
	return NewController(emitter, store), sink, store
}

func waitForEvents(t *testing.T, sink *recordingSink, n int) []*Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if evs := sink.all(); len(evs) >= n {
			return evs
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d audit events, have %d", n, len(sink.all()))
	return nil
}

func TestApplyCriticalOverride(t *testing.T) {
	ctrl, sink, store := newTestController(t)
	ctx := context.Background()
	sid := session.NewSessionID()

	v := verdictAt(risk.LevelCritical)
	v.Keyword.Score = 13
	v.Model = risk.ModelSignal{Level: risk.LevelHigh}

	out := ctrl.Apply(ctx, sid, v)
	if out.State != CrisisOverride {
		t.Fatalf("State = %v, want CrisisOverride", out.State)
	}
	if out.Directive == nil || out.Directive.Kind != "immediate" {
		t.Errorf("Directive = %+v, want immediate", out.Directive)
	}

	evs := waitForEvents(t, sink, 1)
	ev := evs[0]
	if ev.Kind != "immediate" || ev.FinalLevel != "critical" || ev.KeywordScore != 13 {
		t.Errorf("audit event = %+v", ev)
	}
	if ev.SessionID != sid {
		t.Errorf("audit event session = %q, want %q", ev.SessionID, sid)
	}

	recorded, err := store.CrisisEvents(ctx, sid)
	if err != nil {
		t.Fatalf("CrisisEvents: %v", err)
	}
	if len(recorded) != 1 || recorded[0].Kind != "immediate" {
		t.Errorf("session crisis trail = %+v", recorded)
	}
}

func TestApplyHighOffersSupport(t *testing.T) {
	ctrl, sink, _ := newTestController(t)

	out := ctrl.Apply(context.Background(), session.NewSessionID(), verdictAt(risk.LevelHigh))
	if out.State != SupportOffered {
		t.Fatalf("State = %v, want SupportOffered", out.State)
	}
	if out.Directive == nil || out.Directive.Kind != "support" {
		t.Errorf("Directive = %+v, want support", out.Directive)
	}

	evs := waitForEvents(t, sink, 1)
	if evs[0].Kind != "support" {
		t.Errorf("audit kind = %q, want support", evs[0].Kind)
	}
}

func TestApplyBelowThresholdEmitsNothing(t *testing.T) {
	ctrl, sink, store := newTestController(t)
	sid := session.NewSessionID()

	for _, level := range []risk.RiskLevel{risk.LevelLow, risk.LevelModerate} {
		out := ctrl.Apply(context.Background(), sid, verdictAt(level))
		if out.State != NoAction {
			t.Errorf("level %v: State = %v, want NoAction", level, out.State)
		}
		if out.Directive != nil {
			t.Errorf("level %v: unexpected directive", level)
		}
		if out.FollowUp == "" {
			t.Errorf("level %v: follow-up should still be set", level)
		}
	}

	time.Sleep(50 * time.Millisecond)
	if evs := sink.all(); len(evs) != 0 {
		t.Errorf("no audit events expected below High, got %d", len(evs))
	}
	recorded, _ := store.CrisisEvents(context.Background(), sid)
	if len(recorded) != 0 {
		t.Errorf("no session crisis events expected, got %d", len(recorded))
	}
}

func TestApplySurvivesSinkFailure(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	emitter := NewEmitter(EmitterConfig{QueueSize: 10, Workers: 1}, []Sink{sink})
	defer emitter.Close(context.Background())

	ctrl := NewController(emitter, session.NewMemoryStore())
	out := ctrl.Apply(context.Background(), session.NewSessionID(), verdictAt(risk.LevelCritical))
	if out.State != CrisisOverride || out.Directive == nil {
		t.Error("directive must be returned even when the audit sink fails")
	}
}

func TestApplyNilCollaborators(t *testing.T) {
	ctrl := NewController(nil, nil)
	out := ctrl.Apply(context.Background(), session.NewSessionID(), verdictAt(risk.LevelCritical))
	if out.State != CrisisOverride || out.Directive == nil {
		t.Error("controller without emitter or store must still intervene")
	}
}

func TestEmitterDropsAtCapacity(t *testing.T) {
	// No workers draining: a tiny queue with a blocked sink fills up.
	blocked := make(chan struct{})
	slow := sinkFunc(func(ev *Event) error {
		<-blocked
		return nil
	})
	emitter := NewEmitter(EmitterConfig{QueueSize: 1, Workers: 1}, []Sink{slow})
	defer func() {
		close(blocked)
		emitter.Close(context.Background())
	}()

	// First event occupies the worker, second sits in the queue, the
	// rest must drop without blocking.
	done := make(chan struct{})
	go func() {
		for range 10 {
			emitter.Emit(&Event{Kind: "support"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked; it must drop at capacity instead")
	}
}

type sinkFunc func(*Event) error

func (f sinkFunc) Name() string                               { return "func" }
func (f sinkFunc) Deliver(_ context.Context, ev *Event) error { return f(ev) }
func (f sinkFunc) Close(context.Context) error                { return nil }
