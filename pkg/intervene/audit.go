package intervene

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/solacehealth/solace/pkg/telemetry"
)

// Event is one anonymized entry in the crisis audit trail. It carries
// levels, scores and timing only; the user's words never reach a sink.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	SessionID    string    `json:"session_id"`
	Kind         string    `json:"kind"` // "immediate" or "support"
	FinalLevel   string    `json:"final_level"`
	KeywordLevel string    `json:"keyword_level"`
	KeywordScore int       `json:"keyword_score"`
	ModelLevel   string    `json:"model_level"`
	Degraded     bool      `json:"degraded"`
}

// Sink consumes audit events (file, postgres).
type Sink interface {
	Name() string
	Deliver(context.Context, *Event) error
	Close(context.Context) error
}

// Emitter buffers audit events and delivers them to sinks off the
// message path. Delivery is best-effort: a full queue drops the event
// and counts the drop, it never blocks or fails the intervention.
type Emitter struct {
	queue           chan *Event
	sinks           []Sink
	shutdownTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// EmitterConfig controls queue and worker sizing.
type EmitterConfig struct {
	QueueSize       int
	Workers         int
	ShutdownTimeout time.Duration
}

// NewEmitter starts background workers delivering to the given sinks.
func NewEmitter(cfg EmitterConfig, sinks []Sink) *Emitter {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 2 * time.Second
	}

	em := &Emitter{
		queue:           make(chan *Event, queueSize),
		sinks:           sinks,
		shutdownTimeout: shutdownTimeout,
	}
	for range workers {
		em.wg.Add(1)
		go em.worker()
	}
	return em
}

// Emit enqueues without blocking the message path.
func (e *Emitter) Emit(ev *Event) {
	if e == nil || ev == nil {
		return
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		telemetry.AuditDropsTotal.Inc()
		return
	}

	select {
	case e.queue <- ev:
	default:
		telemetry.AuditDropsTotal.Inc()
	}
}

// Close stops accepting events and waits briefly to drain the queue.
func (e *Emitter) Close(ctx context.Context) {
	if e == nil {
		return
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	waitCtx := ctx
	if waitCtx == nil {
		waitCtx = context.Background()
	}
	var cancel context.CancelFunc
	waitCtx, cancel = context.WithTimeout(waitCtx, e.shutdownTimeout)
	defer cancel()

	select {
	case <-done:
	case <-waitCtx.Done():
	}

	for _, s := range e.sinks {
		if err := s.Close(waitCtx); err != nil {
			log.Printf("[WARN] audit sink %s close error: %v", s.Name(), err)
		}
	}
}

func (e *Emitter) worker() {
	defer e.wg.Done()
	for ev := range e.queue {
		for _, s := range e.sinks {
			if err := s.Deliver(context.Background(), ev); err != nil {
				log.Printf("[WARN] audit sink %s failed: %v", s.Name(), err)
			}
		}
	}
}
