// Package session stores per-session user data: conversation history,
// mood check-ins, journal entries, thought records and the crisis event
// trail. Sessions are anonymous; the session ID is the only identifier
// and is generated server-side.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one turn of the companion conversation.
type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Persona   string    `json:"persona,omitempty"`
	RiskLevel string    `json:"risk_level,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MoodEntry is a single mood check-in on a 1-10 scale.
type MoodEntry struct {
	Score     int       `json:"score"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// JournalEntry is one free-form journal entry. Ref is a stable opaque
// identifier so entries can be cited in insights without echoing text.
type JournalEntry struct {
	Ref       string    `json:"ref"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ThoughtRecord is a completed cognitive restructuring exercise.
type ThoughtRecord struct {
	Ref              string    `json:"ref"`
	Situation        string    `json:"situation"`
	AutomaticThought string    `json:"automatic_thought"`
	Emotion          string    `json:"emotion"`
	Intensity        int       `json:"intensity"` // 1-10
	EvidenceFor      string    `json:"evidence_for,omitempty"`
	EvidenceAgainst  string    `json:"evidence_against,omitempty"`
	BalancedThought  string    `json:"balanced_thought,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// CrisisEvent records that an intervention fired during this session.
// It carries levels and kinds only, never message text.
type CrisisEvent struct {
	Level     string    `json:"level"`
	Kind      string    `json:"kind"` // "immediate" or "support"
	Timestamp time.Time `json:"timestamp"`
}

// Store persists session data. Implementations must be safe for
// concurrent use.
type Store interface {
	AppendChatMessage(ctx context.Context, sessionID string, msg ChatMessage) error
	// RecentHistory returns the last limit turns in chronological order.
	RecentHistory(ctx context.Context, sessionID string, limit int) ([]ChatMessage, error)

	AppendMood(ctx context.Context, sessionID string, entry MoodEntry) error
	Moods(ctx context.Context, sessionID string) ([]MoodEntry, error)

	AppendJournal(ctx context.Context, sessionID string, entry JournalEntry) error
	ListJournal(ctx context.Context, sessionID string) ([]JournalEntry, error)

	AppendThoughtRecord(ctx context.Context, sessionID string, rec ThoughtRecord) error
	ThoughtRecords(ctx context.Context, sessionID string) ([]ThoughtRecord, error)

	AppendCrisisEvent(ctx context.Context, sessionID string, ev CrisisEvent) error
	CrisisEvents(ctx context.Context, sessionID string) ([]CrisisEvent, error)

	Close() error
}

// NewSessionID mints an anonymous session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewRef mints an opaque reference for journal entries and thought records.
func NewRef() string {
	return uuid.NewString()
}
