package session

import (
	"context"
	"sync"
)

// MemoryStore keeps session data in process memory. The default for
// development and single-instance deployments without Redis; data is
// lost on restart, which for an anonymous wellness session is an
// acceptable and sometimes desirable property.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
}

type memorySession struct {
	chat     []ChatMessage
	moods    []MoodEntry
	journal  []JournalEntry
	thoughts []ThoughtRecord
	crises   []CrisisEvent
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memorySession)}
}

func (m *MemoryStore) session(id string) *memorySession {
	s, ok := m.sessions[id]
	if !ok {
		s = &memorySession{}
		m.sessions[id] = s
	}
	return s
}

func (m *MemoryStore) AppendChatMessage(_ context.Context, sessionID string, msg ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	s.chat = append(s.chat, msg)
	return nil
}

func (m *MemoryStore) RecentHistory(_ context.Context, sessionID string, limit int) ([]ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	start := 0
	if limit > 0 && len(s.chat) > limit {
		start = len(s.chat) - limit
	}
	out := make([]ChatMessage, len(s.chat)-start)
	copy(out, s.chat[start:])
	return out, nil
}

func (m *MemoryStore) AppendMood(_ context.Context, sessionID string, entry MoodEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	s.moods = append(s.moods, entry)
	return nil
}

func (m *MemoryStore) Moods(_ context.Context, sessionID string) ([]MoodEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]MoodEntry, len(s.moods))
	copy(out, s.moods)
	return out, nil
}

func (m *MemoryStore) AppendJournal(_ context.Context, sessionID string, entry JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	s.journal = append(s.journal, entry)
	return nil
}

func (m *MemoryStore) ListJournal(_ context.Context, sessionID string) ([]JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]JournalEntry, len(s.journal))
	copy(out, s.journal)
	return out, nil
}

func (m *MemoryStore) AppendThoughtRecord(_ context.Context, sessionID string, rec ThoughtRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	s.thoughts = append(s.thoughts, rec)
	return nil
}

func (m *MemoryStore) ThoughtRecords(_ context.Context, sessionID string) ([]ThoughtRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]ThoughtRecord, len(s.thoughts))
	copy(out, s.thoughts)
	return out, nil
}

func (m *MemoryStore) AppendCrisisEvent(_ context.Context, sessionID string, ev CrisisEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	s.crises = append(s.crises, ev)
	return nil
}

func (m *MemoryStore) CrisisEvents(_ context.Context, sessionID string) ([]CrisisEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]CrisisEvent, len(s.crises))
	copy(out, s.crises)
	return out, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
