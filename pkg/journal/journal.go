// Package journal provides the reflective tooling around the companion:
// free-form journaling with theme discovery, personalized prompts, and
// CBT thought-record insights.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/solacehealth/solace/pkg/oracle"
	"github.com/solacehealth/solace/pkg/session"
)

// Prompt is a generated journal prompt with follow-up questions.
type Prompt struct {
	Prompt            string   `json:"prompt"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	Personalized      bool     `json:"personalized"`
}

// Insight is structured CBT feedback on a thought record.
type Insight struct {
	CognitiveDistortions []string `json:"cognitive_distortions"`
	BalancedThoughts     []string `json:"balanced_thoughts"`
	Encouragement        string   `json:"encouragement"`
}

// defaultPrompts rotate when no oracle is available or personalization
// fails. Reflection must not depend on a cloud service being up.
var defaultPrompts = []Prompt{
	{
		Prompt:            "What is one moment from today you'd like to remember, and why?",
		FollowUpQuestions: []string{"What made that moment stand out?", "How did your body feel in that moment?"},
	},
	{
		Prompt:            "Describe something that felt heavy this week. What would you tell a friend carrying the same weight?",
		FollowUpQuestions: []string{"What part of it is within your control?", "What part can you set down for now?"},
	},
	{
		Prompt:            "Write about a small thing you're grateful for that you usually overlook.",
		FollowUpQuestions: []string{"When did you first notice it?", "How would tomorrow change if you noticed it again?"},
	},
}

// Service owns journaling operations. The oracle client and theme index
// are optional; the store is required.
type Service struct {
	store  session.Store
	client oracle.Client
	themes *ThemeIndex
}

// NewService wires the journal service.
func NewService(store session.Store, client oracle.Client, themes *ThemeIndex) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("journal: store is required")
	}
	return &Service{store: store, client: client, themes: themes}, nil
}

// AddEntry stores a journal entry and indexes it for theme discovery.
// Indexing is best-effort; a failed embedding never loses the entry.
func (s *Service) AddEntry(ctx context.Context, sessionID, text string) (session.JournalEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return session.JournalEntry{}, fmt.Errorf("journal entry is empty")
	}
	entry := session.JournalEntry{
		Ref:       session.NewRef(),
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.AppendJournal(ctx, sessionID, entry); err != nil {
		return session.JournalEntry{}, fmt.Errorf("store journal entry: %w", err)
	}
	if s.themes != nil {
		if err := s.themes.Add(ctx, sessionID, entry); err != nil {
			log.Printf("[WARN] theme indexing failed: %v", err)
		}
	}
	return entry, nil
}

// GeneratePrompt builds a personalized journal prompt from recent moods
// and recurring themes. Falls back to a rotating default when the oracle
// is unavailable or answers out of shape.
func (s *Service) GeneratePrompt(ctx context.Context, sessionID string) (*Prompt, error) {
	if s.client == nil {
		return s.fallbackPrompt(ctx, sessionID), nil
	}

	moodContext := s.moodContext(ctx, sessionID)
	themes := s.recentThemes(ctx, sessionID)

	userContent := fmt.Sprintf(
		"Based on the user's recent data, create one highly relevant journal prompt and 2-3 follow-up questions.\n"+
			"Mood Context (Recent Average Mood, Common Emotions): %s\n"+
			"Recent Journal Themes: %s\n\n"+
			"The prompt should be designed to help the user explore the emotions or patterns identified in the context.",
		moodContext, themes)

	raw, err := s.client.Complete(ctx, oracle.CompletionRequest{
		SystemInstruction: oracle.JournalPromptInstruction,
		Messages:          []oracle.Message{{Role: "user", Content: userContent}},
		Temperature:       oracle.ChatTemperature,
		JSONMode:          true,
	})
	if err != nil {
		log.Printf("[WARN] journal prompt generation failed: %v", err)
		return s.fallbackPrompt(ctx, sessionID), nil
	}

	var p Prompt
	if err := json.Unmarshal([]byte(extractJSON(raw)), &p); err != nil || p.Prompt == "" {
		log.Printf("[WARN] journal prompt response malformed")
		return s.fallbackPrompt(ctx, sessionID), nil
	}
	p.Personalized = true
	return &p, nil
}

// ThoughtRecordInsight stores a completed thought record and asks the
// oracle for structured CBT feedback. Unlike prompts, a malformed
// insight is an error: showing a user wrong or partial therapy feedback
// is worse than showing none.
func (s *Service) ThoughtRecordInsight(ctx context.Context, sessionID string, rec session.ThoughtRecord) (*Insight, error) {
	if rec.Ref == "" {
		rec.Ref = session.NewRef()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if strings.TrimSpace(rec.AutomaticThought) == "" {
		return nil, fmt.Errorf("thought record needs an automatic thought")
	}
	if err := s.store.AppendThoughtRecord(ctx, sessionID, rec); err != nil {
		return nil, fmt.Errorf("store thought record: %w", err)
	}
	if s.client == nil {
		return nil, fmt.Errorf("%w: no oracle configured", oracle.ErrUnavailable)
	}

	recJSON, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, err
	}
	raw, err := s.client.Complete(ctx, oracle.CompletionRequest{
		SystemInstruction: oracle.CBTInsightInstruction,
		Messages: []oracle.Message{{
			Role:    "user",
			Content: "Analyze the following thought record and provide structured feedback.\nThought Record: " + string(recJSON),
		}},
		Temperature: oracle.JSONTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", oracle.ErrUnavailable, err)
	}

	var insight Insight
	if err := json.Unmarshal([]byte(extractJSON(raw)), &insight); err != nil {
		return nil, fmt.Errorf("%w: %v", oracle.ErrMalformed, err)
	}
	if insight.Encouragement == "" && len(insight.BalancedThoughts) == 0 {
		return nil, fmt.Errorf("%w: empty insight", oracle.ErrMalformed)
	}
	return &insight, nil
}

// moodContext summarizes recent mood entries for prompt personalization.
func (s *Service) moodContext(ctx context.Context, sessionID string) string {
	moods, err := s.store.Moods(ctx, sessionID)
	if err != nil || len(moods) == 0 {
		return "no recent mood data"
	}
	recent := moods
	if len(recent) > 7 {
		recent = recent[len(recent)-7:]
	}
	var sum int
	notes := make([]string, 0, len(recent))
	for _, m := range recent {
		sum += m.Score
		if m.Note != "" {
			notes = append(notes, m.Note)
		}
	}
	avg := float64(sum) / float64(len(recent))
	if len(notes) == 0 {
		return fmt.Sprintf("average mood %.1f/10 over the last %d check-ins", avg, len(recent))
	}
	return fmt.Sprintf("average mood %.1f/10 over the last %d check-ins; notes: %s",
		avg, len(recent), strings.Join(notes, "; "))
}

// recentThemes lists the themes closest to the latest entry.
func (s *Service) recentThemes(ctx context.Context, sessionID string) string {
	entries, err := s.store.ListJournal(ctx, sessionID)
	if err != nil || len(entries) == 0 {
		return "none"
	}
	latest := entries[len(entries)-1]

	if s.themes != nil {
		matches, err := s.themes.Similar(ctx, sessionID, latest.Text, 3)
		if err == nil && len(matches) > 0 {
			texts := make([]string, 0, len(matches))
			for _, m := range matches {
				texts = append(texts, m.Text)
			}
			return strings.Join(texts, "; ")
		}
	}
	return latest.Text
}

// fallbackPrompt rotates the static prompts by journal length so
// returning users do not see the same one every time.
func (s *Service) fallbackPrompt(ctx context.Context, sessionID string) *Prompt {
	n := 0
	if entries, err := s.store.ListJournal(ctx, sessionID); err == nil {
		n = len(entries)
	}
	p := defaultPrompts[n%len(defaultPrompts)]
	return &p
}

// extractJSON strips anything around the outermost JSON object.
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
