package risk

import (
	"reflect"
	"testing"
)

func TestScoreKnownPhrases(t *testing.T) {
	scorer := NewKeywordScorer(nil)

	testCases := []struct {
		name      string
		text      string
		wantLevel RiskLevel
		minScore  int
	}{
		{
			name:      "suicidal ideation with immediacy",
			text:      "I want to kill myself tonight",
			wantLevel: LevelCritical,
			minScore:  10,
		},
		{
			name:      "benign stress",
			text:      "I'm a bit stressed about exams",
			wantLevel: LevelLow,
			minScore:  0,
		},
		{
			name:      "self harm",
			text:      "sometimes I cut myself when it gets bad",
			wantLevel: LevelHigh,
			minScore:  6,
		},
		{
			name:      "hopelessness alone",
			text:      "everything feels hopeless",
			wantLevel: LevelLow,
			minScore:  1,
		},
		{
			name:      "case insensitive",
			text:      "I WANT TO KILL MYSELF",
			wantLevel: LevelCritical,
			minScore:  10,
		},
		{
			name:      "empty input",
			text:      "",
			wantLevel: LevelLow,
			minScore:  0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sig := scorer.Score(tc.text)
			if sig.Level != tc.wantLevel {
				t.Errorf("level = %v, want %v (score=%d, hits=%v)", sig.Level, tc.wantLevel, sig.Score, sig.Detected)
			}
			if sig.Score < tc.minScore {
				t.Errorf("score = %d, want >= %d", sig.Score, tc.minScore)
			}
		})
	}
}

// Partial-word matches must never count: "suicide" inside another word or
// a keyword embedded without word boundaries is not a hit.
func TestScoreWholeWordBoundaries(t *testing.T) {
	lex, err := NewLexicon(
		map[string][]string{"test": {"die", "kill myself"}},
		map[string]int{"test": 10},
	)
	if err != nil {
		t.Fatalf("NewLexicon: %v", err)
	}
	scorer := NewKeywordScorer(lex)

	if sig := scorer.Score("the soldier was killed"); sig.Score != 0 {
		t.Errorf("expected no match inside larger words, got %+v", sig)
	}
	if sig := scorer.Score("diet plans and dies irae"); sig.Score != 0 {
		t.Errorf("expected no partial-word matches, got %+v", sig)
	}
	if sig := scorer.Score("I might die."); sig.Score != 10 {
		t.Errorf("expected punctuation-bounded match, got %+v", sig)
	}
}

func TestScoreCountsEveryOccurrence(t *testing.T) {
	lex, err := NewLexicon(
		map[string][]string{"test": {"hopeless"}},
		map[string]int{"test": 3},
	)
	if err != nil {
		t.Fatalf("NewLexicon: %v", err)
	}
	scorer := NewKeywordScorer(lex)

	sig := scorer.Score("hopeless, just hopeless")
	if sig.Score != 6 {
		t.Errorf("score = %d, want 6 (one weight per occurrence)", sig.Score)
	}
	if len(sig.Detected) != 2 {
		t.Errorf("detected = %d hits, want 2", len(sig.Detected))
	}
}

func TestScoreDeterministic(t *testing.T) {
	scorer := NewKeywordScorer(nil)
	text := "I feel hopeless and I want to hurt myself tonight"

	first := scorer.Score(text)
	for i := 0; i < 10; i++ {
		if got := scorer.Score(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("call %d produced a different signal: %+v vs %+v", i, got, first)
		}
	}
}

func TestScoreNormalizesCompatibilityForms(t *testing.T) {
	scorer := NewKeywordScorer(nil)

	// Fullwidth characters fold to ASCII under NFKC before matching.
	sig := scorer.Score("ｓｕｉｃｉｄｅ")
	if sig.Score == 0 {
		t.Errorf("expected fullwidth text to match after NFKC normalization, got %+v", sig)
	}
}

func TestDefaultLexiconLoads(t *testing.T) {
	lex := DefaultLexicon()
	if lex.PhraseCount() < 20 {
		t.Errorf("built-in lexicon has %d phrases, expected at least 20", lex.PhraseCount())
	}
	if lex.Weight(CategorySuicidalIdeation) != 10 {
		t.Errorf("suicidal_ideation weight = %d, want 10", lex.Weight(CategorySuicidalIdeation))
	}
}
