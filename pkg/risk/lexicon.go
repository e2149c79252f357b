package risk

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Category names used by the built-in lexicon. External lexicon files may
// define their own categories; nothing outside the weight table depends on
// these values.
const (
	CategorySuicidalIdeation = "suicidal_ideation"
	CategorySelfHarm         = "self_harm"
	CategoryCrisisImmediacy  = "crisis_immediacy"
	CategoryHopelessness     = "hopelessness"
	CategorySubstanceAbuse   = "substance_abuse"
	CategoryAbuse            = "abuse"
)

// phrase is a single lexicon entry with its whole-word matcher compiled at
// load time. Matching is done against normalized (NFKC, lowercased) text,
// so the patterns themselves are all lowercase.
type phrase struct {
	keyword  string
	category string
	re       *regexp.Regexp
}

// Lexicon maps crisis keyword phrases to categories and categories to
// severity weights. It is immutable after construction and safe for
// concurrent use.
type Lexicon struct {
	phrases []phrase
	weights map[string]int
}

// lexiconFile is the on-disk YAML shape:
//
//	categories:
//	  suicidal_ideation:
//	    weight: 10
//	    keywords: ["kill myself", "end my life"]
type lexiconFile struct {
	Categories map[string]struct {
		Weight   int      `yaml:"weight"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"categories"`
}

// NewLexicon builds a lexicon from category keyword sets and weights.
// Every phrase is compiled once into a case-sensitive whole-word matcher
// (inputs are normalized before scanning, so case handling lives there).
func NewLexicon(keywords map[string][]string, weights map[string]int) (*Lexicon, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("lexicon has no categories")
	}

	lex := &Lexicon{weights: make(map[string]int, len(weights))}

	// Deterministic phrase order: categories sorted, keywords in declared order.
	categories := make([]string, 0, len(keywords))
	for cat := range keywords {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	for _, cat := range categories {
		w, ok := weights[cat]
		if !ok || w < 1 {
			return nil, fmt.Errorf("category %q: severity weight must be a positive integer", cat)
		}
		lex.weights[cat] = w

		for _, kw := range keywords[cat] {
			if kw == "" {
				return nil, fmt.Errorf("category %q: empty keyword phrase", cat)
			}
			re, err := regexp.Compile(`\b` + regexp.QuoteMeta(kw) + `\b`)
			if err != nil {
				return nil, fmt.Errorf("category %q keyword %q: %w", cat, kw, err)
			}
			lex.phrases = append(lex.phrases, phrase{keyword: kw, category: cat, re: re})
		}
	}

	return lex, nil
}

// LoadLexiconFile reads a YAML lexicon from disk. Used when operators want
// to tune the keyword sets without rebuilding; the built-in lexicon remains
// the default.
func LoadLexiconFile(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	keywords := make(map[string][]string, len(f.Categories))
	weights := make(map[string]int, len(f.Categories))
	for cat, entry := range f.Categories {
		keywords[cat] = entry.Keywords
		weights[cat] = entry.Weight
	}

	lex, err := NewLexicon(keywords, weights)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return lex, nil
}

// Weight returns the severity weight for a category (0 if unknown).
func (l *Lexicon) Weight(category string) int {
	return l.weights[category]
}

// PhraseCount reports how many keyword phrases are loaded.
func (l *Lexicon) PhraseCount() int {
	return len(l.phrases)
}

var (
	defaultLexicon     *Lexicon
	defaultLexiconOnce sync.Once
)

// DefaultLexicon returns the built-in crisis lexicon (singleton, compiled
// once at first use).
func DefaultLexicon() *Lexicon {
	defaultLexiconOnce.Do(func() {
		lex, err := NewLexicon(defaultKeywords, defaultWeights)
		if err != nil {
			// The built-in tables are static; a failure here is a
			// programming error, not a runtime condition.
			panic(fmt.Sprintf("risk: built-in lexicon invalid: %v", err))
		}
		defaultLexicon = lex
	})
	return defaultLexicon
}

// Built-in keyword sets. Phrases are lowercase and matched whole-word
// against normalized text. Weights are per category: a single match in a
// weight-10 category is enough to reach the critical threshold on its own.
var defaultKeywords = map[string][]string{
	CategorySuicidalIdeation: {
		"kill myself", "suicide", "suicidal", "end my life", "take my own life",
		"want to die", "better off dead", "no reason to live", "end it all",
		"don't want to be alive", "not worth living",
	},
	CategorySelfHarm: {
		"hurt myself", "cut myself", "cutting myself", "self-harm", "self harm",
		"burning myself", "hitting myself", "harm myself",
	},
	CategoryCrisisImmediacy: {
		"tonight", "right now", "this is goodbye", "final goodbye",
		"wrote a note", "have a plan", "going to do it",
	},
	CategoryHopelessness: {
		"hopeless", "no way out", "can't go on", "nothing matters",
		"no point anymore", "give up completely", "trapped",
	},
	CategorySubstanceAbuse: {
		"overdose", "too many pills", "drink myself", "blackout drunk",
	},
	CategoryAbuse: {
		"hits me", "beats me", "abuses me", "afraid of my partner",
		"hurts me at home",
	},
}

var defaultWeights = map[string]int{
	CategorySuicidalIdeation: 10,
	CategorySelfHarm:         8,
	CategoryCrisisImmediacy:  3,
	CategoryHopelessness:     2,
	CategorySubstanceAbuse:   4,
	CategoryAbuse:            5,
}
