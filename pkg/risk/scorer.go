package risk

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Score thresholds mapping the accumulated severity score to a level.
// Evaluated highest first; together they partition every non-negative
// score into exactly one level.
const (
	criticalScoreThreshold = 10
	highScoreThreshold     = 6
	moderateScoreThreshold = 3
)

// KeywordScorer is the deterministic, lexicon-based risk classifier. It has
// no external dependencies and no failure modes, which makes it the safety
// floor of the pipeline: it keeps working when everything else is down.
type KeywordScorer struct {
	lexicon *Lexicon
}

// NewKeywordScorer creates a scorer over the given lexicon. A nil lexicon
// selects the built-in default.
func NewKeywordScorer(lex *Lexicon) *KeywordScorer {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &KeywordScorer{lexicon: lex}
}

// Score classifies text by whole-word lexicon matching. Pure function:
// repeated calls with the same text always yield the identical signal.
func (s *KeywordScorer) Score(text string) KeywordSignal {
	normalized := normalizeText(text)

	sig := KeywordSignal{}
	for _, p := range s.lexicon.phrases {
		for range p.re.FindAllStringIndex(normalized, -1) {
			sig.Detected = append(sig.Detected, KeywordHit{Keyword: p.keyword, Category: p.category})
			sig.Score += s.lexicon.weights[p.category]
		}
	}

	sig.Level = levelForScore(sig.Score)
	return sig
}

// levelForScore maps an accumulated severity score to its risk level.
func levelForScore(score int) RiskLevel {
	switch {
	case score >= criticalScoreThreshold:
		return LevelCritical
	case score >= highScoreThreshold:
		return LevelHigh
	case score >= moderateScoreThreshold:
		return LevelModerate
	default:
		return LevelLow
	}
}

// normalizeText prepares text for lexicon matching: NFKC folds compatibility
// forms (fullwidth letters, ligatures) into their plain equivalents, then
// everything is lowercased. Matching stays whole-word on the result.
func normalizeText(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}
