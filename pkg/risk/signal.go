package risk

// KeywordHit records a single lexicon match. One hit is appended per match
// occurrence, in scan order, so duplicates are expected when a phrase
// appears in more than one category.
type KeywordHit struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
}

// KeywordSignal is the deterministic, lexicon-based risk assessment of one
// piece of text. Same text in, same signal out.
type KeywordSignal struct {
	Level    RiskLevel    `json:"risk_level"`
	Score    int          `json:"score"`
	Detected []KeywordHit `json:"detected_keywords,omitempty"`
}

// ModelSignal is the risk assessment produced by the model-assisted
// classifier. When the oracle is unreachable or its output cannot be
// parsed, Degraded is set and the signal carries the safe fallback
// (LevelLow, no keywords) with the failure recorded in Analysis.
type ModelSignal struct {
	Level    RiskLevel `json:"risk_level"`
	Detected []string  `json:"detected_keywords,omitempty"`
	Analysis string    `json:"analysis,omitempty"`
	Degraded bool      `json:"degraded,omitempty"`
}

// FusedVerdict is the combined, authoritative risk decision for one
// evaluated message. It is immutable once produced; RequiresIntervention
// and ImmediateCrisis are derived from FinalLevel and never set
// independently.
type FusedVerdict struct {
	FinalLevel           RiskLevel     `json:"final_risk_level"`
	Keyword              KeywordSignal `json:"keyword_analysis"`
	Model                ModelSignal   `json:"model_analysis"`
	RequiresIntervention bool          `json:"requires_intervention"`
	ImmediateCrisis      bool          `json:"immediate_crisis"`
}
