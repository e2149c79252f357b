// Package risk implements the crisis detection pipeline: a deterministic
// keyword scorer, a model-assisted classifier over an external language
// model, and a fusion engine that combines both signals into one
// authoritative verdict.
//
// Design principles:
// - The keyword scorer is dependency-free and cannot fail; it is the safety floor.
// - The model path never errors out of the pipeline; every failure degrades
//   to an explicit fallback signal.
// - Fusion and escalation operate on the ordinal RiskLevel only, never on
//   raw strings from the outside world.
package risk

import "strings"

// RiskLevel is the ordinal classification of how dangerous a piece of
// user-authored text is. Comparison is by rank: Low < Moderate < High < Critical.
type RiskLevel int

const (
	LevelLow RiskLevel = iota
	LevelModerate
	LevelHigh
	LevelCritical
)

var levelNames = [...]string{"low", "moderate", "high", "critical"}

func (l RiskLevel) String() string {
	if l < LevelLow || l > LevelCritical {
		return "unknown"
	}
	return levelNames[l]
}

// MarshalText renders the level as its lowercase name for JSON payloads.
func (l RiskLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseLevel maps an external label to a RiskLevel. Matching is
// case-insensitive but otherwise strict: anything outside the four
// recognized names returns ok=false. Unrecognized labels are never
// silently mapped to a nearby level; the caller decides the fallback.
func ParseLevel(label string) (RiskLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "low":
		return LevelLow, true
	case "moderate":
		return LevelModerate, true
	case "high":
		return LevelHigh, true
	case "critical":
		return LevelCritical, true
	}
	return LevelLow, false
}

// MaxLevel returns the higher of two levels under the total order.
func MaxLevel(a, b RiskLevel) RiskLevel {
	if a >= b {
		return a
	}
	return b
}
