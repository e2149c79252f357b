package risk

import "testing"

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		label  string
		want   RiskLevel
		wantOK bool
	}{
		{"low", LevelLow, true},
		{"moderate", LevelModerate, true},
		{"high", LevelHigh, true},
		{"critical", LevelCritical, true},
		{"LOW", LevelLow, true},
		{"Critical", LevelCritical, true},
		{"  HIGH  ", LevelHigh, true},
		// Unrecognized labels must fail closed, never nearest-map.
		{"severe", LevelLow, false},
		{"medium", LevelLow, false},
		{"critical!", LevelLow, false},
		{"", LevelLow, false},
		{"none", LevelLow, false},
	}

	for _, tc := range testCases {
		t.Run(tc.label, func(t *testing.T) {
			got, ok := ParseLevel(tc.label)
			if ok != tc.wantOK {
				t.Fatalf("ParseLevel(%q) ok = %v, want %v", tc.label, ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tc.label, got, tc.want)
			}
		})
	}
}

func TestLevelOrdering(t *testing.T) {
	if !(LevelLow < LevelModerate && LevelModerate < LevelHigh && LevelHigh < LevelCritical) {
		t.Fatal("risk levels must be totally ordered Low < Moderate < High < Critical")
	}
}

func TestMaxLevel(t *testing.T) {
	if got := MaxLevel(LevelModerate, LevelHigh); got != LevelHigh {
		t.Errorf("MaxLevel(Moderate, High) = %v, want High", got)
	}
	if got := MaxLevel(LevelCritical, LevelLow); got != LevelCritical {
		t.Errorf("MaxLevel(Critical, Low) = %v, want Critical", got)
	}
	if got := MaxLevel(LevelLow, LevelLow); got != LevelLow {
		t.Errorf("MaxLevel(Low, Low) = %v, want Low", got)
	}
}

// Every non-negative score must map to exactly one level with no gaps.
func TestScoreThresholdsPartition(t *testing.T) {
	for score := 0; score <= 50; score++ {
		level := levelForScore(score)
		var want RiskLevel
		switch {
		case score >= 10:
			want = LevelCritical
		case score >= 6:
			want = LevelHigh
		case score >= 3:
			want = LevelModerate
		default:
			want = LevelLow
		}
		if level != want {
			t.Errorf("levelForScore(%d) = %v, want %v", score, level, want)
		}
	}
}
