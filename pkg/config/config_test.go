package config

import (
	"strings"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	t.Setenv("SOLACE_SESSION_SECRET", strings.Repeat("s", 32))

	cfg := NewDefaultConfig()
	if cfg.ListenAddr != ":8780" {
		t.Errorf("ListenAddr = %q, want :8780", cfg.ListenAddr)
	}
	if cfg.ClassifyTimeout != 10*time.Second {
		t.Errorf("ClassifyTimeout = %v, want 10s", cfg.ClassifyTimeout)
	}
	if cfg.DefaultPersona != "peer" {
		t.Errorf("DefaultPersona = %q, want peer", cfg.DefaultPersona)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestFromProfile(t *testing.T) {
	t.Setenv("SOLACE_SESSION_SECRET", strings.Repeat("s", 32))

	t.Run("local", func(t *testing.T) {
		t.Setenv("SOLACE_PROFILE", "local")
		cfg := FromProfile()
		if cfg.OracleProvider != ProviderOllama {
			t.Errorf("OracleProvider = %q, want ollama", cfg.OracleProvider)
		}
		if cfg.OracleBaseURL == "" {
			t.Error("local profile should point at a local endpoint")
		}
	})

	t.Run("high-safety", func(t *testing.T) {
		t.Setenv("SOLACE_PROFILE", "high-safety")
		cfg := FromProfile()
		if cfg.ClassifyTimeout != 30*time.Second {
			t.Errorf("ClassifyTimeout = %v, want 30s", cfg.ClassifyTimeout)
		}
		if cfg.SessionTTL != time.Hour {
			t.Errorf("SessionTTL = %v, want 1h", cfg.SessionTTL)
		}
	})

	t.Run("unknown falls back", func(t *testing.T) {
		t.Setenv("SOLACE_PROFILE", "turbo")
		cfg := FromProfile()
		if cfg.ListenAddr != ":8780" {
			t.Errorf("unknown profile should use defaults, got addr %q", cfg.ListenAddr)
		}
	})
}

func TestDetectOracleProvider(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want OracleProvider
	}{
		{"explicit wins", map[string]string{"SOLACE_ORACLE_PROVIDER": "none", "GEMINI_API_KEY": "g"}, ProviderNone},
		{"gemini key", map[string]string{"GEMINI_API_KEY": "g"}, ProviderGemini},
		{"groq key", map[string]string{"GROQ_API_KEY": "g"}, ProviderGroq},
		{"openrouter key", map[string]string{"OPENROUTER_API_KEY": "o"}, ProviderOpenRouter},
		{"nothing set", nil, ProviderOllama},
	}

	clear := []string{
		"SOLACE_ORACLE_PROVIDER", "SOLACE_ORACLE_API_KEY",
		"GEMINI_API_KEY", "GROQ_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range clear {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := detectOracleProvider(); got != tt.want {
				t.Errorf("detectOracleProvider() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	t.Setenv("SOLACE_SESSION_SECRET", strings.Repeat("s", 32))

	t.Run("unknown persona", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.DefaultPersona = "oracle"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for unknown persona")
		}
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.ClassifyTimeout = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for zero classify timeout")
		}
	})
}

func TestValidateProductionSecret(t *testing.T) {
	t.Setenv("SOLACE_ENV", "production")
	t.Setenv("SOLACE_SESSION_SECRET", "short")

	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("production must reject a short session secret")
	}

	t.Setenv("SOLACE_SESSION_SECRET", strings.Repeat("x", 32))
	cfg = NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("production with a proper secret should validate: %v", err)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("SOLACE_TEST_STR", "value")
	t.Setenv("SOLACE_TEST_INT", "42")
	t.Setenv("SOLACE_TEST_BOOL", "true")
	t.Setenv("SOLACE_TEST_BAD_INT", "not-a-number")

	if got := GetEnv("SOLACE_TEST_STR", "d"); got != "value" {
		t.Errorf("GetEnv = %q", got)
	}
	if got := GetEnv("SOLACE_TEST_UNSET", "d"); got != "d" {
		t.Errorf("GetEnv default = %q", got)
	}
	if got := GetEnvInt("SOLACE_TEST_INT", 0); got != 42 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if got := GetEnvInt("SOLACE_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("GetEnvInt bad value should fall back, got %d", got)
	}
	if got := GetEnvBool("SOLACE_TEST_BOOL", false); !got {
		t.Error("GetEnvBool should parse true")
	}
}
