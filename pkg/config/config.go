// Package config holds runtime settings for the Solace companion service.
// Everything is environment-driven with programmatic overrides for tests.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// OracleProvider selects the language model backend for the
// conversational companion and the model-assisted risk classifier.
type OracleProvider string

const (
	ProviderNone       OracleProvider = "none"       // No model, keyword scoring only
	ProviderGemini     OracleProvider = "gemini"     // Google generative language API (default)
	ProviderOpenRouter OracleProvider = "openrouter" // OpenRouter (has free tier)
	ProviderGroq       OracleProvider = "groq"       // Groq (high-speed inference)
	ProviderOpenAI     OracleProvider = "openai"     // Direct OpenAI API
	ProviderOllama     OracleProvider = "ollama"     // Local Ollama server
	ProviderLocal      OracleProvider = "local"      // On-device ONNX classifier, no chat
	ProviderCustom     OracleProvider = "custom"     // Custom OpenAI-compatible endpoint
)

// Config holds global settings for the Solace service.
type Config struct {
	// === Core Settings ===
	ListenAddr   string // HTTP listen address (default: ":8780")
	AuditLogPath string // Crisis audit trail file (default: "crisis_events.jsonl")
	LexiconPath  string // Optional YAML lexicon override; empty uses the built-in set

	// === Oracle Configuration ===
	OracleProvider OracleProvider // Which backend to use for chat and risk classification
	OracleAPIKey   string         // API key for cloud providers
	OracleModel    string         // Model identifier (provider-specific default when empty)
	OracleBaseURL  string         // Custom base URL for self-hosted or custom providers

	// ClassifyTimeout bounds the model-assisted risk classification per
	// message. The keyword verdict must never wait on a slow model.
	ClassifyTimeout time.Duration

	// === On-Device Classifier ===
	LocalModelPath  string // Directory with model.onnx + tokenizer; empty disables
	OnnxLibraryPath string // libonnxruntime path; empty uses the pure Go backend

	// === Session Storage ===
	RedisAddr     string // Redis address; empty selects the in-memory store
	RedisPassword string
	RedisDB       int
	SessionSecret string        // Key material for sealing session payloads at rest
	SessionTTL    time.Duration // Session expiry (default: 24h)

	// === Audit Sink ===
	PostgresDSN string // Optional durable audit sink; empty keeps file-only

	// === Journal Semantics ===
	EmbeddingBaseURL string // Ollama-compatible embeddings endpoint; empty disables theme search
	EmbeddingModel   string // Embedding model name (default: "nomic-embed-text")

	// === Companion Behavior ===
	DefaultPersona string // "peer", "mentor" or "therapist" (default: "peer")
	HistoryWindow  int    // Conversation turns carried into each completion (default: 10)
}

// NewDefaultConfig creates a Config from the environment with sensible
// defaults for everything optional.
func NewDefaultConfig() *Config {
	cfg := &Config{
		ListenAddr:   GetEnv("SOLACE_LISTEN_ADDR", ":8780"),
		AuditLogPath: GetEnv("SOLACE_AUDIT_LOG", "crisis_events.jsonl"),
		LexiconPath:  GetEnv("SOLACE_LEXICON_PATH", ""),

		OracleProvider: detectOracleProvider(),
		OracleAPIKey:   GetEnv("SOLACE_ORACLE_API_KEY", GetEnv("GEMINI_API_KEY", os.Getenv("OPENROUTER_API_KEY"))),
		OracleModel:    GetEnv("SOLACE_ORACLE_MODEL", ""),
		OracleBaseURL:  GetEnv("SOLACE_ORACLE_BASE_URL", ""),

		ClassifyTimeout: time.Duration(GetEnvInt("SOLACE_CLASSIFY_TIMEOUT_MS", 10000)) * time.Millisecond,

		LocalModelPath:  GetEnv("SOLACE_LOCAL_MODEL_PATH", ""),
		OnnxLibraryPath: GetEnv("SOLACE_ONNX_LIBRARY_PATH", ""),

		RedisAddr:     GetEnv("SOLACE_REDIS_ADDR", ""),
		RedisPassword: GetEnv("SOLACE_REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("SOLACE_REDIS_DB", 0),
		SessionSecret: getSessionSecret(),
		SessionTTL:    time.Duration(GetEnvInt("SOLACE_SESSION_TTL_SECONDS", 86400)) * time.Second,

		PostgresDSN: GetEnv("SOLACE_POSTGRES_DSN", ""),

		EmbeddingBaseURL: GetEnv("SOLACE_EMBEDDING_BASE_URL", ""),
		EmbeddingModel:   GetEnv("SOLACE_EMBEDDING_MODEL", "nomic-embed-text"),

		DefaultPersona: GetEnv("SOLACE_PERSONA", "peer"),
		HistoryWindow:  clampInt(GetEnvInt("SOLACE_HISTORY_WINDOW", 10), 1, 100),
	}

	return cfg
}

// NewLocalConfig creates a Config for fully offline operation: local
// Ollama for chat, on-device classifier if a model path is set, no cloud
// calls at all. For development and privacy-first deployments.
func NewLocalConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.OracleProvider = ProviderOllama
	cfg.OracleBaseURL = "http://localhost:11434/v1"
	cfg.OracleAPIKey = ""
	return cfg
}

// NewHighSafetyConfig creates a Config that favors escalation over
// responsiveness: a generous classification window so the model verdict
// is rarely missed, and a short session TTL so user text spends less
// time at rest.
func NewHighSafetyConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.ClassifyTimeout = 30 * time.Second
	cfg.SessionTTL = time.Hour
	return cfg
}

// FromProfile builds the Config named by SOLACE_PROFILE. Unknown values
// fall back to the default profile with a warning.
func FromProfile() *Config {
	profile := strings.ToLower(GetEnv("SOLACE_PROFILE", "default"))
	switch profile {
	case "default", "":
		return NewDefaultConfig()
	case "local":
		log.Println("✓ profile: local (offline operation)")
		return NewLocalConfig()
	case "high-safety":
		log.Println("✓ profile: high-safety")
		return NewHighSafetyConfig()
	default:
		log.Printf("[WARN] unknown profile %q, using default", profile)
		return NewDefaultConfig()
	}
}

func detectOracleProvider() OracleProvider {
	if p := os.Getenv("SOLACE_ORACLE_PROVIDER"); p != "" {
		return OracleProvider(p)
	}
	// Auto-detect from available keys. Gemini first: it is what the
	// service was tuned against.
	if os.Getenv("GEMINI_API_KEY") != "" {
		return ProviderGemini
	}
	if os.Getenv("GROQ_API_KEY") != "" {
		return ProviderGroq
	}
	if os.Getenv("OPENROUTER_API_KEY") != "" || os.Getenv("SOLACE_ORACLE_API_KEY") != "" {
		return ProviderOpenRouter
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return ProviderOpenAI
	}
	return ProviderOllama
}

// getSessionSecret returns the session sealing secret from the
// environment, or generates an ephemeral one for development. Sessions
// sealed with an ephemeral secret do not survive restarts.
func getSessionSecret() string {
	if secret := os.Getenv("SOLACE_SESSION_SECRET"); secret != "" {
		return secret
	}

	env := strings.ToLower(os.Getenv("SOLACE_ENV"))
	isProduction := env == "production" || env == "prod"

	log.Printf("[WARN] SOLACE_SESSION_SECRET not set - using ephemeral secret. Stored sessions will NOT survive restarts. Set SOLACE_SESSION_SECRET in production!")

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		if isProduction {
			log.Fatalf("[FATAL] crypto/rand failure in production - cannot generate session secret: %v", err)
		}
		log.Printf("[CRITICAL] crypto/rand failure - session sealing severely compromised: %v", err)
		fallback := make([]byte, 32)
		for i := range fallback {
			fallback[i] = byte((os.Getpid() + time.Now().Nanosecond() + i*31) & 0xFF)
		}
		return hex.EncodeToString(fallback)
	}
	return hex.EncodeToString(b)
}

func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing.
// Exported for use by other packages.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// RequiredSecret defines a required environment variable for startup validation.
type RequiredSecret struct {
	Name        string
	Description string
	Production  bool // Required in production only (false = required always)
}

// CriticalSecrets lists the secrets the service refuses to start without
// in production.
func CriticalSecrets() []RequiredSecret {
	return []RequiredSecret{
		{Name: "SOLACE_SESSION_SECRET", Description: "key material for sealing session payloads (32+ chars)", Production: true},
	}
}

// Validate checks that required configuration is present. Production
// mode errors on missing critical secrets; development mode only warns.
func (c *Config) Validate() error {
	env := strings.ToLower(os.Getenv("SOLACE_ENV"))
	isProduction := env == "production" || env == "prod"

	var missing []string
	var warnings []string

	for _, secret := range CriticalSecrets() {
		if os.Getenv(secret.Name) != "" {
			continue
		}
		if secret.Production && !isProduction {
			warnings = append(warnings, secret.Name+" ("+secret.Description+")")
		} else {
			missing = append(missing, secret.Name+" ("+secret.Description+")")
		}
	}

	if isProduction && len(c.SessionSecret) < 32 {
		missing = append(missing, "SOLACE_SESSION_SECRET (must be at least 32 characters)")
	}

	switch c.DefaultPersona {
	case "peer", "mentor", "therapist":
	default:
		return fmt.Errorf("unknown persona %q (want peer, mentor or therapist)", c.DefaultPersona)
	}

	if c.ClassifyTimeout <= 0 {
		return fmt.Errorf("classify timeout must be positive, got %v", c.ClassifyTimeout)
	}

	for _, w := range warnings {
		log.Printf("[STARTUP] Warning: missing optional secret: %s", w)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required secrets: %s", strings.Join(missing, ", "))
	}

	return nil
}

// MustValidate calls Validate and fatally exits on failure. Call at
// startup before serving.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}
