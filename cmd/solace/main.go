package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/joho/godotenv"

	"github.com/solacehealth/solace/pkg/chat"
	"github.com/solacehealth/solace/pkg/config"
	"github.com/solacehealth/solace/pkg/intervene"
	"github.com/solacehealth/solace/pkg/journal"
	"github.com/solacehealth/solace/pkg/oracle"
	"github.com/solacehealth/solace/pkg/risk"
	"github.com/solacehealth/solace/pkg/session"
	"github.com/solacehealth/solace/pkg/telemetry"
)

const Version = "0.1.0"

// App holds the wired service components. Everything optional degrades:
// no Redis means in-memory sessions, no oracle key means keyword-only
// risk scoring and static replies.
type App struct {
	cfg       *config.Config
	pipeline  *risk.Pipeline
	store     session.Store
	emitter   *intervene.Emitter
	companion *chat.Companion
	journal   *journal.Service
}

func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	lexicon, err := loadLexicon(cfg.LexiconPath)
	if err != nil {
		return nil, err
	}

	client := buildOracleClient(cfg)
	assessor := buildAssessor(cfg, client)

	pipeline := risk.NewPipeline(
		risk.NewKeywordScorer(lexicon),
		risk.NewClassifier(assessor, cfg.ClassifyTimeout),
	)

	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	emitter, err := buildEmitter(cfg)
	if err != nil {
		return nil, err
	}

	controller := intervene.NewController(emitter, store)

	companion, err := chat.NewCompanion(chat.Config{
		Pipeline:       pipeline,
		Controller:     controller,
		Client:         client,
		Store:          store,
		DefaultPersona: cfg.DefaultPersona,
		HistoryWindow:  cfg.HistoryWindow,
	})
	if err != nil {
		return nil, err
	}

	themes := buildThemeIndex(cfg)
	journalSvc, err := journal.NewService(store, client, themes)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		pipeline:  pipeline,
		store:     store,
		emitter:   emitter,
		companion: companion,
		journal:   journalSvc,
	}, nil
}

func loadLexicon(path string) (*risk.Lexicon, error) {
	if path == "" {
		return risk.DefaultLexicon(), nil
	}
	lex, err := risk.LoadLexiconFile(path)
	if err != nil {
		return nil, fmt.Errorf("load lexicon %s: %w", path, err)
	}
	log.Printf("✓ custom lexicon loaded from %s", path)
	return lex, nil
}

func buildOracleClient(cfg *config.Config) oracle.Client {
	switch cfg.OracleProvider {
	case config.ProviderNone, config.ProviderLocal:
		log.Println("○ oracle disabled (keyword scoring only)")
		return nil
	case config.ProviderGemini:
		if cfg.OracleAPIKey == "" {
			log.Println("○ oracle disabled (no Gemini API key)")
			return nil
		}
		log.Printf("✓ oracle enabled (provider: gemini)")
		return oracle.NewGeminiClient(cfg.OracleAPIKey, cfg.OracleModel)
	default:
		if cfg.OracleAPIKey == "" && cfg.OracleProvider != config.ProviderOllama {
			log.Printf("○ oracle disabled (no API key for provider %s)", cfg.OracleProvider)
			return nil
		}
		log.Printf("✓ oracle enabled (provider: %s)", cfg.OracleProvider)
		return oracle.NewOpenAIClient(oracle.OpenAIConfig{
			Provider: oracle.Provider(cfg.OracleProvider),
			APIKey:   cfg.OracleAPIKey,
			Model:    cfg.OracleModel,
			BaseURL:  cfg.OracleBaseURL,
		})
	}
}

// buildAssessor picks the model side of the risk pipeline: the on-device
// classifier when configured, otherwise the oracle.
func buildAssessor(cfg *config.Config, client oracle.Client) risk.Assessor {
	if cfg.LocalModelPath != "" {
		local, err := oracle.NewLocalAssessor(oracle.LocalConfig{
			ModelPath:       cfg.LocalModelPath,
			OnnxLibraryPath: cfg.OnnxLibraryPath,
		})
		if err == nil {
			return local
		}
		log.Printf("○ local classifier disabled (%v)", err)
	}
	if client == nil {
		log.Println("○ model-assisted classification disabled")
		return nil
	}
	return oracle.NewLLMAssessor(client)
}

func buildStore(cfg *config.Config) (session.Store, error) {
	if cfg.RedisAddr == "" {
		log.Println("○ session store: in-memory (set SOLACE_REDIS_ADDR for persistence)")
		return session.NewMemoryStore(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := session.NewRedisStore(ctx, session.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Secret:   cfg.SessionSecret,
		TTL:      cfg.SessionTTL,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("✓ session store: redis at %s (sealed at rest)", cfg.RedisAddr)
	return store, nil
}

func buildEmitter(cfg *config.Config) (*intervene.Emitter, error) {
	sinks := make([]intervene.Sink, 0, 2)

	fileSink, err := intervene.NewFileSink(cfg.AuditLogPath)
	if err != nil {
		return nil, err
	}
	sinks = append(sinks, fileSink)

	if cfg.PostgresDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pgSink, err := intervene.NewPostgresSink(ctx, cfg.PostgresDSN)
		cancel()
		if err != nil {
			log.Printf("○ postgres audit sink disabled (%v)", err)
		} else {
			sinks = append(sinks, pgSink)
			log.Println("✓ postgres audit sink enabled")
		}
	}

	return intervene.NewEmitter(intervene.EmitterConfig{
		QueueSize: 1000,
		Workers:   2,
	}, sinks), nil
}

func buildThemeIndex(cfg *config.Config) *journal.ThemeIndex {
	if cfg.EmbeddingBaseURL == "" {
		log.Println("○ journal theme search disabled (no embedding endpoint)")
		return nil
	}
	idx, err := journal.NewThemeIndex(cfg.EmbeddingBaseURL, cfg.EmbeddingModel)
	if err != nil {
		log.Printf("○ journal theme search disabled (%v)", err)
		return nil
	}
	log.Printf("✓ journal theme search enabled (embeddings: %s)", cfg.EmbeddingBaseURL)
	return idx
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := godotenv.Load(); err == nil {
		log.Println("✓ loaded .env")
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServer()
	case "analyze":
		if len(os.Args) < 3 {
			fmt.Println("Usage: solace analyze <text>")
			os.Exit(1)
		}
		runCLIAnalyze(strings.Join(os.Args[2:], " "))
	case "version":
		fmt.Printf("Solace v%s\n", Version)
		fmt.Println("Mental wellness companion backend")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Solace v%s - mental wellness companion backend\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  solace serve            Start the HTTP server")
	fmt.Println("  solace analyze <text>   Run a message through the risk pipeline")
	fmt.Println("  solace version          Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  SOLACE_PROFILE           Config profile: default, local, high-safety")
	fmt.Println("  SOLACE_LISTEN_ADDR       HTTP listen address (default: :8780)")
	fmt.Println("  SOLACE_ORACLE_PROVIDER   gemini, openrouter, groq, openai, ollama, none")
	fmt.Println("  SOLACE_ORACLE_API_KEY    API key for the oracle provider")
	fmt.Println("  SOLACE_REDIS_ADDR        Redis address for persistent sessions")
	fmt.Println("  SOLACE_POSTGRES_DSN      Postgres DSN for the durable audit sink")
	fmt.Println("  SOLACE_LOCAL_MODEL_PATH  ONNX model dir for on-device classification")
}

func runCLIAnalyze(text string) {
	cfg := config.FromProfile()
	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("init failed: %v", err)
	}
	defer app.emitter.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	verdict, err := app.pipeline.Evaluate(ctx, text)
	if err != nil {
		log.Fatalf("analyze failed: %v", err)
	}
	out, _ := json.MarshalIndent(verdict, "", "  ")
	fmt.Println(string(out))
}

func runServer() {
	cfg := config.FromProfile()
	cfg.MustValidate()

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("init failed: %v", err)
	}
	defer func() {
		app.emitter.Close(context.Background())
		_ = app.store.Close()
	}()

	srv := fiber.New(fiber.Config{
		AppName: "Solace",
	})

	registerRoutes(srv, app)

	log.Printf("Solace HTTP server starting on %s", cfg.ListenAddr)
	log.Printf("Endpoints:")
	log.Printf("  GET  /health                  - Health check")
	log.Printf("  POST /v1/analyze              - Risk pipeline only, no conversation")
	log.Printf("  POST /v1/chat                 - Companion conversation turn")
	log.Printf("  POST /v1/mood                 - Mood check-in")
	log.Printf("  POST /v1/journal              - Journal entry")
	log.Printf("  GET  /v1/journal/prompt       - Personalized journal prompt")
	log.Printf("  POST /v1/cbt/thought-record   - Thought record with CBT insight")
	log.Printf("  GET  /metrics                 - Prometheus metrics")

	if err := srv.Listen(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}

func registerRoutes(srv *fiber.App, app *App) {
	srv.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	srv.Get("/metrics", adaptor.HTTPHandler(telemetry.Handler()))

	srv.Post("/v1/analyze", func(c fiber.Ctx) error {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}

		verdict, err := app.pipeline.Evaluate(c.Context(), req.Text)
		if err != nil {
			return c.Status(499).JSON(fiber.Map{"error": "request cancelled"})
		}
		return c.JSON(verdict)
	})

	srv.Post("/v1/chat", func(c fiber.Ctx) error {
		var req struct {
			SessionID string `json:"session_id"`
			Text      string `json:"text"`
			Persona   string `json:"persona"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}
		if req.SessionID == "" {
			req.SessionID = session.NewSessionID()
		}

		turn, err := app.companion.HandleMessage(c.Context(), req.SessionID, req.Text, req.Persona)
		if err != nil {
			return c.Status(499).JSON(fiber.Map{"error": "request cancelled"})
		}
		return c.JSON(turn)
	})

	srv.Post("/v1/mood", func(c fiber.Ctx) error {
		var req struct {
			SessionID string `json:"session_id"`
			Score     int    `json:"score"`
			Note      string `json:"note"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.SessionID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "session_id is required"})
		}
		if req.Score < 1 || req.Score > 10 {
			return c.Status(400).JSON(fiber.Map{"error": "score must be between 1 and 10"})
		}

		entry := session.MoodEntry{Score: req.Score, Note: req.Note, Timestamp: time.Now().UTC()}
		if err := app.store.AppendMood(c.Context(), req.SessionID, entry); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "could not store mood entry"})
		}
		return c.JSON(fiber.Map{"recorded": true})
	})

	srv.Post("/v1/journal", func(c fiber.Ctx) error {
		var req struct {
			SessionID string `json:"session_id"`
			Text      string `json:"text"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.SessionID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "session_id is required"})
		}

		entry, err := app.journal.AddEntry(c.Context(), req.SessionID, req.Text)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"ref": entry.Ref, "recorded": true})
	})

	srv.Get("/v1/journal/prompt", func(c fiber.Ctx) error {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "session_id is required"})
		}
		p, err := app.journal.GeneratePrompt(c.Context(), sessionID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "could not generate prompt"})
		}
		return c.JSON(p)
	})

	srv.Post("/v1/cbt/thought-record", func(c fiber.Ctx) error {
		var req struct {
			SessionID string                `json:"session_id"`
			Record    session.ThoughtRecord `json:"record"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.SessionID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "session_id is required"})
		}

		insight, err := app.journal.ThoughtRecordInsight(c.Context(), req.SessionID, req.Record)
		switch {
		case err == nil:
			return c.JSON(insight)
		case errors.Is(err, oracle.ErrUnavailable) || errors.Is(err, oracle.ErrMalformed):
			// The record is stored; only the insight failed.
			return c.Status(502).JSON(fiber.Map{"error": "insight unavailable", "recorded": true})
		default:
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
	})
}
