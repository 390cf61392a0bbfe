package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/classify"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/engine"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/extract"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/flow"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/ratelimit"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/session"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/contact"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/core"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/cutoff"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/httpapi"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/llm"
	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/rag"
	logx "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/pkg/logger"
	pkgredis "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/pkg/redis"
)

// AppConfig defines all configurable parameters, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`

	// Infrastructure
	Redis pkgredis.Config

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"admission_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Assistant configs
	Engine    model.EngineConfig
	College   model.CollegeConfig
	Answer    model.AnswerModelConfig
	Embedding model.EmbeddingConfig
}

func (c *AppConfig) dsn() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		fmt.Printf("Warning: could not load .env file: %v\n", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(fmt.Sprintf("failed to process environment config: %v", err))
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env})
	logx.Info().Str("environment", env.String()).Msg("starting admission assistant")

	idleTTL, err := time.ParseDuration(cfg.Engine.SessionIdleTTL)
	if err != nil {
		logx.Fatal().Err(err).Str("value", cfg.Engine.SessionIdleTTL).Msg("invalid SESSION_IDLE_TTL")
	}
	transcriptTTL, err := time.ParseDuration(cfg.Engine.TranscriptTTL)
	if err != nil {
		logx.Fatal().Err(err).Str("value", cfg.Engine.TranscriptTTL).Msg("invalid TRANSCRIPT_TTL")
	}

	rdb := cfg.Redis.MustNew()
	defer rdb.Close()

	db, err := gorm.Open(postgres.Open(cfg.dsn()), &gorm.Config{})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	cutoffStore := cutoff.NewStore(db)
	contactStore := contact.NewStore(db)
	if err := cutoffStore.Migrate(); err != nil {
		logx.Fatal().Err(err).Msg("cutoff migration failed")
	}
	if err := contactStore.Migrate(); err != nil {
		logx.Fatal().Err(err).Msg("contact migration failed")
	}

	geminiClient, err := llm.NewGeminiClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create gemini client")
	}

	retriever := rag.NewRetriever(db, rag.NewGeminiEmbedder(geminiClient, cfg.Embedding))
	if err := retriever.Migrate(); err != nil {
		logx.Fatal().Err(err).Msg("knowledge chunk migration failed")
	}

	answerer, err := llm.NewAnswerer(ctx, geminiClient, cfg.Answer, cfg.College)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create answer model")
	}

	intents, err := llm.NewIntentResolver(ctx, geminiClient, cfg.Answer.IntentModel)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create intent model")
	}

	ex := extract.Fields{}
	eng := engine.New(engine.Deps{
		Limiter:    ratelimit.New(cfg.Engine.RatePerMinute),
		Store:      session.NewStore(idleTTL),
		Router:     flow.NewRouter(ex, classify.NewKeyword(ex, cfg.College), cfg.Engine.RankCeiling),
		Collector:  flow.NewCollector(ex, cfg.Engine.RankCeiling),
		Lookup:     cutoffStore,
		Retriever:  retriever,
		Answerer:   answerer,
		Contacts:   contactStore,
		Transcript: session.NewRedisTranscript(rdb, transcriptTTL),
		Intents:    intents,
	}, cfg.Engine, cfg.College)

	srv := httpapi.New(eng, cutoffStore, cfg.College)
	if err := srv.Listen(cfg.HTTPAddr); err != nil {
		logx.Fatal().Err(err).Msg("http server stopped")
	}
}
