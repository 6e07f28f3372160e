package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/AdilSaeed0347/InsightFolio/internal/analytics"
	"github.com/AdilSaeed0347/InsightFolio/internal/api"
	"github.com/AdilSaeed0347/InsightFolio/internal/chat"
	"github.com/AdilSaeed0347/InsightFolio/internal/config"
	"github.com/AdilSaeed0347/InsightFolio/internal/database"
	"github.com/AdilSaeed0347/InsightFolio/internal/events"
	"github.com/AdilSaeed0347/InsightFolio/internal/format"
	"github.com/AdilSaeed0347/InsightFolio/internal/intent"
	"github.com/AdilSaeed0347/InsightFolio/internal/llm"
	"github.com/AdilSaeed0347/InsightFolio/internal/memory"
	"github.com/AdilSaeed0347/InsightFolio/internal/metrics"
	mw "github.com/AdilSaeed0347/InsightFolio/internal/middleware"
	"github.com/AdilSaeed0347/InsightFolio/internal/pipeline"
	"github.com/AdilSaeed0347/InsightFolio/internal/profile"
	iredis "github.com/AdilSaeed0347/InsightFolio/internal/redis"
	"github.com/AdilSaeed0347/InsightFolio/internal/retrieval"
	"github.com/AdilSaeed0347/InsightFolio/internal/safety"
	"github.com/AdilSaeed0347/InsightFolio/internal/server"
	"github.com/AdilSaeed0347/InsightFolio/internal/splitter"
	"github.com/AdilSaeed0347/InsightFolio/internal/synth"
	"github.com/AdilSaeed0347/InsightFolio/internal/textproc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prof, err := profile.Load(cfg.Profile.Path)
	if err != nil {
		slog.Error("loading profile", "error", err)
		os.Exit(1)
	}

	// PostgreSQL + pgvector
	if _, err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS telemetry is optional
	var (
		natsClient *events.Client
		publisher  events.Publisher = events.Noop{}
	)
	if cfg.NATS.URL != "" {
		natsClient, err = events.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to nats", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		publisher = events.NewPublisher(natsClient.JetStream())
	}

	// Telemetry persistence
	analyticsRepo := analytics.NewRepository(pool)
	if natsClient != nil {
		consumer := analytics.NewConsumer(analyticsRepo, natsClient)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("analytics consumer stopped", "error", err)
			}
		}()
	}

	// LLM + retrieval
	llmClient := llm.NewClient(llm.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		ChatModel:      cfg.LLM.ChatModel,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Timeout:        cfg.LLM.Timeout,
		MaxRetries:     cfg.LLM.MaxRetries,
	})
	searcher := retrieval.NewPostgresSearcher(pool, llmClient)
	retriever := retrieval.NewOrchestrator(searcher, retrieval.Config{
		PrimaryTopK: cfg.Retrieval.PrimaryTopK,
		AuxTopK:     cfg.Retrieval.AuxTopK,
		MinScore:    cfg.Retrieval.MinScore,
		MaxResults:  cfg.Retrieval.MaxResults,
		Timeout:     cfg.Retrieval.Timeout,
	}, prof.SearchHints, slog.Default())

	images, err := format.LoadImages(cfg.Images.MetadataPath, cfg.Images.Dir)
	if err != nil {
		slog.Error("loading image catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("image catalog loaded", "images", len(images))

	// Conversation memory
	store := memory.NewStore(memory.Config{
		MaxTurns:      cfg.Memory.MaxTurns,
		IdleTimeout:   cfg.Memory.IdleTimeout,
		SweepInterval: cfg.Memory.SweepInterval,
	}, prof, slog.Default())
	memCfg := store.Config()
	go store.RunSweeper(ctx, memCfg.SweepInterval, memCfg.IdleTimeout)
	if err := metrics.RegisterActiveSessions(store.ActiveSessions); err != nil {
		slog.Warn("registering session gauge", "error", err)
	}

	// Pipeline
	classifier := intent.New(prof)
	assistant := pipeline.New(pipeline.Deps{
		Profile:        prof,
		Safety:         safety.NewFilter(cfg.Safety.MaxQueryLength, prof.Possessive()),
		Normalizer:     textproc.NewNormalizer(prof),
		Classifier:     classifier,
		Splitter:       splitter.New(prof, classifier, slog.Default()),
		Memory:         store,
		Retriever:      retriever,
		Synth:          synth.New(llmClient, prof, slog.Default()),
		Formatter:      format.New(prof, images, slog.Default()),
		Events:         publisher,
		Logger:         slog.Default(),
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	chatHandler := chat.NewHandler(assistant)
	memoryHandler := memory.NewHandler(store)
	analyticsHandler := analytics.NewHandler(analyticsRepo)
	chatLimiter := mw.NewRateLimiter(redisClient, "chat", cfg.RateLimit.Requests, cfg.RateLimit.WindowSec)

	checks := api.Checks{
		Database: func(ctx context.Context) error {
			return database.HealthCheck(ctx, pool)
		},
		KnowledgeBase: searcher.Count,
	}
	if natsClient != nil {
		checks.Events = natsClient.Healthy
	}

	// Router
	router := api.NewRouter(api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		ChatRateLimiter:    chatLimiter.Middleware,
		ImagesDir:          cfg.Images.Dir,
		Checks:             checks,
	}, api.HandlerSet{
		Chat:       chatHandler.Chat,
		ChatHealth: chatHandler.Health,

		ChatStats:    memoryHandler.Stats,
		ClearSession: memoryHandler.ClearSession,

		ChatAnalytics: analyticsHandler.Summary,
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	cancel()
	slog.Info("cleared conversation memory", "sessions", store.ClearAll())
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
