package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baxromumarov/job-autopilot/internal/ai"
	"github.com/baxromumarov/job-autopilot/internal/api"
	"github.com/baxromumarov/job-autopilot/internal/browser"
	"github.com/baxromumarov/job-autopilot/internal/config"
	"github.com/baxromumarov/job-autopilot/internal/core"
	"github.com/baxromumarov/job-autopilot/internal/crawl"
	"github.com/baxromumarov/job-autopilot/internal/dedup"
	"github.com/baxromumarov/job-autopilot/internal/extract"
	"github.com/baxromumarov/job-autopilot/internal/lifecycle"
	"github.com/baxromumarov/job-autopilot/internal/notify"
	"github.com/baxromumarov/job-autopilot/internal/store"
)

// backend is everything the server needs from persistence; both the
// Postgres and the in-memory store provide it.
type backend interface {
	dedup.Store
	lifecycle.Store
	api.Store
	crawl.ProfileSource
	core.JobExpirer
}

func main() {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db backend
	switch cfg.Store.Driver {
	case "memory":
		slog.Warn("using in-memory store, data is lost on exit")
		db = store.NewMemoryStore()
	default:
		pg, err := store.NewStore(cfg.Store.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to store", "error", err)
			os.Exit(1)
		}
		defer pg.Close()

		if err := pg.RunMigrations(cfg.Store.SchemaPath); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		db = pg
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.Redis.URL != "" {
		rdb, err := notify.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		notifier = notify.NewRedisNotifier(rdb, cfg.Redis.Channel)
	}

	board, err := browser.NewBoardBrowser(cfg.Board)
	if err != nil {
		slog.Error("failed to configure board", "error", err)
		os.Exit(1)
	}

	aiClient := ai.NewClient(cfg.AI.Provider, cfg.AI.APIKey, cfg.AI.Model)
	pipeline := extract.NewPipeline(&extract.AIExtractor{Client: aiClient})

	session := crawl.NewSession(board, pipeline, dedup.New(db), crawl.Config{
		MaxResults:      cfg.Crawl.MaxResults,
		PolitenessDelay: cfg.Crawl.PolitenessDelay,
		Retry: crawl.RetryConfig{
			MaxRetries:   cfg.Crawl.Retry.MaxRetries,
			InitialDelay: cfg.Crawl.Retry.InitialDelay,
			MaxDelay:     cfg.Crawl.Retry.MaxDelay,
			Factor:       cfg.Crawl.Retry.Factor,
		},
	})
	supervisor := crawl.NewSupervisor(db, session, cfg.Crawl.Interval, cfg.Crawl.Concurrency)
	if err := supervisor.Start(ctx); err != nil {
		slog.Error("failed to start supervisor", "error", err)
		os.Exit(1)
	}
	defer supervisor.Stop()

	machine := lifecycle.New(db, notifier, lifecycle.Config{
		MaxAttempts:   cfg.Lifecycle.MaxAttempts,
		RetryBase:     cfg.Lifecycle.RetryBase,
		RetryMaxDelay: cfg.Lifecycle.RetryMaxDelay,
	})
	go machine.RunPreparer(ctx, cfg.Lifecycle.PrepareInterval)

	core.NewSweepService(db).Start(ctx)

	srv := api.NewServer(machine, db, supervisor)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port, "store", cfg.Store.Driver, "board", cfg.Board.Name)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
