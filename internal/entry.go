// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/mimir/internal/api"
	"github.com/starford/mimir/internal/digest"
	"github.com/starford/mimir/internal/docstore"
	"github.com/starford/mimir/internal/events"
	"github.com/starford/mimir/internal/indexer"
	"github.com/starford/mimir/internal/metastore"
	"github.com/starford/mimir/internal/oracle"
	"github.com/starford/mimir/internal/sse"
)

// watchWorkers bounds concurrent per-path indexing workflows fed by the
// file watcher.
const watchWorkers = 4

// Run starts the application with the given options: watcher, indexing
// workflow, regeneration task, scheduler-driven synthesis, and the HTTP API.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("oracle_enabled", cfg.Oracle.Enabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	// Initialize document store.
	docs, err := docstore.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init docstore: %w", err)
	}

	// Initialize SQLite metadata store.
	store, err := metastore.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init metastore: %w", err)
	}
	defer store.Close()

	// Content oracle, when configured. Without it, indexing still runs from
	// parsed metadata and window synthesis is off.
	var orc oracle.Oracle
	if cfg.Oracle.Enabled() {
		gem, err := oracle.NewGemini(ctx, cfg.Oracle.APIKey, cfg.Oracle.Model, cfg.Oracle.MaxAttempts, logger)
		if err != nil {
			return fmt.Errorf("init oracle: %w", err)
		}
		defer gem.Close()
		orc = gem
	} else {
		logger.Warn("no oracle configured; classification, entities, and synthesis are disabled")
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Regeneration requests flow through a buffered channel to a dedicated
	// consumer; a full buffer drops the request rather than stalling indexing.
	regenCh := make(chan indexer.RegenRequest, 256)
	emitRegen := func(req indexer.RegenRequest) {
		select {
		case regenCh <- req:
		default:
			logger.Warn("regeneration queue full, request dropped", slog.String("kind", string(req.Kind)))
		}
	}

	workflow := indexer.NewWorkflow(store, docs, orc, emitRegen, logger)
	regen := indexer.NewRegenerator(store, docs, logger)
	engine := digest.NewEngine(store, docs, orc, logger)

	// Build API service and router.
	svc := api.NewService(store, docs)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", api.Health)
	r.Get("/health/ready", api.Health)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Catch up with documents written while the server was down.
	g.Go(func() error {
		reindexer := indexer.NewReindexer(workflow, regen, logger)
		if _, err := reindexer.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("startup reindex failed", slog.String("error", err.Error()))
		}
		return nil
	})

	// Regeneration consumer.
	g.Go(func() error {
		err := regen.Run(gCtx, regenCh)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// File watcher feeding the indexing workflow. Each event dispatches onto
	// a bounded group so a slow enrichment on one path never stalls the
	// watcher loop or other paths.
	g.Go(func() error {
		dispatch := events.NewDispatcher(gCtx, watchWorkers, func(ctx context.Context, ev events.DocumentChanged) {
			res := workflow.ProcessDocument(ctx, ev)
			if res.Status == indexer.StatusIndexed {
				broker.PublishDocumentIndexed(res.Path, res.Classification)
			}
		})
		watchErr := events.Watch(gCtx, cfg.Vault.Path, logger, dispatch.Emit)
		if err := dispatch.Wait(); err != nil {
			return err
		}
		return watchErr
	})

	// Scheduler driving window synthesis, only with an oracle available.
	if cfg.Oracle.Enabled() {
		scheduler := events.NewScheduler(events.Schedule{
			DailyAt:   cfg.Schedule.DailyAt,
			WeeklyAt:  cfg.Schedule.WeeklyAt,
			WeeklyDay: cfg.Schedule.Weekday(),
		}, logger)
		g.Go(func() error {
			return scheduler.Run(gCtx, func(ev events.WindowClosed) {
				runWindow(gCtx, engine, broker, logger, ev)
			})
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// runWindow resolves a window-closed event to its default target and runs
// the matching synthesis. A zero Date means the window that just closed:
// yesterday for daily, the previous ISO week for weekly.
func runWindow(ctx context.Context, engine *digest.Engine, broker *sse.Broker, logger *slog.Logger, ev events.WindowClosed) {
	target := ev.Date
	var (
		out digest.Outcome
		err error
	)
	switch ev.Kind {
	case events.WindowDaily:
		if target.IsZero() {
			target = time.Now().UTC().AddDate(0, 0, -1)
		}
		out, err = engine.RunDaily(ctx, target)
	case events.WindowWeekly:
		if target.IsZero() {
			target = time.Now().UTC().AddDate(0, 0, -7)
		}
		out, err = engine.RunWeekly(ctx, target)
	default:
		return
	}
	if err != nil {
		logger.Error("window synthesis failed",
			slog.String("kind", string(ev.Kind)), slog.String("error", err.Error()))
		return
	}
	if out.Generated {
		broker.PublishArtifactCreated(string(ev.Kind), out.Path)
	}
}
