package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"passionbot/internal/config"
	"passionbot/internal/fetch"
	"passionbot/internal/ledger"
	"passionbot/internal/logger"
	"passionbot/internal/metrics"
	"passionbot/internal/pipeline"
	"passionbot/internal/queue"
	"passionbot/internal/scheduler"
	"passionbot/internal/source"
	"passionbot/internal/telegram"
	"passionbot/internal/textclean"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	if err := run(); err != nil {
		slog.Error("bot stopped", "error", err)
		os.Exit(1)
	}
}

func run() (err error) {
	// The loop must never die to a stray panic without a trace.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("critical failure, terminating", "panic", r)
			metrics.Global.SetError("panic in control loop")
			err = errors.New("panic in control loop")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	sources, err := config.LoadSources(cfg.SourcesConfigPath)
	if err != nil {
		return err
	}

	led, closeLedger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	cleaner := textclean.NewCleaner(
		sources.SourceLabels,
		sources.BoilerplatePatterns,
		sources.CrossReferencePhrases,
	)

	sections := make([]source.Section, 0, len(sources.Sections))
	for _, s := range sources.Sections {
		sections = append(sections, source.Section{Name: s.Name, URL: s.URL, Kind: s.Kind})
	}

	site := source.NewSite(source.Options{
		BaseURL:        sources.BaseURL,
		ArticlePath:    sources.ArticlePath,
		Sections:       sections,
		ContentClasses: sources.ContentClasses,
		MinTitleRunes:  cfg.MinTitleRunes,
		ListingTimeout: cfg.ListingTimeout,
		ArticleTimeout: cfg.ArticleTimeout,
	}, fetch.NewClient(), cleaner, slog.With("component", "source"))

	publishQueue := queue.New()

	pipe := pipeline.New(pipeline.Deps{
		Source:          site,
		Ledger:          led,
		Queue:           publishQueue,
		Logger:          slog.With("component", "pipeline"),
		MinContentRunes: cfg.MinContentRunes,
		CaptionMaxRunes: cfg.CaptionMaxRunes,
	})

	sender := telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID, slog.With("component", "telegram"))

	sched := scheduler.New(scheduler.Config{
		WindowStartHour: cfg.WindowStartHour,
		WindowEndHour:   cfg.WindowEndHour,
		PublishPerCycle: cfg.PublishPerCycle,
		IngestLimit:     cfg.IngestLimit,
		PauseMin:        cfg.PauseMin,
		PauseMax:        cfg.PauseMax,
		EmptyBackoff:    cfg.EmptyBackoff,
		Hashtag:         cfg.Hashtag,
	}, pipe, publishQueue, led, sender, slog.With("component", "scheduler"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("shutdown requested, stopping")
	return nil
}

func openLedger(cfg *config.Config) (ledger.Ledger, func(), error) {
	if cfg.DatabaseDSN != "" {
		pg, err := ledger.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using Postgres ledger")
		return pg, func() { _ = pg.Close() }, nil
	}

	file, err := ledger.NewFile(cfg.LedgerFilePath)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("using file ledger", "path", cfg.LedgerFilePath)
	return file, func() {}, nil
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	slog.Info("starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		slog.Error("monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"state":      stats["scheduler_state"],
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics.Global.GetStats())
}
