package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/fraudform/internal/api"
	"github.com/gyaneshwarpardhi/fraudform/internal/config"
	"github.com/gyaneshwarpardhi/fraudform/internal/feature"
	"github.com/gyaneshwarpardhi/fraudform/internal/form"
	"github.com/gyaneshwarpardhi/fraudform/internal/predict"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/fraudform.yaml", "Path to YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	// ── Classifier client ─────────────────────────────────────────────────────
	client := predict.NewClient(cfg.Predictor.BaseURL, cfg.Predictor.Timeout())
	checkLayout(client)

	// ── Form + hot-reload watcher ─────────────────────────────────────────────
	f := form.New(client)

	// Reload only publishes configs that pass Validate.
	loader.OnChange(func(newCfg *config.Config) {
		client.SetBaseURL(newCfg.Predictor.BaseURL)
		client.SetTimeout(newCfg.Predictor.Timeout())
		slog.Info("config hot-reloaded", "base_url", client.BaseURL(), "timeout", client.Timeout())
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.New(f, client, loader),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: config.MaxTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr, "predictor", client.BaseURL())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	slog.Info("goodbye")
}

// checkLayout compares the classifier's advertised columns with ours.
// A mismatch or an unreachable service is logged and never fatal.
func checkLayout(client *predict.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	info, err := client.Describe(ctx)
	if err != nil {
		slog.Warn("classifier layout check skipped", "err", err)
		return
	}
	if !info.Matches(feature.Columns()) {
		slog.Warn("classifier expects a different feature layout",
			"want_len", feature.Length,
			"service_len", info.FeaturesRequired,
			"service_features", info.Features,
		)
		return
	}
	slog.Info("classifier layout verified", "features", info.FeaturesRequired)
}
