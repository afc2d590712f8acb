// Command matchengine is the process entry point for the single-venue
// limit-order matching core.
//
// Architecture:
//
//	main.go                     — entry point: loads config, builds an engine
//	                              context, optionally starts the API server,
//	                              waits for SIGINT/SIGTERM
//	internal/money              — Price + PriceCache
//	internal/book               — Tradable, Quote, BookSideEngine
//	internal/product            — ProductBook (match loop), ProductRegistry
//	internal/ledger             — UserLedger, UserRegistry
//	internal/publish            — MarketPublisher, MarketTracker
//	internal/transport          — websocket hub + webhook observers
//	internal/engine             — wires the above into one explicit Context
//	internal/api                — REST + websocket surface over the Context
//
// The core itself is single-threaded (see spec §5): every mutation of a
// given ProductBook happens on the goroutine handling the inbound API call,
// there is no background matching loop to start or stop.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"matchcore/internal/api"
	"matchcore/internal/config"
	"matchcore/internal/engine"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("MATCHCORE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	ctx, err := engine.New(
		engine.WithCacheCapacity(cfg.Cache.Capacity),
		engine.WithLogger(logger),
		engine.WithInitialUsers(cfg.Users...),
		engine.WithInitialProducts(cfg.Products...),
	)
	if err != nil {
		logger.Error("failed to build engine context", "error", err)
		os.Exit(1)
	}

	var apiServer *api.Server
	if cfg.Dashboard.Enabled {
		apiServer = api.NewServer(cfg.Dashboard, ctx, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("api server failed", "error", err)
			}
		}()
		logger.Info("api server started", "port", cfg.Dashboard.Port)
	}

	logger.Info("matchengine started",
		"products", cfg.Products,
		"users", cfg.Users,
		"cache_capacity", cfg.Cache.Capacity,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			logger.Error("failed to stop api server", "error", err)
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
