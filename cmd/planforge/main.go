package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/planforge/planforge/internal/api"
	"github.com/planforge/planforge/internal/bus"
	"github.com/planforge/planforge/internal/chat"
	"github.com/planforge/planforge/internal/config"
	"github.com/planforge/planforge/internal/docgen"
	"github.com/planforge/planforge/internal/provider"
	"github.com/planforge/planforge/internal/search"
	"github.com/planforge/planforge/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("planforge starting", "port", cfg.Port, "provider", cfg.ProviderKind)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence
	var db store.Store
	var err error
	switch cfg.StoreDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			slog.Error("DATABASE_URL is required for the postgres driver")
			os.Exit(1)
		}
		db, err = store.NewPostgres(ctx, cfg.DatabaseURL)
	case "sqlite":
		db, err = store.NewSQLite(cfg.SQLitePath)
	default:
		slog.Error("unknown store driver", "driver", cfg.StoreDriver)
		os.Exit(1)
	}
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("store ready", "driver", cfg.StoreDriver)

	// Provider client
	llm, err := provider.New(provider.Config{
		Kind:        provider.Kind(cfg.ProviderKind),
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		slog.Error("invalid provider configuration", "error", err)
		os.Exit(1)
	}
	if health, err := llm.Probe(ctx); err != nil {
		slog.Warn("provider unreachable at startup", "error", err)
	} else {
		slog.Info("provider probed", "reachable", health.Reachable, "model_available", health.ModelAvailable)
	}

	// NATS event bus (optional; events stay in-process without it)
	var sink *bus.Sink
	var streams func(string) chat.EventSink
	if cfg.NatsURL != "" {
		busClient, err := bus.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer busClient.Close()
		sink = bus.NewSink(busClient)
		streams = sink.StreamSink
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, events will not be published")
	}

	// Web search (optional)
	var searcher *search.Cache
	if cfg.SearchEnabled {
		searcher = search.NewCache(search.NewDuckDuckGo())
	}

	orch := docgen.NewOrchestrator(db, llm, sinkOrNil(sink), slog.Default(), docgen.Options{
		IncludeConversation: cfg.IncludeConversation,
		StrictValidation:    cfg.StrictDocs,
		Target:              docgen.Target(cfg.Target),
	})
	chatSvc := api.NewChatService(db, llm, searcher, streams, slog.Default())

	srv := api.NewServer(cfg.Port, db, llm, orch, chatSvc, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("planforge ready", "port", cfg.Port, "model", cfg.Model)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("planforge stopped")
}

// sinkOrNil keeps the orchestrator's sink a typed nil-free interface value.
func sinkOrNil(s *bus.Sink) docgen.EventSink {
	if s == nil {
		return nil
	}
	return s
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
