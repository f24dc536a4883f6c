// Command gitsim-server serves a single simulated repository over HTTP
// and websockets.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/kilupskalvis/gitsim/internal/app"
	"github.com/kilupskalvis/gitsim/internal/config"
	"github.com/kilupskalvis/gitsim/internal/server"
)

func main() {
	def := config.Default()
	listen := flag.String("listen", envOrDefault("GITSIM_LISTEN", "0.0.0.0:8740"), "Listen address")
	dataDir := flag.String("data-dir", envOrDefault("GITSIM_DATA_DIR", "/var/lib/gitsim-server"), "Data directory")
	storage := flag.String("storage", envOrDefault("GITSIM_STORAGE", def.Storage), "Storage backend (bolt, sqlite, memory)")
	idScheme := flag.String("id-scheme", envOrDefault("GITSIM_ID_SCHEME", def.IDScheme), "Commit id scheme (random, uuid, content, sequential)")
	seed := flag.Int64("seed", envInt64("GITSIM_SEED", 0), "Random seed, 0 for time-seeded")
	tool := flag.String("tool", envOrDefault("GITSIM_TOOL", def.Tool), "Command-family token")
	token := flag.String("token", os.Getenv("GITSIM_TOKEN"), "Bearer token required for commands")
	logLevel := flag.String("log-level", envOrDefault("GITSIM_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", envOrDefault("GITSIM_LOG_FORMAT", "json"), "Log format (json, text)")
	webhookURLs := flag.String("webhook-urls", os.Getenv("GITSIM_WEBHOOK_URLS"), "Comma-separated webhook URLs to notify on changes")
	flag.Parse()

	logger := config.NewLogger(os.Stdout, *logLevel, *logFormat)

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		logger.Error("failed to create data directory", "error", err, "path", *dataDir)
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.Tool = *tool
	cfg.Storage = *storage
	cfg.Database = filepath.Join(*dataDir, config.DatabaseFile)
	cfg.IDScheme = *idScheme
	cfg.Seed = *seed
	cfg.Listen = *listen

	in, st, err := app.Open(cfg, logger)
	if err != nil {
		logger.Error("failed to start interpreter", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	scfg := server.DefaultConfig()
	scfg.Token = *token

	if *webhookURLs != "" {
		var trimmed []string
		for _, u := range strings.Split(*webhookURLs, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				trimmed = append(trimmed, u)
			}
		}
		if len(trimmed) > 0 {
			scfg.Webhooks = server.NewWebhookNotifier(trimmed, logger)
			logger.Info("webhooks configured", "count", len(trimmed))
		}
	}

	h, handlerCleanup := server.Handler(in, scfg, logger)
	defer handlerCleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving repository", "storage", cfg.Storage, "database", cfg.Database)
	if err := server.ListenAndServe(ctx, cfg.Listen, h, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}
