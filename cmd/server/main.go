package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"tradejournal/internal/api"
	"tradejournal/internal/config"
	"tradejournal/internal/logging"
	"tradejournal/pkg/journal"
)

var getppid = os.Getppid
var sleep = time.Sleep
var exit = os.Exit

func main() {
	var dataDir string
	var port int
	var host string
	var webDir string
	var envFile string

	flag.StringVar(&dataDir, "data-dir", "", "Directory for storing database and application data")
	flag.IntVar(&port, "port", 8000, "Port to run the server on")
	flag.StringVar(&host, "host", "127.0.0.1", "Host to bind the server to")
	flag.StringVar(&webDir, "web-dir", "", "Directory for SPA static files (optional)")
	flag.StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading settings")
	flag.Parse()

	settings, err := config.LoadSettings(envFile)
	if err != nil {
		slog.Error("failed to load settings", "err", err)
		os.Exit(1)
	}

	if dataDir != "" {
		config.SetRuntimeDataDir(dataDir)
	}
	config.SetRuntimePort(port)

	resolvedDataDir, err := config.GetDataDir()
	if err != nil {
		slog.Error("failed to resolve data directory", "err", err)
		os.Exit(1)
	}
	logDir := settings.LogDir
	if logDir == "" {
		logDir = filepath.Join(resolvedDataDir, "logs")
	}
	logger, writer, err := logging.NewLogger(logDir, logging.Options{Level: settings.LogLevel, Format: settings.LogFormat})
	if err != nil {
		slog.Error("failed to initialize logger", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("failed to close log writer", "err", err)
		}
	}()

	dbPath, err := config.GetDBPath()
	if err != nil {
		logger.Error("failed to resolve db path", "err", err)
		os.Exit(1)
	}

	generator := newGenerator(settings, logger)
	core, err := journal.OpenWithOptions(journal.Options{DBPath: dbPath, Logger: logger, Generator: generator})
	if err != nil {
		logger.Error("failed to initialize core", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := core.Close(); err != nil {
			logger.Error("failed to close core", "err", err)
		}
	}()
	if err := core.StartupErr(); err != nil {
		logger.Warn("serving in degraded mode", "db_path", dbPath, "err", err)
	}

	if os.Getenv("TRADE_JOURNAL_PARENT_WATCH") == "1" {
		go watchParent(logger)
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	handler := api.NewRouterWithOptions(api.Options{Core: core, Logger: logger, Generator: generator})
	if resolvedWebDir := resolveWebDir(webDir); resolvedWebDir != "" {
		logger.Info("serving SPA", "web_dir", resolvedWebDir)
		handler = api.WithSPA(handler, resolvedWebDir)
	}
	handler = middleware.Compress(5)(handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server starting", "addr", addr, "db_path", dbPath, "ai_enabled", generator != nil)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop

	logger.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
}

// newGenerator returns nil when AI is not configured; the coach then answers
// with its fallback texts.
func newGenerator(settings config.Settings, logger *slog.Logger) journal.TextGenerator {
	gen, err := journal.NewTextGenerator(context.Background(), settings.AIConfig())
	switch {
	case errors.Is(err, journal.ErrAPIKeyMissing):
		logger.Warn("ai api key not configured; coach disabled")
		return nil
	case err != nil:
		logger.Error("failed to initialize ai provider", "provider", settings.AIProvider, "err", err)
		return nil
	}
	return gen
}

func watchParent(logger *slog.Logger) {
	for {
		sleep(1 * time.Second)
		if getppid() == 1 {
			logger.Info("parent process exited; shutting down")
			exit(0)
		}
	}
}

func resolveWebDir(input string) string {
	if input != "" {
		if dirExists(input) {
			return input
		}
		return ""
	}

	candidates := []string{"static", "web/dist", "../static"}
	for _, candidate := range candidates {
		if dirExists(candidate) {
			return candidate
		}
	}
	if exe, err := os.Executable(); err == nil {
		base := filepath.Dir(exe)
		for _, candidate := range candidates {
			path := filepath.Join(base, candidate)
			if dirExists(path) {
				return path
			}
		}
	}
	return ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
