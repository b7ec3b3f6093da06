package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"tradejournal/pkg/journal"
)

// Options configures the router.
type Options struct {
	Core   *journal.Core
	Logger *slog.Logger
	// Generator is handed to cores opened by a storage switch.
	Generator journal.TextGenerator
}

// NewRouter builds the HTTP API router.
func NewRouter(core *journal.Core) http.Handler {
	return NewRouterWithOptions(Options{Core: core})
}

// NewRouterWithOptions builds the HTTP API router.
func NewRouterWithOptions(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil && opts.Core != nil {
		logger = opts.Core.Logger()
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{core: opts.Core, logger: logger, generator: opts.Generator}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLoggingMiddleware(logger))
	r.Use(recoveryLoggingMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(h.coreLockMiddleware)

	r.Get("/api/health", h.health)

	// Storage and schema generation
	r.Get("/api/storage", h.getStorageInfo)
	r.Post("/api/storage/switch", h.switchStorage)
	r.Get("/api/migrations", h.getMigrationStatus)
	r.Post("/api/migrations/run", h.runMigrations)

	// Accounts
	r.Get("/api/accounts", h.getAccounts)
	r.Post("/api/accounts", h.addAccount)
	r.Get("/api/accounts/{id}", h.getAccount)
	r.Put("/api/accounts/{id}", h.updateAccount)
	r.Delete("/api/accounts/{id}", h.deleteAccount)
	r.Get("/api/accounts/{id}/stats", h.getAccountStats)

	// Trades
	r.Get("/api/trades", h.getTrades)
	r.Post("/api/trades", h.addTrade)
	r.Get("/api/trades/{id}", h.getTrade)
	r.Put("/api/trades/{id}", h.updateTrade)
	r.Delete("/api/trades/{id}", h.deleteTrade)
	r.Post("/api/trades/{id}/analysis", h.analyzeTrade)

	// Goals
	r.Get("/api/goals", h.getGoals)
	r.Post("/api/goals", h.addGoal)
	r.Put("/api/goals/{id}", h.updateGoal)
	r.Put("/api/goals/{id}/progress", h.updateGoalProgress)
	r.Delete("/api/goals/{id}", h.deleteGoal)

	// Statistics
	r.Get("/api/stats", h.getStats)

	// Tools
	r.Post("/api/tools/position-size", h.positionSize)
	r.Post("/api/tools/risk-reward", h.riskReward)
	r.Post("/api/tools/market-analysis", h.marketAnalysis)
	r.Get("/api/quote", h.getQuote)

	return r
}

type handler struct {
	coreMu    sync.RWMutex
	core      *journal.Core
	logger    *slog.Logger
	generator journal.TextGenerator
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	recordError(w, "", message)
	writeJSON(w, status, map[string]string{"error": message})
}
