// Package journal implements the trading journal: account, trade and goal
// repositories over a record store, the schema generation migrator,
// statistics, calculators and the AI coach.
package journal

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"tradejournal/pkg/recordstore"
)

// Options controls Core initialization.
type Options struct {
	DBPath    string
	Logger    *slog.Logger
	IDs       IDGenerator
	Generator TextGenerator
	// SkipMigrations leaves the store generation untouched at open.
	SkipMigrations bool
	Now            func() time.Time
}

// Core wires the record store, repositories, migrator and coach together.
type Core struct {
	store    *recordstore.Store
	Trades   *TradeRepository
	Accounts *AccountRepository
	Goals    *GoalRepository
	migrator *Migrator
	coach    *Coach
	logger   *slog.Logger
	now      func() time.Time
	dbPath   string

	mu         sync.Mutex
	startupErr error
}

// Open initializes a Core using the provided database path.
func Open(dbPath string) (*Core, error) {
	return OpenWithOptions(Options{DBPath: dbPath})
}

// OpenWithOptions initializes a Core and runs pending migrations. Only
// invalid options fail. An unreachable store or a failed migration is logged
// and kept in StartupErr; the Core keeps serving whatever data is in place.
func OpenWithOptions(opts Options) (*Core, error) {
	if opts.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ids := opts.IDs
	if ids == nil {
		ids = NewULIDGenerator()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	store, err := recordstore.New(recordstore.Options{
		Path:   opts.DBPath,
		Schema: Schema(),
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	seed := DefaultSeed(ids)
	migrator, err := NewMigrator(store, MigratorOptions{
		Steps:          DefaultMigrationSteps(seed),
		CurrentVersion: CurrentGeneration,
		LegacyKeys:     LegacyKeys(),
		Seed:           seed,
		Logger:         logger,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}

	c := &Core{
		store:    store,
		Trades:   NewTradeRepository(store, ids, logger),
		Accounts: NewAccountRepository(store, ids, logger),
		Goals:    NewGoalRepository(store, ids, logger),
		migrator: migrator,
		coach:    NewCoach(opts.Generator, logger),
		logger:   logger,
		now:      now,
		dbPath:   store.Path(),
	}

	ctx := context.Background()
	if err := store.Open(ctx); err != nil {
		c.startupErr = classifyStoreError("open store", err)
		logger.Error("record store unavailable", "path", c.dbPath, "err", err)
		return c, nil
	}
	if !opts.SkipMigrations {
		if _, err := migrator.Run(ctx); err != nil {
			c.startupErr = err
			logger.Error("schema migration did not complete", "err", err)
		}
	}
	return c, nil
}

// Close releases database resources.
func (c *Core) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Close()
}

// DBPath returns the underlying database path.
func (c *Core) DBPath() string {
	return filepath.Clean(c.dbPath)
}

// Store returns the record store.
func (c *Core) Store() *recordstore.Store {
	return c.store
}

// Migrator returns the schema migrator.
func (c *Core) Migrator() *Migrator {
	return c.migrator
}

// Coach returns the AI coach.
func (c *Core) Coach() *Coach {
	return c.coach
}

// Logger returns the logger the Core was opened with.
func (c *Core) Logger() *slog.Logger {
	return c.logger
}

// StartupErr returns the store or migration failure recorded at open, or by
// the latest RunMigrations.
func (c *Core) StartupErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startupErr
}

func (c *Core) setStartupErr(err error) {
	c.mu.Lock()
	c.startupErr = err
	c.mu.Unlock()
}

// RunMigrations opens the store if needed and runs pending migrations.
func (c *Core) RunMigrations(ctx context.Context) (MigrationReport, error) {
	if err := c.store.Open(ctx); err != nil {
		err = classifyStoreError("open store", err)
		c.setStartupErr(err)
		return MigrationReport{}, err
	}
	report, err := c.migrator.Run(ctx)
	c.setStartupErr(err)
	return report, err
}

// StorageInfo describes the store for diagnostics.
type StorageInfo struct {
	DBPath      string                       `json:"db_path"`
	Generation  MigrationStatus              `json:"generation"`
	Collections []recordstore.CollectionInfo `json:"collections"`
	StartupErr  string                       `json:"startup_error,omitempty"`
}

// StorageInfo reports the db path, schema generation and collections.
func (c *Core) StorageInfo(ctx context.Context) (StorageInfo, error) {
	info := StorageInfo{DBPath: c.DBPath()}
	if err := c.StartupErr(); err != nil {
		info.StartupErr = err.Error()
	}
	status, err := c.migrator.Status(ctx)
	if err != nil {
		return info, err
	}
	info.Generation = status
	collections, err := c.store.Collections(ctx)
	if err != nil {
		return info, classifyStoreError("list collections", err)
	}
	info.Collections = collections
	return info, nil
}

// Stats aggregates every trade over the sum of all account balances.
func (c *Core) Stats(ctx context.Context, period Period, start, end time.Time) (Stats, error) {
	trades, err := c.Trades.ListTrades(ctx)
	if err != nil {
		return Stats{}, err
	}
	accounts, err := c.Accounts.ListAccounts(ctx)
	if err != nil {
		return Stats{}, err
	}
	var balance Amount
	for _, a := range accounts {
		balance = Amount{balance.Decimal.Add(a.StartingBalance().Decimal)}
	}
	filtered, err := FilterTrades(trades, period, c.now(), start, end)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(filtered, balance), nil
}

// AccountStats aggregates the trades of one account over its balance.
func (c *Core) AccountStats(ctx context.Context, accountID string, period Period, start, end time.Time) (Stats, error) {
	account, found, err := c.Accounts.GetAccount(ctx, accountID)
	if err != nil {
		return Stats{}, err
	}
	if !found {
		return Stats{}, NewError(ErrCodeNotFound, "account not found")
	}
	trades, err := c.Trades.ListTradesByAccount(ctx, accountID)
	if err != nil {
		return Stats{}, err
	}
	filtered, err := FilterTrades(trades, period, c.now(), start, end)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(filtered, account.StartingBalance()), nil
}

// AnalyzeTrade loads a trade and asks the coach about it.
func (c *Core) AnalyzeTrade(ctx context.Context, tradeID string) (Advice, error) {
	trade, found, err := c.Trades.GetTrade(ctx, tradeID)
	if err != nil {
		return Advice{}, err
	}
	if !found {
		return Advice{}, NewError(ErrCodeNotFound, "trade not found")
	}
	return c.coach.AnalyzeTrade(ctx, trade), nil
}
