package journal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tradejournal/pkg/recordstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sequentialIDs issues prefix-001, prefix-002, ...
func sequentialIDs(prefix string) IDGenerator {
	var mu sync.Mutex
	n := 0
	return IDFunc(func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%03d", prefix, n), nil
	})
}

// setupTestStore opens an empty journal store without running migrations.
func setupTestStore(t *testing.T) *recordstore.Store {
	t.Helper()
	store, err := recordstore.Open(context.Background(), recordstore.Options{
		Path:   filepath.Join(t.TempDir(), "journal.db"),
		Schema: Schema(),
		Logger: discardLogger(),
	})
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// setupRepos returns repositories over an empty store.
func setupRepos(t *testing.T) (*TradeRepository, *AccountRepository, *recordstore.Store) {
	t.Helper()
	store := setupTestStore(t)
	return NewTradeRepository(store, sequentialIDs("T"), discardLogger()),
		NewAccountRepository(store, sequentialIDs("A"), discardLogger()),
		store
}

// setupTestCore opens a Core on a fresh database; migrations seed defaults.
func setupTestCore(t *testing.T) *Core {
	t.Helper()
	core, err := OpenWithOptions(Options{
		DBPath: filepath.Join(t.TempDir(), "journal.db"),
		Logger: discardLogger(),
		IDs:    sequentialIDs("ID"),
	})
	if err != nil {
		t.Fatalf("failed to open test core: %v", err)
	}
	if err := core.StartupErr(); err != nil {
		t.Fatalf("startup: %v", err)
	}
	t.Cleanup(func() { _ = core.Close() })
	return core
}

func sampleTrade(accountID string, pnl float64) TradeInput {
	return TradeInput{
		AccountID: accountID,
		Pair:      "EURUSD",
		Type:      TradeBuy,
		Session:   "London",
		PnL:       NewAmount(pnl),
		RR:        NewAmount(2),
		Date:      time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC),
		Notes:     "test",
		Rating:    3,
	}
}

func mustCreateAccount(t *testing.T, repo *AccountRepository, name string, balance float64) Account {
	t.Helper()
	account, err := repo.CreateAccount(context.Background(), AccountInput{Name: name, Balance: AmountPtr(NewAmount(balance))})
	assertNoError(t, err, "create account "+name)
	return account
}

// assertNoError fails the test if err is not nil.
func assertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

// assertErrorCode fails the test unless err carries code.
func assertErrorCode(t *testing.T, err error, code ErrorCode, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected %s error but got nil", msg, code)
	}
	if !IsErrorCode(err, code) {
		t.Fatalf("%s: expected %s error, got %v", msg, code, err)
	}
}
