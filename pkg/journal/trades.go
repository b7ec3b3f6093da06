package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"tradejournal/pkg/recordstore"
)

// TradeRepository is the typed entry point for trade records.
type TradeRepository struct {
	store    *recordstore.Store
	trades   *recordstore.Collection[Trade]
	accounts *recordstore.Collection[Account]
	ids      IDGenerator
	logger   *slog.Logger
}

// NewTradeRepository binds a trade repository to store.
func NewTradeRepository(store *recordstore.Store, ids IDGenerator, logger *slog.Logger) *TradeRepository {
	if ids == nil {
		ids = NewULIDGenerator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TradeRepository{
		store:    store,
		trades:   tradeCollection(store),
		accounts: accountCollection(store),
		ids:      ids,
		logger:   logger,
	}
}

// CreateTrade assigns a fresh id and inserts the trade. The referenced
// account must exist.
func (r *TradeRepository) CreateTrade(ctx context.Context, in TradeInput) (Trade, error) {
	in, err := normalizeTradeInput(in)
	if err != nil {
		return Trade{}, err
	}
	id, err := r.ids.NewID()
	if err != nil {
		return Trade{}, err
	}
	trade := in.Trade(id)
	err = r.store.Update(ctx, func(tx *recordstore.Tx) error {
		if err := r.requireAccount(ctx, tx, trade.AccountID); err != nil {
			return err
		}
		_, err := r.trades.WithTx(tx).Add(ctx, trade)
		return err
	})
	if err != nil {
		return Trade{}, classifyStoreError("create trade", err)
	}
	return trade, nil
}

// GetTrade returns the trade with id. A missing id yields found == false.
func (r *TradeRepository) GetTrade(ctx context.Context, id string) (Trade, bool, error) {
	trade, found, err := r.trades.Get(ctx, id)
	if err != nil {
		return Trade{}, false, classifyStoreError("get trade", err)
	}
	return trade, found, nil
}

// ListTrades returns every trade in store order.
func (r *TradeRepository) ListTrades(ctx context.Context) ([]Trade, error) {
	trades, err := r.trades.All(ctx)
	if err != nil {
		return nil, classifyStoreError("list trades", err)
	}
	return trades, nil
}

// ListTradesByAccount returns the trades of one account via the accountId index.
func (r *TradeRepository) ListTradesByAccount(ctx context.Context, accountID string) ([]Trade, error) {
	trades, err := r.trades.FindByIndex(ctx, AccountIDIndex, accountID)
	if err != nil {
		return nil, classifyStoreError("list account trades", err)
	}
	return trades, nil
}

// UpdateTrade replaces an existing trade. It fails with ErrCodeNotFound when
// the id is unknown.
func (r *TradeRepository) UpdateTrade(ctx context.Context, trade Trade) (Trade, error) {
	return r.write(ctx, trade, "update trade", func(c *recordstore.Collection[Trade], t Trade) error {
		_, err := c.Replace(ctx, t)
		return err
	})
}

// SaveTrade stores the trade at its id, inserting it when absent.
func (r *TradeRepository) SaveTrade(ctx context.Context, trade Trade) (Trade, error) {
	return r.write(ctx, trade, "save trade", func(c *recordstore.Collection[Trade], t Trade) error {
		_, err := c.Put(ctx, t)
		return err
	})
}

func (r *TradeRepository) write(ctx context.Context, trade Trade, op string, fn func(*recordstore.Collection[Trade], Trade) error) (Trade, error) {
	id := strings.TrimSpace(trade.ID)
	if id == "" {
		return Trade{}, NewError(ErrCodeInvalidInput, "trade id is required")
	}
	in, err := normalizeTradeInput(trade.Input())
	if err != nil {
		return Trade{}, err
	}
	trade = in.Trade(id)
	err = r.store.Update(ctx, func(tx *recordstore.Tx) error {
		if err := r.requireAccount(ctx, tx, trade.AccountID); err != nil {
			return err
		}
		return fn(r.trades.WithTx(tx), trade)
	})
	if err != nil {
		return Trade{}, classifyStoreError(op, err)
	}
	return trade, nil
}

// DeleteTrade removes one trade. Deleting an unknown id is a no-op.
func (r *TradeRepository) DeleteTrade(ctx context.Context, id string) error {
	if err := r.trades.Delete(ctx, id); err != nil {
		return classifyStoreError("delete trade", err)
	}
	return nil
}

// DeleteTradesByAccount removes every trade of one account and returns how
// many were removed.
func (r *TradeRepository) DeleteTradesByAccount(ctx context.Context, accountID string) (int64, error) {
	n, err := r.trades.DeleteByIndex(ctx, AccountIDIndex, accountID)
	if err != nil {
		return 0, classifyStoreError("delete account trades", err)
	}
	return n, nil
}

func (r *TradeRepository) requireAccount(ctx context.Context, tx *recordstore.Tx, accountID string) error {
	_, found, err := r.accounts.WithTx(tx).Get(ctx, accountID)
	if err != nil {
		return err
	}
	if !found {
		return NewError(ErrCodeValidation, fmt.Sprintf("account %q does not exist", accountID))
	}
	return nil
}

// SortTradesByDateDesc orders trades newest first, breaking ties by id.
func SortTradesByDateDesc(trades []Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].Date.Equal(trades[j].Date) {
			return trades[i].ID > trades[j].ID
		}
		return trades[i].Date.After(trades[j].Date)
	})
}
