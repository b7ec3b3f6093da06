package journal

import (
	"context"
	"time"

	"tradejournal/pkg/recordstore"
)

// SeedFunc populates an empty store inside tx and reports whether it wrote.
type SeedFunc func(ctx context.Context, tx *recordstore.Tx) (bool, error)

// DefaultAccount is the sentinel account created on first run.
func DefaultAccount() Account {
	return Account{ID: DefaultAccountID, Name: "Default Account", Balance: AmountPtr(NewAmountFromInt(10000))}
}

// ExampleTrades are the sample entries seeded alongside the default account.
// Their ids are left empty.
func ExampleTrades() []Trade {
	return []Trade{
		{
			AccountID:  DefaultAccountID,
			Pair:       "BTCUSD",
			Type:       TradeBuy,
			Session:    "New York",
			PnL:        NewAmountFromInt(1500),
			RR:         NewAmount(2.5),
			Date:       time.Date(2024, time.July, 15, 10, 0, 0, 0, time.UTC),
			Notes:      "Good entry based on RSI divergence.",
			Rating:     4,
			EntryPrice: AmountPtr(NewAmountFromInt(65000)),
			ExitPrice:  AmountPtr(NewAmountFromInt(66500)),
		},
		{
			AccountID:  DefaultAccountID,
			Pair:       "EURUSD",
			Type:       TradeSell,
			Session:    "London",
			PnL:        NewAmountFromInt(-50),
			RR:         NewAmount(1.5),
			Date:       time.Date(2024, time.July, 14, 14, 30, 0, 0, time.UTC),
			Notes:      "Stopped out, misread the trend.",
			Rating:     2,
			EntryPrice: AmountPtr(NewAmount(1.0750)),
			ExitPrice:  AmountPtr(NewAmount(1.0755)),
		},
		{
			AccountID:  DefaultAccountID,
			Pair:       "XAUUSD",
			Type:       TradeBuy,
			Session:    "Asia",
			PnL:        NewAmountFromInt(2500),
			RR:         NewAmountFromInt(3),
			Date:       time.Date(2024, time.July, 13, 9, 0, 0, 0, time.UTC),
			Notes:      "Caught the breakout perfectly.",
			Rating:     5,
			EntryPrice: AmountPtr(NewAmountFromInt(2300)),
			ExitPrice:  AmountPtr(NewAmountFromInt(2325)),
		},
	}
}

// DefaultSeed seeds the default account and example trades when both
// collections are empty.
func DefaultSeed(ids IDGenerator) SeedFunc {
	if ids == nil {
		ids = NewULIDGenerator()
	}
	return func(ctx context.Context, tx *recordstore.Tx) (bool, error) {
		store := tx.Store()
		accounts := accountCollection(store).WithTx(tx)
		trades := tradeCollection(store).WithTx(tx)

		nAccounts, err := accounts.Count(ctx)
		if err != nil {
			return false, err
		}
		nTrades, err := trades.Count(ctx)
		if err != nil {
			return false, err
		}
		if nAccounts > 0 || nTrades > 0 {
			return false, nil
		}

		if _, err := accounts.Add(ctx, DefaultAccount()); err != nil {
			return false, err
		}
		for _, trade := range ExampleTrades() {
			id, err := ids.NewID()
			if err != nil {
				return false, err
			}
			trade.ID = id
			if _, err := trades.Add(ctx, trade); err != nil {
				return false, err
			}
		}
		return true, nil
	}
}
