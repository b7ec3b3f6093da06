// Package mobile exposes the journal through string and scalar signatures
// that gomobile can bind.
package mobile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tradejournal/pkg/journal"
)

// Core wraps the journal core for gomobile bindings.
type Core struct {
	core *journal.Core
}

// Open initializes the core with a database path. A store that cannot be
// opened or migrated is reported as an error.
func Open(dbPath string) (*Core, error) {
	core, err := journal.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := core.StartupErr(); err != nil {
		_ = core.Close()
		return nil, err
	}
	return &Core{core: core}, nil
}

// Close releases resources.
func (c *Core) Close() error {
	if c == nil || c.core == nil {
		return nil
	}
	return c.core.Close()
}

// ListAccountsJSON returns every account as JSON.
func (c *Core) ListAccountsJSON() (string, error) {
	data, err := c.core.Accounts.ListAccounts(context.Background())
	if err != nil {
		return "", err
	}
	return marshalJSON(data)
}

// CreateAccountJSON creates an account from {"name","balance"} and returns it.
func (c *Core) CreateAccountJSON(payloadJSON string) (string, error) {
	var in journal.AccountInput
	if err := json.Unmarshal([]byte(payloadJSON), &in); err != nil {
		return "", err
	}
	account, err := c.core.Accounts.CreateAccount(context.Background(), in)
	if err != nil {
		return "", err
	}
	return marshalJSON(account)
}

// DeleteAccount removes an account with its trades and returns how many
// trades went with it.
func (c *Core) DeleteAccount(id string) (int64, error) {
	return c.core.Accounts.DeleteAccountCascade(context.Background(), id)
}

// ListTradesJSON returns trades newest first, optionally for one account.
func (c *Core) ListTradesJSON(accountID string) (string, error) {
	ctx := context.Background()
	var (
		trades []journal.Trade
		err    error
	)
	if accountID != "" {
		trades, err = c.core.Trades.ListTradesByAccount(ctx, accountID)
	} else {
		trades, err = c.core.Trades.ListTrades(ctx)
	}
	if err != nil {
		return "", err
	}
	journal.SortTradesByDateDesc(trades)
	return marshalJSON(trades)
}

// CreateTradeJSON creates a trade from JSON and returns it.
func (c *Core) CreateTradeJSON(payloadJSON string) (string, error) {
	in, err := decodeTrade(payloadJSON)
	if err != nil {
		return "", err
	}
	trade, err := c.core.Trades.CreateTrade(context.Background(), in)
	if err != nil {
		return "", err
	}
	return marshalJSON(trade)
}

// UpdateTradeJSON replaces trade id with the JSON payload.
func (c *Core) UpdateTradeJSON(id, payloadJSON string) (string, error) {
	in, err := decodeTrade(payloadJSON)
	if err != nil {
		return "", err
	}
	trade, err := c.core.Trades.UpdateTrade(context.Background(), in.Trade(id))
	if err != nil {
		return "", err
	}
	return marshalJSON(trade)
}

// DeleteTrade deletes a trade by id.
func (c *Core) DeleteTrade(id string) error {
	return c.core.Trades.DeleteTrade(context.Background(), id)
}

// ListGoalsJSON returns the goals of period ("" for every goal) as JSON.
func (c *Core) ListGoalsJSON(period string) (string, error) {
	goals, err := c.core.Goals.ListGoals(context.Background(), journal.GoalPeriod(period))
	if err != nil {
		return "", err
	}
	return marshalJSON(goals)
}

func (c *Core) CreateGoalJSON(payloadJSON string) (string, error) {
	var in journal.GoalInput
	if err := json.Unmarshal([]byte(payloadJSON), &in); err != nil {
		return "", err
	}
	goal, err := c.core.Goals.CreateGoal(context.Background(), in)
	if err != nil {
		return "", err
	}
	return marshalJSON(goal)
}

// SetGoalProgressJSON sets the progress of a goal and returns it as JSON.
func (c *Core) SetGoalProgressJSON(id string, progress int) (string, error) {
	goal, err := c.core.Goals.UpdateGoalProgress(context.Background(), id, progress)
	if err != nil {
		return "", err
	}
	return marshalJSON(goal)
}

func (c *Core) DeleteGoal(id string) error {
	return c.core.Goals.DeleteGoal(context.Background(), id)
}

// StatsJSON aggregates trades for a period; accountID may be empty for all
// accounts. start and end are YYYY-MM-DD and only used by the custom period.
func (c *Core) StatsJSON(accountID, period, start, end string) (string, error) {
	p, err := journal.ParsePeriod(period)
	if err != nil {
		return "", err
	}
	startDay, err := parseDay(start)
	if err != nil {
		return "", err
	}
	endDay, err := parseDay(end)
	if err != nil {
		return "", err
	}
	var stats journal.Stats
	if accountID != "" {
		stats, err = c.core.AccountStats(context.Background(), accountID, p, startDay, endDay)
	} else {
		stats, err = c.core.Stats(context.Background(), p, startDay, endDay)
	}
	if err != nil {
		return "", err
	}
	return marshalJSON(stats)
}

// StorageInfoJSON describes the database and its schema generation.
func (c *Core) StorageInfoJSON() (string, error) {
	info, err := c.core.StorageInfo(context.Background())
	if err != nil {
		return "", err
	}
	return marshalJSON(info)
}

func parseDay(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return t, nil
}

func decodeTrade(payloadJSON string) (journal.TradeInput, error) {
	var payload tradePayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return journal.TradeInput{}, err
	}
	date, err := journal.ParseTradeDate(payload.Date)
	if err != nil {
		return journal.TradeInput{}, err
	}
	return journal.TradeInput{
		AccountID:      payload.AccountID,
		Pair:           payload.Pair,
		Type:           payload.Type,
		Session:        payload.Session,
		PnL:            payload.PnL,
		RR:             payload.RR,
		Date:           date,
		Notes:          payload.Notes,
		Rating:         payload.Rating,
		EntryPrice:     payload.EntryPrice,
		ExitPrice:      payload.ExitPrice,
		BeforeImageURL: payload.BeforeImageURL,
		AfterImageURL:  payload.AfterImageURL,
	}, nil
}

func marshalJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type tradePayload struct {
	AccountID      string            `json:"accountId"`
	Pair           string            `json:"pair"`
	Type           journal.TradeType `json:"type"`
	Session        string            `json:"session"`
	PnL            journal.Amount    `json:"pnl"`
	RR             journal.Amount    `json:"rr"`
	Date           string            `json:"date"`
	Notes          string            `json:"notes"`
	Rating         int               `json:"rating"`
	EntryPrice     *journal.Amount   `json:"entryPrice"`
	ExitPrice      *journal.Amount   `json:"exitPrice"`
	BeforeImageURL string            `json:"beforeImageUrl"`
	AfterImageURL  string            `json:"afterImageUrl"`
}
