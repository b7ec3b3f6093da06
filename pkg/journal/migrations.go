package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tradejournal/pkg/recordstore"
)

// legacyAccount is an element of the kdm_journal_accounts flat list.
type legacyAccount struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Balance *Amount `json:"balance,omitempty"`
}

func (a legacyAccount) account() Account {
	return Account{ID: a.ID, Name: a.Name, Balance: a.Balance}
}

// legacyTrade is an element of the kdm_journal_trades flat list.
type legacyTrade struct {
	ID             string     `json:"id"`
	AccountID      string     `json:"accountId"`
	Pair           string     `json:"pair"`
	Type           TradeType  `json:"type"`
	Session        string     `json:"session"`
	PnL            Amount     `json:"pnl"`
	RR             Amount     `json:"rr"`
	Date           legacyDate `json:"date"`
	Notes          string     `json:"notes"`
	Rating         int        `json:"rating"`
	EntryPrice     *Amount    `json:"entryPrice,omitempty"`
	ExitPrice      *Amount    `json:"exitPrice,omitempty"`
	BeforeImageURL string     `json:"beforeImageUrl,omitempty"`
	AfterImageURL  string     `json:"afterImageUrl,omitempty"`
}

func (t legacyTrade) trade() Trade {
	return Trade{
		ID:             t.ID,
		AccountID:      t.AccountID,
		Pair:           t.Pair,
		Type:           t.Type,
		Session:        t.Session,
		PnL:            t.PnL,
		RR:             t.RR,
		Date:           time.Time(t.Date),
		Notes:          t.Notes,
		Rating:         t.Rating,
		EntryPrice:     t.EntryPrice,
		ExitPrice:      t.ExitPrice,
		BeforeImageURL: t.BeforeImageURL,
		AfterImageURL:  t.AfterImageURL,
	}
}

// legacyDate decodes a JSON string with ParseTradeDate.
type legacyDate time.Time

var tradeDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTradeDate accepts RFC 3339 as well as the date-only and
// minute-precision layouts of datetime-local inputs, read as UTC. Empty input
// yields the zero time.
func ParseTradeDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range tradeDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func (d *legacyDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("legacy date: %w", err)
	}
	t, err := ParseTradeDate(raw)
	if err != nil {
		return fmt.Errorf("legacy date: %w", err)
	}
	*d = legacyDate(t)
	return nil
}

// DefaultMigrationSteps is the registry for the journal's schema generations.
// Generation 1 is the legacy flat-list layout and needs no step.
func DefaultMigrationSteps(seed SeedFunc) []MigrationStep {
	return []MigrationStep{
		{Version: GenerationCollections, Name: "relocate legacy lists", Apply: relocateLegacyLists(seed)},
		{Version: GenerationGoals, Name: "relocate legacy goals", Apply: relocateLegacyGoals},
	}
}

// LegacyKeys are the scalar keys of the flat-list layout.
func LegacyKeys() []string {
	keys := []string{LegacyTradesKey, LegacyAccountsKey}
	for _, p := range GoalPeriods {
		keys = append(keys, legacyGoalsKey(p))
	}
	return keys
}

func legacyGoalsKey(p GoalPeriod) string {
	switch p {
	case GoalDaily:
		return LegacyDailyGoalsKey
	case GoalWeekly:
		return LegacyWeeklyGoalsKey
	default:
		return LegacyMonthlyGoalsKey
	}
}

// legacyGoal is an element of one of the per-period goal lists.
type legacyGoal struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Progress float64 `json:"progress"`
}

// relocateLegacyGoals moves the three per-period goal lists into the goals
// collection and deletes them. Progress is clamped to 0..100. An id already
// taken by another period gets the period appended.
func relocateLegacyGoals(ctx context.Context, tx *recordstore.Tx) error {
	goalsTx := goalCollection(tx.Store()).WithTx(tx)
	for _, period := range GoalPeriods {
		key := legacyGoalsKey(period)
		var goals []legacyGoal
		present, err := readLegacyList(ctx, tx, key, &goals)
		if err != nil {
			return err
		}
		if !present {
			continue
		}
		for _, g := range goals {
			goal := Goal{
				ID:       strings.TrimSpace(g.ID),
				Period:   period,
				Text:     g.Text,
				Progress: int(min(max(g.Progress, 0), 100)),
			}
			if goal.ID == "" {
				return fmt.Errorf("import %s goal %q: missing id", period, g.Text)
			}
			_, taken, err := goalsTx.Get(ctx, goal.ID)
			if err != nil {
				return err
			}
			if taken {
				goal.ID += "-" + string(period)
			}
			if _, err := goalsTx.Add(ctx, goal); err != nil {
				return fmt.Errorf("import %s goal %q: %w", period, g.ID, err)
			}
		}
		if err := tx.DeleteValue(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// relocateLegacyLists adds every element of the legacy blobs to the
// collections and deletes the blobs. Without legacy data it seeds an empty store.
func relocateLegacyLists(seed SeedFunc) func(context.Context, *recordstore.Tx) error {
	return func(ctx context.Context, tx *recordstore.Tx) error {
		var accounts []legacyAccount
		hasAccounts, err := readLegacyList(ctx, tx, LegacyAccountsKey, &accounts)
		if err != nil {
			return err
		}
		var trades []legacyTrade
		hasTrades, err := readLegacyList(ctx, tx, LegacyTradesKey, &trades)
		if err != nil {
			return err
		}

		if !hasAccounts && !hasTrades {
			if seed == nil {
				return nil
			}
			_, err := seed(ctx, tx)
			return err
		}

		store := tx.Store()
		accountsTx := accountCollection(store).WithTx(tx)
		for _, a := range accounts {
			if _, err := accountsTx.Add(ctx, a.account()); err != nil {
				return fmt.Errorf("import account %q: %w", a.ID, err)
			}
		}
		tradesTx := tradeCollection(store).WithTx(tx)
		for _, t := range trades {
			if _, err := tradesTx.Add(ctx, t.trade()); err != nil {
				return fmt.Errorf("import trade %q: %w", t.ID, err)
			}
		}

		if err := tx.DeleteValue(ctx, LegacyAccountsKey); err != nil {
			return err
		}
		return tx.DeleteValue(ctx, LegacyTradesKey)
	}
}

func readLegacyList(ctx context.Context, tx *recordstore.Tx, key string, dst any) (bool, error) {
	raw, ok, err := tx.GetValue(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if strings.TrimSpace(raw) == "" {
		return true, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return true, fmt.Errorf("decode legacy %s: %w", key, err)
	}
	return true, nil
}
