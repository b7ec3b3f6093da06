package journal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Period selects the trades a statistics view covers.
type Period string

const (
	PeriodAll    Period = "all"
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodYear   Period = "year"
	PeriodCustom Period = "custom"
)

// ParsePeriod normalizes a period name; empty means all.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case "":
		return PeriodAll, nil
	case PeriodAll, PeriodToday, PeriodWeek, PeriodMonth, PeriodYear, PeriodCustom:
		return p, nil
	}
	return "", NewError(ErrCodeInvalidInput, fmt.Sprintf("unknown period %q", raw))
}

// DateRange is an inclusive time window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// PeriodWindow returns the window for p relative to now. Weeks start on
// Monday. Custom windows span from the start of the start day to the last
// millisecond of the end day, both in now's location. PeriodAll has no
// window and reports ok == false.
func PeriodWindow(p Period, now time.Time, start, end time.Time) (DateRange, bool, error) {
	loc := now.Location()
	startOfDay := func(t time.Time) time.Time {
		t = t.In(loc)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	}
	switch p {
	case PeriodAll, "":
		return DateRange{}, false, nil
	case PeriodToday:
		return DateRange{Start: startOfDay(now), End: now}, true, nil
	case PeriodWeek:
		day := startOfDay(now)
		offset := (int(day.Weekday()) + 6) % 7
		return DateRange{Start: day.AddDate(0, 0, -offset), End: now}, true, nil
	case PeriodMonth:
		return DateRange{Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc), End: now}, true, nil
	case PeriodYear:
		return DateRange{Start: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc), End: now}, true, nil
	case PeriodCustom:
		if start.IsZero() || end.IsZero() {
			return DateRange{}, true, NewError(ErrCodeInvalidInput, "custom period requires start and end")
		}
		from := startOfDay(start)
		to := startOfDay(end).Add(24*time.Hour - time.Millisecond)
		return DateRange{Start: from, End: to}, true, nil
	}
	return DateRange{}, false, NewError(ErrCodeInvalidInput, fmt.Sprintf("unknown period %q", p))
}

// FilterTrades keeps the trades inside the period window.
func FilterTrades(trades []Trade, p Period, now time.Time, start, end time.Time) ([]Trade, error) {
	window, bounded, err := PeriodWindow(p, now, start, end)
	if err != nil {
		return nil, err
	}
	if !bounded {
		return trades, nil
	}
	out := make([]Trade, 0, len(trades))
	for _, t := range trades {
		if window.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out, nil
}

// PairPnL is the total P/L of one instrument.
type PairPnL struct {
	Pair string `json:"pair"`
	PnL  Amount `json:"pnl"`
}

// EquityPoint is the running P/L after one trade, in date order.
type EquityPoint struct {
	TradeID       string    `json:"tradeId"`
	Date          time.Time `json:"date"`
	PnL           Amount    `json:"pnl"`
	CumulativePnL Amount    `json:"cumulativePnl"`
	Equity        Amount    `json:"equity"`
}

// Stats aggregates a set of trades.
type Stats struct {
	TotalTrades     int           `json:"totalTrades"`
	Wins            int           `json:"wins"`
	Losses          int           `json:"losses"`
	WinRate         Amount        `json:"winRate"`
	TotalPnL        Amount        `json:"totalPnl"`
	StartingBalance Amount        `json:"startingBalance"`
	CurrentBalance  Amount        `json:"currentBalance"`
	PnLByPair       []PairPnL     `json:"pnlByPair"`
	EquityCurve     []EquityPoint `json:"equityCurve"`
}

// ComputeStats aggregates trades on top of a starting balance. A win is a
// trade with positive P/L; every other trade counts as a loss.
func ComputeStats(trades []Trade, startingBalance Amount) Stats {
	stats := Stats{
		TotalTrades:     len(trades),
		StartingBalance: startingBalance,
		PnLByPair:       []PairPnL{},
		EquityCurve:     []EquityPoint{},
	}

	ordered := append([]Trade(nil), trades...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	total := decimal.Zero
	byPair := map[string]decimal.Decimal{}
	var pairs []string
	for _, t := range ordered {
		if t.PnL.IsPositive() {
			stats.Wins++
		}
		total = total.Add(t.PnL.Decimal)
		if _, ok := byPair[t.Pair]; !ok {
			pairs = append(pairs, t.Pair)
		}
		byPair[t.Pair] = byPair[t.Pair].Add(t.PnL.Decimal)
		stats.EquityCurve = append(stats.EquityCurve, EquityPoint{
			TradeID:       t.ID,
			Date:          t.Date,
			PnL:           t.PnL,
			CumulativePnL: Amount{total},
			Equity:        Amount{startingBalance.Decimal.Add(total)},
		})
	}
	stats.Losses = stats.TotalTrades - stats.Wins
	if stats.TotalTrades > 0 {
		rate := decimal.NewFromInt(int64(stats.Wins)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(stats.TotalTrades)))
		stats.WinRate = Amount{rate.Round(2)}
	}
	stats.TotalPnL = Amount{total}
	stats.CurrentBalance = Amount{startingBalance.Decimal.Add(total)}

	sort.Strings(pairs)
	for _, pair := range pairs {
		stats.PnLByPair = append(stats.PnLByPair, PairPnL{Pair: pair, PnL: Amount{byPair[pair]}})
	}
	return stats
}
