package api

import (
	"tradejournal/pkg/journal"
)

type accountPayload struct {
	Name    string          `json:"name"`
	Balance *journal.Amount `json:"balance"`
}

// tradePayload accepts the trade date as RFC 3339 or a datetime-local value.
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

func (p tradePayload) input() (journal.TradeInput, error) {
	date, err := journal.ParseTradeDate(p.Date)
	if err != nil {
		return journal.TradeInput{}, journal.WrapError(journal.ErrCodeInvalidInput, "invalid trade date", err)
	}
	return journal.TradeInput{
		AccountID:      p.AccountID,
		Pair:           p.Pair,
		Type:           p.Type,
		Session:        p.Session,
		PnL:            p.PnL,
		RR:             p.RR,
		Date:           date,
		Notes:          p.Notes,
		Rating:         p.Rating,
		EntryPrice:     p.EntryPrice,
		ExitPrice:      p.ExitPrice,
		BeforeImageURL: p.BeforeImageURL,
		AfterImageURL:  p.AfterImageURL,
	}, nil
}

type goalPayload struct {
	Period   journal.GoalPeriod `json:"period"`
	Text     string             `json:"text"`
	Progress int                `json:"progress"`
}

type goalProgressPayload struct {
	Progress *int `json:"progress"`
}

type marketAnalysisPayload struct {
	Pair string `json:"pair"`
}

type storageSwitchPayload struct {
	DBName string `json:"db_name"`
	Create bool   `json:"create"`
}

type storageInfoResponse struct {
	journal.StorageInfo
	DBName       string   `json:"db_name"`
	DataDir      string   `json:"data_dir"`
	Available    []string `json:"available"`
	CanSwitch    bool     `json:"can_switch"`
	SwitchReason string   `json:"switch_reason,omitempty"`
}

type tradesResponse struct {
	Items  []journal.Trade `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type deleteAccountResponse struct {
	Status        string `json:"status"`
	DeletedTrades int64  `json:"deleted_trades"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}
