package journal

import (
	"time"
)

// DefaultAccountID is the sentinel account seeded on first run.
const DefaultAccountID = "default"

// TradeType is the direction of a trade.
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

// Valid reports whether t is buy or sell.
func (t TradeType) Valid() bool {
	return t == TradeBuy || t == TradeSell
}

// Account groups trades under a starting balance.
type Account struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Balance *Amount `json:"balance,omitempty"`
}

// RecordID implements recordstore.Record.
func (a Account) RecordID() string { return a.ID }

// StartingBalance returns the balance, treating an absent one as zero.
func (a Account) StartingBalance() Amount {
	if a.Balance == nil {
		return Amount{}
	}
	return *a.Balance
}

// Trade is a single journal entry.
type Trade struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"accountId"`
	Pair           string    `json:"pair"`
	Type           TradeType `json:"type"`
	Session        string    `json:"session"`
	PnL            Amount    `json:"pnl"`
	RR             Amount    `json:"rr"`
	Date           time.Time `json:"date"`
	Notes          string    `json:"notes"`
	Rating         int       `json:"rating"`
	EntryPrice     *Amount   `json:"entryPrice,omitempty"`
	ExitPrice      *Amount   `json:"exitPrice,omitempty"`
	BeforeImageURL string    `json:"beforeImageUrl,omitempty"`
	AfterImageURL  string    `json:"afterImageUrl,omitempty"`
}

// RecordID implements recordstore.Record.
func (t Trade) RecordID() string { return t.ID }

// AccountInput is the payload for creating an account.
type AccountInput struct {
	Name    string  `json:"name" validate:"required"`
	Balance *Amount `json:"balance,omitempty"`
}

// TradeInput is the payload for creating a trade; the id is assigned on create.
type TradeInput struct {
	AccountID      string    `json:"accountId" validate:"required"`
	Pair           string    `json:"pair" validate:"required"`
	Type           TradeType `json:"type" validate:"required,oneof=buy sell"`
	Session        string    `json:"session"`
	PnL            Amount    `json:"pnl"`
	RR             Amount    `json:"rr" validate:"gt=0"`
	Date           time.Time `json:"date"`
	Notes          string    `json:"notes"`
	Rating         int       `json:"rating" validate:"min=1,max=5"`
	EntryPrice     *Amount   `json:"entryPrice,omitempty" validate:"omitempty,gt=0"`
	ExitPrice      *Amount   `json:"exitPrice,omitempty" validate:"omitempty,gt=0"`
	BeforeImageURL string    `json:"beforeImageUrl,omitempty"`
	AfterImageURL  string    `json:"afterImageUrl,omitempty"`
}

// Trade builds the record for id from the input.
func (in TradeInput) Trade(id string) Trade {
	return Trade{
		ID:             id,
		AccountID:      in.AccountID,
		Pair:           in.Pair,
		Type:           in.Type,
		Session:        in.Session,
		PnL:            in.PnL,
		RR:             in.RR,
		Date:           in.Date,
		Notes:          in.Notes,
		Rating:         in.Rating,
		EntryPrice:     in.EntryPrice,
		ExitPrice:      in.ExitPrice,
		BeforeImageURL: in.BeforeImageURL,
		AfterImageURL:  in.AfterImageURL,
	}
}

// Input returns t without its id, for validation.
func (t Trade) Input() TradeInput {
	return TradeInput{
		AccountID:      t.AccountID,
		Pair:           t.Pair,
		Type:           t.Type,
		Session:        t.Session,
		PnL:            t.PnL,
		RR:             t.RR,
		Date:           t.Date,
		Notes:          t.Notes,
		Rating:         t.Rating,
		EntryPrice:     t.EntryPrice,
		ExitPrice:      t.ExitPrice,
		BeforeImageURL: t.BeforeImageURL,
		AfterImageURL:  t.AfterImageURL,
	}
}
