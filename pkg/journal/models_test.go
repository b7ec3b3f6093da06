package journal

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(NewAmount(1.0750))
	assertNoError(t, err, "marshal")
	if string(data) != "1.075" {
		t.Fatalf("expected JSON number, got %s", data)
	}
	small, err := ParseAmount("0.0000004")
	assertNoError(t, err, "parse small")
	data, err = json.Marshal(small)
	assertNoError(t, err, "marshal small")
	if string(data) != "0.0000004" {
		t.Fatalf("expected exact small number, got %s", data)
	}

	var a Amount
	assertNoError(t, json.Unmarshal([]byte(`"5000.50"`), &a), "unmarshal string")
	if !a.Equal(NewAmount(5000.5)) {
		t.Fatalf("unexpected value %s", a.String())
	}
	assertNoError(t, json.Unmarshal([]byte(`-40`), &a), "unmarshal number")
	if !a.Equal(NewAmountFromInt(-40)) {
		t.Fatalf("unexpected value %s", a.String())
	}
}

func TestTradeJSONShape(t *testing.T) {
	trade := Trade{
		ID:        "t1",
		AccountID: DefaultAccountID,
		Pair:      "BTCUSD",
		Type:      TradeBuy,
		PnL:       NewAmount(1500),
		RR:        NewAmount(2.5),
		Date:      time.Date(2024, time.July, 15, 10, 0, 0, 0, time.UTC),
		Rating:    4,
	}
	data, err := json.Marshal(trade)
	assertNoError(t, err, "marshal trade")
	s := string(data)
	for _, want := range []string{`"accountId":"default"`, `"pnl":1500`, `"rr":2.5`, `"date":"2024-07-15T10:00:00Z"`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
	for _, absent := range []string{"entryPrice", "exitPrice", "beforeImageUrl", "afterImageUrl"} {
		if strings.Contains(s, absent) {
			t.Errorf("expected %s omitted from %s", absent, s)
		}
	}

	data, err = json.Marshal(Account{ID: "a", Name: "No Balance"})
	assertNoError(t, err, "marshal account")
	if strings.Contains(string(data), "balance") {
		t.Errorf("expected absent balance omitted, got %s", data)
	}
}

func TestTradeInputRoundTrip(t *testing.T) {
	in := sampleTrade("acc", 12.5)
	in.ExitPrice = AmountPtr(NewAmount(1.1))
	if got := in.Trade("x").Input(); got.Pair != in.Pair || !got.PnL.Equal(in.PnL) || got.ExitPrice != in.ExitPrice {
		t.Fatalf("input round trip lost fields: %+v", got)
	}
}
