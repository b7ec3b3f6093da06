package api

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNormalizeLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", limit: 0, offset: 0, wantLimit: 100, wantOffset: 0},
		{name: "negative offset", limit: 25, offset: -5, wantLimit: 25, wantOffset: 0},
		{name: "negative limit", limit: -1, offset: 3, wantLimit: 100, wantOffset: 3},
		{name: "pass through", limit: 10, offset: 2, wantLimit: 10, wantOffset: 2},
		{name: "capped", limit: 5000, offset: 0, wantLimit: maxPageLimit, wantOffset: 0},
		{name: "max int limit", limit: math.MaxInt, offset: 1, wantLimit: maxPageLimit, wantOffset: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := normalizeLimitOffset(tt.limit, tt.offset)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Fatalf("expected (%d, %d), got (%d, %d)", tt.wantLimit, tt.wantOffset, limit, offset)
			}
		})
	}
}

func TestSanitizeDBName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "prop", want: "prop.db"},
		{in: " live.DB ", want: "live.DB"},
		{in: "", wantErr: true},
		{in: "../x.db", wantErr: true},
		{in: `a\b`, wantErr: true},
		{in: "..", wantErr: true},
	}
	for _, tc := range tests {
		got, err := sanitizeDBName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("sanitizeDBName(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("sanitizeDBName(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestParseStatsQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/stats?period=custom&start=2024-07-01&end=2024-07-31", nil)
	period, start, end, err := parseStatsQuery(req)
	if err != nil {
		t.Fatalf("parseStatsQuery: %v", err)
	}
	if period != "custom" {
		t.Fatalf("unexpected period %q", period)
	}
	if !start.Equal(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.Local)) || end.Day() != 31 {
		t.Fatalf("unexpected range %v - %v", start, end)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats?start=07/01/2024", nil)
	if _, _, _, err := parseStatsQuery(req); err == nil {
		t.Fatalf("expected invalid date error")
	}
	req = httptest.NewRequest(http.MethodGet, "/api/stats?period=decade", nil)
	if _, _, _, err := parseStatsQuery(req); err == nil {
		t.Fatalf("expected invalid period error")
	}
}
