package journal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type stubGenerator struct {
	text    string
	err     error
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.text, s.err
}

func TestCoachAnalyzeTrade(t *testing.T) {
	gen := &stubGenerator{text: "## Solid entry"}
	coach := NewCoach(gen, discardLogger())
	trade := Trade{
		ID:         "t1",
		Pair:       "EURUSD",
		Type:       TradeSell,
		Session:    "London",
		PnL:        NewAmount(-50),
		RR:         NewAmount(1.5),
		Date:       time.Date(2024, time.July, 14, 14, 30, 0, 0, time.UTC),
		Notes:      "Stopped out",
		Rating:     2,
		EntryPrice: AmountPtr(NewAmount(1.075)),
	}

	advice := coach.AnalyzeTrade(context.Background(), trade)
	if advice.Fallback || advice.Text != "## Solid entry" {
		t.Fatalf("unexpected advice: %+v", advice)
	}
	prompt := gen.prompts[0]
	for _, want := range []string{
		"**Trading Pair:** EURUSD",
		"**Type:** Sell",
		"**Entry Price:** 1.075",
		"**Risk/Reward Ratio:** 1:1.5",
		"A loss of $50.00",
		"**Date:** 2024-07-14",
		"2 out of 5 stars",
		`"Stopped out"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "Exit Price") {
		t.Errorf("prompt must omit absent exit price")
	}
}

func TestCoachFallbacks(t *testing.T) {
	ctx := context.Background()

	missing := NewCoach(nil, discardLogger())
	if got := missing.AnalyzeTrade(ctx, Trade{}); !got.Fallback || got.Text != FallbackAnalysisKeyMissing {
		t.Fatalf("expected key-missing fallback, got %+v", got)
	}
	if got := missing.MotivationQuote(ctx); got.Text != FallbackQuoteKeyMissing {
		t.Fatalf("expected key-missing quote fallback, got %+v", got)
	}

	failing := NewCoach(&stubGenerator{err: errors.New("connection reset")}, discardLogger())
	if got := failing.AnalyzeTrade(ctx, Trade{}); got.Text != FallbackAnalysis {
		t.Fatalf("expected generic fallback, got %+v", got)
	}
	if got := failing.MotivationQuote(ctx); got.Text != FallbackQuote {
		t.Fatalf("expected fallback quote, got %+v", got)
	}
	if got := failing.AnalyzeMarket(ctx, "eurusd"); got.Text != FallbackMarketAnalysis {
		t.Fatalf("expected market fallback, got %+v", got)
	}

	badKey := NewCoach(&stubGenerator{err: errors.New("API key not valid")}, discardLogger())
	if got := badKey.AnalyzeTrade(ctx, Trade{}); got.Text != FallbackAnalysisKeyMissing {
		t.Fatalf("expected key fallback for rejected key, got %+v", got)
	}
}

func TestCoachMotivationQuoteCleansText(t *testing.T) {
	coach := NewCoach(&stubGenerator{text: "  **\"Patience pays.\"**  "}, discardLogger())
	got := coach.MotivationQuote(context.Background())
	if got.Fallback || got.Text != "Patience pays." {
		t.Fatalf("unexpected quote: %+v", got)
	}
}

func TestCoachAnalyzeMarketUppercasesPair(t *testing.T) {
	gen := &stubGenerator{text: "outlook"}
	NewCoach(gen, discardLogger()).AnalyzeMarket(context.Background(), " xauusd ")
	if !strings.Contains(gen.prompts[0], "XAUUSD") {
		t.Fatalf("expected pair in prompt, got %q", gen.prompts[0])
	}
}

func TestNewTextGenerator(t *testing.T) {
	ctx := context.Background()
	if _, err := NewTextGenerator(ctx, AIConfig{Provider: ProviderOpenAI}); !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("expected ErrAPIKeyMissing, got %v", err)
	}
	if _, err := NewTextGenerator(ctx, AIConfig{Provider: "llama", APIKey: "k"}); err == nil {
		t.Fatalf("expected unsupported provider error")
	}
}

func TestNormalizeOpenAIBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{name: "empty uses default", input: "", want: "https://api.openai.com/v1"},
		{name: "base without v1", input: "https://example.com", want: "https://example.com/v1"},
		{name: "base with v1", input: "https://example.com/v1/", want: "https://example.com/v1"},
		{name: "chat completions suffix", input: "https://example.com/v1/chat/completions", want: "https://example.com/v1"},
		{name: "responses suffix", input: "https://example.com/v1/responses", want: "https://example.com/v1"},
		{name: "missing scheme", input: "example.com/api", want: "https://example.com/api/v1"},
		{name: "invalid scheme", input: "ftp://example.com", wantErr: "invalid base_url scheme"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := normalizeOpenAIBaseURL(tc.input)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error contains %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestOpenAIGenerator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "gpt-test" || len(body.Messages) != 1 || body.Messages[0].Content != "hello" {
			t.Errorf("unexpected request body: %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test","choices":[{"index":0,"message":{"role":"assistant","content":" fine analysis "},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	gen, err := NewTextGenerator(context.Background(), AIConfig{
		Provider: ProviderOpenAI,
		APIKey:   "test-key",
		Model:    "gpt-test",
		BaseURL:  server.URL,
	})
	assertNoError(t, err, "new generator")
	text, err := gen.Generate(context.Background(), "hello")
	assertNoError(t, err, "generate")
	if text != "fine analysis" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestAnthropicGenerator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("unexpected api key header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test","content":[{"type":"text","text":"Keep "},{"type":"text","text":"calm."}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`))
	}))
	defer server.Close()

	gen, err := NewTextGenerator(context.Background(), AIConfig{
		Provider: ProviderAnthropic,
		APIKey:   "test-key",
		Model:    "claude-test",
		BaseURL:  server.URL,
	})
	assertNoError(t, err, "new generator")
	text, err := gen.Generate(context.Background(), "hello")
	assertNoError(t, err, "generate")
	if text != "Keep calm." {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestGeminiGeneratorHonorsTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	gen, err := NewTextGenerator(context.Background(), AIConfig{
		Provider: ProviderGemini,
		APIKey:   "test-key",
		Model:    "gemini-test",
		BaseURL:  server.URL,
		Timeout:  50 * time.Millisecond,
	})
	assertNoError(t, err, "new generator")
	if g, ok := gen.(*geminiGenerator); !ok || g.timeout != 50*time.Millisecond {
		t.Fatalf("expected gemini generator with the configured timeout, got %#v", gen)
	}

	done := make(chan error, 1)
	go func() {
		_, err := gen.Generate(context.Background(), "hello")
		done <- err
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected timeout error")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("generate did not honor the configured timeout")
	}

	gen, err = NewTextGenerator(context.Background(), AIConfig{APIKey: "test-key", BaseURL: server.URL})
	assertNoError(t, err, "new default generator")
	if g := gen.(*geminiGenerator); g.timeout != defaultAITimeout {
		t.Fatalf("expected default timeout, got %v", g.timeout)
	}
}

func TestKeyMissingFallbacksAreProviderNeutral(t *testing.T) {
	for _, text := range []string{FallbackAnalysisKeyMissing, FallbackQuoteKeyMissing} {
		if strings.Contains(text, "Gemini") {
			t.Errorf("fallback names a specific provider: %q", text)
		}
	}
}
