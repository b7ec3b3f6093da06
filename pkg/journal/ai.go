package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

// TextGenerator turns a fully formed prompt into free-form text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AI providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const (
	defaultGeminiModel    = "gemini-2.5-flash"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	anthropicMaxTokens    = 1024
	defaultAITimeout      = 60 * time.Second
)

// ErrAPIKeyMissing is returned when no API key is configured.
var ErrAPIKeyMissing = errors.New("ai api key is not configured")

// AIConfig selects and configures a TextGenerator.
type AIConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// NewTextGenerator builds the generator for cfg.Provider; empty means gemini.
func NewTextGenerator(ctx context.Context, cfg AIConfig) (TextGenerator, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrAPIKeyMissing
	}
	model := strings.TrimSpace(cfg.Model)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		if model == "" {
			model = defaultGeminiModel
		}
		clientConfig := &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI}
		if base := strings.TrimSpace(cfg.BaseURL); base != "" {
			clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(base, "/") + "/"}
		}
		client, err := genai.NewClient(ctx, clientConfig)
		if err != nil {
			return nil, fmt.Errorf("create gemini client failed: %w", err)
		}
		return &geminiGenerator{client: client, model: model, timeout: timeoutOr(cfg.Timeout)}, nil
	case ProviderOpenAI:
		if model == "" {
			model = defaultOpenAIModel
		}
		base, err := normalizeOpenAIBaseURL(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		client := openai.NewClient(
			openaioption.WithAPIKey(key),
			openaioption.WithBaseURL(base),
			openaioption.WithRequestTimeout(timeoutOr(cfg.Timeout)),
		)
		return &openAIGenerator{client: client, model: model}, nil
	case ProviderAnthropic:
		if model == "" {
			model = defaultAnthropicModel
		}
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(key),
			anthropicoption.WithRequestTimeout(timeoutOr(cfg.Timeout)),
		}
		if base := strings.TrimSpace(cfg.BaseURL); base != "" {
			opts = append(opts, anthropicoption.WithBaseURL(base))
		}
		return &anthropicGenerator{client: anthropic.NewClient(opts...), model: model}, nil
	}
	return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
}

func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultAITimeout
	}
	return d
}

// normalizeOpenAIBaseURL reduces a configured endpoint to the API root the
// client appends resource paths to.
func normalizeOpenAIBaseURL(raw string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return defaultOpenAIBaseURL, nil
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("invalid base_url scheme: %s", parsed.Scheme)
	}
	path := strings.TrimRight(parsed.Path, "/")
	for _, suffix := range []string{"/chat/completions", "/responses"} {
		if strings.HasSuffix(path, suffix) {
			parsed.Path = strings.TrimSuffix(path, suffix)
			return strings.TrimRight(parsed.String(), "/"), nil
		}
	}
	if !strings.HasSuffix(path, "/v1") {
		parsed.Path = path + "/v1"
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

type geminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}
	return nonEmpty(resp.Text())
}

type openAIGenerator struct {
	client openai.Client
	model  string
}

func (g *openAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("ai response has no choices")
	}
	return nonEmpty(resp.Choices[0].Message.Content)
}

type anthropicGenerator struct {
	client anthropic.Client
	model  string
}

func (g *anthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic message failed: %w", err)
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return nonEmpty(sb.String())
}

func nonEmpty(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("ai response content is empty")
	}
	return text, nil
}

// Fallback texts shown when generation fails.
const (
	FallbackAnalysisKeyMissing = "AI analysis failed. The AI API key is not configured correctly. Please ask the administrator to set it up in the environment variables."
	FallbackAnalysis           = "An error occurred while analyzing the trade. Please try again later."
	FallbackMarketAnalysis     = "An error occurred while analyzing the market. Please try again later."
	FallbackQuoteKeyMissing    = "Could not fetch a quote. Please ensure the AI API key is configured correctly."
	FallbackQuote              = "The market is a device for transferring money from the impatient to the patient."
)

// Advice is generated text, or fallback text when generation failed.
type Advice struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// Coach wraps a TextGenerator with the journal's prompts. Generation errors
// are logged and replaced by fallback text.
type Coach struct {
	gen    TextGenerator
	logger *slog.Logger
}

// NewCoach returns a Coach. A nil generator behaves as a missing API key.
func NewCoach(gen TextGenerator, logger *slog.Logger) *Coach {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coach{gen: gen, logger: logger}
}

// Enabled reports whether a generator is configured.
func (c *Coach) Enabled() bool {
	return c != nil && c.gen != nil
}

// AnalyzeTrade asks for coaching feedback on one trade, in markdown.
func (c *Coach) AnalyzeTrade(ctx context.Context, trade Trade) Advice {
	text, err := c.generate(ctx, BuildTradeAnalysisPrompt(trade))
	if err != nil {
		c.logger.Error("trade analysis failed", "trade_id", trade.ID, "err", err)
		if isAPIKeyError(err) {
			return Advice{Text: FallbackAnalysisKeyMissing, Fallback: true}
		}
		return Advice{Text: FallbackAnalysis, Fallback: true}
	}
	return Advice{Text: text}
}

// AnalyzeMarket asks for a short technical outlook on a pair, in markdown.
func (c *Coach) AnalyzeMarket(ctx context.Context, pair string) Advice {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	text, err := c.generate(ctx, BuildMarketAnalysisPrompt(pair))
	if err != nil {
		c.logger.Error("market analysis failed", "pair", pair, "err", err)
		if isAPIKeyError(err) {
			return Advice{Text: FallbackAnalysisKeyMissing, Fallback: true}
		}
		return Advice{Text: FallbackMarketAnalysis, Fallback: true}
	}
	return Advice{Text: text}
}

// MotivationQuote returns a one-sentence quote without quotes or asterisks.
func (c *Coach) MotivationQuote(ctx context.Context) Advice {
	text, err := c.generate(ctx, motivationPrompt)
	if err != nil {
		c.logger.Error("motivation quote failed", "err", err)
		if isAPIKeyError(err) {
			return Advice{Text: FallbackQuoteKeyMissing, Fallback: true}
		}
		return Advice{Text: FallbackQuote, Fallback: true}
	}
	cleaned := strings.TrimSpace(strings.NewReplacer(`"`, "", "*", "").Replace(text))
	if cleaned == "" {
		return Advice{Text: FallbackQuote, Fallback: true}
	}
	return Advice{Text: cleaned}
}

func (c *Coach) generate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrAPIKeyMissing
	}
	text, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		return "", WrapError(ErrCodeExternal, "ai generation failed", err)
	}
	return text, nil
}

func isAPIKeyError(err error) bool {
	return errors.Is(err, ErrAPIKeyMissing) || strings.Contains(strings.ToLower(err.Error()), "api key")
}

const motivationPrompt = `Provide a short, powerful, and insightful motivational quote suitable for a financial trader.
The quote should be about discipline, patience, psychology, or risk management.
Do not include any attributions (e.g., "- Author Name"). Just return the quote text.
Keep it to a single sentence.`

// BuildTradeAnalysisPrompt renders the coaching prompt for a trade.
func BuildTradeAnalysisPrompt(t Trade) string {
	outcome := "profit"
	if t.PnL.IsNegative() {
		outcome = "loss"
	}
	tradeType := string(t.Type)
	if tradeType != "" {
		tradeType = strings.ToUpper(tradeType[:1]) + tradeType[1:]
	}

	var b strings.Builder
	b.WriteString("As a professional trading coach, analyze the following trade and provide constructive feedback.\n")
	b.WriteString("Focus on potential improvements, risk management, and psychological aspects.\n")
	b.WriteString("Keep the analysis concise, insightful, and easy to understand for an intermediate trader.\n")
	b.WriteString("Format your response in markdown.\n\n")
	b.WriteString("**Trade Details:**\n")
	fmt.Fprintf(&b, "- **Trading Pair:** %s\n", t.Pair)
	fmt.Fprintf(&b, "- **Type:** %s\n", tradeType)
	fmt.Fprintf(&b, "- **Session:** %s\n", t.Session)
	if t.EntryPrice != nil {
		fmt.Fprintf(&b, "- **Entry Price:** %s\n", t.EntryPrice.String())
	}
	if t.ExitPrice != nil {
		fmt.Fprintf(&b, "- **Exit Price:** %s\n", t.ExitPrice.String())
	}
	fmt.Fprintf(&b, "- **Risk/Reward Ratio:** 1:%s\n", t.RR.String())
	fmt.Fprintf(&b, "- **Outcome:** A %s of $%s\n", outcome, t.PnL.Abs().StringFixed(2))
	fmt.Fprintf(&b, "- **Date:** %s\n", t.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "- **Trader's Rating:** %d out of 5 stars\n", t.Rating)
	fmt.Fprintf(&b, "- **Trader's Notes:** %q\n\n", t.Notes)
	b.WriteString("**Your Analysis:**\n")
	return b.String()
}

// BuildMarketAnalysisPrompt renders the outlook prompt for a pair.
func BuildMarketAnalysisPrompt(pair string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "As a professional market analyst, give a brief technical outlook for %s.\n", pair)
	b.WriteString("Cover the prevailing trend, key support and resistance areas, and the main risks to watch.\n")
	b.WriteString("Keep it concise and easy to understand for an intermediate trader.\n")
	b.WriteString("Format your response in markdown and end with a one-line disclaimer that this is not financial advice.\n")
	return b.String()
}
