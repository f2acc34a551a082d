// Package oracle implements VerdictOracle (C2): submitting an alert plus
// its multi-timeframe candle tables to an LLM and parsing the structured
// trade verdict out of the reply.
//
// The wire envelope spec.md §6 requires ({model, max_tokens, system,
// messages:[...]}) doesn't match an openai-go chat-completions client's
// request/response shape, so this is hand-rolled the way
// pkg/llm/client.go's chatRaw escape hatch is: a retry-wrapped raw
// net/http JSON POST, same transport.Logger interface over logx.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradesmart-api/pkg/domain"
	"tradesmart-api/pkg/prompt"
	"tradesmart-api/pkg/transport"
	"tradesmart-api/pkg/tserr"
)

const defaultTimeout = 30 * time.Second

// candlesPerTable bounds how many recent candles per timeframe are
// rendered into the prompt, keeping the request size predictable.
const candlesPerTable = 20

// Client is the VerdictOracle implementation.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	retry      *transport.RetryHandler
	logger     transport.Logger

	systemTmpl *prompt.Template
	userTmpl   *prompt.Template

	journal *Journal
}

// Config configures a Client.
type Config struct {
	BaseURL             string
	APIKey              string
	Model               string
	MaxTokens           int
	SystemTemplatePath  string
	UserTemplatePath    string
}

// Option customizes a Client beyond Config.
type Option func(*Client)

// WithHTTPClient injects a custom *http.Client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetryHandler overrides the default retry policy.
func WithRetryHandler(rh *transport.RetryHandler) Option {
	return func(c *Client) {
		if rh != nil {
			c.retry = rh
		}
	}
}

// WithLogger overrides the default logx-backed logger.
func WithLogger(l transport.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithJournal attaches a prompt-digest journal; see pkg/oracle/journal.go.
func WithJournal(j *Journal) Option {
	return func(c *Client) {
		c.journal = j
	}
}

// New constructs a Client, parsing the system/user prompt templates from
// disk. Missing template files surface as an error at construction time
// rather than lazily on first Analyze call.
func New(cfg Config, opts ...Option) (*Client, error) {
	systemTmpl, err := prompt.NewTemplate(cfg.SystemTemplatePath, nil)
	if err != nil {
		return nil, fmt.Errorf("oracle: load system prompt: %w", err)
	}
	userTmpl, err := prompt.NewTemplate(cfg.UserTemplatePath, nil)
	if err != nil {
		return nil, fmt.Errorf("oracle: load user prompt: %w", err)
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retry:      transport.NewRetryHandler(transport.RetryConfig{MaxRetries: 2}),
		logger:     transport.NewLogger("info"),
		systemTmpl: systemTmpl,
		userTmpl:   userTmpl,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// userPromptData is handed to the user prompt template.
type userPromptData struct {
	Alert  domain.Alert
	Tables []timeframeTable
}

type timeframeTable struct {
	Timeframe string
	Candles   []domain.OhlcvCandle
}

type messagesEnvelope struct {
	Model     string            `json:"model"`
	MaxTokens int               `json:"max_tokens"`
	System    string            `json:"system"`
	Messages  []envelopeMessage `json:"messages"`
}

type envelopeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Analyze composes the prompts, submits them to the oracle, and parses
// the verdict out of the reply. Unknown direction strings in the reply
// map to domain.NoTrade rather than erroring.
func (c *Client) Analyze(ctx context.Context, alert domain.Alert, marketData []domain.TimeframeData) (domain.Verdict, error) {
	systemPrompt, err := c.systemTmpl.Render(alert)
	if err != nil {
		return domain.Verdict{}, tserr.Wrap(tserr.KindOracleParse, "render system prompt", err)
	}

	tables := make([]timeframeTable, 0, len(marketData))
	for _, tf := range marketData {
		candles := tf.Candles
		if len(candles) > candlesPerTable {
			candles = candles[:candlesPerTable]
		}
		tables = append(tables, timeframeTable{Timeframe: tf.Timeframe, Candles: candles})
	}
	userPrompt, err := c.userTmpl.Render(userPromptData{Alert: alert, Tables: tables})
	if err != nil {
		return domain.Verdict{}, tserr.Wrap(tserr.KindOracleParse, "render user prompt", err)
	}

	if c.journal != nil {
		c.journal.Record(alert.Symbol, c.systemTmpl.Digest(), c.userTmpl.Digest())
	}

	envelope := messagesEnvelope{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages:  []envelopeMessage{{Role: "user", Content: userPrompt}},
	}

	reply, err := c.submit(ctx, envelope)
	if err != nil {
		return domain.Verdict{}, err
	}

	if len(reply.Content) == 0 || strings.TrimSpace(reply.Content[0].Text) == "" {
		return domain.Verdict{}, tserr.New(tserr.KindOracleEmpty, "oracle returned no content")
	}

	verdict, err := parseVerdict(alert.Symbol, reply.Content[0].Text)
	if err != nil {
		return domain.Verdict{}, tserr.Wrap(tserr.KindOracleParse, "parse verdict JSON", err)
	}
	verdict.AnalyzedAt = time.Now().UTC()
	return verdict, nil
}

func (c *Client) submit(ctx context.Context, envelope messagesEnvelope) (messagesResponse, error) {
	data, err := json.Marshal(envelope)
	if err != nil {
		return messagesResponse{}, tserr.Wrap(tserr.KindOracleTransport, "encode request", err)
	}

	var out messagesResponse
	err = c.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.baseURL, "/")+"/v1/messages", bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("oracle: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("oracle: read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &transport.StatusError{StatusCode: resp.StatusCode, Err: fmt.Errorf("oracle: http status %d: %s", resp.StatusCode, string(body))}
		}

		out = messagesResponse{}
		if err := json.Unmarshal(body, &out); err != nil {
			return fmt.Errorf("oracle: decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return messagesResponse{}, tserr.Wrap(tserr.KindOracleTransport, "submit to oracle", err)
	}
	return out, nil
}

// rawVerdict is the wire shape the oracle is prompted to reply with.
type rawVerdict struct {
	Symbol           string  `json:"symbol"`
	Direction        string  `json:"direction"`
	Confidence       int     `json:"confidence"`
	EntryPrice       *string `json:"entryPrice"`
	StopLoss         *string `json:"stopLoss"`
	TakeProfit       *string `json:"takeProfit"`
	RiskRewardRatio  string  `json:"riskRewardRatio"`
	Reasoning        string  `json:"reasoning"`
}

// parseVerdict extracts exactly one JSON object from raw, tolerating a
// leading/trailing fenced code block, and maps it onto domain.Verdict.
func parseVerdict(fallbackSymbol, raw string) (domain.Verdict, error) {
	jsonText, err := extractJSONObject(raw)
	if err != nil {
		return domain.Verdict{}, err
	}

	var rv rawVerdict
	if err := json.Unmarshal([]byte(jsonText), &rv); err != nil {
		return domain.Verdict{}, fmt.Errorf("unmarshal verdict object: %w", err)
	}

	symbol := rv.Symbol
	if symbol == "" {
		symbol = fallbackSymbol
	}

	v := domain.Verdict{
		Symbol:          symbol,
		Direction:       domain.ParseDirection(rv.Direction),
		Confidence:      rv.Confidence,
		RiskRewardText:  rv.RiskRewardRatio,
		Reasoning:       rv.Reasoning,
	}
	v.EntryPrice = decimalPtr(rv.EntryPrice)
	v.StopLoss = decimalPtr(rv.StopLoss)
	v.TakeProfit = decimalPtr(rv.TakeProfit)
	return v, nil
}

func decimalPtr(raw *string) *decimal.Decimal {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil
	}
	return &d
}

// extractJSONObject finds the first balanced {...} object in raw,
// tolerating a surrounding ```json fenced code block.
func extractJSONObject(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in reply")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case inString:
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
		case ch == '"':
			inString = true
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in reply")
}
