// Package notify implements Notifier (C4): best-effort, fire-and-forget
// posting of alert/open/close events to a Discord-compatible webhook.
//
// When no webhook URL is configured, a Notifier degrades to a no-op,
// the same way an unconfigured persistence service degrades: callers
// always have a hook to call instead of threading a nil check through
// every call site. The Notifier methods return nothing, so neither the
// no-op nor the webhook notifier reports a "skipped" or any other
// result to the caller.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"tradesmart-api/pkg/domain"
	"tradesmart-api/pkg/transport"
)

const maxReasoningRunes = 1000

// Notifier is the interface the rest of the service depends on.
type Notifier interface {
	OnAlertAnalyzed(ctx context.Context, alert domain.Alert, verdict domain.Verdict)
	OnPositionOpened(ctx context.Context, pos domain.Position, wallet domain.Wallet)
	OnPositionClosed(ctx context.Context, pos domain.Position, wallet domain.Wallet)
}

// Config configures a webhook Notifier. An empty WebhookURL means
// notifications are disabled.
type Config struct {
	WebhookURL string
	Username   string
}

// webhookNotifier posts Discord-embed-shaped payloads.
type webhookNotifier struct {
	cfg        Config
	httpClient *http.Client
	logger     transport.Logger
}

// New constructs the Notifier described by cfg. If cfg.WebhookURL is
// empty, the returned Notifier is a no-op.
func New(cfg Config) Notifier {
	if cfg.WebhookURL == "" {
		return noopNotifier{}
	}
	return &webhookNotifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     transport.NewLogger("info"),
	}
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type payload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []embed `json:"embeds"`
}

const (
	colorNeutral = 0x5865F2
	colorGreen   = 0x57F287
	colorRed     = 0xED4245
)

func (n *webhookNotifier) OnAlertAnalyzed(ctx context.Context, alert domain.Alert, verdict domain.Verdict) {
	e := embed{
		Title: fmt.Sprintf("Alert analyzed: %s", alert.Symbol),
		Color: colorNeutral,
		Fields: []embedField{
			{Name: "Direction", Value: string(verdict.Direction), Inline: true},
			{Name: "Confidence", Value: fmt.Sprintf("%d", verdict.Confidence), Inline: true},
			{Name: "Reasoning", Value: truncateReasoning(verdict.Reasoning)},
		},
	}
	n.send(ctx, e)
}

func (n *webhookNotifier) OnPositionOpened(ctx context.Context, pos domain.Position, wallet domain.Wallet) {
	e := embed{
		Title: fmt.Sprintf("Position opened: %s %s", pos.Symbol, pos.Direction),
		Color: colorGreen,
		Fields: []embedField{
			{Name: "Entry", Value: pos.EntryPrice.String(), Inline: true},
			{Name: "Stop loss", Value: pos.StopLoss.String(), Inline: true},
			{Name: "Take profit", Value: pos.TakeProfit.String(), Inline: true},
			{Name: "Size (USD)", Value: pos.PositionSizeUSD.String(), Inline: true},
			{Name: "Leverage", Value: fmt.Sprintf("%dx", pos.Leverage), Inline: true},
			{Name: "Confidence", Value: fmt.Sprintf("%d", pos.Confidence), Inline: true},
			{Name: "Available balance", Value: wallet.AvailableBalance.String(), Inline: true},
			{Name: "Reasoning", Value: truncateReasoning(pos.Reasoning)},
		},
		Timestamp: pos.OpenedAt.UTC().Format(time.RFC3339),
	}
	n.send(ctx, e)
}

func (n *webhookNotifier) OnPositionClosed(ctx context.Context, pos domain.Position, wallet domain.Wallet) {
	color := colorGreen
	if pos.RealizedPnl.LessThan(decimal.Zero) {
		color = colorRed
	}
	duration := pos.ClosedAt.Sub(pos.OpenedAt).Round(time.Second)
	e := embed{
		Title: fmt.Sprintf("Position closed: %s %s (%s)", pos.Symbol, pos.Direction, pos.CloseReason),
		Color: color,
		Fields: []embedField{
			{Name: "Exit", Value: pos.ExitPrice.String(), Inline: true},
			{Name: "Realized PnL", Value: pos.RealizedPnl.String(), Inline: true},
			{Name: "Duration", Value: duration.String(), Inline: true},
			{Name: "Total trades", Value: fmt.Sprintf("%d", wallet.TotalTrades), Inline: true},
			{Name: "Win / loss", Value: fmt.Sprintf("%d / %d", wallet.WinningTrades, wallet.LosingTrades), Inline: true},
			{Name: "Available balance", Value: wallet.AvailableBalance.String(), Inline: true},
		},
		Timestamp: pos.ClosedAt.UTC().Format(time.RFC3339),
	}
	n.send(ctx, e)
}

func (n *webhookNotifier) send(ctx context.Context, e embed) {
	body, err := json.Marshal(payload{Username: n.cfg.Username, Embeds: []embed{e}})
	if err != nil {
		n.logger.Warn(ctx, "notify: encode payload failed", transport.Fields{"error": err.Error()})
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn(ctx, "notify: build request failed", transport.Fields{"error": err.Error()})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn(ctx, "notify: post failed", transport.Fields{"error": err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn(ctx, "notify: non-2xx response", transport.Fields{"status": resp.StatusCode})
	}
}

func truncateReasoning(s string) string {
	runes := []rune(s)
	if len(runes) <= maxReasoningRunes {
		return s
	}
	return string(runes[:maxReasoningRunes]) + "…"
}

// noopNotifier is returned when no webhook sink is configured. Every
// call does nothing and returns no result or "skipped" indicator.
type noopNotifier struct{}

func (noopNotifier) OnAlertAnalyzed(context.Context, domain.Alert, domain.Verdict)  {}
func (noopNotifier) OnPositionOpened(context.Context, domain.Position, domain.Wallet) {}
func (noopNotifier) OnPositionClosed(context.Context, domain.Position, domain.Wallet) {}
