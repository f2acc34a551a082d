// Package svc wires every TradeSmart component into a single
// ServiceContext: configuration sections are hydrated once at startup,
// and every handler/logic gets the already-built clients instead of
// constructing its own.
package svc

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"tradesmart-api/internal/config"
	"tradesmart-api/internal/persistence"
	"tradesmart-api/pkg/admission"
	"tradesmart-api/pkg/domain"
	"tradesmart-api/pkg/engine"
	"tradesmart-api/pkg/monitor"
	"tradesmart-api/pkg/notify"
	"tradesmart-api/pkg/oracle"
	"tradesmart-api/pkg/orchestrate"
	"tradesmart-api/pkg/quote"
	"tradesmart-api/pkg/state"
	"tradesmart-api/pkg/taskqueue"
)

const (
	defaultTaskQueueWorkers = 4
	defaultTaskQueueBacklog = 64
)

// ServiceContext bundles every wired TradeSmart component.
type ServiceContext struct {
	Config config.Config

	TaskQueue *taskqueue.Queue

	QuoteClient *quote.Client
	Oracle      *oracle.Client
	Notifier    notify.Notifier

	Persistor *state.Persistor
	Engine    *engine.Engine

	Admission    *admission.Filter
	Orchestrator *orchestrate.Orchestrator
	Monitor      *monitor.Monitor

	// Audit is the supplemental, write-only Postgres/Redis mirror. It is
	// always non-nil: persistence.Mirror degrades to a no-op when
	// Postgres/Redis aren't configured, the same way Notifier degrades
	// to a no-op without a webhook URL.
	Audit persistence.Mirror
}

// NewServiceContext builds the full dependency graph from c.
func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{Config: c}

	svc.TaskQueue = taskqueue.New(defaultTaskQueueWorkers, defaultTaskQueueBacklog)

	if c.Quote.Value == nil {
		log.Fatal("quote config section is required (set Quote.File in the main config)")
	}
	svc.QuoteClient = quote.New(*c.Quote.Value)

	if c.Oracle.Value == nil {
		log.Fatal("oracle config section is required (set Oracle.File in the main config)")
	}
	journalDir := filepath.Join(c.DataPath, "oracle-journal")
	oracleClient, err := oracle.New(*c.Oracle.Value, oracle.WithJournal(oracle.NewJournal(journalDir)))
	if err != nil {
		log.Fatalf("failed to build oracle client: %v", err)
	}
	svc.Oracle = oracleClient

	notifyCfg := notify.Config{}
	if c.Notify.Value != nil {
		notifyCfg = *c.Notify.Value
	}
	svc.Notifier = notify.New(notifyCfg)

	initialBalance, _ := c.InitialBalanceDecimal.Float64()
	svc.Persistor = state.New(state.Config{
		StateFilePath:  c.PaperTrading.StateFilePath,
		InitialBalance: initialBalance,
	})

	svc.Engine = engine.New(engine.Config{
		Enabled:                c.PaperTrading.Enabled,
		InitialBalance:         c.InitialBalanceDecimal,
		MaxConcurrentPositions: c.PaperTrading.MaxConcurrentPositions,
		MaxPositionSizePercent: c.MaxPositionSizePercentDecimal,
		MaxStopLossPercent:     c.MaxStopLossPercentDecimal,
		Leverage:               c.PaperTrading.Leverage,
	}, svc.Persistor)

	svc.Audit = persistence.NewMirror(c)

	svc.Admission = admission.New(admission.Config{
		Enabled:             c.PaperTrading.Enabled,
		AllowedBaseSymbols:  c.PaperTrading.AllowedBaseSymbols,
		ConfidenceThreshold: c.PaperTrading.ConfidenceThreshold,
	}, svc.Engine, openNotifier{notifier: svc.Notifier, audit: svc.Audit}, svc.TaskQueue)

	svc.Orchestrator = orchestrate.New(svc.QuoteClient, svc.Oracle, svc.Notifier, svc.Admission, svc.TaskQueue, orchestrate.DefaultTimeframeLadder)

	monitorInterval := time.Duration(c.PaperTrading.MonitorIntervalSeconds) * time.Second
	svc.Monitor = monitor.New(svc.QuoteClient, svc.Engine, closeNotifier{notifier: svc.Notifier, audit: svc.Audit}, svc.TaskQueue, monitorInterval)

	return svc
}

// Close releases resources owned by the ServiceContext. Safe to call
// more than once.
func (s *ServiceContext) Close() {
	if s.TaskQueue != nil {
		s.TaskQueue.Close()
	}
	if s.Audit != nil {
		s.Audit.Close()
	}
}

// openNotifier fans an opened-position event out to both the
// user-facing Notifier and the audit mirror, so admission.Filter only
// ever needs to call one hook.
type openNotifier struct {
	notifier notify.Notifier
	audit    persistence.Mirror
}

func (o openNotifier) OnPositionOpened(ctx context.Context, pos domain.Position, wallet domain.Wallet) {
	if o.notifier != nil {
		o.notifier.OnPositionOpened(ctx, pos, wallet)
	}
	if o.audit != nil {
		o.audit.OnPositionOpened(ctx, pos)
		o.audit.OnWalletSnapshot(ctx, wallet)
	}
}

// closeNotifier is the Close-side counterpart of openNotifier, used by
// pkg/monitor.
type closeNotifier struct {
	notifier notify.Notifier
	audit    persistence.Mirror
}

func (c closeNotifier) OnPositionClosed(ctx context.Context, pos domain.Position, wallet domain.Wallet) {
	if c.notifier != nil {
		c.notifier.OnPositionClosed(ctx, pos, wallet)
	}
	if c.audit != nil {
		c.audit.OnPositionClosed(ctx, pos, wallet)
	}
}
