// Package state implements StatePersistor: atomic load/save of the full
// paper-trading EngineState to a single JSON document on disk.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"tradesmart-api/pkg/domain"
	"tradesmart-api/pkg/tserr"
)

// Persistor loads and atomically saves EngineState to a JSON file.
//
// Load/Save mirror pkg/journal.Writer's marshaling style
// (json.MarshalIndent, a single document per write) but add atomic
// replace (temp file + rename) and corrupted-file backup, which the
// teacher's journal package does not need since it only ever appends
// new files and never overwrites one it might need to recover.
type Persistor struct {
	path           string
	initialBalance float64
	nowFn          func() time.Time
}

// Config configures a Persistor.
type Config struct {
	// StateFilePath is where the EngineState document lives.
	StateFilePath string
	// InitialBalance seeds a freshly created wallet when no state file
	// exists yet (or the existing one is corrupt).
	InitialBalance float64
}

// New constructs a Persistor from config.
func New(cfg Config) *Persistor {
	path := cfg.StateFilePath
	if path == "" {
		path = "paper-trading-state.json"
	}
	return &Persistor{
		path:           path,
		initialBalance: cfg.InitialBalance,
		nowFn:          time.Now,
	}
}

type document struct {
	Wallet          domain.Wallet     `json:"wallet"`
	OpenPositions   []domain.Position `json:"openPositions"`
	ClosedPositions []domain.Position `json:"closedPositions"`
	LastUpdatedAt   time.Time         `json:"lastUpdatedAt"`
}

// Load reads the state file. If it is absent, a default state (wallet
// seeded with InitialBalance, no positions) is returned. If it is present
// but unparseable, the corrupt file is backed up by renaming it with a
// timestamp suffix and a default state is returned; this is logged at
// error but is not fatal.
func (p *Persistor) Load() (domain.EngineState, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return p.defaultState(), nil
		}
		return domain.EngineState{}, tserr.Wrap(tserr.KindPersistenceFailure, "read state file", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		p.backupCorrupt(err)
		return p.defaultState(), nil
	}

	return domain.EngineState{
		Wallet:          doc.Wallet,
		OpenPositions:   doc.OpenPositions,
		ClosedPositions: doc.ClosedPositions,
		LastUpdatedAt:   doc.LastUpdatedAt,
	}, nil
}

// Save serializes state and atomically replaces the target file: it
// writes to a sibling temp file first, then renames it into place, so a
// partial write (crash, disk-full) never corrupts the previous good file.
func (p *Persistor) Save(s domain.EngineState) error {
	doc := document{
		Wallet:          s.Wallet,
		OpenPositions:   s.OpenPositions,
		ClosedPositions: s.ClosedPositions,
		LastUpdatedAt:   s.LastUpdatedAt,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return tserr.Wrap(tserr.KindPersistenceFailure, "marshal state", err)
	}

	dir := filepath.Dir(p.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return tserr.Wrap(tserr.KindPersistenceFailure, "create state dir", err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".tmp-*")
	if err != nil {
		return tserr.Wrap(tserr.KindPersistenceFailure, "create temp state file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return tserr.Wrap(tserr.KindPersistenceFailure, "write temp state file", err)
	}
	if err := tmp.Close(); err != nil {
		return tserr.Wrap(tserr.KindPersistenceFailure, "close temp state file", err)
	}
	if err := os.Rename(tmpPath, p.path); err != nil {
		return tserr.Wrap(tserr.KindPersistenceFailure, "replace state file", err)
	}
	return nil
}

func (p *Persistor) defaultState() domain.EngineState {
	return domain.EngineState{
		Wallet: domain.Wallet{
			InitialBalance:   decimal.NewFromFloat(p.initialBalance),
			AvailableBalance: decimal.NewFromFloat(p.initialBalance),
		},
		OpenPositions:   []domain.Position{},
		ClosedPositions: []domain.Position{},
		LastUpdatedAt:   p.nowFn(),
	}
}

func (p *Persistor) backupCorrupt(parseErr error) {
	backupPath := fmt.Sprintf("%s.corrupted.%s", p.path, p.nowFn().UTC().Format("20060102150405"))
	if err := os.Rename(p.path, backupPath); err != nil {
		logx.Errorf("state: failed to back up corrupt state file %s: %v (original parse error: %v)", p.path, err, parseErr)
		return
	}
	logx.Errorf("state: corrupt state file backed up to %s: %v", backupPath, parseErr)
}
