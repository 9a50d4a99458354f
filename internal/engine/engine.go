// Package engine implements the marketplace and fee-distribution state
// machine. Every exported operation runs as one sqlite transaction over
// the accounts it touches: either the whole operation commits or nothing
// is persisted.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/mindlabs/gomarket/internal/events"
)

var log = logrus.WithField("component", "engine")

type Config struct {
	DBPath string
	// AllowFunding enables the Fund faucet for tests and local runs.
	AllowFunding bool
}

type Engine struct {
	cfg Config
	db  *sql.DB
	bus *events.Bus

	// now is swappable so tests can pin listing timestamps.
	now func() time.Time
}

func New(cfg Config, bus *events.Bus) (*Engine, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	e := &Engine{cfg: cfg, db: db, bus: bus, now: time.Now}
	if err := e.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// withTx runs fn inside a serialized transaction and, on commit,
// publishes the events fn recorded. A failed fn leaves no trace.
func (e *Engine) withTx(ctx context.Context, fn func(tx *sql.Tx, ev *eventLog) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	ev := &eventLog{}
	if err := fn(tx, ev); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if e.bus != nil {
		for _, pending := range ev.pending {
			e.bus.Publish(pending.typ, pending.fields)
		}
	}
	return nil
}

type pendingEvent struct {
	typ    events.Type
	fields map[string]string
}

// eventLog collects events during a transaction; they are published
// only after commit.
type eventLog struct {
	pending []pendingEvent
}

func (l *eventLog) add(typ events.Type, fields map[string]string) {
	l.pending = append(l.pending, pendingEvent{typ: typ, fields: fields})
}
