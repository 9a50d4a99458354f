package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/mindlabs/gomarket/internal/assetreg"
)

func (e *Engine) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA foreign_keys=ON;`,
		`
CREATE TABLE IF NOT EXISTS accounts (
  address TEXT PRIMARY KEY,
  balance INTEGER NOT NULL DEFAULT 0,
  reserve INTEGER NOT NULL DEFAULT 0
);`,
		`
CREATE TABLE IF NOT EXISTS protocol_config (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  address TEXT NOT NULL,
  admins_json TEXT NOT NULL,
  allowlist_json TEXT NOT NULL,
  fees_json TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS projects (
  address TEXT PRIMARY KEY,
  project_id INTEGER NOT NULL,
  owner TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  operators_json TEXT NOT NULL,
  treasury TEXT NOT NULL,
  created_at TEXT NOT NULL,
  UNIQUE (owner, project_id)
);`,
		`
CREATE TABLE IF NOT EXISTS trade_hubs (
  address TEXT PRIMARY KEY,
  project TEXT NOT NULL REFERENCES projects(address),
  name TEXT NOT NULL,
  fee_bps INTEGER NOT NULL,
  created_at TEXT NOT NULL,
  UNIQUE (project, name)
);`,
		`
CREATE TABLE IF NOT EXISTS minter_configs (
  address TEXT PRIMARY KEY,
  project TEXT NOT NULL REFERENCES projects(address),
  name TEXT NOT NULL,
  mint_price INTEGER NOT NULL,
  mints_counter INTEGER NOT NULL DEFAULT 0,
  max_supply INTEGER NOT NULL DEFAULT 0,
  name_prefix TEXT,
  uri_prefix TEXT,
  created_at TEXT NOT NULL,
  UNIQUE (project, name)
);`,
		`
CREATE TABLE IF NOT EXISTS listings (
  address TEXT PRIMARY KEY,
  asset TEXT NOT NULL,
  hub TEXT NOT NULL REFERENCES trade_hubs(address),
  owner TEXT NOT NULL,
  price INTEGER NOT NULL,
  created_at TEXT NOT NULL,
  UNIQUE (asset, hub)
);`,
		assetreg.Schema(),
	}

	for _, stmt := range stmts {
		if _, err := e.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
