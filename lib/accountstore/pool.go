// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package accountstore

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// pragmas are applied to every connection before first use.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=FULL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=OFF",
	"PRAGMA cache_size=-8192",
	"PRAGMA temp_store=MEMORY",
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	address    BLOB PRIMARY KEY,
	owner      BLOB NOT NULL,
	data       BLOB,
	executable INTEGER NOT NULL DEFAULT 0,
	slot       INTEGER NOT NULL
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS accounts_by_owner ON accounts (owner, address);

CREATE TABLE IF NOT EXISTS receipts (
	signature    BLOB PRIMARY KEY,
	slot         INTEGER NOT NULL UNIQUE,
	committed_at INTEGER NOT NULL,
	receipt      BLOB NOT NULL
) WITHOUT ROWID;
`

// pool is a fixed-size set of prepared connections.
type pool struct {
	inner  *sqlitex.Pool
	logger *slog.Logger
	path   string
}

func openPool(path string, size int, logger *slog.Logger) (*pool, error) {
	inner, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize:    size,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("accountstore: opening %s: %w", path, err)
	}
	logger.Info("account store opened", "path", path, "pool_size", size)
	return &pool{inner: inner, logger: logger, path: path}, nil
}

// prepareConnection runs once per connection, on first use. The schema
// statements are idempotent, so every connection may run them.
func prepareConnection(conn *sqlite.Conn) error {
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("accountstore: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("accountstore: creating schema: %w", err)
	}
	return nil
}

// take borrows a connection. The caller must put it back.
func (p *pool) take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("accountstore: take connection: %w", err)
	}
	return conn, nil
}

func (p *pool) put(conn *sqlite.Conn) {
	p.inner.Put(conn)
}

func (p *pool) close() error {
	if err := p.inner.Close(); err != nil {
		p.logger.Error("account store close failed", "path", p.path, "error", err)
		return fmt.Errorf("accountstore: closing %s: %w", p.path, err)
	}
	p.logger.Info("account store closed", "path", p.path)
	return nil
}
