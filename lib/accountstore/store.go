// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package accountstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/metaloot/metaloot/lib/address"
	"github.com/metaloot/metaloot/lib/codec"
	"github.com/metaloot/metaloot/lib/ledger"
)

// Config holds the parameters for Open.
type Config struct {
	// Path is the database file. The parent directory must exist.
	Path string

	// PoolSize is the number of connections. Defaults to 4.
	PoolSize int

	// Logger receives open/close and commit records. Nil discards.
	Logger *slog.Logger
}

// Store is a SQLite-backed ledger.AccountStore. Safe for concurrent
// use.
type Store struct {
	pool   *pool
	logger *slog.Logger
}

var _ ledger.AccountStore = (*Store)(nil)

// Open opens or creates the database at cfg.Path. The caller must call
// Close.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("accountstore: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	size := cfg.PoolSize
	if size <= 0 {
		size = 4
	}
	pool, err := openPool(cfg.Path, size, logger)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close closes every connection. Blocks until borrowed connections are
// returned.
func (s *Store) Close() error {
	return s.pool.close()
}

const accountColumns = `address, owner, data, executable`

func (s *Store) LoadAccount(ctx context.Context, key address.Address) (*ledger.Account, error) {
	conn, err := s.pool.take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.put(conn)

	var account *ledger.Account
	err = sqlitex.Execute(conn, `SELECT `+accountColumns+` FROM accounts WHERE address = ?`, &sqlitex.ExecOptions{
		Args: []any{key[:]},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			keyed, err := scanAccount(stmt)
			if err != nil {
				return err
			}
			account = &keyed.Account
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("accountstore: loading %s: %w", key, err)
	}
	if account == nil {
		return nil, ledger.ErrAccountNotFound
	}
	return account, nil
}

func (s *Store) Accounts(ctx context.Context) ([]ledger.KeyedAccount, error) {
	return s.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY address`)
}

func (s *Store) AccountsByOwner(ctx context.Context, owner address.Address) ([]ledger.KeyedAccount, error) {
	return s.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner = ? ORDER BY address`, owner[:])
}

func (s *Store) queryAccounts(ctx context.Context, query string, args ...any) ([]ledger.KeyedAccount, error) {
	conn, err := s.pool.take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.put(conn)

	var result []ledger.KeyedAccount
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			keyed, err := scanAccount(stmt)
			if err != nil {
				return err
			}
			result = append(result, keyed)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("accountstore: listing accounts: %w", err)
	}
	return result, nil
}

func scanAccount(stmt *sqlite.Stmt) (ledger.KeyedAccount, error) {
	key, err := address.FromBytes(columnBytes(stmt, 0))
	if err != nil {
		return ledger.KeyedAccount{}, fmt.Errorf("address column: %w", err)
	}
	owner, err := address.FromBytes(columnBytes(stmt, 1))
	if err != nil {
		return ledger.KeyedAccount{}, fmt.Errorf("owner column of %s: %w", key, err)
	}
	return ledger.KeyedAccount{
		Address: key,
		Account: ledger.Account{
			Owner:      owner,
			Data:       columnBytes(stmt, 2),
			Executable: stmt.ColumnInt64(3) != 0,
		},
	}, nil
}

// columnBytes copies a BLOB column. NULL and empty both read as nil.
func columnBytes(stmt *sqlite.Stmt, column int) []byte {
	length := stmt.ColumnLen(column)
	if length == 0 {
		return nil
	}
	data := make([]byte, length)
	stmt.ColumnBytes(column, data)
	return data
}

func (s *Store) ContainsTransaction(ctx context.Context, id address.Signature) (bool, error) {
	conn, err := s.pool.take(ctx)
	if err != nil {
		return false, err
	}
	defer s.pool.put(conn)

	var found bool
	err = sqlitex.Execute(conn, `SELECT 1 FROM receipts WHERE signature = ?`, &sqlitex.ExecOptions{
		Args: []any{id[:]},
		ResultFunc: func(*sqlite.Stmt) error {
			found = true
			return nil
		},
	})
	if err != nil {
		return false, fmt.Errorf("accountstore: looking up transaction %s: %w", id, err)
	}
	return found, nil
}

func (s *Store) LatestSlot(ctx context.Context) (uint64, error) {
	conn, err := s.pool.take(ctx)
	if err != nil {
		return 0, err
	}
	defer s.pool.put(conn)
	return latestSlot(conn)
}

func latestSlot(conn *sqlite.Conn) (uint64, error) {
	var slot int64
	err := sqlitex.Execute(conn,
		`SELECT COALESCE(MAX(slot), 0) FROM (SELECT slot FROM receipts UNION ALL SELECT slot FROM accounts)`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				slot = stmt.ColumnInt64(0)
				return nil
			},
		})
	if err != nil {
		return 0, fmt.Errorf("accountstore: reading latest slot: %w", err)
	}
	return uint64(slot), nil
}

// Receipt returns the receipt committed for id, or ErrNoReceipt.
func (s *Store) Receipt(ctx context.Context, id address.Signature) (*ledger.Receipt, error) {
	conn, err := s.pool.take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.put(conn)

	var receipt *ledger.Receipt
	err = sqlitex.Execute(conn, `SELECT receipt FROM receipts WHERE signature = ?`, &sqlitex.ExecOptions{
		Args: []any{id[:]},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			receipt = new(ledger.Receipt)
			return codec.Unmarshal(columnBytes(stmt, 0), receipt)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("accountstore: loading receipt %s: %w", id, err)
	}
	if receipt == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoReceipt, id)
	}
	return receipt, nil
}

// ErrNoReceipt is returned by Receipt for an unknown transaction.
var ErrNoReceipt = errors.New("accountstore: no receipt for transaction")

// Commit writes the batch's accounts and receipt in one IMMEDIATE
// transaction.
func (s *Store) Commit(ctx context.Context, batch *ledger.CommitBatch) (err error) {
	encoded, err := codec.Marshal(batch.Receipt)
	if err != nil {
		return fmt.Errorf("accountstore: encoding receipt: %w", err)
	}

	conn, err := s.pool.take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("accountstore: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	slot := int64(batch.Receipt.Slot)
	for _, keyed := range batch.Accounts {
		if err := upsertAccount(conn, keyed, slot); err != nil {
			return err
		}
	}
	receipt := batch.Receipt
	err = sqlitex.Execute(conn,
		`INSERT INTO receipts (signature, slot, committed_at, receipt) VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{receipt.Signature[:], slot, receipt.CommittedAt.UnixNano(), encoded},
		})
	if err != nil {
		return fmt.Errorf("accountstore: inserting receipt %s: %w", receipt.Signature, err)
	}
	return nil
}

func upsertAccount(conn *sqlite.Conn, keyed ledger.KeyedAccount, slot int64) error {
	var executable int64
	if keyed.Account.Executable {
		executable = 1
	}
	err := sqlitex.Execute(conn,
		`INSERT INTO accounts (address, owner, data, executable, slot) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (address) DO UPDATE SET
		   owner = excluded.owner,
		   data = excluded.data,
		   executable = excluded.executable,
		   slot = excluded.slot`,
		&sqlitex.ExecOptions{
			Args: []any{keyed.Address[:], keyed.Account.Owner[:], keyed.Account.Data, executable, slot},
		})
	if err != nil {
		return fmt.Errorf("accountstore: writing account %s: %w", keyed.Address, err)
	}
	return nil
}
