// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package accountstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/metaloot/metaloot/lib/codec"
	"github.com/metaloot/metaloot/lib/ledger"
)

// SnapshotVersion is the snapshot format written by Export.
const SnapshotVersion = 1

// ErrSnapshotMismatch is returned when a snapshot's contents do not
// match its header.
var ErrSnapshotMismatch = errors.New("accountstore: snapshot does not match its header")

// ErrNotEmpty is returned when importing into a store that already
// holds accounts or receipts.
var ErrNotEmpty = errors.New("accountstore: store is not empty")

// SnapshotHeader leads every snapshot stream.
type SnapshotHeader struct {
	Version     uint8         `cbor:"1,keyasint"`
	Slot        uint64        `cbor:"2,keyasint"`
	Accounts    uint64        `cbor:"3,keyasint"`
	StateDigest ledger.Digest `cbor:"4,keyasint"`
}

// Export writes every account in source to w as a zstd-compressed
// snapshot. Works with any AccountStore.
func Export(ctx context.Context, source ledger.AccountStore, w io.Writer) (*SnapshotHeader, error) {
	accounts, err := source.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	slot, err := source.LatestSlot(ctx)
	if err != nil {
		return nil, err
	}
	digest, err := ledger.StateDigest(accounts)
	if err != nil {
		return nil, err
	}
	header := &SnapshotHeader{
		Version:     SnapshotVersion,
		Slot:        slot,
		Accounts:    uint64(len(accounts)),
		StateDigest: digest,
	}

	compressor, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("accountstore: creating zstd writer: %w", err)
	}
	encoder := codec.NewEncoder(compressor)
	if err := encoder.Encode(header); err != nil {
		compressor.Close()
		return nil, fmt.Errorf("accountstore: writing snapshot header: %w", err)
	}
	for _, keyed := range accounts {
		if err := encoder.Encode(keyed); err != nil {
			compressor.Close()
			return nil, fmt.Errorf("accountstore: writing account %s: %w", keyed.Address, err)
		}
	}
	if err := compressor.Close(); err != nil {
		return nil, fmt.Errorf("accountstore: finishing snapshot: %w", err)
	}
	return header, nil
}

// ReadSnapshot decodes and verifies a snapshot without importing it.
func ReadSnapshot(r io.Reader) (*SnapshotHeader, []ledger.KeyedAccount, error) {
	decompressor, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("accountstore: opening snapshot: %w", err)
	}
	defer decompressor.Close()

	decoder := codec.NewDecoder(decompressor)
	var header SnapshotHeader
	if err := decoder.Decode(&header); err != nil {
		return nil, nil, fmt.Errorf("accountstore: reading snapshot header: %w", err)
	}
	if header.Version != SnapshotVersion {
		return nil, nil, fmt.Errorf("accountstore: unsupported snapshot version %d", header.Version)
	}

	var accounts []ledger.KeyedAccount
	for {
		var keyed ledger.KeyedAccount
		err := decoder.Decode(&keyed)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("accountstore: reading account %d: %w", len(accounts), err)
		}
		accounts = append(accounts, keyed)
	}
	if uint64(len(accounts)) != header.Accounts {
		return nil, nil, fmt.Errorf("%w: %d accounts, header says %d", ErrSnapshotMismatch, len(accounts), header.Accounts)
	}
	digest, err := ledger.StateDigest(accounts)
	if err != nil {
		return nil, nil, err
	}
	if digest != header.StateDigest {
		return nil, nil, fmt.Errorf("%w: digest %s, header says %s", ErrSnapshotMismatch, digest, header.StateDigest)
	}
	return &header, accounts, nil
}

// Import loads a snapshot into an empty store. Every account is written
// at the snapshot's slot in one transaction.
func (s *Store) Import(ctx context.Context, r io.Reader) (_ *SnapshotHeader, err error) {
	header, accounts, err := ReadSnapshot(r)
	if err != nil {
		return nil, err
	}

	conn, err := s.pool.take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("accountstore: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	empty, err := isEmpty(conn)
	if err != nil {
		return nil, err
	}
	if !empty {
		return nil, ErrNotEmpty
	}
	for _, keyed := range accounts {
		if err := upsertAccount(conn, keyed, int64(header.Slot)); err != nil {
			return nil, err
		}
	}
	s.logger.Info("snapshot imported", "slot", header.Slot, "accounts", header.Accounts, "digest", header.StateDigest.String())
	return header, nil
}

func isEmpty(conn *sqlite.Conn) (bool, error) {
	var count int64
	err := sqlitex.Execute(conn,
		`SELECT (SELECT COUNT(*) FROM accounts) + (SELECT COUNT(*) FROM receipts)`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt64(0)
				return nil
			},
		})
	if err != nil {
		return false, fmt.Errorf("accountstore: counting rows: %w", err)
	}
	return count == 0, nil
}
