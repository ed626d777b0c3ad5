// Copyright 2026 The MetaLoot Authors
// SPDX-License-Identifier: Apache-2.0

package keypair

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrNotLocked is reported by Keypair.MemoryLocked when the key could
// not be pinned in RAM or excluded from core dumps.
var ErrNotLocked = errors.New("keypair: key memory is not locked")

// lockedBytes holds key material in an anonymous mapping. The garbage
// collector never moves or copies it.
type lockedBytes struct {
	mu      sync.Mutex
	data    []byte
	closed  bool
	locked  bool
	lockErr error
}

// lock copies source into a new mapping and zeros source.
func lock(source []byte) (*lockedBytes, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("keypair: empty key material")
	}
	data, err := unix.Mmap(-1, 0, len(source), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("keypair: mapping key memory: %w", err)
	}
	l := &lockedBytes{data: data}

	// Both calls fail under a tight RLIMIT_MEMLOCK or on an old kernel.
	// The failure is kept for MemoryLocked rather than refusing the key.
	if err := unix.Mlock(data); err != nil {
		l.lockErr = fmt.Errorf("%w: mlock: %w", ErrNotLocked, err)
	} else {
		l.locked = true
	}
	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		l.lockErr = errors.Join(l.lockErr, fmt.Errorf("%w: madvise(MADV_DONTDUMP): %w", ErrNotLocked, err))
	}

	copy(data, source)
	clear(source)
	return l, nil
}

// use calls fn with the key bytes. fn must not retain the slice.
func (l *lockedBytes) use(fn func([]byte)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		panic("keypair: use of closed keypair")
	}
	fn(l.data)
}

func (l *lockedBytes) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	clear(l.data)
	if l.locked {
		if err := unix.Munlock(l.data); err != nil {
			return fmt.Errorf("keypair: unlocking key memory: %w", err)
		}
	}
	if err := unix.Munmap(l.data); err != nil {
		return fmt.Errorf("keypair: unmapping key memory: %w", err)
	}
	l.data = nil
	return nil
}
