// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state provides a journaled EVM-style state (storage slots and native
// balances) on top of a luxfi key-value database. Writes stay in memory until
// Commit; Snapshot and RevertToSnapshot give callers all-or-nothing execution.
package state

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
)

// Key prefixes in the backing database
const (
	storagePrefix byte = 's'
	balancePrefix byte = 'b'
)

type journalEntry struct {
	key     string
	prev    []byte
	hadPrev bool
}

// StateDB is an in-memory write cache with an undo journal.
// It is not safe for concurrent use.
type StateDB struct {
	db      database.Database
	dirty   map[string][]byte
	journal []journalEntry

	// dbErr records the first backend read failure. Accessors cannot return
	// errors, so it is surfaced by Error and Commit.
	dbErr error
}

// New returns a StateDB reading through to db.
func New(db database.Database) *StateDB {
	return &StateDB{
		db:    db,
		dirty: make(map[string][]byte),
	}
}

func storageKey(addr common.Address, key common.Hash) string {
	b := make([]byte, 0, 1+common.AddressLength+common.HashLength)
	b = append(b, storagePrefix)
	b = append(b, addr.Bytes()...)
	b = append(b, key.Bytes()...)
	return string(b)
}

func balanceKey(addr common.Address) string {
	b := make([]byte, 0, 1+common.AddressLength)
	b = append(b, balancePrefix)
	b = append(b, addr.Bytes()...)
	return string(b)
}

func (s *StateDB) read(key string) []byte {
	if v, ok := s.dirty[key]; ok {
		return v
	}
	v, err := s.db.Get([]byte(key))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) && s.dbErr == nil {
			s.dbErr = err
		}
		return nil
	}
	return v
}

func (s *StateDB) write(key string, value []byte) {
	prev, ok := s.dirty[key]
	s.journal = append(s.journal, journalEntry{key: key, prev: prev, hadPrev: ok})
	s.dirty[key] = value
}

// GetState returns a storage slot of addr.
func (s *StateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	return common.BytesToHash(s.read(storageKey(addr, key)))
}

// SetState writes a storage slot of addr.
func (s *StateDB) SetState(addr common.Address, key common.Hash, value common.Hash) {
	s.write(storageKey(addr, key), value.Bytes())
}

// GetBalance returns the native balance of addr.
func (s *StateDB) GetBalance(addr common.Address) *uint256.Int {
	return new(uint256.Int).SetBytes(s.read(balanceKey(addr)))
}

// AddBalance credits addr with amount.
func (s *StateDB) AddBalance(addr common.Address, amount *uint256.Int) {
	bal := s.GetBalance(addr)
	bal.Add(bal, amount)
	b := bal.Bytes32()
	s.write(balanceKey(addr), b[:])
}

// SubBalance debits amount from addr. Callers must check the balance first.
func (s *StateDB) SubBalance(addr common.Address, amount *uint256.Int) {
	bal := s.GetBalance(addr)
	bal.Sub(bal, amount)
	b := bal.Bytes32()
	s.write(balanceKey(addr), b[:])
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	return len(s.journal)
}

// RevertToSnapshot undoes every write made after the given snapshot.
func (s *StateDB) RevertToSnapshot(id int) {
	if id < 0 || id > len(s.journal) {
		panic(fmt.Errorf("revision id %v cannot be reverted", id))
	}
	for i := len(s.journal) - 1; i >= id; i-- {
		e := s.journal[i]
		if e.hadPrev {
			s.dirty[e.key] = e.prev
		} else {
			delete(s.dirty, e.key)
		}
	}
	s.journal = s.journal[:id]
}

// Error returns the first backend read failure, if any.
func (s *StateDB) Error() error {
	return s.dbErr
}

// Commit flushes pending writes to the database in one batch and clears the
// journal. Snapshots taken before Commit become invalid.
func (s *StateDB) Commit() error {
	if s.dbErr != nil {
		return s.dbErr
	}
	batch := s.db.NewBatch()
	for k, v := range s.dirty {
		if err := batch.Put([]byte(k), v); err != nil {
			return fmt.Errorf("stage %x: %w", k, err)
		}
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	s.dirty = make(map[string][]byte)
	s.journal = s.journal[:0]
	return nil
}
