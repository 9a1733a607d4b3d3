package transaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
)

// PebbleStore keeps the transaction arena on disk for inputs whose id space
// does not fit comfortably in memory.
// The database lives in a fresh temporary directory that Close removes, so
// nothing survives the run.
type PebbleStore struct {
	db    *pebble.DB
	dir   string
	count int
}

// NewPebbleStore opens a scratch Pebble database under parent ("" = OS temp dir)
func NewPebbleStore(parent string) (*PebbleStore, error) {
	dir, err := os.MkdirTemp(parent, "ledgerreplay-tx-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create tx store dir: %w", err)
	}

	cache := pebble.NewCache(64 << 20) // 64MB cache
	defer cache.Unref()

	opts := &pebble.Options{
		Cache:        cache,
		MemTableSize: 32 << 20, // 32MB memtable
		MaxOpenFiles: 1000,
		// Scratch data: no fsync needed
		DisableWAL: true,
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to open pebble db at %s: %w", dir, err)
	}

	return &PebbleStore{db: db, dir: dir}, nil
}

// Close closes the database and deletes its directory
func (s *PebbleStore) Close() error {
	closeErr := s.db.Close()
	if err := os.RemoveAll(s.dir); err != nil && closeErr == nil {
		return fmt.Errorf("failed to remove tx store dir: %w", err)
	}
	return closeErr
}

func (s *PebbleStore) Record(tx Standard) error {
	key := txKey(tx.ID)
	_, closer, err := s.db.Get(key)
	if err == nil {
		closer.Close()
		return fmt.Errorf("tx %d: %w", tx.ID, ErrDuplicateTransaction)
	}
	if !errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("failed to get tx %d: %w", tx.ID, err)
	}

	tx.State = Normal
	if err := s.put(tx); err != nil {
		return err
	}
	s.count++
	return nil
}

func (s *PebbleStore) Lookup(id ID) (Standard, error) {
	data, closer, err := s.db.Get(txKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return Standard{}, fmt.Errorf("tx %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Standard{}, fmt.Errorf("failed to get tx %d: %w", id, err)
	}
	defer closer.Close()

	var tx Standard
	if err := json.Unmarshal(data, &tx); err != nil {
		return Standard{}, fmt.Errorf("failed to unmarshal tx %d: %w", id, err)
	}
	return tx, nil
}

func (s *PebbleStore) SetDisputeState(id ID, state DisputeState) error {
	tx, err := s.Lookup(id)
	if err != nil {
		return err
	}
	tx.State = state
	return s.put(tx)
}

func (s *PebbleStore) Len() int { return s.count }

// each visits every recorded transaction in id order
func (s *PebbleStore) each(fn func(Standard) error) error {
	prefix := []byte(prefixTx)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		id, err := txIDFromKey(iter.Key())
		if err != nil {
			return err
		}
		var tx Standard
		if err := json.Unmarshal(iter.Value(), &tx); err != nil {
			return fmt.Errorf("failed to unmarshal tx %d: %w", id, err)
		}
		if err := fn(tx); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (s *PebbleStore) put(tx Standard) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal tx %d: %w", tx.ID, err)
	}
	if err := s.db.Set(txKey(tx.ID), data, pebble.NoSync); err != nil {
		return fmt.Errorf("failed to save tx %d: %w", tx.ID, err)
	}
	return nil
}

var _ Store = (*PebbleStore)(nil)
