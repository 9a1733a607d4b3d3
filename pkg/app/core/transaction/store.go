package transaction

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTransaction is returned when recording an id that already exists
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	// ErrNotFound is returned when an id was never recorded
	ErrNotFound = errors.New("transaction not found")
)

// Store backends
const (
	BackendMemory = "memory"
	BackendPebble = "pebble"
)

// Store is the index of applied standard transactions by id
// It is the only place that knows what amount a transaction moved and
// whether it is currently disputed. Records are never deleted.
type Store interface {
	// Record inserts tx in state Normal
	Record(tx Standard) error
	// Lookup returns a copy of the recorded transaction
	Lookup(id ID) (Standard, error)
	// SetDisputeState overwrites the state; callers validate the transition first
	SetDisputeState(id ID, state DisputeState) error
	Len() int
	Close() error
}

// OpenStore creates an empty store for the given backend
// dir is only used by the pebble backend ("" means the OS temp dir).
func OpenStore(backend, dir string) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendPebble:
		return NewPebbleStore(dir)
	default:
		return nil, fmt.Errorf("unknown transaction store backend %q", backend)
	}
}

// MemoryStore keeps the transaction arena in a map
type MemoryStore struct {
	txs map[ID]*Standard
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txs: make(map[ID]*Standard)}
}

func (s *MemoryStore) Record(tx Standard) error {
	if _, exists := s.txs[tx.ID]; exists {
		return fmt.Errorf("tx %d: %w", tx.ID, ErrDuplicateTransaction)
	}
	tx.State = Normal
	s.txs[tx.ID] = &tx
	return nil
}

func (s *MemoryStore) Lookup(id ID) (Standard, error) {
	tx, exists := s.txs[id]
	if !exists {
		return Standard{}, fmt.Errorf("tx %d: %w", id, ErrNotFound)
	}
	return *tx, nil
}

func (s *MemoryStore) SetDisputeState(id ID, state DisputeState) error {
	tx, exists := s.txs[id]
	if !exists {
		return fmt.Errorf("tx %d: %w", id, ErrNotFound)
	}
	tx.State = state
	return nil
}

func (s *MemoryStore) Len() int     { return len(s.txs) }
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
