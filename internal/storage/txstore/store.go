// Package txstore holds the most recently fetched transaction list.
package txstore

import (
	"sync/atomic"
	"time"

	"github.com/vadiminshakov/paydash/internal/domain"
)

// Snapshot is one fetched transaction list. Snapshots are never modified after
// publication, so readers must not mutate Transactions either.
type Snapshot struct {
	Seq          uint64
	FetchedAt    time.Time
	Transactions []domain.Transaction
}

// Len returns the number of transactions in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Transactions)
}

// Store publishes snapshots with last-writer-wins semantics: overlapping
// refreshes may finish in any order and the last Replace call is what readers see.
type Store struct {
	current atomic.Pointer[Snapshot]
	seq     atomic.Uint64
}

// New creates a store holding an empty snapshot.
func New() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{})
	return s
}

// Replace publishes a new snapshot built from a copy of txs.
func (s *Store) Replace(txs []domain.Transaction, fetchedAt time.Time) *Snapshot {
	copied := make([]domain.Transaction, len(txs))
	copy(copied, txs)

	snap := &Snapshot{
		Seq:          s.seq.Add(1),
		FetchedAt:    fetchedAt,
		Transactions: copied,
	}
	s.current.Store(snap)

	return snap
}

// Snapshot returns the current snapshot. It is never nil.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}
