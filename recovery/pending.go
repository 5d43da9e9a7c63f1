package recovery

import (
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
)

// PendingSnapshot maps recovery tx hashes to whether their execution was
// dispatched but not yet confirmed. Snapshots are never mutated.
type PendingSnapshot map[common.Hash]bool

func (p PendingSnapshot) IsPending(txHash *common.Hash) bool {
	if txHash == nil {
		return false
	}
	return p[*txHash]
}

// PendingStore holds the current PendingSnapshot. Every update copies the
// map and swaps it in whole, so readers never observe a partial write.
type PendingStore struct {
	mu      sync.Mutex // serialises writers
	current atomic.Pointer[PendingSnapshot]
}

func NewPendingStore() *PendingStore {
	s := &PendingStore{}
	empty := PendingSnapshot{}
	s.current.Store(&empty)
	return s
}

func (s *PendingStore) Snapshot() PendingSnapshot {
	return *s.current.Load()
}

func (s *PendingStore) Set(txHash common.Hash) {
	s.update(func(next PendingSnapshot) {
		next[txHash] = true
	})
}

// TrySet marks txHash pending unless it already is. It reports whether this
// call made the reservation, so only one of several racing executions proceeds.
func (s *PendingStore) TrySet(txHash common.Hash) bool {
	reserved := false
	s.update(func(next PendingSnapshot) {
		if next[txHash] {
			return
		}
		next[txHash] = true
		reserved = true
	})
	return reserved
}

func (s *PendingStore) Clear(txHash common.Hash) {
	s.update(func(next PendingSnapshot) {
		delete(next, txHash)
	})
}

// Reset drops every pending entry, e.g. when the watched Safe changes.
func (s *PendingStore) Reset() {
	empty := PendingSnapshot{}
	s.mu.Lock()
	s.current.Store(&empty)
	s.mu.Unlock()
}

func (s *PendingStore) update(mutate func(next PendingSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := *s.current.Load()
	next := make(PendingSnapshot, len(prev)+1)
	for k, v := range prev {
		next[k] = v
	}
	mutate(next)
	s.current.Store(&next)
}
