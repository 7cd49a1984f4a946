package state

import (
	"fmt"
	"sync"
	"time"
)

// Badges are the counters shown in the console header.
type Badges struct {
	LowStockCount int
	PendingOrders int64
}

// Snapshot represents the latest badge data available to the UI.
type Snapshot struct {
	Badges
	HasBadges           bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the backend has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored badges. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(badges Badges, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.fail(err)
		return
	}

	s.snapshot.Badges = badges
	s.succeed()
}

// UpdateLowStock refreshes only the low-stock counter, as done right after a
// product change.
func (s *Store) UpdateLowStock(count int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.fail(err)
		return
	}
	s.snapshot.LowStockCount = count
	s.succeed()
}

// Reset forgets all data, e.g. after logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{}
}

func (s *Store) fail(err error) {
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures++
}

func (s *Store) succeed() {
	s.snapshot.HasBadges = true
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
