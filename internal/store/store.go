// Package store holds the in-memory set of pickup requests for one
// organization, keyed by donor id.
package store

import (
	"errors"
	"sync"

	"bridgeofhope/internal/model"
)

var ErrNotFound = errors.New("pickup request not found")

// Snapshot is a consistent copy of the store contents at one version.
type Snapshot struct {
	Version  uint64
	Requests []model.PickupRequest
}

type RequestStore struct {
	mu      sync.RWMutex
	version uint64
	order   []string
	byDonor map[string]model.PickupRequest
}

func NewRequestStore() *RequestStore {
	return &RequestStore{byDonor: make(map[string]model.PickupRequest)}
}

// Load replaces the whole set. When a donor id repeats, the later record
// wins and keeps the position of the first one.
func (s *RequestStore) Load(records []model.PickupRequest) uint64 {
	order := make([]string, 0, len(records))
	byDonor := make(map[string]model.PickupRequest, len(records))
	for _, r := range records {
		if _, seen := byDonor[r.DonorID]; !seen {
			order = append(order, r.DonorID)
		}
		byDonor[r.DonorID] = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = order
	s.byDonor = byDonor
	s.version++
	return s.version
}

func (s *RequestStore) Get(donorID string) (model.PickupRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byDonor[donorID]
	if !ok {
		return model.PickupRequest{}, ErrNotFound
	}
	return r, nil
}

// Put replaces an existing record. It never inserts: records only enter the
// store through Load.
func (s *RequestStore) Put(r model.PickupRequest) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byDonor[r.DonorID]; !ok {
		return s.version, ErrNotFound
	}
	s.byDonor[r.DonorID] = r
	s.version++
	return s.version, nil
}

func (s *RequestStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PickupRequest, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byDonor[id])
	}
	return Snapshot{Version: s.version, Requests: out}
}

func (s *RequestStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
