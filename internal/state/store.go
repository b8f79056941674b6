package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/five82/patio/internal/vehicle"
)

// ErrBusy is returned by Claim when a vehicle already has a mutation in
// flight.
var ErrBusy = errors.New("vehicle has a mutation in flight")

// Mutation is the transient overlay for a vehicle whose edit has not been
// confirmed yet.
type Mutation struct {
	Updating            bool
	Fields              []vehicle.Field
	PlateRelatedLoading bool
}

// Pending reports whether f is waiting for server confirmation.
func (m Mutation) Pending(f vehicle.Field) bool {
	for _, p := range m.Fields {
		if p == f {
			return true
		}
	}
	return false
}

func (m Mutation) clone() Mutation {
	m.Fields = append([]vehicle.Field(nil), m.Fields...)
	return m
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Vehicles            []vehicle.Vehicle
	Mutations           map[string]Mutation
	Loading             map[string]bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive fetch failures
}

// IsOffline returns true when the webhook has been unreachable for multiple
// fetches.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Find returns the vehicle with id.
func (s Snapshot) Find(id string) (vehicle.Vehicle, bool) {
	for _, v := range s.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return vehicle.Vehicle{}, false
}

// Updating reports whether id has an unconfirmed edit.
func (s Snapshot) Updating(id string) bool {
	return s.Mutations[id].Updating
}

// Store holds the authoritative vehicle collection for one session. Every
// method is atomic; readers receive copies.
type Store struct {
	mu        sync.RWMutex
	vehicles  []vehicle.Vehicle
	mutations map[string]Mutation
	loading   map[string]struct{}
	claims    map[string]struct{}

	lastUpdated time.Time
	lastError   error
	failures    int
}

// ReplaceAll installs records as the whole collection. Overlays of in-flight
// edits are discarded; the edits themselves still complete and write their
// result through UpdateConfirmed or Restore.
func (s *Store) ReplaceAll(records []vehicle.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vehicles = dedupe(records)
	s.mutations = nil
	s.pruneLoading()
	s.recordSuccess()
}

// SmartMerge installs a background refresh without clobbering in-flight
// edits: updating vehicles keep their optimistic version in place, and ones
// the server does not know yet are prepended.
func (s *Store) SmartMerge(records []vehicle.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	local := make(map[string]vehicle.Vehicle)
	var order []string
	for _, v := range s.vehicles {
		if s.mutations[v.ID].Updating {
			local[v.ID] = v
			order = append(order, v.ID)
		}
	}

	merged := dedupe(records)
	seen := make(map[string]struct{}, len(merged))
	for i, v := range merged {
		seen[v.ID] = struct{}{}
		if lv, ok := local[v.ID]; ok {
			merged[i] = lv
		}
	}

	var fresh []vehicle.Vehicle
	for _, id := range order {
		if _, ok := seen[id]; !ok {
			fresh = append(fresh, local[id])
		}
	}
	s.vehicles = append(fresh, merged...)
	s.pruneLoading()
	s.recordSuccess()
}

// InsertOrReplace drops any vehicle with the same id and prepends v.
func (s *Store) InsertOrReplace(v vehicle.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]vehicle.Vehicle, 0, len(s.vehicles)+1)
	next = append(next, v)
	for _, existing := range s.vehicles {
		if existing.ID != v.ID {
			next = append(next, existing)
		}
	}
	s.vehicles = next
}

// InsertOptimistic stores v with its overlay, replacing a same-id vehicle in
// place or prepending it.
func (s *Store) InsertOptimistic(v vehicle.Vehicle, m Mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.replaceLocked(v.ID, v) {
		s.vehicles = prepend(s.vehicles, v)
	}
	s.setMutation(v.ID, m)
}

// ApplyOptimistic replaces the stored vehicle with its optimistic version and
// sets the overlay. It reports false when the vehicle is no longer present.
func (s *Store) ApplyOptimistic(v vehicle.Vehicle, m Mutation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.replaceLocked(v.ID, v) {
		return false
	}
	s.setMutation(v.ID, m)
	return true
}

// UpdateConfirmed stores the server-confirmed version of id, in place or
// prepended, and clears its overlay and loading marker.
func (s *Store) UpdateConfirmed(id string, v vehicle.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == "" {
		v.ID = id
	}
	if !s.replaceLocked(id, v) {
		s.vehicles = prepend(s.vehicles, v)
	}
	s.clearLocked(id)
}

// Restore puts back the pre-edit version of a vehicle and clears its overlay
// in one step. A vehicle that disappeared meanwhile stays gone.
func (s *Store) Restore(v vehicle.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replaceLocked(v.ID, v)
	s.clearLocked(v.ID)
}

// ConfirmInsert swaps the temporary record tempID for the server record v,
// keeping its position. Any other entry already carrying v.ID is dropped.
func (s *Store) ConfirmInsert(tempID string, v vehicle.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]vehicle.Vehicle, 0, len(s.vehicles)+1)
	placed := false
	for _, existing := range s.vehicles {
		switch {
		case existing.ID == tempID && !placed:
			next = append(next, v)
			placed = true
		case existing.ID == v.ID || existing.ID == tempID:
		default:
			next = append(next, existing)
		}
	}
	if !placed {
		next = prepend(next, v)
	}
	s.vehicles = next
	s.clearLocked(tempID)
	s.clearLocked(v.ID)
}

// Remove drops the vehicle with id.
func (s *Store) Remove(id string) {
	s.RemoveMany([]string{id})
}

// RemoveMany drops every listed vehicle in one pass.
func (s *Store) RemoveMany(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
		s.clearLocked(id)
	}
	next := make([]vehicle.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		if _, ok := drop[v.ID]; !ok {
			next = append(next, v)
		}
	}
	s.vehicles = next
}

// SetLoading marks or unmarks ids as waiting on a deletion or creation.
func (s *Store) SetLoading(ids []string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if on {
			if s.loading == nil {
				s.loading = make(map[string]struct{})
			}
			s.loading[id] = struct{}{}
		} else {
			delete(s.loading, id)
		}
	}
}

// Claim reserves ids for one mutation. It fails with ErrBusy, claiming
// nothing, when any id is already reserved. The returned release function is
// safe to call more than once.
func (s *Store) Claim(ids ...string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.claims[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrBusy, id)
		}
	}
	if s.claims == nil {
		s.claims = make(map[string]struct{})
	}
	for _, id := range ids {
		s.claims[id] = struct{}{}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, id := range ids {
				delete(s.claims, id)
			}
		})
	}, nil
}

// RecordFailure keeps the current data and records a failed fetch.
func (s *Store) RecordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = err
	s.lastUpdated = time.Now()
	s.failures++
}

// Reset empties the store at the end of a session.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vehicles = nil
	s.mutations = nil
	s.loading = nil
	s.claims = nil
	s.lastUpdated = time.Time{}
	s.lastError = nil
	s.failures = 0
}

// Get returns a copy of the vehicle with id.
func (s *Store) Get(id string) (vehicle.Vehicle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return vehicle.Vehicle{}, false
	}
	return s.vehicles[i], true
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		LastUpdated:         s.lastUpdated,
		ConsecutiveFailures: s.failures,
	}
	if len(s.vehicles) > 0 {
		snap.Vehicles = append([]vehicle.Vehicle(nil), s.vehicles...)
	}
	if len(s.mutations) > 0 {
		snap.Mutations = make(map[string]Mutation, len(s.mutations))
		for id, m := range s.mutations {
			snap.Mutations[id] = m.clone()
		}
	}
	if len(s.loading) > 0 {
		snap.Loading = make(map[string]bool, len(s.loading))
		for id := range s.loading {
			snap.Loading[id] = true
		}
	}
	if s.lastError != nil {
		snap.LastError = fmt.Errorf("%w", s.lastError)
	}
	return snap
}

func (s *Store) indexLocked(id string) int {
	for i, v := range s.vehicles {
		if v.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) replaceLocked(id string, v vehicle.Vehicle) bool {
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	next := append([]vehicle.Vehicle(nil), s.vehicles...)
	next[i] = v
	s.vehicles = next
	return true
}

func (s *Store) setMutation(id string, m Mutation) {
	if s.mutations == nil {
		s.mutations = make(map[string]Mutation)
	}
	s.mutations[id] = m.clone()
}

func (s *Store) clearLocked(id string) {
	delete(s.mutations, id)
	delete(s.loading, id)
}

func (s *Store) pruneLoading() {
	for id := range s.loading {
		if s.indexLocked(id) < 0 {
			delete(s.loading, id)
		}
	}
}

func (s *Store) recordSuccess() {
	s.lastError = nil
	s.lastUpdated = time.Now()
	s.failures = 0
}

func prepend(list []vehicle.Vehicle, v vehicle.Vehicle) []vehicle.Vehicle {
	next := make([]vehicle.Vehicle, 0, len(list)+1)
	next = append(next, v)
	return append(next, list...)
}

// dedupe copies records, keeping the first occurrence of each id.
func dedupe(records []vehicle.Vehicle) []vehicle.Vehicle {
	if len(records) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(records))
	out := make([]vehicle.Vehicle, 0, len(records))
	for _, v := range records {
		if _, ok := seen[v.ID]; ok {
			continue
		}
		seen[v.ID] = struct{}{}
		out = append(out, v)
	}
	return out
}
