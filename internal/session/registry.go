// Package session coordinates guest devices sharing a physical table.
//
// A Registry is process-local and in-memory. Exactly one Registry must exist per deployment
// and every transport must share it; running several processes would need an external store
// with atomic compare-and-swap on the participant count.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DefaultCapacity is used when a table has no capacity of its own.
const DefaultCapacity = 4

// ErrTableFull is matched by every *TableFullError.
var ErrTableFull = errors.New("TABLE_FULL")

// TableFullError rejects a join against a table whose seats are all taken.
type TableFullError struct {
	Capacity int `json:"capacity"`
	Current  int `json:"current"`
}

func (e *TableFullError) Error() string {
	return fmt.Sprintf("table is full (%d/%d)", e.Current, e.Capacity)
}

// Is makes errors.Is(err, ErrTableFull) work.
func (e *TableFullError) Is(target error) bool { return target == ErrTableFull }

// Key identifies a table session.
type Key struct {
	VenueID int64 `json:"venueId"`
	TableID int64 `json:"tableId"`
}

func (k Key) String() string { return fmt.Sprintf("%d/%d", k.VenueID, k.TableID) }

// Occupancy is a point-in-time view of a table session.
type Occupancy struct {
	VenueID   int64 `json:"venueId"`
	TableID   int64 `json:"tableId"`
	UserCount int   `json:"userCount"`
	Capacity  int   `json:"capacity"`
	IsFull    bool  `json:"isFull"`
}

// Change says what happened to a session.
type Change string

const (
	Joined Change = "joined"
	Left   Change = "left"
)

// Event describes one successful mutation. Participants lists who is seated afterwards.
type Event struct {
	Key           Key
	Change        Change
	ParticipantID string
	Occupancy     Occupancy
	Participants  []string
}

// Listener observes successful joins and leaves. It is called while the table is locked,
// so events for one table arrive in mutation order; implementations must not block and must
// not call back into the Registry.
type Listener interface {
	OccupancyChanged(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// OccupancyChanged calls f(ev).
func (f ListenerFunc) OccupancyChanged(ev Event) { f(ev) }

type tableSession struct {
	mu           sync.Mutex
	key          Key
	capacity     int
	participants map[string]struct{}
	// closed is set once the session has been removed from the registry map.
	closed bool
}

func (s *tableSession) occupancy() Occupancy {
	n := len(s.participants)
	return Occupancy{
		VenueID:   s.key.VenueID,
		TableID:   s.key.TableID,
		UserCount: n,
		Capacity:  s.capacity,
		IsFull:    n >= s.capacity,
	}
}

func (s *tableSession) members() []string {
	ids := make([]string, 0, len(s.participants))
	for id := range s.participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Registry owns every live table session. Mutations of one table are serialised by that
// table's mutex; different tables proceed in parallel.
//
// Lock order is table before registry map and participant index. Neither of those two
// mutexes is ever held while acquiring a table mutex.
type Registry struct {
	mu              sync.Mutex
	sessions        map[Key]*tableSession
	defaultCapacity int

	// index maps a participant to the tables it sits at, for Disconnect.
	imu   sync.Mutex
	index map[string]map[Key]struct{}

	lmu       sync.RWMutex
	listeners []Listener
}

// Option configures a Registry.
type Option func(*Registry)

// WithDefaultCapacity overrides DefaultCapacity.
func WithDefaultCapacity(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.defaultCapacity = n
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions:        make(map[Key]*tableSession),
		defaultCapacity: DefaultCapacity,
		index:           make(map[string]map[Key]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers l for every future event.
func (r *Registry) Subscribe(l Listener) {
	r.lmu.Lock()
	r.listeners = append(r.listeners, l)
	r.lmu.Unlock()
}

// ResolveCapacity maps a missing or non-positive hint to the default capacity.
func (r *Registry) ResolveCapacity(hint int) int {
	if hint <= 0 {
		return r.defaultCapacity
	}
	return hint
}

func (r *Registry) emit(ev Event) {
	r.lmu.RLock()
	defer r.lmu.RUnlock()
	for _, l := range r.listeners {
		l.OccupancyChanged(ev)
	}
}

// acquire returns the session for key, creating it with the resolved capacity if needed.
func (r *Registry) acquire(key Key, capacityHint int) *tableSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[key]; ok {
		return s
	}
	s := &tableSession{
		key:          key,
		capacity:     r.ResolveCapacity(capacityHint),
		participants: make(map[string]struct{}),
	}
	r.sessions[key] = s
	return s
}

func (r *Registry) lookup(key Key) *tableSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[key]
}

// release removes s from the map if it is still the session registered under its key.
// The caller holds s.mu.
func (r *Registry) release(s *tableSession) {
	s.closed = true
	r.mu.Lock()
	if r.sessions[s.key] == s {
		delete(r.sessions, s.key)
	}
	r.mu.Unlock()
}

// Join seats participantID at key. A new session takes the resolved capacityHint; an
// existing session keeps the capacity it was created with. When the table is full Join
// returns a *TableFullError and changes nothing. Joining a table the participant already
// holds succeeds without an event.
func (r *Registry) Join(key Key, participantID string, capacityHint int) (Occupancy, error) {
	for {
		s := r.acquire(key, capacityHint)
		s.mu.Lock()
		if s.closed {
			// Emptied and released between acquire and Lock; take a fresh one.
			s.mu.Unlock()
			continue
		}

		if _, ok := s.participants[participantID]; ok {
			occ := s.occupancy()
			s.mu.Unlock()
			return occ, nil
		}

		if n := len(s.participants); n >= s.capacity {
			s.mu.Unlock()
			return Occupancy{}, &TableFullError{Capacity: s.capacity, Current: n}
		}

		s.participants[participantID] = struct{}{}
		r.indexAdd(participantID, key)
		occ := s.occupancy()
		r.emit(Event{Key: key, Change: Joined, ParticipantID: participantID, Occupancy: occ, Participants: s.members()})
		s.mu.Unlock()
		return occ, nil
	}
}

// Leave removes participantID from key. It is a no-op when the participant or the session
// is absent. The session is deleted as soon as it becomes empty. The returned bool reports
// whether anything changed.
func (r *Registry) Leave(key Key, participantID string) (Occupancy, bool) {
	s := r.lookup(key)
	if s == nil {
		return r.empty(key, 0), false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return r.empty(key, 0), false
	}
	if _, ok := s.participants[participantID]; !ok {
		return s.occupancy(), false
	}

	delete(s.participants, participantID)
	r.indexRemove(participantID, key)
	occ := s.occupancy()
	if len(s.participants) == 0 {
		r.release(s)
	}
	r.emit(Event{Key: key, Change: Left, ParticipantID: participantID, Occupancy: occ, Participants: s.members()})
	return occ, true
}

// Disconnect removes participantID from every session that contains it and returns the
// keys it was removed from.
func (r *Registry) Disconnect(participantID string) []Key {
	r.imu.Lock()
	candidates := make([]Key, 0, len(r.index[participantID]))
	for key := range r.index[participantID] {
		candidates = append(candidates, key)
	}
	r.imu.Unlock()

	var left []Key
	for _, key := range candidates {
		if _, ok := r.Leave(key, participantID); ok {
			left = append(left, key)
		}
	}
	return left
}

func (r *Registry) indexAdd(participantID string, key Key) {
	r.imu.Lock()
	defer r.imu.Unlock()
	keys, ok := r.index[participantID]
	if !ok {
		keys = make(map[Key]struct{})
		r.index[participantID] = keys
	}
	keys[key] = struct{}{}
}

func (r *Registry) indexRemove(participantID string, key Key) {
	r.imu.Lock()
	defer r.imu.Unlock()
	keys := r.index[participantID]
	delete(keys, key)
	if len(keys) == 0 {
		delete(r.index, participantID)
	}
}

// Snapshot reports the occupancy of key without changing it. Without a session it reports
// zero participants and the resolved capacityHint.
func (r *Registry) Snapshot(key Key, capacityHint int) Occupancy {
	s := r.lookup(key)
	if s == nil {
		return r.empty(key, capacityHint)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return r.empty(key, capacityHint)
	}
	return s.occupancy()
}

func (r *Registry) empty(key Key, capacityHint int) Occupancy {
	return Occupancy{VenueID: key.VenueID, TableID: key.TableID, Capacity: r.ResolveCapacity(capacityHint)}
}

// Keys lists the tables that currently have a session.
func (r *Registry) Keys() []Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]Key, 0, len(r.sessions))
	for k := range r.sessions {
		keys = append(keys, k)
	}
	return keys
}

// Participants lists who is seated at key.
func (r *Registry) Participants(key Key) []string {
	s := r.lookup(key)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.members()
}
