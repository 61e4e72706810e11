// Package gateway connects transports to the table session registry.
//
// Every transport (websocket connections, HTTP polling clients) goes through one Gateway,
// which owns the single *session.Registry of the process.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"menu-availability-backend/internal/session"
	"menu-availability-backend/internal/store"
)

// ErrNotAttached is returned when a frame targets a participant without a live sink.
var ErrNotAttached = errors.New("participant is not attached")

// Frame types.
const (
	FrameJoined      = "joined"
	FrameOccupancy   = "occupancy"
	FrameTableFull   = "table-full"
	FrameMenuChanged = "menu-changed"
	FrameError       = "error"
)

// OccupancyFrame is broadcast to every participant of a table after a join or leave.
type OccupancyFrame struct {
	Type string `json:"type"`
	session.Occupancy
}

// JoinedFrame confirms a join to the participant that asked for it.
type JoinedFrame struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participantId"`
	session.Occupancy
}

// TableFullFrame is sent only to the participant whose join was rejected.
type TableFullFrame struct {
	Type     string `json:"type"`
	VenueID  int64  `json:"venueId"`
	TableID  int64  `json:"tableId"`
	Message  string `json:"message"`
	Capacity int    `json:"capacity"`
	Current  int    `json:"current"`
}

// MenuChangedFrame tells guests of a venue that the visible categories changed.
type MenuChangedFrame struct {
	Type        string  `json:"type"`
	VenueID     int64   `json:"venueId"`
	CategoryIDs []int64 `json:"categoryIds"`
}

// ErrorFrame reports a request the gateway could not serve.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Sink delivers encoded frames to one participant. Send must not block; it reports
// whether the frame was queued.
type Sink interface {
	Send(frame []byte) bool
}

// CapacityResolver looks up the stored capacity of a table. A zero capacity means unset.
type CapacityResolver interface {
	TableCapacity(ctx context.Context, venueID, tableID int64) (int, error)
}

// Gateway translates join, leave and disconnect requests into registry calls and fans the
// resulting events out to attached sinks.
type Gateway struct {
	registry   *session.Registry
	capacities CapacityResolver

	mu    sync.RWMutex
	sinks map[string]Sink
}

// New creates a Gateway on top of registry and subscribes it to registry events.
// capacities may be nil, in which case the caller's capacity hint is used as is.
func New(registry *session.Registry, capacities CapacityResolver) *Gateway {
	g := &Gateway{
		registry:   registry,
		capacities: capacities,
		sinks:      make(map[string]Sink),
	}
	registry.Subscribe(g)
	return g
}

// Registry returns the registry every transport shares.
func (g *Gateway) Registry() *session.Registry { return g.registry }

// Attach registers the sink that receives frames for participantID.
func (g *Gateway) Attach(participantID string, sink Sink) {
	g.mu.Lock()
	g.sinks[participantID] = sink
	g.mu.Unlock()
}

// Detach forgets the sink of participantID without touching its seats.
func (g *Gateway) Detach(participantID string) {
	g.mu.Lock()
	delete(g.sinks, participantID)
	g.mu.Unlock()
}

// Disconnect detaches participantID and removes it from every table it sits at.
func (g *Gateway) Disconnect(participantID string) []session.Key {
	g.Detach(participantID)
	left := g.registry.Disconnect(participantID)
	if len(left) > 0 {
		zap.L().Debug("participant disconnected",
			zap.String("participant_id", participantID),
			zap.Int("tables", len(left)))
	}
	return left
}

// Join seats participantID at key. The stored table capacity wins over capacityHint.
// A rejected join returns an error matching session.ErrTableFull and sends a table-full
// frame to the requester only. Unknown tables return store.ErrTableNotFound before the
// registry is touched.
func (g *Gateway) Join(ctx context.Context, key session.Key, participantID string, capacityHint int) (session.Occupancy, error) {
	capacity, err := g.resolveCapacity(ctx, key, capacityHint)
	if err != nil {
		return session.Occupancy{}, err
	}

	occ, err := g.registry.Join(key, participantID, capacity)
	if err != nil {
		var full *session.TableFullError
		if errors.As(err, &full) {
			_ = g.SendTo(participantID, TableFullFrame{
				Type:     FrameTableFull,
				VenueID:  key.VenueID,
				TableID:  key.TableID,
				Message:  "This table is full",
				Capacity: full.Capacity,
				Current:  full.Current,
			})
		}
		return session.Occupancy{}, err
	}

	_ = g.SendTo(participantID, JoinedFrame{Type: FrameJoined, ParticipantID: participantID, Occupancy: occ})
	return occ, nil
}

// Leave removes participantID from key. Leaving a table it does not sit at is a no-op that
// reports the current occupancy.
func (g *Gateway) Leave(ctx context.Context, key session.Key, participantID string) session.Occupancy {
	occ, changed := g.registry.Leave(key, participantID)
	if changed {
		return occ
	}
	if current, err := g.Occupancy(ctx, key); err == nil {
		return current
	}
	return occ
}

// LeaveAll removes participantID from every table but keeps its sink attached.
func (g *Gateway) LeaveAll(participantID string) []session.Key {
	return g.registry.Disconnect(participantID)
}

// Occupancy reports the current occupancy of key.
func (g *Gateway) Occupancy(ctx context.Context, key session.Key) (session.Occupancy, error) {
	capacity, err := g.resolveCapacity(ctx, key, 0)
	if err != nil {
		return session.Occupancy{}, err
	}
	return g.registry.Snapshot(key, capacity), nil
}

// resolveCapacity prefers the stored capacity, then the hint, then the registry default.
// Lookup failures other than not-found fall back to the hint.
func (g *Gateway) resolveCapacity(ctx context.Context, key session.Key, hint int) (int, error) {
	if g.capacities == nil {
		return g.registry.ResolveCapacity(hint), nil
	}

	capacity, err := g.capacities.TableCapacity(ctx, key.VenueID, key.TableID)
	switch {
	case errors.Is(err, store.ErrTableNotFound), errors.Is(err, store.ErrVenueNotFound):
		return 0, err
	case err != nil:
		zap.L().Warn("capacity lookup failed, using fallback",
			zap.Int64("venue_id", key.VenueID),
			zap.Int64("table_id", key.TableID),
			zap.Error(err))
		return g.registry.ResolveCapacity(hint), nil
	case capacity > 0:
		return capacity, nil
	default:
		return g.registry.ResolveCapacity(hint), nil
	}
}

// OccupancyChanged broadcasts registry events to the table's remaining participants.
func (g *Gateway) OccupancyChanged(ev session.Event) {
	frame, err := json.Marshal(OccupancyFrame{Type: FrameOccupancy, Occupancy: ev.Occupancy})
	if err != nil {
		zap.L().Error("encode occupancy frame", zap.Error(err))
		return
	}
	g.broadcast(ev.Participants, frame)
}

// SendTo delivers a single frame to participantID.
func (g *Gateway) SendTo(participantID string, v any) error {
	g.mu.RLock()
	sink, ok := g.sinks[participantID]
	g.mu.RUnlock()
	if !ok {
		return ErrNotAttached
	}

	frame, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if !sink.Send(frame) {
		zap.L().Warn("dropped frame for slow participant", zap.String("participant_id", participantID))
	}
	return nil
}

// PublishVenue sends v to every participant seated anywhere in venueID and returns how
// many sinks received it.
func (g *Gateway) PublishVenue(venueID int64, v any) (int, error) {
	frame, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, key := range g.registry.Keys() {
		if key.VenueID != venueID {
			continue
		}
		for _, id := range g.registry.Participants(key) {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return g.broadcast(ids, frame), nil
}

// Venues lists the venues that currently have at least one table session.
func (g *Gateway) Venues() []int64 {
	set := make(map[int64]struct{})
	for _, key := range g.registry.Keys() {
		set[key.VenueID] = struct{}{}
	}
	venues := make([]int64, 0, len(set))
	for id := range set {
		venues = append(venues, id)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i] < venues[j] })
	return venues
}

func (g *Gateway) broadcast(participantIDs []string, frame []byte) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	delivered := 0
	for _, id := range participantIDs {
		sink, ok := g.sinks[id]
		if !ok {
			// Polling participants have no sink.
			continue
		}
		if sink.Send(frame) {
			delivered++
		}
	}
	return delivered
}
