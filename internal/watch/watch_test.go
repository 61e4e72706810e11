package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menu-availability-backend/config"
	"menu-availability-backend/internal/gateway"
	"menu-availability-backend/internal/model"
)

type fakeSource struct {
	categories map[int64][]model.Category
	failVenue  int64
}

func (f *fakeSource) GetVenue(_ context.Context, venueID int64) (*model.Venue, error) {
	if venueID == f.failVenue {
		return nil, errors.New("lookup failed")
	}
	return &model.Venue{ID: venueID, OrderingEnabled: true}, nil
}

func (f *fakeSource) ListCategories(_ context.Context, venueID int64) ([]model.Category, error) {
	return f.categories[venueID], nil
}

type fakePublisher struct {
	venues    []int64
	published map[int64][]gateway.MenuChangedFrame
}

func (f *fakePublisher) Venues() []int64 { return f.venues }

func (f *fakePublisher) PublishVenue(venueID int64, v any) (int, error) {
	if f.published == nil {
		f.published = make(map[int64][]gateway.MenuChangedFrame)
	}
	f.published[venueID] = append(f.published[venueID], v.(gateway.MenuChangedFrame))
	return 1, nil
}

func strPtr(s string) *string { return &s }

func at(hour, minute int) time.Time {
	return time.Date(2024, time.December, 23, hour, minute, 0, 0, time.UTC)
}

func TestService_TickOnce(t *testing.T) {
	source := &fakeSource{categories: map[int64][]model.Category{
		1: {
			{ID: 10, IsActive: true, DisplayOrder: 1, ScheduleType: "always"},
			{ID: 11, IsActive: true, DisplayOrder: 2, ScheduleType: "daily", StartTime: strPtr("11:00"), EndTime: strPtr("15:00")},
		},
		2: {
			{ID: 20, IsActive: true, ScheduleType: "always"},
		},
	}}
	pub := &fakePublisher{venues: []int64{1, 2}}
	svc := NewService(config.WatchConfig{Enabled: true}, source, pub)
	ctx := context.Background()

	// The first tick only records the baseline.
	assert.Empty(t, svc.TickOnce(ctx, at(10, 0)))
	assert.Empty(t, pub.published)

	// Lunch opens for venue 1; venue 2 is unchanged.
	assert.Equal(t, []int64{1}, svc.TickOnce(ctx, at(11, 0)))
	require.Len(t, pub.published[1], 1)
	assert.Equal(t, gateway.MenuChangedFrame{Type: "menu-changed", VenueID: 1, CategoryIDs: []int64{10, 11}}, pub.published[1][0])

	assert.Empty(t, svc.TickOnce(ctx, at(12, 0)))

	assert.Equal(t, []int64{1}, svc.TickOnce(ctx, at(15, 1)))
	assert.Equal(t, []int64{10}, pub.published[1][1].CategoryIDs)
	assert.Empty(t, pub.published[2])
}

func TestService_ForgetsIdleVenues(t *testing.T) {
	source := &fakeSource{categories: map[int64][]model.Category{
		1: {{ID: 11, IsActive: true, ScheduleType: "daily", StartTime: strPtr("11:00"), EndTime: strPtr("15:00")}},
	}}
	pub := &fakePublisher{venues: []int64{1}}
	svc := NewService(config.WatchConfig{Enabled: true}, source, pub)
	ctx := context.Background()

	svc.TickOnce(ctx, at(10, 0))
	pub.venues = nil
	svc.TickOnce(ctx, at(11, 0))

	// Guests return after the change; the new baseline is not a change.
	pub.venues = []int64{1}
	assert.Empty(t, svc.TickOnce(ctx, at(12, 0)))
	assert.Empty(t, pub.published)
}

func TestService_LookupErrorSkipsVenue(t *testing.T) {
	source := &fakeSource{failVenue: 2, categories: map[int64][]model.Category{
		1: {{ID: 11, IsActive: true, ScheduleType: "daily", StartTime: strPtr("11:00"), EndTime: strPtr("15:00")}},
	}}
	pub := &fakePublisher{venues: []int64{1, 2}}
	svc := NewService(config.WatchConfig{Enabled: true}, source, pub)
	ctx := context.Background()

	svc.TickOnce(ctx, at(10, 0))
	assert.Equal(t, []int64{1}, svc.TickOnce(ctx, at(11, 0)))
}

func TestService_RunDisabledReturns(t *testing.T) {
	svc := NewService(config.WatchConfig{Enabled: false}, &fakeSource{}, &fakePublisher{})
	done := make(chan struct{})
	go func() {
		svc.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled watcher kept running")
	}
}

func TestService_RunStopsOnCancel(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewService(config.WatchConfig{Enabled: true, Interval: 5 * time.Millisecond}, &fakeSource{}, pub)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
