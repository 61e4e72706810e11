// Package watch pushes menu-changed notices to seated guests when schedules flip.
package watch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"menu-availability-backend/config"
	"menu-availability-backend/internal/availability"
	"menu-availability-backend/internal/gateway"
	"menu-availability-backend/internal/model"
)

// MenuSource loads the records a venue's menu is built from.
type MenuSource interface {
	GetVenue(ctx context.Context, venueID int64) (*model.Venue, error)
	ListCategories(ctx context.Context, venueID int64) ([]model.Category, error)
}

// Publisher reaches the guests seated at a venue.
type Publisher interface {
	Venues() []int64
	PublishVenue(venueID int64, v any) (int, error)
}

// Service periodically recomputes the visible categories of every venue with seated guests.
type Service struct {
	cfg       config.WatchConfig
	source    MenuSource
	publisher Publisher

	mu   sync.Mutex
	last map[int64][]int64
}

// NewService creates a watcher.
func NewService(cfg config.WatchConfig, source MenuSource, publisher Publisher) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Service{
		cfg:       cfg,
		source:    source,
		publisher: publisher,
		last:      make(map[int64][]int64),
	}
}

// Run ticks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		zap.L().Info("menu watcher is disabled")
		return
	}
	zap.L().Info("starting menu watcher", zap.Duration("interval", s.cfg.Interval))

	s.TickOnce(ctx, time.Now())

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("menu watcher shutting down")
			return
		case <-timer.C:
			s.TickOnce(ctx, time.Now())
			timer.Reset(s.cfg.Interval)
		}
	}
}

// TickOnce compares each active venue's visible categories at now with the previous tick
// and publishes a menu-changed frame for every venue whose set changed. It returns the
// venues it published to.
func (s *Service) TickOnce(ctx context.Context, now time.Time) []int64 {
	venues := s.publisher.Venues()

	s.mu.Lock()
	defer s.mu.Unlock()

	active := make(map[int64]struct{}, len(venues))
	var changed []int64
	for _, venueID := range venues {
		active[venueID] = struct{}{}

		ids, err := s.visibleIDs(ctx, venueID, now)
		if err != nil {
			zap.L().Warn("menu watcher skipped venue", zap.Int64("venue_id", venueID), zap.Error(err))
			continue
		}

		prev, seen := s.last[venueID]
		s.last[venueID] = ids
		if !seen || equalIDs(prev, ids) {
			continue
		}

		n, err := s.publisher.PublishVenue(venueID, gateway.MenuChangedFrame{
			Type:        gateway.FrameMenuChanged,
			VenueID:     venueID,
			CategoryIDs: ids,
		})
		if err != nil {
			zap.L().Error("publish menu change", zap.Int64("venue_id", venueID), zap.Error(err))
			continue
		}
		zap.L().Info("menu changed", zap.Int64("venue_id", venueID), zap.Int("recipients", n))
		changed = append(changed, venueID)
	}

	// Forget venues nobody is seated at any more.
	for venueID := range s.last {
		if _, ok := active[venueID]; !ok {
			delete(s.last, venueID)
		}
	}
	return changed
}

func (s *Service) visibleIDs(ctx context.Context, venueID int64, now time.Time) ([]int64, error) {
	venue, err := s.source.GetVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	records, err := s.source.ListCategories(ctx, venueID)
	if err != nil {
		return nil, err
	}
	menu := availability.FilterVisible(availability.FromModel(records), now, venue.OrderingEnabled)
	return menu.VisibleIDs(), nil
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
