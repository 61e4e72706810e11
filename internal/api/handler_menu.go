package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"menu-availability-backend/internal/availability"
	"menu-availability-backend/internal/mw"
	"menu-availability-backend/internal/schedule"
	"menu-availability-backend/internal/store"
)

type menuResponse struct {
	VenueID    int64                   `json:"venueId"`
	CanOrder   bool                    `json:"canOrder"`
	Categories []availability.Category `json:"categories"`
}

type scheduleStatus struct {
	CategoryID   int64         `json:"categoryId"`
	Name         string        `json:"name"`
	ScheduleType schedule.Kind `json:"scheduleType"`
	IsActive     bool          `json:"isActive"`
	schedule.Projection
}

type previewResponse struct {
	menuResponse
	At        time.Time        `json:"at"`
	Schedules []scheduleStatus `json:"schedules"`
}

// loadMenu fetches the venue and its categories, writing the error response itself.
func (h *Handler) loadMenu(c *gin.Context, venueID int64) (bool, []availability.Category, bool) {
	ctx := c.Request.Context()
	venue, err := h.store.GetVenue(ctx, venueID)
	if err != nil {
		if errors.Is(err, store.ErrVenueNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "venue not found"})
		} else {
			zap.L().Error("load venue", zap.Int64("venue_id", venueID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load venue"})
		}
		return false, nil, false
	}

	records, err := h.store.ListCategories(ctx, venueID)
	if err != nil {
		zap.L().Error("load categories", zap.Int64("venue_id", venueID), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load menu"})
		return false, nil, false
	}
	return venue.OrderingEnabled, availability.FromModel(records), true
}

// GetMenu handles GET /api/venues/:venue_id/menu.
func (h *Handler) GetMenu(c *gin.Context) {
	venueID, ok := pathID(c, "venue_id")
	if !ok {
		return
	}
	canOrder, categories, ok := h.loadMenu(c, venueID)
	if !ok {
		return
	}

	now := h.now()
	if next, ok := h.nextBoundary(categories, now); ok {
		mw.LimitCacheTTL(c, next.Sub(now))
	}
	menu := availability.FilterVisible(categories, now, canOrder)
	c.JSON(http.StatusOK, menuResponse{VenueID: venueID, CanOrder: menu.CanOrder, Categories: menu.Categories})
}

// nextBoundary returns the earliest instant after now at which a category can appear or
// disappear. Date based schedules without a time window only flip at midnight.
func (h *Handler) nextBoundary(categories []availability.Category, now time.Time) (time.Time, bool) {
	var (
		next  time.Time
		found bool
	)
	consider := func(t time.Time) {
		if !found || t.Before(next) {
			next, found = t, true
		}
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())

	for _, cat := range categories {
		if !cat.IsActive {
			continue
		}
		if p := h.projector.Project(cat.Schedule, now); p.NextChange != nil {
			consider(*p.NextChange)
			continue
		}
		switch cat.Schedule.(type) {
		case schedule.DateRange, schedule.Seasonal:
			consider(midnight)
		}
	}
	return next, found
}

// GetMenuPreview handles GET /api/venues/:venue_id/menu/preview?at=RFC3339.
// Schedules are evaluated against the wall clock of at in the offset it was given with.
func (h *Handler) GetMenuPreview(c *gin.Context) {
	venueID, ok := pathID(c, "venue_id")
	if !ok {
		return
	}

	at := h.now()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'at' timestamp format. Use RFC3339."})
			return
		}
		at = parsed
	}

	canOrder, categories, ok := h.loadMenu(c, venueID)
	if !ok {
		return
	}

	menu := availability.FilterVisible(categories, at, canOrder)
	statuses := make([]scheduleStatus, 0, len(categories))
	for _, cat := range categories {
		statuses = append(statuses, scheduleStatus{
			CategoryID:   cat.ID,
			Name:         cat.Name,
			ScheduleType: cat.ScheduleType,
			IsActive:     cat.IsActive,
			Projection:   h.projector.Project(cat.Schedule, at),
		})
	}

	c.JSON(http.StatusOK, previewResponse{
		menuResponse: menuResponse{VenueID: venueID, CanOrder: menu.CanOrder, Categories: menu.Categories},
		At:           at,
		Schedules:    statuses,
	})
}
