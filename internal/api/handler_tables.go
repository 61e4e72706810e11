package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"menu-availability-backend/internal/session"
	"menu-availability-backend/internal/store"
)

type joinTableRequest struct {
	ParticipantID string `json:"participantId"`
	Capacity      int    `json:"capacity"`
}

func (r joinTableRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ParticipantID, is.UUID),
		validation.Field(&r.Capacity, validation.Min(0), validation.Max(64)),
	)
}

type leaveTableRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

func (r leaveTableRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ParticipantID, validation.Required, is.UUID),
	)
}

type joinTableResponse struct {
	ParticipantID string            `json:"participantId"`
	Occupancy     session.Occupancy `json:"occupancy"`
}

type tableFullResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Capacity int    `json:"capacity"`
	Current  int    `json:"current"`
}

func tableKey(c *gin.Context) (session.Key, bool) {
	venueID, ok := pathID(c, "venue_id")
	if !ok {
		return session.Key{}, false
	}
	tableID, ok := pathID(c, "table_id")
	if !ok {
		return session.Key{}, false
	}
	return session.Key{VenueID: venueID, TableID: tableID}, true
}

// JoinTable handles POST /api/venues/:venue_id/tables/:table_id/join for polling clients.
func (h *Handler) JoinTable(c *gin.Context) {
	key, ok := tableKey(c)
	if !ok {
		return
	}

	var req joinTableRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participantID := req.ParticipantID
	if participantID == "" {
		participantID = uuid.NewString()
	}

	occ, err := h.gw.Join(c.Request.Context(), key, participantID, req.Capacity)
	if err != nil {
		var full *session.TableFullError
		switch {
		case errors.As(err, &full):
			c.JSON(http.StatusConflict, tableFullResponse{
				Error:    session.ErrTableFull.Error(),
				Message:  "This table is full",
				Capacity: full.Capacity,
				Current:  full.Current,
			})
		case errors.Is(err, store.ErrTableNotFound), errors.Is(err, store.ErrVenueNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		default:
			zap.L().Error("join table", zap.Stringer("table", key), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join table"})
		}
		return
	}

	if h.poller != nil {
		h.poller.Touch(participantID)
	}
	c.JSON(http.StatusOK, joinTableResponse{ParticipantID: participantID, Occupancy: occ})
}

// LeaveTable handles POST /api/venues/:venue_id/tables/:table_id/leave. Leaving twice is fine.
func (h *Handler) LeaveTable(c *gin.Context) {
	key, ok := tableKey(c)
	if !ok {
		return
	}

	var req leaveTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	occ := h.gw.Leave(c.Request.Context(), key, req.ParticipantID)
	c.JSON(http.StatusOK, gin.H{"occupancy": occ})
}

// GetOccupancy handles GET /api/venues/:venue_id/tables/:table_id/occupancy. A participantId
// query parameter renews that participant's polling lease.
func (h *Handler) GetOccupancy(c *gin.Context) {
	key, ok := tableKey(c)
	if !ok {
		return
	}

	if id := c.Query("participantId"); id != "" {
		if err := validation.Validate(id, is.UUID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "participantId: " + err.Error()})
			return
		}
		if h.poller != nil {
			h.poller.Touch(id)
		}
	}

	occ, err := h.gw.Occupancy(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrTableNotFound) || errors.Is(err, store.ErrVenueNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
			return
		}
		zap.L().Error("table occupancy", zap.Stringer("table", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read occupancy"})
		return
	}
	c.JSON(http.StatusOK, occ)
}
