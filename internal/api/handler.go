package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"menu-availability-backend/internal/gateway"
	"menu-availability-backend/internal/schedule"
	"menu-availability-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	gw        *gateway.Gateway
	poller    *gateway.Poller
	projector schedule.Projector
	webpush   *webpush.Options
	now       func() time.Time
}

// NewHandler creates a new API handler. poller and webpushOptions may be nil.
func NewHandler(s store.Store, gw *gateway.Gateway, poller *gateway.Poller, projector schedule.Projector, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:     s,
		gw:        gw,
		poller:    poller,
		projector: projector,
		webpush:   webpushOptions,
		now:       time.Now,
	}
}

// Healthz reports liveness and checks the database connection when there is one.
func (h *Handler) Healthz(c *gin.Context) {
	if h.store != nil && h.store.DB() != nil {
		sqlDB, err := h.store.DB().DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "tables": len(h.gw.Registry().Keys())})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
