package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"menu-availability-backend/internal/session"
	"menu-availability-backend/internal/store"
)

const (
	maxMessageSize = 4096

	inboundJoin  = "join-table"
	inboundLeave = "leave-table"
)

// WSOptions tunes the websocket transport.
type WSOptions struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PongWait     time.Duration
	// CheckOrigin defaults to accepting every origin.
	CheckOrigin func(r *http.Request) bool
}

func (o *WSOptions) applyDefaults() {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.CheckOrigin == nil {
		o.CheckOrigin = func(*http.Request) bool { return true }
	}
}

// inboundMessage is a frame sent by a guest device.
type inboundMessage struct {
	Type     string `json:"type"`
	VenueID  int64  `json:"venueId"`
	TableID  int64  `json:"tableId"`
	Capacity int    `json:"capacity"`
}

func (m inboundMessage) Validate() error {
	// Leaving with both ids zero means leaving every table.
	idRules := []validation.Rule{validation.Min(int64(0))}
	if m.Type == inboundJoin {
		idRules = append([]validation.Rule{validation.Required}, idRules...)
	}
	return validation.ValidateStruct(&m,
		validation.Field(&m.Type, validation.Required, validation.In(inboundJoin, inboundLeave)),
		validation.Field(&m.VenueID, idRules...),
		validation.Field(&m.TableID, idRules...),
		validation.Field(&m.Capacity, validation.Min(0)),
	)
}

// WSHandler upgrades HTTP requests to websocket connections attached to a Gateway.
type WSHandler struct {
	gw       *Gateway
	opts     WSOptions
	upgrader websocket.Upgrader
}

// NewWSHandler creates the websocket transport for gw.
func NewWSHandler(gw *Gateway, opts WSOptions) *WSHandler {
	opts.applyDefaults()
	return &WSHandler{
		gw:   gw,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
	}
}

// client is one websocket connection. Each connection is one participant.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Send queues frame unless the buffer is full or the connection is gone.
func (c *client) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// ServeWS handles GET /ws.
func (h *WSHandler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.opts.SendBuffer),
		done: make(chan struct{}),
	}
	h.gw.Attach(cl.id, cl)
	zap.L().Debug("websocket connected", zap.String("participant_id", cl.id))

	go h.writePump(cl)
	h.readPump(c.Request.Context(), cl)
}

func (h *WSHandler) readPump(ctx context.Context, cl *client) {
	defer func() {
		h.gw.Disconnect(cl.id)
		close(cl.done)
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	})

	for {
		_, raw, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Info("websocket closed", zap.String("participant_id", cl.id), zap.Error(err))
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.replyError(cl, "malformed message")
			continue
		}
		if err := msg.Validate(); err != nil {
			h.replyError(cl, err.Error())
			continue
		}
		h.dispatch(ctx, cl, msg)
	}
}

func (h *WSHandler) dispatch(ctx context.Context, cl *client, msg inboundMessage) {
	key := session.Key{VenueID: msg.VenueID, TableID: msg.TableID}

	switch msg.Type {
	case inboundJoin:
		_, err := h.gw.Join(ctx, key, cl.id, msg.Capacity)
		switch {
		case err == nil, errors.Is(err, session.ErrTableFull):
			// The gateway already answered with joined or table-full.
		case errors.Is(err, store.ErrTableNotFound), errors.Is(err, store.ErrVenueNotFound):
			h.replyError(cl, err.Error())
		default:
			zap.L().Error("join failed", zap.String("participant_id", cl.id), zap.Stringer("table", key), zap.Error(err))
			h.replyError(cl, "could not join table")
		}
	case inboundLeave:
		if msg.VenueID == 0 && msg.TableID == 0 {
			h.gw.LeaveAll(cl.id)
			return
		}
		h.gw.Leave(ctx, key, cl.id)
	}
}

func (h *WSHandler) replyError(cl *client, message string) {
	_ = h.gw.SendTo(cl.id, ErrorFrame{Type: FrameError, Message: message})
}

func (h *WSHandler) writePump(cl *client) {
	ticker := time.NewTicker(h.opts.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case frame := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := cl.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-cl.done:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
