package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"menu-availability-backend/internal/model"
	"menu-availability-backend/internal/session"
	"menu-availability-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Payload is the JSON body delivered to the service worker.
type Payload struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	VenueID int64  `json:"venueId"`
	TableID int64  `json:"tableId"`
}

// WorkerPool sends seat-available notifications for tables that stop being full.
type WorkerPool struct {
	size    int
	jobs    chan session.Key
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan session.Key, size*4),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	zap.L().Debug("notification worker started", zap.Int("worker", id))
	for {
		select {
		case key := <-wp.jobs:
			wp.notifyTable(ctx, key)
		case <-ctx.Done():
			zap.L().Debug("notification worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues key without blocking. It reports false when the queue is full.
func (wp *WorkerPool) Dispatch(key session.Key) bool {
	select {
	case wp.jobs <- key:
		return true
	default:
		zap.L().Warn("notification queue full, dropping job", zap.Stringer("table", key))
		return false
	}
}

// OccupancyChanged dispatches a job when a leave frees the last seat of a full table.
func (wp *WorkerPool) OccupancyChanged(ev session.Event) {
	if ev.Change != session.Left {
		return
	}
	if ev.Occupancy.UserCount == ev.Occupancy.Capacity-1 {
		wp.Dispatch(ev.Key)
	}
}

func (wp *WorkerPool) notifyTable(ctx context.Context, key session.Key) {
	subscriptions, err := wp.store.SubscriptionsForTable(ctx, key.TableID)
	if err != nil {
		zap.L().Error("fetch subscriptions", zap.Stringer("table", key), zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	label := strconv.FormatInt(key.TableID, 10)
	if l, err := wp.store.TableLabel(ctx, key.TableID); err != nil {
		zap.L().Warn("fetch table label", zap.Stringer("table", key), zap.Error(err))
	} else if l != "" {
		label = l
	}

	payload, err := json.Marshal(Payload{
		Title:   "A seat is free",
		Body:    "Table " + label + " has a free seat.",
		VenueID: key.VenueID,
		TableID: key.TableID,
	})
	if err != nil {
		zap.L().Error("encode notification payload", zap.Error(err))
		return
	}

	zap.L().Info("sending seat notifications", zap.Stringer("table", key), zap.Int("count", len(subscriptions)))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		zap.L().Warn("send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		zap.L().Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			zap.L().Error("delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
