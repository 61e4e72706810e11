package gateway

import (
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Poller tracks leases for participants that use the request/response endpoints instead
// of a websocket. A participant whose lease is not refreshed within the TTL is disconnected
// through the Gateway, exactly like a closed websocket.
type Poller struct {
	gw     *Gateway
	ttl    time.Duration
	leases *cache.Cache
}

// NewPoller creates a Poller whose leases expire after ttl.
func NewPoller(gw *Gateway, ttl time.Duration) *Poller {
	if ttl <= 0 {
		ttl = 45 * time.Second
	}
	cleanup := ttl / 3
	if cleanup < time.Second {
		cleanup = time.Second
	}

	p := &Poller{
		gw:     gw,
		ttl:    ttl,
		leases: cache.New(ttl, cleanup),
	}
	p.leases.OnEvicted(func(participantID string, _ interface{}) {
		if left := gw.Disconnect(participantID); len(left) > 0 {
			zap.L().Info("polling lease expired",
				zap.String("participant_id", participantID),
				zap.Int("tables", len(left)))
		}
	})
	return p
}

// Touch starts or renews the lease of participantID.
func (p *Poller) Touch(participantID string) {
	p.leases.Set(participantID, time.Now(), p.ttl)
}

// Active reports whether participantID holds an unexpired lease.
func (p *Poller) Active(participantID string) bool {
	_, ok := p.leases.Get(participantID)
	return ok
}

// Expire drops the lease of participantID and disconnects it immediately.
func (p *Poller) Expire(participantID string) {
	// Delete triggers OnEvicted for present keys.
	if _, ok := p.leases.Get(participantID); ok {
		p.leases.Delete(participantID)
		return
	}
	p.gw.Disconnect(participantID)
}

// Sweep evicts every expired lease now instead of waiting for the janitor.
func (p *Poller) Sweep() {
	p.leases.DeleteExpired()
}
