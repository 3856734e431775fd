package usecase

import (
	"sync"
	"time"

	"github.com/homedocks/homedocks-bot/pkg/domain/model"
)

// confirmationRegistry holds pending staff decisions keyed by the message
// that carries their buttons. Resolve and expiry both take the entry out of
// the registry, so exactly one of them wins.
type confirmationRegistry struct {
	mu      sync.Mutex
	pending map[string]*pendingConfirmation
	closed  bool
}

type pendingConfirmation struct {
	confirmation *model.ClosureConfirmation
	timer        *time.Timer
}

func newConfirmationRegistry() *confirmationRegistry {
	return &confirmationRegistry{
		pending: make(map[string]*pendingConfirmation),
	}
}

// register stores c and calls onExpire with it once its TTL elapsed unless
// it was taken before. It returns false after close.
func (r *confirmationRegistry) register(c *model.ClosureConfirmation, onExpire func(*model.ClosureConfirmation)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}

	p := &pendingConfirmation{confirmation: c}
	p.timer = time.AfterFunc(c.TTL, func() {
		if expired, ok := r.take(c.MessageID); ok {
			onExpire(expired)
		}
	})
	r.pending[c.MessageID] = p
	return true
}

// take removes and returns the pending confirmation of messageID
func (r *confirmationRegistry) take(messageID string) (*model.ClosureConfirmation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[messageID]
	if !ok {
		return nil, false
	}
	delete(r.pending, messageID)
	p.timer.Stop()
	return p.confirmation, true
}

func (r *confirmationRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// close stops every timer. Pending confirmations are dropped.
func (r *confirmationRegistry) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.pending {
		p.timer.Stop()
		delete(r.pending, id)
	}
	r.closed = true
}
