package sse

import (
	"log/slog"
	"slices"
	"sync"
)

// Registry tracks the open push channels per user. A user may hold several
// at once (multiple tabs or devices). All iteration happens over snapshot
// copies so senders never hold the registry lock across a blocking write.
type Registry struct {
	mu       sync.RWMutex
	channels map[int64][]*Channel
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		channels: make(map[int64][]*Channel),
		logger:   logger,
	}
}

// Open creates a channel for userID on the given transport and registers it.
// The channel removes itself from the registry when it closes, whatever the
// cause. A "connected" acknowledgement frame is sent immediately; if that
// send fails the channel is already pruned and callers see it closed.
func (r *Registry) Open(userID int64, send SendFunc) *Channel {
	ch := newChannel(userID, send, r.remove)

	r.mu.Lock()
	r.channels[userID] = append(r.channels[userID], ch)
	r.mu.Unlock()

	r.logger.Debug("channel opened", "user_id", userID, "channels", r.CountFor(userID))

	// Initial ack. Failure is not fatal here; a dead transport will be
	// pruned by the failed send itself or by the next heartbeat.
	if err := ch.Send(connectedEvent()); err != nil {
		r.logger.Debug("connected ack failed", "user_id", userID, "error", err)
	}

	return ch
}

// remove detaches a channel from its user's collection. Idempotent: removing
// an already-absent channel is a no-op.
func (r *Registry) remove(ch *Channel, reason string) {
	r.mu.Lock()
	chans := r.channels[ch.userID]
	i := slices.Index(chans, ch)
	if i >= 0 {
		chans = slices.Delete(chans, i, i+1)
		if len(chans) == 0 {
			delete(r.channels, ch.userID)
		} else {
			r.channels[ch.userID] = chans
		}
	}
	r.mu.Unlock()

	if i >= 0 {
		r.logger.Debug("channel closed", "user_id", ch.userID, "reason", reason)
	}
}

// ChannelsFor returns a snapshot copy of the user's open channels, safe to
// iterate while subscribes and prunes happen concurrently.
func (r *Registry) ChannelsFor(userID int64) []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.channels[userID])
}

// Channels returns a snapshot of every open channel across all users.
func (r *Registry) Channels() []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Channel
	for _, chans := range r.channels {
		all = append(all, chans...)
	}
	return all
}

// CountFor returns the number of open channels for one user.
func (r *Registry) CountFor(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[userID])
}

// Count returns the total number of open channels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, chans := range r.channels {
		n += len(chans)
	}
	return n
}
