package sse

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultProbeInterval = 25 * time.Second

// Prober keeps every open channel warm with periodic ping frames. The pings
// stop intermediary proxies from dropping idle connections, and a channel
// that fails its ping is closed and pruned on the spot, so stale connections
// never accumulate between reminders.
type Prober struct {
	mu       sync.RWMutex
	registry *Registry
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewProber(registry *Registry, logger *slog.Logger) *Prober {
	return &Prober{
		registry: registry,
		interval: defaultProbeInterval,
		logger:   logger,
	}
}

// Start begins the heartbeat loop.
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.mu.Unlock()

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.probe()
			}
		}
	}()
}

// Stop gracefully stops the heartbeat loop.
func (p *Prober) Stop() {
	p.mu.RLock()
	cancel := p.cancel
	done := p.done
	p.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (p *Prober) probe() {
	chans := p.registry.Channels()
	if len(chans) == 0 {
		return
	}

	ev := pingEvent()
	pruned := 0
	for _, ch := range chans {
		// A failed send closes the channel, which removes it from
		// the registry.
		if err := ch.Send(ev); err != nil {
			pruned++
		}
	}
	if pruned > 0 {
		p.logger.Debug("heartbeat pruned dead channels", "pruned", pruned, "probed", len(chans))
	}
}
