package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
	"github.com/ImOrenge/voicemacropro-sub000/internal/ports"
)

// Poller samples system metrics on a fixed interval, publishes each
// sample to the event sink, and retains the latest for the dashboard.
type Poller struct {
	sampler  Sampler
	events   ports.EventSink
	interval time.Duration

	mu     sync.Mutex
	latest domain.SystemMetrics
}

func NewPoller(sampler Sampler, events ports.EventSink, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{sampler: sampler, events: events, interval: interval}
}

// Run blocks until ctx is cancelled. One sample is taken immediately
// so the dashboard never starts empty.
func (p *Poller) Run(ctx context.Context) {
	p.publish()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publish()
		}
	}
}

// Latest returns the most recent sample.
func (p *Poller) Latest() domain.SystemMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

func (p *Poller) publish() {
	sample := p.sampler.Sample()

	p.mu.Lock()
	p.latest = sample
	p.mu.Unlock()

	p.events.MetricsUpdated(sample)
}
