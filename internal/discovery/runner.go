package discovery

import (
	"context"
	"time"

	"github.com/nokia/mcp-redfish/internal/hosts"
	"github.com/nokia/mcp-redfish/pkg/logging"
)

// Runner drives discovery on a fixed schedule and publishes each
// cycle's results into the host registry. It runs independently of
// request serving and never lets a cycle failure escape the loop.
type Runner struct {
	registry *hosts.Registry
	interval time.Duration
	timeout  time.Duration
}

// NewRunner builds a runner publishing into registry every interval,
// with the given per-cycle probe timeout.
func NewRunner(registry *hosts.Registry, interval, timeout time.Duration) *Runner {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Runner{
		registry: registry,
		interval: interval,
		timeout:  timeout,
	}
}

// Run executes one discovery cycle immediately, then one per interval,
// until ctx is cancelled. Always returns nil: discovery failures are
// logged and the next cycle proceeds on schedule.
func (r *Runner) Run(ctx context.Context) error {
	logging.Info("Discovery", "Discovery loop started (interval %s)", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			logging.Info("Discovery", "Discovery loop stopped")
			return nil
		case <-ticker.C:
			r.cycle(ctx)
		}
	}
}

func (r *Runner) cycle(ctx context.Context) {
	d := &Discoverer{Timeout: r.timeout}
	found := d.Discover(ctx)
	r.registry.ReplaceDiscovered(found)
	logging.Info("Discovery", "Discovery cycle complete, %d endpoints", len(found))
}
