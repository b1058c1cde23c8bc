// Package notify collects notification intents raised while a command runs so they
// can be dispatched once the command's unit of work has committed.
package notify

import (
	"context"
	"sync"

	domainnotification "venuebook/internal/domain/notification"
)

type Collector struct {
	mu      sync.Mutex
	intents []domainnotification.Intent
}

func (c *Collector) Add(intents ...domainnotification.Intent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intents = append(c.intents, intents...)
}

// Drain returns the collected intents and empties the collector.
func (c *Collector) Drain() []domainnotification.Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.intents
	c.intents = nil
	return out
}

type ctxKey struct{}

// WithCollector returns a context carrying a new collector. An existing collector is reused
// so nested dispatches report to the outermost command.
func WithCollector(ctx context.Context) (context.Context, *Collector, bool) {
	if c, ok := ctx.Value(ctxKey{}).(*Collector); ok {
		return ctx, c, false
	}
	c := &Collector{}
	return context.WithValue(ctx, ctxKey{}, c), c, true
}

// Raise records intents on the collector in ctx. Without a collector the intents are dropped.
func Raise(ctx context.Context, intents ...domainnotification.Intent) bool {
	c, ok := ctx.Value(ctxKey{}).(*Collector)
	if !ok {
		return false
	}
	c.Add(intents...)
	return true
}
