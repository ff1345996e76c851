// Package health runs the scheduled gateway connectivity probe. The probe is
// owned by the hosting process and decoupled from request handling; request
// handlers only read the latest result from an immutable status snapshot.
package health

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Pinger is the slice of the gateway client the checker needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is one immutable probe result.
type Status struct {
	Reachable bool          `json:"reachable"`
	CheckedAt time.Time     `json:"checkedAt"`
	Latency   time.Duration `json:"latency"`
	Error     string        `json:"error,omitempty"`
}

// Checker probes the customs portal on a fixed interval and publishes the
// latest result through a read-only cell.
type Checker struct {
	pinger   Pinger
	interval time.Duration
	logger   *slog.Logger
	cell     atomic.Value // holds Status
}

// NewChecker creates a checker. The first probe runs when Run starts.
func NewChecker(pinger Pinger, interval time.Duration, logger *slog.Logger) *Checker {
	c := &Checker{pinger: pinger, interval: interval, logger: logger}
	c.cell.Store(Status{})
	return c
}

// Run blocks until the context is cancelled, probing once per interval.
func (c *Checker) Run(ctx context.Context) {
	c.probe(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.probe(ctx)
		}
	}
}

// Latest returns the most recent probe result.
func (c *Checker) Latest() Status {
	return c.cell.Load().(Status)
}

func (c *Checker) probe(ctx context.Context) {
	start := time.Now()
	err := c.pinger.Ping(ctx)
	status := Status{
		Reachable: err == nil,
		CheckedAt: start,
		Latency:   time.Since(start),
	}
	if err != nil {
		status.Error = err.Error()
		c.logger.Warn("Gateway connectivity probe failed", slog.String("error", err.Error()))
	}
	c.cell.Store(status)
}
