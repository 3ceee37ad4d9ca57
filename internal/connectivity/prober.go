package connectivity

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Probe reports whether the remote side answered.
type Probe func(ctx context.Context) bool

// Prober derives the verdict by polling a Probe. Until the first probe
// completes the verdict is offline.
type Prober struct {
	broadcaster
	probe    Probe
	interval time.Duration
	logger   *zap.Logger
}

func NewProber(probe Probe, interval time.Duration, logger *zap.Logger) *Prober {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		probe:    probe,
		interval: interval,
		logger:   logger,
	}
}

// Check runs one probe and updates the verdict.
func (p *Prober) Check(ctx context.Context) bool {
	online := p.probe(ctx)
	if p.set(online) {
		p.logger.Info("connectivity changed", zap.Bool("online", online))
	}
	return online
}

// Run probes every interval until ctx is cancelled.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}
