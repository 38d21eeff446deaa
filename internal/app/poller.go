package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/sprinkler/internal/model"
	"github.com/five82/sprinkler/internal/pins"
	"github.com/five82/sprinkler/internal/sprinkler"
	"github.com/five82/sprinkler/internal/state"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// Source is the part of the controller API the poller reads.
type Source interface {
	FetchPins(ctx context.Context) ([]model.Pin, error)
	ListSchedules(ctx context.Context) ([]model.Schedule, error)
}

// Poller refreshes the store from the controller in the background.
type Poller struct {
	store    *state.Store
	health   sprinkler.HealthChecker
	source   Source
	catalog  pins.Catalog
	interval time.Duration
	log      *zap.Logger
	kick     chan struct{}
}

// NewPoller builds a poller. A non-positive interval uses the default.
func NewPoller(store *state.Store, health sprinkler.HealthChecker, source Source, catalog pins.Catalog, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		store:    store,
		health:   health,
		source:   source,
		catalog:  catalog,
		interval: interval,
		log:      log,
		kick:     make(chan struct{}, 1),
	}
}

// Start launches the background goroutine and returns immediately. While
// the controller is failing, the wait between polls grows exponentially.
func (p *Poller) Start(ctx context.Context) {
	go func() {
		for {
			p.Refresh(ctx)
			wait := calculateBackoff(p.store.Snapshot().ConsecutiveFailures, p.interval)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-p.kick:
				timer.Stop()
			case <-timer.C:
			}
		}
	}()
}

// Trigger asks the running poller to refresh now. It never blocks.
func (p *Poller) Trigger() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Refresh performs one poll and records the outcome in the store.
func (p *Poller) Refresh(ctx context.Context) error {
	status, err := p.health.Check(ctx)
	if err != nil {
		p.store.Update(nil, nil, nil, err)
		p.log.Warn("status poll failed", zap.Error(err))
		return err
	}
	remote, err := p.source.FetchPins(ctx)
	if err != nil {
		p.store.Update(nil, nil, nil, err)
		p.log.Warn("pin poll failed", zap.Error(err))
		return err
	}
	schedules, err := p.source.ListSchedules(ctx)
	if err != nil {
		p.store.Update(nil, nil, nil, err)
		p.log.Warn("schedule poll failed", zap.Error(err))
		return err
	}

	if unknown := p.catalog.Unknown(remote); len(unknown) > 0 {
		p.log.Warn("controller reported pins outside the catalog", zap.Ints("pins", unknown))
	}
	merged := p.catalog.Merge(p.store.Pins(), remote)
	p.store.Update(&status, merged, schedules, nil)
	p.log.Debug("poll ok",
		zap.Int("pins", len(merged)),
		zap.Int("schedules", len(schedules)))
	return nil
}

// calculateBackoff returns the wait before the next poll: base when healthy,
// doubling per consecutive failure up to maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	limit := maxBackoff
	if base > limit {
		limit = base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= limit {
			return limit
		}
	}
	return wait
}
