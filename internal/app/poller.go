package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/events"
	"github.com/five82/shopdeck/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
	// readyRecheck is how soon a poller that is not ready looks again, so badges
	// appear shortly after sign-in.
	readyRecheck = 2 * time.Second
)

// BadgeSource fetches the header counters.
type BadgeSource interface {
	LowStockCount(ctx context.Context, threshold int) (int, error)
	PendingOrders(ctx context.Context) (int64, error)
}

// clientBadges reads badges through the backend gateways.
type clientBadges struct {
	client *backend.Client
}

func (c clientBadges) LowStockCount(ctx context.Context, threshold int) (int, error) {
	return c.client.Products().LowStockCount(ctx, threshold)
}

func (c clientBadges) PendingOrders(ctx context.Context) (int64, error) {
	stats, err := c.client.Orders().Stats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.Pending, nil
}

// Poller keeps the badge store fresh.
type Poller struct {
	Store     *state.Store
	Source    BadgeSource
	Bus       *events.Bus
	Threshold int
	Interval  time.Duration
	Logger    *zap.Logger
	// Ready gates polling; nil means always. The console sets it to "has a token"
	// so an unauthenticated console does not keep hitting the backend.
	Ready func() bool
}

// Run polls until ctx is cancelled. A LowStockChanged event refreshes the
// low-stock badge immediately. Failures back off exponentially.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	log := p.logger()

	var changes <-chan events.LowStockChanged
	if p.Bus != nil {
		ch, cancel := p.Bus.LowStockChanged.Subscribe()
		defer cancel()
		changes = ch
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if !p.ready() {
				continue
			}
			log.Debug("low stock changed", zap.Int64("product_id", evt.ProductID), zap.String("reason", evt.Reason))
			count, err := p.Source.LowStockCount(ctx, p.Threshold)
			p.Store.UpdateLowStock(count, err)
		case <-timer.C:
			if !p.ready() {
				timer.Reset(min(interval, readyRecheck))
				continue
			}
			if err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
				log.Warn("badge poll failed", zap.Error(err))
			}
			timer.Reset(calculateBackoff(p.Store.Snapshot().ConsecutiveFailures, interval))
		}
	}
}

// Refresh fetches both counters in parallel and stores them.
func (p *Poller) Refresh(ctx context.Context) error {
	var badges state.Badges
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := p.Source.LowStockCount(gctx, p.Threshold)
		badges.LowStockCount = count
		return err
	})
	g.Go(func() error {
		pending, err := p.Source.PendingOrders(gctx)
		badges.PendingOrders = pending
		return err
	})
	err := g.Wait()
	p.Store.Update(badges, err)
	return err
}

func (p *Poller) ready() bool {
	return p.Ready == nil || p.Ready()
}

func (p *Poller) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger.Named("poller")
}

// calculateBackoff doubles the interval per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
