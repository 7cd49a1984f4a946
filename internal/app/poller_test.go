package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/shopdeck/internal/events"
	"github.com/five82/shopdeck/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 30 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 30 * time.Second},
		{"negative failures", -1, 30 * time.Second},
		{"one failure", 1, time.Minute},
		{"two failures", 2, 2 * time.Minute},
		{"three failures", 3, 4 * time.Minute},
		{"four failures capped", 4, 5 * time.Minute}, // Would be 8m, capped to 5m
		{"many failures capped", 40, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

type fakeBadges struct {
	lowStock atomic.Int32
	pending  atomic.Int64
	calls    atomic.Int32
	err      error
}

func (f *fakeBadges) LowStockCount(context.Context, int) (int, error) {
	f.calls.Add(1)
	return int(f.lowStock.Load()), f.err
}

func (f *fakeBadges) PendingOrders(context.Context) (int64, error) {
	return f.pending.Load(), f.err
}

func TestPollerRefreshStoresBadges(t *testing.T) {
	src := &fakeBadges{}
	src.lowStock.Store(4)
	src.pending.Store(9)
	p := &Poller{Store: &state.Store{}, Source: src, Threshold: 5}

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap := p.Store.Snapshot()
	if snap.LowStockCount != 4 || snap.PendingOrders != 9 {
		t.Fatalf("badges = %#v", snap.Badges)
	}

	src.err = errors.New("offline")
	if err := p.Refresh(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	snap = p.Store.Snapshot()
	if snap.LowStockCount != 4 || snap.ConsecutiveFailures != 1 {
		t.Fatalf("error should keep last badges: %#v", snap)
	}
}

func TestPollerReactsToLowStockEvents(t *testing.T) {
	src := &fakeBadges{}
	src.lowStock.Store(1)
	bus := &events.Bus{}
	p := &Poller{Store: &state.Store{}, Source: src, Bus: bus, Interval: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	waitFor(t, func() bool { return p.Store.Snapshot().HasBadges })
	waitFor(t, func() bool { return bus.LowStockChanged.Subscribers() == 1 })

	src.lowStock.Store(6)
	bus.LowStockChanged.Publish(events.LowStockChanged{ProductID: 3, Reason: "toggle"})
	waitFor(t, func() bool { return p.Store.Snapshot().LowStockCount == 6 })
}

func TestPollerWaitsUntilReady(t *testing.T) {
	src := &fakeBadges{}
	var ready atomic.Bool
	p := &Poller{Store: &state.Store{}, Source: src, Interval: 10 * time.Millisecond, Ready: ready.Load}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = p.Run(ctx)
	if src.calls.Load() != 0 {
		t.Fatalf("poller fetched %d times before ready", src.calls.Load())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}
