package driver

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultTickLength = time.Second * 2
)

// Ticker is anything advanced on the driver's schedule.
type Ticker interface {
	Tick(context.Context) error
}

// RealmDriver runs its tickers on a fixed schedule. A tick runs every ticker
// in order and the next tick never starts before the previous one finished.
type RealmDriver struct {
	tickLength time.Duration
	tickers    []Ticker
}

func NewRealmDriver(tickers []Ticker, opts ...RealmDriverOpt) *RealmDriver {
	d := &RealmDriver{
		tickLength: DefaultTickLength,
		tickers:    tickers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *RealmDriver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	slog.InfoContext(ctx, "driver started", "tick_length", d.tickLength)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.Tick(ctx); err != nil {
				slog.ErrorContext(ctx, "tick failed", "error", err)
			}
		}
	}
}

// Tick runs every ticker once. A failing ticker does not keep the others
// from running; the first error is returned.
func (d *RealmDriver) Tick(ctx context.Context) error {
	var first error
	for _, t := range d.tickers {
		if err := t.Tick(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
