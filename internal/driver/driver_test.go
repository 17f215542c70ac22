package driver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

type countingTicker struct {
	ticks   atomic.Int32
	running atomic.Int32
	overlap atomic.Bool
	err     error
	delay   time.Duration
}

func (c *countingTicker) Tick(context.Context) error {
	if c.running.Add(1) > 1 {
		c.overlap.Store(true)
	}
	defer c.running.Add(-1)

	time.Sleep(c.delay)
	c.ticks.Add(1)
	return c.err
}

func TestRealmDriver_Tick(t *testing.T) {
	tests := map[string]struct {
		tickers []*countingTicker
		expErr  string
	}{
		"all succeed": {
			tickers: []*countingTicker{{}, {}},
		},
		"failure does not stop later tickers": {
			tickers: []*countingTicker{{err: errors.New("boom")}, {}},
			expErr:  "boom",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tickers := make([]Ticker, len(tt.tickers))
			for i, c := range tt.tickers {
				tickers[i] = c
			}

			err := NewRealmDriver(tickers).Tick(context.Background())
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			for _, c := range tt.tickers {
				testutil.AssertEqual(t, "ticks", c.ticks.Load(), int32(1))
			}
		})
	}
}

func TestRealmDriver_StartDoesNotOverlap(t *testing.T) {
	c := &countingTicker{delay: 15 * time.Millisecond, err: errors.New("ignored")}
	d := NewRealmDriver([]Ticker{c}, WithTickLength(5*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.ticks.Load() == 0 {
		t.Error("expected at least one tick")
	}
	testutil.AssertEqual(t, "overlap", c.overlap.Load(), false)
}
