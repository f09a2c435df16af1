// Package simulator drives the live-price map for one session's watchlist.
//
// The simulator is a two-state machine. Idle: no entries, no timer, empty
// price map. Running: non-empty entries and a ticker goroutine that mutates
// every tracked price once per interval via bounded random fluctuation.
// Transitions are driven entirely by SetWatchlist and Stop; the timer is
// cancelled exactly once on every path out of Running.
package simulator

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"watchlist-systemv1/internal/model"
)

const (
	// DefaultInterval is the reference tick period.
	DefaultInterval = 3 * time.Second

	// maxMovePct bounds a single tick's fluctuation to ±5%.
	maxMovePct = 0.05

	// absoluteFloorCents is the hard lower bound of 0.10 per price.
	absoluteFloorCents = 10
)

// TickResult summarises one completed tick for observers.
type TickResult struct {
	Prices  map[string]int64 // symbol → live price in cents
	Clamped int              // prices held at the simulation floor this tick
}

// Simulator owns the ephemeral live-price map for one watchlist.
type Simulator struct {
	interval time.Duration

	// Draw produces one uniform random value in [-maxMovePct, +maxMovePct].
	// Overridable before the first tick for deterministic tests.
	Draw func() float64

	// OnTick, if set, is invoked after each completed tick with a snapshot
	// of the live-price map. Called outside the simulator's lock.
	OnTick func(TickResult)

	mu      sync.Mutex
	entries []model.WatchlistEntry
	prices  map[string]int64
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates an idle simulator with the given tick interval.
// A non-positive interval falls back to DefaultInterval.
func New(interval time.Duration) *Simulator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Simulator{
		interval: interval,
		Draw: func() float64 {
			return (rng.Float64()*2 - 1) * maxMovePct
		},
		prices: make(map[string]int64),
	}
}

// SetWatchlist replaces the tracked entry set. New symbols are seeded with
// their add-time initial price before the next tick can mutate them;
// symbols no longer present are evicted immediately. An empty set
// transitions the simulator to idle and clears the map; a non-empty set
// starts the tick loop if it is not already running.
func (s *Simulator) SetWatchlist(entries []model.WatchlistEntry) {
	s.mu.Lock()
	s.entries = append([]model.WatchlistEntry(nil), entries...)

	keep := make(map[string]bool, len(entries))
	for _, e := range entries {
		keep[e.Symbol] = true
		if _, ok := s.prices[e.Symbol]; !ok {
			s.prices[e.Symbol] = e.InitialPrice
		}
	}
	for sym := range s.prices {
		if !keep[sym] {
			delete(s.prices, sym)
		}
	}
	empty := len(entries) == 0
	s.mu.Unlock()

	if empty {
		s.Stop()
		return
	}
	s.start()
}

// start launches the tick loop unless it is already running.
func (s *Simulator) start() {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.run(ctx, done)
}

// Stop cancels the tick loop and clears the live-price map. Idempotent:
// safe to call from every exit path (logout, account switch, shutdown,
// watchlist emptied).
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	// Clear entries along with prices: a tick already dispatched from the
	// ticker may still win the lock after this section, and it must see
	// an empty set rather than re-seed the map we just cleared.
	s.entries = nil
	s.prices = make(map[string]int64)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Running reports whether the tick loop is active.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Prices returns a copy of the live-price map.
func (s *Simulator) Prices() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]int64, len(s.prices))
	for k, v := range s.prices {
		cp[k] = v
	}
	return cp
}

func (s *Simulator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := s.tick()
			if s.OnTick != nil && res.Prices != nil {
				s.OnTick(res)
			}
		}
	}
}

// tick applies one bounded random fluctuation to every tracked price.
// The whole pass holds the lock, so a watchlist mutation never observes a
// half-applied tick.
func (s *Simulator) tick() TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return TickResult{}
	}

	clamped := 0
	for _, e := range s.entries {
		prev, ok := s.prices[e.Symbol]
		if !ok {
			prev = e.InitialPrice
		}
		candidate := prev + int64(math.Round(float64(prev)*s.Draw()))
		floor := priceFloor(e.InitialPrice)
		if candidate < floor {
			candidate = floor
			clamped++
		}
		s.prices[e.Symbol] = candidate
	}

	cp := make(map[string]int64, len(s.prices))
	for k, v := range s.prices {
		cp[k] = v
	}
	return TickResult{Prices: cp, Clamped: clamped}
}

// priceFloor returns max(1% of the initial price, 0.10) in cents. The
// combined floor keeps a simulated price from collapsing to zero or
// negative, which would break P&L sign semantics downstream.
func priceFloor(initial int64) int64 {
	f := int64(math.Round(float64(initial) * 0.01))
	if f < absoluteFloorCents {
		f = absoluteFloorCents
	}
	return f
}
