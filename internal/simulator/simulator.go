// Package simulator advances catalog prices on a fixed cadence and reports large moves
// as market news.
package simulator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/catalog"
	"PriceSentinel/internal/logging"
	"PriceSentinel/internal/metrics"
	"PriceSentinel/internal/model"
)

const (
	// NewsThreshold is the absolute tick-over-tick percent move that produces a news event.
	NewsThreshold = 3.0
	// BreakingThreshold is the absolute percent move that makes an event high impact and breaking.
	BreakingThreshold = 5.0

	// DefaultInterval is the simulated market session length.
	DefaultInterval = 30 * time.Minute

	jitterTolerance = time.Second
	minPrice        = 0.01
)

// Stepper returns the fractional price change for item in season, e.g. 0.031 for +3.1%.
type Stepper func(item model.CatalogItem, season model.Season) float64

// Simulator is the catalog's only writer.
type Simulator struct {
	catalog  *catalog.Catalog
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
	step     Stepper

	tickMu sync.Mutex

	mu       sync.RWMutex
	feed     []model.MarketNewsEvent
	lastTick time.Time
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithStepper replaces the random step function.
func WithStepper(step Stepper) Option {
	return func(s *Simulator) { s.step = step }
}

// WithSeed makes the default random stepper deterministic.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) { s.step = RandomStepper(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))) }
}

// New creates a Simulator over cat. A non-positive interval uses DefaultInterval.
func New(cat *catalog.Catalog, interval time.Duration, log *zap.Logger, opts ...Option) *Simulator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Simulator{
		catalog:  cat,
		log:      logging.OrNop(log),
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.step == nil {
		s.step = RandomStepper(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	}
	return s
}

// RandomStepper draws a uniform step within the item's volatility bound, nudges it by the
// trend bias and scales it by the item's seasonal factor. Calls must not be concurrent.
func RandomStepper(r *rand.Rand) Stepper {
	return func(item model.CatalogItem, season model.Season) float64 {
		bound := item.Volatility.StepBound()
		step := (r.Float64()*2 - 1) * bound
		drift := (item.Trend.Bias() - 1) * bound
		return (step + drift) * item.SeasonalFactor(season)
	}
}

// Interval returns the tick cadence.
func (s *Simulator) Interval() time.Duration { return s.interval }

// Tick advances every active item by one step and emits news for large moves. It returns
// false without touching anything when called again before the interval has elapsed.
func (s *Simulator) Tick() bool {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	now := s.now()
	s.mu.RLock()
	last := s.lastTick
	s.mu.RUnlock()
	if !last.IsZero() && now.Sub(last) < s.interval-s.tolerance() {
		return false
	}

	season := model.SeasonAt(now)
	var events []model.MarketNewsEvent
	s.catalog.Update(func(it *model.CatalogItem) {
		prev := it.CurrentPrice
		change := s.step(*it, season)
		raw := math.Max(minPrice, prev*(1+change))
		next := math.Round(raw*100) / 100

		it.AppendHistory(next, now)
		it.RegionalPrices = catalog.RegionalPrices(next)

		if ev, ok := newsFor(*it, prev, calculator.PercentChange(prev, raw), now); ok {
			events = append(events, ev)
		}
	})

	s.mu.Lock()
	s.lastTick = now
	for _, ev := range events {
		s.feed = append([]model.MarketNewsEvent{ev}, s.feed...)
	}
	if len(s.feed) > model.MaxNewsFeed {
		s.feed = s.feed[:model.MaxNewsFeed]
	}
	s.mu.Unlock()

	metrics.SimulationTicksTotal.Inc()
	for _, ev := range events {
		metrics.NewsEventsTotal.WithLabelValues(string(ev.Impact)).Inc()
		s.log.Info("market news",
			zap.String("item", ev.AffectedItems[0]),
			zap.Float64("percent_change", ev.PercentChange),
			zap.String("impact", string(ev.Impact)),
		)
	}
	s.log.Debug("simulation tick", zap.Time("at", now), zap.Int("news", len(events)))
	return true
}

func (s *Simulator) tolerance() time.Duration {
	if s.interval <= 2*jitterTolerance {
		return 0
	}
	return jitterTolerance
}

// newsFor reports a move of pct percent from prev to the item's current price. pct is
// measured before the stored price is rounded to cents.
func newsFor(it model.CatalogItem, prev, pct float64, now time.Time) (model.MarketNewsEvent, bool) {
	cur := it.CurrentPrice
	if prev <= 0 || math.Abs(pct) <= NewsThreshold {
		return model.MarketNewsEvent{}, false
	}

	impact, breaking := model.ImpactMedium, false
	if math.Abs(pct) > BreakingThreshold {
		impact, breaking = model.ImpactHigh, true
	}

	dirEN, dirAR := "up", "ارتفاع"
	if pct < 0 {
		dirEN, dirAR = "down", "انخفاض"
	}
	return model.MarketNewsEvent{
		ID:          uuid.NewString(),
		CreatedAt:   now,
		PublishedAt: now,
		TitleEN:     fmt.Sprintf("%s price %s %.1f%%", it.NameEN, dirEN, math.Abs(pct)),
		TitleAR:     fmt.Sprintf("%s سعر %s بنسبة %.1f%%", dirAR, it.NameAR, math.Abs(pct)),
		BodyEN: fmt.Sprintf("%s moved from %.2f to %.2f per %s (%+.1f%%) in the latest market session.",
			it.NameEN, prev, cur, it.Unit, pct),
		BodyAR: fmt.Sprintf("تحرك سعر %s من %.2f إلى %.2f لكل %s (%+.1f%%) في آخر جلسة للسوق.",
			it.NameAR, prev, cur, it.Unit, pct),
		Impact:        impact,
		Category:      it.Category,
		AffectedItems: []string{it.ID},
		PercentChange: math.Round(pct*100) / 100,
		Breaking:      breaking,
	}, true
}
