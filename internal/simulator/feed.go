package simulator

import (
	"time"

	"PriceSentinel/internal/model"
)

// GetMarketNews returns up to limit events, most recent first, rendered for locale.
// A non-positive limit returns the whole feed.
func (s *Simulator) GetMarketNews(locale string, limit int) []model.NewsItem {
	events := s.RecentNews(limit)
	out := make([]model.NewsItem, len(events))
	for i, ev := range events {
		out[i] = ev.Localize(locale)
	}
	return out
}

// RecentNews returns copies of up to n events, most recent first. A non-positive n returns all.
func (s *Simulator) RecentNews(n int) []model.MarketNewsEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.feed) {
		n = len(s.feed)
	}
	out := make([]model.MarketNewsEvent, n)
	for i := 0; i < n; i++ {
		ev := s.feed[i]
		ev.AffectedItems = append([]string(nil), ev.AffectedItems...)
		out[i] = ev
	}
	return out
}

// GetMarketStatistics counts active items by trend class and reports the most common
// volatility class; ties go to the more volatile class.
func (s *Simulator) GetMarketStatistics() model.MarketStatistics {
	var stats model.MarketStatistics
	counts := map[model.VolatilityClass]int{}
	for _, it := range s.catalog.Active() {
		switch it.Trend {
		case model.TrendRising:
			stats.RisingCount++
		case model.TrendFalling:
			stats.FallingCount++
		default:
			stats.StableCount++
		}
		counts[it.Volatility]++
	}
	best := 0
	for v, n := range counts {
		if n > best || (n == best && v.Rank() > stats.DominantVolatility.Rank()) {
			best = n
			stats.DominantVolatility = v
		}
	}
	return stats
}

// Snapshot is the persisted form of the live market state.
type Snapshot struct {
	Items    []model.CatalogItem     `json:"items"`
	News     []model.MarketNewsEvent `json:"news"`
	LastTick time.Time               `json:"last_tick"`
}

// Snapshot captures catalog prices, the news feed and the last tick time.
func (s *Simulator) Snapshot() Snapshot {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.mu.RLock()
	last := s.lastTick
	s.mu.RUnlock()
	return Snapshot{
		Items:    s.catalog.All(),
		News:     s.RecentNews(0),
		LastTick: last,
	}
}

// Restore loads a previously captured snapshot. It returns the number of catalog items restored.
func (s *Simulator) Restore(snap Snapshot) int {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	n := s.catalog.Restore(snap.Items)
	news := append([]model.MarketNewsEvent(nil), snap.News...)
	if len(news) > model.MaxNewsFeed {
		news = news[:model.MaxNewsFeed]
	}

	s.mu.Lock()
	s.feed = news
	s.lastTick = snap.LastTick
	s.mu.Unlock()
	return n
}
