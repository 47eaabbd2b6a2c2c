package pricing

import (
	"time"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/model"
)

const (
	marketWindow       = 5
	risingMarketRate   = 0.05
	fallingMarketRate  = -0.03
	mixedMarketPremium = 0.02
)

// Market condition labels.
const (
	marketNone    = ""
	marketRising  = "rising"
	marketFalling = "falling"
	marketMixed   = "mixed"
)

// adjustment is the running state of one resolution.
type adjustment struct {
	price         float64
	breakdown     model.Breakdown
	seasonFactor  float64
	qualityFactor float64
	discountRate  float64
	market        string
}

// adjust applies, in order: regional base, quality grade, season, volume discount,
// market conditions and urgency. Each step records its delta in the breakdown.
func (e *Engine) adjust(item model.CatalogItem, pctx model.PricingContext, season model.Season, quantity float64) adjustment {
	base := item.CurrentPrice
	if base <= 0 {
		base = item.BasePrice
	}
	a := adjustment{price: base, seasonFactor: 1, qualityFactor: 1}
	a.breakdown.Base = base

	if rp, ok := item.RegionalPrices[pctx.Region]; ok && rp > 0 {
		a.breakdown.Regional = rp - a.price
		a.price = rp
	}

	if m := qualityMultiplier(item, pctx.Quality); m != 1 {
		a.qualityFactor = m
		a.breakdown.Quality = a.price * (m - 1)
		a.price += a.breakdown.Quality
	}

	a.seasonFactor = item.SeasonalFactor(season)
	a.breakdown.Seasonal = a.price * (a.seasonFactor - 1)
	a.price += a.breakdown.Seasonal

	a.discountRate = e.discountRate(quantity)
	a.breakdown.QuantityDiscount = -a.price * a.discountRate
	a.price += a.breakdown.QuantityDiscount

	a.market = e.marketCondition()
	switch a.market {
	case marketRising:
		a.breakdown.TrendDemand = a.price * risingMarketRate
	case marketFalling:
		a.breakdown.TrendDemand = a.price * fallingMarketRate
	case marketMixed:
		a.breakdown.RiskPremium = a.price * mixedMarketPremium
	}
	a.price += a.breakdown.TrendDemand + a.breakdown.RiskPremium

	if pctx.Urgency == model.UrgencyUrgent {
		a.breakdown.UrgencyPremium = a.price * e.cfg.UrgencyPremium
		a.price += a.breakdown.UrgencyPremium
	}
	return a
}

// qualityMultiplier returns 1 for the standard grade and for grades the item lacks.
func qualityMultiplier(item model.CatalogItem, grade string) float64 {
	if grade == "" || grade == model.GradeStandard {
		return 1
	}
	g, ok := item.QualityGrades[grade]
	if !ok {
		return 1
	}
	if g.Multiplier > 0 {
		return g.Multiplier
	}
	if g.Price > 0 && item.BasePrice > 0 {
		return g.Price / item.BasePrice
	}
	return 1
}

// discountRate is linear above the threshold and capped at MaxDiscount.
func (e *Engine) discountRate(quantity float64) float64 {
	if quantity <= e.cfg.QuantityThreshold {
		return 0
	}
	return calculator.Clamp((quantity-e.cfg.QuantityThreshold)*e.cfg.DiscountPerUnit, 0, e.cfg.MaxDiscount)
}

// marketCondition classifies the last few news moves.
func (e *Engine) marketCondition() string {
	if e.news == nil {
		return marketNone
	}
	events := e.news.RecentNews(marketWindow)
	if len(events) == 0 {
		return marketNone
	}
	var up, down bool
	changes := make([]float64, 0, len(events))
	for _, ev := range events {
		changes = append(changes, ev.PercentChange)
		if ev.PercentChange > 0 {
			up = true
		} else if ev.PercentChange < 0 {
			down = true
		}
	}
	if up && down {
		return marketMixed
	}
	switch mean := calculator.MeanOr(changes, 0); {
	case mean > 0:
		return marketRising
	case mean < 0:
		return marketFalling
	}
	return marketNone
}

// priceRange widens with volatility.
func priceRange(final float64, v model.VolatilityClass) model.PriceRange {
	lo, hi := 0.875, 1.2
	switch v {
	case model.VolatilityLow:
		lo, hi = 0.9, 1.15
	case model.VolatilityHigh:
		lo, hi = 0.85, 1.25
	}
	r := model.PriceRange{Min: roundTo(final*lo, 2), Max: roundTo(final*hi, 2)}
	r.Average = roundTo((r.Min+r.Max)/2, 2)
	return r
}

// confidence starts at 0.8 and moves with data freshness, volatility and supplier depth.
func confidence(item model.CatalogItem, now time.Time) float64 {
	c := 0.8

	if !item.LastUpdated.IsZero() {
		switch age := now.Sub(item.LastUpdated); {
		case age <= time.Hour:
			c += 0.1
		case age > 24*time.Hour:
			c -= 0.1
		}
	}

	switch item.Volatility {
	case model.VolatilityLow:
		c += 0.1
	case model.VolatilityHigh:
		c -= 0.1
	}

	switch n := len(item.Suppliers); {
	case n >= 3:
		c += 0.05
	case n < 2:
		c -= 0.1
	}

	return roundTo(calculator.Clamp(c, 0.5, 0.95), 2)
}
