package pricing

import (
	"fmt"
	"math"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/model"
)

const (
	seasonalInsightFactor = 1.05
	seasonalRiskFactor    = 1.10
	momentumPeriod        = 5
	shortAveragePeriod    = 3
	averageGap            = 0.02
)

func (e *Engine) insights(item model.CatalogItem, pctx model.PricingContext, season model.Season, quantity float64, a adjustment, final float64) []model.Insight {
	out := make([]model.Insight, 0, 4)

	hist := item.HistoryPrices()
	switch item.Trend {
	case model.TrendRising:
		out = append(out, model.Insight{Kind: "trend", Message: fmt.Sprintf("%s prices are rising%s; early procurement is advised", item.NameEN, historyNote(hist))})
	case model.TrendFalling:
		out = append(out, model.Insight{Kind: "trend", Message: fmt.Sprintf("%s prices are falling%s; deferring non-critical purchases may save", item.NameEN, historyNote(hist))})
	default:
		out = append(out, model.Insight{Kind: "trend", Message: fmt.Sprintf("%s prices are stable%s", item.NameEN, historyNote(hist))})
	}

	if len(hist) > momentumPeriod {
		if rsi, err := calculator.RSI(hist, momentumPeriod); err == nil {
			switch {
			case rsi > 70:
				out = append(out, model.Insight{Kind: "momentum", Message: fmt.Sprintf("Strong upward momentum over recent sessions (RSI %.0f)", rsi)})
			case rsi < 30:
				out = append(out, model.Insight{Kind: "momentum", Message: fmt.Sprintf("Strong downward momentum over recent sessions (RSI %.0f)", rsi)})
			}
		}
	}

	if low, high, err := calculator.MinMax(hist, 0); err == nil && high > low {
		if pos, err := calculator.RangePosition(item.CurrentPrice, low, high); err == nil {
			switch {
			case pos >= 0.8:
				out = append(out, model.Insight{Kind: "range", Message: fmt.Sprintf("Current price is near the top of its recent range (%.2f to %.2f)", low, high)})
			case pos <= 0.2:
				out = append(out, model.Insight{Kind: "range", Message: fmt.Sprintf("Current price is near the bottom of its recent range (%.2f to %.2f)", low, high)})
			}
		}
	}

	if len(hist) >= 2*shortAveragePeriod {
		short, errShort := calculator.SMA(hist, shortAveragePeriod)
		full, errFull := calculator.Mean(hist)
		if errShort == nil && errFull == nil && full > 0 {
			switch gap := short/full - 1; {
			case gap > averageGap:
				out = append(out, model.Insight{Kind: "average", Message: fmt.Sprintf("The last %d sessions average %.1f%% above the %d-session mean", shortAveragePeriod, gap*100, len(hist))})
			case gap < -averageGap:
				out = append(out, model.Insight{Kind: "average", Message: fmt.Sprintf("The last %d sessions average %.1f%% below the %d-session mean", shortAveragePeriod, -gap*100, len(hist))})
			}
		}
	}

	if a.seasonFactor > seasonalInsightFactor {
		out = append(out, model.Insight{
			Kind:    "seasonal",
			Message: fmt.Sprintf("A %.0f%% seasonal premium applies in %s", (a.seasonFactor-1)*100, season),
		})
	}

	switch {
	case a.discountRate > 0:
		out = append(out, model.Insight{
			Kind:    "quantity",
			Message: fmt.Sprintf("Volume discount of %.1f%% applied for %.0f %s", a.discountRate*100, quantity, item.Unit),
		})
	case quantity >= e.cfg.QuantityThreshold*0.8:
		out = append(out, model.Insight{
			Kind:    "quantity",
			Message: fmt.Sprintf("Orders above %.0f %s qualify for a volume discount", e.cfg.QuantityThreshold, item.Unit),
		})
	}

	switch a.market {
	case marketRising:
		out = append(out, model.Insight{Kind: "market", Message: "Recent market news points upward; a 5% demand adjustment is included"})
	case marketFalling:
		out = append(out, model.Insight{Kind: "market", Message: "Recent market news points downward; a 3% reduction is included"})
	case marketMixed:
		out = append(out, model.Insight{Kind: "market", Message: "Recent market news is mixed; a 2% risk premium is included"})
	}

	if e.predictor != nil {
		if p, err := e.predictor.PredictPrice(item.Category, pctx.Region, quantity); err == nil && p.Price > 0 {
			diff := calculator.PercentChange(p.Price, final)
			out = append(out, model.Insight{
				Kind:    "model",
				Message: fmt.Sprintf("Model estimate for %s is %.2f; this price is %+.1f%% against it", item.Category, p.Price, diff),
			})
		}
	}
	return out
}

func historyNote(hist []float64) string {
	if len(hist) < 2 {
		return ""
	}
	pct := calculator.PercentChange(hist[0], hist[len(hist)-1])
	return fmt.Sprintf(" (%+.1f%% over the last %d sessions)", pct, len(hist)-1)
}

func riskFactors(item model.CatalogItem, a adjustment) []model.RiskFactor {
	out := make([]model.RiskFactor, 0, 3)
	if item.Volatility == model.VolatilityHigh {
		out = append(out, model.RiskFactor{
			Kind:       "volatility",
			Severity:   model.ImpactHigh,
			Message:    fmt.Sprintf("%s prices are highly volatile", item.NameEN),
			Mitigation: "Lock the price with a supplier quote valid for the purchase window",
		})
	}
	if n := len(item.Suppliers); n < 2 {
		sev := model.ImpactMedium
		if n == 0 {
			sev = model.ImpactHigh
		}
		out = append(out, model.RiskFactor{
			Kind:       "supply",
			Severity:   sev,
			Message:    fmt.Sprintf("Only %d supplier(s) on record", n),
			Mitigation: "Qualify an alternative supplier before committing",
		})
	}
	if a.seasonFactor > seasonalRiskFactor {
		out = append(out, model.RiskFactor{
			Kind:       "seasonal",
			Severity:   model.ImpactMedium,
			Message:    fmt.Sprintf("Seasonal premium of %.0f%% is unusually high", (a.seasonFactor-1)*100),
			Mitigation: "Move the purchase outside the peak season",
		})
	}
	if a.market == marketMixed {
		out = append(out, model.RiskFactor{
			Kind:       "market",
			Severity:   model.ImpactLow,
			Message:    "Recent market moves disagree in direction",
			Mitigation: "Re-check the price before placing the order",
		})
	}
	return out
}

func (e *Engine) optimizations(item model.CatalogItem, pctx model.PricingContext, season model.Season, quantity float64, a adjustment) []model.Optimization {
	out := make([]model.Optimization, 0, 3)
	b := a.breakdown
	preQuality := b.Base + b.Regional
	preSeason := preQuality + b.Quality
	preDiscount := preSeason + b.Seasonal

	if a.discountRate < e.cfg.MaxDiscount {
		next := e.nextDiscountTier(quantity)
		if gain := e.discountRate(next) - a.discountRate; gain > 0 {
			out = append(out, model.Optimization{
				Kind:            "quantity",
				Message:         fmt.Sprintf("Ordering %.0f %s instead of %.0f raises the volume discount to %.1f%%", next, item.Unit, quantity, e.discountRate(next)*100),
				EstimatedSaving: roundTo(preDiscount*gain, 2),
				Effort:          model.EffortLow,
			})
		}
	}

	cheapest, factor := season, a.seasonFactor
	for _, s := range model.AllSeasons {
		if f := item.SeasonalFactor(s); f < factor {
			cheapest, factor = s, f
		}
	}
	if cheapest != season {
		out = append(out, model.Optimization{
			Kind:            "season",
			Message:         fmt.Sprintf("Buying in %s instead of %s avoids the seasonal premium", cheapest, season),
			EstimatedSaving: roundTo(preSeason*(a.seasonFactor-factor)*(1-a.discountRate), 2),
			Effort:          model.EffortMedium,
		})
	}

	lower := model.GradeEconomy
	if pctx.Quality == model.GradePremium {
		lower = model.GradeStandard
	}
	if pctx.Quality != model.GradeEconomy {
		if _, ok := item.QualityGrades[lower]; ok || lower == model.GradeStandard {
			if m := qualityMultiplier(item, lower); m < a.qualityFactor {
				out = append(out, model.Optimization{
					Kind:            "quality",
					Message:         fmt.Sprintf("Specifying %s grade instead of %s lowers the unit price", lower, gradeName(pctx.Quality)),
					EstimatedSaving: roundTo(preQuality*(a.qualityFactor-m)*a.seasonFactor*(1-a.discountRate), 2),
					Effort:          model.EffortHigh,
				})
			}
		}
	}
	return out
}

// nextDiscountTier is the next quantity at which the discount grows by one percentage point.
func (e *Engine) nextDiscountTier(quantity float64) float64 {
	step := 0.01 / e.cfg.DiscountPerUnit
	if quantity <= e.cfg.QuantityThreshold {
		return e.cfg.QuantityThreshold + step
	}
	tiers := math.Floor((quantity-e.cfg.QuantityThreshold)/step) + 1
	return e.cfg.QuantityThreshold + tiers*step
}

func gradeName(g string) string {
	if g == "" {
		return model.GradeStandard
	}
	return g
}
