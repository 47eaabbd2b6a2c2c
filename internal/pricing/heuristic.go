package pricing

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"PriceSentinel/internal/model"
)

const (
	heuristicConfidence = 0.7
	defaultHeuristic    = 100.0
	heuristicJitter     = 0.2
)

type keywordPrice struct {
	category string
	keywords []string
	price    float64
}

// keywordPrices is scanned in order; the first category whose keyword appears wins.
var keywordPrices = []keywordPrice{
	{"concrete", []string{"concrete", "خرسانة"}, 280},
	{"steel", []string{"steel", "rebar", "حديد"}, 3200},
	{"tile", []string{"tile", "ceramic", "بلاط"}, 85},
	{"paint", []string{"paint", "دهان"}, 45},
	{"electrical", []string{"electrical", "cable", "كهرباء"}, 150},
	{"plumbing", []string{"plumbing", "pipe", "سباكة"}, 120},
}

var unitFactors = map[string]float64{
	"ton": 1.1, "tons": 1.1, "t": 1.1, "طن": 1.1,
	"m3": 1.0, "m³": 1.0, "cbm": 1.0, "م3": 1.0,
	"m2": 0.9, "m²": 0.9, "sqm": 0.9, "م2": 0.9,
}

// heuristic estimates a price from keywords in the display name and the unit class.
func (e *Engine) heuristic(name string, pctx model.PricingContext) model.PriceResolution {
	category, base := matchKeyword(name)
	unitFactor := 1.0
	if f, ok := unitFactors[strings.ToLower(strings.TrimSpace(pctx.Unit))]; ok {
		unitFactor = f
	}
	jitter := 1 - heuristicJitter + 2*heuristicJitter*e.jitter()

	final := roundTo(base*unitFactor*jitter, 0)
	if final < 1 {
		final = 1
	}
	quantity := effectiveQuantity(pctx.Quantity)

	msg := "No catalog match; estimated from a generic construction price"
	if category != "" {
		msg = fmt.Sprintf("No catalog match; estimated from the %s category price", category)
	}
	res := model.PriceResolution{
		Name:       name,
		Unit:       pctx.Unit,
		Quantity:   quantity,
		BasePrice:  roundTo(base*unitFactor, 2),
		FinalPrice: final,
		TotalCost:  roundTo(final*quantity, 2),
		PriceRange: priceRange(final, model.VolatilityMedium),
		Confidence: heuristicConfidence,
		Verified:   false,
		Source:     model.SourceHeuristic,
		Breakdown:  model.Breakdown{Base: final},
		Insights:   []model.Insight{{Kind: "heuristic", Message: msg}},
		RiskFactors: []model.RiskFactor{{
			Kind:       "unverified",
			Severity:   model.ImpactMedium,
			Message:    "Price is an estimate, not a catalog price",
			Mitigation: "Request a supplier quote before committing",
		}},
		Optimizations: []model.Optimization{},
	}

	e.record(res)
	e.log.Info("heuristic price estimate",
		zap.String("name", name),
		zap.String("category", category),
		zap.Float64("final_price", final),
	)
	return res
}

func matchKeyword(name string) (string, float64) {
	lower := strings.ToLower(name)
	for _, kp := range keywordPrices {
		for _, kw := range kp.keywords {
			if strings.Contains(lower, kw) {
				return kp.category, kp.price
			}
		}
	}
	return "", defaultHeuristic
}
