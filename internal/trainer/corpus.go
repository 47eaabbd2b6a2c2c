package trainer

import (
	"math/rand/v2"
	"time"

	"PriceSentinel/internal/model"
)

// DefaultCorpusSize is the number of synthetic observations per training corpus.
const DefaultCorpusSize = 1000

// Categories is the fixed category vocabulary of the training corpus.
var Categories = []string{"concrete", "steel", "tile", "paint", "electrical", "plumbing", "blocks", "insulation"}

// Regions is the fixed region vocabulary of the training corpus.
var Regions = []string{model.RegionRiyadh, model.RegionJeddah, model.RegionDammam, model.RegionMecca, model.RegionMedina}

var categoryBase = map[string]float64{
	"concrete":   280,
	"steel":      3200,
	"tile":       85,
	"paint":      45,
	"electrical": 150,
	"plumbing":   120,
	"blocks":     3.5,
	"insulation": 38,
}

var seasonProfile = map[model.Season]float64{
	model.SeasonWinter: 0.97,
	model.SeasonSpring: 1.0,
	model.SeasonSummer: 1.06,
	model.SeasonAutumn: 0.99,
}

// Observation is one synthetic market price observation.
type Observation struct {
	Category           string       `json:"category"`
	Region             string       `json:"region"`
	Season             model.Season `json:"season"`
	BasePrice          float64      `json:"base_price"`
	SeasonalMultiplier float64      `json:"seasonal_multiplier"`
	DemandMultiplier   float64      `json:"demand_multiplier"`
	Price              float64      `json:"price"`
	ObservedAt         time.Time    `json:"observed_at"`
}

// synthesize builds n observations spread evenly over the year before now. Categories
// cycle every observation and regions every full category cycle, so every region sees the
// same category mix.
func synthesize(n int, now time.Time, r *rand.Rand) []Observation {
	const span = 365 * 24 * time.Hour
	step := span / time.Duration(n)
	from := now.Add(-span)

	out := make([]Observation, 0, n)
	for i := 0; i < n; i++ {
		category := Categories[i%len(Categories)]
		region := Regions[(i/len(Categories))%len(Regions)]
		at := from.Add(time.Duration(i) * step)
		season := model.SeasonAt(at)

		base := categoryBase[category] * (0.8 + 0.4*r.Float64())
		seasonal := seasonProfile[season] * (0.97 + 0.06*r.Float64())
		demand := 0.9 + 0.2*r.Float64()
		price := base * model.RegionMultipliers[region] * seasonal * demand

		out = append(out, Observation{
			Category:           category,
			Region:             region,
			Season:             season,
			BasePrice:          round2(base),
			SeasonalMultiplier: seasonal,
			DemandMultiplier:   demand,
			Price:              round2(price),
			ObservedAt:         at,
		})
	}
	return out
}
