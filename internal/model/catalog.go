package model

import (
	"strings"
	"time"
)

// MaxPriceHistory bounds CatalogItem.PriceHistory; the oldest entry is dropped first.
const MaxPriceHistory = 10

// VolatilityClass buckets how far a simulated price may move in one tick.
type VolatilityClass string

const (
	VolatilityLow    VolatilityClass = "low"
	VolatilityMedium VolatilityClass = "medium"
	VolatilityHigh   VolatilityClass = "high"
)

// StepBound returns the maximum fractional move per tick.
func (v VolatilityClass) StepBound() float64 {
	switch v {
	case VolatilityLow:
		return 0.01
	case VolatilityHigh:
		return 0.05
	default:
		return 0.03
	}
}

// Rank orders volatility classes from low to high.
func (v VolatilityClass) Rank() int {
	switch v {
	case VolatilityLow:
		return 0
	case VolatilityHigh:
		return 2
	default:
		return 1
	}
}

// TrendClass is the directional bias applied during simulation.
type TrendClass string

const (
	TrendRising  TrendClass = "rising"
	TrendFalling TrendClass = "falling"
	TrendStable  TrendClass = "stable"
)

// Bias returns the multiplicative drift nudge for the trend.
func (t TrendClass) Bias() float64 {
	switch t {
	case TrendRising:
		return 1.02
	case TrendFalling:
		return 0.98
	default:
		return 1.0
	}
}

// Season of the year, northern hemisphere meteorological seasons.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
)

// AllSeasons lists the seasons in calendar order starting with winter.
var AllSeasons = []Season{SeasonWinter, SeasonSpring, SeasonSummer, SeasonAutumn}

// SeasonAt returns the season containing t.
func SeasonAt(t time.Time) Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// ParseSeason normalizes s; ok is false for unknown or empty values.
func ParseSeason(s string) (Season, bool) {
	switch Season(strings.ToLower(strings.TrimSpace(s))) {
	case SeasonWinter:
		return SeasonWinter, true
	case SeasonSpring:
		return SeasonSpring, true
	case SeasonSummer:
		return SeasonSummer, true
	case SeasonAutumn, "fall":
		return SeasonAutumn, true
	}
	return "", false
}

// Region identifiers used by regional price tables.
const (
	RegionRiyadh = "riyadh"
	RegionJeddah = "jeddah"
	RegionDammam = "dammam"
	RegionMecca  = "mecca"
	RegionMedina = "medina"
)

// RegionMultipliers fixes each region's price relative to the national current price.
var RegionMultipliers = map[string]float64{
	RegionRiyadh: 1.02,
	RegionJeddah: 1.05,
	RegionDammam: 0.98,
	RegionMecca:  1.08,
	RegionMedina: 1.06,
}

// Quality grade names. GradeStandard is the default when a request names none.
const (
	GradeEconomy  = "economy"
	GradeStandard = "standard"
	GradePremium  = "premium"
)

// QualityGrade is the price of an item at a given quality tier.
type QualityGrade struct {
	Price      float64 `json:"price"`
	Multiplier float64 `json:"multiplier"`
}

// PricePoint is one entry in an item's bounded price history.
type PricePoint struct {
	Price float64   `json:"price"`
	At    time.Time `json:"at"`
}

// CatalogItem is a priced construction line item.
type CatalogItem struct {
	ID              string                  `json:"id"`
	Code            string                  `json:"code"`
	NameEN          string                  `json:"name_en"`
	NameAR          string                  `json:"name_ar"`
	Category        string                  `json:"category"`
	Subcategory     string                  `json:"subcategory"`
	Unit            string                  `json:"unit"`
	BasePrice       float64                 `json:"base_price"`
	CurrentPrice    float64                 `json:"current_price"`
	RegionalPrices  map[string]float64      `json:"regional_prices"`
	QualityGrades   map[string]QualityGrade `json:"quality_grades"`
	SeasonalFactors map[Season]float64      `json:"seasonal_factors"`
	Volatility      VolatilityClass         `json:"volatility"`
	Trend           TrendClass              `json:"trend"`
	PriceHistory    []PricePoint            `json:"price_history"`
	LastUpdated     time.Time               `json:"last_updated"`
	Suppliers       []string                `json:"suppliers"`
	IsActive        bool                    `json:"is_active"`
}

// Clone returns a deep copy so callers never share maps or slices with the catalog.
func (c CatalogItem) Clone() CatalogItem {
	out := c
	if c.RegionalPrices != nil {
		out.RegionalPrices = make(map[string]float64, len(c.RegionalPrices))
		for k, v := range c.RegionalPrices {
			out.RegionalPrices[k] = v
		}
	}
	if c.QualityGrades != nil {
		out.QualityGrades = make(map[string]QualityGrade, len(c.QualityGrades))
		for k, v := range c.QualityGrades {
			out.QualityGrades[k] = v
		}
	}
	if c.SeasonalFactors != nil {
		out.SeasonalFactors = make(map[Season]float64, len(c.SeasonalFactors))
		for k, v := range c.SeasonalFactors {
			out.SeasonalFactors[k] = v
		}
	}
	out.PriceHistory = append([]PricePoint(nil), c.PriceHistory...)
	out.Suppliers = append([]string(nil), c.Suppliers...)
	return out
}

// SeasonalFactor returns the multiplier for season, 1.0 when unset.
func (c CatalogItem) SeasonalFactor(s Season) float64 {
	if f, ok := c.SeasonalFactors[s]; ok && f > 0 {
		return f
	}
	return 1.0
}

// HistoryPrices returns the price history as a plain series, oldest first.
func (c CatalogItem) HistoryPrices() []float64 {
	out := make([]float64, len(c.PriceHistory))
	for i, p := range c.PriceHistory {
		out[i] = p.Price
	}
	return out
}

// AppendHistory records price at t, trims history to MaxPriceHistory and sets CurrentPrice.
func (c *CatalogItem) AppendHistory(price float64, at time.Time) {
	c.PriceHistory = append(c.PriceHistory, PricePoint{Price: price, At: at})
	if n := len(c.PriceHistory); n > MaxPriceHistory {
		c.PriceHistory = append([]PricePoint(nil), c.PriceHistory[n-MaxPriceHistory:]...)
	}
	c.CurrentPrice = price
	c.LastUpdated = at
}
