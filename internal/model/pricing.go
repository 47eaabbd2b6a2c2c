package model

// Urgency of a pricing request.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyUrgent Urgency = "urgent"
)

// PricingContext carries the request-scoped selectors for one resolution. Zero values mean
// no regional adjustment, standard quality, current season and normal urgency.
type PricingContext struct {
	Region   string  `json:"region"`
	Quality  string  `json:"quality"`
	Season   Season  `json:"season"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Urgency  Urgency `json:"urgency"`
}

// Resolution sources.
const (
	SourceCatalog   = "catalog"
	SourceHeuristic = "heuristic"
	SourceExtracted = "extracted"
)

// PriceRange brackets a resolved price.
type PriceRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// Breakdown decomposes the final price: Base plus every adjustment equals the unrounded final price.
type Breakdown struct {
	Base             float64 `json:"base"`
	Regional         float64 `json:"regional"`
	Quality          float64 `json:"quality"`
	Seasonal         float64 `json:"seasonal"`
	TrendDemand      float64 `json:"trend_demand"`
	QuantityDiscount float64 `json:"quantity_discount"`
	UrgencyPremium   float64 `json:"urgency_premium"`
	RiskPremium      float64 `json:"risk_premium"`
}

// Total sums the breakdown.
func (b Breakdown) Total() float64 {
	return b.Base + b.Regional + b.Quality + b.Seasonal + b.TrendDemand +
		b.QuantityDiscount + b.UrgencyPremium + b.RiskPremium
}

// Insight is a rule-based observation attached to a resolution.
type Insight struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// RiskFactor names a pricing risk and how to mitigate it.
type RiskFactor struct {
	Kind       string `json:"kind"`
	Severity   Impact `json:"severity"`
	Message    string `json:"message"`
	Mitigation string `json:"mitigation"`
}

// Effort tiers for optimizations.
const (
	EffortLow    = "low"
	EffortMedium = "medium"
	EffortHigh   = "high"
)

// Optimization suggests a change that lowers the unit price.
type Optimization struct {
	Kind            string  `json:"kind"`
	Message         string  `json:"message"`
	EstimatedSaving float64 `json:"estimated_saving"`
	Effort          string  `json:"effort"`
}

// PriceResolution is the pricing engine's output for one line item.
type PriceResolution struct {
	ItemID        string         `json:"item_id,omitempty"`
	Name          string         `json:"name"`
	Unit          string         `json:"unit"`
	Quantity      float64        `json:"quantity"`
	BasePrice     float64        `json:"base_price"`
	FinalPrice    float64        `json:"final_price"`
	TotalCost     float64        `json:"total_cost"`
	PriceRange    PriceRange     `json:"price_range"`
	Confidence    float64        `json:"confidence"`
	Verified      bool           `json:"verified"`
	Source        string         `json:"source"`
	Breakdown     Breakdown      `json:"breakdown"`
	Insights      []Insight      `json:"insights"`
	RiskFactors   []RiskFactor   `json:"risk_factors"`
	Optimizations []Optimization `json:"optimizations"`
}

// ExtractedItem is a candidate line item produced by the document text-scraping collaborator.
type ExtractedItem struct {
	ItemName       string   `json:"itemName"`
	Quantity       float64  `json:"quantity"`
	Unit           string   `json:"unit"`
	Price          *float64 `json:"price,omitempty"`
	Specifications string   `json:"specifications,omitempty"`
	Confidence     float64  `json:"confidence"`
}
