package model

// FactorScore is one weighted dimension of a composite score.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"raw_score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

// Prediction is the trainer's price estimate for a category/region/quantity.
type Prediction struct {
	Category       string  `json:"category"`
	Region         string  `json:"region"`
	Quantity       float64 `json:"quantity"`
	Price          float64 `json:"price"`
	CategoryMean   float64 `json:"category_mean"`
	RegionFactor   float64 `json:"region_factor"`
	SeasonFactor   float64 `json:"season_factor"`
	QuantityFactor float64 `json:"quantity_factor"`
	Trend          float64 `json:"trend"`
	Confidence     float64 `json:"confidence"`
}

// ProjectData describes a project for risk analysis.
type ProjectData struct {
	Category    string `json:"category"`
	Region      string `json:"region"`
	ProjectType string `json:"project_type"`
	Season      Season `json:"season,omitempty"`
}

// RiskAssessment is the outcome of a weighted risk analysis.
type RiskAssessment struct {
	Score       float64       `json:"score"`
	Level       Impact        `json:"level"`
	Factors     []FactorScore `json:"factors"`
	TopRisks    []string      `json:"top_risks"`
	Mitigations []string      `json:"mitigations"`
}
