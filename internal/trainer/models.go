package trainer

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/model"
)

// BasicPricing holds mean observed prices.
type BasicPricing struct {
	CategoryMeans map[string]float64 `json:"category_means"`
	RegionMeans   map[string]float64 `json:"region_means"`
	GlobalMean    float64            `json:"global_mean"`
}

// PricePrediction holds per-category trend, seasonal and volatility tables.
type PricePrediction struct {
	Trend      map[string]float64                  `json:"trend"`
	Seasonal   map[string]map[model.Season]float64 `json:"seasonal"`
	Volatility map[string]float64                  `json:"volatility"`
}

// RiskAnalysis holds the fixed risk weights and mitigation lookup.
type RiskAnalysis struct {
	Weights     map[string]float64  `json:"weights"`
	Mitigations map[string][]string `json:"mitigations"`
}

// Models is the output of one training run.
type Models struct {
	BasicPricing    BasicPricing    `json:"basic_pricing"`
	PricePrediction PricePrediction `json:"price_prediction"`
	RiskAnalysis    RiskAnalysis    `json:"risk_analysis"`
	Samples         int             `json:"samples"`
	TrainedAt       time.Time       `json:"trained_at"`
}

// ErrUnknownCategory is returned by PredictPrice for categories absent from the corpus.
var ErrUnknownCategory = errors.New("unknown category")

func deriveModels(corpus []Observation, trainedAt time.Time) (*Models, error) {
	if len(corpus) == 0 {
		return nil, errors.New("empty training corpus")
	}

	byCategory := map[string][]float64{}
	byRegion := map[string][]float64{}
	seasonal := map[string]map[model.Season][]float64{}
	all := make([]float64, 0, len(corpus))

	ordered := append([]Observation(nil), corpus...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ObservedAt.Before(ordered[j].ObservedAt) })

	for _, o := range ordered {
		if o.Price <= 0 || math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
			return nil, fmt.Errorf("invalid price %v for %s/%s", o.Price, o.Category, o.Region)
		}
		byCategory[o.Category] = append(byCategory[o.Category], o.Price)
		byRegion[o.Region] = append(byRegion[o.Region], o.Price)
		if seasonal[o.Category] == nil {
			seasonal[o.Category] = map[model.Season][]float64{}
		}
		seasonal[o.Category][o.Season] = append(seasonal[o.Category][o.Season], o.SeasonalMultiplier)
		all = append(all, o.Price)
	}

	m := &Models{
		BasicPricing: BasicPricing{
			CategoryMeans: make(map[string]float64, len(byCategory)),
			RegionMeans:   make(map[string]float64, len(byRegion)),
			GlobalMean:    calculator.MeanOr(all, 0),
		},
		PricePrediction: PricePrediction{
			Trend:      make(map[string]float64, len(byCategory)),
			Seasonal:   make(map[string]map[model.Season]float64, len(seasonal)),
			Volatility: make(map[string]float64, len(byCategory)),
		},
		RiskAnalysis: RiskAnalysis{
			Weights:     riskWeights(),
			Mitigations: riskMitigations(),
		},
		Samples:   len(corpus),
		TrainedAt: trainedAt,
	}

	for category, prices := range byCategory {
		m.BasicPricing.CategoryMeans[category] = round2(calculator.MeanOr(prices, 0))
		m.PricePrediction.Trend[category] = prices[len(prices)-1] / prices[0]
		cv, err := calculator.CoefficientOfVariation(prices)
		if err != nil {
			return nil, fmt.Errorf("volatility for %s: %w", category, err)
		}
		m.PricePrediction.Volatility[category] = cv
	}
	for region, prices := range byRegion {
		m.BasicPricing.RegionMeans[region] = round2(calculator.MeanOr(prices, 0))
	}
	for category, seasons := range seasonal {
		m.PricePrediction.Seasonal[category] = make(map[model.Season]float64, len(seasons))
		for season, factors := range seasons {
			m.PricePrediction.Seasonal[category][season] = calculator.MeanOr(factors, 1)
		}
	}
	return m, nil
}

// quantityFactor is the bulk-purchase multiplier used by predictions.
func quantityFactor(quantity float64) float64 {
	switch {
	case quantity > 1000:
		return 0.9
	case quantity > 500:
		return 0.95
	case quantity > 100:
		return 0.98
	default:
		return 1.0
	}
}

func (m *Models) regionFactor(region string) float64 {
	mean, ok := m.BasicPricing.RegionMeans[region]
	if !ok || m.BasicPricing.GlobalMean == 0 {
		return 1.0
	}
	return mean / m.BasicPricing.GlobalMean
}

func (m *Models) seasonFactor(category string, season model.Season) float64 {
	if f, ok := m.PricePrediction.Seasonal[category][season]; ok && f > 0 {
		return f
	}
	return 1.0
}

func (m *Models) predict(category, region string, quantity float64, season model.Season) (model.Prediction, error) {
	mean, ok := m.BasicPricing.CategoryMeans[category]
	if !ok {
		return model.Prediction{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	p := model.Prediction{
		Category:       category,
		Region:         region,
		Quantity:       quantity,
		CategoryMean:   mean,
		RegionFactor:   m.regionFactor(region),
		SeasonFactor:   m.seasonFactor(category, season),
		QuantityFactor: quantityFactor(quantity),
		Trend:          m.PricePrediction.Trend[category],
		Confidence:     math.Max(0.5, 1-m.PricePrediction.Volatility[category]),
	}
	p.Price = round2(p.CategoryMean * p.RegionFactor * p.SeasonFactor * p.QuantityFactor)
	return p, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
