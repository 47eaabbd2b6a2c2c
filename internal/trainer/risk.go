package trainer

import (
	"fmt"
	"sort"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/model"
)

// Risk dimension names.
const (
	RiskVolatility  = "volatility"
	RiskSeasonal    = "seasonal"
	RiskSupplyChain = "supply_chain"
	RiskEconomic    = "economic"
	RiskRegulatory  = "regulatory"
)

const (
	weightVolatility  = 0.30
	weightSeasonal    = 0.20
	weightSupplyChain = 0.25
	weightEconomic    = 0.15
	weightRegulatory  = 0.10

	economicRisk = 0.4
	topRiskCount = 3
)

var supplyChainRisk = map[string]float64{
	model.RegionRiyadh: 0.3,
	model.RegionJeddah: 0.35,
	model.RegionDammam: 0.3,
	model.RegionMecca:  0.6,
	model.RegionMedina: 0.5,
}

var regulatoryRisk = map[string]float64{
	"residential":    0.3,
	"commercial":     0.5,
	"industrial":     0.7,
	"infrastructure": 0.8,
	"government":     0.6,
}

var seasonalRisk = map[model.Season]float64{
	model.SeasonSummer: 0.8,
	model.SeasonWinter: 0.6,
	model.SeasonSpring: 0.3,
	model.SeasonAutumn: 0.3,
}

func riskWeights() map[string]float64 {
	return map[string]float64{
		RiskVolatility:  weightVolatility,
		RiskSeasonal:    weightSeasonal,
		RiskSupplyChain: weightSupplyChain,
		RiskEconomic:    weightEconomic,
		RiskRegulatory:  weightRegulatory,
	}
}

func riskMitigations() map[string][]string {
	return map[string][]string{
		RiskVolatility: {
			"Lock prices through supplier framework agreements",
			"Add a price escalation clause to the contract",
		},
		RiskSeasonal: {
			"Schedule procurement outside the peak season",
			"Lock prices through supplier framework agreements",
		},
		RiskSupplyChain: {
			"Qualify at least three suppliers per material",
			"Hold buffer stock for long-lead items",
		},
		RiskEconomic: {
			"Add a price escalation clause to the contract",
			"Review the budget contingency monthly",
		},
		RiskRegulatory: {
			"Confirm permits and code compliance before procurement",
		},
	}
}

// scoreVolatility maps the category's trained coefficient of variation onto [0,1].
// Weight: 0.30
func scoreVolatility(m *Models, category string) model.FactorScore {
	cv, ok := m.PricePrediction.Volatility[category]
	raw, commentary := 0.5, "no trained volatility for category"
	if ok {
		raw = calculator.Clamp(cv*4, 0, 1)
		commentary = fmt.Sprintf("price CV %.3f", cv)
	}
	return factor(RiskVolatility, raw, weightVolatility, commentary)
}

// scoreSeasonal is elevated in summer and winter.
// Weight: 0.20
func scoreSeasonal(season model.Season) model.FactorScore {
	raw, ok := seasonalRisk[season]
	if !ok {
		raw = 0.5
	}
	return factor(RiskSeasonal, raw, weightSeasonal, fmt.Sprintf("season %s", season))
}

// scoreSupplyChain looks the region up in the supply-chain table.
// Weight: 0.25
func scoreSupplyChain(region string) model.FactorScore {
	raw, ok := supplyChainRisk[region]
	if !ok {
		raw = 0.5
	}
	return factor(RiskSupplyChain, raw, weightSupplyChain, fmt.Sprintf("region %q", region))
}

// scoreEconomic is a fixed baseline.
// Weight: 0.15
func scoreEconomic() model.FactorScore {
	return factor(RiskEconomic, economicRisk, weightEconomic, "baseline economic exposure")
}

// scoreRegulatory depends on the project type.
// Weight: 0.10
func scoreRegulatory(projectType string) model.FactorScore {
	raw, ok := regulatoryRisk[projectType]
	if !ok {
		raw = 0.5
	}
	return factor(RiskRegulatory, raw, weightRegulatory, fmt.Sprintf("project type %q", projectType))
}

func factor(name string, raw, weight float64, commentary string) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		RawScore:   raw,
		Weight:     weight,
		Weighted:   raw * weight,
		Commentary: commentary,
	}
}

// riskLevel maps a combined score to an impact tier.
func riskLevel(score float64) model.Impact {
	switch {
	case score >= 0.6:
		return model.ImpactHigh
	case score >= 0.4:
		return model.ImpactMedium
	default:
		return model.ImpactLow
	}
}

func assess(m *Models, p model.ProjectData, season model.Season) model.RiskAssessment {
	factors := []model.FactorScore{
		scoreVolatility(m, p.Category),
		scoreSeasonal(season),
		scoreSupplyChain(p.Region),
		scoreEconomic(),
		scoreRegulatory(p.ProjectType),
	}

	total := 0.0
	for _, f := range factors {
		total += f.Weighted
	}
	total = calculator.Clamp(total, 0, 1)

	ranked := append([]model.FactorScore(nil), factors...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Weighted > ranked[j].Weighted })

	a := model.RiskAssessment{
		Score:   round2(total),
		Level:   riskLevel(total),
		Factors: factors,
	}
	seen := map[string]bool{}
	for _, f := range ranked[:topRiskCount] {
		a.TopRisks = append(a.TopRisks, f.Name)
		for _, mit := range m.RiskAnalysis.Mitigations[f.Name] {
			if !seen[mit] {
				seen[mit] = true
				a.Mitigations = append(a.Mitigations, mit)
			}
		}
	}
	return a
}
