package trainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceSentinel/internal/model"
)

func TestRiskWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range riskWeights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	for name := range riskWeights() {
		assert.NotEmpty(t, riskMitigations()[name], name)
	}
}

func TestAnalyzeRisk(t *testing.T) {
	tr := trained(t)

	projects := []model.ProjectData{
		{Category: "steel", Region: model.RegionMecca, ProjectType: "infrastructure", Season: model.SeasonSummer},
		{Category: "paint", Region: model.RegionRiyadh, ProjectType: "residential", Season: model.SeasonSpring},
		{Category: "unknown", Region: "nowhere", ProjectType: "", Season: ""},
	}
	for _, p := range projects {
		a, err := tr.AnalyzeRisk(p)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, a.Score, 0.0)
		assert.LessOrEqual(t, a.Score, 1.0)
		assert.Len(t, a.Factors, 5)
		assert.Len(t, a.TopRisks, 3)
		assert.NotEmpty(t, a.Mitigations)

		seen := map[string]bool{}
		for _, m := range a.Mitigations {
			assert.False(t, seen[m], "duplicate mitigation %q", m)
			seen[m] = true
		}
	}
}

func TestSeasonalRiskPeaksInSummer(t *testing.T) {
	tr := trained(t)
	base := model.ProjectData{Category: "concrete", Region: model.RegionRiyadh, ProjectType: "commercial"}

	summer := base
	summer.Season = model.SeasonSummer
	spring := base
	spring.Season = model.SeasonSpring

	hot, err := tr.AnalyzeRisk(summer)
	require.NoError(t, err)
	mild, err := tr.AnalyzeRisk(spring)
	require.NoError(t, err)
	assert.Greater(t, hot.Score, mild.Score)
}

func TestTopRisksAreRankedByWeightedScore(t *testing.T) {
	tr := trained(t)
	a, err := tr.AnalyzeRisk(model.ProjectData{
		Category: "steel", Region: model.RegionMecca, ProjectType: "residential", Season: model.SeasonSpring,
	})
	require.NoError(t, err)

	weighted := map[string]float64{}
	for _, f := range a.Factors {
		weighted[f.Name] = f.Weighted
	}
	for i := 1; i < len(a.TopRisks); i++ {
		assert.GreaterOrEqual(t, weighted[a.TopRisks[i-1]], weighted[a.TopRisks[i]])
	}
	assert.Contains(t, a.TopRisks, RiskSupplyChain)
}
