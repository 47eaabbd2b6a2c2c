package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceSentinel/internal/model"
)

var seededAt = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func TestDefaultItemsInvariants(t *testing.T) {
	items := DefaultItems(seededAt)
	require.NotEmpty(t, items)

	ids := map[string]bool{}
	for _, it := range items {
		assert.False(t, ids[it.ID], "duplicate id %s", it.ID)
		ids[it.ID] = true

		require.Len(t, it.PriceHistory, 1, it.ID)
		assert.Equal(t, it.BasePrice, it.CurrentPrice, it.ID)
		assert.Equal(t, it.CurrentPrice, it.PriceHistory[0].Price, it.ID)
		assert.Len(t, it.RegionalPrices, len(model.RegionMultipliers), it.ID)
		assert.Len(t, it.SeasonalFactors, len(model.AllSeasons), it.ID)
		assert.Contains(t, it.QualityGrades, model.GradeStandard, it.ID)
		assert.NotEmpty(t, it.NameAR, it.ID)
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	c := New(DefaultItems(seededAt))

	snap, ok := c.Get("concrete-c30")
	require.True(t, ok)
	snap.CurrentPrice = 1
	snap.RegionalPrices[model.RegionRiyadh] = 1
	snap.PriceHistory[0].Price = 1

	fresh, _ := c.Get("concrete-c30")
	assert.Equal(t, 280.0, fresh.CurrentPrice)
	assert.Equal(t, 280.0, fresh.PriceHistory[0].Price)
	assert.NotEqual(t, 1.0, fresh.RegionalPrices[model.RegionRiyadh])
}

func TestFindByName(t *testing.T) {
	c := New(DefaultItems(seededAt))

	tests := []struct {
		name   string
		query  string
		wantID string
	}{
		{"id", "rebar-16", "rebar-16"},
		{"code", "stl-r16", "rebar-16"},
		{"english name any case", "  steel REBAR 16mm ", "rebar-16"},
		{"arabic name", "حديد تسليح 16 مم", "rebar-16"},
		{"unknown", "mystery item xyz", ""},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, ok := c.FindByName(tt.query)
			if tt.wantID == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantID, it.ID)
		})
	}
}

func TestUpdateVisitsActiveItemsOnly(t *testing.T) {
	c := New(DefaultItems(seededAt))

	visited := 0
	c.Update(func(it *model.CatalogItem) {
		visited++
		it.AppendHistory(it.CurrentPrice*2, seededAt.Add(time.Hour))
	})
	assert.Equal(t, len(c.Active()), visited)
	assert.Less(t, visited, c.Len())

	marble, ok := c.Get("marble-slab")
	require.True(t, ok)
	assert.Equal(t, 320.0, marble.CurrentPrice)

	concrete, _ := c.Get("concrete-c30")
	assert.Equal(t, 560.0, concrete.CurrentPrice)
	assert.Len(t, concrete.PriceHistory, 2)
}

func TestRestore(t *testing.T) {
	c := New(DefaultItems(seededAt))
	later := seededAt.Add(2 * time.Hour)

	snap, _ := c.Get("paint-emulsion")
	snap.AppendHistory(47, later)
	snap.RegionalPrices = RegionalPrices(47)

	ghost := snap.Clone()
	ghost.ID = "not-in-catalog"

	n := c.Restore([]model.CatalogItem{snap, ghost})
	assert.Equal(t, 1, n)

	got, _ := c.Get("paint-emulsion")
	assert.Equal(t, 47.0, got.CurrentPrice)
	assert.Equal(t, later, got.LastUpdated)
	assert.Equal(t, RegionalPrices(47), got.RegionalPrices)
	_, ok := c.Get("not-in-catalog")
	assert.False(t, ok)
}
