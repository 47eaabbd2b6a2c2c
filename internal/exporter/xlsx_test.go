package exporter

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"PriceSentinel/internal/catalog"
	"PriceSentinel/internal/model"
)

func TestWriteXLSX(t *testing.T) {
	now := time.Date(2026, 5, 2, 10, 30, 0, 0, time.UTC)
	items := catalog.DefaultItems(now)
	news := []model.MarketNewsEvent{{
		ID:            "n1",
		PublishedAt:   now,
		TitleEN:       "Steel rebar 16mm price up 5.2%",
		TitleAR:       "ارتفاع سعر حديد تسليح 16 مم بنسبة 5.2%",
		Impact:        model.ImpactHigh,
		Breaking:      true,
		Category:      "steel",
		AffectedItems: []string{"rebar-16"},
		PercentChange: 5.2,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, items, news))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{CatalogSheet, NewsSheet}, f.GetSheetList())

	rows, err := f.GetRows(CatalogSheet)
	require.NoError(t, err)
	require.Len(t, rows, len(items)+1)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "concrete-c30", rows[1][0])
	assert.Equal(t, "خرسانة جاهزة C30", rows[1][3])

	newsRows, err := f.GetRows(NewsSheet)
	require.NoError(t, err)
	require.Len(t, newsRows, 2)
	assert.Equal(t, "2026-05-02 10:30:00", newsRows[1][0])
	assert.Equal(t, "high", newsRows[1][3])
	assert.Equal(t, "rebar-16", newsRows[1][6])
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(NewsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
