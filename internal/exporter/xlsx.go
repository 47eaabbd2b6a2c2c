// Package exporter renders catalog prices and market news as an xlsx workbook.
package exporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"PriceSentinel/internal/model"
)

// Sheet names.
const (
	CatalogSheet = "Catalog"
	NewsSheet    = "News"
)

var catalogHeader = []any{
	"ID", "Code", "Name", "Name (AR)", "Category", "Unit", "Base Price", "Current Price",
	"Change %", "Volatility", "Trend", "Suppliers", "Active", "Last Updated",
}

var newsHeader = []any{
	"Published", "Title", "Title (AR)", "Impact", "Breaking", "Category", "Items", "Change %",
}

// WriteXLSX writes a two-sheet workbook to w.
func WriteXLSX(w io.Writer, items []model.CatalogItem, news []model.MarketNewsEvent) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), CatalogSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, CatalogSheet, 1, catalogHeader); err != nil {
		return err
	}
	for i, it := range items {
		change := 0.0
		if it.BasePrice > 0 {
			change = (it.CurrentPrice - it.BasePrice) / it.BasePrice * 100
		}
		row := []any{
			it.ID, it.Code, it.NameEN, it.NameAR, it.Category, it.Unit, it.BasePrice, it.CurrentPrice,
			fmt.Sprintf("%+.2f", change), string(it.Volatility), string(it.Trend),
			strings.Join(it.Suppliers, ", "), it.IsActive, it.LastUpdated.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := writeRow(f, CatalogSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(NewsSheet); err != nil {
		return fmt.Errorf("create news sheet: %w", err)
	}
	if err := writeRow(f, NewsSheet, 1, newsHeader); err != nil {
		return err
	}
	for i, ev := range news {
		row := []any{
			ev.PublishedAt.UTC().Format("2006-01-02 15:04:05"), ev.TitleEN, ev.TitleAR, string(ev.Impact),
			ev.Breaking, ev.Category, strings.Join(ev.AffectedItems, ", "), ev.PercentChange,
		}
		if err := writeRow(f, NewsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
