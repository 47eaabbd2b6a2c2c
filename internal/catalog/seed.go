package catalog

import (
	"math"
	"time"

	"PriceSentinel/internal/model"
)

var standardGrades = map[string]float64{
	model.GradeEconomy:  0.85,
	model.GradeStandard: 1.0,
	model.GradePremium:  1.25,
}

type seed struct {
	id, code       string
	nameEN, nameAR string
	category, sub  string
	unit           string
	base           float64
	volatility     model.VolatilityClass
	trend          model.TrendClass
	seasonal       map[model.Season]float64
	suppliers      []string
	active         bool
}

var seeds = []seed{
	{"concrete-c30", "CON-C30", "Ready-mix concrete C30", "خرسانة جاهزة C30", "concrete", "ready-mix", "m3", 280,
		model.VolatilityMedium, model.TrendRising,
		map[model.Season]float64{model.SeasonSummer: 1.05, model.SeasonWinter: 0.98},
		[]string{"Saudi Readymix", "Al-Rashed Concrete", "Bina Concrete"}, true},
	{"rebar-16", "STL-R16", "Steel rebar 16mm", "حديد تسليح 16 مم", "steel", "rebar", "ton", 3200,
		model.VolatilityHigh, model.TrendRising,
		map[model.Season]float64{model.SeasonSummer: 1.03, model.SeasonSpring: 1.02},
		[]string{"SABIC Hadeed", "Rajhi Steel"}, true},
	{"ceramic-tile-60", "TIL-C60", "Ceramic floor tile 60x60", "بلاط سيراميك 60x60", "tile", "ceramic", "m2", 85,
		model.VolatilityLow, model.TrendStable,
		map[model.Season]float64{model.SeasonAutumn: 0.97},
		[]string{"Saudi Ceramics", "RAK Ceramics", "Cleopatra"}, true},
	{"paint-emulsion", "PNT-EMU", "Interior emulsion paint", "دهان داخلي", "paint", "emulsion", "liter", 45,
		model.VolatilityLow, model.TrendStable,
		map[model.Season]float64{model.SeasonSpring: 1.04, model.SeasonWinter: 0.96},
		[]string{"Jotun", "Al-Jazeera Paints", "National Paints"}, true},
	{"electrical-point", "ELE-PT", "Electrical outlet point", "نقطة كهرباء", "electrical", "wiring", "point", 150,
		model.VolatilityMedium, model.TrendFalling,
		nil,
		[]string{"Riyadh Cables", "Alfanar"}, true},
	{"plumbing-point", "PLB-PT", "Plumbing supply point", "نقطة سباكة", "plumbing", "supply", "point", 120,
		model.VolatilityMedium, model.TrendStable,
		map[model.Season]float64{model.SeasonSummer: 1.02},
		[]string{"Saudi Pipes", "Amiantit", "Al-Watania Plastics"}, true},
	{"block-20", "BLK-20", "Hollow concrete block 20cm", "بلوك خرساني مفرغ 20 سم", "blocks", "hollow", "piece", 3.5,
		model.VolatilityLow, model.TrendRising,
		map[model.Season]float64{model.SeasonSummer: 1.06, model.SeasonWinter: 0.97},
		[]string{"Al-Yamama Blocks", "Saudi Block"}, true},
	{"xps-insulation", "INS-XPS", "XPS insulation board 50mm", "ألواح عزل XPS 50 مم", "insulation", "thermal", "m2", 38,
		model.VolatilityMedium, model.TrendRising,
		map[model.Season]float64{model.SeasonSummer: 1.12},
		[]string{"Thermocool"}, true},
	{"washed-sand", "AGG-SND", "Washed sand", "رمل مغسول", "aggregate", "sand", "m3", 65,
		model.VolatilityHigh, model.TrendFalling,
		nil,
		[]string{"Eastern Quarries", "Al-Muhaidib Aggregates"}, true},
	{"gypsum-board", "DRY-GYP", "Gypsum board 12.5mm", "ألواح جبس 12.5 مم", "drywall", "board", "m2", 32,
		model.VolatilityLow, model.TrendStable,
		map[model.Season]float64{model.SeasonAutumn: 1.02},
		[]string{"Gyptec", "Knauf"}, true},
	{"marble-slab", "TIL-MRB", "Marble floor slab", "رخام أرضيات", "tile", "marble", "m2", 320,
		model.VolatilityHigh, model.TrendStable,
		nil,
		[]string{"Saudi Marble"}, false},
}

// DefaultItems returns the built-in catalog, priced at base and stamped at now.
func DefaultItems(now time.Time) []model.CatalogItem {
	out := make([]model.CatalogItem, 0, len(seeds))
	for _, s := range seeds {
		it := model.CatalogItem{
			ID:              s.id,
			Code:            s.code,
			NameEN:          s.nameEN,
			NameAR:          s.nameAR,
			Category:        s.category,
			Subcategory:     s.sub,
			Unit:            s.unit,
			BasePrice:       s.base,
			RegionalPrices:  RegionalPrices(s.base),
			QualityGrades:   make(map[string]model.QualityGrade, len(standardGrades)),
			SeasonalFactors: make(map[model.Season]float64, len(model.AllSeasons)),
			Volatility:      s.volatility,
			Trend:           s.trend,
			Suppliers:       append([]string(nil), s.suppliers...),
			IsActive:        s.active,
		}
		for grade, m := range standardGrades {
			it.QualityGrades[grade] = model.QualityGrade{Price: round2(s.base * m), Multiplier: m}
		}
		for _, season := range model.AllSeasons {
			f, ok := s.seasonal[season]
			if !ok {
				f = 1.0
			}
			it.SeasonalFactors[season] = f
		}
		it.AppendHistory(s.base, now)
		out = append(out, it)
	}
	return out
}

// RegionalPrices derives every region's price from a national price.
func RegionalPrices(price float64) map[string]float64 {
	out := make(map[string]float64, len(model.RegionMultipliers))
	for region, m := range model.RegionMultipliers {
		out[region] = round2(price * m)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
