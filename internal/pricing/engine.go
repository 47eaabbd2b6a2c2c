// Package pricing resolves contextual unit prices for construction line items.
package pricing

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/logging"
	"PriceSentinel/internal/metrics"
	"PriceSentinel/internal/model"
)

// CatalogReader is the read-only catalog view the engine prices from.
type CatalogReader interface {
	FindByName(name string) (model.CatalogItem, bool)
}

// NewsSource supplies recent market news, most recent first.
type NewsSource interface {
	RecentNews(n int) []model.MarketNewsEvent
}

// Predictor is the optional trained-model estimate consulted for insights.
type Predictor interface {
	PredictPrice(category, region string, quantity float64) (model.Prediction, error)
}

// Config holds the tunable pricing constants.
type Config struct {
	QuantityThreshold float64
	MaxDiscount       float64
	DiscountPerUnit   float64
	UrgencyPremium    float64
}

// DefaultConfig returns the standard pricing constants.
func DefaultConfig() Config {
	return Config{
		QuantityThreshold: 50,
		MaxDiscount:       0.10,
		DiscountPerUnit:   0.0002,
		UrgencyPremium:    0.15,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.QuantityThreshold <= 0 {
		c.QuantityThreshold = d.QuantityThreshold
	}
	if c.MaxDiscount <= 0 {
		c.MaxDiscount = d.MaxDiscount
	}
	if c.DiscountPerUnit <= 0 {
		c.DiscountPerUnit = d.DiscountPerUnit
	}
	if c.UrgencyPremium <= 0 {
		c.UrgencyPremium = d.UrgencyPremium
	}
	return c
}

// Engine never mutates the catalog; it prices from snapshots.
type Engine struct {
	catalog   CatalogReader
	news      NewsSource
	predictor Predictor
	cfg       Config
	log       *zap.Logger
	now       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithPredictor attaches a trained-model predictor.
func WithPredictor(p Predictor) Option {
	return func(e *Engine) { e.predictor = p }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSeed makes the heuristic jitter deterministic.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewPCG(seed, seed+1)) }
}

// New creates an Engine. Zero fields in cfg take their defaults.
func New(cat CatalogReader, news NewsSource, cfg Config, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		news:    news,
		cfg:     cfg.withDefaults(),
		log:     logging.OrNop(log),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed+1))
	}
	return e
}

// Resolve prices a line item by display name. Names without a catalog match are estimated
// heuristically; Resolve never fails.
func (e *Engine) Resolve(name string, pctx model.PricingContext) model.PriceResolution {
	if item, ok := e.catalog.FindByName(name); ok && item.IsActive {
		return e.ResolveItem(item, pctx)
	}
	return e.heuristic(name, pctx)
}

// ResolveItem prices a catalog item in context.
func (e *Engine) ResolveItem(item model.CatalogItem, pctx model.PricingContext) model.PriceResolution {
	now := e.now()
	quantity := effectiveQuantity(pctx.Quantity)
	season := pctx.Season
	if season == "" {
		season = model.SeasonAt(now)
	}

	adj := e.adjust(item, pctx, season, quantity)
	final := roundTo(adj.price, 0)
	if final <= 0 {
		final = roundTo(adj.price, 2)
	}

	res := model.PriceResolution{
		ItemID:     item.ID,
		Name:       item.NameEN,
		Unit:       item.Unit,
		Quantity:   quantity,
		BasePrice:  roundTo(adj.breakdown.Base, 2),
		FinalPrice: final,
		TotalCost:  roundTo(final*quantity, 2),
		PriceRange: priceRange(final, item.Volatility),
		Confidence: confidence(item, now),
		Verified:   true,
		Source:     model.SourceCatalog,
		Breakdown:  roundBreakdown(adj.breakdown),
	}
	res.Insights = e.insights(item, pctx, season, quantity, adj, res.FinalPrice)
	res.RiskFactors = riskFactors(item, adj)
	res.Optimizations = e.optimizations(item, pctx, season, quantity, adj)

	e.record(res)
	e.log.Debug("price resolved",
		zap.String("item", item.ID),
		zap.Float64("final_price", res.FinalPrice),
		zap.Float64("confidence", res.Confidence),
	)
	return res
}

// ResolveExtracted re-prices a candidate produced by document extraction. The result is
// never verified; the document's own price, if any, is kept as a reference insight.
func (e *Engine) ResolveExtracted(ex model.ExtractedItem, pctx model.PricingContext) model.PriceResolution {
	if ex.Quantity > 0 {
		pctx.Quantity = ex.Quantity
	}
	if ex.Unit != "" {
		pctx.Unit = ex.Unit
	}

	res := e.Resolve(ex.ItemName, pctx)
	matched := res.Source == model.SourceCatalog
	res.Verified = false
	res.Source = model.SourceExtracted

	if ex.Confidence > 0 && ex.Confidence < res.Confidence {
		res.Confidence = calculator.Clamp(ex.Confidence, 0.5, 0.95)
	}
	if matched {
		res.Insights = append(res.Insights, model.Insight{Kind: "extracted", Message: "Extracted item matched a catalog entry; confirm before use"})
	} else {
		res.Insights = append(res.Insights, model.Insight{Kind: "extracted", Message: "Extracted item has no catalog match; price is a keyword estimate"})
	}
	if ex.Price != nil && *ex.Price > 0 && res.FinalPrice > 0 {
		diff := calculator.PercentChange(*ex.Price, res.FinalPrice)
		res.Insights = append(res.Insights, model.Insight{
			Kind:    "reference",
			Message: fmt.Sprintf("Document price %.2f differs from the resolved price by %+.1f%%", *ex.Price, diff),
		})
	}
	metrics.PriceResolutionsTotal.WithLabelValues(model.SourceExtracted).Inc()
	return res
}

func (e *Engine) record(res model.PriceResolution) {
	metrics.PriceResolutionsTotal.WithLabelValues(res.Source).Inc()
	metrics.ResolutionConfidence.Observe(res.Confidence)
}

func (e *Engine) jitter() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64()
}

func effectiveQuantity(q float64) float64 {
	if q <= 0 {
		return 1
	}
	return q
}

// roundTo rounds half away from zero to places decimals.
func roundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

func roundBreakdown(b model.Breakdown) model.Breakdown {
	return model.Breakdown{
		Base:             roundTo(b.Base, 2),
		Regional:         roundTo(b.Regional, 2),
		Quality:          roundTo(b.Quality, 2),
		Seasonal:         roundTo(b.Seasonal, 2),
		TrendDemand:      roundTo(b.TrendDemand, 2),
		QuantityDiscount: roundTo(b.QuantityDiscount, 2),
		UrgencyPremium:   roundTo(b.UrgencyPremium, 2),
		RiskPremium:      roundTo(b.RiskPremium, 2),
	}
}
