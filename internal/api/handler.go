package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"PriceSentinel/internal/exporter"
	"PriceSentinel/internal/logging"
	"PriceSentinel/internal/metrics"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/trainer"
)

// Pricer resolves line-item prices.
type Pricer interface {
	Resolve(name string, pctx model.PricingContext) model.PriceResolution
	ResolveExtracted(ex model.ExtractedItem, pctx model.PricingContext) model.PriceResolution
}

// Market exposes the simulated market feed.
type Market interface {
	GetMarketNews(locale string, limit int) []model.NewsItem
	GetMarketStatistics() model.MarketStatistics
	RecentNews(n int) []model.MarketNewsEvent
}

// Catalog lists catalog snapshots.
type Catalog interface {
	All() []model.CatalogItem
}

// Models is the trained statistical layer.
type Models interface {
	PredictPrice(category, region string, quantity float64) (model.Prediction, error)
	AnalyzeRisk(p model.ProjectData) (model.RiskAssessment, error)
	TrainModels(ctx context.Context) (bool, error)
	Trained() bool
}

const (
	msgPriceUnavailable = "price unavailable"
	msgInvalidBody      = "Invalid request body"
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler contains HTTP handlers
type Handler struct {
	pricer  Pricer
	market  Market
	catalog Catalog
	models  Models
	backend string
	log     *zap.Logger
}

// NewHandler creates a new HTTP handler. backend names the active store for health reports.
func NewHandler(p Pricer, m Market, c Catalog, models Models, backend string, log *zap.Logger) *Handler {
	return &Handler{pricer: p, market: m, catalog: c, models: models, backend: backend, log: logging.OrNop(log)}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(h.requestLogger())

	router.GET("/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/resolve", h.resolve)
		v1.POST("/resolve/extracted", h.resolveExtracted)
		v1.GET("/news", h.news)
		v1.GET("/market/stats", h.marketStats)
		v1.GET("/catalog", h.listCatalog)
		v1.GET("/predict", h.predict)
		v1.POST("/risk", h.analyzeRisk)
		v1.POST("/train", h.train)
		v1.GET("/export", h.export)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"store":          h.backend,
		"models_trained": h.models.Trained(),
		"time":           time.Now().Unix(),
	})
}

// PricingSelectors are the optional request-scoped selectors shared by resolve endpoints.
type PricingSelectors struct {
	Region  string `json:"region"`
	Quality string `json:"quality"`
	Season  string `json:"season"`
	Urgency string `json:"urgency"`
}

func (s PricingSelectors) context(quantity float64, unit string) model.PricingContext {
	season, _ := model.ParseSeason(s.Season)
	urgency := model.UrgencyNormal
	if model.Urgency(s.Urgency) == model.UrgencyUrgent {
		urgency = model.UrgencyUrgent
	}
	return model.PricingContext{
		Region:   s.Region,
		Quality:  s.Quality,
		Season:   season,
		Quantity: quantity,
		Unit:     unit,
		Urgency:  urgency,
	}
}

// ResolveRequest is a single line item to price.
type ResolveRequest struct {
	PricingSelectors
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

func (h *Handler) resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.pricer.Resolve(req.Name, req.context(req.Quantity, req.Unit)))
}

// ResolveExtractedRequest carries scraper candidates to re-price.
type ResolveExtractedRequest struct {
	PricingSelectors
	Items []model.ExtractedItem `json:"items" binding:"required,min=1"`
}

func (h *Handler) resolveExtracted(c *gin.Context) {
	var req ResolveExtractedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	results := make([]model.PriceResolution, 0, len(req.Items))
	total := 0.0
	for _, it := range req.Items {
		res := h.pricer.ResolveExtracted(it, req.context(it.Quantity, it.Unit))
		total += res.TotalCost
		results = append(results, res)
	}
	c.JSON(http.StatusOK, gin.H{
		"results":    results,
		"total_cost": total,
	})
}

func (h *Handler) news(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"news": h.market.GetMarketNews(c.DefaultQuery("locale", "en"), limit),
	})
}

func (h *Handler) marketStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.market.GetMarketStatistics())
}

func (h *Handler) listCatalog(c *gin.Context) {
	category := c.Query("category")
	items := h.catalog.All()
	if category != "" {
		filtered := items[:0]
		for _, it := range items {
			if it.Category == category {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) predict(c *gin.Context) {
	category := c.Query("category")
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
		return
	}
	quantity := 1.0
	if q := c.Query("quantity"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
			return
		}
		quantity = v
	}

	p, err := h.models.PredictPrice(category, c.Query("region"), quantity)
	if err != nil {
		h.modelError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) analyzeRisk(c *gin.Context) {
	var req model.ProjectData
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.Season != "" {
		season, ok := model.ParseSeason(string(req.Season))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid season"})
			return
		}
		req.Season = season
	}

	a, err := h.models.AnalyzeRisk(req)
	if err != nil {
		h.modelError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) train(c *gin.Context) {
	ran, err := h.models.TrainModels(c.Request.Context())
	if err != nil {
		h.log.Error("training via api", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "training failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ran": ran, "models_trained": h.models.Trained()})
}

func (h *Handler) export(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="market.xlsx"`)
	c.Header("Content-Type", xlsxContentType)
	if err := exporter.WriteXLSX(c.Writer, h.catalog.All(), h.market.RecentNews(0)); err != nil {
		h.log.Error("export workbook", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

// badRequest logs the binding failure and answers with a neutral message.
func (h *Handler) badRequest(c *gin.Context, err error) {
	h.log.Debug("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
}

// modelError maps trained-model failures to neutral client messages.
func (h *Handler) modelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trainer.ErrModelsNotTrained):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgPriceUnavailable})
	case errors.Is(err, trainer.ErrUnknownCategory):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown category"})
	default:
		h.log.Error("model query", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgPriceUnavailable})
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
