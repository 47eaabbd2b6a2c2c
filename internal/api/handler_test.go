package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"PriceSentinel/internal/catalog"
	"PriceSentinel/internal/codec"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/pricing"
	"PriceSentinel/internal/simulator"
	"PriceSentinel/internal/store"
	"PriceSentinel/internal/trainer"
)

var testNow = time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	router *gin.Engine
	sim    *simulator.Simulator
	tr     *trainer.Trainer
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c, err := codec.New(16)
	require.NoError(t, err)
	st := store.NewMemoryStore(c)
	require.NoError(t, st.Initialize(context.Background()))

	clock := func() time.Time { return testNow }
	cat := catalog.New(catalog.DefaultItems(testNow))
	sim := simulator.New(cat, time.Minute, zap.NewNop(), simulator.WithClock(clock), simulator.WithSeed(7))
	tr := trainer.New(st, zap.NewNop(), trainer.WithCorpusSize(400), trainer.WithSeed(3), trainer.WithClock(clock))
	engine := pricing.New(cat, sim, pricing.DefaultConfig(), zap.NewNop(),
		pricing.WithPredictor(tr), pricing.WithClock(clock), pricing.WithSeed(5))

	router := gin.New()
	NewHandler(engine, sim, cat, tr, st.Backend(), zap.NewNop()).SetupRoutes(router)
	return &testEnv{router: router, sim: sim, tr: tr}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "memory", body["store"])
	assert.Equal(t, false, body["models_trained"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := setup(t)
	env.do(t, http.MethodGet, "/health", nil)

	w := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestResolveCatalogItem(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodPost, "/api/v1/resolve", map[string]any{
		"name":     "concrete-c30",
		"quantity": 10,
		"season":   "summer",
	})
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[model.PriceResolution](t, w)
	assert.Equal(t, model.SourceCatalog, res.Source)
	assert.True(t, res.Verified)
	assert.Equal(t, "concrete-c30", res.ItemID)
	assert.Greater(t, res.FinalPrice, 0.0)
	assert.InDelta(t, res.FinalPrice*10, res.TotalCost, 1e-6)
}

func TestResolveUnknownFallsBackToHeuristic(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodPost, "/api/v1/resolve", map[string]any{
		"name":     "imported ceramic tile batch",
		"quantity": 20,
		"unit":     "m2",
	})
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[model.PriceResolution](t, w)
	assert.Equal(t, model.SourceHeuristic, res.Source)
	assert.False(t, res.Verified)
	assert.InDelta(t, 0.7, res.Confidence, 1e-9)
}

func TestResolveRejectsMissingName(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodPost, "/api/v1/resolve", map[string]any{"quantity": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]string{"error": "Invalid request body"}, decode[map[string]string](t, w))
}

func TestBindingErrorsStayNeutral(t *testing.T) {
	env := setup(t)
	for _, path := range []string{"/api/v1/resolve", "/api/v1/resolve/extracted", "/api/v1/risk"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{"name": 12, "items": "x", "category": [`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decode[map[string]any](t, w)
			assert.Equal(t, map[string]any{"error": "Invalid request body"}, body)
			assert.NotContains(t, w.Body.String(), "json")
		})
	}
}

func TestResolveExtracted(t *testing.T) {
	env := setup(t)
	price := 300.0
	w := env.do(t, http.MethodPost, "/api/v1/resolve/extracted", map[string]any{
		"region": model.RegionRiyadh,
		"items": []model.ExtractedItem{
			{ItemName: "Ready-mix concrete", Quantity: 5, Unit: "m3", Price: &price, Confidence: 0.6},
			{ItemName: "Galvanized pipe", Quantity: 12, Unit: "m", Confidence: 0.9},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Results   []model.PriceResolution `json:"results"`
		TotalCost float64                 `json:"total_cost"`
	}](t, w)
	require.Len(t, body.Results, 2)
	for _, r := range body.Results {
		assert.Equal(t, model.SourceExtracted, r.Source)
		assert.False(t, r.Verified)
	}
	assert.LessOrEqual(t, body.Results[0].Confidence, 0.6)
	assert.InDelta(t, body.Results[0].TotalCost+body.Results[1].TotalCost, body.TotalCost, 1e-6)
}

func TestResolveExtractedRequiresItems(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodPost, "/api/v1/resolve/extracted", map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewsAndStatistics(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/api/v1/news?locale=ar&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	news := decode[map[string][]model.NewsItem](t, w)
	assert.LessOrEqual(t, len(news["news"]), 5)

	w = env.do(t, http.MethodGet, "/api/v1/news?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/market/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[model.MarketStatistics](t, w)
	assert.Equal(t, 10, stats.RisingCount+stats.FallingCount+stats.StableCount)
}

func TestCatalogListing(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[map[string][]model.CatalogItem](t, w)
	assert.Len(t, all["items"], 11)

	w = env.do(t, http.MethodGet, "/api/v1/catalog?category=no-such-category", nil)
	require.Equal(t, http.StatusOK, w.Code)
	none := decode[map[string][]model.CatalogItem](t, w)
	assert.Empty(t, none["items"])
}

func TestModelEndpointsBeforeTraining(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/api/v1/predict?category=steel&region=riyadh&quantity=10", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "price unavailable", decode[map[string]string](t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/v1/risk", model.ProjectData{Category: "steel"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTrainThenPredict(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/api/v1/train", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]bool](t, w)
	assert.True(t, body["ran"])
	assert.True(t, body["models_trained"])

	w = env.do(t, http.MethodGet, "/api/v1/predict?category=steel&region="+model.RegionRiyadh+"&quantity=600", nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[model.Prediction](t, w)
	assert.Greater(t, p.Price, 0.0)
	assert.InDelta(t, 0.95, p.QuantityFactor, 1e-9)

	w = env.do(t, http.MethodGet, "/api/v1/predict?category=unobtainium", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/predict?category=steel&quantity=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/risk", model.ProjectData{Category: "steel", Region: model.RegionRiyadh, Season: model.SeasonSummer})
	require.Equal(t, http.StatusOK, w.Code)
	a := decode[model.RiskAssessment](t, w)
	assert.Len(t, a.Factors, 5)
	assert.GreaterOrEqual(t, a.Score, 0.0)
	assert.LessOrEqual(t, a.Score, 1.0)

	w = env.do(t, http.MethodPost, "/api/v1/risk", map[string]string{"category": "steel", "season": "monsoon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportWorkbook(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Catalog")
	require.NoError(t, err)
	assert.Len(t, rows, 12)
}
