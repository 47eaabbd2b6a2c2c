package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SimulationTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simulation_ticks_total",
		Help: "Total number of market simulation ticks applied",
	})

	NewsEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_news_events_total",
		Help: "Total number of market news events emitted",
	}, []string{"impact"})

	PriceResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_resolutions_total",
		Help: "Total number of price resolutions",
	}, []string{"source"})

	ResolutionConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "price_resolution_confidence",
		Help:    "Confidence of resolved prices",
		Buckets: []float64{0.5, 0.6, 0.7, 0.8, 0.9, 0.95},
	})

	TrainingRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "training_runs_total",
		Help: "Total number of model training runs",
	}, []string{"result"})

	TrainingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "training_duration_seconds",
		Help:    "Duration of model training runs",
		Buckets: prometheus.DefBuckets,
	})

	StoreOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_operations_total",
		Help: "Total number of persistent store operations",
	}, []string{"op", "result"})

	StoreSweptRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_swept_records_total",
		Help: "Total number of records removed by age sweeps",
	})

	CodecCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codec_cache_lookups_total",
		Help: "Codec memo cache lookups",
	}, []string{"direction", "result"})
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
