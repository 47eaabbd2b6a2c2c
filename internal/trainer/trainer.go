// Package trainer summarizes a synthetic price corpus into lookup tables used for price
// prediction and project risk analysis.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"PriceSentinel/internal/logging"
	"PriceSentinel/internal/metrics"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/store"
)

// Cache keys in the store's cache partition.
const (
	CorpusKey = "training_corpus"
	ModelsKey = "trained_models"
)

// ErrModelsNotTrained is returned by predictions and analyses issued before any successful run.
var ErrModelsNotTrained = errors.New("models not trained")

// Trainer owns the trained tables. Predictions may run concurrently with a training run;
// they see the previous tables until the new ones are complete.
type Trainer struct {
	store      store.Store
	log        *zap.Logger
	corpusSize int
	now        func() time.Time
	rng        *rand.Rand

	inFlight atomic.Bool

	mu     sync.RWMutex
	models *Models
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithCorpusSize sets the synthetic corpus size.
func WithCorpusSize(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.corpusSize = n
		}
	}
}

// WithSeed makes corpus synthesis deterministic.
func WithSeed(seed uint64) Option {
	return func(t *Trainer) { t.rng = rand.New(rand.NewPCG(seed, seed+1)) }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) { t.now = now }
}

// New creates a Trainer that caches its corpus and models in st.
func New(st store.Store, log *zap.Logger, opts ...Option) *Trainer {
	t := &Trainer{
		store:      st,
		log:        logging.OrNop(log),
		corpusSize: DefaultCorpusSize,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.rng == nil {
		seed := uint64(time.Now().UnixNano())
		t.rng = rand.New(rand.NewPCG(seed, seed+1))
	}
	return t
}

// TrainModels rebuilds every model table. It returns ran=false without doing anything when
// another run is in flight. On error the previously trained tables stay in place.
func (t *Trainer) TrainModels(ctx context.Context) (ran bool, err error) {
	if !t.inFlight.CompareAndSwap(false, true) {
		metrics.TrainingRunsTotal.WithLabelValues("skipped").Inc()
		t.log.Debug("training already in flight")
		return false, nil
	}
	defer t.inFlight.Store(false)

	started := time.Now()
	defer func() {
		metrics.TrainingDuration.Observe(time.Since(started).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.TrainingRunsTotal.WithLabelValues(result).Inc()
	}()

	corpus, err := t.loadCorpus(ctx)
	if err != nil {
		t.log.Error("training aborted", zap.Error(err))
		return true, err
	}
	if err := ctx.Err(); err != nil {
		return true, fmt.Errorf("training cancelled: %w", err)
	}

	models, err := deriveModels(corpus, t.now())
	if err != nil {
		t.log.Error("training aborted", zap.Error(err))
		return true, fmt.Errorf("derive models: %w", err)
	}

	t.mu.Lock()
	t.models = models
	t.mu.Unlock()

	if err := t.store.Put(ctx, store.PartitionCache, ModelsKey, models); err != nil {
		t.log.Warn("cache trained models", zap.Error(err))
	}
	t.log.Info("models trained",
		zap.Int("samples", models.Samples),
		zap.Int("categories", len(models.BasicPricing.CategoryMeans)),
		zap.Duration("took", time.Since(started)),
	)
	return true, nil
}

// loadCorpus returns the cached corpus, or synthesizes and caches a new one. Cache failures
// are logged and never abort training.
func (t *Trainer) loadCorpus(ctx context.Context) ([]Observation, error) {
	var corpus []Observation
	found, err := t.store.Get(ctx, store.PartitionCache, CorpusKey, &corpus)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("load corpus: %w", ctx.Err())
		}
		t.log.Warn("read cached corpus", zap.Error(err))
	}
	if found && len(corpus) > 0 {
		t.log.Debug("using cached corpus", zap.Int("samples", len(corpus)))
		return corpus, nil
	}

	corpus = synthesize(t.corpusSize, t.now(), t.rng)
	if err := t.store.Put(ctx, store.PartitionCache, CorpusKey, corpus); err != nil {
		t.log.Warn("cache corpus", zap.Error(err))
	}
	return corpus, nil
}

// LoadCachedModels installs the tables cached by an earlier run, if any. It does nothing
// when models are already trained.
func (t *Trainer) LoadCachedModels(ctx context.Context) (bool, error) {
	if t.Trained() {
		return false, nil
	}
	var cached Models
	found, err := t.store.Get(ctx, store.PartitionCache, ModelsKey, &cached)
	if err != nil || !found || len(cached.BasicPricing.CategoryMeans) == 0 {
		return false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.models == nil {
		t.models = &cached
	}
	return true, nil
}

// Warmup installs cached tables when they decode, and trains otherwise. A cached record
// that cannot be read is logged and replaced by the fresh run.
func (t *Trainer) Warmup(ctx context.Context) error {
	ok, err := t.LoadCachedModels(ctx)
	if err != nil {
		t.log.Warn("cached models unusable, retraining", zap.Error(err))
	}
	if ok || t.Trained() {
		t.log.Info("using cached models")
		return nil
	}
	if _, err := t.TrainModels(ctx); err != nil {
		return err
	}
	return nil
}

// Trained reports whether a training run has completed.
func (t *Trainer) Trained() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.models != nil
}

func (t *Trainer) current() (*Models, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.models == nil {
		return nil, ErrModelsNotTrained
	}
	return t.models, nil
}

// Models returns the current tables.
func (t *Trainer) Models() (Models, error) {
	m, err := t.current()
	if err != nil {
		return Models{}, err
	}
	return *m, nil
}

// PredictPrice estimates a unit price for category in region at quantity, in the current season.
func (t *Trainer) PredictPrice(category, region string, quantity float64) (model.Prediction, error) {
	m, err := t.current()
	if err != nil {
		return model.Prediction{}, err
	}
	return m.predict(category, region, quantity, model.SeasonAt(t.now()))
}

// AnalyzeRisk scores a project over the five weighted risk dimensions. An empty season
// means the current one.
func (t *Trainer) AnalyzeRisk(p model.ProjectData) (model.RiskAssessment, error) {
	m, err := t.current()
	if err != nil {
		return model.RiskAssessment{}, err
	}
	season := p.Season
	if season == "" {
		season = model.SeasonAt(t.now())
	}
	return assess(m, p, season), nil
}
