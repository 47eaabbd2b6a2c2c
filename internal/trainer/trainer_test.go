package trainer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"PriceSentinel/internal/codec"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/store"
)

var trainedAt = time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)

func memStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	c, err := codec.New(16)
	require.NoError(t, err)
	s := store.NewMemoryStore(c)
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func newTrainer(t *testing.T, st store.Store, seed uint64) *Trainer {
	t.Helper()
	return New(st, zap.NewNop(), WithSeed(seed), WithClock(func() time.Time { return trainedAt }))
}

func trained(t *testing.T) *Trainer {
	t.Helper()
	tr := newTrainer(t, memStore(t), 42)
	ran, err := tr.TrainModels(context.Background())
	require.NoError(t, err)
	require.True(t, ran)
	return tr
}

func TestPredictBeforeTraining(t *testing.T) {
	tr := newTrainer(t, memStore(t), 1)

	_, err := tr.PredictPrice("steel", model.RegionRiyadh, 10)
	assert.True(t, errors.Is(err, ErrModelsNotTrained))

	_, err = tr.AnalyzeRisk(model.ProjectData{Category: "steel"})
	assert.True(t, errors.Is(err, ErrModelsNotTrained))
	assert.False(t, tr.Trained())
}

func TestTrainModelsBuildsEveryTable(t *testing.T) {
	st := memStore(t)
	tr := newTrainer(t, st, 42)
	ran, err := tr.TrainModels(context.Background())
	require.NoError(t, err)
	require.True(t, ran)

	m, err := tr.Models()
	require.NoError(t, err)
	assert.Equal(t, DefaultCorpusSize, m.Samples)
	assert.Equal(t, trainedAt, m.TrainedAt)
	for _, c := range Categories {
		assert.Greater(t, m.BasicPricing.CategoryMeans[c], 0.0, c)
		assert.Greater(t, m.PricePrediction.Trend[c], 0.0, c)
		assert.Greater(t, m.PricePrediction.Volatility[c], 0.0, c)
		assert.Len(t, m.PricePrediction.Seasonal[c], len(model.AllSeasons), c)
	}
	for _, r := range Regions {
		assert.Greater(t, m.BasicPricing.RegionMeans[r], 0.0, r)
	}
	assert.Greater(t, m.BasicPricing.CategoryMeans["steel"], m.BasicPricing.CategoryMeans["paint"])

	n, err := st.Count(context.Background(), store.PartitionCache)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "corpus and models are cached")
}

func TestPredictPriceQuantityTiers(t *testing.T) {
	tr := trained(t)

	single, err := tr.PredictPrice("steel", model.RegionRiyadh, 1)
	require.NoError(t, err)
	bulk, err := tr.PredictPrice("steel", model.RegionRiyadh, 1200)
	require.NoError(t, err)

	assert.Equal(t, 1.0, single.QuantityFactor)
	assert.Equal(t, 0.9, bulk.QuantityFactor)
	assert.InDelta(t, single.Price*0.9, bulk.Price, 0.01)
	assert.InDelta(t, bulk.CategoryMean*bulk.RegionFactor*bulk.SeasonFactor*0.9, bulk.Price, 0.01)
	assert.GreaterOrEqual(t, bulk.Confidence, 0.5)
	assert.LessOrEqual(t, bulk.Confidence, 1.0)

	tiers := []struct {
		quantity float64
		want     float64
	}{
		{100, 1.0},
		{101, 0.98},
		{500, 0.98},
		{501, 0.95},
		{1000, 0.95},
		{1001, 0.9},
	}
	for _, tt := range tiers {
		assert.Equal(t, tt.want, quantityFactor(tt.quantity), "quantity %v", tt.quantity)
	}
}

func TestPredictPriceUnknownInputs(t *testing.T) {
	tr := trained(t)

	_, err := tr.PredictPrice("unobtainium", model.RegionRiyadh, 1)
	assert.True(t, errors.Is(err, ErrUnknownCategory))

	p, err := tr.PredictPrice("tile", "atlantis", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.RegionFactor)
}

func TestCachedCorpusIsReused(t *testing.T) {
	st := memStore(t)
	first := newTrainer(t, st, 1)
	_, err := first.TrainModels(context.Background())
	require.NoError(t, err)

	second := newTrainer(t, st, 999)
	_, err = second.TrainModels(context.Background())
	require.NoError(t, err)

	a, _ := first.Models()
	b, _ := second.Models()
	assert.Equal(t, a.BasicPricing, b.BasicPricing)
}

func TestFailedRunKeepsPreviousModels(t *testing.T) {
	st := memStore(t)
	tr := newTrainer(t, st, 42)
	_, err := tr.TrainModels(context.Background())
	require.NoError(t, err)
	before, _ := tr.Models()

	bad := []Observation{{Category: "steel", Region: model.RegionRiyadh, Price: 0, ObservedAt: trainedAt}}
	require.NoError(t, st.Put(context.Background(), store.PartitionCache, CorpusKey, bad))

	ran, err := tr.TrainModels(context.Background())
	assert.True(t, ran)
	require.Error(t, err)

	after, err := tr.Models()
	require.NoError(t, err)
	assert.Equal(t, before.BasicPricing, after.BasicPricing)

	ran, err = tr.TrainModels(context.Background())
	assert.True(t, ran, "the in-flight flag is released after a failure")
	assert.Error(t, err)
}

func TestLoadCachedModels(t *testing.T) {
	st := memStore(t)
	_, err := newTrainer(t, st, 42).TrainModels(context.Background())
	require.NoError(t, err)

	fresh := newTrainer(t, st, 7)
	ok, err := fresh.LoadCachedModels(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	p, err := fresh.PredictPrice("concrete", model.RegionJeddah, 10)
	require.NoError(t, err)
	assert.Greater(t, p.Price, 0.0)
}

func TestWarmup(t *testing.T) {
	ctx := context.Background()

	t.Run("undecodable cache is retrained", func(t *testing.T) {
		st := memStore(t)
		require.NoError(t, st.Put(ctx, store.PartitionCache, ModelsKey, "legacy-format"))

		tr := newTrainer(t, st, 42)
		require.NoError(t, tr.Warmup(ctx))
		require.True(t, tr.Trained())

		_, err := tr.PredictPrice("steel", model.RegionRiyadh, 1200)
		require.NoError(t, err)

		again := newTrainer(t, st, 7)
		ok, err := again.LoadCachedModels(ctx)
		require.NoError(t, err)
		assert.True(t, ok, "the fresh run must overwrite the unreadable record")
	})

	t.Run("usable cache skips training", func(t *testing.T) {
		st := memStore(t)
		_, err := newTrainer(t, st, 42).TrainModels(ctx)
		require.NoError(t, err)
		require.NoError(t, st.Put(ctx, store.PartitionCache, CorpusKey, []Observation{}))

		tr := newTrainer(t, st, 7)
		require.NoError(t, tr.Warmup(ctx))
		assert.True(t, tr.Trained())

		var corpus []Observation
		found, err := st.Get(ctx, store.PartitionCache, CorpusKey, &corpus)
		require.NoError(t, err)
		require.True(t, found)
		assert.Empty(t, corpus, "no corpus is synthesized when cached models load")
	})

	t.Run("empty store trains", func(t *testing.T) {
		tr := newTrainer(t, memStore(t), 1)
		require.NoError(t, tr.Warmup(ctx))
		assert.True(t, tr.Trained())
	})
}

func TestNilLoggerIsTolerated(t *testing.T) {
	tr := New(memStore(t), nil, WithCorpusSize(400), WithSeed(9))
	require.NoError(t, tr.Warmup(context.Background()))
	assert.True(t, tr.Trained())
}

// blockingStore parks the first Get until release is closed.
type blockingStore struct {
	store.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Get(ctx context.Context, partition, key string, out any) (bool, error) {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return b.Store.Get(ctx, partition, key, out)
}

func TestConcurrentTrainingIsNoop(t *testing.T) {
	bs := &blockingStore{Store: memStore(t), entered: make(chan struct{}), release: make(chan struct{})}
	tr := newTrainer(t, bs, 42)

	type result struct {
		ran bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ran, err := tr.TrainModels(context.Background())
		done <- result{ran, err}
	}()
	<-bs.entered

	ran, err := tr.TrainModels(context.Background())
	assert.NoError(t, err)
	assert.False(t, ran, "second run while the first is in flight")
	assert.False(t, tr.Trained())

	close(bs.release)
	first := <-done
	require.NoError(t, first.err)
	assert.True(t, first.ran)
	assert.True(t, tr.Trained())
}
