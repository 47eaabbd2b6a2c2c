package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"PriceSentinel/internal/api"
	"PriceSentinel/internal/catalog"
	"PriceSentinel/internal/codec"
	"PriceSentinel/internal/config"
	"PriceSentinel/internal/logging"
	"PriceSentinel/internal/pricing"
	"PriceSentinel/internal/scheduler"
	"PriceSentinel/internal/simulator"
	"PriceSentinel/internal/store"
	"PriceSentinel/internal/trainer"
)

const shutdownTimeout = 10 * time.Second

type initMarker struct {
	StartedAt time.Time `json:"started_at"`
	Backend   string    `json:"backend"`
}

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic("load config: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic("config validation: " + err.Error())
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer logger.Sync()
	logger.Info("PriceSentinel starting", zap.String("env", cfg.Env))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("PriceSentinel stopped with error", zap.Error(err))
	}
	logger.Info("PriceSentinel stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cdc, err := codec.New(cfg.Codec.CacheSize)
	if err != nil {
		return err
	}

	// Init store; the session continues in memory when the durable backend is unavailable
	st, err := store.Open(ctx, cfg.Store.SQLitePath, cdc, logger)
	var unavailable *store.StoreUnavailableError
	if errors.As(err, &unavailable) {
		logger.Warn("running with in-memory store", zap.Error(err))
	} else if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Put(ctx, store.PartitionCache, "init_marker", initMarker{StartedAt: time.Now(), Backend: st.Backend()}); err != nil {
		logger.Warn("write init marker", zap.Error(err))
	}
	logger.Info("store ready", zap.String("backend", st.Backend()))

	// Init market
	cat := catalog.New(catalog.DefaultItems(time.Now()))
	var simOpts []simulator.Option
	if cfg.Simulator.Seed != 0 {
		simOpts = append(simOpts, simulator.WithSeed(cfg.Simulator.Seed))
	}
	sim := simulator.New(cat, cfg.Simulator.Interval, logger, simOpts...)

	// Init trainer
	trOpts := []trainer.Option{trainer.WithCorpusSize(cfg.Trainer.CorpusSize)}
	if cfg.Trainer.Seed != 0 {
		trOpts = append(trOpts, trainer.WithSeed(cfg.Trainer.Seed))
	}
	tr := trainer.New(st, logger, trOpts...)
	if err := tr.Warmup(ctx); err != nil {
		logger.Error("initial training failed, model endpoints unavailable", zap.Error(err))
	}

	// Init pricing engine
	pcfg := pricing.DefaultConfig()
	pcfg.QuantityThreshold = cfg.Pricing.QuantityThreshold
	pcfg.MaxDiscount = cfg.Pricing.MaxDiscount
	pcfg.DiscountPerUnit = cfg.Pricing.DiscountPerUnit
	engine := pricing.New(cat, sim, pcfg, logger, pricing.WithPredictor(tr))

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, sim, st, tr, cfg.Store.MaxAge, logger)
	if n, err := sched.RestoreMarket(ctx); err != nil {
		logger.Warn("restore market snapshot", zap.Error(err))
	} else if n > 0 {
		logger.Info("market snapshot restored", zap.Int("items", n))
	}
	if err := sched.RegisterAll(cfg.Schedule.TickCron, cfg.Schedule.SweepCron, cfg.Schedule.TrainCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if cfg.RunOnStart {
		logger.Info("run_on_start enabled, ticking market now")
		sched.RunTickNow()
	}

	// Init HTTP server
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	api.NewHandler(engine, sim, cat, tr, st.Backend(), logger).SetupRoutes(router)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received, stopping...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
