package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"PriceSentinel/internal/simulator"
	"PriceSentinel/internal/store"
)

// Cache keys owned by the scheduler.
const (
	SnapshotKey = "market_snapshot"
)

// Market is the simulator surface driven by the scheduler.
type Market interface {
	Tick() bool
	Snapshot() simulator.Snapshot
	Restore(simulator.Snapshot) int
}

// Trainer rebuilds model tables.
type Trainer interface {
	TrainModels(ctx context.Context) (bool, error)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron    *cron.Cron
	Market  Market
	Store   store.Store
	Trainer Trainer
	MaxAge  time.Duration
	Log     *zap.Logger
	Ctx     context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, m Market, st store.Store, tr Trainer, maxAge time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Market:  m,
		Store:   st,
		Trainer: tr,
		MaxAge:  maxAge,
		Log:     log,
		Ctx:     ctx,
	}
}

// RegisterAll registers the simulation tick, store sweep and retraining tasks. An empty
// train spec (config value "off") disables periodic retraining.
func (s *Scheduler) RegisterAll(tickCron, sweepCron, trainCron string) error {
	if _, err := s.Cron.AddFunc(tickCron, func() { s.tickTask() }); err != nil {
		return fmt.Errorf("register tick task: %w", err)
	}
	if _, err := s.Cron.AddFunc(sweepCron, s.sweepTask); err != nil {
		return fmt.Errorf("register sweep task: %w", err)
	}
	if trainCron != "" {
		if _, err := s.Cron.AddFunc(trainCron, s.trainTask); err != nil {
			return fmt.Errorf("register train task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started", zap.Int("tasks", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running tasks to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// RunTickNow executes the tick task immediately.
func (s *Scheduler) RunTickNow() bool {
	return s.tickTask()
}

// RunSweepNow executes the sweep task immediately.
func (s *Scheduler) RunSweepNow() (int, error) {
	return s.sweep()
}

// RunTrainNow executes the training task immediately.
func (s *Scheduler) RunTrainNow() {
	s.trainTask()
}

func (s *Scheduler) tickTask() bool {
	if !s.Market.Tick() {
		s.Log.Debug("tick skipped, interval not elapsed")
		return false
	}
	if err := s.Store.Put(s.Ctx, store.PartitionCache, SnapshotKey, s.Market.Snapshot()); err != nil {
		s.Log.Warn("persist market snapshot", zap.Error(err))
	}
	return true
}

func (s *Scheduler) sweepTask() {
	_, _ = s.sweep()
}

func (s *Scheduler) sweep() (int, error) {
	removed, err := s.Store.Sweep(s.Ctx, s.MaxAge)
	if err != nil {
		s.Log.Error("store sweep", zap.Error(err))
		return removed, err
	}
	s.Log.Info("store sweep finished", zap.Int("removed", removed), zap.Duration("max_age", s.MaxAge))
	return removed, nil
}

func (s *Scheduler) trainTask() {
	ran, err := s.Trainer.TrainModels(s.Ctx)
	if err != nil {
		s.Log.Error("scheduled training", zap.Error(err))
		return
	}
	if !ran {
		s.Log.Info("scheduled training skipped, run already in flight")
	}
}

// RestoreMarket loads the last persisted market snapshot, if any, into the simulator.
// It must run before Start so the simulator stays the catalog's only writer.
func (s *Scheduler) RestoreMarket(ctx context.Context) (int, error) {
	var snap simulator.Snapshot
	found, err := s.Store.Get(ctx, store.PartitionCache, SnapshotKey, &snap)
	if err != nil {
		return 0, fmt.Errorf("load market snapshot: %w", err)
	}
	if !found {
		return 0, nil
	}
	n := s.Market.Restore(snap)
	s.Log.Info("market snapshot restored", zap.Int("items", n), zap.Int("news", len(snap.News)), zap.Time("last_tick", snap.LastTick))
	return n, nil
}
