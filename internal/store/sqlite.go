package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"PriceSentinel/internal/codec"
	"PriceSentinel/internal/metrics"
)

// SQLiteStore persists partitions as tables in a SQLite database.
type SQLiteStore struct {
	path  string
	codec *codec.Codec
	log   *zap.Logger
	now   func() time.Time

	once    sync.Once
	ready   chan struct{}
	initErr error

	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore prepares a store at dbPath. Nothing is opened until Initialize.
func NewSQLiteStore(dbPath string, c *codec.Codec, log *zap.Logger, opts ...Option) *SQLiteStore {
	o := buildOptions(opts)
	return &SQLiteStore{
		path:  dbPath,
		codec: c,
		log:   log,
		now:   o.now,
		ready: make(chan struct{}),
	}
}

// Initialize opens (or creates) the database and its partition tables. It is idempotent;
// a failure is returned as *StoreUnavailableError on this and every later call.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	s.once.Do(func() {
		defer close(s.ready)
		if err := s.open(ctx); err != nil {
			s.initErr = &StoreUnavailableError{Backend: s.Backend(), Path: s.path, Err: err}
			metrics.StoreOperationsTotal.WithLabelValues("initialize", "error").Inc()
			return
		}
		metrics.StoreOperationsTotal.WithLabelValues("initialize", "ok").Inc()
		s.log.Info("sqlite store opened", zap.String("path", s.path))
	})
	return s.initErr
}

func (s *SQLiteStore) open(ctx context.Context) error {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers; SQLite allows a single writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	s.mu.Lock()
	s.db = db
	s.mu.Unlock()
	return nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, p := range Partitions {
		stmts := []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (
				key        TEXT PRIMARY KEY,
				payload    TEXT NOT NULL,
				written_at INTEGER NOT NULL
			)`, p),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_written_at ON "%s"(written_at)`, p, p),
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec on %s: %w", p, err)
			}
		}
	}
	return nil
}

// await blocks until Initialize has finished, then returns the open database.
func (s *SQLiteStore) await(ctx context.Context) (*sql.DB, error) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.initErr != nil {
		return nil, s.initErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, &StoreUnavailableError{Backend: s.Backend(), Path: s.path, Err: errors.New("store closed")}
	}
	return s.db, nil
}

func (s *SQLiteStore) Put(ctx context.Context, partition, key string, value any) error {
	if err := validPartition(partition); err != nil {
		return err
	}
	db, err := s.await(ctx)
	if err != nil {
		return err
	}
	payload, err := s.codec.CompressObject(value)
	if err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("put", "error").Inc()
		return fmt.Errorf("compress %s/%s: %w", partition, key, err)
	}

	_, err = db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO "%s" (key, payload, written_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, written_at = excluded.written_at`, partition),
		key, payload, s.now().UnixMilli(),
	)
	if err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("put", "error").Inc()
		return fmt.Errorf("write %s/%s: %w", partition, key, err)
	}
	metrics.StoreOperationsTotal.WithLabelValues("put", "ok").Inc()
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, partition, key string, out any) (bool, error) {
	if err := validPartition(partition); err != nil {
		return false, err
	}
	db, err := s.await(ctx)
	if err != nil {
		return false, err
	}

	var payload string
	err = db.QueryRowContext(ctx, fmt.Sprintf(`SELECT payload FROM "%s" WHERE key = ?`, partition), key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.StoreOperationsTotal.WithLabelValues("get", "miss").Inc()
		return false, nil
	}
	if err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("get", "error").Inc()
		return false, fmt.Errorf("read %s/%s: %w", partition, key, err)
	}
	if err := s.codec.DecompressObject(payload, out); err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("get", "error").Inc()
		return false, fmt.Errorf("decode %s/%s: %w", partition, key, err)
	}
	metrics.StoreOperationsTotal.WithLabelValues("get", "hit").Inc()
	return true, nil
}

func (s *SQLiteStore) Count(ctx context.Context, partition string) (int, error) {
	if err := validPartition(partition); err != nil {
		return 0, err
	}
	db, err := s.await(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, partition)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", partition, err)
	}
	return n, nil
}

// Sweep deletes every record, in every partition, written before now-maxAge.
func (s *SQLiteStore) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	db, err := s.await(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := sweepCutoff(s.now(), maxAge).UnixMilli()

	removed := 0
	for _, p := range Partitions {
		res, err := db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM "%s" WHERE written_at < ?`, p), cutoff)
		if err != nil {
			metrics.StoreOperationsTotal.WithLabelValues("sweep", "error").Inc()
			return removed, fmt.Errorf("sweep %s: %w", p, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return removed, fmt.Errorf("sweep %s rows: %w", p, err)
		}
		removed += int(n)
	}
	metrics.StoreOperationsTotal.WithLabelValues("sweep", "ok").Inc()
	metrics.StoreSweptRecordsTotal.Add(float64(removed))
	if removed > 0 {
		s.log.Info("store sweep removed records", zap.Int("removed", removed))
	}
	return removed, nil
}

func (s *SQLiteStore) Backend() string { return "sqlite" }

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	s.log.Info("closing sqlite store")
	err := s.db.Close()
	s.db = nil
	return err
}
