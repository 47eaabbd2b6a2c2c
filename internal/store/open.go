package store

import (
	"context"

	"go.uber.org/zap"

	"PriceSentinel/internal/codec"
)

// Open initializes a SQLite store at path. When that fails, or path is empty, the session
// degrades to an initialized MemoryStore; the returned error is the *StoreUnavailableError
// that caused the fallback, for the caller to log, and never prevents use of the store.
func Open(ctx context.Context, path string, c *codec.Codec, log *zap.Logger, opts ...Option) (Store, error) {
	if path == "" {
		mem := NewMemoryStore(c, opts...)
		_ = mem.Initialize(ctx)
		return mem, nil
	}

	sq := NewSQLiteStore(path, c, log, opts...)
	if err := sq.Initialize(ctx); err != nil {
		log.Warn("durable store unavailable, caching in memory only", zap.Error(err))
		mem := NewMemoryStore(c, opts...)
		_ = mem.Initialize(ctx)
		return mem, err
	}
	return sq, nil
}
