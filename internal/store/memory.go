package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PriceSentinel/internal/codec"
	"PriceSentinel/internal/metrics"
)

// MemoryStore keeps compressed records in process memory. It backs the session when the
// durable store is unavailable, and tests.
type MemoryStore struct {
	codec *codec.Codec
	now   func() time.Time

	mu      sync.RWMutex
	records map[string]map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(c *codec.Codec, opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{codec: c, now: o.now, records: make(map[string]map[string]Record)}
}

func (m *MemoryStore) Initialize(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range Partitions {
		if _, ok := m.records[p]; !ok {
			m.records[p] = make(map[string]Record)
		}
	}
	return nil
}

func (m *MemoryStore) Put(_ context.Context, partition, key string, value any) error {
	if err := validPartition(partition); err != nil {
		return err
	}
	payload, err := m.codec.CompressObject(value)
	if err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("put", "error").Inc()
		return fmt.Errorf("compress %s/%s: %w", partition, key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	part, ok := m.records[partition]
	if !ok {
		part = make(map[string]Record)
		m.records[partition] = part
	}
	part[key] = Record{Partition: partition, Key: key, Payload: payload, WrittenAt: m.now()}
	metrics.StoreOperationsTotal.WithLabelValues("put", "ok").Inc()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, partition, key string, out any) (bool, error) {
	if err := validPartition(partition); err != nil {
		return false, err
	}
	m.mu.RLock()
	rec, ok := m.records[partition][key]
	m.mu.RUnlock()
	if !ok {
		metrics.StoreOperationsTotal.WithLabelValues("get", "miss").Inc()
		return false, nil
	}
	if err := m.codec.DecompressObject(rec.Payload, out); err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("get", "error").Inc()
		return false, fmt.Errorf("decode %s/%s: %w", partition, key, err)
	}
	metrics.StoreOperationsTotal.WithLabelValues("get", "hit").Inc()
	return true, nil
}

func (m *MemoryStore) Count(_ context.Context, partition string) (int, error) {
	if err := validPartition(partition); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records[partition]), nil
}

func (m *MemoryStore) Sweep(_ context.Context, maxAge time.Duration) (int, error) {
	cutoff := sweepCutoff(m.now(), maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for _, part := range m.records {
		for key, rec := range part {
			if rec.WrittenAt.Before(cutoff) {
				delete(part, key)
				removed++
			}
		}
	}
	metrics.StoreOperationsTotal.WithLabelValues("sweep", "ok").Inc()
	metrics.StoreSweptRecordsTotal.Add(float64(removed))
	return removed, nil
}

func (m *MemoryStore) Backend() string { return "memory" }

func (m *MemoryStore) Close() error { return nil }
