package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Fixed partitions. Callers address records by partition name and key only.
const (
	PartitionComponents   = "components"
	PartitionTranslations = "translations"
	PartitionTemplates    = "templates"
	PartitionCache        = "cache"
)

// Partitions lists every partition Initialize creates.
var Partitions = []string{PartitionComponents, PartitionTranslations, PartitionTemplates, PartitionCache}

// DefaultMaxAge is the sweep horizon used when Sweep is given a non-positive age.
const DefaultMaxAge = 7 * 24 * time.Hour

// ErrUnknownPartition is returned for partition names outside Partitions.
var ErrUnknownPartition = errors.New("unknown partition")

// StoreUnavailableError reports that the durable backend could not be initialized.
type StoreUnavailableError struct {
	Backend string
	Path    string
	Err     error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s store unavailable at %q: %v", e.Backend, e.Path, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// Record is one stored entry. Payload holds the compressed JSON encoding of the value.
type Record struct {
	Partition string
	Key       string
	Payload   string
	WrittenAt time.Time
}

// Store is a partitioned key-value store whose values are compressed at rest.
//
// Operations issued before Initialize has finished wait for it rather than fail.
// Get reports a miss with found=false and a nil error.
type Store interface {
	Initialize(ctx context.Context) error
	Put(ctx context.Context, partition, key string, value any) error
	Get(ctx context.Context, partition, key string, out any) (found bool, err error)
	Count(ctx context.Context, partition string) (int, error)
	Sweep(ctx context.Context, maxAge time.Duration) (removed int, err error)
	Backend() string
	Close() error
}

// Option configures a store implementation.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used to stamp writes and compute sweep cutoffs.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func validPartition(partition string) error {
	for _, p := range Partitions {
		if p == partition {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPartition, partition)
}

func sweepCutoff(now time.Time, maxAge time.Duration) time.Time {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return now.Add(-maxAge)
}
