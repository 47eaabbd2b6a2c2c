package codec

import (
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"PriceSentinel/internal/metrics"
)

// MaxMemoInput is the largest input, in bytes, whose result is memoized.
const MaxMemoInput = 64 << 10

// Codec wraps Compress/Decompress with bounded LRU memo caches keyed by exact input.
type Codec struct {
	compressed   *lru.Cache[string, string]
	decompressed *lru.Cache[string, string]
}

// New creates a Codec whose memo caches hold at most cacheSize entries each.
// A cacheSize <= 0 disables memoization.
func New(cacheSize int) (*Codec, error) {
	c := &Codec{}
	if cacheSize <= 0 {
		return c, nil
	}
	var err error
	if c.compressed, err = lru.New[string, string](cacheSize); err != nil {
		return nil, fmt.Errorf("create compress cache: %w", err)
	}
	if c.decompressed, err = lru.New[string, string](cacheSize); err != nil {
		return nil, fmt.Errorf("create decompress cache: %w", err)
	}
	return c, nil
}

// Compress is the memoized form of the package-level Compress.
func (c *Codec) Compress(text string) string {
	if out, ok := lookup(c.compressed, "compress", text); ok {
		return out
	}
	out := Compress(text)
	remember(c.compressed, text, out)
	return out
}

// Decompress is the memoized form of the package-level Decompress. Failures are never cached.
func (c *Codec) Decompress(token string) (string, error) {
	if out, ok := lookup(c.decompressed, "decompress", token); ok {
		return out, nil
	}
	out, err := Decompress(token)
	if err != nil {
		return "", err
	}
	remember(c.decompressed, token, out)
	return out, nil
}

// CompressObject JSON-encodes v and compresses the result.
func (c *Codec) CompressObject(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal object: %w", err)
	}
	return c.Compress(string(data)), nil
}

// DecompressObject decompresses token and JSON-decodes it into out.
func (c *Codec) DecompressObject(token string, out any) error {
	text, err := c.Decompress(token)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("unmarshal object: %w", err)
	}
	return nil
}

// ClearCache drops every memoized result.
func (c *Codec) ClearCache() {
	if c.compressed != nil {
		c.compressed.Purge()
	}
	if c.decompressed != nil {
		c.decompressed.Purge()
	}
}

// CacheLen reports the number of memoized compress and decompress results.
func (c *Codec) CacheLen() (compressed, decompressed int) {
	if c.compressed != nil {
		compressed = c.compressed.Len()
	}
	if c.decompressed != nil {
		decompressed = c.decompressed.Len()
	}
	return compressed, decompressed
}

func lookup(cache *lru.Cache[string, string], direction, key string) (string, bool) {
	if cache == nil || len(key) > MaxMemoInput {
		return "", false
	}
	out, ok := cache.Get(key)
	if ok {
		metrics.CodecCacheTotal.WithLabelValues(direction, "hit").Inc()
	} else {
		metrics.CodecCacheTotal.WithLabelValues(direction, "miss").Inc()
	}
	return out, ok
}

func remember(cache *lru.Cache[string, string], key, value string) {
	if cache == nil || len(key) > MaxMemoInput {
		return
	}
	cache.Add(key, value)
}
