// config.go: configuration and sizing arithmetic for octomap
//
// The Config struct and Validate are the only pieces of this file on the
// hot path. Everything else - bucketStride/shardCount/bucketCount
// arithmetic - is pure sizing math the core calls once, at construction.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package octomap

import (
	"github.com/agilira/go-timecache"
)

// Config holds the immutable-after-construction parameters of a Table
// plus the operational (hot-swappable) knobs layered on top.
type Config struct {
	// KeySize is the fixed key length in bytes. Must be a multiple of 4 in
	// [4,64]. Mandatory: there is no sensible default.
	KeySize int

	// ValueSize is the fixed value length in bytes. Must be in
	// [0,1048576]. Mandatory: there is no sensible default.
	ValueSize int

	// ElementsMin is the lower growth bound used to size the initial
	// shard/bucket geometry. Default: DefaultElementsMin.
	ElementsMin int

	// ElementsMax is the upper growth bound. Default:
	// min(max(ElementsMin+4194304, ElementsMin*1024), 2^32).
	ElementsMax int64

	// Logger receives resize/mode-lock/eviction-storm diagnostics.
	// Default: NoOpLogger.
	Logger Logger

	// TimeProvider supplies Stats timestamps and the loader's negative
	// cache TTL clock. Default: go-timecache backed system clock.
	TimeProvider TimeProvider

	// MetricsCollector records per-operation latencies and outcomes.
	// Default: NoOpMetricsCollector.
	MetricsCollector MetricsCollector

	// OnEvict is called synchronously when cache() evicts a live element.
	// Must be fast and non-blocking; it runs on the calling goroutine
	// inside cache(). key is a copy, safe to retain.
	OnEvict func(key []byte)

	// OnResize is called synchronously after a successful shard resize.
	OnResize func(shardIdx, newBucketCount int)
}

// Validate range-checks the mandatory fields and applies defaults to the
// optional ones. Out-of-range KeySize and ValueSize are constructor errors,
// not silently normalized, since there is no value a key/value size could
// fall back to without corrupting caller expectations about buffer layout.
func (c *Config) Validate() error {
	if c.KeySize < 4 || c.KeySize > 64 || c.KeySize%4 != 0 {
		return NewErrInvalidKeySize(c.KeySize)
	}
	if c.ValueSize < 0 || c.ValueSize > 1048576 {
		return NewErrInvalidValueSize(c.ValueSize)
	}
	if c.ElementsMin < 0 {
		return NewErrInvalidElementsMin(c.ElementsMin)
	}
	if c.ElementsMin == 0 {
		c.ElementsMin = DefaultElementsMin
	}
	if c.ElementsMax == 0 {
		c.ElementsMax = defaultElementsMax(c.ElementsMin)
	}
	if c.ElementsMax < int64(c.ElementsMin) || c.ElementsMax > (1<<32) {
		return NewErrInvalidElementsMax(int64(c.ElementsMin), c.ElementsMax)
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}
	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	return nil
}

// DefaultConfig returns a Config with every optional field defaulted;
// KeySize and ValueSize still must be set by the caller.
func DefaultConfig() Config {
	return Config{
		ElementsMin:      DefaultElementsMin,
		Logger:           NoOpLogger{},
		TimeProvider:     &systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
}

// defaultElementsMax computes the constructor default:
// min(max(elementsMin+4194304, elementsMin*1024), 2^32).
func defaultElementsMax(elementsMin int) int64 {
	const fourMiB = 4194304
	a := int64(elementsMin) + fourMiB
	b := int64(elementsMin) * 1024
	v := a
	if b > v {
		v = b
	}
	if v > (1 << 32) {
		v = 1 << 32
	}
	return v
}

// systemTimeProvider is the default TimeProvider, backed by go-timecache's
// cached clock instead of time.Now() on every call.
type systemTimeProvider struct{}

func (systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}

// --- sizing arithmetic ---

// bucketStride returns the cache-line-aligned byte length of one bucket:
// ceil((20 + 8*(keySize+valueSize)) / 64) * 64.
func bucketStride(keySize, valueSize int) int {
	raw := bucketMetadataSize + slotsPerBucket*(keySize+valueSize)
	return ((raw + cacheLine - 1) / cacheLine) * cacheLine
}

// nextPow2 returns the smallest power of two >= n (n >= 1).
func nextPow2(n int64) int64 {
	if n <= 1 {
		return 1
	}
	p := int64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// computeShardCount derives shardCount (power of two, [1,8192]) from the
// growth bounds: enough shards that each shard starts with a comfortable
// number of buckets, without over-sharding small tables.
func computeShardCount(elementsMin int, elementsMax int64) int {
	target := elementsMax
	if target <= 0 {
		target = int64(elementsMin)
	}
	// One shard per ~16384 elements of headroom, capped at shardCountMax.
	shards := nextPow2(target / 16384)
	if shards < 1 {
		shards = 1
	}
	if shards > shardCountMax {
		shards = shardCountMax
	}
	return int(shards)
}

// computeBucketCount derives the per-shard bucket count (power of two, >=2)
// so that shardCount*bucketCount*slotsPerBucket covers elementsMin at
// roughly 50% initial load, leaving headroom for cuckoo displacement
// before the first resize.
func computeBucketCount(elementsMin, shardCount int) int {
	perShard := int64(elementsMin) / int64(shardCount)
	needed := nextPow2(perShard/(slotsPerBucket/2) + 1)
	if needed < 2 {
		needed = 2
	}
	if needed > bucketCountMax {
		needed = bucketCountMax
	}
	return int(needed)
}
