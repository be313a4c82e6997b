// table.go: the Coordinator
//
// Table owns the shard array and the pieces no single shard can decide on
// its own: which shard a key belongs to, which of the two mutually
// exclusive modes the table is locked into, and the resize-retry policy
// when a shard's set() reports it cannot place an element.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package octomap

import "time"

// Table is an in-memory associative container locked, on first use, into
// either dict mode (exact, resizing, never evicts) or cache mode (fixed
// capacity, CLOCK-approximated eviction, never resizes).
type Table struct {
	shards    []*shard
	shardMask uint32
	hasher    *tabulationHasher

	keySize   int
	valueSize int

	mode Mode

	length    uint64
	resizes   uint64
	evictions uint64

	createdAtNano int64

	logger       Logger
	timeProvider TimeProvider
	metrics      MetricsCollector
	onEvict      func(key []byte)
	onResize     func(shardIdx, newBucketCount int)
}

// New constructs a Table from config, validating it and sizing the shard
// array.
func New(config Config) (*Table, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	shardCount := computeShardCount(config.ElementsMin, config.ElementsMax)
	bucketCount := computeBucketCount(config.ElementsMin, shardCount)

	hasher := defaultHasher()
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = newShard(config.KeySize, config.ValueSize, bucketCount, hasher)
	}

	return &Table{
		shards:        shards,
		shardMask:     uint32(shardCount - 1),
		hasher:        hasher,
		keySize:       config.KeySize,
		valueSize:     config.ValueSize,
		mode:          ModeUnset,
		createdAtNano: config.TimeProvider.Now(),
		logger:        config.Logger,
		timeProvider:  config.TimeProvider,
		metrics:       config.MetricsCollector,
		onEvict:       config.OnEvict,
		onResize:      config.OnResize,
	}, nil
}

// shardFor selects the shard a (h1,h2) pair belongs to: the top byte of
// each half forms a 16-bit index, masked down to shardCount.
func (t *Table) shardFor(h1, h2 uint32) *shard {
	idx := (((h1 >> 24) << 8) | (h2 >> 24)) & t.shardMask
	return t.shards[idx]
}

func (t *Table) sliceKey(buf []byte, off int) ([]byte, error) {
	if off < 0 || off+t.keySize > len(buf) {
		return nil, NewErrKeyOutOfRange(off, t.keySize, len(buf))
	}
	return buf[off : off+t.keySize], nil
}

// sliceValue extracts the valueSize-byte window from buf at off. When
// valueSize is 0 the public API tolerates a nil buf and always
// returns an empty slice regardless of off.
func (t *Table) sliceValue(buf []byte, off int) ([]byte, error) {
	if t.valueSize == 0 {
		return buf[:0:0], nil
	}
	if off < 0 || off+t.valueSize > len(buf) {
		return nil, NewErrValueOutOfRange(off, t.valueSize, len(buf))
	}
	return buf[off : off+t.valueSize], nil
}

// Exist reports whether key is present, without reading its value.
func (t *Table) Exist(key []byte, keyOff int) (bool, error) {
	k, err := t.sliceKey(key, keyOff)
	if err != nil {
		return false, err
	}
	start := t.timeProvider.Now()
	h1, h2 := t.hasher.hash(k)
	hit := t.shardFor(h1, h2).exist(h1, h2, k)
	t.metrics.RecordExist(t.timeProvider.Now()-start, hit)
	return hit, nil
}

// Get copies key's value into value[valueOff:valueOff+ValueSize] and
// reports whether key was found. Valid in both modes.
func (t *Table) Get(key []byte, keyOff int, value []byte, valueOff int) (bool, error) {
	k, err := t.sliceKey(key, keyOff)
	if err != nil {
		return false, err
	}
	v, err := t.sliceValue(value, valueOff)
	if err != nil {
		return false, err
	}
	start := t.timeProvider.Now()
	h1, h2 := t.hasher.hash(k)
	hit := t.shardFor(h1, h2).get(h1, h2, k, v)
	t.metrics.RecordGet(t.timeProvider.Now()-start, hit)
	return hit, nil
}

// Set inserts or updates key/value and locks the table into dict mode on
// its first call. Returns true if the key already
// existed (updated), false if it was newly inserted.
func (t *Table) Set(key []byte, keyOff int, value []byte, valueOff int) (bool, error) {
	if err := t.lockMode(ModeDict); err != nil {
		return false, err
	}
	k, err := t.sliceKey(key, keyOff)
	if err != nil {
		return false, err
	}
	v, err := t.sliceValue(value, valueOff)
	if err != nil {
		return false, err
	}

	start := t.timeProvider.Now()
	h1, h2 := t.hasher.hash(k)
	sh := t.shardFor(h1, h2)

	result, err := t.setWithGrowth(sh, h1, h2, k, v)
	if err != nil {
		t.metrics.RecordSet(t.timeProvider.Now()-start, false)
		return false, err
	}
	if result == 0 {
		t.length++
	}
	t.metrics.RecordSet(t.timeProvider.Now()-start, result == 0)
	return result == 1, nil
}

// setWithGrowth implements the set retry policy: on a shard -1, try
// doubling the shard's bucket count, retry the set, then try quadrupling
// the original count; after both tiers still fail, give up with
// set-exhausted.
func (t *Table) setWithGrowth(sh *shard, h1, h2 uint32, key, value []byte) (int, error) {
	result := sh.set(h1, h2, key, value)
	if result != -1 {
		return result, nil
	}

	origCount := sh.bucketCount
	idx := t.shardIndex(sh)

	for _, newCount := range [2]int{origCount * 2, origCount * 4} {
		if err := sh.resize(newCount); err != nil {
			if GetErrorCode(err) == ErrCodeCapacityExceeded {
				return -1, err
			}
			// errResizeRebuildFailed: this tier couldn't fully rehash
			// either, move on to the next (or give up).
			continue
		}
		t.resizes++
		t.metrics.RecordResize(newCount)
		if t.onResize != nil {
			t.onResize(idx, newCount)
		}
		if got := t.recomputeLength(); got != t.length {
			t.logger.Warn("octomap: length drift detected after resize", "shard", idx, "tracked", t.length, "recomputed", got)
		}
		if result = sh.set(h1, h2, key, value); result != -1 {
			return result, nil
		}
	}
	t.logger.Warn("octomap: set exhausted after resize retries", "shard", idx)
	return -1, NewErrSetExhausted(idx)
}

func (t *Table) shardIndex(sh *shard) int {
	for i, s := range t.shards {
		if s == sh {
			return i
		}
	}
	return -1
}

// recomputeLength scans every shard's live slot count directly, as a drift
// guard against the incrementally tracked t.length after a resize rebuilds
// a shard's bucket layout.
func (t *Table) recomputeLength() uint64 {
	var n uint64
	for _, sh := range t.shards {
		n += uint64(sh.liveCount())
	}
	return n
}

// Unset removes key if present. Like Get and Exist, it does not affect
// mode: it neither locks an unlocked table nor rejects a call against a
// table already locked into the other mode, since a cuckoo cache-mode
// insert only ever lands in b1 with its second-position counter at 0, so
// the same b1-scan-then-b2-scan removal path used in dict mode is correct
// there too.
func (t *Table) Unset(key []byte, keyOff int) (bool, error) {
	k, err := t.sliceKey(key, keyOff)
	if err != nil {
		return false, err
	}
	start := t.timeProvider.Now()
	h1, h2 := t.hasher.hash(k)
	hit := t.shardFor(h1, h2).unset(h1, h2, k)
	if hit {
		t.length--
	}
	t.metrics.RecordUnset(t.timeProvider.Now()-start, hit)
	return hit, nil
}

// Cache inserts or updates key/value under CLOCK eviction and locks the
// table into cache mode on its first call. Returns 0
// (inserted, no eviction), 1 (updated), or 2 (inserted, evicted a live
// element).
func (t *Table) Cache(key []byte, keyOff int, value []byte, valueOff int) (int, error) {
	if err := t.lockMode(ModeCache); err != nil {
		return -1, err
	}
	k, err := t.sliceKey(key, keyOff)
	if err != nil {
		return -1, err
	}
	v, err := t.sliceValue(value, valueOff)
	if err != nil {
		return -1, err
	}

	start := t.timeProvider.Now()
	h1, h2 := t.hasher.hash(k)
	sh := t.shardFor(h1, h2)

	result := sh.cache(h1, k, v, t.onEvict)
	switch result {
	case 0:
		t.length++
	case 2:
		t.evictions++
		t.metrics.RecordEviction()
	}
	t.metrics.RecordCache(t.timeProvider.Now()-start, result)
	return result, nil
}

// lockMode locks the table's mode to want on first use, or returns
// ErrModeConflict if it is already locked to the other mode.
func (t *Table) lockMode(want Mode) error {
	if t.mode == ModeUnset {
		t.mode = want
		t.logger.Info("octomap: mode locked", "mode", want.String())
		return nil
	}
	if t.mode != want {
		return NewErrModeConflict(want.String(), t.mode.String())
	}
	return nil
}

// Mode reports which mode the table has locked into (ModeUnset if neither
// Set nor Cache has been called yet).
func (t *Table) Mode() Mode { return t.mode }

// Len returns the current number of live elements.
func (t *Table) Len() uint64 { return t.length }

// Stats returns a snapshot of the table's observable attributes.
func (t *Table) Stats() Stats {
	var capacity, size uint64
	for _, sh := range t.shards {
		capacity += uint64(sh.bucketCount) * uint64(slotsPerBucket)
		size += uint64(len(sh.buf))
	}
	var load float64
	if capacity > 0 {
		load = float64(t.length) / float64(capacity)
	}
	return Stats{
		Length:        t.length,
		Capacity:      capacity,
		Size:          size,
		Load:          load,
		Mode:          t.mode,
		ShardCount:    len(t.shards),
		Resizes:       t.resizes,
		Evictions:     t.evictions,
		CreatedAtNano: t.createdAtNano,
	}
}

// Uptime returns how long the table has existed since construction.
func (t *Table) Uptime() time.Duration {
	return time.Duration(t.timeProvider.Now() - t.createdAtNano)
}
