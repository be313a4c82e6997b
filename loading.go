// loading.go: GetOrLoad cache-aside convenience layer
//
// octomap's core Table is deliberately single-writer, so Loader is a thin
// wrapper: it deduplicates concurrent loader calls for the same key with
// golang.org/x/sync/singleflight, but every Table.Get/Cache call it makes
// runs on the caller's own goroutine - a Loader shared across goroutines
// needs the same external synchronization any other octomap caller would
// have to provide around the underlying Table.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package octomap

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// negativeEntry caches a loader failure for negativeTTL, so that a loader
// which is expensive to fail (e.g. a timing-out remote call) isn't retried
// on every miss.
type negativeEntry struct {
	err      error
	expireAt int64
}

// Loader adds a GetOrLoad convenience API on top of a cache-mode Table. It
// is not itself a Table method because the loader and negative-cache
// bookkeeping have no equivalent in the raw get/set/exist/unset/cache
// protocol.
type Loader struct {
	table        *Table
	group        singleflight.Group
	negativeTTL  time.Duration
	timeProvider TimeProvider
	negativeMap  map[string]negativeEntry
}

// NewLoader wraps table. negativeTTL of 0 disables negative caching.
func NewLoader(table *Table, negativeTTL time.Duration) *Loader {
	return &Loader{
		table:        table,
		negativeTTL:  negativeTTL,
		timeProvider: table.timeProvider,
		negativeMap:  make(map[string]negativeEntry),
	}
}

func (l *Loader) checkNegative(key string) (error, bool) {
	if l.negativeTTL <= 0 {
		return nil, false
	}
	neg, ok := l.negativeMap[key]
	if !ok {
		return nil, false
	}
	if l.timeProvider.Now() > neg.expireAt {
		delete(l.negativeMap, key)
		return nil, false
	}
	return neg.err, true
}

func (l *Loader) storeNegative(key string, err error) {
	if l.negativeTTL <= 0 {
		return
	}
	l.negativeMap[key] = negativeEntry{
		err:      err,
		expireAt: l.timeProvider.Now() + l.negativeTTL.Nanoseconds(),
	}
}

func callLoader(loader func() ([]byte, error)) (val []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewErrPanicRecovered(r)
		}
	}()
	return loader()
}

// GetOrLoad returns the cached value for key, or calls loader to produce
// one and caches it via Cache(). Concurrent GetOrLoad calls for the same
// missing key execute loader once; the rest observe its result.
func (l *Loader) GetOrLoad(key []byte, loader func() ([]byte, error)) ([]byte, error) {
	if loader == nil {
		return nil, NewErrInvalidLoader()
	}

	out := make([]byte, l.table.valueSize)
	if hit, err := l.table.Get(key, 0, out, 0); err != nil {
		return nil, err
	} else if hit {
		return out, nil
	}

	keyStr := string(key)
	if err, hit := l.checkNegative(keyStr); hit {
		return nil, err
	}

	result, err, _ := l.group.Do(keyStr, func() (interface{}, error) {
		return callLoader(loader)
	})
	if err != nil {
		l.storeNegative(keyStr, err)
		return nil, err
	}

	value := result.([]byte)
	if _, err := l.table.Cache(key, 0, value, 0); err != nil {
		return nil, err
	}
	return value, nil
}

// GetOrLoadWithContext is GetOrLoad with context cancellation: ctx is
// passed to loader, and a cancellation observed while waiting on another
// goroutine's in-flight load returns ctx.Err() without waiting for that
// load to finish (the load itself still completes and populates the
// cache for later callers).
func (l *Loader) GetOrLoadWithContext(ctx context.Context, key []byte, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if loader == nil {
		return nil, NewErrInvalidLoader()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]byte, l.table.valueSize)
	if hit, err := l.table.Get(key, 0, out, 0); err != nil {
		return nil, err
	} else if hit {
		return out, nil
	}

	keyStr := string(key)
	if err, hit := l.checkNegative(keyStr); hit {
		return nil, err
	}

	type result struct {
		value []byte
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err, _ := l.group.Do(keyStr, func() (val interface{}, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = NewErrPanicRecovered(r)
				}
			}()
			return loader(ctx)
		})
		if err != nil {
			done <- result{nil, err}
			return
		}
		done <- result{v.([]byte), nil}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			l.storeNegative(keyStr, r.err)
			return nil, r.err
		}
		if _, err := l.table.Cache(key, 0, r.value, 0); err != nil {
			return nil, err
		}
		return r.value, nil
	case <-ctx.Done():
		return nil, NewErrLoaderCancelled(ctx.Err())
	}
}
