// Package octomap provides an in-memory associative container built on a
// multi-shard cuckoo hash table, with two mutually exclusive operating
// modes selected by the first write.
//
// # Overview
//
// octomap stores fixed-width keys and fixed-width values in byte-packed,
// cache-line-aligned buckets. Each key has two candidate buckets (derived
// from a tabulation hash), each bucket holds eight slots, and insertion
// displaces at most one existing entry (single-level cuckoo, not an
// unbounded eviction chain).
//
// A Table locks into one of two modes on its first mutating call:
//
//	Set()   locks ModeDict:  exact key/value store, shards grow on demand,
//	                         never evicts.
//	Cache() locks ModeCache: fixed total capacity, CLOCK (second-chance)
//	                         approximated eviction, never resizes.
//
// Calling the other mode's entry point after the lock is set returns a
// mode-conflict error; a Table is either a dict or a cache for its entire
// lifetime.
//
// # Quick Start
//
//	tbl, err := octomap.New(octomap.Config{KeySize: 8, ValueSize: 8})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	key := make([]byte, 8)
//	binary.LittleEndian.PutUint64(key, 123)
//	val := make([]byte, 8)
//	binary.LittleEndian.PutUint64(val, 456)
//
//	if _, err := tbl.Set(key, 0, val, 0); err != nil {
//	    log.Fatal(err)
//	}
//
//	out := make([]byte, 8)
//	if hit, _ := tbl.Get(key, 0, out, 0); hit {
//	    fmt.Println(binary.LittleEndian.Uint64(out))
//	}
//
// For comparable/fixed-width Go types, Typed[K, V] avoids the manual byte
// marshaling:
//
//	users, err := octomap.NewTyped[int64, User](octomap.Config{ElementsMin: 10_000})
//	users.Set(123, User{Active: true})
//	u, found, err := users.Get(123)
//
// # Cache Mode
//
// octomap.Cache locks a Table into fixed-capacity mode on its first call.
// Every shard's bucket count is frozen at construction; a full bucket pair
// evicts via CLOCK rather than growing:
//
//	cache, _ := octomap.New(octomap.Config{KeySize: 8, ValueSize: 64, ElementsMax: 100_000})
//	result, err := cache.Cache(key, 0, value, 0)
//	// result: 0 inserted into free slot, 1 updated existing key,
//	//         2 evicted a live entry to make room.
//
// CLOCK gives each slot a one-bit second chance before eviction: a bucket's
// hand sweeps its eight slots, clearing the used bit on anything it passes
// and evicting the first slot it finds already clear. Eviction is
// guaranteed to terminate within nine ticks of the hand.
//
// # Stampede Prevention
//
// Loader wraps a Table with golang.org/x/sync/singleflight so concurrent
// misses for the same key run the load function once:
//
//	loader := octomap.NewLoader(tbl, 5*time.Second) // 5s negative-cache TTL
//	value, err := loader.GetOrLoad(key, func() ([]byte, error) {
//	    return fetchFromUpstream(key)
//	})
//
// GetOrLoadWithContext accepts a context.Context for cancellation and
// timeout propagation into the loader function. A panicking loader is
// recovered and surfaced as an ErrCodePanicRecovered error rather than
// crashing the caller.
//
// # Sharding and Hashing
//
// Keys are hashed with two independent tabulation hash tables, seeded once
// per process from crypto/rand, producing an (h1, h2 uint32) pair. The top
// byte of each half selects a shard; each shard resizes (dict mode) or
// evicts (cache mode) independently, so a hot shard never blocks lookups
// against a cold one. Within a shard, the low bits of h1 and h2 name two
// candidate buckets, and a middle byte serves as a one-byte tag used to
// filter most non-matching slots without touching key bytes.
//
// # Observability
//
// Table accepts a Logger, a TimeProvider, and a MetricsCollector via
// Config; all default to no-op implementations so unconfigured use pays no
// overhead. The octomap/otel subpackage implements MetricsCollector on top
// of OpenTelemetry:
//
//	import octomapotel "github.com/agilira/octomap/otel"
//
//	collector, _ := octomapotel.NewOTelMetricsCollector(meterProvider)
//	tbl, _ := octomap.New(octomap.Config{
//	    KeySize: 8, ValueSize: 8,
//	    MetricsCollector: collector,
//	})
//
// # Hot Configuration Reload
//
// HotConfig watches a configuration file (JSON, YAML, TOML, HCL, INI, or
// Properties, via github.com/agilira/argus) and applies changes to a
// Table's Logger, MetricsCollector, and eviction/resize callbacks without a
// restart. Structural fields (key size, value size, capacity bounds) are
// baked into shard buffers at construction and are rejected rather than
// silently ignored.
//
// # Error Handling
//
// Errors carry a stable code via github.com/agilira/go-errors and can
// carry structured context (e.g. the key size a KeyOutOfRange error was
// given):
//
//	if _, err := tbl.Set(key, 0, val, 0); err != nil {
//	    switch octomap.GetErrorCode(err) {
//	    case octomap.ErrCodeModeConflict:
//	        // table already locked into cache mode
//	    case octomap.ErrCodeSetExhausted:
//	        // shard could not be grown to fit; retryable after Unset calls
//	    }
//	}
//
// # Non-goals
//
// A Table is not internally synchronized: concurrent calls from multiple
// goroutines require an external lock. This trades away the lock-free
// concurrent design a general-purpose cache would want for the simpler,
// more predictable single-writer semantics a cuckoo table with in-place
// displacement needs.
//
// # Examples
//
// See the examples directory for complete working programs:
//   - examples/getorload/: GetOrLoad stampede prevention
//   - examples/otel-prometheus/: OpenTelemetry + Prometheus integration
//   - examples/errors/: structured error handling
package octomap
