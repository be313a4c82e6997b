// Package otel implements octomap.MetricsCollector using OpenTelemetry.
//
// # Overview
//
// octomap's core has no OTEL dependency; this package is a separate module
// so applications that don't need metrics don't pay for the SDK. It wires
// every Table operation - Get, Exist, Set, Unset, Cache, plus shard
// resizes and CLOCK evictions - to OTEL histograms and counters.
//
// # Quick Start
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//
//	collector, err := octomapotel.NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tbl, _ := octomap.New(octomap.Config{
//	    KeySize: 8, ValueSize: 8,
//	    MetricsCollector: collector,
//	})
//
// # Metrics Exposed
//
// Histograms (automatic percentiles via the OTEL SDK):
//   - octomap_get_latency_ns, octomap_exist_latency_ns, octomap_set_latency_ns,
//     octomap_unset_latency_ns, octomap_cache_latency_ns
//
// Counters:
//   - octomap_get_hits_total / octomap_get_misses_total
//   - octomap_exist_hits_total / octomap_exist_misses_total
//   - octomap_set_inserted_total / octomap_set_updated_total
//   - octomap_unset_hits_total / octomap_unset_misses_total
//   - octomap_cache_inserted_total / octomap_cache_updated_total / octomap_cache_evicted_total
//   - octomap_resizes_total (with a bucket_count attribute)
//   - octomap_evictions_total
//
// # Custom Meter Name
//
//	collector, _ := octomapotel.NewOTelMetricsCollector(
//	    provider,
//	    octomapotel.WithMeterName("orders_cache"),
//	)
//
// Useful when several Table instances in the same process should be
// distinguished in exported metrics.
package otel
