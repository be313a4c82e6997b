// collector.go: octomap.MetricsCollector implemented on top of OpenTelemetry
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package otel

import (
	"context"
	"errors"

	"github.com/agilira/octomap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements octomap.MetricsCollector using
// OpenTelemetry instruments. All methods are safe for concurrent use; the
// underlying OTEL instruments do their own synchronization.
type OTelMetricsCollector struct {
	getLatency   metric.Int64Histogram
	existLatency metric.Int64Histogram
	setLatency   metric.Int64Histogram
	unsetLatency metric.Int64Histogram
	cacheLatency metric.Int64Histogram

	getHits    metric.Int64Counter
	getMisses  metric.Int64Counter
	existHits  metric.Int64Counter
	existMiss  metric.Int64Counter
	inserted   metric.Int64Counter
	updated    metric.Int64Counter
	unsetHits  metric.Int64Counter
	unsetMiss  metric.Int64Counter
	cacheIns   metric.Int64Counter
	cacheUpd   metric.Int64Counter
	cacheEvict metric.Int64Counter

	resizes   metric.Int64Counter
	evictions metric.Int64Counter
}

// Options configures an OTelMetricsCollector.
type Options struct {
	// MeterName is the OpenTelemetry meter name. Default:
	// "github.com/agilira/octomap".
	MeterName string
}

// Option is a functional option for NewOTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful when distinguishing
// metrics across several Table instances.
func WithMeterName(name string) Option {
	return func(o *Options) { o.MeterName = name }
}

// NewOTelMetricsCollector builds the OTEL instruments and returns a
// collector ready to pass as Config.MetricsCollector.
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/agilira/octomap"}
	for _, opt := range opts {
		opt(&options)
	}
	meter := provider.Meter(options.MeterName)

	c := &OTelMetricsCollector{}
	var err error

	if c.getLatency, err = meter.Int64Histogram("octomap_get_latency_ns",
		metric.WithDescription("Latency of Get operations"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.existLatency, err = meter.Int64Histogram("octomap_exist_latency_ns",
		metric.WithDescription("Latency of Exist operations"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.setLatency, err = meter.Int64Histogram("octomap_set_latency_ns",
		metric.WithDescription("Latency of Set operations"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.unsetLatency, err = meter.Int64Histogram("octomap_unset_latency_ns",
		metric.WithDescription("Latency of Unset operations"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.cacheLatency, err = meter.Int64Histogram("octomap_cache_latency_ns",
		metric.WithDescription("Latency of Cache operations"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}

	if c.getHits, err = meter.Int64Counter("octomap_get_hits_total"); err != nil {
		return nil, err
	}
	if c.getMisses, err = meter.Int64Counter("octomap_get_misses_total"); err != nil {
		return nil, err
	}
	if c.existHits, err = meter.Int64Counter("octomap_exist_hits_total"); err != nil {
		return nil, err
	}
	if c.existMiss, err = meter.Int64Counter("octomap_exist_misses_total"); err != nil {
		return nil, err
	}
	if c.inserted, err = meter.Int64Counter("octomap_set_inserted_total"); err != nil {
		return nil, err
	}
	if c.updated, err = meter.Int64Counter("octomap_set_updated_total"); err != nil {
		return nil, err
	}
	if c.unsetHits, err = meter.Int64Counter("octomap_unset_hits_total"); err != nil {
		return nil, err
	}
	if c.unsetMiss, err = meter.Int64Counter("octomap_unset_misses_total"); err != nil {
		return nil, err
	}
	if c.cacheIns, err = meter.Int64Counter("octomap_cache_inserted_total"); err != nil {
		return nil, err
	}
	if c.cacheUpd, err = meter.Int64Counter("octomap_cache_updated_total"); err != nil {
		return nil, err
	}
	if c.cacheEvict, err = meter.Int64Counter("octomap_cache_evicted_total"); err != nil {
		return nil, err
	}
	if c.resizes, err = meter.Int64Counter("octomap_resizes_total"); err != nil {
		return nil, err
	}
	if c.evictions, err = meter.Int64Counter("octomap_evictions_total"); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *OTelMetricsCollector) RecordGet(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.getLatency.Record(ctx, latencyNs)
	if hit {
		c.getHits.Add(ctx, 1)
	} else {
		c.getMisses.Add(ctx, 1)
	}
}

func (c *OTelMetricsCollector) RecordExist(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.existLatency.Record(ctx, latencyNs)
	if hit {
		c.existHits.Add(ctx, 1)
	} else {
		c.existMiss.Add(ctx, 1)
	}
}

func (c *OTelMetricsCollector) RecordSet(latencyNs int64, inserted bool) {
	ctx := context.Background()
	c.setLatency.Record(ctx, latencyNs)
	if inserted {
		c.inserted.Add(ctx, 1)
	} else {
		c.updated.Add(ctx, 1)
	}
}

func (c *OTelMetricsCollector) RecordUnset(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.unsetLatency.Record(ctx, latencyNs)
	if hit {
		c.unsetHits.Add(ctx, 1)
	} else {
		c.unsetMiss.Add(ctx, 1)
	}
}

// RecordCache records a Cache operation. result follows Table.Cache's
// return value: 0 inserted, 1 updated, 2 evicted a live entry.
func (c *OTelMetricsCollector) RecordCache(latencyNs int64, result int) {
	ctx := context.Background()
	c.cacheLatency.Record(ctx, latencyNs)
	switch result {
	case 0:
		c.cacheIns.Add(ctx, 1)
	case 1:
		c.cacheUpd.Add(ctx, 1)
	case 2:
		c.cacheEvict.Add(ctx, 1)
	}
}

func (c *OTelMetricsCollector) RecordResize(newBucketCount int) {
	c.resizes.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Int("bucket_count", newBucketCount)))
}

func (c *OTelMetricsCollector) RecordEviction() {
	c.evictions.Add(context.Background(), 1)
}

var _ octomap.MetricsCollector = (*OTelMetricsCollector)(nil)
