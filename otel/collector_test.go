// collector_test.go: unit tests for the OTEL-backed MetricsCollector
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package otel

import (
	"context"
	"testing"

	"github.com/agilira/octomap"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestOTelMetricsCollector_Interface(t *testing.T) {
	var _ octomap.MetricsCollector = (*OTelMetricsCollector)(nil)
}

func TestNewOTelMetricsCollector_NilProvider(t *testing.T) {
	collector, err := NewOTelMetricsCollector(nil)
	if err == nil || collector != nil {
		t.Fatal("NewOTelMetricsCollector(nil) should return (nil, error)")
	}
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func sumValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) == 0 {
		t.Fatalf("metric %s is not a populated Sum[int64]", m.Name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestOTelMetricsCollector_RecordGet(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	c, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector: %v", err)
	}
	c.RecordGet(1000, true)
	c.RecordGet(2000, false)
	c.RecordGet(1500, true)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	hits, ok := findMetric(rm, "octomap_get_hits_total")
	if !ok || sumValue(t, hits) != 2 {
		t.Error("expected 2 get hits")
	}
	misses, ok := findMetric(rm, "octomap_get_misses_total")
	if !ok || sumValue(t, misses) != 1 {
		t.Error("expected 1 get miss")
	}
	if _, ok := findMetric(rm, "octomap_get_latency_ns"); !ok {
		t.Error("octomap_get_latency_ns not recorded")
	}
}

func TestOTelMetricsCollector_RecordSet(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	c, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector: %v", err)
	}
	c.RecordSet(500, true)
	c.RecordSet(700, false)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if m, ok := findMetric(rm, "octomap_set_inserted_total"); !ok || sumValue(t, m) != 1 {
		t.Error("expected 1 inserted")
	}
	if m, ok := findMetric(rm, "octomap_set_updated_total"); !ok || sumValue(t, m) != 1 {
		t.Error("expected 1 updated")
	}
}

func TestOTelMetricsCollector_RecordCache(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	c, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector: %v", err)
	}
	c.RecordCache(100, 0)
	c.RecordCache(100, 1)
	c.RecordCache(100, 2)
	c.RecordCache(100, 2)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if m, ok := findMetric(rm, "octomap_cache_inserted_total"); !ok || sumValue(t, m) != 1 {
		t.Error("expected 1 cache insert")
	}
	if m, ok := findMetric(rm, "octomap_cache_updated_total"); !ok || sumValue(t, m) != 1 {
		t.Error("expected 1 cache update")
	}
	if m, ok := findMetric(rm, "octomap_cache_evicted_total"); !ok || sumValue(t, m) != 2 {
		t.Error("expected 2 cache evictions")
	}
}

func TestOTelMetricsCollector_RecordResizeAndEviction(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	c, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector: %v", err)
	}
	c.RecordResize(128)
	c.RecordEviction()
	c.RecordEviction()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if m, ok := findMetric(rm, "octomap_resizes_total"); !ok || sumValue(t, m) != 1 {
		t.Error("expected 1 resize")
	}
	if m, ok := findMetric(rm, "octomap_evictions_total"); !ok || sumValue(t, m) != 2 {
		t.Error("expected 2 evictions")
	}
}

func TestOTelMetricsCollector_WithMeterName(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	c, err := NewOTelMetricsCollector(provider, WithMeterName("custom_octomap"))
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector: %v", err)
	}
	c.RecordGet(100, true)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 || rm.ScopeMetrics[0].Scope.Name != "custom_octomap" {
		t.Error("expected scope name custom_octomap")
	}
}
