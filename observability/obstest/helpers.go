// Package obstest provides in-memory OpenTelemetry providers for asserting
// spans and metrics in unit tests without an external collector.
package obstest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TraceProvider wraps an SDK TracerProvider exporting synchronously to memory.
type TraceProvider struct {
	*sdktrace.TracerProvider
	Exporter *tracetest.InMemoryExporter
}

// NewTraceProvider creates a TraceProvider.
func NewTraceProvider() *TraceProvider {
	exporter := tracetest.NewInMemoryExporter()
	return &TraceProvider{
		TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)),
		Exporter:       exporter,
	}
}

// InstallTraceProvider sets a new TraceProvider as the global tracer
// provider and restores the previous one when t ends.
func InstallTraceProvider(t *testing.T) *TraceProvider {
	t.Helper()
	tp := NewTraceProvider()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return tp
}

// MeterProvider wraps an SDK MeterProvider read by a ManualReader.
type MeterProvider struct {
	*sdkmetric.MeterProvider
	Reader *sdkmetric.ManualReader
}

// NewMeterProvider creates a MeterProvider.
func NewMeterProvider() *MeterProvider {
	reader := sdkmetric.NewManualReader()
	return &MeterProvider{
		MeterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		Reader:        reader,
	}
}

// Collect reads all metrics recorded so far.
func (mp *MeterProvider) Collect(t *testing.T) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, mp.Reader.Collect(context.Background(), &rm), "failed to collect metrics")
	return rm
}

// SpanCollector filters captured spans.
type SpanCollector struct {
	t     *testing.T
	spans tracetest.SpanStubs
}

// NewSpanCollector snapshots the spans held by exporter.
func NewSpanCollector(t *testing.T, exporter *tracetest.InMemoryExporter) *SpanCollector {
	t.Helper()
	return &SpanCollector{t: t, spans: exporter.GetSpans()}
}

func (sc *SpanCollector) Len() int {
	return len(sc.spans)
}

// WithName keeps spans with the given name.
func (sc *SpanCollector) WithName(name string) *SpanCollector {
	filtered := make(tracetest.SpanStubs, 0, len(sc.spans))
	for i := range sc.spans {
		if sc.spans[i].Name == name {
			filtered = append(filtered, sc.spans[i])
		}
	}
	return &SpanCollector{t: sc.t, spans: filtered}
}

// WithAttribute keeps spans carrying key with a value that renders as value.
func (sc *SpanCollector) WithAttribute(key, value string) *SpanCollector {
	filtered := make(tracetest.SpanStubs, 0, len(sc.spans))
	for i := range sc.spans {
		for _, attr := range sc.spans[i].Attributes {
			if string(attr.Key) == key && attr.Value.Emit() == value {
				filtered = append(filtered, sc.spans[i])
				break
			}
		}
	}
	return &SpanCollector{t: sc.t, spans: filtered}
}

// First returns the first span, failing the test when there is none.
func (sc *SpanCollector) First() tracetest.SpanStub {
	sc.t.Helper()
	require.NotEmpty(sc.t, sc.spans, "no spans in collection")
	return sc.spans[0]
}

// AssertCount asserts the number of collected spans.
func (sc *SpanCollector) AssertCount(expected int) *SpanCollector {
	sc.t.Helper()
	assert.Len(sc.t, sc.spans, expected, "unexpected number of spans")
	return sc
}

// FindMetric finds a metric by name. Returns nil if not found.
func FindMetric(rm metricdata.ResourceMetrics, metricName string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == metricName {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// SumInt64 adds up every data point of an int64 counter.
func SumInt64(rm metricdata.ResourceMetrics, metricName string) (int64, error) {
	m := FindMetric(rm, metricName)
	if m == nil {
		return 0, fmt.Errorf("metric %s not found", metricName)
	}
	data, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return 0, fmt.Errorf("metric %s is not an int64 sum", metricName)
	}
	var total int64
	for _, dp := range data.DataPoints {
		total += dp.Value
	}
	return total, nil
}

// HistogramCount adds up the observation counts of a float64 histogram.
func HistogramCount(rm metricdata.ResourceMetrics, metricName string) (uint64, error) {
	m := FindMetric(rm, metricName)
	if m == nil {
		return 0, fmt.Errorf("metric %s not found", metricName)
	}
	data, ok := m.Data.(metricdata.Histogram[float64])
	if !ok {
		return 0, fmt.Errorf("metric %s is not a float64 histogram", metricName)
	}
	var total uint64
	for _, dp := range data.DataPoints {
		total += dp.Count
	}
	return total, nil
}
