package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeterProvider(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	ResetForTesting()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
		ResetForTesting()
	})

	return reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != meterName {
			continue
		}
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func attrValue(attrs []attribute.KeyValue, key string) (string, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestRecordRequest(t *testing.T) {
	reader := setupTestMeterProvider(t)

	RecordRequest(context.Background(), "modrinth", "GET", "api.modrinth.com", 200, 40*time.Millisecond, "")

	m, ok := collect(t, reader, metricRequestDuration)
	require.True(t, ok, "expected http.client.request.duration metric")
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)

	attrs := hist.DataPoints[0].Attributes.ToSlice()
	v, _ := attrValue(attrs, attrService)
	assert.Equal(t, "modrinth", v)
	v, _ = attrValue(attrs, attrStatusCode)
	assert.Equal(t, "200", v)
	_, hasErr := attrValue(attrs, attrErrorType)
	assert.False(t, hasErr)
}

func TestRecordRequestFailure(t *testing.T) {
	reader := setupTestMeterProvider(t)

	RecordRequest(context.Background(), "pterodactyl", "POST", "panel.local", 0, time.Second, "timeout")

	m, ok := collect(t, reader, metricRequestDuration)
	require.True(t, ok)
	hist := m.Data.(metricdata.Histogram[float64])
	attrs := hist.DataPoints[0].Attributes.ToSlice()
	v, _ := attrValue(attrs, attrErrorType)
	assert.Equal(t, "timeout", v)
	_, hasStatus := attrValue(attrs, attrStatusCode)
	assert.False(t, hasStatus)
}

func TestRecordRetryAndPlaceholder(t *testing.T) {
	reader := setupTestMeterProvider(t)

	RecordRetry(context.Background(), "modrinth", "transport")
	RecordRetry(context.Background(), "modrinth", "transport")
	RecordPlaceholder(context.Background(), "pterodactyl", "POST")

	m, ok := collect(t, reader, metricRetries)
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	m, ok = collect(t, reader, metricPlaceholders)
	require.True(t, ok)
	sum = m.Data.(metricdata.Sum[int64])
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
}
