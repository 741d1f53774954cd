// Package tracking records OpenTelemetry metrics for outbound API calls.
package tracking

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "mcpanel/httpapi"

	// OTel HTTP client semantic convention, seconds
	metricRequestDuration = "http.client.request.duration"

	metricRetries      = "httpapi.retries"      // Counter of backoff retries
	metricPlaceholders = "httpapi.placeholders" // Counter of short-circuited calls

	attrMethod     = "http.request.method"
	attrStatusCode = "http.response.status_code"
	attrServer     = "server.address"
	attrErrorType  = "error.type"
	attrService    = "service.name"
	attrLayer      = "retry.layer"
)

var (
	meter       metric.Meter
	meterOnce   sync.Once
	meterInitMu sync.Mutex

	requestDuration    metric.Float64Histogram
	retryCounter       metric.Int64Counter
	placeholderCounter metric.Int64Counter
)

func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize httpapi metric %s: %v\n", metricName, err)
	}
}

func initMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if meter != nil {
		return
	}

	meter = otel.Meter(meterName)

	var err error
	requestDuration, err = meter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("Duration of outbound HTTP API requests"),
		metric.WithUnit("s"),
	)
	logMetricError(metricRequestDuration, err)

	retryCounter, err = meter.Int64Counter(
		metricRetries,
		metric.WithDescription("Number of retried API attempts"),
		metric.WithUnit("{retry}"),
	)
	logMetricError(metricRetries, err)

	placeholderCounter, err = meter.Int64Counter(
		metricPlaceholders,
		metric.WithDescription("Number of calls answered with a placeholder response"),
		metric.WithUnit("{call}"),
	)
	logMetricError(metricPlaceholders, err)
}

func ensureMeter() {
	meterOnce.Do(initMeter)
}

// RecordRequest records one transport attempt. status is 0 when no response
// was received; errType is empty on success.
func RecordRequest(ctx context.Context, service, method, server string, status int, duration time.Duration, errType string) {
	ensureMeter()
	if requestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrMethod, method),
		attribute.String(attrServer, server),
	}
	if status > 0 {
		attrs = append(attrs, attribute.String(attrStatusCode, strconv.Itoa(status)))
	}
	if errType != "" {
		attrs = append(attrs, attribute.String(attrErrorType, errType))
	}

	requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRetry counts one retry scheduled by the given retry layer.
func RecordRetry(ctx context.Context, service, layer string) {
	ensureMeter()
	if retryCounter == nil {
		return
	}
	retryCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrLayer, layer),
	))
}

// RecordPlaceholder counts one short-circuited call.
func RecordPlaceholder(ctx context.Context, service, method string) {
	ensureMeter()
	if placeholderCounter == nil {
		return
	}
	placeholderCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrMethod, method),
	))
}

// ResetForTesting drops the cached meter so the next call binds to the
// current global provider.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	meter = nil
	requestDuration = nil
	retryCounter = nil
	placeholderCounter = nil
	meterOnce = sync.Once{}
}
