//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

package precisionrecall

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"trpc.group/trpc-go/trpc-nlgeval-go/telemetry/semconv/metrics"
)

// instrumentName is the instrumentation scope of spans emitted by this package.
const instrumentName = "trpc.nlgeval.go/metric/precisionrecall"

// Span names.
const (
	spanNameForward = "precision_recall.forward"
	spanNameClose   = "precision_recall.close"
)

// instruments holds the meters of one metric.
type instruments struct {
	instanceCnt     otelmetric.Int64Counter
	batchCnt        otelmetric.Int64Counter
	forwardDuration otelmetric.Float64Histogram
}

func newInstruments(mp otelmetric.MeterProvider, durationBuckets []float64) (*instruments, error) {
	meter := mp.Meter(metrics.MeterNamePrecisionRecall)
	instanceCnt, err := meter.Int64Counter(
		metrics.MetricInstanceCnt,
		otelmetric.WithDescription("Total number of evaluated instances"),
		otelmetric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric %s: %w", metrics.MetricInstanceCnt, err)
	}
	batchCnt, err := meter.Int64Counter(
		metrics.MetricBatchCnt,
		otelmetric.WithDescription("Total number of forwarded batches"),
		otelmetric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric %s: %w", metrics.MetricBatchCnt, err)
	}
	durationOpts := []otelmetric.Float64HistogramOption{
		otelmetric.WithDescription("Duration of forward calls"),
		otelmetric.WithUnit("s"),
	}
	if len(durationBuckets) > 0 {
		durationOpts = append(durationOpts, otelmetric.WithExplicitBucketBoundaries(durationBuckets...))
	}
	forwardDuration, err := meter.Float64Histogram(metrics.MetricForwardDuration, durationOpts...)
	if err != nil {
		return nil, fmt.Errorf("create metric %s: %w", metrics.MetricForwardDuration, err)
	}
	return &instruments{
		instanceCnt:     instanceCnt,
		batchCnt:        batchCnt,
		forwardDuration: forwardDuration,
	}, nil
}

// recordForward records one forward call. instances is only counted on success.
func (in *instruments) recordForward(ctx context.Context, metricName string, instances int, start time.Time, err error) {
	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusError
	}
	nameAttr := attribute.String(metrics.KeyMetricName, metricName)
	in.batchCnt.Add(ctx, 1, otelmetric.WithAttributes(nameAttr, attribute.String(metrics.KeyStatus, status)))
	in.forwardDuration.Record(ctx, time.Since(start).Seconds(), otelmetric.WithAttributes(nameAttr))
	if err == nil && instances > 0 {
		in.instanceCnt.Add(ctx, int64(instances), otelmetric.WithAttributes(nameAttr))
	}
}

// endSpan marks the span failed when err is set and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
