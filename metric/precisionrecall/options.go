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
	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// options holds the configuration of a precision recall metric.
type options struct {
	// referenceKey is the batch field holding reference sentences.
	referenceKey string
	// generatedKey is the batch field holding generated sentences.
	generatedKey string
	// parallelism is the number of instances scored concurrently within one batch.
	parallelism int
	// meterProvider receives forward counters and durations.
	meterProvider otelmetric.MeterProvider
	// tracerProvider receives forward and close spans.
	tracerProvider trace.TracerProvider
	// durationBuckets overrides the forward duration histogram boundaries, in seconds.
	durationBuckets []float64
}

func newOptions(opt ...Option) *options {
	opts := &options{
		referenceKey:   DefaultReferenceKey,
		generatedKey:   DefaultGeneratedKey,
		parallelism:    1,
		meterProvider:  noop.NewMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures a precision recall metric.
type Option func(*options)

// WithReferenceKey sets the batch field holding reference sentences.
func WithReferenceKey(key string) Option {
	return func(o *options) {
		o.referenceKey = key
	}
}

// WithGeneratedKey sets the batch field holding generated sentences.
func WithGeneratedKey(key string) Option {
	return func(o *options) {
		o.generatedKey = key
	}
}

// WithParallelism sets how many instances of a batch are scored concurrently.
// The default 1 scores inline without a worker pool.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider. Nil keeps the no-op provider.
func WithMeterProvider(mp otelmetric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Nil keeps the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithDurationBuckets sets explicit bucket boundaries, in seconds, for the forward duration histogram.
func WithDurationBuckets(boundaries ...float64) Option {
	return func(o *options) {
		o.durationBuckets = append([]float64(nil), boundaries...)
	}
}
