//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

// Package trace exports evaluation spans over OTLP.
package trace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	itelemetry "trpc.group/trpc-go/trpc-nlgeval-go/internal/telemetry"
)

const tracesEndpointEnv = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"

// NewTracerProvider creates a tracer provider exporting spans in batches to an OTLP collector.
// Endpoint resolution follows the OTEL_EXPORTER_OTLP_TRACES_ENDPOINT and
// OTEL_EXPORTER_OTLP_ENDPOINT variables unless WithEndpoint is given.
// The caller must Shutdown the provider to flush pending spans.
func NewTracerProvider(ctx context.Context, opts ...Option) (*sdktrace.TracerProvider, error) {
	options := &options{
		serviceName: itelemetry.ServiceName,
		protocol:    itelemetry.ProtocolGRPC,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.endpoint == "" {
		options.endpoint = itelemetry.Endpoint(tracesEndpointEnv, options.protocol)
	}

	res, err := itelemetry.NewResource(ctx, itelemetry.ResourceConfig{
		ServiceName:      options.serviceName,
		ServiceVersion:   itelemetry.ServiceVersion,
		ServiceNamespace: itelemetry.ServiceNamespace,
		Attributes:       options.resourceAttributes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch options.protocol {
	case itelemetry.ProtocolHTTP:
		exporter, err = otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(options.endpoint),
			otlptracehttp.WithHeaders(options.headers),
			otlptracehttp.WithInsecure())
	case itelemetry.ProtocolGRPC:
		conn, connErr := itelemetry.NewGRPCConn(options.endpoint)
		if connErr != nil {
			return nil, fmt.Errorf("failed to create traces connection: %w", connErr)
		}
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithGRPCConn(conn),
			otlptracegrpc.WithHeaders(options.headers))
		if err != nil {
			_ = conn.Close()
		}
	default:
		return nil, fmt.Errorf("unsupported protocol %q", options.protocol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

// Option configures the tracer provider.
type Option func(*options)

type options struct {
	endpoint           string
	protocol           string
	serviceName        string
	headers            map[string]string
	resourceAttributes []attribute.KeyValue
}

// WithEndpoint sets the collector endpoint as host:port.
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.endpoint = endpoint
	}
}

// WithProtocol sets the export protocol, "grpc" (default) or "http".
func WithProtocol(protocol string) Option {
	return func(opts *options) {
		opts.protocol = protocol
	}
}

// WithServiceName overrides the service.name resource attribute.
func WithServiceName(serviceName string) Option {
	return func(opts *options) {
		opts.serviceName = serviceName
	}
}

// WithHeaders sets headers sent with every export request.
func WithHeaders(headers map[string]string) Option {
	return func(opts *options) {
		opts.headers = headers
	}
}

// WithResourceAttributes appends custom resource attributes.
func WithResourceAttributes(attrs ...attribute.KeyValue) Option {
	return func(opts *options) {
		opts.resourceAttributes = append(opts.resourceAttributes, attrs...)
	}
}
