//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the OTLP plumbing shared by the metric and trace exporters.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Default resource attributes.
const (
	ServiceName      = "nlgeval"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "trpc-go-nlgeval"
)

const (
	// ProtocolGRPC uses gRPC protocol for OTLP exporter.
	ProtocolGRPC string = "grpc"
	// ProtocolHTTP uses HTTP protocol for OTLP exporter.
	ProtocolHTTP string = "http"
)

// Default collector endpoints.
const (
	DefaultGRPCEndpoint = "localhost:4317"
	DefaultHTTPEndpoint = "localhost:4318"
)

// grpcNewClient allows tests to inject a custom dialer.
var grpcNewClient = grpc.NewClient

// NewGRPCConn creates a plaintext gRPC client connection to endpoint.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	conn, err := grpcNewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("create gRPC connection to %s: %w", endpoint, err)
	}
	return conn, nil
}

// Endpoint resolves a collector endpoint. The signal specific variable, such as
// OTEL_EXPORTER_OTLP_METRICS_ENDPOINT, wins over OTEL_EXPORTER_OTLP_ENDPOINT,
// which wins over the default of protocol.
func Endpoint(signalEnv, protocol string) string {
	if endpoint := os.Getenv(signalEnv); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if protocol == ProtocolHTTP {
		return DefaultHTTPEndpoint
	}
	return DefaultGRPCEndpoint
}

// ResourceConfig describes the process reporting telemetry.
type ResourceConfig struct {
	ServiceName      string
	ServiceVersion   string
	ServiceNamespace string
	Attributes       []attribute.KeyValue
}

// NewResource builds the resource from cfg and the OTEL_RESOURCE_ATTRIBUTES environment.
func NewResource(ctx context.Context, cfg ResourceConfig) (*resource.Resource, error) {
	opts := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceNamespace(cfg.ServiceNamespace),
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	}
	if len(cfg.Attributes) > 0 {
		opts = append(opts, resource.WithAttributes(cfg.Attributes...))
	}
	return resource.New(ctx, opts...)
}
