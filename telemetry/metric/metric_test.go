//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

package metric

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestNewMeterProvider(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{
			name: "gRPC endpoint",
			opts: []Option{WithEndpoint("localhost:4317"), WithProtocol("grpc")},
		},
		{
			name: "HTTP endpoint",
			opts: []Option{WithEndpoint("localhost:4318"), WithProtocol("http")},
		},
		{
			name: "default options",
		},
		{
			name: "service and resource attributes",
			opts: []Option{
				WithServiceName("nlgeval-test"),
				WithServiceVersion("v0.0.1"),
				WithResourceAttributes(attribute.String("run.id", "abc")),
			},
		},
		{
			name:    "unknown protocol",
			opts:    []Option{WithProtocol("udp")},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")
			t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
			mp, err := NewMeterProvider(context.Background(), tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, mp)
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			// No collector runs in tests, so the final flush may fail.
			_ = mp.Shutdown(ctx)
		})
	}
}

func TestOptions(t *testing.T) {
	o := &options{}
	for _, opt := range []Option{
		WithEndpoint("collector:4317"),
		WithProtocol("http"),
		WithServiceName("svc"),
		WithServiceVersion("v2"),
		WithResourceAttributes(attribute.Int("a", 1)),
		WithResourceAttributes(attribute.Int("b", 2)),
	} {
		opt(o)
	}
	assert.Equal(t, "collector:4317", o.metricsEndpoint)
	assert.Equal(t, "http", o.protocol)
	assert.Equal(t, "svc", o.serviceName)
	assert.Equal(t, "v2", o.serviceVersion)
	assert.Len(t, o.resourceAttributes, 2)
}
