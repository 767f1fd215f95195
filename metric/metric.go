//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

// Package metric defines the streaming metric contract.
package metric

import "context"

// Data is one batch of model inputs and outputs keyed by field name.
type Data map[string]any

// Result holds the final values of one or more metrics keyed by display name.
type Result map[string]any

// Metric accumulates batches and reports a result once.
type Metric interface {
	// Name returns the metric name.
	Name() string
	// Version returns the metric version. It changes whenever results stop being comparable.
	Version() int
	// Forward processes one batch.
	Forward(ctx context.Context, data Data) error
	// Close finalizes the metric and returns its result.
	Close(ctx context.Context) (Result, error)
}

// Stager is implemented by metrics whose Forward can be split into a check and an apply step.
// Stage does all the work of Forward and fails the same way, but leaves the metric unchanged
// until the returned commit is called. Commit must be called at most once and before any
// other call on the metric.
type Stager interface {
	Metric
	Stage(ctx context.Context, data Data) (commit func(), err error)
}

// Checker is implemented by metrics that can tell, without closing, whether Close would succeed.
type Checker interface {
	Metric
	// CheckClose returns the error Close would return, or nil.
	CheckClose() error
	// ResultKeys returns the keys Close reports.
	ResultKeys() []string
}
