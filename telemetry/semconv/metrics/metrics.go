//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

// Package metrics defines metric name constants following OpenTelemetry semantic conventions.
package metrics

const (
	// KeyMetricName represents the name of the evaluation metric.
	KeyMetricName = "metric.name"
	// KeyStatus represents the outcome of a forward call, "ok" or "error".
	KeyStatus = "status"

	// StatusOK marks an accepted batch.
	StatusOK = "ok"
	// StatusError marks a rejected batch.
	StatusError = "error"

	////////////////////////// precision recall ////////////////////////

	// MetricInstanceCnt counts instances accepted by a metric.
	MetricInstanceCnt = "trpc_nlgeval_go.precision_recall.instance_cnt"
	// MetricBatchCnt counts forward calls by status.
	MetricBatchCnt = "trpc_nlgeval_go.precision_recall.batch_cnt"
	// MetricForwardDuration represents the duration of a forward call.
	MetricForwardDuration = "trpc_nlgeval_go.precision_recall.forward.duration"

	////////////////////////// meters ////////////////////////

	// MeterNamePrecisionRecall is the meter name for precision recall metrics.
	MeterNamePrecisionRecall = "trpc_nlgeval_go.precision_recall"
)
