//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

package precisionrecall

import "errors"

var (
	// ErrInvalidType is returned when a batch field is missing or is not a 3-d id array.
	ErrInvalidType = errors.New("precisionrecall: invalid input type")
	// ErrBatchSizeMismatch is returned when references and generated sentences have different batch sizes.
	ErrBatchSizeMismatch = errors.New("precisionrecall: batch size of references and generated sentences mismatch")
	// ErrGeneratedNumMismatch is returned when an instance does not hold generatedNumPerContext sentences.
	ErrGeneratedNumMismatch = errors.New("precisionrecall: number of generated sentences per context mismatch")
	// ErrNoReference is returned when an instance has no reference sentence.
	ErrNoReference = errors.New("precisionrecall: instance has no reference sentence")
	// ErrInvalidConfig is returned when a metric or scorer is constructed with invalid settings.
	ErrInvalidConfig = errors.New("precisionrecall: invalid configuration")
	// ErrNotReady is returned by Close when no instance has been forwarded.
	ErrNotReady = errors.New("precisionrecall: metric has not been forwarded data")
	// ErrClosed is returned when the metric is used after Close succeeded.
	ErrClosed = errors.New("precisionrecall: metric is closed")
	// ErrScorerPanic is returned when a scorer panics while scoring an instance.
	ErrScorerPanic = errors.New("precisionrecall: scorer panicked")
)
