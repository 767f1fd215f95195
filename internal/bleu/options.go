//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

package bleu

// defaultWeights are the BLEU-4 uniform weights.
var defaultWeights = []float64{0.25, 0.25, 0.25, 0.25}

// options holds internal configuration for BLEU scoring.
type options struct {
	// weights holds one weight per n-gram order, starting at unigrams.
	weights []float64
	// smoothing adjusts the modified precisions before the geometric mean.
	smoothing Smoothing
}

// newOptions applies functional options to build a scoring configuration.
func newOptions(opt ...Option) *options {
	opts := &options{
		weights:   defaultWeights,
		smoothing: NoSmoothing(),
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures BLEU scoring.
type Option func(*options)

// WithWeights sets the per-order n-gram weights. The number of weights is the maximum n-gram order.
func WithWeights(weights ...float64) Option {
	return func(o *options) {
		o.weights = append([]float64(nil), weights...)
	}
}

// UniformWeights returns ngram weights of 1/ngram each.
func UniformWeights(ngram int) []float64 {
	if ngram <= 0 {
		return nil
	}
	weights := make([]float64, ngram)
	for i := range weights {
		weights[i] = 1 / float64(ngram)
	}
	return weights
}

// WithSmoothing sets the smoothing function. A nil smoothing falls back to NoSmoothing.
func WithSmoothing(smoothing Smoothing) Option {
	return func(o *options) {
		if smoothing == nil {
			smoothing = NoSmoothing()
		}
		o.smoothing = smoothing
	}
}
