//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

package bleu

// minPositiveFloat is the smallest normalized float64, used in place of zero precisions
// so that the logarithm stays finite.
const minPositiveFloat = 2.2250738585072014e-308

// DefaultEpsilon is the additive constant used by AddEpsilon when none is given.
const DefaultEpsilon = 0.1

// Fraction is an unreduced modified precision for one n-gram order.
type Fraction struct {
	// Numerator is the clipped count of matching n-grams.
	Numerator int
	// Denominator is the number of hypothesis n-grams, at least 1.
	Denominator int
}

// Float returns the fraction as a float64.
func (f Fraction) Float() float64 {
	if f.Denominator == 0 {
		return 0
	}
	return float64(f.Numerator) / float64(f.Denominator)
}

// Smoothing maps modified precisions to the values that enter the geometric mean.
type Smoothing func(precisions []Fraction) []float64

// NoSmoothing replaces zero precisions with the smallest positive float, which drives the score to zero.
func NoSmoothing() Smoothing {
	return func(precisions []Fraction) []float64 {
		out := make([]float64, len(precisions))
		for i, p := range precisions {
			if p.Numerator == 0 {
				out[i] = minPositiveFloat
				continue
			}
			out[i] = p.Float()
		}
		return out
	}
}

// AddEpsilon adds epsilon to the numerator of every zero precision.
// A non-positive epsilon falls back to DefaultEpsilon.
func AddEpsilon(epsilon float64) Smoothing {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return func(precisions []Fraction) []float64 {
		out := make([]float64, len(precisions))
		for i, p := range precisions {
			if p.Numerator == 0 {
				out[i] = epsilon / float64(p.Denominator)
				continue
			}
			out[i] = p.Float()
		}
		return out
	}
}
