//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

// Package bleu implements sentence-level BLEU over token id sequences.
package bleu

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentence returns the BLEU score of hypothesis against one or more references.
// The score is in [0, 1]. It is 0 when the hypothesis shares no unigram with any reference.
func Sentence(references [][]int, hypothesis []int, opt ...Option) (float64, error) {
	if len(references) == 0 {
		return 0, errors.New("references are empty")
	}
	opts := newOptions(opt...)
	if len(opts.weights) == 0 {
		return 0, errors.New("weights are empty")
	}
	for _, w := range opts.weights {
		if w < 0 || math.IsNaN(w) {
			return 0, fmt.Errorf("invalid weight: %v", w)
		}
	}

	precisions := make([]Fraction, len(opts.weights))
	for i := range opts.weights {
		precisions[i] = modifiedPrecision(references, hypothesis, i+1)
	}
	// Without a unigram match there cannot be any higher-order match either.
	if precisions[0].Numerator == 0 {
		return 0, nil
	}

	bp := brevityPenalty(closestRefLength(references, len(hypothesis)), len(hypothesis))
	smoothed := opts.smoothing(precisions)
	if len(smoothed) != len(precisions) {
		return 0, fmt.Errorf("smoothing returned %d precisions, want %d", len(smoothed), len(precisions))
	}
	var sum float64
	for i, w := range opts.weights {
		if smoothed[i] <= 0 {
			return 0, nil
		}
		sum += w * math.Log(smoothed[i])
	}
	return clamp01(bp * math.Exp(sum)), nil
}

// modifiedPrecision computes the clipped n-gram precision of hypothesis for order n.
func modifiedPrecision(references [][]int, hypothesis []int, n int) Fraction {
	counts := createNGrams(hypothesis, n)
	maxRefCounts := make(map[string]int, len(counts))
	for _, ref := range references {
		refCounts := createNGrams(ref, n)
		for key := range counts {
			if c := refCounts[key]; c > maxRefCounts[key] {
				maxRefCounts[key] = c
			}
		}
	}
	var numerator, denominator int
	for key, cnt := range counts {
		denominator += cnt
		if limit := maxRefCounts[key]; cnt > limit {
			numerator += limit
		} else {
			numerator += cnt
		}
	}
	return Fraction{Numerator: numerator, Denominator: maxInt(denominator, 1)}
}

// createNGrams builds a multiset of n-grams keyed by a delimiter-joined id sequence.
func createNGrams(ids []int, n int) map[string]int {
	if n <= 0 || len(ids) < n {
		return map[string]int{}
	}
	ngrams := make(map[string]int, len(ids)-n+1)
	var b strings.Builder
	for i := 0; i <= len(ids)-n; i++ {
		b.Reset()
		for j, id := range ids[i : i+n] {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.Itoa(id))
		}
		ngrams[b.String()]++
	}
	return ngrams
}

// closestRefLength returns the reference length closest to hypLen, preferring the shorter on ties.
func closestRefLength(references [][]int, hypLen int) int {
	best := len(references[0])
	for _, ref := range references[1:] {
		refLen := len(ref)
		d, bestD := absInt(refLen-hypLen), absInt(best-hypLen)
		if d < bestD || (d == bestD && refLen < best) {
			best = refLen
		}
	}
	return best
}

// brevityPenalty penalizes hypotheses shorter than the closest reference.
func brevityPenalty(refLen, hypLen int) float64 {
	if hypLen > refLen {
		return 1
	}
	if hypLen == 0 {
		return 0
	}
	return math.Exp(1 - float64(refLen)/float64(hypLen))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
