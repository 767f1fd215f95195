//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

// Package rouge implements ROUGE-N and ROUGE-L over token id sequences.
package rouge

import (
	"strconv"
	"strings"
)

// Score holds ROUGE precision, recall and F-measure.
type Score struct {
	// Precision is the fraction of hypothesis units that match the reference in range [0, 1].
	Precision float64
	// Recall is the fraction of reference units matched by the hypothesis in range [0, 1].
	Recall float64
	// FMeasure is the harmonic mean of precision and recall in range [0, 1].
	FMeasure float64
}

func newScore(precision, recall float64) Score {
	s := Score{Precision: precision, Recall: recall}
	if precision+recall > 0 {
		s.FMeasure = 2 * precision * recall / (precision + recall)
	}
	return s
}

// N computes ROUGE-N with clipped n-gram counts. Empty inputs score zero.
func N(reference, hypothesis []int, n int) Score {
	if len(reference) == 0 || len(hypothesis) == 0 || n <= 0 {
		return Score{}
	}
	refNGrams := countNGrams(reference, n)
	hypNGrams := countNGrams(hypothesis, n)

	var intersection, refCount, hypCount int
	for key, cnt := range refNGrams {
		refCount += cnt
		if hypCnt := hypNGrams[key]; hypCnt > 0 {
			intersection += min(cnt, hypCnt)
		}
	}
	for _, cnt := range hypNGrams {
		hypCount += cnt
	}
	return newScore(
		float64(intersection)/float64(max(hypCount, 1)),
		float64(intersection)/float64(max(refCount, 1)),
	)
}

// L computes ROUGE-L from the longest common subsequence. Empty inputs score zero.
func L(reference, hypothesis []int) Score {
	if len(reference) == 0 || len(hypothesis) == 0 {
		return Score{}
	}
	n := lcsLength(reference, hypothesis)
	return newScore(float64(n)/float64(len(hypothesis)), float64(n)/float64(len(reference)))
}

func countNGrams(ids []int, n int) map[string]int {
	if len(ids) < n {
		return map[string]int{}
	}
	counts := make(map[string]int, len(ids)-n+1)
	var sb strings.Builder
	for i := 0; i+n <= len(ids); i++ {
		sb.Reset()
		for j, id := range ids[i : i+n] {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.Itoa(id))
		}
		counts[sb.String()]++
	}
	return counts
}

// lcsLength keeps two rows of the dynamic programming table.
func lcsLength(a, b []int) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		curr[0] = 0
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
