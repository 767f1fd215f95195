//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

// Package wordvec reads word embedding tables in the GloVe text format:
// one word per line followed by its vector components, separated by spaces.
package wordvec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxLineSize bounds a single line; 300-d float vectors fit comfortably.
const maxLineSize = 1 << 20

// Load reads an embedding table. When vocab is non-empty only its words are kept.
// Blank lines are skipped; every vector must have the same size.
func Load(r io.Reader, vocab ...string) (map[string][]float64, error) {
	var keep map[string]struct{}
	if len(vocab) > 0 {
		keep = make(map[string]struct{}, len(vocab))
		for _, w := range vocab {
			keep[w] = struct{}{}
		}
	}

	table := make(map[string][]float64)
	dim := -1
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		word := fields[0]
		if keep != nil {
			if _, ok := keep[word]; !ok {
				continue
			}
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: word %q has no vector", line, word)
		}
		vec := make([]float64, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parse component %d of %q: %w", line, i, word, err)
			}
			vec[i] = v
		}
		if dim == -1 {
			dim = len(vec)
		} else if len(vec) != dim {
			return nil, fmt.Errorf("line %d: word %q has %d components, want %d", line, word, len(vec), dim)
		}
		table[word] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read embeddings: %w", err)
	}
	return table, nil
}
