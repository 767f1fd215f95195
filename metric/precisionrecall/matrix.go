//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

package precisionrecall

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// buildMatrix scores every (reference, generated) pair.
// Cell (i, j) holds scorer.Score(gens[j], refs[i]).
func buildMatrix(ctx context.Context, scorer Scorer, refs, gens [][]int) (*mat.Dense, error) {
	if len(refs) == 0 || len(gens) == 0 {
		return nil, errors.New("score matrix must have at least one row and one column")
	}
	m := mat.NewDense(len(refs), len(gens), nil)
	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j, gen := range gens {
			score, err := scorer.Score(gen, ref)
			if err != nil {
				return nil, fmt.Errorf("score generated %d against reference %d: %w", j, i, err)
			}
			m.Set(i, j, score)
		}
	}
	return m, nil
}

// reduce collapses a score matrix into precision and recall contributions.
// Precision credits every generated sentence with its best reference.
// Recall credits every reference with its best generated sentence.
func reduce(m mat.Matrix) (precision, recall float64) {
	rows, cols := m.Dims()
	var colBest float64
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		colBest += floats.Max(mat.Col(col, j, m))
	}
	var rowBest float64
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		rowBest += floats.Max(mat.Row(row, i, m))
	}
	return colBest / float64(cols), rowBest / float64(rows)
}
