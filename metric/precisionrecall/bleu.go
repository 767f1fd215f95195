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
	"fmt"

	"trpc.group/trpc-go/trpc-nlgeval-go/dataloader"
	"trpc.group/trpc-go/trpc-nlgeval-go/internal/bleu"
)

// unkSentinel replaces unknown ids in generated sentences. Token ids are never negative.
const unkSentinel = -1

var _ Scorer = (*BleuScorer)(nil)

// BleuScorer scores sentence pairs with smoothed sentence BLEU.
type BleuScorer struct {
	dl      dataloader.Dataloader
	ngram   int
	weights []float64
}

// NewBleuScorer creates a BLEU-ngram scorer with uniform weights.
func NewBleuScorer(dl dataloader.Dataloader, ngram int) (*BleuScorer, error) {
	if dl == nil {
		return nil, fmt.Errorf("%w: dataloader is nil", ErrInvalidConfig)
	}
	if ngram < 1 {
		return nil, fmt.Errorf("%w: ngram must be positive, got %d", ErrInvalidConfig, ngram)
	}
	return &BleuScorer{
		dl:      dl,
		ngram:   ngram,
		weights: bleu.UniformWeights(ngram),
	}, nil
}

// Name implements Scorer.
func (s *BleuScorer) Name() string {
	return "bleu"
}

// Prefix implements Scorer.
func (s *BleuScorer) Prefix() string {
	return fmt.Sprintf("BLEU-%d", s.ngram)
}

// Score implements Scorer.
// Unknown ids in gen never match, not even unknown ids in ref.
func (s *BleuScorer) Score(gen, ref []int) (float64, error) {
	return bleu.Sentence(
		[][]int{ref},
		replaceUnk(gen, s.dl.UnkID(), unkSentinel),
		bleu.WithWeights(s.weights...),
		bleu.WithSmoothing(bleu.AddEpsilon(bleu.DefaultEpsilon)),
	)
}

// HashParams implements Scorer.
func (s *BleuScorer) HashParams() []any {
	return []any{s.ngram}
}

// HashExtra implements Scorer.
func (s *BleuScorer) HashExtra() []any {
	return nil
}

// replaceUnk returns a copy of ids with every unk replaced by target.
func replaceUnk(ids []int, unk, target int) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		if id == unk {
			id = target
		}
		out[i] = id
	}
	return out
}
