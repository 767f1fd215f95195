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
	"trpc.group/trpc-go/trpc-nlgeval-go/internal/rouge"
)

// RougeL selects ROUGE-L in NewRougeScorer.
const RougeL = 0

var _ Scorer = (*RougeScorer)(nil)

// RougeScorer scores sentence pairs with the ROUGE F-measure.
type RougeScorer struct {
	dl    dataloader.Dataloader
	order int
}

// NewRougeScorer creates a ROUGE-order scorer, or a ROUGE-L scorer when order is RougeL.
func NewRougeScorer(dl dataloader.Dataloader, order int) (*RougeScorer, error) {
	if dl == nil {
		return nil, fmt.Errorf("%w: dataloader is nil", ErrInvalidConfig)
	}
	if order < 0 {
		return nil, fmt.Errorf("%w: rouge order must not be negative, got %d", ErrInvalidConfig, order)
	}
	return &RougeScorer{dl: dl, order: order}, nil
}

// Name implements Scorer.
func (s *RougeScorer) Name() string {
	return "rouge"
}

// Prefix implements Scorer.
func (s *RougeScorer) Prefix() string {
	if s.order == RougeL {
		return "ROUGE-L"
	}
	return fmt.Sprintf("ROUGE-%d", s.order)
}

// Score implements Scorer. Unknown ids in gen never match.
func (s *RougeScorer) Score(gen, ref []int) (float64, error) {
	hyp := replaceUnk(gen, s.dl.UnkID(), unkSentinel)
	if s.order == RougeL {
		return rouge.L(ref, hyp).FMeasure, nil
	}
	return rouge.N(ref, hyp, s.order).FMeasure, nil
}

// HashParams implements Scorer.
func (s *RougeScorer) HashParams() []any {
	return []any{s.order}
}

// HashExtra implements Scorer.
func (s *RougeScorer) HashExtra() []any {
	return nil
}
