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
	"sort"

	"gonum.org/v1/gonum/floats"

	"trpc.group/trpc-go/trpc-nlgeval-go/dataloader"
)

// PoolingMode selects how word embeddings are combined into a sentence embedding.
type PoolingMode string

const (
	// PoolingAvg averages word embeddings element-wise.
	PoolingAvg PoolingMode = "avg"
	// PoolingExtrema takes the element-wise maximum of word embeddings.
	PoolingExtrema PoolingMode = "extrema"
)

var _ Scorer = (*EmbeddingScorer)(nil)

// EmbeddingScorer scores sentence pairs with the cosine similarity of pooled word embeddings.
type EmbeddingScorer struct {
	dl       dataloader.Dataloader
	word2vec map[string][]float64
	mode     PoolingMode
	dim      int
}

// NewEmbeddingScorer creates an embedding similarity scorer.
// word2vec may be empty, in which case every pair scores 0.
func NewEmbeddingScorer(dl dataloader.Dataloader, word2vec map[string][]float64, mode PoolingMode) (*EmbeddingScorer, error) {
	if dl == nil {
		return nil, fmt.Errorf("%w: dataloader is nil", ErrInvalidConfig)
	}
	switch mode {
	case PoolingAvg, PoolingExtrema:
	default:
		return nil, fmt.Errorf("%w: mode should be %q or %q, got %q", ErrInvalidConfig, PoolingAvg, PoolingExtrema, mode)
	}
	dim := -1
	table := make(map[string][]float64, len(word2vec))
	for word, vec := range word2vec {
		if dim == -1 {
			dim = len(vec)
		}
		if len(vec) == 0 || len(vec) != dim {
			return nil, fmt.Errorf("%w: word embeddings have inconsistent embedding size or are empty", ErrInvalidConfig)
		}
		table[word] = append([]float64(nil), vec...)
	}
	if dim < 0 {
		dim = 0
	}
	return &EmbeddingScorer{dl: dl, word2vec: table, mode: mode, dim: dim}, nil
}

// Dim returns the embedding size, 0 for an empty table.
func (s *EmbeddingScorer) Dim() int {
	return s.dim
}

// Name implements Scorer.
func (s *EmbeddingScorer) Name() string {
	return "emb_similarity"
}

// Prefix implements Scorer.
func (s *EmbeddingScorer) Prefix() string {
	return fmt.Sprintf("%s-bow", s.mode)
}

// Score implements Scorer.
// A sentence without any word in the embedding table scores 0 against everything.
func (s *EmbeddingScorer) Score(gen, ref []int) (float64, error) {
	genEmbed, err := s.sentenceEmbedding(gen)
	if err != nil {
		return 0, err
	}
	refEmbed, err := s.sentenceEmbedding(ref)
	if err != nil {
		return 0, err
	}
	if genEmbed == nil || refEmbed == nil {
		return 0, nil
	}
	genNorm := floats.Norm(genEmbed, 2)
	refNorm := floats.Norm(refEmbed, 2)
	if genNorm == 0 || refNorm == 0 {
		return 0, nil
	}
	cos := floats.Dot(genEmbed, refEmbed) / (genNorm * refNorm)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return (cos + 1) / 2, nil
}

// HashParams implements Scorer.
func (s *EmbeddingScorer) HashParams() []any {
	return []any{string(s.mode)}
}

// HashExtra implements Scorer. Entries are sorted by word.
func (s *EmbeddingScorer) HashExtra() []any {
	words := make([]string, 0, len(s.word2vec))
	for word := range s.word2vec {
		words = append(words, word)
	}
	sort.Strings(words)
	extra := make([]any, 0, len(words))
	for _, word := range words {
		extra = append(extra, []any{word, s.word2vec[word]})
	}
	return extra
}

// sentenceEmbedding pools the embeddings of known words. It returns nil when no word is known.
func (s *EmbeddingScorer) sentenceEmbedding(ids []int) ([]float64, error) {
	tokens, err := s.dl.ConvertIDsToTokens(ids)
	if err != nil {
		return nil, fmt.Errorf("convert ids to tokens: %w", err)
	}
	var pooled []float64
	var n int
	for _, tok := range tokens {
		vec, ok := s.word2vec[tok]
		if !ok {
			continue
		}
		n++
		if pooled == nil {
			pooled = append([]float64(nil), vec...)
			continue
		}
		switch s.mode {
		case PoolingAvg:
			floats.Add(pooled, vec)
		case PoolingExtrema:
			for i, v := range vec {
				if v > pooled[i] {
					pooled[i] = v
				}
			}
		}
	}
	if pooled != nil && s.mode == PoolingAvg {
		floats.Scale(1/float64(n), pooled)
	}
	return pooled, nil
}
