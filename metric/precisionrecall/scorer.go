//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

package precisionrecall

// Scorer scores one generated sentence against one reference sentence.
// Implementations must be safe for concurrent use.
type Scorer interface {
	// Name identifies the scoring strategy, such as "bleu".
	Name() string
	// Prefix labels the result keys, such as "BLEU-2".
	Prefix() string
	// Score returns a similarity in [0, 1].
	Score(gen, ref []int) (float64, error)
	// HashParams returns the ordered configuration values that identify the scorer.
	HashParams() []any
	// HashExtra returns additional data the result depends on, such as an embedding table.
	HashExtra() []any
}
