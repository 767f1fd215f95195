//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

// Package dataloader defines the language processing contract consumed by metrics.
package dataloader

// Dataloader maps between token ids and surface tokens.
// Implementations must be safe for concurrent reads, metrics score instances in parallel.
type Dataloader interface {
	// TrimInIDs strips the end token and everything after it, then trailing padding.
	TrimInIDs(ids []int) []int
	// ConvertIDsToTokens maps ids to surface tokens.
	ConvertIDsToTokens(ids []int) ([]string, error)
	// UnkID returns the id of the unknown token.
	UnkID() int
}
