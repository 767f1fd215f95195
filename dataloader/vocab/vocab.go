//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

// Package vocab provides an in-memory dataloader.Dataloader backed by a token list.
package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"trpc.group/trpc-go/trpc-nlgeval-go/dataloader"
)

// Default special tokens. They occupy ids 0 to 3 in this order.
const (
	PadToken = "<pad>"
	UnkToken = "<unk>"
	GoToken  = "<go>"
	EOSToken = "<eos>"
)

var _ dataloader.Dataloader = (*Vocab)(nil)

// Vocab is an immutable vocabulary.
type Vocab struct {
	tokens []string
	index  map[string]int
	padID  int
	unkID  int
	goID   int
	eosID  int
}

// New builds a vocabulary. The special tokens are placed first unless tokens already starts with them.
func New(tokens []string, opt ...Option) (*Vocab, error) {
	opts := newOptions(opt...)
	specials := []string{opts.pad, opts.unk, opts.goTok, opts.eos}
	seen := make(map[string]struct{}, len(specials))
	for _, s := range specials {
		if s == "" {
			return nil, errors.New("special token is empty")
		}
		if _, ok := seen[s]; ok {
			return nil, fmt.Errorf("duplicate special token %q", s)
		}
		seen[s] = struct{}{}
	}

	all := make([]string, 0, len(specials)+len(tokens))
	if !hasPrefix(tokens, specials) {
		all = append(all, specials...)
	}
	all = append(all, tokens...)

	v := &Vocab{
		tokens: all,
		index:  make(map[string]int, len(all)),
	}
	for id, tok := range all {
		if _, ok := v.index[tok]; ok {
			return nil, fmt.Errorf("duplicate token %q at id %d", tok, id)
		}
		v.index[tok] = id
	}
	v.padID = v.index[opts.pad]
	v.unkID = v.index[opts.unk]
	v.goID = v.index[opts.goTok]
	v.eosID = v.index[opts.eos]
	return v, nil
}

// Load reads one token per line. Blank lines are skipped.
func Load(r io.Reader, opt ...Option) (*Vocab, error) {
	var tokens []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		tok := strings.TrimSpace(scanner.Text())
		if tok == "" {
			continue
		}
		tokens = append(tokens, tok)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	return New(tokens, opt...)
}

// Size returns the number of tokens including the special tokens.
func (v *Vocab) Size() int {
	return len(v.tokens)
}

// UnkID returns the id of the unknown token.
func (v *Vocab) UnkID() int {
	return v.unkID
}

// PadID returns the id of the padding token.
func (v *Vocab) PadID() int {
	return v.padID
}

// GoID returns the id of the start token.
func (v *Vocab) GoID() int {
	return v.goID
}

// EOSID returns the id of the end token.
func (v *Vocab) EOSID() int {
	return v.eosID
}

// TrimInIDs cuts ids at the first end token and strips trailing padding.
// The input slice is not modified.
func (v *Vocab) TrimInIDs(ids []int) []int {
	end := len(ids)
	for i, id := range ids {
		if id == v.eosID {
			end = i
			break
		}
	}
	for end > 0 && ids[end-1] == v.padID {
		end--
	}
	return append([]int(nil), ids[:end]...)
}

// ConvertIDsToTokens maps ids to tokens. Ids outside the vocabulary are an error.
func (v *Vocab) ConvertIDsToTokens(ids []int) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id < 0 || id >= len(v.tokens) {
			return nil, fmt.Errorf("token id %d out of range [0, %d)", id, len(v.tokens))
		}
		out = append(out, v.tokens[id])
	}
	return out, nil
}

// ConvertTokensToIDs maps tokens to ids. Unknown tokens map to the unknown id.
func (v *Vocab) ConvertTokensToIDs(tokens []string) []int {
	out := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		id, ok := v.index[tok]
		if !ok {
			id = v.unkID
		}
		out = append(out, id)
	}
	return out
}

func hasPrefix(tokens, prefix []string) bool {
	if len(tokens) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if tokens[i] != p {
			return false
		}
	}
	return true
}
