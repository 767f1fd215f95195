//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

package vocab

// options holds the special tokens of a vocabulary.
type options struct {
	pad   string
	unk   string
	goTok string
	eos   string
}

func newOptions(opt ...Option) *options {
	opts := &options{
		pad:   PadToken,
		unk:   UnkToken,
		goTok: GoToken,
		eos:   EOSToken,
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures a vocabulary.
type Option func(*options)

// WithSpecialTokens overrides the padding, unknown, start and end tokens.
func WithSpecialTokens(pad, unk, goTok, eos string) Option {
	return func(o *options) {
		o.pad = pad
		o.unk = unk
		o.goTok = goTok
		o.eos = eos
	}
}
