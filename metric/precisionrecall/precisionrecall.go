//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

// Package precisionrecall implements precision and recall metrics between sets of
// generated sentences and sets of reference sentences.
//
// For each context a score matrix between every reference and every generated
// sentence is built with a Scorer. Precision averages, over generated sentences,
// the best score against any reference. Recall averages, over references, the best
// score against any generated sentence. Both are averaged over all contexts seen
// by Forward and reported by Close together with a hash value that identifies the
// configuration and the multiset of references.
//
// A Metric is not safe for concurrent use.
package precisionrecall

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/stat"

	"trpc.group/trpc-go/trpc-nlgeval-go/dataloader"
	"trpc.group/trpc-go/trpc-nlgeval-go/internal/fingerprint"
	"trpc.group/trpc-go/trpc-nlgeval-go/log"
	"trpc.group/trpc-go/trpc-nlgeval-go/metric"
)

// Version identifies the scoring semantics. Results of different versions are not comparable.
const Version = 2

var (
	_ metric.Stager  = (*Metric)(nil)
	_ metric.Checker = (*Metric)(nil)
)

// instance is one context after trimming.
type instance struct {
	references [][]int
	generated  [][]int
}

// Metric accumulates precision and recall over batches.
type Metric struct {
	dl                     dataloader.Dataloader
	scorer                 Scorer
	generatedNumPerContext int
	opts                   *options

	precisions []float64
	recalls    []float64
	configHash string
	references *fingerprint.Unordered
	closed     bool

	pool        *ants.PoolWithFunc
	instruments *instruments
	tracer      trace.Tracer
}

// New creates a precision recall metric scoring pairs with scorer.
// Every context must hold exactly generatedNumPerContext generated sentences.
func New(dl dataloader.Dataloader, scorer Scorer, generatedNumPerContext int, opt ...Option) (*Metric, error) {
	if dl == nil {
		return nil, fmt.Errorf("%w: dataloader is nil", ErrInvalidConfig)
	}
	if scorer == nil {
		return nil, fmt.Errorf("%w: scorer is nil", ErrInvalidConfig)
	}
	if generatedNumPerContext < 1 {
		return nil, fmt.Errorf("%w: generated num per context must be positive, got %d",
			ErrInvalidConfig, generatedNumPerContext)
	}
	opts := newOptions(opt...)
	if opts.parallelism < 1 {
		return nil, fmt.Errorf("%w: parallelism must be positive, got %d", ErrInvalidConfig, opts.parallelism)
	}
	if opts.referenceKey == "" || opts.generatedKey == "" {
		return nil, fmt.Errorf("%w: batch keys must not be empty", ErrInvalidConfig)
	}

	m := &Metric{
		dl:                     dl,
		scorer:                 scorer,
		generatedNumPerContext: generatedNumPerContext,
		opts:                   opts,
		references:             fingerprint.NewUnordered(),
		tracer:                 opts.tracerProvider.Tracer(instrumentName),
	}
	configHash, err := m.hashConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	m.configHash = configHash
	if m.instruments, err = newInstruments(opts.meterProvider, opts.durationBuckets); err != nil {
		return nil, err
	}
	if opts.parallelism > 1 {
		if m.pool, err = createInstanceScorePool(opts.parallelism); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewBleu creates a metric scoring pairs with BLEU-ngram.
func NewBleu(dl dataloader.Dataloader, ngram, generatedNumPerContext int, opt ...Option) (*Metric, error) {
	scorer, err := NewBleuScorer(dl, ngram)
	if err != nil {
		return nil, err
	}
	return New(dl, scorer, generatedNumPerContext, opt...)
}

// NewEmbSimilarity creates a metric scoring pairs with bag-of-embeddings cosine similarity.
func NewEmbSimilarity(dl dataloader.Dataloader, word2vec map[string][]float64, mode PoolingMode,
	generatedNumPerContext int, opt ...Option) (*Metric, error) {
	scorer, err := NewEmbeddingScorer(dl, word2vec, mode)
	if err != nil {
		return nil, err
	}
	return New(dl, scorer, generatedNumPerContext, opt...)
}

// NewRouge creates a metric scoring pairs with the ROUGE F-measure of the given order,
// or ROUGE-L when order is RougeL.
func NewRouge(dl dataloader.Dataloader, order, generatedNumPerContext int, opt ...Option) (*Metric, error) {
	scorer, err := NewRougeScorer(dl, order)
	if err != nil {
		return nil, err
	}
	return New(dl, scorer, generatedNumPerContext, opt...)
}

// Name returns the metric name, such as "bleu_precision_recall".
func (m *Metric) Name() string {
	return m.scorer.Name() + "_precision_recall"
}

// Version returns Version.
func (m *Metric) Version() int {
	return Version
}

// Len returns the number of instances accumulated so far.
func (m *Metric) Len() int {
	return len(m.precisions)
}

// Closed reports whether Close has succeeded.
func (m *Metric) Closed() bool {
	return m.closed
}

// Forward processes a batch keyed by the configured reference and generated keys.
// Values must be 3-d id arrays: [][][]int, or nested []any as produced by encoding/json.
func (m *Metric) Forward(ctx context.Context, data metric.Data) error {
	commit, err := m.Stage(ctx, data)
	if err != nil {
		return err
	}
	commit()
	return nil
}

// Stage scores a batch like Forward without accumulating it. The returned commit adds
// the batch to the metric.
func (m *Metric) Stage(ctx context.Context, data metric.Data) (func(), error) {
	if m.closed {
		return nil, ErrClosed
	}
	batch, err := decodeBatch(data, m.opts.referenceKey, m.opts.generatedKey)
	if err != nil {
		log.Warnf("%s: reject batch: %v", m.Name(), err)
		return nil, err
	}
	return m.StageBatch(ctx, batch)
}

// ForwardBatch processes a typed batch. A rejected batch leaves the metric unchanged.
func (m *Metric) ForwardBatch(ctx context.Context, batch Batch) error {
	commit, err := m.StageBatch(ctx, batch)
	if err != nil {
		return err
	}
	commit()
	return nil
}

// StageBatch is Stage for a typed batch.
func (m *Metric) StageBatch(ctx context.Context, batch Batch) (_ func(), err error) {
	start := time.Now()
	ctx, span := m.tracer.Start(ctx, spanNameForward, trace.WithAttributes(
		attribute.String("metric.name", m.Name()),
		attribute.Int("batch.size", len(batch.References)),
	))
	defer func() {
		if err != nil {
			m.instruments.recordForward(ctx, m.Name(), 0, start, err)
		}
		endSpan(span, err)
	}()

	if m.closed {
		return nil, ErrClosed
	}
	insts, err := m.prepare(batch)
	if err != nil {
		log.Warnf("%s: reject batch: %v", m.Name(), err)
		return nil, err
	}
	scores, err := scoreInstances(ctx, m.pool, m.scorer, insts)
	if err != nil {
		return nil, err
	}
	refs := make([]any, 0, len(insts))
	for _, inst := range insts {
		for _, ref := range inst.references {
			refs = append(refs, ref)
		}
	}
	staged := fingerprint.NewUnordered()
	if err := staged.Add(refs...); err != nil {
		return nil, fmt.Errorf("hash references: %w", err)
	}
	return func() {
		for _, s := range scores {
			log.Tracef("%s: instance %d precision %.6f recall %.6f", m.Name(), len(m.precisions), s.precision, s.recall)
			m.precisions = append(m.precisions, s.precision)
			m.recalls = append(m.recalls, s.recall)
		}
		m.references.Merge(staged)
		m.instruments.recordForward(ctx, m.Name(), len(insts), start, nil)
		log.Debugf("%s: accepted %d instances, %d in total, %d references hashed",
			m.Name(), len(insts), len(m.precisions), m.references.Len())
	}, nil
}

// CheckClose returns the error Close would return without closing the metric.
func (m *Metric) CheckClose() error {
	if m.closed {
		return ErrClosed
	}
	if len(m.precisions) == 0 || len(m.recalls) == 0 {
		return ErrNotReady
	}
	return nil
}

// ResultKeys returns the keys reported by Close.
func (m *Metric) ResultKeys() []string {
	prefix := m.scorer.Prefix()
	return []string{prefix + " precision", prefix + " recall", prefix + " hashvalue"}
}

// Close returns the average precision, the average recall and the hash value, keyed by
// "<prefix> precision", "<prefix> recall" and "<prefix> hashvalue".
// It fails with ErrNotReady before any instance was forwarded and with ErrClosed once it succeeded.
func (m *Metric) Close(ctx context.Context) (_ metric.Result, err error) {
	_, span := m.tracer.Start(ctx, spanNameClose, trace.WithAttributes(
		attribute.String("metric.name", m.Name()),
		attribute.Int("instance.count", len(m.precisions)),
	))
	defer func() { endSpan(span, err) }()

	if err := m.CheckClose(); err != nil {
		return nil, err
	}
	m.closed = true
	m.Release()

	keys := m.ResultKeys()
	return metric.Result{
		keys[0]: stat.Mean(m.precisions, nil),
		keys[1]: stat.Mean(m.recalls, nil),
		keys[2]: m.HashValue(),
	}, nil
}

// HashValue returns the hash of the configuration and of every reference forwarded so far.
// Equal hash values mean results were computed with the same settings on the same references.
func (m *Metric) HashValue() string {
	return fingerprint.Combine(m.configHash, m.references.Hex())
}

// Release stops the worker pool. It is called by Close and is safe to call more than once.
func (m *Metric) Release() {
	if m.pool != nil {
		m.pool.Release()
		m.pool = nil
	}
}

// prepare validates a batch and trims every sentence.
func (m *Metric) prepare(batch Batch) ([]instance, error) {
	if len(batch.References) != len(batch.Generated) {
		return nil, fmt.Errorf("%w: %d references, %d generated",
			ErrBatchSizeMismatch, len(batch.References), len(batch.Generated))
	}
	insts := make([]instance, len(batch.References))
	for i := range batch.References {
		if n := len(batch.Generated[i]); n != m.generatedNumPerContext {
			return nil, fmt.Errorf("%w: context %d has %d generated sentences, want %d",
				ErrGeneratedNumMismatch, i, n, m.generatedNumPerContext)
		}
		if len(batch.References[i]) == 0 {
			return nil, fmt.Errorf("%w: context %d", ErrNoReference, i)
		}
		refs := make([][]int, len(batch.References[i]))
		for j, ref := range batch.References[i] {
			if err := checkIDs(ref); err != nil {
				return nil, fmt.Errorf("%w: context %d reference %d: %v", ErrInvalidType, i, j, err)
			}
			if len(ref) > 0 {
				ref = ref[1:]
			}
			refs[j] = m.dl.TrimInIDs(ref)
		}
		gens := make([][]int, len(batch.Generated[i]))
		for j, gen := range batch.Generated[i] {
			if err := checkIDs(gen); err != nil {
				return nil, fmt.Errorf("%w: context %d generated %d: %v", ErrInvalidType, i, j, err)
			}
			gens[j] = m.dl.TrimInIDs(gen)
		}
		insts[i] = instance{references: refs, generated: gens}
	}
	return insts, nil
}

// hashConfig digests the metric identity, the scorer configuration and its extra data.
func (m *Metric) hashConfig() (string, error) {
	h := fingerprint.NewOrdered()
	if err := h.Add(m.Name(), Version); err != nil {
		return "", err
	}
	params := append(m.scorer.HashParams(), m.generatedNumPerContext)
	if err := h.Add(params...); err != nil {
		return "", err
	}
	if err := h.Add(m.scorer.HashExtra()...); err != nil {
		return "", err
	}
	return h.Hex(), nil
}

func checkIDs(ids []int) error {
	for _, id := range ids {
		if id < 0 {
			return fmt.Errorf("token id %d is negative", id)
		}
	}
	return nil
}
