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
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"trpc.group/trpc-go/trpc-nlgeval-go/dataloader/vocab"
	"trpc.group/trpc-go/trpc-nlgeval-go/metric"
	"trpc.group/trpc-go/trpc-nlgeval-go/telemetry/semconv/metrics"
)

// newTestVocab returns a vocabulary with the four special tokens followed by w4 to w2999,
// so the id of "wN" is N.
func newTestVocab(t *testing.T) *vocab.Vocab {
	t.Helper()
	tokens := make([]string, 0, 2996)
	for i := 4; i < 3000; i++ {
		tokens = append(tokens, fmt.Sprintf("w%d", i))
	}
	v, err := vocab.New(tokens)
	require.NoError(t, err)
	return v
}

func scenarioABatch() Batch {
	return Batch{
		References: [][][]int{{{10, 64, 851}, {10, 48, 851}}},
		Generated:  [][][]int{{{10, 64, 479, 3}, {10, 48, 2019, 3}}},
	}
}

func TestMetric_BleuScenario(t *testing.T) {
	m, err := NewBleu(newTestVocab(t), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, "bleu_precision_recall", m.Name())
	assert.Equal(t, Version, m.Version())

	require.NoError(t, m.ForwardBatch(context.Background(), scenarioABatch()))
	res, err := m.Close(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.1290994, res["BLEU-2 precision"], 1e-6)
	assert.InDelta(t, 0.1290994, res["BLEU-2 recall"], 1e-6)
	assert.Len(t, res["BLEU-2 hashvalue"], 64)
	assert.Len(t, res, 3)
}

func TestMetric_ForwardDecodedJSON(t *testing.T) {
	raw := `{"candidate_allvocabs": [[[10, 64, 851], [10, 48, 851]]],
		"multiple_gen": [[[10, 64, 479, 3], [10, 48, 2019, 3]]]}`
	var data metric.Data
	require.NoError(t, json.Unmarshal([]byte(raw), &data))

	m, err := NewBleu(newTestVocab(t), 2, 2)
	require.NoError(t, err)
	require.NoError(t, m.Forward(context.Background(), data))

	typed, err := NewBleu(newTestVocab(t), 2, 2)
	require.NoError(t, err)
	require.NoError(t, typed.ForwardBatch(context.Background(), scenarioABatch()))
	assert.Equal(t, typed.HashValue(), m.HashValue())

	res, err := m.Close(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.1290994, res["BLEU-2 precision"], 1e-6)
}

func TestMetric_CustomKeys(t *testing.T) {
	m, err := NewBleu(newTestVocab(t), 2, 2, WithReferenceKey("refs"), WithGeneratedKey("gens"))
	require.NoError(t, err)
	b := scenarioABatch()
	err = m.Forward(context.Background(), metric.Data{
		DefaultReferenceKey: b.References,
		DefaultGeneratedKey: b.Generated,
	})
	assert.ErrorIs(t, err, ErrInvalidType)
	require.NoError(t, m.Forward(context.Background(), metric.Data{"refs": b.References, "gens": b.Generated}))
	assert.Equal(t, 1, m.Len())
}

func TestMetric_EmbeddingUnknownWords(t *testing.T) {
	dl := newTestVocab(t)
	m, err := NewEmbSimilarity(dl, map[string][]float64{"w10": {1, 0}}, PoolingAvg, 1)
	require.NoError(t, err)
	assert.Equal(t, "emb_similarity_precision_recall", m.Name())

	require.NoError(t, m.ForwardBatch(context.Background(), Batch{
		References: [][][]int{{{2, 30, 31}}},
		Generated:  [][][]int{{{20, 21, 3}}},
	}))
	res, err := m.Close(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, res["avg-bow precision"])
	assert.Equal(t, 0.0, res["avg-bow recall"])
	assert.Contains(t, res, "avg-bow hashvalue")
}

func TestMetric_Rouge(t *testing.T) {
	m, err := NewRouge(newTestVocab(t), RougeL, 2)
	require.NoError(t, err)
	assert.Equal(t, "rouge_precision_recall", m.Name())
	require.NoError(t, m.ForwardBatch(context.Background(), scenarioABatch()))
	res, err := m.Close(context.Background())
	require.NoError(t, err)
	// Each generated sentence shares one token with one reference: P=1/3, R=1/2, F=0.4.
	assert.InDelta(t, 0.4, res["ROUGE-L precision"], 1e-12)
	assert.InDelta(t, 0.4, res["ROUGE-L recall"], 1e-12)
}

func TestMetric_RunningMean(t *testing.T) {
	m, err := NewBleu(newTestVocab(t), 2, 1)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, m.ForwardBatch(ctx, Batch{
		References: [][][]int{{{2, 10, 11}}},
		Generated:  [][][]int{{{10, 11, 3}}},
	}))
	require.NoError(t, m.ForwardBatch(ctx, Batch{
		References: [][][]int{{{2, 10, 11}}},
		Generated:  [][][]int{{{20, 21}}},
	}))
	assert.Equal(t, 2, m.Len())

	res, err := m.Close(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res["BLEU-2 precision"], 1e-9)
	assert.InDelta(t, 0.5, res["BLEU-2 recall"], 1e-9)
}

func TestMetric_RejectedBatchLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	m, err := NewBleu(newTestVocab(t), 2, 2)
	require.NoError(t, err)
	require.NoError(t, m.ForwardBatch(ctx, scenarioABatch()))
	hash := m.HashValue()

	tests := []struct {
		name    string
		batch   Batch
		wantErr error
	}{
		{
			name: "batch size mismatch",
			batch: Batch{
				References: [][][]int{{{2, 5}}, {{2, 6}}},
				Generated:  [][][]int{{{5}, {6}}},
			},
			wantErr: ErrBatchSizeMismatch,
		},
		{
			name: "generated num mismatch",
			batch: Batch{
				References: [][][]int{{{2, 5}}, {{2, 6}}},
				Generated:  [][][]int{{{5}, {6}}, {{6}}},
			},
			wantErr: ErrGeneratedNumMismatch,
		},
		{
			name: "no reference",
			batch: Batch{
				References: [][][]int{{{2, 5}}, {}},
				Generated:  [][][]int{{{5}, {6}}, {{5}, {6}}},
			},
			wantErr: ErrNoReference,
		},
		{
			name: "negative id",
			batch: Batch{
				References: [][][]int{{{2, 5}}},
				Generated:  [][][]int{{{5}, {-6}}},
			},
			wantErr: ErrInvalidType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ForwardBatch(ctx, tt.batch)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 1, m.Len())
			assert.Equal(t, hash, m.HashValue())
		})
	}

	res, err := m.Close(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.1290994, res["BLEU-2 precision"], 1e-6)
	assert.Equal(t, hash, res["BLEU-2 hashvalue"])
}

func TestMetric_ForwardTypeErrors(t *testing.T) {
	m, err := NewBleu(newTestVocab(t), 2, 1)
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name string
		data metric.Data
	}{
		{name: "missing references", data: metric.Data{DefaultGeneratedKey: [][][]int{{{5}}}}},
		{name: "missing generated", data: metric.Data{DefaultReferenceKey: [][][]int{{{2, 5}}}}},
		{name: "scalar", data: metric.Data{DefaultReferenceKey: "abc", DefaultGeneratedKey: [][][]int{{{5}}}}},
		{name: "fractional id", data: metric.Data{
			DefaultReferenceKey: []any{[]any{[]any{2.0, 5.5}}},
			DefaultGeneratedKey: [][][]int{{{5}}},
		}},
		{name: "too shallow", data: metric.Data{
			DefaultReferenceKey: []any{[]any{2.0, 5.0}},
			DefaultGeneratedKey: [][][]int{{{5}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, m.Forward(ctx, tt.data), ErrInvalidType)
			assert.Equal(t, 0, m.Len())
		})
	}
}

func TestMetric_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m, err := NewBleu(newTestVocab(t), 2, 2)
	require.NoError(t, err)

	_, err = m.Close(ctx)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.False(t, m.Closed())

	require.NoError(t, m.ForwardBatch(ctx, scenarioABatch()))
	_, err = m.Close(ctx)
	require.NoError(t, err)
	assert.True(t, m.Closed())

	_, err = m.Close(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.ForwardBatch(ctx, scenarioABatch()), ErrClosed)
	b := scenarioABatch()
	assert.ErrorIs(t, m.Forward(ctx, metric.Data{
		DefaultReferenceKey: b.References,
		DefaultGeneratedKey: b.Generated,
	}), ErrClosed)
	m.Release()
}

func TestMetric_UnknownIDsNeverMatch(t *testing.T) {
	dl := newTestVocab(t)
	withUnk, err := NewBleu(dl, 2, 1)
	require.NoError(t, err)
	withOther, err := NewBleu(dl, 2, 1)
	require.NoError(t, err)
	ctx := context.Background()

	unk := dl.UnkID()
	require.NoError(t, withUnk.ForwardBatch(ctx, Batch{
		References: [][][]int{{{2, unk, 5}}},
		Generated:  [][][]int{{{unk, 5}}},
	}))
	require.NoError(t, withOther.ForwardBatch(ctx, Batch{
		References: [][][]int{{{2, unk, 5}}},
		Generated:  [][][]int{{{7, 5}}},
	}))
	a, err := withUnk.Close(ctx)
	require.NoError(t, err)
	b, err := withOther.Close(ctx)
	require.NoError(t, err)
	assert.InDelta(t, b["BLEU-2 precision"], a["BLEU-2 precision"], 1e-12)
	assert.Less(t, a["BLEU-2 precision"], 1.0)
}

func TestMetric_NewErrors(t *testing.T) {
	dl := newTestVocab(t)
	scorer, err := NewBleuScorer(dl, 2)
	require.NoError(t, err)

	_, err = New(nil, scorer, 1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(dl, nil, 1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(dl, scorer, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(dl, scorer, 1, WithParallelism(0))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(dl, scorer, 1, WithReferenceKey(""))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewBleu(dl, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewEmbSimilarity(dl, nil, PoolingMode("max"), 1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMetric_HashIgnoresBatchOrder(t *testing.T) {
	ctx := context.Background()
	dl := newTestVocab(t)
	first := Batch{
		References: [][][]int{{{2, 10, 11}, {2, 12}}},
		Generated:  [][][]int{{{10, 11}}},
	}
	second := Batch{
		References: [][][]int{{{2, 20, 21, 3, 0}}, {{2, 30}}},
		Generated:  [][][]int{{{20}}, {{30, 31, 3}}},
	}

	a, err := NewBleu(dl, 2, 1)
	require.NoError(t, err)
	require.NoError(t, a.ForwardBatch(ctx, first))
	require.NoError(t, a.ForwardBatch(ctx, second))

	b, err := NewBleu(dl, 2, 1)
	require.NoError(t, err)
	require.NoError(t, b.ForwardBatch(ctx, second))
	require.NoError(t, b.ForwardBatch(ctx, first))

	assert.Equal(t, a.HashValue(), b.HashValue())

	resA, err := a.Close(ctx)
	require.NoError(t, err)
	resB, err := b.Close(ctx)
	require.NoError(t, err)
	assert.InDelta(t, resA["BLEU-2 precision"], resB["BLEU-2 precision"], 1e-12)
	assert.InDelta(t, resA["BLEU-2 recall"], resB["BLEU-2 recall"], 1e-12)
}

func TestMetric_HashTracksReferences(t *testing.T) {
	ctx := context.Background()
	dl := newTestVocab(t)
	a, err := NewBleu(dl, 2, 1)
	require.NoError(t, err)
	b, err := NewBleu(dl, 2, 1)
	require.NoError(t, err)
	empty := a.HashValue()
	assert.Equal(t, empty, b.HashValue())

	require.NoError(t, a.ForwardBatch(ctx, Batch{References: [][][]int{{{2, 10}}}, Generated: [][][]int{{{10}}}}))
	require.NoError(t, b.ForwardBatch(ctx, Batch{References: [][][]int{{{2, 11}}}, Generated: [][][]int{{{10}}}}))
	assert.NotEqual(t, empty, a.HashValue())
	assert.NotEqual(t, a.HashValue(), b.HashValue())
}

func TestMetric_HashTracksConfig(t *testing.T) {
	dl := newTestVocab(t)
	mustBleu := func(ngram, num int) string {
		m, err := NewBleu(dl, ngram, num)
		require.NoError(t, err)
		return m.HashValue()
	}
	mustEmb := func(table map[string][]float64, mode PoolingMode) string {
		m, err := NewEmbSimilarity(dl, table, mode, 1)
		require.NoError(t, err)
		return m.HashValue()
	}

	base := mustBleu(2, 1)
	assert.Equal(t, base, mustBleu(2, 1))
	assert.NotEqual(t, base, mustBleu(3, 1))
	assert.NotEqual(t, base, mustBleu(2, 2))

	table := map[string][]float64{"w10": {1, 0}, "w11": {0, 1}}
	emb := mustEmb(table, PoolingAvg)
	assert.NotEqual(t, base, emb)
	assert.Equal(t, emb, mustEmb(map[string][]float64{"w11": {0, 1}, "w10": {1, 0}}, PoolingAvg))
	assert.NotEqual(t, emb, mustEmb(table, PoolingExtrema))
	assert.NotEqual(t, emb, mustEmb(map[string][]float64{"w10": {1, 0}, "w11": {0, 2}}, PoolingAvg))
}

func TestMetric_ParallelMatchesSequential(t *testing.T) {
	ctx := context.Background()
	dl := newTestVocab(t)
	var batch Batch
	for i := 0; i < 17; i++ {
		base := 10 + i
		batch.References = append(batch.References, [][]int{
			{2, base, base + 1, base + 2},
			{2, base + 3, base + 1},
			{2, base},
		})
		batch.Generated = append(batch.Generated, [][]int{
			{base, base + 1, 3, base},
			{base + 2, base + 7},
			{base + 1, base + 2, base + 3, 0, 0},
		})
	}

	seq, err := NewBleu(dl, 3, 3)
	require.NoError(t, err)
	par, err := NewBleu(dl, 3, 3, WithParallelism(4))
	require.NoError(t, err)
	defer par.Release()

	require.NoError(t, seq.ForwardBatch(ctx, batch))
	require.NoError(t, par.ForwardBatch(ctx, batch))
	assert.Equal(t, seq.precisions, par.precisions)
	assert.Equal(t, seq.recalls, par.recalls)
	assert.Equal(t, seq.HashValue(), par.HashValue())

	resSeq, err := seq.Close(ctx)
	require.NoError(t, err)
	resPar, err := par.Close(ctx)
	require.NoError(t, err)
	assert.Equal(t, resSeq, resPar)
}

func TestMetric_ScorerErrorPropagates(t *testing.T) {
	dl := newTestVocab(t)
	m, err := NewEmbSimilarity(dl, map[string][]float64{"w10": {1, 0}}, PoolingAvg, 1)
	require.NoError(t, err)
	err = m.ForwardBatch(context.Background(), Batch{
		References: [][][]int{{{2, 10}}},
		Generated:  [][][]int{{{dl.Size() + 5}}},
	})
	require.Error(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestMetric_RecordsTelemetry(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(ctx) }()

	m, err := NewBleu(newTestVocab(t), 2, 2, WithMeterProvider(mp), WithDurationBuckets(0.001, 0.01, 0.1, 1))
	require.NoError(t, err)
	require.NoError(t, m.ForwardBatch(ctx, scenarioABatch()))
	require.NoError(t, m.ForwardBatch(ctx, scenarioABatch()))
	require.Error(t, m.ForwardBatch(ctx, Batch{References: [][][]int{{{2, 5}}}}))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(2), sumOf(t, rm, metrics.MetricInstanceCnt))
	assert.Equal(t, int64(3), sumOf(t, rm, metrics.MetricBatchCnt))
	hist := findHistogram(t, rm, metrics.MetricForwardDuration)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(3), hist.DataPoints[0].Count)
	assert.Equal(t, []float64{0.001, 0.01, 0.1, 1}, hist.DataPoints[0].Bounds)
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != name {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func findHistogram(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Histogram[float64] {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != name {
				continue
			}
			hist, ok := md.Data.(metricdata.Histogram[float64])
			require.True(t, ok, "metric %s is not a float64 histogram", name)
			return hist
		}
	}
	t.Fatalf("metric %s not found", name)
	return metricdata.Histogram[float64]{}
}

func TestMetric_ScorerPanicFailsForward(t *testing.T) {
	panicking := funcScorer(func(gen, ref []int) (float64, error) {
		panic("index out of range")
	})
	for _, parallelism := range []int{1, 2} {
		m, err := New(newTestVocab(t), panicking, 1, WithParallelism(parallelism))
		require.NoError(t, err)
		err = m.ForwardBatch(context.Background(), Batch{
			References: [][][]int{{{2, 10}}, {{2, 11}}},
			Generated:  [][][]int{{{10}}, {{11}}},
		})
		assert.ErrorIs(t, err, ErrScorerPanic, "parallelism %d", parallelism)
		assert.Equal(t, 0, m.Len())
		_, err = m.Close(context.Background())
		assert.ErrorIs(t, err, ErrNotReady)
		m.Release()
	}
}

func TestMetric_StageCommit(t *testing.T) {
	ctx := context.Background()
	staged, err := NewBleu(newTestVocab(t), 2, 2)
	require.NoError(t, err)
	direct, err := NewBleu(newTestVocab(t), 2, 2)
	require.NoError(t, err)

	commit, err := staged.StageBatch(ctx, scenarioABatch())
	require.NoError(t, err)
	assert.Equal(t, 0, staged.Len())
	assert.ErrorIs(t, staged.CheckClose(), ErrNotReady)

	commit()
	require.NoError(t, direct.ForwardBatch(ctx, scenarioABatch()))
	assert.Equal(t, 1, staged.Len())
	assert.NoError(t, staged.CheckClose())
	assert.Equal(t, direct.HashValue(), staged.HashValue())

	// A discarded stage leaves no trace.
	_, err = staged.Stage(ctx, metric.Data{
		DefaultReferenceKey: [][][]int{{{2, 12}}},
		DefaultGeneratedKey: [][][]int{{{12}, {13}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, staged.Len())
	assert.Equal(t, direct.HashValue(), staged.HashValue())

	assert.Equal(t, []string{"BLEU-2 precision", "BLEU-2 recall", "BLEU-2 hashvalue"}, staged.ResultKeys())
	res, err := staged.Close(ctx)
	require.NoError(t, err)
	assert.Len(t, res, 3)
	assert.ErrorIs(t, staged.CheckClose(), ErrClosed)
}

func TestMetric_ErrorsCarryNoName(t *testing.T) {
	dl := newTestVocab(t)
	m, err := NewEmbSimilarity(dl, map[string][]float64{"w10": {1, 0}}, PoolingAvg, 1)
	require.NoError(t, err)
	err = m.ForwardBatch(context.Background(), Batch{
		References: [][][]int{{{2, 10}}},
		Generated:  [][][]int{{{dl.Size() + 5}}},
	})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), m.Name())
}
