//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"trpc.group/trpc-go/trpc-nlgeval-go/dataloader/vocab"
	"trpc.group/trpc-go/trpc-nlgeval-go/dataloader/wordvec"
	"trpc.group/trpc-go/trpc-nlgeval-go/log"
	"trpc.group/trpc-go/trpc-nlgeval-go/metric"
	"trpc.group/trpc-go/trpc-nlgeval-go/metric/chain"
	"trpc.group/trpc-go/trpc-nlgeval-go/metric/precisionrecall"
	tmetric "trpc.group/trpc-go/trpc-nlgeval-go/telemetry/metric"
	ttrace "trpc.group/trpc-go/trpc-nlgeval-go/telemetry/trace"
)

const (
	shutdownTimeout = 5 * time.Second
	keyRunID        = "run.id"
)

// runtime holds what one run shares between metrics.
type runtime struct {
	runID  string
	mp     *sdkmetric.MeterProvider
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

func newRuntime(ctx context.Context, cfg config) (*runtime, error) {
	rt := &runtime{runID: uuid.NewString()}
	log.Default = log.NewLogger(os.Stderr, "run_id", rt.runID)
	if !log.SetLevel(cfg.logLevel) {
		log.Warnf("unknown log level %q, using %s", cfg.logLevel, log.LevelInfo)
	}
	log.SetTraceEnabled(cfg.trace)

	if cfg.otlpEndpoint != "" {
		runAttr := attribute.String(keyRunID, rt.runID)
		mp, err := tmetric.NewMeterProvider(ctx,
			tmetric.WithEndpoint(cfg.otlpEndpoint),
			tmetric.WithProtocol(cfg.otlpProtocol),
			tmetric.WithResourceAttributes(runAttr))
		if err != nil {
			return nil, err
		}
		rt.mp = mp
		tp, err := ttrace.NewTracerProvider(ctx,
			ttrace.WithEndpoint(cfg.otlpEndpoint),
			ttrace.WithProtocol(cfg.otlpProtocol),
			ttrace.WithResourceAttributes(runAttr))
		if err != nil {
			rt.shutdown()
			return nil, err
		}
		rt.tp = tp
	}
	if rt.tp != nil {
		rt.tracer = rt.tp.Tracer("trpc.nlgeval.go/cmd/prmetric")
	} else {
		rt.tracer = otel.GetTracerProvider().Tracer("trpc.nlgeval.go/cmd/prmetric")
	}
	return rt, nil
}

// shutdown flushes telemetry. Export failures are logged, not returned.
func (rt *runtime) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if rt.mp != nil {
		if err := rt.mp.Shutdown(ctx); err != nil {
			log.Warnf("shutdown meter provider: %v", err)
		}
	}
	if rt.tp != nil {
		if err := rt.tp.Shutdown(ctx); err != nil {
			log.Warnf("shutdown tracer provider: %v", err)
		}
	}
}

func (rt *runtime) metricOptions(cfg config) []precisionrecall.Option {
	opts := []precisionrecall.Option{precisionrecall.WithParallelism(cfg.parallelism)}
	if cfg.referenceKey != "" {
		opts = append(opts, precisionrecall.WithReferenceKey(cfg.referenceKey))
	}
	if cfg.generatedKey != "" {
		opts = append(opts, precisionrecall.WithGeneratedKey(cfg.generatedKey))
	}
	if rt.mp != nil {
		opts = append(opts, precisionrecall.WithMeterProvider(rt.mp))
	}
	if rt.tp != nil {
		opts = append(opts, precisionrecall.WithTracerProvider(rt.tp))
	}
	return opts
}

// buildMetrics creates the requested metrics over a shared vocabulary.
func (rt *runtime) buildMetrics(cfg config) (*chain.Chain, error) {
	v, err := loadVocab(cfg.vocabPath)
	if err != nil {
		return nil, err
	}
	var table map[string][]float64
	if cfg.needsEmbedding() {
		if table, err = loadEmbedding(cfg.embeddingPath, v); err != nil {
			return nil, err
		}
		log.Infof("loaded %d word embeddings", len(table))
	}

	opts := rt.metricOptions(cfg)
	chained := chain.New()
	for _, name := range cfg.metricNames() {
		var m *precisionrecall.Metric
		switch name {
		case metricBleu:
			m, err = precisionrecall.NewBleu(v, cfg.ngram, cfg.generatedNum, opts...)
		case metricAvgBow:
			m, err = precisionrecall.NewEmbSimilarity(v, table, precisionrecall.PoolingAvg, cfg.generatedNum, opts...)
		case metricExtremaBow:
			m, err = precisionrecall.NewEmbSimilarity(v, table, precisionrecall.PoolingExtrema, cfg.generatedNum, opts...)
		case metricRougeL:
			m, err = precisionrecall.NewRouge(v, precisionrecall.RougeL, cfg.generatedNum, opts...)
		case metricRougeN:
			m, err = precisionrecall.NewRouge(v, cfg.ngram, cfg.generatedNum, opts...)
		}
		if err != nil {
			return nil, fmt.Errorf("create metric %s: %w", name, err)
		}
		chained.Add(m)
	}
	return chained, nil
}

// forwardAll feeds every batch of the data file to m and returns the number of batches.
func (rt *runtime) forwardAll(ctx context.Context, cfg config, m metric.Metric) (n int, err error) {
	ctx, span := rt.tracer.Start(ctx, "prmetric.run", trace.WithAttributes(attribute.String(keyRunID, rt.runID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.SetAttributes(attribute.Int("batch.count", n))
		span.End()
	}()

	r, closeData, err := openData(cfg.dataPath)
	if err != nil {
		return 0, err
	}
	defer closeData()

	dec := json.NewDecoder(r)
	dec.UseNumber()
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		var data metric.Data
		if err := dec.Decode(&data); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("decode batch %d: %w", n, err)
		}
		if err := m.Forward(ctx, data); err != nil {
			return n, fmt.Errorf("forward batch %d: %w", n, err)
		}
		n++
	}
}

func loadVocab(path string) (*vocab.Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary: %w", err)
	}
	defer f.Close()
	v, err := vocab.Load(f)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary %s: %w", path, err)
	}
	return v, nil
}

// loadEmbedding reads the embeddings of the words in v.
func loadEmbedding(path string, v *vocab.Vocab) (map[string][]float64, error) {
	ids := make([]int, v.Size())
	for i := range ids {
		ids[i] = i
	}
	words, err := v.ConvertIDsToTokens(ids)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open embedding: %w", err)
	}
	defer f.Close()
	table, err := wordvec.Load(f, words...)
	if err != nil {
		return nil, fmt.Errorf("load embedding %s: %w", path, err)
	}
	return table, nil
}

func openData(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open data: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

type report struct {
	RunID   string        `json:"run_id"`
	Batches int           `json:"batches"`
	Results metric.Result `json:"results"`
}

func writeReport(w io.Writer, runID string, batches int, res metric.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report{RunID: runID, Batches: batches, Results: res}); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
