//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

// Command prmetric computes precision and recall metrics over batches stored as JSON lines.
//
// Each line of the data file is one batch object holding the reference key and the
// generated key, for example:
//
//	{"candidate_allvocabs": [[[2, 10, 11, 3]]], "multiple_gen": [[[10, 11, 3]]]}
//
// Usage:
//
//	prmetric -vocab vocab.txt -data batches.jsonl -metrics bleu,avg-bow -embedding glove.txt
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"trpc.group/trpc-go/trpc-nlgeval-go/log"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Errorf("prmetric failed: %v", err)
		stop()
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (config, error) {
	var cfg config
	fs.StringVar(&cfg.vocabPath, "vocab", "", "Path to the vocabulary file, one token per line")
	fs.StringVar(&cfg.dataPath, "data", "", "Path to the JSON lines batch file, - for stdin")
	fs.StringVar(&cfg.metrics, "metrics", "bleu", "Comma separated metrics: bleu, avg-bow, extrema-bow, rouge-l, rouge-n")
	fs.StringVar(&cfg.embeddingPath, "embedding", "", "Path to the word embedding file, required by the bow metrics")
	fs.IntVar(&cfg.ngram, "ngram", 4, "Maximum n-gram order of BLEU, and the order of ROUGE-N")
	fs.IntVar(&cfg.generatedNum, "generated-num", 1, "Number of generated sentences per context")
	fs.IntVar(&cfg.parallelism, "parallelism", 1, "Number of instances scored concurrently")
	fs.StringVar(&cfg.referenceKey, "reference-key", "", "Batch field holding references")
	fs.StringVar(&cfg.generatedKey, "generated-key", "", "Batch field holding generated sentences")
	fs.StringVar(&cfg.logLevel, "log-level", log.LevelInfo, "Log level: debug, info, warn, error")
	fs.BoolVar(&cfg.trace, "trace", false, "Log every instance score at debug level")
	fs.StringVar(&cfg.otlpEndpoint, "otlp-endpoint", "", "OTLP collector endpoint; telemetry is exported only when set")
	fs.StringVar(&cfg.otlpProtocol, "otlp-protocol", "grpc", "OTLP protocol: grpc or http")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// run evaluates every batch and writes the merged results to w.
func run(ctx context.Context, cfg config, w io.Writer) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.shutdown()
	log.Infof("run %s started with metrics %q", rt.runID, cfg.metrics)

	chained, err := rt.buildMetrics(cfg)
	if err != nil {
		return err
	}
	n, err := rt.forwardAll(ctx, cfg, chained)
	if err != nil {
		return err
	}
	res, err := chained.Close(ctx)
	if err != nil {
		return fmt.Errorf("close metrics: %w", err)
	}
	log.Infof("run %s finished after %d batches", rt.runID, n)
	return writeReport(w, rt.runID, n, res)
}
