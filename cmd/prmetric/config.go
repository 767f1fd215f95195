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
	"errors"
	"fmt"
	"strings"
)

const (
	metricBleu       = "bleu"
	metricAvgBow     = "avg-bow"
	metricExtremaBow = "extrema-bow"
	metricRougeL     = "rouge-l"
	metricRougeN     = "rouge-n"
)

type config struct {
	vocabPath     string
	dataPath      string
	metrics       string
	embeddingPath string
	ngram         int
	generatedNum  int
	parallelism   int
	referenceKey  string
	generatedKey  string
	logLevel      string
	trace         bool
	otlpEndpoint  string
	otlpProtocol  string
}

// metricNames returns the requested metrics in order, without duplicates.
func (c config) metricNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, name := range strings.Split(c.metrics, ",") {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func (c config) needsEmbedding() bool {
	for _, name := range c.metricNames() {
		if name == metricAvgBow || name == metricExtremaBow {
			return true
		}
	}
	return false
}

func (c config) validate() error {
	if c.vocabPath == "" {
		return errors.New("-vocab is required")
	}
	if c.dataPath == "" {
		return errors.New("-data is required")
	}
	names := c.metricNames()
	if len(names) == 0 {
		return errors.New("-metrics is empty")
	}
	for _, name := range names {
		switch name {
		case metricBleu, metricAvgBow, metricExtremaBow, metricRougeL, metricRougeN:
		default:
			return fmt.Errorf("unknown metric %q", name)
		}
	}
	if c.needsEmbedding() && c.embeddingPath == "" {
		return errors.New("-embedding is required by the bow metrics")
	}
	return nil
}
