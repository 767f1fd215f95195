//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

// Package chain runs several metrics over the same batches and merges their results.
package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"trpc.group/trpc-go/trpc-nlgeval-go/metric"
)

// Name is the name of a chain.
const Name = "metric_chain"

var (
	// ErrDuplicateKey is returned by Close when two metrics report the same result key.
	ErrDuplicateKey = errors.New("chain: duplicate result key")
	// ErrEmpty is returned by Close when the chain holds no metric.
	ErrEmpty = errors.New("chain: no metric")
	// ErrClosed is returned once Close has succeeded.
	ErrClosed = errors.New("chain: closed")
)

var _ metric.Stager = (*Chain)(nil)

// Chain is a metric.Metric made of other metrics. It is not safe for concurrent use.
type Chain struct {
	metrics []metric.Metric
	closed  bool
}

// New creates a chain. Nil metrics are skipped.
func New(metrics ...metric.Metric) *Chain {
	c := &Chain{}
	c.Add(metrics...)
	return c
}

// Add appends metrics to the chain.
func (c *Chain) Add(metrics ...metric.Metric) {
	for _, m := range metrics {
		if m != nil {
			c.metrics = append(c.metrics, m)
		}
	}
}

// Len returns the number of chained metrics.
func (c *Chain) Len() int {
	return len(c.metrics)
}

// Name implements metric.Metric.
func (c *Chain) Name() string {
	return Name
}

// Version implements metric.Metric.
func (c *Chain) Version() int {
	return 1
}

// Forward passes data to every metric. Metrics implementing metric.Stager keep the batch
// only if every one of them accepts it.
func (c *Chain) Forward(ctx context.Context, data metric.Data) error {
	commit, err := c.Stage(ctx, data)
	if err != nil {
		return err
	}
	commit()
	return nil
}

// Stage stages data on every metric implementing metric.Stager. Once all of them accepted
// it, the other metrics are forwarded data directly; those cannot be rolled back when one
// of them fails. All failures are returned together.
func (c *Chain) Stage(ctx context.Context, data metric.Data) (func(), error) {
	if c.closed {
		return nil, ErrClosed
	}
	var (
		errs    *multierror.Error
		commits = make([]func(), 0, len(c.metrics))
		plain   []metric.Metric
	)
	for _, m := range c.metrics {
		s, ok := m.(metric.Stager)
		if !ok {
			plain = append(plain, m)
			continue
		}
		commit, err := s.Stage(ctx, data)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", m.Name(), err))
			continue
		}
		commits = append(commits, commit)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	for _, m := range plain {
		if err := m.Forward(ctx, data); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", m.Name(), err))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return func() {
		for _, commit := range commits {
			commit()
		}
	}, nil
}

// Close closes every metric and merges their results.
// Metrics implementing metric.Checker are checked first, together with their result keys,
// and nothing is closed when a check fails. A failure past that point leaves the metrics
// that did close closed.
func (c *Chain) Close(ctx context.Context) (metric.Result, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if len(c.metrics) == 0 {
		return nil, ErrEmpty
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	var errs *multierror.Error
	merged := make(metric.Result)
	owner := make(map[string]string)
	for _, m := range c.metrics {
		res, err := m.Close(ctx)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", m.Name(), err))
			continue
		}
		for k, v := range res {
			if prev, ok := owner[k]; ok {
				errs = multierror.Append(errs, fmt.Errorf("%w %q reported by %s and %s",
					ErrDuplicateKey, k, prev, m.Name()))
				continue
			}
			owner[k] = m.Name()
			merged[k] = v
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	c.closed = true
	return merged, nil
}

// check runs CheckClose on every metric.Checker and looks for keys reported twice.
func (c *Chain) check() error {
	var errs *multierror.Error
	owner := make(map[string]string)
	for _, m := range c.metrics {
		ck, ok := m.(metric.Checker)
		if !ok {
			continue
		}
		if err := ck.CheckClose(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", m.Name(), err))
		}
		for _, k := range ck.ResultKeys() {
			if prev, ok := owner[k]; ok {
				errs = multierror.Append(errs, fmt.Errorf("%w %q reported by %s and %s",
					ErrDuplicateKey, k, prev, m.Name()))
				continue
			}
			owner[k] = m.Name()
		}
	}
	return errs.ErrorOrNil()
}
