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
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// instanceScore is the reduction of one instance.
type instanceScore struct {
	precision float64
	recall    float64
	err       error
}

type instanceScoreParam struct {
	idx     int
	ctx     context.Context
	scorer  Scorer
	inst    instance
	results []instanceScore
	wg      *sync.WaitGroup
}

func (p *instanceScoreParam) reset() {
	p.idx = 0
	p.ctx = nil
	p.scorer = nil
	p.inst = instance{}
	p.results = nil
	p.wg = nil
}

var instanceScoreParamPool = &sync.Pool{
	New: func() any { return new(instanceScoreParam) },
}

func createInstanceScorePool(size int) (*ants.PoolWithFunc, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*instanceScoreParam)
		if !ok {
			panic("instance score pool args type error")
		}
		wg := param.wg
		defer func() {
			wg.Done()
			param.reset()
			instanceScoreParamPool.Put(param)
		}()
		param.results[param.idx] = scoreInstance(param.ctx, param.scorer, param.inst)
	})
	if err != nil {
		return nil, fmt.Errorf("create instance score pool: %w", err)
	}
	return pool, nil
}

// scoreInstances scores every instance and returns the results in instance order.
// With a nil pool instances are scored inline.
func scoreInstances(ctx context.Context, pool *ants.PoolWithFunc, scorer Scorer, insts []instance) ([]instanceScore, error) {
	results := make([]instanceScore, len(insts))
	if pool == nil {
		for i, inst := range insts {
			results[i] = scoreInstance(ctx, scorer, inst)
			if results[i].err != nil {
				return nil, fmt.Errorf("instance %d: %w", i, results[i].err)
			}
		}
		return results, nil
	}

	var wg sync.WaitGroup
	for i, inst := range insts {
		param := instanceScoreParamPool.Get().(*instanceScoreParam)
		param.idx = i
		param.ctx = ctx
		param.scorer = scorer
		param.inst = inst
		param.results = results
		param.wg = &wg
		wg.Add(1)
		if err := pool.Invoke(param); err != nil {
			wg.Done()
			param.reset()
			instanceScoreParamPool.Put(param)
			wg.Wait()
			return nil, fmt.Errorf("submit instance %d: %w", i, err)
		}
	}
	wg.Wait()
	for i, r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("instance %d: %w", i, r.err)
		}
	}
	return results, nil
}

// scoreInstance reduces the score matrix of inst. A panicking scorer fails the instance.
func scoreInstance(ctx context.Context, scorer Scorer, inst instance) (s instanceScore) {
	defer func() {
		if r := recover(); r != nil {
			s = instanceScore{err: fmt.Errorf("%w: %v", ErrScorerPanic, r)}
		}
	}()
	m, err := buildMatrix(ctx, scorer, inst.references, inst.generated)
	if err != nil {
		return instanceScore{err: err}
	}
	precision, recall := reduce(m)
	return instanceScore{precision: precision, recall: recall}
}
