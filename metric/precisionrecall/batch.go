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
	"encoding/json"
	"fmt"
	"math"

	"trpc.group/trpc-go/trpc-nlgeval-go/metric"
)

// Default batch field names.
const (
	DefaultReferenceKey = "candidate_allvocabs"
	DefaultGeneratedKey = "multiple_gen"
)

// Batch holds token ids for a batch of contexts.
type Batch struct {
	// References is indexed by [context][reference][token]. The first token of every
	// reference is the start token and is dropped before scoring.
	References [][][]int
	// Generated is indexed by [context][generated][token]. Sentences may end with the end token.
	Generated [][][]int
}

// decodeBatch extracts a Batch from loosely typed data, such as decoded JSON.
func decodeBatch(data metric.Data, referenceKey, generatedKey string) (Batch, error) {
	refs, err := field(data, referenceKey)
	if err != nil {
		return Batch{}, err
	}
	gens, err := field(data, generatedKey)
	if err != nil {
		return Batch{}, err
	}
	return Batch{References: refs, Generated: gens}, nil
}

func field(data metric.Data, key string) ([][][]int, error) {
	v, ok := data[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", ErrInvalidType, key)
	}
	out, err := toIDs3(v)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidType, key, err)
	}
	return out, nil
}

func toIDs3(v any) ([][][]int, error) {
	switch x := v.(type) {
	case [][][]int:
		return x, nil
	case [][][]int64:
		out := make([][][]int, len(x))
		for i, e := range x {
			o, err := toIDs2(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]%v", i, err)
			}
			out[i] = o
		}
		return out, nil
	case []any:
		out := make([][][]int, len(x))
		for i, e := range x {
			o, err := toIDs2(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]%v", i, err)
			}
			out[i] = o
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func toIDs2(v any) ([][]int, error) {
	switch x := v.(type) {
	case [][]int:
		return x, nil
	case [][]int64:
		out := make([][]int, len(x))
		for i, e := range x {
			o, err := toIDs1(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]%v", i, err)
			}
			out[i] = o
		}
		return out, nil
	case []any:
		out := make([][]int, len(x))
		for i, e := range x {
			o, err := toIDs1(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]%v", i, err)
			}
			out[i] = o
		}
		return out, nil
	default:
		return nil, fmt.Errorf(": unsupported type %T", v)
	}
}

func toIDs1(v any) ([]int, error) {
	switch x := v.(type) {
	case []int:
		return x, nil
	case []int64:
		out := make([]int, len(x))
		for i, e := range x {
			id, err := toID(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %v", i, err)
			}
			out[i] = id
		}
		return out, nil
	case []any:
		out := make([]int, len(x))
		for i, e := range x {
			id, err := toID(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %v", i, err)
			}
			out[i] = id
		}
		return out, nil
	default:
		return nil, fmt.Errorf(": unsupported type %T", v)
	}
}

func toID(v any) (int, error) {
	var id int64
	switch x := v.(type) {
	case int:
		id = int64(x)
	case int32:
		id = int64(x)
	case int64:
		id = x
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.Abs(x) > math.MaxInt32 {
			return 0, fmt.Errorf("token id %v is not an integer", x)
		}
		id = int64(x)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("token id %q is not an integer", x.String())
		}
		id = n
	default:
		return 0, fmt.Errorf("unsupported token id type %T", v)
	}
	if id < 0 {
		return 0, fmt.Errorf("token id %d is negative", id)
	}
	return int(id), nil
}
