//
// Tencent is pleased to support the open source community by making trpc-nlgeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nlgeval-go is licensed under the Apache License Version 2.0.
//
//

// Package fingerprint provides deterministic digests for evaluation reproducibility.
//
// Values are serialized as JSON before hashing. encoding/json writes map keys in
// sorted order and floats in their shortest round-trip form, so the digest of a
// value does not depend on the platform or on map iteration order.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"math/big"
	"reflect"
)

// digestHexLen is the length of a hex encoded SHA-256 digest.
const digestHexLen = sha256.Size * 2

// modulus is 2^256, the ring the unordered accumulator lives in.
var modulus = new(big.Int).Lsh(big.NewInt(1), 256)

// Unordered accumulates a multiset digest. Adding the same items in any order
// yields the same digest.
type Unordered struct {
	sum   *big.Int
	count int
}

// NewUnordered returns an empty multiset digest.
func NewUnordered() *Unordered {
	return &Unordered{sum: new(big.Int)}
}

// Add folds every item into the digest.
func (u *Unordered) Add(items ...any) error {
	digests := make([]*big.Int, 0, len(items))
	for _, item := range items {
		b, err := marshal(item)
		if err != nil {
			return fmt.Errorf("marshal unordered item: %w", err)
		}
		d := sha256.Sum256(b)
		digests = append(digests, new(big.Int).SetBytes(d[:]))
	}
	for _, d := range digests {
		u.sum.Add(u.sum, d)
		u.sum.Mod(u.sum, modulus)
	}
	u.count += len(digests)
	return nil
}

// Merge folds every item of other into u. other is left unchanged.
func (u *Unordered) Merge(other *Unordered) {
	u.sum.Add(u.sum, other.sum)
	u.sum.Mod(u.sum, modulus)
	u.count += other.count
}

// Len returns the number of items folded so far.
func (u *Unordered) Len() int {
	return u.count
}

// Hex returns the digest as a 64 character hex string.
func (u *Unordered) Hex() string {
	return fmt.Sprintf("%0*x", digestHexLen, u.sum)
}

// Ordered accumulates a sequence digest. The order of values matters.
type Ordered struct {
	h hash.Hash
}

// NewOrdered returns an empty sequence digest.
func NewOrdered() *Ordered {
	return &Ordered{h: sha256.New()}
}

// Add appends every value to the digest in order.
func (o *Ordered) Add(values ...any) error {
	encoded := make([][]byte, 0, len(values))
	for _, v := range values {
		b, err := marshal(v)
		if err != nil {
			return fmt.Errorf("marshal ordered value: %w", err)
		}
		encoded = append(encoded, b)
	}
	for _, b := range encoded {
		o.h.Write(b)
		o.h.Write([]byte{'\n'})
	}
	return nil
}

// Hex returns the digest of everything added so far.
func (o *Ordered) Hex() string {
	return hex.EncodeToString(o.h.Sum(nil))
}

// Combine merges a configuration digest and a data digest into one fingerprint.
func Combine(ordered, unordered string) string {
	b, _ := json.Marshal([]string{unordered, ordered})
	d := sha256.Sum256(b)
	return hex.EncodeToString(d[:])
}

// marshal encodes v as JSON. A nil slice or map encodes like an empty one.
func marshal(v any) ([]byte, error) {
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			v = reflect.MakeSlice(rv.Type(), 0, 0).Interface()
		}
	case reflect.Map:
		if rv.IsNil() {
			v = reflect.MakeMap(rv.Type()).Interface()
		}
	}
	return json.Marshal(v)
}
