// Copyright 2025 bitsqueeze Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sparse implements the per-row top-K sparsity codec. Each token
// row keeps its K most important entries as (feature index, value) pairs;
// importance is either |value| (TopK) or an externally supplied score
// (TopKIM). Rows are independent, so compression runs row-parallel.
package sparse

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bitsqueeze/bitsqueeze/internal/blockpool"
)

// Array holds a compressed top-K payload: per token, NumSparse parallel
// (index, value) pairs in heap order, not sorted by index.
type Array struct {
	NumTokens   uint16
	NumFeatures uint16
	NumSparse   uint16
	Indices     []uint16
	Values      []float32
}

// NumSparseFeatures returns round(numFeatures * ratio) clamped to
// [1, numFeatures] for positive ratios, and 0 otherwise.
func NumSparseFeatures(numFeatures uint16, ratio float32) uint16 {
	if ratio <= 0 {
		return 0
	}
	k := uint32(math.Round(float64(float32(numFeatures) * ratio)))
	if k > uint32(numFeatures) {
		k = uint32(numFeatures)
	}
	if k == 0 {
		k = 1
	}
	return uint16(k)
}

// NumElements returns the dense element count covered by the array.
func (a *Array) NumElements() uint64 {
	return uint64(a.NumTokens) * uint64(a.NumFeatures)
}

type heapEntry struct {
	key float32
	val float32
	idx uint16
}

// importanceAbs is the TopK importance key: |v| with NaN demoted below
// every finite value.
func importanceAbs(v float32) float32 {
	a := float32(math.Abs(float64(v)))
	if a != a {
		return float32(math.Inf(-1))
	}
	return a
}

// importanceKey is the TopKIM importance key: the raw score with NaN
// demoted below every finite value.
func importanceKey(v float32) float32 {
	if v != v {
		return float32(math.Inf(-1))
	}
	return v
}

func siftDownMin(h []heapEntry, p int) {
	for {
		left := 2*p + 1
		if left >= len(h) {
			break
		}
		c := left
		if right := left + 1; right < len(h) && h[right].key < h[c].key {
			c = right
		}
		if h[c].key < h[p].key {
			h[p], h[c] = h[c], h[p]
			p = c
		} else {
			break
		}
	}
}

func heapifyMin(h []heapEntry) {
	for p := len(h)/2 - 1; p >= 0; p-- {
		siftDownMin(h, p)
	}
}

func newArray(tokens, features uint16, ratio float32) (*Array, error) {
	if tokens == 0 || features == 0 {
		return nil, fmt.Errorf("sparse: empty shape")
	}
	if ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("sparse: ratio %v out of [0, 1]", ratio)
	}
	k := NumSparseFeatures(features, ratio)
	n := uint32(tokens) * uint32(k)
	return &Array{
		NumTokens:   tokens,
		NumFeatures: features,
		NumSparse:   k,
		Indices:     make([]uint16, n),
		Values:      make([]float32, n),
	}, nil
}

// compressRows selects, for every token row, the K entries maximizing
// key(row index). A size-K min-heap over the key is seeded with the first
// K entries; each remaining entry replaces the root only when its key is
// strictly greater, so ties keep the earlier entry.
func compressRows(a *Array, src []float32, key func(t int, i uint16) float32) error {
	if a.NumSparse == 0 {
		return nil
	}
	k := int(a.NumSparse)
	f := int(a.NumFeatures)
	return blockpool.Run(int(a.NumTokens), func(t int) error {
		denseBase := t * f
		sparseBase := t * k
		heap := make([]heapEntry, k)
		for i := 0; i < k; i++ {
			heap[i] = heapEntry{
				key: key(t, uint16(i)),
				val: src[denseBase+i],
				idx: uint16(i),
			}
		}
		heapifyMin(heap)
		for i := k; i < f; i++ {
			kv := key(t, uint16(i))
			if kv > heap[0].key {
				heap[0] = heapEntry{key: kv, val: src[denseBase+i], idx: uint16(i)}
				siftDownMin(heap, 0)
			}
		}
		for j, e := range heap {
			a.Indices[sparseBase+j] = e.idx
			a.Values[sparseBase+j] = e.val
		}
		return nil
	})
}

// Compress keeps the K largest-|value| entries of every token row.
func Compress(src []float32, tokens, features uint16, ratio float32) (*Array, error) {
	a, err := newArray(tokens, features, ratio)
	if err != nil {
		return nil, err
	}
	if uint64(len(src)) < a.NumElements() {
		return nil, fmt.Errorf("sparse: input shorter than tokens*features")
	}
	f := int(features)
	err = compressRows(a, src, func(t int, i uint16) float32 {
		return importanceAbs(src[t*f+int(i)])
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CompressImportance keeps the K entries of every token row with the
// largest externally supplied importance score.
func CompressImportance(src, importance []float32, tokens, features uint16, ratio float32) (*Array, error) {
	a, err := newArray(tokens, features, ratio)
	if err != nil {
		return nil, err
	}
	if uint64(len(src)) < a.NumElements() || uint64(len(importance)) < a.NumElements() {
		return nil, fmt.Errorf("sparse: input shorter than tokens*features")
	}
	f := int(features)
	err = compressRows(a, src, func(t int, i uint16) float32 {
		return importanceKey(importance[t*f+int(i)])
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Decompress zero-fills dst and scatters the retained values back to
// their dense positions.
func (a *Array) Decompress(dst []float32) error {
	n := a.NumElements()
	if uint64(len(dst)) < n {
		return fmt.Errorf("sparse: destination too small")
	}
	for i := uint64(0); i < n; i++ {
		dst[i] = 0
	}
	return a.Apply(dst)
}

// Apply scatters the retained values into dst without clearing the
// remaining positions, overlaying the sparse corrections on whatever dst
// already holds.
func (a *Array) Apply(dst []float32) error {
	if uint64(len(dst)) < a.NumElements() {
		return fmt.Errorf("sparse: destination too small")
	}
	f := int(a.NumFeatures)
	k := int(a.NumSparse)
	return blockpool.Run(int(a.NumTokens), func(t int) error {
		denseBase := t * f
		sparseBase := t * k
		for j := 0; j < k; j++ {
			dst[denseBase+int(a.Indices[sparseBase+j])] = a.Values[sparseBase+j]
		}
		return nil
	})
}

// Size returns the serialized payload size in bytes.
func (a *Array) Size() int64 {
	n := int64(a.NumTokens) * int64(a.NumSparse)
	return 8 + n*2 + n*4
}

// MarshalBinary serializes as (num_tokens:u16, num_features:u16,
// num_sparse:u16, pad:u16, indices:u16[T*K], values:f32[T*K]).
func (a *Array) MarshalBinary() ([]byte, error) {
	buf := make([]byte, a.Size())
	binary.LittleEndian.PutUint16(buf[0:2], a.NumTokens)
	binary.LittleEndian.PutUint16(buf[2:4], a.NumFeatures)
	binary.LittleEndian.PutUint16(buf[4:6], a.NumSparse)
	off := 8
	for _, idx := range a.Indices {
		binary.LittleEndian.PutUint16(buf[off:], idx)
		off += 2
	}
	for _, v := range a.Values {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	return buf, nil
}

// UnmarshalBinary parses a payload previously produced by MarshalBinary.
func UnmarshalBinary(b []byte) (*Array, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("sparse: buffer too small")
	}
	a := &Array{
		NumTokens:   binary.LittleEndian.Uint16(b[0:2]),
		NumFeatures: binary.LittleEndian.Uint16(b[2:4]),
		NumSparse:   binary.LittleEndian.Uint16(b[4:6]),
	}
	n := int(a.NumTokens) * int(a.NumSparse)
	if int64(len(b)) < a.Size() {
		return nil, fmt.Errorf("sparse: buffer too small")
	}
	off := 8
	a.Indices = make([]uint16, n)
	for i := range a.Indices {
		a.Indices[i] = binary.LittleEndian.Uint16(b[off:])
		off += 2
	}
	a.Values = make([]float32, n)
	for i := range a.Values {
		a.Values[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
		off += 4
	}
	return a, nil
}
