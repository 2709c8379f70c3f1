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

// Package mxfp8 implements the MXFP8 block codec: a per-block signed
// power-of-two exponent scale and E4M3-coded elements, 32 elements per
// block, one code per byte.
package mxfp8

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bitsqueeze/bitsqueeze/floatfmt"
	"github.com/bitsqueeze/bitsqueeze/internal/blockpool"
)

// BlockSize is the fixed number of elements sharing one scale exponent.
const BlockSize = 32

// Array holds a compressed MXFP8 payload.
type Array struct {
	NumElements uint64
	NumBlocks   uint64
	Scales      []int8
	Data        []uint8
}

func numBlocks(n uint64) uint64 { return (n + BlockSize - 1) / BlockSize }

func chooseScaleExponent(absMax float32) int8 {
	if absMax <= 0 {
		return 0
	}
	target := float64(absMax) / floatfmt.FP8MaxNormValue
	if target <= 0 {
		return 0
	}
	return int8(math.Ceil(math.Log2(target)))
}

// Compress quantizes src block by block.
func Compress(src []float32) (*Array, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("mxfp8: empty input")
	}
	n := uint64(len(src))
	nb := numBlocks(n)
	a := &Array{
		NumElements: n,
		NumBlocks:   nb,
		Scales:      make([]int8, nb),
		Data:        make([]uint8, n),
	}
	err := blockpool.Run(int(nb), func(bi int) error {
		b := uint64(bi)
		start := b * BlockSize
		end := start + BlockSize
		if end > n {
			end = n
		}
		var absMax float32
		for i := start; i < end; i++ {
			v := src[i]
			if math.IsInf(float64(v), 0) || v != v {
				v = 0
			}
			av := float32(math.Abs(float64(v)))
			if av > absMax {
				absMax = av
			}
		}
		scaleExp := chooseScaleExponent(absMax)
		a.Scales[b] = scaleExp
		invScale := float32(math.Ldexp(1.0, int(-scaleExp)))
		for i := start; i < end; i++ {
			a.Data[i] = floatfmt.Float32ToFP8E4M3(src[i] * invScale)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Decompress expands a into dst, which must hold at least NumElements.
func (a *Array) Decompress(dst []float32) error {
	if uint64(len(dst)) < a.NumElements {
		return fmt.Errorf("mxfp8: destination too small")
	}
	for b := uint64(0); b < a.NumBlocks; b++ {
		start := b * BlockSize
		end := start + BlockSize
		if end > a.NumElements {
			end = a.NumElements
		}
		scale := float32(math.Ldexp(1.0, int(a.Scales[b])))
		for i := start; i < end; i++ {
			dst[i] = scale * floatfmt.FP8E4M3ToFloat32(a.Data[i])
		}
	}
	return nil
}

// Size returns the serialized payload size in bytes.
func (a *Array) Size() int64 {
	return 16 + int64(a.NumBlocks) + int64(len(a.Data))
}

// MarshalBinary serializes as (num_elements:u64, num_blocks:u64,
// scales:i8[num_blocks], data:u8[n]).
func (a *Array) MarshalBinary() ([]byte, error) {
	buf := make([]byte, a.Size())
	binary.LittleEndian.PutUint64(buf[0:8], a.NumElements)
	binary.LittleEndian.PutUint64(buf[8:16], a.NumBlocks)
	off := 16
	for _, s := range a.Scales {
		buf[off] = byte(s)
		off++
	}
	copy(buf[off:], a.Data)
	return buf, nil
}

// UnmarshalBinary parses a payload previously produced by MarshalBinary.
func UnmarshalBinary(b []byte) (*Array, error) {
	if len(b) < 16 {
		return nil, fmt.Errorf("mxfp8: buffer too small")
	}
	numElements := binary.LittleEndian.Uint64(b[0:8])
	numBlk := binary.LittleEndian.Uint64(b[8:16])
	need := 16 + int(numBlk) + int(numElements)
	if len(b) < need {
		return nil, fmt.Errorf("mxfp8: buffer too small")
	}
	a := &Array{NumElements: numElements, NumBlocks: numBlk}
	a.Scales = make([]int8, numBlk)
	off := 16
	for i := range a.Scales {
		a.Scales[i] = int8(b[off])
		off++
	}
	a.Data = make([]uint8, numElements)
	copy(a.Data, b[off:off+len(a.Data)])
	return a, nil
}
