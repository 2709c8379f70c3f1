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

// Package q80 implements the Q8_0 block codec: a per-block FP32 abs-max
// scale and saturating int8 codes, 32 elements per block.
package q80

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BlockSize is the fixed number of elements sharing one scale.
const BlockSize = 32

// Array holds a compressed Q8_0 payload.
type Array struct {
	NumElements uint64
	NumBlocks   uint64
	Scales      []float32
	Codes       []int8
}

func numBlocks(n uint64) uint64 {
	return (n + BlockSize - 1) / BlockSize
}

// Compress quantizes src block by block.
func Compress(src []float32) (*Array, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("q80: empty input")
	}
	n := uint64(len(src))
	nb := numBlocks(n)
	a := &Array{
		NumElements: n,
		NumBlocks:   nb,
		Scales:      make([]float32, nb),
		Codes:       make([]int8, n),
	}
	for b := uint64(0); b < nb; b++ {
		start := b * BlockSize
		end := start + BlockSize
		if end > n {
			end = n
		}
		var absMax float32
		for i := start; i < end; i++ {
			v := float32(math.Abs(float64(src[i])))
			if v > absMax {
				absMax = v
			}
		}
		var scale, invScale float32
		if absMax > 0 {
			scale = absMax / 127.0
			invScale = 1.0 / scale
		}
		a.Scales[b] = scale
		for i := start; i < end; i++ {
			qi := int64(math.RoundToEven(float64(src[i] * invScale)))
			if qi < -127 {
				qi = -127
			} else if qi > 127 {
				qi = 127
			}
			a.Codes[i] = int8(qi)
		}
	}
	return a, nil
}

// Decompress expands a into dst, which must hold at least NumElements.
func (a *Array) Decompress(dst []float32) error {
	if uint64(len(dst)) < a.NumElements {
		return fmt.Errorf("q80: destination too small")
	}
	for b := uint64(0); b < a.NumBlocks; b++ {
		start := b * BlockSize
		end := start + BlockSize
		if end > a.NumElements {
			end = a.NumElements
		}
		scale := a.Scales[b]
		for i := start; i < end; i++ {
			dst[i] = scale * float32(a.Codes[i])
		}
	}
	return nil
}

// Size returns the serialized payload size in bytes.
func (a *Array) Size() int64 {
	return 16 + int64(a.NumBlocks)*4 + int64(a.NumElements)
}

// MarshalBinary serializes as (num_elements:u64, num_blocks:u64,
// scales:f32[num_blocks], codes:i8[num_elements]).
func (a *Array) MarshalBinary() ([]byte, error) {
	buf := make([]byte, a.Size())
	binary.LittleEndian.PutUint64(buf[0:8], a.NumElements)
	binary.LittleEndian.PutUint64(buf[8:16], a.NumBlocks)
	off := 16
	for _, s := range a.Scales {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(s))
		off += 4
	}
	for _, c := range a.Codes {
		buf[off] = byte(c)
		off++
	}
	return buf, nil
}

// UnmarshalBinary parses a payload previously produced by MarshalBinary.
func UnmarshalBinary(b []byte) (*Array, error) {
	if len(b) < 16 {
		return nil, fmt.Errorf("q80: buffer too small")
	}
	numElements := binary.LittleEndian.Uint64(b[0:8])
	numBlk := binary.LittleEndian.Uint64(b[8:16])
	need := 16 + int(numBlk)*4 + int(numElements)
	if len(b) < need {
		return nil, fmt.Errorf("q80: buffer too small")
	}
	a := &Array{NumElements: numElements, NumBlocks: numBlk}
	a.Scales = make([]float32, numBlk)
	off := 16
	for i := range a.Scales {
		a.Scales[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
		off += 4
	}
	a.Codes = make([]int8, numElements)
	for i := range a.Codes {
		a.Codes[i] = int8(b[off])
		off++
	}
	return a, nil
}
