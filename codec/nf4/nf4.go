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

// Package nf4 implements the NF4 codec: a fixed 16-entry non-uniform
// codebook quantized against a per-block FP32 abs-max scale, 64 elements
// per block, two codes packed per byte.
package nf4

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BlockSize is the fixed number of elements sharing one block scale.
const BlockSize = 64

// Array holds a compressed NF4 payload.
type Array struct {
	NumElements uint64
	NumBlocks   uint64
	BlockScales []float32
	Data        []uint8
}

func numBlocks(n uint64) uint64 { return (n + BlockSize - 1) / BlockSize }
func packedLen(n uint64) uint64 { return (n + 1) / 2 }

// Compress quantizes src block by block against the NF4 codebook.
func Compress(src []float32) (*Array, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("nf4: empty input")
	}
	n := uint64(len(src))
	nb := numBlocks(n)
	a := &Array{
		NumElements: n,
		NumBlocks:   nb,
		BlockScales: make([]float32, nb),
		Data:        make([]uint8, packedLen(n)),
	}
	for b := uint64(0); b < nb; b++ {
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
		blockScale := absMax
		if blockScale == 0 {
			blockScale = 1.0
		}
		a.BlockScales[b] = blockScale
		invBlockScale := 1.0 / blockScale
		for i := start; i < end; i++ {
			code := Encode(src[i]*invBlockScale) & 0xF
			idx := i / 2
			if i%2 == 0 {
				a.Data[idx] = code << 4
			} else {
				a.Data[idx] |= code
			}
		}
	}
	return a, nil
}

// Decompress expands a into dst, which must hold at least NumElements.
func (a *Array) Decompress(dst []float32) error {
	if uint64(len(dst)) < a.NumElements {
		return fmt.Errorf("nf4: destination too small")
	}
	for b := uint64(0); b < a.NumBlocks; b++ {
		start := b * BlockSize
		end := start + BlockSize
		if end > a.NumElements {
			end = a.NumElements
		}
		blockScale := a.BlockScales[b]
		if blockScale == 0 || math.IsInf(float64(blockScale), 0) || blockScale != blockScale {
			blockScale = 1.0
		}
		for i := start; i < end; i++ {
			packed := a.Data[i/2]
			var code uint8
			if i%2 == 0 {
				code = packed >> 4
			} else {
				code = packed & 0xF
			}
			dst[i] = blockScale * Decode(code)
		}
	}
	return nil
}

// Size returns the serialized payload size in bytes.
func (a *Array) Size() int64 {
	return 16 + int64(a.NumBlocks)*4 + int64(len(a.Data))
}

// MarshalBinary serializes as (num_elements:u64, num_blocks:u64,
// block_scales:f32[num_blocks], data:u8[(n+1)/2]).
func (a *Array) MarshalBinary() ([]byte, error) {
	buf := make([]byte, a.Size())
	binary.LittleEndian.PutUint64(buf[0:8], a.NumElements)
	binary.LittleEndian.PutUint64(buf[8:16], a.NumBlocks)
	off := 16
	for _, s := range a.BlockScales {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(s))
		off += 4
	}
	copy(buf[off:], a.Data)
	return buf, nil
}

// UnmarshalBinary parses a payload previously produced by MarshalBinary.
func UnmarshalBinary(b []byte) (*Array, error) {
	if len(b) < 16 {
		return nil, fmt.Errorf("nf4: buffer too small")
	}
	numElements := binary.LittleEndian.Uint64(b[0:8])
	numBlk := binary.LittleEndian.Uint64(b[8:16])
	need := 16 + int(numBlk)*4 + int(packedLen(numElements))
	if len(b) < need {
		return nil, fmt.Errorf("nf4: buffer too small")
	}
	a := &Array{NumElements: numElements, NumBlocks: numBlk}
	a.BlockScales = make([]float32, numBlk)
	off := 16
	for i := range a.BlockScales {
		a.BlockScales[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
		off += 4
	}
	a.Data = make([]uint8, packedLen(numElements))
	copy(a.Data, b[off:off+len(a.Data)])
	return a, nil
}
