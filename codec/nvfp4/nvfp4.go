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

// Package nvfp4 implements the NVFP4 codec: a per-tensor FP32 scale
// (abs-max / 6), a per-block FP8 E4M3-coded scale on top of it, and
// E2M1-coded elements, 16 elements per block, two codes packed per byte.
package nvfp4

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bitsqueeze/bitsqueeze/floatfmt"
	"github.com/bitsqueeze/bitsqueeze/internal/blockpool"
)

// BlockSize is the fixed number of elements sharing one block scale.
const BlockSize = 16

// Array holds a compressed NVFP4 payload.
type Array struct {
	NumElements uint64
	NumBlocks   uint64
	TensorScale float32
	BlockScales []uint8 // FP8 E4M3 codes
	Data        []uint8 // packed nibbles
}

func numBlocks(n uint64) uint64 { return (n + BlockSize - 1) / BlockSize }
func packedLen(n uint64) uint64 { return (n + 1) / 2 }

func chooseTensorScale(src []float32) float32 {
	var absMax float32
	for _, v := range src {
		if math.IsInf(float64(v), 0) || v != v {
			continue
		}
		av := float32(math.Abs(float64(v)))
		if av > absMax {
			absMax = av
		}
	}
	if absMax == 0 {
		return 1.0
	}
	return absMax / floatfmt.FP4MaxNormValue
}

func chooseBlockScaleFP8(src []float32, start, end uint64, tensorScale float32) uint8 {
	var absMax float32
	for i := start; i < end; i++ {
		v := src[i] / tensorScale
		if math.IsInf(float64(v), 0) || v != v {
			v = 0
		}
		av := float32(math.Abs(float64(v)))
		if av > absMax {
			absMax = av
		}
	}
	target := absMax / floatfmt.FP4MaxNormValue
	scale := target
	if scale <= 0 {
		scale = 1.0
	}
	return floatfmt.Float32ToFP8E4M3(scale)
}

// Compress quantizes src with a two-level tensor/block scale.
func Compress(src []float32) (*Array, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("nvfp4: empty input")
	}
	n := uint64(len(src))
	nb := numBlocks(n)
	a := &Array{
		NumElements: n,
		NumBlocks:   nb,
		BlockScales: make([]uint8, nb),
		Data:        make([]uint8, packedLen(n)),
	}
	a.TensorScale = chooseTensorScale(src)
	invTensorScale := 1.0 / a.TensorScale

	err := blockpool.Run(int(nb), func(bi int) error {
		b := uint64(bi)
		start := b * BlockSize
		end := start + BlockSize
		if end > n {
			end = n
		}
		code := chooseBlockScaleFP8(src, start, end, a.TensorScale)
		a.BlockScales[b] = code
		blockScale := floatfmt.FP8E4M3ToFloat32(code)
		invBlockScale := 1.0 / blockScale

		for i := start; i < end; i++ {
			v := src[i] * invTensorScale * invBlockScale
			c := floatfmt.Float32ToFP4E2M1(v) & 0xF
			idx := i / 2
			if i%2 == 0 {
				a.Data[idx] = c << 4
			} else {
				a.Data[idx] |= c
			}
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
		return fmt.Errorf("nvfp4: destination too small")
	}
	for b := uint64(0); b < a.NumBlocks; b++ {
		start := b * BlockSize
		end := start + BlockSize
		if end > a.NumElements {
			end = a.NumElements
		}
		blockScale := floatfmt.FP8E4M3ToFloat32(a.BlockScales[b])
		scale := a.TensorScale * blockScale
		for i := start; i < end; i++ {
			packed := a.Data[i/2]
			var code uint8
			if i%2 == 0 {
				code = packed >> 4
			} else {
				code = packed & 0xF
			}
			dst[i] = scale * floatfmt.FP4E2M1ToFloat32(code)
		}
	}
	return nil
}

// Size returns the serialized payload size in bytes.
func (a *Array) Size() int64 {
	return 20 + int64(a.NumBlocks) + int64(len(a.Data))
}

// MarshalBinary serializes as (num_elements:u64, num_blocks:u64,
// tensor_scale:f32, block_scales:u8[num_blocks], data:u8[(n+1)/2]).
func (a *Array) MarshalBinary() ([]byte, error) {
	buf := make([]byte, a.Size())
	binary.LittleEndian.PutUint64(buf[0:8], a.NumElements)
	binary.LittleEndian.PutUint64(buf[8:16], a.NumBlocks)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(a.TensorScale))
	off := 20
	copy(buf[off:], a.BlockScales)
	off += len(a.BlockScales)
	copy(buf[off:], a.Data)
	return buf, nil
}

// UnmarshalBinary parses a payload previously produced by MarshalBinary.
func UnmarshalBinary(b []byte) (*Array, error) {
	if len(b) < 20 {
		return nil, fmt.Errorf("nvfp4: buffer too small")
	}
	numElements := binary.LittleEndian.Uint64(b[0:8])
	numBlk := binary.LittleEndian.Uint64(b[8:16])
	tensorScale := math.Float32frombits(binary.LittleEndian.Uint32(b[16:20]))
	need := 20 + int(numBlk) + int(packedLen(numElements))
	if len(b) < need {
		return nil, fmt.Errorf("nvfp4: buffer too small")
	}
	a := &Array{NumElements: numElements, NumBlocks: numBlk, TensorScale: tensorScale}
	off := 20
	a.BlockScales = make([]uint8, numBlk)
	copy(a.BlockScales, b[off:off+int(numBlk)])
	off += int(numBlk)
	a.Data = make([]uint8, packedLen(numElements))
	copy(a.Data, b[off:off+len(a.Data)])
	return a, nil
}
