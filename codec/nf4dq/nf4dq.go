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

// Package nf4dq implements the double-quantized NF4 codec: the same
// 16-entry codebook as nf4, but block scales are themselves quantized
// through a tensor-level FP32 scale and a per-block FP8 E4M3 code,
// 64 elements per block, two codes packed per byte.
package nf4dq

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bitsqueeze/bitsqueeze/codec/nf4"
	"github.com/bitsqueeze/bitsqueeze/floatfmt"
	"github.com/bitsqueeze/bitsqueeze/internal/blockpool"
)

// BlockSize is the fixed number of elements sharing one block scale.
const BlockSize = 64

// Array holds a compressed NF4_DQ payload.
type Array struct {
	NumElements uint64
	NumBlocks   uint64
	DQScale     float32
	BlockScales []uint8 // FP8 E4M3 codes, reconstructed block scale = DQScale * decode(code)
	Data        []uint8
}

func numBlocks(n uint64) uint64 { return (n + BlockSize - 1) / BlockSize }
func packedLen(n uint64) uint64 { return (n + 1) / 2 }

func blockAbsMax(src []float32, start, end uint64) float32 {
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
	return absMax
}

func chooseDQScale(blockScales []float32) float32 {
	var absMax float32
	for _, v := range blockScales {
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
	return absMax / floatfmt.FP8MaxNormValue
}

func sanitizeBlockScale(s float32) float32 {
	if s == 0 || math.IsInf(float64(s), 0) || s != s {
		return 1.0
	}
	return s
}

// Compress quantizes src block by block with two-level scale encoding.
func Compress(src []float32) (*Array, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("nf4dq: empty input")
	}
	n := uint64(len(src))
	nb := numBlocks(n)

	rawBlockScales := make([]float32, nb)
	allZero := true
	for b := uint64(0); b < nb; b++ {
		start := b * BlockSize
		end := start + BlockSize
		if end > n {
			end = n
		}
		absMax := blockAbsMax(src, start, end)
		if absMax > 0 {
			rawBlockScales[b] = absMax
			allZero = false
		} else {
			rawBlockScales[b] = 1.0
		}
	}

	dqScale := chooseDQScale(rawBlockScales)
	if dqScale == 0 || allZero {
		dqScale = 1.0
	}

	a := &Array{
		NumElements: n,
		NumBlocks:   nb,
		DQScale:     dqScale,
		BlockScales: make([]uint8, nb),
		Data:        make([]uint8, packedLen(n)),
	}

	err := blockpool.Run(int(nb), func(bi int) error {
		b := uint64(bi)
		start := b * BlockSize
		end := start + BlockSize
		if end > n {
			end = n
		}
		code := floatfmt.Float32ToFP8E4M3(rawBlockScales[b] / dqScale)
		a.BlockScales[b] = code
		blockScale := sanitizeBlockScale(dqScale * floatfmt.FP8E4M3ToFloat32(code))
		invBlockScale := 1.0 / blockScale

		for i := start; i < end; i++ {
			c := nf4.Encode(src[i]*invBlockScale) & 0xF
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
		return fmt.Errorf("nf4dq: destination too small")
	}
	for b := uint64(0); b < a.NumBlocks; b++ {
		start := b * BlockSize
		end := start + BlockSize
		if end > a.NumElements {
			end = a.NumElements
		}
		blockScale := sanitizeBlockScale(a.DQScale * floatfmt.FP8E4M3ToFloat32(a.BlockScales[b]))
		for i := start; i < end; i++ {
			packed := a.Data[i/2]
			var code uint8
			if i%2 == 0 {
				code = packed >> 4
			} else {
				code = packed & 0xF
			}
			dst[i] = blockScale * nf4.Decode(code)
		}
	}
	return nil
}

// Size returns the serialized payload size in bytes.
func (a *Array) Size() int64 {
	return 20 + int64(a.NumBlocks) + int64(len(a.Data))
}

// MarshalBinary serializes as (num_elements:u64, num_blocks:u64,
// dq_scale:f32, block_scales:u8[num_blocks], data:u8[(n+1)/2]).
func (a *Array) MarshalBinary() ([]byte, error) {
	buf := make([]byte, a.Size())
	binary.LittleEndian.PutUint64(buf[0:8], a.NumElements)
	binary.LittleEndian.PutUint64(buf[8:16], a.NumBlocks)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(a.DQScale))
	off := 20
	copy(buf[off:], a.BlockScales)
	off += len(a.BlockScales)
	copy(buf[off:], a.Data)
	return buf, nil
}

// UnmarshalBinary parses a payload previously produced by MarshalBinary.
func UnmarshalBinary(b []byte) (*Array, error) {
	if len(b) < 20 {
		return nil, fmt.Errorf("nf4dq: buffer too small")
	}
	numElements := binary.LittleEndian.Uint64(b[0:8])
	numBlk := binary.LittleEndian.Uint64(b[8:16])
	dqScale := math.Float32frombits(binary.LittleEndian.Uint32(b[16:20]))
	need := 20 + int(numBlk) + int(packedLen(numElements))
	if len(b) < need {
		return nil, fmt.Errorf("nf4dq: buffer too small")
	}
	a := &Array{NumElements: numElements, NumBlocks: numBlk, DQScale: dqScale}
	off := 20
	a.BlockScales = make([]uint8, numBlk)
	copy(a.BlockScales, b[off:off+int(numBlk)])
	off += int(numBlk)
	a.Data = make([]uint8, packedLen(numElements))
	copy(a.Data, b[off:off+len(a.Data)])
	return a, nil
}
