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

// Package fp4 implements the per-tensor FP4 E2M1 codec: a single FP32
// scale derived from the tensor's abs-max, two codes packed per byte.
package fp4

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bitsqueeze/bitsqueeze/floatfmt"
)

// Array holds a compressed FP4 payload.
type Array struct {
	NumElements uint64
	Scale       float32
	Data        []uint8 // packed nibbles, len = (NumElements+1)/2
}

func packedLen(n uint64) uint64 {
	return (n + 1) / 2
}

func chooseScale(src []float32) float32 {
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

// Compress quantizes src with a single per-tensor scale.
func Compress(src []float32) (*Array, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("fp4: empty input")
	}
	scale := chooseScale(src)
	if scale == 0 {
		scale = 1.0
	}
	invScale := 1.0 / scale
	n := uint64(len(src))
	data := make([]uint8, packedLen(n))
	for i, v := range src {
		code := floatfmt.Float32ToFP4E2M1(v*invScale) & 0xF
		idx := uint64(i) / 2
		if i%2 == 0 {
			data[idx] = code << 4
		} else {
			data[idx] |= code
		}
	}
	return &Array{NumElements: n, Scale: scale, Data: data}, nil
}

// Decompress expands a into dst, which must hold at least NumElements.
func (a *Array) Decompress(dst []float32) error {
	if uint64(len(dst)) < a.NumElements {
		return fmt.Errorf("fp4: destination too small")
	}
	for i := uint64(0); i < a.NumElements; i++ {
		packed := a.Data[i/2]
		var code uint8
		if i%2 == 0 {
			code = packed >> 4
		} else {
			code = packed & 0xF
		}
		dst[i] = a.Scale * floatfmt.FP4E2M1ToFloat32(code)
	}
	return nil
}

// Size returns the serialized payload size in bytes.
func (a *Array) Size() int64 {
	return 12 + int64(len(a.Data))
}

// MarshalBinary serializes as (num_elements:u64, scale:f32, data:u8[(n+1)/2]).
func (a *Array) MarshalBinary() ([]byte, error) {
	buf := make([]byte, a.Size())
	binary.LittleEndian.PutUint64(buf[0:8], a.NumElements)
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(a.Scale))
	copy(buf[12:], a.Data)
	return buf, nil
}

// UnmarshalBinary parses a payload previously produced by MarshalBinary.
func UnmarshalBinary(b []byte) (*Array, error) {
	if len(b) < 12 {
		return nil, fmt.Errorf("fp4: buffer too small")
	}
	numElements := binary.LittleEndian.Uint64(b[0:8])
	scale := math.Float32frombits(binary.LittleEndian.Uint32(b[8:12]))
	need := 12 + int(packedLen(numElements))
	if len(b) < need {
		return nil, fmt.Errorf("fp4: buffer too small")
	}
	data := make([]uint8, packedLen(numElements))
	copy(data, b[12:need])
	return &Array{NumElements: numElements, Scale: scale, Data: data}, nil
}
