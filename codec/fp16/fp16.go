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

// Package fp16 implements the flat IEEE-754 binary16 codec: one code per
// element, no block scale.
package fp16

import (
	"encoding/binary"
	"fmt"

	"github.com/bitsqueeze/bitsqueeze/floatfmt"
)

// Array holds a compressed FP16 payload.
type Array struct {
	NumElements uint64
	Data        []uint16
}

// Compress converts src to FP16 codes.
func Compress(src []float32) (*Array, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("fp16: empty input")
	}
	data := make([]uint16, len(src))
	floatfmt.EncodeFP16(src, data)
	return &Array{NumElements: uint64(len(src)), Data: data}, nil
}

// Decompress expands the array into dst, which must have at least
// NumElements capacity.
func (a *Array) Decompress(dst []float32) error {
	if uint64(len(dst)) < a.NumElements {
		return fmt.Errorf("fp16: destination too small")
	}
	floatfmt.DecodeFP16(a.Data, dst[:a.NumElements])
	return nil
}

// Size returns the serialized payload size in bytes.
func (a *Array) Size() int64 {
	return 8 + int64(len(a.Data))*2
}

// MarshalBinary serializes the array as (num_elements:u64, data:u16[...]).
func (a *Array) MarshalBinary() ([]byte, error) {
	buf := make([]byte, a.Size())
	binary.LittleEndian.PutUint64(buf[0:8], a.NumElements)
	for i, v := range a.Data {
		binary.LittleEndian.PutUint16(buf[8+i*2:], v)
	}
	return buf, nil
}

// UnmarshalBinary parses a payload previously produced by MarshalBinary.
func UnmarshalBinary(b []byte) (*Array, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("fp16: buffer too small")
	}
	numElements := binary.LittleEndian.Uint64(b[0:8])
	need := 8 + int(numElements)*2
	if len(b) < need {
		return nil, fmt.Errorf("fp16: buffer too small")
	}
	data := make([]uint16, numElements)
	for i := range data {
		data[i] = binary.LittleEndian.Uint16(b[8+i*2:])
	}
	return &Array{NumElements: numElements, Data: data}, nil
}
