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

// Package floatfmt implements conversions between float32 and the reduced
// bit-width float encodings used across the codec packages: bfloat16,
// IEEE-754 binary16, 8-bit E4M3, and 4-bit E2M1.
package floatfmt

import "math"

// Float32ToBF16 rounds x to bfloat16, round-to-nearest-even on the dropped
// 16 mantissa bits, and returns the result packed into the low 16 bits of
// the return value.
func Float32ToBF16(x float32) uint16 {
	bits := math.Float32bits(x)
	if x != x { // NaN: force a quiet NaN, preserve sign.
		return uint16(bits>>16) | 0x0040
	}
	// Round to nearest even: add the rounding bias based on the bit
	// immediately below the truncation point plus the sticky bits.
	roundBit := uint32(1) << 15
	lsb := (bits >> 16) & 1
	bits += roundBit - 1 + lsb
	return uint16(bits >> 16)
}

// BF16ToFloat32 expands a bfloat16 code to float32 exactly: bfloat16 is the
// high 16 bits of the IEEE-754 binary32 layout.
func BF16ToFloat32(v uint16) float32 {
	return math.Float32frombits(uint32(v) << 16)
}

// EncodeBF16 converts a slice of float32 values to bfloat16 codes in place
// into dst, which must have the same length as src.
func EncodeBF16(src []float32, dst []uint16) {
	for i, v := range src {
		dst[i] = Float32ToBF16(v)
	}
}

// DecodeBF16 expands a slice of bfloat16 codes into dst, which must have
// the same length as src.
func DecodeBF16(src []uint16, dst []float32) {
	for i, v := range src {
		dst[i] = BF16ToFloat32(v)
	}
}
