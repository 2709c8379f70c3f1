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

package mxfp8

import (
	"math"
	"testing"
)

func TestZeroInput(t *testing.T) {
	src := make([]float32, 64)
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	for b, e := range a.Scales {
		if e != 0 {
			t.Fatalf("block %d exponent = %d, want 0", b, e)
		}
	}
	dst := make([]float32, 64)
	if err := a.Decompress(dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d] = %v, want 0", i, v)
		}
	}
}

func TestPowerOfTwoScale(t *testing.T) {
	src := make([]float32, BlockSize)
	for i := range src {
		src[i] = 448 * 4 // block max forces exponent 2
	}
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if a.Scales[0] != 2 {
		t.Fatalf("exponent = %d, want 2", a.Scales[0])
	}
	dst := make([]float32, BlockSize)
	if err := a.Decompress(dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	for i, v := range dst {
		if v != 448*4 {
			t.Fatalf("dst[%d] = %v, want %v", i, v, 448.0*4)
		}
	}
}

func TestInfinitySaturates(t *testing.T) {
	src := make([]float32, BlockSize)
	src[0] = float32(math.Inf(1))
	src[1] = 100
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	dst := make([]float32, BlockSize)
	if err := a.Decompress(dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if math.IsInf(float64(dst[0]), 0) {
		t.Fatalf("dst[0] = %v, want finite", dst[0])
	}
}

func TestReconstructionWithinStep(t *testing.T) {
	src := make([]float32, 100)
	for i := range src {
		src[i] = float32(math.Sin(float64(i)*0.3)) * 10
	}
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	dst := make([]float32, 100)
	if err := a.Decompress(dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	// E4M3 relative error within a block is at most 2^-4 of the scaled
	// magnitude; the power-of-two block scale never shrinks below the
	// block max, so 10% of |x|+0.1 is a generous envelope.
	for i := range src {
		if diff := math.Abs(float64(dst[i] - src[i])); diff > 0.1*math.Abs(float64(src[i]))+0.1 {
			t.Fatalf("element %d: %v vs %v", i, dst[i], src[i])
		}
	}
}
