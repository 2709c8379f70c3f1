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

package nf4

import (
	"math"
	"testing"
)

func TestCodebookConstantsRecoverExactly(t *testing.T) {
	src := make([]float32, BlockSize)
	src[0] = -1.0
	src[1] = 0.0
	src[2] = 1.0
	src[3] = 0.7229568
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if a.BlockScales[0] != 1.0 {
		t.Fatalf("block scale = %v, want 1", a.BlockScales[0])
	}
	dst := make([]float32, BlockSize)
	if err := a.Decompress(dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	want := []float32{-1.0, 0.0, 1.0, 0.7229568}
	for i, w := range want {
		if dst[i] != w {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], w)
		}
	}
	for i := 4; i < BlockSize; i++ {
		if dst[i] != 0 {
			t.Fatalf("dst[%d] = %v, want 0", i, dst[i])
		}
	}
}

func TestZeroBlockScaleFallback(t *testing.T) {
	src := make([]float32, BlockSize+1)
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	for b, s := range a.BlockScales {
		if s != 1.0 {
			t.Fatalf("block %d scale = %v, want 1", b, s)
		}
	}
	dst := make([]float32, len(src))
	if err := a.Decompress(dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d] = %v, want 0", i, v)
		}
	}
}

func TestEncodeNearest(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want uint8
	}{
		{"min", -1.0, 0},
		{"zero", 0.0, 7},
		{"max", 1.0, 15},
		{"level14", 0.7229568, 14},
		{"below_min_saturates", -5, 0},
		{"above_max_saturates", 5, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.in); got != tt.want {
				t.Fatalf("Encode(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestReconstructionWithinStep(t *testing.T) {
	src := make([]float32, 130)
	for i := range src {
		src[i] = float32(math.Sin(float64(i)*0.7)) * 2.5
	}
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	dst := make([]float32, len(src))
	if err := a.Decompress(dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	// The coarsest codebook gap is 0.3 of the scale (between the two
	// outermost levels), so half of that bounds the per-element error.
	for i := range src {
		scale := float64(a.BlockScales[i/BlockSize])
		if diff := math.Abs(float64(dst[i] - src[i])); diff > 0.16*scale {
			t.Fatalf("element %d off by %v at scale %v", i, diff, scale)
		}
	}
}
