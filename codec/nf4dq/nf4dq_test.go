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

package nf4dq

import (
	"math"
	"testing"
)

// TestUnitScaleBlockRecoversCodebook uses a block whose abs-max is
// exactly 1: dq_scale becomes 1/448, the FP8 block code encodes 448
// exactly, and the reconstructed block scale is exactly 1.0 again, so
// codebook constants survive the double quantization untouched.
func TestUnitScaleBlockRecoversCodebook(t *testing.T) {
	src := make([]float32, BlockSize)
	src[0] = -1.0
	src[1] = 0.0
	src[2] = 1.0
	src[3] = 0.7229568
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if want := float32(1.0) / 448; a.DQScale != want {
		t.Fatalf("DQScale = %v, want %v", a.DQScale, want)
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
}

func TestZeroInput(t *testing.T) {
	src := make([]float32, 200)
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if a.DQScale != 1.0 {
		t.Fatalf("DQScale = %v, want 1 on all-zero input", a.DQScale)
	}
	dst := make([]float32, 200)
	if err := a.Decompress(dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d] = %v, want 0", i, v)
		}
	}
}

func TestMixedMagnitudeBlocks(t *testing.T) {
	src := make([]float32, 3*BlockSize)
	for i := 0; i < BlockSize; i++ {
		src[i] = float32(math.Sin(float64(i))) * 100
		src[BlockSize+i] = float32(math.Cos(float64(i))) * 0.01
		src[2*BlockSize+i] = float32(math.Sin(float64(i)*1.3)) * 1
	}
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	dst := make([]float32, len(src))
	if err := a.Decompress(dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	// Per-block relative error stays bounded even across four orders of
	// magnitude between block scales: the FP8-coded block scale is
	// within ~6% of the raw abs-max, and the codebook gap adds 30%/2.
	for b := 0; b < 3; b++ {
		var absMax float64
		for i := b * BlockSize; i < (b+1)*BlockSize; i++ {
			if av := math.Abs(float64(src[i])); av > absMax {
				absMax = av
			}
		}
		for i := b * BlockSize; i < (b+1)*BlockSize; i++ {
			if diff := math.Abs(float64(dst[i] - src[i])); diff > 0.2*absMax {
				t.Fatalf("block %d element %d off by %v (abs max %v)", b, i, diff, absMax)
			}
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	src := make([]float32, 77)
	for i := range src {
		src[i] = float32(i%13) - 6
	}
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	buf, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	b, err := UnmarshalBinary(buf)
	if err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	want := make([]float32, len(src))
	got := make([]float32, len(src))
	if err := a.Decompress(want); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if err := b.Decompress(got); err != nil {
		t.Fatalf("Decompress after load: %v", err)
	}
	for i := range want {
		if math.Float32bits(want[i]) != math.Float32bits(got[i]) {
			t.Fatalf("element %d differs after marshal round trip", i)
		}
	}
}
