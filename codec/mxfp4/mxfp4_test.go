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

package mxfp4

import (
	"testing"
)

func TestZeroInput(t *testing.T) {
	src := make([]float32, 65)
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	for b, e := range a.Scales {
		if e != 0 {
			t.Fatalf("block %d exponent = %d, want 0", b, e)
		}
	}
	dst := make([]float32, 65)
	if err := a.Decompress(dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d] = %v, want 0", i, v)
		}
	}
}

func TestExactLevels(t *testing.T) {
	// Levels of E2M1 times a 2^1 block scale: all representable exactly.
	src := []float32{0, 1, 2, 3, 4, 6, 8, 12, -1, -2, -3, -4, -6, -8, -12, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if a.Scales[0] != 1 {
		t.Fatalf("exponent = %d, want 1", a.Scales[0])
	}
	dst := make([]float32, len(src))
	if err := a.Decompress(dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	for i, want := range src {
		if dst[i] != want {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}

func TestNibblePacking(t *testing.T) {
	src := make([]float32, 5)
	src[0] = 6
	src[4] = -6
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(a.Data) != 3 {
		t.Fatalf("packed length = %d, want 3", len(a.Data))
	}
	dst := make([]float32, 5)
	if err := a.Decompress(dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if dst[0] != 6 || dst[4] != -6 {
		t.Fatalf("endpoints = %v, %v, want 6, -6", dst[0], dst[4])
	}
	for _, i := range []int{1, 2, 3} {
		if dst[i] != 0 {
			t.Fatalf("dst[%d] = %v, want 0", i, dst[i])
		}
	}
}
