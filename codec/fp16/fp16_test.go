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

package fp16

import (
	"math"
	"testing"
)

func TestExactValuesRoundTrip(t *testing.T) {
	src := []float32{1.0, -0.5, 65504, 0.25, 0}
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
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

func TestInfAndNaN(t *testing.T) {
	src := []float32{float32(math.Inf(1)), float32(math.Inf(-1)), float32(math.NaN())}
	a, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	dst := make([]float32, 3)
	if err := a.Decompress(dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !math.IsInf(float64(dst[0]), 1) || !math.IsInf(float64(dst[1]), -1) {
		t.Fatalf("infinities did not round trip: %v, %v", dst[0], dst[1])
	}
	if dst[2] == dst[2] {
		t.Fatalf("NaN did not round trip: %v", dst[2])
	}
}
