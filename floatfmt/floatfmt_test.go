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

package floatfmt

import (
	"math"
	"testing"
)

func TestBF16ZeroMantissaIdentity(t *testing.T) {
	tests := []struct {
		name string
		in   float32
	}{
		{"one", 1.0},
		{"neg_two", -2.0},
		{"half", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BF16ToFloat32(Float32ToBF16(tt.in))
			if got != tt.in {
				t.Fatalf("Float32ToBF16/BF16ToFloat32(%v) = %v, want %v", tt.in, got, tt.in)
			}
		})
	}
}

func TestBF16NaNRoundTrip(t *testing.T) {
	got := BF16ToFloat32(Float32ToBF16(float32(math.NaN())))
	if got == got {
		t.Fatalf("expected NaN, got %v", got)
	}
}

func TestFP16RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   float32
	}{
		{"small", 6.1e-5},
		{"large", 65504},
		{"neg", -1.5},
		{"zero", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FP16ToFloat32(Float32ToFP16(tt.in))
			if math.Abs(float64(got-tt.in)) > 1e-1*math.Abs(float64(tt.in))+1e-6 {
				t.Fatalf("FP16 round trip of %v = %v, too far off", tt.in, got)
			}
		})
	}
}

func TestFP16InfAndNaN(t *testing.T) {
	if got := FP16ToFloat32(Float32ToFP16(float32(math.Inf(1)))); !math.IsInf(float64(got), 1) {
		t.Fatalf("want +Inf, got %v", got)
	}
	if got := FP16ToFloat32(Float32ToFP16(float32(math.Inf(-1)))); !math.IsInf(float64(got), -1) {
		t.Fatalf("want -Inf, got %v", got)
	}
	if got := FP16ToFloat32(Float32ToFP16(float32(math.NaN()))); got == got {
		t.Fatalf("want NaN, got %v", got)
	}
}

func TestFP8SaturatesAtMax(t *testing.T) {
	got := FP8E4M3ToFloat32(Float32ToFP8E4M3(1e6))
	if got != FP8MaxNormValue {
		t.Fatalf("FP8 saturation: got %v, want %v", got, FP8MaxNormValue)
	}
	got = FP8E4M3ToFloat32(Float32ToFP8E4M3(-1e6))
	if got != -FP8MaxNormValue {
		t.Fatalf("FP8 saturation negative: got %v, want %v", got, -FP8MaxNormValue)
	}
}

func TestFP8Zero(t *testing.T) {
	if got := FP8E4M3ToFloat32(Float32ToFP8E4M3(0)); got != 0 {
		t.Fatalf("FP8 zero round trip: got %v", got)
	}
}

func TestFP4SaturatesAtMax(t *testing.T) {
	got := FP4E2M1ToFloat32(Float32ToFP4E2M1(100))
	if got != FP4MaxNormValue {
		t.Fatalf("FP4 saturation: got %v, want %v", got, FP4MaxNormValue)
	}
}

func TestFP4LevelsMonotonic(t *testing.T) {
	for i := 1; i < 8; i++ {
		if fp4PositiveLevels[i] < fp4PositiveLevels[i-1] {
			t.Fatalf("fp4PositiveLevels not monotonic at %d: %v < %v", i, fp4PositiveLevels[i], fp4PositiveLevels[i-1])
		}
	}
}
