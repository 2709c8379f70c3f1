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

package bitsqueeze

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func denseMethods() []Method {
	var out []Method
	for _, m := range Methods() {
		if !m.IsSparse() {
			out = append(out, m)
		}
	}
	return out
}

func seededInput(n int) []float32 {
	rng := rand.New(rand.NewSource(42))
	src := make([]float32, n)
	for i := range src {
		src[i] = float32(rng.NormFloat64()) * 2
	}
	return src
}

func TestDenseRoundTripAllMethods(t *testing.T) {
	src := seededInput(300)
	for _, m := range denseMethods() {
		t.Run(m.String(), func(t *testing.T) {
			env, err := Compress1D(src, m)
			if err != nil {
				t.Fatalf("Compress1D: %v", err)
			}
			if env.Method() != m {
				t.Fatalf("method = %v, want %v", env.Method(), m)
			}
			if env.NumElements() != 300 {
				t.Fatalf("NumElements = %d, want 300", env.NumElements())
			}
			if PackedSize(env) != int64(len(env.Bytes())) {
				t.Fatalf("PackedSize = %d, len(Bytes) = %d", PackedSize(env), len(env.Bytes()))
			}
			dst := make([]float32, 300)
			if err := Decompress(env, dst); err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			for i, v := range dst {
				if math.IsInf(float64(v), 0) {
					t.Fatalf("dst[%d] = %v", i, v)
				}
			}
		})
	}
}

func TestLoadBitExact(t *testing.T) {
	src := seededInput(300)
	for _, m := range denseMethods() {
		t.Run(m.String(), func(t *testing.T) {
			env, err := Compress1D(src, m)
			if err != nil {
				t.Fatalf("Compress1D: %v", err)
			}
			reloaded, err := Load(env.Bytes())
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if reloaded.Method() != m || reloaded.NumElements() != env.NumElements() {
				t.Fatalf("reloaded header mismatch: %v/%d", reloaded.Method(), reloaded.NumElements())
			}
			want := make([]float32, 300)
			got := make([]float32, 300)
			if err := Decompress(env, want); err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if err := Decompress(reloaded, got); err != nil {
				t.Fatalf("Decompress reloaded: %v", err)
			}
			for i := range want {
				if math.Float32bits(want[i]) != math.Float32bits(got[i]) {
					t.Fatalf("element %d differs after load: %v vs %v", i, want[i], got[i])
				}
			}
		})
	}
}

func TestBF16Identity(t *testing.T) {
	src := []float32{1.0, -2.0, 0.5}
	env, err := Compress1D(src, BF16)
	if err != nil {
		t.Fatalf("Compress1D: %v", err)
	}
	dst := make([]float32, 3)
	if err := Decompress(env, dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if diff := cmp.Diff(src, dst); diff != "" {
		t.Fatalf("BF16 identity mismatch (-want +got):\n%s", diff)
	}
}

func TestQ80Ramp(t *testing.T) {
	src := make([]float32, 32)
	for i := range src {
		src[i] = float32(i) - 15.5
	}
	env, err := Compress1D(src, Q8_0)
	if err != nil {
		t.Fatalf("Compress1D: %v", err)
	}
	dst := make([]float32, 32)
	if err := Decompress(env, dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if dst[0] != -15.5 || dst[31] != 15.5 {
		t.Fatalf("endpoints = %v, %v, want -15.5, 15.5", dst[0], dst[31])
	}
	if diff := cmp.Diff(src, dst, cmpopts.EquateApprox(0, 0.07)); diff != "" {
		t.Fatalf("Q8_0 ramp drifted (-want +got):\n%s", diff)
	}
}

func TestTopKRoundTrip(t *testing.T) {
	src := []float32{0.1, -0.2, 0.3, -0.4, 0.5, -0.6, 0.7, -0.8}
	env, err := Compress2D(src, 1, 8, 0.5, TOPK, nil)
	if err != nil {
		t.Fatalf("Compress2D: %v", err)
	}
	tokens, features, ratio := env.Shape()
	if tokens != 1 || features != 8 || ratio != 0.5 {
		t.Fatalf("shape = %d/%d/%v", tokens, features, ratio)
	}
	dst := make([]float32, 8)
	if err := Decompress(env, dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	want := []float32{0, 0, 0, 0, 0.5, -0.6, 0.7, -0.8}
	if diff := cmp.Diff(want, dst); diff != "" {
		t.Fatalf("TOPK output mismatch (-want +got):\n%s", diff)
	}

	reloaded, err := Load(env.Bytes())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := make([]float32, 8)
	if err := Decompress(reloaded, got); err != nil {
		t.Fatalf("Decompress reloaded: %v", err)
	}
	if diff := cmp.Diff(dst, got); diff != "" {
		t.Fatalf("TOPK load round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTopKIMRoundTrip(t *testing.T) {
	src := []float32{5, 4, 3, 2}
	importance := []float32{0, 1, 2, 3}
	env, err := Compress2D(src, 1, 4, 0.5, TOPKIM, importance)
	if err != nil {
		t.Fatalf("Compress2D: %v", err)
	}
	dst := make([]float32, 4)
	if err := Decompress(env, dst); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	want := []float32{0, 0, 3, 2}
	if diff := cmp.Diff(want, dst); diff != "" {
		t.Fatalf("TOPKIM output mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyOverlaysSparse(t *testing.T) {
	src := []float32{0, 9, 0, 0, 7, 0, 0, 0}
	env, err := Compress2D(src, 1, 8, 0.25, TOPK, nil)
	if err != nil {
		t.Fatalf("Compress2D: %v", err)
	}
	dst := []float32{1, 1, 1, 1, 1, 1, 1, 1}
	if err := Apply(env, dst); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := []float32{1, 9, 1, 1, 7, 1, 1, 1}
	if diff := cmp.Diff(want, dst); diff != "" {
		t.Fatalf("Apply overlay mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyRejectsDense(t *testing.T) {
	env, err := Compress1D([]float32{1, 2, 3}, BF16)
	if err != nil {
		t.Fatalf("Compress1D: %v", err)
	}
	dst := make([]float32, 3)
	if err := Apply(env, dst); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Apply on dense codec: %v, want ErrInvalidArgument", err)
	}
}

func TestErrorKinds(t *testing.T) {
	dense, err := Compress1D([]float32{1, 2, 3, 4}, Q8_0)
	if err != nil {
		t.Fatalf("Compress1D: %v", err)
	}
	tests := []struct {
		name string
		got  func() error
		want error
	}{
		{"empty input", func() error { _, e := Compress1D(nil, Q8_0); return e }, ErrInvalidArgument},
		{"sparse via 1d", func() error { _, e := Compress1D([]float32{1}, TOPK); return e }, ErrInvalidArgument},
		{"dense via 2d", func() error { _, e := Compress2D([]float32{1}, 1, 1, 1, FP16, nil); return e }, ErrInvalidArgument},
		{"unknown method", func() error { _, e := Compress1D([]float32{1}, Method(99)); return e }, ErrInvalidArgument},
		{"missing importance", func() error { _, e := Compress2D([]float32{1, 2}, 1, 2, 0.5, TOPKIM, nil); return e }, ErrInvalidArgument},
		{"short input 2d", func() error { _, e := Compress2D([]float32{1, 2}, 2, 2, 0.5, TOPK, nil); return e }, ErrInvalidArgument},
		{"small dst", func() error { return Decompress(dense, make([]float32, 2)) }, ErrBufferTooSmall},
		{"load short header", func() error { _, e := Load([]byte{1, 2, 3}); return e }, ErrBufferTooSmall},
		{"load truncated payload", func() error { _, e := Load(dense.Bytes()[:len(dense.Bytes())-2]); return e }, ErrBufferTooSmall},
		{"load bad method", func() error {
			b := append([]byte(nil), dense.Bytes()...)
			b[0] = 0xFF
			_, e := Load(b)
			return e
		}, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.got(); !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSparseLoadKeepsShape(t *testing.T) {
	src := make([]float32, 3*10)
	for i := range src {
		src[i] = float32(i)
	}
	env, err := Compress2D(src, 3, 10, 0.3, TOPK, nil)
	if err != nil {
		t.Fatalf("Compress2D: %v", err)
	}
	reloaded, err := Load(env.Bytes())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tokens, features, ratio := reloaded.Shape()
	if tokens != 3 || features != 10 || ratio != 0.3 {
		t.Fatalf("reloaded shape = %d/%d/%v", tokens, features, ratio)
	}
	if reloaded.NumElements() != 30 {
		t.Fatalf("reloaded NumElements = %d, want 30", reloaded.NumElements())
	}
}
