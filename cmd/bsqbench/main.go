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

// bsqbench exercises every codec against a deterministically seeded
// input and reports bytes per element and reconstruction error. It is a
// manual-inspection harness, not part of the library contract.
package main

import (
	"math"
	"math/rand"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bitsqueeze/bitsqueeze/bitsqueeze"
)

var (
	flagElements int
	flagSeed     int64
	flagTokens   int
	flagFeatures int
	flagRatio    float32
)

func gaussian(rng *rand.Rand, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(rng.NormFloat64())
	}
	return out
}

func rmse(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a)))
}

func runDense(log zerolog.Logger, src []float32, m bitsqueeze.Method) {
	env, err := bitsqueeze.Compress1D(src, m)
	if err != nil {
		log.Error().Err(err).Stringer("method", m).Msg("compress failed")
		return
	}
	dst := make([]float32, len(src))
	if err := bitsqueeze.Decompress(env, dst); err != nil {
		log.Error().Err(err).Stringer("method", m).Msg("decompress failed")
		return
	}
	reloaded, err := bitsqueeze.Load(env.Bytes())
	if err != nil {
		log.Error().Err(err).Stringer("method", m).Msg("load failed")
		return
	}
	dst2 := make([]float32, len(src))
	if err := bitsqueeze.Decompress(reloaded, dst2); err != nil {
		log.Error().Err(err).Stringer("method", m).Msg("reload decompress failed")
		return
	}
	for i := range dst {
		if math.Float32bits(dst[i]) != math.Float32bits(dst2[i]) {
			log.Error().Stringer("method", m).Int("index", i).Msg("load round-trip mismatch")
			return
		}
	}
	log.Info().
		Stringer("method", m).
		Float64("bytes_per_element", float64(bitsqueeze.PackedSize(env))/float64(len(src))).
		Float64("rmse", rmse(src, dst)).
		Msg("ok")
}

func runSparse(log zerolog.Logger, rng *rand.Rand, m bitsqueeze.Method) {
	tokens, features := uint16(flagTokens), uint16(flagFeatures)
	src := gaussian(rng, flagTokens*flagFeatures)
	var importance []float32
	if m == bitsqueeze.TOPKIM {
		importance = gaussian(rng, flagTokens*flagFeatures)
	}
	env, err := bitsqueeze.Compress2D(src, tokens, features, flagRatio, m, importance)
	if err != nil {
		log.Error().Err(err).Stringer("method", m).Msg("compress failed")
		return
	}
	dst := make([]float32, len(src))
	if err := bitsqueeze.Decompress(env, dst); err != nil {
		log.Error().Err(err).Stringer("method", m).Msg("decompress failed")
		return
	}
	log.Info().
		Stringer("method", m).
		Float64("bytes_per_element", float64(bitsqueeze.PackedSize(env))/float64(len(src))).
		Float64("rmse", rmse(src, dst)).
		Msg("ok")
}

func main() {
	root := &cobra.Command{
		Use:   "bsqbench",
		Short: "Round-trip every bitsqueeze codec on seeded random input",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			rng := rand.New(rand.NewSource(flagSeed))
			src := gaussian(rng, flagElements)
			for _, m := range bitsqueeze.Methods() {
				if m.IsSparse() {
					runSparse(log, rng, m)
				} else {
					runDense(log, src, m)
				}
			}
			return nil
		},
	}
	root.Flags().IntVar(&flagElements, "elements", 1<<16, "dense element count")
	root.Flags().Int64Var(&flagSeed, "seed", 1, "input generator seed")
	root.Flags().IntVar(&flagTokens, "tokens", 64, "sparse token count")
	root.Flags().IntVar(&flagFeatures, "features", 1024, "sparse feature count")
	root.Flags().Float32Var(&flagRatio, "ratio", 0.1, "sparse retention ratio")
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
