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

// Package blockpool runs independent per-block quantization work across a
// small goroutine pool. Callers guarantee that fn(i) touches only state
// owned by block i, so the pool needs no synchronization beyond the final
// barrier.
package blockpool

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minParallel is the smallest block count worth fanning out; below it the
// goroutine overhead dominates the per-block work.
const minParallel = 16

// Run invokes fn(i) for every i in [0, n), possibly concurrently, and
// returns the first error. Blocks are split into contiguous chunks so each
// worker walks its range in order and per-block output stays
// position-deterministic.
func Run(n int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if n < minParallel || workers < 2 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if lo >= n {
			break
		}
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
