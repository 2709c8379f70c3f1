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

// Package q2k implements the Q2_K super-block codec: 16 sub-blocks of 16
// elements (256 elements per super-block), each sub-block carrying a
// 4-bit quantized scale and signed 4-bit min against a shared FP16
// super-scale/super-min pair, with 2-bit codes packed four-per-byte in
// two interleaved 32-byte strips.
//
// Q2_K and Q2_K_FAST (CompressOptimal/CompressFast below) share the same
// scale/min search: the source's "optimal" search is a closed-form
// per-sub-block min/max, not an iterative refinement.
package q2k

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bitsqueeze/bitsqueeze/floatfmt"
	"github.com/bitsqueeze/bitsqueeze/internal/blockpool"
)

// SubBlockSize is the number of elements sharing one (scale, min) pair.
const SubBlockSize = 16

// SubBlocksPerSuper is the number of sub-blocks in one super-block.
const SubBlocksPerSuper = 16

// SuperBlockElements is the total element count of one super-block.
const SuperBlockElements = SubBlockSize * SubBlocksPerSuper // 256

const codesPerSuperBlock = SuperBlockElements / 4 // 64 bytes, 2 bits each

// SuperBlock is the fixed-layout on-disk representation of one Q2_K
// super-block.
type SuperBlock struct {
	SuperScale uint16                    // FP16
	SuperMin   uint16                    // FP16
	Scales     [SubBlocksPerSuper]uint8  // (min:4 signed, scale:4 unsigned) packed high/low
	Data       [codesPerSuperBlock]uint8 // 2-bit codes, 4 per byte
}

// Array holds a compressed Q2_K (or Q2_K_FAST) payload.
type Array struct {
	NumElements        uint64
	NumElementsAligned uint64
	SuperBlocks        []SuperBlock
}

func numSuperBlocks(n uint64) uint64 {
	return (n + SuperBlockElements - 1) / SuperBlockElements
}

// findScaleAndMin computes the shared per-sub-block (scale, min) used by
// both the "optimal" and "fast" entry points: scale = (max-min)/3 over the
// sub-block's raw values, min = the sub-block's minimum value.
func findScaleAndMin(weights []float32) (scale, min float32) {
	localMin := float32(math.Inf(1))
	for _, w := range weights {
		if w < localMin {
			localMin = w
		}
	}
	var localMax float32
	for _, w := range weights {
		shifted := w - localMin
		if shifted > localMax {
			localMax = shifted
		}
	}
	return localMax / 3.0, localMin
}

func compress(src []float32) (*Array, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("q2k: empty input")
	}
	n := uint64(len(src))
	nAligned := n
	if rem := n % SuperBlockElements; rem != 0 {
		nAligned += SuperBlockElements - rem
	}
	nsb := nAligned / SuperBlockElements

	padded := make([]float32, nAligned)
	copy(padded, src)

	a := &Array{
		NumElements:        n,
		NumElementsAligned: nAligned,
		SuperBlocks:        make([]SuperBlock, nsb),
	}

	err := blockpool.Run(int(nsb), func(sbi int) error {
		sb := uint64(sbi)
		var weights [SubBlockSize]float32
		var mins, scales [SubBlocksPerSuper]float32
		var codes [SuperBlockElements]uint8

		base := padded[sb*SuperBlockElements : (sb+1)*SuperBlockElements]
		superBlock := &a.SuperBlocks[sb]

		maxScale := float32(math.Inf(-1))
		var maxAbsMin float32
		for j := 0; j < SubBlocksPerSuper; j++ {
			copy(weights[:], base[j*SubBlockSize:(j+1)*SubBlockSize])
			s, m := findScaleAndMin(weights[:])
			scales[j] = s
			mins[j] = m
			if s > maxScale {
				maxScale = s
			}
			if am := float32(math.Abs(float64(m))); am > maxAbsMin {
				maxAbsMin = am
			}
		}

		if maxScale > 0 {
			iscale := 15.0 / maxScale
			for j := 0; j < SubBlocksPerSuper; j++ {
				l := int64(math.RoundToEven(float64(iscale * scales[j])))
				superBlock.Scales[j] = uint8(l)
			}
			superBlock.SuperScale = floatfmt.Float32ToFP16(maxScale / 15.0)
		} else {
			superBlock.SuperScale = floatfmt.Float32ToFP16(0)
		}

		if maxAbsMin > 0 {
			iscale := 7.0 / maxAbsMin
			for j := 0; j < SubBlocksPerSuper; j++ {
				l := int64(math.RoundToEven(float64(iscale * mins[j])))
				if l < -8 {
					l = -8
				} else if l > 7 {
					l = 7
				}
				superBlock.Scales[j] |= uint8(l&0xF) << 4
			}
			superBlock.SuperMin = floatfmt.Float32ToFP16(maxAbsMin / 7.0)
		} else {
			superBlock.SuperMin = floatfmt.Float32ToFP16(0)
		}

		superScaleF := floatfmt.FP16ToFloat32(superBlock.SuperScale)
		superMinF := floatfmt.FP16ToFloat32(superBlock.SuperMin)

		for j := 0; j < SubBlocksPerSuper; j++ {
			tempScale := superScaleF * float32(superBlock.Scales[j]&0xF)
			minQ := int8(superBlock.Scales[j] >> 4)
			signedMinQ := (minQ << 4) >> 4
			tempMin := superMinF * float32(signedMinQ)

			for ii := 0; ii < SubBlockSize; ii++ {
				idx := j*SubBlockSize + ii
				var val float32
				if tempScale > 0 {
					val = (base[idx] - tempMin) / tempScale
				}
				l := int64(math.RoundToEven(float64(val)))
				if l < 0 {
					l = 0
				} else if l > 3 {
					l = 3
				}
				codes[idx] = uint8(l)
			}
		}

		for j := 0; j < SuperBlockElements; j += 128 {
			for l := 0; l < 32; l++ {
				b0 := codes[j+l]
				b1 := codes[j+l+32]
				b2 := codes[j+l+64]
				b3 := codes[j+l+96]
				superBlock.Data[j/4+l] = b0 | (b1 << 2) | (b2 << 4) | (b3 << 6)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CompressOptimal quantizes src using the Q2_K scale/min search.
func CompressOptimal(src []float32) (*Array, error) {
	return compress(src)
}

// CompressFast quantizes src using the Q2_K_FAST scale/min search. The
// source's fast path computes the identical closed-form scale/min as the
// "optimal" path, so this is the same routine under a distinct name.
func CompressFast(src []float32) (*Array, error) {
	return compress(src)
}

// Decompress expands a into dst, which must hold at least NumElements.
func (a *Array) Decompress(dst []float32) error {
	if uint64(len(dst)) < a.NumElements {
		return fmt.Errorf("q2k: destination too small")
	}
	if len(a.SuperBlocks) == 0 {
		return fmt.Errorf("q2k: no super-blocks")
	}

	var scales, mins [SubBlocksPerSuper]float32
	for s := range a.SuperBlocks {
		sb := &a.SuperBlocks[s]
		superScale := floatfmt.FP16ToFloat32(sb.SuperScale)
		superMin := floatfmt.FP16ToFloat32(sb.SuperMin)

		for i := 0; i < SubBlocksPerSuper; i++ {
			packed := sb.Scales[i]
			scales[i] = superScale * float32(packed&0xF)
			minQ := int8(packed >> 4)
			mins[i] = superMin * float32((minQ<<4)>>4)
		}

		baseIdx := uint64(s) * SuperBlockElements
		writeQuad := func(l int, strip int) {
			packedByte := sb.Data[strip*32+l]
			for k := 0; k < 4; k++ {
				local := strip*128 + k*32 + l
				idx := baseIdx + uint64(local)
				if idx >= a.NumElements {
					continue
				}
				code := (packedByte >> uint(k*2)) & 3
				dst[idx] = mins[local/16] + scales[local/16]*float32(code)
			}
		}
		for l := 0; l < 32; l++ {
			writeQuad(l, 0)
			writeQuad(l, 1)
		}
	}
	return nil
}

// Size returns the serialized payload size in bytes.
func (a *Array) Size() int64 {
	return 20 + int64(len(a.SuperBlocks))*int64(superBlockByteSize)
}

const superBlockByteSize = 2 + 2 + SubBlocksPerSuper + codesPerSuperBlock

// MarshalBinary serializes as (num_elements:u64, num_elements_aligned:u64,
// num_super_blocks:u32, super_blocks[...]).
func (a *Array) MarshalBinary() ([]byte, error) {
	buf := make([]byte, a.Size())
	binary.LittleEndian.PutUint64(buf[0:8], a.NumElements)
	binary.LittleEndian.PutUint64(buf[8:16], a.NumElementsAligned)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(a.SuperBlocks)))
	off := 20
	for i := range a.SuperBlocks {
		sb := &a.SuperBlocks[i]
		binary.LittleEndian.PutUint16(buf[off:], sb.SuperScale)
		off += 2
		binary.LittleEndian.PutUint16(buf[off:], sb.SuperMin)
		off += 2
		copy(buf[off:], sb.Scales[:])
		off += SubBlocksPerSuper
		copy(buf[off:], sb.Data[:])
		off += codesPerSuperBlock
	}
	return buf, nil
}

// UnmarshalBinary parses a payload previously produced by MarshalBinary.
func UnmarshalBinary(b []byte) (*Array, error) {
	if len(b) < 20 {
		return nil, fmt.Errorf("q2k: buffer too small")
	}
	numElements := binary.LittleEndian.Uint64(b[0:8])
	numElementsAligned := binary.LittleEndian.Uint64(b[8:16])
	nsb := binary.LittleEndian.Uint32(b[16:20])
	need := 20 + int(nsb)*superBlockByteSize
	if len(b) < need {
		return nil, fmt.Errorf("q2k: buffer too small")
	}
	a := &Array{
		NumElements:        numElements,
		NumElementsAligned: numElementsAligned,
		SuperBlocks:        make([]SuperBlock, nsb),
	}
	off := 20
	for i := range a.SuperBlocks {
		sb := &a.SuperBlocks[i]
		sb.SuperScale = binary.LittleEndian.Uint16(b[off:])
		off += 2
		sb.SuperMin = binary.LittleEndian.Uint16(b[off:])
		off += 2
		copy(sb.Scales[:], b[off:off+SubBlocksPerSuper])
		off += SubBlocksPerSuper
		copy(sb.Data[:], b[off:off+codesPerSuperBlock])
		off += codesPerSuperBlock
	}
	return a, nil
}
