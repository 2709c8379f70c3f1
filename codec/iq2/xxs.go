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

package iq2

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bitsqueeze/bitsqueeze/floatfmt"
	"github.com/bitsqueeze/bitsqueeze/internal/blockpool"
)

// SuperBlockSize is the number of elements in one IQ2 super-block, shared
// by all three variants.
const SuperBlockSize = 256

const kMaxQ = 3

const groupMaxEPS = 1e-8

// XXSArray holds a compressed IQ2_XXS payload. Each super-block carries
// one FP16 scale and 64 code bytes: per 32-element group, a pair of
// little-endian uint32 words packing four 8-bit grid indices, four 7-bit
// even-parity sign patterns, and one 4-bit group scale.
type XXSArray struct {
	NumElements    uint64
	NumSuperBlocks uint64
	Scales         []uint16
	Qs             []uint8 // 64 per super-block
}

func numSuperBlocks(n uint64) uint64 {
	return (n + SuperBlockSize - 1) / SuperBlockSize
}

// CompressXXS quantizes src against the 256-point IQ2_XXS grid.
func CompressXXS(src []float32) (*XXSArray, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("iq2: empty input")
	}
	n := uint64(len(src))
	nsb := numSuperBlocks(n)
	a := &XXSArray{
		NumElements:    n,
		NumSuperBlocks: nsb,
		Scales:         make([]uint16, nsb),
		Qs:             make([]uint8, nsb*64),
	}
	tables := xxsTables()

	err := blockpool.Run(int(nsb), func(sbi int) error {
		sb := uint64(sbi)
		var weight, xval, waux [32]float32
		var l, laux [32]int8
		var blockSigns [4]uint8
		var q2 [16]uint32
		var scales [8]float32

		blockStart := sb * SuperBlockSize
		blockEnd := blockStart + SuperBlockSize
		if blockEnd > n {
			blockEnd = n
		}

		var sumx2 float32
		for i := blockStart; i < blockEnd; i++ {
			sumx2 += src[i] * src[i]
		}
		sigma2 := sumx2 / float32(SuperBlockSize)

		var maxScale float32

		for ib := 0; ib < 8; ib++ {
			groupStart := blockStart + uint64(ib)*32
			for i := 0; i < 32; i++ {
				idx := groupStart + uint64(i)
				var v float32
				if idx < n {
					v = src[idx]
				}
				weight[i] = float32(math.Sqrt(float64(sigma2 + v*v)))
				waux[i] = float32(math.Sqrt(float64(weight[i])))
			}

			for k := 0; k < 4; k++ {
				var s uint8
				for i := 0; i < 8; i++ {
					idx := groupStart + uint64(8*k+i)
					var v float32
					if idx < n {
						v = src[idx]
					}
					if v >= 0 {
						xval[8*k+i] = v
					} else {
						xval[8*k+i] = -v
						s |= 1 << uint(i)
					}
				}
				blockSigns[k] = enforceEvenParity(xval[8*k:8*k+8], weight[8*k:8*k+8], s)
			}

			max := xval[0]
			for i := 1; i < 32; i++ {
				if xval[i] > max {
					max = xval[i]
				}
			}

			if max < groupMaxEPS {
				scales[ib] = 0
				for i := range l {
					l[i] = 0
				}
			} else {
				var best float32
				scale := max / (2*kMaxQ - 1)

				for is := -6; is <= 6; is++ {
					id := (2*kMaxQ - 1 + float32(is)*0.1) / max
					thisScale := 1.0 / id

					for k := 0; k < 4; k++ {
						var u uint32
						for i := 0; i < 8; i++ {
							lv := nearestInt(0.5 * (id*xval[8*k+i] - 1))
							if lv < 0 {
								lv = 0
							} else if lv > kMaxQ-1 {
								lv = kMaxQ - 1
							}
							laux[8*k+i] = int8(lv)
							u |= uint32(lv) << uint(2*i)
						}
						gi := tables.kmap[u]
						if gi < 0 {
							neighbours := tables.neighboursAt(gi)
							_, found := tables.findBestNeighbour(neighbours, xval[8*k:8*k+8], waux[8*k:8*k+8], thisScale)
							copy(laux[8*k:8*k+8], found[:])
						}
					}

					var sumqx, sumq2 float32
					for i := 0; i < 32; i++ {
						w := weight[i]
						q := float32(2*laux[i] + 1)
						sumqx += w * xval[i] * q
						sumq2 += w * q * q
					}
					if sumq2 > 0 && sumqx*sumqx > best*sumq2 {
						scale = sumqx / sumq2
						best = scale * sumqx
						l = laux
					}
				}

				// Final refinement: re-derive every sub-group from the
				// best-fit scale, then recompute it once more.
				if scale > 0 {
					id := 1.0 / scale
					for k := 0; k < 4; k++ {
						var u uint32
						for i := 0; i < 8; i++ {
							lv := nearestInt(0.5 * (id*xval[8*k+i] - 1))
							if lv < 0 {
								lv = 0
							} else if lv > kMaxQ-1 {
								lv = kMaxQ - 1
							}
							u |= uint32(lv) << uint(2*i)
						}
						gi := tables.kmap[u]
						if gi < 0 {
							neighbours := tables.neighboursAt(gi)
							_, found := tables.findBestNeighbour(neighbours, xval[8*k:8*k+8], waux[8*k:8*k+8], scale)
							copy(l[8*k:8*k+8], found[:])
						} else {
							entry := tables.grid[gi]
							for i := 0; i < 8; i++ {
								l[8*k+i] = (gridByte(entry, i) - 1) / 2
							}
						}
					}
					var sumqx, sumq2 float32
					for i := 0; i < 32; i++ {
						w := weight[i]
						q := float32(2*l[i] + 1)
						sumqx += w * xval[i] * q
						sumq2 += w * q * q
					}
					if sumq2 > 0 {
						scale = sumqx / sumq2
					}
				}

				if scale < 0 {
					scale = -scale
					for k := 0; k < 4; k++ {
						blockSigns[k] = (^blockSigns[k]) & 127
					}
				}

				scales[ib] = scale
				if scale > maxScale {
					maxScale = scale
				}
			}

			for k := 0; k < 4; k++ {
				var u uint32
				for i := 0; i < 8; i++ {
					u |= uint32(l[8*k+i]) << uint(2*i)
				}
				gi := tables.kmap[u]
				if gi < 0 {
					gi = 0
				}
				q2[2*ib+0] |= uint32(gi) << uint(8*k)
				q2[2*ib+1] |= uint32(blockSigns[k]) << uint(7*k)
			}
		}

		if maxScale == 0 {
			a.Scales[sb] = 0
			return nil
		}
		d := maxScale / 31.0
		a.Scales[sb] = floatfmt.Float32ToFP16(d)
		id := 1.0 / d
		for ib := 0; ib < 8; ib++ {
			lv := nearestInt(0.5 * (id*scales[ib] - 1))
			if lv < 0 {
				lv = 0
			} else if lv > 15 {
				lv = 15
			}
			q2[2*ib+1] |= uint32(lv) << 28
		}
		qs := a.Qs[sb*64 : sb*64+64]
		for i, w := range q2 {
			binary.LittleEndian.PutUint32(qs[4*i:], w)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Decompress expands a into dst, which must hold at least NumElements.
//
// The grid is normalized to {1,3,5,7} when built, so the group multiplier is
// d*(0.5+scale4)*2 rather than the raw-byte tables' d*(0.5+scale4)*0.25
// (those fold an extra factor of 8 into the grid bytes themselves).
func (a *XXSArray) Decompress(dst []float32) error {
	if uint64(len(dst)) < a.NumElements {
		return fmt.Errorf("iq2: destination too small")
	}
	tables := xxsTables()
	for sb := uint64(0); sb < a.NumSuperBlocks; sb++ {
		d := floatfmt.FP16ToFloat32(a.Scales[sb])
		qs := a.Qs[sb*64 : sb*64+64]
		blockStart := sb * SuperBlockSize

		for ib := 0; ib < 8; ib++ {
			aux0 := binary.LittleEndian.Uint32(qs[8*ib:])
			aux1 := binary.LittleEndian.Uint32(qs[8*ib+4:])
			db := d * (0.5 + float32(aux1>>28)) * 2

			for k := 0; k < 4; k++ {
				gridIdx := (aux0 >> uint(8*k)) & 255
				signs := ksignsIQ2[(aux1>>uint(7*k))&127]
				entry := tables.grid[gridIdx]
				outBase := blockStart + uint64(ib)*32 + uint64(k)*8
				for j := 0; j < 8; j++ {
					idx := outBase + uint64(j)
					if idx >= a.NumElements {
						break
					}
					val := db * float32(gridByte(entry, j))
					if signs&kmaskIQ2[j] != 0 {
						val = -val
					}
					dst[idx] = val
				}
			}
		}
	}
	return nil
}

// Size returns the serialized payload size in bytes.
func (a *XXSArray) Size() int64 {
	return 16 + int64(len(a.Scales))*2 + int64(len(a.Qs))
}

// MarshalBinary serializes as (num_elements:u64, num_super_blocks:u64,
// scales:u16[nsb], qs:u8[nsb*64]).
func (a *XXSArray) MarshalBinary() ([]byte, error) {
	buf := make([]byte, a.Size())
	binary.LittleEndian.PutUint64(buf[0:8], a.NumElements)
	binary.LittleEndian.PutUint64(buf[8:16], a.NumSuperBlocks)
	off := 16
	for _, s := range a.Scales {
		binary.LittleEndian.PutUint16(buf[off:], s)
		off += 2
	}
	copy(buf[off:], a.Qs)
	return buf, nil
}

// UnmarshalXXSBinary parses a payload previously produced by MarshalBinary.
func UnmarshalXXSBinary(b []byte) (*XXSArray, error) {
	if len(b) < 16 {
		return nil, fmt.Errorf("iq2: buffer too small")
	}
	numElements := binary.LittleEndian.Uint64(b[0:8])
	nsb := binary.LittleEndian.Uint64(b[8:16])
	need := 16 + int(nsb)*2 + int(nsb)*64
	if len(b) < need {
		return nil, fmt.Errorf("iq2: buffer too small")
	}
	a := &XXSArray{NumElements: numElements, NumSuperBlocks: nsb}
	off := 16
	a.Scales = make([]uint16, nsb)
	for i := range a.Scales {
		a.Scales[i] = binary.LittleEndian.Uint16(b[off:])
		off += 2
	}
	a.Qs = make([]uint8, nsb*64)
	copy(a.Qs, b[off:])
	return a, nil
}
