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

// SArray holds a compressed IQ2_S payload. Each super-block carries one
// FP16 scale and, per 8-element sub-group, a 10-bit grid index split
// between Qs (low 8 bits, first 32 bytes) and Qh (2 high bits), plus a
// full 8-bit sign byte (second 32 bytes of Qs). Sub-group scales pack two
// 4-bit values per Scales byte.
type SArray struct {
	NumElements    uint64
	NumSuperBlocks uint64
	D              []uint16
	Qs             []uint8 // 64 per super-block: 32 index bytes + 32 sign bytes
	Qh             []uint8 // 8 per super-block
	Scales         []uint8 // 8 per super-block
}

// CompressS quantizes src against the 1024-point IQ2_S grid. Signs are
// stored verbatim per 8-element sub-group, so no parity flip is applied.
func CompressS(src []float32) (*SArray, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("iq2: empty input")
	}
	n := uint64(len(src))
	nsb := numSuperBlocks(n)
	a := &SArray{
		NumElements:    n,
		NumSuperBlocks: nsb,
		D:              make([]uint16, nsb),
		Qs:             make([]uint8, nsb*64),
		Qh:             make([]uint8, nsb*8),
		Scales:         make([]uint8, nsb*8),
	}
	tables := sTables()

	err := blockpool.Run(int(nsb), func(sbi int) error {
		sb := uint64(sbi)
		var weight, xval, waux [16]float32
		var l, laux [16]int8
		var blockSigns [2]uint8
		var gridIndices [32]int
		var signPatterns [32]uint8
		var scales [16]float32

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

		for ib := 0; ib < 16; ib++ {
			groupStart := blockStart + uint64(ib)*16
			for i := 0; i < 16; i++ {
				idx := groupStart + uint64(i)
				var v float32
				if idx < n {
					v = src[idx]
				}
				weight[i] = float32(math.Sqrt(float64(sigma2 + v*v)))
				waux[i] = float32(math.Sqrt(float64(weight[i])))
			}

			for k := 0; k < 2; k++ {
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
				blockSigns[k] = s
			}

			max := xval[0]
			for i := 1; i < 16; i++ {
				if xval[i] > max {
					max = xval[i]
				}
			}

			if max < groupMaxEPS {
				scales[ib] = 0
				for i := range l {
					l[i] = 0
				}
				gridIndices[2*ib+0] = 0
				gridIndices[2*ib+1] = 0
			} else {
				var best float32
				scale := max / (2*kMaxQ - 1)

				for is := -9; is <= 9; is++ {
					id := (2*kMaxQ - 1 + float32(is)*0.1) / max
					thisScale := 1.0 / id

					for k := 0; k < 2; k++ {
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
					for i := 0; i < 16; i++ {
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

				if scale > 0 {
					id := 1.0 / scale
					for k := 0; k < 2; k++ {
						var u uint32
						for i := 0; i < 8; i++ {
							lv := nearestInt(0.5 * (id*xval[8*k+i] - 1))
							if lv < 0 {
								lv = 0
							} else if lv > kMaxQ-1 {
								lv = kMaxQ - 1
							}
							u |= uint32(lv) << uint(2*i)
							l[8*k+i] = int8(lv)
						}
						gi := int(tables.kmap[u])
						if gi < 0 {
							neighbours := tables.neighboursAt(int32(gi))
							found, fl := tables.findBestNeighbour(neighbours, xval[8*k:8*k+8], waux[8*k:8*k+8], scale)
							copy(l[8*k:8*k+8], fl[:])
							gi = found
						}
						if gi < 0 {
							gi = 0
						}
						gridIndices[2*ib+k] = gi
					}

					var sumqx, sumq2 float32
					for i := 0; i < 16; i++ {
						w := weight[i]
						q := float32(2*l[i] + 1)
						sumqx += w * xval[i] * q
						sumq2 += w * q * q
					}
					if sumq2 > 0 {
						scale = sumqx / sumq2
					}
				} else {
					gridIndices[2*ib+0] = 0
					gridIndices[2*ib+1] = 0
				}

				if scale < 0 {
					scale = -scale
				}
				scales[ib] = scale
				if scale > maxScale {
					maxScale = scale
				}
			}

			signPatterns[2*ib+0] = blockSigns[0]
			signPatterns[2*ib+1] = blockSigns[1]
		}

		if maxScale == 0 {
			a.D[sb] = 0
			return nil
		}
		d := maxScale / 31.0
		a.D[sb] = floatfmt.Float32ToFP16(d)
		id := 1.0 / d

		qs := a.Qs[sb*64 : sb*64+64]
		qh := a.Qh[sb*8 : sb*8+8]
		for ib32 := 0; ib32 < 8; ib32++ {
			l0 := nearestInt(0.5 * (id*scales[2*ib32+0] - 1))
			l1 := nearestInt(0.5 * (id*scales[2*ib32+1] - 1))
			if l0 < 0 {
				l0 = 0
			} else if l0 > 15 {
				l0 = 15
			}
			if l1 < 0 {
				l1 = 0
			} else if l1 > 15 {
				l1 = 15
			}
			a.Scales[sb*8+uint64(ib32)] = uint8(l0 | l1<<4)

			var qhByte uint8
			for l := 0; l < 4; l++ {
				gi := gridIndices[ib32*4+l]
				qs[4*ib32+l] = uint8(gi & 0xFF)
				qhByte |= uint8((gi>>8)&0x3) << uint(2*l)
				qs[32+4*ib32+l] = signPatterns[ib32*4+l]
			}
			qh[ib32] = qhByte
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Decompress expands a into dst, which must hold at least NumElements.
// The sub-group multiplier uses the normalized grid convention described
// on XXSArray.Decompress.
func (a *SArray) Decompress(dst []float32) error {
	if uint64(len(dst)) < a.NumElements {
		return fmt.Errorf("iq2: destination too small")
	}
	tables := sTables()
	for sb := uint64(0); sb < a.NumSuperBlocks; sb++ {
		d := floatfmt.FP16ToFloat32(a.D[sb])
		qs := a.Qs[sb*64 : sb*64+64]
		qh := a.Qh[sb*8 : sb*8+8]
		signs := qs[32:]
		scalesBlock := a.Scales[sb*8 : sb*8+8]
		blockStart := sb * SuperBlockSize

		for ib32 := 0; ib32 < 8; ib32++ {
			var db [2]float32
			db[0] = d * (0.5 + float32(scalesBlock[ib32]&0xF)) * 2
			db[1] = d * (0.5 + float32(scalesBlock[ib32]>>4)) * 2

			for l := 0; l < 4; l++ {
				dl := db[l/2]
				gridIdx := uint16(qs[4*ib32+l]) | (uint16(qh[ib32])<<uint(8-2*l))&0x300
				entry := tables.grid[gridIdx]
				signByte := signs[4*ib32+l]
				outBase := blockStart + uint64(ib32)*32 + uint64(l)*8
				for j := 0; j < 8; j++ {
					idx := outBase + uint64(j)
					if idx >= a.NumElements {
						break
					}
					val := dl * float32(gridByte(entry, j))
					if signByte&kmaskIQ2[j] != 0 {
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
func (a *SArray) Size() int64 {
	return 16 + int64(len(a.D))*2 + int64(len(a.Qs)) + int64(len(a.Qh)) + int64(len(a.Scales))
}

// MarshalBinary serializes as (num_elements:u64, num_super_blocks:u64,
// d:u16[nsb], qs:u8[nsb*64], qh:u8[nsb*8], scales:u8[nsb*8]).
func (a *SArray) MarshalBinary() ([]byte, error) {
	buf := make([]byte, a.Size())
	binary.LittleEndian.PutUint64(buf[0:8], a.NumElements)
	binary.LittleEndian.PutUint64(buf[8:16], a.NumSuperBlocks)
	off := 16
	for _, d := range a.D {
		binary.LittleEndian.PutUint16(buf[off:], d)
		off += 2
	}
	off += copy(buf[off:], a.Qs)
	off += copy(buf[off:], a.Qh)
	copy(buf[off:], a.Scales)
	return buf, nil
}

// UnmarshalSBinary parses a payload previously produced by MarshalBinary.
func UnmarshalSBinary(b []byte) (*SArray, error) {
	if len(b) < 16 {
		return nil, fmt.Errorf("iq2: buffer too small")
	}
	numElements := binary.LittleEndian.Uint64(b[0:8])
	nsb := binary.LittleEndian.Uint64(b[8:16])
	need := 16 + int(nsb)*2 + int(nsb)*64 + int(nsb)*8 + int(nsb)*8
	if len(b) < need {
		return nil, fmt.Errorf("iq2: buffer too small")
	}
	a := &SArray{NumElements: numElements, NumSuperBlocks: nsb}
	off := 16
	a.D = make([]uint16, nsb)
	for i := range a.D {
		a.D[i] = binary.LittleEndian.Uint16(b[off:])
		off += 2
	}
	a.Qs = make([]uint8, nsb*64)
	off += copy(a.Qs, b[off:off+int(nsb)*64])
	a.Qh = make([]uint8, nsb*8)
	off += copy(a.Qh, b[off:off+int(nsb)*8])
	a.Scales = make([]uint8, nsb*8)
	copy(a.Scales, b[off:off+int(nsb)*8])
	return a, nil
}
