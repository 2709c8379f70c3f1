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

// Package bitsqueeze binds every codec to a uniform envelope: a method
// tag, a shape, and the codec's serialized payload in one contiguous
// arena. Envelopes are immutable once created and round-trip through raw
// bytes via Load.
package bitsqueeze

import (
	"encoding/binary"
	"math"

	"github.com/bitsqueeze/bitsqueeze/codec/bf16"
	"github.com/bitsqueeze/bitsqueeze/codec/fp16"
	"github.com/bitsqueeze/bitsqueeze/codec/fp4"
	"github.com/bitsqueeze/bitsqueeze/codec/fp8"
	"github.com/bitsqueeze/bitsqueeze/codec/iq2"
	"github.com/bitsqueeze/bitsqueeze/codec/mxfp4"
	"github.com/bitsqueeze/bitsqueeze/codec/mxfp8"
	"github.com/bitsqueeze/bitsqueeze/codec/nf4"
	"github.com/bitsqueeze/bitsqueeze/codec/nf4dq"
	"github.com/bitsqueeze/bitsqueeze/codec/nvfp4"
	"github.com/bitsqueeze/bitsqueeze/codec/q2k"
	"github.com/bitsqueeze/bitsqueeze/codec/q40"
	"github.com/bitsqueeze/bitsqueeze/codec/q80"
	"github.com/bitsqueeze/bitsqueeze/codec/sparse"
)

// headerSize is the fixed envelope header length: method:i32,
// num_elements:u64, num_tokens:u16, num_features:u16, sparse_ratio:f32.
// The payload always begins immediately after it.
const headerSize = 20

// payload is the per-codec surface the envelope needs: every codec
// package's Array type satisfies it.
type payload interface {
	Decompress(dst []float32) error
	Size() int64
	MarshalBinary() ([]byte, error)
}

// Envelope is a compressed tensor: a method tag, the dense shape, and the
// codec payload serialized into a single arena. All payload array views
// are re-derived from the arena by the codec's fixed layout rule, so an
// envelope survives a bytewise copy.
type Envelope struct {
	method      Method
	numElements uint64
	numTokens   uint16
	numFeatures uint16
	sparseRatio float32
	arena       []byte
	payload     payload
}

// Method returns the codec tag.
func (e *Envelope) Method() Method { return e.method }

// NumElements returns the dense element count the envelope decompresses to.
func (e *Envelope) NumElements() uint64 { return e.numElements }

// Shape returns the 2D shape for sparse envelopes; tokens and features
// are zero for 1D codecs.
func (e *Envelope) Shape() (tokens, features uint16, sparseRatio float32) {
	return e.numTokens, e.numFeatures, e.sparseRatio
}

// Bytes returns the serialized envelope: header followed by payload.
// The slice aliases the envelope's arena and must not be modified.
func (e *Envelope) Bytes() []byte { return e.arena }

// PackedSize returns the serialized byte size of the envelope.
func PackedSize(e *Envelope) int64 {
	if e == nil {
		return 0
	}
	return int64(len(e.arena))
}

func sealEnvelope(e *Envelope) (*Envelope, error) {
	pb, err := e.payload.MarshalBinary()
	if err != nil {
		return nil, errf(ErrCodec, "marshal "+e.method.String()+" payload", err)
	}
	arena := make([]byte, headerSize+len(pb))
	binary.LittleEndian.PutUint32(arena[0:4], uint32(e.method))
	binary.LittleEndian.PutUint64(arena[4:12], e.numElements)
	binary.LittleEndian.PutUint16(arena[12:14], e.numTokens)
	binary.LittleEndian.PutUint16(arena[14:16], e.numFeatures)
	binary.LittleEndian.PutUint32(arena[16:20], math.Float32bits(e.sparseRatio))
	copy(arena[headerSize:], pb)
	e.arena = arena
	return e, nil
}

func compressPayload(src []float32, method Method) (payload, error) {
	switch method {
	case Q8_0:
		return q80.Compress(src)
	case Q4_0:
		return q40.Compress(src)
	case Q2_K:
		return q2k.CompressOptimal(src)
	case Q2_KFast:
		return q2k.CompressFast(src)
	case BF16:
		return bf16.Compress(src)
	case FP16:
		return fp16.Compress(src)
	case FP8:
		return fp8.Compress(src)
	case FP4:
		return fp4.Compress(src)
	case MXFP8:
		return mxfp8.Compress(src)
	case MXFP4:
		return mxfp4.Compress(src)
	case NVFP4:
		return nvfp4.Compress(src)
	case NF4:
		return nf4.Compress(src)
	case NF4_DQ:
		return nf4dq.Compress(src)
	case IQ2_XXS:
		return iq2.CompressXXS(src)
	case IQ2_XS:
		return iq2.CompressXS(src)
	case IQ2_S:
		return iq2.CompressS(src)
	default:
		return nil, errf(ErrInvalidArgument, "compress "+method.String(), nil)
	}
}

func unmarshalPayload(method Method, b []byte) (payload, error) {
	switch method {
	case Q8_0:
		return q80.UnmarshalBinary(b)
	case Q4_0:
		return q40.UnmarshalBinary(b)
	case Q2_K, Q2_KFast:
		return q2k.UnmarshalBinary(b)
	case BF16:
		return bf16.UnmarshalBinary(b)
	case FP16:
		return fp16.UnmarshalBinary(b)
	case FP8:
		return fp8.UnmarshalBinary(b)
	case FP4:
		return fp4.UnmarshalBinary(b)
	case MXFP8:
		return mxfp8.UnmarshalBinary(b)
	case MXFP4:
		return mxfp4.UnmarshalBinary(b)
	case NVFP4:
		return nvfp4.UnmarshalBinary(b)
	case NF4:
		return nf4.UnmarshalBinary(b)
	case NF4_DQ:
		return nf4dq.UnmarshalBinary(b)
	case IQ2_XXS:
		return iq2.UnmarshalXXSBinary(b)
	case IQ2_XS:
		return iq2.UnmarshalXSBinary(b)
	case IQ2_S:
		return iq2.UnmarshalSBinary(b)
	case TOPK, TOPKIM:
		return sparse.UnmarshalBinary(b)
	default:
		return nil, errf(ErrInvalidArgument, "load "+method.String(), nil)
	}
}

// Compress1D compresses a flat FP32 slice with any dense codec. The
// sparse methods need a 2D shape and are rejected here.
func Compress1D(src []float32, method Method) (*Envelope, error) {
	if len(src) == 0 {
		return nil, errf(ErrInvalidArgument, "compress "+method.String()+": empty input", nil)
	}
	if !method.Valid() || method.IsSparse() {
		return nil, errf(ErrInvalidArgument, "compress "+method.String()+": not a 1D codec", nil)
	}
	p, err := compressPayload(src, method)
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, errf(ErrCodec, "compress "+method.String(), err)
	}
	return sealEnvelope(&Envelope{
		method:      method,
		numElements: uint64(len(src)),
		payload:     p,
	})
}

// Compress2D compresses a tokens x features matrix with a sparse codec.
// TOPK ranks entries by |value| and requires importance to be nil; TOPKIM
// ranks by the supplied importance scores.
func Compress2D(src []float32, tokens, features uint16, sparseRatio float32, method Method, importance []float32) (*Envelope, error) {
	if len(src) == 0 || tokens == 0 || features == 0 {
		return nil, errf(ErrInvalidArgument, "compress "+method.String()+": empty input", nil)
	}
	if !method.IsSparse() {
		return nil, errf(ErrInvalidArgument, "compress "+method.String()+": not a 2D codec", nil)
	}
	n := uint64(tokens) * uint64(features)
	if uint64(len(src)) < n {
		return nil, errf(ErrInvalidArgument, "compress "+method.String()+": input shorter than tokens*features", nil)
	}

	var p *sparse.Array
	var err error
	switch method {
	case TOPK:
		if importance != nil {
			return nil, errf(ErrInvalidArgument, "compress topk: unexpected importance array", nil)
		}
		p, err = sparse.Compress(src, tokens, features, sparseRatio)
	case TOPKIM:
		if importance == nil {
			return nil, errf(ErrInvalidArgument, "compress topk_im: missing importance array", nil)
		}
		p, err = sparse.CompressImportance(src, importance, tokens, features, sparseRatio)
	}
	if err != nil {
		return nil, errf(ErrCodec, "compress "+method.String(), err)
	}
	return sealEnvelope(&Envelope{
		method:      method,
		numElements: n,
		numTokens:   tokens,
		numFeatures: features,
		sparseRatio: sparseRatio,
		payload:     p,
	})
}

// Decompress expands the envelope into dst, which must hold at least
// NumElements values. Positions past NumElements are left untouched.
func Decompress(e *Envelope, dst []float32) error {
	if e == nil || e.payload == nil {
		return errf(ErrInvalidArgument, "decompress nil envelope", nil)
	}
	if uint64(len(dst)) < e.numElements {
		return errf(ErrBufferTooSmall, "decompress "+e.method.String(), nil)
	}
	if err := e.payload.Decompress(dst); err != nil {
		return errf(ErrCodec, "decompress "+e.method.String(), err)
	}
	return nil
}

// Apply overlays the envelope's retained values onto dst without
// clearing the rest, re-injecting sparse corrections over an existing
// dense tensor. Only the sparse codecs define an overlay; every other
// method is rejected.
func Apply(e *Envelope, dst []float32) error {
	if e == nil || e.payload == nil {
		return errf(ErrInvalidArgument, "apply nil envelope", nil)
	}
	sp, ok := e.payload.(*sparse.Array)
	if !ok {
		return errf(ErrInvalidArgument, "apply "+e.method.String()+": overlay undefined for dense codecs", nil)
	}
	if uint64(len(dst)) < e.numElements {
		return errf(ErrBufferTooSmall, "apply "+e.method.String(), nil)
	}
	if err := sp.Apply(dst); err != nil {
		return errf(ErrCodec, "apply "+e.method.String(), err)
	}
	return nil
}

// Load reconstructs an envelope from serialized bytes. The input is
// copied into a fresh arena and the payload views are re-derived from
// the codec's layout rule; b may be reused afterwards.
func Load(b []byte) (env *Envelope, err error) {
	if len(b) < headerSize {
		return nil, errf(ErrBufferTooSmall, "load envelope header", nil)
	}
	// A corrupt header can declare absurd array lengths; the codec
	// parsers then panic inside make. Surface that as an allocation
	// failure instead of crashing the caller.
	defer func() {
		if r := recover(); r != nil {
			env = nil
			err = errf(ErrAllocation, "load envelope", nil)
		}
	}()

	method := Method(int32(binary.LittleEndian.Uint32(b[0:4])))
	if !method.Valid() {
		return nil, errf(ErrInvalidArgument, "load "+method.String(), nil)
	}
	numElements := binary.LittleEndian.Uint64(b[4:12])
	numTokens := binary.LittleEndian.Uint16(b[12:14])
	numFeatures := binary.LittleEndian.Uint16(b[14:16])
	sparseRatio := math.Float32frombits(binary.LittleEndian.Uint32(b[16:20]))

	p, perr := unmarshalPayload(method, b[headerSize:])
	if perr != nil {
		return nil, errf(ErrBufferTooSmall, "load "+method.String()+" payload", perr)
	}
	packed := headerSize + int(p.Size())
	arena := make([]byte, packed)
	copy(arena, b[:packed])

	return &Envelope{
		method:      method,
		numElements: numElements,
		numTokens:   numTokens,
		numFeatures: numFeatures,
		sparseRatio: sparseRatio,
		arena:       arena,
		payload:     p,
	}, nil
}
