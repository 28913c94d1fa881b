// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

// Package callback implements the runtime entry points generated code
// invokes for the opcodes that escape the pure-compute subset: SLOAD,
// SSTORE, EXP, and SHA3/KECCAK256. Each operates on the stack in place
// through a *evmctx.Context, reading its operands from and writing its
// result to the top of stack by the fixed convention documented on each
// function, exactly as a C-ABI callback invoked from generated code would.
package callback

import (
	"github.com/holiman/uint256"
	"github.com/n42blockchain/evmjit/evmctx"
	"golang.org/x/crypto/sha3"
)

// Status is the result word a callback returns, mirroring the 0=ok
// convention generated code already uses for its own status returns.
type Status uint64

const (
	StatusOK Status = 0
)

// SLoad implements SLOAD: pops the storage key from sp-1, pushes the
// stored value (zero on a miss, per EVM semantics — a storage miss is not
// an error) at the same slot.
func SLoad(ctx *evmctx.Context, sp int) Status {
	stack := ctx.StackPtr()
	key := stack[sp-1]
	stack[sp-1] = ctx.StorageView().Get(key)
	return StatusOK
}

// SStore implements SSTORE: pops key from sp-1 and value from sp-2,
// writes value at key. Both operands are consumed; the caller must adjust
// its stack pointer by -2 slots after the call, per the shared
// stack-in-place convention.
func SStore(ctx *evmctx.Context, sp int) Status {
	stack := ctx.StackPtr()
	key := stack[sp-1]
	value := stack[sp-2]
	ctx.StorageView().Set(key, value)
	return StatusOK
}

// Exp implements EXP: pops base from sp-1 and exponent from sp-2, pushes
// base**exponent mod 2**256 at sp-2 (the slot the operands vacate).
func Exp(ctx *evmctx.Context, sp int) Status {
	stack := ctx.StackPtr()
	base := stack[sp-1]
	exponent := stack[sp-2]
	var result uint256.Int
	result.Exp(&base, &exponent)
	stack[sp-2] = result
	return StatusOK
}

// Sha3 implements KECCAK256: pops memory offset from sp-1 and size from
// sp-2, reads that memory range, and pushes the Keccak-256 digest at sp-2.
func Sha3(ctx *evmctx.Context, sp int) Status {
	stack := ctx.StackPtr()
	offset := stack[sp-1].Uint64()
	size := stack[sp-2].Uint64()

	mem := ctx.MemoryPtr()
	var data []byte
	if size > 0 {
		data = mem[offset : offset+size]
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	digest := h.Sum(nil)

	var result uint256.Int
	result.SetBytes(digest)
	stack[sp-2] = result
	return StatusOK
}
