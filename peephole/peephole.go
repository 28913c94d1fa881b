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

// Package peephole fuses PUSH+JUMP(I) pairs with constant, valid targets
// into a single augmented instruction, letting the JIT skip the dynamic
// dispatch table entirely for those jumps.
package peephole

import (
	"math/big"

	"github.com/n42blockchain/evmjit/bytecode"
	"github.com/n42blockchain/evmjit/opcode"
)

// Augment walks instrs with one-instruction lookahead and replaces every
// PUSH immediately followed by JUMP (resp. JUMPI) whose pushed value is a
// valid jump destination with a single AugmentedPushJump (resp.
// AugmentedPushJumpi) instruction carrying the same immediate bytes. Pairs
// whose target is not in valid is left untouched, so the runtime dynamic
// jump path still reports the invalid-jump error as usual.
func Augment(instrs []bytecode.Instruction, valid map[int]struct{}) []bytecode.Instruction {
	out := make([]bytecode.Instruction, 0, len(instrs))

	for i := 0; i < len(instrs); i++ {
		cur := instrs[i]

		if cur.Op.IsPush() && i+1 < len(instrs) {
			next := instrs[i+1]
			fused, ok := fuse(cur, next, valid)
			if ok {
				out = append(out, fused)
				i++ // consume next as well
				continue
			}
		}

		out = append(out, cur)
	}
	return out
}

func fuse(push, jump bytecode.Instruction, valid map[int]struct{}) (bytecode.Instruction, bool) {
	var target opcode.OpCode
	switch jump.Op {
	case opcode.JUMP:
		target = opcode.AugmentedPushJump
	case opcode.JUMPI:
		target = opcode.AugmentedPushJumpi
	default:
		return bytecode.Instruction{}, false
	}

	k := new(big.Int).SetBytes(push.Arg)
	if !k.IsUint64() {
		return bytecode.Instruction{}, false
	}
	if _, ok := valid[int(k.Uint64())]; !ok {
		return bytecode.Instruction{}, false
	}

	return bytecode.Instruction{
		Op:  target,
		PC:  push.PC,
		Len: push.Len + jump.Len,
		Arg: push.Arg,
	}, true
}
