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

// Package bytecode decodes raw EVM bytecode into a typed instruction
// sequence and analyzes its control-flow, producing the indexed form the
// rest of the compiler pipeline (peephole, aotgen, jit) consumes.
package bytecode

import (
	"errors"
	"fmt"

	"github.com/n42blockchain/evmjit/opcode"
)

var (
	// ErrTruncatedPush is returned in ModeStrict when a PUSH's immediate
	// runs past the end of the bytecode.
	ErrTruncatedPush = errors.New("truncated PUSH immediate")
)

// Mode selects how the decoder handles a PUSH immediate that runs past
// the end of the bytecode.
type Mode int

const (
	// ModeStrict rejects truncated PUSH immediates with ErrTruncatedPush.
	ModeStrict Mode = iota
	// ModeLax zero-pads truncated PUSH immediates instead of failing.
	ModeLax
)

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	mode Mode
}

// WithMode selects strict or lax truncated-PUSH handling. The default,
// when no option is given, is ModeLax.
func WithMode(m Mode) DecodeOption {
	return func(c *decodeConfig) { c.mode = m }
}

// Instruction is one decoded opcode: its tag, its byte offset in the
// original code, the total byte length it occupies (1 for opcodes with no
// immediate, 1+n for PUSHn), and — for PUSH — its immediate bytes.
type Instruction struct {
	Op  opcode.OpCode
	PC  int
	Len int
	Arg []byte
}

// Decode streams over code and returns one Instruction per opcode,
// PUSH immediates consumed as part of the PUSH instruction rather than
// decoded separately. Under ModeStrict a PUSH whose immediate runs past
// end-of-code returns ErrTruncatedPush; under ModeLax (the default) the
// missing bytes are treated as zero, matching the teacher's tolerant
// zero-padding convention elsewhere in the codebase (common/types.FromHex).
func Decode(code []byte, opts ...DecodeOption) ([]Instruction, error) {
	cfg := decodeConfig{mode: ModeLax}
	for _, opt := range opts {
		opt(&cfg)
	}

	var instrs []Instruction
	for pc := 0; pc < len(code); {
		op := opcode.OpCode(code[pc])

		if !op.IsPush() {
			instrs = append(instrs, Instruction{Op: op, PC: pc, Len: 1})
			pc++
			continue
		}

		n := op.PushSize()
		end := pc + 1 + n
		if end > len(code) {
			if cfg.mode == ModeStrict {
				return nil, fmt.Errorf("%w: PUSH%d at pc=%d needs %d bytes, code has %d remaining", ErrTruncatedPush, n, pc, n, len(code)-pc-1)
			}
			arg := make([]byte, n)
			copy(arg, code[pc+1:])
			instrs = append(instrs, Instruction{Op: op, PC: pc, Len: 1 + n, Arg: arg})
			pc = len(code)
			continue
		}

		arg := make([]byte, n)
		copy(arg, code[pc+1:end])
		instrs = append(instrs, Instruction{Op: op, PC: pc, Len: 1 + n, Arg: arg})
		pc = end
	}
	return instrs, nil
}

// Serialize reconstructs the original bytecode from a decoded instruction
// sequence — the inverse of Decode, used to check the round-trip and
// augmentation-preserves-bytes invariants.
func Serialize(instrs []Instruction) []byte {
	var out []byte
	for _, instr := range instrs {
		switch instr.Op {
		case opcode.AugmentedPushJump:
			out = append(out, byte(opcode.PUSH1+opcode.OpCode(len(instr.Arg)-1)))
			out = append(out, instr.Arg...)
			out = append(out, byte(opcode.JUMP))
		case opcode.AugmentedPushJumpi:
			out = append(out, byte(opcode.PUSH1+opcode.OpCode(len(instr.Arg)-1)))
			out = append(out, instr.Arg...)
			out = append(out, byte(opcode.JUMPI))
		default:
			out = append(out, instr.Op.Byte())
			out = append(out, instr.Arg...)
		}
	}
	return out
}

// Analysis is the indexed form: bidirectional byte-PC <-> instruction-index
// maps plus the ordered and set forms of the valid jump-destination
// positions.
type Analysis struct {
	PCToIndex map[int]int
	IndexToPC []int
	JumpDests []int
	destSet   map[int]struct{}
}

// IsValidJumpDest reports whether pc is a JUMPDEST opcode that is not
// itself a byte inside a preceding PUSH's immediate.
func (a Analysis) IsValidJumpDest(pc int) bool {
	_, ok := a.destSet[pc]
	return ok
}

// Analyze walks instrs (as produced by Decode) and builds the indexed
// form. A byte position is only recorded as a valid jump destination when
// it is a JUMPDEST opcode and Decode did not consume it as a PUSH
// immediate — Decode already guarantees the latter, since it never emits
// a synthetic Instruction for bytes inside a PUSH's Arg.
func Analyze(instrs []Instruction) Analysis {
	a := Analysis{
		PCToIndex: make(map[int]int, len(instrs)),
		IndexToPC: make([]int, len(instrs)),
		destSet:   make(map[int]struct{}),
	}
	for i, instr := range instrs {
		a.PCToIndex[instr.PC] = i
		a.IndexToPC[i] = instr.PC
		if instr.Op == opcode.JUMPDEST {
			a.JumpDests = append(a.JumpDests, i)
			a.destSet[instr.PC] = struct{}{}
		}
	}
	return a
}
