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

// Package testdata builds raw EVM bytecode for scenario tests. It is
// not a production compiler input: construction errors panic, and
// callers are expected to know the bytecode they're asking for is valid.
package testdata

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/n42blockchain/evmjit/opcode"
)

// Program is a simple bytecode container used to construct scenario
// fixtures against this module's own opcode package, instead of an EVM
// implementation's core/vm.
type Program struct {
	code []byte
}

// New creates an empty Program.
func New() *Program {
	return &Program{code: make([]byte, 0)}
}

func (p *Program) add(b byte) *Program {
	p.code = append(p.code, b)
	return p
}

func (p *Program) doPush(val *uint256.Int) *Program {
	if val == nil {
		val = new(uint256.Int)
	}
	valBytes := val.Bytes()
	if len(valBytes) == 0 {
		valBytes = []byte{0}
	}
	p.add(byte(opcode.PUSH1) - 1 + byte(len(valBytes)))
	p.code = append(p.code, valBytes...)
	return p
}

// Push appends a PUSHn instruction for val, sized to val's minimal byte
// representation (at least 1 byte, so a zero value becomes PUSH1 0).
func (p *Program) Push(val any) *Program {
	switch v := val.(type) {
	case int:
		p.doPush(new(uint256.Int).SetUint64(uint64(v)))
	case uint64:
		p.doPush(new(uint256.Int).SetUint64(v))
	case *big.Int:
		p.doPush(uint256.MustFromBig(v))
	case *uint256.Int:
		p.doPush(v)
	case uint256.Int:
		p.doPush(&v)
	case []byte:
		p.doPush(new(uint256.Int).SetBytes(v))
	default:
		panic("testdata: unsupported Push value type")
	}
	return p
}

// Op appends one or more raw opcodes with no immediate.
func (p *Program) Op(ops ...opcode.OpCode) *Program {
	for _, op := range ops {
		p.add(op.Byte())
	}
	return p
}

// Label returns the byte offset the next appended instruction will land
// at — the PC a Jump/JumpIf call for a not-yet-emitted destination needs.
func (p *Program) Label() int {
	return len(p.code)
}

// Jumpdest appends a JUMPDEST and returns its own PC.
func (p *Program) Jumpdest() (*Program, int) {
	here := p.Label()
	p.Op(opcode.JUMPDEST)
	return p, here
}

// Jump pushes dest and appends JUMP.
func (p *Program) Jump(dest any) *Program {
	p.Push(dest)
	return p.Op(opcode.JUMP)
}

// JumpIf pushes cond then dest, so dest ends up on top of stack (the
// position JUMPI's target operand is read from) with cond just below it,
// and appends JUMPI.
func (p *Program) JumpIf(dest any, cond any) *Program {
	p.Push(cond)
	p.Push(dest)
	return p.Op(opcode.JUMPI)
}

// Sstore stores value at slot.
func (p *Program) Sstore(slot, value any) *Program {
	p.Push(value)
	p.Push(slot)
	return p.Op(opcode.SSTORE)
}

// Bytes returns the assembled bytecode. Not a copy.
func (p *Program) Bytes() []byte {
	return p.code
}
