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

// Package jit compiles a decoded, augmented instruction sequence into a
// Program: a slice of closures, one per instruction, threading a Book
// (stack-pointer bookkeeping) between them in place of the
// phi nodes a true LLVM basic-block lowering would use. Dynamic JUMP and
// JUMPI targets are resolved at run time by a linear comparison chain
// over the contract's jump destinations, mirroring the block-per-target
// chain a native JIT builds instead of a hash lookup, so the compiled
// Program's control flow shape matches what generated machine code would
// actually execute.
package jit

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/n42blockchain/evmjit/bytecode"
	"github.com/n42blockchain/evmjit/callback"
	"github.com/n42blockchain/evmjit/evmctx"
	"github.com/n42blockchain/evmjit/opcode"
)

// ErrInvalidJump is returned (as the Result status) when a dynamic JUMP
// or JUMPI's target does not land on a JUMPDEST belonging to the
// contract, or when the contract has no valid jump destinations at all.
var ErrInvalidJump = errors.New("jit: invalid jump destination")

// Signal is the control-flow outcome of one closure: fall through to the
// next instruction, jump to a specific instruction index, or halt.
type signalKind int

const (
	signalNext signalKind = iota
	signalJump
	signalHalt
)

type signal struct {
	kind   signalKind
	target int
	status uint64
	offset int
	size   int
}

// Book is the bookkeeping threaded between closures in place of phi
// nodes: the current stack depth and nothing else needs carrying,
// because the stack and memory themselves live at fixed addresses in
// *evmctx.Context for the lifetime of one Program.Run call.
type Book struct {
	SP int
}

type closure func(ctx *evmctx.Context, book *Book) signal

// Program is a compiled, directly runnable instruction sequence.
type Program struct {
	closures  []closure
	analysis  bytecode.Analysis
	jumpdests []int // instruction indices, in ascending PC order
}

// Compile lowers a decoded and (optionally) peephole-augmented
// instruction sequence into a Program. analysis must have been computed
// from the same instrs slice.
func Compile(instrs []bytecode.Instruction, analysis bytecode.Analysis) (*Program, error) {
	jumpdests := make([]int, 0, len(analysis.JumpDests))
	for i, instr := range instrs {
		if instr.Op == opcode.JUMPDEST {
			jumpdests = append(jumpdests, i)
		}
	}

	p := &Program{
		closures:  make([]closure, len(instrs)),
		analysis:  analysis,
		jumpdests: jumpdests,
	}

	for i, instr := range instrs {
		c, err := compileOne(p, i, instr)
		if err != nil {
			return nil, fmt.Errorf("jit: compiling instruction %d (%s): %w", i, instr.Op, err)
		}
		p.closures[i] = c
	}
	return p, nil
}

// Result is the structured outcome of running a Program to completion.
type Result struct {
	Status uint64
	Offset int
	Size   int
}

// Run executes the compiled program against ctx starting from
// instruction 0 and the given initial stack pointer, following jump
// closures until one returns a halt signal.
func (p *Program) Run(ctx *evmctx.Context, initialSP int) Result {
	book := &Book{SP: initialSP}
	pc := 0
	for {
		if pc < 0 || pc >= len(p.closures) {
			return Result{Status: uint64(2)}
		}
		sig := p.closures[pc](ctx, book)
		switch sig.kind {
		case signalNext:
			pc++
		case signalJump:
			pc = sig.target
		case signalHalt:
			return Result{Status: sig.status, Offset: sig.offset, Size: sig.size}
		}
	}
}

// dispatchJump builds the linear-chain resolution of a dynamic jump
// target against p's jump destinations, returning the instruction index
// to continue at or -1 if target matches no JUMPDEST.
func (p *Program) dispatchJump(target uint256.Int) int {
	if !target.IsUint64() {
		return -1
	}
	want := target.Uint64()
	for _, idx := range p.jumpdests {
		if uint64(p.analysis.IndexToPC[idx]) == want {
			return idx
		}
	}
	return -1
}

func compileOne(p *Program, index int, instr bytecode.Instruction) (closure, error) {
	op := instr.Op

	switch {
	case op == opcode.RETURN || op == opcode.REVERT:
		return compileReturn(op), nil
	case op.IsTerminal():
		return compileTerminal(op), nil
	case op.IsPush():
		return compilePush(instr), nil
	case op.IsDup():
		return compileDup(int(op-opcode.DUP1) + 1), nil
	case op.IsSwap():
		return compileSwap(int(op-opcode.SWAP1) + 1), nil
	}

	switch op {
	case opcode.JUMPDEST:
		return compileNop(), nil
	case opcode.JUMP:
		return compileJump(p), nil
	case opcode.JUMPI:
		return compileJumpi(p), nil
	case opcode.AugmentedPushJump:
		target, err := instrs32(instr.Arg)
		if err != nil {
			return nil, err
		}
		return compileAugmentedJump(p, target), nil
	case opcode.AugmentedPushJumpi:
		target, err := instrs32(instr.Arg)
		if err != nil {
			return nil, err
		}
		return compileAugmentedJumpi(p, target), nil
	case opcode.ADD:
		return compileBinOp((*uint256.Int).Add), nil
	case opcode.SUB:
		return compileBinOp((*uint256.Int).Sub), nil
	case opcode.MUL:
		return compileBinOp((*uint256.Int).Mul), nil
	case opcode.DIV:
		return compileBinOp((*uint256.Int).Div), nil
	case opcode.SDIV:
		return compileBinOp((*uint256.Int).SDiv), nil
	case opcode.MOD:
		return compileBinOp((*uint256.Int).Mod), nil
	case opcode.SMOD:
		return compileBinOp((*uint256.Int).SMod), nil
	case opcode.AND:
		return compileBinOp((*uint256.Int).And), nil
	case opcode.OR:
		return compileBinOp((*uint256.Int).Or), nil
	case opcode.XOR:
		return compileBinOp((*uint256.Int).Xor), nil
	case opcode.SHL:
		return compileShift(true), nil
	case opcode.SHR:
		return compileShift(false), nil
	case opcode.LT:
		return compileCompare(func(a, b *uint256.Int) bool { return a.Lt(b) }), nil
	case opcode.GT:
		return compileCompare(func(a, b *uint256.Int) bool { return a.Gt(b) }), nil
	case opcode.SLT:
		return compileCompare(func(a, b *uint256.Int) bool { return a.Slt(b) }), nil
	case opcode.SGT:
		return compileCompare(func(a, b *uint256.Int) bool { return a.Sgt(b) }), nil
	case opcode.EQ:
		return compileCompare(func(a, b *uint256.Int) bool { return a.Eq(b) }), nil
	case opcode.ISZERO:
		return compileUnaryPredicate(func(a *uint256.Int) bool { return a.IsZero() }), nil
	case opcode.NOT:
		return compileUnOp((*uint256.Int).Not), nil
	case opcode.POP:
		return compilePop(), nil
	case opcode.MLOAD:
		return compileMLoad(), nil
	case opcode.MSTORE:
		return compileMStore(), nil
	case opcode.MSTORE8:
		return compileMStore8(), nil
	case opcode.SLOAD:
		return compileCallback(callback.SLoad, 0), nil
	case opcode.SSTORE:
		return compileCallback(callback.SStore, -2), nil
	case opcode.EXP:
		return compileCallback(callback.Exp, -1), nil
	case opcode.KECCAK256:
		return compileCallback(callback.Sha3, -1), nil
	default:
		return compileNop(), nil
	}
}

func instrs32(arg []byte) (uint256.Int, error) {
	var v uint256.Int
	v.SetBytes(arg)
	return v, nil
}

func compileNop() closure {
	return func(ctx *evmctx.Context, book *Book) signal { return signal{kind: signalNext} }
}

func compileTerminal(op opcode.OpCode) closure {
	status := uint64(0)
	if op == opcode.INVALID {
		status = 1
	}
	return func(ctx *evmctx.Context, book *Book) signal {
		return signal{kind: signalHalt, status: status}
	}
}

// compileReturn handles RETURN and REVERT: unlike the other terminals
// (STOP/INVALID/SELFDESTRUCT), both pop a memory offset/size pair off the
// stack naming the return-data range, which Result.Offset/Result.Size
// surface to the caller instead of the halt status alone.
func compileReturn(op opcode.OpCode) closure {
	status := uint64(0)
	if op == opcode.REVERT {
		status = 1
	}
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		offset := stack[book.SP-1].Uint64()
		size := stack[book.SP-2].Uint64()
		book.SP -= 2
		return signal{kind: signalHalt, status: status, offset: int(offset), size: int(size)}
	}
}

func compilePush(instr bytecode.Instruction) closure {
	var v uint256.Int
	v.SetBytes(instr.Arg)
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		stack[book.SP] = v
		book.SP++
		return signal{kind: signalNext}
	}
}

func compilePop() closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		book.SP--
		return signal{kind: signalNext}
	}
}

func compileMLoad() closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		mem := ctx.MemoryPtr()
		offset := stack[book.SP-1].Uint64()
		var v uint256.Int
		v.SetBytes(mem[offset : offset+32])
		stack[book.SP-1] = v
		return signal{kind: signalNext}
	}
}

func compileMStore() closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		mem := ctx.MemoryPtr()
		offset := stack[book.SP-1].Uint64()
		value := stack[book.SP-2]
		b := value.Bytes32()
		copy(mem[offset:offset+32], b[:])
		book.SP -= 2
		return signal{kind: signalNext}
	}
}

func compileMStore8() closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		mem := ctx.MemoryPtr()
		offset := stack[book.SP-1].Uint64()
		value := stack[book.SP-2]
		mem[offset] = byte(value.Uint64())
		book.SP -= 2
		return signal{kind: signalNext}
	}
}

func compileDup(n int) closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		stack[book.SP] = stack[book.SP-n]
		book.SP++
		return signal{kind: signalNext}
	}
}

func compileSwap(n int) closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		stack[book.SP-1], stack[book.SP-1-n] = stack[book.SP-1-n], stack[book.SP-1]
		return signal{kind: signalNext}
	}
}

func compileBinOp(op func(z, x, y *uint256.Int) *uint256.Int) closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		a := stack[book.SP-1]
		b := stack[book.SP-2]
		op(&stack[book.SP-2], &a, &b)
		book.SP--
		return signal{kind: signalNext}
	}
}

func compileUnOp(op func(z, x *uint256.Int) *uint256.Int) closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		a := stack[book.SP-1]
		op(&stack[book.SP-1], &a)
		return signal{kind: signalNext}
	}
}

func compileShift(left bool) closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		shift := stack[book.SP-1]
		value := stack[book.SP-2]
		if left {
			stack[book.SP-2].Lsh(&value, uint(shift.Uint64()))
		} else {
			stack[book.SP-2].Rsh(&value, uint(shift.Uint64()))
		}
		book.SP--
		return signal{kind: signalNext}
	}
}

func compileCompare(cmp func(a, b *uint256.Int) bool) closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		a := stack[book.SP-1]
		b := stack[book.SP-2]
		if cmp(&a, &b) {
			stack[book.SP-2] = *uint256.NewInt(1)
		} else {
			stack[book.SP-2] = *uint256.NewInt(0)
		}
		book.SP--
		return signal{kind: signalNext}
	}
}

func compileUnaryPredicate(pred func(a *uint256.Int) bool) closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		a := stack[book.SP-1]
		if pred(&a) {
			stack[book.SP-1] = *uint256.NewInt(1)
		} else {
			stack[book.SP-1] = *uint256.NewInt(0)
		}
		return signal{kind: signalNext}
	}
}

func compileCallback(fn func(ctx *evmctx.Context, sp int) callback.Status, spDelta int) closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		fn(ctx, book.SP)
		book.SP += spDelta
		return signal{kind: signalNext}
	}
}

// compileJump implements the dynamic JUMP comparison chain described in
// the jit.rs reference: pop the target, walk the contract's jump
// destinations in order, and branch to whichever one matches. An empty
// jump-destination set or a target matching none of them is an
// unconditional failure, matching the "Jump has to fail" fallback the
// reference takes when code.jumpdests is empty.
func compileJump(p *Program) closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		target := stack[book.SP-1]
		book.SP--
		dest := p.dispatchJump(target)
		if dest < 0 {
			return signal{kind: signalHalt, status: 1}
		}
		return signal{kind: signalJump, target: dest}
	}
}

func compileJumpi(p *Program) closure {
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		target := stack[book.SP-1]
		cond := stack[book.SP-2]
		book.SP -= 2
		if cond.IsZero() {
			return signal{kind: signalNext}
		}
		dest := p.dispatchJump(target)
		if dest < 0 {
			return signal{kind: signalHalt, status: 1}
		}
		return signal{kind: signalJump, target: dest}
	}
}

// compileAugmentedJump handles the peephole-fused PUSH+JUMP sentinel:
// the target is a compile-time constant, so the destination instruction
// index is resolved once here instead of on every execution, skipping
// the dynamic comparison chain entirely.
func compileAugmentedJump(p *Program, target uint256.Int) closure {
	dest := p.dispatchJump(target)
	return func(ctx *evmctx.Context, book *Book) signal {
		if dest < 0 {
			return signal{kind: signalHalt, status: 1}
		}
		return signal{kind: signalJump, target: dest}
	}
}

func compileAugmentedJumpi(p *Program, target uint256.Int) closure {
	dest := p.dispatchJump(target)
	return func(ctx *evmctx.Context, book *Book) signal {
		stack := ctx.StackPtr()
		cond := stack[book.SP-1]
		book.SP--
		if cond.IsZero() {
			return signal{kind: signalNext}
		}
		if dest < 0 {
			return signal{kind: signalHalt, status: 1}
		}
		return signal{kind: signalJump, target: dest}
	}
}
