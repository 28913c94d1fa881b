// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.

package jit

import (
	"testing"

	"github.com/n42blockchain/evmjit/bytecode"
	"github.com/n42blockchain/evmjit/evmctx"
	"github.com/n42blockchain/evmjit/opcode"
	"github.com/n42blockchain/evmjit/peephole"
)

func run(t *testing.T, code []byte) (*evmctx.Holder, *evmctx.Context, Result) {
	t.Helper()
	instrs, err := bytecode.Decode(code)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	analysis := bytecode.Analyze(instrs)

	p, err := Compile(instrs, analysis)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	h, ctx := evmctx.Acquire()
	res := p.Run(ctx, 0)
	return h, ctx, res
}

func TestAddProgram(t *testing.T) {
	code := []byte{
		byte(opcode.PUSH1), 0x01,
		byte(opcode.PUSH1), 0x02,
		byte(opcode.ADD),
		byte(opcode.STOP),
	}
	h, ctx, res := run(t, code)
	defer evmctx.Release(h)

	if res.Status != 0 {
		t.Fatalf("status = %d, want 0", res.Status)
	}
	stack := ctx.StackPtr()
	if got := stack[0].Uint64(); got != 3 {
		t.Fatalf("top of stack = %d, want 3", got)
	}
}

func TestJumpToJumpdest(t *testing.T) {
	// PUSH1 4, JUMP, (unreachable ADD at pc 3), JUMPDEST, PUSH1 7, STOP
	code := []byte{
		byte(opcode.PUSH1), 0x04,
		byte(opcode.JUMP),
		byte(opcode.ADD),
		byte(opcode.JUMPDEST),
		byte(opcode.PUSH1), 0x07,
		byte(opcode.STOP),
	}
	h, ctx, res := run(t, code)
	defer evmctx.Release(h)

	if res.Status != 0 {
		t.Fatalf("status = %d, want 0", res.Status)
	}
	stack := ctx.StackPtr()
	if got := stack[0].Uint64(); got != 7 {
		t.Fatalf("top of stack = %d, want 7 (JUMP must have skipped the ADD)", got)
	}
}

func TestJumpToInvalidDestinationHalts(t *testing.T) {
	code := []byte{
		byte(opcode.PUSH1), 0x99, // not a JUMPDEST
		byte(opcode.JUMP),
		byte(opcode.STOP),
	}
	h, _, res := run(t, code)
	defer evmctx.Release(h)

	if res.Status == 0 {
		t.Fatal("status = 0, want nonzero failure for an invalid jump target")
	}
}

func TestJumpiNotTakenFallsThrough(t *testing.T) {
	code := []byte{
		byte(opcode.PUSH1), 0x00, // condition = 0
		byte(opcode.PUSH1), 0x06, // target
		byte(opcode.JUMPI),
		byte(opcode.PUSH1), 0x09, // falls through here
		byte(opcode.JUMPDEST),
		byte(opcode.STOP),
	}
	h, ctx, res := run(t, code)
	defer evmctx.Release(h)

	if res.Status != 0 {
		t.Fatalf("status = %d, want 0", res.Status)
	}
	stack := ctx.StackPtr()
	if got := stack[0].Uint64(); got != 9 {
		t.Fatalf("top of stack = %d, want 9 (JUMPI must not have branched)", got)
	}
}

func TestAugmentedPushJumpSkipsDispatchChain(t *testing.T) {
	code := []byte{
		byte(opcode.PUSH1), 0x04,
		byte(opcode.JUMP),
		byte(opcode.INVALID),
		byte(opcode.JUMPDEST),
		byte(opcode.PUSH1), 0x2a,
		byte(opcode.STOP),
	}
	instrs, err := bytecode.Decode(code)
	if err != nil {
		t.Fatal(err)
	}
	analysis := bytecode.Analyze(instrs)
	valid := make(map[int]struct{}, len(analysis.JumpDests))
	for _, idx := range analysis.JumpDests {
		valid[analysis.IndexToPC[idx]] = struct{}{}
	}
	augmented := peephole.Augment(instrs, valid)

	foundAugmented := false
	for _, instr := range augmented {
		if instr.Op == opcode.AugmentedPushJump {
			foundAugmented = true
		}
	}
	if !foundAugmented {
		t.Fatal("peephole did not fuse the PUSH+JUMP pair")
	}

	augmentedAnalysis := bytecode.Analyze(augmented)
	p, err := Compile(augmented, augmentedAnalysis)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	h, ctx := evmctx.Acquire()
	defer evmctx.Release(h)
	res := p.Run(ctx, 0)

	if res.Status != 0 {
		t.Fatalf("status = %d, want 0", res.Status)
	}
	stack := ctx.StackPtr()
	if got := stack[0].Uint64(); got != 0x2a {
		t.Fatalf("top of stack = %#x, want 0x2a", got)
	}
}

func TestDupAndSwap(t *testing.T) {
	code := []byte{
		byte(opcode.PUSH1), 0x01,
		byte(opcode.PUSH1), 0x02,
		byte(opcode.SWAP1),
		byte(opcode.DUP2),
		byte(opcode.STOP),
	}
	h, ctx, res := run(t, code)
	defer evmctx.Release(h)
	if res.Status != 0 {
		t.Fatalf("status = %d, want 0", res.Status)
	}
	stack := ctx.StackPtr()
	// after PUSH 1, PUSH 2: [1, 2]
	// after SWAP1: [2, 1]
	// after DUP2 (duplicate item 2 below top): [2, 1, 2]
	if got := stack[2].Uint64(); got != 2 {
		t.Fatalf("stack[2] = %d, want 2", got)
	}
	if got := stack[1].Uint64(); got != 1 {
		t.Fatalf("stack[1] = %d, want 1", got)
	}
	if got := stack[0].Uint64(); got != 2 {
		t.Fatalf("stack[0] = %d, want 2", got)
	}
	t.Log("✓ SWAP1 then DUP2 produces [2, 1, 2]")
}

func TestMemoryRoundTrip(t *testing.T) {
	code := []byte{
		byte(opcode.PUSH1), 0x2a, // value
		byte(opcode.PUSH1), 0x00, // offset
		byte(opcode.MSTORE),
		byte(opcode.PUSH1), 0x00, // offset
		byte(opcode.MLOAD),
		byte(opcode.STOP),
	}
	h, ctx, res := run(t, code)
	defer evmctx.Release(h)
	if res.Status != 0 {
		t.Fatalf("status = %d, want 0", res.Status)
	}
	stack := ctx.StackPtr()
	if got := stack[0].Uint64(); got != 0x2a {
		t.Fatalf("top of stack = %#x, want 0x2a", got)
	}
}

func TestStorageRoundTrip(t *testing.T) {
	code := []byte{
		byte(opcode.PUSH1), 0xab, // value
		byte(opcode.PUSH1), 0x01, // key
		byte(opcode.SSTORE),
		byte(opcode.PUSH1), 0x01, // key
		byte(opcode.SLOAD),
		byte(opcode.STOP),
	}
	h, ctx, res := run(t, code)
	defer evmctx.Release(h)
	if res.Status != 0 {
		t.Fatalf("status = %d, want 0", res.Status)
	}
	stack := ctx.StackPtr()
	if got := stack[0].Uint64(); got != 0xab {
		t.Fatalf("top of stack = %#x, want 0xab (SLOAD must not shift the stack pointer)", got)
	}
}
