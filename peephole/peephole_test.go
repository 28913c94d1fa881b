// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.

package peephole

import (
	"testing"

	"github.com/n42blockchain/evmjit/bytecode"
	"github.com/n42blockchain/evmjit/opcode"
)

func decodeAndAnalyze(t *testing.T, code []byte) ([]bytecode.Instruction, bytecode.Analysis) {
	t.Helper()
	instrs, err := bytecode.Decode(code)
	if err != nil {
		t.Fatal(err)
	}
	return instrs, bytecode.Analyze(instrs)
}

func validSet(a bytecode.Analysis) map[int]struct{} {
	set := make(map[int]struct{}, len(a.JumpDests))
	for _, idx := range a.JumpDests {
		set[a.IndexToPC[idx]] = struct{}{}
	}
	return set
}

func TestAugmentFusesValidTarget(t *testing.T) {
	// PUSH1 0x03, JUMP, JUMPDEST, STOP
	code := []byte{
		byte(opcode.PUSH1), 0x03,
		byte(opcode.JUMP),
		byte(opcode.JUMPDEST),
		byte(opcode.STOP),
	}
	instrs, a := decodeAndAnalyze(t, code)
	augmented := Augment(instrs, validSet(a))

	if len(augmented) != 3 {
		t.Fatalf("len(augmented) = %d, want 3 (fused pair + JUMPDEST + STOP)", len(augmented))
	}
	if augmented[0].Op != opcode.AugmentedPushJump {
		t.Fatalf("augmented[0].Op = %v, want AugmentedPushJump", augmented[0].Op)
	}
	t.Log("✓ PUSH+JUMP to a valid target fuses into AugmentedPushJump")
}

func TestAugmentSkipsInvalidTarget(t *testing.T) {
	// PUSH1 0x5B, JUMP — 0x5B is the PUSH's own immediate, not a JUMPDEST.
	code := []byte{byte(opcode.PUSH1), 0x5B, byte(opcode.JUMP)}
	instrs, a := decodeAndAnalyze(t, code)
	augmented := Augment(instrs, validSet(a))

	if len(augmented) != 2 {
		t.Fatalf("len(augmented) = %d, want 2 (no fusion)", len(augmented))
	}
	if augmented[0].Op == opcode.AugmentedPushJump {
		t.Fatal("fused an invalid jump target")
	}
}

func TestAugmentPreservesBytes(t *testing.T) {
	code := []byte{
		byte(opcode.PUSH1), 0x04,
		byte(opcode.JUMP),
		byte(opcode.JUMPDEST),
		byte(opcode.PUSH2), 0x00, 0x00,
		byte(opcode.JUMPI),
		byte(opcode.STOP),
	}
	instrs, a := decodeAndAnalyze(t, code)
	augmented := Augment(instrs, validSet(a))

	if got := bytecode.Serialize(augmented); string(got) != string(code) {
		t.Fatalf("Serialize(Augment(...)) = %x, want %x", got, code)
	}
	t.Log("✓ augmentation preserves the original byte sequence")
}

func TestAugmentJUMPI(t *testing.T) {
	code := []byte{
		byte(opcode.PUSH1), 0x04,
		byte(opcode.JUMPI),
		byte(opcode.STOP),
		byte(opcode.JUMPDEST),
	}
	instrs, a := decodeAndAnalyze(t, code)
	augmented := Augment(instrs, validSet(a))

	if augmented[0].Op != opcode.AugmentedPushJumpi {
		t.Fatalf("augmented[0].Op = %v, want AugmentedPushJumpi", augmented[0].Op)
	}
}
