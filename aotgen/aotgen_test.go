// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.

package aotgen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/n42blockchain/evmjit/bytecode"
	"github.com/n42blockchain/evmjit/opcode"
	"golang.org/x/crypto/sha3"
)

func TestGenerateEmitsValidGoShape(t *testing.T) {
	code := []byte{
		byte(opcode.PUSH1), 0x01,
		byte(opcode.PUSH1), 0x02,
		byte(opcode.ADD),
		byte(opcode.STOP),
	}
	instrs, err := bytecode.Decode(code)
	if err != nil {
		t.Fatal(err)
	}
	analysis := bytecode.Analyze(instrs)

	h := sha3.NewLegacyKeccak256()
	h.Write(code)
	var hash [32]byte
	copy(hash[:], h.Sum(nil))

	var buf bytes.Buffer
	if err := Generate(&buf, hash, instrs, analysis, Options{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"package evmaot", "func init() {\n\tRegister(", "func (EVM_", ") Call(ctx *evmctx.Context, host Host) uint64", "switch jump"} {
		if !strings.Contains(out, want) {
			t.Errorf("generated source missing %q:\n%s", want, out)
		}
	}
	t.Log("✓ Generate emits a self-registering, switch-dispatched Call method")
}

func TestGenerateCheckedAddsHaltGuard(t *testing.T) {
	code := []byte{byte(opcode.PUSH1), 0x01, byte(opcode.STOP)}
	instrs, _ := bytecode.Decode(code)
	analysis := bytecode.Analyze(instrs)

	var buf bytes.Buffer
	if err := Generate(&buf, [32]byte{}, instrs, analysis, Options{Checked: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "host.Halted()") {
		t.Error("checked generation did not emit a halt check")
	}
}

func TestGenerateUncheckedOmitsHaltGuard(t *testing.T) {
	code := []byte{byte(opcode.PUSH1), 0x01, byte(opcode.STOP)}
	instrs, _ := bytecode.Decode(code)
	analysis := bytecode.Analyze(instrs)

	var buf bytes.Buffer
	if err := Generate(&buf, [32]byte{}, instrs, analysis, Options{Checked: false}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "host.Halted()") {
		t.Error("unchecked generation emitted a halt check")
	}
}

func TestGenerateCacheIndex(t *testing.T) {
	entries := []CacheEntry{
		{Hash: [32]byte{0x01}, ExecutorName: "EVM_0100000000000000000000000000000000000000000000000000000000000000"},
	}
	var buf bytes.Buffer
	if err := GenerateCacheIndex(&buf, entries); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "func CompiledExecutorHashes() [][32]byte") {
		t.Errorf("missing CompiledExecutorHashes signature:\n%s", out)
	}
	if !strings.Contains(out, entries[0].ExecutorName) {
		t.Errorf("missing executor name %q:\n%s", entries[0].ExecutorName, out)
	}
}
