// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.

package evmaot

import (
	"testing"

	"github.com/n42blockchain/evmjit/evmctx"
)

type stubExecutor struct{ ret uint64 }

func (s stubExecutor) Call(ctx *evmctx.Context, host Host) uint64 { return s.ret }

func TestRegisterAndCompiledExecutors(t *testing.T) {
	var hash [32]byte
	hash[0] = 0xAB
	Register(hash, stubExecutor{ret: 42})

	table := CompiledExecutors()
	e, ok := table[hash]
	if !ok {
		t.Fatal("registered executor not found in CompiledExecutors()")
	}
	if got := e.Call(nil, nil); got != 42 {
		t.Fatalf("Call() = %d, want 42", got)
	}
	t.Log("✓ Register makes an executor visible through CompiledExecutors")
}

func TestCompiledExecutorsIsASnapshot(t *testing.T) {
	var hash [32]byte
	hash[0] = 0xCD
	Register(hash, stubExecutor{ret: 1})

	snap := CompiledExecutors()
	Register(hash, stubExecutor{ret: 2})

	if got := snap[hash].Call(nil, nil); got != 1 {
		t.Fatalf("snapshot mutated after later Register call: got %d, want 1", got)
	}
}
