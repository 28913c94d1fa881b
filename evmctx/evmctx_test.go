// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.

package evmctx

import (
	"testing"
	"unsafe"

	"github.com/holiman/uint256"
)

func TestContextSize(t *testing.T) {
	if got := unsafe.Sizeof(Context{}); got != 24 {
		t.Fatalf("unsafe.Sizeof(Context{}) = %d, want 24 (three pointer fields on a 64-bit target)", got)
	}
	t.Log("✓ Context is exactly three pointers wide")
}

func TestNewAndReadBack(t *testing.T) {
	h, ctx := Acquire()
	defer Release(h)

	sp := ctx.StackPtr()
	sp[0] = *uint256.NewInt(42)
	if got := ctx.StackPtr()[0].Uint64(); got != 42 {
		t.Fatalf("StackPtr()[0] = %d, want 42", got)
	}

	mem := ctx.MemoryPtr()
	mem[0] = 0xAB
	if got := ctx.MemoryPtr()[0]; got != 0xAB {
		t.Fatalf("MemoryPtr()[0] = %#x, want 0xab", got)
	}

	key := *uint256.NewInt(1)
	val := *uint256.NewInt(0xDEAD)
	ctx.StorageView().Set(key, val)
	if got := ctx.StorageView().Get(key); !got.Eq(&val) {
		t.Fatalf("StorageView().Get(1) = %v, want %v", got, val)
	}
}

func TestAcquireZeroesState(t *testing.T) {
	h1, ctx1 := Acquire()
	ctx1.StackPtr()[0] = *uint256.NewInt(7)
	ctx1.MemoryPtr()[0] = 0xFF
	Release(h1)

	_, ctx2 := Acquire()
	if !ctx2.StackPtr()[0].IsZero() {
		t.Fatal("Acquire did not clear the stack from a prior use")
	}
	if ctx2.MemoryPtr()[0] != 0 {
		t.Fatal("Acquire did not clear memory from a prior use")
	}
}

func TestStorageMissIsZero(t *testing.T) {
	s := NewMapStorage()
	got := s.Get(*uint256.NewInt(999))
	if !got.IsZero() {
		t.Fatalf("Get(missing key) = %v, want zero", got)
	}
}
