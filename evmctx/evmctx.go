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

// Package evmctx defines the fixed-layout execution context shared by
// caller and compiled (AOT or JIT) code, plus the pools that hand out its
// backing buffers without per-call allocation.
package evmctx

import (
	"sync"
	"unsafe"

	"github.com/holiman/uint256"
)

// StackSlots is the fixed stack depth every Context's stack buffer provides.
const StackSlots = 1024

// MemoryBytes is the size of the contiguous memory buffer a Context's
// memory pointer backs — large enough to cover the maximum memory
// frontier a gas-bounded call can reach.
const MemoryBytes = 4_096_000

// Storage is the key/value view compiled code reads and writes through
// SLOAD/SSTORE. Kept as an interface (rather than a concrete map) so the
// same Context shape works whether storage is backed by a plain map (as
// in Holder, used for tests) or a real accounting layer.
type Storage interface {
	Get(key uint256.Int) uint256.Int
	Set(key, value uint256.Int)
}

// Context is the fixed C-compatible record both AOT-generated code and
// JIT-compiled closures read through: pointers to the stack, memory, and
// storage, in this exact order. sizeof(Context) must stay 24 bytes on a
// 64-bit target — changing the field order or adding a field requires a
// coordinated update to every callback in package callback, since they
// reconstruct these pointers from the same layout.
type Context struct {
	stack   unsafe.Pointer // *[StackSlots]uint256.Int
	memory  unsafe.Pointer // *[MemoryBytes]byte
	storage unsafe.Pointer // Storage, boxed
}

// Holder owns the backing arrays a Context's pointers reference. The
// context borrows them for exactly one invocation and must not outlive
// the Holder, mirroring the original design's "context owns its buffers"
// ownership rule.
type Holder struct {
	Stack   [StackSlots]uint256.Int
	Memory  [MemoryBytes]byte
	Storage Storage
}

type mapStorage struct {
	mu   sync.Mutex
	data map[uint256.Int]uint256.Int
}

// NewMapStorage returns a Storage backed by a plain Go map, suitable for
// tests and for hosts that do not need persistence across invocations.
func NewMapStorage() Storage {
	return &mapStorage{data: make(map[uint256.Int]uint256.Int)}
}

func (m *mapStorage) Get(key uint256.Int) uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

func (m *mapStorage) Set(key, value uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

var holderPool = sync.Pool{
	New: func() interface{} {
		return &Holder{}
	},
}

// New returns a Context borrowing h's buffers. A nil h.Storage is first
// replaced with NewMapStorage().
func New(h *Holder) *Context {
	if h.Storage == nil {
		h.Storage = NewMapStorage()
	}
	return &Context{
		stack:   unsafe.Pointer(&h.Stack),
		memory:  unsafe.Pointer(&h.Memory),
		storage: unsafe.Pointer(&h.Storage),
	}
}

// Acquire returns a pooled, zeroed Holder and the Context borrowing it.
// Release returns the Holder to the pool; callers must not use the
// Context or any pointer derived from it afterward.
func Acquire() (*Holder, *Context) {
	h := holderPool.Get().(*Holder)
	for i := range h.Stack {
		h.Stack[i].Clear()
	}
	for i := range h.Memory {
		h.Memory[i] = 0
	}
	h.Storage = NewMapStorage()
	return h, New(h)
}

// Release returns h to the pool.
func Release(h *Holder) {
	holderPool.Put(h)
}

// StackPtr returns the pointer compiled code treats as the stack base.
func (c *Context) StackPtr() *[StackSlots]uint256.Int {
	return (*[StackSlots]uint256.Int)(c.stack)
}

// MemoryPtr returns the pointer compiled code treats as the memory base.
func (c *Context) MemoryPtr() *[MemoryBytes]byte {
	return (*[MemoryBytes]byte)(c.memory)
}

// StorageView returns the Storage compiled code reads/writes via SLOAD/SSTORE.
func (c *Context) StorageView() Storage {
	return *(*Storage)(c.storage)
}
