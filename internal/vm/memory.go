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

package vm

import (
	"github.com/holiman/uint256"
)

const memoryInitialCapacity = 4 * 1024

// Memory is the EVM's linear, byte-addressable, monotonically growing
// scratch space.
type Memory struct {
	store       []byte
	lastGasCost uint64
}

// NewMemory returns an empty Memory with room to grow before reallocating,
// its backing buffer drawn from the shared memory pool.
func NewMemory() *Memory {
	return &Memory{store: GetMemory(memoryInitialCapacity)[:0]}
}

// Release returns m's backing buffer to the shared memory pool. m must not
// be used afterward.
func (m *Memory) Release() {
	PutMemory(m.store)
	m.store = nil
}

// Len returns the current size of memory in bytes.
func (m *Memory) Len() int { return len(m.store) }

// Resize grows memory to size bytes, zero-filling the new region. It never
// shrinks; EVM memory is monotonically non-decreasing within a call frame.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) >= size {
		return
	}
	m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
}

// Set copies data into memory starting at offset, for size bytes. Shorter
// data is zero-padded; longer data is truncated.
func (m *Memory) Set(offset, size uint64, data []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		return
	}
	copy(m.store[offset:offset+size], data)
	if uint64(len(data)) < size {
		clear(m.store[offset+uint64(len(data)) : offset+size])
	}
}

// Set32 writes val as a 32-byte big-endian word at offset.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		return
	}
	val.WriteToSlice(m.store[offset : offset+32])
}

// GetCopy returns an independent copy of size bytes starting at offset, or
// nil if size is zero or the range falls outside memory.
func (m *Memory) GetCopy(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	if offset < 0 || size < 0 || offset+size > int64(len(m.store)) {
		return nil
	}
	out := make([]byte, size)
	copy(out, m.store[offset:offset+size])
	return out
}

// GetPtr returns a slice aliasing memory's backing array, or nil if size is
// zero. The caller must not retain it across a Resize.
func (m *Memory) GetPtr(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// Data returns the full backing array of memory.
func (m *Memory) Data() []byte {
	return m.store
}

// Copy moves len bytes from src to dst within memory, tolerating overlap
// per Go's copy() semantics (as MCOPY/IDENTITY precompile callers expect).
func (m *Memory) Copy(dst, src, length uint64) {
	if length == 0 {
		return
	}
	copy(m.store[dst:dst+length], m.store[src:src+length])
}

// Reset empties memory and clears accounting state, for reuse across calls.
func (m *Memory) Reset() {
	m.store = m.store[:0]
	m.lastGasCost = 0
}
