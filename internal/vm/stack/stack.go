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

// Package stack implements the EVM's 256-bit word stack and its call-depth
// return-address stack, both pooled to avoid per-call allocation.
package stack

import (
	"sync"

	"github.com/holiman/uint256"
)

const initialStackCapacity = 16

// Stack is a last-in-first-out stack of 256-bit words.
type Stack struct {
	data []uint256.Int
}

var stackPool = sync.Pool{
	New: func() interface{} {
		return &Stack{data: make([]uint256.Int, 0, initialStackCapacity)}
	},
}

// New returns a Stack from the pool, ready for use.
func New() *Stack {
	return stackPool.Get().(*Stack)
}

// ReturnNormalStack resets s and returns it to the pool.
func ReturnNormalStack(s *Stack) {
	s.Reset()
	stackPool.Put(s)
}

// Reset empties the stack without releasing its backing array.
func (s *Stack) Reset() {
	s.data = s.data[:0]
}

// Len returns the number of elements on the stack.
func (s *Stack) Len() int { return len(s.data) }

// Cap returns the current capacity of the stack's backing array.
func (s *Stack) Cap() int { return cap(s.data) }

// Push appends a copy of val to the top of the stack.
func (s *Stack) Push(val *uint256.Int) {
	s.data = append(s.data, *val)
}

// PushN pushes vals in order, so the last element of vals ends up on top.
func (s *Stack) PushN(vals ...uint256.Int) {
	s.data = append(s.data, vals...)
}

// Pop removes and returns the top element.
func (s *Stack) Pop() *uint256.Int {
	n := len(s.data) - 1
	v := s.data[n]
	s.data = s.data[:n]
	return &v
}

// Peek returns a pointer to the top element without removing it. The
// pointer aliases the stack's backing array and is invalidated by the next
// Push/Pop/Swap/Dup.
func (s *Stack) Peek() *uint256.Int {
	return &s.data[len(s.data)-1]
}

// Back returns a pointer to the n-th element from the top (0 = top).
func (s *Stack) Back(n int) *uint256.Int {
	return &s.data[len(s.data)-1-n]
}

// Swap exchanges the top element with the n-th element from the top
// (1 = top; n=2 swaps the top two, matching SWAP1's operand).
func (s *Stack) Swap(n int) {
	top := len(s.data) - 1
	other := len(s.data) - n
	s.data[top], s.data[other] = s.data[other], s.data[top]
}

// Dup pushes a copy of the n-th element from the top (1 = top).
func (s *Stack) Dup(n int) {
	s.data = append(s.data, s.data[len(s.data)-n])
}

// Data returns the underlying slice of words, bottom to top.
func (s *Stack) Data() []uint256.Int {
	return s.data
}

// ReturnStack holds JUMPDEST return offsets for nested call frames.
type ReturnStack struct {
	data []uint32
}

var returnStackPool = sync.Pool{
	New: func() interface{} {
		return &ReturnStack{data: make([]uint32, 0, initialStackCapacity)}
	},
}

// NewReturnStack returns a ReturnStack from the pool, ready for use.
func NewReturnStack() *ReturnStack {
	return returnStackPool.Get().(*ReturnStack)
}

// ReturnRStack resets rs and returns it to the pool.
func ReturnRStack(rs *ReturnStack) {
	rs.data = rs.data[:0]
	returnStackPool.Put(rs)
}

// Push appends pc to the top of the return stack.
func (rs *ReturnStack) Push(pc uint32) {
	rs.data = append(rs.data, pc)
}

// Pop removes and returns the top return offset.
func (rs *ReturnStack) Pop() uint32 {
	n := len(rs.data) - 1
	v := rs.data[n]
	rs.data = rs.data[:n]
	return v
}

// Data returns the underlying slice of return offsets, bottom to top.
func (rs *ReturnStack) Data() []uint32 {
	return rs.data
}
