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

// Package evmaot is the home package for aotgen-generated sources: every
// evm_<hash>.go file aotgen.Generate emits declares `package evmaot` and
// an Executor implementation here. This file holds the interfaces those
// generated files compile against and is itself hand-written, not
// generated.
package evmaot

import (
	"sync"

	"github.com/n42blockchain/evmjit/evmctx"
)

// Executor is implemented by every generated per-contract type. It is
// the zero-sized polymorphic object spec.md §6 describes, looked up from
// the process-wide cache by bytecode hash.
type Executor interface {
	Call(ctx *evmctx.Context, host Host) uint64
}

var (
	registryMu sync.Mutex
	registry   = map[[32]byte]Executor{}
)

// Register adds an executor to the process-wide table under hash. Every
// evmccgen-generated evm_<hash>.go file calls this from an init func, so
// the table is populated by ordinary package import side effects rather
// than requiring a separately maintained index file.
func Register(hash [32]byte, e Executor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[hash] = e
}

// CompiledExecutors returns a snapshot of the process-wide table of
// ahead-of-time executors keyed by keccak256(bytecode).
func CompiledExecutors() map[[32]byte]Executor {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make(map[[32]byte]Executor, len(registry))
	for k, v := range registry {
		out[k] = v
	}
	return out
}

// Host is the narrow interface generated Call bodies invoke back into:
// push an immediate onto the stack, run the named generic opcode
// implementation, pop a jump target, and observe the checked-build halt
// flag. It is deliberately smaller than evmjit.Host — generated code
// never needs SLOAD/SSTORE/CALL directly, since those are folded into
// the opaque Exec dispatch by name.
type Host interface {
	// PushImmediate pushes a literal PUSH operand onto ctx's stack.
	PushImmediate(ctx *evmctx.Context, imm []byte)
	// Exec runs the named opcode's generic implementation against ctx.
	Exec(name string, ctx *evmctx.Context)
	// PopJumpTarget pops and returns the destination of an unconditional
	// JUMP, validated against the contract's jump-destination set.
	PopJumpTarget(ctx *evmctx.Context) uint64
	// PopConditionalJumpTarget pops condition and destination for a
	// JUMPI; taken reports whether the branch was followed.
	PopConditionalJumpTarget(ctx *evmctx.Context) (target uint64, taken bool)
	// Halted reports whether a checked build's interpreter has signaled
	// a halt condition that generated code should abort on.
	Halted() bool
}
