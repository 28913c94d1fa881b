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

// Package evmjit is the root façade: Compile turns raw contract bytecode
// into a runnable CompiledArtifact, preferring a pre-generated
// ahead-of-time executor from the process-wide cache and falling back to
// on-the-fly closure compilation (package jit) on a cache miss.
package evmjit

import (
	"errors"
	"fmt"
	"sync"

	"github.com/n42blockchain/evmjit/aotgen/evmaot"
	"github.com/n42blockchain/evmjit/bytecode"
	"github.com/n42blockchain/evmjit/evmctx"
	"github.com/n42blockchain/evmjit/jit"
	"github.com/n42blockchain/evmjit/log"
	"github.com/n42blockchain/evmjit/params"
	"github.com/n42blockchain/evmjit/peephole"
	"golang.org/x/crypto/sha3"
)

var (
	// ErrTruncatedPush is returned when decoding fails on a malformed PUSH.
	ErrTruncatedPush = bytecode.ErrTruncatedPush
	// ErrInvalidJump is surfaced through Result.Status rather than
	// returned directly, but is exported for callers that want to compare
	// against it with errors.Is on a wrapped diagnostic.
	ErrInvalidJump = jit.ErrInvalidJump
	// ErrCallbackFailure names a failed runtime callback
	// (SLOAD/SSTORE/EXP/SHA3). Nothing in this module returns it: the
	// callbacks always report callback.StatusOK and no panic is recovered.
	ErrCallbackFailure = errors.New("runtime callback failed")
	// ErrCodegen wraps the error returned when closure-compiling a fresh
	// jit.Program fails.
	ErrCodegen = errors.New("code generation failed")
)

// Options configures one Compile call.
type Options struct {
	// Checked is not read by Compile. JIT-lowered code has no halt check,
	// and a cached AOT executor keeps whichever mode aotgen.Options.Checked
	// selected when its source was generated.
	Checked bool
	// Rules is not consulted by Compile: decoding and code generation
	// accept every opcode regardless of hard fork.
	Rules *params.Rules
	// DecodeMode selects strict or lax truncated-PUSH handling.
	DecodeMode bytecode.Mode
}

// Result is the structured outcome of running a compiled artifact,
// replacing a single overloaded pointer-cast return value: Status
// reports success/failure, and Offset/Size name the return-data range
// within the context's memory buffer for the caller to read out.
type Result struct {
	Status uint64
	Offset int
	Size   int
}

// Host is the broad host surface for operations that escape the
// pure-compute subset: storage, environment queries, and nested calls.
// Neither Compile nor the artifacts it returns call it: Compile takes an
// evmaot.Host for AOT executors, and JIT programs reach storage, EXP and
// SHA3 through package callback directly.
type Host interface {
	SLoad(key [32]byte) [32]byte
	SStore(key, value [32]byte)
	Balance(addr [20]byte) [32]byte
	BlockHash(number uint64) [32]byte
	Log(topics [][32]byte, data []byte)
	Create(value [32]byte, code []byte) ([20]byte, error)
	Call(addr [20]byte, value [32]byte, input []byte) ([]byte, error)
}

// CompiledArtifact is implemented by both the ahead-of-time generated
// executor (package evmaot) and the on-the-fly jit.Program, so callers
// run either without caring which path produced it.
type CompiledArtifact interface {
	Run(ctx *evmctx.Context, initialSP int) Result
}

type jitArtifact struct {
	program *jit.Program
}

func (j jitArtifact) Run(ctx *evmctx.Context, initialSP int) Result {
	r := j.program.Run(ctx, initialSP)
	return Result{Status: r.Status, Offset: r.Offset, Size: r.Size}
}

type aotArtifact struct {
	executor evmaot.Executor
	host     evmaot.Host
}

func (a aotArtifact) Run(ctx *evmctx.Context, initialSP int) Result {
	status := a.executor.Call(ctx, a.host)
	return Result{Status: status}
}

// cacheMu guards nothing of our own — evmaot.CompiledExecutors takes its
// own lock internally — but Compile re-snapshots the table on every
// lookup so newly self-registered executors (imported after process
// start via a plugin, in principle) are picked up without a restart.
var cacheMu sync.Mutex

// cacheLookup returns the AOT executor registered for hash, if any. This
// mirrors the cached-map-with-RWMutex shape the reference jump-table
// cache used for per-chain-config opcode tables, narrowed here to a
// simple re-snapshot since evmaot.Register already serializes writes.
func cacheLookup(hash [32]byte) (evmaot.Executor, bool) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	e, ok := evmaot.CompiledExecutors()[hash]
	return e, ok
}

// Compile decodes, analyzes, and peephole-augments code, then either
// hands back a cached ahead-of-time executor keyed by keccak256(code) or
// falls back to closure-compiling a fresh jit.Program.
func Compile(code []byte, opts Options, host evmaot.Host) (CompiledArtifact, error) {
	instrs, err := bytecode.Decode(code, bytecode.WithMode(opts.DecodeMode))
	if err != nil {
		return nil, err
	}
	analysis := bytecode.Analyze(instrs)

	valid := make(map[int]struct{}, len(analysis.JumpDests))
	for _, idx := range analysis.JumpDests {
		valid[analysis.IndexToPC[idx]] = struct{}{}
	}
	augmented := peephole.Augment(instrs, valid)
	augmentedAnalysis := bytecode.Analyze(augmented)

	h := sha3.NewLegacyKeccak256()
	h.Write(code)
	var hash [32]byte
	copy(hash[:], h.Sum(nil))

	if executor, ok := cacheLookup(hash); ok {
		log.Debug("compile cache hit", "hash", fmt.Sprintf("%x", hash))
		return aotArtifact{executor: executor, host: host}, nil
	}
	log.Debug("compile cache miss, falling back to jit", "hash", fmt.Sprintf("%x", hash))

	program, err := jit.Compile(augmented, augmentedAnalysis)
	if err != nil {
		log.Error("jit compilation failed", "hash", fmt.Sprintf("%x", hash), "err", err)
		return nil, fmt.Errorf("%w: %v", ErrCodegen, err)
	}
	return jitArtifact{program: program}, nil
}
