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

// Package aotgen emits Go source implementing a contract's ahead-of-time
// executor: a function whose body is a switch-dispatched state machine
// over the contract's basic blocks, one arm per block, connected by an
// integer jump variable instead of the runtime dynamic-jump comparison
// chain the JIT path uses.
package aotgen

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/n42blockchain/evmjit/bytecode"
	"github.com/n42blockchain/evmjit/opcode"
)

// ErrCodegen wraps any failure while emitting source.
var ErrCodegen = errors.New("code generation failed")

// Options configures one Generate call.
type Options struct {
	// Checked, when true, emits a halt-flag check after every opcode
	// call, trading throughput for faithful trap reporting. The default
	// (false) is the throughput-oriented mode.
	Checked bool
}

// CacheEntry names one generated executor for GenerateCacheIndex.
type CacheEntry struct {
	Hash         [32]byte
	ExecutorName string
}

// Generate emits a Go source file for one contract's bytecode. hash is
// keccak256(original bytecode); instrs and analysis are the augmented
// instruction sequence and its jump-destination analysis. The emitted
// package is always `evmaot`; the executor type name is derived from the
// hex of hash so multiple contracts' generated files coexist in one
// package without collision.
func Generate(w io.Writer, hash [32]byte, instrs []bytecode.Instruction, analysis bytecode.Analysis, opts Options) error {
	bw := bufio.NewWriter(w)
	hex := fmt.Sprintf("%x", hash)
	typeName := "EVM_" + hex

	fmt.Fprintf(bw, "// Code generated by evmccgen from bytecode hash %s. DO NOT EDIT.\n\n", hex)
	fmt.Fprintf(bw, "package evmaot\n\n")
	fmt.Fprintf(bw, "import (\n\t\"github.com/n42blockchain/evmjit/evmctx\"\n)\n\n")
	fmt.Fprintf(bw, "type %s struct{}\n\n", typeName)
	fmt.Fprintf(bw, "func init() {\n\tRegister([32]byte{%s}, %s{})\n}\n\n", byteArrayLiteral(hash[:]), typeName)
	fmt.Fprintf(bw, "func (%s) Call(ctx *evmctx.Context, host Host) uint64 {\n", typeName)
	fmt.Fprintf(bw, "\tjump := 0\n")
	fmt.Fprintf(bw, "\tfor {\n")
	fmt.Fprintf(bw, "\t\tswitch jump {\n")
	fmt.Fprintf(bw, "\t\tcase 0:\n")

	for i, instr := range instrs {
		// Every JUMPDEST opens a new switch arm labeled by its byte-PC,
		// not its instruction index: jump targets popped off the stack
		// (host.PopJumpTarget) are byte-PCs, and the two only coincide
		// when every preceding instruction is exactly one byte wide.
		if instr.Op == opcode.JUMPDEST && i != 0 {
			fmt.Fprintf(bw, "\t\tcase %d:\n", instr.PC)
		}

		if err := emitOne(bw, i, instr, opts); err != nil {
			return fmt.Errorf("%w: instruction %d: %v", ErrCodegen, i, err)
		}
	}

	fmt.Fprintf(bw, "\t\tdefault:\n")
	fmt.Fprintf(bw, "\t\t\treturn 1\n")
	fmt.Fprintf(bw, "\t\t}\n")
	fmt.Fprintf(bw, "\t}\n")
	fmt.Fprintf(bw, "}\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrCodegen, err)
	}
	return nil
}

func emitOne(bw *bufio.Writer, index int, instr bytecode.Instruction, opts Options) error {
	switch {
	case instr.Op.IsTerminal():
		fmt.Fprintf(bw, "\t\t\thost.Exec(%q, ctx)\n", instr.Op.String())
		fmt.Fprintf(bw, "\t\t\treturn 0\n")
		return nil

	case instr.Op == opcode.JUMP:
		fmt.Fprintf(bw, "\t\t\tjump = int(host.PopJumpTarget(ctx))\n")
		fmt.Fprintf(bw, "\t\t\tcontinue\n")
		return nil

	case instr.Op == opcode.JUMPI:
		fmt.Fprintf(bw, "\t\t\tif target, taken := host.PopConditionalJumpTarget(ctx); taken {\n")
		fmt.Fprintf(bw, "\t\t\t\tjump = int(target)\n")
		fmt.Fprintf(bw, "\t\t\t\tcontinue\n")
		fmt.Fprintf(bw, "\t\t\t}\n")
		return nil

	case instr.Op == opcode.AugmentedPushJump:
		fmt.Fprintf(bw, "\t\t\thost.PushImmediate(ctx, %s)\n", byteSliceLiteral(instr.Arg))
		fmt.Fprintf(bw, "\t\t\tjump = int(host.PopJumpTarget(ctx))\n")
		fmt.Fprintf(bw, "\t\t\tcontinue\n")
		return nil

	case instr.Op == opcode.AugmentedPushJumpi:
		fmt.Fprintf(bw, "\t\t\thost.PushImmediate(ctx, %s)\n", byteSliceLiteral(instr.Arg))
		fmt.Fprintf(bw, "\t\t\tif target, taken := host.PopConditionalJumpTarget(ctx); taken {\n")
		fmt.Fprintf(bw, "\t\t\t\tjump = int(target)\n")
		fmt.Fprintf(bw, "\t\t\t\tcontinue\n")
		fmt.Fprintf(bw, "\t\t\t}\n")
		return nil

	case instr.Op.IsPush():
		fmt.Fprintf(bw, "\t\t\thost.PushImmediate(ctx, %s)\n", byteSliceLiteral(instr.Arg))

	default:
		fmt.Fprintf(bw, "\t\t\thost.Exec(%q, ctx)\n", instr.Op.String())
	}

	if opts.Checked {
		fmt.Fprintf(bw, "\t\t\tif host.Halted() {\n\t\t\t\treturn 2\n\t\t\t}\n")
	}
	return nil
}

func byteSliceLiteral(b []byte) string {
	if len(b) == 0 {
		return "nil"
	}
	s := "[]byte{"
	for i, v := range b {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("0x%02x", v)
	}
	return s + "}"
}

// GenerateCacheIndex emits a single evm_cache.go build manifest listing
// every contract a evmccgen run compiled, for tooling and inspection.
// It is not load-bearing for lookup: each generated evm_<hash>.go already
// registers itself with evmaot.Register from an init func, so the
// process-wide table is populated by ordinary package import regardless
// of whether this manifest is present.
func GenerateCacheIndex(w io.Writer, entries []CacheEntry) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "// Code generated by evmccgen. DO NOT EDIT.\n\n")
	fmt.Fprintf(bw, "package evmaot\n\n")
	fmt.Fprintf(bw, "// CompiledExecutorHashes lists the bytecode hashes this build compiled\n")
	fmt.Fprintf(bw, "// ahead of time, in source-generation order.\n")
	fmt.Fprintf(bw, "func CompiledExecutorHashes() [][32]byte {\n")
	fmt.Fprintf(bw, "\treturn [][32]byte{\n")
	for _, e := range entries {
		fmt.Fprintf(bw, "\t\t{%s}, // %s\n", byteArrayLiteral(e.Hash[:]), e.ExecutorName)
	}
	fmt.Fprintf(bw, "\t}\n")
	fmt.Fprintf(bw, "}\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrCodegen, err)
	}
	return nil
}

func byteArrayLiteral(b []byte) string {
	s := ""
	for i, v := range b {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("0x%02x", v)
	}
	return s
}
