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

// Command evmccgen walks a directory of contract bytecode files and
// ahead-of-time compiles each one into a Go source file under the
// evmaot package, plus a build manifest listing every contract compiled.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/sha3"

	"github.com/n42blockchain/evmjit/aotgen"
	"github.com/n42blockchain/evmjit/bytecode"
	"github.com/n42blockchain/evmjit/conf"
	"github.com/n42blockchain/evmjit/log"
	"github.com/n42blockchain/evmjit/params"
	"github.com/n42blockchain/evmjit/peephole"
)

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:     "in",
		Usage:    "directory of .bin/.hex contract bytecode files to compile",
		Required: true,
	},
	&cli.StringFlag{
		Name:  "out",
		Usage: "output directory for generated evm_<hash>.go sources and evm_cache.go",
		Value: "./aotgen/evmaot",
	},
	&cli.BoolFlag{
		Name:  "checked",
		Usage: "emit a halt-flag check after every opcode call",
	},
	&cli.BoolFlag{
		Name:  "strict",
		Usage: "reject bytecode with a truncated trailing PUSH instead of zero-padding it",
	},
}

func main() {
	log.Init("", conf.DefaultLoggerConfig())

	app := &cli.App{
		Name:      "evmccgen",
		Usage:     "ahead-of-time compile EVM bytecode into Go executors",
		Version:   params.VersionWithMeta,
		Flags:     flags,
		Action:    run,
		Copyright: "Copyright 2022-2026 The N42 Authors",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	inDir := c.String("in")
	outDir := c.String("out")
	opts := aotgen.Options{Checked: c.Bool("checked")}
	decodeMode := bytecode.ModeLax
	if c.Bool("strict") {
		decodeMode = bytecode.ModeStrict
	}
	_ = params.LatestRules() // hard-fork gating is not yet wired into Generate; reserved for a future Options.Rules plumb-through.

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inDir, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}

	var cacheEntries []aotgen.CacheEntry
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".bin" && ext != ".hex" {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(inDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		code, err := decodeBytecodeFile(raw, ext)
		if err != nil {
			log.Error("decoding bytecode file failed", "file", entry.Name(), "err", err)
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}

		instrs, err := bytecode.Decode(code, bytecode.WithMode(decodeMode))
		if err != nil {
			log.Error("decoding instructions failed", "file", entry.Name(), "err", err)
			return fmt.Errorf("%s: %w", entry.Name(), err)
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
		hexHash := fmt.Sprintf("%x", hash)

		outPath := filepath.Join(outDir, "evm_"+hexHash+".go")
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		err = aotgen.Generate(f, hash, augmented, augmentedAnalysis, opts)
		closeErr := f.Close()
		if err != nil {
			return fmt.Errorf("generating %s: %w", outPath, err)
		}
		if closeErr != nil {
			return fmt.Errorf("closing %s: %w", outPath, closeErr)
		}

		cacheEntries = append(cacheEntries, aotgen.CacheEntry{
			Hash:         hash,
			ExecutorName: "EVM_" + hexHash,
		})
		log.Info("compiled contract", "file", entry.Name(), "out", outPath, "hash", hexHash)
		fmt.Fprintf(c.App.Writer, "compiled %s -> %s\n", entry.Name(), outPath)
	}

	cachePath := filepath.Join(outDir, "evm_cache.go")
	f, err := os.Create(cachePath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", cachePath, err)
	}
	err = aotgen.GenerateCacheIndex(f, cacheEntries)
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("generating %s: %w", cachePath, err)
	}
	if closeErr != nil {
		return closeErr
	}
	return nil
}

func decodeBytecodeFile(raw []byte, ext string) ([]byte, error) {
	if ext == ".bin" {
		return raw, nil
	}
	s := strings.TrimSpace(string(raw))
	s = strings.TrimPrefix(s, "0x")
	return hex.DecodeString(s)
}
