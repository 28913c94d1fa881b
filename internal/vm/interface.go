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
	"github.com/n42blockchain/evmjit/internal/vm/evmtypes"
)

// Interpreter runs a single contract's bytecode to completion against a
// storage backend, and is the reference oracle the compiled-artifact tests
// compare their output against.
type Interpreter interface {
	Run(contract *Contract, input []byte, readOnly bool) (ret []byte, err error)
}

// StateAccessor exposes the storage surface an Interpreter call frame reads
// and writes through.
type StateAccessor interface {
	IntraBlockState() evmtypes.IntraBlockState
}

var (
	_ Interpreter   = (*EVM)(nil)
	_ StateAccessor = (*EVM)(nil)
)
