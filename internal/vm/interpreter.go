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

// EVM is a straightforward switch-dispatched bytecode interpreter. It
// exists purely as the reference oracle that compiled artifacts (AOT and
// JIT) are checked against: same code, same calldata, same storage in,
// same return value out. It is not optimized and does not meter gas: Run
// never charges Contract.Gas.
package vm

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/n42blockchain/evmjit/common/types"
	"github.com/n42blockchain/evmjit/internal/vm/evmtypes"
	"github.com/n42blockchain/evmjit/internal/vm/stack"
	"golang.org/x/crypto/sha3"
)

var (
	ErrExecutionReverted = errors.New("execution reverted")
	ErrOutOfGas          = errors.New("out of gas")
	ErrInvalidJump       = errors.New("invalid jump destination")
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrInvalidOpcode     = errors.New("invalid opcode")
)

// EVM runs Contract code against a state backend. With a nil state, SLOAD
// reads zero and SSTORE writes are discarded.
type EVM struct {
	state evmtypes.IntraBlockState

	lastStack  []uint256.Int
	lastMemory []byte
}

// NewEVM returns an EVM reading and writing storage through state.
func NewEVM(state evmtypes.IntraBlockState) *EVM {
	return &EVM{state: state}
}

// IntraBlockState implements StateAccessor.
func (e *EVM) IntraBlockState() evmtypes.IntraBlockState { return e.state }

// LastStack returns the word stack left behind by the most recent Run
// call, bottom to top, for callers diffing against a compiled artifact's
// post-halt state.
func (e *EVM) LastStack() []uint256.Int { return e.lastStack }

// LastMemory returns the memory contents left behind by the most recent
// Run call.
func (e *EVM) LastMemory() []byte { return e.lastMemory }

// snapshot copies st and mem's contents into e.lastStack/e.lastMemory
// before their backing buffers are returned to their pools.
func (e *EVM) snapshot(st *stack.Stack, mem *Memory) {
	e.lastStack = append([]uint256.Int(nil), st.Data()...)
	e.lastMemory = append([]byte(nil), mem.Data()...)
}

// memRange converts offset/size stack operands to a validated int64 pair,
// the shape Memory's Get/Set methods take. An operand too large to fit
// int64 could never be reached by a gas-metered caller first, so it is
// reported the same way running out of gas would be.
func memRange(offset, size *uint256.Int) (int64, int64, error) {
	off, ok := SafeUint256ToInt64(offset)
	if !ok {
		return 0, 0, ErrOutOfGas
	}
	sz, ok := SafeUint256ToInt64(size)
	if !ok {
		return 0, 0, ErrOutOfGas
	}
	return off, sz, nil
}

func validJumpdests(contract *Contract) map[uint64]struct{} {
	if contract.skipAnalysis {
		return nil
	}
	if contract.CodeHash != (types.Hash{}) {
		if cached, ok := contract.jumpdests[contract.CodeHash]; ok {
			set := make(map[uint64]struct{}, len(cached))
			for _, pc := range cached {
				set[pc] = struct{}{}
			}
			return set
		}
	}
	dests := make(map[uint64]struct{})
	var list []uint64
	code := contract.Code
	for pc := uint64(0); pc < uint64(len(code)); pc++ {
		op := OpCode(code[pc])
		if op == JUMPDEST {
			dests[pc] = struct{}{}
			list = append(list, pc)
		} else if op.IsPush() {
			pc += uint64(op-PUSH1) + 1
		}
	}
	if contract.CodeHash != (types.Hash{}) {
		contract.jumpdests[contract.CodeHash] = list
	}
	return dests
}

// Run executes contract.Code starting at pc 0 until STOP/RETURN/REVERT or
// an error, returning the RETURN/REVERT data.
func (e *EVM) Run(contract *Contract, input []byte, readOnly bool) ([]byte, error) {
	st := stack.New()
	defer stack.ReturnNormalStack(st)
	mem := NewMemory()
	defer mem.Release()
	defer e.snapshot(st, mem)

	dests := validJumpdests(contract)

	var pc uint64
	for {
		op := contract.GetOp(pc)

		switch {
		case op == STOP:
			return nil, nil

		case op == ADD:
			a, b := st.Pop(), st.Peek()
			b.Add(a, b)
			pc++

		case op == MUL:
			a, b := st.Pop(), st.Peek()
			b.Mul(a, b)
			pc++

		case op == SUB:
			a, b := st.Pop(), st.Peek()
			b.Sub(a, b)
			pc++

		case op == DIV:
			a, b := st.Pop(), st.Peek()
			b.Div(a, b)
			pc++

		case op == SDIV:
			a, b := st.Pop(), st.Peek()
			b.SDiv(a, b)
			pc++

		case op == MOD:
			a, b := st.Pop(), st.Peek()
			b.Mod(a, b)
			pc++

		case op == SMOD:
			a, b := st.Pop(), st.Peek()
			b.SMod(a, b)
			pc++

		case op == ADDMOD:
			a, b, c := st.Pop(), st.Pop(), st.Peek()
			c.AddMod(a, b, c)
			pc++

		case op == MULMOD:
			a, b, c := st.Pop(), st.Pop(), st.Peek()
			c.MulMod(a, b, c)
			pc++

		case op == EXP:
			base, exp := st.Pop(), st.Peek()
			exp.Exp(base, exp)
			pc++

		case op == SIGNEXTEND:
			back, num := st.Pop(), st.Peek()
			num.ExtendSign(num, back)
			pc++

		case op == LT:
			a, b := st.Pop(), st.Peek()
			if a.Lt(b) {
				b.SetOne()
			} else {
				b.Clear()
			}
			pc++

		case op == GT:
			a, b := st.Pop(), st.Peek()
			if a.Gt(b) {
				b.SetOne()
			} else {
				b.Clear()
			}
			pc++

		case op == SLT:
			a, b := st.Pop(), st.Peek()
			if a.Slt(b) {
				b.SetOne()
			} else {
				b.Clear()
			}
			pc++

		case op == SGT:
			a, b := st.Pop(), st.Peek()
			if a.Sgt(b) {
				b.SetOne()
			} else {
				b.Clear()
			}
			pc++

		case op == EQ:
			a, b := st.Pop(), st.Peek()
			if a.Eq(b) {
				b.SetOne()
			} else {
				b.Clear()
			}
			pc++

		case op == ISZERO:
			a := st.Peek()
			if a.IsZero() {
				a.SetOne()
			} else {
				a.Clear()
			}
			pc++

		case op == AND:
			a, b := st.Pop(), st.Peek()
			b.And(a, b)
			pc++

		case op == OR:
			a, b := st.Pop(), st.Peek()
			b.Or(a, b)
			pc++

		case op == XOR:
			a, b := st.Pop(), st.Peek()
			b.Xor(a, b)
			pc++

		case op == NOT:
			a := st.Peek()
			a.Not(a)
			pc++

		case op == BYTE:
			th, val := st.Pop(), st.Peek()
			val.Byte(th)
			pc++

		case op == SHL:
			shift, val := st.Pop(), st.Peek()
			val.Lsh(val, uint(shift.Uint64()))
			pc++

		case op == SHR:
			shift, val := st.Pop(), st.Peek()
			val.Rsh(val, uint(shift.Uint64()))
			pc++

		case op == SAR:
			shift, val := st.Pop(), st.Peek()
			val.SRsh(val, uint(shift.Uint64()))
			pc++

		case op == KECCAK256:
			offset, size := st.Pop(), st.Peek()
			off, sz, err := memRange(offset, size)
			if err != nil {
				return nil, err
			}
			mem.Resize(uint64(off + sz))
			data := mem.GetPtr(off, sz)
			h := sha3.NewLegacyKeccak256()
			h.Write(data)
			buf := GetHashBuffer()
			*buf = h.Sum((*buf)[:0])
			size.SetBytes(*buf)
			PutHashBuffer(buf)
			pc++

		case op == ADDRESS:
			v := GetUint256()
			v.SetBytes(contract.Address().Bytes())
			st.Push(v)
			PutUint256(v)
			pc++

		case op == CALLER:
			v := GetUint256()
			v.SetBytes(contract.Caller().Bytes())
			st.Push(v)
			PutUint256(v)
			pc++

		case op == CALLVALUE:
			st.Push(contract.Value())
			pc++

		case op == CALLDATALOAD:
			off := st.Peek()
			buf := getData(input, off.Uint64(), 32)
			off.SetBytes(buf)
			PutByteSlice(buf)
			pc++

		case op == CALLDATASIZE:
			v := GetUint256()
			v.SetUint64(uint64(len(input)))
			st.Push(v)
			PutUint256(v)
			pc++

		case op == CALLDATACOPY:
			destOff, off, size := st.Pop(), st.Pop(), st.Pop()
			dst, sz, err := memRange(destOff, size)
			if err != nil {
				return nil, err
			}
			mem.Resize(uint64(dst + sz))
			buf := getData(input, off.Uint64(), uint64(sz))
			mem.Set(uint64(dst), uint64(sz), buf)
			PutByteSlice(buf)
			pc++

		case op == CODESIZE:
			v := GetUint256()
			v.SetUint64(uint64(len(contract.Code)))
			st.Push(v)
			PutUint256(v)
			pc++

		case op == CODECOPY:
			destOff, off, size := st.Pop(), st.Pop(), st.Pop()
			dst, sz, err := memRange(destOff, size)
			if err != nil {
				return nil, err
			}
			mem.Resize(uint64(dst + sz))
			buf := getData(contract.Code, off.Uint64(), uint64(sz))
			mem.Set(uint64(dst), uint64(sz), buf)
			PutByteSlice(buf)
			pc++

		case op == POP:
			st.Pop()
			pc++

		case op == MLOAD:
			off := st.Peek()
			offset, ok := SafeUint256ToInt64(off)
			if !ok {
				return nil, ErrOutOfGas
			}
			mem.Resize(uint64(offset) + 32)
			off.SetBytes(mem.GetPtr(offset, 32))
			pc++

		case op == MSTORE:
			off, val := st.Pop(), st.Pop()
			offset, ok := SafeUint256ToInt64(off)
			if !ok {
				return nil, ErrOutOfGas
			}
			mem.Resize(uint64(offset) + 32)
			mem.Set32(uint64(offset), val)
			pc++

		case op == MSTORE8:
			off, val := st.Pop(), st.Pop()
			offset, ok := SafeUint256ToInt64(off)
			if !ok {
				return nil, ErrOutOfGas
			}
			mem.Resize(uint64(offset) + 1)
			mem.store[offset] = byte(val.Uint64())
			pc++

		case op == SLOAD:
			loc := st.Peek()
			hash := types.Hash(loc.Bytes32())
			if e.state != nil {
				var out uint256.Int
				e.state.GetState(contract.Address(), &hash, &out)
				loc.Set(&out)
			} else {
				loc.Clear()
			}
			pc++

		case op == SSTORE:
			if readOnly {
				return nil, ErrExecutionReverted
			}
			loc, val := st.Pop(), st.Pop()
			if e.state != nil {
				hash := types.Hash(loc.Bytes32())
				e.state.SetState(contract.Address(), &hash, *val)
			}
			pc++

		case op == JUMP:
			dest := st.Pop()
			target := dest.Uint64()
			if _, ok := dests[target]; dests != nil && !ok {
				return nil, ErrInvalidJump
			}
			pc = target

		case op == JUMPI:
			dest, cond := st.Pop(), st.Pop()
			if !cond.IsZero() {
				target := dest.Uint64()
				if _, ok := dests[target]; dests != nil && !ok {
					return nil, ErrInvalidJump
				}
				pc = target
			} else {
				pc++
			}

		case op == PC:
			v := GetUint256()
			v.SetUint64(pc)
			st.Push(v)
			PutUint256(v)
			pc++

		case op == MSIZE:
			v := GetUint256()
			v.SetUint64(uint64(mem.Len()))
			st.Push(v)
			PutUint256(v)
			pc++

		case op == GAS:
			v := GetUint256()
			v.SetUint64(contract.Gas)
			st.Push(v)
			PutUint256(v)
			pc++

		case op == JUMPDEST:
			pc++

		case op == PUSH0:
			v := GetUint256()
			st.Push(v)
			PutUint256(v)
			pc++

		case op.IsPush():
			n := uint64(op - PUSH1 + 1)
			v := GetUint256()
			buf := getData(contract.Code, pc+1, n)
			v.SetBytes(buf)
			PutByteSlice(buf)
			st.Push(v)
			PutUint256(v)
			pc += 1 + n

		case op >= DUP1 && op <= DUP16:
			st.Dup(int(op - DUP1 + 1))
			pc++

		case op >= SWAP1 && op <= SWAP16:
			st.Swap(int(op-SWAP1) + 2)
			pc++

		case op >= LOG0 && op <= LOG4:
			n := int(op - LOG0)
			off, size := st.Pop(), st.Pop()
			for i := 0; i < n; i++ {
				st.Pop()
			}
			o, s, err := memRange(off, size)
			if err != nil {
				return nil, err
			}
			mem.Resize(uint64(o + s))
			_ = mem.GetCopy(o, s)
			pc++

		case op == RETURN:
			off, size := st.Pop(), st.Pop()
			o, s, err := memRange(off, size)
			if err != nil {
				return nil, err
			}
			mem.Resize(uint64(o + s))
			return mem.GetCopy(o, s), nil

		case op == REVERT:
			off, size := st.Pop(), st.Pop()
			o, s, err := memRange(off, size)
			if err != nil {
				return nil, err
			}
			mem.Resize(uint64(o + s))
			return mem.GetCopy(o, s), ErrExecutionReverted

		case op == INVALID:
			return nil, ErrInvalidOpcode

		default:
			return nil, ErrInvalidOpcode
		}
	}
}

// getData returns size bytes from data starting at offset, zero-padded
// past the end — the shared CALLDATACOPY/CODECOPY/PUSH immediate slicing
// rule. The returned slice is drawn from the shared byte-slice pool; the
// caller must PutByteSlice it back once done.
func getData(data []byte, offset, size uint64) []byte {
	out := GetByteSlice(int(size))
	if offset >= uint64(len(data)) {
		clear(out)
		return out
	}
	end := offset + size
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	n := copy(out, data[offset:end])
	clear(out[n:])
	return out
}
