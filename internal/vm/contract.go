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
	"github.com/n42blockchain/evmjit/common/types"
)

// ContractRef is anything that can be identified by an address: an
// externally-owned account or a contract.
type ContractRef interface {
	Address() types.Address
}

// AccountRef implements ContractRef for a plain address, used when the
// caller/callee has no backing contract object.
type AccountRef types.Address

// Address casts AccountRef back to a types.Address.
func (ar AccountRef) Address() types.Address { return types.Address(ar) }

// Contract is the execution scope for a single call frame: code, gas,
// value, and the caller/callee identities it was invoked with.
type Contract struct {
	CallerAddress types.Address
	caller        ContractRef
	self          ContractRef

	jumpdests map[types.Hash][]uint64
	analysis  []byte

	Code     []byte
	CodeHash types.Hash
	CodeAddr *types.Address

	Gas   uint64
	value *uint256.Int

	skipAnalysis bool
}

// NewContract returns a new call frame for a call from caller into object.
// When caller is itself a *Contract, its jumpdests cache is shared by
// reference so JUMPDEST analysis for the same code isn't repeated across
// nested calls within one top-level transaction.
func NewContract(caller ContractRef, object ContractRef, value *uint256.Int, gas uint64, skipAnalysis bool) *Contract {
	c := &Contract{
		CallerAddress: caller.Address(),
		caller:        caller,
		self:          object,
		Gas:           gas,
		value:         value,
		skipAnalysis:  skipAnalysis,
	}

	if parent, ok := caller.(*Contract); ok && parent.jumpdests != nil {
		c.jumpdests = parent.jumpdests
	} else {
		c.jumpdests = make(map[types.Hash][]uint64)
	}

	return c
}

// Value returns the value passed to this call frame.
func (c *Contract) Value() *uint256.Int { return c.value }

// Address returns the address of the contract being executed.
func (c *Contract) Address() types.Address { return c.self.Address() }

// Caller returns the address that initiated this call.
func (c *Contract) Caller() types.Address { return c.CallerAddress }

// UseGas deducts gas from the remaining gas, returning false without
// modifying Gas if there isn't enough left.
func (c *Contract) UseGas(gas uint64) bool {
	if c.Gas < gas {
		return false
	}
	c.Gas -= gas
	return true
}

// GetOp returns the opcode at position n, or STOP if n is beyond the end
// of the code (the implicit halt every EVM program runs off the end into).
func (c *Contract) GetOp(n uint64) OpCode {
	if n < uint64(len(c.Code)) {
		return OpCode(c.Code[n])
	}
	return STOP
}

// SetCallCode sets the code this contract executes along with the address
// and hash it was loaded from (distinct from Address() under
// DELEGATECALL/CALLCODE, where code and storage context diverge).
func (c *Contract) SetCallCode(codeAddr *types.Address, codeHash types.Hash, code []byte) {
	c.Code = code
	c.CodeHash = codeHash
	c.CodeAddr = codeAddr
}

// AsDelegate configures c to execute as a DELEGATECALL: it adopts its
// caller's caller and value, while keeping its own code and address.
func (c *Contract) AsDelegate() *Contract {
	parent := c.caller.(*Contract)
	c.CallerAddress = parent.CallerAddress
	c.value = parent.value
	return c
}
