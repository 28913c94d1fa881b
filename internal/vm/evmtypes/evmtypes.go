// Package evmtypes carries the execution-context types the reference
// interpreter in internal/vm needs to run a contract: block/tx metadata and
// the storage surface it reads and writes through.
package evmtypes

import (
	"math/big"

	"github.com/holiman/uint256"
	libcommon "github.com/n42blockchain/evmjit/common/types"
)

// BlockContext provides the EVM with auxiliary information. Once provided
// it shouldn't be modified.
type BlockContext struct {
	// CanTransfer returns whether the account contains
	// sufficient ether to transfer the value
	CanTransfer CanTransferFunc
	// Transfer transfers ether from one account to the other
	Transfer TransferFunc
	// GetHash returns the hash corresponding to n
	GetHash GetHashFunc

	Coinbase    libcommon.Address // Provides information for COINBASE
	GasLimit    uint64            // Provides information for GASLIMIT
	BlockNumber uint64            // Provides information for NUMBER
	Time        uint64            // Provides information for TIME
	Difficulty  *big.Int          // Provides information for DIFFICULTY
	BaseFee     *uint256.Int      // Provides information for BASEFEE
}

// TxContext provides the EVM with information about a transaction.
// All fields can change between transactions.
type TxContext struct {
	TxHash   libcommon.Hash
	Origin   libcommon.Address // Provides information for ORIGIN
	GasPrice *uint256.Int      // Provides information for GASPRICE
}

type (
	// CanTransferFunc is the signature of a transfer guard function
	CanTransferFunc func(IntraBlockState, libcommon.Address, *uint256.Int) bool
	// TransferFunc is the signature of a transfer function
	TransferFunc func(IntraBlockState, libcommon.Address, libcommon.Address, *uint256.Int, bool)
	// GetHashFunc returns the nth block hash in the blockchain
	// and is used by the BLOCKHASH EVM op code.
	GetHashFunc func(uint64) libcommon.Hash
)

// IntraBlockState is the storage surface the reference interpreter needs:
// SLOAD/SSTORE against a per-account keyed store. It intentionally omits
// the full account-state interface (balances, nonces, access lists,
// self-destruct, logs) that a complete node's state database exposes,
// since the interpreter here only oracles opcode execution, not consensus
// state transitions.
type IntraBlockState interface {
	GetState(addr libcommon.Address, key *libcommon.Hash, outValue *uint256.Int)
	SetState(addr libcommon.Address, key *libcommon.Hash, value uint256.Int)
	GetBalance(addr libcommon.Address) *uint256.Int
	GetCode(addr libcommon.Address) []byte
	GetCodeHash(addr libcommon.Address) libcommon.Hash
}
