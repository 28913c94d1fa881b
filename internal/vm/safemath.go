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
	"math"

	"github.com/holiman/uint256"
)

// SafeUint256ToInt64 converts a 256-bit stack word to an int64, the shape
// Memory's offset/size parameters take. It reports false rather than
// truncating when v doesn't fit, which interpreter.go turns into
// ErrOutOfGas for MLOAD/MSTORE/MSTORE8 directly and, via memRange, for
// KECCAK256/CALLDATACOPY/CODECOPY/LOG*/RETURN/REVERT — a memory offset
// this large could never be reached by a gas-metered caller first.
func SafeUint256ToInt64(v *uint256.Int) (int64, bool) {
	if !v.IsUint64() {
		return 0, false
	}
	u64 := v.Uint64()
	if u64 > math.MaxInt64 {
		return 0, false
	}
	return int64(u64), true
}

