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

package params

// Rules is the set of hard-fork feature flags in effect for a chain at a
// given block. Code consuming Rules only cares about opcode availability,
// not the historical block numbers that activated each fork.
type Rules struct {
	IsHomestead        bool
	IsTangerineWhistle bool
	IsSpuriousDragon   bool
	IsByzantium        bool
	IsConstantinople   bool
	IsPetersburg       bool
	IsIstanbul         bool
	IsBerlin           bool
	IsLondon           bool
	IsShanghai         bool
	IsCancun           bool
	IsPectra           bool
	IsOsaka            bool
}

// LatestRules returns the Rules with every fork enabled, the default for
// code that has no specific hard-fork gating requirement.
func LatestRules() *Rules {
	return &Rules{
		IsHomestead:        true,
		IsTangerineWhistle: true,
		IsSpuriousDragon:   true,
		IsByzantium:        true,
		IsConstantinople:   true,
		IsPetersburg:       true,
		IsIstanbul:         true,
		IsBerlin:           true,
		IsLondon:           true,
		IsShanghai:         true,
		IsCancun:           true,
		IsPectra:           true,
		IsOsaka:            true,
	}
}
