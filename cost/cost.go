// Copyright 2015 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cost implements Cottontail's atomic cost model: a (cpu, io,
// memory) triple composed bottom-up over the physical plan, weighted
// into a single comparable score only at plan-selection time.
package cost

import "fmt"

// Cost is the atomic (cpu, io, memory) triple. It forms a commutative
// monoid under Add with Zero as identity: costs compose by componentwise
// addition as each physical node folds its children's cost into its own.
type Cost struct {
	CPU    float64
	IO     float64
	Memory float64
}

// Zero is the additive identity.
var Zero = Cost{}

// Add returns the componentwise sum of c and o.
func (c Cost) Add(o Cost) Cost {
	return Cost{CPU: c.CPU + o.CPU, IO: c.IO + o.IO, Memory: c.Memory + o.Memory}
}

// Scale multiplies every component by f, used when a cost is charged per
// row across an estimated cardinality.
func (c Cost) Scale(f float64) Cost {
	return Cost{CPU: c.CPU * f, IO: c.IO * f, Memory: c.Memory * f}
}

func (c Cost) String() string {
	return fmt.Sprintf("Cost(cpu=%.4f, io=%.4f, mem=%.4f)", c.CPU, c.IO, c.Memory)
}

// Atomic per-unit cost constants. Units are relative: only the ratios
// between them matter to plan selection.
const (
	// DiskAccessRead is the IO cost of reading one row from an entity or
	// index cursor.
	DiskAccessRead = 1.0
	// DiskAccessWrite is the IO cost of writing/deleting one row.
	DiskAccessWrite = 1.5
	// MemoryAccess is the memory cost of holding one row resident (e.g.
	// in a sort buffer or hash table build side).
	MemoryAccess = 0.01
	// FunctionCall is the baseline CPU cost of invoking one scalar
	// function application.
	FunctionCall = 0.1
)

// SessionVars carries the planner parameters the cost model and rewrite
// engine consult. Config loading that populates SessionVars from an
// external source is the host's business; only the struct and its
// defaults live here.
type SessionVars struct {
	// CPUFactor scales CPU cost units into the planner's comparable score.
	CPUFactor float64
	// IOFactor scales IO cost units.
	IOFactor float64
	// MemoryFactor scales memory cost units.
	MemoryFactor float64
	// ConcurrencyFactor charges a fixed cost per additional parallel
	// strand an NAry physical node spawns.
	ConcurrencyFactor float64
	// SIMDThreshold is the minimum vector dimensionality at or above
	// which the planner substitutes a VectorizedFunction for its scalar
	// counterpart. The right threshold is hardware-dependent, which is
	// why it is a parameter and not a constant.
	SIMDThreshold int
}

// DefaultSessionVars returns the planner parameter defaults used when no
// override is supplied.
func DefaultSessionVars() *SessionVars {
	return &SessionVars{
		CPUFactor:         1.0,
		IOFactor:          1.0,
		MemoryFactor:      0.2,
		ConcurrencyFactor: 3.0,
		SIMDThreshold:     256,
	}
}

// Score reduces a Cost triple to the single comparable value the planner
// ranks candidate physical plans by.
func (v *SessionVars) Score(c Cost) float64 {
	return c.CPU*v.CPUFactor + c.IO*v.IOFactor + c.Memory*v.MemoryFactor
}
