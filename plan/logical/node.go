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

package logical

import (
	"github.com/cottontaildb/cottontail/plan/physical"
	"github.com/cottontaildb/cottontail/value"
)

// Arity tags a Node's input cardinality: Nullary (sources), Unary,
// Binary, NAry.
type Arity int

const (
	Nullary Arity = iota
	Unary
	Binary
	NAry
)

func (a Arity) String() string {
	switch a {
	case Nullary:
		return "Nullary"
	case Unary:
		return "Unary"
	case Binary:
		return "Binary"
	case NAry:
		return "NAry"
	default:
		return "Unknown"
	}
}

// GroupId identifies the parallel strand a node belongs to, consulted by
// NAry merge nodes when labeling which strand a given subtree feeds.
type GroupId int32

// Node is a logical operator DAG node. Type* constants identify the
// concrete kind for diagnostics and rule matching without a type switch
// at every call site.
type Node interface {
	// Type returns a stable string tag for this node's kind.
	Type() string
	// Arity reports the node's input cardinality.
	Arity() Arity
	// GroupId reports which parallel strand this node belongs to.
	GroupId() GroupId
	// Columns is (input.columns union produced) minus consumed.
	Columns() value.ColumnSet
	// Requires is the set of columns this node reads from its input(s).
	Requires() value.ColumnSet
	// Executable reports children.executable && local prerequisites.
	Executable() bool
	// Copy returns a detached copy of this node alone (no input edges).
	Copy() Node
	// Implement lowers this node to its canonical 1:1 physical subtree,
	// given the already-lowered ids of its own children in the
	// destination physical.Arena. It performs no cost aggregation:
	// physical.TotalCost walks the result bottom-up afterward.
	Implement(dst *physical.Arena, children []physical.Id) physical.Id
}

// Type* constants name each concrete node kind as a flat string tag
// instead of runtime type switches spread across the codebase.
const (
	TypeEntityScan  = "EntityScan"
	TypeProjection  = "Projection"
	TypeSelection   = "Selection"
	TypeFunction    = "Function"
	TypeSort        = "Sort"
	TypeLimit       = "Limit"
	TypeDelete      = "Delete"
)
