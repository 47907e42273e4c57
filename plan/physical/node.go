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

package physical

import (
	"github.com/cottontaildb/cottontail/cost"
	"github.com/cottontaildb/cottontail/exec"
	"github.com/cottontaildb/cottontail/value"
)

// Arity tags a physical Node's input cardinality, independent of
// plan/logical's Arity since a node's physical shape can diverge from its
// logical source (e.g. CountPushdownRule turns a Unary Projection-over-
// EntityScan into a Nullary EntityCountPhysicalOperatorNode).
type Arity int

const (
	Nullary Arity = iota
	Unary
	Binary
	NAry
)

// TraitType tags an entry in a Node's trait map.
type TraitType int

const (
	OrderTrait TraitType = iota
	LimitTrait
	NotPartitionableTrait
	MaterializedTrait
)

// SortKey orders output rows by a column, ascending or descending; used
// both as OrderTrait's payload and as MergeLimitingSortPhysicalOperatorNode's
// sortOn.
type SortKey struct {
	Column value.ColumnDef
	Desc   bool
}

// Trait is the payload a TraitType entry carries. Exactly one of its
// fields is meaningful per TraitType: OrderTrait uses SortOn, LimitTrait
// uses Limit, NotPartitionableTrait/MaterializedTrait carry no payload.
type Trait struct {
	SortOn []SortKey
	Limit  int64
}

// TraitSet is a Node's trait map, small enough that anything fancier
// than a plain Go map is unwarranted.
type TraitSet map[TraitType]Trait

// Has reports whether t carries an entry for kind.
func (t TraitSet) Has(kind TraitType) bool {
	_, ok := t[kind]
	return ok
}

// Node is a physical operator DAG node: logical shape plus
// cost/size/trait/partitioning metadata and a runtime lowering.
type Node interface {
	// Type returns a stable string tag for this node's kind.
	Type() string
	Arity() Arity
	// Columns is this node's output schema.
	Columns() value.ColumnSet
	// OutputSize is this node's own row-count estimate (not including
	// children's contribution; see TotalOutputSize for the DAG-wide
	// figure a cardinality-dependent parent would consult).
	OutputSize() int64
	// OwnCost is this node's local atomic cost, excluding children; see
	// TotalCost in cost.go for bottom-up composition.
	OwnCost(sv *cost.SessionVars) cost.Cost
	// Traits reports this node's trait map.
	Traits() TraitSet
	// Copy returns a detached copy of this node alone (no input edges).
	Copy() Node
	// ToOperator lowers this node, with its children already lowered to
	// runtime operators, into a single runtime operator with its late
	// values bound.
	ToOperator(ctx *exec.Context, children []exec.Operator) (exec.Operator, error)
}

// Type* constants name each concrete physical node kind.
const (
	TypeEntityScan          = "EntityScan"
	TypeEntityCount         = "EntityCount"
	TypeProjection          = "Projection"
	TypeSelection           = "Selection"
	TypeFunction            = "Function"
	TypeVectorizedFunction  = "VectorizedFunction"
	TypeSort                = "Sort"
	TypeLimit               = "Limit"
	TypeDelete              = "Delete"
	TypeMergeLimitingSort   = "MergeLimitingSort"
	TypeIndexScan           = "IndexScan"
)
