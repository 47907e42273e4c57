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
	"math"

	"github.com/cottontaildb/cottontail/binding"
	"github.com/cottontaildb/cottontail/cost"
	"github.com/cottontaildb/cottontail/exec"
	"github.com/cottontaildb/cottontail/txn"
	"github.com/cottontaildb/cottontail/value"
)

func toExecSortKeys(keys []SortKey) []exec.SortKey {
	out := make([]exec.SortKey, len(keys))
	for i, k := range keys {
		out[i] = exec.SortKey{Column: k.Column, Desc: k.Desc}
	}
	return out
}

// EntityScanPhysicalOperatorNode is the Nullary full-scan leaf: its own
// cost charges one DiskAccessRead per estimated row.
type EntityScanPhysicalOperatorNode struct {
	Entity     string
	ColumnSet  value.ColumnSet
	RowCount   int64
}

func NewEntityScanPhysicalOperatorNode(entity string, columns value.ColumnSet, rowCount int64) *EntityScanPhysicalOperatorNode {
	return &EntityScanPhysicalOperatorNode{Entity: entity, ColumnSet: columns, RowCount: rowCount}
}

func (n *EntityScanPhysicalOperatorNode) Type() string          { return TypeEntityScan }
func (n *EntityScanPhysicalOperatorNode) Arity() Arity          { return Nullary }
func (n *EntityScanPhysicalOperatorNode) Columns() value.ColumnSet { return n.ColumnSet }
func (n *EntityScanPhysicalOperatorNode) OutputSize() int64     { return n.RowCount }
func (n *EntityScanPhysicalOperatorNode) Traits() TraitSet      { return TraitSet{} }

func (n *EntityScanPhysicalOperatorNode) OwnCost(sv *cost.SessionVars) cost.Cost {
	return cost.Cost{IO: float64(n.RowCount) * cost.DiskAccessRead}
}

func (n *EntityScanPhysicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *EntityScanPhysicalOperatorNode) ToOperator(ctx *exec.Context, children []exec.Operator) (exec.Operator, error) {
	return exec.NewEntityScanOperator(ctx, n.Entity, n.ColumnSet.Columns()), nil
}

// EntityCountPhysicalOperatorNode is the count-pushdown rewrite target:
// a Nullary node emitting exactly one row regardless of the entity's
// cardinality, so it is never worth partitioning further.
type EntityCountPhysicalOperatorNode struct {
	Entity   string
	CountCol value.ColumnDef
	RowCount int64
}

func NewEntityCountPhysicalOperatorNode(entity string, countCol value.ColumnDef, rowCount int64) *EntityCountPhysicalOperatorNode {
	return &EntityCountPhysicalOperatorNode{Entity: entity, CountCol: countCol, RowCount: rowCount}
}

func (n *EntityCountPhysicalOperatorNode) Type() string          { return TypeEntityCount }
func (n *EntityCountPhysicalOperatorNode) Arity() Arity          { return Nullary }
func (n *EntityCountPhysicalOperatorNode) Columns() value.ColumnSet {
	return value.NewColumnSet(n.CountCol)
}
func (n *EntityCountPhysicalOperatorNode) OutputSize() int64 { return 1 }
func (n *EntityCountPhysicalOperatorNode) Traits() TraitSet {
	return TraitSet{NotPartitionableTrait: Trait{}}
}

func (n *EntityCountPhysicalOperatorNode) OwnCost(sv *cost.SessionVars) cost.Cost {
	return cost.Cost{IO: float64(n.RowCount) * cost.DiskAccessRead, Memory: cost.MemoryAccess}
}

func (n *EntityCountPhysicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *EntityCountPhysicalOperatorNode) ToOperator(ctx *exec.Context, children []exec.Operator) (exec.Operator, error) {
	return exec.NewEntityCountOperator(ctx, n.Entity, n.CountCol), nil
}

// ProjectionPhysicalOperatorNode is a Unary passthrough restricting the
// input schema, cheap enough that its own cost is a flat per-row memory
// touch (no IO, no function invocation).
type ProjectionPhysicalOperatorNode struct {
	ColumnSet value.ColumnSet
	InputSize int64
}

func NewProjectionPhysicalOperatorNode(columns value.ColumnSet, inputSize int64) *ProjectionPhysicalOperatorNode {
	return &ProjectionPhysicalOperatorNode{ColumnSet: columns, InputSize: inputSize}
}

func (n *ProjectionPhysicalOperatorNode) Type() string            { return TypeProjection }
func (n *ProjectionPhysicalOperatorNode) Arity() Arity            { return Unary }
func (n *ProjectionPhysicalOperatorNode) Columns() value.ColumnSet { return n.ColumnSet }
func (n *ProjectionPhysicalOperatorNode) OutputSize() int64       { return n.InputSize }
func (n *ProjectionPhysicalOperatorNode) Traits() TraitSet        { return TraitSet{} }

func (n *ProjectionPhysicalOperatorNode) OwnCost(sv *cost.SessionVars) cost.Cost {
	return cost.Cost{Memory: float64(n.InputSize) * cost.MemoryAccess}
}

func (n *ProjectionPhysicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *ProjectionPhysicalOperatorNode) ToOperator(ctx *exec.Context, children []exec.Operator) (exec.Operator, error) {
	return exec.NewProjectionOperator(ctx, children[0], n.ColumnSet.Columns()), nil
}

// SelectionPhysicalOperatorNode is a Unary filter: OutputSize already
// folds in the predicate's estimated selectivity, so a parent's own
// OutputSize never needs to re-derive it.
type SelectionPhysicalOperatorNode struct {
	Predicate   txn.Predicate
	ColumnSet   value.ColumnSet
	InputSize   int64
	Selectivity float64
}

func NewSelectionPhysicalOperatorNode(pred txn.Predicate, columns value.ColumnSet, inputSize int64, selectivity float64) *SelectionPhysicalOperatorNode {
	return &SelectionPhysicalOperatorNode{Predicate: pred, ColumnSet: columns, InputSize: inputSize, Selectivity: selectivity}
}

func (n *SelectionPhysicalOperatorNode) Type() string            { return TypeSelection }
func (n *SelectionPhysicalOperatorNode) Arity() Arity            { return Unary }
func (n *SelectionPhysicalOperatorNode) Columns() value.ColumnSet { return n.ColumnSet }
func (n *SelectionPhysicalOperatorNode) OutputSize() int64 {
	return int64(float64(n.InputSize) * n.Selectivity)
}
func (n *SelectionPhysicalOperatorNode) Traits() TraitSet { return TraitSet{} }

func (n *SelectionPhysicalOperatorNode) OwnCost(sv *cost.SessionVars) cost.Cost {
	return cost.Cost{CPU: float64(n.InputSize) * cost.FunctionCall}
}

func (n *SelectionPhysicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *SelectionPhysicalOperatorNode) ToOperator(ctx *exec.Context, children []exec.Operator) (exec.Operator, error) {
	return exec.NewSelectionOperator(ctx, children[0], n.Predicate), nil
}

// FunctionPhysicalOperatorNode is a Unary node appending one derived
// column: its own cost is the bound function's per-row Cost scaled
// across InputSize.
type FunctionPhysicalOperatorNode struct {
	OutCol    value.ColumnDef
	BindingID binding.Id
	InputSize int64
	InputCols value.ColumnSet
	PerRow    cost.Cost
}

func NewFunctionPhysicalOperatorNode(outCol value.ColumnDef, bindingID binding.Id, inputCols value.ColumnSet, inputSize int64, perRow cost.Cost) *FunctionPhysicalOperatorNode {
	return &FunctionPhysicalOperatorNode{OutCol: outCol, BindingID: bindingID, InputSize: inputSize, InputCols: inputCols, PerRow: perRow}
}

func (n *FunctionPhysicalOperatorNode) Type() string { return TypeFunction }
func (n *FunctionPhysicalOperatorNode) Arity() Arity { return Unary }
func (n *FunctionPhysicalOperatorNode) Columns() value.ColumnSet {
	out := value.NewColumnSet(n.InputCols.Columns()...)
	out.Add(n.OutCol)
	return out
}
func (n *FunctionPhysicalOperatorNode) OutputSize() int64 { return n.InputSize }
func (n *FunctionPhysicalOperatorNode) Traits() TraitSet  { return TraitSet{} }

func (n *FunctionPhysicalOperatorNode) OwnCost(sv *cost.SessionVars) cost.Cost {
	return n.PerRow.Scale(float64(n.InputSize))
}

func (n *FunctionPhysicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *FunctionPhysicalOperatorNode) ToOperator(ctx *exec.Context, children []exec.Operator) (exec.Operator, error) {
	return exec.NewFunctionOperator(ctx, children[0], n.OutCol, n.BindingID), nil
}

// VectorizedFunctionPhysicalOperatorNode is the SIMD rewrite's
// substitution target: structurally identical to FunctionPhysicalOperatorNode, but
// BindingID is re-bound to the vectorized function's registry name and
// PerRow reflects a lane-grouped cost curve (function.vectorizedDistance.
// Cost) instead of a per-component one. Runtime lowering is unchanged:
// exec.FunctionOperator resolves whatever name the binding carries.
type VectorizedFunctionPhysicalOperatorNode struct {
	FunctionPhysicalOperatorNode
}

func NewVectorizedFunctionPhysicalOperatorNode(outCol value.ColumnDef, bindingID binding.Id, inputCols value.ColumnSet, inputSize int64, perRow cost.Cost) *VectorizedFunctionPhysicalOperatorNode {
	return &VectorizedFunctionPhysicalOperatorNode{
		FunctionPhysicalOperatorNode: FunctionPhysicalOperatorNode{
			OutCol: outCol, BindingID: bindingID, InputSize: inputSize, InputCols: inputCols, PerRow: perRow,
		},
	}
}

func (n *VectorizedFunctionPhysicalOperatorNode) Type() string { return TypeVectorizedFunction }

func (n *VectorizedFunctionPhysicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

// SortPhysicalOperatorNode is a Unary pipeline breaker: it materializes
// InputSize rows, so its own cost charges a comparison-based cpu term
// and a memory term proportional to the buffered row count.
type SortPhysicalOperatorNode struct {
	SortOn    []SortKey
	ColumnSet value.ColumnSet
	InputSize int64
	RowWidth  float64
}

func NewSortPhysicalOperatorNode(sortOn []SortKey, columns value.ColumnSet, inputSize int64, rowWidth float64) *SortPhysicalOperatorNode {
	return &SortPhysicalOperatorNode{SortOn: sortOn, ColumnSet: columns, InputSize: inputSize, RowWidth: rowWidth}
}

func (n *SortPhysicalOperatorNode) Type() string            { return TypeSort }
func (n *SortPhysicalOperatorNode) Arity() Arity            { return Unary }
func (n *SortPhysicalOperatorNode) Columns() value.ColumnSet { return n.ColumnSet }
func (n *SortPhysicalOperatorNode) OutputSize() int64       { return n.InputSize }
func (n *SortPhysicalOperatorNode) Traits() TraitSet {
	return TraitSet{
		OrderTrait:          Trait{SortOn: n.SortOn},
		MaterializedTrait:   Trait{},
	}
}

func (n *SortPhysicalOperatorNode) OwnCost(sv *cost.SessionVars) cost.Cost {
	rows := float64(n.InputSize)
	comparisons := rows
	if rows > 1 {
		comparisons = rows * math.Log2(rows) * float64(len(n.SortOn))
	}
	return cost.Cost{CPU: comparisons * cost.MemoryAccess, Memory: rows * n.RowWidth * cost.MemoryAccess}
}

func (n *SortPhysicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *SortPhysicalOperatorNode) ToOperator(ctx *exec.Context, children []exec.Operator) (exec.Operator, error) {
	return exec.NewSortOperator(ctx, children[0], toExecSortKeys(n.SortOn)), nil
}

// LimitPhysicalOperatorNode is a Unary skip/take window whose OutputSize
// bounds whatever its input would otherwise produce. It carries
// LimitTrait so an upstream MergeLimitingSort can read the bound back.
type LimitPhysicalOperatorNode struct {
	Skip, Limit int64
	ColumnSet   value.ColumnSet
	InputSize   int64
}

func NewLimitPhysicalOperatorNode(skip, limit int64, columns value.ColumnSet, inputSize int64) *LimitPhysicalOperatorNode {
	return &LimitPhysicalOperatorNode{Skip: skip, Limit: limit, ColumnSet: columns, InputSize: inputSize}
}

func (n *LimitPhysicalOperatorNode) Type() string            { return TypeLimit }
func (n *LimitPhysicalOperatorNode) Arity() Arity            { return Unary }
func (n *LimitPhysicalOperatorNode) Columns() value.ColumnSet { return n.ColumnSet }

func (n *LimitPhysicalOperatorNode) OutputSize() int64 {
	remaining := n.InputSize - n.Skip
	if remaining < 0 {
		remaining = 0
	}
	if remaining < n.Limit {
		return remaining
	}
	return n.Limit
}

func (n *LimitPhysicalOperatorNode) Traits() TraitSet {
	return TraitSet{LimitTrait: Trait{Limit: n.Limit}}
}

func (n *LimitPhysicalOperatorNode) OwnCost(sv *cost.SessionVars) cost.Cost {
	return cost.Cost{CPU: float64(n.Skip+n.Limit) * cost.MemoryAccess}
}

func (n *LimitPhysicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *LimitPhysicalOperatorNode) ToOperator(ctx *exec.Context, children []exec.Operator) (exec.Operator, error) {
	return exec.NewLimitOperator(ctx, children[0], n.Skip, n.Limit), nil
}

// DeletePhysicalOperatorNode is a Unary pipeline breaker consuming every
// input row as a deletion target: its own cost charges a DiskAccessWrite
// per candidate row.
type DeletePhysicalOperatorNode struct {
	Entity                        string
	DeletedCountCol, TimestampCol value.ColumnDef
	InputSize                     int64
}

func NewDeletePhysicalOperatorNode(entity string, deletedCountCol, timestampCol value.ColumnDef, inputSize int64) *DeletePhysicalOperatorNode {
	return &DeletePhysicalOperatorNode{Entity: entity, DeletedCountCol: deletedCountCol, TimestampCol: timestampCol, InputSize: inputSize}
}

func (n *DeletePhysicalOperatorNode) Type() string { return TypeDelete }
func (n *DeletePhysicalOperatorNode) Arity() Arity { return Unary }
func (n *DeletePhysicalOperatorNode) Columns() value.ColumnSet {
	return value.NewColumnSet(n.DeletedCountCol, n.TimestampCol)
}
func (n *DeletePhysicalOperatorNode) OutputSize() int64 { return 1 }
func (n *DeletePhysicalOperatorNode) Traits() TraitSet {
	return TraitSet{NotPartitionableTrait: Trait{}}
}

func (n *DeletePhysicalOperatorNode) OwnCost(sv *cost.SessionVars) cost.Cost {
	return cost.Cost{IO: float64(n.InputSize) * cost.DiskAccessWrite}
}

func (n *DeletePhysicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *DeletePhysicalOperatorNode) ToOperator(ctx *exec.Context, children []exec.Operator) (exec.Operator, error) {
	return exec.NewDeleteOperator(ctx, children[0], n.Entity, n.DeletedCountCol, n.TimestampCol), nil
}

// IndexScanPhysicalOperatorNode is a Nullary predicate-accelerated scan,
// the KNN-to-index rewrite target: Partitions > 0 selects a partitioned
// strand of a larger NAry fan-out; Partitions == 0 is a plain
// unpartitioned scan.
type IndexScanPhysicalOperatorNode struct {
	Index               string
	Predicate           txn.Predicate
	ColumnSet           value.ColumnSet
	RowCount            int64
	Partition, Partitions int
}

func NewIndexScanPhysicalOperatorNode(index string, pred txn.Predicate, columns value.ColumnSet, rowCount int64) *IndexScanPhysicalOperatorNode {
	return &IndexScanPhysicalOperatorNode{Index: index, Predicate: pred, ColumnSet: columns, RowCount: rowCount}
}

func NewPartitionedIndexScanPhysicalOperatorNode(index string, pred txn.Predicate, columns value.ColumnSet, rowCount int64, partition, partitions int) *IndexScanPhysicalOperatorNode {
	return &IndexScanPhysicalOperatorNode{Index: index, Predicate: pred, ColumnSet: columns, RowCount: rowCount, Partition: partition, Partitions: partitions}
}

func (n *IndexScanPhysicalOperatorNode) Type() string            { return TypeIndexScan }
func (n *IndexScanPhysicalOperatorNode) Arity() Arity            { return Nullary }
func (n *IndexScanPhysicalOperatorNode) Columns() value.ColumnSet { return n.ColumnSet }
func (n *IndexScanPhysicalOperatorNode) OutputSize() int64       { return n.RowCount }

func (n *IndexScanPhysicalOperatorNode) Traits() TraitSet {
	if n.Partitions == 0 {
		return TraitSet{NotPartitionableTrait: Trait{}}
	}
	return TraitSet{}
}

func (n *IndexScanPhysicalOperatorNode) OwnCost(sv *cost.SessionVars) cost.Cost {
	// Index access skips a full sequential scan: half the IO charge of an
	// equivalent EntityScanPhysicalOperatorNode over the same row count.
	return cost.Cost{IO: float64(n.RowCount) * cost.DiskAccessRead * 0.5}
}

func (n *IndexScanPhysicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *IndexScanPhysicalOperatorNode) ToOperator(ctx *exec.Context, children []exec.Operator) (exec.Operator, error) {
	if n.Partitions > 0 {
		return exec.NewPartitionedIndexScanOperator(ctx, n.Index, n.Predicate, n.Partition, n.Partitions), nil
	}
	return exec.NewIndexScanOperator(ctx, n.Index, n.Predicate), nil
}

// MergeLimitingSortPhysicalOperatorNode is the NAry bounded top-k merge:
// it fans in StrandCount parallel strands, each assumed already sorted
// or scored by SortOn, and keeps only the best Limit rows. Own cost
// charges two passes per input row per sort key for the bounded heap's
// compare-and-maybe-swap, plus a ConcurrencyFactor-scaled charge per
// extra strand goroutine.
type MergeLimitingSortPhysicalOperatorNode struct {
	SortOn      []SortKey
	Limit       int64
	ColumnSet   value.ColumnSet
	StrandCount int
	InputSizeSum int64
	RowWidth    float64
}

func NewMergeLimitingSortPhysicalOperatorNode(sortOn []SortKey, limit int64, columns value.ColumnSet, strandCount int, inputSizeSum int64, rowWidth float64) *MergeLimitingSortPhysicalOperatorNode {
	return &MergeLimitingSortPhysicalOperatorNode{
		SortOn: sortOn, Limit: limit, ColumnSet: columns, StrandCount: strandCount,
		InputSizeSum: inputSizeSum, RowWidth: rowWidth,
	}
}

func (n *MergeLimitingSortPhysicalOperatorNode) Type() string            { return TypeMergeLimitingSort }
func (n *MergeLimitingSortPhysicalOperatorNode) Arity() Arity            { return NAry }
func (n *MergeLimitingSortPhysicalOperatorNode) Columns() value.ColumnSet { return n.ColumnSet }

func (n *MergeLimitingSortPhysicalOperatorNode) OutputSize() int64 {
	if n.InputSizeSum < n.Limit {
		return n.InputSizeSum
	}
	return n.Limit
}

func (n *MergeLimitingSortPhysicalOperatorNode) Traits() TraitSet {
	return TraitSet{
		OrderTrait:            Trait{SortOn: n.SortOn},
		LimitTrait:            Trait{Limit: n.Limit},
		NotPartitionableTrait: Trait{},
	}
}

func (n *MergeLimitingSortPhysicalOperatorNode) OwnCost(sv *cost.SessionVars) cost.Cost {
	cpuCost := 2 * float64(n.InputSizeSum) * float64(len(n.SortOn)) * cost.MemoryAccess
	extraStrands := float64(n.StrandCount - 1)
	if extraStrands < 0 {
		extraStrands = 0
	}
	return cost.Cost{
		CPU:    cpuCost + extraStrands*sv.ConcurrencyFactor,
		Memory: float64(n.OutputSize()) * n.RowWidth * cost.MemoryAccess,
	}
}

func (n *MergeLimitingSortPhysicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *MergeLimitingSortPhysicalOperatorNode) ToOperator(ctx *exec.Context, children []exec.Operator) (exec.Operator, error) {
	return exec.NewMergeLimitingHeapSortOperator(children, toExecSortKeys(n.SortOn), n.Limit), nil
}

