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
	"github.com/cottontaildb/cottontail/binding"
	"github.com/cottontaildb/cottontail/cost"
	"github.com/cottontaildb/cottontail/plan/physical"
	"github.com/cottontaildb/cottontail/txn"
	"github.com/cottontaildb/cottontail/value"
)

// EntityScanLogicalOperatorNode is the Nullary full-scan source:
// executable iff Entity names a bound entity.
type EntityScanLogicalOperatorNode struct {
	Entity    string
	ColumnSet value.ColumnSet
	RowCount  int64
	Group     GroupId
}

// NewEntityScanLogicalOperatorNode builds a full-scan source over entity.
func NewEntityScanLogicalOperatorNode(entity string, columns value.ColumnSet, rowCount int64, group GroupId) *EntityScanLogicalOperatorNode {
	return &EntityScanLogicalOperatorNode{Entity: entity, ColumnSet: columns, RowCount: rowCount, Group: group}
}

func (n *EntityScanLogicalOperatorNode) Type() string            { return TypeEntityScan }
func (n *EntityScanLogicalOperatorNode) Arity() Arity            { return Nullary }
func (n *EntityScanLogicalOperatorNode) GroupId() GroupId        { return n.Group }
func (n *EntityScanLogicalOperatorNode) Columns() value.ColumnSet { return n.ColumnSet }
func (n *EntityScanLogicalOperatorNode) Requires() value.ColumnSet { return value.ColumnSet{} }
func (n *EntityScanLogicalOperatorNode) Executable() bool         { return n.Entity != "" }

func (n *EntityScanLogicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *EntityScanLogicalOperatorNode) Implement(dst *physical.Arena, children []physical.Id) physical.Id {
	return dst.Add(physical.NewEntityScanPhysicalOperatorNode(n.Entity, n.ColumnSet, n.RowCount))
}

// ProjectionLogicalOperatorNode is a Unary schema restriction: columns
// and requires coincide since a projection neither produces nor consumes
// anything beyond the columns it keeps.
type ProjectionLogicalOperatorNode struct {
	OutputColumns value.ColumnSet
	InputSize     int64
	Group         GroupId
	InputExec     bool
}

// NewProjectionLogicalOperatorNode builds a projection restricting its
// input to outputColumns. inputExecutable is the child's Executable().
func NewProjectionLogicalOperatorNode(outputColumns value.ColumnSet, inputSize int64, group GroupId, inputExecutable bool) *ProjectionLogicalOperatorNode {
	return &ProjectionLogicalOperatorNode{OutputColumns: outputColumns, InputSize: inputSize, Group: group, InputExec: inputExecutable}
}

func (n *ProjectionLogicalOperatorNode) Type() string             { return TypeProjection }
func (n *ProjectionLogicalOperatorNode) Arity() Arity             { return Unary }
func (n *ProjectionLogicalOperatorNode) GroupId() GroupId         { return n.Group }
func (n *ProjectionLogicalOperatorNode) Columns() value.ColumnSet { return n.OutputColumns }
func (n *ProjectionLogicalOperatorNode) Requires() value.ColumnSet { return n.OutputColumns }
func (n *ProjectionLogicalOperatorNode) Executable() bool         { return n.InputExec }

func (n *ProjectionLogicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *ProjectionLogicalOperatorNode) Implement(dst *physical.Arena, children []physical.Id) physical.Id {
	return dst.Add(physical.NewProjectionPhysicalOperatorNode(n.OutputColumns, n.InputSize), children[0])
}

// SelectionLogicalOperatorNode is a Unary filter over Predicate.
// RequiredColumns names the columns Predicate reads, since txn.Predicate
// exposes no column introspection of its own.
type SelectionLogicalOperatorNode struct {
	Predicate       txn.Predicate
	RequiredColumns value.ColumnSet
	InputColumns    value.ColumnSet
	InputSize       int64
	Selectivity     float64
	Group           GroupId
	InputExec       bool
}

// NewSelectionLogicalOperatorNode builds a filter over pred. requiredColumns
// are the columns pred reads; inputExecutable is the child's Executable().
func NewSelectionLogicalOperatorNode(pred txn.Predicate, requiredColumns, inputColumns value.ColumnSet, inputSize int64, selectivity float64, group GroupId, inputExecutable bool) *SelectionLogicalOperatorNode {
	return &SelectionLogicalOperatorNode{
		Predicate: pred, RequiredColumns: requiredColumns, InputColumns: inputColumns,
		InputSize: inputSize, Selectivity: selectivity, Group: group, InputExec: inputExecutable,
	}
}

func (n *SelectionLogicalOperatorNode) Type() string             { return TypeSelection }
func (n *SelectionLogicalOperatorNode) Arity() Arity             { return Unary }
func (n *SelectionLogicalOperatorNode) GroupId() GroupId         { return n.Group }
func (n *SelectionLogicalOperatorNode) Columns() value.ColumnSet { return n.InputColumns }
func (n *SelectionLogicalOperatorNode) Requires() value.ColumnSet { return n.RequiredColumns }
func (n *SelectionLogicalOperatorNode) Executable() bool         { return n.InputExec }

func (n *SelectionLogicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *SelectionLogicalOperatorNode) Implement(dst *physical.Arena, children []physical.Id) physical.Id {
	return dst.Add(physical.NewSelectionPhysicalOperatorNode(n.Predicate, n.InputColumns, n.InputSize, n.Selectivity), children[0])
}

// FunctionLogicalOperatorNode is a Unary node appending one derived
// column; it is executable only when both its input and the bound
// function are.
type FunctionLogicalOperatorNode struct {
	OutCol          value.ColumnDef
	BindingID       binding.Id
	InputColumns    value.ColumnSet
	RequiredColumns value.ColumnSet
	InputSize       int64
	PerRow          cost.Cost
	Group           GroupId
	InputExec       bool
	FunctionExec    bool
}

// NewFunctionLogicalOperatorNode builds a node appending outCol, computed
// by the function bound at bindingID. requiredColumns are the columns the
// bound function reads; functionExecutable reports the bound function's
// own executable flag.
func NewFunctionLogicalOperatorNode(outCol value.ColumnDef, bindingID binding.Id, inputColumns, requiredColumns value.ColumnSet, inputSize int64, perRow cost.Cost, group GroupId, inputExecutable, functionExecutable bool) *FunctionLogicalOperatorNode {
	return &FunctionLogicalOperatorNode{
		OutCol: outCol, BindingID: bindingID, InputColumns: inputColumns, RequiredColumns: requiredColumns,
		InputSize: inputSize, PerRow: perRow, Group: group, InputExec: inputExecutable, FunctionExec: functionExecutable,
	}
}

func (n *FunctionLogicalOperatorNode) Type() string { return TypeFunction }
func (n *FunctionLogicalOperatorNode) Arity() Arity { return Unary }
func (n *FunctionLogicalOperatorNode) GroupId() GroupId { return n.Group }
func (n *FunctionLogicalOperatorNode) Columns() value.ColumnSet {
	out := value.NewColumnSet(n.InputColumns.Columns()...)
	out.Add(n.OutCol)
	return out
}
func (n *FunctionLogicalOperatorNode) Requires() value.ColumnSet { return n.RequiredColumns }
func (n *FunctionLogicalOperatorNode) Executable() bool          { return n.InputExec && n.FunctionExec }

func (n *FunctionLogicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *FunctionLogicalOperatorNode) Implement(dst *physical.Arena, children []physical.Id) physical.Id {
	return dst.Add(physical.NewFunctionPhysicalOperatorNode(n.OutCol, n.BindingID, n.InputColumns, n.InputSize, n.PerRow), children[0])
}

// SortLogicalOperatorNode is a Unary pipeline breaker ordering rows by
// SortOn; it reuses physical.SortKey directly since this package already
// imports plan/physical for Implement's return type.
type SortLogicalOperatorNode struct {
	SortOn    []physical.SortKey
	ColumnSet value.ColumnSet
	InputSize int64
	RowWidth  float64
	Group     GroupId
	InputExec bool
}

// NewSortLogicalOperatorNode builds a sort over sortOn.
func NewSortLogicalOperatorNode(sortOn []physical.SortKey, columns value.ColumnSet, inputSize int64, rowWidth float64, group GroupId, inputExecutable bool) *SortLogicalOperatorNode {
	return &SortLogicalOperatorNode{SortOn: sortOn, ColumnSet: columns, InputSize: inputSize, RowWidth: rowWidth, Group: group, InputExec: inputExecutable}
}

func (n *SortLogicalOperatorNode) Type() string             { return TypeSort }
func (n *SortLogicalOperatorNode) Arity() Arity             { return Unary }
func (n *SortLogicalOperatorNode) GroupId() GroupId         { return n.Group }
func (n *SortLogicalOperatorNode) Columns() value.ColumnSet { return n.ColumnSet }
func (n *SortLogicalOperatorNode) Requires() value.ColumnSet { return n.ColumnSet }
func (n *SortLogicalOperatorNode) Executable() bool         { return n.InputExec }

func (n *SortLogicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *SortLogicalOperatorNode) Implement(dst *physical.Arena, children []physical.Id) physical.Id {
	return dst.Add(physical.NewSortPhysicalOperatorNode(n.SortOn, n.ColumnSet, n.InputSize, n.RowWidth), children[0])
}

// LimitLogicalOperatorNode is a Unary skip/take window.
type LimitLogicalOperatorNode struct {
	Skip, Limit int64
	ColumnSet   value.ColumnSet
	InputSize   int64
	Group       GroupId
	InputExec   bool
}

// NewLimitLogicalOperatorNode builds a skip/take window over its input.
func NewLimitLogicalOperatorNode(skip, limit int64, columns value.ColumnSet, inputSize int64, group GroupId, inputExecutable bool) *LimitLogicalOperatorNode {
	return &LimitLogicalOperatorNode{Skip: skip, Limit: limit, ColumnSet: columns, InputSize: inputSize, Group: group, InputExec: inputExecutable}
}

func (n *LimitLogicalOperatorNode) Type() string             { return TypeLimit }
func (n *LimitLogicalOperatorNode) Arity() Arity             { return Unary }
func (n *LimitLogicalOperatorNode) GroupId() GroupId         { return n.Group }
func (n *LimitLogicalOperatorNode) Columns() value.ColumnSet { return n.ColumnSet }
func (n *LimitLogicalOperatorNode) Requires() value.ColumnSet { return n.ColumnSet }
func (n *LimitLogicalOperatorNode) Executable() bool         { return n.InputExec }

func (n *LimitLogicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *LimitLogicalOperatorNode) Implement(dst *physical.Arena, children []physical.Id) physical.Id {
	return dst.Add(physical.NewLimitPhysicalOperatorNode(n.Skip, n.Limit, n.ColumnSet, n.InputSize), children[0])
}

// DeleteLogicalOperatorNode is a Unary sink consuming every input row as
// a deletion target. Its output columns are the fixed pair
// (deleted_count, timestamp) and it requires no input columns: a delete
// needs only the tuple identities its cursor already carries.
type DeleteLogicalOperatorNode struct {
	Entity                        string
	DeletedCountCol, TimestampCol value.ColumnDef
	InputSize                     int64
	Group                         GroupId
	InputExec                     bool
}

// NewDeleteLogicalOperatorNode builds a delete sink over entity.
func NewDeleteLogicalOperatorNode(entity string, deletedCountCol, timestampCol value.ColumnDef, inputSize int64, group GroupId, inputExecutable bool) *DeleteLogicalOperatorNode {
	return &DeleteLogicalOperatorNode{
		Entity: entity, DeletedCountCol: deletedCountCol, TimestampCol: timestampCol,
		InputSize: inputSize, Group: group, InputExec: inputExecutable,
	}
}

func (n *DeleteLogicalOperatorNode) Type() string     { return TypeDelete }
func (n *DeleteLogicalOperatorNode) Arity() Arity     { return Unary }
func (n *DeleteLogicalOperatorNode) GroupId() GroupId { return n.Group }
func (n *DeleteLogicalOperatorNode) Columns() value.ColumnSet {
	return value.NewColumnSet(n.DeletedCountCol, n.TimestampCol)
}
func (n *DeleteLogicalOperatorNode) Requires() value.ColumnSet { return value.ColumnSet{} }
func (n *DeleteLogicalOperatorNode) Executable() bool          { return n.InputExec }

func (n *DeleteLogicalOperatorNode) Copy() Node {
	c := *n
	return &c
}

func (n *DeleteLogicalOperatorNode) Implement(dst *physical.Arena, children []physical.Id) physical.Id {
	return dst.Add(physical.NewDeletePhysicalOperatorNode(n.Entity, n.DeletedCountCol, n.TimestampCol, n.InputSize), children[0])
}
