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

package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cottontaildb/cottontail/function"
	"github.com/cottontaildb/cottontail/value"
)

func countRecords() []value.Record {
	return []value.Record{
		value.NewRecord(0, []value.ColumnDef{colID, colCount}, []value.Value{value.LongValue(0), value.LongValue(1)}),
		value.NewRecord(1, []value.ColumnDef{colID, colCount}, []value.Value{value.LongValue(1), value.LongValue(10)}),
		value.NewRecord(2, []value.ColumnDef{colID, colCount}, []value.Value{value.LongValue(2), value.LongValue(20)}),
	}
}

func TestSelectionOperatorDropsNonMatchingRecords(t *testing.T) {
	ctx := newTestContext()
	src := &sliceOperator{records: countRecords()}
	op := NewSelectionOperator(ctx, src, thresholdPredicate{threshold: 5})
	out := drain(t, op)
	require.Len(t, out, 2)
}

func TestSelectionOperatorIsNonBreaking(t *testing.T) {
	ctx := newTestContext()
	op := NewSelectionOperator(ctx, &sliceOperator{}, alwaysTruePredicate{})
	assert.False(t, op.Breaker())
}

func TestProjectionOperatorRestrictsColumns(t *testing.T) {
	ctx := newTestContext()
	src := &sliceOperator{records: countRecords()}
	op := NewProjectionOperator(ctx, src, []value.ColumnDef{colID})
	out := drain(t, op)
	require.Len(t, out, 3)
	for _, r := range out {
		assert.Len(t, r.Columns(), 1)
		_, hasCount := r.Get(colCount)
		assert.False(t, hasCount)
	}
}

func TestLimitOperatorSkipsThenTakes(t *testing.T) {
	ctx := newTestContext()
	src := &sliceOperator{records: countRecords()}
	op := NewLimitOperator(ctx, src, 1, 1)
	out := drain(t, op)
	require.Len(t, out, 1)
	v, _ := out[0].Get(colID)
	assert.Equal(t, value.LongValue(1), v)
}

func TestLimitOperatorZeroLimitEmitsNothing(t *testing.T) {
	ctx := newTestContext()
	src := &sliceOperator{records: countRecords()}
	op := NewLimitOperator(ctx, src, 0, 0)
	out := drain(t, op)
	assert.Len(t, out, 0)
}

func TestSortOperatorOrdersByKeyAscending(t *testing.T) {
	ctx := newTestContext()
	unsorted := []value.Record{
		value.NewRecord(0, []value.ColumnDef{colCount}, []value.Value{value.LongValue(30)}),
		value.NewRecord(1, []value.ColumnDef{colCount}, []value.Value{value.LongValue(10)}),
		value.NewRecord(2, []value.ColumnDef{colCount}, []value.Value{value.LongValue(20)}),
	}
	src := &sliceOperator{records: unsorted}
	op := NewSortOperator(ctx, src, []SortKey{{Column: colCount}})
	out := drain(t, op)
	require.Len(t, out, 3)
	v0, _ := out[0].Get(colCount)
	v1, _ := out[1].Get(colCount)
	v2, _ := out[2].Get(colCount)
	assert.Equal(t, value.LongValue(10), v0)
	assert.Equal(t, value.LongValue(20), v1)
	assert.Equal(t, value.LongValue(30), v2)
}

func TestSortOperatorDescendingReversesOrder(t *testing.T) {
	ctx := newTestContext()
	unsorted := []value.Record{
		value.NewRecord(0, []value.ColumnDef{colCount}, []value.Value{value.LongValue(1)}),
		value.NewRecord(1, []value.ColumnDef{colCount}, []value.Value{value.LongValue(2)}),
	}
	src := &sliceOperator{records: unsorted}
	op := NewSortOperator(ctx, src, []SortKey{{Column: colCount, Desc: true}})
	out := drain(t, op)
	require.Len(t, out, 2)
	v0, _ := out[0].Get(colCount)
	assert.Equal(t, value.LongValue(2), v0)
}

func TestSortOperatorIsBreaking(t *testing.T) {
	ctx := newTestContext()
	op := NewSortOperator(ctx, &sliceOperator{}, nil)
	assert.True(t, op.Breaker())
}

func TestFunctionOperatorAppendsDerivedColumn(t *testing.T) {
	ctx := newTestContext()
	ctx.Functions.Register(function.Function{
		Signature: function.Signature{
			Name:       "double",
			Args:       []function.ArgumentType{function.Typed(value.NewScalarType(value.KindLong))},
			ReturnType: value.NewScalarType(value.KindLong),
		},
		Invoke: func(args []value.Value) (value.Value, error) {
			return args[0].(value.LongValue) * 2, nil
		},
	})

	argID, err := ctx.Bindings.BindColumn(colCount)
	require.NoError(t, err)
	fnID, err := ctx.Bindings.BindFunction("double", argID)
	require.NoError(t, err)

	doubled := value.NewColumnDef("s", "e", "doubled", value.NewScalarType(value.KindLong), false, false)
	src := &sliceOperator{records: countRecords()}
	op := NewFunctionOperator(ctx, src, doubled, fnID)
	out := drain(t, op)
	require.Len(t, out, 3)
	v, ok := out[0].Get(doubled)
	require.True(t, ok)
	assert.Equal(t, value.LongValue(2), v)
}
