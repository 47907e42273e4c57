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

package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cottontaildb/cottontail/binding"
	"github.com/cottontaildb/cottontail/catalog"
	"github.com/cottontaildb/cottontail/cost"
	"github.com/cottontaildb/cottontail/function"
	"github.com/cottontaildb/cottontail/plan/logical"
	"github.com/cottontaildb/cottontail/plan/physical"
	"github.com/cottontaildb/cottontail/value"
)

var (
	colID  = value.NewColumnDef("s", "e", "id", value.NewScalarType(value.KindLong), false, true)
	colCnt = value.NewColumnDef("s", "e", "count", value.NewScalarType(value.KindLong), false, false)
)

func newRuleContext() *RuleContext {
	return &RuleContext{
		Catalog:     catalog.New(),
		Functions:   function.NewRegistry(),
		Bindings:    binding.NewBindingContext(),
		SessionVars: cost.DefaultSessionVars(),
		Metrics:     cost.NewMetrics(nil),
	}
}

// SELECT COUNT(*) FROM e plans to a direct EntityCountPhysicalOperatorNode.
func TestCountPushdownRuleRewritesProjectionOverScan(t *testing.T) {
	a := physical.NewArena()
	scan := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(colID), 1000))
	proj := a.Add(physical.NewProjectionPhysicalOperatorNode(value.NewColumnSet(colCnt), 1000), scan)

	ctx := newRuleContext()
	rule := CountPushdownRule{}
	require.True(t, rule.CanBeApplied(a, proj, ctx))

	applied, err := rule.Apply(a, proj, ctx)
	require.NoError(t, err)
	require.True(t, applied)

	got, ok := a.Node(proj).(*physical.EntityCountPhysicalOperatorNode)
	require.True(t, ok)
	assert.Equal(t, "e", got.Entity)
	assert.Equal(t, int64(1), got.OutputSize())
	assert.Empty(t, a.Inputs(proj))
}

func TestCountPushdownRuleDoesNotApplyToMultiColumnProjection(t *testing.T) {
	a := physical.NewArena()
	scan := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(colID), 1000))
	proj := a.Add(physical.NewProjectionPhysicalOperatorNode(value.NewColumnSet(colID, colCnt), 1000), scan)

	ctx := newRuleContext()
	assert.False(t, CountPushdownRule{}.CanBeApplied(a, proj, ctx))
}

func vectorCol(name string, dim int) value.ColumnDef {
	return value.NewColumnDef("s", "e", name, value.NewVectorType(value.KindFloatVector, dim), false, false)
}

// SIMDRule fires at/above the dimensionality threshold and not below it.
func TestSIMDRuleRewritesAboveThreshold(t *testing.T) {
	ctx := newRuleContext()
	col := vectorCol("embedding", 512)
	function.RegisterVectorDistances(ctx.Functions, value.KindFloatVector, 512)

	argA, err := ctx.Bindings.BindColumn(col)
	require.NoError(t, err)
	argB, err := ctx.Bindings.BindLiteral(make(value.FloatVectorValue, 512))
	require.NoError(t, err)
	fnID, err := ctx.Bindings.BindFunction("vector_distance_L2", argA, argB)
	require.NoError(t, err)

	a := physical.NewArena()
	scan := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(col), 100))
	distCol := value.NewColumnDef("s", "e", "dist", value.NewScalarType(value.KindDouble), false, false)
	fn := a.Add(physical.NewFunctionPhysicalOperatorNode(distCol, fnID, value.NewColumnSet(col), 100, cost.Cost{}), scan)

	rule := SIMDRule{}
	require.True(t, rule.CanBeApplied(a, fn, ctx))

	applied, err := rule.Apply(a, fn, ctx)
	require.NoError(t, err)
	require.True(t, applied)

	_, ok := a.Node(fn).(*physical.VectorizedFunctionPhysicalOperatorNode)
	require.True(t, ok)

	rebound, err := ctx.Bindings.Lookup(fnID)
	require.NoError(t, err)
	assert.Equal(t, "vector_distance_L2_simd", rebound.FunctionName)

	// Re-applying must not fire again: the node is now a
	// VectorizedFunctionPhysicalOperatorNode, which SIMDRule does not match.
	assert.False(t, rule.CanBeApplied(a, fn, ctx))
}

func TestSIMDRuleDoesNotApplyBelowThreshold(t *testing.T) {
	ctx := newRuleContext()
	col := vectorCol("embedding", 64)
	function.RegisterVectorDistances(ctx.Functions, value.KindFloatVector, 64)

	argA, err := ctx.Bindings.BindColumn(col)
	require.NoError(t, err)
	argB, err := ctx.Bindings.BindLiteral(make(value.FloatVectorValue, 64))
	require.NoError(t, err)
	fnID, err := ctx.Bindings.BindFunction("vector_distance_L2", argA, argB)
	require.NoError(t, err)

	a := physical.NewArena()
	scan := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(col), 100))
	distCol := value.NewColumnDef("s", "e", "dist", value.NewScalarType(value.KindDouble), false, false)
	fn := a.Add(physical.NewFunctionPhysicalOperatorNode(distCol, fnID, value.NewColumnSet(col), 100, cost.Cost{}), scan)

	assert.False(t, SIMDRule{}.CanBeApplied(a, fn, ctx))
}

func TestProjectionPushdownRuleFusesCascadingProjections(t *testing.T) {
	ctx := newRuleContext()
	a := physical.NewArena()
	scan := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(colID, colCnt), 1000))
	inner := a.Add(physical.NewProjectionPhysicalOperatorNode(value.NewColumnSet(colID), 1000), scan)
	outer := a.Add(physical.NewProjectionPhysicalOperatorNode(value.NewColumnSet(colID), 1000), inner)

	rule := ProjectionPushdownRule{}
	require.True(t, rule.CanBeApplied(a, outer, ctx))
	applied, err := rule.Apply(a, outer, ctx)
	require.NoError(t, err)
	require.True(t, applied)

	assert.Equal(t, []physical.Id{scan}, a.Inputs(outer))
}

func TestFilterPushdownRuleConjoinsPredicates(t *testing.T) {
	ctx := newRuleContext()
	a := physical.NewArena()
	scan := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(colID), 1000))
	inner := a.Add(physical.NewSelectionPhysicalOperatorNode(alwaysTrue{}, value.NewColumnSet(colID), 1000, 0.5), scan)
	outer := a.Add(physical.NewSelectionPhysicalOperatorNode(alwaysTrue{}, value.NewColumnSet(colID), 500, 0.5), inner)

	rule := FilterPushdownRule{}
	require.True(t, rule.CanBeApplied(a, outer, ctx))
	applied, err := rule.Apply(a, outer, ctx)
	require.NoError(t, err)
	require.True(t, applied)

	fused, ok := a.Node(outer).(*physical.SelectionPhysicalOperatorNode)
	require.True(t, ok)
	_, ok = fused.Predicate.(logical.AndPredicate)
	assert.True(t, ok)
	assert.Equal(t, []physical.Id{scan}, a.Inputs(outer))
}

func TestLimitPushdownRuleFusesWindows(t *testing.T) {
	ctx := newRuleContext()
	a := physical.NewArena()
	scan := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(colID), 1000))
	inner := a.Add(physical.NewLimitPhysicalOperatorNode(5, 100, value.NewColumnSet(colID), 1000), scan)
	outer := a.Add(physical.NewLimitPhysicalOperatorNode(10, 20, value.NewColumnSet(colID), 95), inner)

	rule := LimitPushdownRule{}
	require.True(t, rule.CanBeApplied(a, outer, ctx))
	applied, err := rule.Apply(a, outer, ctx)
	require.NoError(t, err)
	require.True(t, applied)

	fused, ok := a.Node(outer).(*physical.LimitPhysicalOperatorNode)
	require.True(t, ok)
	assert.Equal(t, int64(15), fused.Skip)
	assert.Equal(t, int64(20), fused.Limit)
}

// A sort+limit over a merge collapses to one bounded-heap merge honoring
// the tighter limit.
func TestSortMergeParallelizationRuleCollapsesChain(t *testing.T) {
	ctx := newRuleContext()
	sortOn := []physical.SortKey{{Column: colID, Desc: false}}

	a := physical.NewArena()
	strand1 := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(colID), 1000))
	strand2 := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(colID), 1000))
	merge := a.Add(physical.NewMergeLimitingSortPhysicalOperatorNode(sortOn, 50, value.NewColumnSet(colID), 2, 2000, 8), strand1, strand2)
	sort := a.Add(physical.NewSortPhysicalOperatorNode(sortOn, value.NewColumnSet(colID), 50, 8), merge)
	limit := a.Add(physical.NewLimitPhysicalOperatorNode(0, 10, value.NewColumnSet(colID), 50), sort)

	rule := SortMergeParallelizationRule{}
	require.True(t, rule.CanBeApplied(a, limit, ctx))
	applied, err := rule.Apply(a, limit, ctx)
	require.NoError(t, err)
	require.True(t, applied)

	fused, ok := a.Node(limit).(*physical.MergeLimitingSortPhysicalOperatorNode)
	require.True(t, ok)
	assert.Equal(t, int64(10), fused.Limit)
	assert.ElementsMatch(t, []physical.Id{strand1, strand2}, a.Inputs(limit))
}

func TestSortMergeParallelizationRuleRejectsMismatchedSortOn(t *testing.T) {
	ctx := newRuleContext()
	colOther := value.NewColumnDef("s", "e", "other", value.NewScalarType(value.KindLong), false, false)

	a := physical.NewArena()
	strand := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(colID), 1000))
	merge := a.Add(physical.NewMergeLimitingSortPhysicalOperatorNode(
		[]physical.SortKey{{Column: colID, Desc: false}}, 50, value.NewColumnSet(colID), 1, 1000, 8), strand)
	sort := a.Add(physical.NewSortPhysicalOperatorNode(
		[]physical.SortKey{{Column: colOther, Desc: false}}, value.NewColumnSet(colID), 50, 8), merge)
	limit := a.Add(physical.NewLimitPhysicalOperatorNode(0, 10, value.NewColumnSet(colID), 50), sort)

	assert.False(t, SortMergeParallelizationRule{}.CanBeApplied(a, limit, ctx))
}

// A KnnPredicate selection over a full scan rewrites to an index scan
// once a vector-ANN index covers the column.
func TestKnnToIndexRuleRewritesWhenIndexExists(t *testing.T) {
	ctx := newRuleContext()
	col := vectorCol("embedding", 128)
	ctx.Catalog.RegisterEntity("e", []value.ColumnDef{colID, col})
	require.NoError(t, ctx.Catalog.RegisterIndex("e", "e_embedding_ann", col, catalog.IndexKindVectorANN))

	knn := logical.NewKnnPredicate(col, 10, function.DistanceL2, value.FloatVectorValue(make([]float32, 128)), 1.0, "", ctx.Bindings.QueryID())

	a := physical.NewArena()
	scan := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(colID, col), 10000))
	sel := a.Add(physical.NewSelectionPhysicalOperatorNode(knn, value.NewColumnSet(colID, col), 10000, 1.0), scan)

	rule := KnnToIndexRule{}
	require.True(t, rule.CanBeApplied(a, sel, ctx))
	applied, err := rule.Apply(a, sel, ctx)
	require.NoError(t, err)
	require.True(t, applied)

	idxScan, ok := a.Node(sel).(*physical.IndexScanPhysicalOperatorNode)
	require.True(t, ok)
	assert.Equal(t, "e_embedding_ann", idxScan.Index)
}

func TestKnnToIndexRuleSkipsWithoutCompatibleIndex(t *testing.T) {
	ctx := newRuleContext()
	col := vectorCol("embedding", 128)
	ctx.Catalog.RegisterEntity("e", []value.ColumnDef{colID, col})

	knn := logical.NewKnnPredicate(col, 10, function.DistanceL2, value.FloatVectorValue(make([]float32, 128)), 1.0, "", ctx.Bindings.QueryID())

	a := physical.NewArena()
	scan := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(colID, col), 10000))
	sel := a.Add(physical.NewSelectionPhysicalOperatorNode(knn, value.NewColumnSet(colID, col), 10000, 1.0), scan)

	assert.False(t, KnnToIndexRule{}.CanBeApplied(a, sel, ctx))
}

// Engine-level: the rewrite walk is bottom-up and converges without the
// non-termination guard tripping on a well-behaved rule set.
func TestEngineOptimizeAppliesCountPushdownBottomUp(t *testing.T) {
	ctx := newRuleContext()
	metrics := ctx.Metrics
	engine := NewEngine(metrics, CountPushdownRule{}, ProjectionPushdownRule{})

	a := physical.NewArena()
	scan := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(colID), 1000))
	proj := a.Add(physical.NewProjectionPhysicalOperatorNode(value.NewColumnSet(colCnt), 1000), scan)

	require.NoError(t, engine.Optimize(a, proj, ctx))

	_, ok := a.Node(proj).(*physical.EntityCountPhysicalOperatorNode)
	assert.True(t, ok)
}

func TestEngineOptimizeLeavesUnmatchedNodesAlone(t *testing.T) {
	ctx := newRuleContext()
	engine := NewEngine(ctx.Metrics, CountPushdownRule{})

	a := physical.NewArena()
	scan := a.Add(physical.NewEntityScanPhysicalOperatorNode("e", value.NewColumnSet(colID), 1000))

	require.NoError(t, engine.Optimize(a, scan, ctx))
	_, ok := a.Node(scan).(*physical.EntityScanPhysicalOperatorNode)
	assert.True(t, ok)
}

// alwaysTrue is a minimal txn.Predicate stub for rules that only inspect
// structure (FilterPushdownRule), not predicate semantics.
type alwaysTrue struct{}

func (alwaysTrue) Digest() uint64                          { return 1 }
func (alwaysTrue) Matches(rec value.Record) (bool, error) { return true, nil }
