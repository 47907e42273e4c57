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
	"strings"

	"github.com/pingcap/errors"

	"github.com/cottontaildb/cottontail/binding"
	"github.com/cottontaildb/cottontail/catalog"
	"github.com/cottontaildb/cottontail/function"
	"github.com/cottontaildb/cottontail/internal/errkind"
	"github.com/cottontaildb/cottontail/plan/logical"
	"github.com/cottontaildb/cottontail/plan/physical"
	"github.com/cottontaildb/cottontail/value"
)

// CountColumnName is the reserved output column name a Projection carries
// when it represents a bare row count rather than a real column
// selection.
const CountColumnName = "count"

// CountPushdownRule replaces a full scan immediately followed by a
// count-only projection with a direct EntityCountPhysicalOperatorNode,
// the way a `SELECT COUNT(*) FROM e` plan skips materializing any row.
type CountPushdownRule struct{}

func (CountPushdownRule) Name() string { return "CountPushdown" }

func (CountPushdownRule) CanBeApplied(a *physical.Arena, id physical.Id, ctx *RuleContext) bool {
	proj, ok := a.Node(id).(*physical.ProjectionPhysicalOperatorNode)
	if !ok {
		return false
	}
	cols := proj.ColumnSet.Columns()
	if len(cols) != 1 || cols[0].ShortName() != CountColumnName {
		return false
	}
	inputs := a.Inputs(id)
	if len(inputs) != 1 {
		return false
	}
	_, ok = a.Node(inputs[0]).(*physical.EntityScanPhysicalOperatorNode)
	return ok
}

func (r CountPushdownRule) Apply(a *physical.Arena, id physical.Id, ctx *RuleContext) (bool, error) {
	if !r.CanBeApplied(a, id, ctx) {
		return false, nil
	}
	proj := a.Node(id).(*physical.ProjectionPhysicalOperatorNode)
	scan := a.Node(a.Inputs(id)[0]).(*physical.EntityScanPhysicalOperatorNode)
	countCol := proj.ColumnSet.Columns()[0]
	a.Replace(id, physical.NewEntityCountPhysicalOperatorNode(scan.Entity, countCol, scan.RowCount))
	return true, nil
}

// vectorDistancePrefix names the registry entries function.RegisterVectorDistances
// installs (distance.go's Signature.Name: "vector_distance_" + Kind.String()).
const vectorDistancePrefix = "vector_distance_"

// simdSuffix marks a registry entry as the vectorized dual of a
// vector_distance_* scalar function.
const simdSuffix = "_simd"

// SIMDRule substitutes a FunctionPhysicalOperatorNode wrapping a vector
// distance function for its vectorized dual once the operand
// dimensionality reaches SessionVars.SIMDThreshold. It rebinds
// the underlying binding to the vectorized function's registry name so
// the runtime FunctionOperator, unaware rules ever ran, resolves the
// cheaper overload unchanged.
type SIMDRule struct{}

func (SIMDRule) Name() string { return "SIMD" }

// vectorColumn returns the first vector-kind column in cols and its
// dimensionality, or ok=false if cols has none.
func vectorColumn(cols value.ColumnSet) (value.ColumnDef, int, bool) {
	for _, c := range cols.Columns() {
		if c.Type.Kind.IsVector() {
			return c, c.Type.LogicalSize(), true
		}
	}
	return value.ColumnDef{}, 0, false
}

func (SIMDRule) CanBeApplied(a *physical.Arena, id physical.Id, ctx *RuleContext) bool {
	fn, ok := a.Node(id).(*physical.FunctionPhysicalOperatorNode)
	if !ok {
		return false
	}
	if ctx.Bindings == nil {
		return false
	}
	b, err := ctx.Bindings.Lookup(fn.BindingID)
	if err != nil || b.Kind != binding.KindFunction {
		return false
	}
	if !strings.HasPrefix(b.FunctionName, vectorDistancePrefix) || strings.HasSuffix(b.FunctionName, simdSuffix) {
		return false
	}
	_, dim, ok := vectorColumn(fn.InputCols)
	if !ok {
		return false
	}
	return dim >= ctx.SessionVars.SIMDThreshold
}

func distanceKindFromName(name string) (function.DistanceKind, bool) {
	kind := strings.TrimPrefix(name, vectorDistancePrefix)
	for _, k := range []function.DistanceKind{
		function.DistanceL1, function.DistanceL2, function.DistanceL2Squared, function.DistanceChebyshev,
		function.DistanceCosine, function.DistanceInnerProduct, function.DistanceHamming, function.DistanceHaversine,
	} {
		if k.String() == kind {
			return k, true
		}
	}
	return 0, false
}

func (r SIMDRule) Apply(a *physical.Arena, id physical.Id, ctx *RuleContext) (bool, error) {
	if !r.CanBeApplied(a, id, ctx) {
		return false, nil
	}
	fn := a.Node(id).(*physical.FunctionPhysicalOperatorNode)
	b, err := ctx.Bindings.Lookup(fn.BindingID)
	if err != nil {
		return false, errors.Trace(err)
	}
	kind, ok := distanceKindFromName(b.FunctionName)
	if !ok {
		return false, nil
	}
	vectorKindCol, dim, ok := vectorColumn(fn.InputCols)
	if !ok {
		return false, nil
	}

	vectorized := function.NewVectorDistance(kind, vectorKindCol.Type.Kind, dim).Vectorized()
	vectorizedName := b.FunctionName + simdSuffix
	sigArgs := vectorized.Signature().Args
	argTypes := make([]value.Type, len(b.Args))
	for i := range argTypes {
		argTypes[i] = sigArgs[i%len(sigArgs)].Fixed
	}
	if _, err := ctx.Functions.Resolve(vectorizedName, argTypes); err != nil {
		ctx.Functions.Register(function.Function{
			Signature: function.Signature{Name: vectorizedName, Args: vectorized.Signature().Args, ReturnType: vectorized.Signature().ReturnType},
			Invoke:    vectorized.Invoke,
			Cost:      vectorized.Cost,
		})
	}

	if err := ctx.Bindings.Rebind(fn.BindingID, binding.Binding{
		Kind:         binding.KindFunction,
		FunctionName: vectorizedName,
		Args:         b.Args,
	}); err != nil {
		return false, errors.Trace(err)
	}

	newNode := physical.NewVectorizedFunctionPhysicalOperatorNode(fn.OutCol, fn.BindingID, fn.InputCols, fn.InputSize, vectorized.Cost(dim, false))
	a.Replace(id, newNode, a.Inputs(id)...)
	return true, nil
}

// ProjectionPushdownRule fuses a Projection directly atop another
// Projection into one, since selecting columns twice is redundant and the
// outer projection's columns are necessarily a subset of what survives.
type ProjectionPushdownRule struct{}

func (ProjectionPushdownRule) Name() string { return "ProjectionPushdown" }

func (ProjectionPushdownRule) CanBeApplied(a *physical.Arena, id physical.Id, ctx *RuleContext) bool {
	outer, ok := a.Node(id).(*physical.ProjectionPhysicalOperatorNode)
	if !ok {
		return false
	}
	inputs := a.Inputs(id)
	if len(inputs) != 1 {
		return false
	}
	_, ok = a.Node(inputs[0]).(*physical.ProjectionPhysicalOperatorNode)
	_ = outer
	return ok
}

func (r ProjectionPushdownRule) Apply(a *physical.Arena, id physical.Id, ctx *RuleContext) (bool, error) {
	if !r.CanBeApplied(a, id, ctx) {
		return false, nil
	}
	outer := a.Node(id).(*physical.ProjectionPhysicalOperatorNode)
	innerID := a.Inputs(id)[0]
	grandchildren := a.Inputs(innerID)
	var grandchildID physical.Id
	if len(grandchildren) == 1 {
		grandchildID = grandchildren[0]
	}
	inputSize := outer.InputSize
	if len(grandchildren) == 1 {
		inputSize = physical.TotalOutputSize(a, grandchildID)
	}
	fused := physical.NewProjectionPhysicalOperatorNode(outer.ColumnSet, inputSize)
	if len(grandchildren) == 1 {
		a.Replace(id, fused, grandchildID)
	} else {
		a.Replace(id, fused)
	}
	return true, nil
}

// FilterPushdownRule fuses two cascading Selection nodes into one,
// conjoining their predicates (AndPredicate), removing a redundant
// per-row operator boundary without changing which records survive.
type FilterPushdownRule struct{}

func (FilterPushdownRule) Name() string { return "FilterPushdown" }

func (FilterPushdownRule) CanBeApplied(a *physical.Arena, id physical.Id, ctx *RuleContext) bool {
	outer, ok := a.Node(id).(*physical.SelectionPhysicalOperatorNode)
	if !ok {
		return false
	}
	inputs := a.Inputs(id)
	if len(inputs) != 1 {
		return false
	}
	_, ok = a.Node(inputs[0]).(*physical.SelectionPhysicalOperatorNode)
	_ = outer
	return ok
}

func (r FilterPushdownRule) Apply(a *physical.Arena, id physical.Id, ctx *RuleContext) (bool, error) {
	if !r.CanBeApplied(a, id, ctx) {
		return false, nil
	}
	outer := a.Node(id).(*physical.SelectionPhysicalOperatorNode)
	innerID := a.Inputs(id)[0]
	inner := a.Node(innerID).(*physical.SelectionPhysicalOperatorNode)
	grandchildren := a.Inputs(innerID)

	fused := physical.NewSelectionPhysicalOperatorNode(
		logical.AndPredicate{Left: inner.Predicate, Right: outer.Predicate},
		outer.ColumnSet, inner.InputSize, inner.Selectivity*outer.Selectivity,
	)
	a.Replace(id, fused, grandchildren...)
	return true, nil
}

// LimitPushdownRule fuses a Limit directly atop another Limit into one
// Limit whose skip/limit reflect both windows combined.
type LimitPushdownRule struct{}

func (LimitPushdownRule) Name() string { return "LimitPushdown" }

func (LimitPushdownRule) CanBeApplied(a *physical.Arena, id physical.Id, ctx *RuleContext) bool {
	_, ok := a.Node(id).(*physical.LimitPhysicalOperatorNode)
	if !ok {
		return false
	}
	inputs := a.Inputs(id)
	if len(inputs) != 1 {
		return false
	}
	_, ok = a.Node(inputs[0]).(*physical.LimitPhysicalOperatorNode)
	return ok
}

func (r LimitPushdownRule) Apply(a *physical.Arena, id physical.Id, ctx *RuleContext) (bool, error) {
	if !r.CanBeApplied(a, id, ctx) {
		return false, nil
	}
	outer := a.Node(id).(*physical.LimitPhysicalOperatorNode)
	innerID := a.Inputs(id)[0]
	inner := a.Node(innerID).(*physical.LimitPhysicalOperatorNode)
	grandchildren := a.Inputs(innerID)

	skip := inner.Skip + outer.Skip
	remaining := inner.Limit - outer.Skip
	if remaining < 0 {
		remaining = 0
	}
	limit := outer.Limit
	if remaining < limit {
		limit = remaining
	}
	fused := physical.NewLimitPhysicalOperatorNode(skip, limit, outer.ColumnSet, inner.InputSize)
	a.Replace(id, fused, grandchildren...)
	return true, nil
}

// SortMergeParallelizationRule tightens a Sort+Limit sitting directly
// atop an already-merged NAry top-k (MergeLimitingSortPhysicalOperatorNode)
// with the same sort order: since the merge's output is already sorted
// ascending by sortOn, an outer Sort over it is a no-op and an outer
// Limit(0, n) only shrinks the retained window, so the whole chain
// collapses into one merge node bound to the tighter of the two limits.
type SortMergeParallelizationRule struct{}

func (SortMergeParallelizationRule) Name() string { return "SortMergeParallelization" }

func sortKeysEqual(a, b []physical.SortKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Desc != b[i].Desc || !a[i].Column.Equal(b[i].Column) {
			return false
		}
	}
	return true
}

func (SortMergeParallelizationRule) CanBeApplied(a *physical.Arena, id physical.Id, ctx *RuleContext) bool {
	limit, ok := a.Node(id).(*physical.LimitPhysicalOperatorNode)
	if !ok || limit.Skip != 0 {
		return false
	}
	inputs := a.Inputs(id)
	if len(inputs) != 1 {
		return false
	}
	sortNode, ok := a.Node(inputs[0]).(*physical.SortPhysicalOperatorNode)
	if !ok {
		return false
	}
	sortInputs := a.Inputs(inputs[0])
	if len(sortInputs) != 1 {
		return false
	}
	merge, ok := a.Node(sortInputs[0]).(*physical.MergeLimitingSortPhysicalOperatorNode)
	if !ok {
		return false
	}
	return sortKeysEqual(sortNode.SortOn, merge.SortOn)
}

func (r SortMergeParallelizationRule) Apply(a *physical.Arena, id physical.Id, ctx *RuleContext) (bool, error) {
	if !r.CanBeApplied(a, id, ctx) {
		return false, nil
	}
	limit := a.Node(id).(*physical.LimitPhysicalOperatorNode)
	sortID := a.Inputs(id)[0]
	mergeID := a.Inputs(sortID)[0]
	merge := a.Node(mergeID).(*physical.MergeLimitingSortPhysicalOperatorNode)
	strands := a.Inputs(mergeID)

	newLimit := merge.Limit
	if limit.Limit < newLimit {
		newLimit = limit.Limit
	}
	fused := physical.NewMergeLimitingSortPhysicalOperatorNode(merge.SortOn, newLimit, merge.ColumnSet, merge.StrandCount, merge.InputSizeSum, merge.RowWidth)
	a.Replace(id, fused, strands...)
	return true, nil
}

// KnnToIndexRule rewrites a kNN selection over a full entity scan into an
// index scan when an IndexKindVectorANN index exists on the predicate's
// column. Only the column is matched: the index's distance is not
// compared with the predicate's Distance.
type KnnToIndexRule struct{}

func (KnnToIndexRule) Name() string { return "KnnToIndex" }

func (KnnToIndexRule) CanBeApplied(a *physical.Arena, id physical.Id, ctx *RuleContext) bool {
	sel, ok := a.Node(id).(*physical.SelectionPhysicalOperatorNode)
	if !ok {
		return false
	}
	knn, ok := sel.Predicate.(logical.KnnPredicate)
	if !ok {
		return false
	}
	inputs := a.Inputs(id)
	if len(inputs) != 1 {
		return false
	}
	scan, ok := a.Node(inputs[0]).(*physical.EntityScanPhysicalOperatorNode)
	if !ok {
		return false
	}
	if ctx.Catalog == nil {
		return false
	}
	for _, idx := range ctx.Catalog.ListIndices(scan.Entity, catalog.IndexKindVectorANN) {
		if idx.Column.Equal(knn.Column) {
			return true
		}
	}
	return false
}

func (r KnnToIndexRule) Apply(a *physical.Arena, id physical.Id, ctx *RuleContext) (bool, error) {
	if !r.CanBeApplied(a, id, ctx) {
		return false, nil
	}
	sel := a.Node(id).(*physical.SelectionPhysicalOperatorNode)
	knn := sel.Predicate.(logical.KnnPredicate)
	scan := a.Node(a.Inputs(id)[0]).(*physical.EntityScanPhysicalOperatorNode)

	var chosen *catalog.IndexHandle
	for _, idx := range ctx.Catalog.ListIndices(scan.Entity, catalog.IndexKindVectorANN) {
		if idx.Column.Equal(knn.Column) {
			chosen = idx
			break
		}
	}
	if chosen == nil {
		return false, errors.Trace(errkind.Newf(errkind.Planner, "planner: KnnToIndexRule matched but no index resolved for %s", knn.Column.Name))
	}
	a.Replace(id, physical.NewIndexScanPhysicalOperatorNode(chosen.Name, sel.Predicate, sel.ColumnSet, scan.RowCount))
	return true, nil
}
