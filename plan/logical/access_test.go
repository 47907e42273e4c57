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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cottontaildb/cottontail/catalog"
	"github.com/cottontaildb/cottontail/function"
	"github.com/cottontaildb/cottontail/value"
)

func TestDeriveAccessPathsAlwaysIncludesFullScan(t *testing.T) {
	n := NewEntityScanLogicalOperatorNode("e", value.NewColumnSet(colID), 100, 0)
	paths := n.DeriveAccessPaths(nil, EqualityPredicate{Column: colID, Value: value.LongValue(1)})
	require.Len(t, paths, 1)
	assert.True(t, paths[0].IsFullScan())
}

func TestDeriveAccessPathsMatchesKnnToVectorANNIndex(t *testing.T) {
	cat := catalog.New()
	cat.RegisterEntity("e", []value.ColumnDef{colID, colVec})
	require.NoError(t, cat.RegisterIndex("e", "e_embedding_ann", colVec, catalog.IndexKindVectorANN))
	require.NoError(t, cat.RegisterIndex("e", "e_pk", colID, catalog.IndexKindBTree))

	n := NewEntityScanLogicalOperatorNode("e", value.NewColumnSet(colID, colVec), 100, 0)
	knn := NewKnnPredicate(colVec, 5, function.DistanceL2, value.DoubleVectorValue{0, 0}, 1, "", uuid.New())

	paths := n.DeriveAccessPaths(cat, knn)
	require.Len(t, paths, 2)
	assert.True(t, paths[0].IsFullScan())
	assert.Equal(t, "e_embedding_ann", paths[1].Index.Name)
}

func TestDeriveAccessPathsSkipsKindIncompatibleIndices(t *testing.T) {
	cat := catalog.New()
	cat.RegisterEntity("e", []value.ColumnDef{colID, colVec})
	require.NoError(t, cat.RegisterIndex("e", "e_embedding_ann", colVec, catalog.IndexKindVectorANN))

	n := NewEntityScanLogicalOperatorNode("e", value.NewColumnSet(colID, colVec), 100, 0)
	rng := RangePredicate{Column: colVec, Low: value.LongValue(0), LowInclusive: true}

	paths := n.DeriveAccessPaths(cat, rng)
	require.Len(t, paths, 1)
	assert.True(t, paths[0].IsFullScan())
}
