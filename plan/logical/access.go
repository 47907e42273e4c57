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
	"github.com/cottontaildb/cottontail/catalog"
	"github.com/cottontaildb/cottontail/txn"
	"github.com/cottontaildb/cottontail/value"
)

// AccessPath is one candidate way to read an entity's rows under a
// predicate: a full scan (Index == nil) or a predicate-compatible index.
type AccessPath struct {
	Index *catalog.IndexHandle
}

// IsFullScan reports whether this path reads the entity directly rather
// than through an index.
func (p AccessPath) IsFullScan() bool { return p.Index == nil }

// DeriveAccessPaths lists the candidate access paths for this scan under
// pred, full scan first. Which index kinds qualify depends on the
// predicate's shape: a KnnPredicate can only be served by a vector-ANN
// index on its column, an EqualityPredicate by hash or B-tree, a
// RangePredicate by B-tree alone. The planner's rewrite rules pick among
// the returned candidates by cost; this method only enumerates.
func (n *EntityScanLogicalOperatorNode) DeriveAccessPaths(cat *catalog.Catalog, pred txn.Predicate) []AccessPath {
	paths := []AccessPath{{}}
	if cat == nil {
		return paths
	}
	var (
		column value.ColumnDef
		kinds  []catalog.IndexKind
	)
	switch p := pred.(type) {
	case KnnPredicate:
		column, kinds = p.Column, []catalog.IndexKind{catalog.IndexKindVectorANN}
	case EqualityPredicate:
		column, kinds = p.Column, []catalog.IndexKind{catalog.IndexKindHash, catalog.IndexKindBTree}
	case RangePredicate:
		column, kinds = p.Column, []catalog.IndexKind{catalog.IndexKindBTree}
	default:
		return paths
	}
	for _, idx := range cat.ListIndices(n.Entity, kinds...) {
		if idx.Column.Equal(column) {
			paths = append(paths, AccessPath{Index: idx})
		}
	}
	return paths
}
