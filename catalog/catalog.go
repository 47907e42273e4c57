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

// Package catalog resolves schema/entity/index names and statistics for
// the planner: a mutex-guarded, atomically-swappable snapshot of schema
// metadata that planning reads without blocking concurrent refresh.
package catalog

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"github.com/cottontaildb/cottontail/internal/errkind"
	"github.com/cottontaildb/cottontail/internal/log"
	"github.com/cottontaildb/cottontail/value"
)

// EntityHandle names a resolved entity (table-like row set) and its schema.
type EntityHandle struct {
	Name    string
	Columns []value.ColumnDef
}

// IndexKind tags what an index can accelerate.
type IndexKind int

const (
	IndexKindHash IndexKind = iota
	IndexKindBTree
	IndexKindVectorANN
)

func (k IndexKind) String() string {
	switch k {
	case IndexKindHash:
		return "HASH"
	case IndexKindBTree:
		return "BTREE"
	case IndexKindVectorANN:
		return "VECTOR_ANN"
	default:
		return "UNKNOWN"
	}
}

// IndexHandle names a resolved secondary structure over one column of an
// entity.
type IndexHandle struct {
	Name   string
	Entity string
	Column value.ColumnDef
	Kind   IndexKind
}

// snapshot is the immutable schema view planning consults; refresh swaps
// the pointer wholesale rather than mutating in place.
type snapshot struct {
	entities map[string]*EntityHandle
	indices  map[string][]*IndexHandle // keyed by entity name
	stats    map[string]*value.ValueStatistics
}

func newSnapshot() *snapshot {
	return &snapshot{
		entities: make(map[string]*EntityHandle),
		indices:  make(map[string][]*IndexHandle),
		stats:    make(map[string]*value.ValueStatistics),
	}
}

func (s *snapshot) clone() *snapshot {
	n := newSnapshot()
	for k, v := range s.entities {
		n.entities[k] = v
	}
	for k, v := range s.indices {
		cp := make([]*IndexHandle, len(v))
		copy(cp, v)
		n.indices[k] = cp
	}
	for k, v := range s.stats {
		n.stats[k] = v.Copy()
	}
	return n
}

func statsKey(entity string, col value.ColumnDef) string {
	return entity + "." + col.Name
}

// Catalog is the external collaborator the planner and cost model
// consult for entity/index resolution and column statistics. It owns no
// storage of its own: concrete persistence lives behind the EntityTx and
// IndexTx seams, and the catalog caches only schema metadata.
type Catalog struct {
	mu  sync.Mutex
	ptr atomic.Pointer[snapshot]
}

// New creates an empty Catalog.
func New() *Catalog {
	c := &Catalog{}
	c.ptr.Store(newSnapshot())
	return c
}

// current returns the current immutable snapshot without blocking writers.
func (c *Catalog) current() *snapshot {
	return c.ptr.Load()
}

// RegisterEntity adds or replaces an entity's schema. Safe for concurrent
// use with resolution; readers never observe a partially-updated snapshot.
func (c *Catalog) RegisterEntity(name string, columns []value.ColumnDef) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.current().clone()
	next.entities[name] = &EntityHandle{Name: name, Columns: append([]value.ColumnDef(nil), columns...)}
	c.ptr.Store(next)
	log.Component("catalog").Info("entity registered", zap.String("entity", name), zap.Int("columns", len(columns)))
}

// RegisterIndex associates an index with an entity/column.
func (c *Catalog) RegisterIndex(entity, name string, col value.ColumnDef, kind IndexKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.current()
	if _, ok := cur.entities[entity]; !ok {
		return errors.Trace(errkind.Newf(errkind.Storage, "catalog: unknown entity %q", entity))
	}
	next := cur.clone()
	next.indices[entity] = append(next.indices[entity], &IndexHandle{Name: name, Entity: entity, Column: col, Kind: kind})
	c.ptr.Store(next)
	return nil
}

// UpdateStatistics replaces the ValueStatistics tracked for one column.
func (c *Catalog) UpdateStatistics(entity string, col value.ColumnDef, stats value.ValueStatistics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.current().clone()
	next.stats[statsKey(entity, col)] = &stats
	c.ptr.Store(next)
}

// ResolveEntity looks up an entity by name.
func (c *Catalog) ResolveEntity(name string) (*EntityHandle, error) {
	if e, ok := c.current().entities[name]; ok {
		return e, nil
	}
	return nil, errors.Trace(errkind.Newf(errkind.Storage, "catalog: unknown entity %q", name))
}

// ListIndices returns every index registered on entity whose Kind matches
// one of kinds (or all indices when kinds is empty), the candidate set
// the planner's index-selection rewrite rules choose from.
func (c *Catalog) ListIndices(entity string, kinds ...IndexKind) []*IndexHandle {
	all := c.current().indices[entity]
	if len(kinds) == 0 {
		out := make([]*IndexHandle, len(all))
		copy(out, all)
		return out
	}
	want := make(map[IndexKind]struct{}, len(kinds))
	for _, k := range kinds {
		want[k] = struct{}{}
	}
	var out []*IndexHandle
	for _, idx := range all {
		if _, ok := want[idx.Kind]; ok {
			out = append(out, idx)
		}
	}
	return out
}

// IndicesOnColumn narrows ListIndices to those covering a specific column,
// of any index kind.
func (c *Catalog) IndicesOnColumn(entity string, col value.ColumnDef) []*IndexHandle {
	var out []*IndexHandle
	for _, idx := range c.current().indices[entity] {
		if idx.Column.Equal(col) {
			out = append(out, idx)
		}
	}
	return out
}

// Statistics returns the tracked ValueStatistics for a column, or an error
// if none has been recorded (the caller should fall back to a conservative
// default estimate rather than treat this as fatal).
func (c *Catalog) Statistics(entity string, col value.ColumnDef) (*value.ValueStatistics, error) {
	if s, ok := c.current().stats[statsKey(entity, col)]; ok {
		return s, nil
	}
	return nil, errors.Trace(errkind.Newf(errkind.Storage, "catalog: no statistics for %s", statsKey(entity, col)))
}

// RowCount estimates the cardinality of an entity from the statistics of
// the first column, in schema order, that has any recorded, falling back
// to 0 if nothing has been collected yet. Statistics are best-effort estimates, not guarantees.
func (c *Catalog) RowCount(entity string) int64 {
	e, err := c.ResolveEntity(entity)
	if err != nil {
		return 0
	}
	for _, col := range e.Columns {
		if s, ok := c.current().stats[statsKey(entity, col)]; ok {
			return s.TotalRows()
		}
	}
	return 0
}

func (e *EntityHandle) String() string {
	return fmt.Sprintf("Entity(%s, %d columns)", e.Name, len(e.Columns))
}
