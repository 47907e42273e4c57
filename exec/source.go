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
	"context"
	"math/rand"

	"github.com/pingcap/errors"

	"github.com/cottontaildb/cottontail/internal/errkind"
	"github.com/cottontaildb/cottontail/txn"
	"github.com/cottontaildb/cottontail/value"
)

// EntityScanOperator is the full-scan SourceOperator: it pulls every
// Record from an EntityTx cursor restricted to the requested columns,
// one Record per Next call.
type EntityScanOperator struct {
	ctx     *Context
	entity  string
	columns []value.ColumnDef

	cursor txn.Cursor[value.Record]
}

// NewEntityScanOperator builds a full scan over entity restricted to columns.
func NewEntityScanOperator(ctx *Context, entity string, columns []value.ColumnDef) *EntityScanOperator {
	return &EntityScanOperator{ctx: ctx, entity: entity, columns: columns}
}

func (o *EntityScanOperator) isSource() {}

func (o *EntityScanOperator) Open(ctx context.Context) error {
	h, err := o.ctx.Entity(o.entity)
	if err != nil {
		return err
	}
	cur, err := h.Cursor(o.columns)
	if err != nil {
		return errors.Trace(errkind.New(errkind.Storage, err))
	}
	o.cursor = cur
	return nil
}

func (o *EntityScanOperator) Next(ctx context.Context) (Record, bool, error) {
	if err := o.ctx.checkCancelled(); err != nil {
		return value.Record{}, false, err
	}
	ok, err := o.cursor.MoveNext()
	if err != nil {
		return value.Record{}, false, errors.Trace(errkind.New(errkind.Storage, err))
	}
	if !ok {
		return value.Record{}, false, nil
	}
	return o.cursor.Value(), true, nil
}

func (o *EntityScanOperator) Close() error {
	if o.cursor == nil {
		return nil
	}
	err := o.cursor.Close()
	o.cursor = nil
	return errors.Trace(err)
}

// EntityCountOperator emits exactly one record `{count}`, the runtime
// leg of EntityCountPhysicalOperatorNode.
type EntityCountOperator struct {
	ctx      *Context
	entity   string
	countCol value.ColumnDef

	emitted bool
}

// NewEntityCountOperator builds a count operator over entity, naming its
// sole output column countCol.
func NewEntityCountOperator(ctx *Context, entity string, countCol value.ColumnDef) *EntityCountOperator {
	return &EntityCountOperator{ctx: ctx, entity: entity, countCol: countCol}
}

func (o *EntityCountOperator) isSource() {}
func (o *EntityCountOperator) Open(ctx context.Context) error { return nil }

func (o *EntityCountOperator) Next(ctx context.Context) (Record, bool, error) {
	if err := o.ctx.checkCancelled(); err != nil {
		return value.Record{}, false, err
	}
	if o.emitted {
		return value.Record{}, false, nil
	}
	h, err := o.ctx.Entity(o.entity)
	if err != nil {
		return value.Record{}, false, err
	}
	n, err := h.Count()
	if err != nil {
		return value.Record{}, false, errors.Trace(errkind.New(errkind.Storage, err))
	}
	o.emitted = true
	rec := value.NewRecord(0, []value.ColumnDef{o.countCol}, []value.Value{value.LongValue(n)})
	return rec, true, nil
}

func (o *EntityCountOperator) Close() error { return nil }

// EntitySampleOperator Bernoulli-samples an EntityTx cursor with
// probability p, using a seeded RNG so the same seed on the same cursor
// yields the same record subset every run. Seeding one *rand.Rand per
// operator instance keeps strands independent without a splittable-RNG
// dependency.
type EntitySampleOperator struct {
	ctx     *Context
	entity  string
	columns []value.ColumnDef
	p       float64
	rng     *rand.Rand

	cursor txn.Cursor[value.Record]
}

// NewEntitySampleOperator builds a Bernoulli sampler with probability p
// over entity, seeded by seed.
func NewEntitySampleOperator(ctx *Context, entity string, columns []value.ColumnDef, p float64, seed int64) *EntitySampleOperator {
	return &EntitySampleOperator{ctx: ctx, entity: entity, columns: columns, p: p, rng: rand.New(rand.NewSource(seed))}
}

func (o *EntitySampleOperator) isSource() {}

func (o *EntitySampleOperator) Open(ctx context.Context) error {
	h, err := o.ctx.Entity(o.entity)
	if err != nil {
		return err
	}
	cur, err := h.Cursor(o.columns)
	if err != nil {
		return errors.Trace(errkind.New(errkind.Storage, err))
	}
	o.cursor = cur
	return nil
}

func (o *EntitySampleOperator) Next(ctx context.Context) (Record, bool, error) {
	for {
		if err := o.ctx.checkCancelled(); err != nil {
			return value.Record{}, false, err
		}
		ok, err := o.cursor.MoveNext()
		if err != nil {
			return value.Record{}, false, errors.Trace(errkind.New(errkind.Storage, err))
		}
		if !ok {
			return value.Record{}, false, nil
		}
		if o.rng.Float64() < o.p {
			return o.cursor.Value(), true, nil
		}
	}
}

func (o *EntitySampleOperator) Close() error {
	if o.cursor == nil {
		return nil
	}
	err := o.cursor.Close()
	o.cursor = nil
	return errors.Trace(err)
}

// IndexScanOperator delegates to an index's Filter/FilterRange, the
// runtime leg of KNN-to-index and general predicate pushdown rewrites.
type IndexScanOperator struct {
	ctx       *Context
	index     string
	predicate txn.Predicate

	// Partition/partitions select FilterRange for a partitioned scan; a
	// zero partitions value means "use the unpartitioned Filter path".
	partition, partitions int

	cursor txn.Cursor[value.Record]
}

// NewIndexScanOperator builds an (unpartitioned) index scan.
func NewIndexScanOperator(ctx *Context, index string, predicate txn.Predicate) *IndexScanOperator {
	return &IndexScanOperator{ctx: ctx, index: index, predicate: predicate}
}

// NewPartitionedIndexScanOperator builds one strand of a partitioned
// index scan, feeding an NAry merge node.
func NewPartitionedIndexScanOperator(ctx *Context, index string, predicate txn.Predicate, partition, partitions int) *IndexScanOperator {
	return &IndexScanOperator{ctx: ctx, index: index, predicate: predicate, partition: partition, partitions: partitions}
}

func (o *IndexScanOperator) isSource() {}

func (o *IndexScanOperator) Open(ctx context.Context) error {
	h, err := o.ctx.Index(o.index)
	if err != nil {
		return err
	}
	var cur txn.Cursor[value.Record]
	if o.partitions > 0 {
		cur, err = h.FilterRange(o.predicate, o.partition, o.partitions)
	} else {
		cur, err = h.Filter(o.predicate)
	}
	if err != nil {
		return errors.Trace(errkind.New(errkind.Storage, err))
	}
	o.cursor = cur
	return nil
}

func (o *IndexScanOperator) Next(ctx context.Context) (Record, bool, error) {
	if err := o.ctx.checkCancelled(); err != nil {
		return value.Record{}, false, err
	}
	ok, err := o.cursor.MoveNext()
	if err != nil {
		return value.Record{}, false, errors.Trace(errkind.New(errkind.Storage, err))
	}
	if !ok {
		return value.Record{}, false, nil
	}
	return o.cursor.Value(), true, nil
}

func (o *IndexScanOperator) Close() error {
	if o.cursor == nil {
		return nil
	}
	err := o.cursor.Close()
	o.cursor = nil
	return errors.Trace(err)
}
