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
	"time"

	"github.com/pingcap/errors"

	"github.com/cottontaildb/cottontail/internal/errkind"
	"github.com/cottontaildb/cottontail/value"
)

// DeleteOperator consumes every record from input (identifying which
// rows to delete, e.g. a Selection over a primary key predicate) and
// deletes them one by one, marking the Tx DIRTY on first mutation. It
// emits a single (deleted_count, timestamp) record. A repeat delete of
// an already-deleted id is legal and contributes zero to the count.
type DeleteOperator struct {
	ctx    *Context
	input  Operator
	entity string

	deletedCountCol, timestampCol value.ColumnDef

	emitted bool
}

// NewDeleteOperator builds a delete operator consuming input's rows as
// deletion targets against entity.
func NewDeleteOperator(ctx *Context, input Operator, entity string, deletedCountCol, timestampCol value.ColumnDef) *DeleteOperator {
	return &DeleteOperator{ctx: ctx, input: input, entity: entity, deletedCountCol: deletedCountCol, timestampCol: timestampCol}
}

func (o *DeleteOperator) Breaker() bool                 { return true }
func (o *DeleteOperator) Open(ctx context.Context) error { return o.input.Open(ctx) }
func (o *DeleteOperator) Close() error                  { return o.input.Close() }

func (o *DeleteOperator) Next(ctx context.Context) (Record, bool, error) {
	if o.emitted {
		return value.Record{}, false, nil
	}
	h, err := o.ctx.Entity(o.entity)
	if err != nil {
		return value.Record{}, false, err
	}

	var deleted int64
	seen := value.NewTupleIdSet()
	for {
		if err := o.ctx.checkCancelled(); err != nil {
			return value.Record{}, false, err
		}
		rec, ok, err := o.input.Next(ctx)
		if err != nil {
			_ = o.ctx.Tx.MarkError(o.ctx.Owner, err)
			return value.Record{}, false, err
		}
		if !ok {
			break
		}
		// The input may name the same row more than once (e.g. a predicate
		// matching through two index paths); only the first attempt per id
		// reaches storage.
		if seen.Contains(rec.ID) {
			continue
		}
		seen.Add(rec.ID)
		if err := o.ctx.Tx.MarkDirty(o.ctx.Owner); err != nil {
			return value.Record{}, false, err
		}
		removed, err := h.Delete(rec.ID)
		if err != nil {
			_ = o.ctx.Tx.MarkError(o.ctx.Owner, err)
			return value.Record{}, false, errors.Trace(errkind.WithTuple(errkind.Storage, int64(rec.ID), err))
		}
		if removed {
			deleted++
		}
	}

	o.emitted = true
	rec := value.NewRecord(0,
		[]value.ColumnDef{o.deletedCountCol, o.timestampCol},
		[]value.Value{value.LongValue(deleted), value.DateValue(time.Now().Unix())})
	return rec, true, nil
}
