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
	"sort"

	"github.com/pingcap/errors"

	"github.com/cottontaildb/cottontail/binding"
	"github.com/cottontaildb/cottontail/internal/errkind"
	"github.com/cottontaildb/cottontail/txn"
	"github.com/cottontaildb/cottontail/value"
)

// SelectionOperator is a non-breaking PipelineOperator that drops
// records failing predicate, the runtime leg of a Selection node.
type SelectionOperator struct {
	ctx       *Context
	input     Operator
	predicate txn.Predicate
}

// NewSelectionOperator builds a filter over input.
func NewSelectionOperator(ctx *Context, input Operator, predicate txn.Predicate) *SelectionOperator {
	return &SelectionOperator{ctx: ctx, input: input, predicate: predicate}
}

func (o *SelectionOperator) Breaker() bool                 { return false }
func (o *SelectionOperator) Open(ctx context.Context) error { return o.input.Open(ctx) }
func (o *SelectionOperator) Close() error                  { return o.input.Close() }

func (o *SelectionOperator) Next(ctx context.Context) (Record, bool, error) {
	for {
		if err := o.ctx.checkCancelled(); err != nil {
			return value.Record{}, false, err
		}
		rec, ok, err := o.input.Next(ctx)
		if err != nil || !ok {
			return value.Record{}, ok, err
		}
		matched, err := o.predicate.Matches(rec)
		if err != nil {
			return value.Record{}, false, errors.Trace(errkind.WithTuple(errkind.QueryBinding, int64(rec.ID), err))
		}
		if matched {
			return rec, true, nil
		}
	}
}

// ProjectionOperator is a non-breaking PipelineOperator restricting each
// record to a fixed column set.
type ProjectionOperator struct {
	ctx     *Context
	input   Operator
	columns []value.ColumnDef
}

// NewProjectionOperator builds a projection over input.
func NewProjectionOperator(ctx *Context, input Operator, columns []value.ColumnDef) *ProjectionOperator {
	return &ProjectionOperator{ctx: ctx, input: input, columns: columns}
}

func (o *ProjectionOperator) Breaker() bool                 { return false }
func (o *ProjectionOperator) Open(ctx context.Context) error { return o.input.Open(ctx) }
func (o *ProjectionOperator) Close() error                  { return o.input.Close() }

func (o *ProjectionOperator) Next(ctx context.Context) (Record, bool, error) {
	if err := o.ctx.checkCancelled(); err != nil {
		return value.Record{}, false, err
	}
	rec, ok, err := o.input.Next(ctx)
	if err != nil || !ok {
		return value.Record{}, ok, err
	}
	return rec.Project(o.columns), true, nil
}

// FunctionOperator is a non-breaking PipelineOperator that derives one
// new column per record via a binding resolved against the current
// BindingContext, so downstream bindings resolve against the outgoing
// record's extended schema.
type FunctionOperator struct {
	ctx      *Context
	input    Operator
	outCol   value.ColumnDef
	bindingID binding.Id
}

// NewFunctionOperator builds a function application operator over input,
// appending outCol computed by resolving bindingID against each record.
func NewFunctionOperator(ctx *Context, input Operator, outCol value.ColumnDef, bindingID binding.Id) *FunctionOperator {
	return &FunctionOperator{ctx: ctx, input: input, outCol: outCol, bindingID: bindingID}
}

func (o *FunctionOperator) Breaker() bool                 { return false }
func (o *FunctionOperator) Open(ctx context.Context) error { return o.input.Open(ctx) }
func (o *FunctionOperator) Close() error                  { return o.input.Close() }

func (o *FunctionOperator) Next(ctx context.Context) (Record, bool, error) {
	if err := o.ctx.checkCancelled(); err != nil {
		return value.Record{}, false, err
	}
	rec, ok, err := o.input.Next(ctx)
	if err != nil || !ok {
		return value.Record{}, ok, err
	}
	v, err := o.ctx.Bindings.Resolve(o.bindingID, rec, o.invoke)
	if err != nil {
		return value.Record{}, false, errors.Trace(errkind.WithTuple(errkind.QueryBinding, int64(rec.ID), err))
	}
	return rec.With(o.outCol, v), true, nil
}

func (o *FunctionOperator) invoke(name string, args []value.Value) (value.Value, error) {
	argTypes := make([]value.Type, len(args))
	for i, a := range args {
		argTypes[i] = a.Type()
	}
	fn, err := o.ctx.Functions.Resolve(name, argTypes)
	if err != nil {
		return nil, err
	}
	return fn.Invoke(args)
}

// LimitOperator drops the first skip records and takes at most limit
// thereafter.
type LimitOperator struct {
	ctx   *Context
	input Operator

	skip, limit int64
	skipped     int64
	taken       int64
}

// NewLimitOperator builds a skip/limit window over input.
func NewLimitOperator(ctx *Context, input Operator, skip, limit int64) *LimitOperator {
	return &LimitOperator{ctx: ctx, input: input, skip: skip, limit: limit}
}

func (o *LimitOperator) Breaker() bool                 { return false }
func (o *LimitOperator) Open(ctx context.Context) error { return o.input.Open(ctx) }
func (o *LimitOperator) Close() error                  { return o.input.Close() }

func (o *LimitOperator) Next(ctx context.Context) (Record, bool, error) {
	if err := o.ctx.checkCancelled(); err != nil {
		return value.Record{}, false, err
	}
	if o.taken >= o.limit {
		return value.Record{}, false, nil
	}
	for o.skipped < o.skip {
		_, ok, err := o.input.Next(ctx)
		if err != nil || !ok {
			return value.Record{}, ok, err
		}
		o.skipped++
	}
	rec, ok, err := o.input.Next(ctx)
	if err != nil || !ok {
		return value.Record{}, ok, err
	}
	o.taken++
	return rec, true, nil
}

// SortOperator is a pipeline breaker: it materializes its entire input,
// sorts by sortOn, then drains in order.
type SortOperator struct {
	ctx    *Context
	input  Operator
	sortOn []SortKey

	buffered []Record
	pos      int
	opened   bool
}

// SortKey orders a materialized sort's output by a column, ascending or
// descending.
type SortKey struct {
	Column value.ColumnDef
	Desc   bool
}

// NewSortOperator builds a materializing sort over input.
func NewSortOperator(ctx *Context, input Operator, sortOn []SortKey) *SortOperator {
	return &SortOperator{ctx: ctx, input: input, sortOn: sortOn}
}

func (o *SortOperator) Breaker() bool { return true }

func (o *SortOperator) Open(ctx context.Context) error {
	if err := o.input.Open(ctx); err != nil {
		return err
	}
	for {
		rec, ok, err := o.input.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		o.buffered = append(o.buffered, rec)
	}
	sort.SliceStable(o.buffered, func(i, j int) bool {
		return lessByKeys(o.buffered[i], o.buffered[j], o.sortOn)
	})
	o.opened = true
	return nil
}

func (o *SortOperator) Next(ctx context.Context) (Record, bool, error) {
	if err := o.ctx.checkCancelled(); err != nil {
		return value.Record{}, false, err
	}
	if o.pos >= len(o.buffered) {
		return value.Record{}, false, nil
	}
	rec := o.buffered[o.pos]
	o.pos++
	return rec, true, nil
}

func (o *SortOperator) Close() error {
	o.buffered = nil
	return o.input.Close()
}

// lessByKeys compares two records by sortOn in priority order, the
// comparator every sort/merge stage in this package shares.
func lessByKeys(a, b Record, keys []SortKey) bool {
	for _, k := range keys {
		av, aok := a.Get(k.Column)
		bv, bok := b.Get(k.Column)
		if !aok || !bok {
			continue
		}
		switch {
		case valueLess(av, bv):
			return !k.Desc
		case valueLess(bv, av):
			return k.Desc
		}
	}
	return false
}

func valueLess(a, b value.Value) bool {
	switch av := a.(type) {
	case value.IntValue:
		bv, _ := b.(value.IntValue)
		return av < bv
	case value.LongValue:
		bv, _ := b.(value.LongValue)
		return av < bv
	case value.FloatValue:
		bv, _ := b.(value.FloatValue)
		return av < bv
	case value.DoubleValue:
		bv, _ := b.(value.DoubleValue)
		return av < bv
	case value.StringValue:
		bv, _ := b.(value.StringValue)
		return av < bv
	default:
		return false
	}
}
