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

	"github.com/google/uuid"

	"github.com/cottontaildb/cottontail/binding"
	"github.com/cottontaildb/cottontail/cost"
	"github.com/cottontaildb/cottontail/function"
	"github.com/cottontaildb/cottontail/txn"
	"github.com/cottontaildb/cottontail/value"
)

var colID = value.NewColumnDef("s", "e", "id", value.NewScalarType(value.KindLong), false, true)
var colName = value.NewColumnDef("s", "e", "name", value.NewScalarType(value.KindString), false, false)
var colCount = value.NewColumnDef("s", "e", "count", value.NewScalarType(value.KindLong), false, false)

func newTestContext() *Context {
	tc := txn.NewTransactionContext()
	tx := txn.NewAbstractTx(tc)
	return NewContext(tx, uuid.New(), binding.NewBindingContext(), function.NewRegistry(), cost.DefaultSessionVars())
}

// fakeCursor is an in-memory txn.Cursor[value.Record] over a fixed slice,
// the test double every exec test builds a fakeEntityTx/fakeIndexTx atop.
type fakeCursor struct {
	records []value.Record
	pos     int
	closed  bool
}

func (c *fakeCursor) MoveNext() (bool, error) {
	if c.pos >= len(c.records) {
		return false, nil
	}
	c.pos++
	return true, nil
}

func (c *fakeCursor) Key() value.TupleId { return c.records[c.pos-1].ID }
func (c *fakeCursor) Value() value.Record { return c.records[c.pos-1] }
func (c *fakeCursor) Close() error        { c.closed = true; return nil }

// fakeEntityTx is an in-memory txn.EntityTx over a fixed record set,
// supporting Delete by marking ids removed.
type fakeEntityTx struct {
	records []value.Record
	deleted map[value.TupleId]bool
}

func newFakeEntityTx(records []value.Record) *fakeEntityTx {
	return &fakeEntityTx{records: records, deleted: make(map[value.TupleId]bool)}
}

func (e *fakeEntityTx) Count() (int64, error) {
	var n int64
	for _, r := range e.records {
		if !e.deleted[r.ID] {
			n++
		}
	}
	return n, nil
}

func (e *fakeEntityTx) Cursor(columns []value.ColumnDef) (txn.Cursor[value.Record], error) {
	var live []value.Record
	for _, r := range e.records {
		if e.deleted[r.ID] {
			continue
		}
		if columns != nil {
			live = append(live, r.Project(columns))
		} else {
			live = append(live, r)
		}
	}
	return &fakeCursor{records: live}, nil
}

func (e *fakeEntityTx) Delete(id value.TupleId) (bool, error) {
	if e.deleted[id] {
		return false, nil
	}
	for _, r := range e.records {
		if r.ID == id {
			e.deleted[id] = true
			return true, nil
		}
	}
	return false, nil
}

// fakeIndexTx is an in-memory txn.IndexTx filtering a fixed record set
// through a predicate, optionally partitioned by TupleId modulo.
type fakeIndexTx struct {
	records []value.Record
}

func (x *fakeIndexTx) Filter(pred txn.Predicate) (txn.Cursor[value.Record], error) {
	return x.FilterRange(pred, 0, 0)
}

func (x *fakeIndexTx) FilterRange(pred txn.Predicate, partition, partitions int) (txn.Cursor[value.Record], error) {
	var out []value.Record
	for _, r := range x.records {
		if partitions > 0 && int(r.ID)%partitions != partition {
			continue
		}
		ok, err := pred.Matches(r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return &fakeCursor{records: out}, nil
}

// thresholdPredicate matches records whose count column exceeds threshold,
// a minimal txn.Predicate test double.
type thresholdPredicate struct {
	threshold int64
}

func (p thresholdPredicate) Digest() uint64 { return uint64(p.threshold) }

func (p thresholdPredicate) Matches(rec value.Record) (bool, error) {
	v, ok := rec.Get(colCount)
	if !ok {
		return false, nil
	}
	return int64(v.(value.LongValue)) > p.threshold, nil
}

// alwaysTruePredicate matches every record, used where a test only cares
// about partitioning or fan-out, not filtering.
type alwaysTruePredicate struct{}

func (alwaysTruePredicate) Digest() uint64                       { return 1 }
func (alwaysTruePredicate) Matches(value.Record) (bool, error) { return true, nil }

// sliceOperator is a minimal SourceOperator serving a fixed record slice,
// used as the input leg for pipeline-stage tests.
type sliceOperator struct {
	records []value.Record
	pos     int
	closed  bool
}

func (s *sliceOperator) isSource() {}

func (s *sliceOperator) Open(ctx context.Context) error { return nil }

func (s *sliceOperator) Next(ctx context.Context) (Record, bool, error) {
	if s.pos >= len(s.records) {
		return value.Record{}, false, nil
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, true, nil
}

func (s *sliceOperator) Close() error { s.closed = true; return nil }
