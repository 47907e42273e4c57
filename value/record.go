// Copyright 2016 PingCAP, Inc.
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

package value

import "sync/atomic"

// TupleId identifies a Record. It is monotone within a single store.
type TupleId int64

// TupleIdSequence hands out monotone TupleIds from an in-memory atomic
// counter; it offers monotonicity, not durability.
type TupleIdSequence struct {
	next int64
}

// Next returns the next TupleId and advances the sequence.
func (s *TupleIdSequence) Next() TupleId {
	return TupleId(atomic.AddInt64(&s.next, 1) - 1)
}

// Record is an ordered tuple keyed by ColumnDef and identified by a
// TupleId. A Record only makes sense alongside the ColumnDef slice that
// named it; we keep that slice alongside the values here instead of
// requiring a side index, since plan-time schemas are rarely more than a
// few dozen columns.
type Record struct {
	ID      TupleId
	columns []ColumnDef
	values  []Value
}

// NewRecord builds a Record. Panics if len(columns) != len(values): a
// Record's values are always positionally aligned with its columns.
func NewRecord(id TupleId, columns []ColumnDef, values []Value) Record {
	if len(columns) != len(values) {
		panic("value: record columns/values length mismatch")
	}
	return Record{ID: id, columns: columns, values: values}
}

// Columns returns the record's schema, in column order.
func (r Record) Columns() []ColumnDef { return r.columns }

// Has reports whether the record carries col, checked by consumers before
// a read: a record's columns must be a superset of any consumer's
// required columns.
func (r Record) Has(col ColumnDef) bool {
	for _, c := range r.columns {
		if c.Equal(col) {
			return true
		}
	}
	return false
}

// Get returns the value bound to col and whether it was present.
func (r Record) Get(col ColumnDef) (Value, bool) {
	for i, c := range r.columns {
		if c.Equal(col) {
			return r.values[i], true
		}
	}
	return nil, false
}

// Project returns a new Record containing only the requested columns, in
// the order requested. Panics if a requested column is missing; callers
// must check Has first if missing columns are expected.
func (r Record) Project(cols []ColumnDef) Record {
	values := make([]Value, len(cols))
	for i, c := range cols {
		v, ok := r.Get(c)
		if !ok {
			panic("value: Project requested a column not present in record: " + c.Name)
		}
		values[i] = v
	}
	return NewRecord(r.ID, cols, values)
}

// With returns a copy of r with an additional (column, value) appended,
// the way a function node appends a derived column downstream of its
// input.
func (r Record) With(col ColumnDef, v Value) Record {
	cols := make([]ColumnDef, len(r.columns)+1)
	copy(cols, r.columns)
	cols[len(r.columns)] = col
	vals := make([]Value, len(r.values)+1)
	copy(vals, r.values)
	vals[len(r.values)] = v
	return NewRecord(r.ID, cols, vals)
}
