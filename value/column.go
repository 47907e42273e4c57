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

import "strings"

// ColumnDef identifies a column by its hierarchical name
// (schema.entity.column), flattened to a single dotted Name so two
// ColumnDefs compare equal by name alone.
type ColumnDef struct {
	Name      string
	Type      Type
	Nullable  bool
	Primary   bool
}

// NewColumnDef builds a ColumnDef from its hierarchical parts.
func NewColumnDef(schema, entity, column string, t Type, nullable, primary bool) ColumnDef {
	return ColumnDef{
		Name:     strings.Join([]string{schema, entity, column}, "."),
		Type:     t,
		Nullable: nullable,
		Primary:  primary,
	}
}

// Equal reports whether two ColumnDefs refer to the same column.
// Equality is name-only: two ColumnDefs with the same Name but divergent
// Type/Nullable metadata are still the same identifier.
func (c ColumnDef) Equal(o ColumnDef) bool {
	return c.Name == o.Name
}

// ShortName returns the last dotted component of Name, e.g. "column" for
// "schema.entity.column".
func (c ColumnDef) ShortName() string {
	idx := strings.LastIndexByte(c.Name, '.')
	if idx < 0 {
		return c.Name
	}
	return c.Name[idx+1:]
}

// ColumnSet is an ordered, duplicate-free set of ColumnDefs, used
// throughout the logical/physical operator trees for `columns` and
// `requires`. Backed by a slice (not a map) because column sets are small
// and insertion order is part of a node's output schema.
type ColumnSet struct {
	cols []ColumnDef
}

// NewColumnSet builds a ColumnSet from the given columns, de-duplicating
// by name while preserving first-seen order.
func NewColumnSet(cols ...ColumnDef) ColumnSet {
	var cs ColumnSet
	for _, c := range cols {
		cs.Add(c)
	}
	return cs
}

// Add appends c if not already present (by name).
func (cs *ColumnSet) Add(c ColumnDef) {
	for _, existing := range cs.cols {
		if existing.Equal(c) {
			return
		}
	}
	cs.cols = append(cs.cols, c)
}

// Remove deletes c (by name) if present.
func (cs *ColumnSet) Remove(c ColumnDef) {
	for i, existing := range cs.cols {
		if existing.Equal(c) {
			cs.cols = append(cs.cols[:i], cs.cols[i+1:]...)
			return
		}
	}
}

// Contains reports whether c (by name) is a member.
func (cs ColumnSet) Contains(c ColumnDef) bool {
	for _, existing := range cs.cols {
		if existing.Equal(c) {
			return true
		}
	}
	return false
}

// Columns returns the set's members in insertion order. Callers must not
// mutate the returned slice.
func (cs ColumnSet) Columns() []ColumnDef { return cs.cols }

// Len returns the number of columns in the set.
func (cs ColumnSet) Len() int { return len(cs.cols) }

// Union returns a new set containing every column in cs or other, cs's
// members first.
func (cs ColumnSet) Union(other ColumnSet) ColumnSet {
	out := NewColumnSet(cs.cols...)
	for _, c := range other.cols {
		out.Add(c)
	}
	return out
}

// Minus returns a new set containing cs's members that are not in other.
func (cs ColumnSet) Minus(other ColumnSet) ColumnSet {
	var out ColumnSet
	for _, c := range cs.cols {
		if !other.Contains(c) {
			out.Add(c)
		}
	}
	return out
}
