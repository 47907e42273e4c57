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
	"hash/fnv"
	"strconv"

	"github.com/google/uuid"

	"github.com/cottontaildb/cottontail/function"
	"github.com/cottontaildb/cottontail/txn"
	"github.com/cottontaildb/cottontail/value"
)

// EqualityPredicate matches records whose Column equals Value.
type EqualityPredicate struct {
	Column value.ColumnDef
	Value  value.Value
}

func (p EqualityPredicate) Digest() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(p.Column.Name))
	writeUint64(h, p.Value.Hash())
	return h.Sum64()
}

func (p EqualityPredicate) Matches(rec value.Record) (bool, error) {
	v, ok := rec.Get(p.Column)
	if !ok {
		return false, nil
	}
	return v.Equal(p.Value), nil
}

// RangePredicate matches records whose Column falls within [Low, High]
// (inclusivity per field), comparing via each scalar kind's natural order.
type RangePredicate struct {
	Column                       value.ColumnDef
	Low, High                   value.Value
	LowInclusive, HighInclusive bool
}

func (p RangePredicate) Digest() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(p.Column.Name))
	if p.Low != nil {
		writeUint64(h, p.Low.Hash())
	}
	if p.High != nil {
		writeUint64(h, p.High.Hash())
	}
	_, _ = h.Write([]byte{boolByte(p.LowInclusive), boolByte(p.HighInclusive)})
	return h.Sum64()
}

func (p RangePredicate) Matches(rec value.Record) (bool, error) {
	v, ok := rec.Get(p.Column)
	if !ok {
		return false, nil
	}
	if p.Low != nil {
		cmp := compareOrdered(v, p.Low)
		if cmp < 0 || (cmp == 0 && !p.LowInclusive) {
			return false, nil
		}
	}
	if p.High != nil {
		cmp := compareOrdered(v, p.High)
		if cmp > 0 || (cmp == 0 && !p.HighInclusive) {
			return false, nil
		}
	}
	return true, nil
}

// compareOrdered returns -1/0/1 comparing a against b for the scalar kinds
// RangePredicate supports. Kinds without a natural order (booleans,
// vectors) always compare equal, matching every range in practice.
func compareOrdered(a, b value.Value) int {
	switch av := a.(type) {
	case value.IntValue:
		bv, _ := b.(value.IntValue)
		return sign(int64(av) - int64(bv))
	case value.LongValue:
		bv, _ := b.(value.LongValue)
		return sign(int64(av) - int64(bv))
	case value.FloatValue:
		bv, _ := b.(value.FloatValue)
		return signF(float64(av) - float64(bv))
	case value.DoubleValue:
		bv, _ := b.(value.DoubleValue)
		return signF(float64(av) - float64(bv))
	case value.DateValue:
		bv, _ := b.(value.DateValue)
		return sign(int64(av) - int64(bv))
	case value.StringValue:
		bv, _ := b.(value.StringValue)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

func sign(d int64) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

func signF(d float64) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

// KnnPredicate is a similarity-search condition: K nearest under
// Distance against Query. Hint, when set, names an index-specific
// acceleration strategy the KNN-to-index rule prefers; it does not
// affect Matches. Threshold, when non-nil, turns this into an actual
// boolean filter (distance <= *Threshold); left nil (the common case), a
// full-scan fallback accepts every record and leaves ranking to a
// downstream Sort+Limit pair, mirroring how an index's Filter would do the
// ranking internally when KNN-to-index applies instead.
type KnnPredicate struct {
	Column    value.ColumnDef
	K         int64
	Distance  function.DistanceKind
	Query     value.Value
	Weight    float64
	Hint      string
	Threshold *float64

	// queryID fingerprints the BindingContext this predicate was built
	// against: Digest folds this in instead of a reference hash, so two
	// structurally identical KnnPredicates built within the same query
	// compare equal while predicates from different queries never collide
	// by accident.
	queryID uuid.UUID
}

// NewKnnPredicate builds a KnnPredicate fingerprinted against queryID
// (typically binding.BindingContext.QueryID()).
func NewKnnPredicate(column value.ColumnDef, k int64, distance function.DistanceKind, query value.Value, weight float64, hint string, queryID uuid.UUID) KnnPredicate {
	return KnnPredicate{Column: column, K: k, Distance: distance, Query: query, Weight: weight, Hint: hint, queryID: queryID}
}

func (p KnnPredicate) Digest() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(p.Column.Name))
	_, _ = h.Write([]byte(strconv.FormatInt(p.K, 10)))
	_, _ = h.Write([]byte(p.Distance.String()))
	writeUint64(h, uint64(p.Weight*1e6))
	_, _ = h.Write([]byte(p.Hint))
	qb, _ := p.queryID.MarshalBinary()
	_, _ = h.Write(qb)
	if p.Query != nil {
		writeUint64(h, p.Query.Hash())
	}
	return h.Sum64()
}

func (p KnnPredicate) Matches(rec value.Record) (bool, error) {
	if p.Threshold == nil {
		return true, nil
	}
	v, ok := rec.Get(p.Column)
	if !ok {
		return false, nil
	}
	d := function.NewVectorDistance(p.Distance, v.Type().Kind, v.Type().LogicalSize())
	fn := d.AsFunction()
	result, err := fn.Invoke([]value.Value{v, p.Query})
	if err != nil {
		return false, err
	}
	dist, ok := result.(value.DoubleValue)
	if !ok {
		return false, nil
	}
	return float64(dist) <= *p.Threshold, nil
}

// AndPredicate conjoins two predicates, used by the planner's filter
// fusion rewrite to collapse two cascading Selection nodes into one
// without changing which records match.
type AndPredicate struct {
	Left, Right txn.Predicate
}

func (p AndPredicate) Digest() uint64 {
	h := fnv.New64a()
	writeUint64(h, p.Left.Digest())
	writeUint64(h, p.Right.Digest())
	return h.Sum64()
}

func (p AndPredicate) Matches(rec value.Record) (bool, error) {
	ok, err := p.Left.Matches(rec)
	if err != nil || !ok {
		return false, err
	}
	return p.Right.Matches(rec)
}

func writeUint64(h interface{ Write([]byte) (int, error) }, v uint64) {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	_, _ = h.Write(buf)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
