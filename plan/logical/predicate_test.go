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

	"github.com/cottontaildb/cottontail/function"
	"github.com/cottontaildb/cottontail/value"
)

var colVec = value.NewColumnDef("s", "e", "embedding", value.NewVectorType(value.KindDoubleVector, 2), false, false)

func TestEqualityPredicateMatches(t *testing.T) {
	p := EqualityPredicate{Column: colCount, Value: value.LongValue(5)}
	match := value.NewRecord(1, []value.ColumnDef{colCount}, []value.Value{value.LongValue(5)})
	noMatch := value.NewRecord(2, []value.ColumnDef{colCount}, []value.Value{value.LongValue(6)})

	ok, err := p.Matches(match)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Matches(noMatch)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEqualityPredicateDigestIsStableAndDistinguishing(t *testing.T) {
	a := EqualityPredicate{Column: colCount, Value: value.LongValue(5)}
	b := EqualityPredicate{Column: colCount, Value: value.LongValue(5)}
	c := EqualityPredicate{Column: colCount, Value: value.LongValue(6)}
	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
}

func TestRangePredicateHonorsInclusivity(t *testing.T) {
	p := RangePredicate{Column: colCount, Low: value.LongValue(1), High: value.LongValue(10), LowInclusive: true, HighInclusive: false}
	rec := func(v int64) value.Record {
		return value.NewRecord(1, []value.ColumnDef{colCount}, []value.Value{value.LongValue(v)})
	}

	ok, err := p.Matches(rec(1))
	require.NoError(t, err)
	assert.True(t, ok, "lower bound inclusive")

	ok, err = p.Matches(rec(10))
	require.NoError(t, err)
	assert.False(t, ok, "upper bound exclusive")

	ok, err = p.Matches(rec(5))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Matches(rec(0))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRangePredicateUnboundedSideAlwaysPasses(t *testing.T) {
	p := RangePredicate{Column: colCount, Low: value.LongValue(5), LowInclusive: true}
	rec := value.NewRecord(1, []value.ColumnDef{colCount}, []value.Value{value.LongValue(1_000_000)})
	ok, err := p.Matches(rec)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKnnPredicateWithoutThresholdAlwaysMatches(t *testing.T) {
	p := NewKnnPredicate(colVec, 3, function.DistanceL2, value.DoubleVectorValue{0, 0}, 1, "", uuid.New())
	rec := value.NewRecord(1, []value.ColumnDef{colVec}, []value.Value{value.DoubleVectorValue{10, 10}})
	ok, err := p.Matches(rec)
	require.NoError(t, err)
	assert.True(t, ok, "no threshold means rank-only, full scan accepts every row")
}

func TestKnnPredicateWithThresholdFiltersByDistance(t *testing.T) {
	threshold := 1.5
	p := NewKnnPredicate(colVec, 3, function.DistanceL2, value.DoubleVectorValue{0, 0}, 1, "", uuid.New())
	p.Threshold = &threshold

	near := value.NewRecord(1, []value.ColumnDef{colVec}, []value.Value{value.DoubleVectorValue{1, 0}})
	far := value.NewRecord(2, []value.ColumnDef{colVec}, []value.Value{value.DoubleVectorValue{10, 10}})

	ok, err := p.Matches(near)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Matches(far)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKnnPredicateDigestFoldsInQueryIDNotReferenceIdentity(t *testing.T) {
	qid := uuid.New()
	a := NewKnnPredicate(colVec, 3, function.DistanceL2, value.DoubleVectorValue{0, 0}, 1, "ann", qid)
	b := NewKnnPredicate(colVec, 3, function.DistanceL2, value.DoubleVectorValue{0, 0}, 1, "ann", qid)
	assert.Equal(t, a.Digest(), b.Digest(), "structurally identical predicates within the same query must collide")

	other := NewKnnPredicate(colVec, 3, function.DistanceL2, value.DoubleVectorValue{0, 0}, 1, "ann", uuid.New())
	assert.NotEqual(t, a.Digest(), other.Digest(), "different queries must not collide even with identical structure")
}

func TestKnnPredicateDigestDistinguishesK(t *testing.T) {
	qid := uuid.New()
	a := NewKnnPredicate(colVec, 3, function.DistanceL2, value.DoubleVectorValue{0, 0}, 1, "", qid)
	b := NewKnnPredicate(colVec, 5, function.DistanceL2, value.DoubleVectorValue{0, 0}, 1, "", qid)
	assert.NotEqual(t, a.Digest(), b.Digest())
}
