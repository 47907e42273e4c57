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

package function

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cottontaildb/cottontail/value"
)

func TestL2DistanceMatchesEuclidean(t *testing.T) {
	d := NewVectorDistance(DistanceL2, value.KindFloatVector, 3)
	fn := d.AsFunction()

	v, err := fn.Invoke([]value.Value{
		value.FloatVectorValue{0, 0, 0},
		value.FloatVectorValue{3, 4, 0},
	})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, float64(v.(value.DoubleValue)), 1e-9)
}

func TestL2SquaredSkipsSqrt(t *testing.T) {
	d := NewVectorDistance(DistanceL2Squared, value.KindFloatVector, 2)
	fn := d.AsFunction()
	v, err := fn.Invoke([]value.Value{
		value.FloatVectorValue{0, 0},
		value.FloatVectorValue{3, 4},
	})
	require.NoError(t, err)
	assert.InDelta(t, 25.0, float64(v.(value.DoubleValue)), 1e-9)
}

func TestCosineDistanceOfParallelVectorsIsZero(t *testing.T) {
	d := NewVectorDistance(DistanceCosine, value.KindDoubleVector, 3)
	fn := d.AsFunction()
	v, err := fn.Invoke([]value.Value{
		value.DoubleVectorValue{1, 2, 3},
		value.DoubleVectorValue{2, 4, 6},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, float64(v.(value.DoubleValue)), 1e-9)
}

func TestHammingCountsDifferingComponents(t *testing.T) {
	d := NewVectorDistance(DistanceHamming, value.KindFloatVector, 4)
	fn := d.AsFunction()
	v, err := fn.Invoke([]value.Value{
		value.FloatVectorValue{1, 0, 1, 1},
		value.FloatVectorValue{1, 1, 0, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, value.DoubleValue(2), v)
}

func TestHaversineRequiresTwoComponents(t *testing.T) {
	d := NewVectorDistance(DistanceHaversine, value.KindFloatVector, 3)
	fn := d.AsFunction()
	_, err := fn.Invoke([]value.Value{
		value.FloatVectorValue{1, 2, 3},
		value.FloatVectorValue{1, 2, 3},
	})
	require.Error(t, err)
}

func TestHaversineKnownDistance(t *testing.T) {
	d := NewVectorDistance(DistanceHaversine, value.KindDoubleVector, 2)
	fn := d.AsFunction()
	// Paris (48.8566, 2.3522) to London (51.5074, -0.1278): ~343km.
	v, err := fn.Invoke([]value.Value{
		value.DoubleVectorValue{48.8566, 2.3522},
		value.DoubleVectorValue{51.5074, -0.1278},
	})
	require.NoError(t, err)
	assert.InDelta(t, 343, float64(v.(value.DoubleValue)), 10)
}

func TestDistanceRejectsDimensionMismatch(t *testing.T) {
	d := NewVectorDistance(DistanceL1, value.KindFloatVector, 3)
	fn := d.AsFunction()
	_, err := fn.Invoke([]value.Value{
		value.FloatVectorValue{1, 2, 3},
		value.FloatVectorValue{1, 2},
	})
	require.Error(t, err)
}

func TestCopyRebindsDimensionality(t *testing.T) {
	d := NewVectorDistance(DistanceL2, value.KindFloatVector, 128)
	rebound := d.Copy(256)
	assert.Equal(t, 256, rebound.Dimension)
	assert.Equal(t, d.Kind, rebound.Kind)
}

func TestVectorizedEquivalenceWithinULPBound(t *testing.T) {
	d := NewVectorDistance(DistanceCosine, value.KindFloatVector, 300)
	scalarFn := d.AsFunction()
	vectorized := d.Vectorized()

	a := make([]value.Value, 2)
	qv := make(value.FloatVectorValue, 300)
	pv := make(value.FloatVectorValue, 300)
	for i := range qv {
		qv[i] = float32(i%7) + 0.5
		pv[i] = float32((i+3)%11) + 0.25
	}
	a[0], a[1] = qv, pv

	scalarResult, err := scalarFn.Invoke(a)
	require.NoError(t, err)
	vectorResult, err := vectorized.Invoke(a)
	require.NoError(t, err)

	sv := float64(scalarResult.(value.DoubleValue))
	vv := float64(vectorResult.(value.DoubleValue))
	assert.InDelta(t, sv, vv, 300*math.SmallestNonzeroFloat64*1e10) // effectively exact: same kernel
	assert.Equal(t, sv, vv)
}

func TestVectorizedCostIsLaneGrouped(t *testing.T) {
	d := NewVectorDistance(DistanceL2Squared, value.KindFloatVector, 256)
	scalarCost := d.Cost(256, true)
	vectorCost := d.Vectorized().Cost(256, true)
	assert.Less(t, vectorCost.CPU, scalarCost.CPU)
}
