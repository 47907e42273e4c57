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

package cost

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCostAddIsCommutativeAndAssociative(t *testing.T) {
	a := Cost{CPU: 1, IO: 2, Memory: 3}
	b := Cost{CPU: 4, IO: 5, Memory: 6}
	c := Cost{CPU: 7, IO: 8, Memory: 9}

	assert.Equal(t, a.Add(b), b.Add(a))
	assert.Equal(t, a.Add(b).Add(c), a.Add(b.Add(c)))
}

func TestZeroIsAdditiveIdentity(t *testing.T) {
	a := Cost{CPU: 1, IO: 2, Memory: 3}
	assert.Equal(t, a, a.Add(Zero))
}

func TestScaleDistributesOverComponents(t *testing.T) {
	a := Cost{CPU: 2, IO: 4, Memory: 6}
	assert.Equal(t, Cost{CPU: 1, IO: 2, Memory: 3}, a.Scale(0.5))
}

func TestBottomUpCompositionMatchesFlatSum(t *testing.T) {
	leaf := Cost{CPU: DiskAccessRead * 100, IO: DiskAccessRead * 100}
	parent := Cost{CPU: FunctionCall * 100}
	total := parent.Add(leaf)
	assert.Equal(t, leaf.CPU+parent.CPU, total.CPU)
	assert.Equal(t, leaf.IO, total.IO)
}

func TestSessionVarsScoreWeightsComponents(t *testing.T) {
	sv := DefaultSessionVars()
	c := Cost{CPU: 1, IO: 1, Memory: 1}
	assert.Equal(t, sv.CPUFactor+sv.IOFactor+sv.MemoryFactor, sv.Score(c))
}

func TestMetricsObserveIsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveRewrite("noop") })
	assert.NotPanics(t, func() { m.ObservePlanScore(1.0) })
}

func TestMetricsObserveWithoutRegistry(t *testing.T) {
	m := NewMetrics(nil)
	m.ObserveRewrite("simd")
	m.ObservePlanScore(0.5)

	count := testutil.ToFloat64(m.RewritesApplied.WithLabelValues("simd"))
	assert.Equal(t, 1.0, count)
}
