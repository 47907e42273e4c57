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
	"github.com/cottontaildb/cottontail/cost"
	"github.com/cottontaildb/cottontail/value"
)

// Function is the registry's unit of dispatch: a Signature paired with
// its executable body and a cost estimator. Cost takes the input
// dimensionality (1 for scalar-only functions) and whether a squared
// (non-rooted) distance suffices the caller; each function carries its
// own cost curve rather than sharing a table.
type Function struct {
	Signature Signature
	Invoke    func(args []value.Value) (value.Value, error)
	Cost      func(d int, squaredSuffices bool) cost.Cost
}

// VectorizableFunction offers a Vectorized variant with identical
// observable behavior up to floating point rounding. Scalar Function
// values that have no vectorized form simply don't implement this
// interface.
type VectorizableFunction interface {
	Vectorized() VectorizedFunction
}

// VectorizedFunction is the SIMD-shaped dual of a VectorizableFunction:
// it still exposes Signature/Invoke/Cost, and the planner treats it as
// substitutable for its scalar counterpart on any input.
type VectorizedFunction interface {
	Signature() Signature
	Invoke(args []value.Value) (value.Value, error)
	Cost(d int, squaredSuffices bool) cost.Cost
}

// asVectorizedFunction adapts a Function into the VectorizedFunction
// interface, used by VectorDistance.Vectorized to return a variant that
// shares the scalar implementation's cost/invoke shape under a different
// cost curve (see distance.go: vectorized distances charge cost.FunctionCall
// once per SIMD lane group instead of once per component).
type asVectorizedFunction struct {
	fn Function
}

func (a asVectorizedFunction) Signature() Signature { return a.fn.Signature }
func (a asVectorizedFunction) Invoke(args []value.Value) (value.Value, error) {
	return a.fn.Invoke(args)
}
func (a asVectorizedFunction) Cost(d int, squaredSuffices bool) cost.Cost {
	return a.fn.Cost(d, squaredSuffices)
}
