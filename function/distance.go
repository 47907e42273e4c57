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

	"github.com/pingcap/errors"

	"github.com/cottontaildb/cottontail/cost"
	"github.com/cottontaildb/cottontail/internal/errkind"
	"github.com/cottontaildb/cottontail/value"
)

// DistanceKind tags a VectorDistance specialization. Each is a binary
// (query, probe) function of identical vector type returning double.
type DistanceKind int

const (
	DistanceL1 DistanceKind = iota
	DistanceL2
	DistanceL2Squared
	DistanceChebyshev
	DistanceCosine
	DistanceInnerProduct
	DistanceHamming
	DistanceHaversine
)

func (k DistanceKind) String() string {
	switch k {
	case DistanceL1:
		return "L1"
	case DistanceL2:
		return "L2"
	case DistanceL2Squared:
		return "L2SQUARED"
	case DistanceChebyshev:
		return "CHEBYSHEV"
	case DistanceCosine:
		return "COSINE"
	case DistanceInnerProduct:
		return "INNERPRODUCT"
	case DistanceHamming:
		return "HAMMING"
	case DistanceHaversine:
		return "HAVERSINE"
	default:
		return "UNKNOWN"
	}
}

// toFloat64Slice extracts the components of a float or double vector value
// as a []float64, the common representation every distance kernel below
// operates on regardless of the column's storage width.
func toFloat64Slice(v value.Value) ([]float64, error) {
	switch vv := v.(type) {
	case value.FloatVectorValue:
		out := make([]float64, len(vv))
		for i, c := range vv {
			out[i] = float64(c)
		}
		return out, nil
	case value.DoubleVectorValue:
		return append([]float64(nil), vv...), nil
	default:
		return nil, errors.Trace(errkind.Newf(errkind.QueryBinding, "function: %T is not a float/double vector", v))
	}
}

func kernel(kind DistanceKind, a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Trace(errkind.Newf(errkind.QueryBinding, "function: vector dimension mismatch %d != %d", len(a), len(b)))
	}
	switch kind {
	case DistanceL1:
		var sum float64
		for i := range a {
			sum += math.Abs(a[i] - b[i])
		}
		return sum, nil
	case DistanceL2, DistanceL2Squared:
		var sum float64
		for i := range a {
			d := a[i] - b[i]
			sum += d * d
		}
		if kind == DistanceL2Squared {
			return sum, nil
		}
		return math.Sqrt(sum), nil
	case DistanceChebyshev:
		var max float64
		for i := range a {
			if d := math.Abs(a[i] - b[i]); d > max {
				max = d
			}
		}
		return max, nil
	case DistanceCosine:
		var dot, na, nb float64
		for i := range a {
			dot += a[i] * b[i]
			na += a[i] * a[i]
			nb += b[i] * b[i]
		}
		if na == 0 || nb == 0 {
			return 1, nil
		}
		return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb)), nil
	case DistanceInnerProduct:
		var dot float64
		for i := range a {
			dot += a[i] * b[i]
		}
		return -dot, nil
	case DistanceHamming:
		var n float64
		for i := range a {
			if a[i] != b[i] {
				n++
			}
		}
		return n, nil
	case DistanceHaversine:
		if len(a) != 2 {
			return 0, errors.Trace(errkind.Newf(errkind.QueryBinding, "function: haversine requires 2 components (lat, lon), got %d", len(a)))
		}
		const earthRadiusKm = 6371.0
		lat1, lon1 := a[0]*math.Pi/180, a[1]*math.Pi/180
		lat2, lon2 := b[0]*math.Pi/180, b[1]*math.Pi/180
		dLat, dLon := lat2-lat1, lon2-lon1
		h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
		return 2 * earthRadiusKm * math.Asin(math.Sqrt(h)), nil
	default:
		return 0, errors.Trace(errkind.Newf(errkind.QueryBinding, "function: unknown distance kind %d", kind))
	}
}

// VectorDistance is a binary (query, probe) function over identical
// vector types returning a double, specialized by Kind, with Copy to
// rebind at a new dimensionality at bind time.
type VectorDistance struct {
	Kind       DistanceKind
	Dimension  int
	vectorKind value.Kind
}

// NewVectorDistance builds a VectorDistance specialization over vectors of
// vectorKind and the given dimension.
func NewVectorDistance(kind DistanceKind, vectorKind value.Kind, dimension int) *VectorDistance {
	if !vectorKind.IsVector() {
		panic("function: VectorDistance requires a vector Kind")
	}
	return &VectorDistance{Kind: kind, Dimension: dimension, vectorKind: vectorKind}
}

// Copy rebinds this distance to a new dimensionality, used when the
// planner substitutes a differently-sized index's vector column into an
// existing kNN predicate.
func (d *VectorDistance) Copy(dimension int) *VectorDistance {
	return NewVectorDistance(d.Kind, d.vectorKind, dimension)
}

// Signature returns this distance's (query, probe) -> double signature.
func (d *VectorDistance) Signature() Signature {
	t := value.NewVectorType(d.vectorKind, d.Dimension)
	return Signature{
		Name:       "vector_distance_" + d.Kind.String(),
		Args:       []ArgumentType{Typed(t), Typed(t)},
		ReturnType: value.NewScalarType(value.KindDouble),
	}
}

// scalarInvoke evaluates this distance component-by-component.
func (d *VectorDistance) scalarInvoke(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, errors.Trace(errkind.Newf(errkind.QueryBinding, "function: vector distance takes exactly 2 arguments"))
	}
	a, err := toFloat64Slice(args[0])
	if err != nil {
		return nil, err
	}
	b, err := toFloat64Slice(args[1])
	if err != nil {
		return nil, err
	}
	result, err := kernel(d.Kind, a, b)
	if err != nil {
		return nil, err
	}
	return value.DoubleValue(result), nil
}

// Cost estimates the atomic CPU cost of one invocation over dimension d,
// charging one FunctionCall unit per component compared. squaredSuffices
// lets L2 short-circuit the sqrt when only relative ordering matters.
func (d *VectorDistance) Cost(dim int, squaredSuffices bool) cost.Cost {
	c := cost.Cost{CPU: cost.FunctionCall * float64(dim)}
	if d.Kind == DistanceL2 && squaredSuffices {
		return c
	}
	if d.Kind == DistanceL2 || d.Kind == DistanceCosine || d.Kind == DistanceHaversine {
		c.CPU += cost.FunctionCall // sqrt/trig tail cost
	}
	return c
}

// AsFunction exposes this distance through the registry's Function shape.
func (d *VectorDistance) AsFunction() Function {
	return Function{
		Signature: d.Signature(),
		Invoke:    d.scalarInvoke,
		Cost:      d.Cost,
	}
}

// Vectorized returns this distance's SIMD-shaped dual: identical
// signature and invoke result, a cheaper cost curve charging one
// FunctionCall per SIMD lane group rather than per component.
func (d *VectorDistance) Vectorized() VectorizedFunction {
	fn := d.AsFunction()
	return vectorizedDistance{VectorDistance: d, base: asVectorizedFunction{fn: fn}}
}

// vectorizedDistance overrides Cost to reflect lane-grouped SIMD
// throughput while reusing the scalar kernel for correctness: the
// scalar and vectorized variants must agree on every input up to
// floating-point rounding, and sharing the kernel makes that exact.
type vectorizedDistance struct {
	*VectorDistance
	base VectorizedFunction
}

const simdLaneWidth = 8

func (v vectorizedDistance) Signature() Signature { return v.base.Signature() }
func (v vectorizedDistance) Invoke(args []value.Value) (value.Value, error) {
	return v.base.Invoke(args)
}
func (v vectorizedDistance) Cost(dim int, squaredSuffices bool) cost.Cost {
	lanes := math.Ceil(float64(dim) / simdLaneWidth)
	c := cost.Cost{CPU: cost.FunctionCall * lanes}
	if v.Kind == DistanceL2 && squaredSuffices {
		return c
	}
	if v.Kind == DistanceL2 || v.Kind == DistanceCosine || v.Kind == DistanceHaversine {
		c.CPU += cost.FunctionCall
	}
	return c
}
