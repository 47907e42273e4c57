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

// Package value implements Cottontail's typed value model: a tagged
// union over scalar and vector variants, the Type that describes their
// layout, and the per-column statistics the cost model consumes.
package value

import "fmt"

// Kind tags a Value's runtime variant. Scalar kinds have LogicalSize 1;
// vector kinds carry a dimensionality in their Type.
type Kind uint8

const (
	KindBoolean Kind = iota
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindDate
	KindComplex32
	KindComplex64

	KindBooleanVector
	KindIntVector
	KindLongVector
	KindFloatVector
	KindDoubleVector
	KindComplexVector
)

// IsVector reports whether the kind is a vector variant.
func (k Kind) IsVector() bool {
	return k >= KindBooleanVector
}

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "BOOLEAN"
	case KindByte:
		return "BYTE"
	case KindShort:
		return "SHORT"
	case KindInt:
		return "INT"
	case KindLong:
		return "LONG"
	case KindFloat:
		return "FLOAT"
	case KindDouble:
		return "DOUBLE"
	case KindString:
		return "STRING"
	case KindDate:
		return "DATE"
	case KindComplex32:
		return "COMPLEX32"
	case KindComplex64:
		return "COMPLEX64"
	case KindBooleanVector:
		return "BOOLEAN_VECTOR"
	case KindIntVector:
		return "INT_VECTOR"
	case KindLongVector:
		return "LONG_VECTOR"
	case KindFloatVector:
		return "FLOAT_VECTOR"
	case KindDoubleVector:
		return "DOUBLE_VECTOR"
	case KindComplexVector:
		return "COMPLEX_VECTOR"
	default:
		return "UNKNOWN"
	}
}

// componentSize is the physical size in bytes of a single component of the
// given kind (e.g. the per-dimension width of a vector kind).
func componentSize(k Kind) int {
	switch k {
	case KindBoolean, KindBooleanVector:
		return 1
	case KindByte:
		return 1
	case KindShort:
		return 2
	case KindInt, KindIntVector:
		return 4
	case KindLong, KindLongVector:
		return 8
	case KindFloat, KindFloatVector:
		return 4
	case KindDouble, KindDoubleVector:
		return 8
	case KindComplex32:
		return 8
	case KindComplex64, KindComplexVector:
		return 16
	case KindString:
		return 0 // variable width; see Type.PhysicalSize
	case KindDate:
		return 8
	default:
		return 0
	}
}

// Type carries a Value's logical size (dimensionality for vectors, 1 for
// scalars) and physical size (bytes), driving layout and the cost
// model's row-width estimates.
type Type struct {
	Kind Kind
	// logicalSize is the dimensionality for vector kinds, 1 otherwise.
	logicalSize int
}

// NewScalarType constructs the Type for a scalar kind. Panics if k is a
// vector kind: use NewVectorType instead. A value's runtime variant must
// always equal its declared Type.
func NewScalarType(k Kind) Type {
	if k.IsVector() {
		panic(fmt.Sprintf("value: %s is a vector kind, use NewVectorType", k))
	}
	return Type{Kind: k, logicalSize: 1}
}

// NewVectorType constructs the Type for a vector kind with the given
// dimensionality. Panics if d <= 0 or k is not a vector kind.
func NewVectorType(k Kind, d int) Type {
	if !k.IsVector() {
		panic(fmt.Sprintf("value: %s is not a vector kind, use NewScalarType", k))
	}
	if d <= 0 {
		panic("value: vector dimensionality must be positive")
	}
	return Type{Kind: k, logicalSize: d}
}

// LogicalSize is the dimensionality for vectors, 1 for scalars.
func (t Type) LogicalSize() int { return t.logicalSize }

// PhysicalSize is the on-wire/on-disk byte width of a value of this type.
// Strings have no fixed physical size; callers needing a width estimate
// for strings must consult ValueStatistics.AvgWidth instead.
func (t Type) PhysicalSize() int {
	if t.Kind == KindString {
		return 0
	}
	return componentSize(t.Kind) * t.logicalSize
}

// Equal reports structural equality: same kind and same logical size.
func (t Type) Equal(o Type) bool {
	return t.Kind == o.Kind && t.logicalSize == o.logicalSize
}

func (t Type) String() string {
	if t.Kind.IsVector() {
		return fmt.Sprintf("%s(%d)", t.Kind, t.logicalSize)
	}
	return t.Kind.String()
}
