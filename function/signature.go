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

// Package function implements Cottontail's function registry:
// Signature-addressed scalar/vector functions with a scalar<->vectorized
// duality for VectorDistance, dispatched by signature/arg-type matching.
package function

import (
	"fmt"
	"strings"

	"github.com/cottontaildb/cottontail/value"
)

// ArgumentType constrains one formal parameter of a Signature: either a
// fixed Typed(T) or an Open(bound) accepting any Kind satisfying bound
// (e.g. any vector Kind, for VectorDistance's generic dimensionality).
type ArgumentType struct {
	// Fixed is set for a Typed(T) argument; when Bound is non-nil, Fixed
	// is ignored and Bound alone decides whether a candidate Kind matches.
	Fixed value.Type
	// Bound, when Fixed is unset, is a predicate over candidate Kinds
	// (e.g. value.Kind.IsVector).
	Bound func(value.Kind) bool
	// BoundDescription names Bound for error messages and String().
	BoundDescription string
}

// Typed builds a fixed ArgumentType.
func Typed(t value.Type) ArgumentType { return ArgumentType{Fixed: t} }

// Open builds an ArgumentType accepting any Kind for which bound returns
// true, with description used purely for diagnostics.
func Open(description string, bound func(value.Kind) bool) ArgumentType {
	return ArgumentType{Bound: bound, BoundDescription: description}
}

// Matches reports whether t satisfies this ArgumentType.
func (a ArgumentType) Matches(t value.Type) bool {
	if a.Bound != nil {
		return a.Bound(t.Kind)
	}
	return a.Fixed.Equal(t)
}

func (a ArgumentType) String() string {
	if a.Bound != nil {
		return "Open(" + a.BoundDescription + ")"
	}
	return "Typed(" + a.Fixed.String() + ")"
}

// Signature identifies a function by name and declared argument/return
// types. Two signatures with the same Name but different arity or
// argument types are distinct entries in the registry.
type Signature struct {
	Name       string
	Args       []ArgumentType
	ReturnType value.Type
}

func (s Signature) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s) -> %s", s.Name, strings.Join(parts, ", "), s.ReturnType)
}

// matchesArgs reports whether a candidate call's argument types satisfy s.
func (s Signature) matchesArgs(argTypes []value.Type) bool {
	if len(argTypes) != len(s.Args) {
		return false
	}
	for i, want := range s.Args {
		if !want.Matches(argTypes[i]) {
			return false
		}
	}
	return true
}

// specificity is used to rank candidate overloads when more than one
// Signature matches a call: Typed args are more specific than Open ones,
// so resolution prefers the signature with the fewest Open parameters.
func (s Signature) specificity() int {
	n := 0
	for _, a := range s.Args {
		if a.Bound == nil {
			n++
		}
	}
	return n
}
