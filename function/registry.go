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
	"sync"
	"sync/atomic"

	"github.com/pingcap/errors"

	"github.com/cottontaildb/cottontail/internal/errkind"
	"github.com/cottontaildb/cottontail/value"
)

// Registry is a process-wide immutable map assembled at startup;
// additions go through a versioned copy-on-write swap. Readers (planning
// threads resolving a call by Signature) never block behind a writer.
type Registry struct {
	ptr atomic.Pointer[registrySnapshot]
	mu  sync.Mutex
}

type registrySnapshot struct {
	byName map[string][]Function
}

func newRegistrySnapshot() *registrySnapshot {
	return &registrySnapshot{byName: make(map[string][]Function)}
}

func (s *registrySnapshot) clone() *registrySnapshot {
	n := newRegistrySnapshot()
	for k, v := range s.byName {
		n.byName[k] = append([]Function(nil), v...)
	}
	return n
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.ptr.Store(newRegistrySnapshot())
	return r
}

// Register adds fn under its Signature.Name, versioning the whole map via
// copy-on-write so that in-flight Resolve calls against the prior snapshot
// are unaffected.
func (r *Registry) Register(fn Function) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.ptr.Load().clone()
	next.byName[fn.Signature.Name] = append(next.byName[fn.Signature.Name], fn)
	r.ptr.Store(next)
}

// Resolve picks the most specific Function matching name and argTypes.
// Ties in specificity are an ambiguity error rather than an arbitrary
// pick.
func (r *Registry) Resolve(name string, argTypes []value.Type) (Function, error) {
	candidates := r.ptr.Load().byName[name]
	var best Function
	bestSpecificity := -1
	ties := 0
	for _, fn := range candidates {
		if !fn.Signature.matchesArgs(argTypes) {
			continue
		}
		s := fn.Signature.specificity()
		switch {
		case s > bestSpecificity:
			best = fn
			bestSpecificity = s
			ties = 1
		case s == bestSpecificity:
			ties++
		}
	}
	if bestSpecificity < 0 {
		return Function{}, errors.Trace(errkind.Newf(errkind.QueryBinding, "function: no overload of %q matches argument types %v", name, argTypes))
	}
	if ties > 1 {
		return Function{}, errors.Trace(errkind.Newf(errkind.QuerySyntax, "function: ambiguous overload for %q with argument types %v", name, argTypes))
	}
	return best, nil
}

// RegisterVectorDistances registers every VectorDistance kind for a given
// vector Kind/dimension, the common case of wiring the full distance
// family for one entity's vector column in a single call.
func RegisterVectorDistances(r *Registry, vectorKind value.Kind, dimension int) {
	kinds := []DistanceKind{
		DistanceL1, DistanceL2, DistanceL2Squared, DistanceChebyshev,
		DistanceCosine, DistanceInnerProduct, DistanceHamming, DistanceHaversine,
	}
	for _, k := range kinds {
		d := NewVectorDistance(k, vectorKind, dimension)
		r.Register(d.AsFunction())
	}
}
