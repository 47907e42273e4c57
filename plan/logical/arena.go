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

// Package logical implements Cottontail's algebraic operator DAG: nodes
// that propagate columns/requires bottom-up and lower 1:1 into
// physical.Node. The DAG is addressed through an Arena of ids rather
// than pointer links (no bidirectional ownership), since a node may be
// referenced by a rewrite before its parent relationship is finalized.
package logical

// Id addresses a Node within one Arena. Ids from different Arenas are not
// comparable.
type Id int32

// Arena owns a set of Nodes and their input edges, indexed rather than
// pointer-linked so Copy and structural rewrites never need to chase or
// rewrite parent back-references.
type Arena struct {
	nodes  []Node
	inputs [][]Id
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add inserts n with the given input ids and returns its freshly minted Id.
func (a *Arena) Add(n Node, inputs ...Id) Id {
	id := Id(len(a.nodes))
	a.nodes = append(a.nodes, n)
	a.inputs = append(a.inputs, append([]Id(nil), inputs...))
	return id
}

// Node returns the node registered at id.
func (a *Arena) Node(id Id) Node { return a.nodes[id] }

// Inputs returns the input ids of the node at id, in order.
func (a *Arena) Inputs(id Id) []Id { return a.inputs[id] }

// Replace swaps the node and input edges registered at id in place, used
// by the planner engine to re-root a subtree after a rule rewrites it
// without disturbing any ancestor's edge list.
func (a *Arena) Replace(id Id, n Node, inputs ...Id) {
	a.nodes[id] = n
	a.inputs[id] = append([]Id(nil), inputs...)
}

// Clone returns a structural copy of the subtree rooted at id, detached
// from a. Each node is copied via its own Copy; sharing within the
// subtree is preserved.
func (a *Arena) Clone(id Id) (*Arena, Id) {
	out := NewArena()
	var walk func(Id) Id
	seen := make(map[Id]Id)
	walk = func(src Id) Id {
		if dst, ok := seen[src]; ok {
			return dst
		}
		childInputs := a.Inputs(src)
		newInputs := make([]Id, len(childInputs))
		for i, c := range childInputs {
			newInputs[i] = walk(c)
		}
		dst := out.Add(a.Node(src).Copy(), newInputs...)
		seen[src] = dst
		return dst
	}
	return out, walk(id)
}
