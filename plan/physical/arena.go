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

// Package physical implements Cottontail's costed operator DAG: the
// physical lowering of plan/logical, carrying output-size estimates,
// atomic cost, traits, and partitioning. Like plan/logical it is
// arena-addressed rather than pointer-linked, so the planner can re-root
// a rewritten subtree (e.g. substituting a vectorized function node)
// without chasing parent back-references.
package physical

// Id addresses a Node within one Arena.
type Id int32

// Arena owns a set of physical Nodes and their input edges.
type Arena struct {
	nodes  []Node
	inputs [][]Id
}

// NewArena creates an empty arena.
func NewArena() *Arena { return &Arena{} }

// Add inserts n with the given input ids and returns its Id.
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

// Replace re-roots id to a new node/input set, used when a rewrite rule
// substitutes a node in place (e.g. SIMDRule's vectorized substitution).
func (a *Arena) Replace(id Id, n Node, inputs ...Id) {
	a.nodes[id] = n
	a.inputs[id] = append([]Id(nil), inputs...)
}
