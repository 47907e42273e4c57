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

package physical

import "github.com/cottontaildb/cottontail/cost"

// TotalCost folds OwnCost bottom-up over id's subtree: totalCost = cost
// + sum(child.totalCost). A memo avoids recomputing shared subtrees
// reachable through more than one parent after a rewrite re-roots part
// of the arena.
func TotalCost(a *Arena, id Id, sv *cost.SessionVars) cost.Cost {
	return totalCost(a, id, sv, make(map[Id]cost.Cost))
}

func totalCost(a *Arena, id Id, sv *cost.SessionVars, memo map[Id]cost.Cost) cost.Cost {
	if c, ok := memo[id]; ok {
		return c
	}
	total := a.Node(id).OwnCost(sv)
	for _, child := range a.Inputs(id) {
		total = total.Add(totalCost(a, child, sv, memo))
	}
	memo[id] = total
	return total
}

// ParallelizableCost is the wall-clock counterpart of TotalCost: at an
// NAry node its strands run concurrently, so only the most expensive
// strand is charged, once, rather than summing every strand the way
// TotalCost does for total work. Unary/binary chains accumulate as usual
// since a pull-pipeline strand is single-threaded.
func ParallelizableCost(a *Arena, id Id, sv *cost.SessionVars) cost.Cost {
	n := a.Node(id)
	total := n.OwnCost(sv)
	children := a.Inputs(id)
	if n.Arity() != NAry || len(children) == 0 {
		for _, child := range children {
			total = total.Add(ParallelizableCost(a, child, sv))
		}
		return total
	}
	var worst cost.Cost
	worstScore := -1.0
	for _, child := range children {
		c := ParallelizableCost(a, child, sv)
		if s := sv.Score(c); s > worstScore {
			worst, worstScore = c, s
		}
	}
	return total.Add(worst)
}

// Score reduces id's subtree TotalCost to the single comparable figure
// the rewrite engine ranks candidate plans by.
func Score(a *Arena, id Id, sv *cost.SessionVars) float64 {
	return sv.Score(TotalCost(a, id, sv))
}

// TotalOutputSize estimates the row count id's subtree produces, summing
// an NAry node's children (a merge fans multiple strands back into one)
// and otherwise passing a unary/binary node's own OutputSize through,
// since those already account for their single/paired input's
// selectivity (e.g. SelectionPhysicalOperatorNode.OutputSize already
// folds in its input's cardinality and the predicate's selectivity).
func TotalOutputSize(a *Arena, id Id) int64 {
	n := a.Node(id)
	if n.Arity() != NAry {
		return n.OutputSize()
	}
	var sum int64
	for _, child := range a.Inputs(id) {
		sum += TotalOutputSize(a, child)
	}
	if n.OutputSize() >= 0 && n.OutputSize() < sum {
		return n.OutputSize()
	}
	return sum
}
