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

package planner

import (
	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"github.com/cottontaildb/cottontail/exec"
	"github.com/cottontaildb/cottontail/internal/errkind"
	"github.com/cottontaildb/cottontail/internal/log"
	"github.com/cottontaildb/cottontail/plan/logical"
	"github.com/cottontaildb/cottontail/plan/physical"
)

// Lower lowers the logical subtree rooted at root into a fresh physical
// arena through each node's canonical Implement, children first. Shared
// subtrees (a DAG node reachable through more than one parent) lower
// once and are re-linked, preserving the source's sharing structure.
func Lower(src *logical.Arena, root logical.Id) (*physical.Arena, physical.Id) {
	dst := physical.NewArena()
	memo := make(map[logical.Id]physical.Id)
	var walk func(logical.Id) physical.Id
	walk = func(id logical.Id) physical.Id {
		if d, ok := memo[id]; ok {
			return d
		}
		childIDs := src.Inputs(id)
		children := make([]physical.Id, len(childIDs))
		for i, c := range childIDs {
			children[i] = walk(c)
		}
		d := src.Node(id).Implement(dst, children)
		memo[id] = d
		return d
	}
	return dst, walk(root)
}

// validate rejects queries planning must never accept: a non-executable
// subtree (unresolvable name, unbound function) and a kNN predicate with
// k <= 0. Validation failures leave the transaction's state untouched;
// the query is simply rejected.
func validate(src *logical.Arena, root logical.Id) error {
	var walk func(logical.Id) error
	walk = func(id logical.Id) error {
		node := src.Node(id)
		if sel, ok := node.(*logical.SelectionLogicalOperatorNode); ok {
			if knn, ok := sel.Predicate.(logical.KnnPredicate); ok && knn.K <= 0 {
				return errors.Trace(errkind.Newf(errkind.QuerySyntax, "planner: invalid k in kNN predicate on %s: %d", knn.Column.Name, knn.K))
			}
		}
		for _, child := range src.Inputs(id) {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return err
	}
	if !src.Node(root).Executable() {
		return errors.Trace(errkind.Newf(errkind.QuerySyntax, "planner: plan root %s is not executable", src.Node(root).Type()))
	}
	return nil
}

// Plan runs the full planning pipeline: validate the logical DAG, lower
// it 1:1 to a physical DAG, rewrite the physical DAG through this
// engine's rule catalogue, and record the selected plan's score. The
// returned arena/root are ready for BuildPipeline.
func (e *Engine) Plan(src *logical.Arena, root logical.Id, ctx *RuleContext) (*physical.Arena, physical.Id, error) {
	if err := validate(src, root); err != nil {
		return nil, 0, err
	}
	a, proot := Lower(src, root)
	if err := e.Optimize(a, proot, ctx); err != nil {
		return nil, 0, err
	}
	score := physical.Score(a, proot, ctx.SessionVars)
	e.metrics.ObservePlanScore(score)
	log.Component("planner").Debug("plan selected",
		zap.String("root", a.Node(proot).Type()), zap.Float64("score", score))
	return a, proot, nil
}

// BuildPipeline instantiates the physical subtree rooted at root as a
// runtime operator tree, children first, and freezes the query's binding
// context so no rebinding can happen once execution starts. The caller drives
// the returned root operator's Open/Next/Close loop; its output schema is
// the root node's Columns.
func BuildPipeline(a *physical.Arena, root physical.Id, ectx *exec.Context) (exec.Operator, error) {
	var build func(physical.Id) (exec.Operator, error)
	build = func(id physical.Id) (exec.Operator, error) {
		childIDs := a.Inputs(id)
		children := make([]exec.Operator, len(childIDs))
		for i, c := range childIDs {
			op, err := build(c)
			if err != nil {
				return nil, err
			}
			children[i] = op
		}
		op, err := a.Node(id).ToOperator(ectx, children)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return op, nil
	}
	op, err := build(root)
	if err != nil {
		return nil, err
	}
	ectx.Bindings.Freeze()
	return op, nil
}
