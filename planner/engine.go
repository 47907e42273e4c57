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

// Package planner implements Cottontail's rewrite-rule engine: a
// depth-first walk over a physical.Arena that tries each registered
// RewriteRule, in priority order, against every node, re-rooting the
// subtree in place whenever a rule fires. Rules operate against an arena
// of ids rather than a pointer tree, so a substitution never needs to
// chase or patch parent back-references.
package planner

import (
	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"github.com/cottontaildb/cottontail/binding"
	"github.com/cottontaildb/cottontail/catalog"
	"github.com/cottontaildb/cottontail/cost"
	"github.com/cottontaildb/cottontail/function"
	"github.com/cottontaildb/cottontail/internal/errkind"
	"github.com/cottontaildb/cottontail/internal/log"
	"github.com/cottontaildb/cottontail/plan/physical"
)

// RuleContext carries the collaborators a RewriteRule may consult: schema
// and statistics (Catalog), function overload resolution (Functions), the
// query's late-binding namespace (Bindings), and the planner parameters
// (SessionVars) a cost-sensitive rule like SIMDRule needs. Metrics may be
// nil; every cost.Metrics method is nil-safe.
type RuleContext struct {
	Catalog     *catalog.Catalog
	Functions   *function.Registry
	Bindings    *binding.BindingContext
	SessionVars *cost.SessionVars
	Metrics     *cost.Metrics
}

// RewriteRule is one optimization the engine may apply to a physical
// node. CanBeApplied must be side-effect-free so the engine can probe it
// repeatedly without committing to a rewrite. Apply mutates a in place
// via a.Replace and reports whether it actually rewrote anything;
// returning false without an error is not a failure, letting a rule
// change its mind between CanBeApplied and Apply (e.g. a concurrent
// catalog refresh invalidating an index candidate) without aborting the
// whole plan.
type RewriteRule interface {
	// Name identifies this rule for metrics and logging.
	Name() string
	// CanBeApplied reports whether this rule might rewrite the node at id.
	CanBeApplied(a *physical.Arena, id physical.Id, ctx *RuleContext) bool
	// Apply attempts the rewrite, mutating a via a.Replace(id, ...) when
	// it succeeds. A returned error is a planner bug and aborts planning
	// for the whole query.
	Apply(a *physical.Arena, id physical.Id, ctx *RuleContext) (bool, error)
}

// maxIterationsPerNode bounds how many times the engine will re-scan the
// rule list against one node before concluding the rule set is not
// converging. Rules must be monotone and cycle-free; a correctly written
// rule set converges in one or two passes, so this is a backstop against
// a rule bug, not a tuning knob.
const maxIterationsPerNode = 16

// Engine holds an ordered rule catalogue and drives the depth-first
// rewrite walk.
type Engine struct {
	rules   []RewriteRule
	metrics *cost.Metrics
}

// NewEngine builds an Engine trying rules in the given priority order.
func NewEngine(metrics *cost.Metrics, rules ...RewriteRule) *Engine {
	return &Engine{rules: rules, metrics: metrics}
}

// Optimize rewrites every node reachable from root, children before
// parents, so a parent rule always observes its children's final shape
// (e.g. CountPushdownRule matching Projection-over-EntityScan only once
// the scan itself is already in its final form).
func (e *Engine) Optimize(a *physical.Arena, root physical.Id, ctx *RuleContext) error {
	visited := make(map[physical.Id]bool)
	var walk func(id physical.Id) error
	walk = func(id physical.Id) error {
		if visited[id] {
			return nil
		}
		visited[id] = true
		for _, child := range a.Inputs(id) {
			if err := walk(child); err != nil {
				return err
			}
		}
		return e.rewriteNode(a, id, ctx)
	}
	return walk(root)
}

func (e *Engine) rewriteNode(a *physical.Arena, id physical.Id, ctx *RuleContext) error {
	for i := 0; i < maxIterationsPerNode; i++ {
		applied := false
		for _, rule := range e.rules {
			if !rule.CanBeApplied(a, id, ctx) {
				continue
			}
			ok, err := rule.Apply(a, id, ctx)
			if err != nil {
				return errors.Trace(err)
			}
			if !ok {
				continue
			}
			e.metrics.ObserveRewrite(rule.Name())
			log.Component("planner").Debug("rule applied", zap.String("rule", rule.Name()), zap.Int32("node", int32(id)))
			applied = true
			break
		}
		if !applied {
			return nil
		}
	}
	return errors.Trace(errkind.Newf(errkind.Planner, "planner: rewrite rules did not converge on node %d within %d iterations", id, maxIterationsPerNode))
}
