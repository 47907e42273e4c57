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

package exec

import (
	"github.com/google/uuid"
	"github.com/pingcap/errors"

	"github.com/cottontaildb/cottontail/binding"
	"github.com/cottontaildb/cottontail/cost"
	"github.com/cottontaildb/cottontail/function"
	"github.com/cottontaildb/cottontail/internal/errkind"
	"github.com/cottontaildb/cottontail/txn"
)

// Context bundles everything a runtime operator needs to open cursors,
// resolve bindings, and invoke functions. It is shared by an entire
// operator tree, scoped to one query's execution.
type Context struct {
	Tx        *txn.AbstractTx
	TxContext *txn.TransactionContext
	Owner     uuid.UUID

	Bindings  *binding.BindingContext
	Functions *function.Registry
	Vars      *cost.SessionVars

	entities map[string]txn.EntityTx
	indices  map[string]txn.IndexTx
}

// NewContext builds a runtime Context over an already-open transaction.
func NewContext(tx *txn.AbstractTx, owner uuid.UUID, bindings *binding.BindingContext, functions *function.Registry, vars *cost.SessionVars) *Context {
	return &Context{
		Tx:        tx,
		TxContext: tx.Context(),
		Owner:     owner,
		Bindings:  bindings,
		Functions: functions,
		Vars:      vars,
		entities:  make(map[string]txn.EntityTx),
		indices:   make(map[string]txn.IndexTx),
	}
}

// BindEntity registers the EntityTx handle backing entity, resolved by the
// planner/catalog before execution begins.
func (c *Context) BindEntity(entity string, h txn.EntityTx) { c.entities[entity] = h }

// BindIndex registers the IndexTx handle backing an index on entity.
func (c *Context) BindIndex(name string, h txn.IndexTx) { c.indices[name] = h }

// Entity resolves an EntityTx handle bound under BindEntity.
func (c *Context) Entity(entity string) (txn.EntityTx, error) {
	if h, ok := c.entities[entity]; ok {
		return h, nil
	}
	return nil, errors.Trace(errkind.Newf(errkind.Storage, "exec: no EntityTx bound for %q", entity))
}

// Index resolves an IndexTx handle bound under BindIndex.
func (c *Context) Index(name string) (txn.IndexTx, error) {
	if h, ok := c.indices[name]; ok {
		return h, nil
	}
	return nil, errors.Trace(errkind.Newf(errkind.Storage, "exec: no IndexTx bound for %q", name))
}

// WithBindings returns a shallow copy of c with a different
// BindingContext, used at merge boundaries where each strand carries its
// own binding context.
func (c *Context) WithBindings(b *binding.BindingContext) *Context {
	clone := *c
	clone.Bindings = b
	return &clone
}

// Cancelled checks the per-transaction cooperative cancellation token.
// Every operator holding a Context calls this at its emit boundary.
// UnorderedMergeOperator and MergeLimitingHeapSortOperator hold no Context
// and do not check it themselves; only their strand operators do.
func (c *Context) Cancelled() bool { return c.TxContext.Cancelled() }

// checkCancelled returns a classified error if cancellation was requested,
// the common guard every Next implementation in this package opens with.
func (c *Context) checkCancelled() error {
	if c.Cancelled() {
		return errors.Trace(errkind.Newf(errkind.Storage, "exec: operation cancelled"))
	}
	return nil
}
