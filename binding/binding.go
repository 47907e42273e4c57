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

// Package binding implements Cottontail's late-binding mechanism: a
// Binding is a reference to a value or column that is resolved against a
// BindingContext, which stays mutable until execution starts and is
// frozen thereafter.
package binding

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pingcap/errors"

	"github.com/cottontaildb/cottontail/internal/errkind"
	"github.com/cottontaildb/cottontail/value"
)

// Id identifies a Binding within a single BindingContext. It is only
// unique within the context that minted it.
type Id int64

// Kind tags which variant a Binding is.
type Kind uint8

const (
	// KindLiteral is a static value fixed at bind time.
	KindLiteral Kind = iota
	// KindColumn is resolved per-record from the current record.
	KindColumn
	// KindFunction is derived by invoking a function against other bindings.
	KindFunction
)

// Binding is a late-bound reference to a value or column. Rebinding is
// legal only before execution starts (BindingContext.Freeze).
type Binding struct {
	ID   Id
	Kind Kind

	// Literal is populated when Kind == KindLiteral.
	Literal value.Value
	// Column is populated when Kind == KindColumn.
	Column value.ColumnDef
	// FunctionName and Args are populated when Kind == KindFunction; Args
	// are themselves Binding Ids resolved against the same context.
	FunctionName string
	Args         []Id
}

// BindingContext is a per-query map (Id -> Binding) kept mutable until
// execution starts and frozen thereafter: a namespace for column/value
// identity plus a query-scoped id allocator.
type BindingContext struct {
	// queryID fingerprints this context; predicate digests fold this in
	// instead of a reference hash so they stay stable across processes.
	queryID uuid.UUID

	next     int64
	bindings map[Id]*Binding
	frozen   bool
}

// NewBindingContext creates an empty, mutable context with a fresh
// query-scoped fingerprint.
func NewBindingContext() *BindingContext {
	return &BindingContext{
		queryID:  uuid.New(),
		bindings: make(map[Id]*Binding),
	}
}

// QueryID returns the context's stable fingerprint, used to build a
// deterministic structural hash for predicates bound against it.
func (c *BindingContext) QueryID() uuid.UUID { return c.queryID }

// alloc mints a fresh Id scoped to this context.
func (c *BindingContext) alloc() Id {
	return Id(atomic.AddInt64(&c.next, 1) - 1)
}

// BindLiteral registers a static value and returns its Id.
func (c *BindingContext) BindLiteral(v value.Value) (Id, error) {
	if c.frozen {
		return 0, errors.Trace(errkind.Newf(errkind.QueryBinding, "binding: cannot bind literal after freeze"))
	}
	id := c.alloc()
	c.bindings[id] = &Binding{ID: id, Kind: KindLiteral, Literal: v}
	return id, nil
}

// BindColumn registers a per-record column reference and returns its Id.
func (c *BindingContext) BindColumn(col value.ColumnDef) (Id, error) {
	if c.frozen {
		return 0, errors.Trace(errkind.Newf(errkind.QueryBinding, "binding: cannot bind column after freeze"))
	}
	id := c.alloc()
	c.bindings[id] = &Binding{ID: id, Kind: KindColumn, Column: col}
	return id, nil
}

// BindFunction registers a derived binding over other binding ids.
func (c *BindingContext) BindFunction(name string, args ...Id) (Id, error) {
	if c.frozen {
		return 0, errors.Trace(errkind.Newf(errkind.QueryBinding, "binding: cannot bind function after freeze"))
	}
	id := c.alloc()
	c.bindings[id] = &Binding{ID: id, Kind: KindFunction, FunctionName: name, Args: append([]Id(nil), args...)}
	return id, nil
}

// Rebind replaces the Binding at id. Only legal before Freeze.
func (c *BindingContext) Rebind(id Id, b Binding) error {
	if c.frozen {
		return errors.Trace(errkind.Newf(errkind.QueryBinding, "binding: cannot rebind %d after freeze", id))
	}
	if _, ok := c.bindings[id]; !ok {
		return errors.Trace(errkind.Newf(errkind.QueryBinding, "binding: unknown binding id %d", id))
	}
	b.ID = id
	c.bindings[id] = &b
	return nil
}

// Lookup returns the Binding registered at id.
func (c *BindingContext) Lookup(id Id) (*Binding, error) {
	b, ok := c.bindings[id]
	if !ok {
		return nil, errors.Trace(errkind.Newf(errkind.QueryBinding, "binding: unknown binding id %d", id))
	}
	return b, nil
}

// Freeze forbids further Bind*/Rebind calls. Execution may only begin
// after Freeze.
func (c *BindingContext) Freeze() { c.frozen = true }

// Frozen reports whether the context has been frozen.
func (c *BindingContext) Frozen() bool { return c.frozen }

// Resolve evaluates the binding at id against the current record.
// KindFunction arguments are resolved recursively here and then passed to
// invokeFn, a function invocation callback supplied by the caller (the
// exec package, which knows how to call into the function registry).
// Literal and Column bindings are resolved directly here.
func (c *BindingContext) Resolve(id Id, rec value.Record, invokeFn func(name string, args []value.Value) (value.Value, error)) (value.Value, error) {
	b, err := c.Lookup(id)
	if err != nil {
		return nil, err
	}
	switch b.Kind {
	case KindLiteral:
		return b.Literal, nil
	case KindColumn:
		v, ok := rec.Get(b.Column)
		if !ok {
			return nil, errors.Trace(errkind.Newf(errkind.QueryBinding, "binding: record missing column %s", b.Column.Name))
		}
		return v, nil
	case KindFunction:
		args := make([]value.Value, len(b.Args))
		for i, argID := range b.Args {
			v, err := c.Resolve(argID, rec, invokeFn)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		if invokeFn == nil {
			return nil, errors.Trace(errkind.Newf(errkind.QueryBinding, "binding: no invoker supplied for function binding %s", b.FunctionName))
		}
		return invokeFn(b.FunctionName, args)
	default:
		return nil, errors.Trace(errkind.Newf(errkind.QueryBinding, "binding: unknown binding kind for id %d", id))
	}
}

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "Literal"
	case KindColumn:
		return "Column"
	case KindFunction:
		return "Function"
	default:
		return "Unknown"
	}
}

func (b Binding) String() string {
	switch b.Kind {
	case KindLiteral:
		return fmt.Sprintf("Literal(%v)", b.Literal)
	case KindColumn:
		return fmt.Sprintf("Column(%s)", b.Column.Name)
	case KindFunction:
		return fmt.Sprintf("Function(%s, %v)", b.FunctionName, b.Args)
	default:
		return "Binding(?)"
	}
}
