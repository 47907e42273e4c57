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

// Package txn implements the transaction/cursor contract operators
// depend on: the Tx lifecycle state machine, the per-context
// mutual-exclusion guard, and the narrow cursor interfaces the storage
// layer implements.
package txn

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pingcap/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/cottontaildb/cottontail/internal/errkind"
	"github.com/cottontaildb/cottontail/internal/log"
)

// State is a Transaction's lifecycle stage: CLEAN -> DIRTY ->
// (COMMIT | ERROR) -> CLOSED. Only CLOSED is final.
type State int32

const (
	StateClean State = iota
	StateDirty
	StateCommit
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "CLEAN"
	case StateDirty:
		return "DIRTY"
	case StateCommit:
		return "COMMIT"
	case StateError:
		return "ERROR"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// reentrantGuard is a mutual-exclusion guard that the same owner token
// may re-enter without deadlocking. Cross-context concurrency is the
// lock manager's job; this guard only serializes callers that share one
// TransactionContext.
type reentrantGuard struct {
	sem chan struct{}

	// mu protects holder/depth; the re-entry fast path reads them from
	// goroutines that do not hold sem yet.
	mu     sync.Mutex
	holder uuid.UUID
	depth  int
}

func newReentrantGuard() *reentrantGuard {
	return &reentrantGuard{sem: make(chan struct{}, 1)}
}

// lock acquires the guard for owner, blocking only if a different owner
// currently holds it.
func (g *reentrantGuard) lock(owner uuid.UUID) {
	g.mu.Lock()
	if g.depth > 0 && g.holder == owner {
		g.depth++
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	g.sem <- struct{}{}
	g.mu.Lock()
	g.holder = owner
	g.depth = 1
	g.mu.Unlock()
}

// unlock releases one level of ownership, waking the next waiter once
// depth reaches zero.
func (g *reentrantGuard) unlock(owner uuid.UUID) {
	g.mu.Lock()
	if g.holder != owner || g.depth == 0 {
		g.mu.Unlock()
		panic("txn: unlock called without holding the guard")
	}
	g.depth--
	release := g.depth == 0
	if release {
		g.holder = uuid.Nil
	}
	g.mu.Unlock()
	if release {
		<-g.sem
	}
}

// TransactionContext is the shared state an operator tree's transaction
// attaches to. It holds only the per-transaction cancellation token
// operators poll at emit boundaries; it holds no lock-manager handles.
type TransactionContext struct {
	cancelled atomic.Bool
}

// NewTransactionContext creates a fresh, non-cancelled context.
func NewTransactionContext() *TransactionContext {
	return &TransactionContext{}
}

// Cancel requests cooperative cancellation. Operators observe this at
// their next emit boundary.
func (c *TransactionContext) Cancel() { c.cancelled.Store(true) }

// Cancelled reports whether cancellation has been requested.
func (c *TransactionContext) Cancelled() bool { return c.cancelled.Load() }

// AbstractTx wraps a TransactionContext and drives the Tx state machine:
// onCommit/onRollback hooks, guarded by a re-entrant mutual
// exclusion lock so that multiple threads sharing this context serialize
// on it.
type AbstractTx struct {
	ctx   *TransactionContext
	state atomic.Int32
	guard *reentrantGuard
}

// NewAbstractTx wraps ctx in a fresh Tx starting in state CLEAN.
func NewAbstractTx(ctx *TransactionContext) *AbstractTx {
	tx := &AbstractTx{ctx: ctx, guard: newReentrantGuard()}
	tx.state.Store(int32(StateClean))
	return tx
}

// Context returns the shared TransactionContext.
func (tx *AbstractTx) Context() *TransactionContext { return tx.ctx }

// State returns the current lifecycle stage.
func (tx *AbstractTx) State() State { return State(tx.state.Load()) }

// Enter acquires the Tx's mutual-exclusion guard on behalf of owner,
// failing fast if the Tx is already CLOSED or ERROR: no operation
// succeeds against a CLOSED or ERROR transaction.
func (tx *AbstractTx) Enter(owner uuid.UUID) error {
	s := tx.State()
	if s == StateClosed {
		return errors.Trace(errkind.Newf(errkind.Tx, "txn: operation against a closed transaction"))
	}
	if s == StateError {
		return errors.Trace(errkind.Newf(errkind.Tx, "txn: operation against an errored transaction"))
	}
	tx.guard.lock(owner)
	return nil
}

// Leave releases the guard acquired by Enter. The latch is re-entered
// per operation, never held across a suspension point.
func (tx *AbstractTx) Leave(owner uuid.UUID) {
	tx.guard.unlock(owner)
}

// MarkDirty transitions CLEAN -> DIRTY on first mutation. It is a no-op
// if already DIRTY, and an error against ERROR/CLOSED transactions. The
// CLEAN -> DIRTY transition is one-way within the Tx's life.
func (tx *AbstractTx) MarkDirty(owner uuid.UUID) error {
	if err := tx.Enter(owner); err != nil {
		return err
	}
	defer tx.Leave(owner)

	switch tx.State() {
	case StateClean:
		tx.state.Store(int32(StateDirty))
	case StateDirty:
		// already dirty, nothing to do
	default:
		return errors.Trace(errkind.Newf(errkind.Tx, "txn: cannot mark dirty from state %s", tx.State()))
	}
	return nil
}

// MarkError transitions the Tx to ERROR on an execution-time failure:
// all subsequent operations fail until Close/Rollback.
func (tx *AbstractTx) MarkError(owner uuid.UUID, cause error) error {
	if err := tx.Enter(owner); err != nil {
		return err
	}
	defer tx.Leave(owner)

	if tx.State() == StateClosed {
		return errors.Trace(errkind.Newf(errkind.Tx, "txn: cannot error a closed transaction"))
	}
	tx.state.Store(int32(StateError))
	log.Component("txn").Warn("transaction entered ERROR state", zap.Error(cause))
	return nil
}

// Commit runs onCommit, then transitions to CLOSED. Commit on an ERROR or
// CLOSED transaction fails.
func (tx *AbstractTx) Commit(owner uuid.UUID, onCommit func() error) error {
	if err := tx.Enter(owner); err != nil {
		return err
	}
	defer tx.Leave(owner)

	switch tx.State() {
	case StateError:
		return errors.Trace(errkind.Newf(errkind.Tx, "txn: cannot commit an errored transaction"))
	case StateClosed:
		return errors.Trace(errkind.Newf(errkind.Tx, "txn: transaction already closed"))
	}
	if onCommit != nil {
		if err := onCommit(); err != nil {
			tx.state.Store(int32(StateError))
			return errors.Trace(err)
		}
	}
	tx.state.Store(int32(StateCommit))
	tx.state.Store(int32(StateClosed))
	return nil
}

// Rollback runs onRollback, then transitions to CLOSED regardless of the
// Tx's prior state (rollback is always legal against a non-closed Tx).
func (tx *AbstractTx) Rollback(owner uuid.UUID, onRollback func() error) error {
	if tx.State() == StateClosed {
		return errors.Trace(errkind.Newf(errkind.Tx, "txn: transaction already closed"))
	}
	tx.guard.lock(owner)
	defer tx.guard.unlock(owner)

	var err error
	if onRollback != nil {
		err = onRollback()
	}
	tx.state.Store(int32(StateClosed))
	return errors.Trace(err)
}
