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

package txn

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachineCleanToDirtyIsOneWay(t *testing.T) {
	owner := uuid.New()
	tx := NewAbstractTx(NewTransactionContext())
	assert.Equal(t, StateClean, tx.State())

	require.NoError(t, tx.MarkDirty(owner))
	assert.Equal(t, StateDirty, tx.State())

	// idempotent once dirty
	require.NoError(t, tx.MarkDirty(owner))
	assert.Equal(t, StateDirty, tx.State())
}

func TestCommitClosesTransaction(t *testing.T) {
	owner := uuid.New()
	tx := NewAbstractTx(NewTransactionContext())
	require.NoError(t, tx.MarkDirty(owner))

	ran := false
	require.NoError(t, tx.Commit(owner, func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	assert.Equal(t, StateClosed, tx.State())
}

func TestCommitFailureEntersErrorState(t *testing.T) {
	owner := uuid.New()
	tx := NewAbstractTx(NewTransactionContext())
	require.NoError(t, tx.MarkDirty(owner))

	err := tx.Commit(owner, func() error { return assert.AnError })
	require.Error(t, err)
	assert.Equal(t, StateError, tx.State())
}

func TestOperationsFailOnClosedOrErrorTransaction(t *testing.T) {
	owner := uuid.New()

	closed := NewAbstractTx(NewTransactionContext())
	require.NoError(t, closed.Commit(owner, nil))
	assert.Error(t, closed.MarkDirty(owner))
	assert.Error(t, closed.Commit(owner, nil))

	errored := NewAbstractTx(NewTransactionContext())
	require.NoError(t, errored.MarkError(owner, assert.AnError))
	assert.Error(t, errored.MarkDirty(owner))
	assert.Error(t, errored.Commit(owner, nil))

	// Rollback is always legal against a non-closed transaction, even one
	// already in ERROR.
	assert.NoError(t, errored.Rollback(owner, nil))
	assert.Equal(t, StateClosed, errored.State())
}

func TestRollbackAlwaysClosesRegardlessOfPriorState(t *testing.T) {
	owner := uuid.New()
	tx := NewAbstractTx(NewTransactionContext())

	ran := false
	require.NoError(t, tx.Rollback(owner, func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	assert.Equal(t, StateClosed, tx.State())

	// Rollback on an already-closed transaction fails.
	assert.Error(t, tx.Rollback(owner, nil))
}

func TestReentrantGuardAllowsSameOwnerReentry(t *testing.T) {
	owner := uuid.New()
	tx := NewAbstractTx(NewTransactionContext())

	require.NoError(t, tx.Enter(owner))
	require.NoError(t, tx.Enter(owner))
	tx.Leave(owner)
	tx.Leave(owner)
}

func TestReentrantGuardBlocksDifferentOwner(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	tx := NewAbstractTx(NewTransactionContext())

	require.NoError(t, tx.Enter(a))

	var wg sync.WaitGroup
	entered := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, tx.Enter(b))
		close(entered)
		tx.Leave(b)
	}()

	select {
	case <-entered:
		t.Fatal("owner b entered while owner a still held the guard")
	case <-time.After(20 * time.Millisecond):
	}

	tx.Leave(a)
	wg.Wait()
}

func TestUnlockByNonHolderPanics(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	tx := NewAbstractTx(NewTransactionContext())
	require.NoError(t, tx.Enter(a))
	assert.Panics(t, func() { tx.Leave(b) })
}

func TestTransactionContextCancellationIsCooperative(t *testing.T) {
	ctx := NewTransactionContext()
	assert.False(t, ctx.Cancelled())
	ctx.Cancel()
	assert.True(t, ctx.Cancelled())
}
