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

package txn

import (
	"github.com/cottontaildb/cottontail/value"
)

// Cursor is a stateful iterator over T, keyed by TupleId: MoveNext
// advances, separate accessors read the current element.
//
// Invariant: Key/Value are defined only after a MoveNext that returned
// true, and before Close.
type Cursor[T any] interface {
	// MoveNext advances the cursor, returning false at end.
	MoveNext() (bool, error)
	// Key returns the current element's TupleId.
	Key() value.TupleId
	// Value returns the current element.
	Value() T
	// Close releases cursor resources. Closing twice is a no-op.
	Close() error
}

// Predicate is the narrow boolean/kNN condition interface index cursors
// filter by. Concrete predicate shapes (equality, range, kNN) live in
// the plan packages; txn only needs to know a Predicate can be asked
// whether it matches, without caring what kind it is.
type Predicate interface {
	// Digest returns a deterministic structural hash, used for rewrite
	// caching and plan equivalence checks. It must never depend on
	// reference identity: two structurally identical predicates digest
	// the same across processes.
	Digest() uint64
	// Matches evaluates the predicate against rec, used both by
	// SelectionOperator (full scan + filter) and by index implementations
	// deciding which rows satisfy a pushed-down predicate.
	Matches(rec value.Record) (bool, error)
}

// EntityTx is the narrow storage collaborator operators depend on: count
// and scan a fixed-schema row set. On-disk layout and concrete locking
// live behind this seam.
type EntityTx interface {
	// Count returns the current row count visible to this Tx.
	Count() (int64, error)
	// Cursor opens a Record cursor restricted to the given columns.
	Cursor(columns []value.ColumnDef) (Cursor[value.Record], error)
	// Delete marks id deleted within this Tx, returning whether a row was
	// actually removed. A repeat delete of the same id is legal and
	// removes zero rows.
	Delete(id value.TupleId) (bool, error)
}

// IndexTx is the narrow secondary-structure collaborator operators
// consume for predicate-accelerated access.
type IndexTx interface {
	// Filter returns an iterable of records matching pred.
	Filter(pred Predicate) (Cursor[value.Record], error)
	// FilterRange restricts Filter to the partition-th of partitions
	// disjoint slices of the index, for parallel partitioned scans.
	FilterRange(pred Predicate, partition, partitions int) (Cursor[value.Record], error)
}

// LockMode is inferred from operator intent (read-only scan vs. mutating
// operator) and passed to the external lock manager at Tx-open time.
// Lock manager internals and deadlock resolution live behind that
// boundary.
type LockMode int

const (
	LockShared LockMode = iota
	LockExclusive
)
