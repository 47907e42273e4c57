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

// Package exec implements Cottontail's runtime operator graph: a
// pull-pipeline of operators streaming Records over cursors through an
// Open/Next/Close contract, one record per pull so that suspension
// happens at record boundaries rather than batch boundaries.
package exec

import (
	"context"

	"github.com/cottontaildb/cottontail/value"
)

// Record is the unit this graph streams; an alias rather than a new type
// since a runtime operator's output is exactly a value.Record; no
// execution-only fields are added on top of it.
type Record = value.Record

// Operator is the runtime pull contract every node in the graph
// satisfies. Next returns (record, true, nil) while more output remains,
// (zero, false, nil) at exhaustion, or a non-nil error.
type Operator interface {
	// Open acquires whatever cursor/state this operator needs.
	Open(ctx context.Context) error
	// Next advances to the next output record. Operators holding an
	// exec.Context check the per-transaction cancellation token at this
	// emit boundary; the merge operators hold none and do not.
	Next(ctx context.Context) (Record, bool, error)
	// Close releases cursor resources. Closing twice is a no-op.
	Close() error
}

// SourceOperator marks a nullary operator with no parent, emitting
// directly from a cursor or generator.
type SourceOperator interface {
	Operator
	isSource()
}

// PipelineOperator marks a unary operator with one parent.
// Breaker reports whether this operator must materialize its entire
// input before emitting its first output record (sort, hash).
type PipelineOperator interface {
	Operator
	Breaker() bool
}

// MergeOperator marks an NAry operator reading multiple strands
// concurrently.
type MergeOperator interface {
	Operator
	StrandCount() int
}
