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

// Package errkind classifies errors: every user-visible error carries a
// stable Kind plus a message, and optionally the TupleId of the row that
// caused it.
package errkind

import (
	"fmt"

	"github.com/pingcap/errors"
)

// Kind is a stable, user-visible error classification.
type Kind int

const (
	// Unknown is never returned deliberately; its presence in a log means
	// an error crossed a component boundary without being classified.
	Unknown Kind = iota
	// QuerySyntax covers malformed input, unresolvable names, invalid k in
	// kNN (k <= 0), and ambiguous function overloads.
	QuerySyntax
	// QueryBinding covers binding a value of the wrong type at execution time.
	QueryBinding
	// Tx covers operations against a closed/errored transaction and lock
	// acquisition failures.
	Tx
	// Storage covers cursor I/O failure.
	Storage
	// Planner covers rewrite rule bugs and non-terminating rewrites.
	Planner
)

func (k Kind) String() string {
	switch k {
	case QuerySyntax:
		return "QuerySyntax"
	case QueryBinding:
		return "QueryBinding"
	case Tx:
		return "Tx"
	case Storage:
		return "Storage"
	case Planner:
		return "Planner"
	default:
		return "Unknown"
	}
}

// Error is the error type every component in this module returns across a
// package boundary. TupleID is the zero value when the error isn't
// attributable to a specific row.
type Error struct {
	Kind    Kind
	TupleID int64
	hasRow  bool
	cause   error
}

func (e *Error) Error() string {
	if e.hasRow {
		return fmt.Sprintf("%s: %v (tuple %d)", e.Kind, e.cause, e.TupleID)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.cause)
}

// Unwrap lets errors.Is/errors.As from the standard library and from
// github.com/pingcap/errors see through to the underlying cause.
func (e *Error) Unwrap() error { return e.cause }

// New classifies a cause under the given kind, tracing it before it
// leaves the package.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: errors.Trace(cause)}
}

// Newf builds a classified error from a format string.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}

// WithTuple attaches the offending row's TupleId to a classified error.
func WithTuple(kind Kind, tupleID int64, cause error) *Error {
	return &Error{Kind: kind, TupleID: tupleID, hasRow: true, cause: errors.Trace(cause)}
}

// Is reports whether err is a classified *Error of the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == kind
		}
		err = errors.Unwrap(err)
	}
	return false
}
