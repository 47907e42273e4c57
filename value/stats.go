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

package value

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/pingcap/errors"
)

// DBOVersion tags a persisted statistics/record blob. Readers must
// reject unknown versions rather than attempt to interpret a layout they
// don't recognize.
type DBOVersion uint8

const (
	DBOUndefined DBOVersion = iota
	DBOV1_0
	DBOV2_0
	DBOV3_0
)

// ErrUnknownDBOVersion is returned by DeserializeScalarStatistics and
// DeserializeVectorStatistics when the version tag is not one this build
// understands.
var ErrUnknownDBOVersion = errors.New("value: unknown DBOVersion tag")

const currentDBOVersion = DBOV3_0

// ValueStatistics is the per-column histogram summary the cost model
// consumes: null/non-null counts, average width, and either scalar
// min/max or per-component counts for vector columns. Invariant:
// nulls + non_nulls == total_rows after every committed insert/delete.
type ValueStatistics struct {
	Type Type

	NullCount    int64
	NonNullCount int64
	// AvgWidth is the running average physical width in bytes, the width
	// figure for string columns, whose Type carries no fixed physical size.
	AvgWidth float64

	// Min/Max are populated for scalar numeric/string/date columns.
	Min, Max Value

	// ComponentNonNull holds, for vector columns, a non-null count per
	// dimension, used when vector components themselves may be sparse.
	ComponentNonNull []int64
}

// NewValueStatistics builds an empty statistics summary for t.
func NewValueStatistics(t Type) *ValueStatistics {
	vs := &ValueStatistics{Type: t}
	if t.Kind.IsVector() {
		vs.ComponentNonNull = make([]int64, t.LogicalSize())
	}
	return vs
}

// Insert records the insertion of v (nil meaning SQL NULL) into the
// statistics. It is the only mutator that may transition
// NullCount/NonNullCount; width tracking uses an online running mean.
func (vs *ValueStatistics) Insert(v Value) {
	if v == nil {
		vs.NullCount++
		return
	}
	vs.NonNullCount++
	vs.updateWidth(v)
	vs.updateMinMax(v)
}

// Delete records the removal of v, the inverse of Insert. Like Insert, it
// does not rewind Min/Max: shrinking the known extrema safely requires a
// full rescan, which is the storage layer's business. Callers that need
// exact extrema after heavy deletes should call Reset and rebuild from a
// fresh scan.
func (vs *ValueStatistics) Delete(v Value) {
	if v == nil {
		if vs.NullCount > 0 {
			vs.NullCount--
		}
		return
	}
	if vs.NonNullCount > 0 {
		vs.NonNullCount--
	}
}

func (vs *ValueStatistics) updateWidth(v Value) {
	n := vs.NonNullCount
	if n <= 0 {
		n = 1
	}
	width := float64(vs.Type.PhysicalSize())
	if s, ok := v.(StringValue); ok {
		width = float64(len(s))
	}
	vs.AvgWidth += (width - vs.AvgWidth) / float64(n)
}

func (vs *ValueStatistics) updateMinMax(v Value) {
	if vs.Min == nil || less(v, vs.Min) {
		vs.Min = v
	}
	if vs.Max == nil || less(vs.Max, v) {
		vs.Max = v
	}
}

// less provides a best-effort total order over the scalar kinds
// ValueStatistics tracks extrema for. Vector values have no natural order
// and are never passed here.
func less(a, b Value) bool {
	switch av := a.(type) {
	case IntValue:
		bv, _ := b.(IntValue)
		return av < bv
	case LongValue:
		bv, _ := b.(LongValue)
		return av < bv
	case FloatValue:
		bv, _ := b.(FloatValue)
		return av < bv
	case DoubleValue:
		bv, _ := b.(DoubleValue)
		return av < bv
	case StringValue:
		bv, _ := b.(StringValue)
		return av < bv
	case DateValue:
		bv, _ := b.(DateValue)
		return av < bv
	default:
		return false
	}
}

// Reset clears the statistics back to zero, preserving Type.
func (vs *ValueStatistics) Reset() {
	t := vs.Type
	*vs = *NewValueStatistics(t)
}

// Copy returns a deep copy safe to mutate independently.
func (vs *ValueStatistics) Copy() *ValueStatistics {
	out := *vs
	if vs.ComponentNonNull != nil {
		out.ComponentNonNull = append([]int64(nil), vs.ComponentNonNull...)
	}
	return &out
}

// TotalRows returns NullCount + NonNullCount.
func (vs *ValueStatistics) TotalRows() int64 {
	return vs.NullCount + vs.NonNullCount
}

// SerializeScalar writes (version, null_count, non_null_count, min, max)
// as big-endian fields, with min and max each length-prefixed. Only the scalar kinds are
// supported; vector statistics use SerializeVector's per-component
// layout.
func (vs *ValueStatistics) SerializeScalar(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, currentDBOVersion); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.BigEndian, uint64(vs.NullCount)); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.BigEndian, uint64(vs.NonNullCount)); err != nil {
		return errors.Trace(err)
	}
	minBytes, err := encodeScalar(vs.Min)
	if err != nil {
		return errors.Trace(err)
	}
	maxBytes, err := encodeScalar(vs.Max)
	if err != nil {
		return errors.Trace(err)
	}
	if err := writeLengthPrefixed(w, minBytes); err != nil {
		return errors.Trace(err)
	}
	return writeLengthPrefixed(w, maxBytes)
}

// DeserializeScalarStatistics reads back what SerializeScalar wrote.
func DeserializeScalarStatistics(r io.Reader, t Type) (*ValueStatistics, error) {
	var version DBOVersion
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, errors.Trace(err)
	}
	if version == DBOUndefined || version > currentDBOVersion {
		return nil, errors.Trace(ErrUnknownDBOVersion)
	}
	var nulls, nonNulls uint64
	if err := binary.Read(r, binary.BigEndian, &nulls); err != nil {
		return nil, errors.Trace(err)
	}
	if err := binary.Read(r, binary.BigEndian, &nonNulls); err != nil {
		return nil, errors.Trace(err)
	}
	minBytes, err := readLengthPrefixed(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	maxBytes, err := readLengthPrefixed(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	vs := NewValueStatistics(t)
	vs.NullCount = int64(nulls)
	vs.NonNullCount = int64(nonNulls)
	vs.Min, err = decodeScalar(t, minBytes)
	if err != nil {
		return nil, errors.Trace(err)
	}
	vs.Max, err = decodeScalar(t, maxBytes)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return vs, nil
}

// SerializeVector writes (version, null_count, non_null_count, then one
// length-prefixed 64-bit big-endian count per dimension) for vector
// columns.
func (vs *ValueStatistics) SerializeVector(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, currentDBOVersion); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.BigEndian, uint64(vs.NullCount)); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.BigEndian, uint64(vs.NonNullCount)); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.BigEndian, uint64(len(vs.ComponentNonNull))); err != nil {
		return errors.Trace(err)
	}
	for _, c := range vs.ComponentNonNull {
		if err := binary.Write(w, binary.BigEndian, uint64(c)); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// DeserializeVectorStatistics reads back what SerializeVector wrote.
func DeserializeVectorStatistics(r io.Reader, t Type) (*ValueStatistics, error) {
	var version DBOVersion
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, errors.Trace(err)
	}
	if version == DBOUndefined || version > currentDBOVersion {
		return nil, errors.Trace(ErrUnknownDBOVersion)
	}
	var nulls, nonNulls, n uint64
	if err := binary.Read(r, binary.BigEndian, &nulls); err != nil {
		return nil, errors.Trace(err)
	}
	if err := binary.Read(r, binary.BigEndian, &nonNulls); err != nil {
		return nil, errors.Trace(err)
	}
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, errors.Trace(err)
	}
	vs := NewValueStatistics(t)
	vs.NullCount = int64(nulls)
	vs.NonNullCount = int64(nonNulls)
	vs.ComponentNonNull = make([]int64, n)
	for i := range vs.ComponentNonNull {
		var c uint64
		if err := binary.Read(r, binary.BigEndian, &c); err != nil {
			return nil, errors.Trace(err)
		}
		vs.ComponentNonNull[i] = int64(c)
	}
	return vs, nil
}

func writeLengthPrefixed(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint64(len(data))); err != nil {
		return errors.Trace(err)
	}
	_, err := w.Write(data)
	return errors.Trace(err)
}

func readLengthPrefixed(r io.Reader) ([]byte, error) {
	var n uint64
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, errors.Trace(err)
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return buf, nil
}

func encodeScalar(v Value) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	switch vv := v.(type) {
	case IntValue:
		_ = binary.Write(&buf, binary.BigEndian, int32(vv))
	case LongValue:
		_ = binary.Write(&buf, binary.BigEndian, int64(vv))
	case FloatValue:
		_ = binary.Write(&buf, binary.BigEndian, math.Float32bits(float32(vv)))
	case DoubleValue:
		_ = binary.Write(&buf, binary.BigEndian, math.Float64bits(float64(vv)))
	case StringValue:
		buf.WriteString(string(vv))
	case DateValue:
		_ = binary.Write(&buf, binary.BigEndian, int64(vv))
	default:
		return nil, errors.Errorf("value: unsupported scalar kind for serialization: %T", v)
	}
	return buf.Bytes(), nil
}

func decodeScalar(t Type, data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r := bytes.NewReader(data)
	switch t.Kind {
	case KindInt:
		var x int32
		if err := binary.Read(r, binary.BigEndian, &x); err != nil {
			return nil, errors.Trace(err)
		}
		return IntValue(x), nil
	case KindLong:
		var x int64
		if err := binary.Read(r, binary.BigEndian, &x); err != nil {
			return nil, errors.Trace(err)
		}
		return LongValue(x), nil
	case KindFloat:
		var x uint32
		if err := binary.Read(r, binary.BigEndian, &x); err != nil {
			return nil, errors.Trace(err)
		}
		return FloatValue(math.Float32frombits(x)), nil
	case KindDouble:
		var x uint64
		if err := binary.Read(r, binary.BigEndian, &x); err != nil {
			return nil, errors.Trace(err)
		}
		return DoubleValue(math.Float64frombits(x)), nil
	case KindString:
		return StringValue(data), nil
	case KindDate:
		var x int64
		if err := binary.Read(r, binary.BigEndian, &x); err != nil {
			return nil, errors.Trace(err)
		}
		return DateValue(x), nil
	default:
		return nil, errors.Errorf("value: unsupported scalar kind for deserialization: %s", t)
	}
}
