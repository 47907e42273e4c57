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

import "github.com/RoaringBitmap/roaring/v2"

// TupleIdSet is a compact, ordered set of TupleIds. The delete path uses
// it to track which rows a transaction has marked deleted without paying
// for a dense bitmap per entity; tuple ids are sparse and monotone, the
// shape roaring compresses well.
type TupleIdSet struct {
	bits *roaring.Bitmap
}

// NewTupleIdSet builds an empty set.
func NewTupleIdSet() *TupleIdSet {
	return &TupleIdSet{bits: roaring.New()}
}

// Add marks id as a member.
func (s *TupleIdSet) Add(id TupleId) {
	s.bits.Add(uint32(id))
}

// Contains reports membership.
func (s *TupleIdSet) Contains(id TupleId) bool {
	return s.bits.Contains(uint32(id))
}

// Len returns the number of members.
func (s *TupleIdSet) Len() int {
	return int(s.bits.GetCardinality())
}

// Each calls fn for every member in ascending order.
func (s *TupleIdSet) Each(fn func(TupleId)) {
	it := s.bits.Iterator()
	for it.HasNext() {
		fn(TupleId(it.Next()))
	}
}
