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
	"container/heap"
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cottontaildb/cottontail/value"
)

// strandRecord pairs a record with its originating strand, feeding the
// stable (TupleId, strandId) tiebreaker needed because two strands may
// emit records comparing equal under sortOn.
type strandRecord struct {
	rec      Record
	strandID int
}

// UnorderedMergeOperator is the plain NAry merge variant: it drains every strand
// concurrently via errgroup with no ordering guarantee across strands,
// each strand itself single-threaded. Each strand already closes over
// its own BindingContext via Context.WithBindings at construction time,
// so the merge operator itself stays oblivious to bindings and only fans
// Operator.Next in.
type UnorderedMergeOperator struct {
	strands []Operator

	out   chan strandRecord
	errCh chan error
	done  chan struct{}
	once  sync.Once
}

// NewUnorderedMergeOperator builds an unordered merge over strands.
func NewUnorderedMergeOperator(strands []Operator) *UnorderedMergeOperator {
	return &UnorderedMergeOperator{strands: strands}
}

func (o *UnorderedMergeOperator) StrandCount() int { return len(o.strands) }

func (o *UnorderedMergeOperator) Open(ctx context.Context) error {
	o.out = make(chan strandRecord, len(o.strands))
	o.errCh = make(chan error, 1)
	o.done = make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	for i, strand := range o.strands {
		i, strand := i, strand
		g.Go(func() error {
			if err := strand.Open(gctx); err != nil {
				return err
			}
			for {
				rec, ok, err := strand.Next(gctx)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				select {
				case o.out <- strandRecord{rec: rec, strandID: i}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}
	go func() {
		err := g.Wait()
		close(o.out)
		if err != nil {
			o.errCh <- err
		}
		close(o.done)
	}()
	return nil
}

func (o *UnorderedMergeOperator) Next(ctx context.Context) (Record, bool, error) {
	sr, ok := <-o.out
	if !ok {
		<-o.done // wait for the fan-in goroutine to finish populating errCh
		select {
		case err := <-o.errCh:
			return value.Record{}, false, err
		default:
			return value.Record{}, false, nil
		}
	}
	return sr.rec, true, nil
}

func (o *UnorderedMergeOperator) Close() error {
	var err error
	o.once.Do(func() {
		for _, s := range o.strands {
			if cerr := s.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}

// heapItem is one entry in MergeLimitingHeapSortOperator's bounded
// max-heap: ordered so the current worst-of-the-top-k sits at the root,
// ready to be evicted when a better candidate arrives.
type heapItem struct {
	strandRecord
}

// beats reports whether a strictly precedes b in output order: sortOn
// first, then the (TupleId, strandId) tiebreaker. Both the heap ordering
// and the eviction test share this comparator, so the retained top-k is
// deterministic regardless of strand arrival timing.
func beats(a, b strandRecord, sortOn []SortKey) bool {
	if lessByKeys(a.rec, b.rec, sortOn) {
		return true
	}
	if lessByKeys(b.rec, a.rec, sortOn) {
		return false
	}
	if a.rec.ID != b.rec.ID {
		return a.rec.ID < b.rec.ID
	}
	return a.strandID < b.strandID
}

type boundedHeap struct {
	items  []heapItem
	sortOn []SortKey
}

func (h *boundedHeap) Len() int { return len(h.items) }

// Less defines a max-heap over "worse than output order" so the root is
// the current top-k's worst member, evicted first when the heap is full.
func (h *boundedHeap) Less(i, j int) bool {
	return beats(h.items[j].strandRecord, h.items[i].strandRecord, h.sortOn)
}

func (h *boundedHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *boundedHeap) Push(x interface{}) { h.items = append(h.items, x.(heapItem)) }

func (h *boundedHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// MergeLimitingHeapSortOperator is the NAry bounded-heap top-k merge:
// strands run concurrently; a heap of size limit maintains the current
// top-k under sortOn; on completion it drains in (sortOn, TupleId,
// strandId) order.
type MergeLimitingHeapSortOperator struct {
	strands []Operator
	sortOn  []SortKey
	limit   int64

	sorted []strandRecord
	pos    int
}

// NewMergeLimitingHeapSortOperator builds a top-k merge over strands.
func NewMergeLimitingHeapSortOperator(strands []Operator, sortOn []SortKey, limit int64) *MergeLimitingHeapSortOperator {
	return &MergeLimitingHeapSortOperator{strands: strands, sortOn: sortOn, limit: limit}
}

func (o *MergeLimitingHeapSortOperator) StrandCount() int { return len(o.strands) }

func (o *MergeLimitingHeapSortOperator) Open(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	h := &boundedHeap{sortOn: o.sortOn}
	heap.Init(h)

	for i, strand := range o.strands {
		i, strand := i, strand
		g.Go(func() error {
			if err := strand.Open(gctx); err != nil {
				return err
			}
			defer strand.Close()
			for {
				rec, ok, err := strand.Next(gctx)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				mu.Lock()
				item := heapItem{strandRecord: strandRecord{rec: rec, strandID: i}}
				if int64(h.Len()) < o.limit {
					heap.Push(h, item)
				} else if h.Len() > 0 && beats(item.strandRecord, h.items[0].strandRecord, o.sortOn) {
					heap.Pop(h)
					heap.Push(h, item)
				}
				mu.Unlock()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := make([]strandRecord, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(heapItem).strandRecord
	}
	o.sorted = out
	return nil
}

func (o *MergeLimitingHeapSortOperator) Next(ctx context.Context) (Record, bool, error) {
	if o.pos >= len(o.sorted) {
		return value.Record{}, false, nil
	}
	rec := o.sorted[o.pos].rec
	o.pos++
	return rec, true, nil
}

func (o *MergeLimitingHeapSortOperator) Close() error {
	var err error
	for _, s := range o.strands {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
