// The keyspace is split into shards, each of which can list its keys in order on its own. Listing the whole
// keyspace in order must not require copying and re-sorting everything in one place.
//
// This module implements a heap-based multi-way merge that lazily pulls from several sorted sequences.
// Equal keys coming from different sequences are collapsed; the sequence listed first wins.

package scan

import (
	"container/heap"
	"errors"
	"iter"

	"github.com/nobletooth/circle/pkg/utils"
)

// heapElement is the latest pair pulled from one of the merged sequences.
type heapElement[K any, V any] struct {
	pair   utils.Pair[K, V]
	seqIdx int // Index of the producing sequence; lower means higher priority.
}

// mergeHeap orders the pending head of every sequence by key, then by priority.
type mergeHeap[K any, V any] struct { // Implements heap.Interface.
	compare  utils.CompareFn[K]
	elements []heapElement[K, V]
}

var _ heap.Interface = (*mergeHeap[int, int])(nil)

func (mh *mergeHeap[K, V]) Len() int {
	return len(mh.elements)
}

func (mh *mergeHeap[K, V]) Less(i, j int) bool {
	if cmp := mh.compare(mh.elements[i].pair.Key, mh.elements[j].pair.Key); cmp != 0 {
		return cmp < 0
	}
	return mh.elements[i].seqIdx < mh.elements[j].seqIdx
}

func (mh *mergeHeap[K, V]) Swap(i, j int) {
	mh.elements[i], mh.elements[j] = mh.elements[j], mh.elements[i]
}

func (mh *mergeHeap[K, V]) Push(x any) {
	element, ok := x.(heapElement[K, V])
	if !ok {
		utils.RaiseInvariant("multi_head", "pushed_invalid_type", "An item with invalid type was pushed to heap.")
		return
	}
	mh.elements = append(mh.elements, element)
}

func (mh *mergeHeap[K, V]) Pop() any {
	last := mh.elements[len(mh.elements)-1]
	mh.elements = mh.elements[:len(mh.elements)-1]
	return last
}

// MultiHead merges increasing `sequences` into one increasing sequence ordered by `cmp`.
// When several sequences yield the same key, only the pair from the earliest sequence is kept.
// Sequences are pulled lazily and only once the returned sequence is iterated.
func MultiHead[K any, V any](cmp utils.CompareFn[K], sequences []iter.Seq[utils.Pair[K, V]],
) (iter.Seq[utils.Pair[K, V]], error) {
	if cmp == nil {
		return nil, errors.New("expected a non-nil comparison function")
	}
	if len(sequences) == 0 {
		return nil, errors.New("expected a non-empty sequences")
	}

	return func(yield func(utils.Pair[K, V]) bool) {
		merge := &mergeHeap[K, V]{compare: cmp, elements: make([]heapElement[K, V], 0, len(sequences))}
		pull := make([]func() (utils.Pair[K, V], bool), len(sequences))
		stop := make([]func(), len(sequences))
		// Stop all underlying sequences once iteration is done, even on early return.
		defer func() {
			for _, stopFn := range stop {
				if stopFn != nil {
					stopFn()
				}
			}
		}()
		for seqIdx, seq := range sequences {
			pull[seqIdx], stop[seqIdx] = iter.Pull(seq)
			if first, hasAny := pull[seqIdx](); hasAny {
				heap.Push(merge, heapElement[K, V]{pair: first, seqIdx: seqIdx})
			}
		}

		var (
			lastKey K
			hasLast bool
		)
		for merge.Len() > 0 {
			top := heap.Pop(merge).(heapElement[K, V])
			if next, hasNext := pull[top.seqIdx](); hasNext {
				heap.Push(merge, heapElement[K, V]{pair: next, seqIdx: top.seqIdx})
			}
			// A lower priority duplicate of the key that was just yielded.
			if hasLast && cmp(lastKey, top.pair.Key) == 0 {
				continue
			}
			lastKey, hasLast = top.pair.Key, true
			if !yield(top.pair) {
				return
			}
		}
	}, nil
}
