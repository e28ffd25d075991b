// Package list implements a circular doubly linked list with array-like indexed access.
//
// The list is anchored at a single head; the last element is always head.prev, so both ends are reachable in O(1)
// and pushing, popping or prepending never shifts the other elements. Indexed access walks from the head in
// whichever direction is shorter, costing O(min(i, n-i)) hops.
//
// Negative indices count from the end, -1 being the last element. Lookups and removals on a missing index report
// absence through their boolean result, whereas Insert returns ErrIndexOutOfRange: inserting relative to a
// position that holds no element is a caller bug, not an expected miss. The two behaviours are intentional.
//
// Nodes are stored in an arena owned by the list and linked by slot index. A List isn't safe for concurrent use;
// callers sharing one across goroutines must serialize access themselves.
package list

import (
	"errors"
	"fmt"
	"iter"
)

// ErrIndexOutOfRange is returned by Insert when no element exists at the requested index.
var ErrIndexOutOfRange = errors.New("index out of range")

// List is a circular doubly linked list of V. The zero value is an empty list ready to use.
type List[V any] struct {
	nodes  arena[V]
	head   int // Slot of the element at index 0; only meaningful when length > 0.
	length int
}

// New returns an empty list.
func New[V any]() *List[V] {
	return &List[V]{head: noNode}
}

// FromSlice builds a list holding `items` in the same order.
func FromSlice[V any](items []V) *List[V] {
	l := New[V]()
	for _, item := range items {
		l.Append(item)
	}
	return l
}

// Collect builds a list from the values yielded by `seq`, in order.
func Collect[V any](seq iter.Seq[V]) *List[V] {
	l := New[V]()
	for item := range seq {
		l.Append(item)
	}
	return l
}

// Len returns the number of elements in the list.
func (l *List[V]) Len() int {
	return l.length
}

// Size is an alias of Len.
func (l *List[V]) Size() int {
	return l.length
}

// locate returns the slot holding the element at `nth`, which may be negative.
func (l *List[V]) locate(nth int) (int, bool /*found*/) {
	idx := nth
	if idx < 0 {
		idx += l.length
	}
	if idx < 0 || idx >= l.length {
		return noNode, false
	}
	slot := l.head
	if idx > l.length/2 { // Closer to the tail; walk backwards.
		for range l.length - idx {
			slot = l.nodes.slots[slot].prev
		}
	} else {
		for range idx {
			slot = l.nodes.slots[slot].next
		}
	}
	return slot, true
}

// At returns the element at index `nth` and true, or the zero value and false when the index is out of range.
func (l *List[V]) At(nth int) (V, bool) {
	slot, found := l.locate(nth)
	if !found {
		return *new(V), false
	}
	return l.nodes.slots[slot].item, true
}

// First returns the element at index 0, if any.
func (l *List[V]) First() (V, bool) {
	if l.length == 0 {
		return *new(V), false
	}
	return l.nodes.slots[l.head].item, true
}

// Last returns the last element without traversing the list, if any.
func (l *List[V]) Last() (V, bool) {
	if l.length == 0 {
		return *new(V), false
	}
	return l.nodes.slots[l.nodes.slots[l.head].prev].item, true
}

// Append adds `item` after the last element and returns the list for chaining.
func (l *List[V]) Append(item V) *List[V] {
	slot := l.nodes.alloc(item)
	if l.length == 0 {
		l.head = slot // A fresh slot is already linked to itself.
	} else {
		l.nodes.link(l.nodes.slots[l.head].prev /*tail*/, slot, l.head)
	}
	l.length++
	return l
}

// Push is an alias of Append.
func (l *List[V]) Push(item V) *List[V] {
	return l.Append(item)
}

// Unshift adds `item` before the first element and returns the list for chaining.
func (l *List[V]) Unshift(item V) *List[V] {
	// The appended slot sits right behind the head, so stepping the head back makes it index 0.
	l.Append(item)
	l.head = l.nodes.slots[l.head].prev
	return l
}

// Prepend is an alias of Unshift.
func (l *List[V]) Prepend(item V) *List[V] {
	return l.Unshift(item)
}

// Insert places `item` at index `nth`, moving the element that was there one position towards the end.
// An element must already exist at `nth`; otherwise ErrIndexOutOfRange is returned and the list is unchanged.
// That includes inserting into an empty list and inserting at Len(), which Append handles instead.
func (l *List[V]) Insert(nth int, item V) error {
	target, found := l.locate(nth)
	if !found {
		return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, nth, l.length)
	}
	if target == l.head {
		l.Unshift(item)
		return nil
	}
	slot := l.nodes.alloc(item)
	l.nodes.link(l.nodes.slots[target].prev, slot, target)
	l.length++
	return nil
}

// Shift removes and returns the first element, if any.
func (l *List[V]) Shift() (V, bool) {
	if l.length == 0 {
		return *new(V), false
	}
	removed := l.head
	next := l.nodes.slots[removed].next
	l.nodes.unlink(removed)
	l.length--
	if l.length == 0 {
		l.head = noNode
	} else {
		l.head = next
	}
	return l.nodes.release(removed), true
}

// DeleteAt removes and returns the element at index `pos`, or the zero value and false if there isn't one.
func (l *List[V]) DeleteAt(pos int) (V, bool) {
	target, found := l.locate(pos)
	if !found {
		return *new(V), false
	}
	if target == l.head {
		return l.Shift()
	}
	l.nodes.unlink(target)
	l.length--
	return l.nodes.release(target), true
}

// Clear removes all elements and drops the node storage.
func (l *List[V]) Clear() {
	l.nodes.reset()
	l.head = noNode
	l.length = 0
}

// All yields the elements from first to last. Traversal only reads links, so nested or interleaved traversals
// are fine; mutating the list while traversing it isn't.
func (l *List[V]) All() iter.Seq[V] {
	return func(yield func(V) bool) {
		if l.length == 0 {
			return
		}
		slot := l.head
		for {
			if !yield(l.nodes.slots[slot].item) {
				return
			}
			slot = l.nodes.slots[slot].next
			if slot == l.head {
				return
			}
		}
	}
}
