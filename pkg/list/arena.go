package list

// noNode marks the absence of a slot, e.g. the head of an empty list.
const noNode = -1

// node is a single slot in the arena. Links are slot indices into the same arena, never pointers, so the
// circular chain doesn't need any pointer owning its neighbours.
type node[V any] struct {
	item V
	next int
	prev int
}

// arena owns every node of a list. Freed slots are kept on a stack and handed out again before the slice grows.
// NOTE: Slots must be addressed by index only; `slots` may be reallocated on any alloc call.
type arena[V any] struct {
	slots []node[V]
	free  []int // Released slot indices, reused LIFO.
}

// alloc stores `item` in a slot linked to itself and returns the slot index.
func (a *arena[V]) alloc(item V) int {
	if last := len(a.free) - 1; last >= 0 {
		idx := a.free[last]
		a.free = a.free[:last]
		a.slots[idx] = node[V]{item: item, next: idx, prev: idx}
		return idx
	}
	idx := len(a.slots)
	a.slots = append(a.slots, node[V]{item: item, next: idx, prev: idx})
	return idx
}

// release frees the slot at `idx` and returns the item it was holding.
// The slot's item is zeroed so the arena doesn't keep the value reachable.
func (a *arena[V]) release(idx int) V {
	item := a.slots[idx].item
	a.slots[idx] = node[V]{next: noNode, prev: noNode}
	a.free = append(a.free, idx)
	return item
}

// link threads the slot `idx` between `prev` and `next`, which must be adjacent.
func (a *arena[V]) link(prev, idx, next int) {
	a.slots[idx].prev = prev
	a.slots[idx].next = next
	a.slots[prev].next = idx
	a.slots[next].prev = idx
}

// unlink bridges the neighbours of `idx` over it. On a self-linked slot this is a no-op.
func (a *arena[V]) unlink(idx int) {
	prev, next := a.slots[idx].prev, a.slots[idx].next
	a.slots[prev].next = next
	a.slots[next].prev = prev
}

// reset drops all slots at once.
func (a *arena[V]) reset() {
	a.slots = nil
	a.free = nil
}
