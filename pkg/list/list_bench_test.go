package list

import (
	"fmt"
	"testing"
)

// benchSizes mirror the list sizes that slices and lists are compared at.
var benchSizes = []int{0, 10, 100, 1_000, 10_000, 100_000}

// sequence returns [1..size].
func sequence(size int) []int {
	items := make([]int, size)
	for i := range items {
		items[i] = i + 1
	}
	return items
}

// benchmarkPair runs `onSlice` and `onList` against fresh copies of a slice and a list holding `size` items.
func benchmarkPair(b *testing.B, size int, onSlice func([]int) []int, onList func(*List[int])) {
	b.Helper()
	b.Run(fmt.Sprintf("Slice/%d", size), func(b *testing.B) {
		for range b.N {
			b.StopTimer()
			items := sequence(size)
			b.StartTimer()
			_ = onSlice(items)
		}
	})
	b.Run(fmt.Sprintf("List/%d", size), func(b *testing.B) {
		for range b.N {
			b.StopTimer()
			list := FromSlice(sequence(size))
			b.StartTimer()
			onList(list)
		}
	})
}

func BenchmarkAppend(b *testing.B) {
	for _, size := range benchSizes {
		benchmarkPair(b, size,
			func(items []int) []int { return append(items, 1) },
			func(list *List[int]) { list.Append(1) })
	}
}

func BenchmarkShift(b *testing.B) {
	for _, size := range benchSizes {
		benchmarkPair(b, size,
			func(items []int) []int {
				if len(items) == 0 {
					return items
				}
				// Keep the slice anchored at its backing array start, like an array shift does.
				return items[:copy(items, items[1:])]
			},
			func(list *List[int]) { _, _ = list.Shift() })
	}
}

func BenchmarkUnshift(b *testing.B) {
	for _, size := range benchSizes {
		benchmarkPair(b, size,
			func(items []int) []int { return append([]int{1}, items...) },
			func(list *List[int]) { list.Unshift(1) })
	}
}

// BenchmarkAtMinCost reads the last element, which the list reaches in a single backward hop.
func BenchmarkAtMinCost(b *testing.B) {
	for _, size := range benchSizes {
		nth := max(size-1, 0)
		benchmarkPair(b, size,
			func(items []int) []int {
				if nth < len(items) {
					_ = items[nth]
				}
				return items
			},
			func(list *List[int]) { _, _ = list.At(nth) })
	}
}

// BenchmarkAtMaxCost reads the middle element, the farthest one from the head in either direction.
func BenchmarkAtMaxCost(b *testing.B) {
	for _, size := range benchSizes {
		nth := size / 2
		benchmarkPair(b, size,
			func(items []int) []int {
				if nth < len(items) {
					_ = items[nth]
				}
				return items
			},
			func(list *List[int]) { _, _ = list.At(nth) })
	}
}

func BenchmarkLen(b *testing.B) {
	for _, size := range benchSizes {
		benchmarkPair(b, size,
			func(items []int) []int { _ = len(items); return items },
			func(list *List[int]) { _ = list.Len() })
	}
}
