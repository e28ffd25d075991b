// Pair couples a key with its value, e.g. a list name with its length.

package utils

type Pair[K any, V any] struct {
	Key   K
	Value V
}
