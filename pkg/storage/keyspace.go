// Circle keeps every list in memory, addressed by name. Lists aren't safe for concurrent use, so the keyspace
// serializes access to them. Names are distributed uniformly across shards, each guarded by its own lock; clients
// working on different lists rarely wait for each other.

package storage

import (
	"cmp"
	"errors"
	"flag"
	"fmt"
	"iter"
	"maps"
	"runtime"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/nobletooth/circle/pkg/list"
	"github.com/nobletooth/circle/pkg/scan"
	"github.com/nobletooth/circle/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrKeyNotFound is returned when a list name doesn't exist in the keyspace.
var ErrKeyNotFound = errors.New("key was not found")

var (
	shardCount = flag.Int("keyspace_shard_count", runtime.NumCPU(),
		"The number of keyspace shards; each shard has its own lock.")

	listsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "keyspace_lists",
		Help: "The number of lists currently held in the keyspace.",
	})
)

// Value is the list type held by the keyspace.
type Value = list.List[[]byte]

// shard owns a disjoint subset of the keyspace.
type shard struct {
	mux   sync.RWMutex
	lists map[string]*Value
}

// Keyspace maps names to lists. A list exists only while it holds at least one element.
type Keyspace struct {
	shards []*shard
}

// NewKeyspace creates an empty keyspace with `shardCount` shards.
func NewKeyspace(shardCount int) *Keyspace {
	if shardCount <= 0 {
		utils.RaiseInvariant("keyspace", "negative_shard_count",
			"Invalid shard count has been given to keyspace.", "shardCount", shardCount)
		shardCount = 1
	}
	keyspace := &Keyspace{shards: make([]*shard, shardCount)}
	for i := range shardCount {
		keyspace.shards[i] = &shard{lists: make(map[string]*Value)}
	}
	return keyspace
}

// NewKeyspaceFromFlags creates a keyspace according to the configured flags.
func NewKeyspaceFromFlags() *Keyspace {
	return NewKeyspace(*shardCount)
}

// getShard hashes the key to pick the shard owning it.
func (k *Keyspace) getShard(key string) *shard {
	return k.shards[xxhash.Sum64String(key)%uint64(len(k.shards))]
}

// View runs `fn` on the list stored at `key` while holding a read lock. `fn` must not modify the list.
// Returns false, without calling `fn`, if the key doesn't exist.
func (k *Keyspace) View(key string, fn func(l *Value)) /*found*/ bool {
	s := k.getShard(key)
	s.mux.RLock()
	defer s.mux.RUnlock()

	l, exists := s.lists[key]
	if !exists {
		return false
	}
	fn(l)
	return true
}

// Update runs `fn` on the list stored at `key` while holding the write lock. If the key doesn't exist and `create`
// is set, `fn` receives a new empty list; otherwise `fn` isn't called and false is returned.
// Lists left empty by `fn` are removed from the keyspace.
func (k *Keyspace) Update(key string, create bool, fn func(l *Value)) /*called*/ bool {
	s := k.getShard(key)
	s.mux.Lock()
	defer s.mux.Unlock()

	l, exists := s.lists[key]
	if !exists {
		if !create {
			return false
		}
		l = list.New[[]byte]()
	}
	fn(l)

	switch {
	case l.Len() == 0 && exists:
		delete(s.lists, key)
		listsGauge.Dec()
	case l.Len() > 0 && !exists:
		s.lists[key] = l
		listsGauge.Inc()
	}
	return true
}

// Exists reports whether a list is stored at `key`.
func (k *Keyspace) Exists(key string) bool {
	return k.View(key, func(*Value) {})
}

// Len returns the length of the list stored at `key`, or ErrKeyNotFound.
func (k *Keyspace) Len(key string) (int, error) {
	length := 0
	if !k.View(key, func(l *Value) { length = l.Len() }) {
		return 0, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return length, nil
}

// Delete clears and removes the lists stored at `keys`, returning how many existed.
func (k *Keyspace) Delete(keys ...string) int {
	deleted := 0
	for _, key := range keys {
		if k.Update(key, false /*create*/, func(l *Value) { l.Clear() }) {
			deleted++
		}
	}
	return deleted
}

// Names yields every (name, length) pair in ascending name order.
// Each shard is snapshotted under its read lock when iteration reaches it; the result isn't a consistent view
// across shards.
func (k *Keyspace) Names() iter.Seq[utils.Pair[string, int]] {
	sequences := make([]iter.Seq[utils.Pair[string, int]], len(k.shards))
	for i, s := range k.shards {
		sequences[i] = s.sortedNames
	}
	merged, err := scan.MultiHead(cmp.Compare[string], sequences)
	if err != nil {
		utils.RaiseInvariant("keyspace", "names_merge_failed", "Failed to merge shard names.", "error", err)
		return func(yield func(utils.Pair[string, int]) bool) {}
	}
	return merged
}

// sortedNames yields the shard's names in ascending order together with their list lengths.
func (s *shard) sortedNames(yield func(utils.Pair[string, int]) bool) {
	s.mux.RLock()
	names := slices.Sorted(maps.Keys(s.lists))
	pairs := make([]utils.Pair[string, int], len(names))
	for i, name := range names {
		pairs[i] = utils.Pair[string, int]{Key: name, Value: s.lists[name].Len()}
	}
	s.mux.RUnlock()

	for _, pair := range pairs {
		if !yield(pair) {
			return
		}
	}
}
