package storage

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/nobletooth/circle/pkg/utils"
	promclient "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pushBack appends `values` to the list at `key`, creating it if needed.
func pushBack(t *testing.T, keyspace *Keyspace, key string, values ...string) {
	t.Helper()
	called := keyspace.Update(key, true /*create*/, func(l *Value) {
		for _, value := range values {
			l.Append([]byte(value))
		}
	})
	require.True(t, called)
}

// listValues returns the values of the list at `key`, or nil if it doesn't exist.
func listValues(keyspace *Keyspace, key string) []string {
	var values []string
	keyspace.View(key, func(l *Value) {
		for value := range l.All() {
			values = append(values, string(value))
		}
	})
	return values
}

// gaugeValue reads the current number of lists reported by the keyspace gauge.
func gaugeValue(t *testing.T) float64 {
	t.Helper()
	metric := new(promclient.Metric)
	require.NoError(t, listsGauge.Write(metric))
	return metric.GetGauge().GetValue()
}

func TestKeyspace_UpdateAndView(t *testing.T) {
	keyspace := NewKeyspace(4)
	pushBack(t, keyspace, "queue", "a", "b")
	pushBack(t, keyspace, "queue", "c")
	assert.Equal(t, []string{"a", "b", "c"}, listValues(keyspace, "queue"))

	length, err := keyspace.Len("queue")
	assert.NoError(t, err)
	assert.Equal(t, 3, length)

	t.Run("missing_key", func(t *testing.T) {
		assert.False(t, keyspace.View("missing", func(*Value) { t.Fatal("must not be called") }))
		assert.False(t, keyspace.Update("missing", false /*create*/, func(*Value) { t.Fatal("must not be called") }))
		_, err := keyspace.Len("missing")
		assert.ErrorIs(t, err, ErrKeyNotFound)
		assert.False(t, keyspace.Exists("missing"))
	})

	t.Run("empty_lists_are_not_stored", func(t *testing.T) {
		assert.True(t, keyspace.Update("ghost", true /*create*/, func(*Value) {}))
		assert.False(t, keyspace.Exists("ghost"))
	})

	t.Run("drained_lists_are_removed", func(t *testing.T) {
		pushBack(t, keyspace, "drain", "x")
		assert.True(t, keyspace.Update("drain", false /*create*/, func(l *Value) { _, _ = l.Shift() }))
		assert.False(t, keyspace.Exists("drain"))
	})
}

func TestKeyspace_Delete(t *testing.T) {
	keyspace := NewKeyspace(2)
	before := gaugeValue(t)
	pushBack(t, keyspace, "k1", "v")
	pushBack(t, keyspace, "k2", "v")
	assert.Equal(t, before+2, gaugeValue(t))

	assert.Equal(t, 2, keyspace.Delete("k1", "k2", "k3"))
	assert.False(t, keyspace.Exists("k1"))
	assert.False(t, keyspace.Exists("k2"))
	assert.Equal(t, before, gaugeValue(t))
	assert.Equal(t, 0, keyspace.Delete("k1"))
}

func TestKeyspace_Names(t *testing.T) {
	keyspace := NewKeyspace(8)
	for _, key := range []string{"delta", "alpha", "charlie", "bravo", "echo"} {
		pushBack(t, keyspace, key, key, key)
	}
	pushBack(t, keyspace, "alpha", "more")

	assert.Equal(t, []utils.Pair[string, int]{
		{Key: "alpha", Value: 3},
		{Key: "bravo", Value: 2},
		{Key: "charlie", Value: 2},
		{Key: "delta", Value: 2},
		{Key: "echo", Value: 2},
	}, slices.Collect(keyspace.Names()))

	assert.Empty(t, slices.Collect(NewKeyspace(3).Names()))
}

func TestKeyspace_InvalidShardCount(t *testing.T) {
	keyspace := NewKeyspace(0)
	assert.Len(t, keyspace.shards, 1)
	assert.GreaterOrEqual(t, utils.GetMetricValue("keyspace", "negative_shard_count"), 1)
}

func TestKeyspace_ConcurrentUpdates(t *testing.T) {
	keyspace := NewKeyspace(4)
	const workers, pushes = 8, 100

	var wg sync.WaitGroup
	for worker := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("list-%d", worker%2)
			for i := range pushes {
				keyspace.Update(key, true /*create*/, func(l *Value) {
					if i%2 == 0 {
						l.Append([]byte("tail"))
					} else {
						l.Unshift([]byte("head"))
					}
				})
			}
		}()
	}
	wg.Wait()

	for _, key := range []string{"list-0", "list-1"} {
		length, err := keyspace.Len(key)
		assert.NoError(t, err)
		assert.Equal(t, workers/2*pushes, length)
	}
}
