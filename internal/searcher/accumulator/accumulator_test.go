package accumulator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentIncrementSameID(t *testing.T) {
	acc := New(4)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc.Increment(7, 1.0)
		}()
	}
	wg.Wait()

	snap := acc.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, Entry{ID: 7, Value: 100.0}, snap[0])
}

func TestConcurrentIncrementManyIDs(t *testing.T) {
	acc := New(8)
	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := 0; id < 200; id++ {
				acc.Increment(id, 0.5)
			}
		}()
	}
	wg.Wait()

	snap := acc.Snapshot()
	require.Len(t, snap, 200)
	for i, e := range snap {
		assert.Equal(t, i, e.ID)
		assert.Equal(t, 8.0, e.Value)
	}
}

func TestEraseDuringIncrements(t *testing.T) {
	acc := New(3)
	for id := 0; id < 10; id++ {
		acc.Increment(id, 1)
	}
	var wg sync.WaitGroup
	for id := 0; id < 10; id += 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc.Erase(id)
			acc.Erase(id)
		}()
	}
	wg.Wait()
	acc.Erase(1000)

	m := acc.Map()
	assert.Len(t, m, 5)
	for id := 1; id < 10; id += 2 {
		assert.Equal(t, 1.0, m[id])
	}
}

func TestDefaultShardCount(t *testing.T) {
	assert.Equal(t, DefaultShards, New(0).ShardCount())
	assert.Equal(t, 5, New(5).ShardCount())
	assert.Empty(t, New(2).Snapshot())
}
