// Package accumulator provides a lock-striped map from document id to
// accumulated relevance. Each shard owns its own mutex and map, so
// increments to ids in different shards never contend.
package accumulator

import (
	"sort"
	"sync"
)

// DefaultShards is the shard count used when a non-positive count is given.
const DefaultShards = 16

type shard struct {
	mu     sync.Mutex
	values map[int]float64
}

// Accumulator routes id to shard id mod len(shards). Ids must be
// non-negative.
type Accumulator struct {
	shards []shard
}

func New(shardCount int) *Accumulator {
	if shardCount <= 0 {
		shardCount = DefaultShards
	}
	a := &Accumulator{shards: make([]shard, shardCount)}
	for i := range a.shards {
		a.shards[i].values = make(map[int]float64)
	}
	return a
}

func (a *Accumulator) shardFor(id int) *shard {
	return &a.shards[uint64(id)%uint64(len(a.shards))]
}

// Increment adds delta to the value of id, starting from 0.
func (a *Accumulator) Increment(id int, delta float64) {
	s := a.shardFor(id)
	s.mu.Lock()
	s.values[id] += delta
	s.mu.Unlock()
}

// Erase removes id. Erasing an absent id is a no-op.
func (a *Accumulator) Erase(id int) {
	s := a.shardFor(id)
	s.mu.Lock()
	delete(s.values, id)
	s.mu.Unlock()
}

// Entry is one id and its accumulated value.
type Entry struct {
	ID    int
	Value float64
}

// Snapshot merges all shards, locking them one at a time in index order,
// and returns the entries sorted by id.
func (a *Accumulator) Snapshot() []Entry {
	var entries []Entry
	for i := range a.shards {
		s := &a.shards[i]
		s.mu.Lock()
		for id, v := range s.values {
			entries = append(entries, Entry{ID: id, Value: v})
		}
		s.mu.Unlock()
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// Map is Snapshot as a plain map.
func (a *Accumulator) Map() map[int]float64 {
	out := make(map[int]float64)
	for _, e := range a.Snapshot() {
		out[e.ID] = e.Value
	}
	return out
}

func (a *Accumulator) ShardCount() int {
	return len(a.shards)
}
