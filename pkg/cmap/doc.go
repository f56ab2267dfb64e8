// Package cmap provides a concurrent-safe sharded map.
//
// Keys are spread across a power-of-two number of shards, each guarded by
// its own RWMutex, so operations on different users rarely contend.
// Single-key operations (Set, Pop, SetIfAbsent, UpdateIfPresent) are
// atomic. Iteration locks one shard at a time and therefore sees no
// consistent snapshot of the whole map.
//
// Usage:
//
//	m := cmap.New[int64, time.Time]()
//	m.SetIfAbsent(userID, time.Now())
//	_, known := m.Get(userID)
package cmap
