package sync

import (
	"sync"
)

const defaultShards = 32

// ShardedMutex provides fine-grained locking using sharded mutexes.
// Instead of a single global lock, operations are distributed across N shards
// based on a hash of the resource key, reducing contention under concurrent load.
// The issuance engine keys it by recipient address so two signed mints for the
// same holder can never interleave between nonce read and consumption.
type ShardedMutex struct {
	shards []sync.Mutex
}

// NewShardedMutex creates a new ShardedMutex with the default shard count.
func NewShardedMutex() *ShardedMutex {
	return &ShardedMutex{shards: make([]sync.Mutex, defaultShards)}
}

// Lock acquires the lock for the given key's shard.
// Empty keys default to shard 0.
func (m *ShardedMutex) Lock(key string) {
	m.shards[m.shardFor(key)].Lock()
}

// Unlock releases the lock for the given key's shard.
// Empty keys default to shard 0.
func (m *ShardedMutex) Unlock(key string) {
	m.shards[m.shardFor(key)].Unlock()
}

// shardFor returns the shard index for the given key.
func (m *ShardedMutex) shardFor(key string) int {
	if key == "" {
		return 0
	}
	return int(hashString(key) % uint32(len(m.shards)))
}

// hashString provides a simple hash for shard selection.
func hashString(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}
