// Package cache holds decoded index and detail shards.
//
// # Shard Cache
//
// ShardCache is keyed by shard ID and tracks a small state machine per key:
//
//	Unrequested -> Loading -> Loaded
//	                       -> Failed -> Loading -> ...
//
// Loaded shards are immutable and never evicted: the published dataset is
// read-only for the lifetime of a session, so a shard fetched once stays
// valid. Failed shards are retried by the next Load.
//
// Concurrent Loads of one key collapse into a single fetch via singleflight.
// A caller that gives up (context canceled) does not abort the shared fetch.
package cache
