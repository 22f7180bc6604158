// Package index holds the in-memory inverted tag index assembled from
// tag-index shards.
//
// Each shard maps a tag to its postings: location ID -> directional bitmask.
// Shards are decoded and validated at the fetch boundary (Shard implements
// json.Unmarshaler) and merged into a Store, which grows monotonically for the
// lifetime of a session. Tags are disjoint across shards by construction; if a
// tag does appear twice the last merged shard wins.
package index
