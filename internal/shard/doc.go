// Package shard names the two shard spaces used by the search engine.
//
// Tag-index shards partition the inverted index by DJB2(tag) mod 256 and are
// named by the two-digit hexadecimal form of the shard number ("1a").
//
// Detail shards partition location-keyed bearing data by the last two decimal
// digits of the location ID ("07", "42").
//
// Layout maps both shard spaces, the tag manifest and the location catalog to
// blob names inside a blobstore.
package shard
