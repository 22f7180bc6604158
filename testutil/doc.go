// Package testutil provides testing utilities for streetsearch.
//
// This package is intended for use in tests and examples only. It builds
// synthetic datasets (tag manifest, index shards, detail shards, location
// catalog), publishes them into a blob store, and wraps stores to count or
// fail fetches.
//
// # Fixtures
//
//	ds := testutil.NewDataset().
//	    AddLocation(5, 40.71, -74.00).
//	    AddTag("coffee", testutil.Postings{5: model.North})
//	store := ds.MustMemoryStore()
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	ds := rng.Dataset(1000, 50)
package testutil
