// Package streetsearch queries a lazily fetched, sharded tag index over
// geotagged street-level images.
//
// A published dataset is a set of static JSON blobs: a location catalog, a
// tag manifest, 256 tag-index shards keyed by the DJB2 hash of the tag and
// 100 location-detail shards keyed by the last two digits of the location
// ID. The engine fetches only the shards a query needs, evaluates the query
// in memory and keeps everything it fetched for the rest of its lifetime.
//
// # Quick Start
//
//	ctx := context.Background()
//	store := blobstore.NewHTTPStore("https://cdn.example.com/")
//	eng, _ := streetsearch.New(store)
//	defer eng.Close()
//
//	_ = eng.LoadLocations(ctx) // required
//	_ = eng.LoadManifest(ctx)  // optional; fuzzy terms need it
//
//	res, _ := eng.Search(ctx, `"east", coffee shop`)
//	for _, seg := range res.Segments {
//	    fmt.Println(seg.Label, seg.Color, seg.Count())
//	}
//
// # Query Syntax
//
// Commas separate segments; a location matches the query if it matches any
// segment. Within a segment every term must match and the matching tags must
// share at least one compass octant. Quoted words match whole words only,
// bare words match any tag containing them:
//
//	coffee             any tag containing "coffee"
//	"east"             tags containing the word "east"
//	diner, restaurant  either
//	red "door"         both, facing a common direction
//
// # Selection
//
// SelectLocation returns the bearing implied by the current result at once
// and refines it from the location's detail shard:
//
//	sel, _ := eng.SelectLocation(ctx, 4242)
//	fmt.Println(sel.InstantBearing, sel.Bearing, eng.VisibleTags(sel.Tags))
//
// # Live Search
//
// A Session debounces keystrokes and publishes only the newest result:
//
//	s := eng.NewSession()
//	defer s.Close()
//	s.Submit("cof")
//	s.Submit("coffee")
//	res := <-s.Results()
//
// # Storage Backends
//
// Any blobstore.BlobStore can serve a dataset: blobstore.HTTPStore (CDN),
// blobstore.LocalStore, blobstore.MemoryStore, s3.Store and minio.Store.
//
// # Observability
//
// Logging uses log/slog through Logger; metrics go to a MetricsCollector
// such as BasicMetricsCollector or metric.PrometheusCollector.
package streetsearch
