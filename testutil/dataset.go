package testutil

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/streetsearch/blobstore"
	"github.com/hupe1980/streetsearch/codec"
	"github.com/hupe1980/streetsearch/internal/catalog"
	"github.com/hupe1980/streetsearch/internal/detail"
	"github.com/hupe1980/streetsearch/internal/index"
	"github.com/hupe1980/streetsearch/internal/shard"
	"github.com/hupe1980/streetsearch/manifest"
	"github.com/hupe1980/streetsearch/model"
)

// Postings is a tag's location -> mask map.
type Postings = map[model.LocationID]model.Mask

// Dataset is a synthetic published dataset.
type Dataset struct {
	Layout      shard.Layout
	Compression codec.Compression

	manifest  []manifest.Entry
	counts    map[string]int
	tags      map[string]Postings
	details   map[model.LocationID]*detail.Entry
	locations []model.Location
}

// NewDataset returns an empty dataset using the default layout.
func NewDataset() *Dataset {
	return &Dataset{
		Layout:  shard.DefaultLayout(),
		counts:  make(map[string]int),
		tags:    make(map[string]Postings),
		details: make(map[model.LocationID]*detail.Entry),
	}
}

// WithCompression publishes every blob with the given compression.
func (d *Dataset) WithCompression(c codec.Compression) *Dataset {
	d.Compression = c
	d.Layout.Suffix = c.Suffix()
	return d
}

// AddLocation adds a catalog entry.
func (d *Dataset) AddLocation(id model.LocationID, lat, lon float64, tags ...string) *Dataset {
	d.locations = append(d.locations, model.Location{ID: id, Lat: lat, Lon: lon, Tags: tags})
	return d
}

// AddTag adds an index entry. The tag is also listed in the manifest with
// its number of postings as frequency, unless SetCount overrides it.
func (d *Dataset) AddTag(tag string, postings Postings) *Dataset {
	p := make(Postings, len(postings))
	for id, m := range postings {
		p[id] = m
	}
	if _, ok := d.tags[tag]; !ok {
		d.manifest = append(d.manifest, manifest.Entry{Tag: tag})
	}
	d.tags[tag] = p
	return d
}

// SetCount overrides the manifest frequency of a tag, adding a
// manifest-only tag if it is not indexed.
func (d *Dataset) SetCount(tag string, count int) *Dataset {
	if _, ok := d.tags[tag]; !ok {
		if _, listed := d.counts[tag]; !listed {
			d.manifest = append(d.manifest, manifest.Entry{Tag: tag})
		}
	}
	d.counts[tag] = count
	return d
}

// AddDetail adds a location-detail record.
func (d *Dataset) AddDetail(id model.LocationID, def *int, pairs ...detail.TagBearing) *Dataset {
	d.details[id] = detail.NewEntry(pairs, def)
	return d
}

// IndexShard returns the shard a tag is published in.
func (d *Dataset) IndexShard(tag string) shard.ID {
	return shard.Of(tag)
}

// Manifest returns the manifest that Publish writes.
func (d *Dataset) Manifest() *manifest.Manifest {
	m := &manifest.Manifest{Entries: make([]manifest.Entry, len(d.manifest))}
	for i, e := range d.manifest {
		e.Count = len(d.tags[e.Tag])
		if c, ok := d.counts[e.Tag]; ok {
			e.Count = c
		}
		m.Entries[i] = e
	}
	return m
}

// Blobs renders every blob of the dataset, keyed by name.
func (d *Dataset) Blobs() (map[string][]byte, error) {
	out := make(map[string][]byte)
	put := func(name string, v any) error {
		data, err := codec.Encode(codec.Default, d.Compression, v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		out[name] = data
		return nil
	}

	shards := make(map[shard.ID]*index.Shard)
	for tag, p := range d.tags {
		id := shard.Of(tag)
		if shards[id] == nil {
			shards[id] = index.NewShard()
		}
		shards[id].Tags[tag] = p
	}
	for id, sh := range shards {
		if err := put(d.Layout.Index(id), sh); err != nil {
			return nil, err
		}
	}

	details := make(map[string]*detail.Shard)
	for id, e := range d.details {
		name := shard.DetailID(id)
		if details[name] == nil {
			details[name] = detail.NewShard()
		}
		details[name].Entries[id] = e
	}
	for name, sh := range details {
		if err := put(d.Layout.Detail(name), sh); err != nil {
			return nil, err
		}
	}

	if err := put(d.Layout.Manifest(), d.Manifest()); err != nil {
		return nil, err
	}
	if err := put(d.Layout.Locations(), catalog.New(d.locations)); err != nil {
		return nil, err
	}
	return out, nil
}

// Publish writes every blob into store.
func (d *Dataset) Publish(ctx context.Context, store blobstore.Putter) error {
	blobs, err := d.Blobs()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(blobs))
	for name := range blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := store.Put(ctx, name, blobs[name]); err != nil {
			return err
		}
	}
	return nil
}

// MustMemoryStore publishes the dataset into a new MemoryStore.
func (d *Dataset) MustMemoryStore() *blobstore.MemoryStore {
	store := blobstore.NewMemoryStore()
	if err := d.Publish(context.Background(), store); err != nil {
		panic(err)
	}
	return store
}
// Bearing builds a detail (tag, bearing) pair.
func Bearing(tag string, degrees int) detail.TagBearing {
	return detail.TagBearing{Tag: tag, Bearing: degrees}
}

// Default returns a pointer to a default bearing for AddDetail.
func Default(degrees int) *int {
	return &degrees
}
