package streetsearch_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/streetsearch"
	"github.com/hupe1980/streetsearch/model"
	"github.com/hupe1980/streetsearch/testutil"
)

func exampleStore() *testutil.Dataset {
	return testutil.NewDataset().
		AddLocation(1, 40.7128, -74.0060).
		AddLocation(2, 40.7306, -73.9866).
		AddLocation(3, 40.7580, -73.9855).
		AddTag("coffee shop", testutil.Postings{1: model.East, 2: model.North}).
		AddTag("red door", testutil.Postings{1: model.East | model.South}).
		AddTag("fire escape", testutil.Postings{3: model.West}).
		AddDetail(1, testutil.Default(0),
			testutil.Bearing("red door", 180),
			testutil.Bearing("coffee shop", 90),
		)
}

// ExampleEngine_Search demonstrates a multi-segment query.
func ExampleEngine_Search() {
	ctx := context.Background()

	eng, err := streetsearch.New(exampleStore().MustMemoryStore())
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	if err := eng.LoadLocations(ctx); err != nil {
		log.Fatal(err)
	}
	if err := eng.LoadManifest(ctx); err != nil {
		log.Fatal(err)
	}

	res, err := eng.Search(ctx, `coffee red, escape`)
	if err != nil {
		log.Fatal(err)
	}
	for _, seg := range res.Segments {
		fmt.Printf("%s: %d %s\n", seg.Label, seg.Count(), seg.Color)
	}
	fmt.Println("total:", res.Count())
	// Output:
	// coffee red: 1 #eab308
	// escape: 1 #f472b6
	// total: 2
}

// ExampleEngine_SelectLocation demonstrates bearing refinement.
func ExampleEngine_SelectLocation() {
	ctx := context.Background()

	eng, err := streetsearch.New(exampleStore().MustMemoryStore())
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	_ = eng.LoadLocations(ctx)
	_ = eng.LoadManifest(ctx)

	if _, err := eng.Search(ctx, "coffee"); err != nil {
		log.Fatal(err)
	}
	sel, err := eng.SelectLocation(ctx, 1)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(sel.InstantBearing, sel.Bearing, sel.Source)
	// Output: 90 90 tag
}

// ExampleEngine_Suggest demonstrates autocomplete.
func ExampleEngine_Suggest() {
	eng, err := streetsearch.New(exampleStore().SetCount("coffee shop", 250).MustMemoryStore())
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	_ = eng.LoadManifest(context.Background())

	fmt.Println(eng.Suggest("cof"))
	fmt.Println(eng.Suggest(`"cof`))
	// Output:
	// [coffee shop]
	// []
}
