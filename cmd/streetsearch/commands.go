package main

import (
	"fmt"
	"io"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/hupe1980/streetsearch"
	"github.com/hupe1980/streetsearch/blobstore"
	"github.com/hupe1980/streetsearch/model"
	"github.com/spf13/cobra"
)

func printJSON(w io.Writer, v any) error {
	data, err := gojson.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

type segmentOutput struct {
	Label string             `json:"label"`
	Color string             `json:"color"`
	Count int                `json:"count"`
	IDs   []model.LocationID `json:"ids,omitempty"`
}

type searchOutput struct {
	Query    string          `json:"query"`
	Count    int             `json:"count"`
	Degraded bool            `json:"degraded"`
	Failed   []string        `json:"failed,omitempty"`
	Segments []segmentOutput `json:"segments"`
}

func newSearchCmd(g *globalFlags) *cobra.Command {
	var (
		limit   int
		showIDs bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Evaluate a query",
		Long: `Evaluate a query. Commas separate alternatives; words within an
alternative must all match with a common bearing. Quoted words match whole
words only.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := g.context(cmd)
			defer cancel()

			eng, err := g.openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.LoadManifest(ctx); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: fuzzy terms disabled:", err)
			}

			res, err := eng.Search(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := searchOutput{Query: res.Query, Count: res.Count(), Degraded: res.Degraded}
			for _, f := range res.Failed {
				out.Failed = append(out.Failed, f.Error())
			}
			for _, seg := range res.Segments {
				so := segmentOutput{Label: seg.Label, Color: seg.Color, Count: seg.Count()}
				if showIDs {
					it := seg.IDs.Iterator()
					for it.HasNext() && (limit <= 0 || len(so.IDs) < limit) {
						so.IDs = append(so.IDs, model.LocationID(it.Next()))
					}
				}
				out.Segments = append(out.Segments, so)
			}

			w := cmd.OutOrStdout()
			if g.json {
				return printJSON(w, out)
			}
			for _, so := range out.Segments {
				fmt.Fprintf(w, "%-30s %s %d\n", so.Label, so.Color, so.Count)
				for _, id := range so.IDs {
					fmt.Fprintf(w, "  %d\n", id)
				}
			}
			fmt.Fprintf(w, "total %d\n", out.Count)
			if out.Degraded {
				fmt.Fprintf(w, "degraded: %d shard(s) unavailable\n", len(out.Failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showIDs, "ids", false, "list matching location IDs")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum IDs listed per segment (0 for all)")
	return cmd
}

func newSuggestCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <text>",
		Short: "Suggest tags containing text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := g.context(cmd)
			defer cancel()

			cfg, store, err := g.openStore(ctx)
			if err != nil {
				return err
			}
			opts, err := cfg.Options()
			if err != nil {
				return err
			}
			eng, err := streetsearch.New(store, opts...)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.LoadManifest(ctx); err != nil {
				return err
			}

			suggestions := eng.Suggest(strings.Join(args, " "))
			if g.json {
				if suggestions == nil {
					suggestions = []string{}
				}
				return printJSON(cmd.OutOrStdout(), suggestions)
			}
			for _, s := range suggestions {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

type selectOutput struct {
	ID             model.LocationID `json:"id"`
	Lat            float64          `json:"lat"`
	Lon            float64          `json:"lon"`
	InResult       bool             `json:"in_result"`
	InstantBearing int              `json:"instant_bearing"`
	Bearing        int              `json:"bearing"`
	Source         string           `json:"source"`
	Hydrated       bool             `json:"hydrated"`
	Tags           []string         `json:"tags,omitempty"`
}

func newSelectCmd(g *globalFlags) *cobra.Command {
	var (
		q       string
		visible bool
	)

	cmd := &cobra.Command{
		Use:   "select <id>",
		Short: "Resolve the bearing and tags of a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseLocationID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := g.context(cmd)
			defer cancel()

			eng, err := g.openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			if q != "" {
				if err := eng.LoadManifest(ctx); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning: fuzzy terms disabled:", err)
				}
				if _, err := eng.Search(ctx, q); err != nil {
					return err
				}
			}

			sel, err := eng.SelectLocation(ctx, id)
			if err != nil {
				return err
			}

			tags := sel.Tags
			if visible {
				tags = eng.VisibleTags(tags)
			}
			out := selectOutput{
				ID:             sel.Location.ID,
				Lat:            sel.Location.Lat,
				Lon:            sel.Location.Lon,
				InResult:       sel.InResult,
				InstantBearing: sel.InstantBearing,
				Bearing:        sel.Bearing,
				Source:         string(sel.Source),
				Hydrated:       sel.Hydrated,
				Tags:           tags,
			}

			w := cmd.OutOrStdout()
			if g.json {
				return printJSON(w, out)
			}
			fmt.Fprintf(w, "location %d (%.5f, %.5f)\n", out.ID, out.Lat, out.Lon)
			fmt.Fprintf(w, "bearing  %d (%s, instant %d)\n", out.Bearing, out.Source, out.InstantBearing)
			if len(out.Tags) > 0 {
				fmt.Fprintf(w, "tags     %s\n", strings.Join(out.Tags, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&q, "query", "q", "", "query whose result and text refine the bearing")
	cmd.Flags().BoolVar(&visible, "visible", false, "show the curated tag subset")
	return cmd
}

func newShardsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "shards",
		Short: "List the published index shards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := g.context(cmd)
			defer cancel()

			cfg, store, err := g.openStore(ctx)
			if err != nil {
				return err
			}
			opts, err := cfg.Options()
			if err != nil {
				return err
			}
			eng, err := streetsearch.New(store, opts...)
			if err != nil {
				return err
			}
			defer eng.Close()

			layout := eng.Layout()
			names, err := blobstore.List(ctx, store, layout.IndexPrefix)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if g.json {
				if names == nil {
					names = []string{}
				}
				return printJSON(w, names)
			}
			for _, n := range names {
				fmt.Fprintln(w, n)
			}
			fmt.Fprintf(w, "total %d\n", len(names))
			return nil
		},
	}
}
