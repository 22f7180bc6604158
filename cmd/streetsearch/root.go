package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/streetsearch"
	"github.com/hupe1980/streetsearch/blobstore"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	config      string
	storeType   string
	url         string
	path        string
	bucket      string
	prefix      string
	region      string
	endpoint    string
	compression string
	logLevel    string
	timeout     time.Duration
	json        bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "streetsearch",
		Short:         "Query a sharded street-level tag index",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.config, "config", "", "YAML config file")
	pf.StringVar(&g.storeType, "store", "", "store type: http, local, s3 or minio")
	pf.StringVar(&g.url, "url", "", "base URL of an http store")
	pf.StringVar(&g.path, "path", "", "root directory of a local store")
	pf.StringVar(&g.bucket, "bucket", "", "bucket of an s3 or minio store")
	pf.StringVar(&g.prefix, "prefix", "", "key prefix of an s3 or minio store")
	pf.StringVar(&g.region, "region", "", "region of an s3 or minio store")
	pf.StringVar(&g.endpoint, "endpoint", "", "endpoint of an s3 or minio store")
	pf.StringVar(&g.compression, "compression", "", "payload compression: none, zstd, lz4 or gzip")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.DurationVar(&g.timeout, "timeout", 30*time.Second, "overall command timeout")
	pf.BoolVar(&g.json, "json", false, "print JSON")

	cmd.AddCommand(
		newSearchCmd(g),
		newSuggestCmd(g),
		newSelectCmd(g),
		newShardsCmd(g),
	)
	return cmd
}

// loadConfig merges the config file with command-line overrides.
func (g *globalFlags) loadConfig() (*streetsearch.Config, error) {
	cfg := &streetsearch.Config{LogLevel: "warn"}
	if g.config != "" {
		var err error
		if cfg, err = streetsearch.LoadConfig(g.config); err != nil {
			return nil, err
		}
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Store.URL, g.url)
	set(&cfg.Store.Path, g.path)
	set(&cfg.Store.Bucket, g.bucket)
	set(&cfg.Store.Prefix, g.prefix)
	set(&cfg.Store.Region, g.region)
	set(&cfg.Store.Endpoint, g.endpoint)
	set(&cfg.Compression, g.compression)
	set(&cfg.LogLevel, g.logLevel)
	set(&cfg.Store.Type, g.storeType)

	if cfg.Store.Type == "" {
		switch {
		case g.url != "":
			cfg.Store.Type = streetsearch.StoreHTTP
		case g.path != "":
			cfg.Store.Type = streetsearch.StoreLocal
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (g *globalFlags) openStore(ctx context.Context) (*streetsearch.Config, blobstore.BlobStore, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

// openEngine creates an engine with the location catalog loaded.
func (g *globalFlags) openEngine(ctx context.Context) (*streetsearch.Engine, error) {
	cfg, store, err := g.openStore(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	// Eager prefetch only pays off for interactive use.
	opts = append(opts, streetsearch.WithEagerPrefetch(false))

	eng, err := streetsearch.New(store, opts...)
	if err != nil {
		return nil, err
	}
	if err := eng.LoadLocations(ctx); err != nil {
		_ = eng.Close()
		return nil, fmt.Errorf("load locations: %w", err)
	}
	return eng, nil
}

func (g *globalFlags) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if g.timeout > 0 {
		return context.WithTimeout(ctx, g.timeout)
	}
	return context.WithCancel(ctx)
}
