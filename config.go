package streetsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/streetsearch/blobstore"
	miniostore "github.com/hupe1980/streetsearch/blobstore/minio"
	s3store "github.com/hupe1980/streetsearch/blobstore/s3"
	"github.com/hupe1980/streetsearch/codec"
	"github.com/hupe1980/streetsearch/internal/palette"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"
)

// Store types accepted by StoreConfig.Type.
const (
	StoreHTTP   = "http"
	StoreLocal  = "local"
	StoreS3     = "s3"
	StoreMinIO  = "minio"
	StoreMemory = "memory"
)

// ErrInvalidConfig is returned for configurations that cannot be applied.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the file form of the engine options.
//
// Example:
//
//	store:
//	  type: http
//	  url: https://cdn.example.com/
//	compression: zstd
//	log_level: debug
//	debounce: 300ms
//	prefetch:
//	  max_matches: 1000
type Config struct {
	Store StoreConfig `yaml:"store"`

	Layout      *LayoutConfig `yaml:"layout,omitempty"`
	Codec       string        `yaml:"codec,omitempty"`
	Compression string        `yaml:"compression,omitempty"`

	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`

	FetchConcurrency int           `yaml:"fetch_concurrency,omitempty"`
	Debounce         time.Duration `yaml:"debounce,omitempty"`
	HoverDelay       time.Duration `yaml:"hover_delay,omitempty"`

	Prefetch PrefetchConfig `yaml:"prefetch,omitempty"`

	Theme         string         `yaml:"theme,omitempty"`
	SegmentThemes map[int]string `yaml:"segment_themes,omitempty"`

	Suggest SuggestConfig `yaml:"suggest,omitempty"`

	Seed *uint64 `yaml:"seed,omitempty"`
}

// StoreConfig selects and configures the blob backend.
type StoreConfig struct {
	Type string `yaml:"type"`

	// URL is the base URL of an http store.
	URL     string            `yaml:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout time.Duration     `yaml:"timeout,omitempty"`

	// Path is the root directory of a local store.
	Path string `yaml:"path,omitempty"`

	// Bucket, Prefix, Region and Endpoint configure s3 and minio stores.
	Bucket   string `yaml:"bucket,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`

	// AccessKey and SecretKey are used by minio stores. Empty keys fall back
	// to the MINIO_ACCESS_KEY and MINIO_SECRET_KEY environment variables.
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Secure    bool   `yaml:"secure,omitempty"`
}

// LayoutConfig overrides blob names. Empty fields keep the defaults.
type LayoutConfig struct {
	Manifest  string `yaml:"manifest,omitempty"`
	Locations string `yaml:"locations,omitempty"`
	Index     string `yaml:"index,omitempty"`
	Detail    string `yaml:"detail,omitempty"`
}

// PrefetchConfig configures detail prefetch.
type PrefetchConfig struct {
	Disabled    bool  `yaml:"disabled,omitempty"`
	MaxMatches  int   `yaml:"max_matches,omitempty"`
	MaxShards   int   `yaml:"max_shards,omitempty"`
	Workers     int64 `yaml:"workers,omitempty"`
	BytesPerSec int64 `yaml:"bytes_per_sec,omitempty"`
	MemoryBytes int64 `yaml:"memory_bytes,omitempty"`
}

// SuggestConfig configures suggestions.
type SuggestConfig struct {
	MinCount int `yaml:"min_count,omitempty"`
	Limit    int `yaml:"limit,omitempty"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a YAML config.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for values that cannot be applied.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Store.Type) {
	case StoreHTTP:
		if c.Store.URL == "" {
			errs = append(errs, errors.New("store.url is required for http stores"))
		}
	case StoreLocal:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for local stores"))
		}
	case StoreS3:
		if c.Store.Bucket == "" {
			errs = append(errs, errors.New("store.bucket is required for s3 stores"))
		}
	case StoreMinIO:
		if c.Store.Bucket == "" || c.Store.Endpoint == "" {
			errs = append(errs, errors.New("store.bucket and store.endpoint are required for minio stores"))
		}
	case StoreMemory:
	case "":
		errs = append(errs, errors.New("store.type is required"))
	default:
		errs = append(errs, fmt.Errorf("unknown store.type %q", c.Store.Type))
	}

	if _, ok := codec.ByName(c.Codec); !ok {
		errs = append(errs, fmt.Errorf("unknown codec %q", c.Codec))
	}
	if _, err := codec.ParseCompression(c.Compression); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	if c.Theme != "" {
		if _, ok := palette.Lookup(c.Theme); !ok {
			errs = append(errs, fmt.Errorf("unknown theme %q", c.Theme))
		}
	}
	if c.Debounce < 0 || c.HoverDelay < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log_level %q", s)
	}
	return level, nil
}

// Options converts the config into engine options.
func (c *Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cd, _ := codec.ByName(c.Codec)
	comp, _ := codec.ParseCompression(c.Compression)
	level, _ := parseLevel(c.LogLevel)

	logger := NewTextLogger(level)
	if c.LogFormat == "json" {
		logger = NewJSONLogger(level)
	}

	layout := DefaultLayout()
	if l := c.Layout; l != nil {
		if l.Manifest != "" {
			layout.ManifestPath = l.Manifest
		}
		if l.Locations != "" {
			layout.LocationsPath = l.Locations
		}
		if l.Index != "" {
			layout.IndexPrefix = l.Index
		}
		if l.Detail != "" {
			layout.DetailPrefix = l.Detail
		}
	}

	opts := []Option{
		WithLogger(logger),
		WithCodec(cd),
		WithLayout(layout),
		// After WithLayout so that the suffix follows the compression.
		WithCompression(comp),
		WithFetchConcurrency(c.FetchConcurrency),
		WithEagerPrefetch(!c.Prefetch.Disabled),
		WithPrefetchCeilings(c.Prefetch.MaxMatches, c.Prefetch.MaxShards),
		WithPrefetchLimits(c.Prefetch.Workers, c.Prefetch.BytesPerSec, c.Prefetch.MemoryBytes),
		WithSuggestions(c.Suggest.MinCount, c.Suggest.Limit),
	}
	if c.Debounce > 0 {
		opts = append(opts, WithDebounce(c.Debounce))
	}
	if c.HoverDelay > 0 {
		opts = append(opts, WithHoverDelay(c.HoverDelay))
	}
	if c.Theme != "" {
		opts = append(opts, WithTheme(c.Theme))
	}
	for seg, id := range c.SegmentThemes {
		opts = append(opts, WithSegmentTheme(seg, id))
	}
	if c.Seed != nil {
		opts = append(opts, WithSeed(*c.Seed))
	}
	return opts, nil
}

// OpenStore creates the configured blob store.
func (c *Config) OpenStore(ctx context.Context) (blobstore.BlobStore, error) {
	sc := c.Store
	switch strings.ToLower(sc.Type) {
	case StoreHTTP:
		var opts []blobstore.HTTPOption
		if sc.Timeout > 0 {
			opts = append(opts, blobstore.WithHTTPClient(&http.Client{Timeout: sc.Timeout}))
		}
		for k, v := range sc.Headers {
			opts = append(opts, blobstore.WithHeader(k, v))
		}
		return blobstore.NewHTTPStore(sc.URL, opts...), nil

	case StoreLocal:
		return blobstore.NewLocalStore(sc.Path), nil

	case StoreMemory:
		return blobstore.NewMemoryStore(), nil

	case StoreS3:
		var opts []s3store.Option
		if sc.Prefix != "" {
			opts = append(opts, s3store.WithPrefix(sc.Prefix))
		}
		if sc.Region != "" {
			opts = append(opts, s3store.WithRegion(sc.Region))
		}
		if sc.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(sc.Endpoint))
		}
		return s3store.New(ctx, sc.Bucket, opts...)

	case StoreMinIO:
		access, secret := sc.AccessKey, sc.SecretKey
		if access == "" {
			access = os.Getenv("MINIO_ACCESS_KEY")
		}
		if secret == "" {
			secret = os.Getenv("MINIO_SECRET_KEY")
		}
		client, err := minio.New(sc.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(access, secret, ""),
			Secure: sc.Secure,
			Region: sc.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniostore.NewStore(client, sc.Bucket, sc.Prefix), nil

	default:
		return nil, fmt.Errorf("%w: unknown store.type %q", ErrInvalidConfig, sc.Type)
	}
}
