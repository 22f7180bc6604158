package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPStore reads blobs from a static HTTP(S) origin.
//
// A blob named "data/locations.json" is fetched with GET <base>/data/locations.json.
// 404 maps to ErrNotFound; any other non-2xx status yields a *StatusError.
type HTTPStore struct {
	base   string
	client *http.Client
	header http.Header
}

// HTTPOption configures an HTTPStore.
type HTTPOption func(*HTTPStore)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPStore) {
		if c != nil {
			s.client = c
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) HTTPOption {
	return func(s *HTTPStore) {
		s.header.Add(key, value)
	}
}

// NewHTTPStore creates a store rooted at baseURL.
func NewHTTPStore(baseURL string, opts ...HTTPOption) *HTTPStore {
	s := &HTTPStore{
		base:   strings.TrimRight(baseURL, "/"),
		client: http.DefaultClient,
		header: make(http.Header),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the absolute URL of a blob.
func (s *HTTPStore) URL(name string) string {
	return s.base + "/" + strings.TrimLeft(name, "/")
}

// ReadAll fetches the whole blob with a single GET.
func (s *HTTPStore) ReadAll(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(name), nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range s.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Name: name, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Open fetches the blob and serves reads from memory.
func (s *HTTPStore) Open(ctx context.Context, name string) (Blob, error) {
	data, err := s.ReadAll(ctx, name)
	if err != nil {
		return nil, err
	}
	return &memoryBlob{data: data}, nil
}
