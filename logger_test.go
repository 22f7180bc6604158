package streetsearch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	logger.LogSearch(ctx, "coffee", 1, 3, false, nil)
	assert.Contains(t, buf.String(), `"msg":"search completed"`)
	assert.Contains(t, buf.String(), `"matches":3`)

	buf.Reset()
	logger.LogSearch(ctx, "coffee", 1, 3, true, nil)
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	buf.Reset()
	logger.LogManifest(ctx, 0, errors.New("boom"))
	assert.Contains(t, buf.String(), `"error":"boom"`)

	buf.Reset()
	logger.WithQuery("tree").WithLocation(7).Info("hello")
	assert.Contains(t, buf.String(), `"query":"tree"`)
	assert.Contains(t, buf.String(), `"location":7`)
}

func TestLogger_Noop(t *testing.T) {
	logger := NoopLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.LogPrefetch(context.Background(), "started", 1, 1)
}
