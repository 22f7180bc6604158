// Package resource governs background fetching.
//
// The Controller manages three budgets for speculative work such as
// prefetching location-detail shards:
//
//   - Workers: a weighted semaphore bounding concurrent background fetches
//   - Bandwidth: a token bucket limiting background bytes per second
//   - Memory: a running total of bytes held by prefetched payloads, with an
//     optional hard cap (non-blocking, fail-fast)
//
// Foreground work (a user selecting a location) never waits on the
// controller.
//
//	rc := resource.NewController(resource.Config{
//	    MaxBackgroundWorkers: 4,
//	    IOLimitBytesPerSec:   8 << 20,
//	})
//
//	if err := rc.AcquireBackground(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseBackground()
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
