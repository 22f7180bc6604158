package streetsearch

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Session runs live searches for a stream of query edits.
//
// Submissions are debounced; every submission starts a new generation and a
// result is published only if its generation is still the newest when the
// search completes. Superseded results are dropped.
type Session struct {
	eng      *Engine
	debounce time.Duration
	results  chan *Result

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
	timer  *time.Timer

	generation atomic.Uint64
	latest     atomic.Pointer[Result]
	superseded atomic.Int64
}

type sessionOptions struct {
	debounce time.Duration
	buffer   int
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

// WithSessionDebounce overrides the engine's debounce for one session.
func WithSessionDebounce(d time.Duration) SessionOption {
	return func(o *sessionOptions) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithResultBuffer sets the capacity of the results channel. When the
// channel is full the oldest unread result is replaced.
func WithResultBuffer(n int) SessionOption {
	return func(o *sessionOptions) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// NewSession creates a live search session.
func (e *Engine) NewSession(optFns ...SessionOption) *Session {
	o := sessionOptions{
		debounce: e.opts.debounce,
		buffer:   1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		eng:      e,
		debounce: o.debounce,
		results:  make(chan *Result, o.buffer),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit schedules a search for raw and returns its generation.
// A blank query publishes an empty result immediately.
func (s *Session) Submit(raw string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.generation.Load()
	}

	gen := s.generation.Add(1)
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if strings.TrimSpace(raw) == "" {
		res := emptyResult(raw)
		res.Generation = gen
		s.deliverLocked(res)
		return gen
	}

	s.timer = time.AfterFunc(s.debounce, func() {
		if !s.track() {
			return
		}
		defer s.wg.Done()
		s.run(gen, raw)
	})
	return gen
}

func (s *Session) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Session) run(gen uint64, raw string) {
	if gen != s.generation.Load() {
		s.drop()
		return
	}

	res, err := s.eng.search(s.ctx, raw)
	if err != nil {
		if s.ctx.Err() == nil {
			s.eng.logger.WarnContext(s.ctx, "live search failed", "query", raw, "generation", gen, "error", err)
		}
		return
	}
	res.Generation = gen

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation.Load() {
		s.drop()
		return
	}
	s.deliverLocked(res)
}

func (s *Session) drop() {
	s.superseded.Add(1)
	s.eng.metrics.RecordSuperseded()
}

// deliverLocked publishes res. s.mu must be held.
func (s *Session) deliverLocked(res *Result) {
	s.latest.Store(res)
	s.eng.publish(s.ctx, res)

	select {
	case s.results <- res:
		return
	default:
	}
	// Replace the oldest unread result.
	select {
	case <-s.results:
	default:
	}
	select {
	case s.results <- res:
	default:
	}
}

// Results returns the channel results are published on. It is closed by
// Close.
func (s *Session) Results() <-chan *Result {
	return s.results
}

// Latest returns the newest published result, or nil.
func (s *Session) Latest() *Result {
	return s.latest.Load()
}

// Generation returns the newest generation submitted.
func (s *Session) Generation() uint64 {
	return s.generation.Load()
}

// Superseded returns how many results were dropped because a newer
// submission arrived.
func (s *Session) Superseded() int64 {
	return s.superseded.Load()
}

// Close stops pending submissions, waits for running searches and closes
// the results channel. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	close(s.results)
	return nil
}
