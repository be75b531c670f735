package livepreview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Snapshotter provides a consistent copy of the editor state.
type Snapshotter interface {
	Snapshot() Input
}

// Scheduler debounces edits and renders the latest state. Every Notify
// bumps the generation token and re-arms the delay; when the delay expires
// with the token unchanged, one attempt runs. Only an attempt whose token
// is still current when it completes may commit to the sink. A superseded
// attempt has its context cancelled and its result dropped.
type Scheduler struct {
	mu        sync.Mutex
	token     Token
	timer     stopper
	rendering bool
	inflight  Token              // token of the attempt owning cancel
	cancel    context.CancelFunc // cancels the in-flight attempt
	done      chan struct{}      // closed when the in-flight attempt returns
	attempted Token              // token of the latest attempt started
	hasRun    bool               // whether any attempt started
	closed    bool
	wg        sync.WaitGroup

	state     Snapshotter
	run       runner
	sink      *Sink
	delay     time.Duration
	mode      Mode
	logger    *slog.Logger
	observer  Observer
	afterFunc func(time.Duration, func()) stopper
}

// NewScheduler creates a scheduler rendering state through p into sink.
func NewScheduler(state Snapshotter, p *Pipeline, sink *Sink, opts ...Option) *Scheduler {
	return newScheduler(state, p, sink, opts...)
}

func newScheduler(state Snapshotter, r runner, sink *Sink, opts ...Option) *Scheduler {
	o := newOptions(opts)
	return &Scheduler{
		state:     state,
		run:       r,
		sink:      sink,
		delay:     o.delay,
		mode:      o.mode,
		logger:    o.logger,
		observer:  o.observer,
		afterFunc: o.afterFunc,
	}
}

// Notify records an edit and re-arms the debounce timer. It returns the new
// token. After Close it does nothing and returns the last token.
func (s *Scheduler) Notify(kind EditKind) Token {
	s.mu.Lock()
	if s.closed {
		t := s.token
		s.mu.Unlock()
		return t
	}
	s.token++
	t := s.token
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.afterFunc(s.delay, func() { s.fire(t) })
	s.mu.Unlock()

	s.observer.EditNotified(kind)
	return t
}

// Flush runs an attempt for the current token now and waits for it. When
// an attempt for that token already started, Flush waits for it instead of
// starting another one, so a token commits at most once.
func (s *Scheduler) Flush() Token {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	t := s.token
	s.mu.Unlock()

	s.fire(t)
	return t
}

// Token returns the current generation token.
func (s *Scheduler) Token() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Rendering reports whether an attempt for the current token is in flight.
// A superseded attempt still running does not count.
func (s *Scheduler) Rendering() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendering && s.inflight == s.token
}

// Close stops the timer, cancels in-flight work and waits for it to
// return. Later Notify and Flush calls are no-ops.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// fire runs the attempt for token t if t is still current. A token gets at
// most one attempt: if one already started for t, fire waits for it to
// return instead.
func (s *Scheduler) fire(t Token) {
	s.mu.Lock()
	if s.closed || t != s.token {
		s.mu.Unlock()
		s.logger.Debug("debounced attempt superseded", "token", t)
		return
	}
	if s.hasRun && s.attempted == t {
		var done chan struct{}
		if s.rendering && s.inflight == t {
			done = s.done
		}
		s.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	}
	if s.cancel != nil {
		// The previous attempt can no longer commit; stop its work.
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.inflight = t
	s.done = done
	s.attempted = t
	s.hasRun = true
	s.rendering = true
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer close(done)
	defer cancel()
	s.attempt(ctx, t)
}

func (s *Scheduler) attempt(ctx context.Context, t Token) {
	s.logger.Debug("render attempt started", "token", t, "mode", s.mode)
	s.observer.AttemptStarted(t)
	start := time.Now()

	in := s.state.Snapshot()
	res, err := s.safeRun(ctx, in)
	elapsed := time.Since(start)
	s.observer.AttemptFinished(t, s.mode, elapsed, err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight == t {
		s.rendering = false
		s.cancel = nil
		s.done = nil
	}
	if s.closed || t != s.token {
		s.logger.Debug("stale result discarded", "token", t, "current", s.token, "error", ErrStaleResult)
		s.observer.StaleDiscarded(t)
		return
	}

	if err != nil {
		s.logger.Warn("render failed", "token", t, "error", err, "duration", elapsed)
		s.sink.commit(Outcome{Token: t, Message: err.Error(), Warnings: warningsOf(err)})
		return
	}

	s.logger.Debug("render committed", "token", t, "pages", res.Output.Pages, "duration", elapsed)
	s.sink.commit(Outcome{
		Token:    t,
		Output:   res.Output,
		Warnings: res.Warnings,
		Skipped:  skippedIDs(res.Skipped),
	})
}

// safeRun converts a panic of the runner into a failure so the rendering
// flag is always cleared.
func (s *Scheduler) safeRun(ctx context.Context, in Input) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()
	res, err = s.run.Run(ctx, in, s.mode)
	if err == nil && (res == nil || res.Output == nil) {
		err = errors.New("renderer returned no output")
	}
	return res, err
}

func warningsOf(err error) []string {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Warnings
	}
	return nil
}

func skippedIDs(skipped []SkippedImage) []string {
	if len(skipped) == 0 {
		return nil
	}
	ids := make([]string, len(skipped))
	for i, s := range skipped {
		ids[i] = s.ID
	}
	return ids
}
