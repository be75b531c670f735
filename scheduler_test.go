package livepreview

// Notes:
// - fakeTimers replaces time.AfterFunc: armed callbacks run only when the
//   test calls fire(), so debounce windows are deterministic
// - Stale-result tests hold the first attempt inside mockRenderer.block
//   while a newer edit arrives, then release it. Cancelled renders fail with
//   the context error; ignoreCtx keeps a superseded render succeeding
// - One test uses real timers to cover the time.AfterFunc wiring

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-livepreview/internal/store"
)

// ---------------------------------------------------------------------------
// Fake timers
// ---------------------------------------------------------------------------

type fakeTimer struct {
	f       func()
	stopped bool
	fired   bool
}

type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeTimers) afterFunc(_ time.Duration, f func()) stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return &fakeStopper{c: c, t: t}
}

type fakeStopper struct {
	c *fakeTimers
	t *fakeTimer
}

func (s *fakeStopper) Stop() bool {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	active := !s.t.stopped && !s.t.fired
	s.t.stopped = true
	return active
}

// armed returns the number of timers that would still fire.
func (c *fakeTimers) armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fire runs every armed timer synchronously.
func (c *fakeTimers) fire() {
	c.mu.Lock()
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

// fireAll also runs stopped timers, simulating a timer whose Stop lost the
// race against its expiry.
func (c *fakeTimers) fireAll() {
	c.mu.Lock()
	var due []func()
	for _, t := range c.timers {
		if !t.fired {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

type schedulerFixture struct {
	editor   *Editor
	sched    *Scheduler
	sink     *Sink
	renderer *mockRenderer
	timers   *fakeTimers
	observer *recordingObserver
}

func newSchedulerFixture(t *testing.T, r *mockRenderer, opts ...Option) *schedulerFixture {
	t.Helper()
	timers := &fakeTimers{}
	obs := &recordingObserver{}
	p := newTestPipeline(t, r)
	ed := NewEditor(store.NewMemory())
	sink := NewSink()
	all := append([]Option{withAfterFunc(timers.afterFunc), WithObserver(obs)}, opts...)
	sched := newScheduler(ed, p, sink, all...)
	ed.OnEdit(sched.Notify)
	t.Cleanup(func() { _ = sched.Close() })
	return &schedulerFixture{editor: ed, sched: sched, sink: sink, renderer: r, timers: timers, observer: obs}
}

func (f *schedulerFixture) setSource(t *testing.T, src string) {
	t.Helper()
	if err := f.editor.SetSource(context.Background(), src); err != nil {
		t.Fatalf("SetSource() error = %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestScheduler_Debounce
// ---------------------------------------------------------------------------

func TestScheduler_BurstStartsOneAttemptWithLastState(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t, &mockRenderer{})
	for _, src := range []string{"a", "ab", "abc", "abcd", "abcde"} {
		f.setSource(t, src)
	}

	if got := f.timers.armed(); got != 1 {
		t.Fatalf("armed timers = %d, want 1", got)
	}
	f.timers.fire()

	if n := f.renderer.callCount(); n != 1 {
		t.Fatalf("render attempts = %d, want 1", n)
	}
	if got := f.renderer.lastSource(); got != "abcde" {
		t.Errorf("rendered %q, want the last edit", got)
	}
	out := f.sink.Output()
	if out == nil || !strings.Contains(out.Markup, "abcde") {
		t.Errorf("sink output = %+v", out)
	}
	if f.sink.Current().Token != 5 {
		t.Errorf("committed token = %d, want 5", f.sink.Current().Token)
	}
}

func TestScheduler_SupersededTimerDoesNothing(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t, &mockRenderer{})
	f.setSource(t, "first")
	f.setSource(t, "second")

	// Both callbacks run: the first one's token is no longer current.
	f.timers.fireAll()

	if n := f.renderer.callCount(); n != 1 {
		t.Errorf("render attempts = %d, want 1", n)
	}
	if f.renderer.lastSource() != "second" {
		t.Errorf("rendered %q", f.renderer.lastSource())
	}
}

func TestScheduler_NotifyReturnsIncreasingTokens(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t, &mockRenderer{})
	a := f.sched.Notify(EditSource)
	b := f.sched.Notify(EditBibliography)
	c := f.sched.Notify(EditImages)
	if !(a < b && b < c) || f.sched.Token() != c {
		t.Errorf("tokens = %d %d %d, current %d", a, b, c, f.sched.Token())
	}
	if len(f.observer.edits) != 3 || f.observer.edits[1] != EditBibliography {
		t.Errorf("observer edits = %v", f.observer.edits)
	}
}

// ---------------------------------------------------------------------------
// TestScheduler_Stale
// ---------------------------------------------------------------------------

func TestScheduler_StaleCompletionIsDropped(t *testing.T) {
	t.Parallel()

	r := &mockRenderer{block: make(chan struct{}), started: make(chan struct{}, 2)}
	f := newSchedulerFixture(t, r)

	f.setSource(t, "old")
	done := make(chan struct{})
	go func() {
		f.timers.fire()
		close(done)
	}()
	<-r.started
	if !f.sched.Rendering() {
		t.Error("Rendering() should be true while the attempt is in flight")
	}

	// A newer edit arrives while "old" is rendering.
	f.setSource(t, "new")
	if f.sched.Rendering() {
		t.Error("Rendering() should be false while only a superseded attempt runs")
	}
	close(r.block)
	<-done

	if f.sink.Output() != nil || f.sink.Error() != "" {
		t.Fatalf("stale result reached the sink: %+v", f.sink.Current())
	}
	if f.observer.stale != 1 {
		t.Errorf("stale discards = %d, want 1", f.observer.stale)
	}
	if f.sched.Rendering() {
		t.Error("Rendering() should be false after the stale attempt returned")
	}

	f.timers.fire()
	<-r.started
	if out := f.sink.Output(); out == nil || !strings.Contains(out.Markup, "new") {
		t.Errorf("current attempt should commit, got %+v", f.sink.Current())
	}
}

func TestScheduler_SupersededAttemptIsCancelled(t *testing.T) {
	t.Parallel()

	r := &mockRenderer{block: make(chan struct{}), started: make(chan struct{}, 2)}
	f := newSchedulerFixture(t, r)

	f.setSource(t, "slow")
	done := make(chan struct{})
	go func() {
		f.timers.fire()
		close(done)
	}()
	<-r.started

	// Newer edit renders and commits while the old attempt is blocked.
	r.mu.Lock()
	r.block = nil
	r.mu.Unlock()
	f.setSource(t, "fresh")
	f.timers.fire()
	<-r.started
	<-done

	if out := f.sink.Output(); out == nil || !strings.Contains(out.Markup, "fresh") || f.sink.Error() != "" {
		t.Fatalf("fresh success should survive the cancelled attempt, got %+v", f.sink.Current())
	}
	if f.observer.stale != 1 || f.observer.failed != 1 {
		t.Errorf("stale = %d, failed = %d; want the cancelled attempt failed and discarded", f.observer.stale, f.observer.failed)
	}

	r.mu.Lock()
	ctxErrs := append([]error(nil), r.ctxErrs...)
	r.mu.Unlock()
	if len(ctxErrs) == 0 || !errors.Is(ctxErrs[0], context.Canceled) {
		t.Errorf("superseded attempt should be cancelled, ctx errors = %v", ctxErrs)
	}
}

func TestScheduler_StaleSuccessKeepsFresherError(t *testing.T) {
	t.Parallel()

	r := &mockRenderer{block: make(chan struct{}), started: make(chan struct{}, 1), ignoreCtx: true}
	f := newSchedulerFixture(t, r)

	f.setSource(t, "slow but valid")
	done := make(chan struct{})
	go func() {
		f.timers.fire()
		close(done)
	}()
	<-r.started

	// The newer edit fails before reaching the renderer.
	f.setSource(t, "   ")
	f.timers.fire()
	if f.sink.Error() != ErrEmptySource.Error() {
		t.Fatalf("Error() = %q, want %q", f.sink.Error(), ErrEmptySource.Error())
	}

	close(r.block)
	<-done

	if f.sink.Output() != nil || f.sink.Error() != ErrEmptySource.Error() {
		t.Errorf("stale success overwrote the fresher error: %+v", f.sink.Current())
	}
	if f.observer.stale != 1 {
		t.Errorf("stale discards = %d, want 1", f.observer.stale)
	}
}

// ---------------------------------------------------------------------------
// TestScheduler_Outcomes
// ---------------------------------------------------------------------------

func TestScheduler_EmptySourceCommitsFailure(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t, &mockRenderer{})
	f.setSource(t, "   ")
	f.timers.fire()

	if f.renderer.callCount() != 0 {
		t.Error("renderer must not run for a blank source")
	}
	if f.sink.Error() != ErrEmptySource.Error() {
		t.Errorf("Error() = %q, want %q", f.sink.Error(), ErrEmptySource.Error())
	}
	if f.sink.Output() != nil {
		t.Error("Output() should be empty after a failure")
	}
}

func TestScheduler_SinkMutualExclusion(t *testing.T) {
	t.Parallel()

	r := &mockRenderer{}
	f := newSchedulerFixture(t, r)

	f.setSource(t, "ok")
	f.timers.fire()
	if f.sink.Output() == nil || f.sink.Error() != "" {
		t.Fatalf("after success: %+v", f.sink.Current())
	}

	r.mu.Lock()
	r.err = errors.New("unknown function: foo")
	r.mu.Unlock()
	f.setSource(t, "#foo()")
	f.timers.fire()
	if f.sink.Output() != nil || f.sink.Error() != "unknown function: foo" {
		t.Fatalf("after failure: %+v", f.sink.Current())
	}

	r.mu.Lock()
	r.err = nil
	r.mu.Unlock()
	f.setSource(t, "ok again")
	f.timers.fire()
	if f.sink.Output() == nil || f.sink.Error() != "" {
		t.Fatalf("after recovery: %+v", f.sink.Current())
	}
}

func TestScheduler_PanicDoesNotStickRendering(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t, &mockRenderer{panicMsg: "engine bug"})
	f.setSource(t, "x")
	f.timers.fire()

	if f.sched.Rendering() {
		t.Error("Rendering() stuck after a panic")
	}
	if !strings.Contains(f.sink.Error(), "engine bug") {
		t.Errorf("Error() = %q", f.sink.Error())
	}

	// The next edit still triggers an attempt.
	f.setSource(t, "y")
	if f.timers.armed() != 1 {
		t.Error("a new edit should arm the timer after a failure")
	}
}

func TestScheduler_SkippedImagesOnOutcome(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t, &mockRenderer{})
	f.editor.SetImages(map[string]string{"001": pngBase64, "002": "%%%"})
	f.setSource(t, "x")
	f.timers.fire()

	if got := f.sink.Current().Skipped; len(got) != 1 || got[0] != "002" {
		t.Errorf("Skipped = %v, want [002]", got)
	}
}

func TestScheduler_BinaryMode(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t, &mockRenderer{}, WithMode(ModeBinary))
	f.setSource(t, "doc")
	f.timers.fire()

	out := f.sink.Output()
	if out == nil || string(out.Bytes) != "%PDF-doc" {
		t.Errorf("Output() = %+v", out)
	}
}

// ---------------------------------------------------------------------------
// TestScheduler_FlushAndClose
// ---------------------------------------------------------------------------

func TestScheduler_Flush(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t, &mockRenderer{})
	f.setSource(t, "now")
	tok := f.sched.Flush()

	if f.timers.armed() != 0 {
		t.Error("Flush should disarm the pending timer")
	}
	if f.renderer.callCount() != 1 || f.sink.Current().Token != tok {
		t.Errorf("calls = %d, committed token = %d, want %d", f.renderer.callCount(), f.sink.Current().Token, tok)
	}
}

func TestScheduler_FlushDuringTimerAttemptCommitsOnce(t *testing.T) {
	t.Parallel()

	r := &mockRenderer{block: make(chan struct{}), started: make(chan struct{}, 2)}
	f := newSchedulerFixture(t, r)
	updates, cancel := f.sink.Subscribe()
	defer cancel()

	f.setSource(t, "hello")
	timerDone := make(chan struct{})
	go func() {
		f.timers.fire()
		close(timerDone)
	}()
	<-r.started

	flushed := make(chan Token)
	go func() { flushed <- f.sched.Flush() }()

	close(r.block)
	<-timerDone
	tok := <-flushed

	if n := r.callCount(); n != 1 {
		t.Errorf("render attempts = %d, want 1", n)
	}
	if cur := f.sink.Current(); !cur.Success() || cur.Token != tok {
		t.Errorf("sink = %+v, want the success of token %d", cur, tok)
	}
	select {
	case o := <-updates:
		if !o.Success() {
			t.Errorf("committed %+v", o)
		}
	default:
		t.Fatal("no commit received")
	}
	if f.observer.started != 1 || f.observer.finished != 1 {
		t.Errorf("attempts started = %d, finished = %d; want one attempt for the token",
			f.observer.started, f.observer.finished)
	}
}

func TestScheduler_FlushAfterCommitIsNoop(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t, &mockRenderer{})
	f.setSource(t, "once")
	f.timers.fire()
	f.sched.Flush()

	if n := f.renderer.callCount(); n != 1 {
		t.Errorf("render attempts = %d, want 1", n)
	}
}

func TestScheduler_Close(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t, &mockRenderer{})
	f.setSource(t, "pending")
	before := f.sched.Token()

	if err := f.sched.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if f.timers.armed() != 0 {
		t.Error("Close should stop the timer")
	}
	if got := f.sched.Notify(EditSource); got != before {
		t.Errorf("Notify after Close = %d, want %d", got, before)
	}
	f.sched.Flush()
	f.timers.fireAll()
	if f.renderer.callCount() != 0 {
		t.Error("no attempt may run after Close")
	}
	if err := f.sched.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestScheduler_CloseCancelsInFlight(t *testing.T) {
	t.Parallel()

	r := &mockRenderer{block: make(chan struct{}), started: make(chan struct{}, 1)}
	f := newSchedulerFixture(t, r)
	f.setSource(t, "slow")

	done := make(chan struct{})
	go func() {
		f.timers.fire()
		close(done)
	}()
	<-r.started

	if err := f.sched.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	<-done
	if f.sink.Output() != nil || f.sink.Error() != "" {
		t.Errorf("cancelled attempt reached the sink: %+v", f.sink.Current())
	}
}

// ---------------------------------------------------------------------------
// TestScheduler_RealTimers
// ---------------------------------------------------------------------------

func TestScheduler_RealTimers(t *testing.T) {
	t.Parallel()

	r := &mockRenderer{}
	p := newTestPipeline(t, r)
	ed := NewEditor(store.NewMemory())
	sink := NewSink()
	sched := NewScheduler(ed, p, sink, WithDelay(50*time.Millisecond))
	ed.OnEdit(sched.Notify)
	t.Cleanup(func() { _ = sched.Close() })

	updates, cancel := sink.Subscribe()
	defer cancel()

	ctx := context.Background()
	_ = ed.SetSource(ctx, "one")
	_ = ed.SetSource(ctx, "two")
	_ = ed.SetSource(ctx, "three")

	select {
	case o := <-updates:
		if o.Output == nil || !strings.Contains(o.Output.Markup, "three") {
			t.Errorf("committed %+v", o)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no commit within 2s")
	}
	if n := r.callCount(); n != 1 {
		t.Errorf("render attempts = %d, want 1", n)
	}
}
