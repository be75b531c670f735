package livepreview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/alnah/go-livepreview/internal/store"
)

// Session wires one editor to the scheduler, pipeline and sink.
// Create with NewSession and release with Close.
type Session struct {
	Editor    *Editor
	Scheduler *Scheduler
	Pipeline  *Pipeline
	Sink      *Sink

	once   sync.Once
	closed atomic.Bool
}

// NewSession loads the editor state from s and schedules a first render
// of it. Options configure every component.
func NewSession(ctx context.Context, s store.Store, opts ...Option) (*Session, error) {
	p, err := NewPipeline(opts...)
	if err != nil {
		return nil, err
	}

	ed := NewEditor(s, opts...)
	if err := ed.Load(ctx); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("loading editor state: %w", err)
	}

	sink := NewSink()
	sched := NewScheduler(ed, p, sink, opts...)
	ed.OnEdit(sched.Notify)
	sched.Notify(EditSource)

	return &Session{Editor: ed, Scheduler: sched, Pipeline: p, Sink: sink}, nil
}

// Export renders the current state in binary mode, bypassing the scheduler
// and the sink. It returns ErrClosed after Close.
func (s *Session) Export(ctx context.Context) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	res, err := s.Pipeline.Run(ctx, s.Editor.Snapshot(), ModeBinary)
	if err != nil {
		return nil, err
	}
	return res.Output.Bytes, nil
}

// Close stops the scheduler and releases the engine. Later edits and
// exports fail with ErrClosed. The store is left open; its owner closes it.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		s.Editor.close()
		err = errors.Join(s.Scheduler.Close(), s.Pipeline.Close())
	})
	return err
}
