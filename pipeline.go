package livepreview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alnah/go-livepreview/internal/engine"
	"github.com/alnah/go-livepreview/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.Renderer = (*engine.Engine)(nil)
	_ runner            = (*Pipeline)(nil)
)

// runner is what the scheduler needs from a Pipeline.
type runner interface {
	Run(ctx context.Context, in Input, mode Mode) (*Result, error)
}

// Pipeline runs one snapshot through assembly, rendering and formatting.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	renderer Renderer
	owned    io.Closer // engine created by NewPipeline, closed by Close
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
}

// NewPipeline creates a pipeline. Without WithRenderer it creates the
// reference engine, which Close releases.
func NewPipeline(opts ...Option) (*Pipeline, error) {
	o := newOptions(opts)
	p := &Pipeline{
		renderer: o.renderer,
		timeout:  o.timeout,
		logger:   o.logger,
		observer: o.observer,
	}
	if p.renderer == nil {
		eng, err := engine.New(engine.WithPDFTimeout(o.timeout), engine.WithStyle(o.style))
		if err != nil {
			return nil, fmt.Errorf("creating engine: %w", err)
		}
		p.renderer = eng
		p.owned = eng
	}
	return p, nil
}

// Run assembles the snapshot, renders it in the given mode and formats the
// result. A blank source returns ErrEmptySource without calling the
// renderer. Engine diagnostics are returned as *RenderError with the
// engine's message unchanged. Images that do not decode are left out and
// listed on the Result. Recovers from internal panics to prevent crashes
// from propagating to callers.
func (p *Pipeline) Run(ctx context.Context, in Input, mode Mode) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	if mode != ModeMarkup && mode != ModeBinary {
		return nil, ErrInvalidMode
	}

	unit, skipped, err := pipeline.Assemble(in)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		p.logger.Warn("image skipped", "id", s.ID, "error", s.Err)
	}
	if len(skipped) > 0 {
		p.observer.ImagesSkipped(len(skipped))
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	doc, err := p.renderer.Render(ctx, unit, mode)
	if err != nil {
		failure := renderFailure(ctx, err)
		if errors.Is(failure, context.DeadlineExceeded) {
			return nil, fmt.Errorf("render timed out after %s: %w", p.timeout, failure)
		}
		return nil, failure
	}
	if doc == nil {
		return nil, &RenderError{Message: pipeline.ErrEmptyOutput.Error()}
	}
	for _, w := range doc.Warnings {
		p.logger.Warn("render warning", "warning", w)
	}

	out, err := pipeline.Format(doc, mode)
	if err != nil {
		return nil, &RenderError{Message: err.Error(), Warnings: doc.Warnings}
	}

	return &Result{
		Output:   out,
		Skipped:  skipped,
		Warnings: doc.Warnings,
		Digest:   unit.Digest(),
	}, nil
}

// Close releases the engine created by NewPipeline.
func (p *Pipeline) Close() error {
	if p.owned != nil {
		return p.owned.Close()
	}
	return nil
}

// renderFailure keeps context errors distinguishable and turns every other
// engine error into an opaque *RenderError.
func renderFailure(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return ctxErr
	}
	var re *RenderError
	if errors.As(err, &re) {
		return re
	}
	return &RenderError{Message: err.Error(), Cause: err}
}
