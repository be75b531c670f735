package livepreview

import (
	"errors"

	"github.com/alnah/go-livepreview/internal/gallery"
	"github.com/alnah/go-livepreview/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	// ErrEmptySource is returned when the trimmed source is empty. The
	// renderer is never invoked for such a snapshot.
	ErrEmptySource = pipeline.ErrEmptySource

	// ErrImageDecode wraps each image left out of a unit. It is never
	// returned by Run; skipped images are reported on the Result.
	ErrImageDecode = pipeline.ErrImageDecode

	// ErrRender matches every *RenderError.
	ErrRender = pipeline.ErrRender

	// ErrStaleResult marks a completion superseded by a newer edit. The
	// scheduler drops such results; the error never reaches the sink.
	ErrStaleResult = errors.New("stale render result")

	// ErrLimitReached is returned when the image identifier space is exhausted.
	ErrLimitReached = gallery.ErrLimitReached

	// ErrInvalidMode is returned for a mode other than ModeMarkup or ModeBinary.
	ErrInvalidMode = pipeline.ErrInvalidMode

	// ErrInternal wraps a panic recovered inside a pipeline run.
	ErrInternal = errors.New("internal error")

	// ErrClosed is returned by Session.Export and by editor writes after
	// Session.Close.
	ErrClosed = errors.New("session is closed")
)
