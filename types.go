package livepreview

import (
	"fmt"

	"github.com/alnah/go-livepreview/internal/pipeline"
)

// Token is the generation counter of the editor. Every edit increments it;
// a render result commits only if its token is still the current one.
type Token uint64

// EditKind names what an edit changed.
type EditKind int

const (
	EditSource EditKind = iota
	EditBibliography
	EditImages
)

// String returns the metric label of the kind.
func (k EditKind) String() string {
	switch k {
	case EditSource:
		return "source"
	case EditBibliography:
		return "bibliography"
	case EditImages:
		return "images"
	default:
		return fmt.Sprintf("edit(%d)", int(k))
	}
}

// Mode selects markup pages or a single binary document.
type Mode = pipeline.Mode

const (
	ModeMarkup = pipeline.ModeMarkup
	ModeBinary = pipeline.ModeBinary
)

// ParseMode maps "markup" or "binary" (and the aliases "html", "svg",
// "pdf") to a Mode.
func ParseMode(s string) (Mode, error) {
	return pipeline.ParseMode(s)
}

// Input is a snapshot of the editor state.
type Input = pipeline.Input

// Output is the formatted payload of a successful render.
type Output = pipeline.Output

// SkippedImage is an image left out of a unit because it did not decode.
type SkippedImage = pipeline.SkippedImage

// Renderer is the typesetting engine contract.
type Renderer = pipeline.Renderer

// RenderError is the engine's diagnostic. Its message is opaque.
type RenderError = pipeline.RenderError

// Result is the outcome of a successful pipeline run.
type Result struct {
	Output   *Output
	Skipped  []SkippedImage
	Warnings []string
	Digest   string // content digest of the compiled unit
}
