package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the pipeline stages.
var (
	ErrEmptySource  = errors.New("source code is empty")
	ErrImageDecode  = errors.New("image decode failed")
	ErrReservedName = errors.New("image identifier collides with a reserved name")
	ErrRender       = errors.New("render failed")
	ErrInvalidMode  = errors.New("invalid render mode")
	ErrEmptyOutput  = errors.New("engine returned no output")
)

// Mode selects the output the engine produces for a unit.
type Mode int

const (
	// ModeMarkup renders one markup fragment per page.
	ModeMarkup Mode = iota
	// ModeBinary renders the whole document as one opaque byte payload (PDF).
	ModeBinary
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeMarkup:
		return "markup"
	case ModeBinary:
		return "binary"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a config value ("markup", "svg", "binary", "pdf") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markup", "svg", "html":
		return ModeMarkup, nil
	case "binary", "pdf":
		return ModeBinary, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected markup or binary)", ErrInvalidMode, s)
	}
}

// Page is one rendered page.
type Page struct {
	Number   int     // 1-based
	Width    float64 // points
	Height   float64 // points
	Fragment string  // self-contained markup for the page
}

// Document is the result of a successful render.
// In ModeMarkup, Pages is populated. In ModeBinary, Binary holds the payload.
type Document struct {
	Pages    []Page
	Binary   []byte
	Warnings []string
}

// Renderer turns a unit into a document. Implementations must be safe for
// concurrent use; the scheduler may run a superseded attempt and its
// replacement at the same time.
type Renderer interface {
	Render(ctx context.Context, unit *Unit, mode Mode) (*Document, error)
}

// RenderError carries the engine's diagnostic. Message is surfaced to the
// user verbatim and is never parsed.
type RenderError struct {
	Message  string
	Warnings []string
	Cause    error // underlying failure, if any (browser errors in binary mode)
}

func (e *RenderError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is(err, ErrRender) match any engine diagnostic, and
// errors.Is match the cause when there is one.
func (e *RenderError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrRender}
	}
	return []error{ErrRender, e.Cause}
}
