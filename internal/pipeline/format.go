package pipeline

import "strings"

// Page wrappers used in markup mode. Every page after the first carries a
// visible divider.
const (
	firstPageOpen = `<div class="page">`
	nextPageOpen  = `<div class="page page-break" style="margin-top: 10px; border-top: 1px solid #ccc; padding-top: 10px;">`
	pageClose     = `</div>`
)

// Output is the formatted result committed to the output sink.
type Output struct {
	Mode   Mode
	Pages  int
	Markup string // ModeMarkup
	Bytes  []byte // ModeBinary
}

// Format turns a document into the sink payload. In markup mode each page is
// wrapped exactly once, in order. In binary mode the engine's bytes pass
// through unchanged.
func Format(doc *Document, mode Mode) (*Output, error) {
	if doc == nil {
		return nil, ErrEmptyOutput
	}
	switch mode {
	case ModeMarkup:
		return &Output{Mode: mode, Pages: len(doc.Pages), Markup: JoinPages(doc.Pages)}, nil
	case ModeBinary:
		if len(doc.Binary) == 0 {
			return nil, ErrEmptyOutput
		}
		return &Output{Mode: mode, Pages: len(doc.Pages), Bytes: doc.Binary}, nil
	default:
		return nil, ErrInvalidMode
	}
}

// JoinPages concatenates page fragments with their wrappers.
func JoinPages(pages []Page) string {
	var b strings.Builder
	for i, p := range pages {
		if i == 0 {
			b.WriteString(firstPageOpen)
		} else {
			b.WriteString(nextPageOpen)
		}
		b.WriteString(p.Fragment)
		b.WriteString(pageClose)
	}
	return b.String()
}
