package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/alnah/go-livepreview/internal/assets"
	"github.com/alnah/go-livepreview/internal/pipeline"
	"github.com/alnah/go-livepreview/internal/syntax"
)

// DefaultPDFTimeout bounds a single PDF export when the caller sets no deadline.
const DefaultPDFTimeout = 30 * time.Second

// pageFragment wraps the HTML of one page.
const pageFragment = `<section class="typst-page" data-page="%d" style="width: %gpt; min-height: %gpt;">%s</section>`

var _ pipeline.Renderer = (*Engine)(nil)

// Engine is the reference renderer: it translates the syntax tree of a
// unit to HTML pages and prints them to PDF in binary mode.
// It is safe for concurrent use. Call Close to release the browser.
type Engine struct {
	html       *htmlConverter
	pdf        pdfConverter
	style      string
	printPage  *template.Template
	pdfTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithStyle replaces the embedded page stylesheet used for PDF export.
func WithStyle(css string) Option {
	return func(e *Engine) {
		e.style = css
	}
}

// WithPDFTimeout sets the page load timeout of PDF export.
func WithPDFTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.pdfTimeout = d
		}
	}
}

// withPDFConverter injects a converter (for testing).
func withPDFConverter(c pdfConverter) Option {
	return func(e *Engine) {
		e.pdf = c
	}
}

// New creates an Engine. The browser is only launched by the first export.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		html:       newHTMLConverter(),
		pdfTimeout: DefaultPDFTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.style == "" {
		css, err := assets.LoadStyle(assets.DefaultStyleName)
		if err != nil {
			return nil, fmt.Errorf("loading page style: %w", err)
		}
		e.style = css
	}

	src, err := assets.LoadTemplate(assets.PrintTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading print template: %w", err)
	}
	e.printPage, err = template.New(assets.PrintTemplateName).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing print template: %w", err)
	}

	if e.pdf == nil {
		e.pdf = newRodConverter(e.pdfTimeout)
	}
	return e, nil
}

// Render compiles the unit. Diagnostics are returned as *pipeline.RenderError;
// context cancellation is returned unchanged.
func (e *Engine) Render(ctx context.Context, unit *pipeline.Unit, mode pipeline.Mode) (*pipeline.Document, error) {
	if mode != pipeline.ModeMarkup && mode != pipeline.ModeBinary {
		return nil, pipeline.ErrInvalidMode
	}
	if unit == nil {
		return nil, pipeline.ErrEmptySource
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := newTranslator(unit, func(md string) (string, error) {
		return e.html.toHTML(ctx, md)
	})
	drafts, err := t.translate(syntax.Parse(unit.Source()))
	if err != nil {
		return nil, failure(err, t.warnings)
	}

	doc := &pipeline.Document{Warnings: t.warnings}
	for i, d := range drafts {
		body, err := t.render(d.markdown)
		if err != nil {
			return nil, failure(err, t.warnings)
		}
		if body, err = decorateLinks(body); err != nil {
			return nil, failure(err, t.warnings)
		}
		doc.Pages = append(doc.Pages, pipeline.Page{
			Number:   i + 1,
			Width:    d.width,
			Height:   d.height,
			Fragment: fmt.Sprintf(pageFragment, i+1, d.width, d.height, body),
		})
	}

	if mode == pipeline.ModeMarkup {
		return doc, nil
	}

	printable, err := e.printHTML(doc.Pages)
	if err != nil {
		return nil, failure(err, t.warnings)
	}
	first := doc.Pages[0]
	pdf, err := e.pdf.ToPDF(ctx, printable, &pdfOptions{Width: first.Width, Height: first.Height})
	if err != nil {
		return nil, failure(err, t.warnings)
	}
	doc.Binary = pdf
	return doc, nil
}

// printHTML lays the pages out as one printable HTML document.
func (e *Engine) printHTML(pages []pipeline.Page) (string, error) {
	fragments := make([]template.HTML, len(pages))
	for i, p := range pages {
		fragments[i] = template.HTML(p.Fragment) // #nosec G203 -- produced by the engine from escaped source
	}
	var buf bytes.Buffer
	err := e.printPage.Execute(&buf, struct {
		Title string
		Style template.CSS
		Pages []template.HTML
	}{
		Title: "Document",
		Style: template.CSS(e.style), // #nosec G203 -- trusted stylesheet
		Pages: fragments,
	})
	if err != nil {
		return "", fmt.Errorf("executing print template: %w", err)
	}
	return buf.String(), nil
}

// Close releases the browser used for PDF export.
func (e *Engine) Close() error {
	if e.pdf != nil {
		return e.pdf.Close()
	}
	return nil
}

// failure converts an error into the engine's diagnostic form. Context
// errors pass through so callers can tell cancellation from failure.
func failure(err error, warnings []string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var re *pipeline.RenderError
	if errors.As(err, &re) {
		return &pipeline.RenderError{Message: re.Message, Warnings: warnings, Cause: re.Cause}
	}
	return &pipeline.RenderError{Message: err.Error(), Warnings: warnings, Cause: err}
}
