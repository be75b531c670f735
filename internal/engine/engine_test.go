package engine

// Notes:
// - PDF export is tested through a mock pdfConverter; launching Chrome is
//   left to manual runs of `livepreview render --pdf`.
// - Assertions check HTML substrings rather than whole pages: goldmark's
//   exact whitespace is not part of the contract.

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-livepreview/internal/assets"
	"github.com/alnah/go-livepreview/internal/pipeline"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type mockPDFConverter struct {
	mu     sync.Mutex
	result []byte
	err    error
	html   string
	opts   *pdfOptions
	closed bool
}

func (m *mockPDFConverter) ToPDF(_ context.Context, htmlContent string, opts *pdfOptions) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.html = htmlContent
	m.opts = opts
	return m.result, m.err
}

func (m *mockPDFConverter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func mustUnit(t *testing.T, in pipeline.Input) *pipeline.Unit {
	t.Helper()
	u, _, err := pipeline.Assemble(in)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	return u
}

func render(t *testing.T, in pipeline.Input) (*pipeline.Document, error) {
	t.Helper()
	e := newTestEngine(t, withPDFConverter(&mockPDFConverter{}))
	return e.Render(context.Background(), mustUnit(t, in), pipeline.ModeMarkup)
}

func allFragments(doc *pipeline.Document) string {
	var b strings.Builder
	for _, p := range doc.Pages {
		b.WriteString(p.Fragment)
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Markup mode
// ---------------------------------------------------------------------------

func TestRender_Markup(t *testing.T) {
	t.Parallel()

	png := base64.StdEncoding.EncodeToString(pngHeader)

	tests := []struct {
		name   string
		input  pipeline.Input
		want   []string
		reject []string
	}{
		{
			name:  "heading and inline styles",
			input: pipeline.Input{Source: "= Hello\n\nWorld *bold* _it_"},
			want:  []string{`<h1 id="hello">Hello</h1>`, "<strong>bold</strong>", "<em>it</em>"},
		},
		{
			name:  "markdown punctuation in text is literal",
			input: pipeline.Input{Source: "a < b & c"},
			want:  []string{"a &lt; b &amp; c"},
		},
		{
			name:  "image from blob as data URL",
			input: pipeline.Input{Source: `#image("001", width: 50%)`, Images: map[string]string{"001": "data:image/png;base64," + png}},
			want:  []string{`<img src="data:image/png;base64,` + png + `"`, `style="width: 50%;"`},
		},
		{
			name:  "let binding is substituted",
			input: pipeline.Input{Source: "#let name = \"World\"\nHello #name"},
			want:  []string{"<p>Hello World</p>"},
		},
		{
			name:  "inline equation",
			input: pipeline.Input{Source: "Area $x^2$ here"},
			want:  []string{`<span class="equation">x^2</span>`},
		},
		{
			name:  "block equation is centered",
			input: pipeline.Input{Source: "$ a + b $"},
			want:  []string{`<div class="equation" style="text-align: center;">a + b</div>`},
		},
		{
			name:  "raw block is highlighted",
			input: pipeline.Input{Source: "```go\nfmt.Println(1)\n```"},
			want:  []string{`class="chroma"`},
		},
		{
			name:  "table with header row",
			input: pipeline.Input{Source: "#table(columns: 2, [a], [b], [c], [d])"},
			want:  []string{"<table>", "<th>a</th>", "<td>d</td>"},
		},
		{
			name:  "figure with caption",
			input: pipeline.Input{Source: "#figure(rect(width: 50%), caption: [Cap])"},
			want: []string{
				`<figure class="typst-figure"><div class="placeholder-box" style="width: 50%; height: 30pt;"></div>`,
				"<figcaption>Figure 1: Cap</figcaption></figure>",
			},
		},
		{
			name:  "lists",
			input: pipeline.Input{Source: "- one\n- two\n\n+ first\n+ second"},
			want:  []string{"<ul>", "<li>one</li>", "<ol>", "<li>second</li>"},
		},
		{
			name:   "comments and set rules produce nothing",
			input:  pipeline.Input{Source: "#set text(size: 11pt)\n// note\nBody /* hidden */"},
			want:   []string{"Body"},
			reject: []string{"note", "hidden", "size"},
		},
		{
			name: "citations numbered by first use",
			input: pipeline.Input{
				Source:       "See @netwok2022 and @netwok2020, again @netwok2022.\n\n#bibliography(\"refs.yml\")",
				Bibliography: assets.DefaultBibliography(),
			},
			want: []string{
				`href="#bib-netwok2022">[1]</a>`,
				`href="#bib-netwok2020">[2]</a>`,
				`<h1 id="bibliography">Bibliography</h1>`,
				`<ol class="bibliography"><li id="bib-netwok2022">[1] `,
			},
			reject: []string{"example2024"},
		},
		{
			name:  "external link opens a new tab",
			input: pipeline.Input{Source: `See #link("https://typst.app")[Typst].`},
			want:  []string{`href="https://typst.app"`, `target="_blank"`, `rel="noopener noreferrer"`},
		},
		{
			name:  "label reference links to its target",
			input: pipeline.Input{Source: "= Intro <intro>\n\nSee @intro."},
			want:  []string{`<span id="intro"></span>`, `<a href="#intro">intro</a>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := render(t, tt.input)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			out := allFragments(doc)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q\ngot: %s", w, out)
				}
			}
			for _, r := range tt.reject {
				if strings.Contains(out, r) {
					t.Errorf("output should not contain %q\ngot: %s", r, out)
				}
			}
		})
	}
}

func TestRender_Diagnostics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   pipeline.Input
		wantMsg string
	}{
		{
			name:    "missing image",
			input:   pipeline.Input{Source: `#image("404")`},
			wantMsg: "file not found (searched at 404)",
		},
		{
			name:    "unknown function",
			input:   pipeline.Input{Source: "#nope()"},
			wantMsg: "unknown function: nope",
		},
		{
			name:    "unknown variable",
			input:   pipeline.Input{Source: "#missing"},
			wantMsg: "unknown variable: missing",
		},
		{
			name:    "unknown label",
			input:   pipeline.Input{Source: "see @nowhere"},
			wantMsg: "label <nowhere> does not exist in the document",
		},
		{
			name:    "unclosed strong",
			input:   pipeline.Input{Source: "*bold"},
			wantMsg: "unclosed delimiter",
		},
		{
			name:    "page break inside container",
			input:   pipeline.Input{Source: "#box[#pagebreak()]"},
			wantMsg: "pagebreaks are not allowed inside of containers",
		},
		{
			name:    "bibliography file missing",
			input:   pipeline.Input{Source: `#bibliography("other.yml")`},
			wantMsg: "file not found (searched at other.yml)",
		},
		{
			name:    "image that is not an image",
			input:   pipeline.Input{Source: `#image("001")`, Images: map[string]string{"001": base64.StdEncoding.EncodeToString([]byte("plain text"))}},
			wantMsg: "failed to decode image (001): unknown image format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := render(t, tt.input)
			if !errors.Is(err, pipeline.ErrRender) {
				t.Fatalf("expected ErrRender, got %v", err)
			}
			var re *pipeline.RenderError
			if !errors.As(err, &re) {
				t.Fatalf("expected *RenderError, got %T", err)
			}
			if re.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", re.Message, tt.wantMsg)
			}
		})
	}
}

func TestRender_Pages(t *testing.T) {
	t.Parallel()

	doc, err := render(t, pipeline.Input{Source: "#set page(paper: \"a5\")\nA\n#pagebreak()\n#pagebreak(weak: true)\nB"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(doc.Pages))
	}
	for i, p := range doc.Pages {
		if p.Number != i+1 {
			t.Errorf("page %d Number = %d", i, p.Number)
		}
		if p.Width != 419.53 || p.Height != 595.28 {
			t.Errorf("page %d size = %vx%v, want a5", i, p.Width, p.Height)
		}
	}
	if !strings.Contains(doc.Pages[0].Fragment, `data-page="1"`) || !strings.Contains(doc.Pages[0].Fragment, "<p>A</p>") {
		t.Errorf("page 1 = %s", doc.Pages[0].Fragment)
	}
	if !strings.Contains(doc.Pages[1].Fragment, "<p>B</p>") {
		t.Errorf("page 2 = %s", doc.Pages[1].Fragment)
	}
}

func TestRender_DefaultPageSize(t *testing.T) {
	t.Parallel()

	doc, err := render(t, pipeline.Input{Source: "text"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := doc.Pages[0]; got.Width != defaultPageWidth || got.Height != defaultPageHeight {
		t.Errorf("size = %vx%v, want A4", got.Width, got.Height)
	}
}

func TestRender_Warnings(t *testing.T) {
	t.Parallel()

	doc, err := render(t, pipeline.Input{Source: "no citations", Bibliography: assets.DefaultBibliography()})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(doc.Warnings) != 1 || !strings.Contains(doc.Warnings[0], "never cited") {
		t.Errorf("Warnings = %v", doc.Warnings)
	}
}

func TestRender_SampleDocument(t *testing.T) {
	t.Parallel()

	doc, err := render(t, pipeline.Input{Source: assets.DefaultSource(), Bibliography: assets.DefaultBibliography()})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(doc.Pages) != 2 {
		t.Errorf("pages = %d, want 2", len(doc.Pages))
	}
	if len(doc.Warnings) != 0 {
		t.Errorf("Warnings = %v", doc.Warnings)
	}
}

func TestRender_ContextCanceled(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, withPDFConverter(&mockPDFConverter{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Render(ctx, mustUnit(t, pipeline.Input{Source: "x"}), pipeline.ModeMarkup)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRender_InvalidMode(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, withPDFConverter(&mockPDFConverter{}))
	_, err := e.Render(context.Background(), mustUnit(t, pipeline.Input{Source: "x"}), pipeline.Mode(9))
	if !errors.Is(err, pipeline.ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Binary mode
// ---------------------------------------------------------------------------

func TestRender_Binary(t *testing.T) {
	t.Parallel()

	mock := &mockPDFConverter{result: []byte("%PDF-1.7 fake")}
	e := newTestEngine(t, withPDFConverter(mock), WithStyle("body{color:red}"))

	doc, err := e.Render(context.Background(), mustUnit(t, pipeline.Input{Source: "Hello\n#pagebreak()\nWorld"}), pipeline.ModeBinary)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(doc.Binary) != "%PDF-1.7 fake" {
		t.Errorf("Binary = %q", doc.Binary)
	}
	if len(doc.Pages) != 2 {
		t.Errorf("pages = %d, want 2", len(doc.Pages))
	}
	if !strings.Contains(mock.html, "body{color:red}") {
		t.Error("print document should embed the stylesheet")
	}
	if strings.Count(mock.html, `<div class="page">`) != 2 {
		t.Errorf("print document should hold two pages:\n%s", mock.html)
	}
	if mock.opts == nil || mock.opts.Width != defaultPageWidth {
		t.Errorf("opts = %+v", mock.opts)
	}
}

func TestRender_BinaryConverterError(t *testing.T) {
	t.Parallel()

	mock := &mockPDFConverter{err: ErrBrowserConnect}
	e := newTestEngine(t, withPDFConverter(mock))

	_, err := e.Render(context.Background(), mustUnit(t, pipeline.Input{Source: "x"}), pipeline.ModeBinary)
	var re *pipeline.RenderError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RenderError, got %v", err)
	}
	if !strings.Contains(re.Message, "browser connection failed") {
		t.Errorf("Message = %q", re.Message)
	}
}

func TestEngine_Close(t *testing.T) {
	t.Parallel()

	mock := &mockPDFConverter{}
	e, err := New(withPDFConverter(mock))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !mock.closed {
		t.Error("Close should close the PDF converter")
	}
}

func TestBuildPDFOptions(t *testing.T) {
	t.Parallel()

	opts := buildPDFOptions(&pdfOptions{Width: 612, Height: 792})
	if *opts.PaperWidth != 8.5 || *opts.PaperHeight != 11 {
		t.Errorf("paper = %vx%v in, want 8.5x11", *opts.PaperWidth, *opts.PaperHeight)
	}
	if !opts.PrintBackground {
		t.Error("PrintBackground should be set")
	}

	def := buildPDFOptions(nil)
	if got := *def.PaperWidth; got < 8.26 || got > 8.27 {
		t.Errorf("default width = %v in, want A4", got)
	}
}
