package pipeline

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestFormat - Page joining and binary passthrough
// ---------------------------------------------------------------------------

func TestFormat_Markup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		pages []string
		want  string
	}{
		{
			name:  "no pages",
			pages: nil,
			want:  "",
		},
		{
			name:  "single page",
			pages: []string{"<svg>1</svg>"},
			want:  `<div class="page"><svg>1</svg></div>`,
		},
		{
			name:  "three pages",
			pages: []string{"A", "B", "C"},
			want: `<div class="page">A</div>` +
				`<div class="page page-break" style="margin-top: 10px; border-top: 1px solid #ccc; padding-top: 10px;">B</div>` +
				`<div class="page page-break" style="margin-top: 10px; border-top: 1px solid #ccc; padding-top: 10px;">C</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := &Document{}
			for i, f := range tt.pages {
				doc.Pages = append(doc.Pages, Page{Number: i + 1, Fragment: f})
			}
			out, err := Format(doc, ModeMarkup)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Markup != tt.want {
				t.Errorf("Markup =\n%s\nwant\n%s", out.Markup, tt.want)
			}
			if out.Pages != len(tt.pages) {
				t.Errorf("Pages = %d, want %d", out.Pages, len(tt.pages))
			}
		})
	}
}

func TestFormat_EachPageWrappedOnce(t *testing.T) {
	t.Parallel()

	var pages []Page
	for i := 0; i < 25; i++ {
		pages = append(pages, Page{Number: i + 1, Fragment: "p"})
	}
	got := JoinPages(pages)
	if n := strings.Count(got, `<div class="page`); n != 25 {
		t.Errorf("wrappers = %d, want 25", n)
	}
	if n := strings.Count(got, "page-break"); n != 24 {
		t.Errorf("dividers = %d, want 24", n)
	}
	if !strings.HasPrefix(got, `<div class="page">p</div>`) {
		t.Errorf("first page not wrapped plainly: %.40s", got)
	}
}

func TestFormat_Binary(t *testing.T) {
	t.Parallel()

	payload := []byte("%PDF-1.7\x00\xff")
	out, err := Format(&Document{Binary: payload}, ModeBinary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out.Bytes, payload) {
		t.Errorf("Bytes = %q, want %q", out.Bytes, payload)
	}
	if out.Markup != "" {
		t.Errorf("Markup = %q, want empty in binary mode", out.Markup)
	}
}

func TestFormat_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Format(nil, ModeMarkup); !errors.Is(err, ErrEmptyOutput) {
		t.Errorf("nil document error = %v, want ErrEmptyOutput", err)
	}
	if _, err := Format(&Document{}, ModeBinary); !errors.Is(err, ErrEmptyOutput) {
		t.Errorf("empty binary error = %v, want ErrEmptyOutput", err)
	}
	if _, err := Format(&Document{}, Mode(9)); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("bad mode error = %v, want ErrInvalidMode", err)
	}
}

// ---------------------------------------------------------------------------
// TestParseMode - Config value mapping
// ---------------------------------------------------------------------------

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeMarkup, false},
		{"markup", ModeMarkup, false},
		{"SVG", ModeMarkup, false},
		{" pdf ", ModeBinary, false},
		{"binary", ModeBinary, false},
		{"png", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMode) {
					t.Errorf("error = %v, want ErrInvalidMode", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestRenderError(t *testing.T) {
	t.Parallel()

	var err error = &RenderError{Message: "unknown variable: foo", Warnings: []string{"w"}}
	if err.Error() != "unknown variable: foo" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrRender) {
		t.Error("RenderError should match ErrRender")
	}
	var re *RenderError
	if !errors.As(err, &re) || len(re.Warnings) != 1 {
		t.Error("errors.As failed to recover warnings")
	}
}
