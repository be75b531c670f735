package engine

// Notes:
// - decorateLinks: we test which links are decorated and that the rest of
//   the body survives the parse and render round trip.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestDecorateLinks
// ---------------------------------------------------------------------------

func TestDecorateLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       string
		want     []string
		notWant  []string
		sameText bool
	}{
		{
			name:     "no links is unchanged",
			in:       "<p>plain <em>text</em></p>",
			sameText: true,
		},
		{
			name: "https link",
			in:   `<p><a href="https://typst.app">Typst</a></p>`,
			want: []string{`target="_blank"`, `rel="noopener noreferrer"`, ">Typst</a>"},
		},
		{
			name: "mailto link",
			in:   `<p><a href="mailto:a@b.c">mail</a></p>`,
			want: []string{`target="_blank"`},
		},
		{
			name:     "citation anchor is unchanged",
			in:       `<p><a class="citation" href="#bib-knuth">[1]</a></p>`,
			sameText: true,
		},
		{
			name:    "anchor next to an external link",
			in:      `<p><a href="#bib-knuth">[1]</a> <a href="https://x.y">x</a></p>`,
			want:    []string{`<a href="#bib-knuth">[1]</a>`},
			notWant: []string{`href="#bib-knuth" target`},
		},
		{
			name:    "existing rel is replaced",
			in:      `<p><a href="http://x.y" rel="nofollow">x</a></p>`,
			want:    []string{`rel="noopener noreferrer"`},
			notWant: []string{"nofollow"},
		},
		{
			name: "siblings survive",
			in:   `<h1>T</h1><p><a href="https://x.y">x</a></p><ul><li>i</li></ul>`,
			want: []string{"<h1>T</h1>", "<ul><li>i</li></ul>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := decorateLinks(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.sameText && got != tt.in {
				t.Errorf("got %q, want unchanged", got)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output %q missing %q", got, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("output %q contains %q", got, nw)
				}
			}
		})
	}
}
