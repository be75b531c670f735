package engine

import (
	"strings"
	"testing"

	"github.com/alnah/go-livepreview/internal/assets"
)

func TestParseBibliography(t *testing.T) {
	t.Parallel()

	b, err := parseBibliography("refs.yml", []byte(assets.DefaultBibliography()))
	if err != nil {
		t.Fatalf("parseBibliography() error = %v", err)
	}

	keys := make([]string, len(b.entries))
	for i, e := range b.entries {
		keys[i] = e.Key
	}
	if got := strings.Join(keys, ","); got != "netwok2020,netwok2022,example2024,typst2023" {
		t.Errorf("keys in file order = %s", got)
	}

	e, ok := b.lookup("netwok2020")
	if !ok {
		t.Fatal("netwok2020 not found")
	}
	if len(e.Authors) != 2 || e.Authors[1] != "Smith, B." {
		t.Errorf("Authors = %v", e.Authors)
	}
	if e.Date != "2020" || e.Volume != "15" || e.Issue != "3" {
		t.Errorf("numbers = %q %q %q", e.Date, e.Volume, e.Issue)
	}

	web, _ := b.lookup("typst2023")
	if len(web.Authors) != 1 || web.Authors[0] != "Typst Team" {
		t.Errorf("single author = %v", web.Authors)
	}
}

func TestParseBibliography_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "not a mapping", data: "- a\n- b\n"},
		{name: "entry not a mapping", data: "key: value\n"},
		{name: "malformed yaml", data: "key: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := parseBibliography("refs.yml", []byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "failed to parse bibliography refs.yml") {
				t.Errorf("error = %v", err)
			}
		})
	}
}

func TestCitations(t *testing.T) {
	t.Parallel()

	c := newCitations()
	if n := c.cite("b"); n != 1 {
		t.Errorf("first = %d", n)
	}
	if n := c.cite("a"); n != 2 {
		t.Errorf("second = %d", n)
	}
	if n := c.cite("b"); n != 1 {
		t.Errorf("repeat = %d", n)
	}
}

func TestBibliography_References(t *testing.T) {
	t.Parallel()

	b, err := parseBibliography("refs.yml", []byte(assets.DefaultBibliography()))
	if err != nil {
		t.Fatal(err)
	}
	c := newCitations()
	c.cite("typst2023")

	if refs := b.references(c, false); len(refs) != 1 || refs[0].Key != "typst2023" {
		t.Errorf("cited only = %v", refs)
	}
	full := b.references(c, true)
	if len(full) != 4 || full[0].Key != "typst2023" || full[1].Key != "netwok2020" {
		t.Errorf("full = %v", full)
	}

	list := b.referenceList(full, c)
	if !strings.Contains(list, `<li id="bib-typst2023">[1] Typst Team, &#8220;Typst Documentation,&#8221; 2023.`) {
		t.Errorf("referenceList() = %s", list)
	}
	if !strings.Contains(list, `<a href="https://typst.app">https://typst.app</a>`) {
		t.Errorf("web entry should link its URL: %s", list)
	}
}

func TestFormatEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		e    entry
		want string
	}{
		{
			name: "article",
			e: entry{
				Authors: []string{"A", "B", "C"}, Title: "T", Journal: "J",
				Volume: "1", Issue: "2", Pages: "3-4", Date: "2020", DOI: "10.1/x",
			},
			want: "A, B, and C, &#8220;T,&#8221; <em>J</em>, vol. 1, no. 2, pp. 3-4, 2020. doi: 10.1/x.",
		},
		{
			name: "title only",
			e:    entry{Title: "Alone"},
			want: "&#8220;Alone,&#8221;",
		},
		{
			name: "non-http URL is not linked",
			e:    entry{Title: "X", URL: "javascript:alert(1)"},
			want: "&#8220;X,&#8221; [Online]. Available: javascript:alert(1)",
		},
		{
			name: "markup in fields is escaped",
			e:    entry{Authors: []string{"<b>"}},
			want: "&lt;b&gt;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := formatEntry(tt.e); got != tt.want {
				t.Errorf("formatEntry() = %q, want %q", got, tt.want)
			}
		})
	}
}
