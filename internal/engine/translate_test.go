package engine

import (
	"strings"
	"testing"

	"github.com/alnah/go-livepreview/internal/syntax"
)

// callArgs parses "#name(...)" and returns the arguments of the call.
func callArgs(t *testing.T, src string) arguments {
	t.Helper()
	root := syntax.Parse(src)
	for _, n := range root.Children {
		if n.Kind == syntax.FuncCall {
			return parseArgs(n.Find(syntax.Args))
		}
	}
	t.Fatalf("no call in %q", src)
	return arguments{}
}

func TestParseArgs(t *testing.T) {
	t.Parallel()

	a := callArgs(t, `#f("x", 2, width: 80%, fill: rgb("#fff"))[body]`)
	if len(a.pos) != 3 {
		t.Fatalf("positional = %d, want 3", len(a.pos))
	}
	if s, ok := a.pos[0].str(); !ok || s != "x" {
		t.Errorf("pos[0] = %q, %v", s, ok)
	}
	if n, ok := a.pos[1].integer(); !ok || n != 2 {
		t.Errorf("pos[1] = %d, %v", n, ok)
	}
	if a.pos[2].single().Kind != syntax.ContentBlock {
		t.Errorf("trailing content block should be positional, got %v", a.pos[2].single().Kind)
	}
	if css, ok := a.named["width"].length(); !ok || css != "80%" {
		t.Errorf("width = %q, %v", css, ok)
	}
	if c, ok := a.named["fill"].color(); !ok || c != "#fff" {
		t.Errorf("fill = %q, %v", c, ok)
	}
}

func TestValue_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src    string
		want   string
		wantOK bool
	}{
		{src: "#f(w: 120pt)", want: "120pt", wantOK: true},
		{src: "#f(w: 2.5cm)", want: "2.5cm", wantOK: true},
		{src: "#f(w: 1fr)", wantOK: false},
		{src: "#f(w: 0)", want: "0", wantOK: true},
		{src: `#f(w: "10pt")`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			got, ok := callArgs(t, tt.src).named["w"].length()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("length() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestValue_Color(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src    string
		want   string
		wantOK bool
	}{
		{src: "#f(c: red)", want: "#ff4136", wantOK: true},
		{src: "#f(c: rgb(1, 2, 3))", want: "rgb(1, 2, 3)", wantOK: true},
		{src: `#f(c: rgb("#e0e0e0"))`, want: "#e0e0e0", wantOK: true},
		{src: `#f(c: rgb("e0e0e0"))`, wantOK: false},
		{src: "#f(c: rgb(1, 2, 300))", wantOK: false},
		{src: "#f(c: chartreuse)", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			got, ok := callArgs(t, tt.src).named["c"].color()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("color() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestUnquote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lit  string
		want string
	}{
		{lit: `"plain"`, want: "plain"},
		{lit: `"a\"b"`, want: `a"b`},
		{lit: `"tab\there"`, want: "tab\there"},
		{lit: `"\u{1F600}"`, want: "\U0001F600"},
		{lit: `"unterminated`, want: "unterminated"},
		{lit: `"back\\"`, want: `back\`},
	}

	for _, tt := range tests {
		t.Run(tt.lit, func(t *testing.T) {
			t.Parallel()

			if got := unquote(tt.lit); got != tt.want {
				t.Errorf("unquote(%s) = %q, want %q", tt.lit, got, tt.want)
			}
		})
	}
}

func TestEscapeMarkdown(t *testing.T) {
	t.Parallel()

	if got := escapeMarkdown("# *x* [y](z)"); got != `\# \*x\* \[y\]\(z\)` {
		t.Errorf("escapeMarkdown() = %q", got)
	}
	if got := escapeMarkdown("a" + placeholderStart + "0" + placeholderEnd + "b"); got != "a0b" {
		t.Errorf("placeholder characters should be dropped, got %q", got)
	}
}

func TestCodeSpan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "x", want: "`x`"},
		{in: "a`b", want: "``a`b``"},
		{in: "`x", want: "`` `x ``"},
	}
	for _, tt := range tests {
		if got := codeSpan(tt.in); got != tt.want {
			t.Errorf("codeSpan(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSnippets_Expand(t *testing.T) {
	t.Parallel()

	var s snippets
	block := s.add("<div>B</div>")
	inline := s.add("<span>I</span>")

	got := s.expand("<p>" + block + "</p>\n<p>x " + inline + " y</p>\n<p>" + placeholderStart + "9" + placeholderEnd + "</p>")
	want := "<div>B</div><p>x <span>I</span> y</p>\n"
	if got != want {
		t.Errorf("expand() = %q, want %q", got, want)
	}
}

func TestStripParagraph(t *testing.T) {
	t.Parallel()

	if got := stripParagraph("<p>one</p>\n"); got != "one" {
		t.Errorf("stripParagraph() = %q", got)
	}
	if got := stripParagraph("<p>a</p>\n<p>b</p>"); !strings.HasPrefix(got, "<p>a") {
		t.Errorf("multi-paragraph content should be kept, got %q", got)
	}
}

func TestLorem(t *testing.T) {
	t.Parallel()

	got := lorem(3)
	if got != "Lorem ipsum dolor." {
		t.Errorf("lorem(3) = %q", got)
	}
	if n := len(strings.Fields(lorem(200))); n != 200 {
		t.Errorf("lorem(200) words = %d", n)
	}
}
