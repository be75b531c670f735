package syntax

// Notes:
// - The lexer error fallback (single Text leaf) is exercised with a trailing
//   backslash inside an unterminated string, the only input the string state
//   cannot consume.
// - Node shapes are asserted only for the constructs the highlighter and the
//   reference engine rely on; the rest is covered by the lossless property.

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestParse_Lossless - Concatenated leaves reproduce the input
// ---------------------------------------------------------------------------

func TestParse_Lossless(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"plain text",
		"= Heading\n\nSome *bold* and _emph_ text.",
		"== Sub <intro>\nSee @netwok2020 and @arrgh.",
		"- one\n- two\n+ three\n1. four",
		"$ x^2 + y_1 = sqrt(2) $",
		"#set text(size: 12pt, font: \"Linux Libertine\")\n#let x = 1",
		"#show heading: it => [*#it*]",
		"#figure(\n  image(\"001\"),\n  caption: [Your caption here],\n)",
		"#rect(width: 80%, height: 120pt, fill: rgb(\"#e0e0e0\"))",
		"#link(\"https://typst.app\")[Typst] // trailing comment",
		"/* block\ncomment */ after",
		"```go\nfunc main() {}\n```",
		"inline `raw` text",
		"escaped \\* star and \\# hash",
		"unclosed *strong\n\nparagraph",
		"unclosed (paren #f(a, [b",
		"tabs\tand\r\nwindows\rmac",
		"unicode: ünïcödé — 日本語 🎉",
		"stray ] and ) and }",
		"#pagebreak()\n= Page two",
		"\"quoted\" words in markup",
		"#{ let y = 2; y == 2 }",
		"#",
		"trailing \"\\",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			t.Parallel()

			root := Parse(in)
			if root.Kind != Markup {
				t.Fatalf("root kind = %v, want %v", root.Kind, Markup)
			}
			if got := root.Source(); got != in {
				t.Errorf("Source() = %q, want %q", got, in)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestParse_Structure - Shapes of the constructs downstream code relies on
// ---------------------------------------------------------------------------

func TestParse_Structure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		check func(t *testing.T, root *Node)
	}{
		{
			name:  "heading",
			input: "= Title",
			check: func(t *testing.T, root *Node) {
				h := root.Children[0]
				if h.Kind != Heading {
					t.Fatalf("kind = %v, want %v", h.Kind, Heading)
				}
				if m := h.Find(HeadingMarker); m == nil || m.Text != "=" {
					t.Errorf("heading marker = %+v, want \"=\"", m)
				}
			},
		},
		{
			name:  "strong",
			input: "*bold*",
			check: func(t *testing.T, root *Node) {
				s := root.Children[0]
				if s.Kind != Strong {
					t.Fatalf("kind = %v, want %v", s.Kind, Strong)
				}
				if len(s.Children) != 3 {
					t.Fatalf("children = %d, want 3", len(s.Children))
				}
				if s.Children[1].Kind != Text || s.Children[1].Text != "bold" {
					t.Errorf("body = %+v, want text \"bold\"", s.Children[1])
				}
			},
		},
		{
			name:  "emph",
			input: "_it_",
			check: func(t *testing.T, root *Node) {
				if root.Children[0].Kind != Emph {
					t.Errorf("kind = %v, want %v", root.Children[0].Kind, Emph)
				}
			},
		},
		{
			name:  "strong stops at paragraph break",
			input: "*a\n\nb",
			check: func(t *testing.T, root *Node) {
				if root.Children[0].Kind != Strong {
					t.Fatalf("kind = %v, want %v", root.Children[0].Kind, Strong)
				}
				if root.Children[1].Kind != Parbreak {
					t.Errorf("second child = %v, want %v", root.Children[1].Kind, Parbreak)
				}
			},
		},
		{
			name:  "function call with string argument",
			input: `#image("001")`,
			check: func(t *testing.T, root *Node) {
				if root.Children[0].Kind != Hash {
					t.Fatalf("first child = %v, want %v", root.Children[0].Kind, Hash)
				}
				call := root.Children[1]
				if call.Kind != FuncCall {
					t.Fatalf("second child = %v, want %v", call.Kind, FuncCall)
				}
				if id := call.Find(Ident); id == nil || id.Text != "image" {
					t.Errorf("callee = %+v, want image", id)
				}
				args := call.Find(Args)
				if args == nil {
					t.Fatal("missing args")
				}
				if s := args.Find(Str); s == nil || s.Text != `"001"` {
					t.Errorf("string arg = %+v, want \"001\"", s)
				}
			},
		},
		{
			name:  "paragraph break",
			input: "a\n\nb",
			check: func(t *testing.T, root *Node) {
				kinds := childKinds(root)
				want := []Kind{Text, Parbreak, Text}
				if !equalKinds(kinds, want) {
					t.Errorf("kinds = %v, want %v", kinds, want)
				}
			},
		},
		{
			name:  "set rule",
			input: "#set page(width: 10cm)",
			check: func(t *testing.T, root *Node) {
				if len(root.Children) != 2 || root.Children[1].Kind != SetRule {
					t.Fatalf("kinds = %v, want [hash set rule]", childKinds(root))
				}
				if root.Children[1].Children[0].Kind != Set {
					t.Errorf("keyword kind = %v, want %v", root.Children[1].Children[0].Kind, Set)
				}
			},
		},
		{
			name:  "equation",
			input: "$x + 1$",
			check: func(t *testing.T, root *Node) {
				eq := root.Children[0]
				if eq.Kind != Equation {
					t.Fatalf("kind = %v, want %v", eq.Kind, Equation)
				}
				if eq.Find(Math) == nil {
					t.Error("missing math body")
				}
			},
		},
		{
			name:  "leaves",
			input: "@key <lbl> `raw` // note",
			check: func(t *testing.T, root *Node) {
				kinds := childKinds(root)
				want := []Kind{Ref, Space, Label, Space, Raw, Space, LineComment}
				if !equalKinds(kinds, want) {
					t.Errorf("kinds = %v, want %v", kinds, want)
				}
			},
		},
		{
			name:  "list and enum items",
			input: "- a\n+ b\n2. c",
			check: func(t *testing.T, root *Node) {
				var items []Kind
				for _, c := range root.Children {
					if c.Kind != Space {
						items = append(items, c.Kind)
					}
				}
				want := []Kind{ListItem, EnumItem, EnumItem}
				if !equalKinds(items, want) {
					t.Errorf("kinds = %v, want %v", items, want)
				}
			},
		},
		{
			name:  "numeric with unit",
			input: "#box(width: 80%)",
			check: func(t *testing.T, root *Node) {
				args := root.Children[1].Find(Args)
				if n := args.Find(Numeric); n == nil || n.Text != "80%" {
					t.Errorf("numeric = %+v, want 80%%", n)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.check(t, Parse(tt.input))
		})
	}
}

// ---------------------------------------------------------------------------
// TestParse_DepthBound - Nesting beyond MaxDepth degrades to text
// ---------------------------------------------------------------------------

func TestParse_DepthBound(t *testing.T) {
	t.Parallel()

	in := "#" + strings.Repeat("(", 4*MaxDepth) + strings.Repeat(")", 4*MaxDepth)
	root := Parse(in)

	if got := root.Source(); got != in {
		t.Fatalf("Source() length = %d, want %d", len(got), len(in))
	}
	if d := depth(root); d > MaxDepth+2 {
		t.Errorf("depth = %d, want <= %d", d, MaxDepth+2)
	}
}

func TestParse_LexFailureFallsBackToText(t *testing.T) {
	t.Parallel()

	in := "trailing \"\\"
	root := Parse(in)
	if len(root.Children) != 1 || root.Children[0].Kind != Text {
		t.Fatalf("kinds = %v, want [text]", childKinds(root))
	}
	if root.Children[0].Text != in {
		t.Errorf("text = %q, want %q", root.Children[0].Text, in)
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	for _, k := range Kinds() {
		if s := k.String(); s == "" || s == "unknown" {
			t.Errorf("Kind(%d).String() = %q", k, s)
		}
	}
	if s := Kind(255).String(); s != "unknown" {
		t.Errorf("Kind(255).String() = %q, want unknown", s)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func childKinds(n *Node) []Kind {
	kinds := make([]Kind, 0, len(n.Children))
	for _, c := range n.Children {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func equalKinds(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func depth(root *Node) int {
	type frame struct {
		n *Node
		d int
	}
	maxDepth := 0
	stack := []frame{{root, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.d > maxDepth {
			maxDepth = f.d
		}
		for _, c := range f.n.Children {
			stack = append(stack, frame{c, f.d + 1})
		}
	}
	return maxDepth
}
