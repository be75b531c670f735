// Package highlight turns a syntax tree into escaped, class-annotated markup
// for the editor overlay.
package highlight

import (
	"strings"

	"github.com/alnah/go-livepreview/internal/syntax"
)

// Class names emitted by the highlighter. The embedded stylesheet defines a
// rule for each.
const (
	ClassComment  = "comment"
	ClassKeyword  = "keyword"
	ClassMarkup   = "markup"
	ClassString   = "string"
	ClassNumber   = "number"
	ClassHeading  = "heading"
	ClassCode     = "code"
	ClassMath     = "math"
	ClassFunction = "function"
	ClassLabel    = "label"
	ClassOperator = "operator"
)

var classes = map[syntax.Kind]string{
	syntax.LineComment:  ClassComment,
	syntax.BlockComment: ClassComment,

	syntax.Hash:    ClassKeyword,
	syntax.Set:     ClassKeyword,
	syntax.Let:     ClassKeyword,
	syntax.Show:    ClassKeyword,
	syntax.Import:  ClassKeyword,
	syntax.Include: ClassKeyword,
	syntax.Bool:    ClassKeyword,
	syntax.None:    ClassKeyword,

	syntax.Star:       ClassMarkup,
	syntax.Underscore: ClassMarkup,
	syntax.ListMarker: ClassMarkup,
	syntax.EnumMarker: ClassMarkup,

	syntax.Str: ClassString,

	syntax.Int:     ClassNumber,
	syntax.Float:   ClassNumber,
	syntax.Numeric: ClassNumber,

	syntax.Heading: ClassHeading,

	syntax.Raw: ClassCode,

	syntax.Math:      ClassMath,
	syntax.MathIdent: ClassMath,
	syntax.Equation:  ClassMath,

	syntax.FuncCall: ClassFunction,
	syntax.Ident:    ClassFunction,

	syntax.Label: ClassLabel,
	syntax.Ref:   ClassLabel,

	syntax.Plus:  ClassOperator,
	syntax.Minus: ClassOperator,
	syntax.Slash: ClassOperator,
	syntax.Eq:    ClassOperator,
	syntax.EqEq:  ClassOperator,
}

// ClassOf returns the highlight class for a node kind, or "" if nodes of
// that kind are emitted without a wrapper. It is total over syntax.Kind.
func ClassOf(kind syntax.Kind) string {
	return classes[kind]
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape replaces the five HTML-significant characters with entities.
func Escape(s string) string {
	return escaper.Replace(s)
}

// frame is a pending traversal step: either a node to open or the closing
// tag of a container already opened.
type frame struct {
	node  *syntax.Node
	close bool
}

// Highlight renders the tree depth-first. Leaves are escaped and wrapped in
// a span when their kind has a class; containers wrap their children once.
// The traversal keeps its own stack, so input depth never exhausts the
// goroutine stack. A nil root yields "".
func Highlight(root *syntax.Node) string {
	if root == nil {
		return ""
	}
	var b strings.Builder
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.close {
			b.WriteString("</span>")
			continue
		}

		class := ClassOf(f.node.Kind)
		if f.node.IsLeaf() {
			if class == "" {
				b.WriteString(Escape(f.node.Text))
				continue
			}
			openSpan(&b, class)
			b.WriteString(Escape(f.node.Text))
			b.WriteString("</span>")
			continue
		}

		if class != "" {
			openSpan(&b, class)
			stack = append(stack, frame{close: true})
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i]})
		}
	}
	return b.String()
}

func openSpan(b *strings.Builder, class string) {
	b.WriteString(`<span class="`)
	b.WriteString(class)
	b.WriteString(`">`)
}
