package livepreview

import (
	"github.com/alnah/go-livepreview/internal/highlight"
	"github.com/alnah/go-livepreview/internal/syntax"
)

// Highlight parses source and returns the syntax-highlighted overlay shown
// under the editor text. Stripping the tags gives back source with the five
// reserved HTML characters escaped.
func Highlight(source string) string {
	return `<pre class="typst-highlighted"><code>` + highlight.Highlight(syntax.Parse(source)) + `</code></pre>`
}
