package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates goldmark failed to render a page.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// Placeholders use Unicode Private Use Area characters. Markup the
// translator cannot express in Markdown (images, shapes, equations) is
// rendered to HTML up front, stored in a snippet table and referenced by
// index. They are expanded after goldmark runs, so WithUnsafe is never needed.
const (
	placeholderStart = "\uE002"
	placeholderEnd   = "\uE003"
)

var (
	blockPlaceholder  = regexp.MustCompile(`<p>\x{E002}(\d+)\x{E003}</p>\n?`)
	inlinePlaceholder = regexp.MustCompile(`\x{E002}(\d+)\x{E003}`)
)

// htmlConverter renders Markdown fragments with goldmark.
type htmlConverter struct {
	md goldmark.Markdown
}

func newHTMLConverter() *htmlConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // Tables, strikethrough, autolinks
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)
	return &htmlConverter{md: md}
}

// toHTML converts a Markdown fragment. Goldmark has no context support, so
// conversion runs in a goroutine and the caller returns as soon as ctx ends.
func (c *htmlConverter) toHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// snippets is the table of pre-rendered HTML referenced by placeholders.
type snippets []string

// add stores html and returns the placeholder that stands for it.
func (s *snippets) add(html string) string {
	*s = append(*s, html)
	return placeholderStart + strconv.Itoa(len(*s)-1) + placeholderEnd
}

// expand replaces placeholders in rendered HTML. A placeholder that is the
// only content of a paragraph replaces the paragraph itself.
func (s snippets) expand(rendered string) string {
	lookup := func(re *regexp.Regexp) func(string) string {
		return func(m string) string {
			i, err := strconv.Atoi(re.FindStringSubmatch(m)[1])
			if err != nil || i >= len(s) {
				return ""
			}
			return s[i]
		}
	}
	rendered = blockPlaceholder.ReplaceAllStringFunc(rendered, lookup(blockPlaceholder))
	return inlinePlaceholder.ReplaceAllStringFunc(rendered, lookup(inlinePlaceholder))
}

// stripParagraph unwraps a fragment that goldmark rendered as a single
// paragraph, for content placed inside inline elements.
func stripParagraph(rendered string) string {
	s := strings.TrimSpace(rendered)
	if strings.HasPrefix(s, "<p>") && strings.HasSuffix(s, "</p>") && strings.Count(s, "<p>") == 1 {
		return s[len("<p>") : len(s)-len("</p>")]
	}
	return s
}
