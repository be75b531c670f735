package engine

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// externalRel is set on links that leave the document.
const externalRel = "noopener noreferrer"

// decorateLinks makes external links of a page body open in a new browsing
// context, so following one from the preview never replaces the editor.
// In-document anchors (citations, labels) are left alone.
func decorateLinks(body string) (string, error) {
	if !hasExternalHref(body) {
		return body, nil
	}

	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(body), container)
	if err != nil {
		return "", fmt.Errorf("parsing page body: %w", err)
	}

	var buf strings.Builder
	for _, n := range nodes {
		decorateNode(n)
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("rendering page body: %w", err)
		}
	}
	return buf.String(), nil
}

func decorateNode(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.A && isExternal(attr(n, "href")) {
		setAttr(n, "target", "_blank")
		setAttr(n, "rel", externalRel)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		decorateNode(c)
	}
}

// isExternal reports whether href points outside the document.
func isExternal(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "//")
}

// hasExternalHref is a cheap pre-check so bodies without external links are
// returned byte for byte.
func hasExternalHref(body string) bool {
	lower := strings.ToLower(body)
	for _, p := range []string{`href="http`, `href="mailto:`, `href="//`} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
