// Package syntax provides a lossless parser for the Typst-style markup
// edited in the preview.
//
// The parser is a reference implementation: it recognizes the constructs the
// highlighter classifies and the reference engine renders (headings, strong
// and emphasized text, lists, raw blocks, equations, labels, references,
// comments and hash-prefixed code), and keeps everything else as text.
// Every byte of the input lands in exactly one leaf, so the highlighted
// overlay always lines up with the editor content.
package syntax
