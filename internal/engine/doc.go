// Package engine is the reference typesetting engine behind the preview.
//
// It is not a layout engine. Render parses the unit source, translates the
// tree to GitHub-flavored Markdown (one draft per #pagebreak()), renders each
// draft with goldmark and chroma, and wraps it as a fixed-size page. Images
// are inlined from the unit blobs as data URLs, citations are numbered by
// first use against the bibliography blob, and text styling rules (#set,
// #show, #let, #import) are evaluated only as far as the preview needs.
//
// In binary mode the pages are laid out with the print template and
// printed to PDF by headless Chrome (go-rod).
package engine
