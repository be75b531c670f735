// Package snippet holds the toolbar insertion templates of the editor.
//
// A template is literal text around one named slot. Applying it to a
// document either wraps the selected text into the slot, or inserts the
// template with its placeholder and selects the placeholder so the user can
// type over it. The selection is never searched for placeholder words.
package snippet

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrSelection is returned when a selection does not fit the document.
var ErrSelection = errors.New("invalid selection")

// ErrUnknownTemplate reports a template name that is not built in.
var ErrUnknownTemplate = errors.New("unknown template")

// Template is Before + slot + After. Placeholder fills the slot when
// nothing is selected.
type Template struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Before      string `json:"before"`
	Placeholder string `json:"placeholder"`
	After       string `json:"after"`
}

// Result is the edited document and the selection to restore, as rune
// offsets.
type Result struct {
	Text           string `json:"text"`
	SelectionStart int    `json:"selectionStart"`
	SelectionEnd   int    `json:"selectionEnd"`
}

// Text returns the template with its placeholder in the slot.
func (t Template) Text() string {
	return t.Before + t.Placeholder + t.After
}

// Fill returns the template with s in the slot.
func (t Template) Fill(s string) string {
	return t.Before + s + t.After
}

// Apply edits doc at the selection [start, end), given in runes.
// With a selection, the selected text is wrapped and the whole insertion is
// selected. Without one, the template is inserted and its placeholder is
// selected.
func (t Template) Apply(doc string, start, end int) (Result, error) {
	n := utf8.RuneCountInString(doc)
	if start < 0 || end < start || end > n {
		return Result{}, fmt.Errorf("%w: [%d, %d) in a document of %d characters", ErrSelection, start, end, n)
	}

	runes := []rune(doc)
	before, selected, after := string(runes[:start]), string(runes[start:end]), string(runes[end:])

	if start != end {
		inserted := t.Fill(selected)
		return Result{
			Text:           before + inserted + after,
			SelectionStart: start,
			SelectionEnd:   start + utf8.RuneCountInString(inserted),
		}, nil
	}

	slot := start + utf8.RuneCountInString(t.Before)
	return Result{
		Text:           before + t.Text() + after,
		SelectionStart: slot,
		SelectionEnd:   slot + utf8.RuneCountInString(t.Placeholder),
	}, nil
}

var templates = []Template{
	{Name: "bold", Title: "Bold", Before: "*", Placeholder: "text", After: "*"},
	{Name: "italic", Title: "Italic", Before: "_", Placeholder: "text", After: "_"},
	{Name: "code", Title: "Inline code", Before: "`", Placeholder: "code", After: "`"},
	{Name: "heading", Title: "Heading", Before: "= ", Placeholder: "Heading", After: "\n"},
	{Name: "list", Title: "List item", Before: "- ", Placeholder: "Item", After: "\n"},
	{Name: "math", Title: "Math", Before: "$ ", Placeholder: "formula", After: " $"},
	{
		Name:        "figure",
		Title:       "Figure (rect placeholder)",
		Before:      "#figure(\n  rect(width: 80%, height: 120pt, fill: rgb(\"#e0e0e0\")),\n  caption: [",
		Placeholder: "Your caption here",
		After:       "],\n)\n",
	},
	{
		Name:        "table",
		Title:       "Table",
		Before:      "#table(\n  columns: 2,\n  [",
		Placeholder: "Header 1",
		After:       "], [Header 2],\n  [Row 1], [Data],\n)\n",
	},
	{Name: "citation", Title: "Citation", Before: "@", Placeholder: "citation"},
	{Name: "reference", Title: "Reference", Before: "@", Placeholder: "label"},
}

// All returns the toolbar templates in toolbar order.
func All() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// Lookup returns the template with the given name.
func Lookup(name string) (Template, bool) {
	for _, t := range templates {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}
