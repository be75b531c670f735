package engine

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"net/http"
	"strings"
	"unicode"

	"github.com/alnah/go-livepreview/internal/pipeline"
	"github.com/alnah/go-livepreview/internal/syntax"
)

// Page sizes in points.
const (
	defaultPageWidth  = 595.28
	defaultPageHeight = 841.89
)

var paperSizes = map[string][2]float64{
	"a3":        {841.89, 1190.55},
	"a4":        {595.28, 841.89},
	"a5":        {419.53, 595.28},
	"us-letter": {612, 792},
	"us-legal":  {612, 1008},
}

// diagnostic builds the error shown to the user.
func diagnostic(format string, args ...any) error {
	return &pipeline.RenderError{Message: fmt.Sprintf(format, args...)}
}

// draftPage is the Markdown of one page before HTML conversion.
type draftPage struct {
	markdown string
	width    float64
	height   float64
}

// translator walks a syntax tree and writes GitHub-flavored Markdown, one
// draft per page. Constructs Markdown cannot express go through the
// snippet table.
type translator struct {
	unit   *pipeline.Unit
	toHTML func(markdown string) (string, error)
	snips  snippets

	bib     *bibliography
	bibPath string
	cites   *citations
	labels  map[string]bool
	vars    map[string]string
	funcs   map[string]bool
	figures map[string]int

	pages    []draftPage
	cur      strings.Builder
	width    float64
	height   float64
	bibShown bool
	warnings []string
}

func newTranslator(unit *pipeline.Unit, toHTML func(string) (string, error)) *translator {
	return &translator{
		unit:    unit,
		toHTML:  toHTML,
		cites:   newCitations(),
		labels:  map[string]bool{},
		vars:    map[string]string{},
		funcs:   map[string]bool{},
		figures: map[string]int{},
		width:   defaultPageWidth,
		height:  defaultPageHeight,
	}
}

// translate returns the drafts of every page of the document.
func (t *translator) translate(root *syntax.Node) ([]draftPage, error) {
	if err := t.prepare(root); err != nil {
		return nil, err
	}
	if err := t.markup(&t.cur, root.Children, true); err != nil {
		return nil, err
	}
	t.breakPage()

	if _, ok := t.unit.Blob(pipeline.BibliographyName); ok && t.bibPath == "" && len(t.cites.order) == 0 {
		t.warn("bibliography " + pipeline.BibliographyName + " is never cited")
	}
	return t.pages, nil
}

// render converts Markdown to HTML and expands the placeholders in it.
func (t *translator) render(markdown string) (string, error) {
	out, err := t.toHTML(markdown)
	if err != nil {
		return "", err
	}
	return t.snips.expand(out), nil
}

func (t *translator) warn(msg string) {
	t.warnings = append(t.warnings, msg)
}

func (t *translator) breakPage() {
	t.pages = append(t.pages, draftPage{markdown: t.cur.String(), width: t.width, height: t.height})
	t.cur.Reset()
}

// prepare collects labels and citations ahead of translation, so references
// resolve regardless of where their target appears, and loads the
// bibliography.
func (t *translator) prepare(root *syntax.Node) error {
	var refs []string
	stack := []*syntax.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n.Kind {
		case syntax.Label:
			t.labels[labelName(n.Text)] = true
		case syntax.Ref:
			refs = append(refs, n.Text[1:])
		case syntax.FuncCall:
			a := parseArgs(n.Find(syntax.Args))
			switch n.Children[0].Text {
			case "cite":
				if len(a.pos) > 0 {
					if key, ok := citeKey(a.pos[0]); ok {
						refs = append(refs, key)
					}
				}
			case "bibliography":
				if t.bibPath == "" && len(a.pos) > 0 {
					t.bibPath, _ = a.pos[0].str()
				}
			}
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}

	name := t.bibPath
	if name == "" {
		name = pipeline.BibliographyName
	}
	data, ok := t.unit.Blob(name)
	if !ok && t.bibPath != "" {
		return diagnostic("file not found (searched at %s)", t.bibPath)
	}
	if ok {
		bib, err := parseBibliography(name, data)
		if err != nil {
			return diagnostic("%v", err)
		}
		t.bib = bib
	}

	for _, key := range refs {
		if _, ok := t.bib.lookup(key); ok {
			t.cites.cite(key)
		}
	}
	return nil
}

func citeKey(v value) (string, bool) {
	if n := v.single(); n != nil && n.Kind == syntax.Label {
		return labelName(n.Text), true
	}
	return v.str()
}

func labelName(text string) string {
	return strings.TrimSuffix(strings.TrimPrefix(text, "<"), ">")
}

// ----------------------------------------------------------------------------
// Markup
// ----------------------------------------------------------------------------

// markup translates a sequence of markup nodes. top is set for the page
// level, the only place where page breaks are allowed.
func (t *translator) markup(w *strings.Builder, nodes []*syntax.Node, top bool) error {
	for i := 0; i < len(nodes); i++ {
		n := nodes[i]
		var err error

		switch n.Kind {
		case syntax.Text:
			w.WriteString(escapeMarkdown(n.Text))
		case syntax.Space:
			if strings.ContainsAny(n.Text, "\r\n") {
				w.WriteString("\n")
			} else {
				w.WriteString(" ")
			}
		case syntax.Parbreak:
			w.WriteString("\n\n")
		case syntax.Escape:
			w.WriteString(escapeMarkdown(strings.TrimPrefix(n.Text, `\`)))
		case syntax.LineComment, syntax.BlockComment:
		case syntax.Label:
			w.WriteString(t.snips.add(`<span id="` + html.EscapeString(labelName(n.Text)) + `"></span>`))
		case syntax.Ref:
			err = t.ref(w, n.Text[1:])
		case syntax.Raw:
			t.raw(w, n.Text)
		case syntax.Strong:
			err = t.delimited(w, n, "**")
		case syntax.Emph:
			err = t.delimited(w, n, "*")
		case syntax.Heading:
			err = t.heading(w, n)
		case syntax.ListItem, syntax.EnumItem:
			err = t.item(w, n)
		case syntax.Equation:
			err = t.equation(w, n)
		case syntax.Hash:
			if i+1 >= len(nodes) {
				w.WriteString(escapeMarkdown(n.Text))
				continue
			}
			i++
			expr := nodes[i]
			var chain []*syntax.Node
			for i+2 < len(nodes) && nodes[i+1].Kind == syntax.Dot &&
				(nodes[i+2].Kind == syntax.Ident || nodes[i+2].Kind == syntax.FuncCall) {
				chain = append(chain, nodes[i+2])
				i += 2
			}
			err = t.embed(w, expr, chain, top)
		default:
			w.WriteString(escapeMarkdown(n.Source()))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *translator) delimited(w *strings.Builder, n *syntax.Node, mark string) error {
	c := n.Children
	if len(c) < 2 || c[len(c)-1].Kind != c[0].Kind {
		return diagnostic("unclosed delimiter")
	}
	var b strings.Builder
	if err := t.markup(&b, c[1:len(c)-1], false); err != nil {
		return err
	}
	body := b.String()
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		w.WriteString(body)
		return nil
	}
	lead := body[:strings.Index(body, trimmed)]
	trail := body[len(lead)+len(trimmed):]
	w.WriteString(lead + mark + trimmed + mark + trail)
	return nil
}

func (t *translator) heading(w *strings.Builder, n *syntax.Node) error {
	level := len(n.Children[0].Text)
	if level > 6 {
		level = 6
	}
	var b strings.Builder
	if err := t.markup(&b, n.Children[2:], false); err != nil {
		return err
	}
	w.WriteString(strings.Repeat("#", level) + " " + strings.TrimSpace(b.String()))
	return nil
}

func (t *translator) item(w *strings.Builder, n *syntax.Node) error {
	marker := "- "
	if n.Kind == syntax.EnumItem {
		marker = "1. "
		if m := n.Children[0].Text; m != "+" {
			marker = m + " "
		}
	}
	var b strings.Builder
	if err := t.markup(&b, n.Children[2:], false); err != nil {
		return err
	}
	w.WriteString(marker + strings.TrimSpace(b.String()))
	return nil
}

func (t *translator) equation(w *strings.Builder, n *syntax.Node) error {
	c := n.Children
	if len(c) < 2 || c[len(c)-1].Kind != syntax.Dollar {
		return diagnostic("unclosed delimiter")
	}
	var text string
	if m := n.Find(syntax.Math); m != nil {
		text = m.Source()
	}
	trimmed := html.EscapeString(strings.TrimSpace(text))
	r := []rune(text)
	if len(r) > 0 && unicode.IsSpace(r[0]) && unicode.IsSpace(r[len(r)-1]) {
		w.WriteString("\n\n" + t.snips.add(`<div class="equation" style="text-align: center;">`+trimmed+`</div>`) + "\n\n")
		return nil
	}
	w.WriteString(t.snips.add(`<span class="equation">` + trimmed + `</span>`))
	return nil
}

// raw writes inline raw text as a code span and multi-line raw blocks as
// fenced code, keeping the language tag for chroma.
func (t *translator) raw(w *strings.Builder, text string) {
	if !strings.HasPrefix(text, "```") || len(text) < 6 {
		w.WriteString(codeSpan(strings.Trim(text, "`")))
		return
	}
	body := text[3 : len(text)-3]
	lang := ""
	if i := strings.IndexFunc(body, unicode.IsSpace); i > 0 && isIdent(body[:i]) {
		lang, body = body[:i], body[i:]
	}
	t.code(w, body, lang, strings.Contains(body, "\n"))
}

func (t *translator) code(w *strings.Builder, body, lang string, block bool) {
	if !block {
		w.WriteString(codeSpan(strings.TrimSpace(body)))
		return
	}
	body = strings.TrimPrefix(strings.TrimPrefix(body, "\r"), "\n")
	body = strings.TrimRight(body, " \t\r\n")
	fence := strings.Repeat("`", max(3, longestRun(body, '`')+1))
	w.WriteString("\n\n" + fence + lang + "\n" + body + "\n" + fence + "\n\n")
}

func (t *translator) ref(w *strings.Builder, key string) error {
	if n, ok := t.cites.num[key]; ok {
		w.WriteString(t.snips.add(fmt.Sprintf(`<a class="citation" href="#bib-%s">[%d]</a>`, html.EscapeString(key), n)))
		return nil
	}
	if t.labels[key] {
		k := html.EscapeString(key)
		w.WriteString(t.snips.add(`<a href="#` + k + `">` + k + `</a>`))
		return nil
	}
	return diagnostic("label <%s> does not exist in the document", key)
}

// ----------------------------------------------------------------------------
// Embedded code
// ----------------------------------------------------------------------------

// embed evaluates a hash expression. chain holds the fields accessed on it.
func (t *translator) embed(w *strings.Builder, expr *syntax.Node, chain []*syntax.Node, top bool) error {
	switch expr.Kind {
	case syntax.SetRule:
		return t.set(expr)
	case syntax.ShowRule, syntax.ModuleImport:
		return nil
	case syntax.ModuleInclude:
		t.warn("include is not supported in the preview and was skipped")
		return nil
	case syntax.LetBinding:
		return t.let(expr)
	case syntax.FuncCall:
		return t.call(w, expr, top)
	case syntax.Ident:
		v, ok := t.vars[expr.Text]
		if !ok {
			return diagnostic("unknown variable: %s", expr.Text)
		}
		if len(chain) == 0 {
			w.WriteString(v)
		}
		return nil
	case syntax.ContentBlock:
		return t.markup(w, inner(expr), false)
	case syntax.CodeBlock:
		return nil
	case syntax.Parenthesized:
		w.WriteString(escapeMarkdown(value(inner(expr)).source()))
		return nil
	default:
		w.WriteString(escapeMarkdown(expr.Source()))
		return nil
	}
}

// inner strips the delimiters of a group.
func inner(n *syntax.Node) []*syntax.Node {
	c := n.Children
	if len(c) > 0 {
		switch c[0].Kind {
		case syntax.LeftBracket, syntax.LeftParen, syntax.LeftBrace:
			c = c[1:]
		}
	}
	if len(c) > 0 {
		switch c[len(c)-1].Kind {
		case syntax.RightBracket, syntax.RightParen, syntax.RightBrace:
			c = c[:len(c)-1]
		}
	}
	return c
}

// set applies page setup; every other set rule styles text and is ignored.
func (t *translator) set(rule *syntax.Node) error {
	fc := rule.Find(syntax.FuncCall)
	if fc == nil || fc.Children[0].Text != "page" {
		return nil
	}
	a := parseArgs(fc.Find(syntax.Args))
	if v, ok := a.named["paper"]; ok {
		name, _ := v.str()
		size, ok := paperSizes[name]
		if !ok {
			return diagnostic("unknown paper size: %s", v.source())
		}
		t.width, t.height = size[0], size[1]
	}
	if v, ok := a.named["width"]; ok {
		if pt, ok := points(v); ok {
			t.width = pt
		}
	}
	if v, ok := a.named["height"]; ok {
		if pt, ok := points(v); ok {
			t.height = pt
		}
	}
	return nil
}

// points converts an absolute length to points.
func points(v value) (float64, bool) {
	n := v.single()
	if n == nil || n.Kind != syntax.Numeric {
		return 0, false
	}
	factors := map[string]float64{"pt": 1, "mm": 72 / 25.4, "cm": 72 / 2.54, "in": 72}
	for unit, f := range factors {
		if num, ok := strings.CutSuffix(n.Text, unit); ok {
			var x float64
			if _, err := fmt.Sscanf(num, "%g", &x); err != nil || x <= 0 {
				return 0, false
			}
			return x * f, true
		}
	}
	return 0, false
}

// let records a binding so later references to it resolve. Function
// definitions are recorded by name and render nothing when called.
func (t *translator) let(binding *syntax.Node) error {
	atoms := trimValue(binding.Children[1:])
	if len(atoms) == 0 {
		return nil
	}
	head := atoms[0]
	if head.Kind == syntax.FuncCall {
		t.funcs[head.Children[0].Text] = true
		return nil
	}
	if head.Kind != syntax.Ident {
		return nil
	}

	var val value
	for i, n := range atoms[1:] {
		if n.Kind == syntax.Eq {
			val = trimValue(atoms[i+2:])
			break
		}
	}
	md, err := t.valueMarkdown(val)
	if err != nil {
		return err
	}
	t.vars[head.Text] = md
	return nil
}

// valueMarkdown evaluates an argument into Markdown.
func (t *translator) valueMarkdown(v value) (string, error) {
	n := v.single()
	if n == nil {
		return escapeMarkdown(v.source()), nil
	}
	var b strings.Builder
	switch n.Kind {
	case syntax.Str:
		return escapeMarkdown(unquote(n.Text)), nil
	case syntax.None:
		return "", nil
	case syntax.ContentBlock:
		err := t.markup(&b, inner(n), false)
		return b.String(), err
	case syntax.FuncCall:
		err := t.call(&b, n, false)
		return b.String(), err
	case syntax.Ident:
		md, ok := t.vars[n.Text]
		if !ok {
			return "", diagnostic("unknown variable: %s", n.Text)
		}
		return md, nil
	default:
		return escapeMarkdown(n.Source()), nil
	}
}

// blockHTML renders a content argument as block-level HTML.
func (t *translator) blockHTML(v value) (string, error) {
	md, err := t.valueMarkdown(v)
	if err != nil {
		return "", err
	}
	return t.render(md)
}

// inlineHTML renders a content argument as inline HTML.
func (t *translator) inlineHTML(v value) (string, error) {
	out, err := t.blockHTML(v)
	return stripParagraph(out), err
}

// ----------------------------------------------------------------------------
// Functions
// ----------------------------------------------------------------------------

func (t *translator) call(w *strings.Builder, fc *syntax.Node, top bool) error {
	name := fc.Children[0].Text
	a := parseArgs(fc.Find(syntax.Args))

	switch name {
	case "pagebreak":
		if !top {
			return diagnostic("pagebreaks are not allowed inside of containers")
		}
		if weak, _ := a.named["weak"].boolean(); weak && strings.TrimSpace(t.cur.String()) == "" {
			return nil
		}
		t.breakPage()
	case "image":
		return t.image(w, a)
	case "figure":
		return t.figure(w, a)
	case "table":
		return t.table(w, a)
	case "rect", "square", "circle", "ellipse", "block":
		return t.shape(w, name, a, true)
	case "box":
		return t.shape(w, name, a, false)
	case "bibliography":
		return t.bibliographyList(w, a)
	case "cite":
		if len(a.pos) == 0 {
			return diagnostic("missing argument: key")
		}
		key, ok := citeKey(a.pos[0])
		if !ok {
			return diagnostic("expected label, found %s", a.pos[0].source())
		}
		return t.ref(w, key)
	case "lorem":
		n := 0
		if len(a.pos) > 0 {
			n, _ = a.pos[0].integer()
		}
		if n <= 0 {
			return diagnostic("missing argument: words")
		}
		w.WriteString(escapeMarkdown(lorem(n)))
	case "strong", "emph":
		mark := "**"
		if name == "emph" {
			mark = "*"
		}
		md, err := t.lastContent(a)
		if err != nil || strings.TrimSpace(md) == "" {
			return err
		}
		w.WriteString(mark + strings.TrimSpace(md) + mark)
	case "heading":
		level := 1
		if v, ok := a.named["level"]; ok {
			level, _ = v.integer()
		}
		level = min(max(level, 1), 6)
		md, err := t.lastContent(a)
		if err != nil {
			return err
		}
		w.WriteString("\n\n" + strings.Repeat("#", level) + " " + strings.TrimSpace(md) + "\n\n")
	case "link":
		return t.link(w, a)
	case "raw":
		if len(a.pos) == 0 {
			return diagnostic("missing argument: text")
		}
		text, _ := a.pos[0].str()
		lang, _ := a.named["lang"].str()
		block, _ := a.named["block"].boolean()
		t.code(w, text, lang, block)
	case "linebreak":
		w.WriteString("\\\n")
	case "parbreak", "v", "colbreak":
		w.WriteString("\n\n")
	case "h":
		w.WriteString(" ")
	case "text", "align", "pad", "par", "underline", "overline", "strike", "highlight", "smallcaps", "upper", "lower":
		md, err := t.lastContent(a)
		if err != nil {
			return err
		}
		w.WriteString(md)
	case "rgb", "luma", "cmyk":
		w.WriteString(escapeMarkdown(fc.Source()))
	default:
		if t.funcs[name] {
			return nil
		}
		return diagnostic("unknown function: %s", name)
	}
	return nil
}

// lastContent evaluates the body of a styling function, its last positional
// argument.
func (t *translator) lastContent(a arguments) (string, error) {
	if len(a.pos) == 0 {
		return "", nil
	}
	return t.valueMarkdown(a.pos[len(a.pos)-1])
}

func (t *translator) link(w *strings.Builder, a arguments) error {
	if len(a.pos) == 0 {
		return diagnostic("missing argument: dest")
	}
	dest, ok := a.pos[0].str()
	if !ok {
		return diagnostic("expected string, found %s", a.pos[0].source())
	}
	body := escapeMarkdown(dest)
	if len(a.pos) > 1 {
		md, err := t.valueMarkdown(a.pos[len(a.pos)-1])
		if err != nil {
			return err
		}
		body = md
	}
	if strings.ContainsAny(dest, "<>\r\n") {
		w.WriteString(body)
		return nil
	}
	w.WriteString("[" + body + "](<" + dest + ">)")
	return nil
}

func (t *translator) image(w *strings.Builder, a arguments) error {
	if len(a.pos) == 0 {
		return diagnostic("missing argument: path")
	}
	path, ok := a.pos[0].str()
	if !ok {
		return diagnostic("expected string, found %s", a.pos[0].source())
	}
	data, ok := t.unit.Blob(path)
	if !ok {
		data, ok = t.unit.Blob(strings.TrimLeft(strings.TrimPrefix(path, "./"), "/"))
	}
	if !ok {
		return diagnostic("file not found (searched at %s)", path)
	}
	mime := imageType(data)
	if mime == "" {
		return diagnostic("failed to decode image (%s): unknown image format", path)
	}

	var decls []string
	if v, ok := a.named["width"]; ok {
		if css, ok := v.length(); ok {
			decls = append(decls, "width: "+css)
		}
	}
	if v, ok := a.named["height"]; ok {
		if css, ok := v.length(); ok {
			decls = append(decls, "height: "+css)
		}
	}
	alt, _ := a.named["alt"].str()

	img := fmt.Sprintf(`<img src="data:%s;base64,%s" alt="%s"%s />`,
		mime, base64.StdEncoding.EncodeToString(data), html.EscapeString(alt), styleAttr(decls))
	w.WriteString(t.snips.add(img))
	return nil
}

// imageType sniffs the MIME type of a raster or SVG image.
func imageType(data []byte) string {
	switch ct := http.DetectContentType(data); ct {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
		return ct
	}
	head := bytes.TrimSpace(data[:min(len(data), 512)])
	if bytes.HasPrefix(head, []byte("<svg")) ||
		(bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(head, []byte("<svg"))) {
		return "image/svg+xml"
	}
	return ""
}

func (t *translator) figure(w *strings.Builder, a arguments) error {
	if len(a.pos) == 0 {
		return diagnostic("missing argument: body")
	}
	body, err := t.blockHTML(a.pos[0])
	if err != nil {
		return err
	}

	supplement := "Figure"
	if n := a.pos[0].single(); n != nil && n.Kind == syntax.FuncCall && n.Children[0].Text == "table" {
		supplement = "Table"
	}
	if s, ok := a.named["supplement"].str(); ok {
		supplement = s
	}

	t.figures[supplement]++
	caption := ""
	if c, ok := a.named["caption"]; ok && !c.isNone() {
		text, err := t.inlineHTML(c)
		if err != nil {
			return err
		}
		caption = fmt.Sprintf("<figcaption>%s %d: %s</figcaption>",
			html.EscapeString(supplement), t.figures[supplement], text)
	}
	w.WriteString("\n\n" + t.snips.add(`<figure class="typst-figure">`+body+caption+`</figure>`) + "\n\n")
	return nil
}

// table writes a GFM table. The first row becomes the header row.
func (t *translator) table(w *strings.Builder, a arguments) error {
	cols := 1
	if v, ok := a.named["columns"]; ok {
		if n, ok := v.integer(); ok && n > 0 {
			cols = n
		} else if items := parseTuple(v.single()); len(items) > 0 {
			cols = len(items)
		}
	}

	cells := make([]string, 0, len(a.pos))
	for _, v := range a.pos {
		md, err := t.valueMarkdown(v)
		if err != nil {
			return err
		}
		cells = append(cells, strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(md)))
	}
	if len(cells) == 0 {
		return nil
	}
	for len(cells)%cols != 0 {
		cells = append(cells, "")
	}

	w.WriteString("\n\n")
	for r := 0; r*cols < len(cells); r++ {
		w.WriteString("| " + strings.Join(cells[r*cols:(r+1)*cols], " | ") + " |\n")
		if r == 0 {
			w.WriteString("|" + strings.Repeat(" --- |", cols) + "\n")
		}
	}
	w.WriteString("\n")
	return nil
}

// shape draws rect, box and their variants as sized, filled containers.
func (t *translator) shape(w *strings.Builder, name string, a arguments, block bool) error {
	var body value
	if v, ok := a.named["body"]; ok {
		body = v
	} else if len(a.pos) > 0 {
		body = a.pos[len(a.pos)-1]
	}

	var decls []string
	width, hasWidth := a.named["width"].length()
	height, hasHeight := a.named["height"].length()
	if !hasWidth && body == nil && block {
		width, hasWidth = "45pt", true
	}
	if !hasHeight && body == nil && block {
		height, hasHeight = "30pt", true
	}
	if hasWidth {
		decls = append(decls, "width: "+width)
	}
	switch {
	case name == "square" || name == "circle":
		if hasWidth {
			decls = append(decls, "height: "+width)
		} else {
			decls = append(decls, "aspect-ratio: 1")
		}
	case hasHeight:
		decls = append(decls, "height: "+height)
	}
	if name == "circle" || name == "ellipse" {
		decls = append(decls, "border-radius: 50%")
	} else if r, ok := a.named["radius"].length(); ok {
		decls = append(decls, "border-radius: "+r)
	}
	if c, ok := a.named["fill"].color(); ok {
		decls = append(decls, "background: "+c)
	}
	if c, ok := a.named["stroke"].color(); ok {
		decls = append(decls, "border: 1px solid "+c)
	}

	content := ""
	if body != nil {
		var err error
		if block {
			content, err = t.blockHTML(body)
		} else {
			content, err = t.inlineHTML(body)
		}
		if err != nil {
			return err
		}
	}

	if block {
		snip := `<div class="placeholder-box"` + styleAttr(decls) + `>` + content + `</div>`
		w.WriteString("\n\n" + t.snips.add(snip) + "\n\n")
		return nil
	}
	decls = append([]string{"display: inline-block"}, decls...)
	w.WriteString(t.snips.add(`<span class="placeholder-box"` + styleAttr(decls) + `>` + content + `</span>`))
	return nil
}

func (t *translator) bibliographyList(w *strings.Builder, a arguments) error {
	if t.bibShown {
		return diagnostic("multiple bibliographies are not supported")
	}
	if t.bib == nil {
		return diagnostic("missing argument: path")
	}
	t.bibShown = true

	title := "Bibliography"
	if v, ok := a.named["title"]; ok {
		md, err := t.valueMarkdown(v)
		if err != nil {
			return err
		}
		title = strings.TrimSpace(md)
	}
	full, _ := a.named["full"].boolean()

	if title != "" {
		w.WriteString("\n\n# " + title + "\n\n")
	}
	refs := t.bib.references(t.cites, full)
	w.WriteString("\n\n" + t.snips.add(t.bib.referenceList(refs, t.cites)) + "\n\n")
	return nil
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// markdownEscaper backslash-escapes the ASCII punctuation Markdown gives
// meaning to, and drops placeholder characters so source text can never
// forge a snippet reference.
var markdownEscaper = func() *strings.Replacer {
	pairs := []string{placeholderStart, "", placeholderEnd, ""}
	for _, c := range "\\`*_[]<>()#+-.!|~&=" {
		pairs = append(pairs, string(c), `\`+string(c))
	}
	return strings.NewReplacer(pairs...)
}()

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// codeSpan wraps s in a backtick fence longer than any run inside it.
func codeSpan(s string) string {
	if s == "" {
		return ""
	}
	fence := strings.Repeat("`", longestRun(s, '`')+1)
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		s = " " + s + " "
	}
	return fence + s + fence
}

func longestRun(s string, c byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}

func isIdent(s string) bool {
	for i, r := range s {
		if !(unicode.IsLetter(r) || (i > 0 && (unicode.IsDigit(r) || r == '-' || r == '_' || r == '+'))) {
			return false
		}
	}
	return s != ""
}

func styleAttr(decls []string) string {
	if len(decls) == 0 {
		return ""
	}
	return ` style="` + html.EscapeString(strings.Join(decls, "; ")) + `;"`
}

var loremWords = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing
elit sed do eiusmod tempor incididunt ut labore et dolore magna aliqua ut enim
ad minim veniam quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea
commodo consequat duis aute irure dolor in reprehenderit in voluptate velit
esse cillum dolore eu fugiat nulla pariatur excepteur sint occaecat cupidatat
non proident sunt in culpa qui officia deserunt mollit anim id est laborum`)

// lorem returns n words of placeholder text as one sentence.
func lorem(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = loremWords[i%len(loremWords)]
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ") + "."
}
