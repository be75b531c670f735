package syntax

// MaxDepth bounds container nesting. Opening delimiters met beyond this depth
// are kept as plain text, so hostile input cannot grow the tree without bound.
const MaxDepth = 256

var keywords = map[string]Kind{
	"set":     Set,
	"let":     Let,
	"show":    Show,
	"import":  Import,
	"include": Include,
}

var ruleKinds = map[Kind]Kind{
	Set:     SetRule,
	Let:     LetBinding,
	Show:    ShowRule,
	Import:  ModuleImport,
	Include: ModuleInclude,
}

// Parse builds a lossless syntax tree for source. The root is always a
// Markup node; concatenating its leaves yields source unchanged.
// Parse never fails: input the lexer rejects becomes a single Text leaf.
func Parse(source string) *Node {
	if source == "" {
		return container(Markup, nil)
	}
	toks, err := tokenize(source)
	if err != nil {
		return container(Markup, []*Node{leaf(Text, source)})
	}
	p := &parser{toks: toks}
	children := p.markup(stopAtEOF, true)
	for !p.at(tEOF) {
		// Only reachable if a stop condition left tokens behind.
		children = append(children, leaf(Text, p.next().val))
	}
	return container(Markup, mergeText(children))
}

type stopFn func(p *parser) bool

func stopAtEOF(*parser) bool { return false }

type parser struct {
	toks  []token
	pos   int
	depth int
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) peek(n int) token {
	if p.pos+n >= len(p.toks) {
		return token{typ: tEOF}
	}
	return p.toks[p.pos+n]
}

func (p *parser) at(t tokType) bool { return p.cur().typ == t }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.typ != tEOF {
		p.pos++
	}
	return t
}

// enter reports whether another container level may be opened.
func (p *parser) enter() bool {
	if p.depth >= MaxDepth {
		return false
	}
	p.depth++
	return true
}

func (p *parser) leave() { p.depth-- }

// parbreakAhead reports whether the whitespace run at the cursor holds two
// or more line breaks.
func (p *parser) parbreakAhead() bool {
	lines := 0
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].typ {
		case tNewline:
			lines++
			if lines >= 2 {
				return true
			}
		case tSpace:
		default:
			return false
		}
	}
	return false
}

// ----------------------------------------------------------------------------
// Markup mode
// ----------------------------------------------------------------------------

func (p *parser) markup(stop stopFn, lineStart bool) []*Node {
	var nodes []*Node
	for !p.at(tEOF) && !stop(p) {
		t := p.cur()

		if t.typ == tNewline {
			nodes = append(nodes, p.whitespace())
			lineStart = true
			continue
		}
		if t.typ == tSpace {
			nodes = append(nodes, leaf(Space, p.next().val))
			continue
		}
		if lineStart {
			if n := p.lineItem(stop); n != nil {
				nodes = append(nodes, n)
				lineStart = false
				continue
			}
		}
		lineStart = false

		switch t.typ {
		case tStar:
			nodes = append(nodes, p.delimited(Strong, Star, tStar, stop))
		case tUnderscore:
			nodes = append(nodes, p.delimited(Emph, Underscore, tUnderscore, stop))
		case tDollar:
			nodes = append(nodes, p.equation(stop))
		case tRawBlock, tRawInline:
			nodes = append(nodes, leaf(Raw, p.next().val))
		case tLineComment:
			nodes = append(nodes, leaf(LineComment, p.next().val))
		case tBlockComment:
			nodes = append(nodes, leaf(BlockComment, p.next().val))
		case tLabel:
			nodes = append(nodes, leaf(Label, p.next().val))
		case tRef:
			nodes = append(nodes, leaf(Ref, p.next().val))
		case tEscape:
			nodes = append(nodes, leaf(Escape, p.next().val))
		case tHash:
			nodes = append(nodes, p.embedded(stop)...)
		default:
			nodes = append(nodes, leaf(Text, p.next().val))
		}
	}
	return mergeText(nodes)
}

// whitespace consumes a run of line breaks and blanks.
func (p *parser) whitespace() *Node {
	var text string
	lines := 0
	for p.at(tNewline) || p.at(tSpace) {
		t := p.next()
		if t.typ == tNewline {
			lines++
		}
		text += t.val
		if lines == 1 && !p.parbreakAhead() {
			break
		}
	}
	if lines >= 2 {
		return leaf(Parbreak, text)
	}
	return leaf(Space, text)
}

// lineItem parses a heading, bullet or numbered item at the start of a line.
func (p *parser) lineItem(stop stopFn) *Node {
	t := p.cur()
	var kind, marker Kind
	var markerText string
	switch {
	case t.typ == tEqs && p.peek(1).typ == tSpace:
		kind, marker, markerText = Heading, HeadingMarker, t.val
		p.next()
	case t.typ == tMinus && p.peek(1).typ == tSpace:
		kind, marker, markerText = ListItem, ListMarker, t.val
		p.next()
	case t.typ == tPlus && p.peek(1).typ == tSpace:
		kind, marker, markerText = EnumItem, EnumMarker, t.val
		p.next()
	case t.typ == tInt && p.peek(1).typ == tDot && p.peek(2).typ == tSpace:
		kind, marker, markerText = EnumItem, EnumMarker, t.val+p.peek(1).val
		p.next()
		p.next()
	default:
		return nil
	}
	if !p.enter() {
		return leaf(Text, markerText)
	}
	defer p.leave()

	children := []*Node{leaf(marker, markerText), leaf(Space, p.next().val)}
	body := p.markup(func(p *parser) bool { return p.at(tNewline) || stop(p) }, false)
	return container(kind, append(children, body...))
}

// delimited parses strong or emphasized text. It ends at the matching
// delimiter, a paragraph break or the enclosing stop condition.
func (p *parser) delimited(kind, delim Kind, tt tokType, stop stopFn) *Node {
	open := p.next()
	if !p.enter() {
		return leaf(Text, open.val)
	}
	defer p.leave()

	children := []*Node{leaf(delim, open.val)}
	body := p.markup(func(p *parser) bool {
		return p.at(tt) || (p.at(tNewline) && p.parbreakAhead()) || stop(p)
	}, false)
	children = append(children, body...)
	if p.at(tt) {
		children = append(children, leaf(delim, p.next().val))
	}
	return container(kind, children)
}

func (p *parser) equation(stop stopFn) *Node {
	open := p.next()
	if !p.enter() {
		return leaf(Text, open.val)
	}
	defer p.leave()

	children := []*Node{leaf(Dollar, open.val)}
	var body []*Node
	for !p.at(tEOF) && !p.at(tDollar) && !stop(p) {
		t := p.next()
		if t.typ == tIdent {
			body = append(body, leaf(MathIdent, t.val))
			continue
		}
		if n := len(body); n > 0 && body[n-1].Kind == Math {
			body[n-1] = leaf(Math, body[n-1].Text+t.val)
			continue
		}
		body = append(body, leaf(Math, t.val))
	}
	if len(body) > 0 {
		children = append(children, container(Math, body))
	}
	if p.at(tDollar) {
		children = append(children, leaf(Dollar, p.next().val))
	}
	return container(Equation, children)
}

// embedded parses a hash-prefixed expression in markup. The hash is returned
// as a sibling leaf of the expression it introduces.
func (p *parser) embedded(stop stopFn) []*Node {
	hash := p.next()
	next := p.cur()
	switch next.typ {
	case tIdent:
		if kw, ok := keywords[next.val]; ok {
			return []*Node{leaf(Hash, hash.val), p.rule(kw, stop)}
		}
		return append([]*Node{leaf(Hash, hash.val)}, p.postfix(p.identExpr())...)
	case tLParen, tLBracket, tLBrace:
		return []*Node{leaf(Hash, hash.val), p.codeAtom()}
	default:
		return []*Node{leaf(Text, hash.val)}
	}
}

// rule parses a set, let, show, import or include statement up to the end
// of its line.
func (p *parser) rule(kw Kind, stop stopFn) *Node {
	word := p.next()
	if !p.enter() {
		return leaf(Text, word.val)
	}
	defer p.leave()

	children := []*Node{leaf(kw, word.val)}
	children = append(children, p.code(func(p *parser) bool {
		return p.at(tNewline) || stop(p)
	})...)
	return container(ruleKinds[kw], children)
}

// postfix continues an embedded expression through field accesses.
func (p *parser) postfix(first *Node) []*Node {
	nodes := []*Node{first}
	for p.at(tDot) && p.peek(1).typ == tIdent {
		nodes = append(nodes, leaf(Dot, p.next().val), p.identExpr())
	}
	return nodes
}

// ----------------------------------------------------------------------------
// Code mode
// ----------------------------------------------------------------------------

func (p *parser) code(stop stopFn) []*Node {
	var nodes []*Node
	for !p.at(tEOF) && !stop(p) {
		nodes = append(nodes, p.codeAtom())
	}
	return mergeText(nodes)
}

func (p *parser) codeAtom() *Node {
	t := p.cur()
	switch t.typ {
	case tIdent:
		if kw, ok := keywords[t.val]; ok {
			return leaf(kw, p.next().val)
		}
		return p.identExpr()
	case tQuote:
		return p.str()
	case tInt, tFloat:
		return p.number()
	case tLParen:
		return p.group(Parenthesized, LeftParen, RightParen, tRParen, false)
	case tLBracket:
		return p.group(ContentBlock, LeftBracket, RightBracket, tRBracket, true)
	case tLBrace:
		return p.group(CodeBlock, LeftBrace, RightBrace, tRBrace, false)
	case tNewline, tSpace:
		return leaf(Space, p.next().val)
	case tLineComment:
		return leaf(LineComment, p.next().val)
	case tBlockComment:
		return leaf(BlockComment, p.next().val)
	case tPlus:
		return leaf(Plus, p.next().val)
	case tMinus:
		return leaf(Minus, p.next().val)
	case tSlash:
		return leaf(Slash, p.next().val)
	case tComma:
		return leaf(Comma, p.next().val)
	case tColon:
		return leaf(Colon, p.next().val)
	case tSemicolon:
		return leaf(Semicolon, p.next().val)
	case tDot:
		return leaf(Dot, p.next().val)
	case tEqs:
		switch t.val {
		case "=":
			return leaf(Eq, p.next().val)
		case "==":
			return leaf(EqEq, p.next().val)
		}
		return leaf(Text, p.next().val)
	case tRawBlock, tRawInline:
		return leaf(Raw, p.next().val)
	case tLabel:
		return leaf(Label, p.next().val)
	default:
		return leaf(Text, p.next().val)
	}
}

// identExpr parses an identifier, which becomes a function call when
// arguments or a content block follow immediately.
func (p *parser) identExpr() *Node {
	name := p.next().val
	for p.at(tUnderscore) || p.at(tIdent) || p.at(tInt) {
		name += p.next().val
	}
	switch name {
	case "true", "false":
		return leaf(Bool, name)
	case "none":
		return leaf(None, name)
	}
	id := leaf(Ident, name)
	if !p.at(tLParen) && !p.at(tLBracket) {
		return id
	}
	if !p.enter() {
		return id
	}
	defer p.leave()

	var args []*Node
	if p.at(tLParen) {
		g := p.group(Parenthesized, LeftParen, RightParen, tRParen, false)
		if g.IsLeaf() {
			args = append(args, g)
		} else {
			args = append(args, g.Children...)
		}
	}
	for p.at(tLBracket) {
		args = append(args, p.group(ContentBlock, LeftBracket, RightBracket, tRBracket, true))
	}
	return container(FuncCall, []*Node{id, container(Args, args)})
}

// group parses a bracketed construct. Content blocks hold markup; the others
// hold code. An unclosed group runs to the end of input.
func (p *parser) group(kind, open, close Kind, closeTok tokType, markup bool) *Node {
	o := p.next()
	if !p.enter() {
		return leaf(Text, o.val)
	}
	defer p.leave()

	children := []*Node{leaf(open, o.val)}
	stop := func(p *parser) bool { return p.at(closeTok) }
	if markup {
		children = append(children, p.markup(stop, false)...)
	} else {
		children = append(children, p.code(stop)...)
	}
	if p.at(closeTok) {
		children = append(children, leaf(close, p.next().val))
	}
	return container(kind, children)
}

func (p *parser) str() *Node {
	text := p.next().val
	for p.at(tStrBody) {
		text += p.next().val
	}
	if p.at(tQuote) {
		text += p.next().val
	}
	return leaf(Str, text)
}

// number parses an integer or float, absorbing a directly attached unit
// such as pt, em or %.
func (p *parser) number() *Node {
	t := p.next()
	kind := Int
	if t.typ == tFloat {
		kind = Float
	}
	if p.at(tIdent) || (p.at(tChar) && p.cur().val == "%") {
		return leaf(Numeric, t.val+p.next().val)
	}
	return leaf(kind, t.val)
}
