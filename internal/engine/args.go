package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alnah/go-livepreview/internal/syntax"
)

// value is one argument expression: the code atoms between two commas.
type value []*syntax.Node

// single returns the only atom of the value, or nil.
func (v value) single() *syntax.Node {
	if len(v) == 1 {
		return v[0]
	}
	return nil
}

func (v value) source() string {
	var b strings.Builder
	for _, n := range v {
		b.WriteString(n.Source())
	}
	return strings.TrimSpace(b.String())
}

// arguments are the evaluated call site of a function: positional values in
// order (trailing content blocks included) and named values.
type arguments struct {
	pos   []value
	named map[string]value
}

// parseArgs splits the Args node of a call into positional and named values.
func parseArgs(args *syntax.Node) arguments {
	a := arguments{named: map[string]value{}}
	if args == nil {
		return a
	}

	var cur value
	inParens := false
	flush := func() {
		if len(cur) == 0 {
			return
		}
		if len(cur) >= 3 && cur[0].Kind == syntax.Ident && cur[1].Kind == syntax.Colon {
			a.named[cur[0].Text] = trimValue(cur[2:])
		} else {
			a.pos = append(a.pos, cur)
		}
		cur = nil
	}

	for _, n := range args.Children {
		switch {
		case n.Kind == syntax.LeftParen:
			inParens = true
		case n.Kind == syntax.RightParen:
			flush()
			inParens = false
		case n.Kind == syntax.Comma && inParens:
			flush()
		case n.Kind == syntax.Space, n.Kind == syntax.LineComment, n.Kind == syntax.BlockComment:
		case n.Kind == syntax.ContentBlock && !inParens:
			a.pos = append(a.pos, value{n})
		default:
			cur = append(cur, n)
		}
	}
	flush()
	return a
}

// parseTuple splits a parenthesized array literal into its items.
func parseTuple(n *syntax.Node) []value {
	if n == nil || n.Kind != syntax.Parenthesized {
		return nil
	}
	return parseArgs(&syntax.Node{Kind: syntax.Args, Children: n.Children}).pos
}

func trimValue(v value) value {
	for len(v) > 0 && v[0].Kind == syntax.Space {
		v = v[1:]
	}
	for len(v) > 0 && v[len(v)-1].Kind == syntax.Space {
		v = v[:len(v)-1]
	}
	return v
}

// str returns the value of a string literal argument.
func (v value) str() (string, bool) {
	n := v.single()
	if n == nil || n.Kind != syntax.Str {
		return "", false
	}
	return unquote(n.Text), true
}

// integer returns the value of an integer literal argument.
func (v value) integer() (int, bool) {
	n := v.single()
	if n == nil || n.Kind != syntax.Int {
		return 0, false
	}
	i, err := strconv.Atoi(n.Text)
	return i, err == nil
}

func (v value) boolean() (bool, bool) {
	n := v.single()
	if n == nil || n.Kind != syntax.Bool {
		return false, false
	}
	return n.Text == "true", true
}

// isNone reports whether the value is the none literal.
func (v value) isNone() bool {
	n := v.single()
	return n != nil && n.Kind == syntax.None
}

// cssUnits maps length units to their CSS spelling.
var cssUnits = map[string]string{
	"pt": "pt",
	"mm": "mm",
	"cm": "cm",
	"in": "in",
	"em": "em",
	"%":  "%",
}

// length converts a length or ratio literal such as 120pt or 80% to CSS.
func (v value) length() (string, bool) {
	n := v.single()
	if n == nil {
		return "", false
	}
	switch n.Kind {
	case syntax.Int, syntax.Float:
		if n.Text == "0" {
			return "0", true
		}
		return "", false
	case syntax.Numeric:
		num := strings.TrimRightFunc(n.Text, func(r rune) bool {
			return (r < '0' || r > '9') && r != '.'
		})
		unit, ok := cssUnits[n.Text[len(num):]]
		if !ok || num == "" {
			return "", false
		}
		return num + unit, true
	}
	return "", false
}

// namedColors lists the predefined colors accepted by fill and stroke.
var namedColors = map[string]string{
	"black":  "#000000",
	"gray":   "#aaaaaa",
	"silver": "#dddddd",
	"white":  "#ffffff",
	"navy":   "#001f3f",
	"blue":   "#0074d9",
	"aqua":   "#7fdbff",
	"teal":   "#39cccc",
	"purple": "#b10dc9",
	"maroon": "#85144b",
	"red":    "#ff4136",
	"orange": "#ff851b",
	"yellow": "#ffdc00",
	"olive":  "#3d9970",
	"green":  "#2ecc40",
	"lime":   "#01ff70",
}

// color converts a color expression (a named color, rgb("#hex") or
// rgb(r, g, b)) to CSS.
func (v value) color() (string, bool) {
	n := v.single()
	if n == nil {
		return "", false
	}
	switch n.Kind {
	case syntax.Ident:
		c, ok := namedColors[n.Text]
		return c, ok
	case syntax.FuncCall:
		if n.Children[0].Text != "rgb" || len(n.Children) < 2 {
			return "", false
		}
		a := parseArgs(n.Children[1])
		if len(a.pos) == 1 {
			hex, ok := a.pos[0].str()
			if !ok || !validHex(hex) {
				return "", false
			}
			return hex, true
		}
		if len(a.pos) == 3 {
			var rgb [3]int
			for i, p := range a.pos {
				c, ok := p.integer()
				if !ok || c < 0 || c > 255 {
					return "", false
				}
				rgb[i] = c
			}
			return fmt.Sprintf("rgb(%d, %d, %d)", rgb[0], rgb[1], rgb[2]), true
		}
	}
	return "", false
}

func validHex(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	switch len(s) {
	case 4, 5, 7, 9:
	default:
		return false
	}
	for _, r := range s[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// unquote decodes a string literal, including its surrounding quotes.
// An unterminated literal is decoded up to the end of its text.
func unquote(lit string) string {
	s := strings.TrimPrefix(lit, `"`)
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			break
		}
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'u':
			if end := strings.IndexByte(s[i:], '}'); strings.HasPrefix(s[i:], "u{") && end > 2 {
				if r, err := strconv.ParseUint(s[i+2:i+end], 16, 32); err == nil {
					b.WriteRune(rune(r))
					i += end
					continue
				}
			}
			b.WriteString(`\u`)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
