package syntax

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// tokType is the parser's view of a lexer symbol.
type tokType uint8

const (
	tChar tokType = iota
	tBlockComment
	tLineComment
	tRawBlock
	tRawInline
	tNewline
	tSpace
	tLabel
	tRef
	tEscape
	tFloat
	tInt
	tIdent
	tEqs
	tQuote
	tStrBody
	tStar
	tUnderscore
	tDollar
	tHash
	tPlus
	tMinus
	tSlash
	tLParen
	tRParen
	tLBracket
	tRBracket
	tLBrace
	tRBrace
	tComma
	tColon
	tSemicolon
	tDot
	tEOF
)

type token struct {
	typ tokType
	val string
}

// markupLexer splits source into tokens. Strings get their own state so
// that comment and raw delimiters inside quotes stay literal; a string never
// spans a line break.
var markupLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "BlockComment", Pattern: `/\*(?s:.*?)\*/`},
		{Name: "LineComment", Pattern: `//[^\r\n]*`},
		{Name: "RawBlock", Pattern: "```(?s:.*?)```"},
		{Name: "RawInline", Pattern: "`[^`\r\n]*`"},
		{Name: "Newline", Pattern: `\r\n|\r|\n`},
		{Name: "Space", Pattern: `[ \t]+`},
		{Name: "Label", Pattern: `<[\p{L}_][\p{L}\p{N}_\-.:]*>`},
		{Name: "Ref", Pattern: `@[\p{L}_][\p{L}\p{N}_\-]*(?:[.:][\p{L}\p{N}_\-]+)*`},
		{Name: "Escape", Pattern: `\\[^\s]`},
		{Name: "Float", Pattern: `\d+\.\d+`},
		{Name: "Int", Pattern: `\d+`},
		{Name: "Ident", Pattern: `\p{L}[\p{L}\p{N}]*(?:-[\p{L}\p{N}]+)*`},
		{Name: "Eqs", Pattern: `=+`},
		{Name: "Quote", Pattern: `"`, Action: lexer.Push("String")},
		{Name: "Star", Pattern: `\*`},
		{Name: "Underscore", Pattern: `_`},
		{Name: "Dollar", Pattern: `\$`},
		{Name: "Hash", Pattern: `#`},
		{Name: "Plus", Pattern: `\+`},
		{Name: "Minus", Pattern: `-`},
		{Name: "Slash", Pattern: `/`},
		{Name: "LParen", Pattern: `\(`},
		{Name: "RParen", Pattern: `\)`},
		{Name: "LBracket", Pattern: `\[`},
		{Name: "RBracket", Pattern: `\]`},
		{Name: "LBrace", Pattern: `\{`},
		{Name: "RBrace", Pattern: `\}`},
		{Name: "Comma", Pattern: `,`},
		{Name: "Colon", Pattern: `:`},
		{Name: "Semicolon", Pattern: `;`},
		{Name: "Dot", Pattern: `\.`},
		{Name: "Char", Pattern: `[\s\S]`},
	},
	"String": {
		{Name: "StrEscape", Pattern: `\\(?:\r\n|[\s\S])`},
		{Name: "StrEnd", Pattern: `"`, Action: lexer.Pop()},
		{Name: "StrBreak", Pattern: `\r\n|\r|\n`, Action: lexer.Pop()},
		{Name: "StrBody", Pattern: `[^"\\\r\n]+`},
	},
})

var symbolTypes = buildSymbolTypes()

func buildSymbolTypes() map[lexer.TokenType]tokType {
	names := map[string]tokType{
		"BlockComment": tBlockComment,
		"LineComment":  tLineComment,
		"RawBlock":     tRawBlock,
		"RawInline":    tRawInline,
		"Newline":      tNewline,
		"Space":        tSpace,
		"Label":        tLabel,
		"Ref":          tRef,
		"Escape":       tEscape,
		"Float":        tFloat,
		"Int":          tInt,
		"Ident":        tIdent,
		"Eqs":          tEqs,
		"Quote":        tQuote,
		"Star":         tStar,
		"Underscore":   tUnderscore,
		"Dollar":       tDollar,
		"Hash":         tHash,
		"Plus":         tPlus,
		"Minus":        tMinus,
		"Slash":        tSlash,
		"LParen":       tLParen,
		"RParen":       tRParen,
		"LBracket":     tLBracket,
		"RBracket":     tRBracket,
		"LBrace":       tLBrace,
		"RBrace":       tRBrace,
		"Comma":        tComma,
		"Colon":        tColon,
		"Semicolon":    tSemicolon,
		"Dot":          tDot,
		"Char":         tChar,
		"StrEscape":    tStrBody,
		"StrBody":      tStrBody,
		"StrEnd":       tQuote,
		"StrBreak":     tNewline,
	}
	out := make(map[lexer.TokenType]tokType, len(names))
	for name, sym := range markupLexer.Symbols() {
		if t, ok := names[name]; ok {
			out[sym] = t
		}
	}
	return out
}

// tokenize lexes source. The returned slice always ends with a tEOF token.
func tokenize(source string) ([]token, error) {
	lex, err := markupLexer.LexString("", source)
	if err != nil {
		return nil, err
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}
	toks := make([]token, 0, len(raw))
	for _, t := range raw {
		if t.EOF() {
			break
		}
		typ, ok := symbolTypes[t.Type]
		if !ok {
			typ = tChar
		}
		toks = append(toks, token{typ: typ, val: t.Value})
	}
	return append(toks, token{typ: tEOF}), nil
}
