package syntax

// Kind tags a node of the syntax tree.
type Kind uint8

// Node kinds. Containers and leaves share one namespace; whether a node is
// a leaf is decided by its children, not by its kind.
const (
	Markup Kind = iota
	Text
	Space
	Parbreak
	Escape
	LineComment
	BlockComment

	Strong
	Emph
	Star
	Underscore
	Raw
	Heading
	HeadingMarker
	ListItem
	ListMarker
	EnumItem
	EnumMarker
	Label
	Ref

	Equation
	Dollar
	Math
	MathIdent

	Hash
	FuncCall
	Ident
	Args
	ContentBlock
	CodeBlock
	Parenthesized
	Str
	Int
	Float
	Numeric
	Bool
	None

	Plus
	Minus
	Slash
	Eq
	EqEq
	Comma
	Colon
	Semicolon
	Dot
	LeftParen
	RightParen
	LeftBracket
	RightBracket
	LeftBrace
	RightBrace

	SetRule
	LetBinding
	ShowRule
	ModuleImport
	ModuleInclude
	Set
	Let
	Show
	Import
	Include

	kindCount
)

var kindNames = [kindCount]string{
	Markup:        "markup",
	Text:          "text",
	Space:         "space",
	Parbreak:      "parbreak",
	Escape:        "escape",
	LineComment:   "line comment",
	BlockComment:  "block comment",
	Strong:        "strong",
	Emph:          "emph",
	Star:          "star",
	Underscore:    "underscore",
	Raw:           "raw",
	Heading:       "heading",
	HeadingMarker: "heading marker",
	ListItem:      "list item",
	ListMarker:    "list marker",
	EnumItem:      "enum item",
	EnumMarker:    "enum marker",
	Label:         "label",
	Ref:           "reference",
	Equation:      "equation",
	Dollar:        "dollar",
	Math:          "math",
	MathIdent:     "math identifier",
	Hash:          "hash",
	FuncCall:      "function call",
	Ident:         "identifier",
	Args:          "arguments",
	ContentBlock:  "content block",
	CodeBlock:     "code block",
	Parenthesized: "parenthesized",
	Str:           "string",
	Int:           "integer",
	Float:         "float",
	Numeric:       "numeric",
	Bool:          "boolean",
	None:          "none",
	Plus:          "plus",
	Minus:         "minus",
	Slash:         "slash",
	Eq:            "eq",
	EqEq:          "eq eq",
	Comma:         "comma",
	Colon:         "colon",
	Semicolon:     "semicolon",
	Dot:           "dot",
	LeftParen:     "left paren",
	RightParen:    "right paren",
	LeftBracket:   "left bracket",
	RightBracket:  "right bracket",
	LeftBrace:     "left brace",
	RightBrace:    "right brace",
	SetRule:       "set rule",
	LetBinding:    "let binding",
	ShowRule:      "show rule",
	ModuleImport:  "module import",
	ModuleInclude: "module include",
	Set:           "keyword set",
	Let:           "keyword let",
	Show:          "keyword show",
	Import:        "keyword import",
	Include:       "keyword include",
}

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "unknown"
}

// Kinds returns every defined kind, in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
