// token.go: token kinds and source positions shared by the lexer and parser.
package pulse

import "fmt"

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LPAREN // "("
	RPAREN // ")"
	LBRACE // "{"
	RBRACE // "}"
	COLON  // ":"
	COMMA  // ","
	SEMI   // ";"

	// Operators
	PLUS   // "+"
	MINUS  // "-"
	MULT   // "*"
	DIV    // "/"
	ASSIGN // "="
	EQ     // "=="
	NEQ    // "!="
	BANG   // "!"
	LESS
	LESS_EQ
	GREATER
	GREATER_EQ
	AND // "&&"
	OR  // "||"

	// Literals & identifiers
	IDENT
	INT    // integer literal, optionally suffixed with 'i' or 'u'
	FLOAT  // float literal, optionally suffixed with 'f'
	STRING // string literal (decoded content in Literal)

	// Keywords
	LET
	IF
	ELIF
	ELSE
	YIELD
	RETURN
	TYPENAME // "int", "uint", "float", "string" (Lexeme carries the name)
)

var tokenNames = map[TokenType]string{
	EOF:        "<eof>",
	ILLEGAL:    "<illegal>",
	LPAREN:     "(",
	RPAREN:     ")",
	LBRACE:     "{",
	RBRACE:     "}",
	COLON:      ":",
	COMMA:      ",",
	SEMI:       ";",
	PLUS:       "+",
	MINUS:      "-",
	MULT:       "*",
	DIV:        "/",
	ASSIGN:     "=",
	EQ:         "==",
	NEQ:        "!=",
	BANG:       "!",
	LESS:       "<",
	LESS_EQ:    "<=",
	GREATER:    ">",
	GREATER_EQ: ">=",
	AND:        "&&",
	OR:         "||",
	IDENT:      "identifier",
	INT:        "integer literal",
	FLOAT:      "float literal",
	STRING:     "string literal",
	LET:        "let",
	IF:         "if",
	ELIF:       "elif",
	ELSE:       "else",
	YIELD:      "yield",
	RETURN:     "return",
	TYPENAME:   "type name",
}

func (tt TokenType) String() string {
	if s, ok := tokenNames[tt]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Pos is a source position. Line is 1-based; Col is a 0-based byte column
// within the line (error rendering converts to 1-based for display).
type Pos struct {
	Line int
	Col  int
}

// IntLit is the decoded payload of an INT token. Value holds the magnitude;
// Suffix is 0 (unsuffixed), 'i' or 'u'.
type IntLit struct {
	Value  uint64
	Suffix byte
}

// FloatLit is the decoded payload of a FLOAT token. The 'f' suffix, when
// present, is already folded away.
type FloatLit struct {
	Value float64
}

// Token is a lexical token with an optional decoded literal value.
type Token struct {
	Type    TokenType
	Lexeme  string // raw text slice (decoded content for STRING)
	Literal any    // IntLit, FloatLit, or string for STRING
	Pos     Pos
}

// keywords maps reserved words to their token types. The primitive type
// names are reserved too; the parser reads the concrete name from Lexeme.
var keywords = map[string]TokenType{
	"let":    LET,
	"if":     IF,
	"elif":   ELIF,
	"else":   ELSE,
	"yield":  YIELD,
	"return": RETURN,
	"int":    TYPENAME,
	"uint":   TYPENAME,
	"float":  TYPENAME,
	"string": TYPENAME,
}
