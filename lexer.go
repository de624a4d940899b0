// lexer.go: single-pass scanner from source text to tokens.
//
// The lexer is byte-wise over UTF-8 source (non-ASCII bytes are legal only
// inside string literals). Numeric literals carry their type suffix out of
// the lexer: an unsuffixed integer stays untyped until the checker resolves
// it from context, while 'u'/'i' pin uint/int and 'f' pins float at lex
// time. Lexing does not recover: the first *LexError aborts the compilation.
package pulse

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// LexError is a fatal scanning failure at a source position.
type LexError struct {
	Pos Pos
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LEXICAL ERROR at %d:%d: %s", e.Pos.Line, e.Pos.Col+1, e.Msg)
}

// Lexer scans a Pulse source string into tokens.
type Lexer struct {
	src    string
	start  int // start index of current token
	cur    int // current index
	line   int // 1-based
	col    int // 0-based column within line
	tokens []Token

	// precise token start position
	tokStart Pos
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch, true
}

// match consumes the next byte iff it equals expected.
func (l *Lexer) match(expected byte) bool {
	if b, ok := l.peek(); ok && b == expected {
		l.advance()
		return true
	}
	return false
}

func (l *Lexer) addToken(tt TokenType, lit any) Token {
	lex := l.src[l.start:l.cur]
	tok := Token{
		Type:    tt,
		Lexeme:  lex,
		Literal: lit,
		Pos:     l.tokStart,
	}
	l.tokens = append(l.tokens, tok)
	l.start = l.cur
	return tok
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		ch, _ := l.peek()
		switch ch {
		case ' ', '\r', '\n', '\t':
			l.advance()
			l.start = l.cur
		default:
			return
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}
func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func (l *Lexer) err(msg string) error {
	return &LexError{Pos: Pos{Line: l.line, Col: l.col}, Msg: msg}
}

func (l *Lexer) errAt(pos Pos, msg string) error {
	return &LexError{Pos: pos, Msg: msg}
}

// ----- scanners -----

// scanString decodes a double-quoted string literal with escape sequences.
// The opening quote is already consumed.
func (l *Lexer) scanString() (string, error) {
	var out []rune
	for !l.isAtEnd() {
		ch, _ := l.advance()
		if ch == '"' {
			return string(out), nil
		}
		if ch == '\n' {
			return "", l.errAt(l.tokStart, "string was not terminated")
		}
		if ch == '\\' {
			if l.isAtEnd() {
				return "", l.err("unfinished escape sequence")
			}
			esc, _ := l.advance()
			switch esc {
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case '0':
				out = append(out, 0)
			case 'u':
				// expect 4 hex digits
				var hex string
				for i := 0; i < 4; i++ {
					b, ok := l.peek()
					if !ok || !isHex(b) {
						return "", l.err("unicode escape was not terminated (expect 4 hex digits)")
					}
					hex += string(b)
					l.advance()
				}
				v, convErr := strconv.ParseInt(hex, 16, 32)
				if convErr != nil {
					return "", l.err("invalid unicode escape")
				}
				out = append(out, rune(v))
			default:
				return "", l.err(fmt.Sprintf("invalid escape sequence: \\%c", esc))
			}
			continue
		}
		if ch < utf8.RuneSelf {
			out = append(out, rune(ch))
			continue
		}
		// Non-ASCII byte: back up and decode the full rune.
		l.cur--
		r, size := utf8.DecodeRuneInString(l.src[l.cur:])
		if r == utf8.RuneError && size == 1 {
			return "", l.err("invalid UTF-8 in source")
		}
		out = append(out, r)
		l.cur += size
		l.col += size - 1
	}
	return "", l.errAt(l.tokStart, "string was not terminated")
}

// scanIdentifier consumes [A-Za-z_][A-Za-z0-9_]* (first byte already consumed).
func (l *Lexer) scanIdentifier() string {
	for {
		b, ok := l.peek()
		if !ok || !isAlphaNum(b) {
			break
		}
		l.advance()
	}
	return l.src[l.start:l.cur]
}

// scanNumber consumes an integer or float literal starting at l.start.
// Decimal integers may use '_' separators and a 'u'/'i' suffix; "0b" starts
// a binary integer; a '.'-part, exponent or 'f' suffix makes a float.
func (l *Lexer) scanNumber() (TokenType, any, error) {
	// binary literal: 0b[01_]+ with optional u/i suffix
	if b0, _ := l.peek(); b0 == '0' {
		if b1, ok := l.peekN(1); ok && b1 == 'b' {
			l.advance() // '0'
			l.advance() // 'b'
			digits := l.digits(func(b byte) bool { return b == '0' || b == '1' || b == '_' })
			digits = strings.ReplaceAll(digits, "_", "")
			if digits == "" {
				return ILLEGAL, nil, l.err("binary literal needs at least one digit")
			}
			v, convErr := strconv.ParseUint(digits, 2, 64)
			if convErr != nil {
				return ILLEGAL, nil, l.errAt(l.tokStart, "binary literal out of range")
			}
			return INT, IntLit{Value: v, Suffix: l.intSuffix()}, nil
		}
	}

	intPart := l.digits(func(b byte) bool { return isDigit(b) || b == '_' })

	isFloat := false
	// fractional part: "1.5", "1.", ".5"
	if b, ok := l.peek(); ok && b == '.' {
		isFloat = true
		l.advance()
		l.digits(func(b byte) bool { return isDigit(b) || b == '_' })
	}
	// exponent: "1e9", "1.5e-3"
	if b, ok := l.peek(); ok && (b == 'e' || b == 'E') {
		if b2, ok2 := l.peekN(1); ok2 && (isDigit(b2) || b2 == '+' || b2 == '-') {
			isFloat = true
			l.advance()
			if b3, _ := l.peek(); b3 == '+' || b3 == '-' {
				l.advance()
			}
			if l.digits(isDigit) == "" {
				return ILLEGAL, nil, l.err("exponent needs at least one digit")
			}
		}
	}

	// suffixes
	if l.match('f') {
		isFloat = true
	} else if b, ok := l.peek(); ok && (b == 'u' || b == 'i') {
		l.advance()
		if isFloat {
			return ILLEGAL, nil, l.errAt(l.tokStart, fmt.Sprintf("invalid suffix %q for float literal", string(b)))
		}
		lex := strings.ReplaceAll(intPart, "_", "")
		v, convErr := strconv.ParseUint(lex, 10, 64)
		if convErr != nil {
			return ILLEGAL, nil, l.errAt(l.tokStart, "integer literal out of range")
		}
		return INT, IntLit{Value: v, Suffix: b}, nil
	}

	if isFloat {
		lex := strings.ReplaceAll(l.src[l.start:l.cur], "_", "")
		lex = strings.TrimSuffix(lex, "f")
		v, convErr := strconv.ParseFloat(lex, 64)
		if convErr != nil {
			return ILLEGAL, nil, l.errAt(l.tokStart, "invalid float literal")
		}
		return FLOAT, FloatLit{Value: v}, nil
	}

	lex := strings.ReplaceAll(intPart, "_", "")
	v, convErr := strconv.ParseUint(lex, 10, 64)
	if convErr != nil {
		return ILLEGAL, nil, l.errAt(l.tokStart, "integer literal out of range")
	}
	return INT, IntLit{Value: v}, nil
}

// rewindToStart steps back to the current token start. Only valid while the
// scanned bytes are on one line (numbers never span lines).
func (l *Lexer) rewindToStart() {
	l.col -= l.cur - l.start
	l.cur = l.start
}

// digits consumes while pred holds and returns the consumed text.
func (l *Lexer) digits(pred func(byte) bool) string {
	from := l.cur
	for {
		b, ok := l.peek()
		if !ok || !pred(b) {
			break
		}
		l.advance()
	}
	return l.src[from:l.cur]
}

func (l *Lexer) intSuffix() byte {
	if b, ok := l.peek(); ok && (b == 'u' || b == 'i') {
		l.advance()
		return b
	}
	return 0
}

// ignoreUntilNewline eats until '\n' or EOF (line comments).
func (l *Lexer) ignoreUntilNewline() {
	for {
		b, ok := l.peek()
		if !ok || b == '\n' {
			return
		}
		l.advance()
	}
}

// ----- main scanner -----

func (l *Lexer) scanToken() (Token, error) {
	for {
		l.skipWhitespace()
		l.tokStart = Pos{Line: l.line, Col: l.col}
		l.start = l.cur

		if l.isAtEnd() {
			return l.addToken(EOF, nil), nil
		}

		ch, _ := l.advance()

		switch ch {
		case '(':
			return l.addToken(LPAREN, nil), nil
		case ')':
			return l.addToken(RPAREN, nil), nil
		case '{':
			return l.addToken(LBRACE, nil), nil
		case '}':
			return l.addToken(RBRACE, nil), nil
		case ':':
			return l.addToken(COLON, nil), nil
		case ',':
			return l.addToken(COMMA, nil), nil
		case ';':
			return l.addToken(SEMI, nil), nil
		case '+':
			return l.addToken(PLUS, nil), nil
		case '-':
			return l.addToken(MINUS, nil), nil
		case '*':
			return l.addToken(MULT, nil), nil
		case '/':
			if l.match('/') {
				l.ignoreUntilNewline()
				continue
			}
			return l.addToken(DIV, nil), nil
		case '=':
			if l.match('=') {
				return l.addToken(EQ, nil), nil
			}
			return l.addToken(ASSIGN, nil), nil
		case '!':
			if l.match('=') {
				return l.addToken(NEQ, nil), nil
			}
			return l.addToken(BANG, nil), nil
		case '<':
			if l.match('=') {
				return l.addToken(LESS_EQ, nil), nil
			}
			return l.addToken(LESS, nil), nil
		case '>':
			if l.match('=') {
				return l.addToken(GREATER_EQ, nil), nil
			}
			return l.addToken(GREATER, nil), nil
		case '&':
			if l.match('&') {
				return l.addToken(AND, nil), nil
			}
			return Token{}, l.errAt(l.tokStart, "expected '&&'")
		case '|':
			if l.match('|') {
				return l.addToken(OR, nil), nil
			}
			return Token{}, l.errAt(l.tokStart, "expected '||'")
		}

		// Strings
		if ch == '"' {
			text, err := l.scanString()
			if err != nil {
				return Token{}, err
			}
			return l.addToken(STRING, text), nil
		}

		// Numbers (digit-led; ".5" floats start with '.')
		if isDigit(ch) {
			l.rewindToStart() // scanNumber owns the whole literal
			tt, lit, err := l.scanNumber()
			if err != nil {
				return Token{}, err
			}
			return l.addToken(tt, lit), nil
		}
		if ch == '.' {
			if b, ok := l.peek(); ok && isDigit(b) {
				l.rewindToStart()
				tt, lit, err := l.scanNumber()
				if err != nil {
					return Token{}, err
				}
				return l.addToken(tt, lit), nil
			}
			return Token{}, l.errAt(l.tokStart, "unexpected character: '.'")
		}

		// Identifiers / keywords
		if isAlpha(ch) {
			lex := l.scanIdentifier()
			if tt, ok := keywords[lex]; ok {
				return l.addToken(tt, nil), nil
			}
			return l.addToken(IDENT, lex), nil
		}

		return Token{}, l.errAt(l.tokStart, fmt.Sprintf("unexpected character: %q", ch))
	}
}

// Scan tokenizes the entire source and returns tokens (EOF included).
func (l *Lexer) Scan() ([]Token, error) {
	for {
		tok, err := l.scanToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == EOF {
			return l.tokens, nil
		}
	}
}
