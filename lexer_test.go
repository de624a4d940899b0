package pulse

import (
	"testing"

	"github.com/nalgeon/be"
)

func scan(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := NewLexer(src).Scan()
	if err != nil {
		t.Fatalf("scan error for %q: %v", src, err)
	}
	return toks
}

func scanErr(t *testing.T, src string) *LexError {
	t.Helper()
	_, err := NewLexer(src).Scan()
	if err == nil {
		t.Fatalf("expected lex error for %q", src)
	}
	le, ok := err.(*LexError)
	if !ok {
		t.Fatalf("expected *LexError, got %T: %v", err, err)
	}
	return le
}

func wantTypes(t *testing.T, toks []Token, types ...TokenType) {
	t.Helper()
	types = append(types, EOF)
	if len(toks) != len(types) {
		t.Fatalf("want %d tokens, got %d: %v", len(types), len(toks), toks)
	}
	for i, tt := range types {
		if toks[i].Type != tt {
			t.Fatalf("token %d: want %s, got %s (%q)", i, tt, toks[i].Type, toks[i].Lexeme)
		}
	}
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scan(t, "( ) { } : ; , + - * / = == != ! < <= > >= && ||")
	wantTypes(t, toks,
		LPAREN, RPAREN, LBRACE, RBRACE, COLON, SEMI, COMMA,
		PLUS, MINUS, MULT, DIV, ASSIGN, EQ, NEQ, BANG,
		LESS, LESS_EQ, GREATER, GREATER_EQ, AND, OR)
}

func TestScanKeywords(t *testing.T) {
	toks := scan(t, "let if elif else yield return int uint float string")
	wantTypes(t, toks,
		LET, IF, ELIF, ELSE, YIELD, RETURN,
		TYPENAME, TYPENAME, TYPENAME, TYPENAME)
	be.Equal(t, toks[6].Lexeme, "int")
	be.Equal(t, toks[9].Lexeme, "string")
}

func TestScanIdentifiers(t *testing.T) {
	toks := scan(t, "speed ground_type _tmp x2")
	wantTypes(t, toks, IDENT, IDENT, IDENT, IDENT)
	be.Equal(t, toks[0].Literal.(string), "speed")
	be.Equal(t, toks[1].Literal.(string), "ground_type")
	be.Equal(t, toks[2].Literal.(string), "_tmp")
	be.Equal(t, toks[3].Literal.(string), "x2")
}

func TestScanIntLiterals(t *testing.T) {
	toks := scan(t, "42 7u 9i 0b1010 0b11u 1_000_000")
	wantTypes(t, toks, INT, INT, INT, INT, INT, INT)

	want := []IntLit{
		{Value: 42},
		{Value: 7, Suffix: 'u'},
		{Value: 9, Suffix: 'i'},
		{Value: 10},
		{Value: 3, Suffix: 'u'},
		{Value: 1000000},
	}
	for i, w := range want {
		be.Equal(t, toks[i].Literal.(IntLit), w)
	}
}

func TestScanFloatLiterals(t *testing.T) {
	toks := scan(t, "1.5 2f 0.5f 1e3 2.5e-2 .25 10.")
	wantTypes(t, toks, FLOAT, FLOAT, FLOAT, FLOAT, FLOAT, FLOAT, FLOAT)

	want := []float64{1.5, 2, 0.5, 1000, 0.025, 0.25, 10}
	for i, w := range want {
		be.Equal(t, toks[i].Literal.(FloatLit).Value, w)
	}
}

func TestScanFloatSuffixRejectsUint(t *testing.T) {
	le := scanErr(t, "let x = 1.5u;")
	be.True(t, le.Pos.Line == 1)
}

func TestScanStringEscapes(t *testing.T) {
	toks := scan(t, `"a\nb\t\"q\" A\\"`)
	wantTypes(t, toks, STRING)
	be.Equal(t, toks[0].Literal.(string), "a\nb\t\"q\" A\\")
}

func TestScanStringUTF8(t *testing.T) {
	toks := scan(t, `"héllo ✓"`)
	wantTypes(t, toks, STRING)
	be.Equal(t, toks[0].Literal.(string), "héllo ✓")
}

func TestScanUnterminatedString(t *testing.T) {
	le := scanErr(t, `let s = "oops`)
	be.Equal(t, le.Pos.Line, 1)
	be.Equal(t, le.Pos.Col, 8)
}

func TestScanLoneAmpersand(t *testing.T) {
	scanErr(t, "a & b")
}

func TestScanLineComments(t *testing.T) {
	toks := scan(t, "1 // ignored & \" junk\n2")
	wantTypes(t, toks, INT, INT)
	be.Equal(t, toks[1].Pos.Line, 2)
}

func TestScanPositions(t *testing.T) {
	toks := scan(t, "let x = 5;\nx")
	be.Equal(t, toks[0].Pos, Pos{Line: 1, Col: 0})
	be.Equal(t, toks[1].Pos, Pos{Line: 1, Col: 4})
	be.Equal(t, toks[3].Pos, Pos{Line: 1, Col: 8})
	be.Equal(t, toks[5].Pos, Pos{Line: 2, Col: 0})
}

func TestScanPositionsAfterNumber(t *testing.T) {
	// Numbers rewind internally; the following token's column must not drift.
	toks := scan(t, "100 + x")
	be.Equal(t, toks[1].Pos, Pos{Line: 1, Col: 4})
	be.Equal(t, toks[2].Pos, Pos{Line: 1, Col: 6})
}

func TestScanUnexpectedCharacter(t *testing.T) {
	le := scanErr(t, "let x = #;")
	be.Equal(t, le.Pos.Col, 8)
}
