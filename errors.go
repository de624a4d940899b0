// errors.go: diagnostic taxonomy and caret-snippet rendering.
//
// Lex and parse failures are fail-fast single errors (*LexError, *ParseError,
// defined next to their producers). Binder and checker findings are
// accumulated into a Diagnostics list so one compile reports everything it
// can. Evaluation failures are *RuntimeFault (eval.go). WrapErrorWithSource
// turns any of these into a readable multi-line snippet with a caret under
// the offending column:
//
//	PARSE ERROR at 3:12: unexpected token ')'
//
//	   2 | let x = (1 + 2
//	   3 |              )
//	     |            ^
//	   4 | let y = 0;
package pulse

import (
	"fmt"
	"strings"
)

// DiagKind classifies an accumulated binder/checker finding.
type DiagKind int

const (
	DiagUnresolvedName DiagKind = iota
	DiagIllegalShadow           // assignment targeting a host global
	DiagTypeMismatch
	DiagOperandTypeMismatch
	DiagBranchTypeMismatch
	DiagConditionType
	DiagUseBeforeAssignment
	DiagImmutableAssign
	DiagArityMismatch
)

var diagKindNames = map[DiagKind]string{
	DiagUnresolvedName:      "unresolved name",
	DiagIllegalShadow:       "illegal shadow",
	DiagTypeMismatch:        "type mismatch",
	DiagOperandTypeMismatch: "operand type mismatch",
	DiagBranchTypeMismatch:  "branch type mismatch",
	DiagConditionType:       "condition type",
	DiagUseBeforeAssignment: "use before assignment",
	DiagImmutableAssign:     "immutable assignment",
	DiagArityMismatch:       "arity mismatch",
}

func (k DiagKind) String() string {
	if s, ok := diagKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("DiagKind(%d)", int(k))
}

// Diagnostic is one binder/checker finding at a source position.
type Diagnostic struct {
	Kind DiagKind
	Msg  string
	Pos  Pos
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("CHECK ERROR at %d:%d: %s: %s", d.Pos.Line, d.Pos.Col+1, d.Kind, d.Msg)
}

// Diagnostics is the ordered batch of findings from one bind/check pass.
// It implements error; Compile returns it non-empty.
type Diagnostics []Diagnostic

func (ds Diagnostics) Error() string {
	if len(ds) == 1 {
		return ds[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors:", len(ds))
	for _, d := range ds {
		b.WriteString("\n\t")
		b.WriteString(d.Error())
	}
	return b.String()
}

// HasKind reports whether any finding has the given kind.
func (ds Diagnostics) HasKind(k DiagKind) bool {
	for _, d := range ds {
		if d.Kind == k {
			return true
		}
	}
	return false
}

/* ===========================
   snippet rendering
   =========================== */

// WrapErrorWithSource returns an error whose message is a caret-annotated
// snippet of src. It recognizes *LexError, *ParseError, *RuntimeFault and
// Diagnostics; any other error is returned unchanged.
func WrapErrorWithSource(err error, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", snippet(src, "LEXICAL ERROR", e.Pos, e.Msg))
	case *ParseError:
		return fmt.Errorf("%s", snippet(src, "PARSE ERROR", e.Pos, e.Msg))
	case *RuntimeFault:
		return fmt.Errorf("%s", snippet(src, "RUNTIME FAULT", e.Pos, e.Msg))
	case Diagnostics:
		var b strings.Builder
		for i, d := range e {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(snippet(src, strings.ToUpper(d.Kind.String()), d.Pos, d.Msg))
		}
		return fmt.Errorf("%s", b.String())
	default:
		return err
	}
}

// snippet builds a Python-like excerpt with a header and a caret. It shows
// at most one previous and one next line. Pos.Col is 0-based; rendering is
// 1-based and clamped to the source bounds.
func snippet(src, header string, pos Pos, msg string) string {
	lines := strings.Split(src, "\n")
	line := pos.Line
	col := pos.Col + 1
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
