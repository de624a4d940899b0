// Command pulse runs and checks Pulse scripts and hosts an interactive REPL.
//
// Scripts run against a small demo host: the cast builtins, print/str, and
// optional data globals loaded from a YAML file (scalar values only; the
// YAML type picks the Pulse type).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	xenv "github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	"github.com/pulse-lang/pulse"
)

const (
	appName    = "pulse"
	promptMain = "==> "
	promptCont = "... "
)

var banner = fmt.Sprintf("Pulse %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", pulse.Version)

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }
func blue(s string) string  { return "\x1b[94m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(pulse.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`Pulse %s

Usage:
  %s run <file.pls> [-globals globals.yaml]    Run a script.
  %s check <file.pls> [-globals globals.yaml]  Type-check a script without running it.
  %s repl                                      Start the REPL.
  %s version                                   Print the version.
`, pulse.Version, appName, appName, appName, appName)
}

// -----------------------------------------------------------------------------
// host setup
// -----------------------------------------------------------------------------

// newHost builds the demo binding table and environment: cast builtins,
// print(string), str(numeric) -> string, plus any YAML-supplied globals.
func newHost(globalsPath string) (*pulse.BindingTable, *pulse.Environment, error) {
	table := pulse.NewBindingTable()
	env := pulse.NewEnvironment()

	if err := pulse.DeclareCastBuiltins(table); err != nil {
		return nil, nil, err
	}
	pulse.BindCastBuiltins(env)

	if err := table.DeclareFunc("print", []pulse.Type{pulse.StringType}, nil); err != nil {
		return nil, nil, err
	}
	env.SetFunc("print", func(args []pulse.Value) ([]pulse.Value, error) {
		fmt.Println(args[0].Str())
		return nil, nil
	})

	if err := table.DeclareFunc("str", []pulse.Type{pulse.AnyNumType}, []pulse.Type{pulse.StringType}); err != nil {
		return nil, nil, err
	}
	env.SetFunc("str", func(args []pulse.Value) ([]pulse.Value, error) {
		return []pulse.Value{pulse.StrVal(formatNum(args[0]))}, nil
	})

	if globalsPath != "" {
		if err := loadGlobals(globalsPath, table, env); err != nil {
			return nil, nil, err
		}
	}
	return table, env, nil
}

func formatNum(v pulse.Value) string {
	switch v.Tag {
	case pulse.VTInt:
		return strconv.FormatInt(v.Int(), 10)
	case pulse.VTUint:
		return strconv.FormatUint(v.Uint(), 10)
	default:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	}
}

// loadGlobals reads a flat YAML mapping and declares each scalar as a data
// global. Integers become int, floats float, strings string, booleans int
// 0/1. Anything else is rejected.
func loadGlobals(path string, table *pulse.BindingTable, env *pulse.Environment) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for name, v := range raw {
		var t pulse.Type
		var val pulse.Value
		switch x := v.(type) {
		case int:
			t, val = pulse.IntType, pulse.IntVal(int64(x))
		case int64:
			t, val = pulse.IntType, pulse.IntVal(x)
		case uint64:
			t, val = pulse.UintType, pulse.UintVal(x)
		case float64:
			t, val = pulse.FloatType, pulse.FloatVal(x)
		case string:
			t, val = pulse.StringType, pulse.StrVal(x)
		case bool:
			t = pulse.IntType
			if x {
				val = pulse.IntVal(1)
			} else {
				val = pulse.IntVal(0)
			}
		default:
			return fmt.Errorf("%s: global %q: unsupported value %T", path, name, v)
		}
		if err := table.DeclareVar(name, t); err != nil {
			return err
		}
		env.SetVar(name, val)
	}
	return nil
}

// -----------------------------------------------------------------------------
// run / check
// -----------------------------------------------------------------------------

func compileFile(args []string, verb string) (*pulse.Script, *pulse.Environment, int) {
	fs := flag.NewFlagSet(verb, flag.ContinueOnError)
	globals := fs.String("globals", "", "YAML file of host data globals")
	if err := fs.Parse(args); err != nil {
		return nil, nil, 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s %s <file.pls> [-globals globals.yaml]\n", appName, verb)
		return nil, nil, 2
	}
	file := fs.Arg(0)

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return nil, nil, 1
	}

	table, env, err := newHost(*globals)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return nil, nil, 1
	}

	script, err := pulse.Compile(string(src), table)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(pulse.WrapErrorWithSource(err, string(src)).Error()))
		return nil, nil, 1
	}
	return script, env, 0
}

func cmdRun(args []string) int {
	script, env, code := compileFile(args, "run")
	if script == nil {
		return code
	}
	results, err := script.Eval(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(pulse.WrapErrorWithSource(err, script.Source()).Error()))
		return 1
	}
	for _, v := range results {
		fmt.Println(blue(v.String()))
	}
	return 0
}

func cmdCheck(args []string) int {
	script, _, code := compileFile(args, "check")
	if script == nil {
		return code
	}
	if rs := script.ResultTypes(); len(rs) > 0 {
		names := make([]string, len(rs))
		for i, t := range rs {
			names[i] = t.String()
		}
		fmt.Println(green("ok, returns (" + strings.Join(names, ", ") + ")"))
	} else {
		fmt.Println(green("ok"))
	}
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(_ []string) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := xenv.Str("PULSE_HISTFILE", filepath.Join(home, ".pulse_history"))

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	table, env, err := newHost("")
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}

	for {
		code, ok := readBalanced(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if strings.ToLower(trimmed) == ":quit" {
				return 0
			}
			fmt.Println("unknown command. Type :quit to exit.")
			continue
		}

		evalEntry(code, table, env)
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// evalEntry compiles one REPL entry as a standalone script. Bare expressions
// get a second chance wrapped in a return so "1 + 2" just works.
func evalEntry(code string, table *pulse.BindingTable, env *pulse.Environment) {
	script, cerr := pulse.Compile(code, table)
	if cerr != nil {
		wrapped := "return " + strings.TrimSuffix(strings.TrimSpace(code), ";") + ";"
		if s2, e2 := pulse.Compile(wrapped, table); e2 == nil {
			script = s2
		} else {
			fmt.Fprintln(os.Stderr, red(pulse.WrapErrorWithSource(cerr, code).Error()))
			return
		}
	}
	results, err := script.Eval(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(pulse.WrapErrorWithSource(err, code).Error()))
		return
	}
	for _, v := range results {
		fmt.Println(blue(v.String()))
	}
}

// readBalanced collects lines until braces and parens balance, so multi-line
// blocks can be typed naturally.
func readBalanced(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if balancedDelims(src) {
			return src, true
		}
	}
}

// balancedDelims reports whether every brace and paren outside string
// literals is closed. Over-closed input counts as balanced so the parser
// gets to report it.
func balancedDelims(src string) bool {
	depth := 0
	inStr := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inStr {
			if c == '\\' && i+1 < len(src) {
				i++
				continue
			}
			if c == '"' {
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
			}
		case '{', '(':
			depth++
		case '}', ')':
			depth--
			if depth < 0 {
				return true
			}
		}
	}
	return depth == 0 && !inStr
}
