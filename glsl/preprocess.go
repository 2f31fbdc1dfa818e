package glsl

import (
	"fmt"
	"strconv"
	"strings"
)

// PreserveDirectives selects directives that are copied to the output
// verbatim instead of being interpreted or dropped.
type PreserveDirectives struct {
	Version   bool
	Define    bool
	Extension bool
	Pragma    bool
}

// PreprocessOptions configures Preprocess.
type PreprocessOptions struct {
	PreserveComments bool
	Preserve         PreserveDirectives
	// Defines are object-like macros defined before the first line.
	Defines map[string]string
}

// DefaultPreprocessOptions keeps #version, #extension and #pragma lines and
// expands every macro.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		Preserve: PreserveDirectives{Version: true, Extension: true, Pragma: true},
	}
}

// Macro is a #define.
type Macro struct {
	Name         string
	FunctionLike bool
	Params       []string
	Body         string
}

// maxExpansionDepth bounds nested macro expansion.
const maxExpansionDepth = 64

type condFrame struct {
	parentActive bool
	active       bool
	taken        bool
	sawElse      bool
}

type preprocessor struct {
	opts   PreprocessOptions
	macros map[string]*Macro
	conds  []condFrame
	source string
}

// Preprocess expands macros and resolves conditional compilation.
func Preprocess(source string, opts PreprocessOptions) (string, error) {
	pp := &preprocessor{
		opts:   opts,
		macros: make(map[string]*Macro),
		source: source,
	}
	for name, body := range opts.Defines {
		pp.macros[name] = &Macro{Name: name, Body: body}
	}

	text := joinContinuations(source)
	if !opts.PreserveComments {
		text = stripComments(text)
	}

	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			emit, err := pp.directive(trimmed, lineNum)
			if err != nil {
				return "", err
			}
			if emit {
				out.WriteString(trimmed)
				out.WriteByte('\n')
			}
			continue
		}
		if !pp.active() {
			continue
		}
		expanded, err := pp.expand(line, nil, 0)
		if err != nil {
			return "", pp.errorf(lineNum, "%v", err)
		}
		out.WriteString(expanded)
		out.WriteByte('\n')
	}
	if len(pp.conds) > 0 {
		return "", pp.errorf(0, "unterminated conditional directive")
	}
	return strings.TrimRight(out.String(), "\n") + "\n", nil
}

func (pp *preprocessor) active() bool {
	if len(pp.conds) == 0 {
		return true
	}
	return pp.conds[len(pp.conds)-1].active
}

// directive interprets one directive line and reports whether the line
// itself belongs in the output.
func (pp *preprocessor) directive(line string, lineNum int) (bool, error) {
	body := strings.TrimSpace(line[1:])
	name, rest, _ := strings.Cut(body, " ")
	if i := strings.IndexAny(name, "\t("); i >= 0 {
		rest = name[i:] + " " + rest
		name = name[:i]
	}
	rest = strings.TrimSpace(rest)

	switch name {
	case "if", "ifdef", "ifndef":
		parent := pp.active()
		frame := condFrame{parentActive: parent}
		if parent {
			ok, err := pp.condition(name, rest, lineNum)
			if err != nil {
				return false, err
			}
			frame.active, frame.taken = ok, ok
		}
		pp.conds = append(pp.conds, frame)
		return false, nil
	case "elif":
		top, err := pp.top(name, lineNum)
		if err != nil {
			return false, err
		}
		if top.sawElse {
			return false, pp.errorf(lineNum, "#elif after #else")
		}
		top.active = false
		if top.parentActive && !top.taken {
			ok, err := pp.condition("if", rest, lineNum)
			if err != nil {
				return false, err
			}
			top.active, top.taken = ok, ok
		}
		return false, nil
	case "else":
		top, err := pp.top(name, lineNum)
		if err != nil {
			return false, err
		}
		if top.sawElse {
			return false, pp.errorf(lineNum, "duplicate #else")
		}
		top.sawElse = true
		top.active = top.parentActive && !top.taken
		top.taken = true
		return false, nil
	case "endif":
		if _, err := pp.top(name, lineNum); err != nil {
			return false, err
		}
		pp.conds = pp.conds[:len(pp.conds)-1]
		return false, nil
	}

	if !pp.active() {
		return false, nil
	}

	switch name {
	case "define":
		if pp.opts.Preserve.Define {
			return true, nil
		}
		m, err := parseMacro(rest)
		if err != nil {
			return false, pp.errorf(lineNum, "%v", err)
		}
		pp.macros[m.Name] = m
		return false, nil
	case "undef":
		if pp.opts.Preserve.Define {
			return true, nil
		}
		delete(pp.macros, rest)
		return false, nil
	case "version":
		return pp.opts.Preserve.Version, nil
	case "extension":
		return pp.opts.Preserve.Extension, nil
	case "pragma":
		return pp.opts.Preserve.Pragma, nil
	case "error":
		return false, pp.errorf(lineNum, "#error %s", rest)
	case "line", "":
		return false, nil
	}
	return false, pp.errorf(lineNum, "unknown directive #%s", name)
}

func (pp *preprocessor) top(name string, lineNum int) (*condFrame, error) {
	if len(pp.conds) == 0 {
		return nil, pp.errorf(lineNum, "#%s without #if", name)
	}
	return &pp.conds[len(pp.conds)-1], nil
}

func (pp *preprocessor) condition(kind, expr string, lineNum int) (bool, error) {
	switch kind {
	case "ifdef":
		_, ok := pp.macros[strings.TrimSpace(expr)]
		return ok, nil
	case "ifndef":
		_, ok := pp.macros[strings.TrimSpace(expr)]
		return !ok, nil
	}

	text := pp.resolveDefined(expr)
	text, err := pp.expand(text, nil, 0)
	if err != nil {
		return false, pp.errorf(lineNum, "%v", err)
	}
	// Identifiers left after expansion evaluate to 0.
	text = mapIdentifiers(text, func(string) string { return "0" })

	prog, err := Parse(text, ParseOptions{Mode: ModeExpression})
	if err != nil {
		return false, pp.errorf(lineNum, "invalid #if expression %q: %v", expr, err)
	}
	stmt := prog.Node(prog.Items[0]).(*ExprStmt)
	v, err := evalConstInt(prog, stmt.X)
	if err != nil {
		return false, pp.errorf(lineNum, "invalid #if expression %q: %v", expr, err)
	}
	return v != 0, nil
}

// resolveDefined replaces defined(X) and defined X with 1 or 0.
func (pp *preprocessor) resolveDefined(expr string) string {
	var sb strings.Builder
	for i := 0; i < len(expr); {
		if !isIdentStart(expr[i]) {
			sb.WriteByte(expr[i])
			i++
			continue
		}
		j := identEnd(expr, i)
		word := expr[i:j]
		if word != "defined" {
			sb.WriteString(word)
			i = j
			continue
		}
		k := skipSpaces(expr, j)
		paren := k < len(expr) && expr[k] == '('
		if paren {
			k = skipSpaces(expr, k+1)
		}
		e := identEnd(expr, k)
		name := expr[k:e]
		if paren {
			e = skipSpaces(expr, e)
			if e < len(expr) && expr[e] == ')' {
				e++
			}
		}
		if _, ok := pp.macros[name]; ok {
			sb.WriteString("1")
		} else {
			sb.WriteString("0")
		}
		i = e
	}
	return sb.String()
}

// expand replaces macro invocations in text. hidden holds macros currently
// being expanded, which are not re-expanded.
func (pp *preprocessor) expand(text string, hidden map[string]bool, depth int) (string, error) {
	if depth > maxExpansionDepth {
		return "", fmt.Errorf("macro expansion too deep")
	}
	var sb strings.Builder
	for i := 0; i < len(text); {
		c := text[i]
		if isDigitByte(c) {
			// Skip numeric literals so suffixes are not read as identifiers.
			j := i
			for j < len(text) && (isIdentByte(text[j]) || text[j] == '.') {
				j++
			}
			sb.WriteString(text[i:j])
			i = j
			continue
		}
		if !isIdentStart(c) {
			sb.WriteByte(c)
			i++
			continue
		}
		j := identEnd(text, i)
		name := text[i:j]
		m, ok := pp.macros[name]
		if !ok || hidden[name] {
			sb.WriteString(name)
			i = j
			continue
		}

		var body string
		if m.FunctionLike {
			k := skipSpaces(text, j)
			if k >= len(text) || text[k] != '(' {
				sb.WriteString(name)
				i = j
				continue
			}
			args, end, err := splitArgs(text, k)
			if err != nil {
				return "", fmt.Errorf("macro %s: %w", name, err)
			}
			if len(args) == 1 && strings.TrimSpace(args[0]) == "" && len(m.Params) == 0 {
				args = nil
			}
			if len(args) != len(m.Params) {
				return "", fmt.Errorf("macro %s expects %d arguments, got %d", name, len(m.Params), len(args))
			}
			expandedArgs := make(map[string]string, len(args))
			for ai, a := range args {
				ea, err := pp.expand(strings.TrimSpace(a), hidden, depth+1)
				if err != nil {
					return "", err
				}
				expandedArgs[m.Params[ai]] = ea
			}
			body = mapIdentifiers(m.Body, func(id string) string {
				if v, ok := expandedArgs[id]; ok {
					return v
				}
				return id
			})
			i = end
		} else {
			body = m.Body
			i = j
		}
		body = pasteTokens(body)

		inner := make(map[string]bool, len(hidden)+1)
		for k := range hidden {
			inner[k] = true
		}
		inner[name] = true
		expanded, err := pp.expand(body, inner, depth+1)
		if err != nil {
			return "", err
		}
		sb.WriteString(expanded)
	}
	return sb.String(), nil
}

func (pp *preprocessor) errorf(line int, format string, args ...any) error {
	return &SourceError{
		Message: fmt.Sprintf(format, args...),
		Span:    Span{Start: Position{Line: line, Column: 1}},
		Source:  pp.source,
	}
}

// parseMacro parses the text after #define.
func parseMacro(def string) (*Macro, error) {
	if def == "" || !isIdentStart(def[0]) {
		return nil, fmt.Errorf("invalid macro name in #define %s", def)
	}
	end := identEnd(def, 0)
	m := &Macro{Name: def[:end]}
	rest := def[end:]
	if strings.HasPrefix(rest, "(") {
		m.FunctionLike = true
		closeIdx := strings.IndexByte(rest, ')')
		if closeIdx < 0 {
			return nil, fmt.Errorf("unterminated parameter list in #define %s", m.Name)
		}
		for _, p := range strings.Split(rest[1:closeIdx], ",") {
			if p = strings.TrimSpace(p); p != "" {
				m.Params = append(m.Params, p)
			}
		}
		rest = rest[closeIdx+1:]
	}
	m.Body = strings.TrimSpace(rest)
	return m, nil
}

// splitArgs splits a parenthesized argument list starting at text[open].
func splitArgs(text string, open int) ([]string, int, error) {
	depth := 0
	start := open + 1
	var args []string
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				args = append(args, text[start:i])
				return args, i + 1, nil
			}
		case ',':
			if depth == 1 {
				args = append(args, text[start:i])
				start = i + 1
			}
		}
	}
	return nil, 0, fmt.Errorf("unterminated argument list")
}

func pasteTokens(body string) string {
	for {
		i := strings.Index(body, "##")
		if i < 0 {
			return body
		}
		body = strings.TrimRight(body[:i], " \t") + strings.TrimLeft(body[i+2:], " \t")
	}
}

// mapIdentifiers rewrites every identifier of text through fn, leaving
// numbers and punctuation untouched.
func mapIdentifiers(text string, fn func(string) string) string {
	var sb strings.Builder
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case isDigitByte(c):
			j := i
			for j < len(text) && (isIdentByte(text[j]) || text[j] == '.') {
				j++
			}
			sb.WriteString(text[i:j])
			i = j
		case isIdentStart(c):
			j := identEnd(text, i)
			sb.WriteString(fn(text[i:j]))
			i = j
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

func joinContinuations(s string) string {
	s = strings.ReplaceAll(s, "\\\r\n", "")
	return strings.ReplaceAll(s, "\\\n", "")
}

// stripComments removes comments, keeping the newlines of block comments.
func stripComments(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				for i < len(s) && s[i] != '\n' {
					i++
				}
				if i < len(s) {
					sb.WriteByte('\n')
				}
				continue
			case '*':
				i += 2
				for i < len(s) && !(s[i] == '*' && i+1 < len(s) && s[i+1] == '/') {
					if s[i] == '\n' {
						sb.WriteByte('\n')
					}
					i++
				}
				i++
				sb.WriteByte(' ')
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// evalConstInt evaluates an integer constant expression.
func evalConstInt(prog *Program, h Handle) (int64, error) {
	switch n := prog.Node(h).(type) {
	case *Literal:
		if n.Kind == TokenBoolLiteral {
			if n.Value == "true" {
				return 1, nil
			}
			return 0, nil
		}
		v := strings.TrimRight(n.Value, "uU")
		return strconv.ParseInt(v, 0, 64)
	case *UnaryExpr:
		v, err := evalConstInt(prog, n.Operand)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case TokenMinus:
			return -v, nil
		case TokenPlus:
			return v, nil
		case TokenBang:
			return boolInt(v == 0), nil
		case TokenTilde:
			return ^v, nil
		}
	case *BinaryExpr:
		l, err := evalConstInt(prog, n.Left)
		if err != nil {
			return 0, err
		}
		r, err := evalConstInt(prog, n.Right)
		if err != nil {
			return 0, err
		}
		return evalBinary(n.Op, l, r)
	case *TernaryExpr:
		c, err := evalConstInt(prog, n.Cond)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return evalConstInt(prog, n.Then)
		}
		return evalConstInt(prog, n.Else)
	}
	return 0, fmt.Errorf("not a constant expression")
}

func evalBinary(op TokenKind, l, r int64) (int64, error) {
	switch op {
	case TokenPlus:
		return l + r, nil
	case TokenMinus:
		return l - r, nil
	case TokenStar:
		return l * r, nil
	case TokenSlash, TokenPercent:
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		if op == TokenSlash {
			return l / r, nil
		}
		return l % r, nil
	case TokenLessLess:
		return l << uint64(r), nil
	case TokenGreaterGreater:
		return l >> uint64(r), nil
	case TokenLess:
		return boolInt(l < r), nil
	case TokenGreater:
		return boolInt(l > r), nil
	case TokenLessEqual:
		return boolInt(l <= r), nil
	case TokenGreaterEqual:
		return boolInt(l >= r), nil
	case TokenEqualEqual:
		return boolInt(l == r), nil
	case TokenBangEqual:
		return boolInt(l != r), nil
	case TokenAmpersand:
		return l & r, nil
	case TokenPipe:
		return l | r, nil
	case TokenCaret:
		return l ^ r, nil
	case TokenAmpAmp:
		return boolInt(l != 0 && r != 0), nil
	case TokenPipePipe:
		return boolInt(l != 0 || r != 0), nil
	}
	return 0, fmt.Errorf("operator %s not allowed in #if", op)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || isDigitByte(c)
}

func isDigitByte(c byte) bool {
	return c >= '0' && c <= '9'
}

func identEnd(s string, i int) int {
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	return i
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
