package engine

import (
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// kwPrefix marks string literals that were keywords in the script.
const kwPrefix = "__kw_"

// preprocessSource rewrites catalog script syntax that zygomys does not
// accept:
//
//   - :keyword becomes the string literal "__kw_keyword", so options never
//     collide with user definitions of the same name.
//   - Hyphens joining identifier characters become underscores
//     (run-bevel -> run_bevel); zygomys reads them as subtraction.
//   - ; and ;; line comments become // comments.
//
// String literals, both quoted and backtick, pass through untouched, and
// := is preserved.
func preprocessSource(source string) string {
	p := preprocessor{src: source}
	p.out.Grow(len(source) + len(source)/4)
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == '"':
			p.quoted('"', true)
		case c == '`':
			p.quoted('`', false)
		case c == ';':
			p.comment()
		case c == ':' && p.peek() == '=':
			p.copy(2)
		case c == ':' && isLetter(p.peek()):
			p.keyword()
		case c == '-' && p.pos > 0 && isIdentChar(p.src[p.pos-1]) && isLetter(p.peek()):
			p.out.WriteByte('_')
			p.pos++
		default:
			p.copy(1)
		}
	}
	return p.out.String()
}

type preprocessor struct {
	src string
	pos int
	out strings.Builder
}

func (p *preprocessor) peek() byte {
	if p.pos+1 < len(p.src) {
		return p.src[p.pos+1]
	}
	return 0
}

func (p *preprocessor) copy(n int) {
	end := min(p.pos+n, len(p.src))
	p.out.WriteString(p.src[p.pos:end])
	p.pos = end
}

// quoted copies a literal through its closing delimiter, or to the end of
// the source when unterminated.
func (p *preprocessor) quoted(delim byte, escapes bool) {
	p.copy(1)
	for p.pos < len(p.src) && p.src[p.pos] != delim {
		if escapes && p.src[p.pos] == '\\' {
			p.copy(2)
			continue
		}
		p.copy(1)
	}
	p.copy(1)
}

func (p *preprocessor) comment() {
	p.out.WriteString("//")
	for p.pos < len(p.src) && p.src[p.pos] == ';' {
		p.pos++
	}
	end := strings.IndexByte(p.src[p.pos:], '\n')
	if end < 0 {
		end = len(p.src) - p.pos
	}
	p.copy(end)
}

func (p *preprocessor) keyword() {
	start := p.pos + 1
	end := start
	for end < len(p.src) && isKWChar(p.src[end]) {
		end++
	}
	p.out.WriteByte('"')
	p.out.WriteString(kwPrefix)
	p.out.WriteString(p.src[start:end])
	p.out.WriteByte('"')
	p.pos = end
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' }

func isKWChar(c byte) bool { return isIdentChar(c) || c == '-' }

// keywordName reports the option name of a preprocessed keyword.
func keywordName(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return strings.TrimPrefix(str.S, kwPrefix), true
}

// kwArgs is a builtin's argument list split into :options and positional
// values.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs pairs each keyword with the value after it. A trailing keyword
// with no value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	out := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := keywordName(args[i])
		if !ok {
			out.positional = append(out.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			i++
			out.kw[name] = args[i]
		} else {
			out.kw[name] = zygo.SexpNull
		}
	}
	return out
}
