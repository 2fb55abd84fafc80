package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
)

type parser struct {
	s   string
	pos int
}

func (p *parser) parse() (*Path, error) {
	p.skipSpace()
	if !p.consume('$') {
		return nil, p.errorf("path must start with $")
	}
	segs, err := p.segments()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q", p.s[p.pos:])
	}
	return &Path{src: p.s, segs: segs}, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) eof() bool { return p.pos >= len(p.s) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) consume(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) consumeString(tok string) bool {
	if strings.HasPrefix(p.s[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for !p.eof() && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

// segments reads member, descent and bracket segments until none follows.
func (p *parser) segments() ([]segment, error) {
	var segs []segment
	for {
		switch p.peek() {
		case '.':
			p.pos++
			descend := p.consume('.')
			if p.peek() == '[' {
				if !descend {
					return nil, p.errorf("unexpected [ after .")
				}
				sel, err := p.bracket()
				if err != nil {
					return nil, err
				}
				segs = append(segs, segment{descend: true, sel: sel})
				continue
			}
			if p.consume('*') {
				segs = append(segs, segment{descend: descend, sel: wildcardSelector{}})
				continue
			}
			name := p.name()
			if name == "" {
				return nil, p.errorf("expected member name")
			}
			segs = append(segs, segment{descend: descend, sel: nameSelector{names: []string{name}}})
		case '[':
			sel, err := p.bracket()
			if err != nil {
				return nil, err
			}
			segs = append(segs, segment{sel: sel})
		default:
			return segs, nil
		}
	}
}

func isNameByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func (p *parser) name() string {
	start := p.pos
	for !p.eof() && isNameByte(p.s[p.pos]) {
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *parser) bracket() (selector, error) {
	p.pos++ // [
	p.skipSpace()
	var sel selector
	var err error
	switch c := p.peek(); {
	case c == '*':
		p.pos++
		sel = wildcardSelector{}
	case c == '?':
		p.pos++
		p.skipSpace()
		if !p.consume('(') {
			return nil, p.errorf("expected ( after ?")
		}
		var cond expr
		if cond, err = p.orExpr(); err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.consume(')') {
			return nil, p.errorf("unclosed filter")
		}
		sel = filterSelector{cond: cond}
	case c == '\'' || c == '"':
		sel, err = p.names()
	default:
		sel, err = p.indices()
	}
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.consume(']') {
		return nil, p.errorf("expected ]")
	}
	return sel, nil
}

func (p *parser) names() (selector, error) {
	var names []string
	for {
		p.skipSpace()
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		names = append(names, s)
		p.skipSpace()
		if !p.consume(',') {
			return nameSelector{names: names}, nil
		}
	}
}

func (p *parser) quoted() (string, error) {
	q := p.peek()
	if q != '\'' && q != '"' {
		return "", p.errorf("expected quoted string")
	}
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.s[p.pos]
		p.pos++
		switch c {
		case q:
			return b.String(), nil
		case '\\':
			if p.eof() {
				return "", p.errorf("dangling escape")
			}
			b.WriteByte(p.s[p.pos])
			p.pos++
		default:
			b.WriteByte(c)
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *parser) integer() (*int, error) {
	p.skipSpace()
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for !p.eof() && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return nil, nil
	}
	n, err := strconv.Atoi(p.s[start:p.pos])
	if err != nil {
		return nil, p.errorf("bad integer %q", p.s[start:p.pos])
	}
	return &n, nil
}

func (p *parser) indices() (selector, error) {
	first, err := p.integer()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.consume(':') {
		end, err := p.integer()
		if err != nil {
			return nil, err
		}
		step := 1
		p.skipSpace()
		if p.consume(':') {
			s, err := p.integer()
			if err != nil {
				return nil, err
			}
			if s != nil {
				step = *s
			}
		}
		return sliceSelector{start: first, end: end, step: step}, nil
	}
	if first == nil {
		return nil, p.errorf("expected index")
	}
	idx := []int{*first}
	for p.consume(',') {
		n, err := p.integer()
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, p.errorf("expected index")
		}
		idx = append(idx, *n)
		p.skipSpace()
	}
	return indexSelector{indices: idx}, nil
}

func (p *parser) orExpr() (expr, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if !p.consumeString("||") {
			return left, nil
		}
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = orExpr{left, right}
	}
}

func (p *parser) andExpr() (expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if !p.consumeString("&&") {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andExpr{left, right}
	}
}

func (p *parser) unary() (expr, error) {
	p.skipSpace()
	if p.peek() == '!' && !strings.HasPrefix(p.s[p.pos:], "!=") {
		p.pos++
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notExpr{inner}, nil
	}
	if p.consume('(') {
		inner, err := p.orExpr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.consume(')') {
			return nil, p.errorf("expected )")
		}
		return inner, nil
	}
	return p.comparison()
}

var compareOps = []string{"==", "!=", "<=", ">=", "<", ">"}

func (p *parser) comparison() (expr, error) {
	left, err := p.operand()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	for _, op := range compareOps {
		if p.consumeString(op) {
			right, err := p.operand()
			if err != nil {
				return nil, err
			}
			return compareExpr{op: op, left: left, right: right}, nil
		}
	}
	return existsExpr{left}, nil
}

func (p *parser) operand() (operand, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '@' || c == '$':
		p.pos++
		segs, err := p.segments()
		if err != nil {
			return nil, err
		}
		return pathOperand{absolute: c == '$', segs: segs}, nil
	case c == '\'' || c == '"':
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return literal{s}, nil
	case c == '-' || c >= '0' && c <= '9':
		start := p.pos
		p.pos++
		for !p.eof() && strings.IndexByte("0123456789.eE+-", p.s[p.pos]) >= 0 {
			p.pos++
		}
		f, err := strconv.ParseFloat(p.s[start:p.pos], 64)
		if err != nil {
			return nil, p.errorf("bad number %q", p.s[start:p.pos])
		}
		return literal{f}, nil
	case p.consumeString("true"):
		return literal{true}, nil
	case p.consumeString("false"):
		return literal{false}, nil
	case p.consumeString("null"):
		return literal{nil}, nil
	}
	return nil, p.errorf("expected operand")
}
