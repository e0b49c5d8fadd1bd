package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &Error{Expression: p.src, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) parse() ([]segment, error) {
	var segments []segment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segments = append(segments, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	for p.pos < len(p.src) {
		switch {
		case strings.HasPrefix(p.src[p.pos:], `\${`):
			lit.WriteString("${")
			p.pos += 3
		case strings.HasPrefix(p.src[p.pos:], "${"):
			flush()
			ph, err := p.parsePlaceholder()
			if err != nil {
				return nil, err
			}
			segments = append(segments, segment{placeholder: ph})
		default:
			lit.WriteByte(p.src[p.pos])
			p.pos++
		}
	}
	flush()

	return segments, nil
}

func (p *parser) parsePlaceholder() (*placeholder, error) {
	start := p.pos
	end := p.findClose(start + 2)
	if end < 0 {
		return nil, p.errorf("unterminated placeholder at offset %d", start)
	}

	body := p.src[start+2 : end]
	p.pos = end + 1

	ph := &placeholder{raw: body}
	pathText := body
	if i := indexUnquoted(body, "??"); i >= 0 {
		fallback, err := parseStringLiteral(strings.TrimSpace(body[i+2:]))
		if err != nil {
			return nil, p.errorf("invalid fallback in ${%s}: %v", body, err)
		}
		ph.fallback = fallback
		ph.hasFallback = true
		pathText = body[:i]
	}

	pathText = strings.TrimSpace(pathText)
	if pathText == "" {
		return nil, p.errorf("empty placeholder at offset %d", start)
	}

	path, err := ParsePath(pathText)
	if err != nil {
		return nil, p.errorf("invalid path in ${%s}: %v", body, err)
	}
	ph.path = path

	return ph, nil
}

// findClose returns the index of the brace closing the placeholder opened
// before from, skipping quoted strings.
func (p *parser) findClose(from int) int {
	if i := indexUnquoted(p.src[from:], "}"); i >= 0 {
		return from + i
	}
	return -1
}

// indexUnquoted is strings.Index that ignores matches inside single- or
// double-quoted strings.
func indexUnquoted(s, sep string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case strings.HasPrefix(s[i:], sep):
			return i
		}
	}
	return -1
}

// ParsePath parses a dotted property path with optional bracketed indexes.
func ParsePath(text string) (Path, error) {
	var path Path
	i := 0

	readIdent := func() (string, error) {
		start := i
		for i < len(text) {
			r, size := utf8.DecodeRuneInString(text[i:])
			if !isIdentRune(r, i == start) {
				break
			}
			i += size
		}
		if start == i {
			return "", fmt.Errorf("expected identifier at offset %d", start)
		}
		return text[start:i], nil
	}

	if !strings.HasPrefix(text, "[") {
		name, err := readIdent()
		if err != nil {
			return nil, err
		}
		path = append(path, Step{Key: name})
	}

	for i < len(text) {
		switch text[i] {
		case '.':
			i++
			name, err := readIdent()
			if err != nil {
				return nil, err
			}
			path = append(path, Step{Key: name})
		case '[':
			end := indexUnquoted(text[i:], "]")
			if end < 0 {
				return nil, fmt.Errorf("unterminated index at offset %d", i)
			}
			inner := strings.TrimSpace(text[i+1 : i+end])
			i += end + 1

			if n, err := strconv.Atoi(inner); err == nil {
				if n < 0 {
					return nil, fmt.Errorf("negative index %d", n)
				}
				path = append(path, Step{Index: n, IsIndex: true})
				continue
			}

			key, err := parseStringLiteral(inner)
			if err != nil {
				return nil, fmt.Errorf("invalid index %q", inner)
			}
			path = append(path, Step{Key: key})
		default:
			return nil, fmt.Errorf("unexpected %q at offset %d", text[i], i)
		}
	}

	return path, nil
}

func isIdentRune(r rune, first bool) bool {
	if r == '_' || r == '$' || unicode.IsLetter(r) {
		return true
	}
	return !first && unicode.IsDigit(r)
}

func parseStringLiteral(s string) (string, error) {
	if len(s) < 2 {
		return "", fmt.Errorf("expected quoted string, got %q", s)
	}

	switch {
	case s[0] == '"' && s[len(s)-1] == '"':
		return strconv.Unquote(s)
	case s[0] == '\'' && s[len(s)-1] == '\'':
		inner := s[1 : len(s)-1]
		inner = strings.ReplaceAll(inner, `\'`, `'`)
		return strings.ReplaceAll(inner, `\\`, `\`), nil
	}

	return "", fmt.Errorf("expected quoted string, got %q", s)
}
