package textfmt

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

const (
	TOKEN_NUMBER = iota
	TOKEN_IDENT
	TOKEN_STRING
	TOKEN_WORD
	TOKEN_NEWLINE
	TOKEN_COMMENT
)

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	lexer.Add([]byte(`[\+\-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][\+\-]?[0-9]+)?`), getToken(TOKEN_NUMBER))
	lexer.Add([]byte(`[a-zA-Z_][a-zA-Z0-9_\.]*`), getToken(TOKEN_IDENT))
	lexer.Add([]byte(`"(\\.|[^"])*"`), getToken(TOKEN_STRING))
	lexer.Add([]byte(`//[^\n]*`), skip)
	lexer.Add([]byte(`[^ \t\r\n"]+`), getToken(TOKEN_WORD))
	lexer.Add([]byte(`[\r\n]+`), getToken(TOKEN_NEWLINE))
	lexer.Add([]byte(`[ \t]+`), skip)
	if err := lexer.Compile(); err != nil {
		panic(err)
	}
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}

// line is one non empty source line split into tokens. raw is the tokens
// joined by single spaces, used for names.
type line struct {
	num    int
	raw    string
	tokens []*lexmachine.Token
}

func tokenize(text []byte) ([]*line, error) {
	scanner, err := lexer.Scanner(text)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create lexer scanner")
	}

	lines := make([]*line, 0, bytes.Count(text, []byte{'\n'})+1)
	var current *line
	for itok, err, eos := scanner.Next(); !eos; itok, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse token")
		}
		tok := itok.(*lexmachine.Token)
		if tok.Type == TOKEN_NEWLINE {
			current = nil
			continue
		}
		if current == nil {
			current = &line{num: tok.StartLine}
			lines = append(lines, current)
		} else {
			current.raw += " "
		}
		current.raw += string(tok.Lexeme)
		current.tokens = append(current.tokens, tok)
	}
	return lines, nil
}

func (l *line) errorf(format string, a ...interface{}) error {
	return errors.Errorf("line %d (%q): %s", l.num, l.raw, errors.Errorf(format, a...))
}

func (l *line) token(i int) (*lexmachine.Token, error) {
	if i >= len(l.tokens) {
		return nil, l.errorf("expected at least %d fields", i+1)
	}
	return l.tokens[i], nil
}

func (l *line) keyword() string {
	if len(l.tokens) == 1 && l.tokens[0].Type == TOKEN_IDENT {
		return string(l.tokens[0].Lexeme)
	}
	return ""
}

func (l *line) int(i int) (int, error) {
	tok, err := l.token(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(string(tok.Lexeme))
	if tok.Type != TOKEN_NUMBER || err != nil {
		return 0, l.errorf("field %d %q is not an integer", i, tok.Lexeme)
	}
	return v, nil
}

func (l *line) float(i int) (float32, error) {
	tok, err := l.token(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(string(tok.Lexeme), 32)
	if tok.Type != TOKEN_NUMBER || err != nil {
		return 0, l.errorf("field %d %q is not a number", i, tok.Lexeme)
	}
	return float32(v), nil
}

func (l *line) floats(from int, out []float32) error {
	for i := range out {
		v, err := l.float(from + i)
		if err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}

func (l *line) str(i int) (string, error) {
	tok, err := l.token(i)
	if err != nil {
		return "", err
	}
	if tok.Type == TOKEN_STRING {
		s, err := strconv.Unquote(string(tok.Lexeme))
		if err != nil {
			return "", l.errorf("field %d: %v", i, err)
		}
		return s, nil
	}
	return string(tok.Lexeme), nil
}

// cursor walks the lines of a file.
type cursor struct {
	lines []*line
	pos   int
}

func (c *cursor) next() (*line, error) {
	if c.pos >= len(c.lines) {
		return nil, errors.New("unexpected end of file")
	}
	c.pos++
	return c.lines[c.pos-1], nil
}

func (c *cursor) nextInt() (int, error) {
	l, err := c.next()
	if err != nil {
		return 0, err
	}
	return l.int(0)
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.lines)
}
