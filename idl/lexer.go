package idl

import (
	"bufio"
	"io"
	"strings"

	"github.com/ifabos/go-idlmap/errors"
)

// Token types for lexical analysis
type tokenType int

const (
	tokenIdentifier tokenType = iota
	tokenNumber
	tokenString
	tokenChar
	tokenOperator
	tokenOpenBrace
	tokenCloseBrace
	tokenOpenParen
	tokenCloseParen
	tokenOpenBracket
	tokenCloseBracket
	tokenOpenAngle
	tokenCloseAngle
	tokenSemicolon
	tokenColon
	tokenScope
	tokenComma
	tokenPreprocessor
	tokenEOF
)

// token represents a lexical token
type token struct {
	typ   tokenType
	value string
	line  int
}

// lexer performs lexical analysis of IDL files
type lexer struct {
	reader  *bufio.Reader
	current rune
	eof     bool
	line    int
}

func newLexer(r io.Reader) *lexer {
	lex := &lexer{
		reader: bufio.NewReader(r),
		line:   1,
	}
	lex.readChar()
	return lex
}

func (l *lexer) readChar() {
	if l.current == '\n' {
		l.line++
	}
	var err error
	l.current, _, err = l.reader.ReadRune()
	if err != nil {
		l.eof = true
		l.current = 0
	}
}

// peek returns the character after the current one without consuming it
func (l *lexer) peek() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		return 0
	}
	_ = l.reader.UnreadRune()
	return r
}

func (l *lexer) skipWhitespace() {
	for !l.eof && (l.current == ' ' || l.current == '\t' || l.current == '\n' || l.current == '\r') {
		l.readChar()
	}
}

// skipComment skips a comment starting at the current '/'. It reports
// false when the '/' does not start a comment.
func (l *lexer) skipComment() (bool, error) {
	switch l.peek() {
	case '/':
		for !l.eof && l.current != '\n' {
			l.readChar()
		}
		return true, nil
	case '*':
		l.readChar()
		l.readChar()
		for !l.eof {
			if l.current == '*' && l.peek() == '/' {
				l.readChar()
				l.readChar()
				return true, nil
			}
			l.readChar()
		}
		return false, errors.InvalidInputf("line %d: unterminated comment", l.line)
	}
	return false, nil
}

func (l *lexer) single(typ tokenType) *token {
	t := &token{typ: typ, value: string(l.current), line: l.line}
	l.readChar()
	return t
}

// nextToken returns the next token
func (l *lexer) nextToken() (*token, error) {
	for !l.eof {
		l.skipWhitespace()
		if l.current != '/' {
			break
		}
		skipped, err := l.skipComment()
		if err != nil {
			return nil, err
		}
		if !skipped {
			break
		}
	}

	if l.eof {
		return &token{typ: tokenEOF, line: l.line}, nil
	}

	switch {
	case l.current == '{':
		return l.single(tokenOpenBrace), nil
	case l.current == '}':
		return l.single(tokenCloseBrace), nil
	case l.current == '(':
		return l.single(tokenOpenParen), nil
	case l.current == ')':
		return l.single(tokenCloseParen), nil
	case l.current == '[':
		return l.single(tokenOpenBracket), nil
	case l.current == ']':
		return l.single(tokenCloseBracket), nil
	case l.current == '<':
		return l.single(tokenOpenAngle), nil
	case l.current == '>':
		return l.single(tokenCloseAngle), nil
	case l.current == ';':
		return l.single(tokenSemicolon), nil
	case l.current == ',':
		return l.single(tokenComma), nil
	case l.current == ':':
		if l.peek() == ':' {
			line := l.line
			l.readChar()
			l.readChar()
			return &token{typ: tokenScope, value: "::", line: line}, nil
		}
		return l.single(tokenColon), nil
	case l.current == '#':
		return l.readPreprocessor()
	case isLetter(l.current) || l.current == '_':
		return l.readIdentifier()
	case isDigit(l.current):
		return l.readNumber()
	case l.current == '"':
		return l.readString()
	case l.current == '\'':
		return l.readCharLiteral()
	case isOperator(l.current):
		return l.readOperator()
	default:
		return nil, errors.InvalidInputf("line %d: unexpected character: %c", l.line, l.current)
	}
}

// readPreprocessor reads a preprocessor directive up to the end of the line
func (l *lexer) readPreprocessor() (*token, error) {
	line := l.line
	var directive strings.Builder
	for !l.eof && l.current != '\n' {
		directive.WriteRune(l.current)
		l.readChar()
	}
	return &token{typ: tokenPreprocessor, value: strings.TrimSpace(directive.String()), line: line}, nil
}

func (l *lexer) readIdentifier() (*token, error) {
	line := l.line
	var ident strings.Builder
	for !l.eof && (isLetter(l.current) || isDigit(l.current) || l.current == '_') {
		ident.WriteRune(l.current)
		l.readChar()
	}
	return &token{typ: tokenIdentifier, value: ident.String(), line: line}, nil
}

func (l *lexer) readNumber() (*token, error) {
	line := l.line
	var num strings.Builder
	for !l.eof && (isDigit(l.current) || isLetter(l.current) || l.current == '.') {
		num.WriteRune(l.current)
		l.readChar()
	}
	return &token{typ: tokenNumber, value: num.String(), line: line}, nil
}

func (l *lexer) readString() (*token, error) {
	line := l.line
	var str strings.Builder
	l.readChar()
	for !l.eof && l.current != '"' {
		if l.current == '\\' {
			l.readChar()
			if l.eof {
				break
			}
		}
		str.WriteRune(l.current)
		l.readChar()
	}
	if l.eof {
		return nil, errors.InvalidInputf("line %d: unterminated string literal", line)
	}
	l.readChar()
	return &token{typ: tokenString, value: str.String(), line: line}, nil
}

func (l *lexer) readCharLiteral() (*token, error) {
	line := l.line
	var ch strings.Builder
	l.readChar()
	if l.eof {
		return nil, errors.InvalidInputf("line %d: unterminated character literal", line)
	}
	if l.current == '\\' {
		ch.WriteRune(l.current)
		l.readChar()
		if l.eof {
			return nil, errors.InvalidInputf("line %d: unterminated character literal", line)
		}
	}
	ch.WriteRune(l.current)
	l.readChar()
	if l.current != '\'' {
		return nil, errors.InvalidInputf("line %d: unterminated character literal", line)
	}
	l.readChar()
	return &token{typ: tokenChar, value: ch.String(), line: line}, nil
}

func (l *lexer) readOperator() (*token, error) {
	line := l.line
	var op strings.Builder
	op.WriteRune(l.current)
	l.readChar()
	if !l.eof && isOperator(l.current) {
		op.WriteRune(l.current)
		l.readChar()
	}
	return &token{typ: tokenOperator, value: op.String(), line: line}, nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isOperator(r rune) bool {
	return strings.ContainsRune("+-*/=!%&|^~", r)
}
