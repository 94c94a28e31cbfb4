package pgn

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type itemType int

const (
	itemNone itemType = iota
	itemEOF
	itemLBracket   // '['
	itemRBracket   // ']'
	itemLParen     // '('
	itemRParen     // ')'
	itemSymbol     // tag name or move
	itemString     // quoted string, quotes included
	itemComment    // brace comment, braces included
	itemAnnotation // '!' '?!' '$1'
	itemResult     // '1-0' '0-1' '1/2-1/2' '*'
	itemMoveNumber
	itemDots
)

var itemNames = map[itemType]string{
	itemNone:       "<none>",
	itemEOF:        "<EOF>",
	itemLBracket:   "'['",
	itemRBracket:   "']'",
	itemLParen:     "'('",
	itemRParen:     "')'",
	itemSymbol:     "<symbol>",
	itemString:     "<string>",
	itemComment:    "<comment>",
	itemAnnotation: "<annotation>",
	itemResult:     "<result>",
	itemMoveNumber: "<movenr>",
	itemDots:       "<dots>",
}

func (t itemType) String() string { return itemNames[t] }

type item struct {
	typ  itemType
	val  string
	line int
	col  int
}

const eof = -1

// SyntaxError reports a lexical or structural problem with its position.
type SyntaxError struct {
	Line    int
	Col     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pgn %d:%d: %s", e.Line, e.Col, e.Message)
}

type lexer struct {
	input string
	pos   int
	start int
	line  int
	col   int

	startLine int
	startCol  int
}

func newLexer(input string) *lexer {
	return &lexer{input: input, line: 1, col: 1, startLine: 1, startCol: 1}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.input) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		return eof
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	switch r {
	case '\n':
		l.line++
		l.col = 1
	case '\uFEFF':
		// A byte order mark does not occupy a column.
	default:
		l.col++
	}
	return r
}

func (l *lexer) emit(t itemType) item {
	it := item{typ: t, val: l.input[l.start:l.pos], line: l.startLine, col: l.startCol}
	l.ignore()
	return it
}

func (l *lexer) ignore() {
	l.start = l.pos
	l.startLine, l.startCol = l.line, l.col
}

func (l *lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Line: l.startLine, Col: l.startCol, Message: fmt.Sprintf(format, args...)}
}

func (l *lexer) acceptRun(runes string) {
	for strings.ContainsRune(runes, l.peek()) {
		l.next()
	}
}

// find consumes runes up to and including one from the set.
func (l *lexer) find(runes string) bool {
	for {
		r := l.next()
		if r == eof {
			return false
		}
		if strings.ContainsRune(runes, r) {
			return true
		}
	}
}

func (l *lexer) item() (item, error) {
	for {
		r := l.next()
		switch r {
		case eof:
			return l.emit(itemEOF), nil
		case ' ', '\t', '\v', '\r', '\n', '\uFEFF':
			l.acceptRun(" \t\v\r\n")
			l.ignore()
		case ';':
			l.find("\n")
			l.ignore()
		case '%':
			// Escape lines only count at the start of a line.
			if l.startCol == 1 {
				l.find("\n")
				l.ignore()
				continue
			}
			return item{}, l.errorf("unexpected character: %#U", r)
		case '[':
			return l.emit(itemLBracket), nil
		case ']':
			return l.emit(itemRBracket), nil
		case '(':
			return l.emit(itemLParen), nil
		case ')':
			return l.emit(itemRParen), nil
		case '*':
			return l.emit(itemResult), nil
		case '{':
			if !l.find("}") {
				return item{}, l.errorf("unclosed block comment")
			}
			return l.emit(itemComment), nil
		case '"':
			return l.quoted()
		case '$':
			l.acceptRun("0123456789")
			if l.pos-l.start < 2 {
				return item{}, l.errorf("expected digit after '$'")
			}
			return l.emit(itemAnnotation), nil
		case '!', '?':
			l.acceptRun("!?")
			return l.emit(itemAnnotation), nil
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			return l.number(), nil
		case '.':
			l.acceptRun(".")
			return l.emit(itemDots), nil
		default:
			if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
				return item{}, l.errorf("unexpected character: %#U", r)
			}
			l.acceptRun("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_+#=:-")
			return l.emit(itemSymbol), nil
		}
	}
}

// number lexes a move number, a result, or a zero-castle written as 0-0.
func (l *lexer) number() item {
	rest := l.input[l.start:]
	for _, result := range [...]string{"1-0", "0-1", "1/2-1/2"} {
		if strings.HasPrefix(rest, result) && !strings.HasPrefix(rest, "0-0") {
			for l.pos < l.start+len(result) {
				l.next()
			}
			return l.emit(itemResult)
		}
	}
	if strings.HasPrefix(rest, "0-0") {
		l.acceptRun("0-+#")
		return l.emit(itemSymbol)
	}
	l.acceptRun("0123456789")
	return l.emit(itemMoveNumber)
}

func (l *lexer) quoted() (item, error) {
	for {
		switch l.next() {
		case '\\':
			l.next()
		case eof, '\n':
			return item{}, l.errorf("unclosed quoted string")
		case '"':
			return l.emit(itemString), nil
		}
	}
}

// unquote strips the surrounding quotes and PGN backslash escapes.
func unquote(s string) string {
	if len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return strings.TrimSpace(b.String())
}
