// Package pgn turns PGN text into a lazy event sequence and folds that
// sequence into a domain.Stream.
package pgn

import (
	"fmt"
	"io"
	"iter"
)

type EventKind uint8

const (
	EventStartGame EventKind = iota + 1
	EventHeader
	EventMove
	EventEndGame
)

var eventNames = map[EventKind]string{
	EventStartGame: "start",
	EventHeader:    "header",
	EventMove:      "move",
	EventEndGame:   "end",
}

func (k EventKind) String() string { return eventNames[k] }

// Event is one step of a parsed game. Value holds the header value, the
// move token or the result token, depending on Kind.
type Event struct {
	Kind  EventKind
	Name  string
	Value string
	Line  int
	Col   int
}

// Events reads r to completion and yields the events of every game in it.
// The sequence can be ranged over once.
func Events(r io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		raw, err := io.ReadAll(r)
		if err != nil {
			yield(Event{}, fmt.Errorf("read pgn: %w", err))
			return
		}
		for ev, err := range Scan(string(raw)) {
			if !yield(ev, err) {
				return
			}
		}
	}
}

// Scan yields events from PGN text. Comments, annotations, move numbers and
// side variations are dropped; only the main line reaches the caller. A game
// that runs into EOF or the next tag section without a result ends with "*".
func Scan(input string) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		s := &scanner{lex: newLexer(input)}
		s.run(yield)
	}
}

type scanner struct {
	lex     *lexer
	inGame  bool
	inMoves bool
	depth   int
}

func (s *scanner) next() (item, error) {
	for {
		it, err := s.lex.item()
		if err != nil {
			return item{}, err
		}
		if it.typ != itemComment {
			return it, nil
		}
	}
}

func (s *scanner) expect(typ itemType) (item, error) {
	it, err := s.next()
	if err != nil {
		return item{}, err
	}
	if it.typ != typ {
		return item{}, &SyntaxError{Line: it.line, Col: it.col, Message: fmt.Sprintf("expected %s, got %s", typ, it.typ)}
	}
	return it, nil
}

func (s *scanner) run(yield func(Event, error) bool) {
	fail := func(err error) { yield(Event{}, err) }
	begin := func(it item) bool {
		if s.inGame {
			return true
		}
		s.inGame, s.inMoves, s.depth = true, false, 0
		return yield(Event{Kind: EventStartGame, Line: it.line, Col: it.col}, nil)
	}
	end := func(it item, result string) bool {
		s.inGame, s.inMoves = false, false
		return yield(Event{Kind: EventEndGame, Value: result, Line: it.line, Col: it.col}, nil)
	}

	for {
		it, err := s.next()
		if err != nil {
			fail(err)
			return
		}
		switch it.typ {
		case itemEOF:
			if s.depth != 0 {
				fail(&SyntaxError{Line: it.line, Col: it.col, Message: fmt.Sprintf("%d unclosed variations", s.depth)})
				return
			}
			if s.inGame {
				end(it, "*")
			}
			return
		case itemLBracket:
			if s.depth != 0 {
				fail(&SyntaxError{Line: it.line, Col: it.col, Message: "tag inside variation"})
				return
			}
			if s.inGame && s.inMoves && !end(it, "*") {
				return
			}
			if !begin(it) {
				return
			}
			name, err := s.expect(itemSymbol)
			if err != nil {
				fail(err)
				return
			}
			value, err := s.expect(itemString)
			if err != nil {
				fail(err)
				return
			}
			if _, err := s.expect(itemRBracket); err != nil {
				fail(err)
				return
			}
			if !yield(Event{Kind: EventHeader, Name: name.val, Value: unquote(value.val), Line: name.line, Col: name.col}, nil) {
				return
			}
		case itemLParen:
			if !s.inMoves {
				fail(&SyntaxError{Line: it.line, Col: it.col, Message: "variation without a preceding move"})
				return
			}
			s.depth++
		case itemRParen:
			if s.depth == 0 {
				fail(&SyntaxError{Line: it.line, Col: it.col, Message: "unexpected right parenthesis"})
				return
			}
			s.depth--
		case itemSymbol:
			if !begin(it) {
				return
			}
			s.inMoves = true
			if s.depth == 0 && !yield(Event{Kind: EventMove, Value: it.val, Line: it.line, Col: it.col}, nil) {
				return
			}
		case itemResult:
			if s.depth != 0 {
				fail(&SyntaxError{Line: it.line, Col: it.col, Message: "result inside variation"})
				return
			}
			if !begin(it) || !end(it, it.val) {
				return
			}
		case itemMoveNumber, itemDots:
			if !begin(it) {
				return
			}
		case itemAnnotation:
			// NAGs carry no move information.
		default:
			fail(&SyntaxError{Line: it.line, Col: it.col, Message: fmt.Sprintf("unexpected token: %s", it.typ)})
			return
		}
	}
}
