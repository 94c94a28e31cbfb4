package pgn

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/park285/ascn-convert/internal/domain"
	"github.com/park285/ascn-convert/internal/rules"
)

var (
	ErrNoGame      = errors.New("no game found")
	ErrCustomStart = errors.New("game does not start from the standard position")
)

// MoveError reports a move token that does not resolve on the current board.
type MoveError struct {
	Ply   int
	Token string
	Line  int
	Col   int
	Err   error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("pgn %d:%d: ply %d %q: %v", e.Line, e.Col, e.Ply, e.Token, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

// Ingest folds the first game of events into a stream. Any unresolvable move
// fails the whole game; later games are not read.
func Ingest(eng rules.Engine, events iter.Seq2[Event, error]) (*domain.Stream, error) {
	var (
		board   domain.Board
		stream  *domain.Stream
		started bool
	)
	for ev, err := range events {
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case EventStartGame:
			board = eng.Start()
			stream = &domain.Stream{Outcome: domain.Unknown}
			started = true
		case EventHeader:
			if isCustomStart(ev.Name, ev.Value) {
				return nil, fmt.Errorf("%w: [%s %q]", ErrCustomStart, ev.Name, ev.Value)
			}
		case EventMove:
			if !started {
				return nil, ErrNoGame
			}
			m, err := eng.Resolve(ev.Value, board)
			if err != nil {
				return nil, &MoveError{Ply: stream.Len() + 1, Token: ev.Value, Line: ev.Line, Col: ev.Col, Err: err}
			}
			next, err := eng.Apply(board, m)
			if err != nil {
				return nil, &MoveError{Ply: stream.Len() + 1, Token: ev.Value, Line: ev.Line, Col: ev.Col, Err: err}
			}
			stream.Records = append(stream.Records, domain.Record{Move: m, Before: board})
			board = next
		case EventEndGame:
			if !started {
				return nil, ErrNoGame
			}
			stream.Outcome = domain.ParseOutcome(ev.Value)
			return stream, nil
		}
	}
	return nil, ErrNoGame
}

// isCustomStart reports a FEN tag naming anything but the initial position.
func isCustomStart(name, value string) bool {
	if !strings.EqualFold(name, "FEN") {
		return false
	}
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return false
	}
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ") != startFEN
}

// startFEN is the initial position without the move counters.
const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"
