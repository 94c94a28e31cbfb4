package domain

// Board is an opaque position owned by a rules engine. The core never
// mutates one; successors come from the engine.
type Board interface {
	FEN() string
}

// Record pairs a move with the board it was played on.
type Record struct {
	Move   Move
	Before Board
}

// Stream is a game in order plus its terminal outcome.
type Stream struct {
	Records []Record
	Outcome Outcome
}

func (s *Stream) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Moves returns the bare move list.
func (s *Stream) Moves() []Move {
	if s == nil {
		return nil
	}
	out := make([]Move, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Move
	}
	return out
}
