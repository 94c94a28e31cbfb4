package ascn

import (
	"encoding/binary"
	"fmt"

	"github.com/park285/ascn-convert/internal/domain"
	"github.com/park285/ascn-convert/internal/rules"
)

// Reader replays an encoded game from the standard start position.
type Reader struct {
	eng     rules.Engine
	data    []byte
	off     int
	board   domain.Board
	outcome *domain.Outcome
	err     error
}

// NewReader validates the header. data must stay unmodified while reading.
func NewReader(eng rules.Engine, data []byte) (*Reader, error) {
	if len(data) < headerLen || string(data[:len(magic)]) != magic {
		return nil, fmt.Errorf("%w: missing %q header", ErrMalformed, magic)
	}
	if v := data[len(magic)]; v != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, v)
	}
	return &Reader{eng: eng, data: data, off: headerLen, board: eng.Start()}, nil
}

// Board is the position before the next move.
func (r *Reader) Board() domain.Board { return r.board }

// Next returns the next move and the board after it. It returns false at the
// end of the data or on error; check Err.
func (r *Reader) Next() (domain.Move, domain.Board, bool) {
	if r.err != nil || r.outcome != nil || r.off >= len(r.data) {
		return domain.Move{}, nil, false
	}
	if len(r.data)-r.off < wordLen {
		r.fail("truncated word")
		return domain.Move{}, nil, false
	}
	word := binary.BigEndian.Uint16(r.data[r.off:])
	at := r.off
	r.off += wordLen

	if word&terminator != 0 {
		if word&reservedMask != 0 {
			r.failAt(at, "reserved bits set in terminator %#04x", word)
			return domain.Move{}, nil, false
		}
		o := outcomeValues[word&outcomeMask]
		r.outcome = &o
		if r.off != len(r.data) {
			r.failAt(r.off, "%d bytes after terminator", len(r.data)-r.off)
		}
		return domain.Move{}, nil, false
	}

	m, ok := unpackMove(word)
	if !ok {
		r.failAt(at, "bad promotion code in %#04x", word)
		return domain.Move{}, nil, false
	}
	next, err := r.eng.Apply(r.board, m)
	if err != nil {
		r.err = fmt.Errorf("%w: offset %d: %v", ErrMalformed, at, err)
		return domain.Move{}, nil, false
	}
	r.board = next
	return m, next, true
}

// Outcome is the decoded result, or Unknown when no terminator was read.
func (r *Reader) Outcome() domain.Outcome {
	if r.outcome == nil {
		return domain.Unknown
	}
	return *r.outcome
}

func (r *Reader) Err() error { return r.err }

func (r *Reader) fail(msg string) { r.failAt(r.off, "%s", msg) }

func (r *Reader) failAt(off int, format string, args ...any) {
	r.err = fmt.Errorf("%w: offset %d: %s", ErrMalformed, off, fmt.Sprintf(format, args...))
}

// Decode reads a whole stream, pairing each move with the board before it.
func Decode(eng rules.Engine, data []byte) (*domain.Stream, error) {
	r, err := NewReader(eng, data)
	if err != nil {
		return nil, err
	}
	s := &domain.Stream{}
	for {
		before := r.Board()
		m, _, ok := r.Next()
		if !ok {
			break
		}
		s.Records = append(s.Records, domain.Record{Move: m, Before: before})
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	s.Outcome = r.Outcome()
	return s, nil
}
