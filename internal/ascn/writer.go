package ascn

import (
	"encoding/binary"

	"github.com/park285/ascn-convert/internal/domain"
)

// Writer accumulates moves in game order.
type Writer struct {
	words []uint16
}

func NewWriter() *Writer {
	return &Writer{words: make([]uint16, 0, 80)}
}

// AddMove appends m. The board is the position m is played on; version 1
// stores moves by squares only, so it is not consulted.
func (w *Writer) AddMove(m domain.Move, _ domain.Board) {
	w.words = append(w.words, packMove(m))
}

// Bytes returns the encoding. A nil outcome writes no terminator.
func (w *Writer) Bytes(outcome *domain.Outcome) []byte {
	n := headerLen + len(w.words)*wordLen
	if outcome != nil {
		n += wordLen
	}
	buf := make([]byte, 0, n)
	buf = append(buf, magic...)
	buf = append(buf, version)
	for _, word := range w.words {
		buf = binary.BigEndian.AppendUint16(buf, word)
	}
	if outcome != nil {
		buf = binary.BigEndian.AppendUint16(buf, terminator|outcomeCodes[*outcome])
	}
	return buf
}

// Encode serializes a full stream including its outcome.
func Encode(s *domain.Stream) []byte {
	w := NewWriter()
	for _, rec := range s.Records {
		w.AddMove(rec.Move, rec.Before)
	}
	outcome := s.Outcome
	return w.Bytes(&outcome)
}
