package domain

import (
	"fmt"
	"strings"
)

// Square indexes the board from a1 (0) to h8 (63), rank-major.
type Square uint8

const (
	A1 Square = 0
	H8 Square = 63
	// NoSquare marks an unparsable or absent square.
	NoSquare Square = 64
)

func NewSquare(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare
	}
	return Square(rank*8 + file)
}

func (s Square) File() int { return int(s) % 8 }
func (s Square) Rank() int { return int(s) / 8 }

// Name returns the algebraic square name, e.g. "e4".
func (s Square) Name() string {
	if s > H8 {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

func (s Square) String() string { return s.Name() }

// ParseSquare converts a square name such as "e4" into a Square.
func ParseSquare(name string) Square {
	if len(name) != 2 {
		return NoSquare
	}
	return NewSquare(int(name[0]-'a'), int(name[1]-'1'))
}

type PieceKind uint8

const (
	NoPiece PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceLetters = [...]string{
	NoPiece: "",
	Pawn:    "P",
	Knight:  "N",
	Bishop:  "B",
	Rook:    "R",
	Queen:   "Q",
	King:    "K",
}

// Letter returns the upper-case notation letter of the piece kind.
func (k PieceKind) Letter() string {
	if int(k) >= len(pieceLetters) {
		return ""
	}
	return pieceLetters[k]
}

// PieceFromLetter is the inverse of Letter; case-insensitive.
func PieceFromLetter(s string) PieceKind {
	for k, l := range pieceLetters {
		if l != "" && strings.EqualFold(l, s) {
			return PieceKind(k)
		}
	}
	return NoPiece
}

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Move is a plain from/to/promotion triple. It carries no board context.
type Move struct {
	From      Square
	To        Square
	Promotion PieceKind
}

// String renders the move in UCI form (e7e8q).
func (m Move) String() string {
	s := m.From.Name() + m.To.Name()
	if m.Promotion != NoPiece {
		s += strings.ToLower(m.Promotion.Letter())
	}
	return s
}

// Validate reports structurally impossible moves.
func (m Move) Validate() error {
	if m.From > H8 || m.To > H8 {
		return fmt.Errorf("move %s: square out of range", m)
	}
	if m.From == m.To {
		return fmt.Errorf("move %s: null move", m)
	}
	switch m.Promotion {
	case NoPiece, Knight, Bishop, Rook, Queen:
	default:
		return fmt.Errorf("move %s: invalid promotion %d", m, m.Promotion)
	}
	return nil
}
