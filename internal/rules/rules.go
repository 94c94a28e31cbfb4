// Package rules is the boundary to the chess rules engine. The notation and
// codec packages only see the Engine capability set; the concrete adapter
// over github.com/corentings/chess/v2 lives in chessengine.go.
package rules

import (
	"errors"

	"github.com/park285/ascn-convert/internal/domain"
)

var (
	ErrIllegalMove  = errors.New("illegal move")
	ErrUnresolved   = errors.New("move token does not resolve")
	ErrForeignBoard = errors.New("board was not produced by this engine")
)

// Engine is everything the converter needs from a rules implementation.
type Engine interface {
	// Start returns the standard initial position.
	Start() domain.Board
	Apply(b domain.Board, m domain.Move) (domain.Board, error)
	PieceAt(b domain.Board, sq domain.Square) (domain.PieceKind, domain.Color, bool)
	SideToMove(b domain.Board) domain.Color
	IsCheckmate(b domain.Board) bool
	// Checkers lists the squares of pieces giving check to the side to move.
	Checkers(b domain.Board) []domain.Square
	// Resolve maps a move token (SAN, the verbose form, or UCI) to a legal move.
	Resolve(token string, b domain.Board) (domain.Move, error)
}
