package rules

import (
	nchess "github.com/corentings/chess/v2"
	"github.com/park285/ascn-convert/internal/domain"
)

var (
	knightSteps   = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps     = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	orthogonalRay = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonalRay   = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// attackersOfKing returns the squares of enemy pieces attacking the king of
// side, in a1..h8 scan order per attack kind.
func attackersOfKing(board map[nchess.Square]nchess.Piece, side nchess.Color) []domain.Square {
	king := nchess.NoSquare
	for sq, p := range board {
		if p.Type() == nchess.King && p.Color() == side {
			king = sq
			break
		}
	}
	if king == nchess.NoSquare {
		return nil
	}
	enemy := side.Other()
	kf, kr := int(king.File()), int(king.Rank())

	at := func(f, r int) (nchess.Piece, bool) {
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return nchess.NoPiece, false
		}
		p, ok := board[nchess.NewSquare(nchess.File(f), nchess.Rank(r))]
		return p, ok && p != nchess.NoPiece
	}
	var out []domain.Square
	add := func(f, r int) { out = append(out, domain.NewSquare(f, r)) }

	// Pawns attack diagonally forward, so look one rank towards the enemy.
	pawnRank := kr + 1
	if enemy == nchess.White {
		pawnRank = kr - 1
	}
	for _, df := range [2]int{-1, 1} {
		if p, ok := at(kf+df, pawnRank); ok && p.Color() == enemy && p.Type() == nchess.Pawn {
			add(kf+df, pawnRank)
		}
	}
	for _, st := range knightSteps {
		if p, ok := at(kf+st[0], kr+st[1]); ok && p.Color() == enemy && p.Type() == nchess.Knight {
			add(kf+st[0], kr+st[1])
		}
	}
	for _, st := range kingSteps {
		if p, ok := at(kf+st[0], kr+st[1]); ok && p.Color() == enemy && p.Type() == nchess.King {
			add(kf+st[0], kr+st[1])
		}
	}
	slide := func(rays [4][2]int, slider nchess.PieceType) {
		for _, ray := range rays {
			f, r := kf+ray[0], kr+ray[1]
			for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
				if p, ok := at(f, r); ok {
					if p.Color() == enemy && (p.Type() == slider || p.Type() == nchess.Queen) {
						add(f, r)
					}
					break
				}
				f, r = f+ray[0], r+ray[1]
			}
		}
	}
	slide(orthogonalRay, nchess.Rook)
	slide(diagonalRay, nchess.Bishop)
	return out
}
