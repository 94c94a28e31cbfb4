package rules

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/ascn-convert/internal/domain"
)

type position struct {
	pos *nchess.Position
}

func (p position) FEN() string { return p.pos.String() }

type chessEngine struct{}

// NewChessEngine returns the corentings/chess backed Engine.
func NewChessEngine() Engine { return chessEngine{} }

func (chessEngine) Start() domain.Board {
	return position{pos: nchess.StartingPosition()}
}

// FromFEN builds a board from a FEN string, for tests and diagnostics.
func FromFEN(fen string) (domain.Board, error) {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("decode fen: %w", err)
	}
	game := nchess.NewGame(opt)
	return position{pos: game.Position()}, nil
}

func unwrap(b domain.Board) (*nchess.Position, error) {
	p, ok := b.(position)
	if !ok || p.pos == nil {
		return nil, ErrForeignBoard
	}
	return p.pos, nil
}

func (e chessEngine) Apply(b domain.Board, m domain.Move) (domain.Board, error) {
	pos, err := unwrap(b)
	if err != nil {
		return nil, err
	}
	mv, err := findValid(pos, m)
	if err != nil {
		return nil, err
	}
	next := pos.Update(mv)
	if next == nil {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	return position{pos: next}, nil
}

func (chessEngine) PieceAt(b domain.Board, sq domain.Square) (domain.PieceKind, domain.Color, bool) {
	pos, err := unwrap(b)
	if err != nil || sq > domain.H8 {
		return domain.NoPiece, domain.White, false
	}
	piece := pos.Board().Piece(toSquare(sq))
	if piece == nchess.NoPiece {
		return domain.NoPiece, domain.White, false
	}
	return fromPieceType(piece.Type()), fromColor(piece.Color()), true
}

func (chessEngine) SideToMove(b domain.Board) domain.Color {
	pos, err := unwrap(b)
	if err != nil {
		return domain.White
	}
	return fromColor(pos.Turn())
}

func (chessEngine) IsCheckmate(b domain.Board) bool {
	pos, err := unwrap(b)
	if err != nil {
		return false
	}
	return pos.Status() == nchess.Checkmate
}

func (e chessEngine) Checkers(b domain.Board) []domain.Square {
	pos, err := unwrap(b)
	if err != nil {
		return nil
	}
	return attackersOfKing(pos.Board().SquareMap(), pos.Turn())
}

func (e chessEngine) Resolve(token string, b domain.Board) (domain.Move, error) {
	pos, err := unwrap(b)
	if err != nil {
		return domain.Move{}, err
	}
	raw := strings.TrimSpace(token)
	clean := strings.TrimRight(raw, "+#!?")
	if clean == "" {
		return domain.Move{}, fmt.Errorf("%w: empty token", ErrUnresolved)
	}

	if m, kind, ok := parseVerbose(clean); ok {
		if got, _, occupied := e.PieceAt(b, m.From); !occupied || got != kind {
			return domain.Move{}, fmt.Errorf("%w: %q (no %s on %s)", ErrUnresolved, raw, kind.Letter(), m.From)
		}
		if _, err := findValid(pos, m); err != nil {
			return domain.Move{}, fmt.Errorf("%w: %q: %v", ErrUnresolved, raw, err)
		}
		return m, nil
	}

	if m, ok := parseCoordinate(clean); ok {
		if _, err := findValid(pos, m); err != nil {
			return domain.Move{}, fmt.Errorf("%w: %q: %v", ErrUnresolved, raw, err)
		}
		return m, nil
	}

	san := strings.ReplaceAll(clean, "0", "O")
	if mv, derr := (nchess.AlgebraicNotation{}).Decode(pos, san); derr == nil && mv != nil {
		m := fromMove(mv)
		if sanMatches(san, pos, m) {
			if _, err := findValid(pos, m); err == nil {
				return m, nil
			}
		}
	}
	return domain.Move{}, fmt.Errorf("%w: %q", ErrUnresolved, raw)
}

// parseCoordinate reads the square-to-square form: e2e4, e2-e4, e4xd5,
// e7e8q, e7e8=Q.
func parseCoordinate(s string) (domain.Move, bool) {
	if len(s) < 4 {
		return domain.Move{}, false
	}
	from := domain.ParseSquare(s[:2])
	rest := s[2:]
	if rest != "" && (rest[0] == '-' || rest[0] == 'x') {
		rest = rest[1:]
	}
	if len(rest) < 2 {
		return domain.Move{}, false
	}
	to := domain.ParseSquare(rest[:2])
	if from == domain.NoSquare || to == domain.NoSquare {
		return domain.Move{}, false
	}
	m := domain.Move{From: from, To: to}
	promo := strings.TrimPrefix(rest[2:], "=")
	switch {
	case promo == "" && len(rest) == 2:
	case len(promo) == 1:
		m.Promotion = domain.PieceFromLetter(promo)
		if m.Promotion == domain.NoPiece || m.Promotion == domain.Pawn || m.Promotion == domain.King {
			return domain.Move{}, false
		}
	default:
		return domain.Move{}, false
	}
	return m, true
}

// sanMatches checks a decoded SAN move against the token's own piece letter,
// destination and promotion, since the decoder matches loosely.
func sanMatches(san string, pos *nchess.Position, m domain.Move) bool {
	piece := pos.Board().Piece(toSquare(m.From))
	if strings.HasPrefix(san, "O-O") {
		if piece.Type() != nchess.King {
			return false
		}
		if san == "O-O-O" {
			return m.To.File() == 2
		}
		return san == "O-O" && m.To.File() == 6
	}

	body := san
	promo := domain.NoPiece
	if i := strings.IndexByte(body, '='); i >= 0 {
		promo = domain.PieceFromLetter(body[i+1:])
		body = body[:i]
	} else if n := len(body); n > 2 && strings.IndexByte("NBRQ", body[n-1]) >= 0 {
		promo = domain.PieceFromLetter(body[n-1:])
		body = body[:n-1]
	}
	if promo != m.Promotion || len(body) < 2 {
		return false
	}
	if domain.ParseSquare(body[len(body)-2:]) != m.To {
		return false
	}
	want := domain.Pawn
	if c := body[0]; c >= 'A' && c <= 'Z' {
		want = domain.PieceFromLetter(body[:1])
	}
	return fromPieceType(piece.Type()) == want
}

// findValid returns the legal move matching m, carrying the engine's tags.
func findValid(pos *nchess.Position, m domain.Move) (*nchess.Move, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	s1, s2, promo := toSquare(m.From), toSquare(m.To), toPieceType(m.Promotion)
	for _, v := range pos.ValidMoves() {
		if v.S1() != s1 || v.S2() != s2 || v.Promo() != promo {
			continue
		}
		mv := v
		return &mv, nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrIllegalMove, m, pos.String())
}

// parseVerbose reads the always-from-square form, e.g. "Pe7xd8=Q".
func parseVerbose(s string) (domain.Move, domain.PieceKind, bool) {
	if len(s) < 5 {
		return domain.Move{}, domain.NoPiece, false
	}
	kind := domain.PieceFromLetter(s[:1])
	if kind == domain.NoPiece || s[0] < 'A' || s[0] > 'Z' {
		return domain.Move{}, domain.NoPiece, false
	}
	from := domain.ParseSquare(s[1:3])
	rest := s[3:]
	rest = strings.TrimPrefix(rest, "x")
	if len(rest) < 2 {
		return domain.Move{}, domain.NoPiece, false
	}
	to := domain.ParseSquare(rest[:2])
	rest = rest[2:]
	if from == domain.NoSquare || to == domain.NoSquare {
		return domain.Move{}, domain.NoPiece, false
	}
	m := domain.Move{From: from, To: to}
	switch {
	case rest == "":
	case len(rest) == 2 && rest[0] == '=':
		m.Promotion = domain.PieceFromLetter(rest[1:])
		if m.Promotion == domain.NoPiece {
			return domain.Move{}, domain.NoPiece, false
		}
	default:
		return domain.Move{}, domain.NoPiece, false
	}
	return m, kind, true
}

func toSquare(s domain.Square) nchess.Square { return nchess.Square(int8(s)) }

func fromSquare(s nchess.Square) domain.Square { return domain.Square(uint8(s)) }

func fromMove(mv *nchess.Move) domain.Move {
	return domain.Move{From: fromSquare(mv.S1()), To: fromSquare(mv.S2()), Promotion: fromPieceType(mv.Promo())}
}

func fromColor(c nchess.Color) domain.Color {
	if c == nchess.Black {
		return domain.Black
	}
	return domain.White
}

func fromPieceType(pt nchess.PieceType) domain.PieceKind {
	switch pt {
	case nchess.Pawn:
		return domain.Pawn
	case nchess.Knight:
		return domain.Knight
	case nchess.Bishop:
		return domain.Bishop
	case nchess.Rook:
		return domain.Rook
	case nchess.Queen:
		return domain.Queen
	case nchess.King:
		return domain.King
	default:
		return domain.NoPiece
	}
}

func toPieceType(k domain.PieceKind) nchess.PieceType {
	switch k {
	case domain.Pawn:
		return nchess.Pawn
	case domain.Knight:
		return nchess.Knight
	case domain.Bishop:
		return nchess.Bishop
	case domain.Rook:
		return nchess.Rook
	case domain.Queen:
		return nchess.Queen
	case domain.King:
		return nchess.King
	default:
		return nchess.NoPieceType
	}
}
