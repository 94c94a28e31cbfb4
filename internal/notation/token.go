// Package notation renders moves as verbose tokens and folds a move stream
// into numbered movetext.
//
// Tokens always carry the source square (Pe2e4, Ng1xf3, Pe7e8=Q+), so a
// reader never needs a disambiguation search to decode them.
package notation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/park285/ascn-convert/internal/domain"
	"github.com/park285/ascn-convert/internal/rules"
)

var ErrNoPiece = errors.New("no piece on source square")

// Token renders m as played on before.
func Token(eng rules.Engine, m domain.Move, before domain.Board) (string, error) {
	kind, _, ok := eng.PieceAt(before, m.From)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoPiece, m)
	}
	after, err := eng.Apply(before, m)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(10)
	b.WriteString(kind.Letter())
	b.WriteString(m.From.Name())
	if _, _, occupied := eng.PieceAt(before, m.To); occupied {
		b.WriteByte('x')
	}
	b.WriteString(m.To.Name())
	if m.Promotion != domain.NoPiece {
		b.WriteByte('=')
		b.WriteString(m.Promotion.Letter())
	}
	switch {
	case eng.IsCheckmate(after):
		b.WriteByte('#')
	case len(eng.Checkers(after)) > 0:
		b.WriteByte('+')
	}
	return b.String(), nil
}
