package notation

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/park285/ascn-convert/internal/domain"
	"github.com/park285/ascn-convert/internal/rules"
)

// Movetext folds the stream's records into numbered tokens. Every token,
// including the last, is followed by a single space.
func Movetext(eng rules.Engine, s *domain.Stream) (string, error) {
	var b strings.Builder
	moveNumber := 1
	for i, rec := range s.Records {
		tok, err := Token(eng, rec.Move, rec.Before)
		if err != nil {
			return "", fmt.Errorf("ply %d: %w", i+1, err)
		}
		if eng.SideToMove(rec.Before) == domain.White {
			b.WriteString(strconv.Itoa(moveNumber))
			b.WriteString(". ")
			moveNumber++
		}
		b.WriteString(tok)
		b.WriteByte(' ')
	}
	return b.String(), nil
}

// Assemble returns the full text document for the stream.
func Assemble(eng rules.Engine, s *domain.Stream) (string, error) {
	var b strings.Builder
	if err := WriteGame(&b, eng, s); err != nil {
		return "", err
	}
	return b.String(), nil
}

// WriteGame writes the result header, a blank line, the movetext and the
// result token once more after the last move.
func WriteGame(w io.Writer, eng rules.Engine, s *domain.Stream) error {
	body, err := Movetext(eng, s)
	if err != nil {
		return err
	}
	result := s.Outcome.String()
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "[Result %q]\n\n%s%s", result, body, result); err != nil {
		return err
	}
	return bw.Flush()
}
