package convert

import (
	"context"
	"fmt"

	"github.com/park285/ascn-convert/internal/domain"
	"github.com/park285/ascn-convert/internal/render"
	"github.com/park285/ascn-convert/internal/rules"
)

// FinalPosition replays the last move of s and returns the resulting board
// together with that move. An empty stream yields the start position.
func FinalPosition(eng rules.Engine, s *domain.Stream) (domain.Board, *domain.Move, error) {
	if s.Len() == 0 {
		return eng.Start(), nil, nil
	}
	last := s.Records[len(s.Records)-1]
	after, err := eng.Apply(last.Before, last.Move)
	if err != nil {
		return nil, nil, fmt.Errorf("replay %s: %w", last.Move, err)
	}
	m := last.Move
	return after, &m, nil
}

// Diagram renders the final position of res as a PNG.
func (s *Service) Diagram(ctx context.Context, res *Result, squareSize int) ([]byte, error) {
	stream, err := s.Replay(res)
	if err != nil {
		return nil, stageErr(StageParse, "", err)
	}
	board, last, err := FinalPosition(s.eng, stream)
	if err != nil {
		return nil, stageErr(StageEncode, "", err)
	}
	img, err := render.RenderPNG(ctx, s.eng, board, render.Options{SquareSize: squareSize, Highlight: last})
	if err != nil {
		return nil, stageErr(StageEncode, "", err)
	}
	return img, nil
}
