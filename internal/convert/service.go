// Package convert drives one conversion between PGN text and ASCN bytes.
package convert

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/park285/ascn-convert/internal/ascn"
	"github.com/park285/ascn-convert/internal/domain"
	"github.com/park285/ascn-convert/internal/notation"
	"github.com/park285/ascn-convert/internal/pgn"
	"github.com/park285/ascn-convert/internal/rules"
	"go.uber.org/zap"
)

// Cache stores finished outputs keyed by direction and input digest.
type Cache interface {
	Get(ctx context.Context, dir domain.Direction, digest string) ([]byte, bool, error)
	Put(ctx context.Context, dir domain.Direction, digest string, output []byte) error
}

// Recorder keeps a log of finished conversions.
type Recorder interface {
	InsertConversion(ctx context.Context, c *domain.Conversion) error
}

type Service struct {
	eng    rules.Engine
	cache  Cache
	rec    Recorder
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithCache(c Cache) Option       { return func(s *Service) { s.cache = c } }
func WithRecorder(r Recorder) Option { return func(s *Service) { s.rec = r } }

func NewService(eng rules.Engine, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{eng: eng, logger: logger, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) Engine() rules.Engine { return s.eng }

// Result is a finished conversion. Stream is nil when Output came from the cache.
type Result struct {
	Input  Format
	Output []byte
	Stream *domain.Stream
	Cached bool
}

// Convert converts data that is in format in into the opposite format.
func (s *Service) Convert(ctx context.Context, in Format, data []byte) (*Result, error) {
	if in != FormatPGN && in != FormatASCN {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, in)
	}
	started := s.now()
	dir := direction(in)
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	if s.cache != nil {
		out, ok, err := s.cache.Get(ctx, dir, digest)
		if err != nil {
			s.logger.Warn("convert_cache_get_error", zap.String("direction", string(dir)), zap.Error(err))
		} else if ok {
			s.logger.Debug("convert_cache_hit", zap.String("direction", string(dir)), zap.String("digest", digest))
			return &Result{Input: in, Output: out, Cached: true}, nil
		}
	}

	var (
		stream *domain.Stream
		out    []byte
		err    error
	)
	switch in {
	case FormatPGN:
		stream, err = pgn.Ingest(s.eng, pgn.Events(bytes.NewReader(data)))
		if err != nil {
			return nil, stageErr(StageParse, "", err)
		}
		out = ascn.Encode(stream)
	case FormatASCN:
		stream, err = ascn.Decode(s.eng, data)
		if err != nil {
			return nil, stageErr(StageParse, "", err)
		}
		var buf bytes.Buffer
		if err := notation.WriteGame(&buf, s.eng, stream); err != nil {
			return nil, stageErr(StageEncode, "", err)
		}
		out = buf.Bytes()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, in)
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, dir, digest, out); err != nil {
			s.logger.Warn("convert_cache_put_error", zap.String("direction", string(dir)), zap.Error(err))
		}
	}
	s.record(ctx, dir, digest, stream, out, started)

	s.logger.Info("convert_done",
		zap.String("direction", string(dir)),
		zap.Int("plies", stream.Len()),
		zap.String("result", stream.Outcome.String()),
		zap.Int("output_bytes", len(out)),
	)
	return &Result{Input: in, Output: out, Stream: stream}, nil
}

// Replay returns the stream behind res, decoding it again for cached results.
func (s *Service) Replay(res *Result) (*domain.Stream, error) {
	if res == nil {
		return nil, fmt.Errorf("nil result")
	}
	if res.Stream != nil {
		return res.Stream, nil
	}
	if res.Input == FormatPGN {
		return ascn.Decode(s.eng, res.Output)
	}
	return pgn.Ingest(s.eng, pgn.Events(bytes.NewReader(res.Output)))
}

// ConvertFile converts input into output, choosing the direction from the
// input's extension. An empty output derives the path from the input.
// The output file only appears once it has been fully written.
func (s *Service) ConvertFile(ctx context.Context, input, output string) (*Result, string, error) {
	in, err := DetectFormat(input)
	if err != nil {
		return nil, "", err
	}
	if output == "" {
		output = OutputPath(input, in)
	}
	s.logger.Info("convert_start",
		zap.String("input", input),
		zap.String("output", output),
		zap.String("format", string(in)),
	)

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, output, stageErr(StageRead, input, err)
	}
	res, err := s.Convert(ctx, in, data)
	if err != nil {
		var se *StageError
		if asStage(err, &se) && se.Path == "" {
			se.Path = input
		}
		return nil, output, err
	}
	if err := WriteFileAtomic(output, res.Output); err != nil {
		return nil, output, stageErr(StageWrite, output, err)
	}
	return res, output, nil
}

func (s *Service) record(ctx context.Context, dir domain.Direction, digest string, stream *domain.Stream, out []byte, started time.Time) {
	if s.rec == nil {
		return
	}
	c := &domain.Conversion{
		ID:          uuid.NewString(),
		Direction:   dir,
		InputSHA256: digest,
		Plies:       stream.Len(),
		Result:      stream.Outcome,
		Output:      out,
		CreatedAt:   started,
		Duration:    s.now().Sub(started),
	}
	if dir == domain.DirectionASCNToPGN {
		c.Movetext = string(out)
	} else if text, err := notation.Assemble(s.eng, stream); err == nil {
		c.Movetext = text
	}
	if err := s.rec.InsertConversion(ctx, c); err != nil {
		s.logger.Error("convert_record_error", zap.String("id", c.ID), zap.Error(err))
		return
	}
	s.logger.Debug("convert_recorded", zap.String("id", c.ID))
}

func direction(in Format) domain.Direction {
	if in == FormatASCN {
		return domain.DirectionASCNToPGN
	}
	return domain.DirectionPGNToASCN
}
