package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/park285/ascn-convert/internal/config"
	"github.com/park285/ascn-convert/internal/convbuilder"
	"github.com/park285/ascn-convert/internal/convert"
	"github.com/park285/ascn-convert/internal/obslog"
	"go.uber.org/zap"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ascnconv", flag.ContinueOnError)
	output := fs.String("o", "", "output path (default: input with the opposite extension)")
	diagram := fs.String("diagram", "", "also render the final position to this PNG file")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: ascnconv [-o output] [-diagram out.png] input.{pgn,ascn}\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	input := fs.Arg(0)

	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		return exitFailure
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config_error", zap.Error(err))
		return exitFailure
	}
	deps, err := convbuilder.New(cfg, logger)
	if err != nil {
		logger.Error("init_error", zap.Error(err))
		return exitFailure
	}
	defer func() { _ = deps.Close() }()

	ctx := context.Background()
	res, written, err := deps.Service.ConvertFile(ctx, input, *output)
	if err != nil {
		return report(logger, input, err)
	}
	logger.Info("convert_written", zap.String("output", written), zap.Bool("cached", res.Cached))

	if *diagram != "" {
		img, err := deps.Service.Diagram(ctx, res, cfg.DiagramSquareSize)
		if err != nil {
			return report(logger, input, err)
		}
		if err := convert.WriteFileAtomic(*diagram, img); err != nil {
			logger.Error("diagram_write_failed", zap.String("path", *diagram), zap.Error(err))
			return exitFailure
		}
		logger.Info("diagram_written", zap.String("path", *diagram))
	}
	return 0
}

func report(logger *zap.Logger, input string, err error) int {
	if errors.Is(err, convert.ErrUnknownFormat) {
		logger.Error("unknown_format", zap.String("input", input), zap.Error(err))
		return exitUsage
	}
	stage := "convert"
	var se *convert.StageError
	if errors.As(err, &se) {
		stage = string(se.Stage)
	}
	logger.Error("convert_failed", zap.String("input", input), zap.String("stage", stage), zap.Error(err))
	return exitFailure
}
