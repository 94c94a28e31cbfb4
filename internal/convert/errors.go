package convert

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFormat = errors.New("unknown input format")
	ErrIO            = errors.New("io failure")
	ErrParse         = errors.New("parse failure")
)

type Stage string

const (
	StageRead   Stage = "read"
	StageParse  Stage = "parse"
	StageEncode Stage = "encode"
	StageWrite  Stage = "write"
)

// StageError records which stage of a conversion failed.
type StageError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Is classifies read/write failures as ErrIO and parse failures as ErrParse.
func (e *StageError) Is(target error) bool {
	switch target {
	case ErrIO:
		return e.Stage == StageRead || e.Stage == StageWrite
	case ErrParse:
		return e.Stage == StageParse
	}
	return false
}

func stageErr(stage Stage, path string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Path: path, Err: err}
}
