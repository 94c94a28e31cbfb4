package convert

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatASCN Format = "ascn"
	FormatPGN  Format = "pgn"
)

func (f Format) Opposite() Format {
	if f == FormatASCN {
		return FormatPGN
	}
	return FormatASCN
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string { return "." + string(f) }

// DetectFormat picks the format from the path's extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "ascn":
		return FormatASCN, nil
	case "pgn":
		return FormatPGN, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// OutputPath returns the input path with the opposite format's extension.
func OutputPath(input string, in Format) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + in.Opposite().Extension()
}
