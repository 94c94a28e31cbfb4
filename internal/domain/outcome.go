package domain

import "strings"

// Outcome is the terminal result of a game.
type Outcome uint8

const (
	Unknown Outcome = iota
	WhiteWins
	BlackWins
	Draw
)

var outcomeTokens = map[Outcome]string{
	WhiteWins: "1-0",
	BlackWins: "0-1",
	Draw:      "1/2-1/2",
	Unknown:   "*",
}

// String returns the PGN result token.
func (o Outcome) String() string {
	if s, ok := outcomeTokens[o]; ok {
		return s
	}
	return outcomeTokens[Unknown]
}

// ParseOutcome decodes a PGN result token. Unrecognized tokens map to Unknown.
func ParseOutcome(token string) Outcome {
	switch strings.TrimSpace(token) {
	case "1-0":
		return WhiteWins
	case "0-1":
		return BlackWins
	case "1/2-1/2":
		return Draw
	default:
		return Unknown
	}
}
