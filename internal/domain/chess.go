package domain

import "time"

// Direction names the conversion path of a Conversion record.
type Direction string

const (
	DirectionPGNToASCN Direction = "pgn_to_ascn"
	DirectionASCNToPGN Direction = "ascn_to_pgn"
)

type Conversion struct {
	ID          string
	Direction   Direction
	InputSHA256 string
	Plies       int
	Result      Outcome
	Movetext    string
	Output      []byte
	CreatedAt   time.Time
	Duration    time.Duration
}
