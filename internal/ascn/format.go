// Package ascn reads and writes the compact binary game encoding.
//
// Layout (version 1):
//
//	"ASCN" magic, one version byte, then big-endian 16-bit words.
//	move word:       bits 0-5 from, bits 6-11 to, bits 12-14 promotion, bit 15 = 0
//	terminator word: bit 15 = 1, bits 0-1 outcome
//
// Promotion codes: 0 none, 1 N, 2 B, 3 R, 4 Q.
// Outcome codes: 0 unknown, 1 white wins, 2 black wins, 3 draw.
// A stream without a terminator decodes with an Unknown outcome.
package ascn

import (
	"errors"

	"github.com/park285/ascn-convert/internal/domain"
)

const (
	magic   = "ASCN"
	version = 1

	headerLen = len(magic) + 1
	wordLen   = 2

	fromMask     = 0x003F
	toShift      = 6
	toMask       = 0x0FC0
	promoShift   = 12
	promoMask    = 0x7000
	terminator   = 0x8000
	outcomeMask  = 0x0003
	reservedMask = 0x7FFC
)

var ErrMalformed = errors.New("malformed ascn data")

var promoCodes = map[domain.PieceKind]uint16{
	domain.NoPiece: 0,
	domain.Knight:  1,
	domain.Bishop:  2,
	domain.Rook:    3,
	domain.Queen:   4,
}

var promoKinds = [...]domain.PieceKind{domain.NoPiece, domain.Knight, domain.Bishop, domain.Rook, domain.Queen}

var outcomeCodes = map[domain.Outcome]uint16{
	domain.Unknown:   0,
	domain.WhiteWins: 1,
	domain.BlackWins: 2,
	domain.Draw:      3,
}

var outcomeValues = [...]domain.Outcome{domain.Unknown, domain.WhiteWins, domain.BlackWins, domain.Draw}

func packMove(m domain.Move) uint16 {
	return uint16(m.From)&fromMask |
		uint16(m.To)<<toShift&toMask |
		promoCodes[m.Promotion]<<promoShift&promoMask
}

func unpackMove(w uint16) (domain.Move, bool) {
	code := (w & promoMask) >> promoShift
	if int(code) >= len(promoKinds) {
		return domain.Move{}, false
	}
	return domain.Move{
		From:      domain.Square(w & fromMask),
		To:        domain.Square((w & toMask) >> toShift),
		Promotion: promoKinds[code],
	}, true
}
