package ascn

import (
	"bytes"
	"errors"
	"testing"

	"github.com/park285/ascn-convert/internal/domain"
	"github.com/park285/ascn-convert/internal/rules"
)

func game(t *testing.T, eng rules.Engine, outcome domain.Outcome, tokens ...string) *domain.Stream {
	t.Helper()
	s := &domain.Stream{Outcome: outcome}
	b := eng.Start()
	for _, tok := range tokens {
		m, err := eng.Resolve(tok, b)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tok, err)
		}
		next, err := eng.Apply(b, m)
		if err != nil {
			t.Fatalf("Apply(%s): %v", m, err)
		}
		s.Records = append(s.Records, domain.Record{Move: m, Before: b})
		b = next
	}
	return s
}

func TestPackMove(t *testing.T) {
	m := domain.Move{From: domain.ParseSquare("b7"), To: domain.ParseSquare("a8"), Promotion: domain.Knight}
	w := packMove(m)
	if w&terminator != 0 {
		t.Fatalf("move word %#04x has the terminator bit", w)
	}
	if w != uint16(49)|uint16(56)<<6|1<<12 {
		t.Fatalf("packMove = %#04x", w)
	}
	back, ok := unpackMove(w)
	if !ok || back != m {
		t.Fatalf("unpackMove = %s %v, want %s", back, ok, m)
	}
	if _, ok := unpackMove(5 << promoShift); ok {
		t.Fatalf("promotion code 5 should be rejected")
	}
}

func TestRoundTrip(t *testing.T) {
	eng := rules.NewChessEngine()
	cases := []*domain.Stream{
		game(t, eng, domain.Unknown),
		game(t, eng, domain.Draw, "e4"),
		game(t, eng, domain.WhiteWins, "e4", "e5", "Bc4", "Nc6", "Qh5", "Nf6", "Qxf7#"),
		game(t, eng, domain.BlackWins, "e4", "d5", "exd5", "Qxd5", "Nc3", "Qa5", "d4", "c6", "Nf3", "Bg4", "Bf4", "e6", "h3", "Bxf3", "Qxf3", "Bb4", "Be2", "Nd7", "a3", "O-O-O"),
	}
	for i, s := range cases {
		data := Encode(s)
		got, err := Decode(eng, data)
		if err != nil {
			t.Fatalf("case %d: Decode: %v", i, err)
		}
		if got.Outcome != s.Outcome {
			t.Fatalf("case %d: outcome %s, want %s", i, got.Outcome, s.Outcome)
		}
		want, have := s.Moves(), got.Moves()
		if len(have) != len(want) {
			t.Fatalf("case %d: %d moves, want %d", i, len(have), len(want))
		}
		for j := range want {
			if have[j] != want[j] {
				t.Fatalf("case %d ply %d: %s, want %s", i, j+1, have[j], want[j])
			}
			if got.Records[j].Before.FEN() != s.Records[j].Before.FEN() {
				t.Fatalf("case %d ply %d: before-board differs", i, j+1)
			}
		}
		if !bytes.Equal(Encode(got), data) {
			t.Fatalf("case %d: re-encoding differs", i)
		}
	}
}

func TestPromotionRoundTrip(t *testing.T) {
	eng := rules.NewChessEngine()
	s := game(t, eng, domain.WhiteWins,
		"a4", "h5", "a5", "h4", "a6", "h3", "axb7", "hxg2", "bxa8=R", "gxh1=N")
	data := Encode(s)
	got, err := Decode(eng, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	moves := got.Moves()
	if moves[8].Promotion != domain.Rook || moves[9].Promotion != domain.Knight {
		t.Fatalf("promotions = %v %v", moves[8].Promotion, moves[9].Promotion)
	}
}

func TestMissingTerminatorIsUnknown(t *testing.T) {
	eng := rules.NewChessEngine()
	s := game(t, eng, domain.Draw, "d4", "d5")
	w := NewWriter()
	for _, rec := range s.Records {
		w.AddMove(rec.Move, rec.Before)
	}
	raw := w.Bytes(nil)
	if len(raw) != headerLen+2*wordLen {
		t.Fatalf("encoded %d bytes, want %d", len(raw), headerLen+2*wordLen)
	}
	got, err := Decode(eng, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Len() != 2 || got.Outcome != domain.Unknown {
		t.Fatalf("got %d plies outcome %s, want 2 and *", got.Len(), got.Outcome)
	}
}

func TestReaderStepwise(t *testing.T) {
	eng := rules.NewChessEngine()
	data := Encode(game(t, eng, domain.Draw, "Nf3", "Nf6"))
	r, err := NewReader(eng, data)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	n := 0
	for {
		before := r.Board()
		m, after, ok := r.Next()
		if !ok {
			break
		}
		n++
		if after == nil || after.FEN() == before.FEN() {
			t.Fatalf("move %s did not advance the board", m)
		}
	}
	if r.Err() != nil || n != 2 || r.Outcome() != domain.Draw {
		t.Fatalf("n=%d outcome=%s err=%v", n, r.Outcome(), r.Err())
	}
	if _, _, ok := r.Next(); ok {
		t.Fatalf("Next after terminator should stay false")
	}
}

func TestMalformed(t *testing.T) {
	eng := rules.NewChessEngine()
	valid := Encode(game(t, eng, domain.WhiteWins, "e4"))
	e2e5 := packMove(domain.Move{From: domain.ParseSquare("e2"), To: domain.ParseSquare("e5")})
	illegal := append([]byte(magic+"\x01"), byte(e2e5>>8), byte(e2e5))

	cases := map[string][]byte{
		"empty":          nil,
		"bad magic":      []byte("ASCX\x01"),
		"bad version":    []byte("ASCN\x02"),
		"odd length":     append(append([]byte{}, valid[:len(valid)-2]...), 0x80),
		"trailing bytes": append(append([]byte{}, valid...), 0x00, 0x00),
		"reserved bits":  append(append([]byte{}, valid[:len(valid)-2]...), 0x80, 0x04),
		"bad promotion":  append([]byte(magic+"\x01"), 0x50, 0x00),
		"illegal move":   illegal,
	}
	for name, data := range cases {
		if _, err := Decode(eng, data); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: err = %v, want ErrMalformed", name, err)
		}
	}
}
