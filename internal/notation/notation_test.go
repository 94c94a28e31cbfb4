package notation

import (
	"errors"
	"strings"
	"testing"

	"github.com/park285/ascn-convert/internal/domain"
	"github.com/park285/ascn-convert/internal/rules"
)

// stream resolves SAN tokens from the start position.
func stream(t *testing.T, eng rules.Engine, outcome domain.Outcome, sans ...string) *domain.Stream {
	t.Helper()
	s := &domain.Stream{Outcome: outcome}
	b := eng.Start()
	for _, san := range sans {
		m, err := eng.Resolve(san, b)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", san, err)
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

func lastToken(t *testing.T, eng rules.Engine, sans ...string) string {
	t.Helper()
	s := stream(t, eng, domain.Unknown, sans...)
	rec := s.Records[len(s.Records)-1]
	tok, err := Token(eng, rec.Move, rec.Before)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	return tok
}

func TestTokens(t *testing.T) {
	eng := rules.NewChessEngine()
	cases := []struct {
		name string
		sans []string
		want string
	}{
		{"pawn push", []string{"e4"}, "Pe2e4"},
		{"knight", []string{"Nf3"}, "Ng1f3"},
		{"capture", []string{"e4", "d5", "exd5"}, "Pe4xd5"},
		{"check", []string{"e4", "f5", "Qh5+"}, "Qd1h5+"},
		{"mate", []string{"e4", "e5", "Bc4", "Nc6", "Qh5", "Nf6", "Qxf7#"}, "Qh5xf7#"},
		{"castle", []string{"e4", "e5", "Nf3", "Nc6", "Bc4", "Bc5", "O-O"}, "Ke1g1"},
		{"en passant has no capture mark", []string{"e4", "a6", "e5", "d5", "exd6"}, "Pe5d6"},
	}
	for _, tc := range cases {
		if got := lastToken(t, eng, tc.sans...); got != tc.want {
			t.Fatalf("%s: token = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestPromotionToken(t *testing.T) {
	eng := rules.NewChessEngine()
	b, err := rules.FromFEN("7k/P7/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	m := domain.Move{From: domain.ParseSquare("a7"), To: domain.ParseSquare("a8"), Promotion: domain.Queen}
	tok, err := Token(eng, m, b)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "Pa7a8=Q+" {
		t.Fatalf("token = %q, want Pa7a8=Q+", tok)
	}

	under := domain.Move{From: m.From, To: m.To, Promotion: domain.Knight}
	if tok, _ := Token(eng, under, b); tok != "Pa7a8=N" {
		t.Fatalf("under-promotion token = %q, want Pa7a8=N", tok)
	}
}

func TestTokenErrors(t *testing.T) {
	eng := rules.NewChessEngine()
	empty := domain.Move{From: domain.ParseSquare("e4"), To: domain.ParseSquare("e5")}
	if _, err := Token(eng, empty, eng.Start()); !errors.Is(err, ErrNoPiece) {
		t.Fatalf("err = %v, want ErrNoPiece", err)
	}
	illegal := domain.Move{From: domain.ParseSquare("e2"), To: domain.ParseSquare("e5")}
	if _, err := Token(eng, illegal, eng.Start()); !errors.Is(err, rules.ErrIllegalMove) {
		t.Fatalf("err = %v, want ErrIllegalMove", err)
	}
}

func TestTokensResolveBack(t *testing.T) {
	eng := rules.NewChessEngine()
	s := stream(t, eng, domain.Unknown, "e4", "e5", "Nf3", "Nc6", "Bb5", "a6", "Bxc6", "dxc6", "O-O")
	for i, rec := range s.Records {
		tok, err := Token(eng, rec.Move, rec.Before)
		if err != nil {
			t.Fatalf("ply %d: %v", i+1, err)
		}
		back, err := eng.Resolve(tok, rec.Before)
		if err != nil {
			t.Fatalf("ply %d: Resolve(%q): %v", i+1, tok, err)
		}
		if back != rec.Move {
			t.Fatalf("ply %d: %q resolved to %s, want %s", i+1, tok, back, rec.Move)
		}
	}
}

func TestMovetextNumbering(t *testing.T) {
	eng := rules.NewChessEngine()
	s := stream(t, eng, domain.WhiteWins, "e4", "e5", "Nf3")
	text, err := Movetext(eng, s)
	if err != nil {
		t.Fatalf("Movetext: %v", err)
	}
	if text != "1. Pe2e4 Pe7e5 2. Ng1f3 " {
		t.Fatalf("movetext = %q", text)
	}
	if got := strings.Count(text, ". "); got != 2 {
		t.Fatalf("labels = %d, want ceil(3/2) = 2", got)
	}
}

func TestAssemble(t *testing.T) {
	eng := rules.NewChessEngine()
	cases := []struct {
		name string
		s    *domain.Stream
		want string
	}{
		{"one move draw", stream(t, eng, domain.Draw, "e4"), "[Result \"1/2-1/2\"]\n\n1. Pe2e4 1/2-1/2"},
		{"empty unknown", &domain.Stream{}, "[Result \"*\"]\n\n*"},
		{"black wins", stream(t, eng, domain.BlackWins, "f3", "e5", "g4", "Qh4#"), "[Result \"0-1\"]\n\n1. Pf2f3 Pe7e5 2. Pg2g4 Qd8h4# 0-1"},
	}
	for _, tc := range cases {
		got, err := Assemble(eng, tc.s)
		if err != nil {
			t.Fatalf("%s: Assemble: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
