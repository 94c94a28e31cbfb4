package rules

import (
	"errors"
	"testing"

	"github.com/park285/ascn-convert/internal/domain"
)

func sq(name string) domain.Square { return domain.ParseSquare(name) }

func play(t *testing.T, eng Engine, tokens ...string) domain.Board {
	t.Helper()
	b := eng.Start()
	for _, tok := range tokens {
		m, err := eng.Resolve(tok, b)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tok, err)
		}
		b, err = eng.Apply(b, m)
		if err != nil {
			t.Fatalf("Apply(%s): %v", m, err)
		}
	}
	return b
}

func TestResolveForms(t *testing.T) {
	eng := NewChessEngine()
	start := eng.Start()
	want := domain.Move{From: sq("g1"), To: sq("f3")}
	for _, tok := range []string{"Nf3", "Ng1f3", "g1f3", "g1-f3", "Nf3!?"} {
		m, err := eng.Resolve(tok, start)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tok, err)
		}
		if m != want {
			t.Fatalf("Resolve(%q) = %s, want %s", tok, m, want)
		}
	}
}

func TestResolveRejects(t *testing.T) {
	eng := NewChessEngine()
	start := eng.Start()
	for _, tok := range []string{"", "Nf4", "Pe2e5", "Qe2e4", "e5", "xyz", "h1h3", "e2d3", "a2a5", "e1e2", "c7c5", "f1c4", "e2e4k"} {
		if _, err := eng.Resolve(tok, start); !errors.Is(err, ErrUnresolved) {
			t.Fatalf("Resolve(%q) err = %v, want ErrUnresolved", tok, err)
		}
	}
}

func TestResolveCoordinatePromotion(t *testing.T) {
	eng := NewChessEngine()
	b, err := FromFEN("4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	want := domain.Move{From: sq("a7"), To: sq("a8"), Promotion: domain.Queen}
	for _, tok := range []string{"a7a8q", "a7a8=Q", "a8=Q+", "Pa7a8=Q"} {
		m, err := eng.Resolve(tok, b)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tok, err)
		}
		if m != want {
			t.Fatalf("Resolve(%q) = %s, want %s", tok, m, want)
		}
	}
	if _, err := eng.Resolve("a7a8", b); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("bare a7a8 err = %v, want ErrUnresolved", err)
	}
}

func TestResolveCastling(t *testing.T) {
	eng := NewChessEngine()
	b := play(t, eng, "e4", "e5", "Nf3", "Nc6", "Bc4", "Bc5")
	want := domain.Move{From: sq("e1"), To: sq("g1")}
	for _, tok := range []string{"O-O", "0-0", "Ke1g1"} {
		m, err := eng.Resolve(tok, b)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tok, err)
		}
		if m != want {
			t.Fatalf("Resolve(%q) = %s, want %s", tok, m, want)
		}
	}
	after, err := eng.Apply(b, want)
	if err != nil {
		t.Fatalf("Apply castle: %v", err)
	}
	if kind, _, ok := eng.PieceAt(after, sq("f1")); !ok || kind != domain.Rook {
		t.Fatalf("rook should land on f1, got %v %v", kind, ok)
	}
}

func TestApplyIllegal(t *testing.T) {
	eng := NewChessEngine()
	_, err := eng.Apply(eng.Start(), domain.Move{From: sq("e2"), To: sq("e5")})
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("err = %v, want ErrIllegalMove", err)
	}
	_, err = eng.Apply(eng.Start(), domain.Move{From: sq("e2"), To: sq("e2")})
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("null move err = %v, want ErrIllegalMove", err)
	}
}

type foreignBoard struct{}

func (foreignBoard) FEN() string { return "" }

func TestForeignBoard(t *testing.T) {
	eng := NewChessEngine()
	if _, err := eng.Apply(foreignBoard{}, domain.Move{From: sq("e2"), To: sq("e4")}); !errors.Is(err, ErrForeignBoard) {
		t.Fatalf("err = %v, want ErrForeignBoard", err)
	}
	if _, _, ok := eng.PieceAt(foreignBoard{}, sq("e2")); ok {
		t.Fatalf("PieceAt on a foreign board should report empty")
	}
}

func TestSideToMoveAndPieces(t *testing.T) {
	eng := NewChessEngine()
	b := eng.Start()
	if eng.SideToMove(b) != domain.White {
		t.Fatalf("white moves first")
	}
	if kind, color, ok := eng.PieceAt(b, sq("d8")); !ok || kind != domain.Queen || color != domain.Black {
		t.Fatalf("d8 = %v %v %v, want black queen", kind, color, ok)
	}
	if _, _, ok := eng.PieceAt(b, sq("e4")); ok {
		t.Fatalf("e4 should be empty")
	}
	b = play(t, eng, "e4")
	if eng.SideToMove(b) != domain.Black {
		t.Fatalf("black moves second")
	}
}

func TestCheckersAndMate(t *testing.T) {
	eng := NewChessEngine()
	b := play(t, eng, "e4", "f5", "Qh5+")
	checkers := eng.Checkers(b)
	if len(checkers) != 1 || checkers[0] != sq("h5") {
		t.Fatalf("Checkers = %v, want [h5]", checkers)
	}
	if eng.IsCheckmate(b) {
		t.Fatalf("g6 still blocks, not mate")
	}

	mate := play(t, eng, "e4", "e5", "Bc4", "Nc6", "Qh5", "Nf6", "Qxf7#")
	if !eng.IsCheckmate(mate) {
		t.Fatalf("scholar's mate not detected")
	}
	if got := eng.Checkers(mate); len(got) != 1 || got[0] != sq("f7") {
		t.Fatalf("Checkers = %v, want [f7]", got)
	}
	if got := eng.Checkers(eng.Start()); len(got) != 0 {
		t.Fatalf("start position has checkers %v", got)
	}
}

func TestCheckersFromFEN(t *testing.T) {
	// Knight on f6 and rook on e1 both hit the king on e8.
	b, err := FromFEN("4k3/8/5N2/8/8/8/8/4RK2 b - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	got := NewChessEngine().Checkers(b)
	if len(got) != 2 {
		t.Fatalf("Checkers = %v, want knight and rook", got)
	}
	seen := map[domain.Square]bool{}
	for _, s := range got {
		seen[s] = true
	}
	if !seen[sq("f6")] || !seen[sq("e1")] {
		t.Fatalf("Checkers = %v, want f6 and e1", got)
	}
}
