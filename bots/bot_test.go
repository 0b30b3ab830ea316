package bots

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notnil/chess"

	"chessplatform/rules"
)

type fixedRand int

func (r fixedRand) Intn(n int) int { return int(r) % n }

func position(t *testing.T, fen string) *chess.Position {
	t.Helper()
	pos, err := rules.ParseFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

var samplePositions = []string{
	rules.StartFEN,
	"r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 0 1",
	"r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/3P1N2/PPP2PPP/RNBQK2R b KQkq - 0 1",
	"8/P6k/8/8/8/8/8/K7 w - - 0 1",
	"4k3/8/8/3q4/4P3/8/8/4K3 b - - 0 1",
	"7k/8/8/8/8/8/8/K6R b - - 0 1",
}

func contains(moves []*chess.Move, m *chess.Move) bool {
	for _, legal := range moves {
		if rules.SameMove(legal, m) {
			return true
		}
	}
	return false
}

func TestSelectMoveReturnsLegalMove(t *testing.T) {
	for _, fen := range samplePositions {
		pos := position(t, fen)
		legal := rules.LegalMoves(pos)
		for _, d := range []Difficulty{Easy, Medium, Hard} {
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 20; i++ {
				m, err := SelectMove(pos, d, rng)
				if err != nil {
					t.Fatalf("%s %v: %v", fen, d, err)
				}
				if !contains(legal, m) {
					t.Fatalf("%s %v: %s is not legal", fen, d, m)
				}
			}
		}
	}
}

func TestSelectMoveNoLegalMoves(t *testing.T) {
	terminal := map[string]string{
		"checkmate": "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3",
		"stalemate": "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1",
	}
	for name, fen := range terminal {
		t.Run(name, func(t *testing.T) {
			pos := position(t, fen)
			for _, d := range []Difficulty{Easy, Medium, Hard} {
				m, err := SelectMove(pos, d, fixedRand(0))
				if !errors.Is(err, ErrNoLegalMoves) {
					t.Errorf("%v: err = %v, want ErrNoLegalMoves", d, err)
				}
				if m != nil {
					t.Errorf("%v: returned move %s", d, m)
				}
			}
		})
	}
}

func TestSelectMoveUnknownDifficulty(t *testing.T) {
	_, err := SelectMove(position(t, rules.StartFEN), Difficulty(9), fixedRand(0))
	if !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("err = %v, want ErrUnknownDifficulty", err)
	}
}

func TestShortlistSize(t *testing.T) {
	got := map[int]int{}
	for _, n := range []int{1, 2, 3, 4, 10, 11, 20, 30} {
		got[n] = ShortlistSize(n)
	}
	want := map[int]int{1: 1, 2: 2, 3: 3, 4: 3, 10: 3, 11: 4, 20: 6, 30: 9}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ShortlistSize mismatch (-want +got):\n%s", diff)
	}
}

func TestMediumPicksFromShortlist(t *testing.T) {
	// Every opening move keeps material level, so the ranking is the
	// enumeration order and the shortlist is its first six moves.
	pos := position(t, rules.StartFEN)
	legal := rules.LegalMoves(pos)
	top := legal[:ShortlistSize(len(legal))]

	rng := rand.New(rand.NewSource(42))
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		m, err := SelectMove(pos, Medium, rng)
		if err != nil {
			t.Fatal(err)
		}
		if !contains(top, m) {
			t.Fatalf("medium chose %s outside the shortlist", m)
		}
		seen[m.String()] = true
	}
	if len(seen) < 2 {
		t.Errorf("medium never varied its choice: %v", seen)
	}
}

func TestMediumRanksFromMoverPerspective(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want string
	}{
		{name: "white takes queen", fen: "4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1", want: "e4d5"},
		{name: "black takes queen", fen: "4k3/8/8/3p4/4Q3/8/8/4K3 b - - 0 1", want: "d5e4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := SelectMove(position(t, tt.fen), Medium, fixedRand(0))
			if err != nil {
				t.Fatal(err)
			}
			if got := rules.LongNotation(m); got != tt.want {
				t.Errorf("best shortlisted move = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHardIsDeterministic(t *testing.T) {
	for _, fen := range samplePositions {
		pos := position(t, fen)
		first, err := SelectMove(pos, Hard, rand.New(rand.NewSource(1)))
		if err != nil {
			t.Fatal(err)
		}
		second, err := SelectMove(pos, Hard, rand.New(rand.NewSource(99)))
		if err != nil {
			t.Fatal(err)
		}
		if !rules.SameMove(first, second) {
			t.Errorf("%s: %s then %s", fen, first, second)
		}
	}
}

func TestHardLooksAheadOneReply(t *testing.T) {
	tests := []struct {
		name    string
		fen     string
		want    string
		notWant string
	}{
		{
			name: "black wins a free pawn",
			fen:  "4k3/8/8/3q4/4P3/8/8/4K3 b - - 0 1",
			want: "d5e4",
		},
		{
			name:    "white keeps queen off a defended pawn",
			fen:     "4k3/8/2p5/3p4/8/8/8/3QK3 w - - 0 1",
			notWant: "d1d5",
		},
		{
			name:    "black keeps queen off a defended pawn",
			fen:     "3qk3/8/8/8/3P4/2P5/8/4K3 b - - 0 1",
			notWant: "d8d4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := SelectMove(position(t, tt.fen), Hard, nil)
			if err != nil {
				t.Fatal(err)
			}
			got := rules.LongNotation(m)
			if tt.want != "" && got != tt.want {
				t.Errorf("hard chose %s, want %s", got, tt.want)
			}
			if tt.notWant != "" && got == tt.notWant {
				t.Errorf("hard chose the losing %s", got)
			}
		})
	}
}

func TestParseDifficulty(t *testing.T) {
	for _, s := range []string{"easy", "Medium", " HARD "} {
		d, err := ParseDifficulty(s)
		if err != nil {
			t.Fatalf("ParseDifficulty(%q): %v", s, err)
		}
		if d.String() != strings.ToLower(strings.TrimSpace(s)) {
			t.Errorf("round trip %q -> %v", s, d)
		}
	}
	if _, err := ParseDifficulty("grandmaster"); !errors.Is(err, ErrUnknownDifficulty) {
		t.Errorf("err = %v, want ErrUnknownDifficulty", err)
	}
}
