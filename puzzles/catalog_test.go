package puzzles

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notnil/chess"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	if c.Len() != 10 {
		t.Fatalf("Len = %d, want 10", c.Len())
	}

	var ids []int
	for _, p := range c.List(Beginner) {
		ids = append(ids, p.ID)
	}
	if diff := cmp.Diff([]int{1, 2, 5, 6, 8}, ids); diff != "" {
		t.Errorf("beginner ids (-want +got):\n%s", diff)
	}
	if got := len(c.List("")); got != 10 {
		t.Errorf("List(\"\") = %d puzzles", got)
	}
	if got := len(c.List(Advanced)); got != 0 {
		t.Errorf("List(advanced) = %d puzzles", got)
	}

	p, err := c.Get(6)
	if err != nil {
		t.Fatal(err)
	}
	if p.Color() != chess.Black || len(p.Solution) != 0 {
		t.Errorf("puzzle 6 = %+v", p)
	}
	if _, err := c.Get(42); !errors.Is(err, ErrUnknownPuzzle) {
		t.Errorf("Get(42) err = %v", err)
	}
}

// Every catalog line must be playable end to end through the verifier.
func TestCatalogLinesSolve(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range c.List("") {
		v, err := NewVerifier(p)
		if err != nil {
			t.Fatalf("puzzle %d: %v", p.ID, err)
		}
		for !v.Solved() {
			m := move(t, v.Position(), v.Hint())
			res, err := v.Submit(m)
			if err != nil {
				t.Fatalf("puzzle %d: %v", p.ID, err)
			}
			if res.Outcome == Rejected {
				t.Fatalf("puzzle %d: hint %q rejected: %v", p.ID, v.Hint(), res.Reason)
			}
		}
	}
}

func TestLoadCatalogRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "duplicate id",
			yaml: `
- {id: 1, fen: "4k3/8/8/8/8/8/8/4K3 w - - 0 1", player_color: white, level: beginner}
- {id: 1, fen: "4k3/8/8/8/8/8/8/4K3 w - - 0 1", player_color: white, level: beginner}`,
		},
		{
			name: "bad level",
			yaml: `- {id: 1, fen: "4k3/8/8/8/8/8/8/4K3 w - - 0 1", player_color: white, level: expert}`,
		},
		{
			name: "wrong side",
			yaml: `- {id: 1, fen: "4k3/8/8/8/8/8/8/4K3 w - - 0 1", player_color: black, level: beginner}`,
		},
		{
			name: "unplayable line",
			yaml: `- {id: 1, fen: "4k3/8/8/8/8/8/8/4K3 w - - 0 1", solution: [Qh5], player_color: white, level: beginner}`,
		},
		{
			name: "bad fen",
			yaml: `- {id: 1, fen: "nonsense", player_color: white, level: beginner}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadCatalog([]byte(tt.yaml)); err == nil {
				t.Fatal("LoadCatalog accepted invalid data")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"": "", "Beginner": Beginner, " advanced ": Advanced} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("master"); err == nil {
		t.Error("ParseLevel accepted master")
	}
}
