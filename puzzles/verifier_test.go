package puzzles

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notnil/chess"

	"chessplatform/rules"
)

const (
	mateInOneFEN = "r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 0 1"
	forkFEN      = "r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/3P1N2/PPP2PPP/RNBQK2R w KQkq - 0 1"
	matedFEN     = "r1bqkb1r/pppp1Qpp/2n2n2/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 1"
)

func newVerifier(t *testing.T, fen string, line ...string) *Verifier {
	t.Helper()
	v, err := NewVerifier(Puzzle{FEN: fen, Solution: line})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func move(t *testing.T, pos *chess.Position, text string) *chess.Move {
	t.Helper()
	m, err := rules.ParseMove(pos, text)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", text, err)
	}
	return m
}

func TestSubmitSolvesSingleMoveLine(t *testing.T) {
	v := newVerifier(t, mateInOneFEN, "Qxf7")
	res, err := v.Submit(move(t, v.Position(), "h5f7"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Outcome != Solved || res.Cursor != 1 {
		t.Fatalf("result = %v cursor %d, want solved at 1", res.Outcome, res.Cursor)
	}
	if res.PlayerSAN != "Qxf7#" {
		t.Errorf("PlayerSAN = %q", res.PlayerSAN)
	}
	if res.Reply != nil {
		t.Errorf("unexpected reply %s", res.Reply)
	}
	if !v.Solved() || v.Hint() != "" {
		t.Errorf("Solved = %v, Hint = %q", v.Solved(), v.Hint())
	}
}

func TestSubmitPlaysScriptedReply(t *testing.T) {
	v := newVerifier(t, forkFEN, "Bxf7", "Kxf7", "Ng5")

	res, err := v.Submit(move(t, v.Position(), "Bxf7+"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got := []any{res.Outcome, res.Cursor, res.ReplySAN, rules.LongNotation(res.Reply)}
	want := []any{AdvancedAwaitingReply, 2, "Kxf7", "e8f7"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("first submission (-want +got):\n%s", diff)
	}
	if v.Hint() != "Ng5" {
		t.Errorf("Hint = %q, want Ng5", v.Hint())
	}
	if rules.SideToMove(v.Position()) != chess.White {
		t.Errorf("player is not to move after the reply")
	}

	res, err = v.Submit(move(t, v.Position(), "Ng5"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Outcome != Solved || res.Cursor != 3 {
		t.Fatalf("result = %v cursor %d, want solved at 3", res.Outcome, res.Cursor)
	}
}

func TestSubmitPromotionAgainstBareSquare(t *testing.T) {
	const fen = "8/4P2k/8/8/8/8/8/K7 w - - 0 1"
	v := newVerifier(t, fen, "e8", "Kh6", "Qe3+")

	res, err := v.Submit(move(t, v.Position(), "e7e8q"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got := []any{res.Outcome, res.PlayerSAN, res.ReplySAN, res.Cursor}
	want := []any{AdvancedAwaitingReply, "e8=Q", "Kh6", 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("promotion (-want +got):\n%s", diff)
	}

	res, err = v.Submit(move(t, v.Position(), "e8e3"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Outcome != Solved || res.PlayerSAN != "Qe3+" {
		t.Errorf("result = %v %q, want solved with Qe3+", res.Outcome, res.PlayerSAN)
	}
}

func TestSubmitRejectionsKeepState(t *testing.T) {
	v := newVerifier(t, forkFEN, "Bxf7", "Kxf7", "Ng5")
	before := rules.FEN(v.Position())
	start, _ := rules.ParseFEN(rules.StartFEN)

	tests := []struct {
		name   string
		move   *chess.Move
		reason error
	}{
		{name: "off script", move: move(t, v.Position(), "a2a3"), reason: ErrWrongMove},
		{name: "illegal", move: move(t, start, "e2e4"), reason: ErrIllegalMove},
		{name: "nil", move: nil, reason: ErrIllegalMove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Submit(tt.move)
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if res.Outcome != Rejected || !errors.Is(res.Reason, tt.reason) {
				t.Fatalf("result = %v (%v), want rejected with %v", res.Outcome, res.Reason, tt.reason)
			}
			if v.Cursor() != 0 || rules.FEN(v.Position()) != before {
				t.Errorf("state changed: cursor %d, %s", v.Cursor(), rules.FEN(v.Position()))
			}
		})
	}
}

func TestReset(t *testing.T) {
	v := newVerifier(t, forkFEN, "Bxf7", "Kxf7", "Ng5")
	if _, err := v.Submit(move(t, v.Position(), "Bxf7")); err != nil {
		t.Fatal(err)
	}
	v.Reset()
	if v.Cursor() != 0 || rules.FEN(v.Position()) != forkFEN {
		t.Fatalf("after Reset: cursor %d, %s", v.Cursor(), rules.FEN(v.Position()))
	}
	if v.Hint() != "Bxf7" {
		t.Errorf("Hint = %q", v.Hint())
	}
}

func TestEmptyLineIsSolvedOnLoad(t *testing.T) {
	v := newVerifier(t, matedFEN)
	if !v.Solved() {
		t.Fatal("empty line not solved")
	}
	res, err := v.Submit(move(t, mustPos(t, rules.StartFEN), "e2e4"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Rejected || !errors.Is(res.Reason, ErrWrongMove) {
		t.Errorf("result = %v (%v), want rejected wrong move", res.Outcome, res.Reason)
	}
}

func TestSubmitBadScript(t *testing.T) {
	// Nothing can follow mate, so the scripted reply cannot decode.
	v := newVerifier(t, mateInOneFEN, "Qxf7", "Ke7")
	res, err := v.Submit(move(t, v.Position(), "Qxf7"))
	if !errors.Is(err, ErrBadScript) {
		t.Fatalf("err = %v, want ErrBadScript", err)
	}
	if res.Outcome != Rejected || v.Cursor() != 0 || rules.FEN(v.Position()) != mateInOneFEN {
		t.Errorf("state committed after a bad script: %v cursor %d", res.Outcome, v.Cursor())
	}
}

func mustPos(t *testing.T, fen string) *chess.Position {
	t.Helper()
	pos, err := rules.ParseFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}
