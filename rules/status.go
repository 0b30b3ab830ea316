package rules

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// Status summarises the terminal conditions of a game.
type Status struct {
	Outcome chess.Outcome
	Method  chess.Method
	Check   bool
}

// Inspect reports the state of g. Repetition needs the move history, which is
// why it works on a game rather than a position.
func Inspect(g *chess.Game) Status {
	st := Status{Outcome: g.Outcome(), Method: g.Method()}
	if moves := g.Moves(); len(moves) > 0 {
		st.Check = moves[len(moves)-1].HasTag(chess.Check)
	}
	return st
}

// Settle claims a threefold-repetition or fifty-move draw as soon as one is
// available, so games end on those conditions without an explicit claim.
func Settle(g *chess.Game) {
	if g.Outcome() != chess.NoOutcome {
		return
	}
	for _, m := range g.EligibleDraws() {
		if m == chess.ThreefoldRepetition || m == chess.FiftyMoveRule {
			_ = g.Draw(m)
			return
		}
	}
}

func (s Status) Over() bool { return s.Outcome != chess.NoOutcome }

func (s Status) Checkmate() bool { return s.Method == chess.Checkmate }

func (s Status) Stalemate() bool { return s.Method == chess.Stalemate }

// Draw reports any drawn result (stalemate included).
func (s Status) Draw() bool { return s.Outcome == chess.Draw }

// Winner returns the winning colour, or chess.NoColor.
func (s Status) Winner() chess.Color {
	switch s.Outcome {
	case chess.WhiteWon:
		return chess.White
	case chess.BlackWon:
		return chess.Black
	}
	return chess.NoColor
}

// Message is the human readable status line.
func (s Status) Message() string {
	switch s.Method {
	case chess.Checkmate:
		return fmt.Sprintf("Checkmate! %s wins!", ColorName(s.Winner()))
	case chess.Resignation:
		return fmt.Sprintf("%s wins by resignation", ColorName(s.Winner()))
	case chess.Stalemate:
		return "Stalemate!"
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		return "Draw by repetition!"
	case chess.InsufficientMaterial:
		return "Draw by insufficient material!"
	case chess.FiftyMoveRule, chess.SeventyFiveMoveRule:
		return "Draw by the move rule!"
	}
	if s.Draw() {
		return "Game drawn!"
	}
	if s.Check {
		return "Check!"
	}
	return ""
}

// Replay builds a game from the standard start and a list of long-notation
// moves.
func Replay(moves []string) (*chess.Game, error) {
	g := chess.NewGame()
	for i, text := range moves {
		m, err := ParseMove(g.Position(), text)
		if err != nil {
			return nil, fmt.Errorf("replay move %d %q: %w", i+1, text, err)
		}
		if err := g.Move(m); err != nil {
			return nil, fmt.Errorf("replay move %d %q: %w", i+1, text, err)
		}
		Settle(g)
	}
	return g, nil
}

// ColorName returns "White", "Black" or "" for chess.NoColor.
func ColorName(c chess.Color) string {
	switch c {
	case chess.White:
		return "White"
	case chess.Black:
		return "Black"
	}
	return ""
}

// ParseColor accepts "white"/"w" and "black"/"b".
func ParseColor(s string) (chess.Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return chess.White, nil
	case "black", "b":
		return chess.Black, nil
	}
	return chess.NoColor, fmt.Errorf("invalid colour %q", s)
}
