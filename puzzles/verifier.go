package puzzles

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"

	"chessplatform/rules"
)

var (
	// ErrIllegalMove is the rules adapter's error; a submission the engine
	// refuses is rejected with it.
	ErrIllegalMove = rules.ErrIllegalMove
	// ErrWrongMove rejects a legal move that is not the scripted one.
	ErrWrongMove = errors.New("wrong move")
	// ErrBadScript reports puzzle data whose scripted reply cannot be played.
	ErrBadScript = errors.New("bad puzzle script")
)

type Outcome int

const (
	Rejected Outcome = iota
	AdvancedAwaitingReply
	Solved
)

func (o Outcome) String() string {
	switch o {
	case Rejected:
		return "rejected"
	case AdvancedAwaitingReply:
		return "advanced"
	case Solved:
		return "solved"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Result describes one submission. Reason is set only for Rejected; Reply and
// ReplySAN only when the script answered the player's move.
type Result struct {
	Outcome   Outcome
	Reason    error
	PlayerSAN string
	Reply     *chess.Move
	ReplySAN  string
	Cursor    int
	Position  *chess.Position
}

// Verifier walks a puzzle line. Even indices are the player's moves, odd
// indices are the scripted replies it plays back.
type Verifier struct {
	line   []string
	start  *chess.Position
	pos    *chess.Position
	cursor int
}

func NewVerifier(p Puzzle) (*Verifier, error) {
	start, err := rules.ParseFEN(p.FEN)
	if err != nil {
		return nil, err
	}
	line := make([]string, len(p.Solution))
	copy(line, p.Solution)
	return &Verifier{line: line, start: start, pos: start}, nil
}

func (v *Verifier) Position() *chess.Position { return v.pos }

func (v *Verifier) Cursor() int { return v.cursor }

func (v *Verifier) Len() int { return len(v.line) }

// Solved is true once the whole line has been played. A puzzle with an
// empty line is solved from the start.
func (v *Verifier) Solved() bool { return v.cursor >= len(v.line) }

// Hint is the next expected move, or "" when solved.
func (v *Verifier) Hint() string {
	if v.Solved() {
		return ""
	}
	return v.line[v.cursor]
}

func (v *Verifier) Reset() {
	v.pos = v.start
	v.cursor = 0
}

// Submit checks m against the line. Rejections leave the verifier untouched.
// The error return is reserved for a scripted reply that does not decode.
func (v *Verifier) Submit(m *chess.Move) (Result, error) {
	if v.Solved() {
		return v.reject(ErrWrongMove), nil
	}
	legal, err := rules.Canonical(v.pos, m)
	if err != nil {
		return v.reject(ErrIllegalMove), nil
	}
	san := rules.ShortNotation(v.pos, legal)
	if !rules.MatchesLabel(san, legal, v.line[v.cursor]) {
		return v.reject(ErrWrongMove), nil
	}

	next := v.pos.Update(legal)
	cursor := v.cursor + 1
	res := Result{PlayerSAN: san}

	if cursor < len(v.line) {
		reply, err := rules.ParseMove(next, v.line[cursor])
		if err != nil {
			return v.reject(ErrBadScript), fmt.Errorf("%w: reply %d %q: %v", ErrBadScript, cursor+1, v.line[cursor], err)
		}
		res.Reply = reply
		res.ReplySAN = rules.ShortNotation(next, reply)
		next = next.Update(reply)
		cursor++
	}

	v.pos, v.cursor = next, cursor
	res.Cursor, res.Position = cursor, next
	res.Outcome = AdvancedAwaitingReply
	if v.Solved() {
		res.Outcome = Solved
	}
	return res, nil
}

func (v *Verifier) reject(reason error) Result {
	return Result{Outcome: Rejected, Reason: reason, Cursor: v.cursor, Position: v.pos}
}

