// Package bots chooses moves for the computer side. Each difficulty tier is a
// ChessBot; SelectMove picks the bot for a tier and asks it for a move.
package bots

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

var (
	// ErrNoLegalMoves means a bot was asked to move in a terminal position.
	// Callers are expected to check for game end first, so this is a caller
	// bug rather than an ordinary outcome.
	ErrNoLegalMoves = errors.New("bots: no legal moves")
	// ErrUnknownDifficulty is returned for a tier outside easy/medium/hard.
	ErrUnknownDifficulty = errors.New("bots: unknown difficulty")
)

// Rand is the random source consumed by the easy and medium tiers.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// ChessBot is implemented by every tier.
type ChessBot interface {
	BestMove(pos *chess.Position) (*chess.Move, error)
	Name() string
}

// PositionEvaluator scores a position; positive favours White.
type PositionEvaluator interface {
	Evaluate(pos *chess.Position) int
}

// Difficulty is the strength tier of the computer opponent.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return fmt.Sprintf("Difficulty(%d)", int(d))
}

// ParseDifficulty accepts "easy", "medium" or "hard" in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

func (d Difficulty) MarshalText() ([]byte, error) {
	if d < Easy || d > Hard {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDifficulty, int(d))
	}
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	v, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ForDifficulty returns the bot playing at tier d.
func ForDifficulty(d Difficulty, rng Rand) (ChessBot, error) {
	switch d {
	case Easy:
		return NewRandomBot(rng), nil
	case Medium:
		return NewShortlistBot(rng, MaterialEvaluator{}), nil
	case Hard:
		return NewMinimaxBot(MaterialEvaluator{}), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownDifficulty, int(d))
}

// SelectMove picks a move for the side to move in pos at tier d.
func SelectMove(pos *chess.Position, d Difficulty, rng Rand) (*chess.Move, error) {
	bot, err := ForDifficulty(d, rng)
	if err != nil {
		return nil, err
	}
	return bot.BestMove(pos)
}

func legalMoves(pos *chess.Position) ([]*chess.Move, error) {
	if pos == nil {
		return nil, ErrNoLegalMoves
	}
	moves := pos.ValidMoves()
	if len(moves) == 0 {
		return nil, ErrNoLegalMoves
	}
	return moves, nil
}
