package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"chessplatform/bots"
	"chessplatform/rules"
	"chessplatform/storage"
)

// MoveInput is a move as sent by a client: either notation text in Move or
// a from/to pair with an optional promotion letter.
type MoveInput struct {
	Move      string `json:"move,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
}

func (in MoveInput) resolve(pos *chess.Position) (*chess.Move, error) {
	if strings.TrimSpace(in.Move) != "" {
		return rules.ParseMove(pos, in.Move)
	}
	if in.From == "" || in.To == "" {
		return nil, fmt.Errorf("%w: move or from/to required", ErrInvalidInput)
	}
	m, err := rules.FindMove(pos, in.From, in.To, in.Promotion)
	if errors.Is(err, rules.ErrBadSquare) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return m, err
}

// GameState is the client view of a live or daily game.
type GameState struct {
	ID          string   `json:"id"`
	Opponent    string   `json:"opponent"`
	Difficulty  string   `json:"difficulty"`
	PlayerColor string   `json:"playerColor"`
	FEN         string   `json:"fen"`
	Turn        string   `json:"turn"`
	Moves       []string `json:"moves"`
	Check       bool     `json:"check"`
	Over        bool     `json:"over"`
	Status      string   `json:"status"`
	Result      string   `json:"result,omitempty"`
}

// MoveResult is returned after a player move. Reply is empty when the game
// ended on the player's move.
type MoveResult struct {
	Move  string    `json:"move"`
	Reply string    `json:"reply,omitempty"`
	State GameState `json:"state"`
}

// match is a game against the computer.
type match struct {
	game       *chess.Game
	player     chess.Color
	difficulty bots.Difficulty
	san        []string
}

func (mt *match) status() rules.Status { return rules.Inspect(mt.game) }

func (mt *match) playerToMove() bool { return mt.game.Position().Turn() == mt.player }

// play applies a legal move and returns its SAN.
func (mt *match) play(m *chess.Move) (string, error) {
	pos := mt.game.Position()
	legal, err := rules.Canonical(pos, m)
	if err != nil {
		return "", err
	}
	san := rules.ShortNotation(pos, legal)
	if err := mt.game.Move(legal); err != nil {
		return "", fmt.Errorf("%w: %v", rules.ErrIllegalMove, err)
	}
	rules.Settle(mt.game)
	mt.san = append(mt.san, san)
	return san, nil
}

// playerMove checks turn and game state, then plays the player's move.
func (mt *match) playerMove(in MoveInput) (string, error) {
	if mt.status().Over() {
		return "", ErrGameOver
	}
	if !mt.playerToMove() {
		return "", ErrNotYourTurn
	}
	m, err := in.resolve(mt.game.Position())
	if err != nil {
		return "", err
	}
	return mt.play(m)
}

// computerMove lets the bot answer. It is a no-op returning "" when the game
// is over.
func (mt *match) computerMove(rng bots.Rand) (string, error) {
	if mt.status().Over() {
		return "", nil
	}
	if mt.playerToMove() {
		return "", fmt.Errorf("%w: computer is not to move", ErrNotYourTurn)
	}
	m, err := bots.SelectMove(mt.game.Position(), mt.difficulty, rng)
	if err != nil {
		return "", err
	}
	return mt.play(m)
}

func (mt *match) state(id, opponent string) GameState {
	st := mt.status()
	pos := mt.game.Position()
	moves := make([]string, len(mt.san))
	copy(moves, mt.san)
	return GameState{
		ID:          id,
		Opponent:    opponent,
		Difficulty:  mt.difficulty.String(),
		PlayerColor: strings.ToLower(rules.ColorName(mt.player)),
		FEN:         rules.FEN(pos),
		Turn:        strings.ToLower(rules.ColorName(pos.Turn())),
		Moves:       moves,
		Check:       st.Check,
		Over:        st.Over(),
		Status:      st.Message(),
		Result:      resultLabel(st),
	}
}

// playerResult is the finished game from the player's side.
func playerResult(st rules.Status, player chess.Color) storage.Result {
	switch st.Winner() {
	case chess.NoColor:
		return storage.Draw
	case player:
		return storage.Win
	}
	return storage.Loss
}

func resultLabel(st rules.Status) string {
	if !st.Over() {
		return ""
	}
	switch st.Winner() {
	case chess.White:
		return "White wins"
	case chess.Black:
		return "Black wins"
	}
	return "Draw"
}
