package session

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/notnil/chess"
	"go.uber.org/zap"

	"chessplatform/bots"
	"chessplatform/rules"
	"chessplatform/storage"
)

type liveGame struct {
	mu       sync.Mutex
	id       string
	match    match
	rng      *rand.Rand
	recorded bool
}

// StartLive opens a game against the computer at difficulty d. When the
// player takes Black the computer's first move is already played.
func (m *Manager) StartLive(d bots.Difficulty, color chess.Color) (GameState, error) {
	return m.startLive(rules.StartFEN, d, color)
}

func (m *Manager) startLive(fen string, d bots.Difficulty, color chess.Color) (GameState, error) {
	if _, err := d.MarshalText(); err != nil {
		return GameState{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if color != chess.White && color != chess.Black {
		return GameState{}, fmt.Errorf("%w: player colour required", ErrInvalidInput)
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return GameState{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	g := &liveGame{
		id:    uuid.NewString(),
		match: match{game: chess.NewGame(opt), player: color, difficulty: d},
		rng:   m.sessionRand(),
	}
	if !g.match.playerToMove() {
		if _, err := g.match.computerMove(g.rng); err != nil {
			return GameState{}, err
		}
	}

	m.mu.Lock()
	m.live[g.id] = g
	m.mu.Unlock()

	m.logger.Info("live game started",
		zap.String("session_id", g.id),
		zap.Stringer("difficulty", d),
		zap.String("player", rules.ColorName(color)),
	)
	return g.state(), nil
}

func (g *liveGame) state() GameState {
	return g.match.state(g.id, "Computer ("+g.match.difficulty.String()+")")
}

// acquire looks up a live game and takes its lock. The caller must unlock.
func (m *Manager) acquire(id string) (*liveGame, error) {
	m.mu.Lock()
	g, ok := m.live[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: live game %s", ErrNotFound, id)
	}
	if !g.mu.TryLock() {
		return nil, ErrBusy
	}
	return g, nil
}

func (m *Manager) LiveState(id string) (GameState, error) {
	g, err := m.acquire(id)
	if err != nil {
		return GameState{}, err
	}
	defer g.mu.Unlock()
	return g.state(), nil
}

// PlayLive plays the player's move and the computer's reply.
func (m *Manager) PlayLive(id string, in MoveInput) (MoveResult, error) {
	g, err := m.acquire(id)
	if err != nil {
		return MoveResult{}, err
	}
	defer g.mu.Unlock()

	san, err := g.match.playerMove(in)
	if err != nil {
		return MoveResult{}, err
	}
	reply, err := g.match.computerMove(g.rng)
	if err != nil {
		return MoveResult{}, err
	}
	m.finishLive(g)
	return MoveResult{Move: san, Reply: reply, State: g.state()}, nil
}

// PlayerMove plays only the player's move. Clients that animate the reply
// follow up with ComputerMove.
func (m *Manager) PlayerMove(id string, in MoveInput) (MoveResult, error) {
	g, err := m.acquire(id)
	if err != nil {
		return MoveResult{}, err
	}
	defer g.mu.Unlock()

	san, err := g.match.playerMove(in)
	if err != nil {
		return MoveResult{}, err
	}
	m.finishLive(g)
	return MoveResult{Move: san, State: g.state()}, nil
}

// ComputerMove plays the computer's move when it is the computer's turn.
func (m *Manager) ComputerMove(id string) (MoveResult, error) {
	g, err := m.acquire(id)
	if err != nil {
		return MoveResult{}, err
	}
	defer g.mu.Unlock()

	if g.match.status().Over() {
		return MoveResult{}, ErrGameOver
	}
	reply, err := g.match.computerMove(g.rng)
	if err != nil {
		return MoveResult{}, err
	}
	m.finishLive(g)
	return MoveResult{Reply: reply, State: g.state()}, nil
}

// Resign ends the game as a loss for the player.
func (m *Manager) Resign(id string) (GameState, error) {
	g, err := m.acquire(id)
	if err != nil {
		return GameState{}, err
	}
	defer g.mu.Unlock()

	if g.match.status().Over() {
		return GameState{}, ErrGameOver
	}
	g.match.game.Resign(g.match.player)
	m.finishLive(g)
	return g.state(), nil
}

// finishLive records a finished game once.
func (m *Manager) finishLive(g *liveGame) {
	st := g.match.status()
	if !st.Over() || g.recorded {
		return
	}
	g.recorded = true
	m.record(storage.GameRecord{
		Kind:     storage.KindLive,
		Result:   playerResult(st, g.match.player),
		Opponent: "Computer (" + g.match.difficulty.String() + ")",
		Moves:    len(g.match.san),
	}, g.id)
}
