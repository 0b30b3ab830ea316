package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/notnil/chess"
	"go.uber.org/zap"

	"chessplatform/bots"
	"chessplatform/rules"
	"chessplatform/storage"
)

const (
	dailyActive   = "active"
	dailyFinished = "finished"
)

// CreateDaily starts a daily game against a generated counterpart with a
// random colour. The counterpart plays the easy tier.
func (m *Manager) CreateDaily() (GameState, error) {
	color := chess.White
	if m.intn(2) == 1 {
		color = chess.Black
	}
	rec := &storage.DailyGame{
		ID:          uuid.NewString(),
		Opponent:    fmt.Sprintf("Player %d", m.intn(1000)),
		PlayerColor: strings.ToLower(rules.ColorName(color)),
		Moves:       []string{},
		SAN:         []string{},
		Status:      dailyActive,
	}
	mt := &match{game: chess.NewGame(), player: color, difficulty: bots.Easy}
	if !mt.playerToMove() {
		if _, err := m.counterpartMove(rec, mt, m.sessionRand()); err != nil {
			return GameState{}, err
		}
	}
	if err := m.store.SaveDailyGame(rec); err != nil {
		return GameState{}, err
	}
	m.logger.Info("daily game created",
		zap.String("session_id", rec.ID),
		zap.String("opponent", rec.Opponent),
		zap.String("player", rec.PlayerColor),
	)
	return dailyState(rec, mt), nil
}

func (m *Manager) ListDaily() ([]GameState, error) {
	recs, err := m.store.ListDailyGames()
	if err != nil {
		return nil, err
	}
	out := make([]GameState, 0, len(recs))
	for _, rec := range recs {
		mt, err := restore(rec)
		if err != nil {
			m.logger.Warn("skipping unreadable daily game", zap.String("session_id", rec.ID), zap.Error(err))
			continue
		}
		out = append(out, dailyState(rec, mt))
	}
	return out, nil
}

func (m *Manager) Daily(id string) (GameState, error) {
	rec, mt, err := m.loadDaily(id)
	if err != nil {
		return GameState{}, err
	}
	return dailyState(rec, mt), nil
}

// PlayDaily plays the player's move and the counterpart's reply, then
// persists the game.
func (m *Manager) PlayDaily(id string, in MoveInput) (MoveResult, error) {
	lock, err := m.dailyLock(id)
	if err != nil {
		return MoveResult{}, err
	}
	if !lock.TryLock() {
		return MoveResult{}, ErrBusy
	}
	defer lock.Unlock()

	rec, mt, err := m.loadDaily(id)
	if err != nil {
		return MoveResult{}, err
	}
	san, err := mt.playerMove(in)
	if err != nil {
		return MoveResult{}, err
	}
	rec.Moves = append(rec.Moves, rules.LongNotation(lastMove(mt.game)))
	rec.SAN = append(rec.SAN, san)

	reply, err := m.counterpartMove(rec, mt, m.sessionRand())
	if err != nil {
		return MoveResult{}, err
	}
	if err := m.store.SaveDailyGame(rec); err != nil {
		return MoveResult{}, err
	}
	return MoveResult{Move: san, Reply: reply, State: dailyState(rec, mt)}, nil
}

func (m *Manager) DeleteDaily(id string) error {
	lock, err := m.dailyLock(id)
	if err != nil {
		return err
	}
	if !lock.TryLock() {
		return ErrBusy
	}
	defer lock.Unlock()

	if err := m.store.DeleteDailyGame(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: daily game %s", ErrNotFound, id)
		}
		return err
	}
	m.mu.Lock()
	delete(m.daily, id)
	m.mu.Unlock()
	m.logger.Info("daily game deleted", zap.String("session_id", id))
	return nil
}

// dailyLock returns the lock of a stored daily game. Ids that are not
// stored get no entry.
func (m *Manager) dailyLock(id string) (*sync.Mutex, error) {
	m.mu.Lock()
	l, ok := m.daily[id]
	m.mu.Unlock()
	if ok {
		return l, nil
	}
	if _, err := m.store.LoadDailyGame(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: daily game %s", ErrNotFound, id)
		}
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok = m.daily[id]; !ok {
		l = &sync.Mutex{}
		m.daily[id] = l
	}
	return l, nil
}

func (m *Manager) loadDaily(id string) (*storage.DailyGame, *match, error) {
	rec, err := m.store.LoadDailyGame(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: daily game %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, nil, err
	}
	mt, err := restore(rec)
	if err != nil {
		return nil, nil, err
	}
	return rec, mt, nil
}

// restore replays a stored daily game.
func restore(rec *storage.DailyGame) (*match, error) {
	color, err := rules.ParseColor(rec.PlayerColor)
	if err != nil {
		return nil, fmt.Errorf("daily game %s: %w", rec.ID, err)
	}
	g, err := rules.Replay(rec.Moves)
	if err != nil {
		return nil, fmt.Errorf("daily game %s: %w", rec.ID, err)
	}
	san := make([]string, len(rec.SAN))
	copy(san, rec.SAN)
	return &match{game: g, player: color, difficulty: bots.Easy, san: san}, nil
}

// counterpartMove plays the counterpart's reply, if the game is still on,
// and updates rec. A finished game is recorded in the statistics.
func (m *Manager) counterpartMove(rec *storage.DailyGame, mt *match, rng bots.Rand) (string, error) {
	reply, err := mt.computerMove(rng)
	if err != nil {
		return "", err
	}
	if reply != "" {
		rec.Moves = append(rec.Moves, rules.LongNotation(lastMove(mt.game)))
		rec.SAN = append(rec.SAN, reply)
	}
	if st := mt.status(); st.Over() && rec.Status != dailyFinished {
		rec.Status = dailyFinished
		rec.Result = resultLabel(st)
		m.record(storage.GameRecord{
			Kind:     storage.KindDaily,
			Result:   playerResult(st, mt.player),
			Opponent: rec.Opponent,
			Moves:    len(rec.Moves),
		}, rec.ID)
	}
	return reply, nil
}

func dailyState(rec *storage.DailyGame, mt *match) GameState {
	st := mt.state(rec.ID, rec.Opponent)
	if rec.Status == dailyFinished && rec.Result != "" {
		st.Result = rec.Result
	}
	return st
}

func lastMove(g *chess.Game) *chess.Move {
	moves := g.Moves()
	return moves[len(moves)-1]
}
