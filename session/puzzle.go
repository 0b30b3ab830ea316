package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chessplatform/puzzles"
	"chessplatform/rules"
)

type attempt struct {
	mu       sync.Mutex
	id       string
	puzzle   puzzles.Puzzle
	verifier *puzzles.Verifier
	hints    int
	recorded bool
}

// AttemptState is the client view of a puzzle attempt.
type AttemptState struct {
	ID          string `json:"id"`
	PuzzleID    int    `json:"puzzleId"`
	Theme       string `json:"theme"`
	Level       string `json:"level"`
	PlayerColor string `json:"playerColor"`
	FEN         string `json:"fen"`
	Cursor      int    `json:"cursor"`
	Length      int    `json:"length"`
	Solved      bool   `json:"solved"`
	HintsUsed   int    `json:"hintsUsed"`
}

// AttemptResult reports one submission. Reason is set for rejections.
type AttemptResult struct {
	Outcome string       `json:"outcome"`
	Reason  string       `json:"reason,omitempty"`
	Move    string       `json:"move,omitempty"`
	Reply   string       `json:"reply,omitempty"`
	State   AttemptState `json:"state"`
}

type HintResult struct {
	Hint      string `json:"hint"`
	HintsUsed int    `json:"hintsUsed"`
}

func (m *Manager) Puzzles(level puzzles.Level) []puzzles.Puzzle {
	return m.catalog.List(level)
}

// StartAttempt opens a fresh attempt at a catalog puzzle.
func (m *Manager) StartAttempt(puzzleID int) (AttemptState, error) {
	p, err := m.catalog.Get(puzzleID)
	if errors.Is(err, puzzles.ErrUnknownPuzzle) {
		return AttemptState{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if err != nil {
		return AttemptState{}, err
	}
	v, err := puzzles.NewVerifier(p)
	if err != nil {
		return AttemptState{}, err
	}
	a := &attempt{id: uuid.NewString(), puzzle: p, verifier: v}

	m.mu.Lock()
	m.attempts[a.id] = a
	m.mu.Unlock()

	m.logger.Info("puzzle attempt started", zap.String("session_id", a.id), zap.Int("puzzle", p.ID))
	return a.state(), nil
}

func (m *Manager) acquireAttempt(id string) (*attempt, error) {
	m.mu.Lock()
	a, ok := m.attempts[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: attempt %s", ErrNotFound, id)
	}
	if !a.mu.TryLock() {
		return nil, ErrBusy
	}
	return a, nil
}

func (m *Manager) Attempt(id string) (AttemptState, error) {
	a, err := m.acquireAttempt(id)
	if err != nil {
		return AttemptState{}, err
	}
	defer a.mu.Unlock()
	return a.state(), nil
}

// SubmitAttempt checks a move against the puzzle line. Illegal and
// off-script moves are reported in the result, not as errors. The first
// solve of an attempt is recorded in the statistics.
func (m *Manager) SubmitAttempt(id string, in MoveInput) (AttemptResult, error) {
	a, err := m.acquireAttempt(id)
	if err != nil {
		return AttemptResult{}, err
	}
	defer a.mu.Unlock()

	// A finished line has nothing left to match, whatever the move.
	if a.verifier.Solved() {
		return a.rejected(puzzles.ErrWrongMove), nil
	}
	mv, err := in.resolve(a.verifier.Position())
	switch {
	case errors.Is(err, rules.ErrIllegalMove):
		return a.rejected(puzzles.ErrIllegalMove), nil
	case err != nil:
		return AttemptResult{}, err
	}

	res, err := a.verifier.Submit(mv)
	if err != nil {
		m.logger.Error("puzzle script", zap.String("session_id", id), zap.Int("puzzle", a.puzzle.ID), zap.Error(err))
		return AttemptResult{}, err
	}
	out := AttemptResult{
		Outcome: res.Outcome.String(),
		Move:    res.PlayerSAN,
		Reply:   res.ReplySAN,
	}
	if res.Reason != nil {
		out.Reason = res.Reason.Error()
	}
	if res.Outcome == puzzles.Solved && !a.recorded {
		a.recorded = true
		if _, err := m.store.RecordPuzzleSolved(); err != nil {
			m.logger.Error("record puzzle", zap.String("session_id", id), zap.Error(err))
		}
		m.logger.Info("puzzle solved", zap.String("session_id", id), zap.Int("puzzle", a.puzzle.ID), zap.Int("hints", a.hints))
	}
	out.State = a.state()
	return out, nil
}

// ResetAttempt returns the attempt to the puzzle's start. A solve already
// recorded stays recorded.
func (m *Manager) ResetAttempt(id string) (AttemptState, error) {
	a, err := m.acquireAttempt(id)
	if err != nil {
		return AttemptState{}, err
	}
	defer a.mu.Unlock()
	a.verifier.Reset()
	return a.state(), nil
}

// Hint reveals the next expected move and counts it.
func (m *Manager) Hint(id string) (HintResult, error) {
	a, err := m.acquireAttempt(id)
	if err != nil {
		return HintResult{}, err
	}
	defer a.mu.Unlock()

	hint := a.verifier.Hint()
	if hint != "" {
		a.hints++
	}
	return HintResult{Hint: hint, HintsUsed: a.hints}, nil
}

func (a *attempt) rejected(reason error) AttemptResult {
	return AttemptResult{
		Outcome: puzzles.Rejected.String(),
		Reason:  reason.Error(),
		State:   a.state(),
	}
}

func (a *attempt) state() AttemptState {
	v := a.verifier
	return AttemptState{
		ID:          a.id,
		PuzzleID:    a.puzzle.ID,
		Theme:       a.puzzle.Theme,
		Level:       string(a.puzzle.Level),
		PlayerColor: strings.ToLower(a.puzzle.PlayerColor),
		FEN:         rules.FEN(v.Position()),
		Cursor:      v.Cursor(),
		Length:      v.Len(),
		Solved:      v.Solved(),
		HintsUsed:   a.hints,
	}
}
