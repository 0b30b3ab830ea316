// Package session owns the player-facing state of the platform: live games
// against the computer, daily games and puzzle attempts. Every session is
// serialized by its own lock; an overlapping call fails with ErrBusy instead
// of queueing.
package session

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"chessplatform/puzzles"
	"chessplatform/storage"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrBusy         = errors.New("session busy")
	ErrGameOver     = errors.New("game is over")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrInvalidInput = errors.New("invalid input")
)

type Options struct {
	// Seed makes every session's random source reproducible. Zero seeds
	// from the clock.
	Seed int64
}

type Manager struct {
	store   *storage.Storage
	catalog *puzzles.Catalog
	logger  *zap.Logger
	seed    int64

	mu       sync.Mutex
	seq      int64
	rng      *rand.Rand
	live     map[string]*liveGame
	attempts map[string]*attempt
	daily    map[string]*sync.Mutex
}

func NewManager(store *storage.Storage, catalog *puzzles.Catalog, logger *zap.Logger, opts Options) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		store:    store,
		catalog:  catalog,
		logger:   logger,
		seed:     opts.Seed,
		live:     make(map[string]*liveGame),
		attempts: make(map[string]*attempt),
		daily:    make(map[string]*sync.Mutex),
	}
	m.rng = m.newRand()
	return m
}

// newRand returns a fresh random source for one session.
func (m *Manager) newRand() *rand.Rand {
	if m.seed == 0 {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	m.seq++
	return rand.New(rand.NewSource(m.seed + m.seq))
}

func (m *Manager) sessionRand() *rand.Rand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newRand()
}

// intn draws from the manager's own source, used for daily game setup.
func (m *Manager) intn(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Intn(n)
}

// StatsView is the statistics page: counters, rating tier and recent history.
type StatsView struct {
	storage.Stats
	Tier          string                `json:"tier"`
	RecentGames   []storage.GameRecord  `json:"recentGames"`
	RatingHistory []storage.RatingPoint `json:"ratingHistory"`
}

func (m *Manager) Stats() (StatsView, error) {
	stats, err := m.store.LoadStats()
	if err != nil {
		return StatsView{}, err
	}
	games, err := m.store.RecentGames(0)
	if err != nil {
		return StatsView{}, err
	}
	points, err := m.store.RatingHistory(0)
	if err != nil {
		return StatsView{}, err
	}
	return StatsView{
		Stats:         *stats,
		Tier:          storage.RatingTier(stats.Rating),
		RecentGames:   games,
		RatingHistory: points,
	}, nil
}

// ResetStats clears statistics, history and daily games. Live games and
// puzzle attempts in memory are kept.
func (m *Manager) ResetStats() error {
	if err := m.store.Reset(); err != nil {
		return err
	}
	m.logger.Info("statistics reset")
	return nil
}

func (m *Manager) record(rec storage.GameRecord, sessionID string) {
	stats, err := m.store.RecordGame(rec)
	if err != nil {
		m.logger.Error("record game", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	m.logger.Info("game recorded",
		zap.String("session_id", sessionID),
		zap.String("kind", string(rec.Kind)),
		zap.String("result", string(rec.Result)),
		zap.Int("rating", stats.Rating),
	)
}
