// Package storage persists statistics, game and rating history and daily
// games in BadgerDB.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	keyStats          = "stats"
	keyGameHistory    = "history/games"
	keyRatingHistory  = "history/rating"
	prefixDailyGame   = "daily/"
	defaultHistoryLen = 10
)

// ErrNotFound is returned for a daily game id that is not stored.
var ErrNotFound = errors.New("storage: not found")

// GameKind tells live games from daily games; they move the rating by
// different amounts.
type GameKind string

const (
	KindLive  GameKind = "live"
	KindDaily GameKind = "daily"
)

// Result is a finished game seen from the player's side.
type Result string

const (
	Win  Result = "win"
	Loss Result = "loss"
	Draw Result = "draw"
)

type Stats struct {
	GamesPlayed   int `json:"gamesPlayed"`
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	Draws         int `json:"draws"`
	PuzzlesSolved int `json:"puzzlesSolved"`
	Rating        int `json:"rating"`
	WinRate       int `json:"winRate"`
}

// GameRecord is one entry of the game history.
type GameRecord struct {
	Date        time.Time `json:"date"`
	Kind        GameKind  `json:"kind"`
	Result      Result    `json:"result"`
	Opponent    string    `json:"opponent"`
	Moves       int       `json:"moves"`
	RatingAfter int       `json:"ratingAfter"`
}

type RatingPoint struct {
	Date   time.Time `json:"date"`
	Rating int       `json:"rating"`
}

// DailyGame is a correspondence game against a generated counterpart. Moves
// holds the long-notation history from the standard start.
type DailyGame struct {
	ID          string    `json:"id"`
	Opponent    string    `json:"opponent"`
	PlayerColor string    `json:"playerColor"`
	Moves       []string  `json:"moves"`
	SAN         []string  `json:"san"`
	Status      string    `json:"status"`
	Result      string    `json:"result,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Options configure Open. InMemory ignores Dir.
type Options struct {
	Dir      string
	InMemory bool
	Rules    RatingRules
}

// Storage wraps BadgerDB. Read-modify-write sequences are serialized by mu so
// concurrent sessions never hit transaction conflicts.
type Storage struct {
	db    *badger.DB
	rules RatingRules
	now   func() time.Time
	mu    sync.Mutex
}

func Open(o Options) (*Storage, error) {
	var opts badger.Options
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir, err := DatabaseDir(o.Dir)
		if err != nil {
			return nil, fmt.Errorf("storage: data dir: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	rules := o.Rules
	if rules == (RatingRules{}) {
		rules = DefaultRatingRules()
	}
	return &Storage{db: db, rules: rules, now: time.Now}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) Rules() RatingRules { return s.rules }

func (s *Storage) newStats() *Stats {
	return &Stats{Rating: s.rules.Initial}
}

// LoadStats returns the stored statistics, or fresh ones at the initial
// rating.
func (s *Storage) LoadStats() (*Stats, error) {
	stats := s.newStats()
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := getJSON(txn, keyStats, stats)
		return err
	})
	return stats, err
}

// RecordGame applies a finished game to the statistics and appends it to
// the game and rating histories. rec.RatingAfter and rec.Date are filled in.
func (s *Storage) RecordGame(rec GameRecord) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.newStats()
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := getJSON(txn, keyStats, stats); err != nil {
			return err
		}
		stats.GamesPlayed++
		switch rec.Result {
		case Win:
			stats.Wins++
		case Loss:
			stats.Losses++
		case Draw:
			stats.Draws++
		default:
			return fmt.Errorf("storage: invalid result %q", rec.Result)
		}
		stats.Rating = s.rules.apply(stats.Rating, rec.Kind, rec.Result)
		stats.WinRate = winRate(stats.Wins, stats.GamesPlayed)

		rec.Date = s.now()
		rec.RatingAfter = stats.Rating
		if err := appendJSON[GameRecord](txn, keyGameHistory, rec); err != nil {
			return err
		}
		if err := appendJSON[RatingPoint](txn, keyRatingHistory, RatingPoint{Date: rec.Date, Rating: stats.Rating}); err != nil {
			return err
		}
		return setJSON(txn, keyStats, stats)
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RecordPuzzleSolved counts a solved puzzle and adds the puzzle bonus.
func (s *Storage) RecordPuzzleSolved() (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.newStats()
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := getJSON(txn, keyStats, stats); err != nil {
			return err
		}
		stats.PuzzlesSolved++
		stats.Rating += s.rules.PuzzleBonus
		return setJSON(txn, keyStats, stats)
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RecentGames returns up to n of the latest game records, oldest first.
// n <= 0 selects the default of ten.
func (s *Storage) RecentGames(n int) ([]GameRecord, error) {
	var games []GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := getJSON(txn, keyGameHistory, &games)
		return err
	})
	return tail(games, n), err
}

// RatingHistory returns up to n of the latest rating points, oldest first.
func (s *Storage) RatingHistory(n int) ([]RatingPoint, error) {
	var points []RatingPoint
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := getJSON(txn, keyRatingHistory, &points)
		return err
	})
	return tail(points, n), err
}

// Reset removes every key: statistics, histories and daily games.
func (s *Storage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	wb := s.db.NewWriteBatch()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			wb.Cancel()
			return err
		}
	}
	return wb.Flush()
}

func (s *Storage) SaveDailyGame(g *DailyGame) error {
	if g.ID == "" {
		return errors.New("storage: daily game without id")
	}
	g.UpdatedAt = s.now()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = g.UpdatedAt
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixDailyGame+g.ID, g)
	})
}

func (s *Storage) LoadDailyGame(id string) (*DailyGame, error) {
	g := &DailyGame{}
	err := s.db.View(func(txn *badger.Txn) error {
		found, err := getJSON(txn, prefixDailyGame+id, g)
		if err == nil && !found {
			err = fmt.Errorf("%w: daily game %s", ErrNotFound, id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ListDailyGames returns every stored daily game, newest first.
func (s *Storage) ListDailyGames() ([]*DailyGame, error) {
	var games []*DailyGame
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixDailyGame)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			g := &DailyGame{}
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, g)
			}); err != nil {
				return err
			}
			games = append(games, g)
		}
		return nil
	})
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
	return games, err
}

func (s *Storage) DeleteDailyGame(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(prefixDailyGame + id)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: daily game %s", ErrNotFound, id)
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// getJSON decodes key into v. A missing key leaves v untouched and reports
// found == false.
func getJSON(txn *badger.Txn, key string, v any) (bool, error) {
	item, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

func appendJSON[T any](txn *badger.Txn, key string, v T) error {
	var list []T
	if _, err := getJSON(txn, key, &list); err != nil {
		return err
	}
	return setJSON(txn, key, append(list, v))
}

func tail[T any](list []T, n int) []T {
	if n <= 0 {
		n = defaultHistoryLen
	}
	if len(list) > n {
		list = list[len(list)-n:]
	}
	return list
}
