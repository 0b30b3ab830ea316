package storage

import "math"

// RatingRules are the fixed rating adjustments applied to finished games
// and solved puzzles.
type RatingRules struct {
	Initial     int `yaml:"initial"`
	Floor       int `yaml:"floor"`
	LiveDelta   int `yaml:"live_delta"`
	DailyDelta  int `yaml:"daily_delta"`
	PuzzleBonus int `yaml:"puzzle_bonus"`
}

func DefaultRatingRules() RatingRules {
	return RatingRules{
		Initial:     1200,
		Floor:       800,
		LiveDelta:   10,
		DailyDelta:  15,
		PuzzleBonus: 5,
	}
}

func (r RatingRules) delta(kind GameKind) int {
	if kind == KindDaily {
		return r.DailyDelta
	}
	return r.LiveDelta
}

// apply returns the rating after a game. Draws leave it unchanged and losses
// never take it below the floor.
func (r RatingRules) apply(rating int, kind GameKind, result Result) int {
	switch result {
	case Win:
		return rating + r.delta(kind)
	case Loss:
		rating -= r.delta(kind)
		if rating < r.Floor {
			rating = r.Floor
		}
	}
	return rating
}

var tiers = []struct {
	min  int
	name string
}{
	{2400, "Grandmaster"},
	{2200, "International Master"},
	{2000, "FIDE Master"},
	{1800, "Expert"},
	{1600, "Class A"},
	{1400, "Class B"},
	{1200, "Class C"},
	{1000, "Class D"},
}

// RatingTier names the band a rating falls in.
func RatingTier(rating int) string {
	for _, t := range tiers {
		if rating >= t.min {
			return t.name
		}
	}
	return "Beginner"
}

func winRate(wins, games int) int {
	if games == 0 {
		return 0
	}
	return int(math.Round(float64(wins) / float64(games) * 100))
}
