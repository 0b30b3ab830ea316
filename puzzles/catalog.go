// Package puzzles holds the fixed puzzle catalog and the verifier that walks
// a player through a puzzle's scripted line.
package puzzles

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
	"gopkg.in/yaml.v3"

	"chessplatform/rules"
)

//go:embed catalog.yaml
var catalogYAML []byte

// ErrUnknownPuzzle is returned by Catalog.Get for an id that is not listed.
var ErrUnknownPuzzle = errors.New("unknown puzzle")

type Level string

const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
)

func (l Level) Valid() bool {
	switch l {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// ParseLevel accepts a level name in any case. The empty string means no
// filter and is returned as is.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if l == "" || l.Valid() {
		return l, nil
	}
	return "", fmt.Errorf("invalid puzzle level %q", s)
}

type Puzzle struct {
	ID          int      `yaml:"id" json:"id"`
	FEN         string   `yaml:"fen" json:"fen"`
	Solution    []string `yaml:"solution" json:"-"`
	PlayerColor string   `yaml:"player_color" json:"playerColor"`
	Level       Level    `yaml:"level" json:"level"`
	Theme       string   `yaml:"theme" json:"theme"`
}

// Color is the side the player moves in this puzzle.
func (p Puzzle) Color() chess.Color {
	c, _ := rules.ParseColor(p.PlayerColor)
	return c
}

// Catalog is an ordered, read-only puzzle set.
type Catalog struct {
	puzzles []Puzzle
	byID    map[int]int
}

// DefaultCatalog loads the embedded puzzle set.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(catalogYAML)
}

// LoadCatalog decodes a YAML list of puzzles and validates every entry,
// including that each scripted line replays legally from its position.
func LoadCatalog(data []byte) (*Catalog, error) {
	var puzzles []Puzzle
	if err := yaml.Unmarshal(data, &puzzles); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{byID: make(map[int]int, len(puzzles))}
	for _, p := range puzzles {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("puzzle %d: duplicate id", p.ID)
		}
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("puzzle %d: %w", p.ID, err)
		}
		c.byID[p.ID] = len(c.puzzles)
		c.puzzles = append(c.puzzles, p)
	}
	return c, nil
}

func validate(p Puzzle) error {
	if !p.Level.Valid() {
		return fmt.Errorf("invalid level %q", p.Level)
	}
	color, err := rules.ParseColor(p.PlayerColor)
	if err != nil {
		return err
	}
	pos, err := rules.ParseFEN(p.FEN)
	if err != nil {
		return err
	}
	if pos.Turn() != color {
		return fmt.Errorf("player colour %s is not to move", p.PlayerColor)
	}
	for i, label := range p.Solution {
		m, err := rules.ParseMove(pos, label)
		if err != nil {
			return fmt.Errorf("%w: solution move %d: %v", ErrBadScript, i+1, err)
		}
		pos = pos.Update(m)
	}
	return nil
}

// List returns the puzzles of the given level in catalog order; an empty
// level lists everything.
func (c *Catalog) List(level Level) []Puzzle {
	out := make([]Puzzle, 0, len(c.puzzles))
	for _, p := range c.puzzles {
		if level == "" || p.Level == level {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) Get(id int) (Puzzle, error) {
	i, ok := c.byID[id]
	if !ok {
		return Puzzle{}, fmt.Errorf("%w: %d", ErrUnknownPuzzle, id)
	}
	return c.puzzles[i], nil
}

func (c *Catalog) Len() int { return len(c.puzzles) }
