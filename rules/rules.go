// Package rules is the thin boundary between the platform and the
// notnil/chess rules engine. Positions are handled as immutable values:
// every function that "applies" a move returns a fresh position.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

var (
	// ErrIllegalMove is returned when a move is not legal in the position.
	ErrIllegalMove = errors.New("illegal move")
	// ErrBadSquare is returned when a square label cannot be parsed.
	ErrBadSquare = errors.New("invalid square")
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// LegalMoves returns the legal moves of pos in the engine's enumeration order.
func LegalMoves(pos *chess.Position) []*chess.Move {
	if pos == nil {
		return nil
	}
	return pos.ValidMoves()
}

// Apply plays m on pos and returns the resulting position. The move is
// matched by from, to and promotion against the legal moves, so moves built
// outside the engine (without tags) are accepted too.
func Apply(pos *chess.Position, m *chess.Move) (*chess.Position, error) {
	legal, err := Canonical(pos, m)
	if err != nil {
		return nil, err
	}
	return pos.Update(legal), nil
}

// Canonical returns the engine's own instance of m in pos.
func Canonical(pos *chess.Position, m *chess.Move) (*chess.Move, error) {
	if pos == nil || m == nil {
		return nil, ErrIllegalMove
	}
	for _, legal := range pos.ValidMoves() {
		if SameMove(legal, m) {
			return legal, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrIllegalMove, m.String())
}

// SameMove reports whether a and b describe the same physical move.
func SameMove(a, b *chess.Move) bool {
	if a == nil || b == nil {
		return false
	}
	return a.S1() == b.S1() && a.S2() == b.S2() && a.Promo() == b.Promo()
}

// SideToMove returns the colour whose turn it is.
func SideToMove(pos *chess.Position) chess.Color {
	return pos.Turn()
}

// ShortNotation renders m in standard algebraic notation relative to pos.
func ShortNotation(pos *chess.Position, m *chess.Move) string {
	return chess.AlgebraicNotation{}.Encode(pos, m)
}

// LongNotation renders m as from-square, to-square and promotion, e.g. e7e8q.
func LongNotation(m *chess.Move) string {
	return strings.ToLower(m.String())
}

// ParseMove decodes text as SAN first and as long notation second. Check,
// mate and annotation suffixes are ignored.
func ParseMove(pos *chess.Position, text string) (*chess.Move, error) {
	want := StripSuffixes(text)
	if want == "" {
		return nil, fmt.Errorf("%w: empty move", ErrIllegalMove)
	}
	moves := pos.ValidMoves()
	var promoted *chess.Move
	for _, m := range moves {
		san := StripSuffixes(ShortNotation(pos, m))
		if san == want {
			return m, nil
		}
		// "e8" names a promotion without its piece; the queen wins.
		if m.Promo() != chess.NoPieceType && trimPromotion(san) == want {
			if promoted == nil || m.Promo() == chess.Queen {
				promoted = m
			}
		}
	}
	if promoted != nil {
		return promoted, nil
	}
	long := strings.ToLower(want)
	for _, m := range moves {
		if LongNotation(m) == long {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrIllegalMove, text)
}

// MatchesLabel reports whether m, whose SAN is san, is the move a label such
// as "Qxf7#", "e8" or "h5f7" names. Suffixes are ignored, a promotion matches
// a label without its piece, and long notation is case-insensitive.
func MatchesLabel(san string, m *chess.Move, label string) bool {
	want := StripSuffixes(label)
	got := StripSuffixes(san)
	if got == want {
		return true
	}
	if m.Promo() != chess.NoPieceType && trimPromotion(got) == want {
		return true
	}
	return LongNotation(m) == strings.ToLower(want)
}

// trimPromotion drops a trailing "=Q" style promotion piece.
func trimPromotion(san string) string {
	if i := strings.LastIndexByte(san, '='); i >= 0 && i == len(san)-2 {
		return san[:i]
	}
	return san
}

// StripSuffixes removes surrounding space and trailing check, mate and
// annotation marks from a move label: "Qxf7#" and "Qxf7!?" become "Qxf7".
func StripSuffixes(label string) string {
	return strings.TrimRight(strings.TrimSpace(label), "+#!?")
}

// FindMove resolves a from/to pair (as produced by drag and drop) into a
// legal move. An empty promo on a promoting pawn move selects a queen.
func FindMove(pos *chess.Position, from, to, promo string) (*chess.Move, error) {
	s1, err := ParseSquare(from)
	if err != nil {
		return nil, err
	}
	s2, err := ParseSquare(to)
	if err != nil {
		return nil, err
	}
	want := chess.NoPieceType
	if promo != "" {
		if want = parsePromo(promo); want == chess.NoPieceType {
			return nil, fmt.Errorf("%w: promotion %q", ErrIllegalMove, promo)
		}
	}

	var fallback *chess.Move
	for _, m := range pos.ValidMoves() {
		if m.S1() != s1 || m.S2() != s2 {
			continue
		}
		if m.Promo() == want {
			return m, nil
		}
		if want == chess.NoPieceType && m.Promo() == chess.Queen {
			fallback = m
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
}

// ParseSquare parses a square label such as "e4".
func ParseSquare(s string) (chess.Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return chess.NoSquare, fmt.Errorf("%w: %q", ErrBadSquare, s)
	}
	return chess.NewSquare(chess.File(s[0]-'a'), chess.Rank(s[1]-'1')), nil
}

func parsePromo(s string) chess.PieceType {
	switch strings.ToLower(s) {
	case "q":
		return chess.Queen
	case "r":
		return chess.Rook
	case "b":
		return chess.Bishop
	case "n":
		return chess.Knight
	}
	return chess.NoPieceType
}

// ParseFEN decodes a FEN string into a position.
func ParseFEN(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	return chess.NewGame(opt).Position(), nil
}

// FEN encodes pos.
func FEN(pos *chess.Position) string {
	return pos.String()
}
