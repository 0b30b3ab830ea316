package bots

import (
	"sort"

	"github.com/notnil/chess"
)

// ShortlistBot plays the medium tier. It ranks every legal move by the
// material left after it and picks at random among the best few.
type ShortlistBot struct {
	rng       Rand
	Evaluator PositionEvaluator
}

func NewShortlistBot(rng Rand, eval PositionEvaluator) *ShortlistBot {
	return &ShortlistBot{rng: rng, Evaluator: eval}
}

func (b *ShortlistBot) Name() string {
	return "Shortlist Bot"
}

func (b *ShortlistBot) BestMove(pos *chess.Position) (*chess.Move, error) {
	moves, err := legalMoves(pos)
	if err != nil {
		return nil, err
	}

	scored := make([]scoredMove, 0, len(moves))
	for _, move := range moves {
		scored = append(scored, scoredMove{move, b.Evaluator.Evaluate(pos.Update(move))})
	}
	rank(scored, pos.Turn())

	top := scored[:ShortlistSize(len(scored))]
	return top[b.rng.Intn(len(top))].move, nil
}

// ShortlistSize is max(3, ceil(0.3*n)), never more than n.
func ShortlistSize(n int) int {
	size := (3*n + 9) / 10
	if size < 3 {
		size = 3
	}
	if size > n {
		size = n
	}
	return size
}

type scoredMove struct {
	move  *chess.Move
	score int
}

// rank orders scored best-first for mover. Equal scores keep their
// enumeration order.
func rank(scored []scoredMove, mover chess.Color) {
	sign := perspective(mover)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score*sign > scored[j].score*sign
	})
}
