package bots

import "github.com/notnil/chess"

// RandomBot plays the easy tier: any legal move, uniformly.
type RandomBot struct {
	rng Rand
}

func NewRandomBot(rng Rand) *RandomBot {
	return &RandomBot{rng: rng}
}

func (b *RandomBot) BestMove(pos *chess.Position) (*chess.Move, error) {
	moves, err := legalMoves(pos)
	if err != nil {
		return nil, err
	}
	return moves[b.rng.Intn(len(moves))], nil
}

func (b *RandomBot) Name() string {
	return "Random Bot"
}
