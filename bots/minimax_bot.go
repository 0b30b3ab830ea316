package bots

import (
	"github.com/notnil/chess"
)

// MinimaxBot plays the hard tier: a full two-ply search without pruning.
// It is deterministic; ties go to the move enumerated first.
type MinimaxBot struct {
	Evaluator PositionEvaluator
}

func NewMinimaxBot(eval PositionEvaluator) *MinimaxBot {
	return &MinimaxBot{Evaluator: eval}
}

func (b *MinimaxBot) Name() string {
	return "Minimax Bot (depth 2)"
}

func (b *MinimaxBot) BestMove(pos *chess.Position) (*chess.Move, error) {
	moves, err := legalMoves(pos)
	if err != nil {
		return nil, err
	}

	scored := make([]scoredMove, 0, len(moves))
	for _, move := range moves {
		scored = append(scored, scoredMove{move, b.score(pos.Update(move))})
	}
	rank(scored, pos.Turn())
	return scored[0].move, nil
}

// score is the raw evaluation after the first ply plus the opponent's best
// reply on the same raw scale. A reply that wins material for the opponent
// pulls the total towards the opponent's side of zero.
func (b *MinimaxBot) score(next *chess.Position) int {
	score := b.Evaluator.Evaluate(next)
	replies := next.ValidMoves()
	if len(replies) == 0 {
		return score
	}
	// Always added: bestReply is already signed for the replying side.
	return score + b.bestReply(next, replies)
}

// bestReply is the extremum of the evaluation over replies, taken in favour of
// the side to move in pos.
func (b *MinimaxBot) bestReply(pos *chess.Position, replies []*chess.Move) int {
	sign := perspective(pos.Turn())
	best := b.Evaluator.Evaluate(pos.Update(replies[0]))
	for _, reply := range replies[1:] {
		if s := b.Evaluator.Evaluate(pos.Update(reply)); s*sign > best*sign {
			best = s
		}
	}
	return best
}
