package bots

import "github.com/notnil/chess"

// MaterialEvaluator counts material only. Positive scores favour White.
type MaterialEvaluator struct{}

func (MaterialEvaluator) Evaluate(pos *chess.Position) int {
	return Evaluate(pos)
}

// Evaluate returns White's material minus Black's material.
func Evaluate(pos *chess.Position) int {
	var score int
	board := pos.Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		if piece == chess.NoPiece {
			continue
		}
		if piece.Color() == chess.White {
			score += pieceValue(piece.Type())
		} else {
			score -= pieceValue(piece.Type())
		}
	}
	return score
}

func pieceValue(piece chess.PieceType) int {
	switch piece {
	case chess.Pawn:
		return 1
	case chess.Knight:
		return 3
	case chess.Bishop:
		return 3
	case chess.Rook:
		return 5
	case chess.Queen:
		return 9
	default:
		return 0
	}
}

// perspective is +1 when White moves and -1 when Black moves, turning a raw
// score into the mover's own score.
func perspective(c chess.Color) int {
	if c == chess.White {
		return 1
	}
	return -1
}
