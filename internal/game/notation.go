package game

import (
	"fmt"

	"github.com/benbeisheim/chess-backend/internal/model"
)

// makePly describes move before it is played. Check suffixes are added by
// the caller once the resulting position is known.
func (g *Game) makePly(move model.MoveRequest) model.Ply {
	piece := g.board.Piece(g.board.GetPiece(move.From))
	ply := model.Ply{
		Piece: piece,
		From:  move.From,
		To:    move.To,
	}

	if captured, ok := g.board.PieceAt(move.To); ok {
		ply.CapturedPiece = &captured
	} else if piece.Type == model.Pawn && move.From.Col != move.To.Col {
		if captured, ok := g.board.PieceAt(model.At(move.From.Row, move.To.Col)); ok {
			ply.CapturedPiece = &captured
		}
	}

	switch {
	case piece.Type == model.King && move.To.Col-move.From.Col == 2:
		ply.CastleRookMove = &model.CastleRookMove{
			From: model.At(move.From.Row, model.BoardSize-1),
			To:   model.At(move.From.Row, 5),
		}
		ply.Notation = "O-O"
		return ply
	case piece.Type == model.King && move.To.Col-move.From.Col == -2:
		ply.CastleRookMove = &model.CastleRookMove{
			From: model.At(move.From.Row, 0),
			To:   model.At(move.From.Row, 3),
		}
		ply.Notation = "O-O-O"
		return ply
	}

	if piece.Type == model.Pawn && (move.To.Row == 0 || move.To.Row == model.BoardSize-1) {
		ply.Promotion = model.Queen
	}
	ply.Notation = getNotation(ply)
	return ply
}

func getNotation(ply model.Ply) string {
	prefix := ply.Piece.Type.Notation()
	pawnFileSpecifier := ""
	capture := ""
	if ply.CapturedPiece != nil {
		capture = "x"
		if ply.Piece.Type == model.Pawn {
			pawnFileSpecifier = ply.From.File()
		}
	}
	promotion := ""
	if ply.Promotion != "" {
		promotion = "=" + ply.Promotion.Notation()
	}
	return fmt.Sprintf("%s%s%s%s%s", prefix, pawnFileSpecifier, capture, ply.To, promotion)
}
