// Package rules layers check detection on top of the pseudo-legal move
// generation in package model: attacked squares, king safety filtering,
// castling through check, and the mate/stalemate status of a position.
package rules

import (
	"github.com/benbeisheim/chess-backend/internal/model"
)

type GameStatus string

const (
	StatusOngoing   GameStatus = "ongoing"
	StatusCheck     GameStatus = "check"
	StatusCheckmate GameStatus = "checkmate"
	StatusStalemate GameStatus = "stalemate"
)

// Over reports whether no further moves can be played.
func (s GameStatus) Over() bool {
	return s == StatusCheckmate || s == StatusStalemate
}

type offset struct {
	dRow, dCol int
}

var (
	rookDirs   = []offset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	knightDirs = []offset{{2, 1}, {2, -1}, {-2, 1}, {-2, -1}, {1, 2}, {1, -2}, {-1, 2}, {-1, -2}}
	kingDirs   = append(append([]offset{}, rookDirs...), bishopDirs...)
)

// IsSquareAttacked reports whether any piece of attacker attacks sq.
func IsSquareAttacked(b *model.Board, sq model.Square, attacker model.PlayerColor) bool {
	if slidingAttack(b, sq, attacker, rookDirs, model.Rook) ||
		slidingAttack(b, sq, attacker, bishopDirs, model.Bishop) {
		return true
	}
	if stepAttack(b, sq, attacker, knightDirs, model.Knight) ||
		stepAttack(b, sq, attacker, kingDirs, model.King) {
		return true
	}
	// attacker's pawns sit one row behind sq, from attacker's point of view
	pawnRow := -1
	if attacker == model.PlayerColorBlack {
		pawnRow = 1
	}
	return stepAttack(b, sq, attacker, []offset{{pawnRow, -1}, {pawnRow, 1}}, model.Pawn)
}

func slidingAttack(b *model.Board, sq model.Square, attacker model.PlayerColor, dirs []offset, slider model.PieceType) bool {
	for _, dir := range dirs {
		target := model.At(sq.Row+dir.dRow, sq.Col+dir.dCol)
		for target.InBounds() {
			if p, ok := b.PieceAt(target); ok {
				if p.Owner == attacker && (p.Type == slider || p.Type == model.Queen) {
					return true
				}
				break
			}
			target = model.At(target.Row+dir.dRow, target.Col+dir.dCol)
		}
	}
	return false
}

func stepAttack(b *model.Board, sq model.Square, attacker model.PlayerColor, dirs []offset, stepper model.PieceType) bool {
	for _, dir := range dirs {
		target := model.At(sq.Row+dir.dRow, sq.Col+dir.dCol)
		if !target.InBounds() {
			continue
		}
		if p, ok := b.PieceAt(target); ok && p.Owner == attacker && p.Type == stepper {
			return true
		}
	}
	return false
}

// InCheck reports whether player's king is attacked. A side without a king
// is never in check.
func InCheck(b *model.Board, player model.PlayerColor) bool {
	for _, pl := range b.Occupied(player) {
		if b.Piece(pl.ID).Type == model.King && IsSquareAttacked(b, pl.Square, player.Opponent()) {
			return true
		}
	}
	return false
}

// LegalMoves filters the piece's pseudo-legal moves down to those that do
// not leave its own king attacked. Castling additionally needs the king's
// start, crossing and landing squares to be safe.
func LegalMoves(b *model.Board, id model.PieceID) ([]model.Square, error) {
	candidates, err := model.AvailableMoves(b, id)
	if err != nil {
		return nil, err
	}
	from, err := b.FindPiece(id)
	if err != nil {
		return nil, err
	}
	p := b.Piece(id)

	legal := make([]model.Square, 0, len(candidates))
	for _, to := range candidates {
		if p.Type == model.King && isCastle(from, to) && !castlePathSafe(b, from, to, p.Owner) {
			continue
		}
		if leavesKingInCheck(b, from, to, p.Owner) {
			continue
		}
		legal = append(legal, to)
	}
	return legal, nil
}

// AllLegalMoves collects the legal moves of every piece player owns.
func AllLegalMoves(b *model.Board, player model.PlayerColor) ([]model.SimpleMove, error) {
	var moves []model.SimpleMove
	for _, pl := range b.Occupied(player) {
		targets, err := LegalMoves(b, pl.ID)
		if err != nil {
			return nil, err
		}
		for _, to := range targets {
			moves = append(moves, model.SimpleMove{From: pl.Square, To: to})
		}
	}
	return moves, nil
}

// Status classifies the position for the side to move.
func Status(b *model.Board) (GameStatus, error) {
	player := b.CurrentPlayer()
	moves, err := AllLegalMoves(b, player)
	if err != nil {
		return "", err
	}
	inCheck := InCheck(b, player)
	switch {
	case len(moves) == 0 && inCheck:
		return StatusCheckmate, nil
	case len(moves) == 0:
		return StatusStalemate, nil
	case inCheck:
		return StatusCheck, nil
	}
	return StatusOngoing, nil
}

func isCastle(from, to model.Square) bool {
	d := to.Col - from.Col
	return from.Row == to.Row && (d == 2 || d == -2)
}

func castlePathSafe(b *model.Board, from, to model.Square, owner model.PlayerColor) bool {
	step := 1
	if to.Col < from.Col {
		step = -1
	}
	for col := from.Col; col != to.Col+step; col += step {
		if IsSquareAttacked(b, model.At(from.Row, col), owner.Opponent()) {
			return false
		}
	}
	return true
}

// leavesKingInCheck plays the move on a copy. The copy's side to move is
// forced to owner so the board does not ignore the move.
func leavesKingInCheck(b *model.Board, from, to model.Square, owner model.PlayerColor) bool {
	sim := b.Clone()
	sim.SetTurn(owner, sim.TurnCount())
	sim.MovePiece(from, to)
	return InCheck(sim, owner)
}
