package model

import "errors"

var (
	// ErrPieceNotOnBoard is returned when a piece handle is not on the board.
	ErrPieceNotOnBoard = errors.New("the supplied piece is not on the board")

	// ErrUnknownPieceType means move generation was asked for a piece kind it
	// has no rules for.
	ErrUnknownPieceType = errors.New("no move rules for piece type")

	ErrOutOfBounds = errors.New("square out of bounds")
	ErrNoPiece     = errors.New("no piece at from square")
	ErrNotYourTurn = errors.New("not your turn")
	ErrIllegalMove = errors.New("illegal move")
	ErrGameFull    = errors.New("game is full")
	ErrNotInGame   = errors.New("player not in game")
	ErrGameOver    = errors.New("game is over")
)
