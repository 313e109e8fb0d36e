package model

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

// Notation is the SAN letter of the piece type; pawns have none.
func (p PieceType) Notation() string {
	switch p {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	case Pawn:
		return ""
	}
	return ""
}

// NeverAdvancedTwo marks a pawn that has not made a two square advance.
const NeverAdvancedTwo = -1

// PieceID is the board-issued handle of a piece. Handles are never reused.
type PieceID int

// NoPiece is the empty-square handle.
const NoPiece PieceID = 0

// Piece holds the state of one piece. Only the fields of its Type are
// meaningful: LastDoubleAdvanceTurn for pawns, HasMoved for kings and rooks.
type Piece struct {
	Type                  PieceType   `json:"type"`
	Owner                 PlayerColor `json:"color"`
	LastDoubleAdvanceTurn int         `json:"lastDoubleAdvanceTurn,omitempty"`
	HasMoved              bool        `json:"hasMoved,omitempty"`
}

func newPiece(pieceType PieceType, owner PlayerColor) Piece {
	p := Piece{Type: pieceType, Owner: owner}
	if pieceType == Pawn {
		p.LastDoubleAdvanceTurn = NeverAdvancedTwo
	}
	return p
}

// CanTake reports whether p may capture other. Kings are never capturable.
func (p Piece) CanTake(other Piece) bool {
	return p.Owner != other.Owner && other.Type != King
}
