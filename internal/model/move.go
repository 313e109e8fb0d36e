package model

// MoveRequest is a move as sent by a client.
type MoveRequest struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

type CastleRookMove struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

// Ply is one half-move in a game's history.
type Ply struct {
	Piece          Piece           `json:"piece"`
	From           Square          `json:"from"`
	To             Square          `json:"to"`
	CapturedPiece  *Piece          `json:"capturedPiece"`
	CastleRookMove *CastleRookMove `json:"castleRookMove"`
	Promotion      PieceType       `json:"promotion,omitempty"`
	Notation       string          `json:"notation"`
}

type Move struct {
	WhitePly *Ply `json:"whitePly"`
	BlackPly *Ply `json:"blackPly"`
}

// SimpleMove is a from/to pair.
type SimpleMove struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}
