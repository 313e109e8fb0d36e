package model

import "fmt"

// Board is the 8x8 grid of piece handles plus whose move it is.
// It is not safe for concurrent use.
type Board struct {
	grid          [BoardSize][BoardSize]PieceID
	pieces        []*Piece // indexed by PieceID-1
	locations     map[PieceID]Square
	currentPlayer PlayerColor
	turnCount     int
}

// Placement pairs an occupied square with its piece handle.
type Placement struct {
	Square Square
	ID     PieceID
}

func NewBoard(currentPlayer PlayerColor) *Board {
	if currentPlayer == "" {
		currentPlayer = PlayerColorWhite
	}
	return &Board{
		locations:     make(map[PieceID]Square),
		currentPlayer: currentPlayer,
		turnCount:     1,
	}
}

func (b *Board) CurrentPlayer() PlayerColor { return b.currentPlayer }

func (b *Board) TurnCount() int { return b.turnCount }

// SetTurn overrides the side to move and the turn counter. Used when loading
// a position.
func (b *Board) SetTurn(player PlayerColor, turnCount int) {
	b.currentPlayer = player
	b.turnCount = turnCount
}

// NewPiece registers a piece with the board without placing it.
func (b *Board) NewPiece(pieceType PieceType, owner PlayerColor) PieceID {
	return b.AddPiece(newPiece(pieceType, owner))
}

// AddPiece registers a piece with explicit state, as when loading a position
// in which kings and rooks have already moved.
func (b *Board) AddPiece(p Piece) PieceID {
	b.pieces = append(b.pieces, &p)
	return PieceID(len(b.pieces))
}

// Place registers a piece and puts it on sq.
func (b *Board) Place(sq Square, pieceType PieceType, owner PlayerColor) PieceID {
	id := b.NewPiece(pieceType, owner)
	b.SetPiece(sq, id)
	return id
}

// Piece returns a snapshot of the piece's state. Unknown handles yield the
// zero Piece.
func (b *Board) Piece(id PieceID) Piece {
	if p := b.piece(id); p != nil {
		return *p
	}
	return Piece{}
}

func (b *Board) piece(id PieceID) *Piece {
	if id <= NoPiece || int(id) > len(b.pieces) {
		return nil
	}
	return b.pieces[id-1]
}

// SetPiece puts id (or NoPiece) on sq with no other side effects. A piece
// already on another square is lifted from there first.
func (b *Board) SetPiece(sq Square, id PieceID) {
	if id != NoPiece && b.piece(id) == nil {
		return
	}
	if old := b.grid[sq.Row][sq.Col]; old != NoPiece {
		delete(b.locations, old)
	}
	if id != NoPiece {
		if prev, ok := b.locations[id]; ok {
			b.grid[prev.Row][prev.Col] = NoPiece
		}
		b.locations[id] = sq
	}
	b.grid[sq.Row][sq.Col] = id
}

// GetPiece returns the handle on sq, or NoPiece. sq must be on the board.
func (b *Board) GetPiece(sq Square) PieceID {
	return b.grid[sq.Row][sq.Col]
}

// PieceAt is GetPiece plus the piece's state.
func (b *Board) PieceAt(sq Square) (Piece, bool) {
	id := b.GetPiece(sq)
	if id == NoPiece {
		return Piece{}, false
	}
	return *b.piece(id), true
}

func (b *Board) FindPiece(id PieceID) (Square, error) {
	sq, ok := b.locations[id]
	if !ok {
		return Square{}, fmt.Errorf("%w: piece %d", ErrPieceNotOnBoard, id)
	}
	return sq, nil
}

// Occupied lists the squares holding owner's pieces in row-major order.
func (b *Board) Occupied(owner PlayerColor) []Placement {
	var out []Placement
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			id := b.grid[row][col]
			if id != NoPiece && b.piece(id).Owner == owner {
				out = append(out, Placement{Square: At(row, col), ID: id})
			}
		}
	}
	return out
}

// MovePiece commits a move. It does nothing if from is empty or holds a
// piece of the player not on move; legality of to is the caller's concern.
func (b *Board) MovePiece(from, to Square) {
	id := b.GetPiece(from)
	if id == NoPiece {
		return
	}
	moving := b.piece(id)
	if moving.Owner != b.currentPlayer {
		return
	}

	switch moving.Type {
	case Pawn:
		b.recordPawnAdvancingTwoSquares(moving, from, to)
		b.checkEnPassantCapture(from, to)
		id = b.checkPromotion(id, moving, to)
	case King:
		moving.HasMoved = true
		b.handleCastle(from, to)
	case Rook:
		moving.HasMoved = true
	}

	b.SetPiece(to, id)
	b.SetPiece(from, NoPiece)
	b.currentPlayer = b.currentPlayer.Opponent()
	b.turnCount++
}

// MoveTo locates id and moves it to sq.
func (b *Board) MoveTo(id PieceID, sq Square) error {
	from, err := b.FindPiece(id)
	if err != nil {
		return err
	}
	b.MovePiece(from, sq)
	return nil
}

func (b *Board) recordPawnAdvancingTwoSquares(pawn *Piece, from, to Square) {
	if abs(to.Row-from.Row) == 2 {
		pawn.LastDoubleAdvanceTurn = b.turnCount
	}
}

// A pawn only moves diagonally to capture, so a diagonal step onto an empty
// square is en passant and the victim sits beside from.
func (b *Board) checkEnPassantCapture(from, to Square) {
	if abs(to.Row-from.Row) == 1 && abs(to.Col-from.Col) == 1 && b.GetPiece(to) == NoPiece {
		b.SetPiece(At(from.Row, to.Col), NoPiece)
	}
}

func (b *Board) checkPromotion(id PieceID, pawn *Piece, to Square) PieceID {
	if to.Row == 0 || to.Row == BoardSize-1 {
		return b.NewPiece(Queen, pawn.Owner)
	}
	return id
}

// handleCastle moves the rook for a two column king move. The rook is set
// directly on the grid, so its HasMoved flag is left alone.
func (b *Board) handleCastle(from, to Square) {
	var rookFrom, rookTo Square
	switch to.Col - from.Col {
	case -2:
		rookFrom, rookTo = At(from.Row, 0), At(from.Row, 3)
	case 2:
		rookFrom, rookTo = At(from.Row, BoardSize-1), At(from.Row, 5)
	default:
		return
	}
	rook := b.GetPiece(rookFrom)
	if rook == NoPiece {
		return
	}
	b.SetPiece(rookTo, rook)
	b.SetPiece(rookFrom, NoPiece)
}

// Clone returns a deep copy. Handles stay valid across the copy.
func (b *Board) Clone() *Board {
	c := &Board{
		grid:          b.grid,
		pieces:        make([]*Piece, len(b.pieces)),
		locations:     make(map[PieceID]Square, len(b.locations)),
		currentPlayer: b.currentPlayer,
		turnCount:     b.turnCount,
	}
	for i, p := range b.pieces {
		cp := *p
		c.pieces[i] = &cp
	}
	for id, sq := range b.locations {
		c.locations[id] = sq
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
