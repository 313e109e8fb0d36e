package model

import "fmt"

type direction struct {
	dRow, dCol int
}

var (
	orthogonalDirs = []direction{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonalDirs   = []direction{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	kingDirs       = append(append([]direction{}, orthogonalDirs...), diagonalDirs...)
	knightDirs     = []direction{{2, 1}, {2, -1}, {-2, 1}, {-2, -1}, {1, 2}, {1, -2}, {-1, 2}, {-1, -2}}
)

type moveGenerator func(b *Board, p *Piece, from Square) []Square

var moveGenerators = map[PieceType]moveGenerator{
	Pawn:   pawnMoves,
	Knight: knightMoves,
	Bishop: bishopMoves,
	Rook:   rookMoves,
	Queen:  queenMoves,
	King:   kingMoves,
}

// AvailableMoves returns every pseudo-legal destination of the piece from
// where it stands. Whether the move exposes the mover's king is not checked.
func AvailableMoves(b *Board, id PieceID) ([]Square, error) {
	from, err := b.FindPiece(id)
	if err != nil {
		return nil, err
	}
	p := b.piece(id)
	gen, ok := moveGenerators[p.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPieceType, p.Type)
	}
	return gen(b, p, from), nil
}

// walk steps from start in one direction, stopping at the board edge or at
// the first occupied square, which is included only if it can be taken.
func walk(b *Board, p *Piece, start Square, dir direction, maxOneStep bool) []Square {
	var moves []Square
	sq := start.offset(dir.dRow, dir.dCol)
	for sq.InBounds() {
		if id := b.GetPiece(sq); id != NoPiece {
			if p.CanTake(*b.piece(id)) {
				moves = append(moves, sq)
			}
			break
		}
		moves = append(moves, sq)
		if maxOneStep {
			break
		}
		sq = sq.offset(dir.dRow, dir.dCol)
	}
	return moves
}

func walkAll(b *Board, p *Piece, start Square, dirs []direction, maxOneStep bool) []Square {
	var moves []Square
	for _, dir := range dirs {
		moves = append(moves, walk(b, p, start, dir, maxOneStep)...)
	}
	return moves
}

func bishopMoves(b *Board, p *Piece, from Square) []Square {
	return walkAll(b, p, from, diagonalDirs, false)
}

func rookMoves(b *Board, p *Piece, from Square) []Square {
	return walkAll(b, p, from, orthogonalDirs, false)
}

func queenMoves(b *Board, p *Piece, from Square) []Square {
	return append(bishopMoves(b, p, from), rookMoves(b, p, from)...)
}

func knightMoves(b *Board, p *Piece, from Square) []Square {
	return walkAll(b, p, from, knightDirs, true)
}

func kingMoves(b *Board, p *Piece, from Square) []Square {
	moves := walkAll(b, p, from, kingDirs, true)
	if !p.HasMoved {
		moves = append(moves, castlingMoves(b, p, from)...)
	}
	return moves
}

// castlingMoves checks occupancy and the moved flags only. Attacked squares
// are the rules package's concern.
func castlingMoves(b *Board, king *Piece, from Square) []Square {
	var moves []Square
	if canCastleWith(b, king, from.Row, 0, []int{1, 2, 3}) {
		moves = append(moves, At(from.Row, 2))
	}
	if canCastleWith(b, king, from.Row, BoardSize-1, []int{5, 6}) {
		moves = append(moves, At(from.Row, 6))
	}
	return moves
}

func canCastleWith(b *Board, king *Piece, row, rookCol int, between []int) bool {
	id := b.GetPiece(At(row, rookCol))
	if id == NoPiece {
		return false
	}
	rook := b.piece(id)
	if rook.Type != Rook || rook.Owner != king.Owner || rook.HasMoved {
		return false
	}
	for _, col := range between {
		if b.GetPiece(At(row, col)) != NoPiece {
			return false
		}
	}
	return true
}

func pawnMoves(b *Board, p *Piece, from Square) []Square {
	var moves []Square
	dir := p.Owner.forward()
	oneStep := from.offset(dir, 0)
	if !oneStep.InBounds() {
		return moves
	}

	for _, dCol := range []int{-1, 1} {
		target := from.offset(dir, dCol)
		if !target.InBounds() {
			continue
		}
		if id := b.GetPiece(target); id != NoPiece && p.CanTake(*b.piece(id)) {
			moves = append(moves, target)
		}
	}

	for _, dCol := range []int{-1, 1} {
		beside := from.offset(0, dCol)
		if !beside.InBounds() {
			continue
		}
		id := b.GetPiece(beside)
		if id == NoPiece {
			continue
		}
		other := b.piece(id)
		if other.Type == Pawn && other.Owner != p.Owner && other.LastDoubleAdvanceTurn == b.turnCount-1 {
			moves = append(moves, beside.offset(dir, 0))
		}
	}

	if b.GetPiece(oneStep) != NoPiece {
		return moves
	}
	moves = append(moves, oneStep)

	twoStep := oneStep.offset(dir, 0)
	if from.Row == p.Owner.pawnHomeRow() && b.GetPiece(twoStep) == NoPiece {
		moves = append(moves, twoStep)
	}
	return moves
}
