// Package setup populates boards: the standard opening array, or any
// position given in Forsyth-Edwards Notation.
package setup

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/dylhunn/dragontoothmg"

	"github.com/benbeisheim/chess-backend/internal/model"
)

var ErrInvalidFEN = errors.New("invalid FEN string")

// StartFEN is the standard starting position.
const StartFEN = dragontoothmg.Startpos

var backRank = []model.PieceType{
	model.Rook, model.Knight, model.Bishop, model.Queen,
	model.King, model.Bishop, model.Knight, model.Rook,
}

// StandardPosition returns a fresh board in the opening array, white to move.
func StandardPosition() *model.Board {
	b := model.NewBoard(model.PlayerColorWhite)
	for col, pieceType := range backRank {
		b.Place(model.At(0, col), pieceType, model.PlayerColorWhite)
		b.Place(model.At(1, col), model.Pawn, model.PlayerColorWhite)
		b.Place(model.At(6, col), model.Pawn, model.PlayerColorBlack)
		b.Place(model.At(7, col), pieceType, model.PlayerColorBlack)
	}
	return b
}

type position struct {
	toMove    model.PlayerColor
	turn      int
	unmoved   map[model.Square]bool // kings and rooks holding a castling right
	enPassant *model.Square         // pawn that just advanced two squares
}

// FromFEN builds a board from a FEN record. Kings and rooks count as unmoved
// only when the castling field grants them a right, and the pawn behind the
// en passant square is stamped as having advanced two squares last turn.
func FromFEN(fen string) (*model.Board, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: want at least 4 fields, got %d", ErrInvalidFEN, len(fields))
	}
	if strings.Count(fields[0], "/") != model.BoardSize-1 {
		return nil, fmt.Errorf("%w: bad piece placement %q", ErrInvalidFEN, fields[0])
	}
	// the move counters are optional here but not to the parser
	padded := append(fields[:4:4], "0", "1")
	if len(fields) >= 6 {
		padded = fields[:6]
	}
	parsed, err := parseFen(strings.Join(padded, " "))
	if err != nil {
		return nil, err
	}

	pos := position{toMove: model.PlayerColorBlack, unmoved: map[model.Square]bool{}}
	if parsed.Wtomove {
		pos.toMove = model.PlayerColorWhite
	}
	fullMove := 1
	if len(fields) >= 6 {
		if n, err := strconv.Atoi(fields[5]); err == nil && n > 0 {
			fullMove = n
		}
	}
	pos.turn = 2*(fullMove-1) + 1
	if pos.toMove == model.PlayerColorBlack {
		pos.turn++
	}
	if err := pos.readCastling(fields[2]); err != nil {
		return nil, err
	}
	if err := pos.readEnPassant(fields[3]); err != nil {
		return nil, err
	}

	b := model.NewBoard(pos.toMove)
	b.SetTurn(pos.toMove, pos.turn)
	pos.placeSide(b, &parsed.White, model.PlayerColorWhite)
	pos.placeSide(b, &parsed.Black, model.PlayerColorBlack)
	if err := pos.verify(b); err != nil {
		return nil, err
	}
	return b, nil
}

// parseFen shields callers from the panics dragontoothmg raises on
// malformed input.
func parseFen(fen string) (parsed dragontoothmg.Board, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidFEN, r)
		}
	}()
	return dragontoothmg.ParseFen(fen), nil
}

func (pos *position) readCastling(field string) error {
	if field == "-" {
		return nil
	}
	last := model.BoardSize - 1
	for _, r := range field {
		switch r {
		case 'K':
			pos.unmoved[model.At(0, 4)], pos.unmoved[model.At(0, last)] = true, true
		case 'Q':
			pos.unmoved[model.At(0, 4)], pos.unmoved[model.At(0, 0)] = true, true
		case 'k':
			pos.unmoved[model.At(last, 4)], pos.unmoved[model.At(last, last)] = true, true
		case 'q':
			pos.unmoved[model.At(last, 4)], pos.unmoved[model.At(last, 0)] = true, true
		default:
			return fmt.Errorf("%w: bad castling field %q", ErrInvalidFEN, field)
		}
	}
	return nil
}

func (pos *position) readEnPassant(field string) error {
	if field == "-" {
		return nil
	}
	target, err := model.ParseSquare(field)
	if err != nil {
		return fmt.Errorf("%w: bad en passant square %q", ErrInvalidFEN, field)
	}
	// the pawn that skipped target stands one row past it, seen from its side
	row := target.Row + 1
	if pos.toMove == model.PlayerColorWhite {
		row = target.Row - 1
	}
	pawnSq := model.At(row, target.Col)
	if !pawnSq.InBounds() {
		return fmt.Errorf("%w: bad en passant square %q", ErrInvalidFEN, field)
	}
	pos.enPassant = &pawnSq
	return nil
}

func (pos *position) placeSide(b *model.Board, bb *dragontoothmg.Bitboards, owner model.PlayerColor) {
	sets := []struct {
		board     uint64
		pieceType model.PieceType
	}{
		{bb.Pawns, model.Pawn},
		{bb.Knights, model.Knight},
		{bb.Bishops, model.Bishop},
		{bb.Rooks, model.Rook},
		{bb.Queens, model.Queen},
		{bb.Kings, model.King},
	}
	for _, set := range sets {
		for x := set.board; x != 0; x &= x - 1 {
			idx := bits.TrailingZeros64(x)
			sq := model.At(idx/model.BoardSize, idx%model.BoardSize)
			p := model.Piece{Type: set.pieceType, Owner: owner}
			switch set.pieceType {
			case model.Pawn:
				p.LastDoubleAdvanceTurn = model.NeverAdvancedTwo
				if pos.enPassant != nil && *pos.enPassant == sq {
					p.LastDoubleAdvanceTurn = pos.turn - 1
				}
			case model.King, model.Rook:
				p.HasMoved = !pos.unmoved[sq]
			}
			b.SetPiece(sq, b.AddPiece(p))
		}
	}
}

// verify checks that castling rights and the en passant square name pieces
// that are actually there.
func (pos *position) verify(b *model.Board) error {
	for sq := range pos.unmoved {
		p, ok := b.PieceAt(sq)
		if !ok || (p.Type != model.King && p.Type != model.Rook) {
			return fmt.Errorf("%w: castling right without king and rook on %s", ErrInvalidFEN, sq)
		}
		home := model.PlayerColorWhite
		if sq.Row != 0 {
			home = model.PlayerColorBlack
		}
		if p.Owner != home {
			return fmt.Errorf("%w: castling right for wrong colour piece on %s", ErrInvalidFEN, sq)
		}
	}
	if pos.enPassant != nil {
		p, ok := b.PieceAt(*pos.enPassant)
		if !ok || p.Type != model.Pawn || p.Owner == pos.toMove {
			return fmt.Errorf("%w: no pawn behind en passant square", ErrInvalidFEN)
		}
	}
	return nil
}
