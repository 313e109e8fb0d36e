package setup

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/benbeisheim/chess-backend/internal/model"
)

// snapshot flattens a board into comparable piece state, ignoring handles.
func snapshot(b *model.Board) map[string]model.Piece {
	out := make(map[string]model.Piece)
	for row := 0; row < model.BoardSize; row++ {
		for col := 0; col < model.BoardSize; col++ {
			if p, ok := b.PieceAt(model.At(row, col)); ok {
				out[model.At(row, col).String()] = p
			}
		}
	}
	return out
}

func TestStandardPosition(t *testing.T) {
	b := StandardPosition()

	if b.CurrentPlayer() != model.PlayerColorWhite || b.TurnCount() != 1 {
		t.Errorf("turn = %s/%d, want white/1", b.CurrentPlayer(), b.TurnCount())
	}
	if n := len(b.Occupied(model.PlayerColorWhite)); n != 16 {
		t.Errorf("white has %d pieces", n)
	}
	if n := len(b.Occupied(model.PlayerColorBlack)); n != 16 {
		t.Errorf("black has %d pieces", n)
	}

	tests := []struct {
		sq   string
		want model.Piece
	}{
		{"e1", model.Piece{Type: model.King, Owner: model.PlayerColorWhite}},
		{"d8", model.Piece{Type: model.Queen, Owner: model.PlayerColorBlack}},
		{"g1", model.Piece{Type: model.Knight, Owner: model.PlayerColorWhite}},
		{"a8", model.Piece{Type: model.Rook, Owner: model.PlayerColorBlack}},
		{"c2", model.Piece{Type: model.Pawn, Owner: model.PlayerColorWhite, LastDoubleAdvanceTurn: model.NeverAdvancedTwo}},
		{"h7", model.Piece{Type: model.Pawn, Owner: model.PlayerColorBlack, LastDoubleAdvanceTurn: model.NeverAdvancedTwo}},
	}
	got := snapshot(b)
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, got[tt.sq]); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", tt.sq, diff)
		}
	}
}

func TestFromFENStartMatchesStandardPosition(t *testing.T) {
	b, err := FromFEN(StartFEN)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(snapshot(StandardPosition()), snapshot(b)); diff != "" {
		t.Errorf("start position mismatch (-want +got):\n%s", diff)
	}
	if b.CurrentPlayer() != model.PlayerColorWhite || b.TurnCount() != 1 {
		t.Errorf("turn = %s/%d, want white/1", b.CurrentPlayer(), b.TurnCount())
	}
}

func TestFromFENTurn(t *testing.T) {
	tests := []struct {
		fen      string
		toMove   model.PlayerColor
		wantTurn int
	}{
		{"4k3/8/8/8/8/8/8/4K3 w - - 0 1", model.PlayerColorWhite, 1},
		{"4k3/8/8/8/8/8/8/4K3 b - - 0 1", model.PlayerColorBlack, 2},
		{"4k3/8/8/8/8/8/8/4K3 b - - 4 3", model.PlayerColorBlack, 6},
		{"4k3/8/8/8/8/8/8/4K3 w - -", model.PlayerColorWhite, 1},
	}
	for _, tt := range tests {
		t.Run(tt.fen, func(t *testing.T) {
			b, err := FromFEN(tt.fen)
			if err != nil {
				t.Fatal(err)
			}
			if b.CurrentPlayer() != tt.toMove || b.TurnCount() != tt.wantTurn {
				t.Errorf("turn = %s/%d, want %s/%d", b.CurrentPlayer(), b.TurnCount(), tt.toMove, tt.wantTurn)
			}
		})
	}
}

func TestFromFENCastlingRights(t *testing.T) {
	b, err := FromFEN("r3k2r/8/8/8/8/8/8/R3K2R w Kq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{
		"e1": false, "h1": false, "a1": true,
		"e8": false, "a8": false, "h8": true,
	}
	got := make(map[string]bool)
	for name := range want {
		sq, _ := model.ParseSquare(name)
		p, ok := b.PieceAt(sq)
		if !ok {
			t.Fatalf("no piece on %s", name)
		}
		got[name] = p.HasMoved
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HasMoved mismatch (-want +got):\n%s", diff)
	}
}

func TestFromFENEnPassant(t *testing.T) {
	b, err := FromFEN("rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3")
	if err != nil {
		t.Fatal(err)
	}
	f5, _ := b.PieceAt(model.At(4, 5))
	if f5.LastDoubleAdvanceTurn != b.TurnCount()-1 {
		t.Errorf("f5 LastDoubleAdvanceTurn = %d, turn %d", f5.LastDoubleAdvanceTurn, b.TurnCount())
	}
	d5, _ := b.PieceAt(model.At(4, 3))
	if d5.LastDoubleAdvanceTurn != model.NeverAdvancedTwo {
		t.Errorf("d5 LastDoubleAdvanceTurn = %d", d5.LastDoubleAdvanceTurn)
	}

	moves, err := model.AvailableMoves(b, b.GetPiece(model.At(4, 4)))
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, sq := range moves {
		if sq == model.At(5, 5) {
			found = true
		}
	}
	if !found {
		t.Errorf("e5 pawn moves %v lack exf6", moves)
	}
}

func TestFromFENBlackEnPassant(t *testing.T) {
	b, err := FromFEN("4k3/8/8/8/3Pp3/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatal(err)
	}
	d4, _ := b.PieceAt(model.At(3, 3))
	if d4.LastDoubleAdvanceTurn != b.TurnCount()-1 {
		t.Errorf("d4 LastDoubleAdvanceTurn = %d, turn %d", d4.LastDoubleAdvanceTurn, b.TurnCount())
	}
}

func TestFromFENErrors(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"empty", ""},
		{"too few fields", "4k3/8/8/8/8/8/8/4K3 w"},
		{"too few ranks", "8/8/8 w - - 0 1"},
		{"bad castling letter", "4k3/8/8/8/8/8/8/4K3 w X - 0 1"},
		{"castling without rook", "4k3/8/8/8/8/8/8/4K3 w K - 0 1"},
		{"castling right for displaced king", "4k3/8/8/8/8/8/8/R2K3R w Q - 0 1"},
		{"en passant without pawn", "4k3/8/8/8/8/8/8/4K3 w - e6 0 1"},
		{"en passant off the board", "4k3/8/8/8/8/8/8/4K3 w - e9 0 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromFEN(tt.fen); !errors.Is(err, ErrInvalidFEN) {
				t.Errorf("FromFEN(%q): err = %v, want ErrInvalidFEN", tt.fen, err)
			}
		})
	}
}
