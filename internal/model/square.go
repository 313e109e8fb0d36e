package model

import (
	"fmt"
	"strings"
)

const BoardSize = 8

// Square is a (row, column) coordinate. Row 0 is white's back rank.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func At(row, col int) Square {
	return Square{Row: row, Col: col}
}

func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < BoardSize && s.Col >= 0 && s.Col < BoardSize
}

func (s Square) offset(dRow, dCol int) Square {
	return Square{Row: s.Row + dRow, Col: s.Col + dCol}
}

// String returns the algebraic name of the square, e.g. "e4".
func (s Square) String() string {
	return fmt.Sprintf("%s%d", s.File(), s.Row+1)
}

// File returns the file letter of the square.
func (s Square) File() string {
	return fmt.Sprintf("%c", s.Col+'a')
}

// ParseSquare reads an algebraic square name such as "e2".
func ParseSquare(name string) (Square, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrOutOfBounds, name)
	}
	sq := At(int(name[1]-'1'), int(name[0]-'a'))
	if !sq.InBounds() {
		return Square{}, fmt.Errorf("%w: %q", ErrOutOfBounds, name)
	}
	return sq, nil
}
