package model

type Player struct {
	ID    string
	Color PlayerColor
}

type ClientPlayer struct {
	ID       string      `json:"name"`
	Color    PlayerColor `json:"color"`
	TimeLeft int         `json:"timeLeft"`
}

type PlayerColor string

const (
	PlayerColorWhite PlayerColor = "white"
	PlayerColorBlack PlayerColor = "black"
)

func (c PlayerColor) Opponent() PlayerColor {
	if c == PlayerColorWhite {
		return PlayerColorBlack
	}
	return PlayerColorWhite
}

// forward is the row step of this colour's pawns.
func (c PlayerColor) forward() int {
	if c == PlayerColorWhite {
		return 1
	}
	return -1
}

// pawnHomeRow is the row a pawn may double-advance from.
func (c PlayerColor) pawnHomeRow() int {
	if c == PlayerColorWhite {
		return 1
	}
	return BoardSize - 2
}
