package game

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/exp/slices"

	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/rules"
)

const (
	ResolveCheckmate = "checkmate"
	ResolveStalemate = "stalemate"
	ResolveTimeout   = "timeout"
)

// The Game struct focuses on a single game's state and its observers
type Game struct {
	ID          string
	mu          sync.Mutex
	board       *model.Board
	state       GameState
	connections *GameConnections
	whiteClock  *model.Clock
	blackClock  *model.Clock
}

type GameState struct {
	Sound          string                                         `json:"sound"`
	Board          [model.BoardSize][model.BoardSize]*model.Piece `json:"boardState"`
	ToMove         model.PlayerColor                              `json:"toMove"`
	TurnCount      int                                            `json:"turnCount"`
	MoveHistory    []model.Move                                   `json:"moveHistory"`
	CapturedPieces CapturedPieces                                 `json:"capturedPieces"`
	Status         rules.GameStatus                               `json:"status"`
	IsCheck        bool                                           `json:"isCheck"`
	Resolve        *string                                        `json:"resolve"` // nil while the game runs
	Players        Players                                        `json:"players"`
	LastMove       *model.SimpleMove                              `json:"lastMove"`
}

type Players struct {
	White model.ClientPlayer `json:"white"`
	Black model.ClientPlayer `json:"black"`
}

type CapturedPieces struct {
	White []model.Piece `json:"white"`
	Black []model.Piece `json:"black"`
}

// NewGame wraps board in a session. Each side gets clockTime on its clock.
func NewGame(id string, board *model.Board, clockTime time.Duration) *Game {
	g := &Game{
		ID:          id,
		board:       board,
		connections: NewGameConnections(),
		whiteClock:  model.NewClock(clockTime),
		blackClock:  model.NewClock(clockTime),
	}
	g.state = GameState{
		MoveHistory: make([]model.Move, 0),
		CapturedPieces: CapturedPieces{
			White: make([]model.Piece, 0),
			Black: make([]model.Piece, 0),
		},
		Status: rules.StatusOngoing,
		Players: Players{
			White: model.ClientPlayer{Color: model.PlayerColorWhite},
			Black: model.ClientPlayer{Color: model.PlayerColorBlack},
		},
	}
	g.refreshStatus()
	return g
}

func (g *Game) AddPlayer(playerID string) (model.PlayerColor, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if color, ok := g.colorOf(playerID); ok {
		return color, nil
	}
	if g.state.Players.White.ID == "" {
		g.state.Players.White.ID = playerID
		log.Infof("game %s: %s joined as white", g.ID, playerID)
		return model.PlayerColorWhite, nil
	}
	if g.state.Players.Black.ID == "" {
		g.state.Players.Black.ID = playerID
		log.Infof("game %s: %s joined as black", g.ID, playerID)
		return model.PlayerColorBlack, nil
	}
	return "", model.ErrGameFull
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.snapshot()
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.colorOf(playerID)
	return ok
}

func (g *Game) colorOf(playerID string) (model.PlayerColor, bool) {
	switch {
	case playerID == "":
		return "", false
	case g.state.Players.White.ID == playerID:
		return model.PlayerColorWhite, true
	case g.state.Players.Black.ID == playerID:
		return model.PlayerColorBlack, true
	}
	return "", false
}

func (g *Game) canSpectate() bool {
	return g.state.Players.White.ID == "" || g.state.Players.Black.ID == ""
}

// AvailableMoves returns the legal destinations of the piece on from.
func (g *Game) AvailableMoves(from model.Square) ([]model.Square, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !from.InBounds() {
		return nil, model.ErrOutOfBounds
	}
	id := g.board.GetPiece(from)
	if id == model.NoPiece {
		return nil, model.ErrNoPiece
	}
	return rules.LegalMoves(g.board, id)
}

func (g *Game) MakeMove(playerID string, move model.MoveRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	log.Debugf("game %s: %s plays %s-%s", g.ID, playerID, move.From, move.To)

	if g.state.Resolve != nil {
		return model.ErrGameOver
	}
	if err := g.validateMove(playerID, move); err != nil {
		return err
	}

	mover := g.board.CurrentPlayer()
	moverClock, opponentClock := g.clocks(mover)
	moverClock.Stop()
	if moverClock.GetTimeLeft() <= 0 {
		g.resolve(ResolveTimeout)
		g.publish()
		return model.ErrGameOver
	}

	g.executeMove(move)
	opponentClock.Start()

	g.state.Players.White.TimeLeft = g.whiteClock.Tenths()
	g.state.Players.Black.TimeLeft = g.blackClock.Tenths()

	g.publish()
	return nil
}

func (g *Game) validateMove(playerID string, move model.MoveRequest) error {
	if !move.From.InBounds() || !move.To.InBounds() {
		return model.ErrOutOfBounds
	}
	color, ok := g.colorOf(playerID)
	if !ok {
		return model.ErrNotInGame
	}
	id := g.board.GetPiece(move.From)
	if id == model.NoPiece {
		return model.ErrNoPiece
	}
	if color != g.board.CurrentPlayer() || g.board.Piece(id).Owner != color {
		return model.ErrNotYourTurn
	}
	legal, err := rules.LegalMoves(g.board, id)
	if err != nil {
		return err
	}
	if !slices.Contains(legal, move.To) {
		return model.ErrIllegalMove
	}
	return nil
}

func (g *Game) executeMove(move model.MoveRequest) {
	ply := g.makePly(move)
	mover := g.board.CurrentPlayer()

	g.board.MovePiece(move.From, move.To)

	if ply.CapturedPiece != nil {
		g.addCaptured(mover, *ply.CapturedPiece)
		g.state.Sound = "capture"
	} else {
		g.state.Sound = "move"
	}

	g.refreshStatus()
	switch g.state.Status {
	case rules.StatusCheckmate:
		ply.Notation += "#"
	case rules.StatusCheck:
		ply.Notation += "+"
		g.state.Sound = "check"
	}

	if mover == model.PlayerColorWhite {
		g.state.MoveHistory = append(g.state.MoveHistory, model.Move{WhitePly: &ply})
	} else {
		lastIdx := len(g.state.MoveHistory) - 1
		if lastIdx < 0 || g.state.MoveHistory[lastIdx].BlackPly != nil {
			// position loaded with black to move
			g.state.MoveHistory = append(g.state.MoveHistory, model.Move{})
			lastIdx++
		}
		g.state.MoveHistory[lastIdx].BlackPly = &ply
	}
	g.state.LastMove = &model.SimpleMove{From: move.From, To: move.To}
}

// refreshStatus recomputes check and game-over for the side to move.
func (g *Game) refreshStatus() {
	status, err := rules.Status(g.board)
	if err != nil {
		log.Errorf("game %s: status: %v", g.ID, err)
		return
	}
	g.state.Status = status
	g.state.IsCheck = status == rules.StatusCheck || status == rules.StatusCheckmate
	switch status {
	case rules.StatusCheckmate:
		g.resolve(ResolveCheckmate)
	case rules.StatusStalemate:
		g.resolve(ResolveStalemate)
	}
}

func (g *Game) resolve(result string) {
	g.state.Resolve = &result
	g.whiteClock.Stop()
	g.blackClock.Stop()
	log.Infof("game %s: resolved by %s", g.ID, result)
}

func (g *Game) clocks(mover model.PlayerColor) (*model.Clock, *model.Clock) {
	if mover == model.PlayerColorWhite {
		return g.whiteClock, g.blackClock
	}
	return g.blackClock, g.whiteClock
}

func (g *Game) addCaptured(by model.PlayerColor, p model.Piece) {
	if by == model.PlayerColorWhite {
		g.state.CapturedPieces.White = append(g.state.CapturedPieces.White, p)
	} else {
		g.state.CapturedPieces.Black = append(g.state.CapturedPieces.Black, p)
	}
}

// snapshot copies the state for readers outside the lock.
func (g *Game) snapshot() GameState {
	s := g.state
	for row := 0; row < model.BoardSize; row++ {
		for col := 0; col < model.BoardSize; col++ {
			if p, ok := g.board.PieceAt(model.At(row, col)); ok {
				s.Board[row][col] = &p
			} else {
				s.Board[row][col] = nil
			}
		}
	}
	s.ToMove = g.board.CurrentPlayer()
	s.TurnCount = g.board.TurnCount()
	s.MoveHistory = slices.Clone(g.state.MoveHistory)
	s.CapturedPieces.White = slices.Clone(g.state.CapturedPieces.White)
	s.CapturedPieces.Black = slices.Clone(g.state.CapturedPieces.Black)
	s.Players.White.TimeLeft = g.whiteClock.Tenths()
	s.Players.Black.TimeLeft = g.blackClock.Tenths()
	return s
}
