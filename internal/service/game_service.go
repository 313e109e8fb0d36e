package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/benbeisheim/chess-backend/internal/game"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/setup"
	"github.com/benbeisheim/chess-backend/internal/ws"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.PlayerColor, error) {
	return gs.gameManager.AddPlayerToGame(gameID, playerID)
}

// CreateGame starts a game from fen, or from the standard position when fen
// is empty, and returns its id.
func (gs *GameService) CreateGame(fen string) (string, error) {
	board := setup.StandardPosition()
	if fen = strings.TrimSpace(fen); fen != "" {
		var err error
		if board, err = setup.FromFEN(fen); err != nil {
			return "", err
		}
	}

	gameID := uuid.New().String()
	if err := gs.gameManager.CreateGame(gameID, board); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}
	return gameID, nil
}

func (gs *GameService) ListGames() []string {
	return gs.gameManager.GameIDs()
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

// ClaimMatch returns a match made for the player while no matchmaking socket
// was open to announce it.
func (gs *GameService) ClaimMatch(playerID string) (MatchFoundEvent, bool) {
	return gs.gameManager.ClaimMatch(playerID)
}

// LeaveMatchmaking removes a player who is still waiting for an opponent.
func (gs *GameService) LeaveMatchmaking(playerID string) bool {
	return gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) GetGameState(gameID string) (game.GameState, error) {
	g, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return game.GameState{}, err
	}
	return g.GetState(), nil
}

// AvailableMoves returns the legal destinations of the piece on square, given
// in algebraic notation.
func (gs *GameService) AvailableMoves(gameID string, square string) ([]model.Square, error) {
	g, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	from, err := model.ParseSquare(square)
	if err != nil {
		return nil, err
	}
	return g.AvailableMoves(from)
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.MoveRequest) error {
	g, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	if err := g.MakeMove(playerID, move); err != nil {
		return fmt.Errorf("move %s-%s: %w", move.From, move.To, err)
	}
	return nil
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn game.Conn) error {
	g, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return g.RegisterConnection(playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn game.Conn) {
	g, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return
	}
	g.UnregisterConnection(playerID, conn)
}

// SendTo writes a message on the player's socket in gameID.
func (gs *GameService) SendTo(gameID, playerID string, msgType ws.MessageType, v interface{}) error {
	g, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return g.SendTo(playerID, msgType, v)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	return gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}
