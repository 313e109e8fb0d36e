package controller

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"

	"github.com/benbeisheim/chess-backend/internal/game"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/benbeisheim/chess-backend/internal/ws"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID, _ := c.Locals("playerID").(string)

	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		log.Warnf("game %s: failed to register connection for %s: %v", gameID, playerID, err)
		if errors.Is(err, game.ErrDuplicateConnection) {
			c.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, err.Error()),
			)
		}
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, c)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debugf("game %s: read from %s: %v", gameID, playerID, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debugf("game %s: parse error from %s: %v", gameID, playerID, err)
			continue
		}
		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			log.Debugf("game %s: handle %s from %s: %v", gameID, msg.Type, playerID, err)
			wsc.sendError(gameID, playerID, err)
		}
	}
}

func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.MoveRequest
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return err
		}
		return wsc.gameService.HandleMove(gameID, playerID, move)

	case ws.MessageTypeAvailableMoves:
		var req ws.AvailableMovesRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return err
		}
		moves, err := wsc.gameService.AvailableMoves(gameID, req.Square)
		if err != nil {
			return err
		}
		return wsc.gameService.SendTo(gameID, playerID, ws.MessageTypeAvailableMoves, ws.AvailableMovesResponse{
			Square: req.Square,
			Moves:  moves,
		})

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

func (wsc *WebSocketController) sendError(gameID, playerID string, err error) {
	if sendErr := wsc.gameService.SendTo(gameID, playerID, ws.MessageTypeError, ws.ErrorPayload{Error: err.Error()}); sendErr != nil {
		log.Warnf("game %s: could not report error to %s: %v", gameID, playerID, sendErr)
	}
}

// HandleMatchmaking queues the player and holds the socket open until a
// match event arrives, which is forwarded as a text frame. A match already
// made for the player is sent straight away.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID, _ := c.Locals("playerID").(string)
	defer c.Close()

	ch := make(chan string, 1)
	if err := wsc.gameService.RegisterMatchmakingChannel(playerID, ch); err != nil {
		log.Warnf("matchmaking: register %s: %v", playerID, err)
		return
	}
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, ch)

	if event, ok := wsc.gameService.ClaimMatch(playerID); ok {
		if err := c.WriteMessage(websocket.TextMessage, mustPayload(event)); err != nil {
			log.Debugf("matchmaking: notify %s: %v", playerID, err)
		}
		return
	}

	if err := wsc.gameService.JoinMatchmaking(playerID); err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		c.WriteJSON(ws.Message{Type: ws.MessageTypeError, Payload: mustPayload(ws.ErrorPayload{Error: err.Error()})})
		return
	}

	// a read failure means the client went away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			return
		}
		if err := c.WriteMessage(websocket.TextMessage, []byte(event)); err != nil {
			log.Debugf("matchmaking: notify %s: %v", playerID, err)
		}
	case <-gone:
		log.Debugf("matchmaking: %s disconnected while queued", playerID)
		wsc.gameService.LeaveMatchmaking(playerID)
	}
}

func mustPayload(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
