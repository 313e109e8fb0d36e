package ws

import (
	"encoding/json"

	"github.com/benbeisheim/chess-backend/internal/model"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeMove           MessageType = "move"
	MessageTypeAvailableMoves MessageType = "availableMoves"
	MessageTypeGameState      MessageType = "gameState"
	MessageTypeError          MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AvailableMovesRequest asks for the legal destinations of the piece on Square.
type AvailableMovesRequest struct {
	Square string `json:"square"`
}

// AvailableMovesResponse answers an AvailableMovesRequest.
type AvailableMovesResponse struct {
	Square string         `json:"square"`
	Moves  []model.Square `json:"moves"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
