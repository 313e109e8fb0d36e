package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/exp/maps"

	"github.com/benbeisheim/chess-backend/internal/ws"
)

var (
	ErrNotAuthorized       = errors.New("not authorized to join this game")
	ErrDuplicateConnection = errors.New("connection already exists")
)

// Conn is the part of a websocket connection a game writes to.
type Conn interface {
	WriteJSON(v interface{}) error
}

// The connections for a specific game
type GameConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.RWMutex
	writeMu     sync.Mutex // sockets allow one writer at a time
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]Conn),
	}
}

// RegisterConnection attaches a player's socket and pushes the current
// state to everyone. A second socket for the same player is refused.
func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, inGame := g.colorOf(playerID); !inGame && !g.canSpectate() {
		return ErrNotAuthorized
	}

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		g.connections.mu.Unlock()
		return ErrDuplicateConnection
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()
	log.Infof("game %s: registered connection %p for player %s", g.ID, conn, playerID)

	g.publish()
	return nil
}

// UnregisterConnection drops conn, but only if it is still the player's
// current connection.
func (g *Game) UnregisterConnection(playerID string, conn Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if current, exists := g.connections.connections[playerID]; exists && current == conn {
		log.Infof("game %s: unregistering connection %p for player %s", g.ID, conn, playerID)
		delete(g.connections.connections, playerID)
	}
}

func (g *Game) ConnectionCount() int {
	g.connections.mu.RLock()
	defer g.connections.mu.RUnlock()
	return len(g.connections.connections)
}

// publish sends the current state to every socket without blocking the
// caller. It must be called with g.mu held: writeMu is taken before g.mu is
// released, so states go out in the order moves were made.
func (g *Game) publish() {
	state := g.snapshot()
	g.connections.writeMu.Lock()
	go func() {
		defer g.connections.writeMu.Unlock()
		g.writeState(state)
	}()
}

func (g *Game) broadcastState(state GameState) {
	g.connections.writeMu.Lock()
	defer g.connections.writeMu.Unlock()
	g.writeState(state)
}

// writeState needs writeMu held.
func (g *Game) writeState(state GameState) {
	payload, err := json.Marshal(state)
	if err != nil {
		log.Errorf("game %s: marshal state: %v", g.ID, err)
		return
	}
	msg := ws.Message{Type: ws.MessageTypeGameState, Payload: payload}

	g.connections.mu.RLock()
	active := maps.Clone(g.connections.connections)
	g.connections.mu.RUnlock()

	for playerID, conn := range active {
		if err := conn.WriteJSON(msg); err != nil {
			log.Warnf("game %s: failed to send state to player %s: %v", g.ID, playerID, err)
			g.UnregisterConnection(playerID, conn)
			continue
		}
		log.Debugf("game %s: sent state to player %s", g.ID, playerID)
	}
}

// SendTo writes a message to one player's connection, if any.
func (g *Game) SendTo(playerID string, msgType ws.MessageType, v interface{}) error {
	g.connections.mu.RLock()
	conn, ok := g.connections.connections[playerID]
	g.connections.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no connection for player %s", playerID)
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	g.connections.writeMu.Lock()
	defer g.connections.writeMu.Unlock()
	return conn.WriteJSON(ws.Message{Type: msgType, Payload: payload})
}
