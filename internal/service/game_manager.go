// service/game_manager.go
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/benbeisheim/chess-backend/internal/game"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/setup"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

type MatchFoundEvent struct {
	GameID string            `json:"gameId"`
	Color  model.PlayerColor `json:"color"`
}

type GameManager struct {
	games            map[string]*game.Game
	queue            *model.Queue
	matchingChannels map[string]chan string
	unclaimed        map[string]MatchFoundEvent
	clockTime        time.Duration
	mu               sync.RWMutex
	done             chan struct{}
	closeOnce        sync.Once
}

// NewGameManager starts a matchmaking loop that pairs queued players every
// matchInterval. Close stops it.
func NewGameManager(clockTime, matchInterval time.Duration) *GameManager {
	gm := &GameManager{
		games:            make(map[string]*game.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		unclaimed:        make(map[string]MatchFoundEvent),
		clockTime:        clockTime,
		done:             make(chan struct{}),
	}

	go gm.processMatchmaking(matchInterval)

	return gm
}

func (gm *GameManager) Close() {
	gm.closeOnce.Do(func() { close(gm.done) })
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	log.Debugf("registering matchmaking channel for player %s", playerID)

	if existingCh, exists := gm.matchingChannels[playerID]; exists {
		delete(gm.matchingChannels, playerID)
		close(existingCh)
	}

	gm.matchingChannels[playerID] = ch
	return nil
}

// UnregisterMatchmakingChannel drops ch if it is still the player's current
// channel. The channel's creator closes it.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, ok := gm.matchingChannels[playerID]; ok && current == ch {
		log.Debugf("unregistering matchmaking channel for player %s", playerID)
		delete(gm.matchingChannels, playerID)
	}
}

func (gm *GameManager) processMatchmaking(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-gm.done:
			return
		case <-ticker.C:
			gm.matchPlayers()
		}
	}
}

// matchPlayers pairs everyone currently queued.
func (gm *GameManager) matchPlayers() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for {
		player1, player2, ok := gm.queue.GetNextPair()
		if !ok {
			return
		}

		gameID := uuid.New().String()
		g := game.NewGame(gameID, setup.StandardPosition(), gm.clockTime)
		p1Color, err := g.AddPlayer(player1.ID)
		if err != nil {
			log.Errorf("matchmaking: adding player %s: %v", player1.ID, err)
			continue
		}
		p2Color, err := g.AddPlayer(player2.ID)
		if err != nil {
			log.Errorf("matchmaking: adding player %s: %v", player2.ID, err)
			continue
		}
		gm.games[gameID] = g
		log.Infof("matchmaking: %s vs %s in game %s", player1.ID, player2.ID, gameID)

		sent1 := gm.notifyMatch(player1.ID, MatchFoundEvent{GameID: gameID, Color: p1Color})
		sent2 := gm.notifyMatch(player2.ID, MatchFoundEvent{GameID: gameID, Color: p2Color})
		if !sent1 || !sent2 {
			log.Debugf("matchmaking: game %s held for players without a channel", gameID)
		}
	}
}

// notifyMatch sends the event and retires the player's channel. A player
// with no open channel gets the event held until ClaimMatch.
func (gm *GameManager) notifyMatch(playerID string, event MatchFoundEvent) bool {
	ch, ok := gm.matchingChannels[playerID]
	if ok {
		select {
		case ch <- mustJSON(event):
			delete(gm.matchingChannels, playerID)
			close(ch)
			return true
		default:
		}
	}
	gm.unclaimed[playerID] = event
	return false
}

// ClaimMatch hands over a match made while the player had no channel open.
// Each match is handed over once.
func (gm *GameManager) ClaimMatch(playerID string) (MatchFoundEvent, bool) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	event, ok := gm.unclaimed[playerID]
	if ok {
		delete(gm.unclaimed, playerID)
	}
	return event, ok
}

func mustJSON(v interface{}) string {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

// CreateGame registers a game on board under gameID.
func (gm *GameManager) CreateGame(gameID string, board *model.Board) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return ErrGameExists
	}

	gm.games[gameID] = game.NewGame(gameID, board, gm.clockTime)
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*game.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	g, exists := gm.games[gameID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return g, nil
}

// GameIDs lists every known game, sorted.
func (gm *GameManager) GameIDs() []string {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	ids := maps.Keys(gm.games)
	slices.Sort(ids)
	return ids
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.PlayerColor, error) {
	g, err := gm.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return g.AddPlayer(playerID)
}

// JoinMatchmaking queues the player. A held match the player never claimed
// is dropped.
func (gm *GameManager) JoinMatchmaking(playerID string) error {
	gm.mu.Lock()
	delete(gm.unclaimed, playerID)
	gm.mu.Unlock()

	if err := gm.queue.AddPlayer(model.Player{ID: playerID}); err != nil {
		return fmt.Errorf("join matchmaking: %w", err)
	}
	return nil
}

func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	return gm.queue.RemovePlayer(playerID)
}

func (gm *GameManager) QueueSize() int {
	return gm.queue.Size()
}
