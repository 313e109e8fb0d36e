package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/slices"

	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/setup"
)

func newTestService(t *testing.T) (*GameService, *GameManager) {
	t.Helper()
	// matching is driven by hand in tests
	gm := NewGameManager(time.Minute, time.Hour)
	t.Cleanup(gm.Close)
	return NewGameService(gm), gm
}

func TestCreateGame(t *testing.T) {
	gs, _ := newTestService(t)

	id, err := gs.CreateGame("")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(gs.ListGames(), id) {
		t.Errorf("ListGames() = %v, missing %s", gs.ListGames(), id)
	}
	state, err := gs.GetGameState(id)
	if err != nil {
		t.Fatal(err)
	}
	if state.ToMove != model.PlayerColorWhite || state.Board[0][4].Type != model.King {
		t.Errorf("unexpected opening state: to move %s, e1 %v", state.ToMove, state.Board[0][4])
	}

	fenID, err := gs.CreateGame("4k3/8/8/8/8/8/8/4K3 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if state, _ := gs.GetGameState(fenID); state.ToMove != model.PlayerColorBlack {
		t.Errorf("FEN game to move = %s", state.ToMove)
	}

	if _, err := gs.CreateGame("nonsense"); !errors.Is(err, setup.ErrInvalidFEN) {
		t.Errorf("bad FEN: err = %v", err)
	}
}

func TestGameNotFound(t *testing.T) {
	gs, _ := newTestService(t)

	if _, err := gs.GetGameState("missing"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("GetGameState: err = %v", err)
	}
	if _, err := gs.JoinGame("missing", "p"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("JoinGame: err = %v", err)
	}
	if err := gs.HandleMove("missing", "p", model.MoveRequest{}); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("HandleMove: err = %v", err)
	}
}

func TestCreateGameTwice(t *testing.T) {
	_, gm := newTestService(t)
	if err := gm.CreateGame("same", setup.StandardPosition()); err != nil {
		t.Fatal(err)
	}
	if err := gm.CreateGame("same", setup.StandardPosition()); !errors.Is(err, ErrGameExists) {
		t.Errorf("err = %v, want ErrGameExists", err)
	}
}

func TestPlayThroughService(t *testing.T) {
	gs, _ := newTestService(t)
	id, err := gs.CreateGame("")
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []struct {
		id   string
		want model.PlayerColor
	}{{"alice", model.PlayerColorWhite}, {"bob", model.PlayerColorBlack}} {
		if got, err := gs.JoinGame(id, p.id); err != nil || got != p.want {
			t.Fatalf("JoinGame(%s) = %s, %v", p.id, got, err)
		}
	}

	moves, err := gs.AvailableMoves(id, "e2")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]model.Square{model.At(2, 4), model.At(3, 4)}, moves); diff != "" {
		t.Errorf("e2 moves mismatch (-want +got):\n%s", diff)
	}
	if _, err := gs.AvailableMoves(id, "z9"); !errors.Is(err, model.ErrOutOfBounds) {
		t.Errorf("bad square: err = %v", err)
	}

	e4 := model.MoveRequest{From: model.At(1, 4), To: model.At(3, 4)}
	if err := gs.HandleMove(id, "bob", e4); !errors.Is(err, model.ErrNotYourTurn) {
		t.Errorf("bob moving first: err = %v", err)
	}
	if err := gs.HandleMove(id, "alice", e4); err != nil {
		t.Fatal(err)
	}
	if state, _ := gs.GetGameState(id); state.ToMove != model.PlayerColorBlack {
		t.Errorf("to move after e4 = %s", state.ToMove)
	}
}

func TestMatchmaking(t *testing.T) {
	gs, gm := newTestService(t)

	chans := map[string]chan string{}
	for _, p := range []string{"p1", "p2"} {
		chans[p] = make(chan string, 1)
		if err := gs.RegisterMatchmakingChannel(p, chans[p]); err != nil {
			t.Fatal(err)
		}
		if err := gs.JoinMatchmaking(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := gs.JoinMatchmaking("p1"); !errors.Is(err, model.ErrAlreadyQueued) {
		t.Errorf("double queue: err = %v", err)
	}

	gm.matchPlayers()

	events := map[string]MatchFoundEvent{}
	for p, ch := range chans {
		select {
		case raw := <-ch:
			var ev MatchFoundEvent
			if err := json.Unmarshal([]byte(raw), &ev); err != nil {
				t.Fatal(err)
			}
			events[p] = ev
		case <-time.After(time.Second):
			t.Fatalf("%s not notified", p)
		}
	}
	if events["p1"].GameID != events["p2"].GameID {
		t.Errorf("players matched into different games: %v", events)
	}
	if events["p1"].Color != model.PlayerColorWhite || events["p2"].Color != model.PlayerColorBlack {
		t.Errorf("colors = %v", events)
	}
	if gm.QueueSize() != 0 {
		t.Errorf("queue size = %d after matching", gm.QueueSize())
	}
	if _, err := gs.GetGameState(events["p1"].GameID); err != nil {
		t.Errorf("matched game not registered: %v", err)
	}
}

func TestMatchmakingWaitsForPair(t *testing.T) {
	gs, gm := newTestService(t)
	if err := gs.JoinMatchmaking("solo"); err != nil {
		t.Fatal(err)
	}
	gm.matchPlayers()
	if gm.QueueSize() != 1 || len(gs.ListGames()) != 0 {
		t.Errorf("lone player matched: queue %d, games %v", gm.QueueSize(), gs.ListGames())
	}
	if !gs.LeaveMatchmaking("solo") || gm.QueueSize() != 0 {
		t.Error("LeaveMatchmaking did not remove the player")
	}
	if gs.LeaveMatchmaking("solo") {
		t.Error("LeaveMatchmaking removed a player twice")
	}
}

func TestMatchmakingLoop(t *testing.T) {
	gm := NewGameManager(time.Minute, 10*time.Millisecond)
	defer gm.Close()

	ch := make(chan string, 1)
	if err := gm.RegisterMatchmakingChannel("a", ch); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"a", "b"} {
		if err := gm.JoinMatchmaking(p); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker never paired the queue")
	}
}

func TestReplacedMatchmakingChannel(t *testing.T) {
	gs, gm := newTestService(t)
	old, current := make(chan string, 1), make(chan string, 1)

	if err := gs.RegisterMatchmakingChannel("p", old); err != nil {
		t.Fatal(err)
	}
	if err := gs.RegisterMatchmakingChannel("p", current); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-old; ok {
		t.Error("replaced channel left open")
	}

	gs.UnregisterMatchmakingChannel("p", old)
	for _, p := range []string{"p", "q"} {
		if err := gs.JoinMatchmaking(p); err != nil {
			t.Fatal(err)
		}
	}
	gm.matchPlayers()

	select {
	case <-current:
	default:
		t.Error("stale unregister dropped the live channel")
	}
}

func TestClaimMatchWithoutChannel(t *testing.T) {
	gs, gm := newTestService(t)

	ch := make(chan string, 1)
	if err := gs.RegisterMatchmakingChannel("socket", ch); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"socket", "rest"} {
		if err := gs.JoinMatchmaking(p); err != nil {
			t.Fatal(err)
		}
	}
	gm.matchPlayers()

	if _, ok := gs.ClaimMatch("socket"); ok {
		t.Error("notified player also has a held match")
	}
	event, ok := gs.ClaimMatch("rest")
	if !ok {
		t.Fatal("match for the player without a channel was lost")
	}
	if event.Color != model.PlayerColorBlack {
		t.Errorf("color = %s, want black", event.Color)
	}
	state, err := gs.GetGameState(event.GameID)
	if err != nil {
		t.Fatal(err)
	}
	if state.Players.Black.ID != "rest" {
		t.Errorf("black = %q, want rest", state.Players.Black.ID)
	}
	if _, ok := gs.ClaimMatch("rest"); ok {
		t.Error("match handed over twice")
	}
}

func TestRequeueDropsHeldMatch(t *testing.T) {
	gs, gm := newTestService(t)
	for _, p := range []string{"a", "b"} {
		if err := gs.JoinMatchmaking(p); err != nil {
			t.Fatal(err)
		}
	}
	gm.matchPlayers()

	if err := gs.JoinMatchmaking("a"); err != nil {
		t.Fatal(err)
	}
	if _, ok := gs.ClaimMatch("a"); ok {
		t.Error("held match survived requeue")
	}
	if _, ok := gs.ClaimMatch("b"); !ok {
		t.Error("b lost its held match")
	}
}
