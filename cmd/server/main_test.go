package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/benbeisheim/chess-backend/internal/config"
	"github.com/benbeisheim/chess-backend/internal/service"
)

func TestSplitOrigins(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"http://localhost:5173", []string{"http://localhost:5173"}},
		{"https://a.example, https://b.example", []string{"https://a.example", "https://b.example"}},
		{" , ", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, splitOrigins(tt.in), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("splitOrigins(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestNewAppRoutes(t *testing.T) {
	gm := service.NewGameManager(time.Minute, time.Hour)
	defer gm.Close()
	app := newApp(config.Default(), service.NewGameService(gm))

	tests := []struct {
		name   string
		path   string
		player string
		want   int
	}{
		{"api needs a player", "/api/game/", "", http.StatusUnauthorized},
		{"api list", "/api/game/", "alice", http.StatusOK},
		{"websocket needs an upgrade", "/ws/game/abc", "alice", http.StatusUpgradeRequired},
		{"matchmaking socket needs an upgrade", "/ws/matchmaking", "alice", http.StatusUpgradeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.player != "" {
				req.Header.Set("X-Player-ID", tt.player)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
