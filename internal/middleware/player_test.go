package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestEnsurePlayerIDOutlivesRequest(t *testing.T) {
	var seen []string
	app := fiber.New()
	app.Get("/", EnsurePlayerID(), func(c *fiber.Ctx) error {
		seen = append(seen, c.Locals("playerID").(string))
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, id := range []string{"alice", "zzzzz"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Player-ID", id)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	}

	if len(seen) != 2 || seen[0] != "alice" || seen[1] != "zzzzz" {
		t.Errorf("stored ids = %q, want [alice zzzzz]", seen)
	}
}

func TestEnsurePlayerIDQuery(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"header", "/", "alice", fiber.StatusNoContent},
		{"query", "/?playerId=bob", "", fiber.StatusNoContent},
		{"missing", "/", "", fiber.StatusUnauthorized},
	}

	app := fiber.New()
	app.Get("/", EnsurePlayerID(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("X-Player-ID", tt.header)
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
