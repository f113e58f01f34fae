package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"tripledger/internal/auth"
	"tripledger/internal/config"
	"tripledger/internal/service"
	"tripledger/internal/storage/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwt := auth.NewJWTManager("test-secret", time.Hour)

	cfg := &config.Config{}
	cfg.HTTP.ReadTimeout = time.Minute
	cfg.HTTP.WriteTimeout = time.Minute
	cfg.HTTP.AuthRateLimit = 1000
	cfg.HTTP.CORSOrigins = "*"

	return New(
		cfg,
		service.NewUserService(store, jwt, logger),
		service.NewLedgerService(store, logger),
		service.NewBillItemService(store, logger),
		jwt,
		nil,
		logger,
	)
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.App.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func registerUser(t *testing.T, s *Server, username string) (int64, string) {
	t.Helper()

	resp, body := doJSON(t, s, http.MethodPost, "/api/users/register", "", map[string]any{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "hunter2hunter2",
		"confirm_password": "hunter2hunter2",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201 registering %s, got %d: %v", username, resp.StatusCode, body)
	}

	user := body["user"].(map[string]any)
	return int64(user["id"].(float64)), body["token"].(string)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	t.Run("register and login", func(t *testing.T) {
		registerUser(t, s, "alice")

		resp, body := doJSON(t, s, http.MethodPost, "/api/users/login", "", map[string]any{
			"email":    "alice@example.com",
			"password": "hunter2hunter2",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %v", resp.StatusCode, body)
		}
		if body["token"] == "" {
			t.Error("expected a token in the login response")
		}
	})

	t.Run("login with wrong password returns 401", func(t *testing.T) {
		resp, _ := doJSON(t, s, http.MethodPost, "/api/users/login", "", map[string]any{
			"email":    "alice@example.com",
			"password": "wrong-password",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", resp.StatusCode)
		}
	})

	t.Run("duplicate registration returns 409", func(t *testing.T) {
		resp, _ := doJSON(t, s, http.MethodPost, "/api/users/register", "", map[string]any{
			"username":         "alice",
			"email":            "alice@example.com",
			"password":         "hunter2hunter2",
			"confirm_password": "hunter2hunter2",
		})
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected status 409, got %d", resp.StatusCode)
		}
	})

	t.Run("protected route without token returns 401", func(t *testing.T) {
		resp, _ := doJSON(t, s, http.MethodGet, "/api/ledgers", "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", resp.StatusCode)
		}
	})

	t.Run("me returns the authenticated profile", func(t *testing.T) {
		_, token := registerUser(t, s, "bob")

		resp, body := doJSON(t, s, http.MethodGet, "/api/users/me", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %v", resp.StatusCode, body)
		}
		if body["username"] != "bob" {
			t.Errorf("expected username bob, got %v", body["username"])
		}
	})
}

func TestLedgerRoutes(t *testing.T) {
	s := newTestServer(t)
	_, creatorToken := registerUser(t, s, "carol")
	memberID, memberToken := registerUser(t, s, "dave")

	var ledgerID int64
	t.Run("create ledger", func(t *testing.T) {
		resp, body := doJSON(t, s, http.MethodPost, "/api/ledgers", creatorToken, map[string]any{
			"title": "Kyoto trip",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %v", resp.StatusCode, body)
		}
		ledgerID = int64(body["id"].(float64))
	})

	t.Run("non-member detail returns 403", func(t *testing.T) {
		resp, _ := doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/ledgers/%d", ledgerID), memberToken, nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", resp.StatusCode)
		}
	})

	t.Run("add member", func(t *testing.T) {
		resp, body := doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/ledgers/%d/members", ledgerID), creatorToken, map[string]any{
			"user_id": memberID,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %v", resp.StatusCode, body)
		}

		resp, _ = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/ledgers/%d/members", ledgerID), creatorToken, map[string]any{
			"user_id": memberID,
		})
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected status 409 for repeated add, got %d", resp.StatusCode)
		}
	})

	t.Run("member records a bill item", func(t *testing.T) {
		resp, body := doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/ledgers/%d/bill-items", ledgerID), memberToken, map[string]any{
			"type":            "meal",
			"amount":          5000,
			"payer_id":        memberID,
			"participant_ids": []int64{memberID},
			"description":     "ramen",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %v", resp.StatusCode, body)
		}
		if body["currency"] != "CNY" {
			t.Errorf("expected default currency CNY, got %v", body["currency"])
		}
	})

	t.Run("detail includes totals", func(t *testing.T) {
		resp, body := doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/ledgers/%d", ledgerID), creatorToken, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %v", resp.StatusCode, body)
		}
		if got := body["total_amount"].(float64); got != 5000 {
			t.Errorf("expected total 5000, got %v", got)
		}
		if got := len(body["members"].([]any)); got != 2 {
			t.Errorf("expected 2 members, got %d", got)
		}
	})

	t.Run("non-creator delete returns 403", func(t *testing.T) {
		resp, _ := doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/ledgers/%d", ledgerID), memberToken, nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", resp.StatusCode)
		}
	})

	t.Run("missing ledger returns 404", func(t *testing.T) {
		resp, _ := doJSON(t, s, http.MethodGet, "/api/ledgers/99999", creatorToken, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", resp.StatusCode)
		}
	})

	t.Run("bad id parameter returns 400", func(t *testing.T) {
		resp, _ := doJSON(t, s, http.MethodGet, "/api/ledgers/abc", creatorToken, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", resp.StatusCode)
		}
	})
}
