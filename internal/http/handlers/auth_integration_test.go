package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mindmatters/mindmatters-api/internal/auth"
	"github.com/mindmatters/mindmatters-api/internal/logging"
	"github.com/mindmatters/mindmatters-api/internal/metrics"
	"github.com/mindmatters/mindmatters-api/internal/storage/postgres"
	"github.com/mindmatters/mindmatters-api/internal/storage/postgres/migrations"
)

// TestAuthIntegration exercises signup, login and /auth/me against a live database.
func TestAuthIntegration(t *testing.T) {
	if os.Getenv("RUN_AUTH_INTEGRATION") != "true" {
		t.Skip("set RUN_AUTH_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := mustGetEnv(t, "DATABASE_URL")

	ctx := context.Background()
	db, err := postgres.Open(ctx, dbURL)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := migrations.Up(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := postgres.NewStore(db)
	defer store.Close()

	logger := logging.Discard()
	authority, err := auth.NewAuthority(auth.Deps{
		Users:   store,
		Resets:  store,
		SignIns: store,
		Tokens:  auth.NewTokenManager(mustGetEnv(t, "JWT_SECRET"), "mindmatters-integration", time.Hour),
		Hasher:  auth.NewBcryptHasher(auth.DefaultCost),
		Mailer:  &outbox{},
		Metrics: metrics.NewCollector(prometheus.NewRegistry()),
		Logger:  logger,
		AppURL:  "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("build authority: %v", err)
	}

	r := chi.NewRouter()
	NewAuthHandler(authority, store, logger).Register(r)
	ts := httptest.NewServer(r)
	defer ts.Close()

	email := fmt.Sprintf("apitest_%d@example.com", time.Now().UnixNano())
	password := fmt.Sprintf("Pass!%d", time.Now().UnixNano())

	signup := map[string]string{"name": "API Test", "email": email, "password": password}
	created := requestSession(t, ts.URL+"/auth/signup", signup, http.StatusOK)
	if created.User.Email != email {
		t.Fatalf("signup mismatch: got %+v", created.User)
	}
	requestSession(t, ts.URL+"/auth/signup", signup, http.StatusConflict)

	loggedIn := requestSession(t, ts.URL+"/auth?action=login", map[string]string{
		"email":    email,
		"password": password,
	}, http.StatusOK)
	if loggedIn.User.ID != created.User.ID {
		t.Fatalf("login returned wrong user id: want %d got %d", created.User.ID, loggedIn.User.ID)
	}
	if strings.TrimSpace(loggedIn.Token) == "" {
		t.Fatal("login response missing token")
	}

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth/me", nil)
	if err != nil {
		t.Fatalf("build me request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+loggedIn.Token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("me request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d", resp.StatusCode)
	}

	t.Logf("created %s (id=%d) and logged in via /auth", email, created.User.ID)
}

func requestSession(t *testing.T, url string, payload map[string]string, wantStatus int) sessionBody {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("%s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}

	var out sessionBody
	if wantStatus == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return out
}

func mustGetEnv(t *testing.T, key string) string {
	t.Helper()
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		t.Fatalf("%s is required", key)
	}
	return val
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
