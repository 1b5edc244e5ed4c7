package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"filterflix/api"
	"filterflix/handlers"
	"filterflix/services/accounts"
	"filterflix/services/catalog"
	"filterflix/services/sessions"
)

func newRouter(t *testing.T) (*mux.Router, *sessions.Service) {
	t.Helper()

	accountsSvc, err := accounts.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create accounts service: %v", err)
	}
	sessionsSvc := sessions.NewService(time.Hour)

	dir := t.TempDir()
	path := filepath.Join(dir, "netflix.csv")
	if err := os.WriteFile(path, []byte("Title,Genre\nArrival,Sci-Fi\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	catalogSvc := catalog.NewService([]catalog.Source{{Service: "netflix", Location: path}}, 5*time.Second)

	r := mux.NewRouter()
	api.Register(r,
		handlers.NewAuthHandler(accountsSvc, sessionsSvc),
		handlers.NewFavoritesHandler(accountsSvc),
		handlers.NewCatalogHandler(catalogSvc),
		sessionsSvc,
	)
	return r, sessionsSvc
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["message"] != "Backend is working!" {
		t.Fatalf("unexpected message %q", body["message"])
	}
}

func TestAPIRoutesSetCORSHeaders(t *testing.T) {
	router, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected CORS headers on API responses")
	}
}

func TestPreflightRequestsSucceed(t *testing.T) {
	router, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/movies/search", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", rec.Code)
	}
}

func TestRegisterLoginSearchFlow(t *testing.T) {
	router, _ := newRouter(t)

	register := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"username":"carol","password":"hunter2"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, register)
	if rec.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	login := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"carol","password":"hunter2"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, login)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	search := httptest.NewRequest(http.MethodGet, "/api/movies/search?services=netflix&title=arrival", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, search)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRefreshRequiresSession(t *testing.T) {
	router, sessionsSvc := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/catalog/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	session := sessionsSvc.Create("carol")
	req = httptest.NewRequest(http.MethodPost, "/api/catalog/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestFavoritesRoutesResolveUsernames(t *testing.T) {
	router, _ := newRouter(t)

	register := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"username":"carol","password":"hunter2"}`))
	router.ServeHTTP(httptest.NewRecorder(), register)

	add := httptest.NewRequest(http.MethodPost, "/api/favorites/carol",
		strings.NewReader(`{"movie":{"title":"Arrival","year":2016,"service":"netflix","genres":["Sci-Fi"]},"action":"add"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, add)
	if rec.Code != http.StatusOK {
		t.Fatalf("add: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	list := httptest.NewRequest(http.MethodGet, "/api/user/carol/favorites", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, list)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if favorites, ok := body["favorites"].([]any); !ok || len(favorites) != 1 {
		t.Fatalf("expected one favorite, got %v", body["favorites"])
	}
}
