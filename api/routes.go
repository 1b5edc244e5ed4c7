package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"filterflix/handlers"
	"filterflix/models"
	"filterflix/services/sessions"
)

// sessionValidator resolves bearer tokens to live sessions.
type sessionValidator interface {
	Validate(token string) (models.Session, bool)
}

var _ sessionValidator = (*sessions.Service)(nil)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// SessionAuthMiddleware rejects requests that lack a valid bearer token.
func SessionAuthMiddleware(sessionsSvc sessionValidator) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if _, ok := sessionsSvc.Validate(token); !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	authHandler *handlers.AuthHandler,
	favoritesHandler *handlers.FavoritesHandler,
	catalogHandler *handlers.CatalogHandler,
	sessionsSvc sessionValidator,
) {
	api := r.PathPrefix("/api").Subrouter()

	// Add CORS middleware to API subrouter
	api.Use(corsMiddleware)

	// Health check
	api.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Backend is working!"})
	}).Methods(http.MethodGet)

	// Auth routes (no authentication required)
	api.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/register", authHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/login", authHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/logout", authHandler.Options).Methods(http.MethodOptions)

	// Favorites
	api.HandleFunc("/user/{username}/favorites", favoritesHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/user/{username}/favorites", favoritesHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/favorites/{username}", favoritesHandler.Set).Methods(http.MethodPost)
	api.HandleFunc("/favorites/{username}", favoritesHandler.Options).Methods(http.MethodOptions)

	// Catalog search and derived views
	api.HandleFunc("/movies/search", catalogHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/movies/search", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/genres", catalogHandler.Genres).Methods(http.MethodGet)
	api.HandleFunc("/genres", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/services", catalogHandler.Services).Methods(http.MethodGet)
	api.HandleFunc("/services", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/stats", catalogHandler.Stats).Methods(http.MethodGet)
	api.HandleFunc("/stats", handleOptions).Methods(http.MethodOptions)

	// Catalog maintenance requires a logged-in session
	maintenance := api.PathPrefix("/catalog").Subrouter()
	maintenance.Use(SessionAuthMiddleware(sessionsSvc))
	maintenance.HandleFunc("/refresh", catalogHandler.Refresh).Methods(http.MethodPost)
	maintenance.HandleFunc("/refresh", handleOptions).Methods(http.MethodOptions)
}
