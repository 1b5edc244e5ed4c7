package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"filterflix/models"
	"filterflix/services/accounts"
)

type favoritesService interface {
	Favorites(username string) ([]models.MovieRecord, error)
	SetFavorite(username string, movie models.MovieRecord, action models.FavoriteAction) ([]models.MovieRecord, error)
}

var _ favoritesService = (*accounts.Service)(nil)

// FavoritesHandler serves the favorites read and toggle endpoints.
type FavoritesHandler struct {
	Service favoritesService
}

func NewFavoritesHandler(service favoritesService) *FavoritesHandler {
	return &FavoritesHandler{Service: service}
}

func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	username := strings.TrimSpace(vars["username"])
	if username == "" {
		writeJSONError(w, "username is required", http.StatusBadRequest)
		return
	}

	favorites, err := h.Service.Favorites(username)
	if err != nil {
		h.writeFavoritesError(w, username, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"favorites": favorites,
	})
}

type setFavoriteRequest struct {
	Movie  models.MovieRecord    `json:"movie"`
	Action models.FavoriteAction `json:"action"`
}

// Set applies one side of the favorites toggle: the client checks membership
// by identity and sends the opposite action. Both actions are idempotent.
func (h *FavoritesHandler) Set(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	username := strings.TrimSpace(vars["username"])
	if username == "" {
		writeJSONError(w, "username is required", http.StatusBadRequest)
		return
	}

	var body setFavoriteRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	favorites, err := h.Service.SetFavorite(username, body.Movie, body.Action)
	if err != nil {
		h.writeFavoritesError(w, username, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"favorites": favorites,
	})
}

func (h *FavoritesHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *FavoritesHandler) writeFavoritesError(w http.ResponseWriter, username string, err error) {
	switch {
	case errors.Is(err, accounts.ErrUserNotFound):
		writeJSONError(w, "User not found", http.StatusNotFound)
	case errors.Is(err, accounts.ErrGuestAccount):
		writeJSONError(w, "Guest accounts cannot save favorites", http.StatusForbidden)
	case errors.Is(err, accounts.ErrInvalidAction):
		writeJSONError(w, "Invalid action", http.StatusBadRequest)
	case errors.Is(err, accounts.ErrMovieRequired):
		writeJSONError(w, "Movie title and service are required", http.StatusBadRequest)
	default:
		log.Printf("[favorites] operation failed for %q: %v", username, err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}
