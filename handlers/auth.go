package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"filterflix/models"
	"filterflix/services/accounts"
	"filterflix/services/sessions"
)

type accountsService interface {
	Register(username, password string) error
	Authenticate(username, password string) (models.PublicAccount, error)
}

var _ accountsService = (*accounts.Service)(nil)

type sessionsService interface {
	Create(username string) models.Session
	Revoke(token string)
}

var _ sessionsService = (*sessions.Service)(nil)

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	Accounts accountsService
	Sessions sessionsService
}

func NewAuthHandler(accountsSvc accountsService, sessionsSvc sessionsService) *AuthHandler {
	return &AuthHandler{Accounts: accountsSvc, Sessions: sessionsSvc}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Accounts.Register(body.Username, body.Password); err != nil {
		switch {
		case errors.Is(err, accounts.ErrCredentialsRequired):
			writeJSONError(w, "Username and password required", http.StatusBadRequest)
		case errors.Is(err, accounts.ErrDuplicateUser):
			writeJSONError(w, "Username already exists", http.StatusBadRequest)
		case errors.Is(err, accounts.ErrGuestAccount):
			writeJSONError(w, "Username is reserved", http.StatusBadRequest)
		default:
			log.Printf("[auth] registration failed for %q: %v", body.Username, err)
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.Accounts.Authenticate(body.Username, body.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			writeJSONError(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		log.Printf("[auth] login failed for %q: %v", body.Username, err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	session := h.Sessions.Create(user.Username)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
		"token":   session.Token,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		h.Sessions.Revoke(token)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AuthHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
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
