package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"filterflix/models"
	"filterflix/services/catalog"
)

type catalogService interface {
	Search(ctx context.Context, query models.Query) ([]models.MovieRecord, error)
	Genres(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (models.CatalogStats, error)
	Refresh(ctx context.Context) error
}

var _ catalogService = (*catalog.Service)(nil)

// CatalogHandler serves catalog search and the derived read-only views.
type CatalogHandler struct {
	Service catalogService
}

func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{Service: service}
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	query := models.Query{
		Genres:   params.Get("genres"),
		Title:    params.Get("title"),
		Services: splitServices(params["services"]),
	}

	if raw := strings.TrimSpace(params.Get("maxRating")); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil || rating < 0 {
			writeJSONError(w, "maxRating must be a number", http.StatusBadRequest)
			return
		}
		query.MaxRating = rating
	}
	if raw := strings.TrimSpace(params.Get("minDuration")); raw != "" {
		duration, err := strconv.Atoi(raw)
		if err != nil || duration < 0 {
			writeJSONError(w, "minDuration must be a whole number of minutes", http.StatusBadRequest)
			return
		}
		query.MinDuration = duration
	}

	results, err := h.Service.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, catalog.ErrNoServices) || errors.Is(err, catalog.ErrNoFilters) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("[catalog] search failed: %v", err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"results": results,
		"total":   len(results),
	})
}

func (h *CatalogHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Service.Genres(r.Context())
	if err != nil {
		log.Printf("[catalog] genre listing failed: %v", err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"genres":  genres,
	})
}

func (h *CatalogHandler) Services(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"services": models.KnownServices(),
	})
}

func (h *CatalogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		log.Printf("[catalog] stats failed: %v", err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   stats,
	})
}

// Refresh discards and rebuilds the whole index.
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Refresh(r.Context()); err != nil {
		log.Printf("[catalog] refresh failed: %v", err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		log.Printf("[catalog] stats after refresh failed: %v", err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   stats,
	})
}

func (h *CatalogHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// splitServices accepts both repeated ?services= parameters and a single
// comma-separated value.
func splitServices(raw []string) []string {
	services := make([]string, 0, len(raw))
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				services = append(services, trimmed)
			}
		}
	}
	return services
}
