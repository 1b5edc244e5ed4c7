package catalog

import (
	"context"
	"errors"
	"strings"

	"filterflix/models"
)

var (
	// ErrNoServices rejects queries that select no streaming service. An
	// empty service set is a caller mistake, never an implicit match-all.
	ErrNoServices = errors.New("at least one streaming service must be selected")
	// ErrNoFilters rejects queries where every optional predicate is unset.
	ErrNoFilters = errors.New("no filters specified")
)

// Search applies the query's predicates as a conjunction over the index and
// returns matches in title order.
//
// The rating filter is a ceiling, not a floor: when maxRating is set, records
// without a rating and records rated above the threshold are excluded. That
// mirrors the product's "Maximum Rating" control and is intentional.
func (s *Service) Search(ctx context.Context, query models.Query) ([]models.MovieRecord, error) {
	genreTerms := splitTerms(query.Genres)
	titleTerm := strings.ToLower(strings.TrimSpace(query.Title))
	services := serviceSet(query.Services)

	if len(services) == 0 {
		return nil, ErrNoServices
	}
	if len(genreTerms) == 0 && titleTerm == "" && query.MaxRating <= 0 && query.MinDuration <= 0 {
		return nil, ErrNoFilters
	}

	records, err := s.AllRecords(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]models.MovieRecord, 0)
	for _, record := range records {
		if _, ok := services[record.Service]; !ok {
			continue
		}
		if len(genreTerms) > 0 && !matchesGenre(record.Genres, genreTerms) {
			continue
		}
		if titleTerm != "" && !strings.Contains(strings.ToLower(record.Title), titleTerm) {
			continue
		}
		if query.MaxRating > 0 && (record.Rating == 0 || record.Rating > query.MaxRating) {
			continue
		}
		if query.MinDuration > 0 && (record.Duration == 0 || record.Duration < query.MinDuration) {
			continue
		}
		results = append(results, record)
	}

	return results, nil
}

// splitTerms lowers and trims the comma-separated genre terms, dropping
// empties.
func splitTerms(genres string) []string {
	parts := strings.Split(genres, ",")
	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		if term := strings.ToLower(strings.TrimSpace(part)); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

func serviceSet(services []string) map[string]struct{} {
	set := make(map[string]struct{}, len(services))
	for _, service := range services {
		if trimmed := strings.TrimSpace(service); trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return set
}

// matchesGenre reports whether any record genre contains any query term as a
// case-insensitive substring ("com" matches "Comedy").
func matchesGenre(genres []string, terms []string) bool {
	for _, genre := range genres {
		lowered := strings.ToLower(genre)
		for _, term := range terms {
			if strings.Contains(lowered, term) {
				return true
			}
		}
	}
	return false
}
