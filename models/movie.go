package models

import (
	"strconv"
	"time"
)

// MovieRecord is one title available on one streaming service. The same title
// carried by two services yields two records with two distinct identities.
// Records are created once at catalog load time and never mutated.
type MovieRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Genres      []string `json:"genres"`
	Year        int      `json:"year,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
	Duration    int      `json:"duration,omitempty"` // minutes
	Director    string   `json:"director,omitempty"`
	Cast        []string `json:"cast,omitempty"`
	Description string   `json:"description,omitempty"`
	Service     string   `json:"service"`
}

// Identity returns the deduplication key for the record, scoped to a single
// service. The explicit ID wins when the source provided one; otherwise the
// key is derived from title, year and service. Favorite membership checks
// rely on this being computed identically on every code path.
func (m MovieRecord) Identity() string {
	if m.ID != "" {
		return m.ID
	}
	return DeriveIdentity(m.Title, m.Year, m.Service)
}

// DeriveIdentity builds the fallback identity "{title}-{year}-{service}".
// Two same-titled, same-year entries on the same service collide by design.
// A zero year contributes an empty segment so the result stays deterministic.
func DeriveIdentity(title string, year int, service string) string {
	y := ""
	if year > 0 {
		y = strconv.Itoa(year)
	}
	return title + "-" + y + "-" + service
}

// Query describes one catalog search. Services is mandatory; every other
// field is an optional predicate ANDed onto the result.
type Query struct {
	Genres      string   `json:"genres"`      // comma-separated, case-insensitive substring terms
	Title       string   `json:"title"`       // case-insensitive substring
	Services    []string `json:"services"`    // must be non-empty
	MaxRating   float64  `json:"maxRating"`   // >0 activates the rating ceiling
	MinDuration int      `json:"minDuration"` // >0 activates the duration floor
}

// CatalogStats summarises the loaded catalog.
type CatalogStats struct {
	TotalMovies   int            `json:"totalMovies"`
	TotalServices int            `json:"totalServices"`
	ServiceCounts map[string]int `json:"serviceCounts"`
	GenreCounts   map[string]int `json:"genreCounts"`
	LastUpdated   time.Time      `json:"lastUpdated"`
}

// StreamingService is one entry of the fixed provider registry.
type StreamingService struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// KnownServices returns the fixed set of streaming providers the catalog
// understands, in display order.
func KnownServices() []StreamingService {
	return []StreamingService{
		{ID: "netflix", Name: "Netflix"},
		{ID: "hulu", Name: "Hulu"},
		{ID: "prime", Name: "Prime Video"},
		{ID: "disney", Name: "Disney+"},
		{ID: "paramount", Name: "Paramount+"},
		{ID: "max", Name: "Max"},
	}
}

// IsKnownService reports whether id names a registered streaming provider.
func IsKnownService(id string) bool {
	for _, s := range KnownServices() {
		if s.ID == id {
			return true
		}
	}
	return false
}
