package catalog

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"

	"filterflix/models"
)

// Service is the in-memory catalog index: every normalised record across all
// configured services plus the derived set of distinct genres. The index is
// built lazily on first use and only rebuilt by an explicit Refresh; there is
// no TTL or eviction.
type Service struct {
	loader  *Loader
	sources []Source

	mu       sync.RWMutex
	records  []models.MovieRecord
	genres   []string
	loaded   bool
	loadedAt time.Time

	flight singleflight.Group
}

// NewService creates a catalog service over the configured sources. Nothing is
// loaded until the first read or an explicit Refresh.
func NewService(sources []Source, loadTimeout time.Duration) *Service {
	return &Service{
		loader:  NewLoader(loadTimeout),
		sources: sources,
	}
}

// EnsureLoaded builds the index if it has not been built yet. Concurrent first
// calls coalesce into a single load.
func (s *Service) EnsureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	_, err, _ := s.flight.Do("load", func() (interface{}, error) {
		s.mu.RLock()
		loaded := s.loaded
		s.mu.RUnlock()
		if loaded {
			return nil, nil
		}
		return nil, s.loadAll(ctx)
	})
	return err
}

// Refresh discards the index and rebuilds it fully. Concurrent refreshes
// coalesce into a single rebuild.
func (s *Service) Refresh(ctx context.Context) error {
	_, err, _ := s.flight.Do("refresh", func() (interface{}, error) {
		return nil, s.loadAll(ctx)
	})
	return err
}

// loadAll loads every service in parallel. A failing source is logged and
// contributes zero records; it never aborts the other services.
func (s *Service) loadAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p := pool.NewWithResults[[]models.MovieRecord]()
	for _, src := range s.sources {
		src := src
		p.Go(func() []models.MovieRecord {
			records, err := s.loader.Load(ctx, src)
			if err != nil {
				log.Printf("[catalog] failed to load %s: %v", src.Service, err)
				return nil
			}
			log.Printf("[catalog] loaded %d records from %s", len(records), src.Service)
			return records
		})
	}

	var all []models.MovieRecord
	for _, records := range p.Wait() {
		all = append(all, records...)
	}

	// Deterministic order regardless of which source finished first.
	sort.Slice(all, func(i, j int) bool {
		if all[i].Title == all[j].Title {
			return all[i].Identity() < all[j].Identity()
		}
		return all[i].Title < all[j].Title
	})

	genres := distinctGenres(all)

	s.mu.Lock()
	s.records = all
	s.genres = genres
	s.loaded = true
	s.loadedAt = time.Now().UTC()
	s.mu.Unlock()

	log.Printf("[catalog] index built: %d records, %d genres", len(all), len(genres))
	return nil
}

// distinctGenres collects every per-record genre, trimmed, de-duplicated
// case-sensitively and sorted.
func distinctGenres(records []models.MovieRecord) []string {
	seen := make(map[string]struct{})
	for _, record := range records {
		for _, genre := range record.Genres {
			if trimmed := strings.TrimSpace(genre); trimmed != "" {
				seen[trimmed] = struct{}{}
			}
		}
	}
	genres := make([]string, 0, len(seen))
	for genre := range seen {
		genres = append(genres, genre)
	}
	sort.Strings(genres)
	return genres
}

// AllRecords returns the full record list, loading the index if needed. The
// returned slice is a read-only view; records are immutable.
func (s *Service) AllRecords(ctx context.Context) ([]models.MovieRecord, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, nil
}

// Genres returns the sorted distinct genre set, loading the index if needed.
func (s *Service) Genres(ctx context.Context) ([]string, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.genres, nil
}

// Stats summarises the loaded catalog.
func (s *Service) Stats(ctx context.Context) (models.CatalogStats, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return models.CatalogStats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.CatalogStats{
		TotalMovies:   len(s.records),
		TotalServices: len(s.sources),
		ServiceCounts: make(map[string]int, len(s.sources)),
		GenreCounts:   make(map[string]int, len(s.genres)),
		LastUpdated:   s.loadedAt,
	}
	for _, record := range s.records {
		stats.ServiceCounts[record.Service]++
		for _, genre := range record.Genres {
			stats.GenreCounts[genre]++
		}
	}
	return stats, nil
}
