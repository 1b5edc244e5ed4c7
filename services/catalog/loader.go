package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"filterflix/models"
)

// Source names one streaming service and where its CSV lives. Location is a
// file path or an http(s) URL.
type Source struct {
	Service  string
	Location string
}

// Loader reads per-service CSV sources and normalises rows into MovieRecords.
type Loader struct {
	timeout time.Duration
	client  *http.Client
}

// NewLoader creates a loader applying the given per-source timeout.
func NewLoader(timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Loader{
		timeout: timeout,
		client:  &http.Client{},
	}
}

// Load reads one service's source and returns its records. A row without a
// title or genre cell cannot be indexed and is skipped. Errors cover only the
// source as a whole (fetch, parse of the header); they degrade that service to
// zero records at the index level and never abort other services.
func (l *Loader) Load(ctx context.Context, src Source) ([]models.MovieRecord, error) {
	service := strings.TrimSpace(src.Service)
	if service == "" {
		return nil, errors.New("source service is required")
	}
	location := strings.TrimSpace(src.Location)
	if location == "" {
		return nil, errors.New("source location is required")
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	body, err := l.open(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("open %s source: %w", service, err)
	}
	defer body.Close()

	return parseRows(body, service)
}

func (l *Loader) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return l.fetch(ctx, location)
	}
	return os.Open(location)
}

// fetch downloads an HTTP source, retrying transient failures within the
// source timeout.
func (l *Loader) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := l.client.Do(req)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				err := fmt.Errorf("unexpected status %s", resp.Status)
				if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return retry.Unrecoverable(err)
				}
				return err
			}
			body = resp.Body
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func parseRows(r io.Reader, service string) ([]models.MovieRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := headerIndex(header)

	records := make([]models.MovieRecord, 0, 64)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed row loses only itself, not the whole source.
			continue
		}

		title := strings.TrimSpace(cols.value(row, "title", "name", "movie", "show"))
		genreCell := strings.TrimSpace(cols.value(row, "genre", "genres", "category", "categories"))
		if title == "" || genreCell == "" {
			continue
		}

		record := models.MovieRecord{
			ID:          strings.TrimSpace(cols.value(row, "id")),
			Title:       title,
			Genres:      parseGenres(genreCell),
			Year:        firstInt(cols.value(row, "year", "release_year", "date")),
			Rating:      parseRating(cols.value(row, "rating", "rating (1-10)")),
			Duration:    firstInt(cols.value(row, "duration", "duration (min)", "runtime")),
			Director:    strings.TrimSpace(cols.value(row, "director")),
			Cast:        parseCast(cols.value(row, "cast", "actors")),
			Description: strings.TrimSpace(cols.value(row, "description", "summary", "overview")),
			Service:     service,
		}
		if record.ID == "" {
			record.ID = models.DeriveIdentity(record.Title, record.Year, record.Service)
		}
		records = append(records, record)
	}

	return records, nil
}

// columnIndex maps lower-cased, trimmed header names to their position.
type columnIndex map[string]int

func headerIndex(header []string) columnIndex {
	cols := make(columnIndex, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, exists := cols[key]; !exists {
			cols[key] = i
		}
	}
	return cols
}

// value returns the first non-empty cell among the aliased column names.
func (c columnIndex) value(row []string, names ...string) string {
	for _, name := range names {
		idx, ok := c[name]
		if !ok || idx >= len(row) {
			continue
		}
		if cell := row[idx]; strings.TrimSpace(cell) != "" {
			return cell
		}
	}
	return ""
}

// parseGenres accepts either the quoted-list encoding ['Action','Drama'] or a
// plain comma-separated string, falling back to the comma split when the list
// form does not decode.
func parseGenres(cell string) []string {
	trimmed := strings.TrimSpace(cell)
	if strings.HasPrefix(trimmed, "[") {
		var decoded []string
		normalised := strings.ReplaceAll(trimmed, "'", `"`)
		if err := json.Unmarshal([]byte(normalised), &decoded); err == nil {
			return trimAll(decoded)
		}
	}
	return trimAll(strings.Split(trimmed, ","))
}

func parseCast(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	return trimAll(strings.Split(cell, ";"))
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseRating(cell string) float64 {
	rating, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0
	}
	return rating
}

// firstInt extracts the leading integer from a cell, tolerating suffixes such
// as "112 min".
func firstInt(cell string) int {
	trimmed := strings.TrimSpace(cell)
	end := 0
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(trimmed[:end])
	if err != nil {
		return 0
	}
	return n
}
