package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"filterflix/services/catalog"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadParsesQuotedGenreLists(t *testing.T) {
	path := writeCSV(t, "netflix.csv",
		"Title,Genre,Year,Rating (1-10),Duration (min),Director,Cast,Description\n"+
			"Arrival,\"['Sci-Fi','Drama']\",2016,7.9,116,Denis Villeneuve,Amy Adams; Jeremy Renner,A linguist decodes an alien language\n")

	loader := catalog.NewLoader(5 * time.Second)
	records, err := loader.Load(context.Background(), catalog.Source{Service: "netflix", Location: path})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}

	record := records[0]
	if record.Title != "Arrival" {
		t.Fatalf("expected title Arrival, got %q", record.Title)
	}
	if len(record.Genres) != 2 || record.Genres[0] != "Sci-Fi" || record.Genres[1] != "Drama" {
		t.Fatalf("expected genres [Sci-Fi Drama], got %v", record.Genres)
	}
	if record.Year != 2016 {
		t.Fatalf("expected year 2016, got %d", record.Year)
	}
	if record.Rating != 7.9 {
		t.Fatalf("expected rating 7.9, got %v", record.Rating)
	}
	if record.Duration != 116 {
		t.Fatalf("expected duration 116, got %d", record.Duration)
	}
	if len(record.Cast) != 2 || record.Cast[0] != "Amy Adams" || record.Cast[1] != "Jeremy Renner" {
		t.Fatalf("expected two cast members, got %v", record.Cast)
	}
	if record.Service != "netflix" {
		t.Fatalf("expected service netflix, got %q", record.Service)
	}
	if record.ID != "Arrival-2016-netflix" {
		t.Fatalf("expected derived identity, got %q", record.ID)
	}
}

func TestLoadFallsBackToCommaSeparatedGenres(t *testing.T) {
	path := writeCSV(t, "hulu.csv",
		"Title,Genre\n"+
			"Palm Springs,\"Comedy, Romance\"\n")

	loader := catalog.NewLoader(5 * time.Second)
	records, err := loader.Load(context.Background(), catalog.Source{Service: "hulu", Location: path})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	genres := records[0].Genres
	if len(genres) != 2 || genres[0] != "Comedy" || genres[1] != "Romance" {
		t.Fatalf("expected genres [Comedy Romance], got %v", genres)
	}
}

func TestLoadSkipsRowsWithoutTitleOrGenre(t *testing.T) {
	path := writeCSV(t, "prime.csv",
		"Title,Genre,Year\n"+
			",Comedy,2020\n"+
			"No Genre Here,,2021\n"+
			"Kept,Drama,2022\n")

	loader := catalog.NewLoader(5 * time.Second)
	records, err := loader.Load(context.Background(), catalog.Source{Service: "prime", Location: path})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Kept" {
		t.Fatalf("expected only the complete row, got %v", records)
	}
}

func TestLoadAcceptsHeaderAliases(t *testing.T) {
	path := writeCSV(t, "disney.csv",
		"name,categories,release_year,rating,runtime\n"+
			"Soul,Animation,2020,8.0,100 min\n")

	loader := catalog.NewLoader(5 * time.Second)
	records, err := loader.Load(context.Background(), catalog.Source{Service: "disney", Location: path})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	record := records[0]
	if record.Title != "Soul" || record.Year != 2020 || record.Rating != 8.0 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.Duration != 100 {
		t.Fatalf("expected duration parsed from %q to be 100, got %d", "100 min", record.Duration)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	loader := catalog.NewLoader(5 * time.Second)
	if _, err := loader.Load(context.Background(), catalog.Source{Service: "max", Location: filepath.Join(t.TempDir(), "missing.csv")}); err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestLoadFetchesHTTPSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Title,Genre\nThe Gorge,Thriller\n"))
	}))
	defer srv.Close()

	loader := catalog.NewLoader(5 * time.Second)
	records, err := loader.Load(context.Background(), catalog.Source{Service: "paramount", Location: srv.URL})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if len(records) != 1 || records[0].Title != "The Gorge" {
		t.Fatalf("expected record from HTTP source, got %v", records)
	}
}

func TestLoadRetriesTransientHTTPFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("Title,Genre\nSeverance,Drama\n"))
	}))
	defer srv.Close()

	loader := catalog.NewLoader(10 * time.Second)
	records, err := loader.Load(context.Background(), catalog.Source{Service: "hulu", Location: srv.URL})
	if err != nil {
		t.Fatalf("load returned error after retries: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected three attempts, got %d", attempts)
	}
	if len(records) != 1 || records[0].Title != "Severance" {
		t.Fatalf("expected record after retry, got %v", records)
	}
}

func TestLoadDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	loader := catalog.NewLoader(5 * time.Second)
	if _, err := loader.Load(context.Background(), catalog.Source{Service: "hulu", Location: srv.URL}); err == nil {
		t.Fatal("expected error for 404 source")
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt for a client error, got %d", attempts)
	}
}
