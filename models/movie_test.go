package models_test

import (
	"testing"

	"filterflix/models"
)

func TestIdentityPrefersExplicitID(t *testing.T) {
	record := models.MovieRecord{ID: "tt1234567", Title: "Arrival", Year: 2016, Service: "netflix"}
	if record.Identity() != "tt1234567" {
		t.Fatalf("expected explicit ID, got %q", record.Identity())
	}
}

func TestIdentityDerivesFromTitleYearService(t *testing.T) {
	record := models.MovieRecord{Title: "Arrival", Year: 2016, Service: "netflix"}
	if record.Identity() != "Arrival-2016-netflix" {
		t.Fatalf("unexpected identity %q", record.Identity())
	}
}

func TestIdentityDistinguishesServices(t *testing.T) {
	onNetflix := models.MovieRecord{Title: "Dune", Year: 2021, Service: "netflix"}
	onMax := models.MovieRecord{Title: "Dune", Year: 2021, Service: "max"}
	if onNetflix.Identity() == onMax.Identity() {
		t.Fatal("expected distinct identities per service")
	}
}

func TestDeriveIdentityWithZeroYear(t *testing.T) {
	if got := models.DeriveIdentity("Arrival", 0, "netflix"); got != "Arrival--netflix" {
		t.Fatalf("unexpected identity %q", got)
	}
}

func TestKnownServices(t *testing.T) {
	services := models.KnownServices()
	if len(services) != 6 {
		t.Fatalf("expected six services, got %d", len(services))
	}
	for _, s := range services {
		if !models.IsKnownService(s.ID) {
			t.Fatalf("registry disagrees with itself for %q", s.ID)
		}
	}
	if models.IsKnownService("peacock") {
		t.Fatal("expected peacock to be unknown")
	}
}

func TestPublicAccountOmitsPasswordHash(t *testing.T) {
	account := models.Account{Username: "carol", PasswordHash: "secret"}
	public := account.Public()
	if public.Username != "carol" {
		t.Fatalf("expected username carol, got %q", public.Username)
	}
	if public.Favorites == nil {
		t.Fatal("expected favorites to be non-nil")
	}
}
