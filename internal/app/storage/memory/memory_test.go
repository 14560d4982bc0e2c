package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/worldpulse/country_service/internal/app/domain/country"
	"github.com/worldpulse/country_service/internal/app/storage"
)

func strptr(s string) *string   { return &s }
func f64ptr(v float64) *float64 { return &v }
func now() time.Time            { return time.Now().UTC().Truncate(time.Second) }

func seed(t *testing.T, s *Store) {
	t.Helper()
	rows := []country.Country{
		{Name: "Canada", Region: strptr("Americas"), CurrencyCode: strptr("CAD"), EstimatedGDP: f64ptr(500), LastRefreshedAt: now()},
		{Name: "Nigeria", Region: strptr("Africa"), CurrencyCode: strptr("NGN"), EstimatedGDP: f64ptr(900), LastRefreshedAt: now()},
		{Name: "Atlantis", Region: strptr("Oceans"), LastRefreshedAt: now()},
	}
	if err := s.UpsertCountries(context.Background(), rows); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestUpsertAssignsAndPreservesIDs(t *testing.T) {
	s := New()
	seed(t, s)

	first, err := s.GetCountryByName(context.Background(), "canada")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated identifier")
	}

	update := []country.Country{{Name: "CANADA", Region: strptr("Americas"), EstimatedGDP: f64ptr(650), LastRefreshedAt: now()}}
	if err := s.UpsertCountries(context.Background(), update); err != nil {
		t.Fatalf("upsert update: %v", err)
	}

	second, err := s.GetCountryByName(context.Background(), "Canada")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("identifier changed on update: %q vs %q", second.ID, first.ID)
	}
	if second.EstimatedGDP == nil || *second.EstimatedGDP != 650 {
		t.Fatalf("update not applied: %v", second.EstimatedGDP)
	}

	rows, err := s.ListCountries(context.Background(), country.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
}

func TestListFilters(t *testing.T) {
	s := New()
	seed(t, s)

	rows, err := s.ListCountries(context.Background(), country.Filter{Region: "africa"})
	if err != nil {
		t.Fatalf("list by region: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Nigeria" {
		t.Fatalf("unexpected region filter result %+v", rows)
	}

	rows, err = s.ListCountries(context.Background(), country.Filter{Currency: "cad"})
	if err != nil {
		t.Fatalf("list by currency: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Canada" {
		t.Fatalf("unexpected currency filter result %+v", rows)
	}
}

func TestListSortPutsNilGDPLast(t *testing.T) {
	s := New()
	seed(t, s)

	rows, err := s.ListCountries(context.Background(), country.Filter{Sort: country.SortGDPDesc})
	if err != nil {
		t.Fatalf("list desc: %v", err)
	}
	want := []string{"Nigeria", "Canada", "Atlantis"}
	for i, name := range want {
		if rows[i].Name != name {
			t.Fatalf("desc position %d: expected %s, got %s", i, name, rows[i].Name)
		}
	}

	rows, err = s.ListCountries(context.Background(), country.Filter{Sort: country.SortGDPAsc})
	if err != nil {
		t.Fatalf("list asc: %v", err)
	}
	want = []string{"Canada", "Nigeria", "Atlantis"}
	for i, name := range want {
		if rows[i].Name != name {
			t.Fatalf("asc position %d: expected %s, got %s", i, name, rows[i].Name)
		}
	}
}

func TestDeleteCountryByName(t *testing.T) {
	s := New()
	seed(t, s)

	if err := s.DeleteCountryByName(context.Background(), "NIGERIA"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetCountryByName(context.Background(), "Nigeria"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteCountryByName(context.Background(), "Nigeria"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}
}

func TestRefreshMetadataSingleton(t *testing.T) {
	s := New()

	if _, err := s.GetRefreshMetadata(context.Background()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first refresh, got %v", err)
	}

	at := now()
	if err := s.PutRefreshMetadata(context.Background(), country.RefreshMetadata{LastRefreshedAt: at, TotalCountries: 7}); err != nil {
		t.Fatalf("put metadata: %v", err)
	}

	meta, err := s.GetRefreshMetadata(context.Background())
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if meta.ID != country.MetadataID || meta.TotalCountries != 7 || !meta.LastRefreshedAt.Equal(at) {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}

func TestCloneOnReturn(t *testing.T) {
	s := New()
	seed(t, s)

	row, err := s.GetCountryByName(context.Background(), "Canada")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	*row.EstimatedGDP = 1

	again, err := s.GetCountryByName(context.Background(), "Canada")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if *again.EstimatedGDP != 500 {
		t.Fatal("store row mutated through returned pointer")
	}
}
