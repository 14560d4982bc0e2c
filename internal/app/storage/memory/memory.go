package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/worldpulse/country_service/internal/app/domain/country"
	"github.com/worldpulse/country_service/internal/app/storage"
)

// Store is an in-memory implementation of storage.CountryStore. It is safe
// for concurrent use and is primarily intended for tests and local
// development. Listing without a sort preserves insertion order.
type Store struct {
	mu        sync.RWMutex
	countries map[string]country.Country // keyed by lowercase name
	order     []string
	metadata  *country.RefreshMetadata
}

var _ storage.CountryStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		countries: make(map[string]country.Country),
	}
}

func (s *Store) UpsertCountries(_ context.Context, rows []country.Country) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range rows {
		key := strings.ToLower(row.Name)
		if existing, ok := s.countries[key]; ok {
			row.ID = existing.ID
		} else {
			if row.ID == "" {
				row.ID = uuid.NewString()
			}
			s.order = append(s.order, key)
		}
		s.countries[key] = cloneCountry(row)
	}
	return nil
}

func (s *Store) ListCountries(_ context.Context, filter country.Filter) ([]country.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]country.Country, 0, len(s.order))
	for _, key := range s.order {
		row := s.countries[key]
		if filter.Region != "" && !containsFold(deref(row.Region), filter.Region) {
			continue
		}
		if filter.Currency != "" && !containsFold(deref(row.CurrencyCode), filter.Currency) {
			continue
		}
		result = append(result, cloneCountry(row))
	}

	switch filter.Sort {
	case country.SortGDPDesc:
		sort.SliceStable(result, func(i, j int) bool {
			return gdpLess(result[j].EstimatedGDP, result[i].EstimatedGDP)
		})
	case country.SortGDPAsc:
		sort.SliceStable(result, func(i, j int) bool {
			return gdpLess(result[i].EstimatedGDP, result[j].EstimatedGDP)
		})
	}
	return result, nil
}

func (s *Store) GetCountryByName(_ context.Context, name string) (country.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.countries[strings.ToLower(name)]
	if !ok {
		return country.Country{}, storage.ErrNotFound
	}
	return cloneCountry(row), nil
}

func (s *Store) DeleteCountryByName(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(name)
	if _, ok := s.countries[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.countries, key)
	for i, existing := range s.order {
		if existing == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) PutRefreshMetadata(_ context.Context, meta country.RefreshMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta.ID = country.MetadataID
	s.metadata = &meta
	return nil
}

func (s *Store) GetRefreshMetadata(_ context.Context) (country.RefreshMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.metadata == nil {
		return country.RefreshMetadata{}, storage.ErrNotFound
	}
	return *s.metadata, nil
}

// gdpLess orders nil GDP values after every non-nil value, matching the
// NULLS LAST behavior of the Postgres store.
func gdpLess(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cloneCountry(c country.Country) country.Country {
	c.Capital = clonePtr(c.Capital)
	c.Region = clonePtr(c.Region)
	c.CurrencyCode = clonePtr(c.CurrencyCode)
	c.ExchangeRate = clonePtr(c.ExchangeRate)
	c.EstimatedGDP = clonePtr(c.EstimatedGDP)
	c.FlagURL = clonePtr(c.FlagURL)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
