// Package countries reconciles upstream country and exchange-rate data
// into persisted rows and answers read queries over them.
package countries

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/worldpulse/country_service/internal/app/domain/country"
	"github.com/worldpulse/country_service/internal/app/metrics"
	"github.com/worldpulse/country_service/internal/app/storage"
	apperrors "github.com/worldpulse/country_service/internal/errors"
	"github.com/worldpulse/country_service/pkg/logger"
)

// Renderer produces the summary artifact after a refresh. Implementations
// must be safe to fail: the service logs and discards any error.
type Renderer interface {
	Render(rows []country.Country, total int, refreshedAt time.Time) error
}

// Service is the reconciliation engine plus the read-side query service.
type Service struct {
	store     storage.CountryStore
	countries CountryFetcher
	rates     RateFetcher
	renderer  Renderer
	log       *logger.Logger
}

// New constructs the service. The renderer may be nil, in which case no
// summary artifact is produced.
func New(store storage.CountryStore, countries CountryFetcher, rates RateFetcher, renderer Renderer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("countries")
	}
	return &Service{
		store:     store,
		countries: countries,
		rates:     rates,
		renderer:  renderer,
		log:       log,
	}
}

// RefreshResult summarises a completed refresh run.
type RefreshResult struct {
	Message        string `json:"message"`
	TotalCountries int    `json:"total_countries"`
	Timestamp      string `json:"timestamp"`
}

// Refresh fetches countries and exchange rates, derives per-country fields
// and upserts everything.
//
// Country rows commit in one transaction and the metadata singleton in a
// second; a crash between the two leaves fresh rows with stale metadata.
// That gap matches the upstream contract and is deliberately not closed.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	started := time.Now()

	records, err := s.countries.FetchCountries(ctx)
	if err != nil {
		metrics.RecordRefresh("upstream_error", time.Since(started))
		return RefreshResult{}, err
	}
	rates, err := s.rates.FetchRates(ctx)
	if err != nil {
		metrics.RecordRefresh("upstream_error", time.Since(started))
		return RefreshResult{}, err
	}

	// One timestamp for the whole run so every row it touches agrees.
	refreshedAt := time.Now().UTC()

	rows := make([]country.Country, 0, len(records))
	for _, rec := range records {
		rows = append(rows, reconcile(rec, rates, refreshedAt))
	}

	if err := s.store.UpsertCountries(ctx, rows); err != nil {
		s.log.WithError(err).Error("country upsert failed")
		metrics.RecordRefresh("storage_error", time.Since(started))
		return RefreshResult{}, apperrors.Internal()
	}

	meta := country.RefreshMetadata{
		ID:              country.MetadataID,
		LastRefreshedAt: refreshedAt,
		TotalCountries:  len(records),
	}
	if err := s.store.PutRefreshMetadata(ctx, meta); err != nil {
		s.log.WithError(err).Error("refresh metadata upsert failed")
		metrics.RecordRefresh("storage_error", time.Since(started))
		return RefreshResult{}, apperrors.Internal()
	}

	if s.renderer != nil {
		// Best effort only: a broken renderer must never fail the refresh
		// or roll back what is already committed.
		if err := s.renderer.Render(rows, len(records), refreshedAt); err != nil {
			s.log.WithError(err).Warn("summary image generation failed")
		}
	}

	s.log.WithField("total_countries", len(records)).Info("countries refreshed")
	metrics.RecordRefresh("success", time.Since(started))
	metrics.SetCountriesTracked(len(records))

	return RefreshResult{
		Message:        "Countries refreshed successfully",
		TotalCountries: len(records),
		Timestamp:      refreshedAt.Format(time.RFC3339),
	}, nil
}

// reconcile derives the persisted row for one fetched record.
//
// The estimated GDP is a pseudo-economic placeholder, not a real model:
// population times a uniform random multiplier in [1000, 2000), divided by
// the exchange rate. The multiplier is drawn independently per country per
// refresh, so repeated refreshes intentionally vary.
func reconcile(rec CountryRecord, rates map[string]float64, refreshedAt time.Time) country.Country {
	row := country.Country{
		Name:            rec.Name,
		Capital:         optional(rec.Capital),
		Region:          optional(rec.Region),
		Population:      rec.Population,
		FlagURL:         optional(rec.Flag),
		LastRefreshedAt: refreshedAt,
	}

	if len(rec.Currencies) > 0 && rec.Currencies[0].Code != "" {
		code := rec.Currencies[0].Code
		row.CurrencyCode = &code

		if rate, ok := rates[code]; ok && rate != 0 {
			multiplier := 1000 + rand.Float64()*1000
			gdp := float64(rec.Population) * multiplier / rate
			row.ExchangeRate = &rate
			row.EstimatedGDP = &gdp
		}
		// Code present but no usable rate: both stay nil.
	} else {
		zero := 0.0
		row.EstimatedGDP = &zero
	}
	return row
}

// List returns countries matching the filter.
func (s *Service) List(ctx context.Context, filter country.Filter) ([]country.Country, error) {
	rows, err := s.store.ListCountries(ctx, filter)
	if err != nil {
		s.log.WithError(err).Error("list countries failed")
		return nil, apperrors.Internal()
	}
	return rows, nil
}

// GetByName looks a country up by case-insensitive exact name match.
func (s *Service) GetByName(ctx context.Context, name string) (country.Country, error) {
	row, err := s.store.GetCountryByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, storage.ErrNotFound) {
		return country.Country{}, apperrors.NotFound("Country")
	}
	if err != nil {
		s.log.WithError(err).Error("get country failed")
		return country.Country{}, apperrors.Internal()
	}
	return row, nil
}

// DeleteByName removes a country by case-insensitive exact name match.
func (s *Service) DeleteByName(ctx context.Context, name string) error {
	err := s.store.DeleteCountryByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NotFound("Country")
	}
	if err != nil {
		s.log.WithError(err).Error("delete country failed")
		return apperrors.Internal()
	}
	s.log.WithField("name", name).Info("country deleted")
	return nil
}

// RefreshStatus returns the metadata of the most recent refresh.
func (s *Service) RefreshStatus(ctx context.Context) (country.RefreshMetadata, error) {
	meta, err := s.store.GetRefreshMetadata(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return country.RefreshMetadata{}, apperrors.NotFound("Refresh metadata")
	}
	if err != nil {
		s.log.WithError(err).Error("get refresh metadata failed")
		return country.RefreshMetadata{}, apperrors.Internal()
	}
	return meta, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
