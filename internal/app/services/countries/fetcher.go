package countries

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/worldpulse/country_service/internal/errors"
	"github.com/worldpulse/country_service/pkg/logger"
)

// Default upstream endpoints. Both are anonymous public APIs; the rate
// table is anchored to USD.
const (
	DefaultCountriesURL = "https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies"
	DefaultRatesURL     = "https://open.er-api.com/v6/latest/USD"
)

// UpstreamTimeout bounds each outbound fetch. A single attempt is made;
// there is no retry.
const UpstreamTimeout = 30 * time.Second

// CountryRecord is the validated boundary shape of one upstream country.
// Payloads are decoded into this, never passed onward as untyped maps.
type CountryRecord struct {
	Name       string           `json:"name"`
	Capital    string           `json:"capital"`
	Region     string           `json:"region"`
	Population int64            `json:"population"`
	Flag       string           `json:"flag"`
	Currencies []CurrencyRecord `json:"currencies"`
}

// CurrencyRecord carries the only currency field the service consumes.
type CurrencyRecord struct {
	Code string `json:"code"`
}

// CountryFetcher retrieves the upstream country list.
type CountryFetcher interface {
	FetchCountries(ctx context.Context) ([]CountryRecord, error)
}

// CountryFetcherFunc adapts a function to the CountryFetcher interface.
type CountryFetcherFunc func(ctx context.Context) ([]CountryRecord, error)

func (f CountryFetcherFunc) FetchCountries(ctx context.Context) ([]CountryRecord, error) {
	return f(ctx)
}

// RateFetcher retrieves the currency-code → rate table (destination
// currency per 1 USD).
type RateFetcher interface {
	FetchRates(ctx context.Context) (map[string]float64, error)
}

// RateFetcherFunc adapts a function to the RateFetcher interface.
type RateFetcherFunc func(ctx context.Context) (map[string]float64, error)

func (f RateFetcherFunc) FetchRates(ctx context.Context) (map[string]float64, error) {
	return f(ctx)
}

// HTTPCountryFetcher fetches countries from a REST Countries compatible
// endpoint.
type HTTPCountryFetcher struct {
	client *http.Client
	url    string
	log    *logger.Logger
}

// NewHTTPCountryFetcher constructs a fetcher for the given endpoint.
func NewHTTPCountryFetcher(client *http.Client, url string, log *logger.Logger) (*HTTPCountryFetcher, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("countries endpoint required")
	}
	if client == nil {
		client = &http.Client{Timeout: UpstreamTimeout}
	}
	if log == nil {
		log = logger.NewDefault("country-fetcher")
	}
	return &HTTPCountryFetcher{client: client, url: url, log: log}, nil
}

func (f *HTTPCountryFetcher) FetchCountries(ctx context.Context) ([]CountryRecord, error) {
	var records []CountryRecord
	if err := fetchJSON(ctx, f.client, f.url, &records); err != nil {
		f.log.WithError(err).Warn("countries fetch failed")
		return nil, apperrors.UpstreamUnavailable("countries", err)
	}

	// Upstream occasionally ships unnamed entries; they cannot be keyed
	// and are dropped at the boundary.
	valid := records[:0]
	for _, rec := range records {
		if strings.TrimSpace(rec.Name) == "" {
			continue
		}
		if rec.Population < 0 {
			rec.Population = 0
		}
		valid = append(valid, rec)
	}
	return valid, nil
}

// HTTPRateFetcher fetches a USD-anchored exchange rate table.
type HTTPRateFetcher struct {
	client *http.Client
	url    string
	log    *logger.Logger
}

// NewHTTPRateFetcher constructs a fetcher for the given endpoint.
func NewHTTPRateFetcher(client *http.Client, url string, log *logger.Logger) (*HTTPRateFetcher, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("rates endpoint required")
	}
	if client == nil {
		client = &http.Client{Timeout: UpstreamTimeout}
	}
	if log == nil {
		log = logger.NewDefault("rate-fetcher")
	}
	return &HTTPRateFetcher{client: client, url: url, log: log}, nil
}

func (f *HTTPRateFetcher) FetchRates(ctx context.Context) (map[string]float64, error) {
	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := fetchJSON(ctx, f.client, f.url, &payload); err != nil {
		f.log.WithError(err).Warn("exchange rates fetch failed")
		return nil, apperrors.UpstreamUnavailable("exchange rates", err)
	}
	if payload.Rates == nil {
		payload.Rates = map[string]float64{}
	}
	return payload.Rates, nil
}

func fetchJSON(ctx context.Context, client *http.Client, url string, target interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, UpstreamTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
