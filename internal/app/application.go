package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/worldpulse/country_service/internal/app/services/countries"
	"github.com/worldpulse/country_service/internal/app/storage"
	"github.com/worldpulse/country_service/internal/app/storage/memory"
	"github.com/worldpulse/country_service/internal/app/system"
	"github.com/worldpulse/country_service/pkg/logger"
)

// Stores encapsulates persistence dependencies. A nil store defaults to the
// in-memory implementation.
type Stores struct {
	Countries storage.CountryStore
}

// Options configures external collaborators. Zero values fall back to the
// production defaults; tests inject fakes through the fetcher and renderer
// fields.
type Options struct {
	CountriesURL    string
	RatesURL        string
	CacheDir        string
	RefreshInterval time.Duration
	HTTPClient      *http.Client

	CountryFetcher countries.CountryFetcher
	RateFetcher    countries.RateFetcher
	Renderer       countries.Renderer
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Countries *countries.Service

	summaryImagePath string
}

// New builds a fully initialised application.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if stores.Countries == nil {
		stores.Countries = memory.New()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: countries.UpstreamTimeout}
	}

	countryFetcher := opts.CountryFetcher
	if countryFetcher == nil {
		url := opts.CountriesURL
		if url == "" {
			url = countries.DefaultCountriesURL
		}
		fetcher, err := countries.NewHTTPCountryFetcher(httpClient, url, log)
		if err != nil {
			return nil, fmt.Errorf("configure country fetcher: %w", err)
		}
		countryFetcher = fetcher
	}

	rateFetcher := opts.RateFetcher
	if rateFetcher == nil {
		url := opts.RatesURL
		if url == "" {
			url = countries.DefaultRatesURL
		}
		fetcher, err := countries.NewHTTPRateFetcher(httpClient, url, log)
		if err != nil {
			return nil, fmt.Errorf("configure rate fetcher: %w", err)
		}
		rateFetcher = fetcher
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = "cache"
	}
	renderer := opts.Renderer
	var imagePath string
	if renderer == nil {
		imageRenderer := countries.NewImageRenderer(cacheDir, log)
		renderer = imageRenderer
		imagePath = imageRenderer.ImagePath()
	} else if pathed, ok := renderer.(interface{ ImagePath() string }); ok {
		imagePath = pathed.ImagePath()
	}

	service := countries.New(stores.Countries, countryFetcher, rateFetcher, renderer, log)

	manager := system.NewManager()
	if err := manager.Register(system.NoopService{ServiceName: "countries"}); err != nil {
		return nil, fmt.Errorf("register countries service: %w", err)
	}
	if opts.RefreshInterval > 0 {
		refresher := countries.NewRefresher(service, opts.RefreshInterval, log)
		if err := manager.Register(refresher); err != nil {
			return nil, fmt.Errorf("register %s: %w", refresher.Name(), err)
		}
	}

	return &Application{
		manager:          manager,
		log:              log,
		Countries:        service,
		summaryImagePath: imagePath,
	}, nil
}

// SummaryImagePath reports where the rendered summary is cached. Empty when
// no file-backed renderer is configured.
func (a *Application) SummaryImagePath() string {
	return a.summaryImagePath
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
