package storage

import (
	"context"
	"errors"

	"github.com/worldpulse/country_service/internal/app/domain/country"
)

// ErrNotFound is returned by stores when a lookup or delete target is
// absent. Implementations translate their native sentinel (e.g.
// sql.ErrNoRows) into this.
var ErrNotFound = errors.New("record not found")

// CountryStore persists reconciled country rows and the refresh metadata
// singleton.
type CountryStore interface {
	// UpsertCountries writes all rows in a single transaction, keyed on
	// case-insensitive name. Existing rows keep their identifier; new rows
	// are assigned one. Nothing is written if any row fails.
	UpsertCountries(ctx context.Context, rows []country.Country) error

	ListCountries(ctx context.Context, filter country.Filter) ([]country.Country, error)
	GetCountryByName(ctx context.Context, name string) (country.Country, error)
	DeleteCountryByName(ctx context.Context, name string) error

	// PutRefreshMetadata upserts the singleton metadata row in its own
	// transaction, separate from any country upsert.
	PutRefreshMetadata(ctx context.Context, meta country.RefreshMetadata) error
	GetRefreshMetadata(ctx context.Context) (country.RefreshMetadata, error)
}
