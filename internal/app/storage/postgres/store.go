package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/worldpulse/country_service/internal/app/domain/country"
	"github.com/worldpulse/country_service/internal/app/storage"
)

// Store implements storage.CountryStore backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.CountryStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const countryColumns = `id, name, capital, region, population, currency_code, exchange_rate, estimated_gdp, flag_url, last_refreshed_at`

// UpsertCountries writes every row inside one transaction. Rows are keyed on
// LOWER(name): a match is updated in place with its identifier preserved, a
// miss is inserted with a fresh identifier. Any failure rolls the whole
// batch back.
func (s *Store) UpsertCountries(ctx context.Context, rows []country.Country) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		var existingID string
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM countries WHERE LOWER(name) = LOWER($1)
		`, row.Name).Scan(&existingID)

		switch {
		case err == nil:
			_, err = tx.ExecContext(ctx, `
				UPDATE countries
				SET capital = $2, region = $3, population = $4, currency_code = $5,
				    exchange_rate = $6, estimated_gdp = $7, flag_url = $8, last_refreshed_at = $9
				WHERE id = $1
			`, existingID, row.Capital, row.Region, row.Population, row.CurrencyCode,
				row.ExchangeRate, row.EstimatedGDP, row.FlagURL, row.LastRefreshedAt)
			if err != nil {
				return fmt.Errorf("update country %q: %w", row.Name, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			id := row.ID
			if id == "" {
				id = uuid.NewString()
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO countries (`+countryColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			`, id, row.Name, row.Capital, row.Region, row.Population, row.CurrencyCode,
				row.ExchangeRate, row.EstimatedGDP, row.FlagURL, row.LastRefreshedAt)
			if err != nil {
				return fmt.Errorf("insert country %q: %w", row.Name, err)
			}
		default:
			return fmt.Errorf("probe country %q: %w", row.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert tx: %w", err)
	}
	return nil
}

func (s *Store) ListCountries(ctx context.Context, filter country.Filter) ([]country.Country, error) {
	query := `SELECT ` + countryColumns + ` FROM countries`
	var (
		clauses []string
		args    []interface{}
	)
	if filter.Region != "" {
		args = append(args, filter.Region)
		clauses = append(clauses, fmt.Sprintf("region ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if filter.Currency != "" {
		args = append(args, filter.Currency)
		clauses = append(clauses, fmt.Sprintf("currency_code ILIKE '%%' || $%d || '%%'", len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	switch filter.Sort {
	case country.SortGDPDesc:
		query += " ORDER BY estimated_gdp DESC NULLS LAST"
	case country.SortGDPAsc:
		query += " ORDER BY estimated_gdp ASC NULLS LAST"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []country.Country
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) GetCountryByName(ctx context.Context, name string) (country.Country, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+countryColumns+` FROM countries WHERE LOWER(name) = LOWER($1)
	`, name)

	c, err := scanCountry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return country.Country{}, storage.ErrNotFound
	}
	if err != nil {
		return country.Country{}, err
	}
	return c, nil
}

func (s *Store) DeleteCountryByName(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM countries WHERE LOWER(name) = LOWER($1)
	`, name)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) PutRefreshMetadata(ctx context.Context, meta country.RefreshMetadata) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_metadata (id, last_refreshed_at, total_countries)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET last_refreshed_at = EXCLUDED.last_refreshed_at,
		    total_countries = EXCLUDED.total_countries
	`, country.MetadataID, meta.LastRefreshedAt, meta.TotalCountries)
	return err
}

func (s *Store) GetRefreshMetadata(ctx context.Context) (country.RefreshMetadata, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, last_refreshed_at, total_countries FROM refresh_metadata WHERE id = $1
	`, country.MetadataID)

	var meta country.RefreshMetadata
	if err := row.Scan(&meta.ID, &meta.LastRefreshedAt, &meta.TotalCountries); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return country.RefreshMetadata{}, storage.ErrNotFound
		}
		return country.RefreshMetadata{}, err
	}
	meta.LastRefreshedAt = meta.LastRefreshedAt.UTC()
	return meta, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCountry(row rowScanner) (country.Country, error) {
	var (
		c            country.Country
		capital      sql.NullString
		region       sql.NullString
		currencyCode sql.NullString
		exchangeRate sql.NullFloat64
		estimatedGDP sql.NullFloat64
		flagURL      sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &capital, &region, &c.Population, &currencyCode,
		&exchangeRate, &estimatedGDP, &flagURL, &c.LastRefreshedAt)
	if err != nil {
		return country.Country{}, err
	}
	c.Capital = nullString(capital)
	c.Region = nullString(region)
	c.CurrencyCode = nullString(currencyCode)
	c.ExchangeRate = nullFloat(exchangeRate)
	c.EstimatedGDP = nullFloat(estimatedGDP)
	c.FlagURL = nullString(flagURL)
	c.LastRefreshedAt = c.LastRefreshedAt.UTC()
	return c, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
