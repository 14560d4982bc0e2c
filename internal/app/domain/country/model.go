package country

import "time"

// Country is one reconciled row per distinct country name. Name uniqueness
// is case-insensitive. Optional upstream fields are pointers so their
// absence survives the round trip to storage and JSON.
type Country struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Capital         *string   `json:"capital"`
	Region          *string   `json:"region"`
	Population      int64     `json:"population"`
	CurrencyCode    *string   `json:"currency_code"`
	ExchangeRate    *float64  `json:"exchange_rate"`
	EstimatedGDP    *float64  `json:"estimated_gdp"`
	FlagURL         *string   `json:"flag_url"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
}

// RefreshMetadata is the singleton row (id fixed at 1) tracking the most
// recent successful refresh.
type RefreshMetadata struct {
	ID              int       `json:"id"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
	TotalCountries  int       `json:"total_countries"`
}

// MetadataID is the fixed primary key of the RefreshMetadata singleton.
const MetadataID = 1

// Sort orders a country listing.
type Sort string

const (
	SortNone    Sort = ""
	SortGDPDesc Sort = "gdp_desc"
	SortGDPAsc  Sort = "gdp_asc"
)

// ParseSort validates a caller-supplied sort token.
func ParseSort(raw string) (Sort, bool) {
	switch Sort(raw) {
	case SortNone, SortGDPDesc, SortGDPAsc:
		return Sort(raw), true
	}
	return SortNone, false
}

// Filter narrows a country listing. Empty fields impose no constraint;
// Region and Currency match as case-insensitive substrings.
type Filter struct {
	Region   string
	Currency string
	Sort     Sort
}
