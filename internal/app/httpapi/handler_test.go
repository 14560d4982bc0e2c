package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/worldpulse/country_service/internal/app"
	"github.com/worldpulse/country_service/internal/app/services/countries"
)

func testApplication(t *testing.T) *app.Application {
	t.Helper()

	fetcher := countries.CountryFetcherFunc(func(context.Context) ([]countries.CountryRecord, error) {
		return []countries.CountryRecord{
			{Name: "Canada", Capital: "Ottawa", Region: "Americas", Population: 38000000,
				Currencies: []countries.CurrencyRecord{{Code: "CAD"}}},
			{Name: "Nigeria", Capital: "Abuja", Region: "Africa", Population: 220000000,
				Currencies: []countries.CurrencyRecord{{Code: "NGN"}}},
			{Name: "Atlantis", Region: "Oceans", Population: 1000},
		}, nil
	})
	rates := countries.RateFetcherFunc(func(context.Context) (map[string]float64, error) {
		return map[string]float64{"CAD": 1.36, "NGN": 1600.5}, nil
	})

	application, err := app.New(app.Stores{}, app.Options{
		CountryFetcher: fetcher,
		RateFetcher:    rates,
		Renderer:       countries.NewImageRenderer(t.TempDir(), nil),
	}, nil)
	require.NoError(t, err)
	return application
}

func doRequest(handler http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func refresh(t *testing.T, handler http.Handler) {
	t.Helper()
	rec := doRequest(handler, http.MethodPost, "/countries/refresh")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRefreshEndpoint(t *testing.T) {
	handler := NewHandler(testApplication(t))

	rec := doRequest(handler, http.MethodPost, "/countries/refresh")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Message        string `json:"message"`
		TotalCountries int    `json:"total_countries"`
		Timestamp      string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Countries refreshed successfully", body.Message)
	assert.Equal(t, 3, body.TotalCountries)
	assert.NotEmpty(t, body.Timestamp)

	// GET is not accepted on the refresh route.
	rec = doRequest(handler, http.MethodGet, "/countries/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListCountries(t *testing.T) {
	handler := NewHandler(testApplication(t))
	refresh(t, handler)

	rec := doRequest(handler, http.MethodGet, "/countries")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 3)

	rec = doRequest(handler, http.MethodGet, "/countries?region=africa")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Nigeria", rows[0]["name"])

	rec = doRequest(handler, http.MethodGet, "/countries?currency=CAD")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Canada", rows[0]["name"])

	rec = doRequest(handler, http.MethodGet, "/countries?sort=gdp_desc")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 3)
	// Atlantis has no currency, so its estimated GDP is exactly zero and
	// it sorts behind the two priced countries.
	assert.Equal(t, "Atlantis", rows[2]["name"])
}

func TestListCountriesInvalidSort(t *testing.T) {
	handler := NewHandler(testApplication(t))

	rec := doRequest(handler, http.MethodGet, "/countries?sort=population")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "sort")
}

func TestListCountriesEmptyStore(t *testing.T) {
	handler := NewHandler(testApplication(t))

	rec := doRequest(handler, http.MethodGet, "/countries")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetCountryByName(t *testing.T) {
	handler := NewHandler(testApplication(t))
	refresh(t, handler)

	for _, path := range []string{"/countries/Canada", "/countries/canada", "/countries/CANADA"} {
		rec := doRequest(handler, http.MethodGet, path)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var row map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
		assert.Equal(t, "Canada", row["name"])
		assert.Equal(t, "CAD", row["currency_code"])
	}

	rec := doRequest(handler, http.MethodGet, "/countries/Erewhon")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Country not found", body["error"])
}

func TestDeleteCountryByName(t *testing.T) {
	handler := NewHandler(testApplication(t))
	refresh(t, handler)

	rec := doRequest(handler, http.MethodDelete, "/countries/nigeria")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Country 'nigeria' deleted successfully", body["message"])

	rec = doRequest(handler, http.MethodGet, "/countries/Nigeria")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(handler, http.MethodDelete, "/countries/Nigeria")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshStatusEndpoint(t *testing.T) {
	handler := NewHandler(testApplication(t))

	rec := doRequest(handler, http.MethodGet, "/countries/status")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	refresh(t, handler)

	rec = doRequest(handler, http.MethodGet, "/countries/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var meta struct {
		TotalCountries  int    `json:"total_countries"`
		LastRefreshedAt string `json:"last_refreshed_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, 3, meta.TotalCountries)
	assert.NotEmpty(t, meta.LastRefreshedAt)
}

func TestSummaryImageEndpoint(t *testing.T) {
	handler := NewHandler(testApplication(t))

	rec := doRequest(handler, http.MethodGet, "/countries/image")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Summary image not found", body["error"])

	refresh(t, handler)

	rec = doRequest(handler, http.MethodGet, "/countries/image")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())
}

func TestUnknownNestedPath(t *testing.T) {
	handler := NewHandler(testApplication(t))

	rec := doRequest(handler, http.MethodGet, "/countries/foo/bar")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	handler := NewHandler(testApplication(t))

	rec := doRequest(handler, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
