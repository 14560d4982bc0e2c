// Package httpapi exposes the country service over REST.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"

	app "github.com/worldpulse/country_service/internal/app"
	"github.com/worldpulse/country_service/internal/app/domain/country"
	"github.com/worldpulse/country_service/internal/app/metrics"
	apperrors "github.com/worldpulse/country_service/internal/errors"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app       *app.Application
	imagePath string
}

// NewHandler returns a mux exposing the core REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application, imagePath: application.SummaryImagePath()}
	mux := http.NewServeMux()
	mux.HandleFunc("/countries", h.countries)
	mux.HandleFunc("/countries/", h.countryResources)
	mux.HandleFunc("/healthz", h.health)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func (h *handler) countries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.list(w, r)
}

func (h *handler) countryResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/countries"), "/")
	if strings.Contains(trimmed, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch trimmed {
	case "":
		// Trailing-slash form of the listing.
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
	case "refresh":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		result, err := h.app.Countries.Refresh(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	case "status":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		meta, err := h.app.Countries.RefreshStatus(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, meta)
	case "image":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.image(w, r)
	default:
		h.countryByName(w, r, trimmed)
	}
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sortBy, ok := country.ParseSort(query.Get("sort"))
	if !ok {
		writeServiceError(w, apperrors.BadRequest("sort must be gdp_desc or gdp_asc"))
		return
	}

	rows, err := h.app.Countries.List(r.Context(), country.Filter{
		Region:   query.Get("region"),
		Currency: query.Get("currency"),
		Sort:     sortBy,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if rows == nil {
		rows = []country.Country{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *handler) countryByName(w http.ResponseWriter, r *http.Request, rawName string) {
	name, err := url.PathUnescape(rawName)
	if err != nil {
		name = rawName
	}

	switch r.Method {
	case http.MethodGet:
		row, err := h.app.Countries.GetByName(r.Context(), name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, row)
	case http.MethodDelete:
		if err := h.app.Countries.DeleteByName(r.Context(), name); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Country '" + name + "' deleted successfully",
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) image(w http.ResponseWriter, r *http.Request) {
	if h.imagePath == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Summary image not found"})
		return
	}
	if _, err := os.Stat(h.imagePath); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Summary image not found"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, h.imagePath)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps the closed error set onto HTTP responses. Unknown
// errors collapse into a generic 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *apperrors.Error
	if errors.As(err, &svcErr) {
		writeJSON(w, svcErr.HTTPStatus, svcErr)
		return
	}
	writeJSON(w, http.StatusInternalServerError, apperrors.Internal())
}
