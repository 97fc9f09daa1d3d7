package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/weatherdash/dashboard-service/internal/client"
	"github.com/weatherdash/dashboard-service/internal/conditions"
	"github.com/weatherdash/dashboard-service/internal/forecast"
	"github.com/weatherdash/dashboard-service/internal/locations"
	"github.com/weatherdash/dashboard-service/internal/models"
	"github.com/weatherdash/dashboard-service/internal/observability"
	"github.com/weatherdash/dashboard-service/internal/temperature"
)

// UpstreamAPI is the slice of the upstream client the handlers call.
type UpstreamAPI interface {
	CurrentConditions(ctx context.Context, loc string) (models.CurrentConditions, error)
	Headlines(ctx context.Context, loc string) ([]models.Article, error)
	Reverse(ctx context.Context, lat, lon float64) (string, error)
	Autocomplete(ctx context.Context, input string) ([]models.PlacePrediction, error)
	Geocode(ctx context.Context, placeID string) (models.GeocodeResult, error)
}

// ForecastProvider serves hourly forecasts as a sequence of cache updates.
type ForecastProvider interface {
	GetKey(ctx context.Context, key string) <-chan forecast.Update
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	upstream  UpstreamAPI
	forecasts ForecastProvider
	store     *locations.Store
	logger    *zap.Logger
	validate  *validator.Validate
	cachePing func() error
}

// NewHandler returns a new Handler. cachePing may be nil when the forecast
// backend has no external process to check.
func NewHandler(upstream UpstreamAPI, forecasts ForecastProvider, store *locations.Store, logger *zap.Logger, cachePing func() error) *Handler {
	return &Handler{
		upstream:  upstream,
		forecasts: forecasts,
		store:     store,
		logger:    logger,
		validate:  validator.New(),
		cachePing: cachePing,
	}
}

// weatherResponse is current conditions enriched with presentation fields
// so every card renders the same label, icon and dual-unit temperature.
type weatherResponse struct {
	models.CurrentConditions
	ConditionLabel  string `json:"conditionLabel"`
	ConditionIcon   string `json:"conditionIcon"`
	TemperatureDual string `json:"temperatureDual"`
	WindCardinal    string `json:"windCardinal,omitempty"`
}

// GetWeather handles GET /api/weather?loc=.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	loc := strings.TrimSpace(r.URL.Query().Get("loc"))
	if loc == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "loc is required")
		return
	}

	cc, err := h.upstream.CurrentConditions(r.Context(), loc)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}

	resp := weatherResponse{
		CurrentConditions: cc,
		ConditionLabel:    conditions.Label(cc.WeatherCode),
		ConditionIcon:     conditions.Icon(cc.WeatherCode, cc.WindSpeed),
		TemperatureDual:   temperature.FormatDual(cc.Temperature),
	}
	if cc.WindDirection != nil {
		resp.WindCardinal = conditions.DegreesToCardinal(*cc.WindDirection)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetForecast handles GET /api/weather-forecast?location=<lat>,<lon>.
// It answers with the first update that settles the request: cached data
// (fresh or stale) or a fetch failure. A stale answer leaves the refresh
// running in the background.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("location"))
	if !validForecastKey(key) {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATES", "location must be \"<lat>,<lon>\" within range")
		return
	}

	updates := h.forecasts.GetKey(r.Context(), key)
	for {
		select {
		case <-r.Context().Done():
			writeError(w, r, http.StatusGatewayTimeout, "TIMEOUT", "forecast fetch timed out")
			return
		case u, ok := <-updates:
			if !ok {
				writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Unable to fetch forecast data")
				return
			}
			switch u.State {
			case forecast.StateLoading:
				continue
			case forecast.StateReady:
				writeJSON(w, http.StatusOK, u.Entry)
				return
			case forecast.StateFailed:
				writeUpstreamError(w, r, u.Err)
				return
			}
		}
	}
}

// validForecastKey checks that key parses as an in-range "<lat>,<lon>"
// pair. The key is passed through verbatim; no rounding happens here.
func validForecastKey(key string) bool {
	parts := strings.Split(key, ",")
	if len(parts) != 2 {
		return false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// GetNews handles GET /api/news?loc=. loc is optional; without it the
// upstream returns general headlines.
func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	loc := strings.TrimSpace(r.URL.Query().Get("loc"))
	articles, err := h.upstream.Headlines(r.Context(), loc)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"articles": articles})
}

// GetGeocode handles GET /api/geocode?op=reverse|autocomplete|geocode.
func (h *Handler) GetGeocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch q.Get("op") {
	case "reverse":
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(q.Get("lng"), 64)
		if errLat != nil || errLon != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATES", "lat and lng must be numbers")
			return
		}
		label, err := h.upstream.Reverse(r.Context(), lat, lon)
		if err != nil {
			writeUpstreamError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"label": label})
	case "autocomplete":
		input := strings.TrimSpace(q.Get("input"))
		if input == "" {
			writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "input is required")
			return
		}
		predictions, err := h.upstream.Autocomplete(r.Context(), input)
		if err != nil {
			writeUpstreamError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": predictions})
	case "geocode":
		placeID := strings.TrimSpace(q.Get("place_id"))
		if placeID == "" {
			writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "place_id is required")
			return
		}
		result, err := h.upstream.Geocode(r.Context(), placeID)
		if err != nil {
			writeUpstreamError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	default:
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "op must be reverse, autocomplete or geocode")
	}
}

// locationInput is the POST /api/locations body. Exactly one input shape
// is read depending on kind.
type locationInput struct {
	Kind  string   `json:"kind" validate:"required,oneof=name coords map_pick"`
	Name  string   `json:"name" validate:"required_if=Kind name"`
	Lat   *float64 `json:"lat" validate:"required_unless=Kind name"`
	Lon   *float64 `json:"lon" validate:"required_unless=Kind name"`
	Label string   `json:"label"`
}

// GetLocations handles GET /api/locations.
func (h *Handler) GetLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"locations": h.store.List()})
}

// PostLocation handles POST /api/locations.
func (h *Handler) PostLocation(w http.ResponseWriter, r *http.Request) {
	var body locationInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "missing or invalid fields for kind "+body.Kind)
		return
	}

	in := locations.Input{Name: body.Name, ResolvedLabel: body.Label}
	if body.Lat != nil {
		in.Lat = *body.Lat
	}
	if body.Lon != nil {
		in.Lon = *body.Lon
	}
	switch body.Kind {
	case "name":
		in.Kind = locations.ByName
	case "coords":
		in.Kind = locations.ByCoords
	case "map_pick":
		in.Kind = locations.ByMapPick
	}

	candidate, err := locations.Resolve(in)
	if err != nil {
		switch {
		case errors.Is(err, locations.ErrInvalidCoordinates):
			writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATES", err.Error())
		default:
			writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		}
		return
	}

	updated, err := h.store.Add(r.Context(), candidate)
	if err != nil {
		switch {
		case errors.Is(err, locations.ErrDuplicateKey):
			writeError(w, r, http.StatusConflict, "DUPLICATE_LOCATION", "location is already saved")
		case errors.Is(err, locations.ErrCapacityExceeded):
			writeError(w, r, http.StatusConflict, "MAX_LOCATIONS", "maximum of "+strconv.Itoa(locations.MaxLocations)+" locations reached")
		default:
			writeError(w, r, http.StatusInternalServerError, "INTERNAL", "could not save location")
		}
		return
	}
	observability.LocationsSaved.Set(float64(len(updated)))
	writeJSON(w, http.StatusCreated, map[string]interface{}{"locations": updated})
}

// PatchLocation handles PATCH /api/locations/{key} (rename).
func (h *Handler) PatchLocation(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "request body must be valid JSON")
		return
	}
	updated := h.store.Rename(r.Context(), key, body.Name)
	writeJSON(w, http.StatusOK, map[string]interface{}{"locations": updated})
}

// DeleteLocation handles DELETE /api/locations/{key}.
func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	updated := h.store.Remove(r.Context(), key)
	observability.LocationsSaved.Set(float64(len(updated)))
	writeJSON(w, http.StatusOK, map[string]interface{}{"locations": updated})
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	checks := make(map[string]string)
	if h.cachePing != nil {
		if h.cachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "dashboard-service",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with
// code, message, and requestId (correlation ID) if available in request
// context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// writeUpstreamError maps upstream client errors onto HTTP responses.
// Card errors stay per-request; one failing card never takes down the
// dashboard.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, client.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no data for this location")
	case errors.Is(err, client.ErrRateLimited):
		writeError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "upstream rate limit hit")
	default:
		writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Unable to fetch data")
	}
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Debug("upstream error", zap.Error(err))
	}
}
