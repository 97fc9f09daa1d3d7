package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/weatherdash/dashboard-service/internal/client"
	"github.com/weatherdash/dashboard-service/internal/forecast"
	"github.com/weatherdash/dashboard-service/internal/locations"
	"github.com/weatherdash/dashboard-service/internal/models"
	"github.com/weatherdash/dashboard-service/internal/storage"
)

func floatPtr(v float64) *float64 { return &v }

type fakeUpstream struct {
	conditions models.CurrentConditions
	condErr    error
	articles   []models.Article
	newsErr    error
	label      string
	predictions []models.PlacePrediction
	geocode    models.GeocodeResult
	geoErr     error
}

func (f *fakeUpstream) CurrentConditions(_ context.Context, _ string) (models.CurrentConditions, error) {
	return f.conditions, f.condErr
}

func (f *fakeUpstream) Headlines(_ context.Context, _ string) ([]models.Article, error) {
	return f.articles, f.newsErr
}

func (f *fakeUpstream) Reverse(_ context.Context, _, _ float64) (string, error) {
	return f.label, f.geoErr
}

func (f *fakeUpstream) Autocomplete(_ context.Context, _ string) ([]models.PlacePrediction, error) {
	return f.predictions, f.geoErr
}

func (f *fakeUpstream) Geocode(_ context.Context, _ string) (models.GeocodeResult, error) {
	return f.geocode, f.geoErr
}

// fakeForecasts replays a fixed sequence of updates for every key.
type fakeForecasts struct {
	updates []forecast.Update
}

func (f *fakeForecasts) GetKey(_ context.Context, _ string) <-chan forecast.Update {
	ch := make(chan forecast.Update, len(f.updates))
	for _, u := range f.updates {
		ch <- u
	}
	close(ch)
	return ch
}

func newTestHandler(t *testing.T, upstream UpstreamAPI, forecasts ForecastProvider) *Handler {
	t.Helper()
	store := locations.NewStore(storage.NewMemKV(), zap.NewNop())
	store.Load(context.Background())
	return NewHandler(upstream, forecasts, store, zap.NewNop(), nil)
}

func TestGetWeatherEnrichment(t *testing.T) {
	upstream := &fakeUpstream{conditions: models.CurrentConditions{
		Temperature:   21.5,
		WeatherCode:   1000,
		WindSpeed:     50,
		WindDirection: floatPtr(90),
	}}
	h := newTestHandler(t, upstream, &fakeForecasts{})

	req := httptest.NewRequest("GET", "/api/weather?loc=portland", nil)
	rec := httptest.NewRecorder()
	h.GetWeather(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var resp weatherResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ConditionLabel != "Clear, Sunny" {
		t.Errorf("ConditionLabel = %q", resp.ConditionLabel)
	}
	// clear code plus wind over the windy threshold renders the wind icon
	if resp.ConditionIcon != "wind" {
		t.Errorf("ConditionIcon = %q, want wind", resp.ConditionIcon)
	}
	if resp.TemperatureDual != "21.5°C / 70.7°F" {
		t.Errorf("TemperatureDual = %q", resp.TemperatureDual)
	}
	if resp.WindCardinal != "E" {
		t.Errorf("WindCardinal = %q, want E", resp.WindCardinal)
	}
}

func TestGetWeatherMissingLoc(t *testing.T) {
	h := newTestHandler(t, &fakeUpstream{}, &fakeForecasts{})
	req := httptest.NewRequest("GET", "/api/weather", nil)
	rec := httptest.NewRecorder()
	h.GetWeather(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	assertErrorCode(t, rec, "INVALID_INPUT")
}

func TestGetWeatherUpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", client.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"rate limited", client.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"upstream failure", client.ErrUpstreamFailure, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &fakeUpstream{condErr: fmt.Errorf("wrapped: %w", tt.err)}, &fakeForecasts{})
			req := httptest.NewRequest("GET", "/api/weather?loc=x", nil)
			rec := httptest.NewRecorder()
			h.GetWeather(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			assertErrorCode(t, rec, tt.wantCode)
		})
	}
}

func TestGetForecastReady(t *testing.T) {
	entry := models.ForecastEntry{
		Key:       "45.5231,-122.6765",
		FetchedAt: time.Now(),
		Intervals: []models.HourlyInterval{{StartTime: time.Now(), TemperatureC: floatPtr(12)}},
	}
	h := newTestHandler(t, &fakeUpstream{}, &fakeForecasts{updates: []forecast.Update{
		{State: forecast.StateLoading},
		{State: forecast.StateReady, Entry: entry},
	}})

	req := httptest.NewRequest("GET", "/api/weather-forecast?location=45.5231,-122.6765", nil)
	rec := httptest.NewRecorder()
	h.GetForecast(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var got models.ForecastEntry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Key != entry.Key || len(got.Intervals) != 1 {
		t.Errorf("unexpected entry: %+v", got)
	}
}

func TestGetForecastStaleServedImmediately(t *testing.T) {
	stale := models.ForecastEntry{Key: "1,2", Stale: true, Intervals: []models.HourlyInterval{{}}}
	h := newTestHandler(t, &fakeUpstream{}, &fakeForecasts{updates: []forecast.Update{
		{State: forecast.StateReady, Entry: stale},
	}})

	req := httptest.NewRequest("GET", "/api/weather-forecast?location=1,2", nil)
	rec := httptest.NewRecorder()
	h.GetForecast(rec, req)

	var got models.ForecastEntry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Stale {
		t.Error("expected stale entry to carry stale flag")
	}
}

func TestGetForecastFailed(t *testing.T) {
	h := newTestHandler(t, &fakeUpstream{}, &fakeForecasts{updates: []forecast.Update{
		{State: forecast.StateLoading},
		{State: forecast.StateFailed, Err: client.ErrUpstreamFailure},
	}})
	req := httptest.NewRequest("GET", "/api/weather-forecast?location=1,2", nil)
	rec := httptest.NewRecorder()
	h.GetForecast(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestGetForecastInvalidKey(t *testing.T) {
	tests := []string{"", "portland", "91,0", "0,181", "1,2,3", "abc,def"}
	h := newTestHandler(t, &fakeUpstream{}, &fakeForecasts{})
	for _, key := range tests {
		req := httptest.NewRequest("GET", "/api/weather-forecast?location="+key, nil)
		rec := httptest.NewRecorder()
		h.GetForecast(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("key %q: status = %d, want 400", key, rec.Code)
		}
	}
}

func TestGetNews(t *testing.T) {
	h := newTestHandler(t, &fakeUpstream{articles: []models.Article{{Title: "headline"}}}, &fakeForecasts{})
	req := httptest.NewRequest("GET", "/api/news?loc=portland", nil)
	rec := httptest.NewRecorder()
	h.GetNews(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Articles []models.Article `json:"articles"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Articles) != 1 || resp.Articles[0].Title != "headline" {
		t.Errorf("unexpected articles: %+v", resp.Articles)
	}
}

func TestGetGeocodeOps(t *testing.T) {
	upstream := &fakeUpstream{
		label:       "Portland, OR, USA",
		predictions: []models.PlacePrediction{{PlaceID: "p1", Description: "Portland"}},
		geocode:     models.GeocodeResult{Lat: 45.5231, Lon: -122.6765, Label: "Portland"},
	}
	h := newTestHandler(t, upstream, &fakeForecasts{})

	tests := []struct {
		name string
		url  string
		want int
	}{
		{"reverse", "/api/geocode?op=reverse&lat=45.5&lng=-122.6", http.StatusOK},
		{"reverse bad coords", "/api/geocode?op=reverse&lat=x&lng=y", http.StatusBadRequest},
		{"autocomplete", "/api/geocode?op=autocomplete&input=port", http.StatusOK},
		{"autocomplete empty", "/api/geocode?op=autocomplete&input=", http.StatusBadRequest},
		{"geocode", "/api/geocode?op=geocode&place_id=p1", http.StatusOK},
		{"geocode missing id", "/api/geocode?op=geocode", http.StatusBadRequest},
		{"unknown op", "/api/geocode?op=nope", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)
			rec := httptest.NewRecorder()
			h.GetGeocode(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d; body %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func postLocation(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/locations", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLocationLifecycle(t *testing.T) {
	h := newTestHandler(t, &fakeUpstream{}, &fakeForecasts{})
	router := NewRouter(h, zap.NewNop(), nil, 5*time.Second)

	// add by name
	rec := postLocation(t, router, `{"kind":"name","name":"Chicago"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add by name: status = %d; body %s", rec.Code, rec.Body.String())
	}

	// add by coords
	rec = postLocation(t, router, `{"kind":"coords","lat":45.5231,"lon":-122.6765}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add by coords: status = %d; body %s", rec.Code, rec.Body.String())
	}

	// duplicate name
	rec = postLocation(t, router, `{"kind":"name","name":"Chicago"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: status = %d, want 409", rec.Code)
	}
	assertErrorCode(t, rec, "DUPLICATE_LOCATION")

	// third location fills capacity
	rec = postLocation(t, router, `{"kind":"map_pick","lat":-33.8688,"lon":151.2093,"label":"Sydney"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add map_pick: status = %d; body %s", rec.Code, rec.Body.String())
	}

	// fourth is over capacity
	rec = postLocation(t, router, `{"kind":"name","name":"Austin"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("capacity: status = %d, want 409", rec.Code)
	}
	assertErrorCode(t, rec, "MAX_LOCATIONS")

	// rename
	req := httptest.NewRequest("PATCH", "/api/locations/Chicago", strings.NewReader(`{"name":"Home"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: status = %d", rec.Code)
	}
	var renamed struct {
		Locations []models.Location `json:"locations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&renamed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if renamed.Locations[0].DisplayName != "Home" {
		t.Errorf("rename did not apply: %+v", renamed.Locations)
	}

	// delete
	req = httptest.NewRequest("DELETE", "/api/locations/Chicago", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	var afterRemoval struct {
		Locations []models.Location `json:"locations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&afterRemoval); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(afterRemoval.Locations) != 2 {
		t.Errorf("locations after delete = %d, want 2", len(afterRemoval.Locations))
	}
}

func TestPostLocationValidation(t *testing.T) {
	h := newTestHandler(t, &fakeUpstream{}, &fakeForecasts{})
	router := NewRouter(h, zap.NewNop(), nil, 5*time.Second)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"missing kind", `{"name":"Chicago"}`, "INVALID_INPUT"},
		{"unknown kind", `{"kind":"zipcode","name":"x"}`, "INVALID_INPUT"},
		{"name kind without name", `{"kind":"name"}`, "INVALID_INPUT"},
		{"coords kind without coords", `{"kind":"coords"}`, "INVALID_INPUT"},
		{"out of range lat", `{"kind":"coords","lat":91,"lon":0}`, "INVALID_COORDINATES"},
		{"out of range lon", `{"kind":"coords","lat":0,"lon":-181}`, "INVALID_COORDINATES"},
		{"not json", `kind=name`, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postLocation(t, router, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
			}
			assertErrorCode(t, rec, tt.wantCode)
		})
	}
}

func TestGetHealth(t *testing.T) {
	h := newTestHandler(t, &fakeUpstream{}, &fakeForecasts{})
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.GetHealth(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || resp.Service != "dashboard-service" {
		t.Errorf("unexpected health payload: %+v", resp)
	}
}

func TestGetHealthCacheDown(t *testing.T) {
	store := locations.NewStore(storage.NewMemKV(), zap.NewNop())
	h := NewHandler(&fakeUpstream{}, &fakeForecasts{}, store, zap.NewNop(), func() error {
		return fmt.Errorf("connection refused")
	})
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.GetHealth(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	if resp.Error.Code != want {
		t.Errorf("error code = %q, want %q", resp.Error.Code, want)
	}
}
