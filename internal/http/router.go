package http

import (
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/weatherdash/dashboard-service/internal/observability"
)

// NewRouter builds the service router: /health and /metrics stay outside
// the rate limiter and request timeout, the /api routes sit behind both.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	api := router.PathPrefix("/api").Subrouter()
	api.Use(RateLimitMiddleware(limiter))
	api.Use(TimeoutMiddleware(requestTimeout))
	api.HandleFunc("/weather", h.GetWeather).Methods("GET")
	api.HandleFunc("/weather-forecast", h.GetForecast).Methods("GET")
	api.HandleFunc("/news", h.GetNews).Methods("GET")
	api.HandleFunc("/geocode", h.GetGeocode).Methods("GET")
	api.HandleFunc("/locations", h.GetLocations).Methods("GET")
	api.HandleFunc("/locations", h.PostLocation).Methods("POST")
	api.HandleFunc("/locations/{key}", h.PatchLocation).Methods("PATCH")
	api.HandleFunc("/locations/{key}", h.DeleteLocation).Methods("DELETE")
	return router
}
