package models

import "time"

// Location is a saved dashboard location. Key is the canonical identity:
// either a free-text place name or a "<lat>,<lon>" string rounded to 4
// decimal places. Key never changes after creation; only DisplayName may.
type Location struct {
	Key         string `json:"location"`
	DisplayName string `json:"name"`
}

// Label returns the name shown on the card, falling back to the key when
// no custom name is set.
func (l Location) Label() string {
	if l.DisplayName == "" {
		return l.Key
	}
	return l.DisplayName
}

// HourlyInterval is a single hour of forecast data. Value fields are
// pointers because the upstream omits measurements it has no data for.
type HourlyInterval struct {
	StartTime                time.Time `json:"startTime"`
	TemperatureC             *float64  `json:"temperature,omitempty"`
	PrecipitationProbability *float64  `json:"precipitationProbability,omitempty"`
	WindSpeed                *float64  `json:"windSpeed,omitempty"`
}

// ForecastEntry is a cached hourly forecast for one coordinate key.
// Key is the raw "<lat>,<lon>" string as requested, not rounded.
type ForecastEntry struct {
	Key       string           `json:"key"`
	FetchedAt time.Time        `json:"fetchedAt"`
	Intervals []HourlyInterval `json:"intervals"`
	Stale     bool             `json:"stale,omitempty"` // set when served past TTL while a refresh runs
}

// CurrentConditions holds the current-conditions payload for one location.
type CurrentConditions struct {
	Temperature              float64  `json:"temperature"`
	WeatherCode              int      `json:"weatherCode"`
	WindSpeed                float64  `json:"windSpeed"`
	WindGust                 *float64 `json:"windGust,omitempty"`
	WindDirection            *float64 `json:"windDirection,omitempty"`
	Humidity                 *float64 `json:"humidity,omitempty"`
	TemperatureApparent      *float64 `json:"temperatureApparent,omitempty"`
	Visibility               *float64 `json:"visibility,omitempty"`
	PressureSurfaceLevel     *float64 `json:"pressureSurfaceLevel,omitempty"`
	PressureSeaLevel         *float64 `json:"pressureSeaLevel,omitempty"`
	PrecipitationProbability *float64 `json:"precipitationProbability,omitempty"`
	CloudCover               *float64 `json:"cloudCover,omitempty"`
	DewPoint                 *float64 `json:"dewPoint,omitempty"`
	AltimeterSetting         *float64 `json:"altimeterSetting,omitempty"`
}

// Article is a single news item scoped to a location.
type Article struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
	PubDate     string `json:"pubDate,omitempty"`
	Source      string `json:"source,omitempty"`
}

// PlacePrediction is one autocomplete suggestion from the geocoding proxy.
type PlacePrediction struct {
	PlaceID     string `json:"placeId"`
	Description string `json:"description"`
}

// GeocodeResult is the forward-geocoding result for a place id.
type GeocodeResult struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
}
