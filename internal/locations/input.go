package locations

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/weatherdash/dashboard-service/internal/models"
	"github.com/weatherdash/dashboard-service/internal/validation"
)

// InputKind discriminates the three ways a user can specify a location.
type InputKind int

const (
	// ByName is a free-text place name ("Chicago", "Austin,TX").
	ByName InputKind = iota
	// ByCoords is an explicit latitude/longitude pair.
	ByCoords
	// ByMapPick is a point picked on the map, optionally carrying a label
	// already resolved by the geocoding proxy.
	ByMapPick
)

// Input is a tagged location input. Only the fields for its Kind are read:
// Name for ByName; Lat/Lon for ByCoords and ByMapPick; ResolvedLabel for
// ByMapPick.
type Input struct {
	Kind          InputKind
	Name          string
	Lat           float64
	Lon           float64
	ResolvedLabel string
}

// ErrInvalidInput is returned when a free-text name is empty or malformed.
var ErrInvalidInput = errors.New("invalid location input")

// ErrInvalidCoordinates is returned when a coordinate pair is out of range.
var ErrInvalidCoordinates = errors.New("coordinates out of range")

// maxNameLength bounds free-text place names and display names.
const maxNameLength = 100

// Round4 rounds a coordinate to 4 decimal places, half away from zero.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// CoordKey formats a coordinate pair as the canonical "<lat>,<lon>" key
// with exactly 4 decimal places per component.
func CoordKey(lat, lon float64) string {
	return strconv.FormatFloat(Round4(lat), 'f', 4, 64) + "," + strconv.FormatFloat(Round4(lon), 'f', 4, 64)
}

// validCoords reports whether lat/lon are within geographic range.
func validCoords(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Resolve normalizes a tagged input into a Location candidate for the
// store. It performs no I/O; map picks arrive with their label already
// reverse-geocoded.
func Resolve(in Input) (models.Location, error) {
	switch in.Kind {
	case ByName:
		name, err := validation.ValidatePlaceName(in.Name, maxNameLength)
		if err != nil {
			return models.Location{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return models.Location{Key: name, DisplayName: name}, nil

	case ByCoords:
		if !validCoords(in.Lat, in.Lon) {
			return models.Location{}, fmt.Errorf("%w: %g,%g", ErrInvalidCoordinates, in.Lat, in.Lon)
		}
		key := CoordKey(in.Lat, in.Lon)
		return models.Location{Key: key, DisplayName: key}, nil

	case ByMapPick:
		if !validCoords(in.Lat, in.Lon) {
			return models.Location{}, fmt.Errorf("%w: %g,%g", ErrInvalidCoordinates, in.Lat, in.Lon)
		}
		key := CoordKey(in.Lat, in.Lon)
		display := strings.TrimSpace(in.ResolvedLabel)
		if display == "" {
			display = key
		}
		return models.Location{Key: key, DisplayName: display}, nil

	default:
		return models.Location{}, fmt.Errorf("%w: unknown input kind %d", ErrInvalidInput, in.Kind)
	}
}
