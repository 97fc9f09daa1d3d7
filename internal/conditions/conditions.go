// Package conditions maps numeric weather codes to human-readable labels
// and icon categories for the dashboard cards.
package conditions

import "math"

// Icon categories. Each corresponds to one card animation.
const (
	IconSun      = "sun"
	IconCloud    = "cloud"
	IconRain     = "rain"
	IconRainWind = "rain-wind"
	IconSnow     = "snow"
	IconStorm    = "storm"
	IconWind     = "wind"
)

// windyThreshold is the wind speed above which clear/cloudy conditions are
// reclassified toward the wind icons.
const windyThreshold = 40.0

var labels = map[int]string{
	0:    "Unknown",
	1000: "Clear, Sunny",
	1100: "Mostly Clear",
	1101: "Partly Cloudy",
	1102: "Mostly Cloudy",
	1001: "Cloudy",
	2000: "Fog",
	2100: "Light Fog",
	4000: "Drizzle",
	4001: "Rain",
	4200: "Light Rain",
	4201: "Heavy Rain",
	5000: "Snow",
	5001: "Flurries",
	5100: "Light Snow",
	5101: "Heavy Snow",
	6000: "Freezing Drizzle",
	6001: "Freezing Rain",
	6200: "Light Freezing Rain",
	6201: "Heavy Freezing Rain",
	7000: "Ice Pellets",
	7101: "Heavy Ice Pellets",
	7102: "Light Ice Pellets",
	8000: "Thunderstorm",
}

// Label returns the condition label for a weather code, or "Unknown" for
// codes outside the table.
func Label(code int) string {
	if label, ok := labels[code]; ok {
		return label
	}
	return "Unknown"
}

// Icon returns the icon category for a weather code, with high wind
// reclassifying rain toward rain-wind and clear/cloudy toward wind.
func Icon(code int, windSpeed float64) string {
	if code >= 4000 && code < 5000 {
		if windSpeed > windyThreshold {
			return IconRainWind
		}
		return IconRain
	}
	if code == 1000 || code == 1100 {
		if windSpeed > windyThreshold {
			return IconWind
		}
		return IconSun
	}
	if code >= 5000 && code < 8000 {
		return IconSnow
	}
	if code == 8000 {
		return IconStorm
	}
	if windSpeed > windyThreshold {
		return IconWind
	}
	return IconCloud
}

var cardinals = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// DegreesToCardinal converts a wind direction in degrees to a 16-point
// compass label. Negative inputs are normalized into [0, 360).
func DegreesToCardinal(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Round(deg/22.5)) % 16
	return cardinals[idx]
}
