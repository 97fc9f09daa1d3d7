// Package temperature provides unit conversion between Celsius and
// Fahrenheit and the dual-unit display format used by the dashboard cards.
package temperature

import "fmt"

// CelsiusToFahrenheit converts degrees Celsius to degrees Fahrenheit.
func CelsiusToFahrenheit(celsius float64) float64 {
	return celsius*9/5 + 32
}

// FahrenheitToCelsius converts degrees Fahrenheit to degrees Celsius.
func FahrenheitToCelsius(fahrenheit float64) float64 {
	return (fahrenheit - 32) * 5 / 9
}

// FormatDual renders a Celsius value as "X.X°C / Y.Y°F" with one decimal
// place per unit.
func FormatDual(celsius float64) string {
	return fmt.Sprintf("%.1f°C / %.1f°F", celsius, CelsiusToFahrenheit(celsius))
}
