package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/weatherdash/dashboard-service/internal/models"
)

// geocodePath is the same-origin proxy in front of the geocoding vendor;
// the op query parameter selects the operation.
const geocodePath = "/api/geocode"

type reverseResponse struct {
	Label string `json:"label"`
}

type autocompleteResponse struct {
	Predictions []models.PlacePrediction `json:"predictions"`
}

type geocodeResponse struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label"`
}

// Reverse resolves a coordinate pair to a human-readable label.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("op", "reverse")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lon, 'f', -1, 64))

	var resp reverseResponse
	if err := c.getJSON(ctx, "geocode", geocodePath, q, &resp); err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	return resp.Label, nil
}

// Autocomplete returns place predictions for a free-text query.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]models.PlacePrediction, error) {
	q := url.Values{}
	q.Set("op", "autocomplete")
	q.Set("input", input)

	var resp autocompleteResponse
	if err := c.getJSON(ctx, "geocode", geocodePath, q, &resp); err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}
	return resp.Predictions, nil
}

// Geocode resolves a place id from Autocomplete to coordinates and a label.
func (c *Client) Geocode(ctx context.Context, placeID string) (models.GeocodeResult, error) {
	q := url.Values{}
	q.Set("op", "geocode")
	q.Set("place_id", placeID)

	var resp geocodeResponse
	if err := c.getJSON(ctx, "geocode", geocodePath, q, &resp); err != nil {
		return models.GeocodeResult{}, fmt.Errorf("geocode place: %w", err)
	}
	return models.GeocodeResult{Lat: resp.Lat, Lon: resp.Lng, Label: resp.Label}, nil
}
