package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/weatherdash/dashboard-service/internal/models"
)

type hourlyValues struct {
	Temperature              *float64 `json:"temperature"`
	PrecipitationProbability *float64 `json:"precipitationProbability"`
	WindSpeed                *float64 `json:"windSpeed"`
}

type rawInterval struct {
	StartTime time.Time    `json:"startTime"`
	Values    hourlyValues `json:"values"`
}

type timeline struct {
	Intervals []rawInterval `json:"intervals"`
}

// forecastResponse tolerates the upstream's top-level shape variants:
// data.timelines[0].intervals, timelines[0].intervals, data.intervals, or
// bare intervals.
type forecastResponse struct {
	Data struct {
		Timelines []timeline    `json:"timelines"`
		Intervals []rawInterval `json:"intervals"`
	} `json:"data"`
	Timelines []timeline    `json:"timelines"`
	Intervals []rawInterval `json:"intervals"`
}

// intervals returns the first non-empty interval sequence in precedence order.
func (r *forecastResponse) intervals() []rawInterval {
	if len(r.Data.Timelines) > 0 && len(r.Data.Timelines[0].Intervals) > 0 {
		return r.Data.Timelines[0].Intervals
	}
	if len(r.Timelines) > 0 && len(r.Timelines[0].Intervals) > 0 {
		return r.Timelines[0].Intervals
	}
	if len(r.Data.Intervals) > 0 {
		return r.Data.Intervals
	}
	return r.Intervals
}

// Hourly fetches the hourly forecast for a raw "<lat>,<lon>" key.
func (c *Client) Hourly(ctx context.Context, key string) ([]models.HourlyInterval, error) {
	q := url.Values{}
	q.Set("location", key)

	var resp forecastResponse
	if err := c.getJSON(ctx, "forecast", "/api/weather-forecast", q, &resp); err != nil {
		return nil, fmt.Errorf("hourly forecast for %s: %w", key, err)
	}

	raw := resp.intervals()
	out := make([]models.HourlyInterval, 0, len(raw))
	for _, iv := range raw {
		out = append(out, models.HourlyInterval{
			StartTime:                iv.StartTime,
			TemperatureC:             iv.Values.Temperature,
			PrecipitationProbability: iv.Values.PrecipitationProbability,
			WindSpeed:                iv.Values.WindSpeed,
		})
	}
	return out, nil
}
