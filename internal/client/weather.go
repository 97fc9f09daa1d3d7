package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/weatherdash/dashboard-service/internal/models"
)

// currentResponse is the GET /api/weather payload envelope.
type currentResponse struct {
	Data struct {
		Values models.CurrentConditions `json:"values"`
	} `json:"data"`
}

// CurrentConditions fetches current conditions for a location key (place
// name or "<lat>,<lon>").
func (c *Client) CurrentConditions(ctx context.Context, loc string) (models.CurrentConditions, error) {
	q := url.Values{}
	q.Set("loc", loc)

	var resp currentResponse
	if err := c.getJSON(ctx, "weather", "/api/weather", q, &resp); err != nil {
		return models.CurrentConditions{}, fmt.Errorf("current conditions for %s: %w", loc, err)
	}
	return resp.Data.Values, nil
}
