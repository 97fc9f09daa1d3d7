package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/weatherdash/dashboard-service/internal/models"
)

type newsResponse struct {
	Articles []models.Article `json:"articles"`
}

// Headlines fetches news articles, scoped to loc when non-empty.
func (c *Client) Headlines(ctx context.Context, loc string) ([]models.Article, error) {
	q := url.Values{}
	if loc != "" {
		q.Set("loc", loc)
	}

	var resp newsResponse
	if err := c.getJSON(ctx, "news", "/api/news", q, &resp); err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}
	return resp.Articles, nil
}
