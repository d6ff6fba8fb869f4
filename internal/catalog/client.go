package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client fetches catalogs over HTTP.
type Client struct {
	rest *resty.Client
}

func NewClient(timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	r.SetHeader("Accept", "application/json")
	return &Client{rest: r}
}

// Fetch GETs url and decodes a JSON array of entries or {"colleges": [...]}.
func (c *Client) Fetch(ctx context.Context, url string) ([]Entry, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("catalog endpoint error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return parseJSON(resp.Body())
}
