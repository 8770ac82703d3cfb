package exchangerate

import (
	"context"
	"net/http"
	"time"

	"github.com/mkoziy/countryrates/internal/ratelimit"
	"github.com/mkoziy/countryrates/internal/sources"
)

// SourceName identifies this source in errors, logs and rate limit config.
const SourceName = "exchangerate"

const DefaultURL = "https://open.er-api.com/v6/latest/USD"

// Client fetches the USD exchange-rate table.
type Client struct {
	httpClient *http.Client
	limiter    ratelimit.Limiter
	url        string
}

// NewClient creates a client with a bounded request timeout.
func NewClient(url string, timeout time.Duration, limiter ratelimit.Limiter) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		url:        url,
	}
}

// FetchRates returns the decoded response. Validation of Result and Rates is
// left to the caller.
func (c *Client) FetchRates(ctx context.Context) (*Response, error) {
	var resp Response
	if err := sources.GetJSON(ctx, c.httpClient, c.limiter, SourceName, c.url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
