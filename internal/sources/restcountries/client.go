package restcountries

import (
	"context"
	"net/http"
	"time"

	"github.com/mkoziy/countryrates/internal/ratelimit"
	"github.com/mkoziy/countryrates/internal/sources"
)

// SourceName identifies this source in errors, logs and rate limit config.
const SourceName = "restcountries"

const DefaultURL = "https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies"

// Client fetches the country reference list.
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

// FetchCountries returns the raw country list. A single attempt is made.
func (c *Client) FetchCountries(ctx context.Context) ([]Country, error) {
	var countries []Country
	if err := sources.GetJSON(ctx, c.httpClient, c.limiter, SourceName, c.url, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}
