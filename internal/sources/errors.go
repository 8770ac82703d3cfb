// Package sources holds what the external data clients share.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mkoziy/countryrates/internal/ratelimit"
)

// UnavailableError reports that an external source could not be read.
type UnavailableError struct {
	Source string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err came from an unreachable source.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// GetJSON performs one rate-limited GET and decodes a 200 response into out.
// Every failure is returned as an *UnavailableError for source.
func GetJSON(ctx context.Context, httpClient *http.Client, limiter ratelimit.Limiter, source, url string, out any) error {
	fail := func(err error) error { return &UnavailableError{Source: source, Err: err} }

	if err := limiter.Wait(ctx); err != nil {
		return fail(fmt.Errorf("rate limit: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fail(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("execute request: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fail(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
