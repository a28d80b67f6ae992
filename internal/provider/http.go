package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"trading-assistant/internal/domain"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 4 << 20
)

// ErrEmptyValue is returned when the upstream payload has the expected
// shape but the requested value is null or blank.
var ErrEmptyValue = errors.New("upstream value is empty")

// StatusError is a non-200 upstream response.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
}

// Options configures an upstream client. Zero values fall back to defaults.
type Options struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerMinute int
	HTTPClient    *http.Client
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func fetch(ctx context.Context, client *http.Client, limiter *Limiter, provider, rawURL string) ([]byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", provider, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", provider, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", domain.ErrRateLimited, provider)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, provider)
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{Provider: provider, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", provider, err)
	}
	return body, nil
}
