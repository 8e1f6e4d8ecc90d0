// Package clients implements quote and search providers.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/papertrade/pkg/retrier"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxRetries  = 2
	defaultRetryDelay  = 300 * time.Millisecond
	defaultConcurrency = 4
	maxErrorBodyLength = 256
)

// StatusError non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// DecodeError response body that is not the expected JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "failed to unmarshal response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// isClientError reports whether the request itself was rejected, so retrying is pointless.
func isClientError(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 400 && se.Code < 500 && se.Code != http.StatusTooManyRequests
	}
	return false
}

// isRetryable reports whether a repeated request could succeed.
func isRetryable(err error) bool {
	var de *DecodeError
	switch {
	case isClientError(err), errors.As(err, &de):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func newRetrier(logger *zap.Logger) *retrier.Retrier {
	return retrier.New(
		retrier.WithMaxRetries(defaultMaxRetries),
		retrier.WithInitialInterval(defaultRetryDelay),
		retrier.WithRetryIf(isRetryable),
		retrier.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			logger.Debug("retrying request", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		}),
	)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// getJSON performs a GET request and decodes the JSON body into out.
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create HTTP request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "papertrade/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBodyLength {
			body = body[:maxErrorBodyLength]
		}
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}
