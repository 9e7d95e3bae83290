// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for backoff between retries.
// HTTP 429 responses double it per attempt. Tests override this to avoid
// real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 1

// retryableStatus reports whether an HTTP status is worth one more attempt:
// 429 and the transient 5xx responses. Client errors (4xx) are returned to
// the caller as-is.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DoWithRetry executes an HTTP request and retries transient failures:
// network errors, HTTP 429, and 5xx responses. Each external call site in
// the pipeline retries at most once by default; pass maxRetries > 0 to
// override. On 429 the backoff doubles per attempt starting at
// RetryBaseDelay; other transients wait RetryBaseDelay.
//
// The response body is drained and closed before a retry. If the context
// is cancelled during a backoff wait the function returns ctx.Err(). After
// exhausting retries the last response (or the last network error) is
// returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))

		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		// Retries exhausted, hand back whatever we got last.
		if attempt >= maxRetries {
			if err != nil {
				return nil, err
			}
			return resp, nil
		}

		backoff := RetryBaseDelay
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests {
				backoff = time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
			}
			// Drain and close the body before retrying.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
