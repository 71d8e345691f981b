package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"travelplan/pkg/metrics"
)

const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = time.Second

	maxResponseBytes = 8 << 20
)

type RequestOptions struct {
	Method string
	Header http.Header
	Body   []byte
}

type FetcherInterface interface {
	// FetchWithRetry decodes the JSON body of the first successful attempt into out.
	FetchWithRetry(ctx context.Context, url string, opts RequestOptions, maxAttempts int, initialDelay time.Duration, out any) error
}

// HTTPStatusError is a non-2xx response. Detail is the most readable message
// that could be pulled out of the body.
type HTTPStatusError struct {
	StatusCode int
	Detail     string
}

func (e *HTTPStatusError) Error() string {
	return e.Detail
}

// FetchError is returned once every attempt has failed. Callers must not retry it.
type FetchError struct {
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch after %d attempts. Last error: %v", e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type RetryingFetcher struct {
	http    *http.Client
	target  string
	logger  *zap.Logger
	metrics *metrics.Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewRetryingFetcher returns a fetcher; target labels its logs and metrics.
func NewRetryingFetcher(httpClient *http.Client, target string, logger *zap.Logger) *RetryingFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingFetcher{
		http:    httpClient,
		target:  target,
		logger:  logger.With(zap.String("fetch_target", target)),
		metrics: metrics.Get(),
		sleep:   sleepContext,
	}
}

// BackoffDelay is the wait before the given 1-based attempt: none before the
// first, then initialDelay doubling from the second attempt on. It saturates
// at the largest representable duration instead of overflowing.
func BackoffDelay(initialDelay time.Duration, attempt int) time.Duration {
	if attempt < 2 || initialDelay <= 0 {
		return 0
	}
	d := initialDelay
	for i := 2; i < attempt; i++ {
		if d > math.MaxInt64/2 {
			return time.Duration(math.MaxInt64)
		}
		d *= 2
	}
	return d
}

func (f *RetryingFetcher) FetchWithRetry(ctx context.Context, url string, opts RequestOptions, maxAttempts int, initialDelay time.Duration, out any) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if initialDelay <= 0 {
		initialDelay = DefaultInitialDelay
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := BackoffDelay(initialDelay, attempt)
			f.logger.Debug("retrying fetch",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Duration("backoff", delay),
			)
			if err := f.sleep(ctx, delay); err != nil {
				return fmt.Errorf("fetch canceled after %d attempts: %w", attempt-1, err)
			}
		}

		err := f.do(ctx, url, opts, out)
		if err == nil {
			f.metrics.FetchAttemptsTotal.WithLabelValues(f.target, "success").Inc()
			return nil
		}
		lastErr = err
		f.metrics.FetchAttemptsTotal.WithLabelValues(f.target, "failure").Inc()
		f.logger.Warn("fetch attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err),
		)
	}

	return &FetchError{Attempts: maxAttempts, Err: lastErr}
}

func (f *RetryingFetcher) do(ctx context.Context, url string, opts RequestOptions, out any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if opts.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode/100 != 2 {
		return &HTTPStatusError{StatusCode: resp.StatusCode, Detail: errorDetail(resp, raw)}
	}
	if readErr != nil {
		return fmt.Errorf("read response: %w", readErr)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorDetail prefers a structured "detail" or "error" string in the body and
// falls back to the status text when the body is not JSON.
func errorDetail(resp *http.Response, raw []byte) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
		if text == "" {
			text = "Server Error"
		}
		return text
	}
	if d, ok := body["detail"].(string); ok && d != "" {
		return d
	}
	if e, ok := body["error"].(string); ok && e != "" {
		return e
	}
	return fmt.Sprintf("failed to fetch data (status: %d)", resp.StatusCode)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
