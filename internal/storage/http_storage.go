package storage

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"time"

	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
)

const (
	defaultFetchAttempts = 3
	defaultRetryDelay    = time.Second
)

// HTTPImageFetcher downloads images over HTTP, retrying transient failures
type HTTPImageFetcher struct {
	client     *http.Client
	attempts   int
	retryDelay time.Duration
}

// HTTPOption configures an HTTPImageFetcher.
type HTTPOption func(*HTTPImageFetcher)

// WithRetryDelay sets the base backoff; attempt n waits n times the delay.
func WithRetryDelay(d time.Duration) HTTPOption {
	return func(h *HTTPImageFetcher) { h.retryDelay = d }
}

// WithAttempts sets how many times a request is tried.
func WithAttempts(n int) HTTPOption {
	return func(h *HTTPImageFetcher) {
		if n > 0 {
			h.attempts = n
		}
	}
}

// NewHTTPImageFetcher creates an HTTP image fetcher with an overall timeout
func NewHTTPImageFetcher(timeout time.Duration, opts ...HTTPOption) *HTTPImageFetcher {
	transport := &http.Transport{
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	h := &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		attempts:   defaultFetchAttempts,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FetchImage retries connection errors and 5xx responses. A 4xx response
// stops immediately.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	var lastErr error
	for attempt := 0; attempt < h.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperrors.NewTimeoutError("image download cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt) * h.retryDelay):
			}
		}

		img, retry, err := h.fetchOnce(ctx, imageURL)
		if err == nil {
			return img, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
	}
	return nil, apperrors.NewNetworkError(fmt.Sprintf("failed to fetch image after %d attempts", h.attempts), lastErr).
		WithDetails(imageURL)
}

func (h *HTTPImageFetcher) fetchOnce(ctx context.Context, imageURL string) (image.Image, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, false, apperrors.NewValidationError("invalid image URL", err)
	}
	req.Header.Set("Accept", "image/png, image/jpeg, image/webp, image/bmp, image/tiff, image/gif, */*")
	req.Header.Set("User-Agent", "image-compare-go/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, apperrors.NewTimeoutError("image download cancelled", err)
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, apperrors.NewNotFoundError(fmt.Sprintf("client error: status code %d", resp.StatusCode), nil).
			WithDetails(imageURL)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, apperrors.NewNetworkError(fmt.Sprintf("client error: status code %d", resp.StatusCode), nil).
			WithDetails(imageURL)
	default:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, false, apperrors.NewValidationError("failed to decode image", err).WithDetails(imageURL)
	}
	return img, false, nil
}
