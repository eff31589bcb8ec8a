package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	apperrors "go-capture-guide/internal/errors"
)

// FrameStore is a source of recorded frames, addressed by key.
// Replay devices and the calibration tool read from it.
type FrameStore interface {
	// List returns the frame keys in playback order
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, key string) (image.Image, error)
}

// HTTPFrameStore serves frames from a fixed list of URLs
type HTTPFrameStore struct {
	client  *http.Client
	urls    []string
	backoff time.Duration
}

// NewHTTPFrameStore creates a store over the given frame URLs
func NewHTTPFrameStore(urls []string) *HTTPFrameStore {
	transport := &http.Transport{
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPFrameStore{
		urls:    append([]string(nil), urls...),
		backoff: time.Second,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

func (h *HTTPFrameStore) List(ctx context.Context) ([]string, error) {
	return append([]string(nil), h.urls...), nil
}

// Fetch downloads and decodes one frame. 5xx and transport errors are
// retried up to 3 attempts with linear backoff; 4xx is final. Transfer
// failures are network errors, undecodable bodies processing errors.
func (h *HTTPFrameStore) Fetch(ctx context.Context, frameURL string) (image.Image, error) {
	var lastErr error
	retry := false

	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		var img image.Image
		var err error
		img, retry, err = h.fetchOnce(ctx, frameURL)
		if err == nil {
			return img, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}

	if _, ok := apperrors.AsAppError(lastErr); ok {
		return nil, lastErr
	}
	if retry {
		return nil, apperrors.NewNetworkError("failed to fetch frame after 3 attempts", lastErr)
	}
	return nil, apperrors.NewNetworkError("failed to fetch frame", lastErr)
}

func (h *HTTPFrameStore) fetchOnce(ctx context.Context, frameURL string) (image.Image, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, frameURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, */*")
	req.Header.Set("User-Agent", "Go-Capture-Guide/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, false, apperrors.NewProcessingError("failed to decode frame", err)
	}
	return img, false, nil
}
