package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotelier/internal/adapters/observability"
)

// Client uploads image blobs to an external media host over HTTP.
// Uploads are deliberately not retried: a failed upload aborts the caller's
// whole batch, so re-sending here would only hide partial-batch failures.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

var (
	ErrUnauthorized = errors.New("media: unauthorized")
	ErrTooLarge     = errors.New("media: payload too large")
)

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 30 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload POSTs one image as multipart form data and returns its public URL.
func (c *Client) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	url, err := c.upload(ctx, data, contentType)
	observability.ObserveUpload("http", err, time.Since(start))
	return url, err
}

func (c *Client) upload(ctx context.Context, data []byte, contentType string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="image"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-Key", c.key)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "hotelier/1.0")

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var out uploadResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decode upload response: %w", err)
		}
		if out.URL == "" {
			return "", errors.New("media: empty url in response")
		}
		return out.URL, nil

	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrUnauthorized

	case http.StatusRequestEntityTooLarge:
		return "", ErrTooLarge

	default:
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("media: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
}
