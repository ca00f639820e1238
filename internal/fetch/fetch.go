// Package fetch wraps HTTP retrieval of HTML pages behind a browser-like
// client and hands parsed goquery documents to the extraction layer.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
)

// Failure kinds. All of them are treated as an extraction failure by the
// caller, but logs should tell them apart.
var (
	ErrTimeout   = errors.New("request timed out")
	ErrNetwork   = errors.New("network error")
	ErrBadStatus = errors.New("unexpected HTTP status")
)

// Client fetches pages with a per-request timeout. Listing pages use a
// shorter timeout than article bodies, so the timeout is an argument.
type Client struct {
	http *http.Client
}

func NewClient() *Client {
	return &Client{http: &http.Client{}}
}

// Document fetches url and parses the response body into a goquery
// document. Non-2xx statuses are errors.
func (c *Client) Document(ctx context.Context, url string, timeout time.Duration) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: status %d: %w", url, resp.StatusCode, ErrBadStatus)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML from %s: %w", url, err)
	}
	return doc, nil
}

func classify(url string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %w: %v", url, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %v", url, ErrNetwork, err)
}
