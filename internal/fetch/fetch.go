package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/gocolly/colly"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"

	"newsy/internal/config"
	"newsy/internal/urlutil"
)

const (
	acceptHeader         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptLanguageHeader = "en-US,en;q=0.9"
)

// RawDocument is a fetched page. FinalURL is the URL after redirects.
type RawDocument struct {
	Body        []byte
	StatusCode  int
	FinalURL    string
	ContentType string
}

// FetchError is the only error Fetch returns. Status is zero when no
// response was received.
type FetchError struct {
	URL     string
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %s", e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher issues browser-like GET requests against article URLs.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*RawDocument, error)
}

// Client fetches pages with colly. A new collector is built per call so
// concurrent fetches share no cookies or visit history.
type Client struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRedirects int
	MaxBodySize  int
}

func NewClient(cfg config.FetchConfig) *Client {
	return &Client{
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.Timeout(),
		MaxRedirects: cfg.MaxRedirects,
		MaxBodySize:  cfg.MaxBodyBytes,
	}
}

func (c *Client) Fetch(ctx context.Context, rawURL string) (*RawDocument, error) {
	target, err := urlutil.ParseHTTPURL(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Message: "invalid URL", Err: err}
	}

	collector := c.newCollector()

	var doc *RawDocument
	var status int

	collector.OnRequest(func(r *colly.Request) {
		select {
		case <-ctx.Done():
			r.Abort()
			return
		default:
		}

		r.Headers.Set("Accept", acceptHeader)
		r.Headers.Set("Accept-Language", acceptLanguageHeader)
		r.Headers.Set("Referer", "https://www.google.com/")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
	})

	collector.OnResponse(func(r *colly.Response) {
		final := target.String()
		if r.Request != nil && r.Request.URL != nil {
			final = r.Request.URL.String()
		}
		contentType := ""
		if r.Headers != nil {
			contentType = r.Headers.Get("Content-Type")
		}
		doc = &RawDocument{
			Body:        r.Body,
			StatusCode:  r.StatusCode,
			FinalURL:    final,
			ContentType: contentType,
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	start := time.Now()
	if err := collector.Visit(target.String()); err != nil {
		log.Debug().Str("url", rawURL).Int("status", status).Err(err).Msg("fetch failed")
		return nil, &FetchError{URL: rawURL, Status: status, Message: describe(err, c), Err: err}
	}
	if doc == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &FetchError{URL: rawURL, Message: "request cancelled", Err: ctxErr}
		}
		return nil, &FetchError{URL: rawURL, Message: "no response received"}
	}
	if doc.StatusCode < 200 || doc.StatusCode > 299 {
		return nil, &FetchError{URL: rawURL, Status: doc.StatusCode, Message: http.StatusText(doc.StatusCode)}
	}

	log.Debug().
		Str("url", rawURL).
		Str("final_url", doc.FinalURL).
		Int("status", doc.StatusCode).
		Int("bytes", len(doc.Body)).
		Dur("took", time.Since(start)).
		Msg("fetched page")

	return doc, nil
}

func (c *Client) newCollector() *colly.Collector {
	collector := colly.NewCollector(
		colly.UserAgent(c.userAgent()),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(c.MaxBodySize),
		colly.ParseHTTPErrorResponse(),
	)

	if jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}); err == nil {
		collector.SetCookieJar(jar)
	}

	collector.SetRequestTimeout(c.timeout())

	maxHops := c.maxRedirects()
	// req is redirect number len(via)
	collector.RedirectHandler = func(req *http.Request, via []*http.Request) error {
		if len(via) > maxHops {
			return fmt.Errorf("stopped after %d redirects", maxHops)
		}
		if !urlutil.IsHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}

	return collector
}

func (c *Client) userAgent() string {
	if c.UserAgent == "" {
		return config.DefaultUserAgent
	}
	return c.UserAgent
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 15 * time.Second
	}
	return c.Timeout
}

func (c *Client) maxRedirects() int {
	if c.MaxRedirects <= 0 {
		return 5
	}
	return c.MaxRedirects
}

func describe(err error, c *Client) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Sprintf("timed out after %s", c.timeout())
	}
	return err.Error()
}
