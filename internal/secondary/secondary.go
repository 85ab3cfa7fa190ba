// Package secondary holds the extractors consulted when scraping a page
// does not yield enough text.
package secondary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Result is the article as reported by a secondary extractor. Empty fields
// mean the extractor did not supply them.
type Result struct {
	Text        string
	Title       string
	Author      string
	PublishedAt string
	Image       string
	SiteName    string
}

type Extractor interface {
	Extract(ctx context.Context, articleURL string) (*Result, error)
}

var ErrNoContent = errors.New("secondary extractor returned no content")

// Service calls a remote article-extraction API:
//
//	POST {URL} {"url": "..."} -> {"data": {"text"|"content", "title", "author", "date", "image"|"top_image", "site_name"}}
type Service struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewService(url, apiKey string, timeout time.Duration) *Service {
	return &Service{
		URL:        url,
		APIKey:     apiKey,
		Timeout:    timeout,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type serviceRequest struct {
	URL string `json:"url"`
}

type serviceResponse struct {
	Data *struct {
		Text     string `json:"text"`
		Content  string `json:"content"`
		Title    string `json:"title"`
		Author   string `json:"author"`
		Date     string `json:"date"`
		Image    string `json:"image"`
		TopImage string `json:"top_image"`
		SiteName string `json:"site_name"`
	} `json:"data"`
}

func (s *Service) Extract(ctx context.Context, articleURL string) (*Result, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(serviceRequest{URL: articleURL})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var body serviceResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Data == nil {
		return nil, ErrNoContent
	}

	d := body.Data
	res := &Result{
		Text:        strings.TrimSpace(firstNonEmpty(d.Text, d.Content)),
		Title:       strings.TrimSpace(d.Title),
		Author:      strings.TrimSpace(d.Author),
		PublishedAt: strings.TrimSpace(d.Date),
		Image:       strings.TrimSpace(firstNonEmpty(d.Image, d.TopImage)),
		SiteName:    strings.TrimSpace(d.SiteName),
	}
	if res.Text == "" {
		return nil, ErrNoContent
	}
	return res, nil
}

func (s *Service) client() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: s.Timeout}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
