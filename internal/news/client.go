package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsy/internal/models"
)

// Client talks to the NewsAPI v2 REST API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type Query struct {
	Q        string
	Category string
	Language string
	SortBy   string
	From     string
	Page     int
	PageSize int
}

func (q Query) values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("q", q.Q)
	set("category", q.Category)
	set("language", q.Language)
	set("sortBy", q.SortBy)
	set("from", q.From)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	return v
}

type Response struct {
	Status       string               `json:"status"`
	TotalResults int                  `json:"totalResults"`
	Articles     []models.NewsArticle `json:"articles"`
	Code         string               `json:"code,omitempty"`
	Message      string               `json:"message,omitempty"`
}

// APIError is a non-ok answer from NewsAPI.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("newsapi: HTTP %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("newsapi: HTTP %d", e.StatusCode)
}

func (c *Client) Everything(ctx context.Context, q Query) (*Response, error) {
	return c.get(ctx, "/everything", q)
}

func (c *Client) TopHeadlines(ctx context.Context, q Query) (*Response, error) {
	return c.get(ctx, "/top-headlines", q)
}

func (c *Client) get(ctx context.Context, path string, q Query) (*Response, error) {
	params := q.values()
	if c.APIKey != "" {
		params.Set("apiKey", c.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	var body Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&body); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("decode newsapi response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || body.Status == "error" {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: body.Code, Message: body.Message}
	}
	if body.Articles == nil {
		body.Articles = []models.NewsArticle{}
	}
	return &body, nil
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
