// Package news builds the tech-news listings served by the API on top of
// NewsAPI: category search, headlines, the trending window and the
// personalized feed.
package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"newsy/internal/models"
)

const (
	TopicAll = "all"

	generalQuery  = "technology OR tech OR software OR AI OR startup"
	trendingQuery = "technology OR tech OR AI OR startup OR gadgets"

	maxPageSize = 100
)

// CategoryKeywords drive the public category filter.
var CategoryKeywords = map[string]string{
	"ai":            "artificial intelligence OR machine learning OR AI",
	"startups":      "startup OR venture capital OR tech startup",
	"software":      "software OR programming OR developer",
	"gadgets":       "gadgets OR smartphone OR technology devices",
	"cybersecurity": "cybersecurity OR data breach OR hacking",
	TopicAll:        generalQuery,
}

// TopicKeywords are broader and used for personalized feeds.
var TopicKeywords = map[string]string{
	"ai":            "artificial intelligence OR machine learning OR AI OR neural networks",
	"startups":      "startup OR venture capital OR tech startup OR funding",
	"software":      "software OR programming OR developer OR coding",
	"gadgets":       "gadgets OR smartphone OR technology devices OR hardware",
	"cybersecurity": "cybersecurity OR data breach OR hacking OR security",
}

var ValidTopics = []string{TopicAll, "ai", "startups", "software", "gadgets", "cybersecurity"}

type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Listing is one page of articles as returned to API clients.
type Listing struct {
	TotalResults int                  `json:"totalResults"`
	Articles     []models.NewsArticle `json:"articles"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"pageSize"`
	IsLastPage   *bool                `json:"isLastPage,omitempty"`
	UserTopics   []string             `json:"userTopics,omitempty"`
	DateRange    *DateRange           `json:"dateRange,omitempty"`
}

type Service struct {
	Client       *Client
	Language     string
	TrendingDays int
	Now          func() time.Time
}

func NewService(client *Client, language string, trendingDays int) *Service {
	return &Service{
		Client:       client,
		Language:     language,
		TrendingDays: trendingDays,
		Now:          time.Now,
	}
}

// Category lists the newest articles for a category; unknown categories
// fall back to general tech news.
func (s *Service) Category(ctx context.Context, category string, page, pageSize int) (*Listing, error) {
	page, pageSize = pagination(page, pageSize, 20)

	q, ok := CategoryKeywords[strings.ToLower(category)]
	if !ok {
		q = CategoryKeywords[TopicAll]
	}

	resp, err := s.Client.Everything(ctx, Query{
		Q:        q,
		Language: s.Language,
		SortBy:   "publishedAt",
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", category, err)
	}
	return listing(resp, page, pageSize), nil
}

func (s *Service) Headlines(ctx context.Context, page, pageSize int) (*Listing, error) {
	page, pageSize = pagination(page, pageSize, 10)

	resp, err := s.Client.TopHeadlines(ctx, Query{
		Category: "technology",
		Language: s.Language,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("headlines: %w", err)
	}
	return listing(resp, page, pageSize), nil
}

// Trending lists the most popular tech articles of the last TrendingDays.
func (s *Service) Trending(ctx context.Context, page, pageSize int) (*Listing, error) {
	page, pageSize = pagination(page, pageSize, 30)

	now := s.now()
	from := now.AddDate(0, 0, -s.trendingDays()).Format(time.DateOnly)

	resp, err := s.Client.Everything(ctx, Query{
		Q:        trendingQuery,
		Language: s.Language,
		From:     from,
		SortBy:   "popularity",
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}

	l := listing(resp, page, pageSize)
	l.DateRange = &DateRange{From: from, To: now.Format(time.DateOnly)}
	return l, nil
}

// Personalized lists the newest articles matching any of the user's topics.
func (s *Service) Personalized(ctx context.Context, topics []string, page, pageSize int) (*Listing, error) {
	page, pageSize = pagination(page, pageSize, 20)

	q := PersonalizedQuery(topics)
	if len(topics) == 0 {
		topics = []string{TopicAll}
	}

	resp, err := s.Client.Everything(ctx, Query{
		Q:        q,
		Language: s.Language,
		SortBy:   "publishedAt",
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("personalized: %w", err)
	}

	l := listing(resp, page, pageSize)
	last := len(resp.Articles) < pageSize
	l.IsLastPage = &last
	l.UserTopics = topics
	return l, nil
}

// PersonalizedQuery ORs together one parenthesised keyword group per topic.
// No topics, or only "all", yields the general tech query.
func PersonalizedQuery(topics []string) string {
	var groups []string
	for _, topic := range topics {
		if topic == TopicAll || topic == "" {
			continue
		}
		keywords, ok := TopicKeywords[topic]
		if !ok {
			keywords = topic
		}
		groups = append(groups, "("+keywords+")")
	}
	if len(groups) == 0 {
		return generalQuery
	}
	return strings.Join(groups, " OR ")
}

// InvalidTopics returns the topics that are not in ValidTopics.
func InvalidTopics(topics []string) []string {
	var invalid []string
	for _, topic := range topics {
		valid := false
		for _, v := range ValidTopics {
			if topic == v {
				valid = true
				break
			}
		}
		if !valid {
			invalid = append(invalid, topic)
		}
	}
	return invalid
}

func listing(resp *Response, page, pageSize int) *Listing {
	return &Listing{
		TotalResults: resp.TotalResults,
		Articles:     resp.Articles,
		Page:         page,
		PageSize:     pageSize,
	}
}

func pagination(page, pageSize, defaultSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) trendingDays() int {
	if s.TrendingDays <= 0 {
		return 7
	}
	return s.TrendingDays
}
