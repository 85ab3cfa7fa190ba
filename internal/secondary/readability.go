package secondary

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"

	"newsy/internal/fetch"
)

// Readability is the local secondary extractor used when no remote service
// is configured. It re-fetches the page and runs the readability algorithm
// over it.
type Readability struct {
	Fetcher fetch.Fetcher
}

func NewReadability(f fetch.Fetcher) *Readability {
	return &Readability{Fetcher: f}
}

func (r *Readability) Extract(ctx context.Context, articleURL string) (*Result, error) {
	doc, err := r.Fetcher.Fetch(ctx, articleURL)
	if err != nil {
		return nil, err
	}

	pageURL, err := url.Parse(doc.FinalURL)
	if err != nil || doc.FinalURL == "" {
		pageURL, err = url.Parse(articleURL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
	}

	article, err := readability.FromReader(bytes.NewReader(doc.Body), pageURL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	text := paragraphsFromText(article.TextContent)
	if text == "" {
		return nil, ErrNoContent
	}

	return &Result{
		Text:     text,
		Title:    strings.TrimSpace(article.Title),
		Author:   strings.TrimSpace(article.Byline),
		Image:    strings.TrimSpace(article.Image),
		SiteName: strings.TrimSpace(article.SiteName),
	}, nil
}

// paragraphsFromText turns readability's newline-separated text into
// blank-line separated paragraphs with collapsed whitespace.
func paragraphsFromText(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n\n")
}
