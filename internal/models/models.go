package models

import "time"

type Method string

const (
	MethodScrape           Method = "scrape"
	MethodSecondaryService Method = "secondary-service"
	MethodPartialScrape    Method = "partial-scrape"
)

type Completeness string

const (
	CompletenessFull    Completeness = "full"
	CompletenessPartial Completeness = "partial"
)

// ExtractedArticle is the result of one extraction call. Body paragraphs are
// separated by a blank line.
type ExtractedArticle struct {
	URL          string       `json:"url"`
	Title        string       `json:"title"`
	Author       string       `json:"author"`
	BodyText     string       `json:"content"`
	SiteName     string       `json:"siteName,omitempty"`
	PublishedAt  string       `json:"publishedAt,omitempty"`
	Image        string       `json:"image,omitempty"`
	Method       Method       `json:"method"`
	Completeness Completeness `json:"completeness"`
}

// ExtractionResult is what the HTTP layer returns for article-content
// requests. Partial is only set for degraded results.
type ExtractionResult struct {
	Success bool              `json:"success"`
	Article *ExtractedArticle `json:"article,omitempty"`
	Partial bool              `json:"partial,omitempty"`
	Message string            `json:"message,omitempty"`
}

// NewsSource and NewsArticle mirror the NewsAPI article payload.
type NewsSource struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

type NewsArticle struct {
	Source      NewsSource `json:"source"`
	Author      string     `json:"author"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	URLToImage  string     `json:"urlToImage"`
	PublishedAt string     `json:"publishedAt"`
	Content     string     `json:"content"`
}

type SavedArticle struct {
	ID          string     `bson:"_id" json:"id"`
	User        string     `bson:"user" json:"user"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	URL         string     `bson:"url" json:"url"`
	URLToImage  string     `bson:"url_to_image,omitempty" json:"urlToImage,omitempty"`
	PublishedAt *time.Time `bson:"published_at,omitempty" json:"publishedAt,omitempty"`
	Source      string     `bson:"source,omitempty" json:"source,omitempty"`
	Category    string     `bson:"category,omitempty" json:"category,omitempty"`
	SavedAt     time.Time  `bson:"saved_at" json:"savedAt"`
}

type Preferences struct {
	User      string    `bson:"_id" json:"user"`
	Topics    []string  `bson:"topics" json:"topics"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
