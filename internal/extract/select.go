package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var reWhitespace = regexp.MustCompile(`\s+`)

const (
	// a container must yield more than this many paragraphs
	MinContainerParagraphs = 3
	// and more than this many characters of filtered text
	MinContainerTextLength = 500
)

// ContentSelectors are tried in order, most specific first. The first
// container that passes both thresholds wins.
var ContentSelectors = []string{
	"article",
	`[role="article"]`,
	".article-content",
	".post-content",
	".entry-content",
	".content",
	"#content",
	"main article",
	"main",
	".story-body",
	".article-body",
}

// Selection is what the content selector found in a cleaned document.
// Container is empty when no candidate was confident enough.
type Selection struct {
	Title      string
	Author     string
	Container  string
	Paragraphs []string
}

func (s Selection) Confident() bool {
	return s.Container != ""
}

func Select(doc *goquery.Document) Selection {
	sel := Selection{
		Title:  findTitle(doc),
		Author: findAuthor(doc),
	}

	for _, selector := range ContentSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		paragraphs := paragraphTexts(container.Find("p"))
		if len(paragraphs) <= MinContainerParagraphs {
			continue
		}
		if TextLength(JoinParagraphs(paragraphs)) <= MinContainerTextLength {
			continue
		}
		sel.Container = selector
		sel.Paragraphs = paragraphs
		return sel
	}

	return sel
}

func findTitle(doc *goquery.Document) string {
	if t := normalizeText(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	if t := normalizeText(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return metaContent(doc, `meta[property="og:title"]`)
}

func findAuthor(doc *goquery.Document) string {
	if a := metaContent(doc, `meta[name="author"]`); a != "" {
		return a
	}
	if a := normalizeText(doc.Find(".author").First().Text()); a != "" {
		return a
	}
	return normalizeText(doc.Find(`[rel="author"]`).First().Text())
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return normalizeText(content)
}

// paragraphTexts returns the normalized text of each non-empty paragraph.
func paragraphTexts(s *goquery.Selection) []string {
	var out []string
	s.Each(func(_ int, p *goquery.Selection) {
		if text := normalizeText(p.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

func normalizeText(text string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
}

// TextLength counts characters, not bytes.
func TextLength(s string) int {
	return utf8.RuneCountInString(s)
}
