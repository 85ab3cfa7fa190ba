package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	MinParagraphLength   = 50
	MaxScannedParagraphs = 20
	ParagraphSeparator   = "\n\n"
)

// legalMarkers flag consent and legal boilerplate in the whole-document scan.
var legalMarkers = []string{"cookie", "privacy"}

// JoinParagraphs drops paragraphs shorter than MinParagraphLength and joins
// the rest with a blank line.
func JoinParagraphs(paragraphs []string) string {
	kept := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if TextLength(p) < MinParagraphLength {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ParagraphSeparator)
}

// ScanParagraphs is used when no container was selected: every paragraph in
// the document is considered, legal boilerplate is skipped and at most
// MaxScannedParagraphs survive.
func ScanParagraphs(doc *goquery.Document) string {
	var kept []string
	for _, p := range paragraphTexts(doc.Find("p")) {
		if len(kept) == MaxScannedParagraphs {
			break
		}
		if TextLength(p) < MinParagraphLength || mentionsLegal(p) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ParagraphSeparator)
}

func mentionsLegal(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range legalMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
