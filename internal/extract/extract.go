// Package extract recovers the main article text from a fetched page:
// boilerplate is stripped, a content container is selected by structural
// heuristics and its paragraphs are filtered for quality.
package extract

import (
	"github.com/rs/zerolog/log"
)

// Article is the scrape-stage output.
type Article struct {
	Title     string
	Author    string
	Body      string
	Container string
}

// Pipeline runs strip, select and filter over one page. It holds no
// per-document state and is safe for concurrent use.
type Pipeline struct {
	Stripper *Stripper
}

func NewPipeline() *Pipeline {
	return &Pipeline{Stripper: NewStripper()}
}

func (p *Pipeline) Extract(body []byte) Article {
	doc := p.Stripper.Strip(body)
	sel := Select(doc)

	article := Article{
		Title:     sel.Title,
		Author:    sel.Author,
		Container: sel.Container,
	}

	if sel.Confident() {
		article.Body = JoinParagraphs(sel.Paragraphs)
	} else {
		log.Debug().Msg("no confident content container, scanning all paragraphs")
		article.Body = ScanParagraphs(doc)
	}

	return article
}
