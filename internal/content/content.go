// Package content runs the article-content fallback chain: scrape the page,
// then ask a secondary extractor, then settle for a partial scrape.
package content

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"newsy/internal/extract"
	"newsy/internal/fetch"
	"newsy/internal/models"
	"newsy/internal/secondary"
	"newsy/internal/urlutil"
)

const (
	// a body must be longer than this to count as a full article
	FullContentLength = 300
	// a scrape longer than this is still worth returning as partial
	PartialContentLength = 100

	ExtractionFailedMessage = "Unable to extract the full article. The site may use a paywall, render its content client-side, or block automated access. Please read it on the original site."
)

// Extractor orchestrates one extraction per call and keeps no state between
// calls. Secondary may be nil, in which case the chain goes straight from
// scraping to the partial result.
type Extractor struct {
	Fetcher          fetch.Fetcher
	Pipeline         *extract.Pipeline
	Secondary        secondary.Extractor
	SecondaryTimeout time.Duration
}

func NewExtractor(f fetch.Fetcher, sec secondary.Extractor, secondaryTimeout time.Duration) *Extractor {
	return &Extractor{
		Fetcher:          f,
		Pipeline:         extract.NewPipeline(),
		Secondary:        sec,
		SecondaryTimeout: secondaryTimeout,
	}
}

// ExtractArticleContent never returns an error: every stage failure falls
// through to the next stage, and exhaustion is reported in the result.
func (e *Extractor) ExtractArticleContent(ctx context.Context, articleURL string) (result models.ExtractionResult) {
	logger := log.With().Str("url", articleURL).Logger()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("article extraction panicked")
			result = models.ExtractionResult{Success: false, Message: ExtractionFailedMessage}
		}
	}()

	scraped := e.scrape(ctx, articleURL)
	scrapedLen := extract.TextLength(scraped.Body)
	if scrapedLen > FullContentLength {
		logger.Info().Int("length", scrapedLen).Str("container", scraped.Container).Dur("took", time.Since(start)).Msg("article scraped")
		return full(&models.ExtractedArticle{
			URL:      articleURL,
			Title:    scraped.Title,
			Author:   scraped.Author,
			BodyText: scraped.Body,
			Method:   models.MethodScrape,
		})
	}
	logger.Debug().Int("length", scrapedLen).Msg("scrape below full threshold, trying secondary extractor")

	if res := e.trySecondary(ctx, articleURL); res != nil {
		logger.Info().Int("length", extract.TextLength(res.Text)).Dur("took", time.Since(start)).Msg("article extracted by secondary service")
		return full(&models.ExtractedArticle{
			URL:         articleURL,
			Title:       prefer(res.Title, scraped.Title),
			Author:      prefer(res.Author, scraped.Author),
			BodyText:    res.Text,
			SiteName:    res.SiteName,
			PublishedAt: res.PublishedAt,
			Image:       res.Image,
			Method:      models.MethodSecondaryService,
		})
	}

	if scrapedLen > PartialContentLength {
		logger.Info().Int("length", scrapedLen).Dur("took", time.Since(start)).Msg("returning partial article")
		return models.ExtractionResult{
			Success: true,
			Partial: true,
			Article: &models.ExtractedArticle{
				URL:          articleURL,
				Title:        scraped.Title,
				Author:       scraped.Author,
				BodyText:     scraped.Body,
				SiteName:     urlutil.SiteName(articleURL),
				Method:       models.MethodPartialScrape,
				Completeness: models.CompletenessPartial,
			},
		}
	}

	logger.Warn().Int("length", scrapedLen).Dur("took", time.Since(start)).Msg("article extraction exhausted")
	return models.ExtractionResult{
		Success: false,
		Message: ExtractionFailedMessage,
	}
}

func (e *Extractor) scrape(ctx context.Context, articleURL string) extract.Article {
	doc, err := e.Fetcher.Fetch(ctx, articleURL)
	if err != nil {
		log.Warn().Str("url", articleURL).Err(err).Msg("scrape fetch failed")
		return extract.Article{}
	}
	return e.pipeline().Extract(doc.Body)
}

// trySecondary returns nil unless the extractor produced a full-length body.
func (e *Extractor) trySecondary(ctx context.Context, articleURL string) *secondary.Result {
	if e.Secondary == nil {
		return nil
	}
	// only the secondary timeout bounds this call, not the caller's cancellation
	ctx = context.WithoutCancel(ctx)
	if e.SecondaryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.SecondaryTimeout)
		defer cancel()
	}

	res, err := e.Secondary.Extract(ctx, articleURL)
	if err != nil {
		log.Warn().Str("url", articleURL).Err(err).Msg("secondary extraction failed")
		return nil
	}
	if res == nil || extract.TextLength(res.Text) <= FullContentLength {
		log.Debug().Str("url", articleURL).Msg("secondary extraction too short")
		return nil
	}
	return res
}

func (e *Extractor) pipeline() *extract.Pipeline {
	if e.Pipeline == nil {
		return extract.NewPipeline()
	}
	return e.Pipeline
}

func full(article *models.ExtractedArticle) models.ExtractionResult {
	article.Completeness = models.CompletenessFull
	return models.ExtractionResult{Success: true, Article: article}
}

func prefer(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}
