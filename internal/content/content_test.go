package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsy/internal/fetch"
	"newsy/internal/models"
	"newsy/internal/secondary"
)

type fakeFetcher struct {
	html  string
	err   error
	calls int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (*fetch.RawDocument, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &fetch.RawDocument{Body: []byte(f.html), StatusCode: 200, FinalURL: rawURL}, nil
}

type fakeSecondary struct {
	res   *secondary.Result
	err   error
	calls int32
}

func (f *fakeSecondary) Extract(ctx context.Context, articleURL string) (*secondary.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.res, f.err
}

var errUnavailable = errors.New("service unavailable")

func text(n int) string {
	s := strings.Repeat("news ", n/5+1)[:n]
	if strings.HasSuffix(s, " ") {
		s = s[:n-1] + "x"
	}
	return s
}

func htmlWithParagraphs(title string, wrap string, count, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body>", title)
	if wrap != "" {
		fmt.Fprintf(&b, "<%s>", wrap)
	}
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "<p>%s</p>", text(n))
	}
	if wrap != "" {
		fmt.Fprintf(&b, "</%s>", wrap)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func newExtractor(f fetch.Fetcher, s secondary.Extractor) *Extractor {
	return NewExtractor(f, s, time.Second)
}

const articleURL = "https://www.example.com/2024/story"

func TestScrapeSuccessSkipsSecondary(t *testing.T) {
	f := &fakeFetcher{html: htmlWithParagraphs("Story", "article", 6, 120)}
	s := &fakeSecondary{err: errUnavailable}

	res := newExtractor(f, s).ExtractArticleContent(context.Background(), articleURL)

	require.True(t, res.Success)
	assert.False(t, res.Partial)
	assert.Equal(t, models.MethodScrape, res.Article.Method)
	assert.Equal(t, models.CompletenessFull, res.Article.Completeness)
	assert.Equal(t, "Story", res.Article.Title)
	assert.Equal(t, int32(0), atomic.LoadInt32(&s.calls))
}

func TestArticleWithFiveShortParagraphs(t *testing.T) {
	f := &fakeFetcher{html: htmlWithParagraphs("Five", "article", 5, 80)}
	s := &fakeSecondary{err: errUnavailable}

	res := newExtractor(f, s).ExtractArticleContent(context.Background(), articleURL)

	require.True(t, res.Success)
	assert.False(t, res.Partial)
	assert.Equal(t, models.MethodScrape, res.Article.Method)
	assert.Len(t, res.Article.BodyText, 408)
	assert.Equal(t, int32(0), atomic.LoadInt32(&s.calls))
}

func TestFullThresholdIsStrict(t *testing.T) {
	tests := []struct {
		length       int
		wantMethod   models.Method
		wantPartial  bool
		wantSecCalls int32
	}{
		{300, models.MethodPartialScrape, true, 1},
		{301, models.MethodScrape, false, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.length), func(t *testing.T) {
			f := &fakeFetcher{html: htmlWithParagraphs("Edge", "", 1, tt.length)}
			s := &fakeSecondary{err: errUnavailable}

			res := newExtractor(f, s).ExtractArticleContent(context.Background(), articleURL)

			require.True(t, res.Success)
			assert.Equal(t, tt.wantPartial, res.Partial)
			assert.Equal(t, tt.wantMethod, res.Article.Method)
			assert.Equal(t, tt.wantSecCalls, atomic.LoadInt32(&s.calls))
		})
	}
}

func TestParagraphFloorInChain(t *testing.T) {
	html := "<html><body><p>" + text(49) + "</p><p>" + text(50) + "</p><p>" + text(60) + "</p></body></html>"
	f := &fakeFetcher{html: html}

	res := newExtractor(f, nil).ExtractArticleContent(context.Background(), articleURL)

	require.True(t, res.Success)
	assert.Equal(t, text(50)+"\n\n"+text(60), res.Article.BodyText)
}

func TestBareParagraphScan(t *testing.T) {
	t.Run("twenty five paragraphs", func(t *testing.T) {
		f := &fakeFetcher{html: htmlWithParagraphs("Bare", "", 25, 60)}

		res := newExtractor(f, &fakeSecondary{err: errUnavailable}).ExtractArticleContent(context.Background(), articleURL)

		require.True(t, res.Success)
		assert.False(t, res.Partial)
		assert.Equal(t, models.MethodScrape, res.Article.Method)
		assert.Equal(t, 20, strings.Count(res.Article.BodyText, text(60)))
		assert.Len(t, res.Article.BodyText, 20*60+19*2)
	})

	t.Run("three paragraphs", func(t *testing.T) {
		f := &fakeFetcher{html: htmlWithParagraphs("Bare", "", 3, 60)}

		res := newExtractor(f, &fakeSecondary{err: errUnavailable}).ExtractArticleContent(context.Background(), articleURL)

		require.True(t, res.Success)
		assert.True(t, res.Partial)
		assert.Equal(t, models.MethodPartialScrape, res.Article.Method)
		assert.Equal(t, models.CompletenessPartial, res.Article.Completeness)
		assert.Equal(t, "example.com", res.Article.SiteName)
		assert.Equal(t, "Bare", res.Article.Title)
	})
}

func TestLegalParagraphsExcludedFromScan(t *testing.T) {
	cookie := "This site uses cookies. By continuing to browse you agree to our use of cookies."
	privacy := "Your privacy matters to us, read the full statement before continuing here."
	html := "<html><body><p>" + cookie + "</p><p>" + privacy + "</p><p>" + text(200) + "</p></body></html>"
	f := &fakeFetcher{html: html}

	res := newExtractor(f, nil).ExtractArticleContent(context.Background(), articleURL)

	require.True(t, res.Success)
	assert.True(t, res.Partial)
	assert.Equal(t, text(200), res.Article.BodyText)
}

func TestFetchTimeoutFallsBackToSecondary(t *testing.T) {
	f := &fakeFetcher{err: &fetch.FetchError{URL: articleURL, Message: "timed out after 15s"}}
	s := &fakeSecondary{res: &secondary.Result{
		Text:        text(600),
		Title:       "Service title",
		PublishedAt: "2024-01-02T03:04:05Z",
		Image:       "https://example.com/lead.jpg",
		SiteName:    "Example News",
	}}

	res := newExtractor(f, s).ExtractArticleContent(context.Background(), articleURL)

	require.True(t, res.Success)
	assert.False(t, res.Partial)
	assert.Equal(t, models.MethodSecondaryService, res.Article.Method)
	assert.Equal(t, models.CompletenessFull, res.Article.Completeness)
	assert.Equal(t, "Service title", res.Article.Title)
	assert.Equal(t, "Example News", res.Article.SiteName)
	assert.Equal(t, "https://example.com/lead.jpg", res.Article.Image)
	assert.Equal(t, int32(1), atomic.LoadInt32(&s.calls))
}

func TestSecondaryFieldsFallBackToScrape(t *testing.T) {
	html := `<html><head><meta name="author" content="Scrape Author"></head><body><h1>Scraped</h1><p>` + text(120) + `</p></body></html>`
	f := &fakeFetcher{html: html}
	s := &fakeSecondary{res: &secondary.Result{Text: text(400)}}

	res := newExtractor(f, s).ExtractArticleContent(context.Background(), articleURL)

	require.True(t, res.Success)
	assert.Equal(t, models.MethodSecondaryService, res.Article.Method)
	assert.Equal(t, "Scraped", res.Article.Title)
	assert.Equal(t, "Scrape Author", res.Article.Author)
}

func TestShortSecondaryResultDegradesToPartial(t *testing.T) {
	f := &fakeFetcher{html: htmlWithParagraphs("Short", "", 1, 150)}
	s := &fakeSecondary{res: &secondary.Result{Text: text(300), Title: "ignored"}}

	res := newExtractor(f, s).ExtractArticleContent(context.Background(), articleURL)

	require.True(t, res.Success)
	assert.True(t, res.Partial)
	assert.Equal(t, "Short", res.Article.Title)
	assert.Equal(t, text(150), res.Article.BodyText)
}

func TestTotalFailure(t *testing.T) {
	tests := []struct {
		name string
		f    *fakeFetcher
	}{
		{"fetch error", &fakeFetcher{err: &fetch.FetchError{URL: articleURL, Status: 403, Message: "Forbidden"}}},
		{"too little text", &fakeFetcher{html: htmlWithParagraphs("Tiny", "", 1, 100)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSecondary{err: errUnavailable}

			var res models.ExtractionResult
			assert.NotPanics(t, func() {
				res = newExtractor(tt.f, s).ExtractArticleContent(context.Background(), articleURL)
			})

			assert.False(t, res.Success)
			assert.Nil(t, res.Article)
			assert.NotEmpty(t, res.Message)
			assert.Equal(t, int32(1), atomic.LoadInt32(&s.calls))
		})
	}
}

func TestNilSecondaryGoesStraightToPartial(t *testing.T) {
	f := &fakeFetcher{html: htmlWithParagraphs("Solo", "", 2, 90)}

	res := newExtractor(f, nil).ExtractArticleContent(context.Background(), articleURL)

	require.True(t, res.Success)
	assert.True(t, res.Partial)
}

type panickingSecondary struct{}

func (panickingSecondary) Extract(ctx context.Context, articleURL string) (*secondary.Result, error) {
	panic("bad response shape")
}

func TestPanicBecomesFailure(t *testing.T) {
	f := &fakeFetcher{err: errUnavailable}

	res := newExtractor(f, panickingSecondary{}).ExtractArticleContent(context.Background(), articleURL)

	assert.False(t, res.Success)
	assert.Equal(t, ExtractionFailedMessage, res.Message)
}

func TestSecondaryReceivesDeadline(t *testing.T) {
	var hadDeadline bool
	s := secondaryFunc(func(ctx context.Context, u string) (*secondary.Result, error) {
		_, hadDeadline = ctx.Deadline()
		return nil, errUnavailable
	})

	newExtractor(&fakeFetcher{err: errUnavailable}, s).ExtractArticleContent(context.Background(), articleURL)

	assert.True(t, hadDeadline)
}

type secondaryFunc func(ctx context.Context, articleURL string) (*secondary.Result, error)

func (f secondaryFunc) Extract(ctx context.Context, articleURL string) (*secondary.Result, error) {
	return f(ctx, articleURL)
}

func TestSecondaryIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ctxErr error
	var hadDeadline bool
	s := secondaryFunc(func(ctx context.Context, u string) (*secondary.Result, error) {
		ctxErr = ctx.Err()
		_, hadDeadline = ctx.Deadline()
		return &secondary.Result{Text: text(400)}, nil
	})

	res := newExtractor(&fakeFetcher{err: errUnavailable}, s).ExtractArticleContent(ctx, articleURL)

	assert.NoError(t, ctxErr)
	assert.True(t, hadDeadline)
	require.True(t, res.Success)
	assert.Equal(t, models.MethodSecondaryService, res.Article.Method)
}
