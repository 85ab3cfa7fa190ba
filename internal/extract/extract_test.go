package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// para builds a paragraph of exactly n characters from word.
func para(n int, word string) string {
	s := strings.Repeat(word+" ", n/len(word)+1)[:n]
	if strings.HasSuffix(s, " ") {
		s = s[:n-1] + "x"
	}
	return s
}

func paragraphs(count, n int, word string) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "<p>%s</p>\n", para(n, word))
	}
	return b.String()
}

func page(head, body string) []byte {
	return []byte("<!doctype html><html><head>" + head + "</head><body>" + body + "</body></html>")
}

func TestParaHelper(t *testing.T) {
	assert.Equal(t, 49, TextLength(para(49, "alpha")))
	assert.Equal(t, 300, TextLength(para(300, "beta")))
	assert.Equal(t, para(60, "gamma"), normalizeText(para(60, "gamma")))
}

func TestStripRemovesBoilerplate(t *testing.T) {
	body := `
<header><h1>Site banner</h1></header>
<nav><p>Home News Tech</p></nav>
<script>var tracking = true;</script>
<style>p { color: red }</style>
<iframe src="https://ads.example.com"></iframe>
<div class="ad">Buy now</div>
<div class="social-share-bar">Share on X</div>
<section id="comments"><p>First!</p></section>
<div role="complementary"><p>Related links</p></div>
<aside><p>Sidebar promo</p></aside>
<article><p>The actual story.</p></article>
<footer><p>Copyright</p></footer>`

	doc := NewStripper().Strip(page("<title>T</title>", body))
	text := doc.Text()

	assert.Contains(t, text, "The actual story.")
	for _, gone := range []string{"Site banner", "Home News", "tracking", "color: red", "Buy now", "Share on X", "First!", "Related links", "Sidebar promo", "Copyright"} {
		assert.NotContains(t, text, gone)
	}
	assert.Equal(t, "T", doc.Find("title").Text())
}

func TestStripKeepsAdjacentContentClasses(t *testing.T) {
	body := `<div class="article-content has-sidebar"><p>kept</p></div><div class="header-ad-slot"><p>also kept</p></div>`
	text := NewStripper().Strip(page("", body)).Text()

	assert.Contains(t, text, "kept")
	assert.Contains(t, text, "also kept")
}

func TestStripCustomMatcher(t *testing.T) {
	newsletter := func(n *html.Node) bool {
		return attr(n, "data-widget") == "newsletter"
	}
	s := NewStripper(newsletter)
	text := s.Strip(page("", `<div data-widget="newsletter">Subscribe</div><nav>menu</nav>`)).Text()

	assert.NotContains(t, text, "Subscribe")
	assert.Contains(t, text, "menu")
}

func TestStripNeverFails(t *testing.T) {
	for _, input := range [][]byte{nil, []byte(""), []byte("<<<>>><p>unclosed"), []byte("\x00\xff\xfe")} {
		doc := NewStripper().Strip(input)
		require.NotNil(t, doc)
		assert.NotPanics(t, func() { Select(doc) })
	}
}

func TestSelectTitlePriority(t *testing.T) {
	tests := []struct {
		name, head, body, want string
	}{
		{"h1 wins", `<title>Doc title</title><meta property="og:title" content="OG title">`, `<h1> Heading  title </h1>`, "Heading title"},
		{"title element", `<title>Doc title</title><meta property="og:title" content="OG title">`, `<h2>not a title</h2>`, "Doc title"},
		{"open graph", `<meta property="og:title" content="OG title">`, ``, "OG title"},
		{"empty", ``, ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Select(NewStripper().Strip(page(tt.head, tt.body)))
			assert.Equal(t, tt.want, sel.Title)
		})
	}
}

func TestSelectAuthorPriority(t *testing.T) {
	tests := []struct {
		name, head, body, want string
	}{
		{"meta", `<meta name="author" content="Ada Lovelace">`, `<span class="author">Someone Else</span>`, "Ada Lovelace"},
		{"author class", ``, `<span class="author">Grace Hopper</span><a rel="author">Other</a>`, "Grace Hopper"},
		{"rel author", ``, `<p>By <a rel="author" href="/u/alan">Alan Turing</a></p>`, "Alan Turing"},
		{"none", ``, `<p>anonymous</p>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Select(NewStripper().Strip(page(tt.head, tt.body)))
			assert.Equal(t, tt.want, sel.Author)
		})
	}
}

func TestSelectPrefersEarlierSelector(t *testing.T) {
	body := "<article>" + paragraphs(4, 150, "alpha") + "</article>" +
		"<main>" + paragraphs(6, 150, "beta") + "</main>"

	sel := Select(NewStripper().Strip(page("", body)))

	require.True(t, sel.Confident())
	assert.Equal(t, "article", sel.Container)
	body2 := JoinParagraphs(sel.Paragraphs)
	assert.Contains(t, body2, "alpha")
	assert.NotContains(t, body2, "beta")
}

func TestSelectFallsThroughWeakContainers(t *testing.T) {
	// article has too few paragraphs, .post-content has too little text
	body := "<article>" + paragraphs(3, 300, "alpha") + "</article>" +
		`<div class="post-content">` + paragraphs(5, 60, "beta") + "</div>" +
		`<div class="story-body">` + paragraphs(5, 120, "gamma") + "</div>"

	sel := Select(NewStripper().Strip(page("", body)))

	require.True(t, sel.Confident())
	assert.Equal(t, ".story-body", sel.Container)
}

func TestSelectRequiresBothThresholds(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"three paragraphs", "<article>" + paragraphs(3, 400, "alpha") + "</article>"},
		{"text exactly 500", "<article>" + paragraphs(2, 123, "alpha") + paragraphs(2, 124, "beta") + "</article>"},
		{"no container", "<div>" + paragraphs(10, 100, "alpha") + "</div>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Select(NewStripper().Strip(page("", tt.body)))
			assert.False(t, sel.Confident())
		})
	}

	// 4 x 124 chars + 3 separators = 502
	sel := Select(NewStripper().Strip(page("", "<article>"+paragraphs(4, 124, "alpha")+"</article>")))
	assert.True(t, sel.Confident())
}

func TestJoinParagraphsFloor(t *testing.T) {
	short := para(49, "short")
	exact := para(50, "exact")
	long := para(80, "long")

	got := JoinParagraphs([]string{short, exact, long})

	assert.Equal(t, exact+"\n\n"+long, got)
	assert.NotContains(t, got, short)
	assert.Equal(t, "", JoinParagraphs(nil))
}

func TestScanParagraphsSkipsLegalBoilerplate(t *testing.T) {
	cookie := "We use cookies to improve your experience on this website, see our notice."
	privacy := "Read our Privacy policy to learn how we handle personal data on this site."
	body := "<div><p>" + cookie + "</p>" + paragraphs(2, 70, "story") + "<p>" + privacy + "</p></div>"

	got := ScanParagraphs(NewStripper().Strip(page("", body)))

	assert.NotContains(t, got, "cookies")
	assert.NotContains(t, got, "Privacy")
	assert.Equal(t, para(70, "story")+"\n\n"+para(70, "story"), got)
}

func TestScanParagraphsTakesFirstTwenty(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "<p>%02d %s</p>", i, para(57, "word"))
	}

	got := ScanParagraphs(NewStripper().Strip(page("", b.String())))
	parts := strings.Split(got, ParagraphSeparator)

	require.Len(t, parts, 20)
	assert.True(t, strings.HasPrefix(parts[0], "00 "))
	assert.True(t, strings.HasPrefix(parts[19], "19 "))
}

func TestPipelineArticleBelowContainerThresholdUsesScan(t *testing.T) {
	// 5 x 80 chars joins to 408 characters: too short for the container
	// threshold, recovered by the whole-document scan
	body := "<article>" + paragraphs(5, 80, "story") + "</article>"

	art := NewPipeline().Extract(page("<title>Headline</title>", body))

	assert.Equal(t, "", art.Container)
	assert.Equal(t, "Headline", art.Title)
	assert.Equal(t, 408, TextLength(art.Body))
}

func TestPipelineConfidentContainer(t *testing.T) {
	body := `<h1>Big news</h1><div class="entry-content">` +
		paragraphs(6, 120, "story") + "<p>Photo: agency</p></div>" +
		"<p>We use cookies and this paragraph is outside the container entirely.</p>"

	art := NewPipeline().Extract(page(`<meta name="author" content="Reporter">`, body))

	assert.Equal(t, ".entry-content", art.Container)
	assert.Equal(t, "Big news", art.Title)
	assert.Equal(t, "Reporter", art.Author)
	assert.Equal(t, 6*120+5*2, TextLength(art.Body))
	assert.NotContains(t, art.Body, "Photo")
}

func TestGoqueryDocumentFromStripIsIndependent(t *testing.T) {
	s := NewStripper()
	a := s.Strip(page("", "<p>first</p>"))
	b := s.Strip(page("", "<p>second</p>"))

	assert.Equal(t, "first", a.Find("p").Text())
	assert.Equal(t, "second", b.Find("p").Text())
	var _ *goquery.Document = a
}
