package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Matcher reports whether an element is boilerplate and should be removed
// together with its subtree.
type Matcher func(n *html.Node) bool

// TagMatcher matches elements by tag name.
func TagMatcher(tags ...string) Matcher {
	set := toSet(tags)
	return func(n *html.Node) bool {
		_, ok := set[strings.ToLower(n.Data)]
		return ok
	}
}

// RoleMatcher matches elements by ARIA role.
func RoleMatcher(roles ...string) Matcher {
	set := toSet(roles)
	return func(n *html.Node) bool {
		_, ok := set[strings.ToLower(strings.TrimSpace(attr(n, "role")))]
		return ok
	}
}

// ClassMatcher matches elements whose class or id carries one of tokens as a
// whole word, or contains one of markers anywhere.
func ClassMatcher(tokens []string, markers []string) Matcher {
	set := toSet(tokens)
	return func(n *html.Node) bool {
		for _, key := range []string{"class", "id"} {
			val := strings.ToLower(attr(n, key))
			if val == "" {
				continue
			}
			for _, field := range strings.Fields(val) {
				if _, ok := set[field]; ok {
					return true
				}
			}
			for _, m := range markers {
				if strings.Contains(val, m) {
					return true
				}
			}
		}
		return false
	}
}

// DefaultMatchers removes scripts, navigation, page chrome, ads, share
// widgets and comment sections.
var DefaultMatchers = []Matcher{
	TagMatcher("script", "style", "noscript", "nav", "footer", "iframe", "header", "aside"),
	RoleMatcher("navigation", "banner", "complementary", "contentinfo"),
	ClassMatcher(
		[]string{"ad", "ads", "advert", "advertisement", "sidebar", "share", "sharing", "social", "comments", "comment"},
		[]string{"advertisement", "social-share", "share-buttons", "sharebar", "comment-section", "comments-area"},
	),
}

// Stripper turns raw markup into a cleaned document tree.
type Stripper struct {
	Matchers []Matcher
}

func NewStripper(matchers ...Matcher) *Stripper {
	if len(matchers) == 0 {
		matchers = DefaultMatchers
	}
	return &Stripper{Matchers: matchers}
}

// Strip never fails: unparseable input yields an empty document.
func (s *Stripper) Strip(body []byte) *goquery.Document {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil || root == nil {
		root = &html.Node{Type: html.DocumentNode}
	}

	var doomed []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && s.isBoilerplate(n) {
			doomed = append(doomed, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	for _, n := range doomed {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}

	return goquery.NewDocumentFromNode(root)
}

func (s *Stripper) isBoilerplate(n *html.Node) bool {
	// never drop the document skeleton
	switch strings.ToLower(n.Data) {
	case "html", "head", "body":
		return false
	}
	for _, match := range s.Matchers {
		if match(n) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
