package urlutil

import (
	"crypto/md5"
	"fmt"
	"net/url"
	"strings"
)

func NormalizeURL(urlStr string) string {
	parsed, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil {
		return urlStr
	}

	parsed.Fragment = ""

	parsed.Host = strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")

	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}

	return parsed.String()
}

// ParseHTTPURL parses an absolute http(s) URL.
func ParseHTTPURL(urlStr string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil {
		return nil, err
	}
	if !IsHTTPScheme(parsed) {
		return nil, fmt.Errorf("unsupported URL scheme: %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("URL has no host: %q", urlStr)
	}
	return parsed, nil
}

func IsHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// SiteName is the host an article was served from, without a leading "www.".
func SiteName(urlStr string) string {
	parsed, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

func ComputeContentHash(content string) string {
	hash := md5.Sum([]byte(content))
	return fmt.Sprintf("%x", hash)
}

// SavedArticleID is stable per (user, normalized URL) so a second save of the
// same article collides on _id.
func SavedArticleID(user, articleURL string) string {
	return ComputeContentHash(user + "|" + NormalizeURL(articleURL))
}
