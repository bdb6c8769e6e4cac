package scope

import (
	"errors"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// ignoredExtensions matches resources we never treat as pages or assets,
// such as style sheets, scripts, and archives.
var ignoredExtensions = regexp.MustCompile(`(?i)\.(css|js|json|zip|rar|exe|tar|gz|mp3|mp4|avi|mov)$`)

// assetExtensions matches resources downloaded as assets (images and
// documents) rather than crawled as pages.
var assetExtensions = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|svg|webp|bmp|pdf|doc|docx|xls|xlsx|ppt|pptx)$`)

// ErrUnsupportedScheme is returned by Normalize for URLs whose scheme is
// not http or https.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// defaultPorts maps schemes to the port that is implied when omitted.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Normalize resolves raw against base and returns the canonical form of
// the result. Canonicalization strips the fragment, lower-cases scheme
// and host, removes default ports, and collapses the empty path to "/"
// so that trailing-slash variants of the site root compare equal.
// The query string is preserved: it participates in page identity.
//
// base may be nil when raw is already absolute.
func Normalize(raw string, base *url.URL) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if base != nil {
		u = base.ResolveReference(u)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrUnsupportedScheme
	}

	u.Host = strings.ToLower(u.Host)
	if port := u.Port(); port != "" && port == defaultPorts[u.Scheme] {
		u.Host = u.Hostname()
	}

	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}

	return u, nil
}

// Filter decides same-domain membership against a fixed root host.
type Filter struct {
	rootHost string
}

// NewFilter creates a Filter for the given normalized root URL.
func NewFilter(root *url.URL) *Filter {
	return &Filter{rootHost: strings.ToLower(root.Host)}
}

// Allows reports whether the URL belongs to the crawl scope. Only an
// exact host match counts; subdomains of the root are out of scope.
func (f *Filter) Allows(u *url.URL) bool {
	return strings.EqualFold(u.Host, f.rootHost)
}

// ValidHref reports whether an href attribute is worth resolving at all.
// Fragments, script/mail/tel pseudo-links, and ignored file types are
// dropped before they reach normalization.
func ValidHref(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(href, prefix) {
			return false
		}
	}
	return !ignoredExtensions.MatchString(href)
}

// IsAssetURL reports whether the URL points at a downloadable asset
// (image or document) based on its path extension. Asset URLs are
// downloaded and stored locally, never enqueued as pages.
func IsAssetURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = raw
	}
	return assetExtensions.MatchString(path)
}

// MatchPattern checks a URL path against a glob pattern. Patterns
// support * for a path segment, ? for a single character, a trailing
// "/*" for a whole subtree, and "*.ext" for an extension match.
func MatchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	// Extension-style patterns should also match on the filename alone.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}

	return false
}

// Crawlable applies ignore and follow pattern lists to a URL path.
// A path matching any ignore pattern is rejected; when follow patterns
// are set, the path must match at least one of them.
func Crawlable(path string, ignore, follow []string) bool {
	if path == "" {
		path = "/"
	}
	for _, pattern := range ignore {
		if MatchPattern(pattern, path) {
			return false
		}
	}
	if len(follow) > 0 {
		for _, pattern := range follow {
			if MatchPattern(pattern, path) {
				return true
			}
		}
		return false
	}
	return true
}
