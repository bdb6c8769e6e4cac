package scope

import (
	"errors"
	"net/url"
	"testing"
)

// TestNormalize verifies URL canonicalization: the same page reached
// through different spellings must normalize to the same string.
func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "fragment is stripped",
			raw:  "https://example.com/page#section",
			want: "https://example.com/page",
		},
		{
			name: "host is lower-cased",
			raw:  "https://EXAMPLE.COM/Page",
			want: "https://example.com/Page",
		},
		{
			name: "path case is preserved",
			raw:  "https://example.com/About/Team",
			want: "https://example.com/About/Team",
		},
		{
			name: "default https port is removed",
			raw:  "https://example.com:443/page",
			want: "https://example.com/page",
		},
		{
			name: "default http port is removed",
			raw:  "http://example.com:80/page",
			want: "http://example.com/page",
		},
		{
			name: "non-default port is kept",
			raw:  "https://example.com:8443/page",
			want: "https://example.com:8443/page",
		},
		{
			name: "empty path becomes slash",
			raw:  "https://example.com",
			want: "https://example.com/",
		},
		{
			name: "query string is preserved",
			raw:  "https://example.com/search?q=go&page=2",
			want: "https://example.com/search?q=go&page=2",
		},
		{
			name: "scheme is lower-cased",
			raw:  "HTTPS://example.com/",
			want: "https://example.com/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Normalize(tt.raw, nil)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.raw, err)
			}
			if got.String() != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got.String(), tt.want)
			}
		})
	}
}

// TestNormalizeRelative verifies resolution of relative references
// against a base page URL.
func TestNormalizeRelative(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://example.com/docs/intro")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "sibling path",
			raw:  "setup",
			want: "https://example.com/docs/setup",
		},
		{
			name: "absolute path",
			raw:  "/about",
			want: "https://example.com/about",
		},
		{
			name: "parent directory",
			raw:  "../legal",
			want: "https://example.com/legal",
		},
		{
			name: "protocol-relative URL",
			raw:  "//example.com/other",
			want: "https://example.com/other",
		},
		{
			name: "absolute URL ignores base",
			raw:  "https://other.example.org/page",
			want: "https://other.example.org/page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Normalize(tt.raw, base)
			if err != nil {
				t.Fatalf("Normalize(%q, base) returned error: %v", tt.raw, err)
			}
			if got.String() != tt.want {
				t.Errorf("Normalize(%q, base) = %q, want %q", tt.raw, got.String(), tt.want)
			}
		})
	}
}

// TestNormalizeRejectsUnsupportedSchemes ensures only http and https
// survive normalization.
func TestNormalizeRejectsUnsupportedSchemes(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"ftp://example.com/file",
		"mailto:someone@example.com",
		"file:///etc/passwd",
	} {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()

			_, err := Normalize(raw, nil)
			if !errors.Is(err, ErrUnsupportedScheme) {
				t.Errorf("Normalize(%q) error = %v, want ErrUnsupportedScheme", raw, err)
			}
		})
	}
}

// TestFilterAllows checks that scope membership is an exact host match,
// with subdomains excluded.
func TestFilterAllows(t *testing.T) {
	t.Parallel()

	root, err := Normalize("https://example.com/", nil)
	if err != nil {
		t.Fatal(err)
	}
	filter := NewFilter(root)

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "same host allowed", url: "https://example.com/page", want: true},
		{name: "host match is case-insensitive", url: "https://EXAMPLE.com/page", want: true},
		{name: "http same host allowed", url: "http://example.com/page", want: true},
		{name: "subdomain rejected", url: "https://blog.example.com/page", want: false},
		{name: "different host rejected", url: "https://other.org/page", want: false},
		{name: "different port rejected", url: "https://example.com:8443/page", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, err := url.Parse(tt.url)
			if err != nil {
				t.Fatal(err)
			}
			if got := filter.Allows(u); got != tt.want {
				t.Errorf("Allows(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

// TestValidHref filters obvious non-page hrefs before normalization.
func TestValidHref(t *testing.T) {
	t.Parallel()

	tests := []struct {
		href string
		want bool
	}{
		{href: "/docs/setup", want: true},
		{href: "https://example.com/page", want: true},
		{href: "", want: false},
		{href: "#top", want: false},
		{href: "javascript:void(0)", want: false},
		{href: "mailto:team@example.com", want: false},
		{href: "tel:+1234567890", want: false},
		{href: "/bundle.js", want: false},
		{href: "/theme.css", want: false},
		{href: "/release.tar.gz", want: false},
		{href: "/archive.ZIP", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			t.Parallel()

			if got := ValidHref(tt.href); got != tt.want {
				t.Errorf("ValidHref(%q) = %v, want %v", tt.href, got, tt.want)
			}
		})
	}
}

// TestIsAssetURL classifies asset versus page URLs by extension.
func TestIsAssetURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{url: "https://example.com/logo.png", want: true},
		{url: "https://example.com/photo.JPEG", want: true},
		{url: "https://example.com/manual.pdf", want: true},
		{url: "https://example.com/report.docx", want: true},
		{url: "https://example.com/logo.png?v=2", want: true},
		{url: "https://example.com/docs/setup", want: false},
		{url: "https://example.com/", want: false},
		{url: "https://example.com/page.html", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			if got := IsAssetURL(tt.url); got != tt.want {
				t.Errorf("IsAssetURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

// TestMatchPattern covers the glob forms accepted in ignore and follow
// pattern lists.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{name: "subtree pattern matches child", pattern: "/admin/*", path: "/admin/users", want: true},
		{name: "subtree pattern matches grandchild", pattern: "/admin/*", path: "/admin/users/1", want: true},
		{name: "subtree pattern matches prefix itself", pattern: "/admin/*", path: "/admin", want: true},
		{name: "subtree pattern rejects sibling", pattern: "/admin/*", path: "/administrator", want: false},
		{name: "extension pattern", pattern: "*.xml", path: "/sitemap.xml", want: true},
		{name: "extension pattern rejects others", pattern: "*.xml", path: "/sitemap.html", want: false},
		{name: "exact glob", pattern: "/blog/?", path: "/blog/1", want: true},
		{name: "no match", pattern: "/private/*", path: "/public/page", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := MatchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("MatchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

// TestCrawlable verifies the interaction of ignore and follow lists.
func TestCrawlable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		path   string
		ignore []string
		follow []string
		want   bool
	}{
		{name: "no patterns allows everything", path: "/any/page", want: true},
		{name: "ignore pattern rejects", path: "/admin/users", ignore: []string{"/admin/*"}, want: false},
		{name: "ignore miss allows", path: "/docs/setup", ignore: []string{"/admin/*"}, want: true},
		{name: "follow match allows", path: "/docs/setup", follow: []string{"/docs/*"}, want: true},
		{name: "follow miss rejects", path: "/blog/post", follow: []string{"/docs/*"}, want: false},
		{name: "ignore wins over follow", path: "/docs/internal", ignore: []string{"/docs/internal"}, follow: []string{"/docs/*"}, want: false},
		{name: "empty path treated as root", path: "", follow: []string{"/*"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Crawlable(tt.path, tt.ignore, tt.follow); got != tt.want {
				t.Errorf("Crawlable(%q, %v, %v) = %v, want %v", tt.path, tt.ignore, tt.follow, got, tt.want)
			}
		})
	}
}
