// Package page writes one Markdown document per crawled page under the
// output directory, deriving file paths from source URLs.
package page

import (
	"crypto/sha1" //nolint:gosec // Used for name disambiguation, not security
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// maxComponentLen caps a single filename component, conservatively
// below common filesystem limits.
const maxComponentLen = 200

var unsafeQueryChars = regexp.MustCompile(`[^0-9A-Za-z\-_]`)

// Writer emits Markdown documents with optional YAML front matter.
type Writer struct {
	outputDir   string
	frontmatter bool
}

// NewWriter creates a Writer rooted at outputDir. When frontmatter is
// false, documents open with a source comment and a title heading
// instead of a YAML header.
func NewWriter(outputDir string, frontmatter bool) *Writer {
	return &Writer{outputDir: outputDir, frontmatter: frontmatter}
}

// DocumentPath derives the slash-separated relative file path for a
// page URL:
//
//	https://example.com/           -> index.md
//	https://example.com/about      -> about.md
//	https://example.com/docs/intro -> docs/intro.md
//	https://example.com/?q=query   -> index__q_query.md
//
// Over-long final components are truncated with a stable hash suffix
// so truncation cannot make two pages share a file.
func DocumentPath(pageURL *url.URL) string {
	p := pageURL.Path
	if p == "" {
		p = "/"
	}
	if strings.HasSuffix(p, "/") {
		p += "index"
	}
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		p = "index"
	}

	if pageURL.RawQuery != "" {
		p += "__" + unsafeQueryChars.ReplaceAllString(pageURL.RawQuery, "_")
	}
	if !strings.HasSuffix(p, ".md") {
		p += ".md"
	}

	dir, last := path.Split(p)
	if len(last) > maxComponentLen {
		ext := path.Ext(last)
		stem := strings.TrimSuffix(last, ext)
		sum := sha1.Sum([]byte(pageURL.String())) //nolint:gosec // Name disambiguation only
		h := hex.EncodeToString(sum[:])[:10]

		allowed := maxComponentLen - len(ext) - 2 - len(h)
		if allowed < 16 {
			allowed = 16
		}
		if len(stem) > allowed {
			stem = stem[:allowed]
		}
		last = stem + "__" + h + ext
	}

	return path.Join(dir, last)
}

// Write emits the document for a page and returns its relative path.
func (w *Writer) Write(pageURL *url.URL, title, markdown string, crawledAt time.Time) (string, error) {
	rel := DocumentPath(pageURL)
	full := filepath.Join(w.outputDir, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
		return "", fmt.Errorf("create document directory: %w", err)
	}

	var sb strings.Builder
	if w.frontmatter {
		// JSON-encoding the values gives valid YAML scalars with
		// quoting and escaping handled.
		sb.WriteString("---\n")
		sb.WriteString("title: " + jsonString(title) + "\n")
		sb.WriteString("url: " + jsonString(pageURL.String()) + "\n")
		sb.WriteString("crawled_at: " + jsonString(crawledAt.UTC().Format(time.RFC3339)) + "\n")
		sb.WriteString("---\n\n")
	} else {
		sb.WriteString("<!-- Source: " + pageURL.String() + " -->\n\n")
		if title != "" {
			sb.WriteString("# " + title + "\n\n")
		}
	}
	sb.WriteString(markdown)

	if err := os.WriteFile(full, []byte(sb.String()), 0600); err != nil {
		return "", fmt.Errorf("write document %s: %w", rel, err)
	}
	return rel, nil
}

// jsonString encodes s as a JSON string literal.
func jsonString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
