// Package assets persists downloaded images and documents under the
// output directory and hands back stable relative paths for link
// rewriting.
//
// Storage layout mirrors the source site: assets/<host>/<path>. Assets
// are deduplicated by source URL, not by content hash; two URLs serving
// identical bytes are stored twice, which is an accepted trade-off.
package assets

import (
	"crypto/sha1" //nolint:gosec // Used for name disambiguation, not security
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mdcrawl/mdcrawl/internal/model"
)

// maxComponentLen caps a single filename component. Most filesystems
// allow 255 bytes; 200 leaves room for suffixes.
const maxComponentLen = 200

// unsafeQueryChars matches query characters folded to underscores when
// a query string becomes part of a filename.
var unsafeQueryChars = regexp.MustCompile(`[^0-9A-Za-z\-_]`)

// Store writes assets to disk and tracks what has been stored.
type Store struct {
	// outputDir is the mirror's output directory; returned paths are
	// relative to it.
	outputDir string

	// byURL maps source URLs to their stored references.
	byURL map[string]model.AssetReference

	// taken tracks local paths already in use, for collision handling.
	taken map[string]string
}

// NewStore creates a Store rooted at outputDir. The assets directory is
// created on first save.
func NewStore(outputDir string) *Store {
	return &Store{
		outputDir: outputDir,
		byURL:     make(map[string]model.AssetReference),
		taken:     make(map[string]string),
	}
}

// Lookup returns the stored reference for a source URL, if any.
func (s *Store) Lookup(sourceURL string) (model.AssetReference, bool) {
	ref, ok := s.byURL[sourceURL]
	return ref, ok
}

// Count returns the number of stored assets.
func (s *Store) Count() int {
	return len(s.byURL)
}

// Save persists asset bytes and returns the reference. Repeated saves
// of the same source URL reuse the first stored copy without touching
// disk. When two different URLs sanitize to the same local path, the
// later one gets a short hash suffix derived from its URL.
func (s *Store) Save(sourceURL, contentType string, data []byte) (model.AssetReference, error) {
	if ref, ok := s.byURL[sourceURL]; ok {
		return ref, nil
	}

	rel, err := localPath(sourceURL)
	if err != nil {
		return model.AssetReference{}, err
	}

	if owner, ok := s.taken[rel]; ok && owner != sourceURL {
		rel = disambiguate(rel, sourceURL)
	}

	full := filepath.Join(s.outputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
		return model.AssetReference{}, fmt.Errorf("create asset directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0600); err != nil {
		return model.AssetReference{}, fmt.Errorf("write asset %s: %w", rel, err)
	}

	ref := model.AssetReference{
		SourceURL:   sourceURL,
		LocalPath:   rel,
		ContentType: contentType,
	}
	s.byURL[sourceURL] = ref
	s.taken[rel] = sourceURL
	return ref, nil
}

// localPath derives the slash-separated storage path for a source URL:
// assets/<host>/<path>, query folded in, extensionless paths get .bin,
// over-long final components are truncated with a hash suffix.
func localPath(sourceURL string) (string, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("parse asset URL: %w", err)
	}

	p := strings.TrimPrefix(u.Path, "/")
	if p == "" {
		p = "root"
	}
	if u.RawQuery != "" {
		p += "__" + unsafeQueryChars.ReplaceAllString(u.RawQuery, "_")
	}
	if path.Ext(p) == "" {
		p += ".bin"
	}

	dir, last := path.Split(p)
	if len(last) > maxComponentLen {
		last = shorten(last, sourceURL)
	}

	return path.Join("assets", u.Host, dir, last), nil
}

// shorten truncates an over-long filename component, keeping the
// extension and appending a hash of the URL so truncation cannot cause
// two assets to share a name.
func shorten(name, sourceURL string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	h := urlHash(sourceURL)

	allowed := maxComponentLen - len(ext) - 2 - len(h)
	if allowed < 8 {
		allowed = 8
	}
	if len(stem) > allowed {
		stem = stem[:allowed]
	}
	return stem + "__" + h + ext
}

// disambiguate appends a URL hash before the extension so colliding
// sanitized paths stay distinct.
func disambiguate(rel, sourceURL string) string {
	ext := path.Ext(rel)
	return strings.TrimSuffix(rel, ext) + "__" + urlHash(sourceURL) + ext
}

// urlHash returns a short stable hash of a URL for filename suffixes.
func urlHash(sourceURL string) string {
	sum := sha1.Sum([]byte(sourceURL)) //nolint:gosec // Name disambiguation only
	return hex.EncodeToString(sum[:])[:10]
}
