package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestSaveWritesUnderAssets verifies the storage layout mirrors the
// source site under assets/<host>/.
func TestSaveWritesUnderAssets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewStore(dir)

	ref, err := s.Save("https://example.com/images/logo.png", "image/png", []byte("pngbytes"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if ref.LocalPath != "assets/example.com/images/logo.png" {
		t.Errorf("LocalPath = %q, want assets/example.com/images/logo.png", ref.LocalPath)
	}
	if ref.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", ref.ContentType)
	}

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(ref.LocalPath)))
	if err != nil {
		t.Fatalf("reading stored asset: %v", err)
	}
	if string(data) != "pngbytes" {
		t.Errorf("stored bytes = %q, want pngbytes", data)
	}
}

// TestSaveDeduplicatesBySourceURL verifies a repeated save reuses the
// first copy.
func TestSaveDeduplicatesBySourceURL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewStore(dir)

	first, err := s.Save("https://example.com/logo.png", "image/png", []byte("v1"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Save("https://example.com/logo.png", "image/png", []byte("v2"))
	if err != nil {
		t.Fatal(err)
	}

	if first.LocalPath != second.LocalPath {
		t.Errorf("paths differ: %q vs %q", first.LocalPath, second.LocalPath)
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 stored asset, got %d", s.Count())
	}

	// The first write wins; the duplicate save must not touch disk.
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(first.LocalPath)))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v1" {
		t.Errorf("stored bytes = %q, want v1", data)
	}
}

// TestSavePathDerivation covers query folding and the .bin fallback.
func TestSavePathDerivation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "query folded into filename",
			url:  "https://example.com/image.png?v=2&size=large",
			want: "assets/example.com/image.png__v_2_size_large",
		},
		{
			name: "extensionless path gets bin suffix",
			url:  "https://example.com/download/artifact",
			want: "assets/example.com/download/artifact.bin",
		},
		{
			name: "root path stored as root.bin",
			url:  "https://example.com/",
			want: "assets/example.com/root.bin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewStore(t.TempDir())
			ref, err := s.Save(tt.url, "application/octet-stream", []byte("x"))
			if err != nil {
				t.Fatalf("Save returned error: %v", err)
			}
			if ref.LocalPath != tt.want {
				t.Errorf("LocalPath = %q, want %q", ref.LocalPath, tt.want)
			}
		})
	}
}

// TestSaveCollisionDisambiguation verifies that two URLs sanitizing to
// the same path get distinct files.
func TestSaveCollisionDisambiguation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewStore(dir)

	// Different queries fold to the same sanitized name.
	first, err := s.Save("https://example.com/image.png?v=1", "image/png", []byte("a"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Save("https://example.com/image.png?v.1", "image/png", []byte("b"))
	if err != nil {
		t.Fatal(err)
	}

	if first.LocalPath == second.LocalPath {
		t.Fatalf("expected distinct paths, both %q", first.LocalPath)
	}
	for _, ref := range []string{first.LocalPath, second.LocalPath} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(ref))); err != nil {
			t.Errorf("expected stored file at %q: %v", ref, err)
		}
	}
}

// TestSaveShortensLongNames verifies over-long components are truncated
// with a stable hash suffix.
func TestSaveShortensLongNames(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())
	long := strings.Repeat("a", 300)

	ref, err := s.Save("https://example.com/"+long+".png", "image/png", []byte("x"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	base := filepath.Base(filepath.FromSlash(ref.LocalPath))
	if len(base) > 200 {
		t.Errorf("component length %d exceeds limit", len(base))
	}
	if !strings.HasSuffix(base, ".png") {
		t.Errorf("expected extension preserved, got %q", base)
	}
	if !strings.Contains(base, "__") {
		t.Errorf("expected hash suffix in %q", base)
	}
}

// TestLookup reflects stored state.
func TestLookup(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())

	if _, ok := s.Lookup("https://example.com/logo.png"); ok {
		t.Error("expected miss before save")
	}

	if _, err := s.Save("https://example.com/logo.png", "image/png", []byte("x")); err != nil {
		t.Fatal(err)
	}

	ref, ok := s.Lookup("https://example.com/logo.png")
	if !ok {
		t.Fatal("expected hit after save")
	}
	if ref.LocalPath != "assets/example.com/logo.png" {
		t.Errorf("LocalPath = %q", ref.LocalPath)
	}
}
