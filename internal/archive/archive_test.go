package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// openTestDB creates an archive in a temp directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close returned error: %v", err)
		}
	})
	return db
}

// sampleRecord builds a page record for tests.
func sampleRecord(url string) *PageRecord {
	return &PageRecord{
		URL:          url,
		Host:         "example.com",
		StatusCode:   200,
		ContentType:  "text/html; charset=utf-8",
		Title:        "Example Page",
		ContentHash:  "deadbeef",
		DocumentPath: "docs/page.md",
	}
}

// TestOpen covers database creation behavior.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open returned error: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dir, "mdcrawl.db")); err != nil {
			t.Errorf("expected database file: %v", err)
		}
		if db.Path() != filepath.Join(dir, "mdcrawl.db") {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("refuses missing database without create", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error opening missing database")
		}
	})
}

// TestSaveAndGetPage covers the insert path and retrieval.
func TestSaveAndGetPage(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SavePage(ctx, sampleRecord("https://example.com/page")); err != nil {
		t.Fatalf("SavePage returned error: %v", err)
	}

	got, err := db.GetPage(ctx, "https://example.com/page")
	if err != nil {
		t.Fatalf("GetPage returned error: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.Title != "Example Page" {
		t.Errorf("Title = %q, want Example Page", got.Title)
	}
	if got.ContentHash != "deadbeef" {
		t.Errorf("ContentHash = %q, want deadbeef", got.ContentHash)
	}
	if got.DocumentPath != "docs/page.md" {
		t.Errorf("DocumentPath = %q, want docs/page.md", got.DocumentPath)
	}
	if got.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be set")
	}
}

// TestGetPageMissing returns nil without error for unknown URLs.
func TestGetPageMissing(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	got, err := db.GetPage(context.Background(), "https://example.com/never-crawled")
	if err != nil {
		t.Fatalf("GetPage returned error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown URL, got %+v", got)
	}
}

// TestSavePageUpserts verifies a re-crawl updates the existing row
// instead of adding one.
func TestSavePageUpserts(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SavePage(ctx, sampleRecord("https://example.com/page")); err != nil {
		t.Fatal(err)
	}

	updated := sampleRecord("https://example.com/page")
	updated.Title = "Updated Title"
	updated.ContentHash = "cafef00d"
	if err := db.SavePage(ctx, updated); err != nil {
		t.Fatal(err)
	}

	records, err := db.ListPages(ctx, "example.com")
	if err != nil {
		t.Fatalf("ListPages returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after upsert, got %d", len(records))
	}
	if records[0].Title != "Updated Title" {
		t.Errorf("Title = %q, want Updated Title", records[0].Title)
	}
	if records[0].ContentHash != "cafef00d" {
		t.Errorf("ContentHash = %q, want cafef00d", records[0].ContentHash)
	}
}

// TestListPages filters by host.
func TestListPages(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	for _, url := range []string{
		"https://example.com/a",
		"https://example.com/b",
	} {
		if err := db.SavePage(ctx, sampleRecord(url)); err != nil {
			t.Fatal(err)
		}
	}
	other := sampleRecord("https://other.org/x")
	other.Host = "other.org"
	if err := db.SavePage(ctx, other); err != nil {
		t.Fatal(err)
	}

	records, err := db.ListPages(ctx, "example.com")
	if err != nil {
		t.Fatalf("ListPages returned error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records for example.com, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Host != "example.com" {
			t.Errorf("unexpected host %q in results", rec.Host)
		}
	}

	empty, err := db.ListPages(ctx, "unknown.example.net")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no records for unknown host, got %d", len(empty))
	}
}

// TestParseTimestamp handles the format variants SQLite emits.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Time
	}{
		{input: "2026-08-30 09:30:00", want: time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)},
		{input: "2026-08-30T09:30:00Z", want: time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)},
		{input: "not a timestamp", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
