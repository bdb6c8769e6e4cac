// Package index emits the site index document listing every mirrored
// page, plus the run's summary counters.
package index

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/mdcrawl/mdcrawl/internal/model"
)

// Entry is one row of the site index.
type Entry struct {
	// Title is the page title, falling back to the URL when a page
	// had none.
	Title string

	// URL is the page's source URL.
	URL string

	// File is the document path relative to the output directory.
	File string
}

// Writer builds index.md for a mirrored site.
type Writer struct {
	output io.Writer
}

// NewWriter creates a Writer emitting to output.
func NewWriter(output io.Writer) *Writer {
	return &Writer{output: output}
}

// Write emits the index: a heading, the page table sorted by URL, and
// the run summary.
func (w *Writer) Write(rootURL string, entries []Entry, summary model.Summary) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].URL < entries[j].URL })

	rows := make([][]string, len(entries))
	for i, e := range entries {
		title := e.Title
		if title == "" {
			title = e.URL
		}
		rows[i] = []string{title, e.URL, e.File}
	}

	md := markdown.NewMarkdown(w.output)
	md.H1f("Site index for %s", rootURL)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Title", "URL", "File"},
		Rows:   rows,
	})
	md.PlainText("")

	md.H2("Crawl summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Pages fetched", strconv.Itoa(summary.PagesFetched)},
			{"Pages failed", strconv.Itoa(summary.PagesFailed)},
			{"Skipped by robots.txt", strconv.Itoa(summary.SkippedRobots)},
			{"Skipped out of scope", strconv.Itoa(summary.SkippedScope)},
			{"Assets stored", strconv.Itoa(summary.AssetsStored)},
			{"Assets failed", strconv.Itoa(summary.AssetsFailed)},
			{"Frontier remaining", strconv.Itoa(summary.FrontierRemaining)},
		},
	})

	if summary.CheckpointErrors > 0 {
		md.PlainText("")
		md.Warningf("%d checkpoint save(s) failed during this run; the saved state may lag the output.", summary.CheckpointErrors)
	}

	return md.Build()
}

// WriteFile writes the index to path, creating parent directories.
func WriteFile(path, rootURL string, entries []Entry, summary model.Summary) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create index directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()

	return NewWriter(f).Write(rootURL, entries, summary)
}
