package model

import "time"

// VisitStatus is the terminal outcome of processing a crawl target.
type VisitStatus string

// Terminal statuses for a dequeued target. Every dequeued target ends up
// with exactly one of these, which guarantees the frontier always drains.
const (
	// VisitFetched means the page was fetched and processed successfully.
	VisitFetched VisitStatus = "fetched"

	// VisitSkippedRobots means robots.txt rules forbade the fetch.
	// This is a policy outcome, not an error.
	VisitSkippedRobots VisitStatus = "skipped_robots"

	// VisitSkippedScope means the URL fell outside the crawl scope.
	// Scope-rejected links are normally dropped before they become
	// targets; this status exists for targets restored from older
	// checkpoints whose scope rules have since excluded them.
	VisitSkippedScope VisitStatus = "skipped_scope"

	// VisitFailed means the fetch failed (timeout, connection error,
	// or non-2xx response). Failed URLs are not retried within a run.
	VisitFailed VisitStatus = "failed"
)

// Valid reports whether s is one of the defined visit statuses.
func (s VisitStatus) Valid() bool {
	switch s {
	case VisitFetched, VisitSkippedRobots, VisitSkippedScope, VisitFailed:
		return true
	}
	return false
}

// VisitedRecord is the permanent record of a processed URL.
// A URL appears at most once across the frontier and the visited set;
// the frontier enforces that invariant at enqueue time.
type VisitedRecord struct {
	// URL is the normalized URL that was processed.
	URL string `json:"url"`

	// Status is the terminal outcome of processing.
	Status VisitStatus `json:"status"`

	// Timestamp is when the target finished processing.
	Timestamp time.Time `json:"timestamp"`
}
