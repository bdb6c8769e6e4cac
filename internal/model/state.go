package model

import "time"

// CheckpointSchemaVersion identifies the checkpoint file layout.
// Loaders reject files written with a different version rather than
// guessing at field meanings.
const CheckpointSchemaVersion = 1

// CrawlState is the checkpoint unit: everything needed to resume an
// interrupted crawl. It is serialized as indented JSON so operators can
// inspect the file directly.
//
// The crawl engine owns the live state exclusively; the checkpoint
// manager only serializes a point-in-time view of it. Saves happen at
// loop safe points, so a snapshot never contains an in-flight target.
type CrawlState struct {
	// SchemaVersion is the checkpoint layout version. Always
	// CheckpointSchemaVersion for files written by this binary.
	SchemaVersion int `json:"schema_version"`

	// ConfigFingerprint identifies the run parameters that must match
	// between a saved checkpoint and a resume invocation.
	ConfigFingerprint string `json:"config_fingerprint"`

	// StartedAt is when the original crawl (not the resume) began.
	StartedAt time.Time `json:"started_at"`

	// SavedAt is when this snapshot was written.
	SavedAt time.Time `json:"saved_at"`

	// PagesProcessed counts successfully fetched pages.
	PagesProcessed int `json:"pages_processed"`

	// Frontier is the ordered queue of pending targets, oldest first.
	Frontier []CrawlTarget `json:"frontier"`

	// Visited holds the terminal record of every processed URL.
	Visited []VisitedRecord `json:"visited"`

	// Titles maps fetched page URLs to their document titles, used to
	// build the site index. Carried in the checkpoint so a resumed run
	// still produces a complete index.
	Titles map[string]string `json:"titles,omitempty"`
}

// Summary holds the run counters surfaced when the crawl finishes.
type Summary struct {
	// PagesFetched counts pages fetched and converted.
	PagesFetched int

	// PagesFailed counts targets whose fetch failed.
	PagesFailed int

	// SkippedRobots counts targets denied by robots.txt.
	SkippedRobots int

	// SkippedScope counts targets rejected by the scope filter.
	SkippedScope int

	// AssetsStored counts unique assets downloaded.
	AssetsStored int

	// AssetsFailed counts asset downloads that failed.
	AssetsFailed int

	// CheckpointErrors counts non-fatal checkpoint save failures.
	CheckpointErrors int

	// FrontierRemaining is the queue length at termination. Nonzero
	// means an incremental re-run has work left to do.
	FrontierRemaining int
}
