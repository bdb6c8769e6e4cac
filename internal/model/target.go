package model

// CrawlTarget is a discovered, not-yet-fetched URL in the frontier.
// Targets are created when an extracted link passes normalization and
// scope filtering, consumed exactly once when dequeued, and never
// mutated after creation.
type CrawlTarget struct {
	// URL is the normalized absolute URL of the target.
	URL string `json:"url"`

	// Depth is the link distance from the root URL. The root is depth 0.
	Depth int `json:"depth"`

	// DiscoveredFrom is the URL of the page the link was found on.
	// Empty for the root target.
	DiscoveredFrom string `json:"discovered_from,omitempty"`
}

// AssetReference records a downloaded asset and where it lives locally.
// Assets are deduplicated by source URL: the first download wins and
// later references to the same URL reuse the stored local path.
type AssetReference struct {
	// SourceURL is the absolute URL the asset was downloaded from.
	SourceURL string `json:"source_url"`

	// LocalPath is the path of the stored copy, relative to the output
	// directory, using forward slashes. Markdown documents reference
	// assets through this path.
	LocalPath string `json:"local_path"`

	// ContentType is the MIME type reported by the server, if any.
	ContentType string `json:"content_type,omitempty"`
}
