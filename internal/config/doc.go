// Package config holds the crawl configuration: CLI-derived settings,
// optional per-host overrides loaded from a YAML file, validation, and
// the fingerprint used to guard checkpoint resumes.
package config
