// Package main provides the entry point for the mdcrawl CLI.
//
// mdcrawl mirrors a single website as a tree of Markdown documents.
// It crawls every in-scope page reachable from a root URL, converts
// each to Markdown, downloads referenced assets, and checkpoints its
// progress so an interrupted crawl can be resumed.
//
// Usage:
//
//	mdcrawl <root-url> -o <output-dir>
//	mdcrawl <root-url> -o <output-dir> --resume
//
// See --help for all available options.
package main

// main is the entry point for mdcrawl.
func main() {
	Execute()
}
