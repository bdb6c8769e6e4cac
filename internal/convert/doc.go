// Package convert turns fetched HTML into Markdown documents and
// extracts the links and asset references the crawl engine feeds back
// into the frontier.
//
// Parsing and rendering are split on purpose: Parse walks the DOM once
// and collects everything, and Render runs later with the asset rewrite
// map, after the engine has downloaded the page's assets and knows
// their local paths. One parse, one render, no second fetch.
//
// Input is charset-decoded before parsing, so pages declared as
// ISO-8859-1 or Shift_JIS convert correctly.
package convert
