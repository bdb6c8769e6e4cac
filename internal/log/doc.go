// Package log provides the crawler's slog setup with automatic
// redaction of credentials.
//
// Per-host configuration may carry cookies and Authorization headers
// for sites that gate their content. Those values flow through the
// fetcher and would otherwise appear in debug logs; the RedactingHandler
// masks them before any record reaches the underlying handler, so
// verbose logs stay safe to share.
package log
