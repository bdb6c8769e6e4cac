// Package scope canonicalizes URLs and decides crawl-scope membership.
//
// Normalization guarantees that every string form of the same resource
// maps to one canonical URL, which is what makes frontier deduplication
// sound: two trailing-slash or mixed-case variants of a page must not
// become two crawl targets.
//
// The scope filter restricts the crawl to the root domain: a link whose
// host differs from the root host is never enqueued. Subdomains are not
// considered in scope.
package scope
