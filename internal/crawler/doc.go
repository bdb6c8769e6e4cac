// Package crawler drives the crawl: it pulls targets from the
// frontier, consults the politeness gate, invokes the fetcher,
// converter, and asset store, feeds discovered links back into the
// frontier, and checkpoints on a cadence and at shutdown.
//
// # State machine
//
// A run moves through INIT -> RUNNING -> (DRAINED | STOPPED_BY_LIMIT |
// INTERRUPTED) -> FINALIZING -> TERMINATED. Interrupts are observed at
// one safe point per loop iteration, after the previous target reached
// its terminal status; an in-flight fetch is always finished before the
// engine winds down, so the asset store never sees an abandoned write.
//
// # Concurrency
//
// The engine is single-threaded by contract: one target at a time, and
// all state mutation happens on the Run goroutine. The one internal
// optimization is bounded-parallel asset downloads within a page, which
// does not affect the observable guarantees (strict dedup,
// breadth-first order, exactly one visited record per target).
package crawler
