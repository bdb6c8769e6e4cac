// Package frontier manages the queue of discovered-but-unfetched URLs
// and the permanent visited set. It is the sole deduplication point of
// the crawl: a URL that has ever been enqueued, is in flight, or has a
// terminal record cannot be enqueued again.
package frontier

import (
	"time"

	"github.com/mdcrawl/mdcrawl/internal/model"
)

// Frontier is the BFS queue plus visited bookkeeping. It preserves
// insertion order so a max-pages cutoff yields a shallow-first sample of
// the site rather than an arbitrary deep branch.
//
// Frontier is not safe for concurrent use. The crawl engine is the only
// mutator, and checkpoint snapshots are taken on the same goroutine at
// loop safe points, so no locking is needed.
type Frontier struct {
	// queue holds pending targets in discovery order.
	queue []model.CrawlTarget

	// seen covers every URL ever accepted: queued, in flight, or
	// visited. Deduplication is enforced here at insertion time, not at
	// dequeue time, so duplicate enqueues cannot race ahead of
	// processing.
	seen map[string]struct{}

	// visited holds the terminal record of each processed URL in
	// completion order.
	visited []model.VisitedRecord

	// visitedSet indexes visited URLs for membership checks.
	visitedSet map[string]struct{}
}

// New creates an empty Frontier.
func New() *Frontier {
	return &Frontier{
		seen:       make(map[string]struct{}),
		visitedSet: make(map[string]struct{}),
	}
}

// Enqueue appends a target to the queue. It returns false without
// side effects when the URL is already queued, in flight, or visited.
// The target's URL must already be in canonical form.
func (f *Frontier) Enqueue(target model.CrawlTarget) bool {
	if _, ok := f.seen[target.URL]; ok {
		return false
	}
	f.seen[target.URL] = struct{}{}
	f.queue = append(f.queue, target)
	return true
}

// Dequeue removes and returns the oldest target. The second return is
// false when the queue is empty. A dequeued URL stays in the seen set,
// blocking re-enqueue while it is in flight.
func (f *Frontier) Dequeue() (model.CrawlTarget, bool) {
	if len(f.queue) == 0 {
		return model.CrawlTarget{}, false
	}
	target := f.queue[0]
	f.queue = f.queue[1:]
	return target, true
}

// MarkVisited records the terminal status of a dequeued target. It must
// be called exactly once per dequeued target regardless of fetch
// outcome; that guarantee is what makes the frontier drain. Repeated
// calls for the same URL are ignored.
func (f *Frontier) MarkVisited(url string, status model.VisitStatus) {
	if _, ok := f.visitedSet[url]; ok {
		return
	}
	// A restored checkpoint may legitimately contain visited URLs that
	// were never re-enqueued this run; keep seen consistent either way.
	f.seen[url] = struct{}{}
	f.visitedSet[url] = struct{}{}
	f.visited = append(f.visited, model.VisitedRecord{
		URL:       url,
		Status:    status,
		Timestamp: time.Now().UTC(),
	})
}

// IsVisited reports whether the URL has a terminal record.
func (f *Frontier) IsVisited(url string) bool {
	_, ok := f.visitedSet[url]
	return ok
}

// Len returns the number of pending targets.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// VisitedCount returns the number of terminal records.
func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}

// Snapshot copies the frontier's queue and visited records into state.
// The copies are independent of the live slices, so a checkpoint save
// observes a consistent point-in-time view.
func (f *Frontier) Snapshot(state *model.CrawlState) {
	state.Frontier = make([]model.CrawlTarget, len(f.queue))
	copy(state.Frontier, f.queue)
	state.Visited = make([]model.VisitedRecord, len(f.visited))
	copy(state.Visited, f.visited)
}

// Restore replaces the frontier's contents with the checkpointed state.
// Visited URLs and queued URLs both repopulate the seen set, restoring
// the dedup invariant exactly as it held at save time.
func (f *Frontier) Restore(state *model.CrawlState) {
	f.queue = make([]model.CrawlTarget, len(state.Frontier))
	copy(f.queue, state.Frontier)
	f.visited = make([]model.VisitedRecord, len(state.Visited))
	copy(f.visited, state.Visited)

	f.seen = make(map[string]struct{}, len(f.queue)+len(f.visited))
	f.visitedSet = make(map[string]struct{}, len(f.visited))
	for _, t := range f.queue {
		f.seen[t.URL] = struct{}{}
	}
	for _, v := range f.visited {
		f.seen[v.URL] = struct{}{}
		f.visitedSet[v.URL] = struct{}{}
	}
}

// Visited returns the terminal records in completion order. The caller
// must not mutate the returned slice.
func (f *Frontier) Visited() []model.VisitedRecord {
	return f.visited
}
