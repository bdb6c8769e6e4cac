package frontier

import (
	"testing"

	"github.com/mdcrawl/mdcrawl/internal/model"
)

// TestEnqueueDeduplicates verifies the central invariant: a URL that has
// ever been accepted cannot enter the queue a second time.
func TestEnqueueDeduplicates(t *testing.T) {
	t.Parallel()

	t.Run("first enqueue is accepted", func(t *testing.T) {
		t.Parallel()

		f := New()
		if !f.Enqueue(model.CrawlTarget{URL: "https://example.com/a"}) {
			t.Error("expected first enqueue to return true")
		}
		if f.Len() != 1 {
			t.Errorf("expected queue length 1, got %d", f.Len())
		}
	})

	t.Run("duplicate of queued URL is rejected", func(t *testing.T) {
		t.Parallel()

		f := New()
		f.Enqueue(model.CrawlTarget{URL: "https://example.com/a"})
		if f.Enqueue(model.CrawlTarget{URL: "https://example.com/a", Depth: 3}) {
			t.Error("expected duplicate enqueue to return false")
		}
		if f.Len() != 1 {
			t.Errorf("expected queue length 1 after duplicate, got %d", f.Len())
		}
	})

	t.Run("in-flight URL cannot be re-enqueued", func(t *testing.T) {
		t.Parallel()

		f := New()
		f.Enqueue(model.CrawlTarget{URL: "https://example.com/a"})
		if _, ok := f.Dequeue(); !ok {
			t.Fatal("expected dequeue to succeed")
		}

		// Dequeued but not yet marked visited: still blocked.
		if f.Enqueue(model.CrawlTarget{URL: "https://example.com/a"}) {
			t.Error("expected in-flight URL to be rejected")
		}
	})

	t.Run("visited URL cannot be re-enqueued", func(t *testing.T) {
		t.Parallel()

		f := New()
		f.Enqueue(model.CrawlTarget{URL: "https://example.com/a"})
		f.Dequeue()
		f.MarkVisited("https://example.com/a", model.VisitFetched)

		if f.Enqueue(model.CrawlTarget{URL: "https://example.com/a"}) {
			t.Error("expected visited URL to be rejected")
		}
	})
}

// TestDequeueOrder verifies FIFO order, which gives the crawl its
// breadth-first shape.
func TestDequeueOrder(t *testing.T) {
	t.Parallel()

	f := New()
	urls := []string{
		"https://example.com/",
		"https://example.com/a",
		"https://example.com/b",
	}
	for i, u := range urls {
		f.Enqueue(model.CrawlTarget{URL: u, Depth: i})
	}

	for _, want := range urls {
		got, ok := f.Dequeue()
		if !ok {
			t.Fatalf("expected dequeue of %q to succeed", want)
		}
		if got.URL != want {
			t.Errorf("dequeued %q, want %q", got.URL, want)
		}
	}

	if _, ok := f.Dequeue(); ok {
		t.Error("expected dequeue from empty queue to return false")
	}
}

// TestMarkVisited covers terminal records and their idempotence.
func TestMarkVisited(t *testing.T) {
	t.Parallel()

	t.Run("records status and counts", func(t *testing.T) {
		t.Parallel()

		f := New()
		f.MarkVisited("https://example.com/a", model.VisitFetched)
		f.MarkVisited("https://example.com/b", model.VisitSkippedRobots)

		if !f.IsVisited("https://example.com/a") {
			t.Error("expected /a to be visited")
		}
		if f.VisitedCount() != 2 {
			t.Errorf("expected 2 visited records, got %d", f.VisitedCount())
		}

		records := f.Visited()
		if records[1].Status != model.VisitSkippedRobots {
			t.Errorf("expected skipped_robots status, got %q", records[1].Status)
		}
		if records[0].Timestamp.IsZero() {
			t.Error("expected a non-zero timestamp on the visited record")
		}
	})

	t.Run("repeated marks are ignored", func(t *testing.T) {
		t.Parallel()

		f := New()
		f.MarkVisited("https://example.com/a", model.VisitFetched)
		f.MarkVisited("https://example.com/a", model.VisitFailed)

		if f.VisitedCount() != 1 {
			t.Errorf("expected 1 visited record, got %d", f.VisitedCount())
		}
		if got := f.Visited()[0].Status; got != model.VisitFetched {
			t.Errorf("expected first status to win, got %q", got)
		}
	})
}

// TestSnapshotRestore verifies that a snapshot and restore cycle
// reproduces the queue, the visited records, and the dedup behavior.
func TestSnapshotRestore(t *testing.T) {
	t.Parallel()

	f := New()
	f.Enqueue(model.CrawlTarget{URL: "https://example.com/", Depth: 0})
	f.Enqueue(model.CrawlTarget{URL: "https://example.com/a", Depth: 1, DiscoveredFrom: "https://example.com/"})
	f.Enqueue(model.CrawlTarget{URL: "https://example.com/b", Depth: 1, DiscoveredFrom: "https://example.com/"})
	f.Dequeue()
	f.MarkVisited("https://example.com/", model.VisitFetched)

	var state model.CrawlState
	f.Snapshot(&state)

	t.Run("queue survives the round trip", func(t *testing.T) {
		t.Parallel()

		restored := New()
		restored.Restore(&state)
		if restored.Len() != 2 {
			t.Fatalf("expected 2 queued targets, got %d", restored.Len())
		}
		got, _ := restored.Dequeue()
		if got.URL != "https://example.com/a" || got.Depth != 1 {
			t.Errorf("unexpected first target: %+v", got)
		}
		if got.DiscoveredFrom != "https://example.com/" {
			t.Errorf("expected DiscoveredFrom to survive, got %q", got.DiscoveredFrom)
		}
	})

	t.Run("visited records survive the round trip", func(t *testing.T) {
		t.Parallel()

		restored := New()
		restored.Restore(&state)
		if !restored.IsVisited("https://example.com/") {
			t.Error("expected root to be visited after restore")
		}
		if restored.VisitedCount() != 1 {
			t.Errorf("expected 1 visited record, got %d", restored.VisitedCount())
		}
	})

	t.Run("dedup invariant holds after restore", func(t *testing.T) {
		t.Parallel()

		r := New()
		r.Restore(&state)
		if r.Enqueue(model.CrawlTarget{URL: "https://example.com/"}) {
			t.Error("expected visited URL to be rejected after restore")
		}
		if r.Enqueue(model.CrawlTarget{URL: "https://example.com/a"}) {
			t.Error("expected queued URL to be rejected after restore")
		}
		if !r.Enqueue(model.CrawlTarget{URL: "https://example.com/new"}) {
			t.Error("expected unseen URL to be accepted after restore")
		}
	})

	t.Run("snapshot is independent of live frontier", func(t *testing.T) {
		t.Parallel()

		var s model.CrawlState
		live := New()
		live.Enqueue(model.CrawlTarget{URL: "https://example.com/x"})
		live.Snapshot(&s)

		live.Dequeue()
		live.MarkVisited("https://example.com/x", model.VisitFetched)

		if len(s.Frontier) != 1 {
			t.Errorf("expected snapshot frontier unchanged, got %d entries", len(s.Frontier))
		}
		if len(s.Visited) != 0 {
			t.Errorf("expected snapshot visited unchanged, got %d entries", len(s.Visited))
		}
	})
}
