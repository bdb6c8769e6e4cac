package crawler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mdcrawl/mdcrawl/internal/archive"
	"github.com/mdcrawl/mdcrawl/internal/assets"
	"github.com/mdcrawl/mdcrawl/internal/checkpoint"
	"github.com/mdcrawl/mdcrawl/internal/config"
	"github.com/mdcrawl/mdcrawl/internal/convert"
	"github.com/mdcrawl/mdcrawl/internal/fetcher"
	"github.com/mdcrawl/mdcrawl/internal/frontier"
	"github.com/mdcrawl/mdcrawl/internal/index"
	"github.com/mdcrawl/mdcrawl/internal/model"
	"github.com/mdcrawl/mdcrawl/internal/page"
	"github.com/mdcrawl/mdcrawl/internal/politeness"
	"github.com/mdcrawl/mdcrawl/internal/scope"
)

// Engine owns the crawl state for the process lifetime and is the only
// mutator of it. Collaborators (fetcher, converter, asset store,
// checkpoint manager) are invoked from the Run goroutine.
type Engine struct {
	cfg    *config.Config
	root   *url.URL
	site   config.SiteConfig
	filter *scope.Filter

	frontier    *frontier.Frontier
	gate        *politeness.Gate
	client      *fetcher.Client
	assetClient *fetcher.Client
	store       *assets.Store
	pages       *page.Writer
	ckpt        *checkpoint.Manager
	archiveDB   *archive.DB
	logger      *slog.Logger

	state          State
	outcome        State
	interrupted    atomic.Bool
	startedAt      time.Time
	pagesProcessed int
	titles         map[string]string
	summary        model.Summary
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithArchive attaches the crawl archive. The engine records every
// fetched page in it; a nil db disables archiving.
func WithArchive(db *archive.DB) Option {
	return func(e *Engine) { e.archiveDB = db }
}

// New creates an Engine from a validated configuration.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	root, err := scope.Normalize(cfg.RootURL, nil)
	if err != nil {
		return nil, fmt.Errorf("normalize root URL %q: %w", cfg.RootURL, err)
	}

	site := config.SiteConfig{}
	if cfg.Sites != nil {
		site = cfg.Sites.ForHost(root.Host)
	}

	client := fetcher.NewClient(cfg.Timeout,
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithCookie(site.Cookie),
		fetcher.WithHeaders(site.Headers),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
	)
	assetClient := fetcher.NewClient(cfg.AssetTimeout,
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithCookie(site.Cookie),
		fetcher.WithHeaders(site.Headers),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
	)

	e := &Engine{
		cfg:         cfg,
		root:        root,
		site:        site,
		filter:      scope.NewFilter(root),
		frontier:    frontier.New(),
		client:      client,
		assetClient: assetClient,
		store:       assets.NewStore(cfg.OutputDir),
		pages:       page.NewWriter(cfg.OutputDir, cfg.Frontmatter),
		ckpt:        checkpoint.NewManager(cfg.CheckpointPath()),
		logger:      slog.Default(),
		state:       StateInit,
		titles:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.gate = politeness.NewGate(client.HTTPClient(),
		politeness.WithDelay(cfg.Delay),
		politeness.WithJitter(cfg.Jitter),
		politeness.WithRespectRobots(cfg.RespectRobots),
		politeness.WithUserAgent(cfg.UserAgent),
		politeness.WithLogger(e.logger),
	)

	return e, nil
}

// Interrupt requests a graceful stop. Safe to call from any goroutine;
// the engine observes the request at the next loop safe point, after
// the in-flight target reaches its terminal status.
func (e *Engine) Interrupt() {
	e.interrupted.Store(true)
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Outcome returns how the running loop ended: StateDrained,
// StateStoppedByLimit, or StateInterrupted. Empty until the loop stops.
func (e *Engine) Outcome() State {
	return e.outcome
}

// Summary returns the run counters collected so far.
func (e *Engine) Summary() model.Summary {
	s := e.summary
	s.FrontierRemaining = e.frontier.Len()
	return s
}

// Run executes the crawl to completion and returns the final summary.
// The returned error is non-nil only for unrecoverable conditions:
// a corrupt or mismatched checkpoint on resume. Fetch failures, robots
// denials, and interrupts are normal outcomes reflected in the summary.
func (e *Engine) Run(ctx context.Context) (model.Summary, error) {
	if err := e.initialize(); err != nil {
		return e.Summary(), err
	}

	e.state = StateRunning
	e.logger.Info("crawl started",
		"root", e.root.String(),
		"maxPages", e.cfg.MaxPages,
		"resume", e.cfg.Resume,
		"queued", e.frontier.Len(),
	)

	for {
		// Safe point: the previous target has its terminal status and
		// the frontier is consistent, so stopping here never loses
		// work or abandons a write.
		if e.interrupted.Load() {
			e.outcome = StateInterrupted
			break
		}
		// An empty queue is reported as drained even when the page
		// budget is also exhausted.
		if e.frontier.Len() == 0 {
			e.outcome = StateDrained
			break
		}
		if e.pagesProcessed >= e.cfg.MaxPages {
			e.outcome = StateStoppedByLimit
			break
		}
		target, ok := e.frontier.Dequeue()
		if !ok {
			e.outcome = StateDrained
			break
		}

		e.process(ctx, target)
	}

	e.finalize()
	return e.Summary(), nil
}

// initialize loads the checkpoint under --resume or seeds the frontier
// with the root URL. Checkpoint errors here are fatal: the process must
// stop before any network request rather than silently re-crawl from
// scratch.
func (e *Engine) initialize() error {
	e.startedAt = time.Now().UTC()

	if e.cfg.Resume && e.ckpt.Exists() {
		state, err := e.ckpt.Load(e.cfg.Fingerprint())
		if err != nil {
			return fmt.Errorf("resume failed: %w", err)
		}
		e.frontier.Restore(state)
		e.pagesProcessed = state.PagesProcessed
		e.startedAt = state.StartedAt
		e.titles = state.Titles
		e.logger.Info("resumed from checkpoint",
			"path", e.ckpt.Path(),
			"queued", e.frontier.Len(),
			"visited", e.frontier.VisitedCount(),
		)
		return nil
	}

	e.frontier.Enqueue(model.CrawlTarget{URL: e.root.String(), Depth: 0})
	return nil
}

// process handles one dequeued target through to its terminal status.
// Exactly one MarkVisited call happens on every path out of here.
func (e *Engine) process(ctx context.Context, target model.CrawlTarget) {
	u, err := url.Parse(target.URL)
	if err != nil {
		e.markFailed(target.URL, "unparseable target URL", err)
		return
	}

	// Scope is enforced at enqueue time, so this only rejects targets
	// restored from a checkpoint whose patterns have since changed.
	if !e.filter.Allows(u) || !scope.Crawlable(u.Path, e.site.IgnorePatterns, e.site.FollowPatterns) {
		e.frontier.MarkVisited(target.URL, model.VisitSkippedScope)
		e.summary.SkippedScope++
		return
	}

	if !e.gate.Allowed(ctx, u) {
		e.logger.Debug("skipped by robots.txt", "url", target.URL)
		e.frontier.MarkVisited(target.URL, model.VisitSkippedRobots)
		e.summary.SkippedRobots++
		return
	}

	if err := e.gate.Wait(ctx); err != nil {
		// The run context was cancelled while waiting; record the
		// target and stop at the next safe point.
		e.markFailed(target.URL, "cancelled during politeness wait", err)
		e.interrupted.Store(true)
		return
	}

	e.logger.Debug("fetching", "url", target.URL, "depth", target.Depth)
	resp, err := e.client.Fetch(ctx, target.URL)
	if err != nil {
		e.markFailed(target.URL, "fetch failed", err)
		return
	}

	if !isHTML(resp.ContentType) {
		// Fetched but not convertible; counts as a processed page.
		e.logger.Debug("skipping conversion of non-HTML page",
			"url", target.URL, "contentType", resp.ContentType)
		e.completePage(ctx, target, u, "", "", resp)
		return
	}

	result, err := convert.Parse(u, bytes.NewReader(resp.Body), resp.ContentType)
	if err != nil {
		e.markFailed(target.URL, "parse failed", err)
		return
	}

	e.enqueueLinks(target, u, result.Links)
	rewrites := e.collectAssets(ctx, u, result.Assets)

	title := result.Title
	markdown := result.Render(rewrites)
	docPath, err := e.pages.Write(u, title, markdown, time.Now())
	if err != nil {
		e.markFailed(target.URL, "write document failed", err)
		return
	}

	e.completePage(ctx, target, u, title, docPath, resp)
}

// completePage records a successfully processed target: visited record,
// counters, title for the index, optional archive row, and the periodic
// checkpoint.
func (e *Engine) completePage(ctx context.Context, target model.CrawlTarget, u *url.URL, title, docPath string, resp *fetcher.Response) {
	e.frontier.MarkVisited(target.URL, model.VisitFetched)
	e.pagesProcessed++
	e.summary.PagesFetched++

	if docPath != "" {
		if title == "" {
			title = target.URL
		}
		e.titles[target.URL] = title
	}

	if e.archiveDB != nil {
		hash := sha256.Sum256(resp.Body)
		rec := &archive.PageRecord{
			URL:          target.URL,
			Host:         u.Host,
			StatusCode:   resp.StatusCode,
			ContentType:  resp.ContentType,
			Title:        title,
			ContentHash:  hex.EncodeToString(hash[:]),
			DocumentPath: docPath,
		}
		if err := e.archiveDB.SavePage(ctx, rec); err != nil {
			e.logger.Warn("archive write failed", "url", target.URL, "error", err)
		}
	}

	if e.pagesProcessed%e.cfg.SaveEvery == 0 {
		e.saveCheckpoint()
	}
}

// markFailed records a failed target. Failures are per-target outcomes;
// the crawl continues and the URL is not retried this run.
func (e *Engine) markFailed(url, msg string, err error) {
	e.logger.Warn(msg, "url", url, "error", err)
	e.frontier.MarkVisited(url, model.VisitFailed)
	e.summary.PagesFailed++
}

// enqueueLinks normalizes and scope-filters extracted links, then feeds
// survivors into the frontier. Out-of-scope and asset links are dropped
// silently; they were never crawl targets.
func (e *Engine) enqueueLinks(parent model.CrawlTarget, base *url.URL, links []string) {
	for _, link := range links {
		canonical, err := scope.Normalize(link, base)
		if err != nil {
			continue
		}
		if !e.filter.Allows(canonical) {
			continue
		}
		if scope.IsAssetURL(canonical.String()) {
			continue
		}
		if !scope.Crawlable(canonical.Path, e.site.IgnorePatterns, e.site.FollowPatterns) {
			continue
		}
		e.frontier.Enqueue(model.CrawlTarget{
			URL:            canonical.String(),
			Depth:          parent.Depth + 1,
			DiscoveredFrom: parent.URL,
		})
	}
}

// collectAssets downloads the page's assets with bounded parallelism
// and returns the source-URL to local-path rewrite map. Asset failures
// are counted but never fail the page.
func (e *Engine) collectAssets(ctx context.Context, pageURL *url.URL, assetURLs []string) map[string]string {
	rewrites := make(map[string]string, len(assetURLs))
	if len(assetURLs) == 0 {
		return rewrites
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.AssetConcurrency)

	for _, assetURL := range assetURLs {
		mu.Lock()
		ref, cached := e.store.Lookup(assetURL)
		if cached {
			rewrites[assetURL] = ref.LocalPath
		}
		mu.Unlock()
		if cached {
			continue
		}

		g.Go(func() error {
			resp, err := e.assetClient.Fetch(ctx, assetURL)
			if err != nil {
				e.logger.Debug("asset download failed",
					"asset", assetURL, "page", pageURL.String(), "error", err)
				mu.Lock()
				e.summary.AssetsFailed++
				mu.Unlock()
				return nil // Keep downloading the rest.
			}

			mu.Lock()
			defer mu.Unlock()
			ref, err := e.store.Save(assetURL, resp.ContentType, resp.Body)
			if err != nil {
				e.logger.Warn("asset store failed", "asset", assetURL, "error", err)
				e.summary.AssetsFailed++
				return nil
			}
			e.summary.AssetsStored++
			rewrites[assetURL] = ref.LocalPath
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // Workers never return errors

	return rewrites
}

// saveCheckpoint writes the current state. Save failures are logged and
// counted but never stop the crawl; losing a checkpoint interval is
// better than losing the run.
func (e *Engine) saveCheckpoint() {
	state := e.buildState()
	if err := e.ckpt.Save(state); err != nil {
		e.logger.Error("checkpoint save failed", "path", e.ckpt.Path(), "error", err)
		e.summary.CheckpointErrors++
		return
	}
	e.logger.Debug("checkpoint saved",
		"path", e.ckpt.Path(),
		"pagesProcessed", e.pagesProcessed,
		"queued", e.frontier.Len(),
	)
}

// buildState snapshots the live crawl state for serialization.
func (e *Engine) buildState() *model.CrawlState {
	state := &model.CrawlState{
		ConfigFingerprint: e.cfg.Fingerprint(),
		StartedAt:         e.startedAt,
		PagesProcessed:    e.pagesProcessed,
		Titles:            e.titles,
	}
	e.frontier.Snapshot(state)
	return state
}

// finalize writes the final checkpoint (even on a clean drain, so
// incremental re-runs are possible), emits the site index, and logs the
// summary.
func (e *Engine) finalize() {
	e.state = StateFinalizing

	e.saveCheckpoint()

	if err := e.writeIndex(); err != nil {
		e.logger.Error("index write failed", "error", err)
	}

	s := e.Summary()
	e.logger.Info("crawl finished",
		"outcome", string(e.outcome),
		"pagesFetched", s.PagesFetched,
		"pagesFailed", s.PagesFailed,
		"skippedRobots", s.SkippedRobots,
		"assetsStored", s.AssetsStored,
		"frontierRemaining", s.FrontierRemaining,
	)

	e.state = StateTerminated
}

// writeIndex emits output_dir/index.md listing every fetched page.
func (e *Engine) writeIndex() error {
	entries := make([]index.Entry, 0, len(e.titles))
	for pageURL, title := range e.titles {
		u, err := url.Parse(pageURL)
		if err != nil {
			continue
		}
		entries = append(entries, index.Entry{
			Title: title,
			URL:   pageURL,
			File:  page.DocumentPath(u),
		})
	}

	path := filepath.Join(e.cfg.OutputDir, "index.md")
	return index.WriteFile(path, e.root.String(), entries, e.Summary())
}

// isHTML reports whether a Content-Type names an HTML document.
func isHTML(contentType string) bool {
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml+xml")
}
