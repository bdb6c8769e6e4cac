// Package politeness enforces the crawl's rate limiting and robots.txt
// compliance.
//
// The Gate owns a per-host robots cache populated lazily on first use
// and never invalidated during a run. Robots fetch or parse failures
// fail open: a network hiccup on the rules file must not halt the
// whole crawl.
package politeness

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

// Gate combines the per-request delay with the robots.txt allow/deny
// decision. It is used from a single goroutine; the cache needs no lock.
type Gate struct {
	client    *http.Client
	userAgent string
	delay     time.Duration
	jitter    time.Duration
	respect   bool
	logger    *slog.Logger

	// rules caches parsed robots.txt per host for the run's lifetime.
	// A nil entry records a fetch failure, which means allow.
	rules map[string]*robotstxt.RobotsData
}

// Option configures a Gate.
type Option func(*Gate)

// WithDelay sets the base delay between fetches.
func WithDelay(d time.Duration) Option {
	return func(g *Gate) { g.delay = d }
}

// WithJitter sets the maximum random adjustment applied to the delay,
// in either direction.
func WithJitter(j time.Duration) Option {
	return func(g *Gate) { g.jitter = j }
}

// WithRespectRobots toggles robots.txt enforcement. When disabled,
// Allowed always returns true.
func WithRespectRobots(respect bool) Option {
	return func(g *Gate) { g.respect = respect }
}

// WithUserAgent sets the agent string used for robots group matching
// and the robots.txt request itself.
func WithUserAgent(ua string) Option {
	return func(g *Gate) { g.userAgent = ua }
}

// WithLogger sets the logger for robots cache activity.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// NewGate creates a Gate using the given HTTP client for robots.txt
// retrieval. The client should carry the same timeout as page fetches.
func NewGate(client *http.Client, opts ...Option) *Gate {
	g := &Gate{
		client:  client,
		respect: true,
		logger:  slog.Default(),
		rules:   make(map[string]*robotstxt.RobotsData),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allowed reports whether robots.txt rules permit fetching the URL.
// Rules are fetched once per host and cached for the run.
func (g *Gate) Allowed(ctx context.Context, u *url.URL) bool {
	if !g.respect {
		return true
	}

	data, ok := g.rules[u.Host]
	if !ok {
		data = g.fetchRules(ctx, u)
		g.rules[u.Host] = data
	}
	if data == nil {
		// Rules could not be retrieved; fail open.
		return true
	}

	group := data.FindGroup(g.userAgent)
	if group == nil {
		return true
	}
	path := u.Path
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return group.Test(path)
}

// fetchRules retrieves and parses robots.txt for the URL's host.
// Any failure returns nil, which Allowed treats as allow-all.
func (g *Gate) fetchRules(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("robots.txt fetch failed, allowing all", "host", u.Host, "error", err)
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		g.logger.Debug("robots.txt parse failed, allowing all", "host", u.Host, "error", err)
		return nil
	}

	g.logger.Debug("robots.txt cached", "host", u.Host, "status", resp.StatusCode)
	return data
}

// Wait blocks for the politeness interval before the next fetch:
// delay plus a uniform random adjustment in [-jitter, +jitter],
// clamped at zero. It returns early with ctx.Err() on cancellation.
func (g *Gate) Wait(ctx context.Context) error {
	d := g.delay
	if g.jitter > 0 {
		d += time.Duration((rand.Float64()*2 - 1) * float64(g.jitter))
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CachedHosts returns the hosts with cached robots rules, for logging.
func (g *Gate) CachedHosts() []string {
	hosts := make([]string, 0, len(g.rules))
	for host := range g.rules {
		hosts = append(hosts, host)
	}
	return hosts
}
