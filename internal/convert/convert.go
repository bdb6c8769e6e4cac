package convert

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/mdcrawl/mdcrawl/internal/scope"
)

// Result is the fixed output of parsing one page: the document tree
// plus everything the crawl engine needs from it. The shape is
// deliberately type-stable so the engine's contract with the converter
// does not depend on what a particular page contains.
type Result struct {
	// Title is the text of the <title> element, if present.
	Title string

	// Links are the absolute URLs of page link candidates found in
	// anchor hrefs, in document order. Scope filtering happens in the
	// engine; asset-extension URLs are excluded here and reported in
	// Assets instead.
	Links []string

	// Assets are the absolute URLs of referenced images and documents,
	// in document order, deduplicated.
	Assets []string

	doc  *html.Node
	base *url.URL
}

// Parse decodes and parses an HTML page. base is the page's own URL,
// used to resolve relative references. contentType is the raw
// Content-Type header and drives charset detection.
func Parse(base *url.URL, r io.Reader, contentType string) (*Result, error) {
	decoded, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}

	doc, err := html.Parse(decoded)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	res := &Result{doc: doc, base: base}
	seenAssets := make(map[string]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			res.collect(n, seenAssets)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return res, nil
}

// collect gathers title, links, and assets from a single element.
func (r *Result) collect(n *html.Node, seenAssets map[string]struct{}) {
	switch n.Data {
	case "title":
		if r.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			r.Title = strings.TrimSpace(n.FirstChild.Data)
		}

	case "a":
		href := getAttr(n, "href")
		if !scope.ValidHref(href) {
			return
		}
		abs := r.resolve(href)
		if abs == "" {
			return
		}
		if scope.IsAssetURL(abs) {
			r.addAsset(abs, seenAssets)
		} else {
			r.Links = append(r.Links, abs)
		}

	case "img":
		src := getAttr(n, "src")
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		if abs := r.resolve(src); abs != "" {
			r.addAsset(abs, seenAssets)
		}
	}
}

func (r *Result) addAsset(abs string, seen map[string]struct{}) {
	if _, ok := seen[abs]; ok {
		return
	}
	seen[abs] = struct{}{}
	r.Assets = append(r.Assets, abs)
}

// resolve makes href absolute against the page URL. Unparseable or
// non-http(s) results resolve to "".
func (r *Result) resolve(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	abs := r.base.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
