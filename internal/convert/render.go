package convert

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// blockElements are rendered as their own Markdown blocks. Everything
// else inside a block is treated as inline content.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"div": true, "dl": true, "fieldset": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "ul": true,
}

// skippedElements contribute nothing to the rendered document.
var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"template": true, "iframe": true, "object": true, "embed": true,
}

// Render produces the Markdown document for the parsed page, using ATX
// headings. rewrites maps absolute asset URLs to local paths; image
// sources and document links found in the map are rewritten so the
// emitted Markdown references the stored copies.
func (r *Result) Render(rewrites map[string]string) string {
	root := findBody(r.doc)
	if root == nil {
		root = r.doc
	}

	rn := &renderer{result: r, rewrites: rewrites}
	rn.blocks(root, "")
	return strings.TrimRight(rn.sb.String(), "\n") + "\n"
}

// renderer walks the DOM emitting Markdown blocks.
type renderer struct {
	result   *Result
	rewrites map[string]string
	sb       strings.Builder
}

// blocks renders the children of n as a sequence of Markdown blocks.
// Consecutive inline siblings are gathered into one paragraph. prefix
// is prepended to every emitted line (used for blockquotes).
func (rn *renderer) blocks(n *html.Node, prefix string) {
	var inlineRun []*html.Node
	flush := func() {
		if len(inlineRun) == 0 {
			return
		}
		text := rn.inlineNodes(inlineRun)
		inlineRun = nil
		if strings.TrimSpace(text) != "" {
			rn.writeBlock(text, prefix)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			inlineRun = append(inlineRun, c)
		case c.Type == html.ElementNode && skippedElements[c.Data]:
			// Dropped entirely.
		case c.Type == html.ElementNode && blockElements[c.Data]:
			flush()
			rn.block(c, prefix)
		case c.Type == html.ElementNode:
			inlineRun = append(inlineRun, c)
		}
	}
	flush()
}

// block renders a single block element.
func (rn *renderer) block(n *html.Node, prefix string) {
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		text := rn.inline(n)
		if strings.TrimSpace(text) != "" {
			rn.writeBlock(strings.Repeat("#", level)+" "+text, prefix)
		}

	case "p":
		text := rn.inline(n)
		if strings.TrimSpace(text) != "" {
			rn.writeBlock(text, prefix)
		}

	case "hr":
		rn.writeBlock("---", prefix)

	case "pre":
		rn.writeBlock("```\n"+strings.TrimRight(rawText(n), "\n")+"\n```", prefix)

	case "blockquote":
		rn.blocks(n, prefix+"> ")

	case "ul":
		rn.list(n, prefix, false)

	case "ol":
		rn.list(n, prefix, true)

	case "table":
		rn.table(n, prefix)

	default:
		// Structural containers: recurse into their children.
		rn.blocks(n, prefix)
	}
}

// list renders ul/ol items. Nested lists are indented below their item.
func (rn *renderer) list(n *html.Node, prefix string, ordered bool) {
	var lines []string
	index := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		index++
		marker := "- "
		if ordered {
			marker = fmt.Sprintf("%d. ", index)
		}

		item := rn.inlineShallow(c)
		lines = append(lines, marker+item)

		// Nested lists under this item.
		for g := c.FirstChild; g != nil; g = g.NextSibling {
			if g.Type == html.ElementNode && (g.Data == "ul" || g.Data == "ol") {
				nested := &renderer{result: rn.result, rewrites: rn.rewrites}
				nested.list(g, "", g.Data == "ol")
				for _, line := range strings.Split(strings.TrimRight(nested.sb.String(), "\n"), "\n") {
					if line != "" {
						lines = append(lines, "  "+line)
					}
				}
			}
		}
	}
	if len(lines) > 0 {
		rn.writeBlock(strings.Join(lines, "\n"), prefix)
	}
}

// table renders rows as pipe-delimited lines with a separator after the
// first row. Complex tables degrade to their cell text.
func (rn *renderer) table(n *html.Node, prefix string) {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "tr" {
			var cells []string
			for c := node.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, rn.inline(c))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	if len(rows) == 0 {
		return
	}

	var lines []string
	for i, row := range rows {
		lines = append(lines, "| "+strings.Join(row, " | ")+" |")
		if i == 0 {
			seps := make([]string, len(row))
			for j := range seps {
				seps[j] = "---"
			}
			lines = append(lines, "| "+strings.Join(seps, " | ")+" |")
		}
	}
	rn.writeBlock(strings.Join(lines, "\n"), prefix)
}

// inline renders the full inline content of n.
func (rn *renderer) inline(n *html.Node) string {
	var parts []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		parts = append(parts, c)
	}
	return rn.inlineNodes(parts)
}

// inlineShallow renders the inline content of n, skipping nested lists
// (they are handled separately by list).
func (rn *renderer) inlineShallow(n *html.Node) string {
	var parts []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
			continue
		}
		parts = append(parts, c)
	}
	return rn.inlineNodes(parts)
}

// inlineNodes renders a slice of sibling nodes to inline Markdown.
func (rn *renderer) inlineNodes(nodes []*html.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		rn.inlineNode(&sb, n)
	}
	return collapseSpace(sb.String())
}

// inlineNode renders one inline node.
func (rn *renderer) inlineNode(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		// Handled below.
	default:
		return
	}

	if skippedElements[n.Data] {
		return
	}

	switch n.Data {
	case "br":
		sb.WriteString("\n")

	case "strong", "b":
		if text := rn.inline(n); strings.TrimSpace(text) != "" {
			sb.WriteString("**" + text + "**")
		}

	case "em", "i":
		if text := rn.inline(n); strings.TrimSpace(text) != "" {
			sb.WriteString("*" + text + "*")
		}

	case "code":
		if text := rawText(n); strings.TrimSpace(text) != "" {
			sb.WriteString("`" + strings.TrimSpace(text) + "`")
		}

	case "a":
		rn.anchor(sb, n)

	case "img":
		rn.image(sb, n)

	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rn.inlineNode(sb, c)
		}
	}
}

// anchor renders an <a> element. Document links whose target was stored
// locally point at the local copy; page links keep their absolute URL.
func (rn *renderer) anchor(sb *strings.Builder, n *html.Node) {
	text := rn.inline(n)
	href := getAttr(n, "href")

	abs := rn.result.resolve(href)
	if abs == "" {
		sb.WriteString(text)
		return
	}
	if local, ok := rn.rewrites[abs]; ok {
		abs = local
	}
	if strings.TrimSpace(text) == "" {
		text = abs
	}
	sb.WriteString("[" + text + "](" + abs + ")")
}

// image renders an <img> element, preferring the locally stored copy.
func (rn *renderer) image(sb *strings.Builder, n *html.Node) {
	src := getAttr(n, "src")
	if src == "" || strings.HasPrefix(src, "data:") {
		return
	}
	abs := rn.result.resolve(src)
	if abs == "" {
		return
	}
	if local, ok := rn.rewrites[abs]; ok {
		abs = local
	}
	sb.WriteString("![" + getAttr(n, "alt") + "](" + abs + ")")
}

// writeBlock appends a block with the line prefix applied and a blank
// line after it.
func (rn *renderer) writeBlock(text, prefix string) {
	for _, line := range strings.Split(text, "\n") {
		rn.sb.WriteString(strings.TrimRight(prefix+line, " "))
		rn.sb.WriteString("\n")
	}
	rn.sb.WriteString("\n")
}

// rawText returns the concatenated text content of n without collapsing
// whitespace. Used for pre and code where layout matters.
func rawText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// collapseSpace folds runs of whitespace into single spaces while
// preserving explicit newlines from <br>.
func collapseSpace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	out := strings.Join(lines, "\n")
	return strings.TrimSpace(out)
}

// findBody locates the <body> element.
func findBody(doc *html.Node) *html.Node {
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return body
}
