package adapters

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	leadingColons   = regexp.MustCompile(`^[:\s]+`)
	directionMarker = strings.NewReplacer("\u200e", "", "\u200f", "", "\u00a0", " ")
)

// skippedElements never contribute to visible text
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"svg":      true,
}

// blockElements start and end on their own line in rendered text
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tbody": true, "thead": true, "tfoot": true, "tr": true, "ul": true,
	"caption": true, "body": true, "select": true, "option": true,
}

// NormalizeSpaces converts non-breaking spaces to regular spaces and drops
// bidi direction markers, leaving line structure intact.
func NormalizeSpaces(s string) string {
	return directionMarker.Replace(s)
}

// CleanText normalizes a single extracted value: non-breaking spaces become
// regular spaces, direction markers are dropped, whitespace runs collapse
// to one space and the result is trimmed.
func CleanText(s string) string {
	s = NormalizeSpaces(s)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// stripLeadingColons removes the ": " that some layouts keep in value spans
func stripLeadingColons(s string) string {
	return leadingColons.ReplaceAllString(s, "")
}

// VisibleText approximates what a browser renders as the text of sel:
// hidden and non-content elements are skipped, block elements are placed
// on their own lines and table cells are separated by tabs.
func VisibleText(sel *goquery.Selection) string {
	w := &textWriter{}
	for _, n := range sel.Nodes {
		w.walk(n)
		w.breakLine()
	}

	lines := strings.Split(NormalizeSpaces(w.b.String()), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Trim(line, " \t")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

type textWriter struct {
	b           strings.Builder
	pendingLine bool
	pendingTab  bool
}

func (w *textWriter) breakLine() {
	w.pendingLine = true
	w.pendingTab = false
}

func (w *textWriter) write(text string) {
	if w.b.Len() > 0 {
		if w.pendingLine {
			w.b.WriteByte('\n')
		} else if w.pendingTab {
			w.b.WriteByte('\t')
		}
	}
	w.pendingLine = false
	w.pendingTab = false
	w.b.WriteString(text)
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		text := whitespaceRun.ReplaceAllString(n.Data, " ")
		if strings.TrimSpace(text) == "" {
			if !w.pendingLine && !w.pendingTab && w.b.Len() > 0 {
				w.b.WriteByte(' ')
			}
			return
		}
		w.write(text)
		return
	case html.ElementNode:
		if skippedElements[n.Data] || isHidden(n) {
			return
		}
		if n.Data == "br" {
			w.breakLine()
			return
		}
	case html.DocumentNode:
	default:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		w.breakLine()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	if block {
		w.breakLine()
	}
	if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") && !w.pendingLine {
		w.pendingTab = true
	}
}

func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "style":
			style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}
