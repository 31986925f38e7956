package adapters

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"ecoshelf-extractor/internal/types"
	"ecoshelf-extractor/utils"

	"github.com/PuerkitoBio/goquery"
)

// BaseAdapter provides common functionality for store adapters: page
// loading plus the selector, label and regex lookups every field
// extractor is assembled from.
type BaseAdapter struct {
	config        *types.Config        // Configuration settings (timeouts, browser settings, etc.)
	logger        types.Logger         // Structured logging interface
	httpClient    *utils.HTTPClient    // HTTP client for standard requests
	browserClient *utils.BrowserClient // Headless browser client for dynamic content
}

// NewBaseAdapter creates a new base adapter with initialized HTTP and browser clients.
func NewBaseAdapter(config *types.Config, logger types.Logger) *BaseAdapter {
	return &BaseAdapter{
		config:        config,
		logger:        logger,
		httpClient:    utils.NewHTTPClient(config, logger),
		browserClient: utils.NewBrowserClient(config, logger),
	}
}

// OpenPage loads url as a Page. With the headless browser the tab stays
// open until close is called so the page can keep rendering while the
// collector polls it.
func (b *BaseAdapter) OpenPage(ctx context.Context, url string) (page Page, close func(), err error) {
	if b.config.UseHeadlessBrowser {
		bp, err := b.browserClient.OpenPage(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		return bp, bp.Close, nil
	}

	body, err := b.httpClient.Get(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	sp, err := NewStaticPageFromHTML(url, string(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse page: %w", err)
	}
	b.logger.Debugf("Loaded %s over HTTP (%d bytes)", url, len(body))
	return sp, func() {}, nil
}

// Close cleans up resources
func (b *BaseAdapter) Close() {
	if b.httpClient != nil {
		b.httpClient.Close()
	}
}

// Config returns the config field of the BaseAdapter
func (b *BaseAdapter) Config() *types.Config {
	return b.config
}

// HTTPClient returns the shared HTTP client
func (b *BaseAdapter) HTTPClient() *utils.HTTPClient {
	return b.httpClient
}

// Strategy is one way of locating a field value. It reports false when the
// value is not on the page.
type Strategy func(doc *goquery.Document) (string, bool)

// FirstMatch applies strategies in order and returns the first value
// found, or types.NotFound.
func FirstMatch(doc *goquery.Document, strategies ...Strategy) string {
	if doc == nil {
		return types.NotFound
	}
	for _, strategy := range strategies {
		if value, ok := strategy(doc); ok {
			return value
		}
	}
	return types.NotFound
}

// FirstText returns the trimmed text of the first selector whose first
// match has non-empty text
func FirstText(selectors ...string) Strategy {
	return func(doc *goquery.Document) (string, bool) {
		for _, selector := range selectors {
			if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
				return text, true
			}
		}
		return "", false
	}
}

// FirstTextWith is FirstText followed by a transform of the matched text.
// The transform reports false to keep looking.
func FirstTextWith(transform func(text string) (string, bool), selectors ...string) Strategy {
	return func(doc *goquery.Document) (string, bool) {
		for _, selector := range selectors {
			text := strings.TrimSpace(doc.Find(selector).First().Text())
			if text == "" {
				continue
			}
			if value, ok := transform(text); ok {
				return value, true
			}
		}
		return "", false
	}
}

// LabeledRowValue looks through table rows for a header cell (th, or
// td.label) matching label and returns the adjacent value cell.
func LabeledRowValue(label *regexp.Regexp, rowSelectors ...string) Strategy {
	return func(doc *goquery.Document) (string, bool) {
		for _, selector := range rowSelectors {
			var value string
			doc.Find(selector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
				header := row.Find("th").First()
				if header.Length() == 0 {
					header = row.Find("td.label").First()
				}
				if header.Length() == 0 || !label.MatchString(NormalizeSpaces(header.Text())) {
					return true
				}

				cell := row.Find("td:not(.label)").First()
				if cell.Length() == 0 {
					cell = header.Next()
				}
				value = CleanText(cell.Text())
				return value == ""
			})
			if value != "" {
				return value, true
			}
		}
		return "", false
	}
}

// LabeledBulletValue reads "Label : value" pairs from the detail bullet list
func LabeledBulletValue(label *regexp.Regexp) Strategy {
	return func(doc *goquery.Document) (string, bool) {
		var value string
		doc.Find("#detailBullets_feature_div li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
			labelSpan := li.Find("span.a-text-bold").First()
			if labelSpan.Length() == 0 || !label.MatchString(NormalizeSpaces(labelSpan.Text())) {
				return true
			}

			valueSpan := li.Find("span.a-text:not(.a-text-bold)").First()
			if valueSpan.Length() == 0 {
				valueSpan = labelSpan.NextAllFiltered("span").First()
			}
			value = stripLeadingColons(CleanText(valueSpan.Text()))
			return value == ""
		})
		return value, value != ""
	}
}

// BulletContaining returns the text of the first detail bullet matching
// label, with the label prefix removed
func BulletContaining(label, prefix *regexp.Regexp) Strategy {
	return func(doc *goquery.Document) (string, bool) {
		var value string
		doc.Find("#detailBullets_feature_div li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
			text := NormalizeSpaces(li.Text())
			if !label.MatchString(text) {
				return true
			}
			value = CleanText(replaceFirst(prefix, text, ""))
			return false
		})
		return value, value != ""
	}
}

// LabelPattern builds the regex matching "label : value" up to the next
// newline or semicolon, capturing the value
func LabelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + label + `\s*[:\-]?\s*([^\n;]+)`)
}

// TextAfterLabel runs pattern over the visible text of the elements
// matched by scope and returns the first capture group
func TextAfterLabel(pattern *regexp.Regexp, scope string) Strategy {
	return func(doc *goquery.Document) (string, bool) {
		section := doc.Find(scope)
		if section.Length() == 0 {
			return "", false
		}
		return matchValue(pattern, VisibleText(section))
	}
}

// SectionTextAfterLabel tries pattern against each element matched by
// scope in turn, skipping sections that do not mention the label at all
func SectionTextAfterLabel(label, pattern *regexp.Regexp, scope string) Strategy {
	return func(doc *goquery.Document) (string, bool) {
		var value string
		doc.Find(scope).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := VisibleText(s)
			if !label.MatchString(text) {
				return true
			}
			v, ok := matchValue(pattern, text)
			value = v
			return !ok
		})
		return value, value != ""
	}
}

// BodyTextAfterLabel runs pattern over the visible text of the whole body
func BodyTextAfterLabel(pattern *regexp.Regexp) Strategy {
	return TextAfterLabel(pattern, "body")
}

func matchValue(pattern *regexp.Regexp, text string) (string, bool) {
	match := pattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return "", false
	}
	value := CleanText(match[1])
	return value, value != ""
}

// replaceFirst replaces the first match of re in s
func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
