package adapters

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a product page the extractors read from. Snapshot returns the
// document as it currently stands; live pages may change between calls.
type Page interface {
	URL() string
	Snapshot(ctx context.Context) (*goquery.Document, error)
}

// StaticPage is a page whose document never changes, such as HTML fetched
// over plain HTTP
type StaticPage struct {
	url string
	doc *goquery.Document
}

// NewStaticPage wraps an already parsed document
func NewStaticPage(pageURL string, doc *goquery.Document) *StaticPage {
	return &StaticPage{url: pageURL, doc: doc}
}

// NewStaticPageFromHTML parses html into a StaticPage
func NewStaticPageFromHTML(pageURL, html string) (*StaticPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return NewStaticPage(pageURL, doc), nil
}

// URL returns the page address
func (p *StaticPage) URL() string {
	return p.url
}

// Snapshot returns the parsed document
func (p *StaticPage) Snapshot(_ context.Context) (*goquery.Document, error) {
	return p.doc, nil
}

// IsProductPage reports whether rawURL points at an Amazon product detail page
func IsProductPage(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	path := strings.ToLower(u.Path)
	return strings.Contains(host, "amazon.") &&
		(strings.Contains(path, "/dp/") || strings.Contains(path, "/gp/"))
}
