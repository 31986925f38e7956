package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"ecoshelf-extractor/internal/types"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// BrowserClient provides headless browser functionality
type BrowserClient struct {
	config *types.Config
	logger types.Logger
}

// NewBrowserClient creates a new browser client
func NewBrowserClient(config *types.Config, logger types.Logger) *BrowserClient {
	// Suppress chromedp debug logging
	log.SetOutput(io.Discard)

	return &BrowserClient{
		config: config,
		logger: logger,
	}
}

func (b *BrowserClient) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if b.config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.config.UserAgent))
	}
	return opts
}

// OpenPage navigates a new tab to url and keeps it open. Every Snapshot
// re-reads the live DOM, so elements rendered after load become visible
// to later snapshots.
func (b *BrowserClient) OpenPage(ctx context.Context, url string) (*BrowserPage, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), b.allocatorOptions()...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	navCtx, navCancel := context.WithTimeout(tabCtx, b.config.Timeout)
	defer navCancel()

	stop := context.AfterFunc(ctx, navCancel)
	defer stop()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	b.logger.Debugf("Opened browser page %s", url)
	return &BrowserPage{
		url:    url,
		tabCtx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
	}, nil
}

// BrowserPage is a live page held open in a headless browser tab
type BrowserPage struct {
	url    string
	tabCtx context.Context

	closeOnce sync.Once
	cancel    func()
}

// URL returns the address the page was opened at
func (p *BrowserPage) URL() string {
	return p.url
}

// Snapshot parses the current DOM of the page
func (p *BrowserPage) Snapshot(ctx context.Context) (*goquery.Document, error) {
	html, err := p.outerHTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot %s: %w", p.url, err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (p *BrowserPage) outerHTML(ctx context.Context) (string, error) {
	runCtx, cancel := context.WithCancel(p.tabCtx)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Close shuts the tab and its browser down
func (p *BrowserPage) Close() {
	p.closeOnce.Do(p.cancel)
}
