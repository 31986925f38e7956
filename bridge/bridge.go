// Package bridge routes messages between page sessions, the popup and the
// title-trimming relay.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ecoshelf-extractor/adapters"
	"ecoshelf-extractor/extractor"
	"ecoshelf-extractor/internal/types"
	"ecoshelf-extractor/utils"
)

var (
	// ErrUnknownMessage is returned for message types the bridge does not handle
	ErrUnknownMessage = errors.New("unknown message type")

	// ErrNoPopup is returned when OPEN_POPUP arrives before a popup is registered
	ErrNoPopup = errors.New("no popup registered")
)

// trimTitlePath is the relay endpoint title-trimming requests are posted to
const trimTitlePath = "/api/trim-title"

type trimRequest struct {
	Title string `json:"title"`
}

type trimResponse struct {
	TrimmedTitle *string `json:"trimmedTitle"`
}

// session is the per-tab state that lives as long as the page does
type session struct {
	page      adapters.Page
	extractor *extractor.AmazonExtractor
}

// Bridge keeps one session per open tab and dispatches messages to them
type Bridge struct {
	adapter *adapters.AmazonAdapter
	client  *utils.HTTPClient
	config  *types.Config
	logger  types.Logger

	noTrim bool

	mu       sync.RWMutex
	sessions map[string]*session
	popup    types.PopupOpener
}

// Option configures a Bridge
type Option func(*Bridge)

// WithoutTrimming keeps scraped titles as they are instead of relaying them
func WithoutTrimming() Option {
	return func(b *Bridge) { b.noTrim = true }
}

// New creates a bridge that posts trim requests through the adapter's HTTP client
func New(adapter *adapters.AmazonAdapter, logger types.Logger, opts ...Option) *Bridge {
	b := &Bridge{
		adapter:  adapter,
		client:   adapter.HTTPClient(),
		config:   adapter.Config(),
		logger:   logger,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetPopup registers the popup that OPEN_POPUP messages are delivered to
func (b *Bridge) SetPopup(popup types.PopupOpener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.popup = popup
}

// OpenTab binds page to tabID and starts collecting its product data. On
// product pages the popup is opened straight away.
func (b *Bridge) OpenTab(ctx context.Context, tabID string, page adapters.Page) error {
	var trimmer types.TitleTrimmer
	if !b.noTrim {
		trimmer = TitleTrimmerFunc(func(ctx context.Context, title string) (string, error) {
			resp, err := b.Dispatch(ctx, tabID, types.Message{Type: types.MessageTrimTitle, Title: title})
			if err != nil {
				return "", err
			}
			return resp.TrimmedTitle, nil
		})
	}

	s := &session{
		page:      page,
		extractor: extractor.NewAmazonExtractor(b.adapter, page, trimmer, b.logger),
	}

	b.mu.Lock()
	if _, exists := b.sessions[tabID]; exists {
		b.mu.Unlock()
		return fmt.Errorf("tab %s is already open", tabID)
	}
	b.sessions[tabID] = s
	b.mu.Unlock()

	s.extractor.Start(context.WithoutCancel(ctx))
	b.logger.Debugf("Opened tab %s for %s", tabID, page.URL())

	if adapters.IsProductPage(page.URL()) {
		if _, err := b.Dispatch(ctx, tabID, types.Message{Type: types.MessageOpenPopup}); err != nil {
			b.CloseTab(tabID)
			return fmt.Errorf("failed to open popup: %w", err)
		}
	}
	return nil
}

// CloseTab discards the session bound to tabID
func (b *Bridge) CloseTab(tabID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, tabID)
}

// TabURL returns the URL of the page open in tabID
func (b *Bridge) TabURL(tabID string) (string, bool) {
	s, ok := b.session(tabID)
	if !ok {
		return "", false
	}
	return s.page.URL(), true
}

func (b *Bridge) session(tabID string) (*session, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.sessions[tabID]
	return s, ok
}

// Dispatch handles msg on behalf of tabID
func (b *Bridge) Dispatch(ctx context.Context, tabID string, msg types.Message) (types.Response, error) {
	switch msg.Type {
	case types.MessageGetProductData:
		return b.productData(ctx, tabID)
	case types.MessageOpenPopup:
		return types.Response{}, b.openPopup(ctx, tabID)
	case types.MessageTrimTitle:
		return types.Response{TrimmedTitle: b.trimTitle(ctx, msg.Title)}, nil
	default:
		return types.Response{}, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
}

func (b *Bridge) productData(ctx context.Context, tabID string) (types.Response, error) {
	s, ok := b.session(tabID)
	if !ok {
		return types.Response{ProductData: nil}, nil
	}

	if record, ok := s.extractor.Cached(); ok {
		return types.Response{ProductData: record}, nil
	}

	record, err := s.extractor.Get(ctx)
	if err != nil {
		return types.Response{}, err
	}
	return types.Response{ProductData: record}, nil
}

func (b *Bridge) openPopup(ctx context.Context, tabID string) error {
	b.mu.RLock()
	popup := b.popup
	b.mu.RUnlock()

	if popup == nil {
		return ErrNoPopup
	}
	return popup.OpenPopup(ctx, tabID)
}

// trimTitle relays title to the trim endpoint, returning title itself if
// the relay cannot be reached, answers with an error status or times out
func (b *Bridge) trimTitle(ctx context.Context, title string) string {
	if title == "" {
		b.logger.Warn("No title provided for trimming")
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.TrimTimeout)
	defer cancel()

	endpoint := strings.TrimRight(b.config.RelayURL, "/") + trimTitlePath

	var resp trimResponse
	if err := b.client.PostJSON(ctx, endpoint, trimRequest{Title: title}, &resp); err != nil {
		b.logger.Warnf("Trim relay call failed: %v", err)
		return title
	}

	if resp.TrimmedTitle == nil {
		return title
	}
	b.logger.Debugf("Trimmed title %q to %q", title, *resp.TrimmedTitle)
	return *resp.TrimmedTitle
}

// TitleTrimmerFunc adapts a function to types.TitleTrimmer
type TitleTrimmerFunc func(ctx context.Context, title string) (string, error)

// TrimTitle calls f
func (f TitleTrimmerFunc) TrimTitle(ctx context.Context, title string) (string, error) {
	return f(ctx, title)
}
