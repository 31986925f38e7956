// Package popup renders product data the way the extension popup shows it.
package popup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"ecoshelf-extractor/adapters"
	"ecoshelf-extractor/internal/types"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
)

// NotFoundLabel is shown for fields the page did not provide
const NotFoundLabel = "Not Found"

// SupportedKeywords are host fragments of the stores the popup recognizes
var SupportedKeywords = []string{
	"amazon", "ebay", "walmart", "target", "bestbuy", "newegg", "etsy",
	"wayfair", "aliexpress", "overstock", "costco", "samsclub", "homedepot",
	"lowes", "macys", "kohls", "nordstrom", "flipkart", "jd", "rakuten",
}

// Tabs is what the popup needs from the bridge
type Tabs interface {
	types.Messenger
	TabURL(tabID string) (string, bool)
}

// State is what the popup ended up showing
type State string

const (
	StateUnsupported State = "unsupported"
	StateIdle        State = "idle"
	StateNoData      State = "no_data"
	StateProduct     State = "product"
)

// Popup shows the product panel for a tab
type Popup struct {
	tabs        Tabs
	output      string
	out         io.Writer
	errOut      io.Writer
	interactive bool
	logger      types.Logger

	last State
}

// Option configures a Popup
type Option func(*Popup)

// WithJSON prints the record as JSON instead of a table
func WithJSON() Option {
	return func(p *Popup) { p.output = "json" }
}

// WithWriter sets where the table or JSON output goes
func WithWriter(w io.Writer) Option {
	return func(p *Popup) { p.out = w }
}

// WithErrWriter sets where status panels go in JSON mode
func WithErrWriter(w io.Writer) Option {
	return func(p *Popup) { p.errOut = w }
}

// WithSpinner shows a spinner while product data loads
func WithSpinner() Option {
	return func(p *Popup) { p.interactive = true }
}

// New creates a popup bound to tabs
func New(tabs Tabs, logger types.Logger, opts ...Option) *Popup {
	p := &Popup{
		tabs:   tabs,
		out:    os.Stdout,
		errOut: os.Stderr,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LastState returns what the most recent OpenPopup displayed
func (p *Popup) LastState() State {
	return p.last
}

// IsSupportedHost reports whether host belongs to a recognized store
func IsSupportedHost(host string) bool {
	host = strings.ToLower(host)
	return lo.ContainsBy(SupportedKeywords, func(keyword string) bool {
		return strings.Contains(host, keyword)
	})
}

// OpenPopup shows the panel for the page open in tabID
func (p *Popup) OpenPopup(ctx context.Context, tabID string) error {
	rawURL, ok := p.tabs.TabURL(tabID)
	if !ok {
		return fmt.Errorf("tab %s is not open", tabID)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid tab URL %q: %w", rawURL, err)
	}
	host := strings.ToLower(u.Hostname())

	if !IsSupportedHost(host) {
		p.last = StateUnsupported
		pterm.Warning.WithWriter(p.status()).Printfln("%s is not a supported store", host)
		return nil
	}

	if !adapters.IsProductPage(rawURL) {
		p.last = StateIdle
		pterm.Info.WithWriter(p.status()).Printfln("Open a product page on %s to see its details", host)
		return nil
	}

	record, err := p.load(ctx, tabID)
	if err != nil {
		return err
	}
	if record == nil {
		p.last = StateNoData
		pterm.Warning.WithWriter(p.status()).Println("No product data available for this page")
		return nil
	}

	p.last = StateProduct
	if p.output == "json" {
		return p.printJSON(record)
	}
	return RenderTo(p.out, record)
}

// status is where state panels go; JSON output keeps stdout clean
func (p *Popup) status() io.Writer {
	if p.output == "json" {
		return p.errOut
	}
	return p.out
}

func (p *Popup) load(ctx context.Context, tabID string) (*types.ProductRecord, error) {
	var spinner *pterm.SpinnerPrinter
	if p.interactive {
		spinner, _ = pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Loading product data...")
	}

	resp, err := p.tabs.Dispatch(ctx, tabID, types.Message{Type: types.MessageGetProductData})

	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product data: %w", err)
	}
	return resp.ProductData, nil
}

func (p *Popup) printJSON(record *types.ProductRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal product data: %w", err)
	}
	_, err = fmt.Fprintln(p.out, string(data))
	return err
}

// Rows lists the record as property/value pairs in display order
func Rows(record *types.ProductRecord) [][]string {
	rows := [][]string{
		{"Title", record.Title},
		{"Price", record.Price},
		{"Rating", record.Rating},
		{"Reviews", record.ReviewCount},
		{"Delivering To", record.DeliveringTo},
		{"Delivery Date", record.DeliveryDate},
		{"Package Volume", record.PackageVolume},
		{"Package Weight", record.PackageWeight},
		{"Product Volume", record.ProductVolume},
		{"Product Weight", record.ProductWeight},
		{"Ships From", record.ShipsFrom},
		{"Sold By", record.SoldBy},
		{"Country of Origin", record.Country},
	}
	return lo.Map(rows, func(row []string, _ int) []string {
		if row[1] == types.NotFound {
			return []string{row[0], NotFoundLabel}
		}
		return row
	})
}

// Render prints record as a property/value table on stdout
func Render(record *types.ProductRecord) error {
	return RenderTo(os.Stdout, record)
}

// RenderTo prints record as a property/value table to w
func RenderTo(w io.Writer, record *types.ProductRecord) error {
	tableData := pterm.TableData{{"Property", "Value"}}
	tableData = append(tableData, Rows(record)...)
	return pterm.DefaultTable.WithHasHeader().WithData(tableData).WithWriter(w).Render()
}
