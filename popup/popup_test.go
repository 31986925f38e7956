package popup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ecoshelf-extractor/internal/types"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTabs struct {
	urls     map[string]string
	record   *types.ProductRecord
	err      error
	requests []types.Message
}

func (f *fakeTabs) TabURL(tabID string) (string, bool) {
	u, ok := f.urls[tabID]
	return u, ok
}

func (f *fakeTabs) Dispatch(_ context.Context, _ string, msg types.Message) (types.Response, error) {
	f.requests = append(f.requests, msg)
	if f.err != nil {
		return types.Response{}, f.err
	}
	return types.Response{ProductData: f.record}, nil
}

func quiet(t *testing.T) {
	t.Helper()
	pterm.DisableOutput()
	t.Cleanup(pterm.EnableOutput)
}

func newTestPopup(tabs *fakeTabs, opts ...Option) *Popup {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(tabs, logger, opts...)
}

func sampleRecord() *types.ProductRecord {
	return &types.ProductRecord{
		Title:       "iPhone 15 Pro Max",
		Price:       "$1,199.00",
		Rating:      "4.6",
		ReviewCount: "12345",
		ShipsFrom:   "Amazon.com",
	}
}

func TestIsSupportedHost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"www.amazon.com", true},
		{"WWW.EBAY.CO.UK", true},
		{"www.walmart.com", true},
		{"www.flipkart.com", true},
		{"example.org", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSupportedHost(tt.host))
		})
	}
}

func TestRows_NotFound(t *testing.T) {
	rows := Rows(sampleRecord())

	require.Len(t, rows, 13)
	assert.Equal(t, []string{"Title", "iPhone 15 Pro Max"}, rows[0])
	assert.Equal(t, []string{"Delivering To", NotFoundLabel}, rows[4])
	assert.Equal(t, []string{"Country of Origin", NotFoundLabel}, rows[12])
}

func TestOpenPopup_States(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		record   *types.ProductRecord
		expected State
		loads    bool
	}{
		{"unsupported store", "https://example.org/item/1", sampleRecord(), StateUnsupported, false},
		{"supported store, not a product", "https://www.amazon.com/s?k=phone", sampleRecord(), StateIdle, false},
		{"product without data", "https://www.amazon.com/dp/B0CHX1W1XY", nil, StateNoData, true},
		{"product", "https://www.amazon.com/dp/B0CHX1W1XY", sampleRecord(), StateProduct, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiet(t)
			tabs := &fakeTabs{urls: map[string]string{"tab-1": tt.url}, record: tt.record}
			p := newTestPopup(tabs)

			require.NoError(t, p.OpenPopup(context.Background(), "tab-1"))
			assert.Equal(t, tt.expected, p.LastState())

			if tt.loads {
				require.Len(t, tabs.requests, 1)
				assert.Equal(t, types.MessageGetProductData, tabs.requests[0].Type)
			} else {
				assert.Empty(t, tabs.requests)
			}
		})
	}
}

func TestOpenPopup_JSON(t *testing.T) {
	quiet(t)
	var buf bytes.Buffer
	tabs := &fakeTabs{
		urls:   map[string]string{"tab-1": "https://www.amazon.com/dp/B0CHX1W1XY"},
		record: sampleRecord(),
	}
	p := newTestPopup(tabs, WithJSON(), WithWriter(&buf))

	require.NoError(t, p.OpenPopup(context.Background(), "tab-1"))

	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "iPhone 15 Pro Max", got["title"])
	assert.Equal(t, "12345", got["reviewCount"])
	assert.Contains(t, got, "country")
	assert.Equal(t, "", got["country"])
}

func TestOpenPopup_Errors(t *testing.T) {
	quiet(t)

	p := newTestPopup(&fakeTabs{urls: map[string]string{}})
	assert.Error(t, p.OpenPopup(context.Background(), "missing"))

	failing := &fakeTabs{
		urls: map[string]string{"tab-1": "https://www.amazon.com/dp/B0CHX1W1XY"},
		err:  errors.New("tab closed"),
	}
	p = newTestPopup(failing)
	assert.Error(t, p.OpenPopup(context.Background(), "tab-1"))
}

func TestRender(t *testing.T) {
	quiet(t)
	assert.NoError(t, Render(sampleRecord()))
}

func TestOpenPopup_JSONKeepsStatusOffOutput(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		record   *types.ProductRecord
		expected string
	}{
		{"unsupported store", "https://example.org/item/1", sampleRecord(), "example.org is not a supported store"},
		{"not a product", "https://www.amazon.com/s?k=phone", sampleRecord(), "Open a product page on www.amazon.com"},
		{"no data", "https://www.amazon.com/dp/B0CHX1W1XY", nil, "No product data available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			tabs := &fakeTabs{urls: map[string]string{"tab-1": tt.url}, record: tt.record}
			p := newTestPopup(tabs, WithJSON(), WithWriter(&out), WithErrWriter(&errOut))

			require.NoError(t, p.OpenPopup(context.Background(), "tab-1"))
			assert.Empty(t, out.String())
			assert.Contains(t, errOut.String(), tt.expected)
		})
	}
}

func TestOpenPopup_TableUsesWriter(t *testing.T) {
	var out bytes.Buffer
	tabs := &fakeTabs{
		urls:   map[string]string{"tab-1": "https://www.amazon.com/dp/B0CHX1W1XY"},
		record: sampleRecord(),
	}
	p := newTestPopup(tabs, WithWriter(&out))

	require.NoError(t, p.OpenPopup(context.Background(), "tab-1"))
	assert.Contains(t, out.String(), "iPhone 15 Pro Max")
	assert.Contains(t, out.String(), NotFoundLabel)
}
