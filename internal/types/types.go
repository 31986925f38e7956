package types

import (
	"context"
	"time"
)

// NotFound is returned by every field extractor when a value cannot be located
const NotFound = ""

// ProductRecord represents the attributes scraped from a single product page
type ProductRecord struct {
	Title         string `json:"title"`
	Price         string `json:"price"`
	Rating        string `json:"rating"`
	ReviewCount   string `json:"reviewCount"`
	DeliveringTo  string `json:"deliveringTo"`
	PackageVolume string `json:"packageVolume"`
	PackageWeight string `json:"packageWeight"`
	ProductVolume string `json:"productVolume"`
	ProductWeight string `json:"productWeight"`
	ShipsFrom     string `json:"shipsFrom"`
	SoldBy        string `json:"soldBy"`
	DeliveryDate  string `json:"deliveryDate"`
	Country       string `json:"country"`
}

// EmptyRecord returns a record with every field present but empty
func EmptyRecord() *ProductRecord {
	return &ProductRecord{}
}

// Config holds the configuration for the extractor
type Config struct {
	RequestDelay       time.Duration
	MaxRetries         int
	Timeout            time.Duration
	UseHeadlessBrowser bool
	UserAgent          string

	// PollInterval and WaitTimeout bound the wait for the title element
	PollInterval time.Duration
	WaitTimeout  time.Duration

	// TrimTimeout bounds the title-trimming round trip
	TrimTimeout time.Duration
	RelayURL    string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		RequestDelay:       1 * time.Second,
		MaxRetries:         0,
		Timeout:            30 * time.Second,
		UseHeadlessBrowser: false,
		UserAgent:          "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		PollInterval:       100 * time.Millisecond,
		WaitTimeout:        3000 * time.Millisecond,
		TrimTimeout:        5 * time.Second,
		RelayURL:           "http://localhost:8000",
	}
}

// MessageType enumerates the messages exchanged between the page session,
// the popup and the relay bridge
type MessageType string

const (
	MessageOpenPopup      MessageType = "OPEN_POPUP"
	MessageGetProductData MessageType = "GET_AMAZON_PRODUCT_DATA"
	MessageTrimTitle      MessageType = "TRIM_TITLE_WITH_OPENAI"
)

// Message is a request sent across contexts
type Message struct {
	Type  MessageType `json:"type"`
	Title string      `json:"title,omitempty"`
}

// Response is the reply to a Message. Only the field matching the
// message type is meaningful.
type Response struct {
	ProductData  *ProductRecord `json:"productData"`
	TrimmedTitle string         `json:"trimmedTitle,omitempty"`
}

// Messenger delivers a message to the session bound to a tab
type Messenger interface {
	Dispatch(ctx context.Context, tabID string, msg Message) (Response, error)
}

// TitleTrimmer shortens a product title
type TitleTrimmer interface {
	TrimTitle(ctx context.Context, title string) (string, error)
}

// PopupOpener shows the popup panel for a tab
type PopupOpener interface {
	OpenPopup(ctx context.Context, tabID string) error
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
