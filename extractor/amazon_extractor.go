package extractor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ecoshelf-extractor/adapters"
	"ecoshelf-extractor/internal/types"

	"github.com/PuerkitoBio/goquery"
)

// AmazonExtractor collects the product record of a single page. The record
// is computed at most once; every caller shares that computation.
type AmazonExtractor struct {
	adapter *adapters.AmazonAdapter
	page    adapters.Page
	trimmer types.TitleTrimmer
	config  *types.Config
	logger  types.Logger

	once   sync.Once
	done   chan struct{}
	record *types.ProductRecord
}

// NewAmazonExtractor creates a collector for page. trimmer may be nil, in
// which case titles are kept as scraped.
func NewAmazonExtractor(adapter *adapters.AmazonAdapter, page adapters.Page, trimmer types.TitleTrimmer, logger types.Logger) *AmazonExtractor {
	return &AmazonExtractor{
		adapter: adapter,
		page:    page,
		trimmer: trimmer,
		config:  adapter.Config(),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start begins collection in the background. Calls after the first are no-ops.
func (e *AmazonExtractor) Start(ctx context.Context) {
	e.once.Do(func() {
		go e.run(ctx)
	})
}

// Get returns the product record, starting collection if needed and
// waiting for it to complete
func (e *AmazonExtractor) Get(ctx context.Context) (*types.ProductRecord, error) {
	e.Start(context.WithoutCancel(ctx))

	select {
	case <-e.done:
		return e.record, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cached returns the record if collection has already finished
func (e *AmazonExtractor) Cached() (*types.ProductRecord, bool) {
	select {
	case <-e.done:
		return e.record, true
	default:
		return nil, false
	}
}

// Done is closed once the record is available
func (e *AmazonExtractor) Done() <-chan struct{} {
	return e.done
}

func (e *AmazonExtractor) run(ctx context.Context) {
	startTime := time.Now()
	defer close(e.done)

	record, err := e.collect(ctx)
	if err != nil {
		e.logger.Warnf("Collection failed for %s: %v", e.page.URL(), err)
		record = types.EmptyRecord()
	}
	e.record = record

	e.logger.Infof("Collected %s product data for %s in %v", e.adapter.GetStoreName(), e.page.URL(), time.Since(startTime))
}

func (e *AmazonExtractor) collect(ctx context.Context) (record *types.ProductRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			record, err = nil, fmt.Errorf("panic during collection: %v", r)
		}
	}()

	doc, err := e.waitForTitle(ctx)
	if err != nil {
		return nil, err
	}

	title := e.trimTitle(ctx, e.adapter.Title(doc))

	return &types.ProductRecord{
		Title:         title,
		Price:         e.adapter.Price(doc),
		Rating:        e.adapter.Rating(doc),
		ReviewCount:   e.adapter.ReviewCount(doc),
		DeliveringTo:  e.adapter.DeliveringTo(doc),
		PackageVolume: e.adapter.PackageVolume(doc),
		PackageWeight: e.adapter.PackageWeight(doc),
		ProductVolume: e.adapter.ProductVolume(doc),
		ProductWeight: e.adapter.ProductWeight(doc),
		ShipsFrom:     e.adapter.ShipsFrom(doc),
		SoldBy:        e.adapter.SoldBy(doc),
		DeliveryDate:  e.adapter.DeliveryDate(doc),
		Country:       e.adapter.Country(doc),
	}, nil
}

// waitForTitle polls the page until the title element appears or the wait
// timeout elapses, and returns the last good snapshot either way. Failed
// snapshots are retried on the next tick.
func (e *AmazonExtractor) waitForTitle(ctx context.Context) (*goquery.Document, error) {
	waitCtx, cancel := context.WithTimeout(ctx, e.config.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	var last *goquery.Document
	var lastErr error
	for {
		doc, err := e.page.Snapshot(waitCtx)
		switch {
		case err == nil:
			last = doc
			if e.adapter.HasTitle(doc) {
				return doc, nil
			}
		case waitCtx.Err() == nil:
			lastErr = err
			e.logger.Debugf("Snapshot of %s failed, retrying: %v", e.page.URL(), err)
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Debugf("Title element did not appear within %v on %s", e.config.WaitTimeout, e.page.URL())
			if last != nil {
				return last, nil
			}

			doc, err := e.page.Snapshot(ctx)
			if err != nil {
				if lastErr != nil {
					return nil, fmt.Errorf("%w (earlier snapshot error: %v)", err, lastErr)
				}
				return nil, err
			}
			return doc, nil
		}
	}
}

// trimTitle asks the trimmer for a short title, keeping raw on timeout,
// error or an empty reply
func (e *AmazonExtractor) trimTitle(ctx context.Context, raw string) string {
	if e.trimmer == nil || raw == "" {
		return raw
	}

	trimCtx, cancel := context.WithTimeout(ctx, e.config.TrimTimeout)
	defer cancel()

	result := make(chan string, 1)
	go func() {
		trimmed, err := e.trimmer.TrimTitle(trimCtx, raw)
		if err != nil {
			e.logger.Warnf("Title trimming failed, using original title: %v", err)
			trimmed = ""
		}
		result <- trimmed
	}()

	select {
	case trimmed := <-result:
		if trimmed == "" {
			return raw
		}
		return trimmed
	case <-trimCtx.Done():
		e.logger.Warnf("Title trimming timed out after %v, using original title", e.config.TrimTimeout)
		return raw
	}
}
