package adapters

import (
	"regexp"
	"strings"

	"ecoshelf-extractor/internal/types"

	"github.com/PuerkitoBio/goquery"
)

// TitleSelector marks a rendered product page
const TitleSelector = "#productTitle"

var detailTableRows = []string{
	"#productDetails_techSpec_section_1 tr",
	"#productDetails_detailBullets_sections1 tr",
	".prodDetTable tr",
}

var (
	packageDimensionsLabel = regexp.MustCompile(`(?i)package\s*dimensions`)
	productDimensionsLabel = regexp.MustCompile(`(?i)product\s*dimensions`)
	packageWeightLabel     = regexp.MustCompile(`(?i)package\s*weight`)
	itemWeightLabel        = regexp.MustCompile(`(?i)item\s*weight`)
	countryOfOriginLabel   = regexp.MustCompile(`(?i)country\s*of\s*origin`)
	shipsFromLabel         = regexp.MustCompile(`(?i)ships from`)
	shipsFromPrefix        = regexp.MustCompile(`(?i)Ships from:`)
	soldByLabel            = regexp.MustCompile(`(?i)sold by`)
	soldByPrefix           = regexp.MustCompile(`(?i)Sold by:`)

	packageDimensionsPattern = LabelPattern(`package\s*dimensions`)
	productDimensionsPattern = LabelPattern(`product\s*dimensions`)
	packageWeightPattern     = LabelPattern(`package\s*weight`)
	shippingWeightPattern    = LabelPattern(`shipping\s*weight`)
	itemWeightPattern        = LabelPattern(`item\s*weight`)
	countryOfOriginPattern   = LabelPattern(`country\s*of\s*origin`)

	outOfFive    = regexp.MustCompile(`([\d.]+)\s*out of\s*5`)
	notDigits    = regexp.MustCompile(`[^\d,]`)
	deliveryDate = regexp.MustCompile(`(?i)\b(?:Mon(?:day)?|Tue(?:sday)?|Wed(?:nesday)?|Thu(?:rsday)?|Fri(?:day)?|Sat(?:urday)?|Sun(?:day)?)[\s,.-]+(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)[\s.,-]*(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*\d{4})?`)
)

// AmazonAdapter extracts product attributes from Amazon product pages.
// Every extractor returns types.NotFound when its value is absent.
type AmazonAdapter struct {
	*BaseAdapter
}

// NewAmazonAdapter creates a new Amazon adapter
func NewAmazonAdapter(config *types.Config, logger types.Logger) *AmazonAdapter {
	return &AmazonAdapter{
		BaseAdapter: NewBaseAdapter(config, logger),
	}
}

// GetStoreName returns the store name
func (a *AmazonAdapter) GetStoreName() string {
	return "amazon"
}

// HasTitle reports whether the title element has rendered
func (a *AmazonAdapter) HasTitle(doc *goquery.Document) bool {
	return doc != nil && doc.Find(TitleSelector).Length() > 0
}

// Title returns the raw, untrimmed product title
func (a *AmazonAdapter) Title(doc *goquery.Document) string {
	return FirstMatch(doc, FirstText(TitleSelector))
}

// Price returns the displayed price including its currency symbol
func (a *AmazonAdapter) Price(doc *goquery.Document) string {
	return FirstMatch(doc, FirstText(
		"#priceblock_ourprice",
		"#priceblock_dealprice",
		"#priceblock_saleprice",
		".a-price .a-offscreen",
		"[data-a-color='price'] .a-offscreen",
		".apexPriceToPay .a-offscreen",
	))
}

// Rating returns the average star rating, e.g. "4.5"
func (a *AmazonAdapter) Rating(doc *goquery.Document) string {
	return FirstMatch(doc, FirstTextWith(func(text string) (string, bool) {
		// Usually like "4.5 out of 5 stars"
		if match := outOfFive.FindStringSubmatch(text); match != nil {
			return match[1], true
		}
		return text, true
	},
		"span[data-asin][data-attr='averageRating']",
		"span[data-asin][data-attr='starRating']",
		"span.a-icon-alt",
		"#acrPopover .a-icon-alt",
	))
}

// ReviewCount returns the number of ratings without thousands separators
func (a *AmazonAdapter) ReviewCount(doc *goquery.Document) string {
	return FirstMatch(doc, FirstTextWith(func(text string) (string, bool) {
		// Usually like "1,234 ratings"
		if digits := strings.ReplaceAll(notDigits.ReplaceAllString(text, ""), ",", ""); digits != "" {
			return digits, true
		}
		return text, true
	},
		"#acrCustomerReviewText",
		"#acrCustomerWriteReviewText",
		"span[data-asin][data-attr='reviewCount']",
		"#reviewSummary .a-size-base",
	))
}

// DeliveringTo returns the "Deliver to" location
func (a *AmazonAdapter) DeliveringTo(doc *goquery.Document) string {
	return FirstMatch(doc, FirstTextWith(func(text string) (string, bool) {
		return CleanText(text), true
	},
		"#contextualIngressPtLabel_deliveryShortLine",
		"#contextualIngressPtLabel",
		"#glow-ingress-line2",
		"#deliveryMessageMirId",
	))
}

// PackageVolume returns the package dimensions
func (a *AmazonAdapter) PackageVolume(doc *goquery.Document) string {
	return a.dimensions(doc, packageDimensionsLabel, packageDimensionsPattern)
}

// ProductVolume returns the product dimensions
func (a *AmazonAdapter) ProductVolume(doc *goquery.Document) string {
	return a.dimensions(doc, productDimensionsLabel, productDimensionsPattern)
}

func (a *AmazonAdapter) dimensions(doc *goquery.Document, label, pattern *regexp.Regexp) string {
	return FirstMatch(doc,
		LabeledRowValue(label, detailTableRows...),
		LabeledBulletValue(label),
		TextAfterLabel(pattern, "#prodDetails"),
		// responsive layout
		SectionTextAfterLabel(label, pattern, "#prodDetails .a-section"),
		BodyTextAfterLabel(pattern),
	)
}

// PackageWeight returns the package weight, falling back to the shipping weight
func (a *AmazonAdapter) PackageWeight(doc *goquery.Document) string {
	return FirstMatch(doc,
		LabeledRowValue(packageWeightLabel, detailTableRows[:2]...),
		BodyTextAfterLabel(packageWeightPattern),
		BodyTextAfterLabel(shippingWeightPattern),
	)
}

// ProductWeight returns the item weight
func (a *AmazonAdapter) ProductWeight(doc *goquery.Document) string {
	return FirstMatch(doc,
		LabeledRowValue(itemWeightLabel, detailTableRows...),
		LabeledBulletValue(itemWeightLabel),
		BodyTextAfterLabel(itemWeightPattern),
	)
}

// Country returns the country of origin
func (a *AmazonAdapter) Country(doc *goquery.Document) string {
	return FirstMatch(doc,
		LabeledRowValue(countryOfOriginLabel, detailTableRows...),
		LabeledBulletValue(countryOfOriginLabel),
		BodyTextAfterLabel(countryOfOriginPattern),
	)
}

// ShipsFrom returns who ships the item
func (a *AmazonAdapter) ShipsFrom(doc *goquery.Document) string {
	return FirstMatch(doc,
		buyboxValue(shipsFromLabel, shipsFromPrefix,
			"#tabular-buybox-truncate-1 span.tabular-buybox-text",
			"#shipsFromSoldBy_feature_div .tabular-buybox-text",
			"#merchant-info",
		),
		BulletContaining(shipsFromLabel, shipsFromPrefix),
	)
}

// SoldBy returns the seller
func (a *AmazonAdapter) SoldBy(doc *goquery.Document) string {
	return FirstMatch(doc,
		buyboxValue(soldByLabel, soldByPrefix,
			"#tabular-buybox-truncate-2 span.tabular-buybox-text",
			"#shipsFromSoldBy_feature_div .tabular-buybox-text",
			"#merchant-info",
		),
		BulletContaining(soldByLabel, soldByPrefix),
	)
}

// DeliveryDate returns the first delivery date mentioned in the delivery block
func (a *AmazonAdapter) DeliveryDate(doc *goquery.Document) string {
	return FirstMatch(doc, FirstTextWith(func(text string) (string, bool) {
		match := deliveryDate.FindString(NormalizeSpaces(text))
		return strings.TrimSpace(match), match != ""
	},
		"#deliveryMessageMirId span.a-text-bold",
		"#deliveryMessageMirId",
		"#ddmDeliveryMessage",
		"#mir-layout-DELIVERY_BLOCK span",
	))
}

// buyboxValue accepts the first buybox element that mentions label and
// strips the label prefix from its text
func buyboxValue(label, prefix *regexp.Regexp, selectors ...string) Strategy {
	return FirstTextWith(func(text string) (string, bool) {
		text = NormalizeSpaces(text)
		if !label.MatchString(text) {
			return "", false
		}
		value := CleanText(replaceFirst(prefix, text, ""))
		return value, value != ""
	}, selectors...)
}
