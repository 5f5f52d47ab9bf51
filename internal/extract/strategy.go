package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Context window around the product id mention, in bytes. Mirrors the
// slice the panel renders a product's own row/heading into.
const (
	windowBefore = 500
	windowAfter  = 300
)

// Page is one fetched body under extraction. The goquery document is
// built lazily and shared between strategies; malformed markup degrades
// to the regex paths instead of failing.
type Page struct {
	Body string
	ID   string

	doc    *goquery.Document
	docErr bool
}

// NewPage wraps a body for extraction. id may be empty for listing pages.
func NewPage(body, id string) *Page {
	return &Page{Body: body, ID: id}
}

// Doc returns the parsed document, or nil when the body does not parse.
func (p *Page) Doc() *goquery.Document {
	if p.doc == nil && !p.docErr {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.Body))
		if err != nil {
			p.docErr = true
			return nil
		}

		p.doc = doc
	}

	return p.doc
}

// Window returns the bounded slice of the body around the mention of the
// product id, and whether the id is mentioned at all.
func (p *Page) Window() (string, bool) {
	if p.ID == "" {
		return "", false
	}

	idx := strings.Index(p.Body, "control/detail/"+p.ID)
	if idx < 0 {
		return "", false
	}

	start := idx - windowBefore
	if start < 0 {
		start = 0
	}

	end := idx + windowAfter
	if end > len(p.Body) {
		end = len(p.Body)
	}

	return p.Body[start:end], true
}

// windowOrBody prefers the id window but falls back to the whole body,
// for detail pages that never spell the id out.
func (p *Page) windowOrBody() string {
	if window, ok := p.Window(); ok {
		return window
	}

	return p.Body
}

// Strategy is one tier of a ranked matcher cascade. Lower rank is more
// specific and tried first; the cascade stops at the first tier that
// yields a valid candidate.
type Strategy interface {
	Rank() int
	Label() string
	Extract(page *Page) []string
}

// ---- name strategies ----

var (
	nameLabelPattern     = regexp.MustCompile(`(?:产品名称|產品名稱|产品名|產品名|名称|名稱)[：:]\s*(\S[^<\n]*)`)
	containerTextPattern = regexp.MustCompile(`>([^<>]+)</(?:td|div|span|p|li)>`)
	emphasisTextPattern  = regexp.MustCompile(`<(?:b|strong|em)[^>]*>([^<>]+)<`)
	tableCellPattern     = regexp.MustCompile(`<td[^>]*>([^<]+)</td>`)
	titleAltAttrPattern  = regexp.MustCompile(`(?:title|alt)=["']([^"'<>]+)["']`)
)

// labelNameStrategy matches list items carrying the localized
// product-name label.
type labelNameStrategy struct{}

func (labelNameStrategy) Rank() int     { return 1 }
func (labelNameStrategy) Label() string { return "name-label" }

func (labelNameStrategy) Extract(page *Page) []string {
	var candidates []string

	if doc := page.Doc(); doc != nil {
		doc.Find("li, dt, dd").Each(func(_ int, sel *goquery.Selection) {
			if match := nameLabelPattern.FindStringSubmatch(sel.Text()); match != nil {
				candidates = append(candidates, match[1])
			}
		})

		if len(candidates) > 0 {
			return candidates
		}
	}

	for _, match := range nameLabelPattern.FindAllStringSubmatch(page.Body, -1) {
		candidates = append(candidates, match[1])
	}

	return candidates
}

// containerNameStrategy collects text confined to generic container
// tags near the id mention.
type containerNameStrategy struct{}

func (containerNameStrategy) Rank() int     { return 2 }
func (containerNameStrategy) Label() string { return "name-container" }

func (containerNameStrategy) Extract(page *Page) []string {
	var candidates []string

	for _, match := range containerTextPattern.FindAllStringSubmatch(page.windowOrBody(), -1) {
		candidates = append(candidates, match[1])
	}

	return candidates
}

// emphasisNameStrategy collects text in emphasis and heading tags.
type emphasisNameStrategy struct{}

func (emphasisNameStrategy) Rank() int     { return 3 }
func (emphasisNameStrategy) Label() string { return "name-emphasis" }

func (emphasisNameStrategy) Extract(page *Page) []string {
	var candidates []string

	if doc := page.Doc(); doc != nil {
		doc.Find("b, strong, em, h1, h2, h3, h4").Each(func(_ int, sel *goquery.Selection) {
			candidates = append(candidates, sel.Text())
		})

		return candidates
	}

	for _, match := range emphasisTextPattern.FindAllStringSubmatch(page.Body, -1) {
		candidates = append(candidates, match[1])
	}

	return candidates
}

// tableCellNameStrategy collects table cell contents.
type tableCellNameStrategy struct{}

func (tableCellNameStrategy) Rank() int     { return 4 }
func (tableCellNameStrategy) Label() string { return "name-table-cell" }

func (tableCellNameStrategy) Extract(page *Page) []string {
	var candidates []string

	if doc := page.Doc(); doc != nil {
		doc.Find("td").Each(func(_ int, sel *goquery.Selection) {
			candidates = append(candidates, sel.Text())
		})

		return candidates
	}

	for _, match := range tableCellPattern.FindAllStringSubmatch(page.Body, -1) {
		candidates = append(candidates, match[1])
	}

	return candidates
}

// attrNameStrategy collects title and alt attribute values near the id
// mention.
type attrNameStrategy struct{}

func (attrNameStrategy) Rank() int     { return 5 }
func (attrNameStrategy) Label() string { return "name-attr" }

func (attrNameStrategy) Extract(page *Page) []string {
	var candidates []string

	for _, match := range titleAltAttrPattern.FindAllStringSubmatch(page.windowOrBody(), -1) {
		candidates = append(candidates, match[1])
	}

	return candidates
}

// ---- expiry strategies ----

var expiryLabelPattern = regexp.MustCompile(
	`(?:到期时间|到期時間|过期时间|過期時間|有效期至|截止时间|截止時間|[Ee]xpiry)[：:]?\s*(` + dateTokenAlternatives + `)`)

// labelDateStrategy matches a date token adjacent to a localized expiry
// label.
type labelDateStrategy struct{}

func (labelDateStrategy) Rank() int     { return 1 }
func (labelDateStrategy) Label() string { return "expiry-label" }

func (labelDateStrategy) Extract(page *Page) []string {
	var candidates []string

	for _, match := range expiryLabelPattern.FindAllStringSubmatch(page.Body, -1) {
		candidates = append(candidates, match[1])
	}

	return candidates
}

// tableDateStrategy matches date tokens confined to table cells.
type tableDateStrategy struct{}

func (tableDateStrategy) Rank() int     { return 2 }
func (tableDateStrategy) Label() string { return "expiry-table-cell" }

func (tableDateStrategy) Extract(page *Page) []string {
	var candidates []string

	if doc := page.Doc(); doc != nil {
		doc.Find("td").Each(func(_ int, sel *goquery.Selection) {
			candidates = append(candidates, findDateTokens(sel.Text())...)
		})

		return candidates
	}

	for _, match := range tableCellPattern.FindAllStringSubmatch(page.Body, -1) {
		candidates = append(candidates, findDateTokens(match[1])...)
	}

	return candidates
}

// idWindowDateStrategy matches any date token inside the bounded window
// around the id mention. Unlike the name tiers this one requires the
// mention: a date far from the product's own markup proves nothing.
type idWindowDateStrategy struct{}

func (idWindowDateStrategy) Rank() int     { return 3 }
func (idWindowDateStrategy) Label() string { return "expiry-id-window" }

func (idWindowDateStrategy) Extract(page *Page) []string {
	window, ok := page.Window()
	if !ok {
		return nil
	}

	return findDateTokens(window)
}
