// Package extract turns semi-structured control panel markup into
// structured product facts via ranked heuristic pattern cascades. The
// panel offers no stable selectors, so every strategy here is tolerant:
// extraction degrades to placeholders, it never fails.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"arcrenew/internal/logger"
	"arcrenew/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// Listing page link patterns. The primary pass wants styled action
// buttons; the loose pass accepts any detail link because the panel's
// markup is observed to change without notice.
var (
	detailHrefPattern = regexp.MustCompile(`/control/detail/(\d+)/?$`)
	looseLinkPattern  = regexp.MustCompile(`/control/detail/(\d+)/?["'>]`)
)

// Extractor converts page bodies into Product fields.
type Extractor struct {
	rules            NameRules
	nameStrategies   []Strategy
	expiryStrategies []Strategy
	logger           *logger.Logger
}

// NewExtractor creates an extractor with the full strategy cascades.
func NewExtractor(rules NameRules, log *logger.Logger) *Extractor {
	e := &Extractor{
		rules: rules,
		nameStrategies: []Strategy{
			labelNameStrategy{},
			containerNameStrategy{},
			emphasisNameStrategy{},
			tableCellNameStrategy{},
			attrNameStrategy{},
		},
		expiryStrategies: []Strategy{
			labelDateStrategy{},
			tableDateStrategy{},
			idWindowDateStrategy{},
		},
		logger: log,
	}

	sort.SliceStable(e.nameStrategies, func(i, j int) bool {
		return e.nameStrategies[i].Rank() < e.nameStrategies[j].Rank()
	})
	sort.SliceStable(e.expiryStrategies, func(i, j int) bool {
		return e.expiryStrategies[i].Rank() < e.expiryStrategies[j].Rank()
	})

	return e
}

// FindProducts scans a listing body for product identities, deduplicated
// by id with the first-seen URL winning. Listing order carries no
// meaning; identity is keyed solely by id.
func (e *Extractor) FindProducts(listingBody, baseURL string) []models.Product {
	ids := e.findActionButtonIDs(listingBody)

	if len(ids) == 0 {
		// The styled button pass found nothing; fall back to any link
		// containing the detail path segment.
		for _, match := range looseLinkPattern.FindAllStringSubmatch(listingBody, -1) {
			ids = append(ids, match[1])
		}

		if len(ids) > 0 {
			e.logger.Debug("listing fallback pattern used", "ids", len(ids))
		}
	}

	seen := make(map[string]bool)

	var products []models.Product

	for _, id := range ids {
		if seen[id] {
			continue
		}

		seen[id] = true

		products = append(products, models.Product{
			ID:        id,
			Name:      models.PlaceholderName(id),
			ManageURL: manageURL(baseURL, id),
		})
	}

	return products
}

// findActionButtonIDs runs the primary listing pattern: anchors styled
// as action buttons whose target is a detail page.
func (e *Extractor) findActionButtonIDs(listingBody string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingBody))
	if err != nil {
		return nil
	}

	var ids []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		class := sel.AttrOr("class", "")
		if !strings.Contains(class, "btn") {
			return
		}

		href := sel.AttrOr("href", "")
		if match := detailHrefPattern.FindStringSubmatch(href); match != nil {
			ids = append(ids, match[1])
		}
	})

	return ids
}

// ExtractFields runs the name and expiry cascades over one detail body.
// Both cascades are independent; a miss in either degrades to the
// placeholder name or a nil expiry.
func (e *Extractor) ExtractFields(detailBody, id string) (string, *models.ExpiryDate) {
	page := NewPage(detailBody, id)

	name := e.extractName(page)
	if name == "" {
		name = models.PlaceholderName(id)
	}

	return name, e.extractExpiry(page)
}

// extractName walks the name cascade and applies the candidate selection
// policy within the first tier that yields a valid candidate.
func (e *Extractor) extractName(page *Page) string {
	for _, strategy := range e.nameStrategies {
		var valid []string

		for _, raw := range strategy.Extract(page) {
			candidate := normalizeWhitespace(raw)
			if e.rules.IsValid(candidate) {
				valid = append(valid, candidate)
			}
		}

		if len(valid) > 0 {
			e.logger.Debug("name candidate tier matched", "tier", strategy.Label(), "candidates", len(valid))

			return selectName(valid)
		}
	}

	return ""
}

// selectName picks one candidate from a single tier: native script wins,
// then the longest non-hostname candidate, then the first found.
func selectName(candidates []string) string {
	for _, c := range candidates {
		if hasNativeScript(c) {
			return c
		}
	}

	best := ""

	for _, c := range candidates {
		if looksLikeHostname(c) {
			continue
		}

		if len([]rune(c)) > len([]rune(best)) {
			best = c
		}
	}

	if best != "" {
		return best
	}

	return candidates[0]
}

// extractExpiry walks the expiry cascade and returns the first valid
// date from the first tier that yields one.
func (e *Extractor) extractExpiry(page *Page) *models.ExpiryDate {
	for _, strategy := range e.expiryStrategies {
		for _, token := range strategy.Extract(page) {
			if expiry, ok := ParseDate(strings.TrimSpace(token)); ok {
				e.logger.Debug("expiry tier matched", "tier", strategy.Label(), "raw", expiry.Raw)

				return expiry
			}
		}
	}

	return nil
}

func manageURL(baseURL, id string) string {
	return fmt.Sprintf("%s/control/detail/%s/", strings.TrimRight(baseURL, "/"), id)
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
