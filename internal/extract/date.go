package extract

import (
	"regexp"
	"strconv"
	"time"

	"arcrenew/internal/models"
)

// Recognized date shapes. Anything else is not a date, no matter how
// numeric it looks.
var (
	dateISOPattern   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:\s+(\d{1,2}):(\d{1,2}):(\d{1,2}))?$`)
	dateSlashPattern = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
	dateCJKPattern   = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日$`)

	// dateTokenPattern locates any candidate token inside larger text.
	dateTokenPattern = regexp.MustCompile(dateTokenAlternatives)
)

// dateTokenAlternatives is the shared alternation for date-shaped
// tokens, also embedded into the label-adjacency pattern.
const dateTokenAlternatives = `\d{4}-\d{1,2}-\d{1,2}(?:\s+\d{1,2}:\d{1,2}:\d{1,2})?|\d{4}/\d{1,2}/\d{1,2}|\d{4}年\d{1,2}月\d{1,2}日`

// Accepted year window. The panel only ever shows near-term expiries;
// anything outside this range is a mis-extracted number, not a date.
// Tuning constants, adjust when the decade runs out.
const (
	minExpiryYear = 2020
	maxExpiryYear = 2030
)

// ParseDate validates a candidate token against the recognized date
// shapes and bounds, returning the normalized expiry.
func ParseDate(token string) (*models.ExpiryDate, bool) {
	for _, pattern := range []*regexp.Regexp{dateISOPattern, dateSlashPattern, dateCJKPattern} {
		match := pattern.FindStringSubmatch(token)
		if match == nil {
			continue
		}

		year := atoi(match[1])
		month := atoi(match[2])
		day := atoi(match[3])

		if year < minExpiryYear || year > maxExpiryYear {
			return nil, false
		}

		if month < 1 || month > 12 {
			return nil, false
		}

		if day < 1 || day > 31 {
			return nil, false
		}

		hour, minute, second := 0, 0, 0
		if len(match) > 4 && match[4] != "" {
			hour = atoi(match[4])
			minute = atoi(match[5])
			second = atoi(match[6])
		}

		return &models.ExpiryDate{
			Raw:  token,
			Time: time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC),
		}, true
	}

	return nil, false
}

// findDateTokens returns every date-shaped token in the text, in order
// of appearance. Tokens still need ParseDate validation.
func findDateTokens(text string) []string {
	return dateTokenPattern.FindAllString(text, -1)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)

	return n
}
