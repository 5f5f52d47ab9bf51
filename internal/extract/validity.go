package extract

import (
	"regexp"
	"strings"
	"unicode"

	"arcrenew/internal/config"

	"github.com/abadojack/whatlanggo"
)

// NameRules holds the name-candidate validity thresholds. The panel
// markup changes without notice, so these are tunable rather than fixed.
type NameRules struct {
	MinLen      int
	MaxLen      int
	MinASCIILen int
	Denylist    []string
}

// Structural chrome words that never form a product name.
var baseDenylist = []string{
	"管理", "控制", "详情", "登录",
	"control", "detail", "manage", "login",
	"http://", "https://",
}

var (
	pureDigitsPattern = regexp.MustCompile(`^\d+$`)
	hostShapePattern  = regexp.MustCompile(`^(?:[A-Za-z0-9-]+\.)+[A-Za-z]{2,}$`)
)

// DefaultNameRules returns the thresholds tuned against the live panel.
func DefaultNameRules() NameRules {
	return NameRules{
		MinLen:      2,
		MaxLen:      200,
		MinASCIILen: 4,
		Denylist:    baseDenylist,
	}
}

// NameRulesFromConfig builds rules from the extraction tuning section,
// falling back to defaults for unset values.
func NameRulesFromConfig(cfg *config.ExtractionConfig) NameRules {
	rules := DefaultNameRules()

	if cfg.MinNameLen > 0 {
		rules.MinLen = cfg.MinNameLen
	}

	if cfg.MaxNameLen > 0 {
		rules.MaxLen = cfg.MaxNameLen
	}

	if cfg.MinASCIINameLen > 0 {
		rules.MinASCIILen = cfg.MinASCIINameLen
	}

	rules.Denylist = append(rules.Denylist, cfg.ExtraDenylist...)

	return rules
}

// IsValid reports whether a candidate survives as a product name.
func (r NameRules) IsValid(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}

	length := len([]rune(trimmed))
	if length < r.MinLen || length > r.MaxLen {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, word := range r.Denylist {
		if strings.Contains(lower, strings.ToLower(word)) {
			return false
		}
	}

	if pureDigitsPattern.MatchString(trimmed) {
		return false
	}

	if looksLikeHostname(trimmed) {
		return false
	}

	// Short fragments without native script are almost always chrome.
	if !hasNativeScript(trimmed) && length < r.MinASCIILen {
		return false
	}

	return true
}

// looksLikeHostname classifies strings shaped like network host names:
// URL schemes, www. prefixes, or dotted label.label.tld forms.
func looksLikeHostname(s string) bool {
	lower := strings.ToLower(s)

	for _, scheme := range []string{"http://", "https://", "ftp://"} {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}

	if strings.HasPrefix(lower, "www.") {
		return true
	}

	return hostShapePattern.MatchString(s)
}

// hasNativeScript reports whether the candidate carries Han script.
// Dominant-script detection misses short mixed tokens, so any Han rune
// counts too.
func hasNativeScript(s string) bool {
	if whatlanggo.DetectScript(s) == unicode.Han {
		return true
	}

	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}

	return false
}
