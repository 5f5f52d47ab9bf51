package extract

import (
	"testing"

	"arcrenew/internal/config"
)

func TestNameRules_IsValid(t *testing.T) {
	rules := DefaultNameRules()

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"cjk product name", "北极熊VPS", true},
		{"latin product name", "Polar Basic Plan", true},
		{"short cjk still valid", "主机", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"too short ascii", "abc", false},
		{"pure digits", "12345", false},
		{"denylist chrome word", "产品管理", false},
		{"denylist english chrome", "Control Panel", false},
		{"url scheme", "https://vps.example.com", false},
		{"hostname shape", "node01.example.com", false},
		{"www prefix", "www.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rules.IsValid(tt.candidate); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestNameRulesFromConfig(t *testing.T) {
	cfg := &config.ExtractionConfig{
		MinNameLen:    3,
		ExtraDenylist: []string{"测试机"},
	}

	rules := NameRulesFromConfig(cfg)

	if rules.MinLen != 3 {
		t.Errorf("MinLen = %d, want 3", rules.MinLen)
	}

	// Unset values keep the defaults.
	if rules.MaxLen != DefaultNameRules().MaxLen {
		t.Errorf("MaxLen = %d, want default %d", rules.MaxLen, DefaultNameRules().MaxLen)
	}

	if rules.IsValid("我的测试机") {
		t.Error("extra denylist word should reject the candidate")
	}
}

func TestLooksLikeHostname(t *testing.T) {
	tests := []struct {
		candidate string
		want      bool
	}{
		{"vps.polarbear.nyc.mn", true},
		{"a-b.example.io", true},
		{"ftp://files.example.com", true},
		{"北极熊VPS", false},
		{"Polar Basic Plan", false},
		{"version 2.0", false},
	}

	for _, tt := range tests {
		if got := looksLikeHostname(tt.candidate); got != tt.want {
			t.Errorf("looksLikeHostname(%q) = %v, want %v", tt.candidate, got, tt.want)
		}
	}
}

func TestHasNativeScript(t *testing.T) {
	if !hasNativeScript("极光VPS-01") {
		t.Error("mixed token with Han runes should count as native script")
	}

	if hasNativeScript("aurora-vps-01") {
		t.Error("pure latin token should not count as native script")
	}
}
