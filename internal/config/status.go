package config

import (
	"os"
	"regexp"
	"strings"
)

// DefaultUserAgent identifies FilingLens to the SEC when the operator has
// not configured a real contact. EDGAR throttles anonymous clients, so a
// production deployment should always replace this.
const DefaultUserAgent = "FilingLens/0.1 (filinglens@example.com)"

// SettingSource represents where an effective setting comes from.
type SettingSource string

const (
	SettingFromEnv     SettingSource = "env"
	SettingFromConfig  SettingSource = "config"
	SettingFromDefault SettingSource = "default"
)

// SettingStatus represents the status of one operator-facing setting.
type SettingStatus struct {
	Name    string        `json:"name"`
	Source  SettingSource `json:"source"`
	IsSet   bool          `json:"is_set"`            // true when not the shipped default
	Display string        `json:"display,omitempty"` // safe-to-print value
}

// CheckSettings returns the status of the settings an operator usually has
// to touch before pointing FilingLens at the live EDGAR.
func CheckSettings(cfg *Config) []SettingStatus {
	return []SettingStatus{
		checkSetting("SEC User-Agent", maskContact(cfg.Retrieval.UserAgent),
			cfg.Retrieval.UserAgent != DefaultUserAgent, "FILINGLENS_RETRIEVAL_USER_AGENT"),
		checkSetting("Retrieval source", cfg.Retrieval.Source,
			cfg.Retrieval.Source != "edgar", "FILINGLENS_RETRIEVAL_SOURCE"),
		checkSetting("Synonyms overlay", cfg.Synonyms.File,
			cfg.Synonyms.File != "", "FILINGLENS_SYNONYMS_FILE"),
	}
}

// checkSetting works out whether a value is still the shipped default and
// whether the environment supplied it.
func checkSetting(name, display string, changed bool, envVar string) SettingStatus {
	status := SettingStatus{
		Name:    name,
		IsSet:   changed,
		Display: display,
	}

	switch {
	case os.Getenv(envVar) != "":
		status.Source = SettingFromEnv
	case changed:
		status.Source = SettingFromConfig
	default:
		status.Source = SettingFromDefault
	}

	return status
}

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+`)

// maskContact hides most of any email address embedded in a User-Agent
// string, keeping just enough to recognize it.
func maskContact(ua string) string {
	return emailRe.ReplaceAllStringFunc(ua, maskEmail)
}

// maskEmail masks the local part of an email address, showing only the
// first character and the domain.
func maskEmail(addr string) string {
	at := strings.Index(addr, "@")
	if at <= 1 {
		return "***"
	}
	return addr[:1] + "***" + addr[at:]
}
