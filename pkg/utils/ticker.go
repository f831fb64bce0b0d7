package utils

import (
	"regexp"
	"strings"
)

// tickerRe matches public-company ticker symbols: 1-5 letters with an
// optional class or listing suffix, e.g. "AAPL", "BRK.B", "NGG.L".
var tickerRe = regexp.MustCompile(`^[A-Z]{1,5}(?:[.\-][A-Z0-9]{1,4})?$`)

// NormalizeTicker normalizes user input to the canonical symbol form.
// It handles uppercasing, whitespace, and the $ prefix common in chat.
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	ticker = strings.TrimPrefix(ticker, "$")
	return ticker
}

// ValidTicker reports whether the string is a plausible ticker symbol.
// Input is validated before any network fetch.
func ValidTicker(ticker string) bool {
	return tickerRe.MatchString(ticker)
}

// SameSymbol reports whether two tickers denote the same symbol once class
// separators are folded: EDGAR lists "BRK-B" where exchanges print "BRK.B".
func SameSymbol(a, b string) bool {
	return foldSeparators(NormalizeTicker(a)) == foldSeparators(NormalizeTicker(b))
}

func foldSeparators(s string) string {
	return strings.ReplaceAll(s, "-", ".")
}
