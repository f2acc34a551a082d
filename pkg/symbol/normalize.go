// Package symbol maps exchange-native tickers to vendor-canonical tickers.
package symbol

import "strings"

// Normalize maps a raw, exchange-native ticker to its vendor-canonical
// form. It is a pure, total function: every input that is non-empty
// after trimming whitespace produces a non-empty uppercase output.
//
// Rules, applied in order to an uppercased, trimmed input:
//  1. Strip any trailing ".XXXX" suffix (perpetual/spot markers).
//  2. If the result ends with USDT or BUSD, replace that suffix with /USD.
//  3. Else if it ends with USD, is at least 6 runes long, and the 2-5
//     char prefix before USD is all A-Z, insert a "/" before USD.
//  4. Otherwise return the uppercased string unchanged.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return s
	}

	if dot := strings.LastIndex(s, "."); dot > 0 {
		s = s[:dot]
	}

	switch {
	case strings.HasSuffix(s, "USDT"):
		return s[:len(s)-len("USDT")] + "/USD"
	case strings.HasSuffix(s, "BUSD"):
		return s[:len(s)-len("BUSD")] + "/USD"
	}

	if strings.HasSuffix(s, "USD") && len(s) >= 6 {
		prefix := s[:len(s)-3]
		if len(prefix) >= 2 && len(prefix) <= 5 && isAllLetters(prefix) {
			return prefix + "/USD"
		}
	}

	return s
}

func isAllLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
