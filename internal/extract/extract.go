// Package extract parses free-form pasted text into a deduplicated set of
// syntactically valid, normalized URLs.
//
// The strategy is line-oriented: input is assumed to be one pasted URL per
// line rather than prose with embedded links. From each line that starts
// with an allowed protocol, the longest leading non-whitespace run is taken
// as the candidate and the rest of the line is discarded.
package extract

import (
	"strings"

	"github.com/avoronov/harvest/internal/validation"
)

// URLs extracts an order-preserving, deduplicated sequence of normalized
// URLs from freeText. Lines that do not start with an allowed protocol, or
// whose candidate fails validation, are dropped silently.
func URLs(freeText string, rules validation.URLRules) []string {
	var result []string
	seen := make(map[string]struct{})

	for _, line := range strings.Split(freeText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !hasAllowedPrefix(line, rules.AllowedProtocols) {
			continue
		}

		candidate := line
		if i := strings.IndexFunc(line, isSpace); i >= 0 {
			candidate = line[:i]
		}

		normalized, err := validation.ValidateURL(candidate, rules)
		if err != nil {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}

	return result
}

func hasAllowedPrefix(line string, protocols []string) bool {
	lower := strings.ToLower(line)
	for _, p := range protocols {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !strings.HasSuffix(p, "://") {
			p = p + "://"
		}
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
