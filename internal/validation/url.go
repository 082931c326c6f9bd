package validation

import (
	"net/url"
	"strings"
)

// URLRules configures URL acceptance.
type URLRules struct {
	// AllowedProtocols lists acceptable schemes, e.g. "http", "https".
	AllowedProtocols []string
	// BlockedDomains rejects exact or subdomain matches, case-insensitive.
	BlockedDomains []string
	// AllowedDomains, when non-empty, accepts only exact or subdomain matches.
	AllowedDomains []string
	// MaxURLLength rejects longer candidates when > 0.
	MaxURLLength int
}

// ValidateURL checks candidate against rules and, on success, returns its
// normalized form: lower-cased host, default port stripped (80 for http,
// 443 for https), root path "/" collapsed to empty.
func ValidateURL(candidate string, rules URLRules) (string, *Error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", newError(ReasonEmptyInput, "empty url")
	}
	if rules.MaxURLLength > 0 && len(candidate) > rules.MaxURLLength {
		return "", newError(ReasonTooLong, "url exceeds %d characters", rules.MaxURLLength)
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return "", newError(ReasonMalformedURL, "malformed url: %s", candidate)
	}

	scheme := strings.ToLower(u.Scheme)
	if !containsFold(rules.AllowedProtocols, scheme) {
		return "", newError(ReasonProtocol, "protocol %q not allowed", scheme)
	}

	host := strings.ToLower(u.Hostname())
	if matchesDomain(host, rules.BlockedDomains) {
		return "", newError(ReasonDomainBlocked, "domain %q is blocked", host)
	}
	if len(rules.AllowedDomains) > 0 && !matchesDomain(host, rules.AllowedDomains) {
		return "", newError(ReasonDomainNotAllowed, "domain %q not in allow-list", host)
	}

	return normalize(u, scheme, host), nil
}

// normalize rebuilds the URL in canonical form. Applying it to an already
// normalized URL is a no-op.
func normalize(u *url.URL, scheme, host string) string {
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = host + ":" + port
	}

	// Keep the path percent-encoded as received; decoding would conflate
	// locators like /a%2Fb and /a/b.
	path := u.EscapedPath()
	if path == "/" {
		path = ""
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)
	b.WriteString(path)
	if u.RawQuery != "" {
		b.WriteString("?")
		b.WriteString(u.RawQuery)
	}
	if u.Fragment != "" {
		b.WriteString("#")
		b.WriteString(u.EscapedFragment())
	}
	return b.String()
}

// matchesDomain reports whether host equals one of the domains or is a
// subdomain of one, case-insensitive.
func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}
