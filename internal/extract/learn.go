package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// LearnPattern derives a regex that would extract companyName from similar
// URLs of the same site. It looks for the company in the subdomain first, then
// in a path segment, then anywhere in the URL. Returns "" when no usable
// pattern can be derived.
func LearnPattern(rawURL, companyName string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	normalized := normalizeForMatch(companyName)
	if normalized == "" {
		return ""
	}

	// Company in subdomain. The class excludes "/" so the match cannot
	// start inside the scheme.
	hostParts := strings.Split(parsed.Hostname(), ".")
	if len(hostParts) > 2 {
		sub := normalizeForMatch(hostParts[0])
		if sub == normalized || strings.Contains(sub, normalized) {
			baseDomain := strings.Join(hostParts[1:], ".")
			return `([^./]+)\.` + regexp.QuoteMeta(baseDomain)
		}
	}

	// Company in a path segment: domain/prefix/([^/]+)
	var pathParts []string
	for _, p := range strings.Split(parsed.Path, "/") {
		if p != "" {
			pathParts = append(pathParts, p)
		}
	}
	for i, part := range pathParts {
		norm := normalizeForMatch(part)
		if norm != normalized && !strings.Contains(norm, normalized) {
			continue
		}
		pattern := regexp.QuoteMeta(parsed.Host)
		if i > 0 {
			pattern += "/" + regexp.QuoteMeta(strings.Join(pathParts[:i], "/"))
		}
		return pattern + `/([^/]+)`
	}

	// Fallback: company appears verbatim somewhere in the URL.
	lower := strings.ToLower(rawURL)
	for _, variant := range []string{
		strings.ToLower(companyName),
		strings.ReplaceAll(strings.ToLower(companyName), " ", "-"),
		strings.ReplaceAll(strings.ToLower(companyName), " ", "_"),
		strings.ReplaceAll(strings.ToLower(companyName), " ", ""),
	} {
		idx := strings.Index(lower, variant)
		if idx < 0 {
			continue
		}
		return regexp.QuoteMeta(rawURL[:idx]) + `([^/.\-_]+)`
	}

	return ""
}

// normalizeForMatch lower-cases and strips separators so "Acme-Corp" and
// "acmecorp" compare equal.
func normalizeForMatch(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
