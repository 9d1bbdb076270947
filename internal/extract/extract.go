// Package extract turns job-posting URLs into company names by matching the
// URL against known job-board platforms. The functions here are pure; learned
// per-domain patterns live in the store and are consulted by the caller.
package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// platform describes a job board that hosts postings for many companies.
// companyFromURL captures the company slug from the posting URL.
type platform struct {
	domain        string
	companyFromURL *regexp.Regexp
}

var platforms = []platform{
	{"boards.greenhouse.io", regexp.MustCompile(`(?i)boards\.greenhouse\.io/([^/]+)`)},
	{"greenhouse.io", regexp.MustCompile(`(?i)boards\.greenhouse\.io/([^/]+)`)},
	{"jobs.lever.co", regexp.MustCompile(`(?i)jobs\.lever\.co/([^/]+)`)},
	{"lever.co", regexp.MustCompile(`(?i)jobs\.lever\.co/([^/]+)`)},
	{"myworkdayjobs.com", regexp.MustCompile(`(?i)://([^.]+)\.wd\d*\.myworkdayjobs\.com`)},
	{"jobs.ashbyhq.com", regexp.MustCompile(`(?i)jobs\.ashbyhq\.com/([^/]+)`)},
	{"ashbyhq.com", regexp.MustCompile(`(?i)jobs\.ashbyhq\.com/([^/]+)`)},
	{"jobs.smartrecruiters.com", regexp.MustCompile(`(?i)jobs\.smartrecruiters\.com/([^/]+)`)},
	{"smartrecruiters.com", regexp.MustCompile(`(?i)jobs\.smartrecruiters\.com/([^/]+)`)},
	{"breezy.hr", regexp.MustCompile(`(?i)://([^.]+)\.breezy\.hr`)},
	{"applytojob.com", regexp.MustCompile(`(?i)://([^.]+)\.applytojob\.com`)},
	{"recruitee.com", regexp.MustCompile(`(?i)://([^.]+)\.recruitee\.com`)},
	{"bamboohr.com", regexp.MustCompile(`(?i)://([^.]+)\.bamboohr\.com`)},
	{"icims.com", regexp.MustCompile(`(?i)://careers-([^.]+)\.icims\.com`)},
}

// Domain extracts the lower-cased host from a URL, without any www. prefix.
// Returns "" when the URL cannot be parsed.
func Domain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	domain := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(domain, "www.")
}

// Company attempts to extract the company name from a job posting URL using
// the builtin platform table. The second return value is false when the URL
// is not from a known platform or the pattern does not match.
func Company(rawURL string) (string, bool) {
	domain := Domain(rawURL)
	if domain == "" {
		return "", false
	}

	for _, p := range platforms {
		if domain != p.domain && !strings.HasSuffix(domain, "."+p.domain) {
			continue
		}
		if name := CompanyFromPattern(rawURL, p.companyFromURL.String()); name != "" {
			return name, true
		}
	}
	return "", false
}

// CompanyFromPattern extracts a company name from a URL using a regex with a
// single capture group, as stored in learned site patterns. Returns "" when
// the pattern is invalid or does not match.
func CompanyFromPattern(rawURL, pattern string) string {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return ""
	}
	match := re.FindStringSubmatch(rawURL)
	if len(match) < 2 || match[1] == "" {
		return ""
	}
	return cleanCompanyName(match[1])
}

// IsKnownPlatform reports whether the URL belongs to a builtin job platform.
func IsKnownPlatform(rawURL string) bool {
	domain := Domain(rawURL)
	for _, p := range platforms {
		if domain == p.domain || strings.HasSuffix(domain, "."+p.domain) {
			return true
		}
	}
	return false
}

// cleanCompanyName turns a URL slug into a readable company name:
// "acme-corp" -> "Acme Corp".
func cleanCompanyName(slug string) string {
	name := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
