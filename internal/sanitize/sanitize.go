// Package sanitize cleans text that comes from scraped web pages before it
// is shown to users. Scan rows are collected from third-party sites, so any
// markup they carry is stripped with bluemonday's strict policy.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton strict policy. Initialized once via sync.Once.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text strips every tag from input and collapses runs of whitespace.
//
// bluemonday escapes the text it keeps; the result is unescaped again so
// templ's own escaping at render time does not double-encode "&" or quotes.
func Text(input string) string {
	if input == "" {
		return ""
	}
	stripped := html.UnescapeString(getPolicy().Sanitize(input))
	return strings.Join(strings.Fields(stripped), " ")
}
