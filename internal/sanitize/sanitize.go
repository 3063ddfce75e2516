// Package sanitize strips a fixed denylist of dangerous markup from
// user-supplied text before it is stored. The output is still untrusted;
// rendering layers must encode it themselves.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	schemePattern = regexp.MustCompile(`(?i)javascript:`)
	charPattern   = regexp.MustCompile(`[;&]`)
)

// Clean removes HTML-like tags, the javascript: scheme and the ;/&
// characters, then trims surrounding whitespace. Tags go first so that a
// value like "java<b></b>script:" collapses into the scheme and is removed.
func Clean(v string) string {
	v = tagPattern.ReplaceAllString(v, "")
	v = schemePattern.ReplaceAllString(v, "")
	v = charPattern.ReplaceAllString(v, "")
	return strings.TrimSpace(v)
}
