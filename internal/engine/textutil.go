package engine

import (
	"html"
	"regexp"
	"strings"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// CleanHTML strips markup tags, decodes entities, and trims whitespace.
// Timedtext cues occasionally carry <i>/<b> markup and &amp;-style escapes.
func CleanHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(htmlTagRe.ReplaceAllString(s, "")))
}

// CollapseWhitespace trims s and folds internal runs of whitespace into
// single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
