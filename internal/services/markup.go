// HTML stripping for agent replies.
//
// Zammad articles authored in the web UI arrive as HTML fragments; chat
// messages are plain text. Block-level closers become line breaks before
// the sanitizer drops every remaining tag.
package services

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy = bluemonday.StrictPolicy()

	// Tags whose end marks a visual line break.
	blockBreakRE = regexp.MustCompile(`(?i)<\s*(?:br\s*/?|/p|/div|/li|/h[1-6])\s*>`)
	multiBlankRE = regexp.MustCompile(`\n{3,}`)
)

// StripHTML converts an HTML fragment into readable plain text: block
// boundaries turn into newlines, all other markup is removed, and HTML
// entities are decoded.
func StripHTML(s string) string {
	s = blockBreakRE.ReplaceAllString(s, "\n")
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	s = strings.Join(lines, "\n")
	s = multiBlankRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
