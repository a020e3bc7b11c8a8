// internal/app/system/htmlsanitize/htmlsanitize.go
//
// Package htmlsanitize cleans operator-entered rich text (class notes, award
// notes, announcements) before storage and display. Plain text is upgraded to
// minimal HTML; anything tag-shaped goes through bluemonday.
package htmlsanitize

import (
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("u", "s", "sub", "sup", "mark", "hr")
	p.AllowAttrs("class", "style").OnElements("table", "thead", "tbody", "tr", "th", "td")
	return p
}

// Sanitize strips unsafe markup and returns the cleaned HTML string.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML sanitizes and returns template.HTML so templates render the
// markup instead of escaping it.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

var tagPattern = regexp.MustCompile(`<[a-zA-Z/][^>]*>`)

// IsPlainText reports whether s contains no HTML tags. Bare < or > used as
// comparison operators do not count.
func IsPlainText(s string) bool {
	return !tagPattern.MatchString(s)
}

// PlainTextToHTML escapes s and converts newlines to <br>, wrapping the
// result in a paragraph.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return "<p>" + escaped + "</p>"
}

// PrepareForDisplay renders stored text for a template: plain text is
// upgraded to simple HTML, markup is sanitized.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
