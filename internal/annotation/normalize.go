package annotation

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

var (
	stripPolicy = bluemonday.StrictPolicy()
	blockBreaks = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|h[1-6]|blockquote)>`)
	lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\u00a0", " ")
)

// Normalize converts stored answer HTML into the plain text the highlight
// offsets refer to. Rendered containers apply the same rules, so offsets
// computed on either side are comparable.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	if strings.ContainsRune(text, '<') {
		text = blockBreaks.ReplaceAllString(text, "$0\n")
		text = stripPolicy.Sanitize(text)
		text = html.UnescapeString(text)
	} else if strings.ContainsRune(text, '&') {
		text = html.UnescapeString(text)
	}
	text = lineEndings.Replace(text)
	text = norm.NFC.String(text)
	return strings.TrimRight(text, "\n")
}

// RuneLen returns the length of s in runes.
func RuneLen(s string) int {
	return len([]rune(s))
}
