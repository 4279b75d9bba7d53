// Package format holds small text helpers for Telegram HTML messages.
package format

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML escapes user-supplied text for Telegram HTML parse mode.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
