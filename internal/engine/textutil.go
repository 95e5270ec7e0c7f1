package engine

import (
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
	"golang.org/x/net/html"
)

// CaptionText strips markup from a caption cue, decodes HTML entities, and
// collapses whitespace. Caption XML often double-escapes entities and wraps
// words in <font> tags.
func CaptionText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var sb strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.Write(z.Text())
			sb.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Preview caps s at limit runes for log lines. Safe for UTF-8.
func Preview(s string, limit int) string {
	return strutil.TruncateWith(s, limit, "…")
}
