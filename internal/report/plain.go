package report

import "strings"

const markdownMarkers = "*_`["

var markdownEscaper = strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`)

// Escape protects dynamic text (provider names, narratives) from being
// read as Telegram Markdown entities.
func Escape(s string) string {
	return markdownEscaper.Replace(s)
}

// PlainText strips Markdown markers so the message can be sent without a
// parse mode. Escaped markers are kept as literal characters.
func PlainText(msg string) string {
	var b strings.Builder
	b.Grow(len(msg))
	for i := 0; i < len(msg); i++ {
		c := msg[i]
		if c == '\\' && i+1 < len(msg) && strings.IndexByte(markdownMarkers, msg[i+1]) >= 0 {
			i++
			b.WriteByte(msg[i])
			continue
		}
		if strings.IndexByte(markdownMarkers, c) >= 0 {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
