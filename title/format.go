package title

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"dqx0.com/go/urltitle/httpx"
)

const (
	// Prompt is prepended to every formatted title.
	Prompt = "Title: "
	// MaxLength is the display cap in characters; longer titles are cut and
	// get Ellipsis appended.
	MaxLength = 80
	Ellipsis  = " ..."
)

// Entities are the only named entities Format decodes. Anything else,
// including &amp; and numeric references, is left as-is.
var Entities = map[string]string{
	"&raquo;": "»",
	"&iexcl;": "¡",
	"&cent;":  "¢",
	"&copy;":  "©",
	"&laquo;": "«",
	"&deg;":   "°",
	"&sup2;":  "²",
	"&micro;": "µ",
}

var entities = func() *strings.Replacer {
	pairs := make([]string, 0, len(Entities)*2)
	for k, v := range Entities {
		pairs = append(pairs, k, v)
	}
	return strings.NewReplacer(pairs...)
}()

// Format a title for display: percent escapes and the known entities are
// decoded, the text is cut at MaxLength characters, and the result is quoted
// after Prompt.
func Format(title string) string {
	s := httpx.UnescapeLenient(title)
	s = entities.Replace(s)
	// Compose first so the cap counts what a reader sees as one character
	// and never splits a base letter from its combining mark.
	s = norm.NFC.String(s)
	if utf8.RuneCountInString(s) > MaxLength {
		s = truncate(s, MaxLength) + Ellipsis
	}
	return Prompt + `"` + s + `"`
}

func truncate(s string, n int) string {
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}
