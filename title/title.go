// Package title fetches a HTML page's <title> and formats it for display.
//
// The element is found with a pattern scan over the raw response, not an HTML
// parser, and only a handful of named entities are decoded.
package title

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"dqx0.com/go/urltitle/httpx"
)

var (
	openTag  = regexp.MustCompile(`(?i)<\s*title(?:\s[^>]*)?\s*>`)
	closeTag = regexp.MustCompile(`(?i)<\s*/\s*title\s*>`)
)

// Extract the text of the first <title> element in an HTML response, with all
// runs of whitespace collapsed to a single space.
//
// Responses that aren't text/html, and titles that are missing, unterminated
// or empty, are an httpx.ErrContent error.
func Extract(lines httpx.Lines) (string, error) {
	if !lines.IsHTML() {
		ct, _ := lines.Header("Content-Type")
		return "", &httpx.Error{Op: "title", Kind: httpx.ErrContent,
			Err: errors.Errorf("content type %q is not text/html", ct)}
	}

	body := lines.Text()
	loc := openTag.FindStringIndex(body)
	if loc == nil {
		return "", &httpx.Error{Op: "title", Kind: httpx.ErrContent, Err: errors.New("no <title> tag")}
	}
	body = body[loc[1]:]
	end := closeTag.FindStringIndex(body)
	if end == nil {
		return "", &httpx.Error{Op: "title", Kind: httpx.ErrContent, Err: errors.New("unterminated <title> tag")}
	}

	text := strings.Join(strings.Fields(body[:end[0]]), " ")
	if text == "" {
		return "", &httpx.Error{Op: "title", Kind: httpx.ErrContent, Err: errors.New("empty <title>")}
	}
	return text, nil
}
