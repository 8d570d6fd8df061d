// Package plaintext flattens rich comment markup into the plain text that is
// submitted for sentiment classification.
package plaintext

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/russross/blackfriday/v2"
)

// FromHTML returns the visible text of an HTML fragment with whitespace
// collapsed to single spaces.
func FromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return squash(html)
	}
	// goquery Text() drops <br>, which would glue adjacent lines together
	doc.Find("br").AfterHtml("\n")
	return squash(doc.Text())
}

// FromMarkdown renders markdown to HTML first so links, emphasis and code
// markers do not leak into the text.
func FromMarkdown(md string) string {
	out := blackfriday.Run([]byte(md), blackfriday.WithNoExtensions())
	return FromHTML(string(out))
}

var htmlTag = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// Convert picks the HTML or markdown path depending on whether the input
// carries any tags.
func Convert(s string) string {
	if htmlTag.MatchString(s) {
		return FromHTML(s)
	}
	return FromMarkdown(s)
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
