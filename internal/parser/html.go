// Package parser flattens bank alert email bodies into clean plain text
// ready for extraction.
package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BodyParser converts HTML email bodies to plain text and scrubs encoding
// artifacts that bank mailers leave behind.
type BodyParser struct {
	whitespaceRegex *regexp.Regexp
	newlineRegex    *regexp.Regexp
	invisibleRegex  *regexp.Regexp
	softBreakRegex  *regexp.Regexp
}

// NewBodyParser creates a new BodyParser
func NewBodyParser() *BodyParser {
	return &BodyParser{
		whitespaceRegex: regexp.MustCompile(`[^\S\n]+`),
		newlineRegex:    regexp.MustCompile(`\n{3,}`),
		// Invisible Unicode characters (zero-width spaces, etc.)
		invisibleRegex: regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{00AD}\x{2060}-\x{2064}]+`),
		// Quoted-printable soft line breaks that survive decoding
		softBreakRegex: regexp.MustCompile(`=\s*\n`),
	}
}

// Clean scrubs quoted-printable artifacts and normalises whitespace in an
// already-plain-text body.
func (p *BodyParser) Clean(text string) string {
	text = p.softBreakRegex.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "=20", " ")
	text = strings.ReplaceAll(text, "=A0", " ")
	text = strings.ReplaceAll(text, "\r", "")
	text = p.invisibleRegex.ReplaceAllString(text, "")
	text = p.whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// FlattenHTML converts an HTML body to clean plain text
func (p *BodyParser) FlattenHTML(html string) (string, error) {
	if html == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	// Drop non-content elements
	doc.Find("script, style, head, meta, link").Remove()

	// Add newlines before block elements so table-heavy bank templates
	// keep one fact per line
	doc.Find("p, div, br, h1, h2, h3, h4, h5, h6, li, tr").Each(func(i int, s *goquery.Selection) {
		s.PrependHtml("\n")
	})

	text := doc.Text()
	text = p.invisibleRegex.ReplaceAllString(text, "")
	text = p.whitespaceRegex.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	var cleanLines []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanLines = append(cleanLines, line)
		}
	}
	text = strings.Join(cleanLines, "\n")
	text = p.newlineRegex.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text), nil
}
