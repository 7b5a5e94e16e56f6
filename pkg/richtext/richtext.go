// Package richtext turns Wagtail rich-text HTML into plain text.
package richtext

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const ellipsis = "…"

// PlainText returns the visible text of an HTML fragment with block elements
// separated by single spaces and whitespace collapsed.
func PlainText(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style").Remove()

	var parts []string
	doc.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		if txt := collapse(s.Text()); txt != "" {
			parts = append(parts, txt)
		}
	})
	return strings.Join(parts, " "), nil
}

// Excerpt returns PlainText cut to at most maxRunes runes on a word boundary.
// maxRunes <= 0 means no limit.
func Excerpt(html string, maxRunes int) (string, error) {
	text, err := PlainText(html)
	if err != nil {
		return "", err
	}
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text, nil
	}

	runes := []rune(text)
	cut := string(runes[:maxRunes])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,.;:") + ellipsis, nil
}

// FirstNonEmpty returns the first value that is not blank, trimmed.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
