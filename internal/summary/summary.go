// Package summary turns Confluence storage-format HTML into compact
// markdown suitable for handing to an agent.
package summary

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Storage-format elements whose text is configuration, not content.
var droppedElements = map[string]bool{
	"ac:parameter":     true,
	"ac:placeholder":   true,
	"ac:adf-fallback":  true,
	"ac:adf-attribute": true,
	"ac:task-id":       true,
	"ri:attachment":    true,
}

var (
	blankRuns = regexp.MustCompile(`\n{3,}`)

	// The HTML parser turns CDATA into comments, which the converter drops.
	cdataSections = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)

	// The HTML parser ignores "/>" on unknown elements, so a self-closed
	// <ri:page/> would swallow the text after it.
	selfClosed = regexp.MustCompile(`<((?:ac|ri):[A-Za-z-]+)([^<>]*?)\s*/>`)
)

// Summarizer converts page bodies to markdown, optionally capped in length.
type Summarizer struct {
	maxChars  int
	converter *md.Converter
}

// New creates a summarizer. maxChars <= 0 disables truncation.
func New(maxChars int) *Summarizer {
	return &Summarizer{
		maxChars:  maxChars,
		converter: md.NewConverter("", true, nil),
	}
}

// Summarize converts storage-format HTML to trimmed markdown. An empty body
// yields an empty summary.
func (s *Summarizer) Summarize(body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(normalize(body)))
	if err != nil {
		return "", fmt.Errorf("failed to parse page body: %w", err)
	}

	elements(doc, "ac:plain-text-body").Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithHtml("<pre><code>" + html.EscapeString(sel.Text()) + "</code></pre>")
	})
	elements(doc, "ac:link").Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithHtml(html.EscapeString(linkText(sel)))
	})
	doc.Find("*").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return droppedElements[goquery.NodeName(sel)]
	}).Remove()

	text := s.converter.Convert(doc.Selection)
	text = strings.TrimSpace(blankRuns.ReplaceAllString(text, "\n\n"))

	return s.truncate(text), nil
}

// normalize rewrites storage-format constructs the HTML parser mangles.
func normalize(body string) string {
	body = cdataSections.ReplaceAllStringFunc(body, func(section string) string {
		return html.EscapeString(cdataSections.FindStringSubmatch(section)[1])
	})
	return selfClosed.ReplaceAllString(body, "<$1$2></$1>")
}

// elements selects nodes by their namespaced storage-format name.
func elements(doc *goquery.Document, name string) *goquery.Selection {
	return doc.Find("*").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return goquery.NodeName(sel) == name
	})
}

// linkText is the visible text of an <ac:link>: its link body when present,
// otherwise the title or file name of the resource it points at.
func linkText(link *goquery.Selection) string {
	if text := strings.TrimSpace(link.Text()); text != "" {
		return text
	}

	var text string
	link.Find("*").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, attr := range []string{"ri:content-title", "ri:filename", "ri:space-key"} {
			if value, ok := sel.Attr(attr); ok && value != "" {
				text = value
				return false
			}
		}
		return true
	})
	return text
}

func (s *Summarizer) truncate(text string) string {
	if s.maxChars <= 0 || utf8.RuneCountInString(text) <= s.maxChars {
		return text
	}
	runes := []rune(text)
	return strings.TrimRightFunc(string(runes[:s.maxChars]), func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t'
	}) + "…"
}
