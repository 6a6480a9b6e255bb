package ingest

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ReadDocumentText loads the text content of a stored document. HTML
// payloads are reduced to their visible text; everything else is treated
// as plain text with invalid UTF-8 replaced. A missing or unreadable file
// yields empty text, which the pipeline reports as an empty document.
func ReadDocumentText(path, mimeType string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	if isHTML(mimeType, path) {
		if text, err := htmlToText(raw); err == nil {
			return text
		}
	}

	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}

func isHTML(mimeType, path string) bool {
	if strings.HasPrefix(mimeType, "text/html") {
		return true
	}
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}

// inlineTags flow into the surrounding text without a separator; every
// other element acts as a block boundary
var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "code": true, "em": true,
	"i": true, "mark": true, "q": true, "small": true, "span": true,
	"strong": true, "sub": true, "sup": true, "u": true,
}

// htmlToText strips markup and collapses whitespace runs to single spaces.
// Adjacent block elements are separated so "<h1>A</h1><p>B</p>" reads as
// "A B", not "AB".
func htmlToText(raw []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if !inlineTags[n.Data] {
				sb.WriteByte(' ')
				defer sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Selection.Nodes {
		walk(n)
	}

	return strings.Join(strings.Fields(sb.String()), " "), nil
}
