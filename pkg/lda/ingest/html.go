package ingest

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ExtractText returns the visible text of an HTML document. Script, style
// and template contents are dropped and block boundaries become spaces.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "template", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(buf.String()), " "), nil
}

// StripHTML is ExtractText for strings. Unparseable input is returned as is.
func StripHTML(s string) string {
	text, err := ExtractText(strings.NewReader(s))
	if err != nil {
		return s
	}
	return text
}
