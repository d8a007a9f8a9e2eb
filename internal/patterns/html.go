package patterns

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// CleanHTML strips markup from a block's HTML, decodes entities, applies
// NFKC normalization and collapses whitespace.
func CleanHTML(s string) string {
	if s == "" {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var buf strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapse(norm.NFKC.String(buf.String()))
		case html.TextToken:
			buf.Write(z.Text())
		}
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TableCells returns the text of every cell of every row in an HTML table.
func TableCells(s string) [][]string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return nil
	}

	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					row = append(row, textContent(c))
				}
			}
			if len(row) > 0 {
				rows = append(rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rows
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return collapse(norm.NFKC.String(buf.String()))
}
