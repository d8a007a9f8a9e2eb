// Package export renders a document's clause records as Markdown, HTML,
// DOCX or a tar.xz bundle.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/clausegest/internal/chunks"
	"github.com/dgallion1/clausegest/internal/schema"
)

// Depth returns the outline level of a clause: 1 for "6" or "A", 2 for
// "6.1", and so on. Synthetic chunks sit at level 1.
func Depth(clauseID string) int {
	return strings.Count(clauseID, ".") + 1
}

func headingLevel(clauseID string) int {
	return min(Depth(clauseID)+1, 6)
}

func heading(r chunks.Record) string {
	if r.Title == "" || r.ClauseID == r.Title {
		return r.ClauseID
	}
	if strings.HasSuffix(r.ClauseID, "_misc") {
		return r.Title
	}
	return r.ClauseID + " " + r.Title
}

// Markdown renders records as an outline headed by the document id.
func Markdown(docID string, records []chunks.Record) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", docID)
	for _, r := range records {
		fmt.Fprintf(&buf, "\n%s %s\n", strings.Repeat("#", headingLevel(r.ClauseID)), heading(r))
		for _, item := range r.Content {
			switch item.Type {
			case schema.ContentListItem:
				fmt.Fprintf(&buf, "\n- %s\n", item.Text)
			case schema.ContentCaption, schema.ContentFootnote:
				fmt.Fprintf(&buf, "\n*%s*\n", item.Text)
			default:
				fmt.Fprintf(&buf, "\n%s\n", item.Text)
			}
		}
		if len(r.Requirements) > 0 {
			buf.WriteString("\n| Type | Keyword | Text |\n|---|---|---|\n")
			for _, req := range r.Requirements {
				fmt.Fprintf(&buf, "| %s | %s | %s |\n", req.Type, req.Keyword, cell(req.Text))
			}
		}
		for _, f := range r.Figures {
			alt := f.Number
			if f.Caption != nil {
				alt = *f.Caption
			}
			fmt.Fprintf(&buf, "\n![%s](%s)\n", alt, f.Path)
		}
	}
	return buf.Bytes()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RenderHTML converts Markdown to HTML.
func RenderHTML(md []byte) ([]byte, error) {
	var buf bytes.Buffer
	conv := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := conv.Convert(md, &buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
