package export

import (
	"fmt"
	"io"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/clausegest/internal/chunks"
	"github.com/dgallion1/clausegest/internal/schema"
)

// WriteDOCX writes records as a Word document. Clause headings use the
// built-in Heading styles so the outline survives a round trip.
func WriteDOCX(w io.Writer, docID string, records []chunks.Record) error {
	d := docx.New().WithDefaultTheme()
	d.AddParagraph().Style("Title").AddText(docID).Bold()

	for _, r := range records {
		d.AddParagraph().
			Style(fmt.Sprintf("Heading%d", min(Depth(r.ClauseID), 6))).
			AddText(heading(r))
		for _, item := range r.Content {
			run := d.AddParagraph().AddText(item.Text)
			if item.Type == schema.ContentCaption || item.Type == schema.ContentFootnote {
				run.Italic()
			}
		}
		for _, req := range r.Requirements {
			p := d.AddParagraph()
			p.AddText(req.Keyword + ": ").Bold()
			p.AddText(req.Text)
		}
	}

	if _, err := d.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
