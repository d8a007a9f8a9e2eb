package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/clausegest/internal/chunks"
)

// Format names an export output.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
	FormatArchive  Format = "tar.xz"
)

var contentTypes = map[Format]string{
	FormatMarkdown: "text/markdown; charset=utf-8",
	FormatHTML:     "text/html; charset=utf-8",
	FormatDOCX:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FormatArchive:  "application/x-xz",
}

// ParseFormat accepts a format name case-insensitively. An empty name
// selects Markdown.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatMarkdown, nil
	}
	f := Format(strings.TrimPrefix(s, "."))
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("unsupported export format %q", s)
	}
	return f, nil
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	return contentTypes[f]
}

// Filename is the download name of a document exported as f.
func (f Format) Filename(docID string) string {
	return docID + "." + string(f)
}

// Write renders records in format f.
func Write(w io.Writer, f Format, docID string, records []chunks.Record) error {
	switch f {
	case FormatMarkdown:
		_, err := w.Write(Markdown(docID, records))
		return err
	case FormatHTML:
		html, err := RenderHTML(Markdown(docID, records))
		if err != nil {
			return err
		}
		_, err = w.Write(html)
		return err
	case FormatDOCX:
		return WriteDOCX(w, docID, records)
	case FormatArchive:
		files, err := Bundle(docID, records)
		if err != nil {
			return err
		}
		return WriteArchive(w, files)
	}
	return fmt.Errorf("unsupported export format %q", f)
}
