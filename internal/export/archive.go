package export

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"path"
	"slices"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/dgallion1/clausegest/internal/chunks"
)

// WriteArchive writes files as a tar.xz stream in name order.
func WriteArchive(w io.Writer, files map[string][]byte) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("xz writer: %w", err)
	}
	tw := tar.NewWriter(xw)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	mtime := time.Unix(0, 0).UTC()
	for _, name := range names {
		data := files[name]
		hdr := &tar.Header{
			Name:    name,
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: mtime,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("tar header %s: %w", name, err)
		}
		if _, err := tw.Write(data); err != nil {
			return fmt.Errorf("tar write %s: %w", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("close xz: %w", err)
	}
	return nil
}

// Bundle collects every export format of a document plus its chunk
// records into one archive file set.
func Bundle(docID string, records []chunks.Record) (map[string][]byte, error) {
	md := Markdown(docID, records)
	html, err := RenderHTML(md)
	if err != nil {
		return nil, err
	}
	var docxBuf bytes.Buffer
	if err := WriteDOCX(&docxBuf, docID, records); err != nil {
		return nil, err
	}

	files := map[string][]byte{
		path.Join(docID, docID+".md"):   md,
		path.Join(docID, docID+".html"): html,
		path.Join(docID, docID+".docx"): docxBuf.Bytes(),
	}
	for _, r := range records {
		data, err := chunks.Marshal(r)
		if err != nil {
			return nil, err
		}
		files[path.Join(docID, "chunks", chunks.SafeFilename(r.ClauseID)+".json")] = data
	}
	return files, nil
}
