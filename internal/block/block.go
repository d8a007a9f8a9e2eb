// Package block models the block tree produced by the upstream PDF
// extractor. Decoding is tolerant: nodes or fields with an unexpected
// JSON shape are treated as empty rather than failing the document.
package block

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotObject is returned when a document's top level is not a JSON object.
var ErrNotObject = errors.New("block tree root is not a JSON object")

// Kind is the closed set of block kinds the converter distinguishes.
type Kind int

const (
	Unknown Kind = iota
	Page
	SectionHeader
	Caption
	Table
	Picture
	Text
	Footnote
	ListItem
	PageHeader
	PageFooter
)

var kindNames = map[string]Kind{
	"Page":          Page,
	"SectionHeader": SectionHeader,
	"Caption":       Caption,
	"Table":         Table,
	"Picture":       Picture,
	"Text":          Text,
	"Footnote":      Footnote,
	"ListItem":      ListItem,
	"PageHeader":    PageHeader,
	"PageFooter":    PageFooter,
}

// ParseKind maps an extractor block_type to a Kind.
func ParseKind(s string) Kind {
	if k, ok := kindNames[s]; ok {
		return k
	}
	return Unknown
}

func (k Kind) String() string {
	for name, v := range kindNames {
		if v == k {
			return name
		}
	}
	return "Unknown"
}

// Image is one entry of a block's image map, kept in document order.
type Image struct {
	Key  string
	Data string // base64
}

// Block is one node of the extractor output.
type Block struct {
	ID               string
	Kind             Kind
	RawKind          string
	HTML             string
	Caption          string
	Children         []*Block
	Images           []Image
	SectionHierarchy map[string]string
	Rows             json.RawMessage
}

// UnmarshalJSON decodes a block, dropping malformed children and
// ignoring fields of the wrong type.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.ID = rawString(raw["id"])
	b.RawKind = rawString(raw["block_type"])
	b.Kind = ParseKind(b.RawKind)
	b.HTML = rawString(raw["html"])
	b.Caption = rawString(raw["caption"])
	b.Children = decodeChildren(raw["children"])
	b.Images = decodeImages(raw["images"])
	b.SectionHierarchy = decodeHierarchy(raw["section_hierarchy"])
	if rows := bytes.TrimSpace(raw["rows"]); len(rows) > 0 && !bytes.Equal(rows, []byte("null")) {
		b.Rows = rows
	}
	return nil
}

// Document is a decoded extractor output file.
type Document struct {
	Root *Block
}

// Decode reads a whole block tree from r.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read block tree: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}
	var root Block
	if err := json.Unmarshal(trimmed, &root); err != nil {
		return nil, fmt.Errorf("decode block tree: %w", err)
	}
	return &Document{Root: &root}, nil
}

// DecodeFile opens and decodes a block tree file.
func DecodeFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// PageBlocks returns the direct children of every Page node, in order.
func (d *Document) PageBlocks() []*Block {
	var out []*Block
	for _, page := range d.Root.Children {
		if page.Kind != Page {
			continue
		}
		out = append(out, page.Children...)
	}
	return out
}

func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func decodeChildren(raw json.RawMessage) []*Block {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	children := make([]*Block, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var child Block
		if err := json.Unmarshal(item, &child); err != nil {
			continue
		}
		children = append(children, &child)
	}
	return children
}

// decodeImages walks the object token by token so key order survives.
func decodeImages(raw json.RawMessage) []Image {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}
	var images []Image
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return images
		}
		key, _ := tok.(string)
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return images
		}
		images = append(images, Image{Key: key, Data: rawString(val)})
	}
	return images
}

func decodeHierarchy(raw json.RawMessage) map[string]string {
	var m map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil || len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = rawString(v)
	}
	return out
}
