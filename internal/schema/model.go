// Package schema turns an extractor block tree into a flat list of
// clause chunks with tables, figures, requirements and references.
package schema

// Content item types.
const (
	ContentParagraph = "paragraph"
	ContentCaption   = "caption"
	ContentFootnote  = "footnote"
	ContentListItem  = "list_item"
)

// MiscTitle is the title of the synthetic chunk holding misc images.
const MiscTitle = "Miscellaneous Images"

type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Requirement struct {
	Type    string `json:"type"`
	Keyword string `json:"keyword"`
	Text    string `json:"text"`
}

type Table struct {
	Number  *string `json:"number"`
	Caption *string `json:"caption"`
	HTML    string  `json:"html,omitempty"`
}

// Figure is an image owned by a clause, or a misc image when Number is empty.
type Figure struct {
	Number      string  `json:"number,omitempty"`
	Path        string  `json:"path"`
	Format      string  `json:"format"`
	Caption     *string `json:"caption"`
	SizeBytes   int     `json:"size_bytes"`
	OriginalKey string  `json:"original_key,omitempty"`
	Digest      string  `json:"blake3,omitempty"`
}

type References struct {
	Internal []string `json:"internal"`
	External []string `json:"external"`
}

// Clause is one structural section while a document is being built.
// Parent and children are held as identifiers only.
type Clause struct {
	ID           string
	Title        string
	ParentID     string
	Children     []string
	Content      []ContentItem
	Tables       []Table
	Figures      []Figure
	Requirements []Requirement
	Internal     []string
	External     []string

	figureSeq int
	seenInt   map[string]bool
	seenExt   map[string]bool
}

func (c *Clause) addInternal(ref string) {
	if c.seenInt == nil {
		c.seenInt = make(map[string]bool)
	}
	if !c.seenInt[ref] {
		c.seenInt[ref] = true
		c.Internal = append(c.Internal, ref)
	}
}

func (c *Clause) addExternal(ref string) {
	if c.seenExt == nil {
		c.seenExt = make(map[string]bool)
	}
	if !c.seenExt[ref] {
		c.seenExt[ref] = true
		c.External = append(c.External, ref)
	}
}

// Chunk is the serialized form of a clause.
type Chunk struct {
	ID           string        `json:"id"`
	DocumentID   string        `json:"document_id"`
	Title        string        `json:"title"`
	ParentID     *string       `json:"parent_id"`
	Content      []ContentItem `json:"content"`
	Tables       []Table       `json:"tables"`
	Figures      []Figure      `json:"figures"`
	Requirements []Requirement `json:"requirements"`
	References   References    `json:"references"`
	ChildrenIDs  []string      `json:"children_ids"`
}

func (c *Clause) chunk(docID string) Chunk {
	var parent *string
	if c.ParentID != "" {
		p := c.ParentID
		parent = &p
	}
	return Chunk{
		ID:           c.ID,
		DocumentID:   docID,
		Title:        c.Title,
		ParentID:     parent,
		Content:      orEmpty(c.Content),
		Tables:       orEmpty(c.Tables),
		Figures:      orEmpty(c.Figures),
		Requirements: orEmpty(c.Requirements),
		References: References{
			Internal: orEmpty(c.Internal),
			External: orEmpty(c.External),
		},
		ChildrenIDs: orEmpty(c.Children),
	}
}

type Statistics struct {
	TotalImages     int `json:"total_images"`
	ImagesInClauses int `json:"images_in_clauses"`
	ImagesInMisc    int `json:"images_in_misc"`
	TotalTables     int `json:"total_tables"`
	TotalClauses    int `json:"total_clauses"`
	TotalChunks     int `json:"total_chunks"`
}

// Document is the per-document output.
type Document struct {
	DocumentID string     `json:"document_id"`
	Statistics Statistics `json:"statistics"`
	Chunks     []Chunk    `json:"chunks"`
}

// MiscChunkID is the identifier of a document's misc-image chunk.
func MiscChunkID(docID string) string {
	return docID + "_misc"
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
