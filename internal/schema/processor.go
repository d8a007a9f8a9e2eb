package schema

import (
	"encoding/base64"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dgallion1/clausegest/internal/block"
	"github.com/dgallion1/clausegest/internal/imagefmt"
	"github.com/dgallion1/clausegest/internal/imagestore"
	"github.com/dgallion1/clausegest/internal/patterns"
)

// ImageStore persists decoded images for a document.
type ImageStore interface {
	SaveClauseImage(docID, clauseID string, seq int, ref string, format imagefmt.Format, data []byte) (imagestore.Stored, error)
	SaveMiscImage(docID string, seq int, ref string, format imagefmt.Format, data []byte) (imagestore.Stored, error)
}

// Processor walks one document's block tree and accumulates clauses.
// It is not safe for concurrent use; create one per document.
type Processor struct {
	docID  string
	arena  *Arena
	ctx    Context
	images ImageStore
	misc   []Figure
	log    *slog.Logger
}

func NewProcessor(docID string, images ImageStore, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		docID:  docID,
		arena:  NewArena(),
		images: images,
		log:    log.With("doc_id", docID),
	}
}

// Arena exposes the clauses collected so far.
func (p *Processor) Arena() *Arena {
	return p.arena
}

// Context exposes the traversal state.
func (p *Processor) Context() *Context {
	return &p.ctx
}

// Walk handles b and then every descendant, depth first in document order.
func (p *Processor) Walk(b *block.Block) {
	if b == nil {
		return
	}
	switch b.Kind {
	case block.SectionHeader:
		p.sectionHeader(b)
	case block.Caption:
		p.caption(b)
	case block.Table:
		p.table(b)
	case block.Picture:
		p.picture(b)
	case block.Text:
		p.text(b, ContentParagraph)
	case block.ListItem:
		p.text(b, ContentListItem)
	case block.Footnote:
		p.footnote(b)
	case block.Page, block.PageHeader, block.PageFooter, block.Unknown:
		// containers only
	}
	for _, child := range b.Children {
		p.Walk(child)
	}
}

func (p *Processor) current() *Clause {
	if p.ctx.Current == "" {
		return nil
	}
	return p.arena.Get(p.ctx.Current)
}

func (p *Processor) open(id, title string) {
	p.arena.Open(id, title)
	p.ctx.Current = id
	p.ctx.PendingNumber = ""
	p.ctx.PendingCaption = ""
}

func (p *Processor) sectionHeader(b *block.Block) {
	text := patterns.CleanHTML(b.HTML)
	if text == "" {
		return
	}
	id, title, ok := patterns.ParseClauseHeading(text)
	switch {
	case ok && title != "":
		p.open(id, title)
	case ok:
		p.ctx.PendingNumber = id
	case p.ctx.PendingNumber != "":
		p.open(p.ctx.PendingNumber, text)
	}
}

func (p *Processor) caption(b *block.Block) {
	text := patterns.CleanHTML(b.HTML)
	if text == "" {
		return
	}
	if patterns.IsNumberedCaption(text) {
		p.ctx.PendingCaption = text
		return
	}
	if c := p.current(); c != nil {
		c.Content = append(c.Content, ContentItem{Type: ContentCaption, Text: text})
	}
}

// blockCaption prefers a pending numbered caption over the block's own.
func (p *Processor) blockCaption(b *block.Block) string {
	if p.ctx.PendingCaption != "" {
		return p.ctx.PendingCaption
	}
	return patterns.CleanHTML(b.Caption)
}

func (p *Processor) table(b *block.Block) {
	if strings.TrimSpace(b.HTML) == "" {
		return
	}
	p.ctx.Counters.TotalTables++

	entry := Table{HTML: b.HTML}
	if caption := p.blockCaption(b); caption != "" {
		entry.Caption = &caption
		if n := patterns.TableNumber(caption); n != "" {
			entry.Number = &n
		}
	}
	if c := p.current(); c != nil {
		c.Tables = append(c.Tables, entry)
	}
	p.ctx.PendingCaption = ""
}

func (p *Processor) picture(b *block.Block) {
	if len(b.Images) == 0 {
		return
	}
	caption := p.blockCaption(b)
	for _, img := range b.Images {
		p.image(img, caption)
	}
	p.ctx.PendingCaption = ""
}

func (p *Processor) image(img block.Image, caption string) {
	log := p.log.With("image_key", img.Key)
	if img.Data == "" {
		log.Warn("empty image payload")
		return
	}
	data, err := decodePayload(img.Data)
	if err != nil {
		log.Warn("image decode failed", "error", err)
		return
	}
	format := imagefmt.Detect(data)
	ref := imagestore.SanitizeKey(img.Key)

	fig := Figure{
		Format:      format.Name(),
		SizeBytes:   len(data),
		OriginalKey: img.Key,
	}
	if caption != "" {
		fig.Caption = &caption
	}

	if c := p.current(); c != nil {
		seq := c.figureSeq + 1
		stored, err := p.images.SaveClauseImage(p.docID, c.ID, seq, ref, format, data)
		if err != nil {
			log.Warn("image write failed", "clause_id", c.ID, "error", err)
			return
		}
		c.figureSeq = seq
		fig.Path, fig.Digest = stored.Path, stored.Digest
		fig.Number = patterns.FigureNumber(caption)
		if fig.Number == "" {
			fig.Number = strconv.Itoa(seq)
		}
		c.Figures = append(c.Figures, fig)
		p.ctx.Counters.TotalImages++
		p.ctx.Counters.ClauseImages++
		return
	}

	seq := p.ctx.Counters.miscSeq + 1
	stored, err := p.images.SaveMiscImage(p.docID, seq, ref, format, data)
	if err != nil {
		log.Warn("image write failed", "error", err)
		return
	}
	p.ctx.Counters.miscSeq = seq
	fig.Path, fig.Digest = stored.Path, stored.Digest
	p.misc = append(p.misc, fig)
	p.ctx.Counters.TotalImages++
	p.ctx.Counters.MiscImages++
}

// decodePayload accepts standard base64 with or without padding and
// ignores embedded line breaks.
func decodePayload(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func (p *Processor) text(b *block.Block, kind string) {
	text := patterns.CleanHTML(b.HTML)
	c := p.current()
	if text == "" || c == nil {
		return
	}
	c.Content = append(c.Content, ContentItem{Type: kind, Text: text})
	if m, ok := patterns.FirstRequirement(text); ok {
		c.Requirements = append(c.Requirements, Requirement{Type: m.Type, Keyword: m.Keyword, Text: text})
	}
	for _, ref := range patterns.ClauseReferences(text) {
		c.addInternal(ref)
	}
	for _, std := range patterns.Standards(text) {
		c.addExternal(std)
	}
}

func (p *Processor) footnote(b *block.Block) {
	text := patterns.CleanHTML(b.HTML)
	if c := p.current(); c != nil && text != "" {
		c.Content = append(c.Content, ContentItem{Type: ContentFootnote, Text: text})
	}
}
