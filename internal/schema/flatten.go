package schema

// Flatten emits one chunk per clause in pre-order: each root, then its
// children in the order they were linked.
func Flatten(a *Arena, roots []string, docID string) []Chunk {
	chunks := make([]Chunk, 0, a.Len())
	visited := make(map[string]bool, a.Len())

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		c := a.Get(id)
		if c == nil {
			return
		}
		visited[id] = true
		chunks = append(chunks, c.chunk(docID))
		for _, child := range c.Children {
			visit(child)
		}
	}
	for _, id := range roots {
		visit(id)
	}
	return chunks
}

func miscChunk(docID string, figures []Figure) Chunk {
	return Chunk{
		ID:           MiscChunkID(docID),
		DocumentID:   docID,
		Title:        MiscTitle,
		Content:      []ContentItem{},
		Tables:       []Table{},
		Figures:      figures,
		Requirements: []Requirement{},
		References:   References{Internal: []string{}, External: []string{}},
		ChildrenIDs:  []string{},
	}
}
